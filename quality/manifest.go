package quality

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

//go:embed default_manifest.toml
var defaultManifest []byte

// manifestDoc is the on-disk shape shared by the TOML and YAML forms.
type manifestDoc map[string]tierDoc

type tierDoc struct {
	Shading string     `toml:"shading" yaml:"shading"`
	Earth   *paramsDoc `toml:"earth" yaml:"earth"`
	Clouds  *paramsDoc `toml:"clouds" yaml:"clouds"`
	Moon    *paramsDoc `toml:"moon" yaml:"moon"`
}

type paramsDoc struct {
	Texture      string `toml:"texture" yaml:"texture"`
	Tessellation int    `toml:"tessellation" yaml:"tessellation"`
}

func (d tierDoc) body(b Body) *paramsDoc {
	switch b {
	case Earth:
		return d.Earth
	case Clouds:
		return d.Clouds
	case Moon:
		return d.Moon
	}
	return nil
}

// DefaultTable returns the built-in manifest.
func DefaultTable() Table {
	t, err := ParseManifest(defaultManifest, ".toml", nil)
	if err != nil {
		panic(fmt.Sprintf("quality: built-in manifest: %v", err))
	}
	return t
}

// LoadManifest reads a TOML or YAML manifest (chosen by file extension) and
// overlays it on the built-in table. Any tier, body or field the file leaves
// out keeps its default value.
func LoadManifest(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %q: %w", path, err)
	}
	t, err := ParseManifest(data, filepath.Ext(path), DefaultTable())
	if err != nil {
		return nil, fmt.Errorf("manifest %q: %w", path, err)
	}
	return t, nil
}

// ParseManifest decodes data and overlays it on base (nil for none). The
// result is validated.
func ParseManifest(data []byte, ext string, base Table) (Table, error) {
	var doc manifestDoc
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	default:
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode toml: %w", err)
		}
	}

	out := base.Clone()
	for name, td := range doc {
		tier, err := ParseTier(name)
		if err != nil {
			return nil, err
		}
		spec, ok := out[tier]
		if !ok {
			spec = TierSpec{Bodies: make(map[Body]Params)}
		}
		if td.Shading != "" {
			if spec.Shading, err = ParseShading(td.Shading); err != nil {
				return nil, fmt.Errorf("tier %s: %w", tier, err)
			}
		}
		for _, body := range Bodies {
			pd := td.body(body)
			if pd == nil {
				continue
			}
			p := spec.Bodies[body]
			if pd.Texture != "" {
				p.Texture = pd.Texture
			}
			if pd.Tessellation != 0 {
				p.Tessellation = pd.Tessellation
			}
			spec.Bodies[body] = p
		}
		out[tier] = spec
	}

	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}
