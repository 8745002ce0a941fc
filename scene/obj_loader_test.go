package scene

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discardLog = slog.New(slog.NewTextHandler(io.Discard, nil))

const quadOBJ = `# unit quad
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
vn 0 0 1
o Quad
f 1/1/1 2/2/1 3/3/1 4/4/1
`

func TestParseOBJQuad(t *testing.T) {
	model, err := parseOBJ(strings.NewReader(quadOBJ), nil, discardLog)
	require.NoError(t, err)
	require.Len(t, model.Roots, 1)

	node := model.Roots[0]
	assert.Equal(t, "Quad", node.Name)
	require.NotNil(t, node.Mesh)
	assert.Equal(t, 4, node.Mesh.VertexCount())
	assert.Equal(t, 2, node.Mesh.TriangleCount())
	assert.Equal(t, []uint32{0, 1, 2, 0, 2, 3}, node.Mesh.Indices)

	// v is flipped so the top of the image maps to v=0
	assert.InDelta(t, 1, node.Mesh.Vertices[0].UV.Y, 1e-6)
	assert.InDelta(t, 0, node.Mesh.Vertices[2].UV.Y, 1e-6)
	assert.InDelta(t, 1, node.Mesh.Vertices[0].Normal.Z, 1e-6)
}

func TestParseOBJGroupsAndNegativeIndices(t *testing.T) {
	src := `v 0 0 0
v 1 0 0
v 0 1 0
g First
f 1 2 3
v 0 0 1
v 1 0 1
v 0 1 1
g Second
f -3 -2 -1
`
	model, err := parseOBJ(strings.NewReader(src), nil, discardLog)
	require.NoError(t, err)
	require.Len(t, model.Roots, 2)

	second := model.Roots[1].Mesh
	assert.Equal(t, "Second", model.Roots[1].Name)
	assert.InDelta(t, 1, second.Vertices[0].Position.Z, 1e-6)

	// no vn lines: normals come from the face winding
	assert.InDelta(t, 1, second.Vertices[0].Normal.Z, 1e-6)
}

func TestParseOBJEmpty(t *testing.T) {
	_, err := parseOBJ(strings.NewReader("# nothing\nv 0 0 0\n"), nil, discardLog)
	assert.Error(t, err)
}

func TestParseOBJMaterialLibrary(t *testing.T) {
	src := "mtllib box.mtl\nv 0 0 0\nv 1 0 0\nv 0 1 0\nusemtl Blue\nf 1 2 3\n"
	blue := NewMaterial("Blue", objDefaultColor)

	var requested string
	model, err := parseOBJ(strings.NewReader(src), func(name string) (map[string]*Material, []*Texture, error) {
		requested = name
		return map[string]*Material{"Blue": blue}, nil, nil
	}, discardLog)
	require.NoError(t, err)

	assert.Equal(t, "box.mtl", requested)
	assert.Same(t, blue, model.Roots[0].EffectiveMaterial())
}

func TestParseMTL(t *testing.T) {
	src := `newmtl Glass
Kd 0.2 0.4 0.6
Ks 1 1 1
Ns 64
d 0.25
map_Kd glass.png
newmtl Solid
Kd 1 0 0
`
	mats, maps, err := parseMTL(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, mats, 2)

	glass := mats["Glass"]
	assert.InDelta(t, 0.4, glass.Albedo.G, 1e-6)
	assert.Equal(t, float32(64), glass.Shininess)
	assert.InDelta(t, 0.25, glass.Opacity, 1e-6)
	assert.True(t, glass.Transparent)
	assert.Equal(t, "glass.png", maps["Glass"])

	solid := mats["Solid"]
	assert.False(t, solid.Transparent)
	assert.Equal(t, float32(1), solid.Opacity)
	assert.NotContains(t, maps, "Solid")
}

func TestLoadModelDispatchesByExtension(t *testing.T) {
	dir := t.TempDir()
	objPath := filepath.Join(dir, "widget.OBJ")
	require.NoError(t, os.WriteFile(objPath, []byte(quadOBJ), 0o644))

	model, err := LoadModel(objPath)
	require.NoError(t, err)
	root := model.Root("Widget")
	assert.Len(t, root.Children, 1)
	assert.Same(t, root, model.Roots[0].Parent)

	_, err = LoadModel(filepath.Join(dir, "widget.fbx"))
	assert.Error(t, err)
}
