package scene

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"planet-viewer/core"
	"planet-viewer/math"
)

var objDefaultColor = core.Color{R: 0.8, G: 0.8, B: 0.8, A: 1}

// LoadOBJ parses a Wavefront .obj file and any .mtl libraries it references.
// Each object or group becomes one node.
func LoadOBJ(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("obj open %q: %w", path, err)
	}
	defer f.Close()

	log := slog.With("component", "obj", "path", path)
	dir := filepath.Dir(path)

	return parseOBJ(f, func(name string) (map[string]*Material, []*Texture, error) {
		return LoadMTL(filepath.Join(dir, name))
	}, log)
}

type mtlResolver func(name string) (map[string]*Material, []*Texture, error)

type objGroup struct {
	name     string
	material string
	vertices []core.Vertex
	indices  []uint32
	seen     map[string]uint32 // "v/vt/vn" -> vertex index
}

func newOBJGroup(name, material string) *objGroup {
	return &objGroup{name: name, material: material, seen: make(map[string]uint32)}
}

func parseOBJ(r io.Reader, mtllib mtlResolver, log *slog.Logger) (*Model, error) {
	var (
		positions []math.Vec3
		normals   []math.Vec3
		uvs       []math.Vec2
		groups    []*objGroup
	)
	materials := make(map[string]*Material)
	model := &Model{}

	current := newOBJGroup("default", "")
	flush := func() {
		if len(current.vertices) > 0 {
			groups = append(groups, current)
		}
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Fields(line)

		switch parts[0] {
		case "v":
			if len(parts) >= 4 {
				positions = append(positions, parseVec3(parts[1:4]))
			}
		case "vn":
			if len(parts) >= 4 {
				normals = append(normals, parseVec3(parts[1:4]))
			}
		case "vt":
			if len(parts) >= 3 {
				u, _ := strconv.ParseFloat(parts[1], 32)
				v, _ := strconv.ParseFloat(parts[2], 32)
				// OBJ puts v=0 at the bottom of the image
				uvs = append(uvs, math.Vec2{X: float32(u), Y: 1 - float32(v)})
			}
		case "f":
			face := make([]uint32, 0, len(parts)-1)
			for _, spec := range parts[1:] {
				if idx, ok := current.seen[spec]; ok {
					face = append(face, idx)
					continue
				}
				idx := uint32(len(current.vertices))
				current.vertices = append(current.vertices, parseFaceVertex(spec, positions, normals, uvs))
				current.seen[spec] = idx
				face = append(face, idx)
			}
			// Fan triangulation for n-gons
			for i := 2; i < len(face); i++ {
				current.indices = append(current.indices, face[0], face[i-1], face[i])
			}
		case "o", "g":
			flush()
			name := "unnamed"
			if len(parts) > 1 {
				name = parts[1]
			}
			current = newOBJGroup(name, current.material)
		case "usemtl":
			if len(parts) > 1 {
				current.material = parts[1]
			}
		case "mtllib":
			if len(parts) > 1 && mtllib != nil {
				mtls, textures, err := mtllib(parts[1])
				if err != nil {
					log.Warn("Material library unavailable", "mtllib", parts[1], "error", err)
					continue
				}
				for k, v := range mtls {
					materials[k] = v
				}
				model.Textures = append(model.Textures, textures...)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("obj read: %w", err)
	}
	flush()

	if len(groups) == 0 {
		return nil, fmt.Errorf("no mesh data found in OBJ file")
	}

	for _, g := range groups {
		mesh := CreateMeshFromData(g.name, g.vertices, g.indices)
		if len(normals) == 0 {
			computeFlatNormals(mesh)
		}
		node := NewNode(g.name)
		node.Mesh = mesh
		if mat, ok := materials[g.material]; ok {
			mesh.Material = mat
		}
		model.Roots = append(model.Roots, node)
	}
	return model, nil
}

// LoadMTL parses a Wavefront .mtl file. Diffuse maps named with map_Kd are
// loaded relative to the .mtl file and returned for upload.
func LoadMTL(path string) (map[string]*Material, []*Texture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	mats, maps, err := parseMTL(f)
	if err != nil {
		return nil, nil, err
	}

	dir := filepath.Dir(path)
	var textures []*Texture
	for name, file := range maps {
		tex, err := LoadTexture(filepath.Join(dir, file))
		if err != nil {
			slog.Warn("Diffuse map failed", "component", "obj", "material", name, "file", file, "error", err)
			continue
		}
		mats[name].AlbedoTexture = tex
		textures = append(textures, tex)
	}
	return mats, textures, nil
}

// parseMTL returns the materials and, per material, its map_Kd file name.
func parseMTL(r io.Reader) (map[string]*Material, map[string]string, error) {
	result := make(map[string]*Material)
	maps := make(map[string]string)
	var current *Material

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Fields(line)

		if parts[0] == "newmtl" {
			if len(parts) > 1 {
				current = NewMaterial(parts[1], objDefaultColor)
				result[parts[1]] = current
			}
			continue
		}
		if current == nil {
			continue
		}

		switch parts[0] {
		case "Kd":
			if len(parts) >= 4 {
				current.Albedo = colorFromVec3(parseVec3(parts[1:4]))
			}
		case "Ks":
			if len(parts) >= 4 {
				current.Specular = colorFromVec3(parseVec3(parts[1:4]))
			}
		case "Ns":
			if len(parts) >= 2 {
				ns, _ := strconv.ParseFloat(parts[1], 32)
				current.Shininess = max(float32(ns), 1)
			}
		case "d", "Tr":
			if len(parts) >= 2 {
				d, _ := strconv.ParseFloat(parts[1], 32)
				if parts[0] == "Tr" {
					d = 1 - d
				}
				current.Opacity = float32(d)
				current.Transparent = d < 1
			}
		case "map_Kd":
			if len(parts) >= 2 {
				maps[current.Name] = parts[len(parts)-1]
			}
		}
	}
	return result, maps, scanner.Err()
}

// parseFaceVertex parses an OBJ face vertex spec like "v/vt/vn". Negative
// indices count back from the most recent element.
func parseFaceVertex(spec string, positions, normals []math.Vec3, uvs []math.Vec2) core.Vertex {
	v := core.Vertex{Color: objDefaultColor}
	parts := strings.Split(spec, "/")

	if i, ok := objIndex(parts, 0, len(positions)); ok {
		v.Position = positions[i]
	}
	if i, ok := objIndex(parts, 1, len(uvs)); ok {
		v.UV = uvs[i]
	}
	if i, ok := objIndex(parts, 2, len(normals)); ok {
		v.Normal = normals[i]
	}
	return v
}

func objIndex(parts []string, field, n int) (int, bool) {
	if field >= len(parts) || parts[field] == "" {
		return 0, false
	}
	idx, err := strconv.Atoi(parts[field])
	if err != nil {
		return 0, false
	}
	if idx < 0 {
		idx = n + idx + 1
	}
	if idx <= 0 || idx > n {
		return 0, false
	}
	return idx - 1, true
}

// computeFlatNormals assigns each vertex the normal of the last triangle
// that uses it.
func computeFlatNormals(mesh *Mesh) {
	for i := 0; i+2 < len(mesh.Indices); i += 3 {
		a, b, c := mesh.Indices[i], mesh.Indices[i+1], mesh.Indices[i+2]
		p0 := mesh.Vertices[a].Position
		n := mesh.Vertices[b].Position.Sub(p0).Cross(mesh.Vertices[c].Position.Sub(p0)).Normalize()
		mesh.Vertices[a].Normal = n
		mesh.Vertices[b].Normal = n
		mesh.Vertices[c].Normal = n
	}
}

func parseVec3(fields []string) math.Vec3 {
	x, _ := strconv.ParseFloat(fields[0], 32)
	y, _ := strconv.ParseFloat(fields[1], 32)
	z, _ := strconv.ParseFloat(fields[2], 32)
	return math.Vec3{X: float32(x), Y: float32(y), Z: float32(z)}
}

func colorFromVec3(v math.Vec3) core.Color {
	return core.Color{R: v.X, G: v.Y, B: v.Z, A: 1}
}
