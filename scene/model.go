package scene

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Model holds the nodes and textures loaded from a model file.
// Textures must be uploaded before they are sampled.
type Model struct {
	Roots    []*Node
	Textures []*Texture
}

// Root wraps every top-level node under one parent so the model can be
// placed and picked as a single object.
func (m *Model) Root(name string) *Node {
	root := NewNode(name)
	for _, n := range m.Roots {
		root.AddChild(n)
	}
	return root
}

// LoadModel picks a loader by file extension: .gltf and .glb go through
// LoadGLTF, .obj through LoadOBJ.
func LoadModel(path string) (*Model, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gltf", ".glb":
		return LoadGLTF(path)
	case ".obj":
		return LoadOBJ(path)
	}
	return nil, fmt.Errorf("unsupported model format %q", filepath.Ext(path))
}
