package scene

import (
	"planet-viewer/core"
	"planet-viewer/math"
)

// Scene manages a collection of nodes and the active camera
type Scene struct {
	Root     *Node
	Camera   *Camera
	Lights   []*Light
	Ambient  core.Color
	SkyColor core.Color
}

const (
	LightTypeDirectional = iota
	LightTypePoint
)

type Light struct {
	Type      int
	Position  math.Vec3
	Direction math.Vec3
	Color     core.Color
	Intensity float32
	Range     float32
}

func NewScene() *Scene {
	return &Scene{
		Root:     NewNode("Root"),
		Lights:   make([]*Light, 0),
		Ambient:  core.Color{R: 0.08, G: 0.08, B: 0.1, A: 1.0},
		SkyColor: core.ColorBlack,
	}
}

func (s *Scene) SetCamera(camera *Camera) {
	s.Camera = camera
}

func (s *Scene) AddNode(node *Node) {
	s.Root.AddChild(node)
}

func (s *Scene) AddLight(light *Light) {
	s.Lights = append(s.Lights, light)
}

// DirectionalLight returns the first directional light, or nil.
func (s *Scene) DirectionalLight() *Light {
	for _, l := range s.Lights {
		if l != nil && l.Type == LightTypeDirectional {
			return l
		}
	}
	return nil
}

// GetVisibleNodes returns all nodes with meshes that are visible. A hidden
// node hides its whole subtree.
func (s *Scene) GetVisibleNodes() []*Node {
	var visible []*Node
	var walk func(*Node)
	walk = func(n *Node) {
		if !n.Visible {
			return
		}
		if n.Mesh != nil {
			visible = append(visible, n)
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(s.Root)
	return visible
}
