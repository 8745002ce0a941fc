package planet

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/chewxy/math32"

	"planet-viewer/core"
	"planet-viewer/math"
	"planet-viewer/motion"
	"planet-viewer/quality"
	"planet-viewer/scene"
	"planet-viewer/widget"
)

// TextureSource hands out texture handles by asset path. Handles may be
// filled in later; an unfilled handle renders untextured.
type TextureSource interface {
	Load(path string) *scene.Texture
}

// MeshReleaser frees the GPU resources of a mesh the scene no longer uses.
type MeshReleaser interface {
	ReleaseMesh(mesh *scene.Mesh)
}

// Options configures the composed scene.
type Options struct {
	Bodies []BodyDef

	CameraPosition math.Vec3
	FOV            float32 // vertical, radians
	Aspect         float32

	SunDirection math.Vec3
	SunIntensity float32

	WidgetPosition math.Vec3
	WidgetSize     float32
	// WidgetModel replaces the default cube when set.
	WidgetModel *scene.Node

	// Meshes, when set, receives sphere meshes dropped from the cache.
	Meshes MeshReleaser

	Log *slog.Logger
}

// DefaultOptions frames the Earth and the full lunar orbit.
func DefaultOptions() Options {
	return Options{
		Bodies:         DefaultBodies(),
		CameraPosition: math.Vec3{X: 0, Y: 3, Z: 12},
		FOV:            math32.Pi / 3,
		Aspect:         16.0 / 9.0,
		SunDirection:   math.Vec3{X: -1, Y: -0.25, Z: -0.6},
		SunIntensity:   1.3,
		WidgetPosition: math.Vec3{X: 0, Y: -3.6, Z: 2},
		WidgetSize:     0.6,
	}
}

// Binding is what a body currently draws with.
type Binding struct {
	TexturePath  string
	Texture      *scene.Texture
	Tessellation int
	Mesh         *scene.Mesh
	Shading      quality.Shading
}

// Stats summarises the geometry bound for the active tier.
type Stats struct {
	Tier      quality.Tier
	Vertices  int
	Triangles int
}

type body struct {
	def      BodyDef
	node     *scene.Node
	material *scene.Material
	spin     motion.Spin
	orbit    *motion.Orbit
	binding  Binding
}

// System owns the scene graph, the quality settings it renders under and the
// per-frame animation state.
type System struct {
	settings *quality.Settings
	textures TextureSource
	releaser MeshReleaser
	log      *slog.Logger

	scene      *scene.Scene
	bodies     []*body
	byBody     map[quality.Body]*body
	meshes     map[int]*scene.Mesh
	widget     *widget.Toggle
	widgetNode *scene.Node
	widgetMat  *scene.Material
	frames     uint64
}

// New builds the scene and binds every body to the current tier.
func New(settings *quality.Settings, textures TextureSource, opts Options) (*System, error) {
	if settings == nil {
		return nil, fmt.Errorf("planet: nil settings")
	}
	if textures == nil {
		return nil, fmt.Errorf("planet: nil texture source")
	}
	if len(opts.Bodies) == 0 {
		opts.Bodies = DefaultBodies()
	}
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}

	s := &System{
		settings: settings,
		textures: textures,
		releaser: opts.Meshes,
		log:      log.With("component", "planet"),
		scene:    scene.NewScene(),
		byBody:   make(map[quality.Body]*body),
		meshes:   make(map[int]*scene.Mesh),
	}

	cam := scene.NewCamera(opts.FOV, opts.Aspect, 0.1, 200)
	cam.SetPosition(opts.CameraPosition)
	cam.LookAt(math.Vec3Zero, math.Vec3Up)
	s.scene.SetCamera(cam)

	s.scene.AddLight(&scene.Light{
		Type:      scene.LightTypeDirectional,
		Direction: opts.SunDirection.Normalize(),
		Color:     core.ColorWhite,
		Intensity: opts.SunIntensity,
	})

	for _, def := range opts.Bodies {
		if _, dup := s.byBody[def.Body]; dup {
			return nil, fmt.Errorf("planet: body %s defined twice", def.Body)
		}
		b := &body{
			def:  def,
			node: scene.NewNode(def.Name),
			spin: motion.Spin{Rate: def.SpinRate},
		}
		b.material = scene.NewMaterial(def.Name, core.ColorWhite)
		b.material.Transparent = def.Transparent
		if def.Transparent && def.Opacity > 0 {
			b.material.Opacity = def.Opacity
		}
		b.node.Material = b.material
		b.node.SetScale(math.Splat(def.Scale))
		if def.Orbit != nil {
			b.orbit = &motion.Orbit{Radius: def.Orbit.Radius, Step: def.Orbit.Step}
		}
		s.bodies = append(s.bodies, b)
		s.byBody[def.Body] = b
		s.scene.AddNode(b.node)
	}
	if _, ok := s.byBody[quality.Earth]; !ok {
		return nil, fmt.Errorf("planet: no %s body", quality.Earth)
	}

	s.buildWidget(opts)
	s.Apply(settings.Current())
	s.place()

	return s, nil
}

func (s *System) buildWidget(opts Options) {
	s.widget = widget.NewToggle(s.settings.Tier(), s.Toggle)

	s.widgetNode = scene.NewNode("QualityToggle")
	s.widgetNode.Pickable = true
	s.widgetNode.SetPosition(opts.WidgetPosition)

	if opts.WidgetModel != nil {
		s.widgetNode.AddChild(opts.WidgetModel)
	} else {
		size := opts.WidgetSize
		if size <= 0 {
			size = 0.6
		}
		s.widgetMat = scene.NewMaterial("QualityToggle", widgetIdle)
		s.widgetMat.Unlit = true
		s.widgetNode.Mesh = scene.CreateCube(size)
		s.widgetNode.Material = s.widgetMat
	}
	s.scene.AddNode(s.widgetNode)
}

var (
	widgetIdle    = core.Color{R: 0.25, G: 0.45, B: 0.85, A: 1}
	widgetHovered = core.Color{R: 0.45, G: 0.7, B: 1, A: 1}
)

// Toggle switches quality tier and rebinds the scene. It is the widget's
// activation handler and returns the tier now active.
func (s *System) Toggle() quality.Tier {
	snap := s.settings.Toggle()
	s.Apply(snap)
	return snap.Tier
}

// Reload installs a new quality table and rebinds the scene under the
// active tier.
func (s *System) Reload(table quality.Table) error {
	snap, err := s.settings.SetTable(table)
	if err != nil {
		return fmt.Errorf("reload quality table: %w", err)
	}
	s.Apply(snap)
	return nil
}

// Apply binds every body to the textures, tessellation and shading of snap.
// All handles and meshes are resolved before any node changes, so a frame
// never sees one body on the new tier and another on the old.
func (s *System) Apply(snap quality.Snapshot) {
	resolved := make([]Binding, len(s.bodies))
	for i, b := range s.bodies {
		p := snap.Params(b.def.Body)
		resolved[i] = Binding{
			TexturePath:  p.Texture,
			Texture:      s.textures.Load(p.Texture),
			Tessellation: p.Tessellation,
			Mesh:         s.sphere(p.Tessellation),
			Shading:      snap.Shading,
		}
	}

	for i, b := range s.bodies {
		bind := resolved[i]
		b.binding = bind
		b.node.Mesh = bind.Mesh
		b.material.AlbedoTexture = bind.Texture
		b.material.Unlit = bind.Shading == quality.Unlit
	}
	if s.widget != nil {
		s.widget.Sync(snap.Tier)
	}
	s.pruneMeshes()

	s.log.Info("Quality applied",
		"tier", snap.Tier.String(),
		"shading", snap.Shading.String(),
		"earth", s.byBody[quality.Earth].binding.TexturePath)
}

// sphere returns the shared unit sphere for a tessellation level.
func (s *System) sphere(tessellation int) *scene.Mesh {
	if m, ok := s.meshes[tessellation]; ok {
		return m
	}
	m := scene.CreateSphere(1, tessellation, tessellation)
	s.meshes[tessellation] = m
	return m
}

// pruneMeshes drops cached spheres that no body is bound to and that no tier
// of the current table asks for.
func (s *System) pruneMeshes() {
	keep := make(map[int]bool, len(s.meshes))
	for _, b := range s.bodies {
		keep[b.binding.Tessellation] = true
	}
	for _, spec := range s.settings.Table() {
		for _, p := range spec.Bodies {
			keep[p.Tessellation] = true
		}
	}
	for tess, m := range s.meshes {
		if keep[tess] {
			continue
		}
		delete(s.meshes, tess)
		if s.releaser != nil {
			s.releaser.ReleaseMesh(m)
		}
		s.log.Debug("Sphere mesh released", "tessellation", tess)
	}
}

// Frame advances every body by one frame and updates the widget from the
// elapsed wall time since start.
func (s *System) Frame(elapsed time.Duration) {
	for _, b := range s.bodies {
		b.spin = b.spin.Next()
		if b.orbit != nil {
			*b.orbit = b.orbit.Next()
		}
	}
	s.place()

	w := motion.Wobble(elapsed)
	s.widgetNode.SetRotation(math.QuaternionFromEuler(math.Vec3{
		X: float32(w.X), Y: float32(w.Y), Z: float32(w.Z),
	}))
	if s.widgetMat != nil {
		if s.widget.State() == widget.Hovered {
			s.widgetMat.Albedo = widgetHovered
		} else {
			s.widgetMat.Albedo = widgetIdle
		}
	}
	s.frames++
}

// place writes spin and orbit state to the nodes. Orbits are centred on the
// Earth.
func (s *System) place() {
	centre := s.byBody[quality.Earth].node.Transform.Position
	for _, b := range s.bodies {
		b.node.SetRotation(math.QuaternionFromAxisAngle(math.Vec3Up, float32(b.spin.Angle)))
		if b.orbit != nil {
			x, z := b.orbit.Position()
			b.node.SetPosition(centre.Add(math.Vec3{X: float32(x), Z: float32(z)}))
		}
	}
}

func (s *System) Scene() *scene.Scene { return s.scene }

func (s *System) Settings() *quality.Settings { return s.settings }

func (s *System) Widget() *widget.Toggle { return s.widget }

func (s *System) WidgetNode() *scene.Node { return s.widgetNode }

// Frames is the number of Frame calls so far.
func (s *System) Frames() uint64 { return s.frames }

// Meshes returns every cached sphere mesh, across tiers.
func (s *System) Meshes() []*scene.Mesh {
	out := make([]*scene.Mesh, 0, len(s.meshes))
	for _, m := range s.meshes {
		out = append(out, m)
	}
	return out
}

// Bodies lists the bodies in definition order.
func (s *System) Bodies() []quality.Body {
	out := make([]quality.Body, len(s.bodies))
	for i, b := range s.bodies {
		out[i] = b.def.Body
	}
	return out
}

// Body returns the scene node of a body, or nil.
func (s *System) Body(id quality.Body) *scene.Node {
	if b, ok := s.byBody[id]; ok {
		return b.node
	}
	return nil
}

// Binding returns what a body is currently drawn with.
func (s *System) Binding(id quality.Body) (Binding, bool) {
	b, ok := s.byBody[id]
	if !ok {
		return Binding{}, false
	}
	return b.binding, true
}

// SpinAngle is the accumulated self-rotation of a body.
func (s *System) SpinAngle(id quality.Body) float64 {
	if b, ok := s.byBody[id]; ok {
		return b.spin.Angle
	}
	return 0
}

// Stats sums the geometry of all bodies for the active tier.
func (s *System) Stats() Stats {
	st := Stats{Tier: s.settings.Tier()}
	for _, b := range s.bodies {
		if b.node.Mesh == nil {
			continue
		}
		st.Vertices += b.node.Mesh.VertexCount()
		st.Triangles += b.node.Mesh.TriangleCount()
	}
	return st
}
