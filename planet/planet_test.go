package planet

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planet-viewer/quality"
	"planet-viewer/scene"
	"planet-viewer/widget"
)

type fakeTextures struct {
	loads   []string
	handles map[string]*scene.Texture
}

func (f *fakeTextures) Load(path string) *scene.Texture {
	f.loads = append(f.loads, path)
	if f.handles == nil {
		f.handles = make(map[string]*scene.Texture)
	}
	if tex, ok := f.handles[path]; ok {
		return tex
	}
	tex := &scene.Texture{Name: path}
	f.handles[path] = tex
	return tex
}

func newSystem(t *testing.T, tier quality.Tier) (*System, *fakeTextures) {
	t.Helper()
	settings, err := quality.NewSettings(quality.DefaultTable(), tier)
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.Log = slog.New(slog.NewTextHandler(io.Discard, nil))

	textures := &fakeTextures{}
	sys, err := New(settings, textures, opts)
	require.NoError(t, err)
	return sys, textures
}

type fakeReleaser struct {
	released []*scene.Mesh
}

func (f *fakeReleaser) ReleaseMesh(mesh *scene.Mesh) {
	f.released = append(f.released, mesh)
}

func binding(t *testing.T, sys *System, body quality.Body) Binding {
	t.Helper()
	b, ok := sys.Binding(body)
	require.True(t, ok, "no binding for %s", body)
	return b
}

func TestNewBindsInitialTier(t *testing.T) {
	sys, _ := newSystem(t, quality.High)

	earth := binding(t, sys, quality.Earth)
	assert.Equal(t, 64, earth.Tessellation)
	assert.Contains(t, earth.TexturePath, "4k")
	assert.Equal(t, quality.Lit, earth.Shading)
	assert.Equal(t, "Toggle Low Settings", sys.Widget().Label())

	node := sys.Body(quality.Earth)
	require.NotNil(t, node)
	assert.Same(t, earth.Mesh, node.Mesh)
	assert.Same(t, earth.Texture, node.Material.AlbedoTexture)
	assert.False(t, node.Material.Unlit)
}

func TestToggleRebindsEveryBody(t *testing.T) {
	sys, _ := newSystem(t, quality.High)

	assert.Equal(t, quality.Low, sys.Toggle())

	earth := binding(t, sys, quality.Earth)
	assert.Equal(t, 32, earth.Tessellation)
	assert.Contains(t, earth.TexturePath, "2k")
	assert.Equal(t, quality.Unlit, earth.Shading)
	assert.Equal(t, "Toggle High Settings", sys.Widget().Label())

	for _, body := range sys.Bodies() {
		node := sys.Body(body)
		assert.True(t, node.Material.Unlit, "%s should be unlit on low", body)
		assert.Equal(t, quality.Low, sys.Stats().Tier)
	}

	clouds := binding(t, sys, quality.Clouds)
	assert.Equal(t, earth.Tessellation, clouds.Tessellation)
	assert.Contains(t, clouds.TexturePath, "2k")
}

func TestToggleRoundTripRestoresBindings(t *testing.T) {
	sys, _ := newSystem(t, quality.High)
	before := make(map[quality.Body]Binding)
	for _, body := range sys.Bodies() {
		before[body] = binding(t, sys, body)
	}

	sys.Toggle()
	sys.Toggle()

	for _, body := range sys.Bodies() {
		after := binding(t, sys, body)
		assert.Equal(t, before[body].TexturePath, after.TexturePath)
		assert.Equal(t, before[body].Tessellation, after.Tessellation)
		assert.Same(t, before[body].Mesh, after.Mesh, "meshes are cached per tessellation")
		assert.Same(t, before[body].Texture, after.Texture)
	}
}

func TestWidgetActivationToggles(t *testing.T) {
	sys, _ := newSystem(t, quality.Low)

	sys.Widget().PointerEnter()
	sys.Widget().Activate()

	assert.Equal(t, quality.High, sys.Settings().Tier())
	assert.Equal(t, quality.High, sys.Widget().Tier())
	assert.Equal(t, 64, binding(t, sys, quality.Earth).Tessellation)
}

func TestMoonUsesItsOwnTexture(t *testing.T) {
	sys, _ := newSystem(t, quality.High)

	moon := binding(t, sys, quality.Moon)
	earth := binding(t, sys, quality.Earth)
	assert.NotEqual(t, earth.TexturePath, moon.TexturePath)
	assert.Contains(t, moon.TexturePath, "moon")
}

func TestCloudsAreTransparent(t *testing.T) {
	sys, _ := newSystem(t, quality.High)

	clouds := sys.Body(quality.Clouds)
	earth := sys.Body(quality.Earth)
	assert.True(t, clouds.Material.Transparent)
	assert.False(t, earth.Material.Transparent)
	assert.Greater(t, clouds.Transform.Scale.X, earth.Transform.Scale.X)
}

func TestFrameSpinsBodies(t *testing.T) {
	sys, _ := newSystem(t, quality.High)

	for i := 0; i < 100; i++ {
		sys.Frame(time.Duration(i) * 16 * time.Millisecond)
	}

	assert.InDelta(t, 0.08, sys.SpinAngle(quality.Earth), 1e-9)
	assert.InDelta(t, 0.1, sys.SpinAngle(quality.Clouds), 1e-9)
	assert.Greater(t, sys.SpinAngle(quality.Clouds), sys.SpinAngle(quality.Earth))
	assert.Equal(t, uint64(100), sys.Frames())
}

func TestMoonOrbitsEarth(t *testing.T) {
	sys, _ := newSystem(t, quality.High)
	earth := sys.Body(quality.Earth).Transform.Position
	moon := sys.Body(quality.Moon)

	start := moon.Transform.Position
	assert.InDelta(t, 5, start.Sub(earth).Length(), 1e-4)
	assert.InDelta(t, 5, start.Z, 1e-4)

	for i := 0; i < 500; i++ {
		sys.Frame(0)
		assert.InDelta(t, 5, moon.Transform.Position.Sub(earth).Length(), 1e-3)
		assert.Zero(t, moon.Transform.Position.Y)
	}
	assert.NotEqual(t, start, moon.Transform.Position)
}

func TestToggleDoesNotDisturbMotion(t *testing.T) {
	sys, _ := newSystem(t, quality.High)
	for i := 0; i < 10; i++ {
		sys.Frame(0)
	}
	angle := sys.SpinAngle(quality.Earth)
	moon := sys.Body(quality.Moon).Transform.Position

	sys.Toggle()

	assert.Equal(t, angle, sys.SpinAngle(quality.Earth))
	assert.Equal(t, moon, sys.Body(quality.Moon).Transform.Position)
}

func TestWidgetNodeIsPickable(t *testing.T) {
	sys, _ := newSystem(t, quality.High)

	node := sys.WidgetNode()
	require.NotNil(t, node)
	assert.True(t, node.Pickable)
	assert.NotNil(t, node.Mesh)
	assert.Same(t, sys.Scene().Root, node.Parent)

	idle := node.Material.Albedo
	sys.Widget().PointerEnter()
	sys.Frame(time.Second)
	assert.Equal(t, widget.Hovered, sys.Widget().State())
	assert.NotEqual(t, idle, node.Material.Albedo)
}

func TestWidgetModelReplacesCube(t *testing.T) {
	settings, err := quality.NewSettings(quality.DefaultTable(), quality.High)
	require.NoError(t, err)

	model := scene.NewNode("Model")
	model.Mesh = scene.CreateCube(1)

	opts := DefaultOptions()
	opts.WidgetModel = model
	sys, err := New(settings, &fakeTextures{}, opts)
	require.NoError(t, err)

	assert.Nil(t, sys.WidgetNode().Mesh)
	assert.Same(t, sys.WidgetNode(), model.Parent)
}

func TestStatsFollowTier(t *testing.T) {
	sys, _ := newSystem(t, quality.High)
	high := sys.Stats()

	sys.Toggle()
	low := sys.Stats()

	assert.Equal(t, quality.High, high.Tier)
	assert.Greater(t, high.Triangles, low.Triangles)
	assert.Greater(t, high.Vertices, low.Vertices)
	// 64x64 earth and clouds plus a 32x32 moon
	assert.Equal(t, 2*65*65+33*33, high.Vertices)
}

func TestReloadAppliesNewTable(t *testing.T) {
	sys, _ := newSystem(t, quality.High)

	table := quality.DefaultTable()
	spec := table[quality.High]
	spec.Bodies[quality.Earth] = quality.Params{Texture: "earth_8k.jpg", Tessellation: 128}
	table[quality.High] = spec

	require.NoError(t, sys.Reload(table))
	earth := binding(t, sys, quality.Earth)
	assert.Equal(t, "earth_8k.jpg", earth.TexturePath)
	assert.Equal(t, 128, earth.Tessellation)
}

func TestReloadReleasesUnusedMeshes(t *testing.T) {
	settings, err := quality.NewSettings(quality.DefaultTable(), quality.High)
	require.NoError(t, err)
	opts := DefaultOptions()
	opts.Log = slog.New(slog.NewTextHandler(io.Discard, nil))
	releaser := &fakeReleaser{}
	opts.Meshes = releaser

	sys, err := New(settings, &fakeTextures{}, opts)
	require.NoError(t, err)
	old := binding(t, sys, quality.Earth).Mesh
	assert.Len(t, sys.Meshes(), 2)

	// toggling between tiers of one table reuses cached meshes
	sys.Toggle()
	sys.Toggle()
	assert.Empty(t, releaser.released)
	assert.Len(t, sys.Meshes(), 3)

	table := quality.DefaultTable()
	for _, b := range []quality.Body{quality.Earth, quality.Clouds} {
		spec := table[quality.High]
		spec.Bodies[b] = quality.Params{Texture: b.String() + "_8k.jpg", Tessellation: 128}
		table[quality.High] = spec
	}
	require.NoError(t, sys.Reload(table))

	require.Len(t, releaser.released, 1)
	assert.Same(t, old, releaser.released[0])
	assert.NotContains(t, sys.Meshes(), old)
	assert.Len(t, sys.Meshes(), 3)
	assert.Equal(t, 128, binding(t, sys, quality.Earth).Tessellation)
}

func TestReloadRejectsInvalidTable(t *testing.T) {
	sys, _ := newSystem(t, quality.High)

	table := quality.DefaultTable()
	delete(table, quality.Low)

	assert.Error(t, sys.Reload(table))
	assert.Equal(t, 64, binding(t, sys, quality.Earth).Tessellation)
}

func TestNewRejectsMissingEarth(t *testing.T) {
	settings, err := quality.NewSettings(quality.DefaultTable(), quality.High)
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.Bodies = []BodyDef{{Body: quality.Moon, Name: "Moon", Scale: 1}}
	_, err = New(settings, &fakeTextures{}, opts)
	assert.Error(t, err)
}

func TestNewRejectsNilDependencies(t *testing.T) {
	settings, err := quality.NewSettings(quality.DefaultTable(), quality.High)
	require.NoError(t, err)

	_, err = New(nil, &fakeTextures{}, DefaultOptions())
	assert.Error(t, err)
	_, err = New(settings, nil, DefaultOptions())
	assert.Error(t, err)
}

func TestApplyLoadsEveryTextureBeforeBinding(t *testing.T) {
	sys, textures := newSystem(t, quality.High)
	textures.loads = nil

	sys.Toggle()
	assert.Len(t, textures.loads, len(sys.Bodies()))
}
