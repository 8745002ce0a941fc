package scene

import (
	stdmath "math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planet-viewer/core"
	"planet-viewer/math"
)

const tolerance = 1e-4

func assertVec3(t *testing.T, expected, actual math.Vec3) {
	t.Helper()
	assert.InDelta(t, expected.X, actual.X, tolerance, "X")
	assert.InDelta(t, expected.Y, actual.Y, tolerance, "Y")
	assert.InDelta(t, expected.Z, actual.Z, tolerance, "Z")
}

func TestCreateSphereCounts(t *testing.T) {
	for _, n := range []int{16, 32, 64} {
		m := CreateSphere(1, n, n)
		assert.Equal(t, (n+1)*(n+1), m.VertexCount(), "tessellation %d", n)
		assert.Equal(t, 2*n*(n-1), m.TriangleCount(), "tessellation %d", n)
	}
}

func TestCreateSphereGeometry(t *testing.T) {
	m := CreateSphere(2, 8, 6)

	for i, v := range m.Vertices {
		assert.InDelta(t, 2, v.Position.Length(), tolerance, "vertex %d", i)
		assert.InDelta(t, 1, v.Normal.Length(), tolerance, "vertex %d", i)
	}

	// first row sits on the north pole with v = 0, last row on the south pole
	assertVec3(t, math.NewVec3(0, 2, 0), m.Vertices[0].Position)
	assert.Equal(t, float32(0), m.Vertices[0].UV.Y)
	last := m.Vertices[len(m.Vertices)-1]
	assertVec3(t, math.NewVec3(0, -2, 0), last.Position)
	assert.Equal(t, float32(1), last.UV.Y)

	require.True(t, m.HasLocalAABB)
	assertVec3(t, math.NewVec3(-2, -2, -2), m.LocalAABB.Min)
	assertVec3(t, math.NewVec3(2, 2, 2), m.LocalAABB.Max)
}

func TestCreateSphereClampsDegenerateInput(t *testing.T) {
	m := CreateSphere(1, 0, 0)
	assert.Equal(t, 4*3, m.VertexCount())
	assert.Equal(t, "Sphere_3x2", m.Name)
}

func TestNodeWorldMatrixFollowsParent(t *testing.T) {
	parent := NewNode("parent")
	child := NewNode("child")
	parent.AddChild(child)

	parent.SetPosition(math.NewVec3(10, 0, 0))
	parent.SetScale(math.Splat(2))
	child.SetPosition(math.NewVec3(1, 0, 0))

	// child offset is scaled by the parent before the parent translation
	assertVec3(t, math.NewVec3(12, 0, 0), child.WorldPosition())

	parent.SetRotation(math.QuaternionFromAxisAngle(math.Vec3Up, float32(stdmath.Pi/2)))
	assertVec3(t, math.NewVec3(10, 0, -2), child.WorldPosition())
}

func TestNodeReparent(t *testing.T) {
	a := NewNode("a")
	b := NewNode("b")
	c := NewNode("c")
	a.AddChild(c)
	b.AddChild(c)

	assert.Empty(t, a.Children)
	assert.Same(t, b, c.Parent)
	assert.True(t, c.IsDescendantOf(b))
	assert.False(t, c.IsDescendantOf(a))
	assert.Same(t, c, b.Find("c"))
	assert.Nil(t, a.Find("c"))
}

func TestNodeEffectiveMaterial(t *testing.T) {
	n := NewNode("n")
	assert.Equal(t, "Default", n.EffectiveMaterial().Name)

	n.Mesh = CreateCube(1)
	n.Mesh.Material = NewMaterial("mesh", core.ColorWhite)
	assert.Equal(t, "mesh", n.EffectiveMaterial().Name)

	n.Material = NewMaterial("node", core.ColorBlack)
	assert.Equal(t, "node", n.EffectiveMaterial().Name)
}

func TestSceneVisibleNodesSkipsHiddenSubtrees(t *testing.T) {
	s := NewScene()
	group := NewNode("group")
	leaf := NewNode("leaf")
	leaf.Mesh = CreateCube(1)
	group.AddChild(leaf)
	s.AddNode(group)

	assert.Equal(t, []*Node{leaf}, s.GetVisibleNodes())

	group.Visible = false
	assert.Empty(t, s.GetVisibleNodes())
}

func TestSceneDirectionalLight(t *testing.T) {
	s := NewScene()
	assert.Nil(t, s.DirectionalLight())

	sun := &Light{Type: LightTypeDirectional, Direction: math.NewVec3(-1, 0, 0), Intensity: 1}
	s.AddLight(&Light{Type: LightTypePoint})
	s.AddLight(sun)
	assert.Same(t, sun, s.DirectionalLight())
}

func TestFrustumCulling(t *testing.T) {
	cam := NewCamera(float32(stdmath.Pi/3), 1, 0.1, 100)
	f := FrustumFromVP(cam.GetViewProjectionMatrix())

	cube := CreateCube(1)
	inView := ComputeAABB(cube, math.Mat4Identity())
	assert.True(t, inView.IntersectsFrustum(&f))

	behind := ComputeAABB(cube, math.Mat4Translation(math.NewVec3(0, 0, 20)))
	assert.False(t, behind.IntersectsFrustum(&f))

	farAside := ComputeAABB(cube, math.Mat4Translation(math.NewVec3(50, 0, 0)))
	assert.False(t, farAside.IntersectsFrustum(&f))
}

func TestComputeAABBScalesAndTranslates(t *testing.T) {
	m := math.Mat4Scale(math.Splat(2)).Mul(math.Mat4Translation(math.NewVec3(1, 2, 3)))
	box := ComputeAABB(CreateCube(1), m)

	assertVec3(t, math.NewVec3(0, 1, 2), box.Min)
	assertVec3(t, math.NewVec3(2, 3, 4), box.Max)
	assertVec3(t, math.NewVec3(1, 2, 3), box.Center())
}

func TestCameraProject(t *testing.T) {
	cam := NewCamera(float32(stdmath.Pi/2), 1, 0.1, 100)

	ndc, ok := cam.Project(math.Vec3Zero)
	require.True(t, ok)
	assert.InDelta(t, 0, ndc.X, tolerance)
	assert.InDelta(t, 0, ndc.Y, tolerance)

	// 90 degree fov: a point at distance 5 and height 5 lands on the top edge
	ndc, ok = cam.Project(math.NewVec3(0, 5, 0))
	require.True(t, ok)
	assert.InDelta(t, 1, ndc.Y, tolerance)

	_, ok = cam.Project(math.NewVec3(0, 0, 10))
	assert.False(t, ok)
}

func TestCameraAspectRatio(t *testing.T) {
	cam := NewCamera(1, 1, 0.1, 100)
	cam.UpdateAspectRatio(1920, 1080)
	assert.InDelta(t, 16.0/9.0, cam.AspectRatio, tolerance)

	cam.UpdateAspectRatio(100, 0)
	assert.InDelta(t, 16.0/9.0, cam.AspectRatio, tolerance)
}

func TestSolidTexture(t *testing.T) {
	tex := NewSolidTexture("grey", 128, 128, 128, 255)
	assert.Equal(t, 1, tex.Width)
	assert.Equal(t, []byte{128, 128, 128, 255}, tex.Pixels)
	assert.False(t, tex.Resident())
}

func TestBuildDrawListSplitsAndSorts(t *testing.T) {
	opaque := NewNode("opaque")
	opaque.Mesh = CreateSphere(1, 8, 8)

	glass := NewMaterial("glass", core.ColorWhite)
	glass.Transparent = true

	near := NewNode("near")
	near.Mesh = opaque.Mesh
	near.Material = glass
	near.SetPosition(math.NewVec3(0, 0, 2))

	far := NewNode("far")
	far.Mesh = opaque.Mesh
	far.Material = glass
	far.SetPosition(math.NewVec3(0, 0, -2))

	eye := math.NewVec3(0, 0, 5)
	dl := BuildDrawList([]*Node{near, opaque, far}, nil, eye)

	require.Len(t, dl.Opaque, 1)
	assert.Same(t, opaque, dl.Opaque[0].Node)
	require.Len(t, dl.Transparent, 2)
	assert.Same(t, far, dl.Transparent[0].Node)
	assert.Same(t, near, dl.Transparent[1].Node)
	assert.Same(t, glass, dl.Transparent[0].Material)
	assert.Zero(t, dl.Culled)
}

func TestBuildDrawListCulls(t *testing.T) {
	cam := NewCamera(float32(stdmath.Pi/3), 1, 0.1, 100)
	f := FrustumFromVP(cam.GetViewProjectionMatrix())

	visible := NewNode("visible")
	visible.Mesh = CreateCube(1)
	behind := NewNode("behind")
	behind.Mesh = visible.Mesh
	behind.SetPosition(math.NewVec3(0, 0, 30))
	empty := NewNode("empty")

	dl := BuildDrawList([]*Node{visible, behind, empty}, &f, cam.Position)
	assert.Len(t, dl.Opaque, 1)
	assert.Equal(t, 1, dl.Culled)
}
