// Package picking turns pointer positions into hits on scene nodes and
// derives enter, leave and click events for a target.
package picking

import (
	stdmath "math"

	"planet-viewer/math"
	"planet-viewer/scene"
)

// Ray represents a ray in 3D space
type Ray struct {
	Origin    math.Vec3
	Direction math.Vec3
}

// At returns the point t units along the ray.
func (r Ray) At(t float32) math.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// Hit stores the result of a ray intersection test
type Hit struct {
	Distance float32
	Point    math.Vec3
	Normal   math.Vec3
	Node     *scene.Node
	FaceIdx  int // triangle index in the mesh
}

// ScreenToRay converts a window position in pixels (origin top-left) to a
// world-space ray from the camera.
func ScreenToRay(mouseX, mouseY, screenWidth, screenHeight float32, camera *scene.Camera) Ray {
	ndcX := (2.0*mouseX)/screenWidth - 1.0
	ndcY := 1.0 - (2.0*mouseY)/screenHeight // flip Y

	invVP := camera.GetViewProjectionMatrix().Inverse()
	near := invVP.MulVec3(math.Vec3{X: ndcX, Y: ndcY, Z: -1})
	far := invVP.MulVec3(math.Vec3{X: ndcX, Y: ndcY, Z: 1})

	return Ray{
		Origin:    near,
		Direction: far.Sub(near).Normalize(),
	}
}

// Intersect tests the ray against node and every visible descendant with a
// mesh, returning the closest hit.
func Intersect(ray Ray, node *scene.Node) (Hit, bool) {
	closest := Hit{Distance: float32(stdmath.MaxFloat32)}
	found := false

	var walk func(n *scene.Node)
	walk = func(n *scene.Node) {
		if !n.Visible {
			return
		}
		if n.Mesh != nil {
			if h, ok := intersectNode(ray, n, closest.Distance); ok {
				closest = h
				found = true
			}
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(node)

	return closest, found
}

// Raycast tests the ray against the pickable nodes of a scene and returns
// the closest hit.
func Raycast(ray Ray, s *scene.Scene) (Hit, bool) {
	closest := Hit{Distance: float32(stdmath.MaxFloat32)}
	found := false
	for _, n := range s.GetVisibleNodes() {
		if !n.Pickable {
			continue
		}
		if h, ok := intersectNode(ray, n, closest.Distance); ok {
			closest = h
			found = true
		}
	}
	return closest, found
}

func intersectNode(ray Ray, node *scene.Node, maxDist float32) (Hit, bool) {
	worldMatrix := node.GetWorldMatrix()

	// Broad phase: AABB test
	t, hit := rayAABBIntersect(ray, scene.ComputeAABB(node.Mesh, worldMatrix))
	if !hit || t > maxDist {
		return Hit{}, false
	}

	// Narrow phase: triangle test
	return rayMeshIntersect(ray, node, worldMatrix, maxDist)
}

// rayAABBIntersect tests ray-AABB intersection
func rayAABBIntersect(ray Ray, aabb scene.AABB) (float32, bool) {
	invDir := math.Vec3{
		X: 1.0 / ray.Direction.X,
		Y: 1.0 / ray.Direction.Y,
		Z: 1.0 / ray.Direction.Z,
	}

	t1 := (aabb.Min.X - ray.Origin.X) * invDir.X
	t2 := (aabb.Max.X - ray.Origin.X) * invDir.X
	t3 := (aabb.Min.Y - ray.Origin.Y) * invDir.Y
	t4 := (aabb.Max.Y - ray.Origin.Y) * invDir.Y
	t5 := (aabb.Min.Z - ray.Origin.Z) * invDir.Z
	t6 := (aabb.Max.Z - ray.Origin.Z) * invDir.Z

	tmin := max(min(t1, t2), min(t3, t4), min(t5, t6))
	tmax := min(max(t1, t2), max(t3, t4), max(t5, t6))

	if tmax < 0 || tmin > tmax {
		return 0, false
	}

	return tmin, true
}

// rayMeshIntersect performs per-triangle intersection using Möller–Trumbore algorithm
func rayMeshIntersect(ray Ray, node *scene.Node, worldMatrix math.Mat4, maxDist float32) (Hit, bool) {
	mesh := node.Mesh
	closest := Hit{Distance: maxDist}
	found := false

	for i := 0; i+2 < len(mesh.Indices); i += 3 {
		i0, i1, i2 := mesh.Indices[i], mesh.Indices[i+1], mesh.Indices[i+2]
		v0 := worldMatrix.MulVec3(mesh.Vertices[i0].Position)
		v1 := worldMatrix.MulVec3(mesh.Vertices[i1].Position)
		v2 := worldMatrix.MulVec3(mesh.Vertices[i2].Position)

		t, hit := mollerTrumbore(ray, v0, v1, v2)
		if hit && t < closest.Distance {
			found = true
			closest.Distance = t
			closest.Point = ray.At(t)
			closest.Normal = v1.Sub(v0).Cross(v2.Sub(v0)).Normalize()
			closest.Node = node
			closest.FaceIdx = i / 3
		}
	}

	return closest, found
}

// mollerTrumbore implements the Möller–Trumbore ray-triangle intersection algorithm
func mollerTrumbore(ray Ray, v0, v1, v2 math.Vec3) (float32, bool) {
	const epsilon = 0.0000001

	edge1 := v1.Sub(v0)
	edge2 := v2.Sub(v0)
	h := ray.Direction.Cross(edge2)
	a := edge1.Dot(h)

	if a > -epsilon && a < epsilon {
		return 0, false // parallel
	}

	f := 1.0 / a
	s := ray.Origin.Sub(v0)
	u := f * s.Dot(h)

	if u < 0.0 || u > 1.0 {
		return 0, false
	}

	q := s.Cross(edge1)
	v := f * ray.Direction.Dot(q)

	if v < 0.0 || u+v > 1.0 {
		return 0, false
	}

	t := f * edge2.Dot(q)
	return t, t > epsilon
}
