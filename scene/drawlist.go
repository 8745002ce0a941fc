package scene

import (
	"sort"

	"planet-viewer/math"
)

// DrawItem is one node scheduled for drawing.
type DrawItem struct {
	Node     *Node
	Material *Material
	World    math.Mat4
	// Depth is the squared distance from the eye to the node's bounds centre.
	Depth float32
}

// DrawList splits visible nodes into the two passes a frame needs.
// Transparent items are sorted far to near.
type DrawList struct {
	Opaque      []DrawItem
	Transparent []DrawItem
	Culled      int
}

// BuildDrawList sorts nodes into opaque and transparent passes. Nodes whose
// bounds fall outside frustum are dropped; a nil frustum disables culling.
func BuildDrawList(nodes []*Node, frustum *Frustum, eye math.Vec3) DrawList {
	var dl DrawList
	for _, n := range nodes {
		if n.Mesh == nil {
			continue
		}
		world := n.GetWorldMatrix()
		box := ComputeAABB(n.Mesh, world)
		if frustum != nil && !box.IntersectsFrustum(frustum) {
			dl.Culled++
			continue
		}

		mat := n.EffectiveMaterial()
		item := DrawItem{
			Node:     n,
			Material: mat,
			World:    world,
			Depth:    box.Center().Sub(eye).LengthSqr(),
		}
		if mat.Transparent {
			dl.Transparent = append(dl.Transparent, item)
		} else {
			dl.Opaque = append(dl.Opaque, item)
		}
	}

	sort.SliceStable(dl.Transparent, func(i, j int) bool {
		return dl.Transparent[i].Depth > dl.Transparent[j].Depth
	})
	return dl
}
