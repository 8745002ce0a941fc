package scene

import (
	"fmt"

	"github.com/chewxy/math32"

	"planet-viewer/core"
	"planet-viewer/math"
)

// CreateSphere generates a UV sphere. segments divide the equator, rings
// divide pole to pole. U runs eastward from the -X meridian and V runs from
// the north pole (0) to the south pole (1), matching equirectangular maps
// stored top row first.
func CreateSphere(radius float32, segments, rings int) *Mesh {
	if segments < 3 {
		segments = 3
	}
	if rings < 2 {
		rings = 2
	}

	vertices := make([]core.Vertex, 0, (rings+1)*(segments+1))
	indices := make([]uint32, 0, rings*segments*6)

	for ring := 0; ring <= rings; ring++ {
		v := float32(ring) / float32(rings)
		sinPhi, cosPhi := math32.Sincos(v * math32.Pi)

		for seg := 0; seg <= segments; seg++ {
			u := float32(seg) / float32(segments)
			sinTheta, cosTheta := math32.Sincos(u * 2 * math32.Pi)

			normal := math.Vec3{X: -cosTheta * sinPhi, Y: cosPhi, Z: sinTheta * sinPhi}
			vertices = append(vertices, core.Vertex{
				Position: normal.Mul(radius),
				Normal:   normal,
				UV:       math.Vec2{X: u, Y: v},
				Color:    core.ColorWhite,
			})
		}
	}

	stride := uint32(segments + 1)
	for ring := 0; ring < rings; ring++ {
		for seg := 0; seg < segments; seg++ {
			a := uint32(ring)*stride + uint32(seg)
			b := a + stride
			// The pole rows collapse to a point; skip their degenerate halves.
			if ring != 0 {
				indices = append(indices, a, b, a+1)
			}
			if ring != rings-1 {
				indices = append(indices, a+1, b, b+1)
			}
		}
	}

	return CreateMeshFromData(fmt.Sprintf("Sphere_%dx%d", segments, rings), vertices, indices)
}
