// Package planet composes the Earth, cloud shell, Moon and quality toggle
// into one scene and animates it frame by frame.
package planet

import "planet-viewer/quality"

// OrbitDef describes a circular orbit around the Earth.
type OrbitDef struct {
	Radius float64
	Step   float64 // distance travelled per frame
}

// BodyDef is the static description of one rendered body.
type BodyDef struct {
	Body     quality.Body
	Name     string
	Scale    float32
	SpinRate float64 // radians per frame about +Y
	Orbit    *OrbitDef

	// Transparent bodies are alpha blended over what lies behind them.
	Transparent bool
	Opacity     float32
}

// DefaultBodies returns the Earth, a slightly larger translucent cloud
// shell spinning a little faster, and the Moon.
func DefaultBodies() []BodyDef {
	return []BodyDef{
		{Body: quality.Earth, Name: "Earth", Scale: 2, SpinRate: 0.0008},
		{Body: quality.Clouds, Name: "Clouds", Scale: 2.01, SpinRate: 0.001, Transparent: true, Opacity: 1},
		{Body: quality.Moon, Name: "Moon", Scale: 0.5, SpinRate: 0.0015, Orbit: &OrbitDef{Radius: 5, Step: 0.01}},
	}
}
