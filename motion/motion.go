// Package motion holds the per-frame integrators that animate the scene.
// Every function takes a state value and returns the next one; applying the
// result to scene nodes is left to the caller.
package motion

import (
	"math"
	"time"
)

// Spin is a rotation about a body's own axis advanced by a fixed amount
// each frame.
type Spin struct {
	Angle float64 // radians, accumulated without wraparound
	Rate  float64 // radians per frame
}

// Next advances one frame.
func (s Spin) Next() Spin {
	s.Angle += s.Rate
	return s
}

// Advance steps n frames.
func (s Spin) Advance(n int) Spin {
	s.Angle += float64(n) * s.Rate
	return s
}

// OrbitStep returns the angle subtending a chord of length step on a
// circle of the given radius, so the orbiting body covers the same
// distance every frame whatever the radius. It is zero for non-positive
// step or radius, and saturates at π when step reaches the diameter.
func OrbitStep(step, radius float64) float64 {
	if step <= 0 || radius <= 0 {
		return 0
	}
	if step >= 2*radius {
		return math.Pi
	}
	// 2·asin(s/2r) keeps full precision for tiny s/r, unlike acos(1 - s²/2r²)
	return 2 * math.Asin(step/(2*radius))
}

// Orbit is a circular orbit in the XZ plane around a centre supplied by the
// caller.
type Orbit struct {
	Angle  float64
	Radius float64
	Step   float64 // chord length per frame
}

// Next advances one frame.
func (o Orbit) Next() Orbit {
	o.Angle += OrbitStep(o.Step, o.Radius)
	return o
}

// Advance steps n frames.
func (o Orbit) Advance(n int) Orbit {
	d := OrbitStep(o.Step, o.Radius)
	for i := 0; i < n; i++ {
		o.Angle += d
	}
	return o
}

// Position is the offset from the orbit centre.
func (o Orbit) Position() (x, z float64) {
	s, c := math.Sincos(o.Angle)
	return o.Radius * s, o.Radius * c
}

// WobbleAmplitude bounds each axis of the widget wobble.
const WobbleAmplitude = 0.01 * math.Pi

// Euler is a rotation as per-axis angles in radians.
type Euler struct {
	X, Y, Z float64
}

var (
	wobbleFreq  = Euler{X: 0.9, Y: 1.3, Z: 0.7}
	wobblePhase = Euler{X: 0, Y: 1.1, Z: 2.3}
)

// Wobble is the small periodic rotation applied to the widget, as a
// function of elapsed wall time so it runs at the same speed at any frame
// rate.
func Wobble(t time.Duration) Euler {
	s := t.Seconds()
	return Euler{
		X: WobbleAmplitude * math.Sin(wobbleFreq.X*s+wobblePhase.X),
		Y: WobbleAmplitude * math.Sin(wobbleFreq.Y*s+wobblePhase.Y),
		Z: WobbleAmplitude * math.Sin(wobbleFreq.Z*s+wobblePhase.Z),
	}
}
