package glyphs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAtlasDimensions(t *testing.T) {
	a := NewAtlas()
	assert.Equal(t, 7, a.CellW)
	assert.Equal(t, 13, a.CellH)
	assert.Equal(t, 7*16, a.Image.Bounds().Dx())
	assert.Equal(t, 13*6, a.Image.Bounds().Dy())
}

func TestAtlasHasInk(t *testing.T) {
	a := NewAtlas()

	ink := func(r rune) int {
		u0, v0, _, _ := a.UV(r)
		x0 := int(u0 * float32(a.Image.Bounds().Dx()))
		y0 := int(v0 * float32(a.Image.Bounds().Dy()))
		n := 0
		for y := y0; y < y0+a.CellH; y++ {
			for x := x0; x < x0+a.CellW; x++ {
				if a.Image.AlphaAt(x, y).A > 0 {
					n++
				}
			}
		}
		return n
	}

	assert.Zero(t, ink(' '))
	assert.Positive(t, ink('A'))
	assert.Positive(t, ink('~'))
}

func TestUVFallback(t *testing.T) {
	a := NewAtlas()
	u0, v0, u1, v1 := a.UV('é')
	q0, w0, q1, w1 := a.UV('?')
	assert.Equal(t, []float32{q0, w0, q1, w1}, []float32{u0, v0, u1, v1})
}

func TestLayout(t *testing.T) {
	a := NewAtlas()
	quads := a.Layout("ab c\nd", 10, 20, 2)
	require.Len(t, quads, 4)

	assert.Equal(t, Quad{X0: 10, Y0: 20, X1: 24, Y1: 46}, stripUV(quads[0]))
	assert.Equal(t, float32(24), quads[1].X0)
	// the space advances without a quad
	assert.Equal(t, float32(10+3*14), quads[2].X0)
	// newline returns to the left edge one line down
	assert.Equal(t, float32(10), quads[3].X0)
	assert.Equal(t, float32(46), quads[3].Y0)
}

func TestMeasure(t *testing.T) {
	a := NewAtlas()
	w, h := a.Measure("Toggle\nLow", 1)
	assert.Equal(t, float32(6*7), w)
	assert.Equal(t, float32(2*13), h)

	w, h = a.Measure("", 2)
	assert.Zero(t, w)
	assert.Equal(t, float32(26), h)
}

func stripUV(q Quad) Quad {
	q.U0, q.V0, q.U1, q.V1 = 0, 0, 0, 0
	return q
}
