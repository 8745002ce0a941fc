// Package glyphs rasterises a fixed-width bitmap font into a texture atlas
// and lays out strings as screen-space quads.
package glyphs

import (
	"image"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	firstRune = ' '
	lastRune  = '~'
	columns   = 16
	fallback  = '?'
)

// Atlas holds one cell per printable ASCII character.
type Atlas struct {
	Image        *image.Alpha
	CellW, CellH int
	Ascent       int
}

// Quad is one glyph in pixels (origin top-left) with its atlas UVs.
type Quad struct {
	X0, Y0, X1, Y1 float32
	U0, V0, U1, V1 float32
}

// NewAtlas rasterises basicfont's 7x13 face.
func NewAtlas() *Atlas {
	face := basicfont.Face7x13
	cellW := face.Advance
	cellH := face.Height
	count := int(lastRune-firstRune) + 1
	rows := (count + columns - 1) / columns

	img := image.NewAlpha(image.Rect(0, 0, cellW*columns, cellH*rows))
	d := &font.Drawer{
		Dst:  img,
		Src:  image.Opaque,
		Face: face,
	}
	for r := firstRune; r <= lastRune; r++ {
		i := int(r - firstRune)
		x := (i % columns) * cellW
		y := (i / columns) * cellH
		d.Dot = fixed.P(x, y+face.Ascent)
		d.DrawString(string(r))
	}

	return &Atlas{Image: img, CellW: cellW, CellH: cellH, Ascent: face.Ascent}
}

// UV returns the atlas rectangle for r in normalised coordinates. Runes
// outside the atlas map to '?'.
func (a *Atlas) UV(r rune) (u0, v0, u1, v1 float32) {
	if r < firstRune || r > lastRune {
		r = fallback
	}
	i := int(r - firstRune)
	w := float32(a.Image.Bounds().Dx())
	h := float32(a.Image.Bounds().Dy())
	x := float32((i % columns) * a.CellW)
	y := float32((i / columns) * a.CellH)
	return x / w, y / h, (x + float32(a.CellW)) / w, (y + float32(a.CellH)) / h
}

// Layout places text with its top-left corner at (x, y). Newlines start a
// new line; spaces advance without emitting a quad.
func (a *Atlas) Layout(text string, x, y, scale float32) []Quad {
	quads := make([]Quad, 0, len(text))
	cw := float32(a.CellW) * scale
	ch := float32(a.CellH) * scale
	penX, penY := x, y
	for _, r := range text {
		switch r {
		case '\n':
			penX = x
			penY += ch
			continue
		case ' ':
			penX += cw
			continue
		}
		u0, v0, u1, v1 := a.UV(r)
		quads = append(quads, Quad{
			X0: penX, Y0: penY, X1: penX + cw, Y1: penY + ch,
			U0: u0, V0: v0, U1: u1, V1: v1,
		})
		penX += cw
	}
	return quads
}

// Measure returns the pixel size of text as Layout would place it.
func (a *Atlas) Measure(text string, scale float32) (w, h float32) {
	lines := 1
	cur, widest := 0, 0
	for _, r := range text {
		if r == '\n' {
			lines++
			cur = 0
			continue
		}
		cur++
		widest = max(widest, cur)
	}
	return float32(widest*a.CellW) * scale, float32(lines*a.CellH) * scale
}
