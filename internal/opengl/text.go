package opengl

import (
	"fmt"
	"unsafe"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"planet-viewer/core"
	"planet-viewer/internal/glyphs"
)

// Screen-space glyph quads: pixel positions are mapped to NDC in the vertex
// shader with Y pointing down.
const textVertSrc = `
#version 410 core
layout(location = 0) in vec2 inPos;
layout(location = 1) in vec2 inUV;

uniform vec2 screenSize;

out vec2 fragUV;

void main() {
    vec2 ndc = vec2(inPos.x / screenSize.x * 2.0 - 1.0,
                    1.0 - inPos.y / screenSize.y * 2.0);
    gl_Position = vec4(ndc, 0.0, 1.0);
    fragUV = inUV;
}
` + "\x00"

// The atlas is single channel; its red component is glyph coverage.
const textFragSrc = `
#version 410 core
in vec2 fragUV;
out vec4 outColor;

uniform sampler2D glyphTex;
uniform vec4      textColor;

void main() {
    float a = texture(glyphTex, fragUV).r;
    if (a < 0.01) {
        discard;
    }
    outColor = vec4(textColor.rgb, textColor.a * a);
}
` + "\x00"

// TextRenderer owns the glyph atlas texture and a dynamic quad buffer.
// It is created lazily by Renderer.DrawText on first use.
type TextRenderer struct {
	prog   uint32
	vao    uint32
	vbo    uint32
	tex    uint32
	vboCap int // current VBO capacity in vertices

	screenSizeLoc int32
	textColorLoc  int32

	atlas *glyphs.Atlas
	buf   []float32
}

func newTextRenderer() (*TextRenderer, error) {
	prog, err := newProgram(textVertSrc, textFragSrc)
	if err != nil {
		return nil, fmt.Errorf("text shader: %w", err)
	}

	tr := &TextRenderer{
		prog:          prog,
		screenSizeLoc: gl.GetUniformLocation(prog, gl.Str("screenSize\x00")),
		textColorLoc:  gl.GetUniformLocation(prog, gl.Str("textColor\x00")),
		atlas:         glyphs.NewAtlas(),
	}

	img := tr.atlas.Image
	gl.GenTextures(1, &tr.tex)
	gl.BindTexture(gl.TEXTURE_2D, tr.tex)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.R8,
		int32(img.Bounds().Dx()), int32(img.Bounds().Dy()), 0,
		gl.RED, gl.UNSIGNED_BYTE, unsafe.Pointer(&img.Pix[0]))
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 4)
	// nearest keeps the bitmap font crisp at integer scales
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	gl.GenVertexArrays(1, &tr.vao)
	gl.GenBuffers(1, &tr.vbo)
	gl.BindVertexArray(tr.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, tr.vbo)

	const stride = int32(4 * 4) // pos(2) + uv(2)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, stride, gl.PtrOffset(0))
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(1, 2, gl.FLOAT, false, stride, gl.PtrOffset(8))
	gl.BindVertexArray(0)

	gl.UseProgram(prog)
	gl.Uniform1i(gl.GetUniformLocation(prog, gl.Str("glyphTex\x00")), 0)

	return tr, nil
}

func (tr *TextRenderer) draw(text string, x, y, scale float32, color core.Color, screenW, screenH float32) {
	quads := tr.atlas.Layout(text, x, y, scale)
	if len(quads) == 0 {
		return
	}

	// 6 vertices (2 triangles) per glyph
	const floatsPerVert = 4
	tr.buf = tr.buf[:0]
	for _, q := range quads {
		tr.buf = append(tr.buf,
			q.X0, q.Y0, q.U0, q.V0,
			q.X1, q.Y0, q.U1, q.V0,
			q.X1, q.Y1, q.U1, q.V1,
			q.X0, q.Y0, q.U0, q.V0,
			q.X1, q.Y1, q.U1, q.V1,
			q.X0, q.Y1, q.U0, q.V1,
		)
	}
	vertCount := len(tr.buf) / floatsPerVert

	// Grow the VBO only when needed
	gl.BindBuffer(gl.ARRAY_BUFFER, tr.vbo)
	byteSize := len(tr.buf) * 4
	if vertCount > tr.vboCap {
		gl.BufferData(gl.ARRAY_BUFFER, byteSize, gl.Ptr(tr.buf), gl.DYNAMIC_DRAW)
		tr.vboCap = vertCount
	} else {
		gl.BufferSubData(gl.ARRAY_BUFFER, 0, byteSize, gl.Ptr(tr.buf))
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.Disable(gl.DEPTH_TEST)

	gl.UseProgram(tr.prog)
	gl.Uniform2f(tr.screenSizeLoc, screenW, screenH)
	gl.Uniform4f(tr.textColorLoc, color.R, color.G, color.B, color.A)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, tr.tex)

	gl.BindVertexArray(tr.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, int32(vertCount))
	gl.BindVertexArray(0)

	gl.Enable(gl.DEPTH_TEST)
	gl.Disable(gl.BLEND)
}

func (tr *TextRenderer) destroy() {
	gl.DeleteTextures(1, &tr.tex)
	gl.DeleteVertexArrays(1, &tr.vao)
	gl.DeleteBuffers(1, &tr.vbo)
	gl.DeleteProgram(tr.prog)
}
