package opengl

import (
	"fmt"
	"unsafe"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"planet-viewer/core"
	"planet-viewer/math"
)

// Starfield renders a procedural star backdrop on an inverted unit cube.
// The vertex shader uses the xyww trick (gl_Position.z = gl_Position.w)
// so every fragment lands at NDC depth 1.0, behind scene geometry.
type Starfield struct {
	vao  uint32
	vbo  uint32
	prog uint32

	vpLoc      int32
	tintLoc    int32
	densityLoc int32

	// Tint is the star colour.
	Tint core.Color
	// Density is the fraction of sky cells holding a star.
	Density float32
}

// starVertSrc transforms cube vertices with a view matrix that has its
// translation stripped, then forces depth = 1.0.
const starVertSrc = `
#version 410 core
layout(location = 0) in vec3 inPosition;

uniform mat4 skyVP;

out vec3 fragDir;

void main() {
    fragDir = inPosition;
    vec4 pos = skyVP * vec4(inPosition, 1.0);
    gl_Position = pos.xyww;
}
` + "\x00"

// starFragSrc hashes the view direction into a grid of cells on the unit
// sphere and lights a small disc in the few cells selected by density.
const starFragSrc = `
#version 410 core
in vec3 fragDir;
out vec4 outColor;

uniform vec3  tint;
uniform float density;

float hash(vec3 p) {
    p = fract(p * 0.3183099 + 0.1);
    p *= 17.0;
    return fract(p.x * p.y * p.z * (p.x + p.y + p.z));
}

void main() {
    vec3 dir  = normalize(fragDir);
    vec3 grid = dir * 300.0;
    vec3 cell = floor(grid);
    float h   = hash(cell);
    if (h > density) {
        discard;
    }
    float d = length(fract(grid) - 0.5);
    float b = smoothstep(0.35, 0.0, d) * (0.4 + 0.6 * hash(cell + 7.0));
    outColor = vec4(tint * b, 1.0);
}
` + "\x00"

// 36 positions (xyz) for a unit cube with CCW winding from the outside.
// Face culling stays disabled so the inside faces are drawn.
var starfieldVerts = []float32{
	// -Z face
	-1, -1, -1, 1, 1, -1, 1, -1, -1,
	1, 1, -1, -1, -1, -1, -1, 1, -1,
	// +Z face
	-1, -1, 1, 1, -1, 1, 1, 1, 1,
	1, 1, 1, -1, 1, 1, -1, -1, 1,
	// -X face
	-1, 1, 1, -1, 1, -1, -1, -1, -1,
	-1, -1, -1, -1, -1, 1, -1, 1, 1,
	// +X face
	1, 1, 1, 1, -1, -1, 1, 1, -1,
	1, -1, -1, 1, 1, 1, 1, -1, 1,
	// -Y face
	-1, -1, -1, 1, -1, -1, 1, -1, 1,
	1, -1, 1, -1, -1, 1, -1, -1, -1,
	// +Y face
	-1, 1, -1, 1, 1, 1, 1, 1, -1,
	1, 1, 1, -1, 1, -1, -1, 1, 1,
}

// NewStarfield compiles the star shader and uploads the cube geometry.
func NewStarfield() (*Starfield, error) {
	prog, err := newProgram(starVertSrc, starFragSrc)
	if err != nil {
		return nil, fmt.Errorf("starfield shader: %w", err)
	}

	sf := &Starfield{
		prog:       prog,
		vpLoc:      gl.GetUniformLocation(prog, gl.Str("skyVP\x00")),
		tintLoc:    gl.GetUniformLocation(prog, gl.Str("tint\x00")),
		densityLoc: gl.GetUniformLocation(prog, gl.Str("density\x00")),

		Tint:    core.Color{R: 0.9, G: 0.92, B: 1.0, A: 1},
		Density: 0.02,
	}

	gl.GenVertexArrays(1, &sf.vao)
	gl.GenBuffers(1, &sf.vbo)
	gl.BindVertexArray(sf.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, sf.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(starfieldVerts)*4, gl.Ptr(starfieldVerts), gl.STATIC_DRAW)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, 12, gl.PtrOffset(0))
	gl.BindVertexArray(0)

	return sf, nil
}

// Draw renders the stars. skyVP is view (translation removed) times proj.
func (sf *Starfield) Draw(skyVP math.Mat4) {
	// LEQUAL so depth=1.0 fragments pass against the cleared depth value
	gl.DepthFunc(gl.LEQUAL)
	gl.DepthMask(false)

	gl.UseProgram(sf.prog)
	gl.UniformMatrix4fv(sf.vpLoc, 1, false, (*float32)(unsafe.Pointer(&skyVP[0][0])))
	gl.Uniform3f(sf.tintLoc, sf.Tint.R, sf.Tint.G, sf.Tint.B)
	gl.Uniform1f(sf.densityLoc, sf.Density)

	gl.BindVertexArray(sf.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, 36)
	gl.BindVertexArray(0)

	gl.DepthMask(true)
	gl.DepthFunc(gl.LESS)
}

// Destroy frees all GPU resources owned by the starfield.
func (sf *Starfield) Destroy() {
	gl.DeleteVertexArrays(1, &sf.vao)
	gl.DeleteBuffers(1, &sf.vbo)
	gl.DeleteProgram(sf.prog)
}
