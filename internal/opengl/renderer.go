package opengl

import (
	"fmt"
	"log/slog"
	"strings"
	"unsafe"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"planet-viewer/core"
	"planet-viewer/math"
	"planet-viewer/scene"
)

const maxPointLights = 4

// GPUMesh holds the OpenGL buffer objects for an uploaded mesh.
type GPUMesh struct {
	VAO        uint32
	VBO        uint32
	EBO        uint32
	IndexCount int32
	HasIndices bool
}

// FrameStats counts the work submitted since the last BeginFrame.
type FrameStats struct {
	DrawCalls int
	Triangles int
}

// Renderer is the OpenGL rendering backend.
type Renderer struct {
	program uint32

	// Vertex transform uniforms
	mvpLoc   int32
	modelLoc int32

	// Lighting uniforms, directional
	lightDirLoc       int32
	lightColorLoc     int32
	lightIntensityLoc int32
	ambientColorLoc   int32

	// Lighting uniforms, point lights
	pointLightCountLoc     int32
	pointLightPosLoc       [maxPointLights]int32
	pointLightColorLoc     [maxPointLights]int32
	pointLightIntensityLoc [maxPointLights]int32
	pointLightRangeLoc     [maxPointLights]int32

	cameraPosLoc int32

	// Material uniforms
	matAlbedoLoc    int32
	matSpecularLoc  int32
	matShininessLoc int32
	matOpacityLoc   int32
	albedoTexLoc    int32
	hasTextureLoc   int32
	unlitLoc        int32

	viewportW int32
	viewportH int32

	// Starfield backdrop (nil if disabled)
	starfield *Starfield

	// Text renderer (nil until first DrawText call)
	textRenderer *TextRenderer

	wireframe bool
	blending  bool

	gpuMeshes map[*scene.Mesh]*GPUMesh
	stats     FrameStats
	log       *slog.Logger
}

// ── Shaders ───────────────────────────────────────────────────────────────────

const vertSrc = `
#version 410 core
layout(location = 0) in vec3 inPosition;
layout(location = 1) in vec3 inNormal;
layout(location = 2) in vec2 inUV;
layout(location = 3) in vec4 inColor;

uniform mat4 mvp;
uniform mat4 model;

out vec4 fragColor;
out vec3 fragNormal;
out vec2 fragUV;
out vec3 fragWorldPos;

void main() {
    vec4 worldPos = model * vec4(inPosition, 1.0);
    gl_Position   = mvp * vec4(inPosition, 1.0);
    fragColor     = inColor;
    fragNormal    = mat3(model) * inNormal;
    fragUV        = inUV;
    fragWorldPos  = worldPos.xyz;
}
` + "\x00"

// Blinn-Phong with one directional light and a few point lights. Unlit
// materials output the base colour unchanged. Alpha is texture alpha scaled
// by the material opacity.
const fragSrc = `
#version 410 core
in vec4 fragColor;
in vec3 fragNormal;
in vec2 fragUV;
in vec3 fragWorldPos;

out vec4 outColor;

uniform vec3  lightDir;
uniform vec3  lightColor;
uniform float lightIntensity;
uniform vec3  ambientColor;

#define MAX_POINT_LIGHTS 4
uniform int   pointLightCount;
uniform vec3  pointLightPos[MAX_POINT_LIGHTS];
uniform vec3  pointLightColor[MAX_POINT_LIGHTS];
uniform float pointLightIntensity[MAX_POINT_LIGHTS];
uniform float pointLightRange[MAX_POINT_LIGHTS];

uniform vec3 cameraPos;

uniform vec3  matAlbedo;
uniform vec3  matSpecular;
uniform float matShininess;
uniform float matOpacity;

uniform sampler2D albedoTex;
uniform bool      hasTexture;
uniform bool      unlit;

vec3 calcSpecular(vec3 N, vec3 L, vec3 V) {
    vec3 H = normalize(L + V);
    return matSpecular * pow(max(dot(N, H), 0.0), matShininess);
}

void main() {
    vec4 baseColor = vec4(matAlbedo, 1.0) * fragColor;
    if (hasTexture) {
        baseColor *= texture(albedoTex, fragUV);
    }
    float alpha = baseColor.a * matOpacity;

    if (unlit) {
        outColor = vec4(baseColor.rgb, alpha);
        return;
    }

    vec3 N = normalize(fragNormal);
    vec3 V = normalize(cameraPos - fragWorldPos);

    vec3 color = ambientColor * baseColor.rgb;

    vec3 L_dir = normalize(-lightDir);
    float NdL  = max(dot(N, L_dir), 0.0);
    color += lightColor * lightIntensity * NdL * baseColor.rgb;
    if (NdL > 0.0) {
        color += lightColor * lightIntensity * calcSpecular(N, L_dir, V);
    }

    for (int i = 0; i < pointLightCount && i < MAX_POINT_LIGHTS; i++) {
        vec3  toLight = pointLightPos[i] - fragWorldPos;
        float dist    = length(toLight);
        float range   = max(pointLightRange[i], 0.001);
        float atten   = clamp(1.0 - (dist * dist) / (range * range), 0.0, 1.0);
        atten *= atten;
        vec3  L_pt = normalize(toLight);
        float NdL2 = max(dot(N, L_pt), 0.0);
        color += pointLightColor[i] * pointLightIntensity[i] * atten * NdL2 * baseColor.rgb;
        if (NdL2 > 0.0) {
            color += pointLightColor[i] * pointLightIntensity[i] * atten * calcSpecular(N, L_pt, V);
        }
    }

    outColor = vec4(color, alpha);
}
` + "\x00"

// ── NewRenderer ───────────────────────────────────────────────────────────────

// NewRenderer initialises OpenGL.
// Must be called after the GLFW window context is made current.
func NewRenderer(log *slog.Logger) (*Renderer, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "opengl")
	log.Info("OpenGL initialized",
		"version", gl.GoStr(gl.GetString(gl.VERSION)),
		"renderer", gl.GoStr(gl.GetString(gl.RENDERER)))

	prog, err := newProgram(vertSrc, fragSrc)
	if err != nil {
		return nil, fmt.Errorf("main shader compile: %w", err)
	}

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	// spheres are closed and the cloud shell is seen from outside only
	gl.Disable(gl.CULL_FACE)

	loc := func(name string) int32 {
		return gl.GetUniformLocation(prog, gl.Str(name+"\x00"))
	}

	r := &Renderer{
		program: prog,

		mvpLoc:   loc("mvp"),
		modelLoc: loc("model"),

		lightDirLoc:       loc("lightDir"),
		lightColorLoc:     loc("lightColor"),
		lightIntensityLoc: loc("lightIntensity"),
		ambientColorLoc:   loc("ambientColor"),

		pointLightCountLoc: loc("pointLightCount"),
		cameraPosLoc:       loc("cameraPos"),

		matAlbedoLoc:    loc("matAlbedo"),
		matSpecularLoc:  loc("matSpecular"),
		matShininessLoc: loc("matShininess"),
		matOpacityLoc:   loc("matOpacity"),
		albedoTexLoc:    loc("albedoTex"),
		hasTextureLoc:   loc("hasTexture"),
		unlitLoc:        loc("unlit"),

		gpuMeshes: make(map[*scene.Mesh]*GPUMesh),
		log:       log,
	}

	for i := 0; i < maxPointLights; i++ {
		r.pointLightPosLoc[i] = loc(fmt.Sprintf("pointLightPos[%d]", i))
		r.pointLightColorLoc[i] = loc(fmt.Sprintf("pointLightColor[%d]", i))
		r.pointLightIntensityLoc[i] = loc(fmt.Sprintf("pointLightIntensity[%d]", i))
		r.pointLightRangeLoc[i] = loc(fmt.Sprintf("pointLightRange[%d]", i))
	}

	gl.UseProgram(prog)
	gl.Uniform1i(r.albedoTexLoc, 0)

	return r, nil
}

// ── Viewport ──────────────────────────────────────────────────────────────────

// SetViewport resizes the OpenGL viewport.
func (r *Renderer) SetViewport(width, height int) {
	r.viewportW = int32(width)
	r.viewportH = int32(height)
	gl.Viewport(0, 0, int32(width), int32(height))
}

func (r *Renderer) Viewport() (int, int) {
	return int(r.viewportW), int(r.viewportH)
}

// ── Starfield ─────────────────────────────────────────────────────────────────

// EnableStarfield creates the star backdrop drawn behind the scene.
func (r *Renderer) EnableStarfield() error {
	if r.starfield != nil {
		return nil
	}
	sf, err := NewStarfield()
	if err != nil {
		return err
	}
	r.starfield = sf
	return nil
}

// DrawStarfield draws the backdrop. Call after opaque geometry so the depth
// test discards covered fragments.
func (r *Renderer) DrawStarfield(view, proj math.Mat4) {
	if r.starfield == nil {
		return
	}
	// strip translation so the stars stay at infinity
	view[3][0], view[3][1], view[3][2] = 0, 0, 0
	r.starfield.Draw(view.Mul(proj))
}

// ── Frame ─────────────────────────────────────────────────────────────────────

// BeginFrame clears the framebuffer and uploads per-frame lighting uniforms.
func (r *Renderer) BeginFrame(sky core.Color, lights []*scene.Light, ambient core.Color, camPos math.Vec3) {
	r.stats = FrameStats{}

	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.ClearColor(sky.R, sky.G, sky.B, sky.A)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	gl.UseProgram(r.program)
	gl.Uniform3f(r.ambientColorLoc, ambient.R, ambient.G, ambient.B)
	gl.Uniform3f(r.cameraPosLoc, camPos.X, camPos.Y, camPos.Z)

	dirLight := math.Vec3{X: 0.5, Y: -1, Z: -0.5}.Normalize()
	dirColor := core.ColorWhite
	dirIntensity := float32(0)

	pointIdx := 0
	for _, l := range lights {
		if l == nil {
			continue
		}
		switch l.Type {
		case scene.LightTypeDirectional:
			dirLight = l.Direction.Normalize()
			dirColor = l.Color
			dirIntensity = l.Intensity
		case scene.LightTypePoint:
			if pointIdx < maxPointLights {
				gl.Uniform3f(r.pointLightPosLoc[pointIdx], l.Position.X, l.Position.Y, l.Position.Z)
				gl.Uniform3f(r.pointLightColorLoc[pointIdx], l.Color.R, l.Color.G, l.Color.B)
				gl.Uniform1f(r.pointLightIntensityLoc[pointIdx], l.Intensity)
				gl.Uniform1f(r.pointLightRangeLoc[pointIdx], l.Range)
				pointIdx++
			}
		}
	}

	gl.Uniform3f(r.lightDirLoc, dirLight.X, dirLight.Y, dirLight.Z)
	gl.Uniform3f(r.lightColorLoc, dirColor.R, dirColor.G, dirColor.B)
	gl.Uniform1f(r.lightIntensityLoc, dirIntensity)
	gl.Uniform1i(r.pointLightCountLoc, int32(pointIdx))
}

// BeginTransparent switches to alpha blending with depth writes off, so
// translucent surfaces drawn back to front composite over what is behind.
func (r *Renderer) BeginTransparent() {
	r.blending = true
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.DepthMask(false)
}

// EndTransparent restores opaque render state.
func (r *Renderer) EndTransparent() {
	r.blending = false
	gl.DepthMask(true)
	gl.Disable(gl.BLEND)
}

func (r *Renderer) Stats() FrameStats { return r.stats }

// ── Wireframe ─────────────────────────────────────────────────────────────────

// SetWireframe toggles wireframe rendering mode.
func (r *Renderer) SetWireframe(enabled bool) {
	r.wireframe = enabled
	if enabled {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
	} else {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
	}
}

// IsWireframe returns whether wireframe mode is active.
func (r *Renderer) IsWireframe() bool {
	return r.wireframe
}

// ── DrawMesh ──────────────────────────────────────────────────────────────────

// DrawMesh draws a mesh with the given material and matrices. A nil
// material falls back to the mesh's own, then to the default.
func (r *Renderer) DrawMesh(mesh *scene.Mesh, mat *scene.Material, mvp, model math.Mat4) {
	gpu := r.ensureUploaded(mesh)
	if gpu == nil {
		return
	}

	gl.UseProgram(r.program)
	gl.UniformMatrix4fv(r.mvpLoc, 1, false, (*float32)(unsafe.Pointer(&mvp[0][0])))
	gl.UniformMatrix4fv(r.modelLoc, 1, false, (*float32)(unsafe.Pointer(&model[0][0])))

	if mat == nil {
		mat = mesh.Material
	}
	if mat == nil {
		mat = scene.DefaultMaterial()
	}
	r.applyMaterial(mat)

	gl.BindVertexArray(gpu.VAO)
	if gpu.HasIndices {
		gl.DrawElements(gl.TRIANGLES, gpu.IndexCount, gl.UNSIGNED_INT, nil)
	} else {
		gl.DrawArrays(gl.TRIANGLES, 0, int32(len(mesh.Vertices)))
	}
	gl.BindVertexArray(0)

	r.stats.DrawCalls++
	r.stats.Triangles += mesh.TriangleCount()
}

// applyMaterial sets all material-related shader uniforms and binds textures.
func (r *Renderer) applyMaterial(mat *scene.Material) {
	gl.Uniform3f(r.matAlbedoLoc, mat.Albedo.R, mat.Albedo.G, mat.Albedo.B)
	gl.Uniform3f(r.matSpecularLoc, mat.Specular.R, mat.Specular.G, mat.Specular.B)
	gl.Uniform1f(r.matShininessLoc, mat.Shininess)

	opacity := mat.Opacity
	if !mat.Transparent {
		opacity = 1
	}
	gl.Uniform1f(r.matOpacityLoc, opacity)

	if mat.Unlit {
		gl.Uniform1i(r.unlitLoc, 1)
	} else {
		gl.Uniform1i(r.unlitLoc, 0)
	}

	// Albedo texture (unit 0); a texture still loading is skipped
	if tex := mat.AlbedoTexture; tex.Resident() {
		gl.ActiveTexture(gl.TEXTURE0)
		gl.BindTexture(gl.TEXTURE_2D, tex.GLID)
		gl.Uniform1i(r.hasTextureLoc, 1)
	} else {
		gl.Uniform1i(r.hasTextureLoc, 0)
	}
}

// ReleaseMesh frees GPU buffers for the given mesh.
func (r *Renderer) ReleaseMesh(mesh *scene.Mesh) {
	if gpu, ok := r.gpuMeshes[mesh]; ok {
		gl.DeleteVertexArrays(1, &gpu.VAO)
		gl.DeleteBuffers(1, &gpu.VBO)
		if gpu.HasIndices {
			gl.DeleteBuffers(1, &gpu.EBO)
		}
		delete(r.gpuMeshes, mesh)
		mesh.GPUData = nil
	}
}

// Destroy releases all GPU resources.
func (r *Renderer) Destroy() {
	for mesh := range r.gpuMeshes {
		r.ReleaseMesh(mesh)
	}
	if r.starfield != nil {
		r.starfield.Destroy()
	}
	if r.textRenderer != nil {
		r.textRenderer.destroy()
	}
	gl.DeleteProgram(r.program)
}

// DrawText renders a string at screen-space position (x, y) with pixel scale.
// Lazily creates the TextRenderer on first call.
func (r *Renderer) DrawText(text string, x, y, scale float32, color core.Color, screenW, screenH float32) {
	if !r.ensureText() {
		return
	}
	// Text is always solid; wireframe would show triangle outlines instead of glyphs.
	if r.wireframe {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
	}
	r.textRenderer.draw(text, x, y, scale, color, screenW, screenH)
	if r.wireframe {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
	}
}

// MeasureText returns the pixel size DrawText would cover.
func (r *Renderer) MeasureText(text string, scale float32) (float32, float32) {
	if !r.ensureText() {
		return 0, 0
	}
	return r.textRenderer.atlas.Measure(text, scale)
}

func (r *Renderer) ensureText() bool {
	if r.textRenderer != nil {
		return true
	}
	tr, err := newTextRenderer()
	if err != nil {
		r.log.Error("Text renderer init failed", "error", err)
		return false
	}
	r.textRenderer = tr
	return true
}

// ── Internal helpers ──────────────────────────────────────────────────────────

// ensureUploaded uploads vertex/index data if not already done.
func (r *Renderer) ensureUploaded(mesh *scene.Mesh) *GPUMesh {
	if gpu, ok := r.gpuMeshes[mesh]; ok {
		return gpu
	}
	if len(mesh.Vertices) == 0 {
		return nil
	}

	stride := int32(unsafe.Sizeof(core.Vertex{}))

	gpu := &GPUMesh{
		IndexCount: int32(len(mesh.Indices)),
		HasIndices: len(mesh.Indices) > 0,
	}

	gl.GenVertexArrays(1, &gpu.VAO)
	gl.GenBuffers(1, &gpu.VBO)
	gl.BindVertexArray(gpu.VAO)

	gl.BindBuffer(gl.ARRAY_BUFFER, gpu.VBO)
	gl.BufferData(gl.ARRAY_BUFFER,
		len(mesh.Vertices)*int(stride),
		gl.Ptr(mesh.Vertices),
		gl.STATIC_DRAW)

	var v core.Vertex
	posOff := int(unsafe.Offsetof(v.Position))
	normOff := int(unsafe.Offsetof(v.Normal))
	uvOff := int(unsafe.Offsetof(v.UV))
	colorOff := int(unsafe.Offsetof(v.Color))

	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, stride, gl.PtrOffset(posOff))

	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(1, 3, gl.FLOAT, false, stride, gl.PtrOffset(normOff))

	gl.EnableVertexAttribArray(2)
	gl.VertexAttribPointer(2, 2, gl.FLOAT, false, stride, gl.PtrOffset(uvOff))

	gl.EnableVertexAttribArray(3)
	gl.VertexAttribPointer(3, 4, gl.FLOAT, false, stride, gl.PtrOffset(colorOff))

	if gpu.HasIndices {
		gl.GenBuffers(1, &gpu.EBO)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, gpu.EBO)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER,
			len(mesh.Indices)*4,
			gl.Ptr(mesh.Indices),
			gl.STATIC_DRAW)
	}

	gl.BindVertexArray(0)

	r.gpuMeshes[mesh] = gpu
	mesh.GPUData = gpu
	return gpu
}

// ── Shader helpers ────────────────────────────────────────────────────────────

func newProgram(vertSrc, fragSrc string) (uint32, error) {
	vert, err := compileShader(vertSrc, gl.VERTEX_SHADER)
	if err != nil {
		return 0, fmt.Errorf("vertex: %w", err)
	}
	frag, err := compileShader(fragSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		return 0, fmt.Errorf("fragment: %w", err)
	}

	prog := gl.CreateProgram()
	gl.AttachShader(prog, vert)
	gl.AttachShader(prog, frag)
	gl.LinkProgram(prog)

	var status int32
	gl.GetProgramiv(prog, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(prog, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetProgramInfoLog(prog, logLen, nil, gl.Str(log))
		return 0, fmt.Errorf("link failed: %v", log)
	}

	gl.DeleteShader(vert)
	gl.DeleteShader(frag)
	return prog, nil
}

func compileShader(src string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csrc, free := gl.Strs(src)
	gl.ShaderSource(shader, 1, csrc, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetShaderInfoLog(shader, logLen, nil, gl.Str(log))
		return 0, fmt.Errorf("compile failed: %v", log)
	}
	return shader, nil
}
