package renderer

import (
	"fmt"
	"log/slog"

	"planet-viewer/core"
	"planet-viewer/internal/opengl"
	"planet-viewer/math"
	"planet-viewer/scene"
)

// Surface is the window the engine presents to.
type Surface interface {
	SwapBuffers()
	GetFramebufferSize() (int, int)
}

// textCmd is a queued DrawText call, flushed in Present().
type textCmd struct {
	text  string
	x, y  float32
	scale float32
	color core.Color
}

// Stats describes the most recent Render call.
type Stats struct {
	Objects     int
	Transparent int
	Vertices    int
	Triangles   int
	Culled      int
	DrawCalls   int
}

// RenderEngine is the high-level renderer that drives the OpenGL backend.
type RenderEngine struct {
	gl               *opengl.Renderer
	surface          Surface
	Scene            *scene.Scene
	FrustumCulling   bool
	StarfieldEnabled bool

	width, height int
	last          Stats

	// Queued text commands, flushed in Present()
	textQueue []textCmd
	log       *slog.Logger
}

func NewRenderEngine(surface Surface, log *slog.Logger) (*RenderEngine, error) {
	if log == nil {
		log = slog.Default()
	}
	glRenderer, err := opengl.NewRenderer(log)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenGL renderer: %w", err)
	}

	w, h := surface.GetFramebufferSize()
	glRenderer.SetViewport(w, h)

	re := &RenderEngine{
		gl:             glRenderer,
		surface:        surface,
		FrustumCulling: true,
		width:          w,
		height:         h,
		log:            log.With("component", "renderer"),
	}
	re.log.Info("Render engine initialized", "width", w, "height", h)
	return re, nil
}

// EnableStarfield creates the star backdrop.
// Call once after NewRenderEngine, before the first Render.
func (re *RenderEngine) EnableStarfield() error {
	if err := re.gl.EnableStarfield(); err != nil {
		return fmt.Errorf("starfield: %w", err)
	}
	re.StarfieldEnabled = true
	return nil
}

func (re *RenderEngine) SetScene(s *scene.Scene) {
	re.Scene = s
}

// Render draws the scene: opaque nodes, the starfield behind them, then
// transparent nodes far to near with blending and depth writes off.
func (re *RenderEngine) Render() error {
	if re.Scene == nil || re.Scene.Camera == nil {
		return fmt.Errorf("no scene or camera")
	}
	cam := re.Scene.Camera

	re.gl.BeginFrame(re.Scene.SkyColor, re.Scene.Lights, re.Scene.Ambient, cam.Position)

	view := cam.GetViewMatrix()
	proj := cam.GetProjectionMatrix()
	vp := view.Mul(proj)

	var frustum *scene.Frustum
	if re.FrustumCulling {
		f := scene.FrustumFromVP(vp)
		frustum = &f
	}
	dl := scene.BuildDrawList(re.Scene.GetVisibleNodes(), frustum, cam.Position)

	stats := Stats{Culled: dl.Culled, Transparent: len(dl.Transparent)}
	draw := func(item scene.DrawItem) {
		mvp := item.World.Mul(vp)
		re.gl.DrawMesh(item.Node.Mesh, item.Material, mvp, item.World)
		stats.Objects++
		stats.Vertices += item.Node.Mesh.VertexCount()
	}

	for _, item := range dl.Opaque {
		draw(item)
	}

	if re.StarfieldEnabled {
		re.gl.DrawStarfield(view, proj)
	}

	if len(dl.Transparent) > 0 {
		re.gl.BeginTransparent()
		for _, item := range dl.Transparent {
			draw(item)
		}
		re.gl.EndTransparent()
	}

	glStats := re.gl.Stats()
	stats.DrawCalls = glStats.DrawCalls
	stats.Triangles = glStats.Triangles
	re.last = stats
	return nil
}

// Present flushes queued text on top of the frame and swaps buffers.
// Call after Render().
func (re *RenderEngine) Present() {
	if len(re.textQueue) > 0 {
		sw := float32(re.width)
		sh := float32(re.height)
		for _, cmd := range re.textQueue {
			re.gl.DrawText(cmd.text, cmd.x, cmd.y, cmd.scale, cmd.color, sw, sh)
		}
		re.textQueue = re.textQueue[:0]
	}
	re.surface.SwapBuffers()
}

// DrawText queues a text string to be drawn at framebuffer position (x, y)
// in the next Present() call. scale=1 gives 7x13 px glyphs.
func (re *RenderEngine) DrawText(text string, x, y int, scale float32, color core.Color) {
	re.textQueue = append(re.textQueue, textCmd{
		text:  text,
		x:     float32(x),
		y:     float32(y),
		scale: scale,
		color: color,
	})
}

// MeasureText returns the framebuffer pixel size of text at scale.
func (re *RenderEngine) MeasureText(text string, scale float32) (int, int) {
	w, h := re.gl.MeasureText(text, scale)
	return int(w), int(h)
}

// Project maps a world position to framebuffer pixels (origin top-left).
// ok is false when the point is behind the camera.
func (re *RenderEngine) Project(world math.Vec3) (x, y int, ok bool) {
	if re.Scene == nil || re.Scene.Camera == nil {
		return 0, 0, false
	}
	ndc, ok := re.Scene.Camera.Project(world)
	if !ok {
		return 0, 0, false
	}
	x = int((ndc.X + 1) * 0.5 * float32(re.width))
	y = int((1 - ndc.Y) * 0.5 * float32(re.height))
	return x, y, true
}

// Resize updates the viewport and camera aspect to a new framebuffer size.
func (re *RenderEngine) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	re.width, re.height = width, height
	re.gl.SetViewport(width, height)
	if re.Scene != nil && re.Scene.Camera != nil {
		re.Scene.Camera.UpdateAspectRatio(float32(width), float32(height))
	}
}

// Size is the current framebuffer size.
func (re *RenderEngine) Size() (int, int) {
	return re.width, re.height
}

// SetWireframe toggles wireframe rendering mode on/off.
func (re *RenderEngine) SetWireframe(enabled bool) {
	re.gl.SetWireframe(enabled)
}

// IsWireframe returns whether wireframe mode is currently active.
func (re *RenderEngine) IsWireframe() bool {
	return re.gl.IsWireframe()
}

// UploadTexture uploads a texture to the GPU. Must be called from the main thread.
func (re *RenderEngine) UploadTexture(tex *scene.Texture) error {
	return opengl.UploadTexture(tex)
}

// DeleteTexture frees a previously uploaded GPU texture.
func (re *RenderEngine) DeleteTexture(tex *scene.Texture) {
	opengl.DeleteTexture(tex)
}

// ReleaseMesh frees the GPU buffers of a mesh no longer drawn.
func (re *RenderEngine) ReleaseMesh(mesh *scene.Mesh) {
	re.gl.ReleaseMesh(mesh)
}

func (re *RenderEngine) Destroy() {
	re.gl.Destroy()
}

// DrawStats returns stats from the most recent Render call.
func (re *RenderEngine) DrawStats() Stats {
	return re.last
}
