package window

import (
	"fmt"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"

	"planet-viewer/core"
)

func init() {
	runtime.LockOSThread()
}

type Window struct {
	Handle *glfw.Window
	Width  int
	Height int
	Title  string

	cursors map[core.CursorShape]*glfw.Cursor
	cursor  core.CursorShape
}

type Config struct {
	Width      int
	Height     int
	Title      string
	Resizable  bool
	VSync      bool
	Fullscreen bool
}

func DefaultConfig() Config {
	return Config{
		Width:     1280,
		Height:    720,
		Title:     "Planet Viewer",
		Resizable: true,
		VSync:     true,
	}
}

// New opens a window with a current OpenGL 4.1 core context.
func New(config Config) (*Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize GLFW: %w", err)
	}

	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.Resizable, boolToInt(config.Resizable))

	monitor := (*glfw.Monitor)(nil)
	if config.Fullscreen {
		monitor = glfw.GetPrimaryMonitor()
	}

	handle, err := glfw.CreateWindow(config.Width, config.Height, config.Title, monitor, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("failed to create window: %w", err)
	}
	handle.MakeContextCurrent()
	glfw.SwapInterval(boolToInt(config.VSync))

	w := &Window{
		Handle:  handle,
		Width:   config.Width,
		Height:  config.Height,
		Title:   config.Title,
		cursors: make(map[core.CursorShape]*glfw.Cursor),
	}

	handle.SetSizeCallback(func(_ *glfw.Window, width, height int) {
		w.Width = width
		w.Height = height
	})

	return w, nil
}

func (w *Window) ShouldClose() bool {
	return w.Handle.ShouldClose()
}

func (w *Window) PollEvents() {
	glfw.PollEvents()
}

func (w *Window) SwapBuffers() {
	w.Handle.SwapBuffers()
}

func (w *Window) GetFramebufferSize() (int, int) {
	return w.Handle.GetFramebufferSize()
}

func (w *Window) Destroy() {
	for _, c := range w.cursors {
		c.Destroy()
	}
	w.Handle.Destroy()
	glfw.Terminate()
}

func (w *Window) IsKeyPressed(key int) bool {
	return w.Handle.GetKey(glfw.Key(key)) == glfw.Press
}

func (w *Window) SetTitle(title string) {
	w.Handle.SetTitle(title)
	w.Title = title
}

func (w *Window) IsMouseButtonPressed(button int) bool {
	return w.Handle.GetMouseButton(glfw.MouseButton(button)) == glfw.Press
}

func (w *Window) GetCursorPos() (float64, float64) {
	return w.Handle.GetCursorPos()
}

// Size reports the window size in screen coordinates, the space cursor
// positions are reported in.
func (w *Window) Size() (int, int) {
	return w.Width, w.Height
}

// SetCursor switches the pointer shape. Standard cursors are created once and
// cached; setting the current shape again is a no-op.
func (w *Window) SetCursor(shape core.CursorShape) {
	if shape == w.cursor {
		return
	}
	c, ok := w.cursors[shape]
	if !ok {
		c = glfw.CreateStandardCursor(standardCursor(shape))
		w.cursors[shape] = c
	}
	w.Handle.SetCursor(c)
	w.cursor = shape
}

func standardCursor(shape core.CursorShape) glfw.StandardCursor {
	switch shape {
	case core.CursorHand:
		return glfw.HandCursor
	default:
		return glfw.ArrowCursor
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

const (
	MouseLeft = int(glfw.MouseButtonLeft)

	KeyEscape = int(glfw.KeyEscape)
	KeyH      = int(glfw.KeyH)
	KeyQ      = int(glfw.KeyQ)
	KeyZ      = int(glfw.KeyZ)
)
