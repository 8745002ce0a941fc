package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/time/rate"

	"planet-viewer/assets"
	"planet-viewer/core"
	"planet-viewer/internal/config"
	"planet-viewer/internal/logger"
	"planet-viewer/picking"
	"planet-viewer/planet"
	"planet-viewer/quality"
	"planet-viewer/renderer"
	"planet-viewer/scene"
	"planet-viewer/window"
)

const labelScale = 2

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "planet: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.Init(); err != nil {
		return err
	}
	cfg := config.GlobalConfig
	logger.Init(cfg.Logging)
	log := slog.With("component", "main")

	fmt.Println("Starting planet viewer...")

	table, err := loadTable(cfg.Quality.Manifest)
	if err != nil {
		return err
	}
	settings, err := quality.NewSettings(table, cfg.Quality.Initial)
	if err != nil {
		return fmt.Errorf("quality settings: %w", err)
	}

	windowConfig := window.DefaultConfig()
	windowConfig.Width = cfg.Window.Width
	windowConfig.Height = cfg.Window.Height
	windowConfig.Title = cfg.Window.Title
	windowConfig.VSync = cfg.Window.VSync

	win, err := window.New(windowConfig)
	if err != nil {
		return err
	}
	defer win.Destroy()

	engine, err := renderer.NewRenderEngine(win, slog.Default())
	if err != nil {
		return err
	}
	defer engine.Destroy()
	if err := engine.EnableStarfield(); err != nil {
		log.Warn("Starfield unavailable", "error", err)
	}

	loader := assets.NewLoader(cfg.Assets.Dir, engine, slog.Default())
	defer func() {
		loader.Close()
		for _, tex := range loader.Textures() {
			engine.DeleteTexture(tex)
		}
	}()

	opts := planet.DefaultOptions()
	opts.Log = slog.Default()
	opts.Bodies = bodiesFromConfig(cfg.Scene)
	opts.Meshes = engine
	width, height := win.GetFramebufferSize()
	if width > 0 && height > 0 {
		opts.Aspect = float32(width) / float32(height)
	}
	if cfg.Assets.WidgetModel != "" {
		model, err := loadWidgetModel(engine, cfg.Assets.WidgetModel)
		if err != nil {
			log.Warn("Widget model unavailable, using default", "path", cfg.Assets.WidgetModel, "error", err)
		} else {
			opts.WidgetModel = model
		}
	}

	sys, err := planet.New(settings, loader, opts)
	if err != nil {
		return err
	}
	engine.SetScene(sys.Scene())
	defer func() {
		for _, m := range sys.Meshes() {
			engine.ReleaseMesh(m)
		}
	}()

	var manifestUpdates <-chan quality.Table
	if cfg.Quality.Manifest != "" {
		watcher, err := quality.WatchManifest(cfg.Quality.Manifest, slog.Default())
		if err != nil {
			log.Warn("Manifest watch disabled", "path", cfg.Quality.Manifest, "error", err)
		} else {
			defer watcher.Close()
			manifestUpdates = watcher.Updates()
		}
	}

	fmt.Println("Controls:")
	fmt.Println("  Click the blue box or press Q to toggle quality")
	fmt.Println("  H - toggle stats overlay")
	fmt.Println("  Z - toggle wireframe")
	fmt.Println("  Esc - quit")

	pointer := picking.NewPointer(sys.WidgetNode())
	statsLog := rate.Sometimes{Interval: time.Second}
	debugOverlay := &DebugOverlay{}
	showHUD := cfg.Window.ShowStats

	var (
		qualityKeyWasDown bool
		hudKeyWasDown     bool
		wireKeyWasDown    bool
	)

	start := time.Now()
	lastTime := start
	frameCount := 0
	displayFPS := 0

	for !win.ShouldClose() {
		win.PollEvents()

		if win.IsKeyPressed(window.KeyEscape) {
			break
		}

		fbw, fbh := win.GetFramebufferSize()
		if w, h := engine.Size(); fbw != w || fbh != h {
			engine.Resize(fbw, fbh)
		}

		// Pointer picking against the toggle widget
		events := pointer.Update(picking.Sample(win, window.MouseLeft), sys.Scene().Camera)
		picking.Dispatch(events, sys.Widget())
		win.SetCursor(sys.Widget().Cursor())

		// Q key: same handler as clicking the widget
		qDown := win.IsKeyPressed(window.KeyQ)
		if qDown && !qualityKeyWasDown {
			sys.Widget().Activate()
			fmt.Printf("[Quality] %s\n", sys.Settings().Tier())
		}
		qualityKeyWasDown = qDown

		hDown := win.IsKeyPressed(window.KeyH)
		if hDown && !hudKeyWasDown {
			showHUD = !showHUD
			fmt.Printf("[HUD] %s\n", map[bool]string{true: "ON", false: "OFF"}[showHUD])
		}
		hudKeyWasDown = hDown

		zDown := win.IsKeyPressed(window.KeyZ)
		if zDown && !wireKeyWasDown {
			engine.SetWireframe(!engine.IsWireframe())
			fmt.Printf("[Wireframe] %s\n", map[bool]string{true: "ON", false: "OFF"}[engine.IsWireframe()])
		}
		wireKeyWasDown = zDown

		select {
		case t := <-manifestUpdates:
			if err := sys.Reload(t); err != nil {
				log.Warn("Manifest rejected", "error", err)
			}
		default:
		}

		loader.Poll()
		sys.Frame(time.Since(start))

		if err := engine.Render(); err != nil {
			log.Error("Render failed", "error", err)
			break
		}

		drawWidgetLabel(engine, sys)

		stats := sys.Stats()
		draw := engine.DrawStats()
		if showHUD {
			debugOverlay.Clear()
			debugOverlay.AddLine("FPS: %d   Tier: %s", displayFPS, stats.Tier)
			debugOverlay.AddLine("Bodies: verts=%d  tris=%d", stats.Vertices, stats.Triangles)
			debugOverlay.AddLine("Draw: obj=%d  transparent=%d  calls=%d  culled=%d",
				draw.Objects, draw.Transparent, draw.DrawCalls, draw.Culled)
			debugOverlay.AddLine("Textures pending: %d", loader.Pending())
			debugOverlay.AddLine("Q=quality  H=hud  Z=wire  Esc=quit")
			engine.DrawText(debugOverlay.GetText(), 10, 10, 2, core.ColorWhite)
		}

		engine.Present()

		statsLog.Do(func() {
			log.Debug("Frame stats",
				"fps", displayFPS,
				"tier", stats.Tier.String(),
				"triangles", draw.Triangles,
				"draw_calls", draw.DrawCalls,
				"pending_textures", loader.Pending())
		})

		frameCount++
		now := time.Now()
		if now.Sub(lastTime) >= time.Second {
			displayFPS = frameCount
			win.SetTitle(fmt.Sprintf("%s | FPS: %d | %s", cfg.Window.Title, frameCount, stats.Tier))
			frameCount = 0
			lastTime = now
		}
	}

	fmt.Println("Exiting...")
	return nil
}

// loadTable returns the built-in quality table overlaid with the manifest
// file, if one is configured.
func loadTable(path string) (quality.Table, error) {
	if path == "" {
		return quality.DefaultTable(), nil
	}
	table, err := quality.LoadManifest(path)
	if err != nil {
		return nil, fmt.Errorf("quality manifest: %w", err)
	}
	return table, nil
}

func bodiesFromConfig(sc config.SceneConfig) []planet.BodyDef {
	bodies := planet.DefaultBodies()
	for i := range bodies {
		if bodies[i].Orbit != nil {
			bodies[i].Orbit = &planet.OrbitDef{Radius: sc.MoonOrbitRadius, Step: sc.MoonOrbitStep}
		}
	}
	return bodies
}

func loadWidgetModel(engine *renderer.RenderEngine, path string) (*scene.Node, error) {
	result, err := scene.LoadModel(path)
	if err != nil {
		return nil, err
	}
	for _, tex := range result.Textures {
		if err := engine.UploadTexture(tex); err != nil {
			return nil, fmt.Errorf("upload %s: %w", tex.Name, err)
		}
	}
	return result.Root("WidgetModel"), nil
}

// drawWidgetLabel centres the toggle label just below the widget on screen.
func drawWidgetLabel(engine *renderer.RenderEngine, sys *planet.System) {
	x, y, ok := engine.Project(sys.WidgetNode().WorldPosition())
	if !ok {
		return
	}
	label := sys.Widget().Label()
	w, _ := engine.MeasureText(label, labelScale)
	engine.DrawText(label, x-w/2, y+30, labelScale, core.ColorWhite)
}
