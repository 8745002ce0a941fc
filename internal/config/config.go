package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"

	"planet-viewer/quality"
)

type Config struct {
	Window  WindowConfig
	Assets  AssetsConfig
	Quality QualityConfig
	Scene   SceneConfig
	Logging LoggingConfig
}

type WindowConfig struct {
	Width     int
	Height    int
	Title     string
	VSync     bool
	ShowStats bool
}

type AssetsConfig struct {
	Dir         string
	WidgetModel string
}

type QualityConfig struct {
	Manifest string
	Initial  quality.Tier
}

type SceneConfig struct {
	MoonOrbitRadius float64
	MoonOrbitStep   float64
}

type LoggingConfig struct {
	Level      string
	Format     string
	JSONFormat bool
}

var GlobalConfig *Config

func Init() error {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using system environment variables")
	}

	config, err := Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	GlobalConfig = config
	return nil
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	config, err := load()
	if err != nil {
		return nil, err
	}
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

func load() (*Config, error) {
	window, err := loadWindowConfig()
	if err != nil {
		return nil, err
	}
	q, err := loadQualityConfig()
	if err != nil {
		return nil, err
	}
	sc, err := loadSceneConfig()
	if err != nil {
		return nil, err
	}

	assets, err := loadAssetsConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Window:  window,
		Assets:  assets,
		Quality: q,
		Scene:   sc,
		Logging: loadLoggingConfig(),
	}, nil
}

func loadWindowConfig() (WindowConfig, error) {
	width, err := strconv.Atoi(getEnv("WINDOW_WIDTH", "1280"))
	if err != nil {
		return WindowConfig{}, fmt.Errorf("WINDOW_WIDTH: %w", err)
	}
	height, err := strconv.Atoi(getEnv("WINDOW_HEIGHT", "720"))
	if err != nil {
		return WindowConfig{}, fmt.Errorf("WINDOW_HEIGHT: %w", err)
	}

	return WindowConfig{
		Width:     width,
		Height:    height,
		Title:     getEnv("WINDOW_TITLE", "Planet Viewer"),
		VSync:     getEnv("VSYNC", "true") == "true",
		ShowStats: getEnv("SHOW_STATS", "false") == "true",
	}, nil
}

func loadAssetsConfig() (AssetsConfig, error) {
	dir, err := homedir.Expand(getEnv("ASSET_DIR", "assets"))
	if err != nil {
		return AssetsConfig{}, fmt.Errorf("ASSET_DIR: %w", err)
	}
	model, err := homedir.Expand(getEnv("WIDGET_MODEL", ""))
	if err != nil {
		return AssetsConfig{}, fmt.Errorf("WIDGET_MODEL: %w", err)
	}

	return AssetsConfig{Dir: dir, WidgetModel: model}, nil
}

func loadQualityConfig() (QualityConfig, error) {
	initial, err := quality.ParseTier(getEnv("QUALITY_INITIAL", "high"))
	if err != nil {
		return QualityConfig{}, fmt.Errorf("QUALITY_INITIAL: %w", err)
	}

	manifest, err := homedir.Expand(getEnv("QUALITY_MANIFEST", ""))
	if err != nil {
		return QualityConfig{}, fmt.Errorf("QUALITY_MANIFEST: %w", err)
	}

	return QualityConfig{Manifest: manifest, Initial: initial}, nil
}

func loadSceneConfig() (SceneConfig, error) {
	radius, err := strconv.ParseFloat(getEnv("MOON_ORBIT_RADIUS", "5"), 64)
	if err != nil {
		return SceneConfig{}, fmt.Errorf("MOON_ORBIT_RADIUS: %w", err)
	}
	step, err := strconv.ParseFloat(getEnv("MOON_ORBIT_STEP", "0.01"), 64)
	if err != nil {
		return SceneConfig{}, fmt.Errorf("MOON_ORBIT_STEP: %w", err)
	}

	return SceneConfig{MoonOrbitRadius: radius, MoonOrbitStep: step}, nil
}

func loadLoggingConfig() LoggingConfig {
	format := strings.ToLower(getEnv("LOG_FORMAT", "text"))
	return LoggingConfig{
		Level:      strings.ToLower(getEnv("LOG_LEVEL", "info")),
		Format:     format,
		JSONFormat: format == "json",
	}
}

func (c *Config) validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}
	if c.Scene.MoonOrbitRadius <= 0 {
		return fmt.Errorf("moon orbit radius must be positive, got %g", c.Scene.MoonOrbitRadius)
	}
	if c.Scene.MoonOrbitStep <= 0 {
		return fmt.Errorf("moon orbit step must be positive, got %g", c.Scene.MoonOrbitStep)
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.Logging.Format)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}
