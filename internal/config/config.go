// ABOUTME: Runtime configuration from .env and RV_* environment variables
// ABOUTME: CLI flags override these values after Load
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/Resonate-Protocol/resonate-visualizer/internal/logger"
	"github.com/Resonate-Protocol/resonate-visualizer/internal/synth"
	"github.com/Resonate-Protocol/resonate-visualizer/pkg/audio/output"
)

// Config stores the application configuration
type Config struct {
	Output          string // playback backend: malgo, oto, portaudio, null
	FPS             int    // display rate
	CaptureFPS      int
	Width, Height   int // headless surface size
	FFmpegPath      string
	VideoBitrate    string
	OutputDir       string
	FinalizeTimeout time.Duration

	LogFile  string
	LogLevel string

	Style       string
	Color       string
	Sensitivity int
}

// Default returns the built-in configuration
func Default() *Config {
	s := synth.DefaultSettings()
	return &Config{
		Output:          output.BackendMalgo,
		FPS:             60,
		CaptureFPS:      30,
		Width:           1280,
		Height:          720,
		FFmpegPath:      "ffmpeg",
		VideoBitrate:    "2M",
		OutputDir:       ".",
		FinalizeTimeout: 10 * time.Second,
		LogFile:         logger.DefaultConfig().File,
		LogLevel:        "info",
		Style:           s.Style.String(),
		Color:           s.Color.Hex(),
		Sensitivity:     s.Sensitivity,
	}
}

// Load reads .env from the working directory, if present, then the environment
func Load() (*Config, error) {
	return LoadFiles()
}

// LoadFiles reads the given env files (default .env) then the environment.
// Missing files are ignored; variables already set win over file values.
func LoadFiles(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	c := Default()
	var errs []error
	c.Output = getEnv("RV_OUTPUT", c.Output)
	c.FPS = getEnvInt("RV_FPS", c.FPS, &errs)
	c.CaptureFPS = getEnvInt("RV_CAPTURE_FPS", c.CaptureFPS, &errs)
	c.Width = getEnvInt("RV_WIDTH", c.Width, &errs)
	c.Height = getEnvInt("RV_HEIGHT", c.Height, &errs)
	c.FFmpegPath = getEnv("RV_FFMPEG", c.FFmpegPath)
	c.VideoBitrate = getEnv("RV_VIDEO_BITRATE", c.VideoBitrate)
	c.OutputDir = getEnv("RV_OUTPUT_DIR", c.OutputDir)
	c.FinalizeTimeout = getEnvDuration("RV_FINALIZE_TIMEOUT", c.FinalizeTimeout, &errs)
	c.LogFile = getEnv("RV_LOG_FILE", c.LogFile)
	c.LogLevel = getEnv("RV_LOG_LEVEL", c.LogLevel)
	c.Style = getEnv("RV_STYLE", c.Style)
	c.Color = getEnv("RV_COLOR", c.Color)
	c.Sensitivity = getEnvInt("RV_SENSITIVITY", c.Sensitivity, &errs)

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks ranges and names
func (c *Config) Validate() error {
	switch c.Output {
	case output.BackendMalgo, output.BackendOto, output.BackendPortAudio, output.BackendNull:
	default:
		return fmt.Errorf("unknown output backend %q", c.Output)
	}
	if c.FPS < 1 || c.FPS > 240 {
		return fmt.Errorf("fps must be between 1 and 240, got %d", c.FPS)
	}
	if c.CaptureFPS < 1 || c.CaptureFPS > 120 {
		return fmt.Errorf("capture fps must be between 1 and 120, got %d", c.CaptureFPS)
	}
	if c.Width < 2 || c.Height < 2 {
		return fmt.Errorf("surface must be at least 2x2, got %dx%d", c.Width, c.Height)
	}
	if c.FinalizeTimeout <= 0 {
		return fmt.Errorf("finalize timeout must be positive, got %s", c.FinalizeTimeout)
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if _, err := c.Settings(); err != nil {
		return err
	}
	return nil
}

// Settings parses the initial visual settings
func (c *Config) Settings() (synth.Settings, error) {
	return synth.ParseSettings(c.Style, c.Color, c.Sensitivity)
}

// Logger returns the logger configuration for this run
func (c *Config) Logger(console bool) logger.Config {
	lc := logger.DefaultConfig()
	lc.File = c.LogFile
	lc.Level = c.LogLevel
	lc.Console = console
	return lc
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int, errs *[]error) int {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: invalid integer %q", key, value))
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration, errs *[]error) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: invalid duration %q", key, value))
		return fallback
	}
	return d
}
