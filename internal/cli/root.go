// ABOUTME: Cobra command tree for the visualizer binary
// ABOUTME: Loads config, applies flag overrides and builds the logger per command
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Resonate-Protocol/resonate-visualizer/internal/capture"
	"github.com/Resonate-Protocol/resonate-visualizer/internal/config"
	"github.com/Resonate-Protocol/resonate-visualizer/internal/logger"
	"github.com/Resonate-Protocol/resonate-visualizer/internal/version"
)

// app holds state shared by all commands of one invocation
type app struct {
	envFile string
	config  *config.Config
	logger  *zap.Logger

	// flag targets, applied over config when set
	output      string
	fps         int
	captureFPS  int
	ffmpeg      string
	outputDir   string
	logFile     string
	logLevel    string
	style       string
	color       string
	sensitivity int

	// newEncoder builds the recording backend
	newEncoder func(cfg *config.Config, log *zap.Logger) capture.Encoder
}

func newApp() *app {
	return &app{
		newEncoder: func(cfg *config.Config, log *zap.Logger) capture.Encoder {
			enc := capture.NewFFmpeg(cfg.FFmpegPath, log)
			enc.VideoBitrate = cfg.VideoBitrate
			return enc
		},
	}
}

// NewRootCommand builds the full command tree
func NewRootCommand() *cobra.Command {
	return newApp().rootCommand()
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "resonate-visualizer",
		Short:         "Audio-reactive visualizer that records music videos",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	f := root.PersistentFlags()
	f.StringVar(&a.envFile, "env", ".env", "Env file with RV_* settings")
	f.StringVar(&a.output, "output", "", "Playback backend: malgo, oto, portaudio, null")
	f.IntVar(&a.fps, "fps", 0, "Display frame rate")
	f.IntVar(&a.captureFPS, "capture-fps", 0, "Recording frame rate")
	f.StringVar(&a.ffmpeg, "ffmpeg", "", "Path to ffmpeg")
	f.StringVar(&a.outputDir, "out-dir", "", "Directory recordings are saved to")
	f.StringVar(&a.logFile, "log-file", "", "Log file path")
	f.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	f.StringVar(&a.style, "style", "", "Visual style: bars, wave, circle")
	f.StringVar(&a.color, "color", "", "Visual color as #rrggbb or #rgb")
	f.IntVar(&a.sensitivity, "sensitivity", 0, "Sensitivity 2-12")

	root.AddCommand(
		a.playCommand(),
		a.recordCommand(),
		a.toneCommand(),
		a.inspectCommand(),
		a.versionCommand(),
	)
	return root
}

// setup loads config and builds the logger. Console logging is only used
// when no TUI owns the terminal.
func (a *app) setup(cmd *cobra.Command, console bool) error {
	cfg, err := config.LoadFiles(a.envFile)
	if err != nil {
		return err
	}
	a.applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.config = cfg

	log, err := logger.New(cfg.Logger(console))
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	a.logger = log.With(zap.String("version", version.Version))
	return nil
}

func (a *app) applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.Output = a.output
	}
	if flags.Changed("fps") {
		cfg.FPS = a.fps
	}
	if flags.Changed("capture-fps") {
		cfg.CaptureFPS = a.captureFPS
	}
	if flags.Changed("ffmpeg") {
		cfg.FFmpegPath = a.ffmpeg
	}
	if flags.Changed("out-dir") {
		cfg.OutputDir = a.outputDir
	}
	if flags.Changed("log-file") {
		cfg.LogFile = a.logFile
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if flags.Changed("style") {
		cfg.Style = a.style
	}
	if flags.Changed("color") {
		cfg.Color = a.color
	}
	if flags.Changed("sensitivity") {
		cfg.Sensitivity = a.sensitivity
	}
}

func (a *app) close() {
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// Execute runs the command tree and exits non-zero on failure. SIGINT and
// SIGTERM cancel the command context so recordings are finalized.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
