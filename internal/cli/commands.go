package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Resonate-Protocol/resonate-visualizer/internal/capture"
	"github.com/Resonate-Protocol/resonate-visualizer/internal/pipeline"
	"github.com/Resonate-Protocol/resonate-visualizer/internal/version"
)

func (a *app) playCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "play <file>",
		Short: "Visualize an MP3, FLAC or WAV file in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			track, err := pipeline.NewFileTrack(args[0])
			if err != nil {
				return err
			}
			if err := a.setup(cmd, false); err != nil {
				return err
			}
			defer a.close()
			return a.runPlay(cmd.Context(), track)
		},
	}
}

func (a *app) recordCommand() *cobra.Command {
	var duration time.Duration
	var width, height int

	cmd := &cobra.Command{
		Use:   "record <file>",
		Short: "Record a music video of a file without the TUI",
		Long: "Plays the file headless while rendering and recording. Recording stops " +
			"after --duration, when the track ends, or on Ctrl+C, and the WebM is saved to --out-dir.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			track, err := pipeline.NewFileTrack(args[0])
			if err != nil {
				return err
			}
			if err := a.setup(cmd, true); err != nil {
				return err
			}
			defer a.close()
			a.applySize(cmd, width, height)

			path, err := a.runRecord(cmd.Context(), track, duration)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().DurationVar(&duration, "duration", 0, "Stop after this long (0 records until the track ends)")
	cmd.Flags().IntVar(&width, "width", 0, "Video width")
	cmd.Flags().IntVar(&height, "height", 0, "Video height")
	return cmd
}

func (a *app) toneCommand() *cobra.Command {
	var freq float64
	var duration time.Duration
	var record bool
	var width, height int

	cmd := &cobra.Command{
		Use:   "tone",
		Short: "Visualize a sine test tone",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if freq <= 0 || freq >= 24000 {
				return fmt.Errorf("frequency must be between 0 and 24000 Hz, got %g", freq)
			}
			if record && duration <= 0 {
				return fmt.Errorf("--record needs a positive --duration")
			}
			track := pipeline.NewToneTrack(freq, duration)

			if err := a.setup(cmd, record); err != nil {
				return err
			}
			defer a.close()

			if !record {
				return a.runPlay(cmd.Context(), track)
			}
			a.applySize(cmd, width, height)
			path, err := a.runRecord(cmd.Context(), track, duration)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().Float64Var(&freq, "freq", 440, "Tone frequency in Hz")
	cmd.Flags().DurationVar(&duration, "duration", 0, "Tone length (0 plays forever)")
	cmd.Flags().BoolVar(&record, "record", false, "Record headless instead of opening the TUI")
	cmd.Flags().IntVar(&width, "width", 0, "Video width when recording")
	cmd.Flags().IntVar(&height, "height", 0, "Video height when recording")
	return cmd
}

func (a *app) applySize(cmd *cobra.Command, width, height int) {
	if cmd.Flags().Changed("width") && width > 0 {
		a.config.Width = width
	}
	if cmd.Flags().Changed("height") && height > 0 {
		a.config.Height = height
	}
}

func (a *app) inspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file.webm>",
		Short: "Show duration and streams of a recording using ffprobe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd, true); err != nil {
				return err
			}
			defer a.close()

			res, err := capture.Probe(cmd.Context(), capture.ProbePath(a.config.FFmpegPath), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "format:   %s\n", res.FormatName)
			fmt.Fprintf(out, "duration: %s\n", res.Duration.Round(time.Millisecond))
			for _, s := range res.Streams {
				switch s.CodecType {
				case "video":
					fmt.Fprintf(out, "stream %d: video %s %dx%d\n", s.Index, s.CodecName, s.Width, s.Height)
				case "audio":
					fmt.Fprintf(out, "stream %d: audio %s %sHz %dch\n", s.Index, s.CodecName, s.SampleRate, s.Channels)
				default:
					fmt.Fprintf(out, "stream %d: %s %s\n", s.Index, s.CodecType, s.CodecName)
				}
			}
			return nil
		},
	}
}

func (a *app) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", version.String(), version.Manufacturer)
		},
	}
}
