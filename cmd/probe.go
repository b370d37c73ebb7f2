package cmd

import (
	"context"
	"fmt"

	appvideo "frame-archiver/application/video"
	"frame-archiver/domain/extraction"
	"frame-archiver/domain/video"
	"frame-archiver/infrastructure/ffmpeg"
	"frame-archiver/infrastructure/filesystem"

	"github.com/spf13/cobra"
)

var (
	probeInputPath string
	probeEvery     int
	probeFormat    string
)

// ProbeInput holds the probe command flags
type ProbeInput struct {
	InputPath string
	Every     int
	Format    string
}

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Show video stream information",
	Long: `Read the primary video stream of a file with ffprobe and print its size,
frame rate, duration and frame count, followed by how many images an
extraction with the given sampling would write.

Example:
  frame-archiver probe --input clip.mp4
  frame-archiver probe --input clip.mp4 --every 30 --format jpg`,
	RunE: runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)
	probeCmd.Flags().StringVarP(&probeInputPath, "input", "i", "", "Path to the video (required)")
	probeCmd.Flags().IntVarP(&probeEvery, "every", "n", 0, "Sampling interval for the estimate (default from config)")
	probeCmd.Flags().StringVarP(&probeFormat, "format", "f", "", "Image format for the estimate (default from config)")
	probeCmd.MarkFlagRequired("input")
}

func runProbe(cmd *cobra.Command, args []string) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}
	logger := sessionLogger(cfg)

	prober := ffmpeg.NewProber(
		ffmpeg.WithProberLocator(ffmpeg.NewLocator(bundledDir(cfg))),
		ffmpeg.WithFFprobePath(cfg.FFmpeg.FFprobePath),
	)
	service := appvideo.NewProbeService(prober, filesystem.NewChecker(), cfg.Extraction.DefaultTotalFrames, logger)

	input := ProbeInput{InputPath: probeInputPath, Every: probeEvery, Format: probeFormat}
	if input.Every == 0 {
		input.Every = cfg.Extraction.EveryNthFrame
	}
	if input.Format == "" {
		input.Format = cfg.Extraction.Format
	}

	return RunProbeWithDependencies(cmd.Context(), service, input, DefaultOutput)
}

// RunProbeWithDependencies runs the probe command with injected dependencies (for testing)
func RunProbeWithDependencies(ctx context.Context, service *appvideo.ProbeService, input ProbeInput, output OutputWriter) error {
	format, err := extraction.ParseImageFormat(input.Format)
	if err != nil {
		return err
	}
	if input.Every < 1 {
		return fmt.Errorf("%w: sampling interval must be at least 1, got %d", extraction.ErrInvalidRequest, input.Every)
	}

	meta, err := service.Probe(ctx, input.InputPath)
	if err != nil {
		return fmt.Errorf("probe failed: %w", err)
	}

	printMetadata(output, input.InputPath, meta)
	if meta.FrameCount > 0 {
		fmt.Fprintln(output, extraction.EstimateOutput(meta.FrameCount, input.Every, format))
	}
	return nil
}

func printMetadata(output OutputWriter, path string, m *video.Metadata) {
	fmt.Fprintf(output, "File:       %s\n", path)
	fmt.Fprintf(output, "Resolution: %dx%d\n", m.Width, m.Height)
	fmt.Fprintf(output, "Frame rate: %.3f fps\n", m.FPS)
	fmt.Fprintf(output, "Duration:   %.2f s\n", m.Duration)
	if m.FrameCount > 0 {
		fmt.Fprintf(output, "Frames:     %d\n", m.FrameCount)
	} else {
		fmt.Fprintf(output, "Frames:     unknown\n")
	}
}
