package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	appdist "frame-archiver/application/distribution"
	appextract "frame-archiver/application/extraction"
	appvideo "frame-archiver/application/video"
	"frame-archiver/domain/distribution"
	"frame-archiver/domain/extraction"
	"frame-archiver/domain/video"
	"frame-archiver/infrastructure/archive"
	"frame-archiver/infrastructure/config"
	"frame-archiver/infrastructure/drive"
	"frame-archiver/infrastructure/ffmpeg"
	"frame-archiver/infrastructure/filesystem"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// ExtractInput holds the extract command's flag values. Zero values fall back to config.
type ExtractInput struct {
	InputPath string
	OutputDir string
	Format    string
	Every     int
	Frames    int
	NoProbe   bool
	Upload    bool
	Quiet     bool
}

var extractInput ExtractInput

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract frames from a video into a zip archive",
	Long: `Extract every Nth frame of a video with ffmpeg and package the images into
frames_<video name>.zip in the output directory.

The total frame count used for the progress bar is read with ffprobe. When
probing fails, the configured default estimate is used instead.

Press Ctrl+C to stop early: ffmpeg is asked to exit and the frames extracted
so far are still archived. Press Ctrl+C again to quit immediately.

Example:
  frame-archiver extract --input clip.mp4
  frame-archiver extract --input clip.mp4 --every 30 --format jpg --output-dir ./frames
  frame-archiver extract --input clip.mp4 --upload`,
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().StringVarP(&extractInput.InputPath, "input", "i", "", "Path to the source video (required)")
	extractCmd.Flags().StringVarP(&extractInput.OutputDir, "output-dir", "o", "", "Directory for the archive (default from config)")
	extractCmd.Flags().StringVarP(&extractInput.Format, "format", "f", "", "Image format: png, jpg or bmp (default from config)")
	extractCmd.Flags().IntVarP(&extractInput.Every, "every", "n", 0, "Keep every Nth frame (default from config)")
	extractCmd.Flags().IntVar(&extractInput.Frames, "frames", 0, "Total frame count for progress, skips probing")
	extractCmd.Flags().BoolVar(&extractInput.NoProbe, "no-probe", false, "Do not run ffprobe; use the default frame estimate")
	extractCmd.Flags().BoolVar(&extractInput.Upload, "upload", false, "Upload the archive to Google Drive when done")
	extractCmd.Flags().BoolVarP(&extractInput.Quiet, "quiet", "q", false, "Hide the progress bar")
	extractCmd.MarkFlagRequired("input")
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}
	logger := sessionLogger(cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	// After the first signal, restore default handling so a second one terminates immediately
	context.AfterFunc(ctx, func() {
		stop()
		if cmd.Context().Err() == nil {
			fmt.Fprintln(os.Stderr, "\nCancelling... saving frames extracted so far (Ctrl+C again to force quit)")
		}
	})

	locator := ffmpeg.NewLocator(bundledDir(cfg))
	decoder := ffmpeg.NewDecoder(
		ffmpeg.WithDecoderLocator(locator),
		ffmpeg.WithDecoderFFmpegPath(cfg.FFmpeg.FFmpegPath),
		ffmpeg.WithQuality(cfg.Extraction.Quality),
	)
	prober := ffmpeg.NewProber(
		ffmpeg.WithProberLocator(locator),
		ffmpeg.WithFFprobePath(cfg.FFmpeg.FFprobePath),
	)

	var driveClient distribution.DriveClient
	if extractInput.Upload {
		if cfg.Google.ArchivesFolderID == "" {
			return fmt.Errorf("--upload needs google.archives_folder_id; set it with 'frame-archiver config set google.archives_folder_id <id>'")
		}
		client, err := drive.NewClientWithOAuth(cmd.Context(), drive.OAuthConfig{
			CredentialsFile: cfg.Google.CredentialsFile,
			TokenFile:       cfg.Google.TokenFile,
			Output:          os.Stdout,
		})
		if err != nil {
			return fmt.Errorf("failed to create Google Drive client: %w", err)
		}
		driveClient = client
	}

	return RunExtractWithDependencies(ctx, cfg, decoder, prober, driveClient, extractInput, logger, DefaultOutput)
}

// bundledDir returns the configured bundled ffmpeg directory, or the one next to the executable
func bundledDir(cfg *config.Config) string {
	if cfg.FFmpeg.BundledDirectory != "" {
		return cfg.FFmpeg.BundledDirectory
	}
	return ffmpeg.DefaultBundledDir()
}

// RunExtractWithDependencies runs the extract command with injected dependencies (for testing).
// prober may be nil to skip probing; driveClient is only used when input.Upload is set.
func RunExtractWithDependencies(
	ctx context.Context,
	cfg *config.Config,
	decoder extraction.Decoder,
	prober video.Prober,
	driveClient distribution.DriveClient,
	input ExtractInput,
	logger *zap.Logger,
	output OutputWriter,
) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	req, err := buildRequest(ctx, cfg, prober, input, logger, output)
	if err != nil {
		return err
	}

	fmt.Fprintln(output, req.Estimate())
	fmt.Fprintf(output, "Extracting every %s from %s as %s...\n",
		frameOrdinal(req.SamplingInterval), req.InputPath, req.Format)

	handler, finish := progressHandler(input.Quiet, output)
	orchestrator := appextract.NewOrchestrator(
		decoder,
		archive.NewZipArchiver(),
		filesystem.NewWorkspace(),
		filesystem.NewChecker(),
		appextract.WithLogger(logger),
		appextract.WithGracePeriod(cfg.Extraction.GracePeriod),
		appextract.WithProgress(handler),
	)

	if err := orchestrator.Start(ctx, req); err != nil {
		return err
	}
	outcome := orchestrator.Wait()
	finish()

	fmt.Fprintln(output, outcome.Message())
	if outcome.Kind == extraction.OutcomeFailure {
		return fmt.Errorf("extraction failed: %w", outcome.Reason)
	}
	fmt.Fprintf(output, "  Frames: %d\n", outcome.FrameCount)

	if !input.Upload {
		return nil
	}
	if outcome.Kind == extraction.OutcomeCancelledPartial {
		fmt.Fprintln(output, "Skipping upload of partial archive.")
		return nil
	}
	if driveClient == nil {
		return fmt.Errorf("upload requested but no Google Drive client is configured")
	}

	fmt.Fprintf(output, "Uploading %s...\n", outcome.ArchivePath)
	result, err := appdist.NewUploadService(driveClient, cfg.Google.ArchivesFolderID, output).UploadArchive(ctx, outcome.ArchivePath)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}
	fmt.Fprintf(output, "Archive uploaded successfully!\n")
	fmt.Fprintf(output, "  Shareable URL: %s\n", result.ShareableURL)
	return nil
}

// buildRequest merges flags with config and resolves the frame estimate
func buildRequest(ctx context.Context, cfg *config.Config, prober video.Prober, input ExtractInput, logger *zap.Logger, output OutputWriter) (*extraction.Request, error) {
	outputDir := input.OutputDir
	if outputDir == "" {
		outputDir = cfg.Paths.OutputDirectory
	}

	formatName := input.Format
	if formatName == "" {
		formatName = cfg.Extraction.Format
	}
	format, err := extraction.ParseImageFormat(formatName)
	if err != nil {
		return nil, err
	}

	every := input.Every
	if every == 0 {
		every = cfg.Extraction.EveryNthFrame
	}

	frames := input.Frames
	if frames <= 0 {
		frames = cfg.Extraction.DefaultTotalFrames
		if prober != nil && !input.NoProbe {
			probeCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			estimate := appvideo.NewProbeService(prober, filesystem.NewChecker(), frames, logger).EstimateFrames(probeCtx, input.InputPath)
			cancel()

			frames = estimate.Frames
			if estimate.Estimated() {
				m := estimate.Metadata
				fmt.Fprintf(output, "Source: %dx%d, %.2f fps, %d frames\n", m.Width, m.Height, m.FPS, m.FrameCount)
			} else {
				fmt.Fprintf(output, "Frame count unknown, estimating %d frames for progress\n", frames)
			}
		}
	}

	return extraction.NewRequest(input.InputPath, outputDir, format, every, frames)
}

// progressHandler returns a progress callback and a function to call once the run is over
func progressHandler(quiet bool, output OutputWriter) (appextract.ProgressFunc, func()) {
	if quiet {
		return nil, func() {}
	}

	bar := progressbar.NewOptions(100,
		progressbar.OptionSetWriter(output),
		progressbar.OptionSetDescription("Starting..."),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "▐",
			BarEnd:        "▌",
		}),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionSetRenderBlankState(true),
	)

	handler := func(ev extraction.ProgressEvent) {
		bar.Describe(ev.Message)
		bar.Set(ev.Percent)
	}
	finish := func() {
		bar.Exit()
		fmt.Fprintln(output)
	}
	return handler, finish
}

func frameOrdinal(n int) string {
	if n == 1 {
		return "frame"
	}
	suffix := "th"
	switch {
	case n%100 >= 11 && n%100 <= 13:
	case n%10 == 1:
		suffix = "st"
	case n%10 == 2:
		suffix = "nd"
	case n%10 == 3:
		suffix = "rd"
	}
	return fmt.Sprintf("%d%s frame", n, suffix)
}
