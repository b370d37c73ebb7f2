package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strconv"

	"frame-archiver/domain/extraction"
)

// DefaultQuality is the -q:v value passed to ffmpeg; 2 is near-lossless for jpg
const DefaultQuality = 2

// Decoder implements extraction.Decoder using ffmpeg
type Decoder struct {
	ffmpegPath string
	locator    *Locator
	runner     CommandRunner
	quality    int
}

// DecoderOption is a functional option for configuring Decoder
type DecoderOption func(*Decoder)

// WithDecoderFFmpegPath sets an explicit ffmpeg executable path, bypassing the locator
func WithDecoderFFmpegPath(path string) DecoderOption {
	return func(d *Decoder) {
		d.ffmpegPath = path
	}
}

// WithDecoderLocator sets the locator used to find ffmpeg
func WithDecoderLocator(l *Locator) DecoderOption {
	return func(d *Decoder) {
		d.locator = l
	}
}

// WithDecoderCommandRunner sets a custom command runner (for testing)
func WithDecoderCommandRunner(runner CommandRunner) DecoderOption {
	return func(d *Decoder) {
		d.runner = runner
	}
}

// WithQuality sets the -q:v quality parameter
func WithQuality(q int) DecoderOption {
	return func(d *Decoder) {
		if q > 0 {
			d.quality = q
		}
	}
}

// NewDecoder creates a new FFmpeg-based frame decoder
func NewDecoder(opts ...DecoderOption) *Decoder {
	d := &Decoder{
		locator: NewLocator(DefaultBundledDir()),
		runner:  &ExecCommandRunner{},
		quality: DefaultQuality,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Args returns the ffmpeg arguments that write every Nth frame of req into workspace
func (d *Decoder) Args(req *extraction.Request, workspace string) []string {
	return []string{
		"-i", req.InputPath,
		"-vf", fmt.Sprintf(`select=not(mod(n\,%d))`, req.SamplingInterval),
		"-vsync", "vfr", // One image per selected frame, no duplicates
		"-q:v", strconv.Itoa(d.quality),
		req.FramePattern(workspace),
	}
}

// Start implements extraction.Decoder
func (d *Decoder) Start(ctx context.Context, req *extraction.Request, workspace string) (extraction.Process, error) {
	bin, err := d.binary()
	if err != nil {
		return nil, err
	}

	proc, err := d.runner.Start(bin, d.Args(req, workspace)...)
	if err != nil {
		if missingBinary(err) {
			return nil, fmt.Errorf("%w: %v", extraction.ErrToolNotFound, err)
		}
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	return proc, nil
}

// VerifyInstalled checks that ffmpeg is available
func (d *Decoder) VerifyInstalled(ctx context.Context) error {
	bin, err := d.binary()
	if err != nil {
		return err
	}
	if _, err := d.runner.Output(ctx, bin, "-version"); err != nil {
		if missingBinary(err) {
			return fmt.Errorf("%w: ffmpeg not found or not executable: %v", extraction.ErrToolNotFound, err)
		}
		return fmt.Errorf("ffmpeg -version failed: %w", err)
	}
	return nil
}

// missingBinary reports whether err means the executable could not be run at all,
// as opposed to running and failing.
func missingBinary(err error) bool {
	return errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission)
}

func (d *Decoder) binary() (string, error) {
	if d.ffmpegPath != "" {
		return d.ffmpegPath, nil
	}
	return d.locator.Locate("ffmpeg")
}

// Ensure Decoder implements extraction.Decoder
var _ extraction.Decoder = (*Decoder)(nil)
