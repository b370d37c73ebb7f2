package extraction

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ImageFormat is the file format of extracted frames
type ImageFormat string

const (
	FormatPNG ImageFormat = "png"
	FormatJPG ImageFormat = "jpg"
	FormatBMP ImageFormat = "bmp"
)

// SupportedFormats lists every accepted image format in display order
var SupportedFormats = []ImageFormat{FormatPNG, FormatJPG, FormatBMP}

const (
	// DefaultEstimatedFrames is the frame count assumed when the source metadata is unavailable
	DefaultEstimatedFrames = 1000

	// DefaultSamplingInterval keeps every decoded frame
	DefaultSamplingInterval = 1

	// DefaultFormat is used when no format is configured
	DefaultFormat = FormatPNG

	// WorkspaceDirName is the temporary directory created inside the output directory
	WorkspaceDirName = "temp_extraction"

	// FramePatternPrefix prefixes every extracted frame file
	FramePatternPrefix = "frame_"

	// PartialArchiveSuffix marks an archive that is still being written
	PartialArchiveSuffix = ".partial"

	// PartialArchiveGlob matches leftover partial archives in an output directory
	PartialArchiveGlob = ".frames_*" + PartialArchiveSuffix

	// ArchiveGlob matches finished frame archives
	ArchiveGlob = "frames_*.zip"
)

// ParseImageFormat converts user input into an ImageFormat
func ParseImageFormat(s string) (ImageFormat, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "png":
		return FormatPNG, nil
	case "jpg", "jpeg":
		return FormatJPG, nil
	case "bmp":
		return FormatBMP, nil
	default:
		return "", fmt.Errorf("%w: unsupported image format %q (use png, jpg or bmp)", ErrInvalidRequest, s)
	}
}

// Extension returns the file extension for the format without the dot
func (f ImageFormat) Extension() string {
	return string(f)
}

// ApproxFrameMB is the typical size of one extracted image in megabytes.
// Lossless formats are assumed to be five times larger than JPEG.
func (f ImageFormat) ApproxFrameMB() float64 {
	if f == FormatJPG {
		return 0.3
	}
	return 1.5
}

// OutputEstimate forecasts what a run writes before the frames are archived
type OutputEstimate struct {
	Images int
	SizeMB float64
}

// EstimateOutput forecasts the image count and unzipped size for a run over
// totalFrames source frames keeping every interval-th frame.
func EstimateOutput(totalFrames, interval int, format ImageFormat) OutputEstimate {
	return newOutputEstimate(ExpectedOutputFrames(totalFrames, interval), format)
}

func newOutputEstimate(expected float64, format ImageFormat) OutputEstimate {
	images := int(expected)
	return OutputEstimate{Images: images, SizeMB: float64(images) * format.ApproxFrameMB()}
}

// String renders the estimate the way the CLI announces it
func (e OutputEstimate) String() string {
	return fmt.Sprintf("Will extract approx %d images (~%.1f MB unzipped)", e.Images, e.SizeMB)
}

// Request describes a single frame extraction run. It is not modified once the run starts.
type Request struct {
	InputPath            string
	OutputDir            string
	Format               ImageFormat
	SamplingInterval     int
	EstimatedTotalFrames int
}

// NewRequest creates a validated Request. A non-positive estimatedFrames falls back to
// DefaultEstimatedFrames, since the estimate only drives progress reporting.
func NewRequest(inputPath, outputDir string, format ImageFormat, samplingInterval, estimatedFrames int) (*Request, error) {
	if estimatedFrames <= 0 {
		estimatedFrames = DefaultEstimatedFrames
	}

	req := &Request{
		InputPath:            inputPath,
		OutputDir:            outputDir,
		Format:               format,
		SamplingInterval:     samplingInterval,
		EstimatedTotalFrames: estimatedFrames,
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}

	return req, nil
}

// Validate checks the request fields that do not require filesystem access
func (r *Request) Validate() error {
	if r.InputPath == "" {
		return fmt.Errorf("%w: input path is required", ErrInvalidRequest)
	}
	if r.OutputDir == "" {
		return fmt.Errorf("%w: output directory is required", ErrInvalidRequest)
	}
	if _, err := ParseImageFormat(string(r.Format)); err != nil {
		return err
	}
	if r.SamplingInterval < 1 {
		return fmt.Errorf("%w: sampling interval must be at least 1, got %d", ErrInvalidRequest, r.SamplingInterval)
	}
	if r.EstimatedTotalFrames < 1 {
		return fmt.Errorf("%w: estimated total frames must be at least 1, got %d", ErrInvalidRequest, r.EstimatedTotalFrames)
	}
	return nil
}

// ExpectedOutputFrames is the number of images the run is expected to produce.
// Real division keeps small estimates from saturating at 100% early.
func (r *Request) ExpectedOutputFrames() float64 {
	return ExpectedOutputFrames(r.EstimatedTotalFrames, r.SamplingInterval)
}

// Estimate forecasts the output of this run
func (r *Request) Estimate() OutputEstimate {
	return newOutputEstimate(r.ExpectedOutputFrames(), r.Format)
}

// WorkspacePath returns the temporary directory holding frames before archiving
func (r *Request) WorkspacePath() string {
	return filepath.Join(r.OutputDir, WorkspaceDirName)
}

// ArchiveFilename returns the archive name derived from the input file, e.g. frames_clip.mp4.zip
func (r *Request) ArchiveFilename() string {
	return "frames_" + filepath.Base(r.InputPath) + ".zip"
}

// ArchivePath returns the full path of the archive inside the output directory
func (r *Request) ArchivePath() string {
	return filepath.Join(r.OutputDir, r.ArchiveFilename())
}

// FramePattern returns the printf-style output pattern for frames in the given workspace
func (r *Request) FramePattern(workspace string) string {
	return filepath.Join(workspace, FramePatternPrefix+"%06d."+r.Format.Extension())
}
