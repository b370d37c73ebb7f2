package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"frame-archiver/domain/video"
)

// probeOutput mirrors the subset of `ffprobe -of json` output we read
type probeOutput struct {
	Streams []probeStream `json:"streams"`
}

type probeStream struct {
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	RFrameRate string `json:"r_frame_rate"`
	Duration   string `json:"duration"`
	NbFrames   string `json:"nb_frames"`
}

// Prober implements video.Prober using ffprobe
type Prober struct {
	ffprobePath string
	locator     *Locator
	runner      CommandRunner
}

// ProberOption is a functional option for configuring Prober
type ProberOption func(*Prober)

// WithFFprobePath sets an explicit ffprobe executable path
func WithFFprobePath(path string) ProberOption {
	return func(p *Prober) {
		p.ffprobePath = path
	}
}

// WithProberLocator sets the locator used to find ffprobe
func WithProberLocator(l *Locator) ProberOption {
	return func(p *Prober) {
		p.locator = l
	}
}

// WithProberCommandRunner sets a custom command runner (for testing)
func WithProberCommandRunner(runner CommandRunner) ProberOption {
	return func(p *Prober) {
		p.runner = runner
	}
}

// NewProber creates a new ffprobe-based metadata reader
func NewProber(opts ...ProberOption) *Prober {
	p := &Prober{
		locator: NewLocator(DefaultBundledDir()),
		runner:  &ExecCommandRunner{},
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Probe implements video.Prober
func (p *Prober) Probe(ctx context.Context, path string) (*video.Metadata, error) {
	bin := p.ffprobePath
	if bin == "" {
		var err error
		if bin, err = p.locator.Locate("ffprobe"); err != nil {
			return nil, err
		}
	}

	out, err := p.runner.Output(ctx, bin,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,r_frame_rate,duration,nb_frames",
		"-of", "json",
		path,
	)
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	return parseProbeOutput(out)
}

func parseProbeOutput(data []byte) (*video.Metadata, error) {
	var result probeOutput
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}
	if len(result.Streams) == 0 {
		return nil, fmt.Errorf("no video stream found")
	}

	stream := result.Streams[0]
	fps := parseFrameRate(stream.RFrameRate)
	duration, _ := strconv.ParseFloat(stream.Duration, 64)
	reported, _ := strconv.Atoi(stream.NbFrames)

	return &video.Metadata{
		Width:      stream.Width,
		Height:     stream.Height,
		FPS:        fps,
		Duration:   duration,
		FrameCount: video.EstimateFrameCount(reported, duration, fps),
	}, nil
}

// parseFrameRate parses an ffprobe rational such as "30000/1001"
func parseFrameRate(s string) float64 {
	num, den, found := strings.Cut(s, "/")
	if !found {
		if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
			return f
		}
		return video.DefaultFPS
	}

	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return video.DefaultFPS
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return video.DefaultFPS
	}
	return n / d
}

// Ensure Prober implements video.Prober
var _ video.Prober = (*Prober)(nil)
