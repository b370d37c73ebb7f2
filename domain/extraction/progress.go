package extraction

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
)

// frameCounterRegex matches the decoder's running frame counter, e.g. "frame=  123 fps=..."
var frameCounterRegex = regexp.MustCompile(`frame=\s*(\d+)`)

// ProgressEvent is a single progress notification
type ProgressEvent struct {
	Percent int
	Message string
}

// ParseFrameIndex extracts the current frame counter from a status line.
// Lines without a counter return false.
func ParseFrameIndex(line string) (int, bool) {
	matches := frameCounterRegex.FindStringSubmatch(line)
	if matches == nil {
		return 0, false
	}
	n, err := strconv.Atoi(matches[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// ExpectedOutputFrames divides the estimated source frames by the sampling interval.
// The result is never below 1.
func ExpectedOutputFrames(estimatedTotalFrames, samplingInterval int) float64 {
	if samplingInterval < 1 {
		samplingInterval = 1
	}
	expected := float64(estimatedTotalFrames) / float64(samplingInterval)
	if expected < 1 {
		return 1
	}
	return expected
}

// Percent converts a frame counter into a percent complete within [0, 100]
func Percent(frameIndex, estimatedTotalFrames, samplingInterval int) int {
	expected := ExpectedOutputFrames(estimatedTotalFrames, samplingInterval)
	p := math.Round(float64(frameIndex) / expected * 100)
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return int(p)
	}
}

// Tracker turns status lines into progress events. The reported percent never decreases.
type Tracker struct {
	estimatedTotalFrames int
	samplingInterval     int
	lastFrame            int
	percent              int
}

// NewTracker creates a Tracker for the given request
func NewTracker(req *Request) *Tracker {
	return &Tracker{
		estimatedTotalFrames: req.EstimatedTotalFrames,
		samplingInterval:     req.SamplingInterval,
	}
}

// Observe parses a status line. It returns false when the line carries no frame counter,
// in which case the tracker state is unchanged.
func (t *Tracker) Observe(line string) (ProgressEvent, bool) {
	frame, ok := ParseFrameIndex(line)
	if !ok {
		return ProgressEvent{}, false
	}

	t.lastFrame = frame
	if p := Percent(frame, t.estimatedTotalFrames, t.samplingInterval); p > t.percent {
		t.percent = p
	}

	return ProgressEvent{
		Percent: t.percent,
		Message: fmt.Sprintf("Extracting frame %d...", frame),
	}, true
}

// LastFrame returns the most recent frame counter seen
func (t *Tracker) LastFrame() int {
	return t.lastFrame
}

// Percent returns the highest percent reported so far
func (t *Tracker) Percent() int {
	return t.percent
}
