package video

import (
	"context"
	"math"
)

// DefaultFPS is assumed when the source reports no usable frame rate
const DefaultFPS = 30.0

// Metadata describes the primary video stream of a media file
type Metadata struct {
	Width      int
	Height     int
	FPS        float64
	Duration   float64 // seconds
	FrameCount int
}

// EstimateFrameCount returns the reported frame count, or duration*fps when the
// container does not carry one
func EstimateFrameCount(reported int, duration, fps float64) int {
	if reported > 0 {
		return reported
	}
	if duration <= 0 || fps <= 0 {
		return 0
	}
	return int(math.Floor(duration * fps))
}

// FrameEstimate returns the frame count to use for progress scaling, or fallback
// when the metadata is missing or carries no count
func (m *Metadata) FrameEstimate(fallback int) int {
	if m == nil || m.FrameCount <= 0 {
		return fallback
	}
	return m.FrameCount
}

// Prober reads stream metadata from a media file
// This is a port that can be implemented by different infrastructure adapters
type Prober interface {
	Probe(ctx context.Context, path string) (*Metadata, error)
}
