package video

import (
	"context"
	"fmt"

	"frame-archiver/domain/video"

	"go.uber.org/zap"
)

// FileChecker defines the interface for checking file existence
type FileChecker interface {
	Exists(path string) bool
}

// ProbeService reads source metadata and turns it into a frame estimate for progress reporting
type ProbeService struct {
	prober         video.Prober
	fileChecker    FileChecker
	fallbackFrames int
	logger         *zap.Logger
}

// NewProbeService creates a new ProbeService. fallbackFrames is used whenever the
// source cannot be probed or reports no frame count.
func NewProbeService(prober video.Prober, fileChecker FileChecker, fallbackFrames int, logger *zap.Logger) *ProbeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProbeService{
		prober:         prober,
		fileChecker:    fileChecker,
		fallbackFrames: fallbackFrames,
		logger:         logger,
	}
}

// Probe returns the metadata of the primary video stream
func (s *ProbeService) Probe(ctx context.Context, path string) (*video.Metadata, error) {
	if !s.fileChecker.Exists(path) {
		return nil, fmt.Errorf("source video does not exist: %s", path)
	}
	return s.prober.Probe(ctx, path)
}

// EstimateResult is a frame estimate and the metadata it came from, if any
type EstimateResult struct {
	Frames   int
	Metadata *video.Metadata
	ProbeErr error // non-nil when the fallback was used because probing failed
}

// Estimated reports whether Frames came from the source rather than the fallback
func (r *EstimateResult) Estimated() bool {
	return r.Metadata != nil && r.Metadata.FrameCount > 0
}

// EstimateFrames never fails: probe errors are logged and replaced by the fallback estimate
func (s *ProbeService) EstimateFrames(ctx context.Context, path string) *EstimateResult {
	meta, err := s.Probe(ctx, path)
	if err != nil {
		s.logger.Warn("probe failed, using fallback frame estimate",
			zap.String("input", path),
			zap.Int("fallback", s.fallbackFrames),
			zap.Error(err),
		)
		return &EstimateResult{Frames: s.fallbackFrames, ProbeErr: err}
	}

	frames := meta.FrameEstimate(s.fallbackFrames)
	s.logger.Info("probed source",
		zap.String("input", path),
		zap.Int("width", meta.Width),
		zap.Int("height", meta.Height),
		zap.Float64("fps", meta.FPS),
		zap.Float64("duration", meta.Duration),
		zap.Int("frames", frames),
	)
	return &EstimateResult{Frames: frames, Metadata: meta}
}
