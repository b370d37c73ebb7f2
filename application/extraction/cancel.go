package extraction

import (
	"sync"
	"sync/atomic"
	"time"

	"frame-archiver/domain/extraction"

	"go.uber.org/zap"
)

// DefaultGracePeriod is how long a terminated decoder may take to exit before it is killed
const DefaultGracePeriod = 5 * time.Second

// processStopper terminates a decoder once: a graceful interrupt first, then a kill if the
// process has not exited within the grace period.
type processStopper struct {
	proc   extraction.Process
	grace  time.Duration
	exited <-chan struct{}
	logger *zap.Logger
	once   sync.Once

	disarmed   chan struct{}
	disarmOnce sync.Once
	fired      atomic.Bool
}

func newProcessStopper(proc extraction.Process, grace time.Duration, exited <-chan struct{}, logger *zap.Logger) *processStopper {
	return &processStopper{
		proc:     proc,
		grace:    grace,
		exited:   exited,
		logger:   logger,
		disarmed: make(chan struct{}),
	}
}

// stop blocks until the process has exited or been killed
func (s *processStopper) stop() {
	s.once.Do(func() {
		s.fired.Store(true)
		s.logger.Info("terminating decoder")
		if err := s.proc.Terminate(); err != nil {
			s.logger.Warn("graceful terminate failed", zap.Error(err))
		}

		timer := time.NewTimer(s.grace)
		defer timer.Stop()

		select {
		case <-s.exited:
		case <-timer.C:
			s.logger.Warn("decoder did not exit after terminate, killing", zap.Duration("grace_period", s.grace))
			if err := s.proc.Kill(); err != nil {
				s.logger.Error("failed to kill decoder", zap.Error(err))
			}
		}
	})
}

// disarm makes later cancels leave the process alone
func (s *processStopper) disarm() {
	s.disarmOnce.Do(func() { close(s.disarmed) })
}

// stopped reports whether stop ran
func (s *processStopper) stopped() bool {
	return s.fired.Load()
}

// watch stops the process when a cancel arrives before the process exits or the watcher is disarmed
func (s *processStopper) watch(cancelled <-chan struct{}) {
	select {
	case <-cancelled:
		s.stop()
	case <-s.exited:
	case <-s.disarmed:
	}
}
