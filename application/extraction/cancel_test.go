package extraction

import (
	"io"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newStopperProcess() *fakeProcess {
	pr, pw := io.Pipe()
	return &fakeProcess{
		pr:         pr,
		pw:         pw,
		terminated: make(chan struct{}),
		killed:     make(chan struct{}),
		done:       make(chan struct{}),
	}
}

func TestProcessStopper_WatchStopsOnCancel(t *testing.T) {
	proc := newStopperProcess()
	exited := make(chan struct{})
	s := newProcessStopper(proc, time.Second, exited, zap.NewNop())

	cancelled := make(chan struct{})
	watched := make(chan struct{})
	go func() {
		s.watch(cancelled)
		close(watched)
	}()
	close(cancelled)

	select {
	case <-proc.terminated:
	case <-time.After(5 * time.Second):
		t.Fatal("process was not terminated")
	}
	close(exited)
	<-watched

	if !s.stopped() {
		t.Error("stopped() = false after cancel")
	}
	if proc.killCalls.Load() != 0 {
		t.Errorf("Kill called %d times, want 0", proc.killCalls.Load())
	}
}

func TestProcessStopper_DisarmIgnoresLaterCancel(t *testing.T) {
	proc := newStopperProcess()
	s := newProcessStopper(proc, time.Second, make(chan struct{}), zap.NewNop())

	cancelled := make(chan struct{})
	watched := make(chan struct{})
	go func() {
		s.watch(cancelled)
		close(watched)
	}()

	s.disarm()
	s.disarm()
	<-watched
	close(cancelled)

	if s.stopped() {
		t.Error("stopped() = true after disarm")
	}
	if n := proc.terminateCalls.Load(); n != 0 {
		t.Errorf("Terminate called %d times, want 0", n)
	}
}

func TestProcessStopper_KillsAfterGrace(t *testing.T) {
	proc := newStopperProcess()
	proc.ignoreTerminate = true
	s := newProcessStopper(proc, 10*time.Millisecond, make(chan struct{}), zap.NewNop())

	s.stop()
	s.stop()

	if n := proc.terminateCalls.Load(); n != 1 {
		t.Errorf("Terminate called %d times, want 1", n)
	}
	if n := proc.killCalls.Load(); n != 1 {
		t.Errorf("Kill called %d times, want 1", n)
	}
}
