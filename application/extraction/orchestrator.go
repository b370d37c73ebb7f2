package extraction

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"frame-archiver/domain/extraction"

	"go.uber.org/zap"
)

// maxStatusLine bounds a single decoder status line
const maxStatusLine = 1024 * 1024

// ProgressFunc receives progress events in order. It is called on the run goroutine and
// should return quickly.
type ProgressFunc func(extraction.ProgressEvent)

// Orchestrator runs a single frame extraction: it launches the decoder, reports progress,
// honours cancellation, and archives whatever frames exist when the decoder stops.
// An Orchestrator runs at most once.
type Orchestrator struct {
	decoder     extraction.Decoder
	archiver    extraction.Archiver
	workspace   extraction.Workspace
	fileChecker extraction.FileChecker
	logger      *zap.Logger
	onProgress  ProgressFunc
	gracePeriod time.Duration

	started    atomic.Bool
	cancelled  atomic.Bool
	cancelOnce sync.Once
	cancelCh   chan struct{}
	done       chan struct{}
	outcome    extraction.Outcome
}

// Option is a functional option for configuring Orchestrator
type Option func(*Orchestrator)

// WithLogger sets the logger used for run diagnostics
func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithProgress sets the progress event handler
func WithProgress(fn ProgressFunc) Option {
	return func(o *Orchestrator) {
		o.onProgress = fn
	}
}

// WithGracePeriod sets how long a cancelled decoder may take to exit before it is killed
func WithGracePeriod(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.gracePeriod = d
		}
	}
}

// NewOrchestrator creates a new Orchestrator
func NewOrchestrator(
	decoder extraction.Decoder,
	archiver extraction.Archiver,
	workspace extraction.Workspace,
	fileChecker extraction.FileChecker,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		decoder:     decoder,
		archiver:    archiver,
		workspace:   workspace,
		fileChecker: fileChecker,
		logger:      zap.NewNop(),
		gracePeriod: DefaultGracePeriod,
		cancelCh:    make(chan struct{}),
		done:        make(chan struct{}),
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Start begins the run on its own goroutine. Cancelling ctx has the same effect as Cancel.
func (o *Orchestrator) Start(ctx context.Context, req *extraction.Request) error {
	if !o.started.CompareAndSwap(false, true) {
		return extraction.ErrAlreadyStarted
	}
	go o.run(ctx, req)
	return nil
}

// Cancel requests the run to stop and archive the frames written so far.
// It is safe to call from any goroutine, any number of times, including after the run finished.
func (o *Orchestrator) Cancel() {
	select {
	case <-o.done:
		return
	default:
	}
	o.cancelOnce.Do(func() {
		o.cancelled.Store(true)
		close(o.cancelCh)
	})
}

// Done is closed once the Outcome is available
func (o *Orchestrator) Done() <-chan struct{} {
	return o.done
}

// Outcome returns the run's result. It is only meaningful after Done is closed.
func (o *Orchestrator) Outcome() extraction.Outcome {
	return o.outcome
}

// Wait blocks until the run finishes and returns its Outcome
func (o *Orchestrator) Wait() extraction.Outcome {
	<-o.done
	return o.outcome
}

func (o *Orchestrator) run(ctx context.Context, req *extraction.Request) {
	log := o.logger.With(zap.String("input", req.InputPath))

	defer func() {
		if p := recover(); p != nil {
			log.Error("extraction panicked", zap.Any("panic", p), zap.Stack("stack"))
			o.outcome = extraction.Failed(fmt.Errorf("internal error: %v", p))
		}
		close(o.done)
	}()

	stop := context.AfterFunc(ctx, o.Cancel)
	defer stop()

	o.outcome = o.execute(ctx, req, log)
	log.Info("extraction finished",
		zap.Stringer("outcome", o.outcome.Kind),
		zap.String("archive", o.outcome.ArchivePath),
		zap.Int("frames", o.outcome.FrameCount),
		zap.Error(o.outcome.Reason),
	)
}

func (o *Orchestrator) execute(ctx context.Context, req *extraction.Request, log *zap.Logger) extraction.Outcome {
	state := extraction.NewState()
	advance := func(next extraction.Phase) {
		from := state.Phase()
		if err := state.Advance(next); err != nil {
			panic(err)
		}
		log.Debug("phase transition",
			zap.Stringer("from", from),
			zap.Stringer("to", next),
			zap.Bool("finalizing", next.IsFinalizing()),
		)
		if next == extraction.PhaseTerminal {
			log.Debug("phase history", zap.Stringers("phases", state.History()))
		}
	}

	advance(extraction.PhasePreparing)
	state.SetStatus("Preparing...")

	fail := func(err error) extraction.Outcome {
		advance(extraction.PhaseFinalizingFailed)
		advance(extraction.PhaseTerminal)
		return extraction.Failed(err)
	}

	if err := o.validate(req); err != nil {
		return fail(err)
	}

	verifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	err := o.decoder.VerifyInstalled(verifyCtx)
	cancel()
	if err != nil {
		return fail(err)
	}

	workspace := req.WorkspacePath()
	if err := o.workspace.Prepare(workspace); err != nil {
		o.removeWorkspace(workspace, log)
		return fail(err)
	}

	log.Info("starting decoder",
		zap.String("workspace", workspace),
		zap.Int("sampling_interval", req.SamplingInterval),
		zap.Int("estimated_frames", req.EstimatedTotalFrames),
		zap.String("format", string(req.Format)),
	)
	proc, err := o.decoder.Start(ctx, req, workspace)
	if err != nil {
		o.removeWorkspace(workspace, log)
		return fail(err)
	}

	advance(extraction.PhaseRunning)
	tracker := extraction.NewTracker(req)
	cancelled, fault := o.monitor(proc, tracker, state, log)

	var next extraction.Phase
	switch {
	case cancelled:
		next = extraction.PhaseFinalizingCancelled
		o.emit(state, extraction.ProgressEvent{Percent: 99, Message: "Zipping partial results..."})
	case fault != nil:
		next = extraction.PhaseFinalizingFailed
		log.Error("decoder failed", zap.Error(fault), zap.Int("last_frame", tracker.LastFrame()))
	default:
		next = extraction.PhaseFinalizingSuccess
		o.emit(state, extraction.ProgressEvent{Percent: 100, Message: "Archiving frames..."})
	}
	advance(next)

	result, err := o.archiver.Archive(workspace, req.ArchivePath())
	advance(extraction.PhaseTerminal)
	if err != nil {
		log.Error("archive failed", zap.Error(err), zap.String("workspace", workspace))
		outcome := extraction.Failed(errors.Join(fault, err))
		if errors.Is(err, extraction.ErrWorkspace) {
			outcome.ArchivePath = req.ArchivePath()
		}
		return outcome
	}

	log.Info("archive written",
		zap.String("archive", result.Path),
		zap.Int("entries", len(result.Entries)),
		zap.Int64("bytes", result.Bytes),
	)

	switch next {
	case extraction.PhaseFinalizingCancelled:
		return extraction.CancelledPartial(result.Path, len(result.Entries))
	case extraction.PhaseFinalizingFailed:
		return extraction.Outcome{
			Kind:        extraction.OutcomeFailure,
			ArchivePath: result.Path,
			FrameCount:  len(result.Entries),
			Reason:      fault,
		}
	default:
		return extraction.Succeeded(result.Path, len(result.Entries))
	}
}

// monitor consumes the decoder's status stream until it ends or a cancel is observed, then
// waits for the decoder to exit. The cancel flag is sampled when the stream loop ends: a cancel
// landing after the decoder closed its stream, while it is still exiting or during finalization,
// does not change the result. Faults caused by a cancel are not reported.
func (o *Orchestrator) monitor(proc extraction.Process, tracker *extraction.Tracker, state *extraction.State, log *zap.Logger) (bool, error) {
	exited := make(chan struct{})
	stopper := newProcessStopper(proc, o.gracePeriod, exited, log)
	go stopper.watch(o.cancelCh)

	scanner := bufio.NewScanner(proc.Status())
	scanner.Buffer(make([]byte, 0, 64*1024), maxStatusLine)
	scanner.Split(extraction.ScanStatusLines)

	for {
		if o.cancelled.Load() {
			break
		}
		if !scanner.Scan() {
			break
		}
		if ev, ok := tracker.Observe(scanner.Text()); ok {
			o.emit(state, ev)
		}
	}
	cancelled := o.cancelled.Load()
	scanErr := scanner.Err()

	if cancelled {
		log.Info("cancel observed",
			zap.Int("last_frame", tracker.LastFrame()),
			zap.Int("percent", tracker.Percent()),
		)
	} else {
		stopper.disarm()
	}

	// Keep the pipe drained so the decoder never blocks writing status while it shuts down
	go io.Copy(io.Discard, proc.Status())

	if scanErr != nil && !cancelled {
		go stopper.stop()
	}

	waitErr := proc.Wait()
	close(exited)

	switch {
	case cancelled:
		return true, nil
	case scanErr != nil:
		return false, fmt.Errorf("%w: %v", extraction.ErrStatusStream, scanErr)
	case waitErr != nil && stopper.stopped():
		// a cancel raced the disarm after the stream had already ended
		log.Info("decoder stopped after its output completed", zap.Error(waitErr))
		return false, nil
	case waitErr != nil:
		return false, fmt.Errorf("%w: %v", extraction.ErrProcessFault, waitErr)
	default:
		return false, nil
	}
}

func (o *Orchestrator) validate(req *extraction.Request) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if !o.fileChecker.Exists(req.InputPath) || o.fileChecker.IsDir(req.InputPath) {
		return fmt.Errorf("%w: input video does not exist: %s", extraction.ErrInvalidRequest, req.InputPath)
	}
	if !o.fileChecker.IsDir(req.OutputDir) {
		return fmt.Errorf("%w: output directory does not exist: %s", extraction.ErrInvalidRequest, req.OutputDir)
	}
	return nil
}

func (o *Orchestrator) removeWorkspace(path string, log *zap.Logger) {
	if err := o.workspace.Remove(path); err != nil {
		log.Warn("failed to remove workspace", zap.String("workspace", path), zap.Error(err))
	}
}

func (o *Orchestrator) emit(state *extraction.State, ev extraction.ProgressEvent) {
	state.SetStatus(ev.Message)
	if o.onProgress != nil {
		o.onProgress(ev)
	}
}
