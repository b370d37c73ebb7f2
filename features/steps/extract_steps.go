//go:build integration

package steps

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	appextract "frame-archiver/application/extraction"
	"frame-archiver/domain/extraction"
	"frame-archiver/infrastructure/archive"
	"frame-archiver/infrastructure/filesystem"

	"github.com/cucumber/godog"
)

// stepProcess is a decoder process driven by the scenario
type stepProcess struct {
	pr              *io.PipeReader
	pw              *io.PipeWriter
	ignoreInterrupt bool
	stop            chan struct{}
	stopOnce        sync.Once
	done            chan struct{}

	mu     sync.Mutex
	killed bool
}

func (p *stepProcess) Status() io.Reader { return p.pr }

func (p *stepProcess) Terminate() error {
	if !p.ignoreInterrupt {
		p.stopOnce.Do(func() { close(p.stop) })
	}
	return nil
}

func (p *stepProcess) Kill() error {
	p.mu.Lock()
	p.killed = true
	p.mu.Unlock()
	p.stopOnce.Do(func() { close(p.stop) })
	return nil
}

func (p *stepProcess) Wait() error {
	<-p.done
	return nil
}

func (p *stepProcess) wasKilled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.killed
}

// stepDecoder writes fake frames into the workspace the way ffmpeg would
type stepDecoder struct {
	sourceFrames    int
	pauseAfter      int // -1 runs to completion
	ignoreInterrupt bool
	missing         bool
	paused          chan struct{}
	proc            *stepProcess
}

func (d *stepDecoder) VerifyInstalled(ctx context.Context) error {
	if d.missing {
		return fmt.Errorf("%w: ffmpeg is not bundled and not on PATH", extraction.ErrToolNotFound)
	}
	return nil
}

func (d *stepDecoder) Start(ctx context.Context, req *extraction.Request, workspace string) (extraction.Process, error) {
	pr, pw := io.Pipe()
	p := &stepProcess{
		pr:              pr,
		pw:              pw,
		ignoreInterrupt: d.ignoreInterrupt,
		stop:            make(chan struct{}),
		done:            make(chan struct{}),
	}
	d.proc = p
	go d.run(p, req, workspace)
	return p, nil
}

func (d *stepDecoder) run(p *stepProcess, req *extraction.Request, workspace string) {
	defer close(p.done)
	defer p.pw.Close()

	pause := func() {
		close(d.paused)
		<-p.stop
	}
	if d.pauseAfter == 0 {
		pause()
		return
	}

	written := 0
	for n := 0; n < d.sourceFrames; n++ {
		if n%req.SamplingInterval != 0 {
			continue
		}
		written++
		if err := os.WriteFile(fmt.Sprintf(req.FramePattern(workspace), written), []byte{byte(n)}, 0644); err != nil {
			return
		}
		fmt.Fprintf(p.pw, "frame=%5d fps=0.0 q=2.0 size=N/A speed=1x\r", written)
		if written == d.pauseAfter {
			pause()
			return
		}
	}
}

// extractContext holds test state for extraction scenarios
type extractContext struct {
	outputDir    string
	inputPath    string
	decoder      *stepDecoder
	orchestrator *appextract.Orchestrator
	events       []extraction.ProgressEvent
	mu           sync.Mutex
	outcome      extraction.Outcome
	err          error
}

var SharedExtractContext *extractContext

func getExtractContext() *extractContext {
	return SharedExtractContext
}

func InitializeExtractScenario(ctx *godog.ScenarioContext) {
	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		dir, err := os.MkdirTemp("", "extract-test-*")
		if err != nil {
			return c, err
		}
		SharedExtractContext = &extractContext{
			outputDir: dir,
			decoder:   &stepDecoder{pauseAfter: -1, paused: make(chan struct{})},
		}
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if e := getExtractContext(); e != nil {
			if e.orchestrator != nil {
				e.orchestrator.Cancel()
				e.orchestrator.Wait()
			}
			os.RemoveAll(e.outputDir)
		}
		return c, nil
	})

	ctx.Step(`^a video "([^"]*)" with (\d+) frames$`, func(name string, frames int) error {
		return getExtractContext().aVideoWithFrames(name, frames)
	})
	ctx.Step(`^a stale workspace containing "([^"]*)"$`, func(name string) error {
		return getExtractContext().aStaleWorkspaceContaining(name)
	})
	ctx.Step(`^ffmpeg is not installed$`, func() error {
		getExtractContext().decoder.missing = true
		return nil
	})
	ctx.Step(`^the decoder pauses after (\d+) frames$`, func(n int) error {
		getExtractContext().decoder.pauseAfter = n
		return nil
	})
	ctx.Step(`^the decoder ignores interrupts$`, func() error {
		getExtractContext().decoder.ignoreInterrupt = true
		return nil
	})
	ctx.Step(`^I extract frames with every (\d+) and format "([^"]*)"$`, func(every int, format string) error {
		return getExtractContext().iExtractFrames(every, format)
	})
	ctx.Step(`^I start the extraction$`, func() error {
		return getExtractContext().iStartTheExtraction()
	})
	ctx.Step(`^I cancel once (\d+) frames are written$`, func(n int) error {
		return getExtractContext().iCancelOnceFramesAreWritten(n)
	})
	ctx.Step(`^I cancel again$`, func() error {
		e := getExtractContext()
		e.orchestrator.Cancel()
		e.outcome = e.orchestrator.Wait()
		return nil
	})
	ctx.Step(`^the extraction should succeed$`, func() error {
		return getExtractContext().theOutcomeShouldBe(extraction.OutcomeSuccess)
	})
	ctx.Step(`^the outcome should be cancelled$`, func() error {
		return getExtractContext().theOutcomeShouldBe(extraction.OutcomeCancelledPartial)
	})
	ctx.Step(`^the extraction should fail with "([^"]*)"$`, func(msg string) error {
		return getExtractContext().theExtractionShouldFailWith(msg)
	})
	ctx.Step(`^the archive "([^"]*)" should contain (\d+) entries$`, func(name string, n int) error {
		return getExtractContext().theArchiveShouldContainEntries(name, n)
	})
	ctx.Step(`^the first archive entry should be "([^"]*)"$`, func(name string) error {
		return getExtractContext().theFirstArchiveEntryShouldBe(name)
	})
	ctx.Step(`^no workspace should remain$`, func() error {
		return getExtractContext().noWorkspaceShouldRemain()
	})
	ctx.Step(`^progress should never decrease$`, func() error {
		return getExtractContext().progressShouldNeverDecrease()
	})
	ctx.Step(`^no progress should be reported$`, func() error {
		if events := getExtractContext().progress(); len(events) != 0 {
			return fmt.Errorf("expected no progress events, got %d", len(events))
		}
		return nil
	})
	ctx.Step(`^the last progress message should be "([^"]*)"$`, func(msg string) error {
		return getExtractContext().theLastProgressMessageShouldBe(msg)
	})
	ctx.Step(`^the decoder should have been killed$`, func() error {
		if p := getExtractContext().decoder.proc; p == nil || !p.wasKilled() {
			return fmt.Errorf("expected the decoder to be killed after the grace period")
		}
		return nil
	})
}

func (e *extractContext) aVideoWithFrames(name string, frames int) error {
	e.inputPath = filepath.Join(e.outputDir, name)
	e.decoder.sourceFrames = frames
	return os.WriteFile(e.inputPath, []byte("not really a video"), 0644)
}

func (e *extractContext) aStaleWorkspaceContaining(name string) error {
	ws := filepath.Join(e.outputDir, extraction.WorkspaceDirName)
	if err := os.MkdirAll(ws, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(ws, name), []byte("stale"), 0644)
}

func (e *extractContext) newOrchestrator() *appextract.Orchestrator {
	return appextract.NewOrchestrator(
		e.decoder,
		archive.NewZipArchiver(),
		filesystem.NewWorkspace(),
		filesystem.NewChecker(),
		appextract.WithGracePeriod(50*time.Millisecond),
		appextract.WithProgress(func(ev extraction.ProgressEvent) {
			e.mu.Lock()
			e.events = append(e.events, ev)
			e.mu.Unlock()
		}),
	)
}

func (e *extractContext) start(every int, format string) error {
	f, err := extraction.ParseImageFormat(format)
	if err != nil {
		return err
	}
	req, err := extraction.NewRequest(e.inputPath, e.outputDir, f, every, e.decoder.sourceFrames)
	if err != nil {
		return err
	}
	e.orchestrator = e.newOrchestrator()
	return e.orchestrator.Start(context.Background(), req)
}

func (e *extractContext) iExtractFrames(every int, format string) error {
	if err := e.start(every, format); err != nil {
		e.err = err
		return nil
	}
	e.outcome = e.orchestrator.Wait()
	if e.outcome.Kind == extraction.OutcomeFailure {
		e.err = e.outcome.Reason
	}
	return nil
}

func (e *extractContext) iStartTheExtraction() error {
	return e.start(1, "png")
}

func (e *extractContext) iCancelOnceFramesAreWritten(n int) error {
	select {
	case <-e.decoder.paused:
	case <-time.After(5 * time.Second):
		return fmt.Errorf("decoder did not reach %d frames", n)
	}
	e.orchestrator.Cancel()

	select {
	case <-e.orchestrator.Done():
	case <-time.After(5 * time.Second):
		return fmt.Errorf("extraction did not stop after cancel")
	}
	e.outcome = e.orchestrator.Outcome()
	return nil
}

func (e *extractContext) theOutcomeShouldBe(kind extraction.OutcomeKind) error {
	if e.err != nil && kind != extraction.OutcomeFailure {
		return fmt.Errorf("expected %s, got error: %v", kind, e.err)
	}
	if e.outcome.Kind != kind {
		return fmt.Errorf("expected outcome %s, got %s (%s)", kind, e.outcome.Kind, e.outcome.Message())
	}
	return nil
}

func (e *extractContext) theExtractionShouldFailWith(msg string) error {
	if e.err == nil {
		return fmt.Errorf("expected extraction to fail, got %s", e.outcome.Message())
	}
	if !strings.Contains(e.err.Error(), msg) {
		return fmt.Errorf("expected error containing %q, got %q", msg, e.err.Error())
	}
	return nil
}

func (e *extractContext) theArchiveShouldContainEntries(name string, n int) error {
	r, err := zip.OpenReader(filepath.Join(e.outputDir, name))
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer r.Close()
	if len(r.File) != n {
		return fmt.Errorf("expected %d entries, got %d", n, len(r.File))
	}
	if e.outcome.FrameCount != n {
		return fmt.Errorf("expected outcome frame count %d, got %d", n, e.outcome.FrameCount)
	}
	return nil
}

func (e *extractContext) theFirstArchiveEntryShouldBe(name string) error {
	r, err := zip.OpenReader(e.outcome.ArchivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer r.Close()
	if len(r.File) == 0 || r.File[0].Name != name {
		return fmt.Errorf("expected first entry %q", name)
	}
	return nil
}

func (e *extractContext) noWorkspaceShouldRemain() error {
	_, err := os.Stat(filepath.Join(e.outputDir, extraction.WorkspaceDirName))
	if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("expected workspace to be removed, stat error: %v", err)
	}
	return nil
}

func (e *extractContext) progress() []extraction.ProgressEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]extraction.ProgressEvent(nil), e.events...)
}

func (e *extractContext) progressShouldNeverDecrease() error {
	last := 0
	for i, ev := range e.progress() {
		if ev.Percent < 0 || ev.Percent > 100 {
			return fmt.Errorf("event %d: percent %d out of range", i, ev.Percent)
		}
		if ev.Percent < last {
			return fmt.Errorf("event %d: percent dropped from %d to %d", i, last, ev.Percent)
		}
		last = ev.Percent
	}
	return nil
}

func (e *extractContext) theLastProgressMessageShouldBe(msg string) error {
	events := e.progress()
	if len(events) == 0 {
		return fmt.Errorf("no progress events")
	}
	if got := events[len(events)-1].Message; got != msg {
		return fmt.Errorf("expected last message %q, got %q", msg, got)
	}
	return nil
}
