package ffmpeg

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"

	"frame-archiver/domain/extraction"
)

// CommandRunner defines the interface for running external commands
// This allows mocking exec.Command in tests
type CommandRunner interface {
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
	Start(name string, args ...string) (extraction.Process, error)
}

// ExecCommandRunner is the production implementation using os/exec
type ExecCommandRunner struct{}

// Output executes a command and returns its standard output
func (r *ExecCommandRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	hideWindow(cmd)
	return cmd.Output()
}

// Start launches a command without waiting for it. Standard output is discarded and
// standard error is exposed through Process.Status.
func (r *ExecCommandRunner) Start(name string, args ...string) (extraction.Process, error) {
	pr, pw := io.Pipe()

	cmd := exec.Command(name, args...)
	cmd.Stdout = nil
	cmd.Stderr = pw
	hideWindow(cmd)

	interrupt, err := interruptFor(cmd)
	if err != nil {
		pw.Close()
		pr.Close()
		return nil, err
	}

	if err := cmd.Start(); err != nil {
		pw.Close()
		pr.Close()
		return nil, err
	}

	p := &execProcess{
		cmd:       cmd,
		status:    pr,
		interrupt: interrupt,
		done:      make(chan struct{}),
	}
	go func() {
		p.err = cmd.Wait()
		// Wait returns only after stderr has been fully copied, so closing here
		// delivers EOF to the reader after the last status line.
		pw.Close()
		close(p.done)
	}()

	return p, nil
}

// execProcess implements extraction.Process for an exec.Cmd
type execProcess struct {
	cmd       *exec.Cmd
	status    *io.PipeReader
	interrupt func(*os.Process) error
	done      chan struct{}
	err       error
}

func (p *execProcess) Status() io.Reader {
	return p.status
}

// Terminate asks ffmpeg to finish the current frame and exit. If the request cannot be
// delivered the process is killed.
func (p *execProcess) Terminate() error {
	select {
	case <-p.done:
		return nil
	default:
	}
	err := p.interrupt(p.cmd.Process)
	if err == nil || errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return p.Kill()
}

func (p *execProcess) Kill() error {
	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}

func (p *execProcess) Wait() error {
	<-p.done
	return p.err
}

// interruptSignal stops ffmpeg the way Ctrl+C in its terminal would
func interruptSignal(proc *os.Process) error {
	return proc.Signal(os.Interrupt)
}

// quitKey stops ffmpeg the way pressing q in its console would. It is used where
// interrupt signals cannot be delivered to a child process.
func quitKey(stdin io.WriteCloser) func(*os.Process) error {
	return func(*os.Process) error {
		_, err := io.WriteString(stdin, "q")
		if cerr := stdin.Close(); err == nil {
			err = cerr
		}
		return err
	}
}

// Ensure ExecCommandRunner implements CommandRunner
var _ CommandRunner = (*ExecCommandRunner)(nil)
