//go:build !windows

package ffmpeg

import (
	"os"
	"os/exec"
)

func hideWindow(cmd *exec.Cmd) {}

func interruptFor(cmd *exec.Cmd) (func(*os.Process) error, error) {
	return interruptSignal, nil
}
