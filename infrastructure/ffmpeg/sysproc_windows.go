//go:build windows

package ffmpeg

import (
	"os"
	"os/exec"
	"syscall"
)

// hideWindow keeps ffmpeg from opening a console window
func hideWindow(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{HideWindow: true}
}

// interruptFor wires stdin so the process can be asked to quit. Windows cannot send
// os.Interrupt to a child process.
func interruptFor(cmd *exec.Cmd) (func(*os.Process) error, error) {
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	return quitKey(stdin), nil
}
