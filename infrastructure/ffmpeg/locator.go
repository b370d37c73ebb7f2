package ffmpeg

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"frame-archiver/domain/extraction"
)

// BundledDirName is the folder next to the executable that may ship ffmpeg binaries
const BundledDirName = "ffmpeg"

// Locator resolves tool binaries, preferring a bundled copy over the system PATH
type Locator struct {
	bundledDir string
	lookPath   func(file string) (string, error)
}

// NewLocator creates a Locator. An empty bundledDir disables the bundled lookup.
func NewLocator(bundledDir string) *Locator {
	return &Locator{
		bundledDir: bundledDir,
		lookPath:   exec.LookPath,
	}
}

// DefaultBundledDir returns the bundled tool folder next to the running executable
func DefaultBundledDir() string {
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	return filepath.Join(filepath.Dir(exe), BundledDirName)
}

// Locate returns the path of tool ("ffmpeg" or "ffprobe")
func (l *Locator) Locate(tool string) (string, error) {
	if l.bundledDir != "" {
		bundled := filepath.Join(l.bundledDir, executableName(tool))
		if info, err := os.Stat(bundled); err == nil && !info.IsDir() {
			return bundled, nil
		}
	}

	path, err := l.lookPath(tool)
	if err != nil {
		return "", fmt.Errorf("%w: %s is not bundled and not on PATH: %v", extraction.ErrToolNotFound, tool, err)
	}
	return path, nil
}

func executableName(tool string) string {
	if runtime.GOOS == "windows" {
		return tool + ".exe"
	}
	return tool
}
