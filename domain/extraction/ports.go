package extraction

import (
	"context"
	"io"
)

// Process is a running decoding process
type Process interface {
	// Status returns the process's diagnostic stream. It reaches EOF once the process has exited.
	Status() io.Reader

	// Terminate asks the process to stop gracefully so it can flush the frame being written
	Terminate() error

	// Kill stops the process immediately
	Kill() error

	// Wait blocks until the process has exited and returns its exit error, if any
	Wait() error
}

// Decoder starts the external process that turns a video into frame images.
// This is a port that can be implemented by different infrastructure adapters.
type Decoder interface {
	// VerifyInstalled returns an error wrapping ErrToolNotFound if the decoding tool is unavailable
	VerifyInstalled(ctx context.Context) error

	// Start launches the decoder writing frames for req into workspace. It does not wait for the process.
	Start(ctx context.Context, req *Request, workspace string) (Process, error)
}

// ArchiveResult describes a written archive
type ArchiveResult struct {
	Path    string
	Entries []string
	Bytes   int64
}

// Archiver packages a workspace into a single archive and removes the workspace on success
type Archiver interface {
	Archive(sourceDir, archivePath string) (*ArchiveResult, error)
}

// Workspace manages the temporary frame directory
type Workspace interface {
	// Prepare removes anything at path and creates a fresh empty directory
	Prepare(path string) error

	// Remove deletes path and everything below it
	Remove(path string) error
}

// FileChecker checks for the existence of files and directories
type FileChecker interface {
	Exists(path string) bool
	IsDir(path string) bool
}
