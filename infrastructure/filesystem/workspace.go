package filesystem

import (
	"fmt"
	"os"

	"frame-archiver/domain/extraction"
)

// Workspace implements extraction.Workspace on the local filesystem
type Workspace struct{}

// NewWorkspace creates a new Workspace
func NewWorkspace() *Workspace {
	return &Workspace{}
}

// Prepare deletes anything left at path by an earlier run and creates an empty directory
func (w *Workspace) Prepare(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("%w: remove stale workspace %s: %v", extraction.ErrWorkspace, path, err)
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("%w: create workspace %s: %v", extraction.ErrWorkspace, path, err)
	}
	return nil
}

// Remove deletes path and its contents. A missing path is not an error.
func (w *Workspace) Remove(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("%w: remove workspace %s: %v", extraction.ErrWorkspace, path, err)
	}
	return nil
}

// Ensure Workspace implements extraction.Workspace
var _ extraction.Workspace = (*Workspace)(nil)
