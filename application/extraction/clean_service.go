package extraction

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"frame-archiver/domain/extraction"

	"go.uber.org/zap"
)

// RemovedItem is a leftover file or directory deleted by CleanService
type RemovedItem struct {
	Path string
	Size int64
}

// CleanResult lists what a clean removed
type CleanResult struct {
	Removed    []RemovedItem
	FreedBytes int64
}

// CleanService removes what an interrupted run leaves in an output directory: the frame
// workspace and partially written archives. Finished archives are never touched.
type CleanService struct {
	workspace extraction.Workspace
	logger    *zap.Logger
}

// NewCleanService creates a new CleanService
func NewCleanService(workspace extraction.Workspace, logger *zap.Logger) *CleanService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CleanService{workspace: workspace, logger: logger}
}

// Clean removes leftovers from outputDir
func (s *CleanService) Clean(outputDir string) (*CleanResult, error) {
	info, err := os.Stat(outputDir)
	if err != nil {
		return nil, fmt.Errorf("%w: output directory: %v", extraction.ErrInvalidRequest, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: not a directory: %s", extraction.ErrInvalidRequest, outputDir)
	}

	result := &CleanResult{}

	workspace := filepath.Join(outputDir, extraction.WorkspaceDirName)
	if _, err := os.Lstat(workspace); err == nil {
		size := treeSize(workspace)
		if err := s.workspace.Remove(workspace); err != nil {
			return result, err
		}
		s.record(result, workspace, size)
	}

	entries, err := os.ReadDir(outputDir)
	if err != nil {
		return result, fmt.Errorf("failed to list output directory: %w", err)
	}
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !extraction.IsPartialArchive(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		p := filepath.Join(outputDir, entry.Name())
		if err := os.Remove(p); err != nil {
			return result, fmt.Errorf("%w: remove %s: %v", extraction.ErrWorkspace, p, err)
		}
		s.record(result, p, info.Size())
	}

	return result, nil
}

func (s *CleanService) record(result *CleanResult, path string, size int64) {
	s.logger.Info("removed leftover", zap.String("path", path), zap.Int64("bytes", size))
	result.Removed = append(result.Removed, RemovedItem{Path: path, Size: size})
	result.FreedBytes += size
}

// treeSize sums regular file sizes below root, ignoring unreadable entries
func treeSize(root string) int64 {
	var total int64
	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.Type().IsRegular() {
			if info, err := d.Info(); err == nil {
				total += info.Size()
			}
		}
		return nil
	})
	return total
}
