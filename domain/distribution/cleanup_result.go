package distribution

import (
	"fmt"
	"sort"
)

// CleanupResult lists the archives removed from Drive to make room for an upload
type CleanupResult struct {
	DeletedFiles []DeletedFile
	FreedBytes   int64
}

// DeletedFile is an archive removed during cleanup
type DeletedFile struct {
	ID   string
	Name string
	Size int64
}

// Record adds a deleted archive to the result
func (r *CleanupResult) Record(f FileInfo) {
	r.DeletedFiles = append(r.DeletedFiles, DeletedFile{ID: f.ID, Name: f.Name, Size: f.Size})
	r.FreedBytes += f.Size
}

// PlanCleanup chooses the oldest archives whose deletion frees enough space for needed bytes.
// The archive named keep is never chosen. If deleting every candidate would still not be
// enough, nothing is chosen and ErrInsufficientStorage is returned.
func PlanCleanup(archives []FileInfo, storage StorageInfo, needed int64, keep string) ([]FileInfo, error) {
	shortfall := storage.Shortfall(needed)
	if shortfall == 0 {
		return nil, nil
	}

	candidates := make([]FileInfo, 0, len(archives))
	for _, f := range archives {
		if f.Name != keep {
			candidates = append(candidates, f)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].CreatedTime.Before(candidates[j].CreatedTime)
	})

	var plan []FileInfo
	remaining := shortfall
	for _, f := range candidates {
		if remaining <= 0 {
			break
		}
		plan = append(plan, f)
		remaining -= f.Size
	}

	if remaining > 0 {
		return nil, fmt.Errorf("%w: need %d bytes, %d available and only %d can be freed",
			ErrInsufficientStorage, needed, storage.AvailableBytes, shortfall-remaining)
	}
	return plan, nil
}
