package distribution

import (
	"context"
	"fmt"

	"frame-archiver/domain/distribution"
)

// CleanupService frees Drive space by deleting old archives
type CleanupService struct {
	driveClient distribution.DriveClient
	folderID    string
}

// NewCleanupService creates a CleanupService for the archives folder
func NewCleanupService(client distribution.DriveClient, folderID string) *CleanupService {
	return &CleanupService{
		driveClient: client,
		folderID:    folderID,
	}
}

// EnsureSpaceAvailable deletes the oldest archives in the folder until neededBytes fit.
// keep names an archive that must never be deleted, typically the one about to be replaced.
// Nothing is deleted when the space cannot be freed.
func (s *CleanupService) EnsureSpaceAvailable(ctx context.Context, neededBytes int64, keep string) (*distribution.CleanupResult, error) {
	result := &distribution.CleanupResult{}

	storage, err := s.driveClient.GetStorageQuota(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to check storage: %w", err)
	}
	if storage.HasSpaceFor(neededBytes) {
		return result, nil
	}

	archives, err := s.driveClient.ListArchives(ctx, s.folderID)
	if err != nil {
		return result, fmt.Errorf("failed to list archives: %w", err)
	}

	plan, err := distribution.PlanCleanup(archives, *storage, neededBytes, keep)
	if err != nil {
		return result, err
	}

	for _, f := range plan {
		if err := s.driveClient.DeletePermanently(ctx, f.ID); err != nil {
			return result, fmt.Errorf("failed to delete %s: %w", f.Name, err)
		}
		result.Record(f)
	}
	return result, nil
}

// ListArchives lists archives in the folder, oldest first
func (s *CleanupService) ListArchives(ctx context.Context) ([]distribution.FileInfo, error) {
	return s.driveClient.ListArchives(ctx, s.folderID)
}
