package distribution

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"frame-archiver/domain/distribution"
)

// UploadService publishes frame archives to a Drive folder with link sharing
type UploadService struct {
	driveClient distribution.DriveClient
	folderID    string
	output      io.Writer
}

// NewUploadService creates an UploadService. output receives progress notes and may be nil.
func NewUploadService(client distribution.DriveClient, folderID string, output io.Writer) *UploadService {
	if output == nil {
		output = io.Discard
	}
	return &UploadService{
		driveClient: client,
		folderID:    folderID,
		output:      output,
	}
}

// UploadArchive uploads a frame archive and shares it with anyone who has the link.
// An archive with the same name in the folder is replaced.
func (s *UploadService) UploadArchive(ctx context.Context, archivePath string) (*distribution.UploadResult, error) {
	size, err := archiveSize(archivePath)
	if err != nil {
		return nil, err
	}
	fileName := filepath.Base(archivePath)

	if err := s.removeExisting(ctx, fileName); err != nil {
		return nil, err
	}
	if err := s.checkQuota(ctx, size); err != nil {
		return nil, err
	}

	result, err := s.driveClient.UploadAndShare(ctx, distribution.UploadRequest{
		LocalPath: archivePath,
		FileName:  fileName,
		FolderID:  s.folderID,
		MimeType:  distribution.MimeTypeZip,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload and share %s: %w", fileName, err)
	}
	return result, nil
}

// archiveSize validates a local archive path and returns its size
func archiveSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, fmt.Errorf("file does not exist: %s", path)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() || !strings.EqualFold(filepath.Ext(path), ".zip") {
		return 0, fmt.Errorf("%w: %s", distribution.ErrNotArchive, path)
	}
	return info.Size(), nil
}

// removeExisting deletes a previous upload with the same name
func (s *UploadService) removeExisting(ctx context.Context, fileName string) error {
	existing, err := s.driveClient.FindFileByName(ctx, s.folderID, fileName)
	if err != nil {
		return fmt.Errorf("failed to check for existing file: %w", err)
	}
	if existing == nil {
		return nil
	}

	fmt.Fprintf(s.output, "      Replacing existing %s (%.1f MB)\n", existing.Name, float64(existing.Size)/1024/1024)
	if err := s.driveClient.DeletePermanently(ctx, existing.ID); err != nil {
		return fmt.Errorf("failed to delete existing file %s: %w", existing.Name, err)
	}
	return nil
}

func (s *UploadService) checkQuota(ctx context.Context, size int64) error {
	storage, err := s.driveClient.GetStorageQuota(ctx)
	if err != nil {
		return fmt.Errorf("failed to check storage: %w", err)
	}
	if missing := storage.Shortfall(size); missing > 0 {
		return fmt.Errorf("%w: need %d bytes, %d short (try --free-space)",
			distribution.ErrInsufficientStorage, size, missing)
	}
	return nil
}
