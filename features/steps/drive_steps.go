//go:build integration

package steps

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	googledrive "google.golang.org/api/drive/v3"
)

// mockDriveService simulates a Drive folder with a storage quota. Archives added with
// addArchive are assumed to be already counted in storageUsage.
// It implements drive.DriveService.
type mockDriveService struct {
	files          []*googledrive.File
	storageLimit   int64
	storageUsage   int64
	deletedFileIDs []string
	permissions    map[string]*googledrive.Permission
	nextFileID     int
}

func newMockDriveService() *mockDriveService {
	return &mockDriveService{
		permissions: make(map[string]*googledrive.Permission),
		nextFileID:  1,
	}
}

var nameQuery = regexp.MustCompile(`name = '((?:[^'\\]|\\.)*)'`)

func (m *mockDriveService) ListFiles(ctx context.Context, query string, fields string, orderBy string) ([]*googledrive.File, error) {
	var result []*googledrive.File
	for _, f := range m.files {
		if m.isDeleted(f.Id) {
			continue
		}
		if match := nameQuery.FindStringSubmatch(query); match != nil && f.Name != strings.ReplaceAll(match[1], `\'`, `'`) {
			continue
		}
		result = append(result, f)
	}

	if orderBy == "createdTime" {
		sort.Slice(result, func(i, j int) bool { return result[i].CreatedTime < result[j].CreatedTime })
	}
	return result, nil
}

func (m *mockDriveService) GetAbout(ctx context.Context, fields string) (*googledrive.About, error) {
	return &googledrive.About{
		StorageQuota: &googledrive.AboutStorageQuota{
			Limit: m.storageLimit,
			Usage: m.storageUsage,
		},
	}, nil
}

func (m *mockDriveService) DeleteFile(ctx context.Context, fileID string) error {
	for _, f := range m.files {
		if f.Id == fileID && !m.isDeleted(fileID) {
			m.deletedFileIDs = append(m.deletedFileIDs, fileID)
			m.storageUsage -= f.Size
			return nil
		}
	}
	return fmt.Errorf("googleapi: Error 404: File not found: %s", fileID)
}

func (m *mockDriveService) UploadFile(ctx context.Context, fileName, mimeType, folderID, localPath string) (*googledrive.File, error) {
	info, err := os.Stat(localPath)
	if err != nil {
		return nil, fmt.Errorf("unable to open file: %w", err)
	}

	fileID := fmt.Sprintf("uploaded-file-%d", m.nextFileID)
	m.nextFileID++

	file := &googledrive.File{
		Id:          fileID,
		Name:        fileName,
		MimeType:    mimeType,
		Size:        info.Size(),
		Parents:     []string{folderID},
		WebViewLink: fmt.Sprintf("https://drive.google.com/file/d/%s/view", fileID),
	}
	m.files = append(m.files, file)
	m.storageUsage += info.Size()
	return file, nil
}

func (m *mockDriveService) CreatePermission(ctx context.Context, fileID string, permission *googledrive.Permission) error {
	m.permissions[fileID] = permission
	return nil
}

func (m *mockDriveService) addArchive(name, created string, size int64) {
	m.files = append(m.files, &googledrive.File{
		Id:          fmt.Sprintf("existing-%d", len(m.files)+1),
		Name:        name,
		MimeType:    "application/zip",
		Size:        size,
		CreatedTime: created,
	})
}

func (m *mockDriveService) find(name, created string) *googledrive.File {
	for _, f := range m.files {
		if f.Name == name && f.CreatedTime == created {
			return f
		}
	}
	return nil
}

func (m *mockDriveService) isDeleted(fileID string) bool {
	for _, id := range m.deletedFileIDs {
		if id == fileID {
			return true
		}
	}
	return false
}
