package drive

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"frame-archiver/domain/distribution"

	"google.golang.org/api/drive/v3"
)

// mockDriveService is a mock implementation for testing
type mockDriveService struct {
	files          []*drive.File
	shouldFail     bool
	failError      error
	storageLimit   int64
	storageUsage   int64
	deletedFileIDs []string
	permissions    map[string]*drive.Permission
	permissionErr  error
	lastQuery      string
	lastOrderBy    string
	uploadLink     string
}

func (m *mockDriveService) ListFiles(ctx context.Context, query string, fields string, orderBy string) ([]*drive.File, error) {
	m.lastQuery = query
	m.lastOrderBy = orderBy
	if m.shouldFail {
		return nil, m.failError
	}
	return m.files, nil
}

func (m *mockDriveService) GetAbout(ctx context.Context, fields string) (*drive.About, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	return &drive.About{
		StorageQuota: &drive.AboutStorageQuota{
			Limit: m.storageLimit,
			Usage: m.storageUsage,
		},
	}, nil
}

func (m *mockDriveService) DeleteFile(ctx context.Context, fileID string) error {
	if m.shouldFail {
		return m.failError
	}
	m.deletedFileIDs = append(m.deletedFileIDs, fileID)
	return nil
}

func (m *mockDriveService) UploadFile(ctx context.Context, fileName, mimeType, folderID, localPath string) (*drive.File, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	return &drive.File{
		Id:          "uploaded-file-id",
		Name:        fileName,
		MimeType:    mimeType,
		Size:        1024,
		WebViewLink: m.uploadLink,
	}, nil
}

func (m *mockDriveService) CreatePermission(ctx context.Context, fileID string, permission *drive.Permission) error {
	if m.permissionErr != nil {
		return m.permissionErr
	}
	if m.permissions == nil {
		m.permissions = make(map[string]*drive.Permission)
	}
	m.permissions[fileID] = permission
	return nil
}

func newTestClient(t *testing.T, mock *mockDriveService) *Client {
	t.Helper()
	client, err := NewClient(context.Background(), "", WithDriveService(mock))
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return client
}

func TestClient_ListFiles(t *testing.T) {
	testTime := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		mock      *mockDriveService
		folderID  string
		wantCount int
		wantErr   bool
		errMsg    string
	}{
		{
			name: "lists files successfully",
			mock: &mockDriveService{
				files: []*drive.File{
					{Id: "file-1", Name: "frames_a.mp4.zip", MimeType: distribution.MimeTypeZip, Size: 1000000, CreatedTime: testTime.Format(time.RFC3339)},
					{Id: "file-2", Name: "frames_b.mp4.zip", MimeType: distribution.MimeTypeZip, Size: 900000, CreatedTime: testTime.Add(-time.Hour).Format(time.RFC3339)},
				},
			},
			folderID:  "test-folder-id",
			wantCount: 2,
		},
		{
			name:      "returns empty list for empty folder",
			mock:      &mockDriveService{files: []*drive.File{}},
			folderID:  "empty-folder-id",
			wantCount: 0,
		},
		{
			name: "handles API error",
			mock: &mockDriveService{
				shouldFail: true,
				failError:  fmt.Errorf("googleapi: Error 403: permission denied"),
			},
			folderID: "test-folder-id",
			wantErr:  true,
			errMsg:   "failed to list files",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, tt.mock)

			files, err := client.ListFiles(context.Background(), tt.folderID)

			if tt.wantErr {
				if err == nil {
					t.Error("expected error but got none")
				} else if tt.errMsg != "" && !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("expected error containing %q, got %q", tt.errMsg, err.Error())
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(files) != tt.wantCount {
				t.Errorf("expected %d files, got %d", tt.wantCount, len(files))
			}
			if !strings.Contains(tt.mock.lastQuery, "'"+tt.folderID+"' in parents") {
				t.Errorf("query %q does not restrict to folder", tt.mock.lastQuery)
			}
		})
	}
}

func TestClient_ListFiles_FileInfo(t *testing.T) {
	testTime := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	mock := &mockDriveService{
		files: []*drive.File{
			{
				Id:          "file-123",
				Name:        "frames_clip.mp4.zip",
				MimeType:    distribution.MimeTypeZip,
				Size:        1234567,
				CreatedTime: testTime.Format(time.RFC3339),
			},
		},
	}

	files, err := newTestClient(t, mock).ListFiles(context.Background(), "test-folder")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(files))
	}

	file := files[0]
	if file.ID != "file-123" {
		t.Errorf("expected ID 'file-123', got %q", file.ID)
	}
	if file.Name != "frames_clip.mp4.zip" {
		t.Errorf("expected Name 'frames_clip.mp4.zip', got %q", file.Name)
	}
	if file.Size != 1234567 {
		t.Errorf("expected Size 1234567, got %d", file.Size)
	}
	if !file.CreatedTime.Equal(testTime) {
		t.Errorf("expected CreatedTime %v, got %v", testTime, file.CreatedTime)
	}
}

func TestClient_ListArchives(t *testing.T) {
	mock := &mockDriveService{files: []*drive.File{{Id: "a", Name: "frames_a.zip"}}}

	files, err := newTestClient(t, mock).ListArchives(context.Background(), "folder")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 1 {
		t.Errorf("expected 1 file, got %d", len(files))
	}
	if !strings.Contains(mock.lastQuery, "mimeType = 'application/zip'") {
		t.Errorf("query %q does not filter archives", mock.lastQuery)
	}
	if mock.lastOrderBy != "createdTime" {
		t.Errorf("orderBy = %q, want createdTime", mock.lastOrderBy)
	}
}

func TestClient_FindFileByName(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		mock := &mockDriveService{files: []*drive.File{{Id: "x", Name: "frames_it's.zip"}}}
		file, err := newTestClient(t, mock).FindFileByName(context.Background(), "folder", "frames_it's.zip")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if file == nil || file.ID != "x" {
			t.Errorf("file = %+v, want id x", file)
		}
		if !strings.Contains(mock.lastQuery, `name = 'frames_it\'s.zip'`) {
			t.Errorf("query %q does not escape the name", mock.lastQuery)
		}
	})

	t.Run("not found", func(t *testing.T) {
		file, err := newTestClient(t, &mockDriveService{}).FindFileByName(context.Background(), "folder", "missing.zip")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if file != nil {
			t.Errorf("file = %+v, want nil", file)
		}
	})
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantZero bool
	}{
		{name: "valid RFC3339 time", input: "2026-03-14T10:00:00Z", wantZero: false},
		{name: "invalid time format", input: "invalid", wantZero: true},
		{name: "empty string", input: "", wantZero: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseTime(tt.input)
			if tt.wantZero && !result.IsZero() {
				t.Error("expected zero time, got non-zero")
			}
			if !tt.wantZero && result.IsZero() {
				t.Error("expected non-zero time, got zero")
			}
		})
	}
}

func TestClient_GetStorageQuota(t *testing.T) {
	tests := []struct {
		name          string
		mock          *mockDriveService
		wantTotal     int64
		wantUsed      int64
		wantAvailable int64
		wantErr       bool
	}{
		{
			name: "returns storage quota successfully",
			mock: &mockDriveService{
				storageLimit: 15000000000, // 15 GB
				storageUsage: 5000000000,  // 5 GB
			},
			wantTotal:     15000000000,
			wantUsed:      5000000000,
			wantAvailable: 10000000000,
		},
		{
			name:          "unlimited storage",
			mock:          &mockDriveService{storageUsage: 42},
			wantUsed:      42,
			wantAvailable: 1<<63 - 1,
		},
		{
			name: "handles API error",
			mock: &mockDriveService{
				shouldFail: true,
				failError:  fmt.Errorf("API error"),
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage, err := newTestClient(t, tt.mock).GetStorageQuota(context.Background())

			if tt.wantErr {
				if err == nil {
					t.Error("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if storage.TotalBytes != tt.wantTotal {
				t.Errorf("expected TotalBytes %d, got %d", tt.wantTotal, storage.TotalBytes)
			}
			if storage.UsedBytes != tt.wantUsed {
				t.Errorf("expected UsedBytes %d, got %d", tt.wantUsed, storage.UsedBytes)
			}
			if storage.AvailableBytes != tt.wantAvailable {
				t.Errorf("expected AvailableBytes %d, got %d", tt.wantAvailable, storage.AvailableBytes)
			}
		})
	}
}

func TestClient_DeletePermanently(t *testing.T) {
	mock := &mockDriveService{}
	if err := newTestClient(t, mock).DeletePermanently(context.Background(), "file-9"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mock.deletedFileIDs) != 1 || mock.deletedFileIDs[0] != "file-9" {
		t.Errorf("deleted = %v, want [file-9]", mock.deletedFileIDs)
	}

	failing := &mockDriveService{shouldFail: true, failError: fmt.Errorf("not found")}
	err := newTestClient(t, failing).DeletePermanently(context.Background(), "file-9")
	if err == nil || !strings.Contains(err.Error(), "failed to delete file file-9") {
		t.Errorf("err = %v", err)
	}
}

func TestClient_UploadAndShare(t *testing.T) {
	req := distribution.UploadRequest{
		LocalPath: "/tmp/frames_clip.mp4.zip",
		FileName:  "frames_clip.mp4.zip",
		FolderID:  "folder",
		MimeType:  distribution.MimeTypeZip,
	}

	t.Run("uploads and shares", func(t *testing.T) {
		mock := &mockDriveService{uploadLink: "https://drive.google.com/file/d/uploaded-file-id/view?usp=drivesdk"}
		result, err := newTestClient(t, mock).UploadAndShare(context.Background(), req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.FileID != "uploaded-file-id" || result.ShareableURL != mock.uploadLink {
			t.Errorf("result = %+v", result)
		}
		perm := mock.permissions["uploaded-file-id"]
		if perm == nil || perm.Type != "anyone" || perm.Role != "reader" {
			t.Errorf("permission = %+v, want anyone/reader", perm)
		}
	})

	t.Run("builds link when none returned", func(t *testing.T) {
		result, err := newTestClient(t, &mockDriveService{}).UploadAndShare(context.Background(), req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.ShareableURL != "https://drive.google.com/file/d/uploaded-file-id/view" {
			t.Errorf("ShareableURL = %q", result.ShareableURL)
		}
	})

	t.Run("share failure", func(t *testing.T) {
		mock := &mockDriveService{permissionErr: fmt.Errorf("forbidden")}
		_, err := newTestClient(t, mock).UploadAndShare(context.Background(), req)
		if err == nil || !strings.Contains(err.Error(), "failed to share") {
			t.Errorf("err = %v", err)
		}
	})
}

func TestEscapeQuery(t *testing.T) {
	if got := escapeQuery(`a'b\c`); got != `a\'b\\c` {
		t.Errorf("escapeQuery = %q", got)
	}
}
