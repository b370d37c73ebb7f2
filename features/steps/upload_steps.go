//go:build integration

package steps

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"frame-archiver/cmd"
	"frame-archiver/infrastructure/drive"

	"github.com/cucumber/godog"
)

const gigabyte = int64(1) << 30

// uploadContext holds test state for upload scenarios
type uploadContext struct {
	tempDir     string
	folderID    string
	archivePath string
	mockService *mockDriveService
	client      *drive.Client
	output      *bytes.Buffer
	err         error
}

var SharedUploadContext *uploadContext

func getUploadContext() *uploadContext {
	return SharedUploadContext
}

func InitializeUploadScenario(ctx *godog.ScenarioContext) {
	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		tempDir, err := os.MkdirTemp("", "upload-test-*")
		if err != nil {
			return c, err
		}
		svc := newMockDriveService()
		client, err := drive.NewClient(c, "", drive.WithDriveService(svc))
		if err != nil {
			return c, err
		}
		SharedUploadContext = &uploadContext{
			tempDir:     tempDir,
			mockService: svc,
			client:      client,
			output:      &bytes.Buffer{},
		}
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if u := getUploadContext(); u != nil {
			os.RemoveAll(u.tempDir)
		}
		return c, nil
	})

	ctx.Step(`^a Google Drive folder "([^"]*)" with (\d+) GB free$`, func(folder string, gb int) error {
		return getUploadContext().aGoogleDriveFolderWithFree(folder, int64(gb))
	})
	ctx.Step(`^the folder contains an archive "([^"]*)" created "([^"]*)" of (\d+) bytes$`, func(name, created string, size int) error {
		getUploadContext().mockService.addArchive(name, created, int64(size))
		return nil
	})
	ctx.Step(`^a local archive "([^"]*)" of (\d+) bytes$`, func(name string, size int) error {
		return getUploadContext().aLocalArchive(name, size)
	})
	ctx.Step(`^I upload the archive$`, func() error {
		return getUploadContext().iUploadTheArchive(false)
	})
	ctx.Step(`^I upload the archive freeing space$`, func() error {
		return getUploadContext().iUploadTheArchive(true)
	})
	ctx.Step(`^I try to upload the archive$`, func() error {
		u := getUploadContext()
		u.err = cmd.RunUploadWithDependencies(context.Background(), u.client, u.folderID, u.archivePath, false, u.output)
		return nil
	})
	ctx.Step(`^the upload should succeed$`, func() error {
		return getUploadContext().theUploadShouldSucceed()
	})
	ctx.Step(`^the upload should fail with "([^"]*)"$`, func(msg string) error {
		return getUploadContext().theUploadShouldFailWith(msg)
	})
	ctx.Step(`^the archive should be shared with anyone who has the link$`, func() error {
		return getUploadContext().theArchiveShouldBeShared()
	})
	ctx.Step(`^the upload output should contain "([^"]*)"$`, func(text string) error {
		if out := getUploadContext().output.String(); !strings.Contains(out, text) {
			return fmt.Errorf("expected output to contain %q, got:\n%s", text, out)
		}
		return nil
	})
	ctx.Step(`^the drive file "([^"]*)" created "([^"]*)" should be deleted$`, func(name, created string) error {
		return getUploadContext().theDriveFileDeleted(name, created, true)
	})
	ctx.Step(`^the drive file "([^"]*)" created "([^"]*)" should not be deleted$`, func(name, created string) error {
		return getUploadContext().theDriveFileDeleted(name, created, false)
	})
}

func (u *uploadContext) aGoogleDriveFolderWithFree(folder string, gb int64) error {
	u.folderID = folder
	u.mockService.storageLimit = 15 * gigabyte
	u.mockService.storageUsage = u.mockService.storageLimit - gb*gigabyte
	return nil
}

func (u *uploadContext) aLocalArchive(name string, size int) error {
	u.archivePath = filepath.Join(u.tempDir, name)
	return os.WriteFile(u.archivePath, make([]byte, size), 0644)
}

func (u *uploadContext) iUploadTheArchive(freeSpace bool) error {
	u.err = cmd.RunUploadWithDependencies(context.Background(), u.client, u.folderID, u.archivePath, freeSpace, u.output)
	return nil
}

func (u *uploadContext) theUploadShouldSucceed() error {
	if u.err != nil {
		return fmt.Errorf("expected upload to succeed, got: %v", u.err)
	}
	if !strings.Contains(u.output.String(), "Archive uploaded successfully!") {
		return fmt.Errorf("no upload reported, output:\n%s", u.output.String())
	}
	return nil
}

func (u *uploadContext) theUploadShouldFailWith(msg string) error {
	if u.err == nil {
		return fmt.Errorf("expected upload to fail")
	}
	if !strings.Contains(u.err.Error(), msg) {
		return fmt.Errorf("expected error containing %q, got %q", msg, u.err.Error())
	}
	return nil
}

func (u *uploadContext) theArchiveShouldBeShared() error {
	for id, p := range u.mockService.permissions {
		if p.Type != "anyone" || p.Role != "reader" {
			return fmt.Errorf("file %s shared as %s/%s, want anyone/reader", id, p.Type, p.Role)
		}
		return nil
	}
	return fmt.Errorf("no permission was created")
}

func (u *uploadContext) theDriveFileDeleted(name, created string, wantDeleted bool) error {
	f := u.mockService.find(name, created)
	if f == nil {
		return fmt.Errorf("no drive file %s created %s", name, created)
	}
	if deleted := u.mockService.isDeleted(f.Id); deleted != wantDeleted {
		return fmt.Errorf("drive file %s deleted = %v, want %v", name, deleted, wantDeleted)
	}
	return nil
}
