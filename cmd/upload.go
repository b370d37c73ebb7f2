package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	appdist "frame-archiver/application/distribution"
	"frame-archiver/domain/distribution"
	"frame-archiver/domain/extraction"
	"frame-archiver/infrastructure/drive"

	"github.com/spf13/cobra"
)

var (
	uploadArchivePath string
	uploadFreeSpace   bool
)

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Upload a frame archive to Google Drive",
	Long: `Upload a frame archive to the configured Google Drive folder and share it
with anyone who has the link. An archive with the same name is replaced.

If --archive is not given, the newest frames_*.zip in the output directory is used.
With --free-space, the oldest archives in the folder are deleted until the upload fits.

Example:
  frame-archiver upload
  frame-archiver upload --archive ./frames/frames_clip.mp4.zip --free-space`,
	RunE: runUpload,
}

func init() {
	rootCmd.AddCommand(uploadCmd)
	uploadCmd.Flags().StringVarP(&uploadArchivePath, "archive", "a", "", "Path to the archive (defaults to latest in output directory)")
	uploadCmd.Flags().BoolVar(&uploadFreeSpace, "free-space", false, "Delete the oldest archives in the folder if storage is full")
}

func runUpload(cmd *cobra.Command, args []string) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}
	if cfg.Google.ArchivesFolderID == "" {
		return fmt.Errorf("google.archives_folder_id is not set; run 'frame-archiver setup' or 'frame-archiver config set google.archives_folder_id <id>'")
	}

	archivePath := uploadArchivePath
	if archivePath == "" {
		archivePath, err = findLatestArchive(cfg.Paths.OutputDirectory)
		if err != nil {
			return fmt.Errorf("no archive specified and could not find latest: %w", err)
		}
	}

	ctx := cmd.Context()
	client, err := drive.NewClientWithOAuth(ctx, drive.OAuthConfig{
		CredentialsFile: cfg.Google.CredentialsFile,
		TokenFile:       cfg.Google.TokenFile,
		Output:          os.Stdout,
	})
	if err != nil {
		return fmt.Errorf("failed to create Google Drive client: %w", err)
	}

	return RunUploadWithDependencies(ctx, client, cfg.Google.ArchivesFolderID, archivePath, uploadFreeSpace, DefaultOutput)
}

// findLatestArchive finds the most recently modified frames_*.zip in dir
func findLatestArchive(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read directory: %w", err)
	}

	var latestPath string
	var latestTime time.Time

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !extraction.IsArchive(name) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestPath = filepath.Join(dir, name)
		}
	}

	if latestPath == "" {
		return "", fmt.Errorf("no frame archives found in %s", dir)
	}

	return latestPath, nil
}

// RunUploadWithDependencies runs the upload command with injected dependencies (for testing)
func RunUploadWithDependencies(
	ctx context.Context,
	driveClient distribution.DriveClient,
	folderID string,
	archivePath string,
	freeSpace bool,
	output OutputWriter,
) error {
	if freeSpace {
		info, err := os.Stat(archivePath)
		if err != nil {
			return fmt.Errorf("failed to stat archive: %w", err)
		}

		cleanup := appdist.NewCleanupService(driveClient, folderID)
		result, err := cleanup.EnsureSpaceAvailable(ctx, info.Size(), filepath.Base(archivePath))
		for _, f := range result.DeletedFiles {
			fmt.Fprintf(output, "Deleted old archive %s (%s)\n", f.Name, formatMB(f.Size))
		}
		if err != nil {
			return fmt.Errorf("failed to free space: %w", err)
		}
	}

	fmt.Fprintf(output, "Uploading archive: %s...\n", filepath.Base(archivePath))
	service := appdist.NewUploadService(driveClient, folderID, output)
	result, err := service.UploadArchive(ctx, archivePath)
	if err != nil {
		return fmt.Errorf("archive upload failed: %w", err)
	}

	fmt.Fprintf(output, "Archive uploaded successfully!\n")
	fmt.Fprintf(output, "  File ID: %s\n", result.FileID)
	fmt.Fprintf(output, "  Size: %s\n", formatMB(result.Size))
	fmt.Fprintf(output, "  Shareable URL: %s\n", result.ShareableURL)
	return nil
}
