//go:build manual

package drive

import (
	"context"
	"fmt"
	"os"
	"testing"
)

// TestRealDriveConnectivity tests real Google Drive connectivity
// Run with: FRAME_ARCHIVER_DRIVE_FOLDER=<id> go test -tags=manual -v ./infrastructure/drive/... -run TestRealDriveConnectivity
func TestRealDriveConnectivity(t *testing.T) {
	credentialsPath := "../../credentials.json"
	folderID := os.Getenv("FRAME_ARCHIVER_DRIVE_FOLDER")

	if _, err := os.Stat(credentialsPath); os.IsNotExist(err) {
		t.Skip("credentials.json not found - skipping real Drive test")
	}
	if folderID == "" {
		t.Skip("FRAME_ARCHIVER_DRIVE_FOLDER not set - skipping real Drive test")
	}

	ctx := context.Background()

	client, err := NewClient(ctx, credentialsPath)
	if err != nil {
		t.Fatalf("Failed to create Drive client: %v", err)
	}

	files, err := client.ListArchives(ctx, folderID)
	if err != nil {
		t.Fatalf("Failed to list archives: %v", err)
	}

	fmt.Printf("\n=== Google Drive Connectivity Test ===\n")
	fmt.Printf("Found %d archives:\n\n", len(files))
	for _, f := range files {
		fmt.Printf("  - %s (%.2f MB, %s)\n", f.Name, float64(f.Size)/1024/1024, f.CreatedTime.Format("2006-01-02 15:04"))
	}
	fmt.Println()
}
