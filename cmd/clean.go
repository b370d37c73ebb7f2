package cmd

import (
	"fmt"
	"path/filepath"

	appextract "frame-archiver/application/extraction"
	"frame-archiver/infrastructure/filesystem"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var cleanOutputDir string

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove leftovers of interrupted runs",
	Long: `Remove the temporary frame directory and partially written archives that an
interrupted or crashed run can leave in the output directory. Finished
archives are never removed.

Example:
  frame-archiver clean
  frame-archiver clean --output-dir ./frames`,
	RunE: runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().StringVarP(&cleanOutputDir, "output-dir", "o", "", "Directory to clean (default from config)")
}

func runClean(cmd *cobra.Command, args []string) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}

	dir := cleanOutputDir
	if dir == "" {
		dir = cfg.Paths.OutputDirectory
	}

	return RunCleanWithDependencies(dir, sessionLogger(cfg), DefaultOutput)
}

// RunCleanWithDependencies runs the clean command with injected dependencies (for testing)
func RunCleanWithDependencies(outputDir string, logger *zap.Logger, output OutputWriter) error {
	service := appextract.NewCleanService(filesystem.NewWorkspace(), logger)

	result, err := service.Clean(outputDir)
	if err != nil {
		return fmt.Errorf("clean failed: %w", err)
	}

	if len(result.Removed) == 0 {
		fmt.Fprintf(output, "Nothing to clean in %s\n", outputDir)
		return nil
	}

	for _, item := range result.Removed {
		fmt.Fprintf(output, "Removed %s (%s)\n", filepath.Base(item.Path), formatMB(item.Size))
	}
	fmt.Fprintf(output, "Freed %s\n", formatMB(result.FreedBytes))
	return nil
}
