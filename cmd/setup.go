package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"frame-archiver/domain/extraction"
	"frame-archiver/infrastructure/config"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
)

// errPromptCancelled is returned when the user aborts a prompt
var errPromptCancelled = errors.New("prompt cancelled")

// Prompter interface for interactive prompts (allows mocking in tests)
type Prompter interface {
	Input(message string, defaultValue string) (string, error)
	Confirm(message string, defaultValue bool) (bool, error)
	Select(message string, options []string, defaultValue string) (string, error)
}

// SurveyPrompter implements Prompter using the survey library
type SurveyPrompter struct{}

func (p *SurveyPrompter) Input(message string, defaultValue string) (string, error) {
	result := ""
	prompt := &survey.Input{
		Message: message,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return "", err
	}
	return result, nil
}

func (p *SurveyPrompter) Confirm(message string, defaultValue bool) (bool, error) {
	result := defaultValue
	prompt := &survey.Confirm{
		Message: message,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return false, err
	}
	return result, nil
}

func (p *SurveyPrompter) Select(message string, options []string, defaultValue string) (string, error) {
	result := ""
	prompt := &survey.Select{
		Message: message,
		Options: options,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return "", err
	}
	return result, nil
}

// DefaultPrompter is the prompter used in production
var DefaultPrompter Prompter = &SurveyPrompter{}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create configuration file interactively",
	Long: `Prompts for configuration values and creates config.yaml.

This command guides you through the output and log locations, extraction
defaults, where to find ffmpeg, and optional Google Drive upload settings.`,
	RunE: runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	path := cfgFile
	if path == "" {
		path = config.DefaultPath
	}
	return RunSetupWithPrompter(DefaultPrompter, path, DefaultOutput)
}

// RunSetupWithPrompter runs the setup with a given prompter (for testing)
func RunSetupWithPrompter(prompter Prompter, configPath string, output OutputWriter) error {
	if _, err := os.Stat(configPath); err == nil {
		overwrite, err := prompter.Confirm("config.yaml already exists. Overwrite?", false)
		if err != nil {
			return errPromptCancelled
		}
		if !overwrite {
			fmt.Fprintln(output, "Setup cancelled.")
			return nil
		}
	}

	fmt.Fprintln(output, "Welcome to frame-archiver setup!")
	fmt.Fprintln(output)

	cfg := config.Default()

	for _, step := range []func(Prompter, *config.Config) error{
		promptPaths,
		promptExtraction,
		promptFFmpeg,
		promptGoogle,
	} {
		if err := step(prompter, cfg); err != nil {
			return err
		}
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := config.Save(cfg, configPath); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	fmt.Fprintln(output)
	fmt.Fprintf(output, "Configuration saved to %s\n", configPath)
	return nil
}

func promptPaths(prompter Prompter, cfg *config.Config) error {
	out, err := prompter.Input("Where should frame archives be saved?", cfg.Paths.OutputDirectory)
	if err != nil {
		return errPromptCancelled
	}
	if out != "" {
		cfg.Paths.OutputDirectory = out
	}

	logs, err := prompter.Input("Where should session logs go?", cfg.Paths.LogDirectory)
	if err != nil {
		return errPromptCancelled
	}
	if logs != "" {
		cfg.Paths.LogDirectory = logs
	}
	return nil
}

func promptExtraction(prompter Prompter, cfg *config.Config) error {
	formats := make([]string, 0, len(extraction.SupportedFormats))
	for _, f := range extraction.SupportedFormats {
		formats = append(formats, string(f))
	}
	format, err := prompter.Select("Default image format?", formats, cfg.Extraction.Format)
	if err != nil {
		return errPromptCancelled
	}
	cfg.Extraction.Format = format

	every, err := promptInt(prompter, "Keep every Nth frame?", cfg.Extraction.EveryNthFrame)
	if err != nil {
		return err
	}
	cfg.Extraction.EveryNthFrame = every

	frames, err := promptInt(prompter, "Frame estimate when a video cannot be probed?", cfg.Extraction.DefaultTotalFrames)
	if err != nil {
		return err
	}
	cfg.Extraction.DefaultTotalFrames = frames

	grace, err := prompter.Input("How long to wait for ffmpeg to stop after Ctrl+C?", cfg.Extraction.GracePeriod.String())
	if err != nil {
		return errPromptCancelled
	}
	if grace != "" {
		d, err := time.ParseDuration(grace)
		if err != nil || d <= 0 {
			return fmt.Errorf("grace period must be a positive duration like 5s, got %q", grace)
		}
		cfg.Extraction.GracePeriod = d
	}
	return nil
}

func promptInt(prompter Prompter, message string, defaultValue int) (int, error) {
	s, err := prompter.Input(message, strconv.Itoa(defaultValue))
	if err != nil {
		return 0, errPromptCancelled
	}
	if s == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%s expects a positive whole number, got %q", message, s)
	}
	return n, nil
}

func promptFFmpeg(prompter Prompter, cfg *config.Config) error {
	dir, err := prompter.Input("Folder with bundled ffmpeg/ffprobe (blank to use PATH)?", "")
	if err != nil {
		return errPromptCancelled
	}
	cfg.FFmpeg.BundledDirectory = dir
	return nil
}

func promptGoogle(prompter Prompter, cfg *config.Config) error {
	enable, err := prompter.Confirm("Upload archives to Google Drive?", false)
	if err != nil {
		return errPromptCancelled
	}
	if !enable {
		return nil
	}

	credentials, err := prompter.Input("Path to Google OAuth credentials file?", cfg.Google.CredentialsFile)
	if err != nil {
		return errPromptCancelled
	}
	if credentials != "" {
		cfg.Google.CredentialsFile = credentials
	}

	folder, err := prompter.Input("Google Drive folder ID for archives?", "")
	if err != nil {
		return errPromptCancelled
	}
	if folder == "" {
		return fmt.Errorf("folder ID is required")
	}
	cfg.Google.ArchivesFolderID = folder

	return nil
}
