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
	"frame-archiver/infrastructure/config"

	"github.com/cucumber/godog"
)

type setupContext struct {
	tempDir         string
	configPath      string
	setupCancelled  bool
	originalContent string
	output          *bytes.Buffer
	err             error
}

var SharedSetupContext = &setupContext{}

// MockPrompter implements cmd.Prompter for testing. Answers are keyed by prompt text;
// unanswered prompts take their default.
type MockPrompter struct {
	answers map[string]string
}

func NewMockPrompter(answers map[string]string) *MockPrompter {
	return &MockPrompter{answers: answers}
}

func (m *MockPrompter) Input(message string, defaultValue string) (string, error) {
	if v, ok := m.answers[message]; ok {
		return v, nil
	}
	return defaultValue, nil
}

func (m *MockPrompter) Confirm(message string, defaultValue bool) (bool, error) {
	if v, ok := m.answers[message]; ok {
		return strings.EqualFold(v, "y"), nil
	}
	return defaultValue, nil
}

func (m *MockPrompter) Select(message string, options []string, defaultValue string) (string, error) {
	if v, ok := m.answers[message]; ok {
		return v, nil
	}
	return defaultValue, nil
}

func InitializeSetupScenario(ctx *godog.ScenarioContext) {
	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		tempDir, err := os.MkdirTemp("", "setup-test-*")
		if err != nil {
			return c, err
		}
		SharedSetupContext = &setupContext{
			tempDir:    tempDir,
			configPath: filepath.Join(tempDir, "config", "config.yaml"),
			output:     &bytes.Buffer{},
		}
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if SharedSetupContext.tempDir != "" {
			os.RemoveAll(SharedSetupContext.tempDir)
		}
		return c, nil
	})

	ctx.Step(`^no config file exists for setup$`, func() error { return SharedSetupContext.noConfigFileExistsForSetup() })
	ctx.Step(`^a config file already exists for setup$`, func() error { return SharedSetupContext.aConfigFileAlreadyExistsForSetup() })
	ctx.Step(`^I run the setup command with inputs:$`, func(t *godog.Table) error { return SharedSetupContext.iRunTheSetupCommandWithInputs(t) })
	ctx.Step(`^I run the setup command with confirmation "([^"]*)"$`, func(v string) error { return SharedSetupContext.iRunTheSetupCommandWithConfirmation(v) })
	ctx.Step(`^a config file should exist$`, func() error { return SharedSetupContext.aConfigFileShouldExist() })
	ctx.Step(`^the setup config should have "([^"]*)" set to "([^"]*)"$`, func(k, v string) error { return SharedSetupContext.theSetupConfigShouldHave(k, v) })
	ctx.Step(`^the setup should be cancelled$`, func() error { return SharedSetupContext.theSetupShouldBeCancelled() })
	ctx.Step(`^the existing config should be unchanged$`, func() error { return SharedSetupContext.theExistingConfigShouldBeUnchanged() })
}

func (s *setupContext) noConfigFileExistsForSetup() error {
	return os.MkdirAll(filepath.Dir(s.configPath), 0755)
}

func (s *setupContext) aConfigFileAlreadyExistsForSetup() error {
	if err := os.MkdirAll(filepath.Dir(s.configPath), 0755); err != nil {
		return err
	}

	content := `paths:
  output_directory: "/original/frames"
extraction:
  format: bmp
  every_nth_frame: 12
google:
  archives_folder_id: "original-folder-id"
`
	s.originalContent = content
	return os.WriteFile(s.configPath, []byte(content), 0644)
}

func (s *setupContext) iRunTheSetupCommandWithInputs(table *godog.Table) error {
	s.err = cmd.RunSetupWithPrompter(NewMockPrompter(parseAnswerTable(table)), s.configPath, s.output)
	if s.err != nil {
		return fmt.Errorf("setup command failed: %w", s.err)
	}
	return nil
}

func (s *setupContext) iRunTheSetupCommandWithConfirmation(confirmation string) error {
	prompter := NewMockPrompter(map[string]string{"config.yaml already exists. Overwrite?": confirmation})
	s.err = cmd.RunSetupWithPrompter(prompter, s.configPath, s.output)
	s.setupCancelled = strings.Contains(s.output.String(), "Setup cancelled.")
	return s.err
}

func parseAnswerTable(table *godog.Table) map[string]string {
	answers := make(map[string]string)
	for i, row := range table.Rows {
		if i == 0 {
			continue // Skip header row
		}
		answers[row.Cells[0].Value] = row.Cells[1].Value
	}
	return answers
}

func (s *setupContext) aConfigFileShouldExist() error {
	if _, err := os.Stat(s.configPath); os.IsNotExist(err) {
		return fmt.Errorf("config file does not exist at %s", s.configPath)
	}
	return nil
}

func (s *setupContext) theSetupConfigShouldHave(key, expected string) error {
	cfg, err := config.Load(s.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	got, err := config.NewConfigManager(cfg, s.configPath).Get(key)
	if err != nil {
		return err
	}
	if got != expected {
		return fmt.Errorf("expected %s %q, got %q", key, expected, got)
	}
	return nil
}

func (s *setupContext) theSetupShouldBeCancelled() error {
	if !s.setupCancelled {
		return fmt.Errorf("expected setup to be cancelled")
	}
	return nil
}

func (s *setupContext) theExistingConfigShouldBeUnchanged() error {
	content, err := os.ReadFile(s.configPath)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	if string(content) != s.originalContent {
		return fmt.Errorf("config content was changed")
	}
	return nil
}
