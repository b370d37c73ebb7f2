package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"frame-archiver/infrastructure/config"
)

// mockPrompter answers prompts from a queue, keyed by message
type mockPrompter struct {
	inputs   map[string]string
	confirms map[string]bool
	selects  map[string]string
	fail     bool
}

func (m *mockPrompter) Input(message string, defaultValue string) (string, error) {
	if m.fail {
		return "", errors.New("interrupt")
	}
	if v, ok := m.inputs[message]; ok {
		return v, nil
	}
	return defaultValue, nil
}

func (m *mockPrompter) Confirm(message string, defaultValue bool) (bool, error) {
	if m.fail {
		return false, errors.New("interrupt")
	}
	if v, ok := m.confirms[message]; ok {
		return v, nil
	}
	return defaultValue, nil
}

func (m *mockPrompter) Select(message string, options []string, defaultValue string) (string, error) {
	if m.fail {
		return "", errors.New("interrupt")
	}
	if v, ok := m.selects[message]; ok {
		return v, nil
	}
	return defaultValue, nil
}

func TestRunSetup_WritesConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config", "config.yaml")
	prompter := &mockPrompter{
		inputs: map[string]string{
			"Where should frame archives be saved?":              "/data/frames",
			"Keep every Nth frame?":                              "15",
			"How long to wait for ffmpeg to stop after Ctrl+C?": "2s",
			"Google Drive folder ID for archives?":               "folder-xyz",
		},
		confirms: map[string]bool{"Upload archives to Google Drive?": true},
		selects:  map[string]string{"Default image format?": "jpg"},
	}
	var out bytes.Buffer

	if err := RunSetupWithPrompter(prompter, path, &out); err != nil {
		t.Fatalf("RunSetupWithPrompter: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Paths.OutputDirectory != "/data/frames" {
		t.Errorf("OutputDirectory = %q", cfg.Paths.OutputDirectory)
	}
	if cfg.Extraction.Format != "jpg" || cfg.Extraction.EveryNthFrame != 15 || cfg.Extraction.GracePeriod != 2*time.Second {
		t.Errorf("Extraction = %+v", cfg.Extraction)
	}
	if cfg.Extraction.DefaultTotalFrames != 1000 {
		t.Errorf("DefaultTotalFrames = %d, want default 1000", cfg.Extraction.DefaultTotalFrames)
	}
	if cfg.Google.ArchivesFolderID != "folder-xyz" {
		t.Errorf("ArchivesFolderID = %q", cfg.Google.ArchivesFolderID)
	}
}

func TestRunSetup_KeepsExistingWhenDeclined(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("paths:\n  output_directory: keep\n"), 0644); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer

	if err := RunSetupWithPrompter(&mockPrompter{}, path, &out); err != nil {
		t.Fatalf("RunSetupWithPrompter: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "paths:\n  output_directory: keep\n" {
		t.Errorf("config was modified: %q", data)
	}
	if out.String() != "Setup cancelled.\n" {
		t.Errorf("output = %q", out.String())
	}
}

func TestRunSetup_Errors(t *testing.T) {
	tests := []struct {
		name     string
		prompter *mockPrompter
	}{
		{name: "prompt interrupted", prompter: &mockPrompter{fail: true}},
		{name: "bad interval", prompter: &mockPrompter{inputs: map[string]string{"Keep every Nth frame?": "zero"}}},
		{
			name: "missing drive folder",
			prompter: &mockPrompter{
				confirms: map[string]bool{"Upload archives to Google Drive?": true},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := RunSetupWithPrompter(tt.prompter, path, &bytes.Buffer{}); err == nil {
				t.Error("expected error")
			}
			if _, err := os.Stat(path); !os.IsNotExist(err) {
				t.Error("config should not be written on error")
			}
		})
	}
}
