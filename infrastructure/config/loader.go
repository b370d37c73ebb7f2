package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"frame-archiver/domain/extraction"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where the CLI looks for its configuration
const DefaultPath = "config/config.yaml"

// Config represents the complete application configuration
type Config struct {
	Paths      PathsConfig      `yaml:"paths"`
	Extraction ExtractionConfig `yaml:"extraction"`
	FFmpeg     FFmpegConfig     `yaml:"ffmpeg"`
	Google     GoogleConfig     `yaml:"google"`
}

// PathsConfig contains output and log locations
type PathsConfig struct {
	OutputDirectory string `yaml:"output_directory"`
	LogDirectory    string `yaml:"log_directory"`
}

// ExtractionConfig contains the defaults for an extraction run
type ExtractionConfig struct {
	Format             string        `yaml:"format"`
	EveryNthFrame      int           `yaml:"every_nth_frame"`
	DefaultTotalFrames int           `yaml:"default_total_frames"`
	Quality            int           `yaml:"quality"`
	GracePeriod        time.Duration `yaml:"grace_period"`
}

// FFmpegConfig controls where ffmpeg and ffprobe are found.
// Explicit paths win over the bundled directory, which wins over PATH.
type FFmpegConfig struct {
	BundledDirectory string `yaml:"bundled_directory"`
	FFmpegPath       string `yaml:"ffmpeg_path"`
	FFprobePath      string `yaml:"ffprobe_path"`
}

// GoogleConfig contains Google API settings
type GoogleConfig struct {
	CredentialsFile  string `yaml:"credentials_file"`
	TokenFile        string `yaml:"token_file"`
	ArchivesFolderID string `yaml:"archives_folder_id"`
}

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills in zero-valued settings
func (c *Config) ApplyDefaults() {
	if c.Paths.OutputDirectory == "" {
		c.Paths.OutputDirectory = "."
	}
	if c.Paths.LogDirectory == "" {
		c.Paths.LogDirectory = "logs"
	}
	if c.Extraction.Format == "" {
		c.Extraction.Format = string(extraction.DefaultFormat)
	}
	if c.Extraction.EveryNthFrame == 0 {
		c.Extraction.EveryNthFrame = extraction.DefaultSamplingInterval
	}
	if c.Extraction.DefaultTotalFrames == 0 {
		c.Extraction.DefaultTotalFrames = extraction.DefaultEstimatedFrames
	}
	if c.Extraction.Quality == 0 {
		c.Extraction.Quality = 2
	}
	if c.Extraction.GracePeriod == 0 {
		c.Extraction.GracePeriod = 5 * time.Second
	}
	if c.Google.CredentialsFile == "" {
		c.Google.CredentialsFile = "credentials.json"
	}
	if c.Google.TokenFile == "" {
		c.Google.TokenFile = "token.json"
	}
}

// Validate checks that the configured values are usable
func (c *Config) Validate() error {
	if _, err := extraction.ParseImageFormat(c.Extraction.Format); err != nil {
		return fmt.Errorf("extraction.format: %w", err)
	}
	if c.Extraction.EveryNthFrame < 1 {
		return fmt.Errorf("extraction.every_nth_frame must be at least 1, got %d", c.Extraction.EveryNthFrame)
	}
	if c.Extraction.DefaultTotalFrames < 1 {
		return fmt.Errorf("extraction.default_total_frames must be at least 1, got %d", c.Extraction.DefaultTotalFrames)
	}
	if c.Extraction.Quality < 1 || c.Extraction.Quality > 31 {
		return fmt.Errorf("extraction.quality must be between 1 and 31, got %d", c.Extraction.Quality)
	}
	if c.Extraction.GracePeriod < 0 {
		return fmt.Errorf("extraction.grace_period must not be negative, got %s", c.Extraction.GracePeriod)
	}
	return nil
}

// Load reads and parses the configuration from the specified YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return &cfg, nil
}

// LoadOrDefault behaves like Load but returns the defaults when the file does not exist
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Save writes the configuration to the specified YAML file
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
