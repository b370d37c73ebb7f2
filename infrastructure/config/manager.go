package config

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"frame-archiver/domain/extraction"
)

// Errors for config management
var (
	ErrUnknownKey   = errors.New("unknown config key")
	ErrInvalidValue = errors.New("invalid config value")
)

// field binds a dotted config key to its value in Config
type field struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

var fields = map[string]field{
	"paths.output_directory": stringField(func(c *Config) *string { return &c.Paths.OutputDirectory }),
	"paths.log_directory":    stringField(func(c *Config) *string { return &c.Paths.LogDirectory }),
	"extraction.format": {
		get: func(c *Config) string { return c.Extraction.Format },
		set: func(c *Config, v string) error {
			f, err := extraction.ParseImageFormat(v)
			if err != nil {
				return err
			}
			c.Extraction.Format = string(f)
			return nil
		},
	},
	"extraction.every_nth_frame":      intField(func(c *Config) *int { return &c.Extraction.EveryNthFrame }, 1, 0),
	"extraction.default_total_frames": intField(func(c *Config) *int { return &c.Extraction.DefaultTotalFrames }, 1, 0),
	"extraction.quality":              intField(func(c *Config) *int { return &c.Extraction.Quality }, 1, 31),
	"extraction.grace_period": {
		get: func(c *Config) string { return c.Extraction.GracePeriod.String() },
		set: func(c *Config, v string) error {
			d, err := time.ParseDuration(v)
			if err != nil || d <= 0 {
				return fmt.Errorf("grace period must be a positive duration like 5s, got %q", v)
			}
			c.Extraction.GracePeriod = d
			return nil
		},
	},
	"ffmpeg.bundled_directory":  stringField(func(c *Config) *string { return &c.FFmpeg.BundledDirectory }),
	"ffmpeg.ffmpeg_path":        stringField(func(c *Config) *string { return &c.FFmpeg.FFmpegPath }),
	"ffmpeg.ffprobe_path":       stringField(func(c *Config) *string { return &c.FFmpeg.FFprobePath }),
	"google.credentials_file":   stringField(func(c *Config) *string { return &c.Google.CredentialsFile }),
	"google.token_file":         stringField(func(c *Config) *string { return &c.Google.TokenFile }),
	"google.archives_folder_id": stringField(func(c *Config) *string { return &c.Google.ArchivesFolderID }),
}

func stringField(ptr func(c *Config) *string) field {
	return field{
		get: func(c *Config) string { return *ptr(c) },
		set: func(c *Config, v string) error {
			*ptr(c) = v
			return nil
		},
	}
}

// intField accepts integers in [lo, hi]; hi 0 means unbounded
func intField(ptr func(c *Config) *int, lo, hi int) field {
	return field{
		get: func(c *Config) string { return strconv.Itoa(*ptr(c)) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("expected an integer, got %q", v)
			}
			if n < lo || (hi > 0 && n > hi) {
				if hi > 0 {
					return fmt.Errorf("must be between %d and %d, got %d", lo, hi, n)
				}
				return fmt.Errorf("must be at least %d, got %d", lo, n)
			}
			*ptr(c) = n
			return nil
		},
	}
}

// ConfigManager reads and edits config entries by dotted key
type ConfigManager struct {
	config     *Config
	configPath string
}

// NewConfigManager creates a new config manager
func NewConfigManager(cfg *Config, configPath string) *ConfigManager {
	return &ConfigManager{
		config:     cfg,
		configPath: configPath,
	}
}

// Entry is a single config key and its current value
type Entry struct {
	Key   string
	Value string
}

// Keys returns every settable key in sorted order
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// List returns all config entries sorted by key
func (m *ConfigManager) List() []Entry {
	keys := Keys()
	result := make([]Entry, 0, len(keys))
	for _, k := range keys {
		result = append(result, Entry{Key: k, Value: fields[k].get(m.config)})
	}
	return result
}

// Get returns the value of a key (case-insensitive)
func (m *ConfigManager) Get(key string) (string, error) {
	f, _, err := lookup(key)
	if err != nil {
		return "", err
	}
	return f.get(m.config), nil
}

// Set validates and stores a value, then saves the config file
func (m *ConfigManager) Set(key, value string) error {
	f, key, err := lookup(key)
	if err != nil {
		return err
	}

	if err := f.set(m.config, strings.TrimSpace(value)); err != nil {
		return fmt.Errorf("%w for %s: %v", ErrInvalidValue, key, err)
	}

	return Save(m.config, m.configPath)
}

func lookup(key string) (field, string, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	f, ok := fields[key]
	if !ok {
		return field{}, key, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	return f, key, nil
}
