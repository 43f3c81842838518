// Package config loads zero2story's settings from a YAML file with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file read when none is given.
const DefaultPath = "zero2story.yaml"

// Environment variables that override file values.
const (
	EnvBackend = "ZERO2STORY_BACKEND"
	EnvModel   = "ZERO2STORY_MODEL"
	EnvPrompts = "ZERO2STORY_PROMPTS"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Images configures character portraits.
type Images struct {
	Enabled bool   `yaml:"enabled"`
	Model   string `yaml:"model,omitempty"`
	OutDir  string `yaml:"out_dir"`

	// UnsafePlaceholder is shown in place of images rejected by the
	// provider's content policy. Empty leaves the character without a
	// portrait.
	UnsafePlaceholder string `yaml:"unsafe_placeholder,omitempty"`
}

// Config is the application configuration.
type Config struct {
	Backend     string `yaml:"backend"`
	Model       string `yaml:"model,omitempty"`
	PromptsPath string `yaml:"prompts_path,omitempty"`

	MaxAttempts int `yaml:"max_attempts"`
	Window      int `yaml:"window"`
	Truncate    int `yaml:"truncate"`

	Chapters             []string `yaml:"chapters,omitempty"`
	ParagraphsPerChapter int      `yaml:"paragraphs_per_chapter"`

	ContentFilter bool `yaml:"content_filter"`

	Images Images `yaml:"images"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Backend:              "gemini",
		MaxAttempts:          5,
		Window:               4,
		ParagraphsPerChapter: 3,
		ContentFilter:        true,
		Images: Images{
			OutDir: "outputs",
		},
	}
}

// Load reads path over the defaults and applies environment overrides.
// A missing file is not an error unless explicit is set.
func Load(path string, explicit bool) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	case err != nil:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("%w: parse %s: %w", ErrInvalidConfig, path, err)
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvBackend)); v != "" {
		c.Backend = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvModel)); v != "" {
		c.Model = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvPrompts)); v != "" {
		c.PromptsPath = v
	}
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Backend) == "" {
		return fmt.Errorf("%w: backend is required", ErrInvalidConfig)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("%w: max_attempts must be at least 1", ErrInvalidConfig)
	}
	if c.Window < 0 || c.Truncate < 0 {
		return fmt.Errorf("%w: window and truncate cannot be negative", ErrInvalidConfig)
	}
	if c.ParagraphsPerChapter < 1 {
		return fmt.Errorf("%w: paragraphs_per_chapter must be at least 1", ErrInvalidConfig)
	}
	if len(c.Chapters) > 0 {
		for i, t := range c.Chapters {
			if strings.TrimSpace(t) == "" {
				return fmt.Errorf("%w: chapter %d has no title", ErrInvalidConfig, i+1)
			}
		}
	}
	if c.Images.Enabled && c.Images.OutDir == "" {
		return fmt.Errorf("%w: images.out_dir is required when images are enabled", ErrInvalidConfig)
	}
	if p := c.Images.UnsafePlaceholder; p != "" {
		if _, err := os.Stat(p); err != nil {
			return fmt.Errorf("%w: images.unsafe_placeholder: %w", ErrInvalidConfig, err)
		}
	}
	return nil
}

// Marshal renders the configuration as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
