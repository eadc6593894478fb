// Package config loads and saves the settings file that lives beside the
// binary. The file is a flat YAML mapping; keys that are absent keep their
// defaults and numeric values are clamped to their allowed ranges.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tnunamak/usagegauge/internal/credentials"
)

const (
	DefaultPollInterval = 60
	MinPollInterval     = 10
	MaxPollInterval     = 3600

	DefaultItemWidth = 160
	MinItemWidth     = 80
	MaxItemWidth     = 400
)

// Settings holds user preferences.
type Settings struct {
	// CredentialsPath overrides the default credentials location when set.
	CredentialsPath string `yaml:"credentials_path"`
	// PollInterval is in seconds.
	PollInterval int `yaml:"poll_interval"`
	// ItemWidth is the display width of one gauge in pixels.
	ItemWidth int `yaml:"item_width"`
}

func Default() Settings {
	return Settings{
		PollInterval: DefaultPollInterval,
		ItemWidth:    DefaultItemWidth,
	}
}

// DefaultPath returns <executable without extension>.yaml.
func DefaultPath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	return strings.TrimSuffix(exe, filepath.Ext(exe)) + ".yaml", nil
}

// Load reads the settings at path. A missing file yields the defaults.
func Load(path string) (Settings, error) {
	s := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return s, fmt.Errorf("read settings: %w", err)
	}

	if err := yaml.Unmarshal(data, &s); err != nil {
		return Default(), fmt.Errorf("parse settings: %w", err)
	}

	return s.Clamp(), nil
}

// Save writes s to path, creating the parent directory if needed.
func (s Settings) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}

	data, err := yaml.Marshal(s.Clamp())
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// Clamp returns s with numeric fields forced into range.
func (s Settings) Clamp() Settings {
	s.PollInterval = clamp(s.PollInterval, MinPollInterval, MaxPollInterval)
	s.ItemWidth = clamp(s.ItemWidth, MinItemWidth, MaxItemWidth)
	return s
}

func (s Settings) Interval() time.Duration {
	return time.Duration(clamp(s.PollInterval, MinPollInterval, MaxPollInterval)) * time.Second
}

// EffectiveCredentialsPath returns the override if set, otherwise the
// default credentials location.
func (s Settings) EffectiveCredentialsPath() (string, error) {
	if s.CredentialsPath != "" {
		return s.CredentialsPath, nil
	}
	return credentials.DefaultPath()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
