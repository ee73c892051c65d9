// Package config handles bibvet's global configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents configuration stored in ~/.config/bibvet/config.yml.
// All fields have working defaults; a missing file is not an error.
type Config struct {
	// VerifyThreshold is the strict-overlap similarity an external record
	// must clear to confirm an entry.
	VerifyThreshold float64 `yaml:"verify_threshold"`

	// FuzzyThreshold is the subset-biased similarity above which two
	// in-document entries are flagged as near-duplicates.
	FuzzyThreshold float64 `yaml:"fuzzy_threshold"`

	// MinExactTitleLen is the minimum normalized-title length for the
	// exact duplicate pass.
	MinExactTitleLen int `yaml:"min_exact_title_len"`

	// BatchSize is the number of concurrent lookups per batch.
	BatchSize int `yaml:"batch_size"`

	// BatchDelayMS is the pause between lookup batches in milliseconds.
	BatchDelayMS int `yaml:"batch_delay_ms"`

	// Whitelist lists entry keys exempted from verification.
	Whitelist []string `yaml:"whitelist,omitempty"`

	// S2APIKey authenticates Semantic Scholar requests. The S2_API_KEY
	// environment variable takes precedence.
	S2APIKey string `yaml:"s2_api_key,omitempty"`

	// CachePath overrides the default lookup cache location.
	CachePath string `yaml:"cache_path,omitempty"`
}

const (
	// ConfigDir is the directory name under XDG_CONFIG_HOME.
	ConfigDir = "bibvet"
	// ConfigFile is the config file name.
	ConfigFile = "config.yml"
	// CacheFile is the default lookup cache file name.
	CacheFile = "lookups.db"
)

// Default returns the standard configuration.
func Default() Config {
	return Config{
		VerifyThreshold:  0.8,
		FuzzyThreshold:   0.85,
		MinExactTitleLen: 10,
		BatchSize:        5,
		BatchDelayMS:     1200,
	}
}

// Path returns the path to the config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/bibvet/config.yml.
func Path() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, ConfigDir, ConfigFile)
}

// DefaultCachePath returns the default lookup cache location next to the
// config file, or "" when no config directory can be determined.
func DefaultCachePath() string {
	p := Path()
	if p == "" {
		return ""
	}
	return filepath.Join(filepath.Dir(p), CacheFile)
}

// Load reads the global configuration file, filling unset fields with
// defaults. Returns defaults (not an error) if the file doesn't exist.
func Load() (Config, error) {
	return loadFrom(Path())
}

func loadFrom(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	// Zero values from partial files fall back to defaults.
	def := Default()
	if cfg.VerifyThreshold == 0 {
		cfg.VerifyThreshold = def.VerifyThreshold
	}
	if cfg.FuzzyThreshold == 0 {
		cfg.FuzzyThreshold = def.FuzzyThreshold
	}
	if cfg.MinExactTitleLen == 0 {
		cfg.MinExactTitleLen = def.MinExactTitleLen
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.BatchDelayMS == 0 {
		cfg.BatchDelayMS = def.BatchDelayMS
	}

	return cfg, cfg.Validate()
}

// Validate checks configuration ranges.
func (c Config) Validate() error {
	if c.VerifyThreshold <= 0 || c.VerifyThreshold > 1 {
		return fmt.Errorf("verify_threshold must be in (0, 1], got %v", c.VerifyThreshold)
	}
	if c.FuzzyThreshold <= 0 || c.FuzzyThreshold > 1 {
		return fmt.Errorf("fuzzy_threshold must be in (0, 1], got %v", c.FuzzyThreshold)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("batch_size must be at least 1, got %d", c.BatchSize)
	}
	if c.BatchDelayMS < 0 {
		return fmt.Errorf("batch_delay_ms must not be negative, got %d", c.BatchDelayMS)
	}
	return nil
}

// BatchDelay returns the inter-batch delay as a duration.
func (c Config) BatchDelay() time.Duration {
	return time.Duration(c.BatchDelayMS) * time.Millisecond
}

// WhitelistSet returns the whitelist as a lookup set.
func (c Config) WhitelistSet() map[string]bool {
	set := make(map[string]bool, len(c.Whitelist))
	for _, key := range c.Whitelist {
		set[key] = true
	}
	return set
}
