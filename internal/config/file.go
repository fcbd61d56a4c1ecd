// internal/config/file.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is looked up in the working directory.
const DefaultConfigFile = "stylecritic.yaml"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File is the YAML overlay. Zero values leave the defaults untouched.
type File struct {
	LLM struct {
		Provider string `yaml:"provider"`
		Model    string `yaml:"model"`
		BaseURL  string `yaml:"base_url"`
	} `yaml:"llm"`

	Timeouts struct {
		Navigation string `yaml:"navigation"`
		Generation string `yaml:"generation"`
		Request    string `yaml:"request"`
	} `yaml:"timeouts"`

	Retry struct {
		MaxAttempts  int    `yaml:"max_attempts"`
		DefaultDelay string `yaml:"default_delay"`
		MaxDelay     string `yaml:"max_delay"`
	} `yaml:"retry"`

	Analysis struct {
		MaxPromptChars     int    `yaml:"max_prompt_chars"`
		ScoringMode        string `yaml:"scoring_mode"`
		ParallelCategories *bool  `yaml:"parallel_categories"`
	} `yaml:"analysis"`

	Browser struct {
		RemoteURL string `yaml:"remote_url"`
		UserAgent string `yaml:"user_agent"`
	} `yaml:"browser"`

	Cache struct {
		Backend  string `yaml:"backend"`
		TTL      string `yaml:"ttl"`
		RedisURL string `yaml:"redis_url"`
	} `yaml:"cache"`

	Prompts Prompts `yaml:"prompts"`
}

// LoadConfigFile loads the YAML overlay at path.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// FindConfigFile searches for the overlay in the following order:
// 1. configPath, when given
// 2. ./stylecritic.yaml
// 3. $XDG_CONFIG_HOME/stylecritic/config.yaml
//
// It returns an empty string when nothing is found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	if cwd, err := os.Getwd(); err == nil {
		candidate := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	candidate := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return ""
}

// ConfigDir returns the per-user configuration directory.
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Apply copies the non-zero fields of f onto cfg.
func (f *File) Apply(cfg *Config) {
	setString(&cfg.LLMProvider, f.LLM.Provider)
	setString(&cfg.LLMModel, f.LLM.Model)
	setString(&cfg.LLMBaseURL, f.LLM.BaseURL)

	setDuration(cfg, "timeouts.navigation", &cfg.NavigationTimeout, f.Timeouts.Navigation)
	setDuration(cfg, "timeouts.generation", &cfg.GenerationTimeout, f.Timeouts.Generation)
	setDuration(cfg, "timeouts.request", &cfg.RequestTimeout, f.Timeouts.Request)

	if f.Retry.MaxAttempts > 0 {
		cfg.RetryMaxAttempts = f.Retry.MaxAttempts
	}
	setDuration(cfg, "retry.default_delay", &cfg.RetryDefaultDelay, f.Retry.DefaultDelay)
	setDuration(cfg, "retry.max_delay", &cfg.RetryMaxDelay, f.Retry.MaxDelay)

	if f.Analysis.MaxPromptChars > 0 {
		cfg.MaxPromptChars = f.Analysis.MaxPromptChars
	}
	setString(&cfg.ScoringMode, f.Analysis.ScoringMode)
	if f.Analysis.ParallelCategories != nil {
		cfg.ParallelCategories = *f.Analysis.ParallelCategories
	}

	setString(&cfg.ChromeRemoteURL, f.Browser.RemoteURL)
	setString(&cfg.ChromeUserAgent, f.Browser.UserAgent)

	setString(&cfg.CacheBackend, f.Cache.Backend)
	setDuration(cfg, "cache.ttl", &cfg.CacheTTL, f.Cache.TTL)
	setString(&cfg.RedisURL, f.Cache.RedisURL)

	setString(&cfg.Prompts.System, f.Prompts.System)
	setString(&cfg.Prompts.Overall, f.Prompts.Overall)
	setString(&cfg.Prompts.Category, f.Prompts.Category)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(cfg *Config, name string, dst *time.Duration, v string) {
	if v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		cfg.badDurations = append(cfg.badDurations, fmt.Sprintf("%s=%q", name, v))
		return
	}
	*dst = d
}
