// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppName names the config directory under XDG_CONFIG_HOME.
const AppName = "stylecritic"

const (
	ScoringHeuristic = "heuristic"
	ScoringRandom    = "random"

	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

var (
	ErrAPIKeyMissing       = errors.New("generation API key is not set")
	ErrUnknownProvider     = errors.New("unknown LLM provider")
	ErrInvalidScoringMode  = errors.New("invalid scoring mode")
	ErrInvalidCacheBackend = errors.New("invalid cache backend")
	ErrRedisURLMissing     = errors.New("REDIS_URL is required for the redis cache backend")
	ErrInvalidDuration     = errors.New("invalid duration")
)

// Prompts holds the text sent to the generation service. {{css}} and
// {{category}} are substituted per call.
type Prompts struct {
	System   string `yaml:"system"`
	Overall  string `yaml:"overall"`
	Category string `yaml:"category"`
}

// Config 存储应用配置
type Config struct {
	Port      string
	DebugMode bool
	LogDir    string
	LogLevel  string
	StaticDir string

	LLMProvider string
	LLMAPIKey   string
	LLMModel    string
	LLMBaseURL  string

	NavigationTimeout time.Duration
	GenerationTimeout time.Duration
	RequestTimeout    time.Duration

	MaxPromptChars     int
	RetryMaxAttempts   int
	RetryDefaultDelay  time.Duration
	RetryMaxDelay      time.Duration
	ScoringMode        string
	ParallelCategories bool

	ChromeRemoteURL string
	ChromeUserAgent string

	CacheBackend string
	CacheTTL     time.Duration
	RedisURL     string

	RateLimitPerMinute int

	Prompts Prompts

	// ConfigFile is the YAML overlay that was applied, if any.
	ConfigFile string

	// badDurations names the settings whose values did not parse; Validate reports them.
	badDurations []string
}

// KnownProviders lists the provider names Validate accepts.
var KnownProviders = []string{"openai", "anthropic"}

// NewConfig returns a Config populated with defaults only.
func NewConfig() *Config {
	return &Config{
		Port:               "8080",
		DebugMode:          false,
		LogDir:             "logs",
		LogLevel:           "info",
		StaticDir:          "static",
		LLMProvider:        "openai",
		LLMModel:           "gpt-3.5-turbo",
		NavigationTimeout:  30 * time.Second,
		GenerationTimeout:  60 * time.Second,
		RequestTimeout:     5 * time.Minute,
		MaxPromptChars:     4096,
		RetryMaxAttempts:   5,
		RetryDefaultDelay:  20 * time.Second,
		RetryMaxDelay:      2 * time.Minute,
		ScoringMode:        ScoringHeuristic,
		ParallelCategories: false,
		CacheBackend:       CacheNone,
		CacheTTL:           30 * time.Minute,
		RateLimitPerMinute: 10,
		Prompts:            DefaultPrompts(),
	}
}

// DefaultPrompts returns the built-in prompt set.
func DefaultPrompts() Prompts {
	return Prompts{
		System: "You are an AI trained to analyze CSS.",
		Overall: `Please provide a detailed analysis of the following categories based on the provided CSS code:

1. Color Scheme: Identify the primary and secondary colors used and assess their harmony and contrast.
2. Typography: Identify the font families used and evaluate their readability and suitability for the website's purpose.
3. Layout and Spacing: Describe the overall layout and spacing used in the design.
4. Design Principles: Identify any prominent design principles evident in the CSS code.
5. Imagery and Graphics: Evaluate the quality and relevance of the imagery and graphics used.

CSS Code:
{{css}}`,
		Category: "Analyze the {{category}} used in this CSS: {{css}}",
	}
}

// Load 从环境变量加载配置
func Load() (*Config, error) {
	return load(FindConfigFile(os.Getenv("CONFIG_FILE")))
}

// LoadFrom is Load with an explicit overlay path that must exist.
func LoadFrom(path string) (*Config, error) {
	if path == "" {
		return Load()
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("load config file %s: %w", path, ErrConfigNotFound)
	}
	return load(path)
}

func load(path string) (*Config, error) {
	// 尝试加载.env文件（可选）
	_ = godotenv.Load()

	cfg := NewConfig()

	if path != "" {
		file, err := LoadConfigFile(path)
		if err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
		file.Apply(cfg)
		cfg.ConfigFile = path
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.DebugMode = getEnvBool("DEBUG_MODE", cfg.DebugMode)
	cfg.LogDir = getEnv("LOG_DIR", cfg.LogDir)
	cfg.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", cfg.LogLevel))
	cfg.StaticDir = getEnv("STATIC_DIR", cfg.StaticDir)

	cfg.LLMProvider = strings.ToLower(getEnv("LLM_PROVIDER", cfg.LLMProvider))
	cfg.LLMModel = getEnv("LLM_MODEL", cfg.LLMModel)
	cfg.LLMBaseURL = getEnv("LLM_BASE_URL", cfg.LLMBaseURL)
	cfg.LLMAPIKey = getEnv("LLM_API_KEY", cfg.LLMAPIKey)
	if cfg.LLMAPIKey == "" {
		cfg.LLMAPIKey = os.Getenv(providerKeyEnv(cfg.LLMProvider))
	}

	cfg.envDuration("NAVIGATION_TIMEOUT", &cfg.NavigationTimeout)
	cfg.envDuration("GENERATION_TIMEOUT", &cfg.GenerationTimeout)
	cfg.envDuration("REQUEST_TIMEOUT", &cfg.RequestTimeout)

	cfg.MaxPromptChars = getEnvInt("MAX_PROMPT_CHARS", cfg.MaxPromptChars)
	cfg.RetryMaxAttempts = getEnvInt("RETRY_MAX_ATTEMPTS", cfg.RetryMaxAttempts)
	cfg.envDuration("RETRY_DEFAULT_DELAY", &cfg.RetryDefaultDelay)
	cfg.envDuration("RETRY_MAX_DELAY", &cfg.RetryMaxDelay)
	cfg.ScoringMode = strings.ToLower(getEnv("SCORING_MODE", cfg.ScoringMode))
	cfg.ParallelCategories = getEnvBool("PARALLEL_CATEGORIES", cfg.ParallelCategories)

	cfg.ChromeRemoteURL = getEnv("CHROME_REMOTE_URL", cfg.ChromeRemoteURL)
	cfg.ChromeUserAgent = getEnv("CHROME_USER_AGENT", cfg.ChromeUserAgent)

	cfg.CacheBackend = strings.ToLower(getEnv("CACHE_BACKEND", cfg.CacheBackend))
	cfg.envDuration("CACHE_TTL", &cfg.CacheTTL)
	cfg.RedisURL = getEnv("REDIS_URL", cfg.RedisURL)

	cfg.RateLimitPerMinute = getEnvInt("RATE_LIMIT_PER_MINUTE", cfg.RateLimitPerMinute)
}

// providerKeyEnv maps a provider to its conventional API key variable.
func providerKeyEnv(provider string) string {
	switch provider {
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	default:
		return "OPENAI_API_KEY"
	}
}

// Validate checks settings that must be right before the server accepts traffic.
func (c *Config) Validate() error {
	if len(c.badDurations) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidDuration, strings.Join(c.badDurations, ", "))
	}

	known := false
	for _, p := range KnownProviders {
		if c.LLMProvider == p {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("%w: %q", ErrUnknownProvider, c.LLMProvider)
	}

	if c.LLMAPIKey == "" {
		return fmt.Errorf("%w: set LLM_API_KEY or %s", ErrAPIKeyMissing, providerKeyEnv(c.LLMProvider))
	}

	switch c.ScoringMode {
	case ScoringHeuristic, ScoringRandom:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidScoringMode, c.ScoringMode)
	}

	switch c.CacheBackend {
	case CacheNone, CacheMemory:
	case CacheRedis:
		if c.RedisURL == "" {
			return ErrRedisURLMissing
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidCacheBackend, c.CacheBackend)
	}

	if c.MaxPromptChars <= 0 {
		return fmt.Errorf("MAX_PROMPT_CHARS must be positive, got %d", c.MaxPromptChars)
	}
	if c.RetryMaxAttempts <= 0 {
		return fmt.Errorf("RETRY_MAX_ATTEMPTS must be positive, got %d", c.RetryMaxAttempts)
	}
	return nil
}

// getEnv 获取环境变量，如果不存在则返回默认值
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvBool 获取布尔类型环境变量
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	return value == "true" || value == "1" || value == "yes"
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

// envDuration accepts Go duration strings ("45s") or bare seconds ("45").
// Anything else leaves dst alone and is recorded for Validate.
func (c *Config) envDuration(key string, dst *time.Duration) {
	value := os.Getenv(key)
	if value == "" {
		return
	}
	if d, err := time.ParseDuration(value); err == nil {
		*dst = d
		return
	}
	if secs, err := strconv.Atoi(value); err == nil {
		*dst = time.Duration(secs) * time.Second
		return
	}
	c.badDurations = append(c.badDurations, fmt.Sprintf("%s=%q", key, value))
}
