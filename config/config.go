package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Scrape    ScrapeConfig
	Worker    WorkerConfig
	Store     StoreConfig
	Queue     QueueConfig
	Export    ExportConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// MaxPages is the page pool capacity (max concurrent tabs).
	MaxPages int // default: 5

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// DefaultProxy is the proxy URL for all browser traffic.
	DefaultProxy string

	// Stealth enables anti-detection JS injection on every page.
	Stealth bool // default: true
}

// ScrapeConfig controls per-task extraction behavior.
type ScrapeConfig struct {
	// TaskTimeout is the hard deadline for one whole task execution.
	TaskTimeout time.Duration // default: 180s

	// SelectorTimeout bounds each wait-for-selector step.
	SelectorTimeout time.Duration // default: 10s

	// TitleTimeout bounds the title chain, which runs first and absorbs
	// the initial render time.
	TitleTimeout time.Duration // default: 15s

	// SettleDelay is the pause after navigation, scrolls, and thumbnail
	// clicks, letting lazy-loaded content land.
	SettleDelay time.Duration // default: 1s

	// MaxImages caps how many gallery thumbnails are walked.
	MaxImages int // default: 5

	// CaptchaTimeout bounds the wait for external CAPTCHA resolution.
	// Zero fails immediately on detection.
	CaptchaTimeout time.Duration // default: 2m

	// CaptchaPoll is how often the page is re-checked during the wait.
	CaptchaPoll time.Duration // default: 5s

	// BlockedResourceTypes lists browser resource types to block.
	// Images are deliberately not blocked: the extractor reads gallery URLs.
	// default: ["Font", "Media"]
	BlockedResourceTypes []string
}

// WorkerConfig controls the dispatcher's worker pool.
type WorkerConfig struct {
	// Count is the number of concurrent workers, i.e. concurrent browser
	// sessions. default: 3
	Count int
}

// StoreConfig controls task/product/client persistence.
type StoreConfig struct {
	// PostgresDSN enables the Postgres store. Empty falls back to the
	// in-memory store (dev/test only).
	PostgresDSN string
}

// QueueConfig controls the job queue.
type QueueConfig struct {
	// RedisAddr enables the Redis queue. Empty falls back to the
	// in-process queue.
	RedisAddr string

	// Key is the Redis list the jobs live on.
	Key string // default: "harvest:jobs"
}

// ExportConfig controls the CSV secondary sink.
type ExportConfig struct {
	// CSVPath is the flat-file destination. Empty disables the sink.
	CSVPath string // default: "harvest_products.csv"
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: false

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 5

	// Burst is the maximum burst size per API key.
	Burst int // default: 10
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("HARVEST_HOST", "0.0.0.0"),
			Port: envIntOr("HARVEST_PORT", 8080),
			Mode: envOr("HARVEST_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:     envBoolOr("HARVEST_HEADLESS", true),
			MaxPages:     envIntOr("HARVEST_MAX_PAGES", 5),
			NoSandbox:    envBoolOr("HARVEST_NO_SANDBOX", false),
			BrowserBin:   os.Getenv("HARVEST_BROWSER_BIN"),
			DefaultProxy: os.Getenv("HARVEST_PROXY"),
			Stealth:      envBoolOr("HARVEST_STEALTH", true),
		},
		Scrape: ScrapeConfig{
			TaskTimeout:     envDurationOr("HARVEST_TASK_TIMEOUT", 180*time.Second),
			SelectorTimeout: envDurationOr("HARVEST_SELECTOR_TIMEOUT", 10*time.Second),
			TitleTimeout:    envDurationOr("HARVEST_TITLE_TIMEOUT", 15*time.Second),
			SettleDelay:     envDurationOr("HARVEST_SETTLE_DELAY", time.Second),
			MaxImages:       envIntOr("HARVEST_MAX_IMAGES", 5),
			CaptchaTimeout:  envDurationOr("HARVEST_CAPTCHA_TIMEOUT", 2*time.Minute),
			CaptchaPoll:     envDurationOr("HARVEST_CAPTCHA_POLL", 5*time.Second),
			BlockedResourceTypes: envSliceOr("HARVEST_BLOCKED_RESOURCES", []string{
				"Font", "Media",
			}),
		},
		Worker: WorkerConfig{
			Count: envIntOr("HARVEST_WORKERS", 3),
		},
		Store: StoreConfig{
			PostgresDSN: os.Getenv("HARVEST_POSTGRES_DSN"),
		},
		Queue: QueueConfig{
			RedisAddr: os.Getenv("HARVEST_REDIS_ADDR"),
			Key:       envOr("HARVEST_QUEUE_KEY", "harvest:jobs"),
		},
		Export: ExportConfig{
			CSVPath: envOr("HARVEST_CSV_PATH", "harvest_products.csv"),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("HARVEST_AUTH_ENABLED", false),
			APIKeys: envSliceOr("HARVEST_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("HARVEST_RATE_RPS", 5.0),
			Burst:             envIntOr("HARVEST_RATE_BURST", 10),
		},
		Log: LogConfig{
			Level:  envOr("HARVEST_LOG_LEVEL", "info"),
			Format: envOr("HARVEST_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
