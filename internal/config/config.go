package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/qrlink/internal/domain"
	"github.com/MrSnakeDoc/qrlink/internal/qr"
)

const (
	StoreSQLite = "sqlite"
	StoreMemory = "memory"

	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

type Config struct {
	ListenPort      string        `yaml:"listen_port"`      // ex: ":8080"
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // ex: 5s
	RequestTimeout  time.Duration `yaml:"request_timeout"`  // per-request handler timeout
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`   // limit for /api/generate bodies

	LogLevel  string `yaml:"log_level"`  // "debug" | "info" | "warn" | "error"
	PrettyLog bool   `yaml:"pretty_log"` // true => zap dev (color), false => zap prod (JSON)

	StoreDriver string `yaml:"store_driver"` // "sqlite" | "memory"
	SQLiteFile  string `yaml:"sqlite_file"`  // path to the database file

	PublicBaseURL   string `yaml:"public_base_url"`  // optional, ex: https://qr.domain.ext
	DisplayTimezone string `yaml:"display_timezone"` // IANA zone for expired pages
	ShortIDLength   int    `yaml:"short_id_length"`
	ShortIDAttempts int    `yaml:"short_id_attempts"` // allocation retries on collision

	RepairInterval time.Duration `yaml:"repair_interval"` // periodic expiration repair while serving, 0 = off

	CacheDriver string        `yaml:"cache_driver"` // "none" | "memory" | "redis"
	CacheTTL    time.Duration `yaml:"cache_ttl"`

	Redis Redis `yaml:"redis"`

	QR qr.Options `yaml:"qr"` // default render options

	AllowedHosts []string `yaml:"allowed_hosts"` // optional, restrict access to specific Host headers
	AllowedCIDRS []string `yaml:"allowed_cidrs"` // optional, restrict health endpoints to these networks
	TrustProxy   bool     `yaml:"trust_proxy"`   // true => trust X-Forwarded-* headers
}

// Redis holds connection settings, used only with the redis cache driver.
type Redis struct {
	Addr           string        `yaml:"addr"`
	User           string        `yaml:"username"`
	Password       string        `yaml:"password"`
	DB             int           `yaml:"db"`
	DialTimeout    time.Duration `yaml:"dial_timeout"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	PoolSize       int           `yaml:"pool_size"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"` // total time to retry connecting
	RetryInterval  time.Duration `yaml:"retry_interval"`  // initial wait, grows exponentially
	MaxWait        time.Duration `yaml:"max_wait"`        // cap between retries
	PingTimeout    time.Duration `yaml:"ping_timeout"`
	WarnThreshold  int           `yaml:"warn_threshold"` // warn after this many attempts
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ListenPort:      ":8080",
		ShutdownTimeout: 5 * time.Second,
		RequestTimeout:  15 * time.Second,
		MaxBodyBytes:    64 << 10,

		LogLevel:  "info",
		PrettyLog: true,

		StoreDriver: StoreSQLite,
		SQLiteFile:  "qrlink.db",

		DisplayTimezone: "UTC",
		ShortIDLength:   domain.DefaultShortIDLength,
		ShortIDAttempts: 5,

		CacheDriver: CacheMemory,
		CacheTTL:    10 * time.Minute,

		Redis: Redis{
			Addr:           "localhost:6379",
			User:           "default",
			DialTimeout:    5 * time.Second,
			ReadTimeout:    3 * time.Second,
			WriteTimeout:   3 * time.Second,
			PoolSize:       10,
			ConnectTimeout: 30 * time.Second,
			RetryInterval:  2 * time.Second,
			MaxWait:        10 * time.Second,
			PingTimeout:    5 * time.Second,
			WarnThreshold:  3,
		},

		QR: qr.Options{}.WithDefaults(),
	}
}

// Load builds the configuration: defaults, then the YAML file (path, or
// QRLINK_CONFIG_FILE when path is empty), then QRLINK_* environment
// variables. A .env file in the working directory is loaded first and never
// overrides variables already set.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	cfg := Default()

	if path == "" {
		path = os.Getenv("QRLINK_CONFIG_FILE")
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		log.Printf("[DEBUG] cfg: %+v\n", cfg.Redacted())
	}

	return cfg, nil
}

func loadDotEnv() error {
	file := getenv("QRLINK_ENV_FILE", ".env")
	if _, err := os.Stat(file); err != nil {
		if errors.Is(err, os.ErrNotExist) && os.Getenv("QRLINK_ENV_FILE") == "" {
			return nil
		}
		return fmt.Errorf("env file %s: %w", file, err)
	}
	if err := godotenv.Load(file); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", file, err)
	}
	return nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	// Server settings
	c.ListenPort = getenv("QRLINK_LISTEN_PORT", c.ListenPort)
	c.ShutdownTimeout = mustDuration("QRLINK_SHUTDOWN_TIMEOUT", c.ShutdownTimeout)
	c.RequestTimeout = mustDuration("QRLINK_REQUEST_TIMEOUT", c.RequestTimeout)
	c.MaxBodyBytes = int64(getenvInt("QRLINK_MAX_BODY_BYTES", int(c.MaxBodyBytes)))

	// Logging
	c.LogLevel = getenv("QRLINK_LOG_LEVEL", c.LogLevel)
	c.PrettyLog = mustBool("QRLINK_PRETTY_LOG", c.PrettyLog)

	// Storage
	c.StoreDriver = strings.ToLower(getenv("QRLINK_STORE_DRIVER", c.StoreDriver))
	c.SQLiteFile = getenv("QRLINK_SQLITE_FILE", c.SQLiteFile)

	// Links
	c.PublicBaseURL = getenv("QRLINK_PUBLIC_BASE_URL", c.PublicBaseURL)
	c.DisplayTimezone = getenv("QRLINK_DISPLAY_TIMEZONE", c.DisplayTimezone)
	c.ShortIDLength = getenvInt("QRLINK_SHORT_ID_LENGTH", c.ShortIDLength)
	c.ShortIDAttempts = getenvInt("QRLINK_SHORT_ID_ATTEMPTS", c.ShortIDAttempts)
	c.RepairInterval = mustDuration("QRLINK_REPAIR_INTERVAL", c.RepairInterval)

	// Cache
	c.CacheDriver = strings.ToLower(getenv("QRLINK_CACHE_DRIVER", c.CacheDriver))
	c.CacheTTL = mustDuration("QRLINK_CACHE_TTL", c.CacheTTL)

	// Redis settings
	c.Redis.Addr = getenv("QRLINK_REDIS_ADDR", c.Redis.Addr)
	c.Redis.User = getenv("QRLINK_REDIS_USERNAME", c.Redis.User)
	c.Redis.Password = getenv("QRLINK_REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getenvInt("QRLINK_REDIS_DB", c.Redis.DB)
	c.Redis.DialTimeout = mustDuration("QRLINK_REDIS_DIAL_TIMEOUT", c.Redis.DialTimeout)
	c.Redis.ReadTimeout = mustDuration("QRLINK_REDIS_READ_TIMEOUT", c.Redis.ReadTimeout)
	c.Redis.WriteTimeout = mustDuration("QRLINK_REDIS_WRITE_TIMEOUT", c.Redis.WriteTimeout)
	c.Redis.PoolSize = getenvInt("QRLINK_REDIS_POOL_SIZE", c.Redis.PoolSize)
	c.Redis.ConnectTimeout = mustDuration("QRLINK_REDIS_CONNECT_TIMEOUT", c.Redis.ConnectTimeout)
	c.Redis.RetryInterval = mustDuration("QRLINK_REDIS_RETRY_INTERVAL", c.Redis.RetryInterval)
	c.Redis.MaxWait = mustDuration("QRLINK_REDIS_MAX_WAIT", c.Redis.MaxWait)
	c.Redis.PingTimeout = mustDuration("QRLINK_REDIS_PING_TIMEOUT", c.Redis.PingTimeout)
	c.Redis.WarnThreshold = getenvInt("QRLINK_REDIS_WARN_THRESHOLD", c.Redis.WarnThreshold)

	// Render defaults
	c.QR.Size = getenvInt("QRLINK_QR_SIZE", c.QR.Size)
	c.QR.Dark = getenv("QRLINK_QR_DARK", c.QR.Dark)
	c.QR.Light = getenv("QRLINK_QR_LIGHT", c.QR.Light)
	c.QR.ErrorCorrection = getenv("QRLINK_QR_ERROR_CORRECTION", c.QR.ErrorCorrection)

	// Access restrictions
	if v := os.Getenv("QRLINK_ALLOWED_HOSTS"); v != "" {
		c.AllowedHosts = splitAndTrim(v)
	}
	if v := os.Getenv("QRLINK_ALLOWED_CIDRS"); v != "" {
		c.AllowedCIDRS = parseAllowedIPs(v)
	}
	c.TrustProxy = mustBool("QRLINK_TRUST_PROXY", c.TrustProxy)
}

// Validate enforces cross-field rules.
func (c *Config) Validate() error {
	var errs []error

	switch c.StoreDriver {
	case StoreSQLite:
		if strings.TrimSpace(c.SQLiteFile) == "" {
			errs = append(errs, errors.New("sqlite_file is required with the sqlite store"))
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", c.StoreDriver))
	}

	switch c.CacheDriver {
	case CacheNone, CacheMemory:
	case CacheRedis:
		if c.Redis.Addr == "" {
			errs = append(errs, errors.New("redis addr is required with the redis cache"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown cache driver %q", c.CacheDriver))
	}

	if c.ShortIDLength < 4 || c.ShortIDLength > 64 {
		errs = append(errs, fmt.Errorf("short_id_length must be between 4 and 64, got %d", c.ShortIDLength))
	}
	if c.ShortIDAttempts < 1 {
		errs = append(errs, fmt.Errorf("short_id_attempts must be >= 1, got %d", c.ShortIDAttempts))
	}
	if c.MaxBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("max_body_bytes must be > 0, got %d", c.MaxBodyBytes))
	}
	if c.RepairInterval < 0 {
		errs = append(errs, fmt.Errorf("repair_interval must be >= 0, got %v", c.RepairInterval))
	}
	if c.ShutdownTimeout <= 0 || c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("shutdown_timeout and request_timeout must be > 0"))
	}

	if _, err := time.LoadLocation(c.DisplayTimezone); err != nil {
		errs = append(errs, fmt.Errorf("display_timezone: %w", err))
	}

	if c.PublicBaseURL != "" {
		u, err := url.Parse(c.PublicBaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("public_base_url must be an absolute http(s) URL, got %q", c.PublicBaseURL))
		}
	}

	if err := c.QR.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("qr defaults: %w", err))
	}

	return errors.Join(errs...)
}

// Location returns the display timezone, UTC when it cannot be loaded.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.DisplayTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Redacted returns a copy safe to log.
func (c *Config) Redacted() Config {
	cp := *c
	if cp.Redis.Password != "" {
		cp.Redis.Password = "***REDACTED***"
	}
	if cp.Redis.User != "" {
		cp.Redis.User = "***REDACTED***"
	}
	return cp
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
