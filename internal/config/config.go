package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // containers often ship without a zoneinfo database

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server ServerConfig `yaml:"server"`
	Source SourceConfig `yaml:"source"`
	Cache  CacheConfig  `yaml:"cache"`
	Auth   AuthConfig   `yaml:"auth"`
	Event  EventConfig  `yaml:"event"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port               int      `yaml:"port"`
	Host               string   `yaml:"host"`
	AllowedOrigins     []string `yaml:"allowed_origins"`
	RequestTimeoutSecs int      `yaml:"request_timeout_seconds"`
}

// GetHost returns the server host, with container detection
func (c ServerConfig) GetHost() string {
	// In a container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// Addr returns host:port for the listener.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.GetHost(), c.Port)
}

// RequestTimeout bounds a single API request, including the export download.
func (c ServerConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSecs) * time.Second
}

// SourceConfig says where the registration export lives.
type SourceConfig struct {
	Type string `yaml:"type"` // "file", "s3" or "url"
	Path string `yaml:"path"` // file source

	URL        string `yaml:"url"`
	URLToken   string `yaml:"url_token"`
	MaxRetries int    `yaml:"max_retries"`

	Bucket          string `yaml:"bucket"`
	Key             string `yaml:"key"`
	Region          string `yaml:"region"`
	AWSProfile      string `yaml:"aws_profile"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Endpoint        string `yaml:"endpoint"`
}

// CacheConfig controls the raw export cache.
type CacheConfig struct {
	Type       string `yaml:"type"` // "memory", "redis" or "none"
	TTLSeconds int    `yaml:"ttl_seconds"`
	RedisURL   string `yaml:"redis_url"`
	KeyPrefix  string `yaml:"key_prefix"`
	// FillLockSeconds is how long an instance waits for a peer that is already downloading
	// the export. Redis caches only; zero disables the lock.
	FillLockSeconds int `yaml:"fill_lock_seconds"`
}

// FillLockWait returns the peer-fill wait.
func (c CacheConfig) FillLockWait() time.Duration {
	return time.Duration(c.FillLockSeconds) * time.Second
}

// TTL returns the cache lifetime.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// AuthConfig holds the dashboard password gate settings
type AuthConfig struct {
	Password      string `yaml:"password"`
	SessionSecret string `yaml:"session_secret"`
	CookieName    string `yaml:"cookie_name"`
	CookieMaxAge  int    `yaml:"cookie_max_age"` // seconds
	SecureCookie  bool   `yaml:"secure_cookie"`
	MaxAttempts   int    `yaml:"max_attempts"`
	WindowMinutes int    `yaml:"window_minutes"`
	Store         string `yaml:"store"` // "memory" or "redis"
	RedisURL      string `yaml:"redis_url"`
}

// SessionTTL returns how long a session cookie stays valid.
func (c AuthConfig) SessionTTL() time.Duration {
	return time.Duration(c.CookieMaxAge) * time.Second
}

// Window returns the failed-attempt window.
func (c AuthConfig) Window() time.Duration {
	return time.Duration(c.WindowMinutes) * time.Minute
}

// EventConfig describes the event the dashboard reports on.
type EventConfig struct {
	Name     string `yaml:"name"`
	Timezone string `yaml:"timezone"`
}

// Location loads the configured zone used for weekly trend buckets.
func (c EventConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("event timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level     string `yaml:"level"`
	RedactPII *bool  `yaml:"redact_pii"`
}

// Redact reports whether PII redaction is on; it defaults to true.
func (c LogConfig) Redact() bool {
	return c.RedactPII == nil || *c.RedactPII
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	if cfg.Server.RequestTimeoutSecs == 0 {
		cfg.Server.RequestTimeoutSecs = 30
	}
	if cfg.Source.Type == "" {
		cfg.Source.Type = "file"
	}
	if cfg.Source.Path == "" {
		cfg.Source.Path = "data/registrations.csv"
	}
	if cfg.Source.MaxRetries == 0 {
		cfg.Source.MaxRetries = 3
	}
	if cfg.Source.Region == "" {
		cfg.Source.Region = "eu-west-1"
	}
	if cfg.Cache.Type == "" {
		cfg.Cache.Type = "memory"
	}
	if cfg.Cache.TTLSeconds == 0 {
		cfg.Cache.TTLSeconds = 300
	}
	if cfg.Cache.KeyPrefix == "" {
		cfg.Cache.KeyPrefix = "summit:"
	}
	if cfg.Auth.CookieName == "" {
		cfg.Auth.CookieName = "summit_session"
	}
	if cfg.Auth.CookieMaxAge == 0 {
		cfg.Auth.CookieMaxAge = 86400
	}
	if cfg.Auth.MaxAttempts == 0 {
		cfg.Auth.MaxAttempts = 5
	}
	if cfg.Auth.WindowMinutes == 0 {
		cfg.Auth.WindowMinutes = 15
	}
	if cfg.Auth.Store == "" {
		cfg.Auth.Store = "memory"
	}
	if cfg.Event.Timezone == "" {
		cfg.Event.Timezone = "Africa/Lagos"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars in production.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) applyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = splitList(v)
	}

	if v := os.Getenv("REGISTRATIONS_FILE"); v != "" {
		cfg.Source.Type = "file"
		cfg.Source.Path = v
	}
	if v := os.Getenv("REGISTRATIONS_S3_BUCKET"); v != "" {
		cfg.Source.Type = "s3"
		cfg.Source.Bucket = v
	}
	if v := os.Getenv("REGISTRATIONS_URL"); v != "" {
		cfg.Source.Type = "url"
		cfg.Source.URL = v
	}
	if v := os.Getenv("REGISTRATIONS_URL_TOKEN"); v != "" {
		cfg.Source.URLToken = v
	}
	if v := os.Getenv("REGISTRATIONS_S3_KEY"); v != "" {
		cfg.Source.Key = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		cfg.Source.Region = v
	}
	if v := os.Getenv("AWS_PROFILE_OVERRIDE"); v != "" {
		cfg.Source.AWSProfile = v
	}
	if v := os.Getenv("AWS_ACCESS_KEY_ID"); v != "" {
		cfg.Source.AccessKeyID = v
	}
	if v := os.Getenv("AWS_SECRET_ACCESS_KEY"); v != "" {
		cfg.Source.SecretAccessKey = v
	}
	if v := os.Getenv("S3_ENDPOINT"); v != "" {
		cfg.Source.Endpoint = v
	}

	// One Redis URL serves both the cache and the attempt store unless they set their own.
	if v := os.Getenv("REDIS_URL"); v != "" {
		if cfg.Cache.RedisURL == "" {
			cfg.Cache.RedisURL = v
		}
		if cfg.Auth.RedisURL == "" {
			cfg.Auth.RedisURL = v
		}
	}
	if v := os.Getenv("CACHE_TYPE"); v != "" {
		cfg.Cache.Type = v
	}

	if v := os.Getenv("DASHBOARD_PASSWORD"); v != "" {
		cfg.Auth.Password = v
	}
	if v := os.Getenv("SESSION_SECRET"); v != "" {
		cfg.Auth.SessionSecret = v
	}
	if v := os.Getenv("AUTH_STORE"); v != "" {
		cfg.Auth.Store = v
	}
	if v := os.Getenv("SECURE_COOKIE"); v != "" {
		secure, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("SECURE_COOKIE: %w", err)
		}
		cfg.Auth.SecureCookie = secure
	}

	if v := os.Getenv("EVENT_TIMEZONE"); v != "" {
		cfg.Event.Timezone = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	return nil
}

// Validate reports settings that would stop the server from working.
func (cfg *Config) Validate() error {
	var problems []string
	switch cfg.Source.Type {
	case "file":
		if cfg.Source.Path == "" {
			problems = append(problems, "source.path is required for a file source")
		}
	case "s3":
		if cfg.Source.Bucket == "" || cfg.Source.Key == "" {
			problems = append(problems, "source.bucket and source.key are required for an s3 source")
		}
	case "url":
		if cfg.Source.URL == "" {
			problems = append(problems, "source.url is required for a url source")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown source.type %q", cfg.Source.Type))
	}
	switch cfg.Cache.Type {
	case "memory", "none":
	case "redis":
		if cfg.Cache.RedisURL == "" {
			problems = append(problems, "cache.redis_url (or REDIS_URL) is required for a redis cache")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown cache.type %q", cfg.Cache.Type))
	}
	switch cfg.Auth.Store {
	case "memory":
	case "redis":
		if cfg.Auth.RedisURL == "" {
			problems = append(problems, "auth.redis_url (or REDIS_URL) is required for a redis attempt store")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown auth.store %q", cfg.Auth.Store))
	}
	if cfg.Auth.Password == "" {
		problems = append(problems, "auth.password (or DASHBOARD_PASSWORD) is required")
	}
	if _, err := cfg.Event.Location(); err != nil {
		problems = append(problems, err.Error())
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
