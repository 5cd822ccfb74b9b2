package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const defaultAPIURL = "https://api.videoindexer.ai"

type Config struct {
	// Server settings
	ServerPort   string        `json:"server_port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
	Debug        bool          `json:"debug"`

	LogDir   string `json:"log_dir"`
	LogLevel string `json:"log_level"`
	LogJSON  bool   `json:"log_json"`

	Indexer   IndexerConfig   `json:"indexer"`
	CORS      CORSConfig      `json:"cors"`
	RateLimit RateLimitConfig `json:"rate_limit"`

	Version string `json:"version"`

	RequestTimeout  time.Duration `json:"request_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
}

// IndexerConfig holds the account credentials and transport settings for the
// remote indexing service.
type IndexerConfig struct {
	SubscriptionKey string `json:"-"`
	AccountID       string `json:"account_id"`
	Location        string `json:"location"`

	BaseURL           string        `json:"base_url"`
	StreamingPreset   string        `json:"streaming_preset"`
	HTTPTimeout       time.Duration `json:"http_timeout"`
	DefaultRetryAfter time.Duration `json:"default_retry_after"`
	RequestsPerSecond float64       `json:"requests_per_second"`
	PollInterval      time.Duration `json:"poll_interval"`
}

type CORSConfig struct {
	Enabled          bool     `json:"enabled"`
	AllowedOrigins   []string `json:"allowed_origins"`
	AllowedMethods   []string `json:"allowed_methods"`
	AllowedHeaders   []string `json:"allowed_headers"`
	ExposedHeaders   []string `json:"exposed_headers"`
	AllowCredentials bool     `json:"allow_credentials"`
	MaxAge           int      `json:"max_age"`
}

type RateLimitConfig struct {
	Enabled           bool `json:"enabled"`
	RequestsPerMinute int  `json:"requests_per_minute"`
	BurstSize         int  `json:"burst_size"`
}

// Load reads configuration from environment variables. When CONFIG_FILE
// names a TOML file, its values serve as defaults.
func Load() (*Config, error) {
	file, err := loadFile(getEnv("CONFIG_FILE", ""))
	if err != nil {
		return nil, err
	}
	pollInterval, err := orDefaultDuration(file.Indexer.PollInterval, 10*time.Second)
	if err != nil {
		return nil, errors.Wrap(err, "indexer.poll_interval")
	}

	cfg := &Config{
		ServerPort:   getEnv("SERVER_PORT", orDefault(file.ServerPort, "8080")),
		ReadTimeout:  getEnvAsDuration("READ_TIMEOUT", 15*time.Second),
		WriteTimeout: getEnvAsDuration("WRITE_TIMEOUT", 2*time.Minute+15*time.Second),
		IdleTimeout:  getEnvAsDuration("IDLE_TIMEOUT", 60*time.Second),
		Debug:        getEnvAsBool("DEBUG", false),

		LogDir:   getEnv("LOG_DIR", orDefault(file.LogDir, "/var/log/vindex")),
		LogLevel: getEnv("LOG_LEVEL", orDefault(file.LogLevel, "info")),
		LogJSON:  getEnvAsBool("LOG_JSON", false),

		Version: getEnv("VERSION", "1.0.0"),

		RequestTimeout:  getEnvAsDuration("REQUEST_TIMEOUT", 2*time.Minute),
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		Indexer: IndexerConfig{
			SubscriptionKey:   getEnv("SUBSCRIPTION_KEY", file.Indexer.SubscriptionKey),
			AccountID:         getEnv("ACCOUNT_ID", file.Indexer.AccountID),
			Location:          getEnv("LOCATION", orDefault(file.Indexer.Location, "trial")),
			BaseURL:           getEnv("INDEXER_BASE_URL", orDefault(file.Indexer.BaseURL, defaultAPIURL)),
			StreamingPreset:   getEnv("STREAMING_PRESET", orDefault(file.Indexer.StreamingPreset, "Default")),
			HTTPTimeout:       getEnvAsDuration("INDEXER_HTTP_TIMEOUT", 30*time.Second),
			DefaultRetryAfter: getEnvAsDuration("INDEXER_DEFAULT_RETRY_AFTER", 1*time.Second),
			RequestsPerSecond: getEnvAsFloat("INDEXER_RPS", 0),
			PollInterval:      getEnvAsDuration("INDEXER_POLL_INTERVAL", pollInterval),
		},

		CORS: CORSConfig{
			Enabled:        getEnvAsBool("CORS_ENABLED", true),
			AllowedOrigins: getEnvAsStringSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvAsStringSlice(
				"CORS_ALLOWED_METHODS",
				[]string{"GET", "POST", "OPTIONS"},
			),
			AllowedHeaders:   getEnvAsStringSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type"}),
			ExposedHeaders:   getEnvAsStringSlice("CORS_EXPOSED_HEADERS", []string{}),
			AllowCredentials: getEnvAsBool("CORS_ALLOW_CREDENTIALS", false),
			MaxAge:           getEnvAsInt("CORS_MAX_AGE", 86400),
		},

		RateLimit: RateLimitConfig{
			Enabled:           getEnvAsBool("RATE_LIMIT_ENABLED", true),
			RequestsPerMinute: getEnvAsInt("RATE_LIMIT_RPM", 60),
			BurstSize:         getEnvAsInt("RATE_LIMIT_BURST", 10),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.ServerPort == "" {
		return errors.New("server port is required")
	}
	if err := validateTimeouts(c); err != nil {
		return err
	}
	return c.Indexer.Validate()
}

// Validate checks that the credentials needed by every indexer call are set.
func (c IndexerConfig) Validate() error {
	if c.SubscriptionKey == "" {
		return errors.New("subscription key is required")
	}
	if c.AccountID == "" {
		return errors.New("account id is required")
	}
	if c.Location == "" {
		return errors.New("location is required")
	}
	if c.BaseURL == "" {
		return errors.New("indexer base url is required")
	}
	if c.HTTPTimeout <= 0 {
		return errors.New("indexer http timeout must be positive")
	}
	if c.DefaultRetryAfter < 0 {
		return errors.New("default retry-after must not be negative")
	}
	if c.RequestsPerSecond < 0 {
		return errors.New("indexer requests per second must not be negative")
	}
	if c.PollInterval <= 0 {
		return errors.New("poll interval must be positive")
	}
	return nil
}

func validateTimeouts(c *Config) error {
	timeouts := []struct {
		value time.Duration
		name  string
	}{
		{c.ReadTimeout, "read timeout"},
		{c.WriteTimeout, "write timeout"},
		{c.IdleTimeout, "idle timeout"},
		{c.RequestTimeout, "request timeout"},
	}

	for _, t := range timeouts {
		if t.value <= 0 {
			return errors.Errorf("%s must be positive", t.name)
		}
	}

	// The server drops a response still being produced at the write
	// deadline, so it must outlast the handler's own deadline.
	if c.WriteTimeout <= c.RequestTimeout {
		return errors.Errorf("write timeout (%s) must exceed request timeout (%s)", c.WriteTimeout, c.RequestTimeout)
	}
	return nil
}

// Helper functions for reading environment variables
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		warnInvalid(key, value, defaultValue, "Invalid integer, using default")
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
		warnInvalid(key, value, defaultValue, "Invalid number, using default")
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
		warnInvalid(key, value, defaultValue, "Invalid boolean, using default")
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		warnInvalid(key, value, defaultValue, "Invalid duration, using default")
	}
	return defaultValue
}

func getEnvAsStringSlice(key string, defaultValue []string) []string {
	if value, exists := os.LookupEnv(key); exists {
		if value = strings.TrimSpace(value); value != "" {
			return strings.Split(value, ",")
		}
	}
	return defaultValue
}

func warnInvalid(key, value string, defaultValue interface{}, msg string) {
	logrus.WithFields(logrus.Fields{
		"key":          key,
		"value":        value,
		"defaultValue": defaultValue,
	}).Warn(msg)
}
