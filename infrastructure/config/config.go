package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string `yaml:"server_address"`
	Environment   string `yaml:"environment"`

	// Lambda configuration
	IsLambda           bool   `yaml:"is_lambda"`
	LambdaFunctionName string `yaml:"-"`

	// Logging
	LogLevel string `yaml:"log_level"`

	// Collaborators
	Collaborators CollaboratorConfig `yaml:"collaborators"`

	// Rate limiting of instruction requests, per client
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	// Recommendation cache sweep interval
	CacheSweepInterval time.Duration `yaml:"cache_sweep_interval"`

	// Speech capability
	TranscriptFile string `yaml:"transcript_file"`

	// Feature flags
	EnableMetrics bool     `yaml:"enable_metrics"`
	EnableTracing bool     `yaml:"enable_tracing"`
	EnableCORS    bool     `yaml:"enable_cors"`
	CORSOrigins   []string `yaml:"cors_origins"`

	// LoadedFrom lists the sources that contributed, lowest priority first.
	LoadedFrom []string `yaml:"-"`
}

// CollaboratorConfig locates the backend collaborators.
type CollaboratorConfig struct {
	BaseURL      string        `yaml:"base_url"`
	Timeout      time.Duration `yaml:"timeout"`
	MusicTimeout time.Duration `yaml:"music_timeout"`
	Breaker      BreakerConfig `yaml:"breaker"`
}

// BreakerConfig tunes the circuit breaker in front of each collaborator.
type BreakerConfig struct {
	MaxRequests         uint32        `yaml:"max_requests"`
	Interval            time.Duration `yaml:"interval"`
	OpenTimeout         time.Duration `yaml:"open_timeout"`
	ConsecutiveFailures uint32        `yaml:"consecutive_failures"`
}

// RateLimitConfig bounds requests per window.
type RateLimitConfig struct {
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

func defaultConfig() *Config {
	return &Config{
		ServerAddress: ":8080",
		Environment:   "development",
		LogLevel:      "info",
		Collaborators: CollaboratorConfig{
			BaseURL:      "http://localhost:8000",
			Timeout:      60 * time.Second,
			MusicTimeout: 120 * time.Second,
			Breaker: BreakerConfig{
				MaxRequests:         1,
				Interval:            time.Minute,
				OpenTimeout:         30 * time.Second,
				ConsecutiveFailures: 5,
			},
		},
		RateLimit: RateLimitConfig{
			Requests: 30,
			Window:   time.Minute,
		},
		CacheSweepInterval: time.Minute,
		EnableMetrics:      true,
		EnableCORS:         true,
		CORSOrigins:        []string{"*"},
	}
}

// LoadConfig loads configuration from defaults, an optional YAML file and
// environment variables, in increasing priority. The file is taken from
// JAMFLOW_CONFIG_FILE, or config/{environment}.yaml when that exists.
func LoadConfig() (*Config, error) {
	cfg := defaultConfig()
	cfg.LoadedFrom = []string{"defaults"}
	cfg.Environment = getEnv("ENVIRONMENT", cfg.Environment)

	path := os.Getenv("JAMFLOW_CONFIG_FILE")
	if path == "" {
		path = filepath.Join("config", strings.ToLower(cfg.Environment)+".yaml")
		if _, err := os.Stat(path); err != nil {
			path = ""
		}
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
		cfg.LoadedFrom = append(cfg.LoadedFrom, path)
	}

	cfg.applyEnv()
	cfg.LoadedFrom = append(cfg.LoadedFrom, "environment")

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Load is an alias for LoadConfig for backwards compatibility
func Load() (*Config, error) {
	return LoadConfig()
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.ServerAddress = getEnv("SERVER_ADDRESS", c.ServerAddress)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)

	// Lambda configuration
	c.LambdaFunctionName = getEnv("AWS_LAMBDA_FUNCTION_NAME", c.LambdaFunctionName)
	c.IsLambda = getEnvBool("IS_LAMBDA", c.IsLambda || c.LambdaFunctionName != "")

	c.Collaborators.BaseURL = getEnv("COLLABORATOR_BASE_URL", c.Collaborators.BaseURL)
	c.Collaborators.Timeout = getEnvDuration("COLLABORATOR_TIMEOUT", c.Collaborators.Timeout)
	c.Collaborators.MusicTimeout = getEnvDuration("MUSIC_TIMEOUT", c.Collaborators.MusicTimeout)
	c.Collaborators.Breaker.OpenTimeout = getEnvDuration("BREAKER_OPEN_TIMEOUT", c.Collaborators.Breaker.OpenTimeout)
	c.Collaborators.Breaker.ConsecutiveFailures = uint32(getEnvInt("BREAKER_FAILURES", int(c.Collaborators.Breaker.ConsecutiveFailures)))

	c.RateLimit.Requests = getEnvInt("RATE_LIMIT_REQUESTS", c.RateLimit.Requests)
	c.RateLimit.Window = getEnvDuration("RATE_LIMIT_WINDOW", c.RateLimit.Window)
	c.CacheSweepInterval = getEnvDuration("CACHE_SWEEP_INTERVAL", c.CacheSweepInterval)
	c.TranscriptFile = getEnv("TRANSCRIPT_FILE", c.TranscriptFile)

	c.EnableMetrics = getEnvBool("ENABLE_METRICS", c.EnableMetrics)
	c.EnableTracing = getEnvBool("ENABLE_TRACING", c.EnableTracing)
	c.EnableCORS = getEnvBool("ENABLE_CORS", c.EnableCORS)
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		c.CORSOrigins = strings.Split(origins, ",")
	}
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate limit must allow at least one request per positive window")
	}
	if c.Collaborators.Timeout <= 0 {
		return fmt.Errorf("COLLABORATOR_TIMEOUT must be positive")
	}
	if c.IsProduction() {
		if c.Collaborators.BaseURL == "" {
			return fmt.Errorf("COLLABORATOR_BASE_URL is required in production")
		}
		if strings.HasPrefix(c.Collaborators.BaseURL, "http://localhost") {
			return fmt.Errorf("COLLABORATOR_BASE_URL must not point at localhost in production")
		}
	}

	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go duration strings ("30s") or whole seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
