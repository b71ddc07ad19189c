package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"lan-stream/internal/lan"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Port             string        `yaml:"port"`
	MaxHistory       int           `yaml:"max_history"`
	UploadPath       string        `yaml:"upload_path"`
	HostURL          string        `yaml:"host_url"`
	StaticDir        string        `yaml:"static_dir"`
	MaxUploadMB      int           `yaml:"max_upload_mb"`
	MaxMessageTokens int           `yaml:"max_message_tokens"`
	CleanupAsync     bool          `yaml:"cleanup_async"`
	RedisAddr        string        `yaml:"redis_addr"`
	RedisPassword    string        `yaml:"redis_password"`
	QRCacheTTL       time.Duration `yaml:"qr_cache_ttl"`
	LogLevel         string        `yaml:"log_level"`
}

// ------------------------------------------------------------------------------------------------------
func defaults() *Config {
	return &Config{
		Port:             "8080",
		MaxHistory:       10,
		UploadPath:       "uploads",
		StaticDir:        "static",
		MaxUploadMB:      10,
		MaxMessageTokens: 4096,
		CleanupAsync:     true,
		QRCacheTTL:       time.Hour,
		LogLevel:         "info",
	}
}

// ------------------------------------------------------------------------------------------------------
// Load reads defaults, then the YAML file named by CONFIG_FILE, then the
// environment (including a .env file), each layer overriding the last.
func Load() (*Config, error) {
	_ = godotenv.Load()
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if cfg.HostURL == "" {
		cfg.HostURL = lan.HostURL(cfg.Port)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ------------------------------------------------------------------------------------------------------
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

// ------------------------------------------------------------------------------------------------------
func (c *Config) applyEnv() {
	c.Port = getEnv("PORT", c.Port)
	c.MaxHistory = getEnvAsInt("MAX_HISTORY", c.MaxHistory)
	c.UploadPath = getEnv("UPLOAD_PATH", c.UploadPath)
	c.HostURL = getEnv("HOST_URL", c.HostURL)
	c.StaticDir = getEnv("STATIC_DIR", c.StaticDir)
	c.MaxUploadMB = getEnvAsInt("MAX_UPLOAD_MB", c.MaxUploadMB)
	c.MaxMessageTokens = getEnvAsInt("MAX_MESSAGE_TOKENS", c.MaxMessageTokens)
	c.CleanupAsync = getEnvAsBool("CLEANUP_ASYNC", c.CleanupAsync)
	c.RedisAddr = getEnv("REDIS_ADDR", c.RedisAddr)
	c.RedisPassword = getEnv("REDIS_PASSWORD", c.RedisPassword)
	c.QRCacheTTL = getEnvAsDuration("QR_CACHE_TTL", c.QRCacheTTL)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
}

// ------------------------------------------------------------------------------------------------------
// Validate rejects settings the relay cannot start with
func (c *Config) Validate() error {
	if c.MaxHistory <= 0 {
		return fmt.Errorf("MAX_HISTORY must be at least 1, got %d", c.MaxHistory)
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be at least 1, got %d", c.MaxUploadMB)
	}
	if c.UploadPath == "" {
		return fmt.Errorf("UPLOAD_PATH is required")
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("PORT must be numeric, got %q", c.Port)
	}
	return nil
}

// ------------------------------------------------------------------------------------------------------
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// ------------------------------------------------------------------------------------------------------
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// ------------------------------------------------------------------------------------------------------
func getEnvAsBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

// ------------------------------------------------------------------------------------------------------
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}
