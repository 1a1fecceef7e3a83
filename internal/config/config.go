package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Host      string  `yaml:"host"`
	APIKey    string  `yaml:"api_key"`
	Insecure  bool    `yaml:"insecure"`
	LogLevel  string  `yaml:"log_level"`
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`
}

// Load loads configuration from multiple sources with precedence:
// 1. Environment variables
// 2. ./.env.local (dotenv) - walks up parent directories to find it
// 3. ~/.config/mbswitch/config.yaml (YAML)
func Load() (*Config, error) {
	cfg := &Config{
		LogLevel:  "info",
		RateLimit: 10,
		RateBurst: 5,
	}

	// Load .env.local if it exists (walking up parent directories)
	if envPath := findEnvLocal(); envPath != "" {
		_ = godotenv.Load(envPath)
	}

	// YAML config is optional
	_ = loadYAMLConfig(cfg)

	// Override with environment variables
	if host := os.Getenv("MBSWITCH_HOST"); host != "" {
		cfg.Host = host
	}
	if apiKey := getEnvOrFile("MBSWITCH_API_KEY", "MBSWITCH_API_KEY_FILE"); apiKey != "" {
		cfg.APIKey = apiKey
	}
	if insecure := os.Getenv("MBSWITCH_INSECURE"); insecure != "" {
		cfg.Insecure = insecure == "1" || insecure == "true"
	}
	if logLevel := os.Getenv("MBSWITCH_LOG_LEVEL"); logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if rateLimit := os.Getenv("MBSWITCH_RATE_LIMIT"); rateLimit != "" {
		if v, err := strconv.ParseFloat(rateLimit, 64); err == nil && v > 0 {
			cfg.RateLimit = v
		}
	}

	return cfg, nil
}

// loadYAMLConfig loads configuration from ~/.config/mbswitch/config.yaml
func loadYAMLConfig(cfg *Config) error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(homeDir, ".config", "mbswitch", "config.yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

// getEnvOrFile gets an environment variable value, or reads it from a file
// if the _FILE variant is set
func getEnvOrFile(envVar, fileVar string) string {
	if val := os.Getenv(envVar); val != "" {
		return val
	}

	if filePath := os.Getenv(fileVar); filePath != "" {
		data, err := os.ReadFile(filePath)
		if err == nil {
			return string(data)
		}
	}

	return ""
}

// findEnvLocal searches for .env.local starting from cwd and walking up
// parent directories. Stops at the user's home directory.
// Returns the path to .env.local if found, empty string otherwise.
func findEnvLocal() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		// If we can't get home dir, just check cwd
		if _, err := os.Stat(".env.local"); err == nil {
			return ".env.local"
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	// Clean paths for reliable comparison
	homeDir = filepath.Clean(homeDir)
	dir := filepath.Clean(cwd)

	for {
		envPath := filepath.Join(dir, ".env.local")
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}

		// Stop if we've reached home directory
		if dir == homeDir {
			break
		}

		// Get parent directory
		parent := filepath.Dir(dir)

		// Stop if we've reached the filesystem root
		if parent == dir {
			break
		}

		dir = parent
	}

	return ""
}
