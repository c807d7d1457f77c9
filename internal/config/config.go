package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds server settings
type Config struct {
	Listen     string `yaml:"listen" json:"listen"`           // Address the HTTP server binds to
	DSN        string `yaml:"dsn" json:"dsn"`                 // postgres:// URL or SQLite file path
	UploadsDir string `yaml:"uploads_dir" json:"uploads_dir"` // Root directory for document storage
	BaseURL    string `yaml:"base_url" json:"base_url"`       // Public URL used in share emails

	// SMTP configuration for board share mails
	SMTPHost string `yaml:"smtp_host" json:"smtp_host"`
	SMTPPort string `yaml:"smtp_port" json:"smtp_port"`
	SMTPUser string `yaml:"smtp_user" json:"smtp_user"`
	SMTPPass string `yaml:"smtp_pass" json:"smtp_pass"`
	SMTPFrom string `yaml:"smtp_from" json:"smtp_from"`

	// AI assistant backend
	AIEndpoint string `yaml:"ai_endpoint" json:"ai_endpoint"` // Ollama generate URL
	AIModel    string `yaml:"ai_model" json:"ai_model"`

	// Logging configuration
	LogLevel   string `yaml:"log_level" json:"log_level"`     // Log level: DEBUG, INFO, WARN, ERROR
	LogFile    string `yaml:"log_file" json:"log_file"`       // Path to log file
	LogConsole bool   `yaml:"log_console" json:"log_console"` // Enable console logging
}

// DefaultConfig returns default settings
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	logPath := ""
	dbPath := "deeply.db"
	if home != "" {
		logPath = filepath.Join(home, ".deeply", "logs", "deeply.log")
		dbPath = filepath.Join(home, ".deeply", "deeply.db")
	}

	return &Config{
		Listen:     getEnv("DEEPLY_LISTEN", ":8002"),
		DSN:        getEnv("DEEPLY_DSN", dbPath),
		UploadsDir: getEnv("DEEPLY_UPLOADS_DIR", "uploads"),
		BaseURL:    getEnv("DEEPLY_BASE_URL", "http://localhost:8002"),
		SMTPHost:   getEnv("DEEPLY_SMTP_HOST", ""),
		SMTPPort:   getEnv("DEEPLY_SMTP_PORT", "587"),
		SMTPUser:   getEnv("DEEPLY_SMTP_USER", ""),
		SMTPPass:   getEnv("DEEPLY_SMTP_PASS", ""),
		SMTPFrom:   getEnv("DEEPLY_SMTP_FROM", ""),
		AIEndpoint: getEnv("DEEPLY_AI_ENDPOINT", "http://localhost:11434/api/generate"),
		AIModel:    getEnv("DEEPLY_AI_MODEL", "llama3.1"),
		LogLevel:   getEnv("DEEPLY_LOG_LEVEL", "INFO"),
		LogFile:    getEnv("DEEPLY_LOG_FILE", logPath),
		LogConsole: getEnv("DEEPLY_LOG_CONSOLE", "true") == "true",
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Load loads config from ~/.deeply/config.yaml
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	configPath := filepath.Join(home, ".deeply", "config.yaml")

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		// Return defaults if no config
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// Save saves config to ~/.deeply/config.yaml
func (c *Config) Save() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	configDir := filepath.Join(home, ".deeply")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configPath := filepath.Join(configDir, "config.yaml")
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
