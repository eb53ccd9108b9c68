package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dnovakovic099/secure-stay-server-sub003/pkg/logger"
	"github.com/dnovakovic099/secure-stay-server-sub003/pkg/utils"

	"go.uber.org/zap"
)

// Config holds all configuration settings
type Config struct {
	Server struct {
		Port int    `json:"port"`
		Host string `json:"host"`
	} `json:"server"`
	Database struct {
		DSN string `json:"dsn"`
	} `json:"database"`
	JWT struct {
		Secret      string        `json:"secret"`
		TokenExpiry time.Duration `json:"token_expiry"`
	} `json:"jwt"`
	Logging struct {
		Level string `json:"level"`
		Path  string `json:"path"`
	} `json:"logging"`
	OpenPhone struct {
		APIKey  string `json:"api_key"`
		BaseURL string `json:"base_url"`
	} `json:"openphone"`
	Hostify struct {
		APIKey  string `json:"api_key"`
		BaseURL string `json:"base_url"`
	} `json:"hostify"`
	OpenAI struct {
		APIKey string `json:"api_key"`
		Model  string `json:"model"`
	} `json:"openai"`
	Reservations struct {
		BaseURL  string `json:"base_url"`
		Timezone string `json:"timezone"`
	} `json:"reservations"`
	Scheduler struct {
		Enable   bool   `json:"enable"`
		CronSpec string `json:"cron_spec"`
	} `json:"scheduler"`
}

// LoadConfig loads configuration from a JSON file
func LoadConfig(path string) (*Config, error) {
	// Validate path to prevent directory traversal
	cleanPath := filepath.Clean(path)
	if !filepath.IsAbs(cleanPath) {
		return nil, fmt.Errorf("config path must be absolute")
	}

	// Check if file exists and is a regular file
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("config file error: %w", err)
	}
	if !fileInfo.Mode().IsRegular() {
		return nil, fmt.Errorf("config path is not a regular file")
	}

	file, err := os.Open(cleanPath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			logger.Warn("Failed to close config file", zap.Error(closeErr))
		}
	}()

	var config Config
	if err := json.NewDecoder(file).Decode(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// DecryptCredentials replaces the platform API keys with their decrypted
// values. Config files written by the provisioning tooling store keys
// AES-GCM encrypted; plain-text keys stay as-is when encKey is empty.
func (c *Config) DecryptCredentials(encKey string) error {
	if encKey == "" {
		return nil
	}

	fields := []*string{&c.OpenPhone.APIKey, &c.Hostify.APIKey, &c.OpenAI.APIKey}
	for _, f := range fields {
		decrypted, err := utils.DecryptAPIKey(*f, encKey)
		if err != nil {
			return fmt.Errorf("failed to decrypt credential: %w", err)
		}
		*f = decrypted
	}

	return nil
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	config := &Config{}
	config.Server.Port = 8080
	config.Server.Host = "localhost"
	config.Database.DSN = "file:securestay.db?cache=shared&mode=rwc"
	config.JWT.Secret = "your-secret-key" // This should be changed in production
	config.JWT.TokenExpiry = 24 * time.Hour
	config.Logging.Level = "info"
	config.Logging.Path = "server.log"
	config.OpenPhone.BaseURL = "https://api.openphone.com/v1"
	config.Hostify.BaseURL = "https://api-rms.hostify.com"
	config.OpenAI.Model = "gpt-4o-mini"
	config.Reservations.Timezone = "America/New_York"
	config.Scheduler.CronSpec = "5 0 * * *"
	return config
}
