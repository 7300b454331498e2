// Package config provides centralized configuration management
// for cloudcost-guard. It supports loading from YAML files, environment
// variables, and AWS Secrets Manager (for Lambda).
package config

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	LLM      LLMConfig      `yaml:"llm"`
	Session  SessionConfig  `yaml:"session"`
	Alerts   AlertsConfig   `yaml:"alerts"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Logging  LoggingConfig  `yaml:"logging"`
	UI       UIConfig       `yaml:"ui"`
}

// ServerConfig holds server-related settings
type ServerConfig struct {
	Port               int           `yaml:"port"`
	ReadTimeout        time.Duration `yaml:"read_timeout"`
	WriteTimeout       time.Duration `yaml:"write_timeout"`
	RateLimitPerMinute int           `yaml:"rate_limit_per_minute"`
	MaxBodyBytes       int64         `yaml:"max_body_bytes"`
}

// LLMConfig holds settings for the remote text completion service
type LLMConfig struct {
	Provider string        `yaml:"provider"`
	Model    string        `yaml:"model"`
	Endpoint string        `yaml:"endpoint"`
	APIKey   string        `yaml:"api_key"`
	Timeout  time.Duration `yaml:"timeout"`
}

// SessionConfig holds settings for browser sessions carrying manual API keys
type SessionConfig struct {
	CookieName string        `yaml:"cookie_name"`
	IdleTTL    time.Duration `yaml:"idle_ttl"`
}

// AlertsConfig holds budget alert persistence settings
type AlertsConfig struct {
	StorePath string `yaml:"store_path"`
}

// AnalysisConfig holds analysis-related settings
type AnalysisConfig struct {
	DefaultCurrency string `yaml:"default_currency"`
	MaxInputBytes   int    `yaml:"max_input_bytes"`
}

// LoggingConfig holds logging-related settings
type LoggingConfig struct {
	Level       string `yaml:"level"`
	EnableFile  bool   `yaml:"enable_file"`
	EnableJSON  bool   `yaml:"enable_json"`
	EnableColor bool   `yaml:"enable_color"`
	LogDir      string `yaml:"log_dir"`
	MaxSizeMB   int    `yaml:"max_size_mb"`
	MaxBackups  int    `yaml:"max_backups"`
	MaxAgeDays  int    `yaml:"max_age_days"`
	Compress    bool   `yaml:"compress"`
}

// UIConfig holds UI-related settings
type UIConfig struct {
	Version string `yaml:"version"`
	Theme   string `yaml:"theme"`
}

var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:               8000,
			ReadTimeout:        30 * time.Second,
			WriteTimeout:       90 * time.Second,
			RateLimitPerMinute: 30,
			MaxBodyBytes:       1 << 20,
		},
		LLM: LLMConfig{
			Provider: "gemini",
			Model:    "gemini-2.5-flash",
			Timeout:  60 * time.Second,
		},
		Session: SessionConfig{
			CookieName: "cc_session",
			IdleTTL:    8 * time.Hour,
		},
		Alerts: AlertsConfig{
			StorePath: filepath.Join("data", "alert-settings.json"),
		},
		Analysis: AnalysisConfig{
			DefaultCurrency: "USD",
			MaxInputBytes:   256 * 1024,
		},
		Logging: LoggingConfig{
			Level:       "info",
			EnableFile:  true,
			EnableJSON:  true,
			EnableColor: true,
			LogDir:      "logs",
			MaxSizeMB:   100,
			MaxBackups:  3,
			MaxAgeDays:  7,
			Compress:    true,
		},
		UI: UIConfig{
			Version: "1.0.0",
			Theme:   "light",
		},
	}
}

// Get returns the global configuration (singleton)
func Get() *Config {
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig = DefaultConfig()
		loadConfigFile(globalConfig)
		loadEnvOverrides(globalConfig)
	})
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}

// Reload reloads the configuration from file
func Reload() error {
	cfg := DefaultConfig()
	loadConfigFile(cfg)
	loadEnvOverrides(cfg)

	configOnce.Do(func() {})
	configMu.Lock()
	defer configMu.Unlock()
	globalConfig = cfg
	return nil
}

// Set replaces the global configuration, used by tests and embedders
func Set(cfg *Config) {
	configOnce.Do(func() {})
	configMu.Lock()
	defer configMu.Unlock()
	globalConfig = cfg
}

// LoadFile reads a YAML file on top of the defaults and applies
// environment overrides.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	loadEnvOverrides(cfg)
	return cfg, nil
}

// loadConfigFile loads configuration from config.yaml
func loadConfigFile(cfg *Config) {
	// Try multiple paths for config file
	paths := []string{
		"config.yaml",
		"config.yml",
		filepath.Join(getExecutableDir(), "config.yaml"),
		filepath.Join(getExecutableDir(), "config.yml"),
	}
	if p := os.Getenv("CLOUDCOST_CONFIG"); p != "" {
		paths = append([]string{p}, paths...)
	}

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			continue
		}
		break
	}
}

// loadEnvOverrides applies environment variable overrides
func loadEnvOverrides(cfg *Config) {
	if port := os.Getenv("CLOUDCOST_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}

	if provider := os.Getenv("LLM_PROVIDER"); provider != "" {
		cfg.LLM.Provider = strings.ToLower(provider)
	}
	if model := os.Getenv("LLM_MODEL"); model != "" {
		cfg.LLM.Model = model
	}
	if endpoint := os.Getenv("LLM_ENDPOINT"); endpoint != "" {
		cfg.LLM.Endpoint = endpoint
	}
	if timeout := os.Getenv("LLM_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			cfg.LLM.Timeout = d
		}
	}

	if path := os.Getenv("ALERTS_STORE_PATH"); path != "" {
		cfg.Alerts.StorePath = path
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}

	// Lambda detection - adjust settings for Lambda environment
	if IsLambda() {
		cfg.Logging.EnableFile = false
		cfg.Logging.EnableColor = false
		cfg.Alerts.StorePath = filepath.Join("/tmp", "cloudcost-guard", "alert-settings.json")

		loadAPIKeyFromSecretsManager(cfg)
	}

	// Environment variables take precedence over Secrets Manager
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		cfg.LLM.APIKey = key
	}
	if key := os.Getenv("API_KEY"); key != "" {
		cfg.LLM.APIKey = key
	}
}

// APIKeySecretPayload represents the secret structure in AWS Secrets Manager
type APIKeySecretPayload struct {
	APIKey       string `json:"API_KEY"`
	GeminiAPIKey string `json:"GEMINI_API_KEY"`
}

// loadAPIKeyFromSecretsManager loads the AI API key from AWS Secrets Manager.
// This is only called when running in Lambda.
func loadAPIKeyFromSecretsManager(cfg *Config) {
	secretName := os.Getenv("API_KEY_SECRET_NAME")
	if secretName == "" {
		secretName = "cloudcost-guard/api-key"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		// Demo mode stays available without the secret
		return
	}

	client := secretsmanager.NewFromConfig(awsCfg)

	result, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: &secretName,
	})
	if err != nil || result.SecretString == nil {
		return
	}

	cfg.LLM.APIKey = parseSecret(*result.SecretString)
}

// parseSecret accepts either a JSON payload or the bare key. A payload
// without a known key field is treated as the bare key.
func parseSecret(secret string) string {
	secret = strings.TrimSpace(secret)
	var payload APIKeySecretPayload
	if err := json.Unmarshal([]byte(secret), &payload); err != nil {
		return secret
	}
	if key := strings.TrimSpace(payload.APIKey); key != "" {
		return key
	}
	if key := strings.TrimSpace(payload.GeminiAPIKey); key != "" {
		return key
	}
	return secret
}

// getExecutableDir returns the directory containing the executable
func getExecutableDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// IsLambda returns true if running in AWS Lambda
func IsLambda() bool {
	return os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""
}
