package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	// Server config
	if cfg.Server.Port != 8000 {
		t.Errorf("Server.Port = %v, want 8000", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 30*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want 30s", cfg.Server.ReadTimeout)
	}

	// LLM config
	if cfg.LLM.Provider != "gemini" {
		t.Errorf("LLM.Provider = %v, want gemini", cfg.LLM.Provider)
	}
	if cfg.LLM.Model != "gemini-2.5-flash" {
		t.Errorf("LLM.Model = %v, want gemini-2.5-flash", cfg.LLM.Model)
	}
	if cfg.LLM.APIKey != "" {
		t.Error("LLM.APIKey should be empty by default")
	}

	// Session config
	if cfg.Session.CookieName != "cc_session" {
		t.Errorf("Session.CookieName = %v, want cc_session", cfg.Session.CookieName)
	}

	// Alerts config
	if cfg.Alerts.StorePath != filepath.Join("data", "alert-settings.json") {
		t.Errorf("Alerts.StorePath = %v", cfg.Alerts.StorePath)
	}

	// Analysis config
	if cfg.Analysis.DefaultCurrency != "USD" {
		t.Errorf("Analysis.DefaultCurrency = %v, want USD", cfg.Analysis.DefaultCurrency)
	}

	// Logging config
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %v, want info", cfg.Logging.Level)
	}
}

func TestGetReturnsDefaultIfNotLoaded(t *testing.T) {
	// Reset global config
	globalConfig = nil
	configOnce = sync.Once{}

	cfg := Get()
	if cfg == nil {
		t.Fatal("Get() returned nil")
	}
	if cfg.Session.IdleTTL != 8*time.Hour {
		t.Errorf("Session.IdleTTL = %v, want 8h", cfg.Session.IdleTTL)
	}
}

func TestLoadFileAppliesYAMLOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  port: 9090
llm:
  provider: ollama
  model: llama3
alerts:
  store_path: /var/lib/cc/alerts.json
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %v, want 9090", cfg.Server.Port)
	}
	if cfg.LLM.Provider != "ollama" || cfg.LLM.Model != "llama3" {
		t.Errorf("LLM = %+v", cfg.LLM)
	}
	if cfg.Alerts.StorePath != "/var/lib/cc/alerts.json" {
		t.Errorf("Alerts.StorePath = %v", cfg.Alerts.StorePath)
	}
	// Untouched sections keep defaults
	if cfg.Session.CookieName != "cc_session" {
		t.Errorf("Session.CookieName = %v, want cc_session", cfg.Session.CookieName)
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("LoadFile() should fail for a missing file")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "")
	t.Setenv("CLOUDCOST_PORT", "7777")
	t.Setenv("LLM_PROVIDER", "OpenAI")
	t.Setenv("LLM_TIMEOUT", "5s")
	t.Setenv("GEMINI_API_KEY", "gemini-key")
	t.Setenv("API_KEY", "")
	t.Setenv("ALERTS_STORE_PATH", "alerts.json")

	cfg := DefaultConfig()
	loadEnvOverrides(cfg)

	if cfg.Server.Port != 7777 {
		t.Errorf("Server.Port = %v, want 7777", cfg.Server.Port)
	}
	if cfg.LLM.Provider != "openai" {
		t.Errorf("LLM.Provider = %v, want openai", cfg.LLM.Provider)
	}
	if cfg.LLM.Timeout != 5*time.Second {
		t.Errorf("LLM.Timeout = %v, want 5s", cfg.LLM.Timeout)
	}
	if cfg.LLM.APIKey != "gemini-key" {
		t.Errorf("LLM.APIKey = %v, want gemini-key", cfg.LLM.APIKey)
	}
	if cfg.Alerts.StorePath != "alerts.json" {
		t.Errorf("Alerts.StorePath = %v", cfg.Alerts.StorePath)
	}
}

func TestAPIKeyTakesPrecedence(t *testing.T) {
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "")
	t.Setenv("GEMINI_API_KEY", "gemini-key")
	t.Setenv("API_KEY", "primary-key")

	cfg := DefaultConfig()
	loadEnvOverrides(cfg)
	if cfg.LLM.APIKey != "primary-key" {
		t.Errorf("LLM.APIKey = %v, want primary-key", cfg.LLM.APIKey)
	}
}

func TestParseSecret(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		want   string
	}{
		{"json payload", `{"API_KEY":"abc"}`, "abc"},
		{"bare key", "  abc123 \n", "abc123"},
		{"gemini field", `{"GEMINI_API_KEY":"gem-key"}`, "gem-key"},
		{"api key wins", `{"API_KEY":"abc","GEMINI_API_KEY":"gem-key"}`, "abc"},
		{"empty api key falls through", `{"API_KEY":"","GEMINI_API_KEY":"gem-key"}`, "gem-key"},
		{"no known field", `{"token":"x"}`, `{"token":"x"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseSecret(tt.secret); got != tt.want {
				t.Errorf("parseSecret() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsLambda(t *testing.T) {
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "")
	if IsLambda() {
		t.Error("IsLambda() = true without AWS_LAMBDA_FUNCTION_NAME")
	}
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "cloudcost-guard")
	if !IsLambda() {
		t.Error("IsLambda() = false with AWS_LAMBDA_FUNCTION_NAME set")
	}
}

func TestSetReplacesGlobal(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.Port = 1234
	Set(cfg)
	if Get().Server.Port != 1234 {
		t.Errorf("Get().Server.Port = %v, want 1234", Get().Server.Port)
	}
	Set(DefaultConfig())
}
