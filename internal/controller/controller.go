// Package controller provides programmatic access to billing analysis and
// budget alerts. The web server, CLI, MCP server and Lambda handler all go
// through this package so that every surface behaves the same way.
package controller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/cloudcost-guard/internal/alerts"
	"github.com/cloudcost-guard/internal/analysis"
	"github.com/cloudcost-guard/internal/config"
	"github.com/cloudcost-guard/internal/credentials"
	"github.com/cloudcost-guard/internal/demo"
	"github.com/cloudcost-guard/internal/domain"
	"github.com/cloudcost-guard/internal/llm"
	"github.com/cloudcost-guard/internal/logging"
	"github.com/cloudcost-guard/internal/report"
)

// Controller provides programmatic access to analysis and alert APIs
type Controller struct {
	cfg      *config.Config
	logger   *logging.Logger
	provider llm.Provider
	analyzer *analysis.Analyzer
	sessions *credentials.SessionStore
	alerts   *alerts.Store
	ambient  credentials.Static

	providerSet bool
	ambientSet  bool
}

// Option configures a Controller
type Option func(*Controller)

// WithConfig uses cfg instead of the global configuration
func WithConfig(cfg *config.Config) Option {
	return func(c *Controller) {
		if cfg != nil {
			c.cfg = cfg
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *logging.Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

// WithProvider replaces the configured completion provider. A nil provider
// serves demo data only.
func WithProvider(p llm.Provider) Option {
	return func(c *Controller) {
		c.provider = p
		c.providerSet = true
	}
}

// WithAmbientKey overrides the process-level API key
func WithAmbientKey(key string) Option {
	return func(c *Controller) {
		c.ambient = credentials.Ambient(key)
		c.ambientSet = true
	}
}

// New creates a new Controller instance
func New(opts ...Option) *Controller {
	c := &Controller{}
	for _, opt := range opts {
		opt(c)
	}
	if c.cfg == nil {
		c.cfg = config.Get()
	}
	if !c.ambientSet {
		c.ambient = credentials.Ambient(c.cfg.LLM.APIKey)
	}

	if c.logger == nil {
		c.logger = NewLogger(c.cfg, "controller", nil)
	}

	if !c.providerSet {
		p, err := newProvider(c.cfg.LLM)
		if err != nil {
			c.logger.Warn("AI provider unavailable, serving demo data only: %v", err)
		} else {
			c.provider = p
		}
	}

	c.analyzer = analysis.New(c.provider, analysis.WithLogger(c.logger))
	c.sessions = credentials.NewSessionStore(c.cfg.Session.IdleTTL)
	c.alerts = alerts.NewStore(c.cfg.Alerts.StorePath, c.logger)
	return c
}

func newProvider(lc config.LLMConfig) (llm.Provider, error) {
	pt, err := llm.ParseProviderType(lc.Provider)
	if err != nil {
		return nil, err
	}
	return llm.New(llm.Config{
		Provider: pt,
		Model:    lc.Model,
		Endpoint: lc.Endpoint,
		Timeout:  lc.Timeout,
	})
}

// NewLogger builds a component logger from the logging configuration,
// falling back to the default logger when file output cannot be set up.
// Console output goes to out, or stdout when out is nil.
func NewLogger(cfg *config.Config, component string, out io.Writer) *logging.Logger {
	lc := cfg.Logging
	logger, err := logging.New(logging.Config{
		Level:       logging.ParseLevel(lc.Level),
		LogDir:      lc.LogDir,
		EnableFile:  lc.EnableFile,
		EnableJSON:  lc.EnableJSON,
		EnableColor: lc.EnableColor,
		Component:   component,
		Version:     cfg.UI.Version,
		Output:      out,
		Rolling: &logging.RollingConfig{
			LogDir:     lc.LogDir,
			MaxSize:    int64(lc.MaxSizeMB) * 1024 * 1024,
			MaxAge:     lc.MaxAgeDays,
			MaxBackups: lc.MaxBackups,
			Compress:   lc.Compress,
		},
	})
	if err != nil || logger == nil {
		// Fallback to default logger
		return logging.GetDefault()
	}
	return logger
}

// Close stops background work
func (c *Controller) Close() {
	c.sessions.Close()
}

// Config returns the configuration in use
func (c *Controller) Config() *config.Config {
	return c.cfg
}

// Logger returns the controller's logger
func (c *Controller) Logger() *logging.Logger {
	return c.logger
}

// ProviderName returns the configured AI provider, or "none"
func (c *Controller) ProviderName() string {
	if c.provider == nil {
		return "none"
	}
	return c.provider.Name()
}

// AnalyzeRequest represents a billing analysis request
type AnalyzeRequest struct {
	BillingData string `json:"billingData"`
	Currency    string `json:"currency,omitempty"`
	// APIKey is a key supplied with this request only (CLI flag)
	APIKey string `json:"-"`
	// SessionID looks up a manual key stored for a browser session
	SessionID string `json:"-"`
}

// AnalyzeResponse is the analysis outcome plus the display hints every
// surface needs.
type AnalyzeResponse struct {
	domain.AnalysisResponse
	Currency   domain.Currency `json:"currency"`
	Warning    string          `json:"warning,omitempty"`
	AnalyzedAt string          `json:"analyzedAt"`
}

// Analyze runs the analysis pipeline. It only fails on invalid input; every
// downstream failure degrades to demo data.
func (c *Controller) Analyze(ctx context.Context, req AnalyzeRequest) (*AnalyzeResponse, error) {
	startTime := time.Now()

	if strings.TrimSpace(req.BillingData) == "" {
		return nil, domain.NewValidationError("Billing data is required", "billingData")
	}
	if limit := c.cfg.Analysis.MaxInputBytes; limit > 0 && len(req.BillingData) > limit {
		return nil, domain.NewValidationError(fmt.Sprintf("Billing data exceeds %d bytes", limit), "billingData")
	}

	currencyCode := lo.Ternary(req.Currency == "", c.cfg.Analysis.DefaultCurrency, req.Currency)
	cur, err := domain.LookupCurrency(currencyCode)
	if err != nil {
		return nil, domain.NewValidationError(err.Error(), "currency")
	}

	cred := c.credentialChain(req).Resolve()
	c.logger.Info("Starting analysis: bytes=%d currency=%s credential=%s", len(req.BillingData), cur.Code, cred.Kind)

	resp := c.analyzer.Run(ctx, analysis.Request{
		BillingData:      req.BillingData,
		Credential:       cred.Value,
		CredentialSource: cred.Kind,
		Currency:         cur,
	})

	out := &AnalyzeResponse{
		AnalysisResponse: resp,
		Currency:         cur,
		AnalyzedAt:       time.Now().Format(time.RFC3339),
	}
	if resp.Source == domain.SourceDemo && cred.Present() {
		out.Warning = report.DegradedWarning(resp)
		if out.Warning == "" {
			out.Warning = "AI provider is not configured. Showing demo data instead."
		}
	}

	c.logger.WithFields(logging.Fields{
		"source":   resp.Source,
		"profile":  resp.Profile,
		"duration": time.Since(startTime).String(),
	}).Info("Analysis complete")
	return out, nil
}

func (c *Controller) credentialChain(req AnalyzeRequest) credentials.Chain {
	return credentials.Chain{
		credentials.Manual(req.APIKey),
		credentials.Session{Store: c.sessions, ID: req.SessionID},
		c.ambient,
	}
}

// KeyStatus reports which credential would be used for a session
type KeyStatus struct {
	Source     domain.CredentialKind `json:"source"`
	Configured bool                  `json:"configured"`
	Provider   string                `json:"provider"`
}

// KeyStatus resolves the credential chain for a session without exposing
// the key itself.
func (c *Controller) KeyStatus(sessionID string) KeyStatus {
	cred := c.credentialChain(AnalyzeRequest{SessionID: sessionID}).Resolve()
	return KeyStatus{Source: cred.Kind, Configured: cred.Present(), Provider: c.ProviderName()}
}

// SetSessionKey stores a manual key for a browser session. A blank key
// clears it.
func (c *Controller) SetSessionKey(sessionID, key string) error {
	if !credentials.ValidSessionID(sessionID) {
		return domain.NewValidationError("Invalid session", "session")
	}
	c.sessions.Set(sessionID, strings.TrimSpace(key))
	c.logger.Info("Session key %s", lo.Ternary(strings.TrimSpace(key) == "", "cleared", "stored"))
	return nil
}

// ClearSessionKey removes a session's manual key
func (c *Controller) ClearSessionKey(sessionID string) {
	c.sessions.Delete(sessionID)
}

// AlertSettings returns the persisted alert settings
func (c *Controller) AlertSettings() domain.AlertSettings {
	return c.alerts.Get()
}

// UpdateAlertSettings validates and persists new settings
func (c *Controller) UpdateAlertSettings(s domain.AlertSettings) (domain.AlertSettings, error) {
	return c.alerts.Update(s)
}

// UpdateAlertInput validates raw form values and persists them
func (c *Controller) UpdateAlertInput(budget, warning, critical string) (domain.AlertSettings, error) {
	return c.alerts.UpdateInput(budget, warning, critical)
}

// AlertStatus evaluates spend against the persisted settings
func (c *Controller) AlertStatus(spend float64) (domain.AlertStatus, error) {
	if math.IsNaN(spend) || math.IsInf(spend, 0) {
		return domain.AlertStatus{}, domain.NewValidationError("Spend must be a finite number", "spend")
	}
	if spend < 0 {
		return domain.AlertStatus{}, domain.NewValidationError("Spend must be non-negative", "spend")
	}
	return c.alerts.Status(spend), nil
}

// Sample returns sample billing data for the dashboard and CLI
func (c *Controller) Sample() string {
	return demo.SampleBillingData
}

// DemoProfile returns the named fallback dataset
func (c *Controller) DemoProfile(name string) (domain.AnalysisResult, error) {
	p, err := demo.ParseProfile(name)
	if err != nil {
		return domain.AnalysisResult{}, err
	}
	return demo.Get(p)
}

// DemoProfiles lists the available fallback profiles
func (c *Controller) DemoProfiles() []string {
	return lo.Map(demo.Profiles(), func(p demo.Profile, _ int) string { return string(p) })
}

// Currencies lists the supported display currencies
func (c *Controller) Currencies() []domain.Currency {
	return domain.SupportedCurrencies
}

// Export writes a result as CSV
func (c *Controller) Export(w io.Writer, result domain.AnalysisResult, currency string) (string, error) {
	cur, err := domain.LookupCurrency(currency)
	if err != nil {
		return "", domain.NewValidationError(err.Error(), "currency")
	}
	if err := report.WriteCSV(w, result, cur); err != nil {
		return "", err
	}
	return report.ExportFilename(cur), nil
}

// IsValidation reports whether err is a user input error
func IsValidation(err error) bool {
	return errors.Is(err, domain.ErrInvalidInput)
}
