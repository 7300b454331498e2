package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/cloudcost-guard/internal/config"
	"github.com/cloudcost-guard/internal/credentials"
	"github.com/cloudcost-guard/internal/demo"
	"github.com/cloudcost-guard/internal/domain"
	"github.com/cloudcost-guard/internal/logging"
)

type stubProvider struct {
	text string
	err  error
	keys []string
}

func (s *stubProvider) Name() string { return "stub/test" }

func (s *stubProvider) Complete(ctx context.Context, apiKey, prompt string) (string, error) {
	s.keys = append(s.keys, apiKey)
	return s.text, s.err
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Logging.EnableFile = false
	cfg.Alerts.StorePath = filepath.Join(t.TempDir(), "alert-settings.json")
	cfg.LLM.APIKey = ""
	return cfg
}

func newTestController(t *testing.T, opts ...Option) *Controller {
	t.Helper()
	base := []Option{WithConfig(testConfig(t)), WithLogger(logging.Discard())}
	ctrl := New(append(base, opts...)...)
	t.Cleanup(ctrl.Close)
	return ctrl
}

func liveText(t *testing.T, p demo.Profile) string {
	t.Helper()
	data, err := json.Marshal(demo.MustGet(p))
	if err != nil {
		t.Fatal(err)
	}
	return "Here is the analysis:\n```json\n" + string(data) + "\n```"
}

func TestNewController(t *testing.T) {
	ctrl := newTestController(t)
	if ctrl.cfg == nil {
		t.Error("Controller config should not be nil")
	}
	if ctrl.logger == nil {
		t.Error("Controller logger should not be nil")
	}
	if got := ctrl.ProviderName(); got != "gemini/gemini-2.5-flash" {
		t.Errorf("ProviderName() = %q, want gemini/gemini-2.5-flash", got)
	}
}

func TestNewControllerUnknownProvider(t *testing.T) {
	cfg := testConfig(t)
	cfg.LLM.Provider = "bard"
	ctrl := New(WithConfig(cfg), WithLogger(logging.Discard()), WithAmbientKey("k"))
	defer ctrl.Close()

	if got := ctrl.ProviderName(); got != "none" {
		t.Errorf("ProviderName() = %q, want none", got)
	}
	resp, err := ctrl.Analyze(context.Background(), AnalyzeRequest{BillingData: demo.SampleBillingData})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Source != domain.SourceDemo {
		t.Errorf("Source = %v, want demo", resp.Source)
	}
	if resp.Warning == "" {
		t.Error("configured key without a provider should warn")
	}
}

func TestAnalyzeValidation(t *testing.T) {
	ctrl := newTestController(t, WithProvider(nil))
	ctrl.cfg.Analysis.MaxInputBytes = 64

	tests := []struct {
		name  string
		req   AnalyzeRequest
		field string
	}{
		{"empty", AnalyzeRequest{BillingData: "  \n"}, "billingData"},
		{"too large", AnalyzeRequest{BillingData: strings.Repeat("x", 65)}, "billingData"},
		{"unknown currency", AnalyzeRequest{BillingData: "Service,Cost", Currency: "XYZ"}, "currency"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ctrl.Analyze(context.Background(), tt.req)
			if !IsValidation(err) {
				t.Fatalf("Analyze() error = %v, want validation error", err)
			}
			var verr *domain.ValidationError
			if !errors.As(err, &verr) || verr.Fields[0] != tt.field {
				t.Errorf("error fields = %v, want %s", err, tt.field)
			}
		})
	}
}

func TestAnalyzeWithoutCredential(t *testing.T) {
	provider := &stubProvider{text: liveText(t, demo.ProfileStartup)}
	ctrl := newTestController(t, WithProvider(provider))

	resp, err := ctrl.Analyze(context.Background(), AnalyzeRequest{BillingData: demo.SampleBillingData, Currency: "eur"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Source != domain.SourceDemo || resp.Reason != domain.ReasonNoCredential {
		t.Errorf("Source/Reason = %v/%v, want demo/no_credential", resp.Source, resp.Reason)
	}
	if resp.Warning != "" {
		t.Errorf("Warning = %q, want none without a credential", resp.Warning)
	}
	if resp.Currency.Code != "EUR" {
		t.Errorf("Currency = %v, want EUR", resp.Currency)
	}
	if len(provider.keys) != 0 {
		t.Error("provider called without a credential")
	}
	_, want := demo.Select(demo.SampleBillingData)
	if !reflect.DeepEqual(resp.Result, want) {
		t.Error("result differs from the selector's choice")
	}
}

func TestAnalyzeLive(t *testing.T) {
	provider := &stubProvider{text: liveText(t, demo.ProfileStartup)}
	ctrl := newTestController(t, WithProvider(provider), WithAmbientKey("env-key"))

	resp, err := ctrl.Analyze(context.Background(), AnalyzeRequest{BillingData: demo.SampleBillingData})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Source != domain.SourceLive {
		t.Fatalf("Source = %v, want live", resp.Source)
	}
	if resp.CredentialSource != domain.CredentialEnv {
		t.Errorf("CredentialSource = %v, want env", resp.CredentialSource)
	}
	if !reflect.DeepEqual(resp.Result, demo.MustGet(demo.ProfileStartup)) {
		t.Error("live result not normalized to the returned dataset")
	}
	if resp.Currency.Code != "USD" {
		t.Errorf("Currency = %v, want the configured default", resp.Currency)
	}
}

func TestAnalyzeDegradedWarning(t *testing.T) {
	provider := &stubProvider{text: "sorry, I cannot help with that"}
	ctrl := newTestController(t, WithProvider(provider), WithAmbientKey("env-key"))

	resp, err := ctrl.Analyze(context.Background(), AnalyzeRequest{BillingData: demo.SampleBillingData})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Source != domain.SourceDemo || resp.Reason != domain.ReasonMalformedPayload {
		t.Errorf("Source/Reason = %v/%v", resp.Source, resp.Reason)
	}
	if resp.Warning == "" {
		t.Error("degraded response with a credential must carry a warning")
	}
}

func TestCredentialPrecedence(t *testing.T) {
	provider := &stubProvider{err: errors.New("offline")}
	ctrl := newTestController(t, WithProvider(provider), WithAmbientKey("env-key"))

	session := credentials.NewSessionID()
	if err := ctrl.SetSessionKey(session, " session-key "); err != nil {
		t.Fatal(err)
	}
	if got := ctrl.KeyStatus(session); got.Source != domain.CredentialManual || !got.Configured {
		t.Errorf("KeyStatus() = %+v, want manual", got)
	}
	if got := ctrl.KeyStatus(""); got.Source != domain.CredentialEnv {
		t.Errorf("KeyStatus(no session) = %+v, want env", got)
	}

	ctx := context.Background()
	ctrl.Analyze(ctx, AnalyzeRequest{BillingData: "x", SessionID: session})
	ctrl.Analyze(ctx, AnalyzeRequest{BillingData: "x", SessionID: session, APIKey: "flag-key"})
	ctrl.ClearSessionKey(session)
	ctrl.Analyze(ctx, AnalyzeRequest{BillingData: "x", SessionID: session})

	want := []string{"session-key", "flag-key", "env-key"}
	if !reflect.DeepEqual(provider.keys, want) {
		t.Errorf("keys used = %v, want %v", provider.keys, want)
	}
}

func TestSetSessionKeyRejectsInvalidSession(t *testing.T) {
	ctrl := newTestController(t, WithProvider(nil))
	if err := ctrl.SetSessionKey("not-a-uuid", "k"); !IsValidation(err) {
		t.Errorf("SetSessionKey() error = %v, want validation error", err)
	}
}

func TestAlertSettings(t *testing.T) {
	ctrl := newTestController(t, WithProvider(nil))

	if got := ctrl.AlertSettings(); got != domain.DefaultAlertSettings() {
		t.Errorf("AlertSettings() = %+v, want defaults", got)
	}
	if _, err := ctrl.UpdateAlertInput("5000", "90", "80"); !IsValidation(err) {
		t.Errorf("UpdateAlertInput() error = %v, want validation error", err)
	}
	if got := ctrl.AlertSettings(); got != domain.DefaultAlertSettings() {
		t.Error("rejected update changed settings")
	}

	status, err := ctrl.AlertStatus(4500)
	if err != nil {
		t.Fatal(err)
	}
	if status.Level != domain.AlertCritical {
		t.Errorf("AlertStatus(4500) = %v, want critical at 90%%", status.Level)
	}
	for _, spend := range []float64{-1, math.NaN(), math.Inf(1), math.Inf(-1)} {
		if _, err := ctrl.AlertStatus(spend); !IsValidation(err) {
			t.Errorf("AlertStatus(%v) error = %v, want validation error", spend, err)
		}
	}
}

func TestDemoProfiles(t *testing.T) {
	ctrl := newTestController(t, WithProvider(nil))
	names := ctrl.DemoProfiles()
	if len(names) != len(demo.Profiles()) {
		t.Fatalf("DemoProfiles() = %v", names)
	}
	for _, name := range names {
		if _, err := ctrl.DemoProfile(name); err != nil {
			t.Errorf("DemoProfile(%q) error: %v", name, err)
		}
	}
	if _, err := ctrl.DemoProfile("nope"); !errors.Is(err, domain.ErrUnknownProfile) {
		t.Errorf("DemoProfile(nope) error = %v", err)
	}
}

func TestExport(t *testing.T) {
	ctrl := newTestController(t, WithProvider(nil))

	var buf bytes.Buffer
	name, err := ctrl.Export(&buf, demo.MustGet(demo.ProfileSmall), "JPY")
	if err != nil {
		t.Fatal(err)
	}
	if name != "cloudcost-analysis-JPY.csv" {
		t.Errorf("filename = %q", name)
	}
	if !strings.HasPrefix(buf.String(), "Summary\n") {
		t.Errorf("unexpected CSV start: %q", buf.String()[:20])
	}
	if _, err := ctrl.Export(&buf, domain.AnalysisResult{}, "XYZ"); !IsValidation(err) {
		t.Errorf("Export(XYZ) error = %v", err)
	}
}
