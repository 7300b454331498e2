package mcpserver

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/cloudcost-guard/internal/config"
	"github.com/cloudcost-guard/internal/controller"
	"github.com/cloudcost-guard/internal/demo"
	"github.com/cloudcost-guard/internal/domain"
	"github.com/cloudcost-guard/internal/logging"
)

func newTestController(t *testing.T) *controller.Controller {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Logging.EnableFile = false
	cfg.Alerts.StorePath = filepath.Join(t.TempDir(), "alert-settings.json")
	ctrl := controller.New(
		controller.WithConfig(cfg),
		controller.WithLogger(logging.Discard()),
		controller.WithProvider(nil),
		controller.WithAmbientKey(""),
	)
	t.Cleanup(ctrl.Close)
	return ctrl
}

func call(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	res, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("%s returned error: %v", name, err)
	}
	if len(res.Content) == 0 {
		t.Fatalf("%s returned no content", name)
	}
	return res
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want TextContent", res.Content[0])
	}
	return tc.Text
}

func TestAnalyzeBillingData(t *testing.T) {
	ctrl := newTestController(t)

	res := call(t, makeAnalyzeHandler(ctrl), "analyze_billing_data", map[string]any{
		"billing_data": "Enterprise agreement\nCompute Engine,$85,000",
		"currency":     "EUR",
	})
	if res.IsError {
		t.Fatalf("unexpected error result: %s", text(t, res))
	}

	var resp controller.AnalyzeResponse
	if err := json.Unmarshal([]byte(text(t, res)), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Source != domain.SourceDemo || resp.Profile != string(demo.ProfileEnterprise) {
		t.Errorf("source/profile = %v/%v, want demo/enterprise", resp.Source, resp.Profile)
	}
	if resp.Currency.Code != "EUR" {
		t.Errorf("currency = %v", resp.Currency)
	}
}

func TestAnalyzeBillingDataErrors(t *testing.T) {
	ctrl := newTestController(t)
	handler := makeAnalyzeHandler(ctrl)

	if res := call(t, handler, "analyze_billing_data", map[string]any{}); !res.IsError {
		t.Error("missing billing_data should be a tool error")
	}
	res := call(t, handler, "analyze_billing_data", map[string]any{"billing_data": "x", "currency": "BTC"})
	if !res.IsError || !strings.Contains(text(t, res), "BTC") {
		t.Errorf("unknown currency result = %s", text(t, res))
	}
}

func TestEvaluateBudget(t *testing.T) {
	ctrl := newTestController(t)
	handler := makeEvaluateBudgetHandler(ctrl)

	res := call(t, handler, "evaluate_budget", map[string]any{"spend": 3600.0})
	var status domain.AlertStatus
	if err := json.Unmarshal([]byte(text(t, res)), &status); err != nil {
		t.Fatal(err)
	}
	if status.Level != domain.AlertWarning {
		t.Errorf("level = %v, want warning", status.Level)
	}

	if res := call(t, handler, "evaluate_budget", map[string]any{}); !res.IsError {
		t.Error("missing spend should be a tool error")
	}
	if res := call(t, handler, "evaluate_budget", map[string]any{"spend": -5.0}); !res.IsError {
		t.Error("negative spend should be a tool error")
	}
}

func TestGetAlertSettings(t *testing.T) {
	ctrl := newTestController(t)

	res := call(t, makeAlertSettingsHandler(ctrl), "get_alert_settings", nil)
	var settings domain.AlertSettings
	if err := json.Unmarshal([]byte(text(t, res)), &settings); err != nil {
		t.Fatal(err)
	}
	if settings != domain.DefaultAlertSettings() {
		t.Errorf("settings = %+v, want defaults", settings)
	}
}

func TestListDemoProfiles(t *testing.T) {
	ctrl := newTestController(t)

	res := call(t, makeListProfilesHandler(ctrl), "list_demo_profiles", nil)
	var out struct {
		Profiles   []ProfileSummary `json:"profiles"`
		SampleData string           `json:"sampleData"`
	}
	if err := json.Unmarshal([]byte(text(t, res)), &out); err != nil {
		t.Fatal(err)
	}
	if len(out.Profiles) != len(demo.Profiles()) {
		t.Errorf("got %d profiles, want %d", len(out.Profiles), len(demo.Profiles()))
	}
	for _, p := range out.Profiles {
		if p.CurrentCost <= 0 || p.Recommendations == 0 {
			t.Errorf("profile %s has empty figures", p.Name)
		}
	}
	if out.SampleData == "" {
		t.Error("sample data missing")
	}
}

func TestNewRegistersTools(t *testing.T) {
	if s := New(newTestController(t), "1.0.0"); s == nil {
		t.Fatal("New() returned nil")
	}
}
