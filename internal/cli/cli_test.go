package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

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
	cfg.Logging.LogDir = t.TempDir()
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

// run executes one command line on a fresh CLI so flag state never leaks
// between invocations.
func run(t *testing.T, ctrl *controller.Controller, stdin io.Reader, args ...string) (string, error) {
	t.Helper()
	cli := NewWithController(ctrl)
	if stdin != nil {
		cli.stdin = stdin
	}
	var out, errOut bytes.Buffer
	cli.rootCmd.SetOut(&out)
	cli.rootCmd.SetErr(&errOut)
	cli.rootCmd.SetArgs(args)
	err := cli.Execute()
	return out.String(), err
}

func TestCLINew(t *testing.T) {
	cli := New()
	if cli == nil {
		t.Error("New() should return a non-nil CLI")
	}
	if cli.rootCmd == nil {
		t.Error("CLI rootCmd should not be nil")
	}
	if cli.ctrl != nil {
		t.Error("controller should be built lazily")
	}
}

func TestCLIRootCommand(t *testing.T) {
	cli := New()

	if len(cli.rootCmd.Commands()) == 0 {
		t.Error("Root command should have subcommands")
	}

	expectedCommands := []string{"analyze", "alerts", "samples", "logs", "web", "mcp"}
	for _, expected := range expectedCommands {
		found := false
		for _, cmd := range cli.rootCmd.Commands() {
			if cmd.Name() == expected {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Expected subcommand '%s' not found", expected)
		}
	}
}

func TestAnalyzeFileJSON(t *testing.T) {
	ctrl := newTestController(t)
	path := filepath.Join(t.TempDir(), "billing.csv")
	if err := os.WriteFile(path, []byte(demo.SampleBillingData), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, ctrl, nil, "analyze", "--file", path, "--output", "json", "--currency", "eur")
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	var resp controller.AnalyzeResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if resp.Source != domain.SourceDemo {
		t.Errorf("source = %v, want demo", resp.Source)
	}
	if resp.Profile != string(demo.ProfileCompute) {
		t.Errorf("profile = %q, want compute", resp.Profile)
	}
	if resp.Currency.Code != "EUR" {
		t.Errorf("currency = %q, want EUR", resp.Currency.Code)
	}
}

func TestAnalyzeStdinCSV(t *testing.T) {
	ctrl := newTestController(t)

	out, err := run(t, ctrl, strings.NewReader("Enterprise agreement\nCompute Engine,$85,000"), "analyze", "-f", "-", "-o", "csv")
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	if !strings.HasPrefix(out, "Summary\n") {
		t.Errorf("csv output should start with the summary section, got:\n%s", out)
	}
}

func TestAnalyzeTableWithChart(t *testing.T) {
	ctrl := newTestController(t)

	out, err := run(t, ctrl, nil, "analyze", "dev", "environment", "costs", "--chart")
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	upper := strings.ToUpper(out)
	for _, want := range []string{"CLOUDCOST GUARD ANALYSIS", "DEMO (DEV_WASTE)", "RECOMMENDATION"} {
		if !strings.Contains(upper, want) {
			t.Errorf("table output missing %q", want)
		}
	}
	// dev_waste is 80% of the default budget, so the budget banner shows
	// even though no degraded-analysis warning does
	if strings.Contains(out, "Showing demo data") {
		t.Error("no degraded warning expected without a credential")
	}
	if !strings.Contains(out, "Approaching budget limit") {
		t.Error("budget warning banner missing")
	}
}

func TestAnalyzeErrors(t *testing.T) {
	ctrl := newTestController(t)

	tests := []struct {
		name string
		args []string
	}{
		{"unknown output", []string{"analyze", "x", "-o", "xml"}},
		{"unknown currency", []string{"analyze", "x", "--currency", "BTC"}},
		{"missing file", []string{"analyze", "--file", filepath.Join(t.TempDir(), "nope.csv")}},
		{"empty stdin", []string{"analyze", "-f", "-"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := run(t, ctrl, strings.NewReader("   "), tt.args...); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestAlertsSetAndShow(t *testing.T) {
	ctrl := newTestController(t)

	if _, err := run(t, ctrl, nil, "alerts", "set", "--warning", "95"); err == nil {
		t.Error("warning above critical should be rejected")
	}
	if got := ctrl.AlertSettings(); got != domain.DefaultAlertSettings() {
		t.Errorf("rejected update changed settings: %+v", got)
	}

	if _, err := run(t, ctrl, nil, "alerts", "set", "--budget", "8000"); err != nil {
		t.Fatalf("set budget failed: %v", err)
	}
	want := domain.AlertSettings{Budget: 8000, WarningThreshold: 70, CriticalThreshold: 90}
	if got := ctrl.AlertSettings(); got != want {
		t.Errorf("settings = %+v, want %+v", got, want)
	}

	out, err := run(t, ctrl, nil, "alerts", "show")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "8000") || !strings.Contains(out, "70.0%") {
		t.Errorf("show output missing settings:\n%s", out)
	}
}

func TestAlertsStatus(t *testing.T) {
	ctrl := newTestController(t)

	out, err := run(t, ctrl, nil, "alerts", "status", "--spend", "4600")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "$4,600.00") || !strings.Contains(out, "92.0%") {
		t.Errorf("status output = %s", out)
	}

	if _, err := run(t, ctrl, nil, "alerts", "status", "--spend", "-1"); err == nil {
		t.Error("negative spend should be rejected")
	}
}

func TestSamples(t *testing.T) {
	ctrl := newTestController(t)

	out, err := run(t, ctrl, nil, "samples")
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range demo.Profiles() {
		if !strings.Contains(out, string(p)) {
			t.Errorf("profile %s not listed", p)
		}
	}
	if !strings.Contains(out, "Compute Engine,$2150.75") {
		t.Error("sample billing data not printed")
	}

	out, err = run(t, ctrl, nil, "samples", "enterprise", "-o", "json")
	if err != nil {
		t.Fatal(err)
	}
	var resp domain.AnalysisResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Result.CurrentCost != demo.MustGet(demo.ProfileEnterprise).CurrentCost {
		t.Errorf("current cost = %v", resp.Result.CurrentCost)
	}

	if _, err := run(t, ctrl, nil, "samples", "nope"); err == nil {
		t.Error("unknown profile should fail")
	}
}

func TestLogsEmpty(t *testing.T) {
	ctrl := newTestController(t)

	out, err := run(t, ctrl, nil, "logs")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "No log files") {
		t.Errorf("logs output = %s", out)
	}
}
