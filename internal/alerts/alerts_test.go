package alerts

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cloudcost-guard/internal/domain"
)

func TestValidateInput(t *testing.T) {
	tests := []struct {
		name                      string
		budget, warning, critical string
		wantMsg                   string
		wantFields                []string
	}{
		{"valid", "5000", "70", "90", "", nil},
		{"thousands separator", "5,000", "70", "90", "", nil},
		{"missing", "", "70", " ", MsgRequired, []string{"budget", "criticalThreshold"}},
		{"zero budget", "0", "70", "90", MsgBudgetPositive, []string{"budget"}},
		{"text budget", "lots", "70", "90", MsgBudgetPositive, []string{"budget"}},
		{"warning too high", "5000", "100", "100", MsgWarningRange, []string{"warningThreshold"}},
		{"warning zero", "5000", "0", "90", MsgWarningRange, []string{"warningThreshold"}},
		{"critical too high", "5000", "70", "101", MsgCriticalRange, []string{"criticalThreshold"}},
		{"inverted", "5000", "90", "80", MsgWarningBelowCrit, []string{"warningThreshold", "criticalThreshold"}},
		{"equal", "5000", "80", "80", MsgWarningBelowCrit, []string{"warningThreshold", "criticalThreshold"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, verr := ValidateInput(tt.budget, tt.warning, tt.critical)
			if tt.wantMsg == "" {
				if verr != nil {
					t.Fatalf("ValidateInput() error: %v", verr)
				}
				return
			}
			if verr == nil {
				t.Fatal("ValidateInput() = nil, want error")
			}
			if verr.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", verr.Message, tt.wantMsg)
			}
			if len(verr.Fields) != len(tt.wantFields) {
				t.Fatalf("Fields = %v, want %v", verr.Fields, tt.wantFields)
			}
			for i := range tt.wantFields {
				if verr.Fields[i] != tt.wantFields[i] {
					t.Errorf("Fields = %v, want %v", verr.Fields, tt.wantFields)
				}
			}
		})
	}
}

func TestEvaluate(t *testing.T) {
	settings := domain.AlertSettings{Budget: 5000, WarningThreshold: 70, CriticalThreshold: 90}

	tests := []struct {
		name  string
		spend float64
		level domain.AlertLevel
		color string
	}{
		{"on track", 1000, domain.AlertNormal, ColorNormal},
		{"just below warning", 3499.99, domain.AlertNormal, ColorNormal},
		{"exactly warning", 3500, domain.AlertWarning, ColorWarning},
		{"approaching", 4500 - 1, domain.AlertWarning, ColorWarning},
		{"exactly critical", 4500, domain.AlertCritical, ColorCritical},
		{"over budget", 6000, domain.AlertCritical, ColorCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.spend, settings)
			if got.Level != tt.level || got.Color != tt.color {
				t.Errorf("Evaluate(%v) = %v/%v, want %v/%v", tt.spend, got.Level, got.Color, tt.level, tt.color)
			}
		})
	}
}

// Thresholds are inclusive, so 4500 of 5000 (90%) is critical under the
// default settings.
func TestEvaluateDefaultsBoundary(t *testing.T) {
	got := Evaluate(4500, domain.DefaultAlertSettings())
	if got.Level != domain.AlertCritical || got.Percentage != 90 {
		t.Errorf("Evaluate(4500) = %v at %v%%, want critical at 90%%", got.Level, got.Percentage)
	}
	if got.Message != "🚨 Critical: Budget exceeded!" {
		t.Errorf("Message = %q", got.Message)
	}
}

// Critical is raised to 95 here so 90% lands in the warning band.
func TestEvaluateSpendAgainstBudget(t *testing.T) {
	got := Evaluate(4500, domain.AlertSettings{Budget: 5000, WarningThreshold: 70, CriticalThreshold: 95})
	if got.Level != domain.AlertWarning {
		t.Errorf("Level = %v, want warning", got.Level)
	}
	if got.Percentage != 90 {
		t.Errorf("Percentage = %v, want 90", got.Percentage)
	}
	if got.Message != "⚠️ Warning: Approaching budget limit" {
		t.Errorf("Message = %q", got.Message)
	}
}

func TestEvaluateZeroBudget(t *testing.T) {
	got := Evaluate(100, domain.AlertSettings{})
	if got.Percentage != 0 {
		t.Errorf("Percentage = %v, want 0", got.Percentage)
	}
}

func TestStoreRejectsInvertedThresholds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alerts.json")
	store := NewStore(path, nil)

	saved := domain.AlertSettings{Budget: 8000, WarningThreshold: 60, CriticalThreshold: 85}
	if _, err := store.Update(saved); err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	got, err := store.Update(domain.AlertSettings{Budget: 8000, WarningThreshold: 90, CriticalThreshold: 80})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("Update() error = %v, want ErrInvalidInput", err)
	}
	if got != saved || store.Get() != saved {
		t.Errorf("settings changed after rejected update: %+v", store.Get())
	}
	after, _ := os.ReadFile(path)
	if string(after) != string(before) {
		t.Error("file rewritten after rejected update")
	}
	if NewStore(path, nil).Get() != saved {
		t.Error("reloaded settings differ from the last valid update")
	}
}

func TestStoreSkipsUnchangedWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "alerts.json")
	store := NewStore(path, nil)

	if _, err := store.Update(domain.DefaultAlertSettings()); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("unchanged defaults should not be written")
	}

	if _, err := store.UpdateInput("6000", "75", "95"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("changed settings should be written: %v", err)
	}
}

func TestStoreLoadFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	tests := map[string]string{
		"malformed":       `{"budget": `,
		"out of range":    `{"budget": 5000, "warningThreshold": 0, "criticalThreshold": 90}`,
		"missing values":  `{"budget": 5000}`,
		"negative budget": `{"budget": -1, "warningThreshold": 70, "criticalThreshold": 90}`,
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".json")
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				t.Fatal(err)
			}
			if got := NewStore(path, nil).Get(); got != domain.DefaultAlertSettings() {
				t.Errorf("Get() = %+v, want defaults", got)
			}
		})
	}

	if got := NewStore(filepath.Join(dir, "absent.json"), nil).Get(); got != domain.DefaultAlertSettings() {
		t.Errorf("missing file: Get() = %+v, want defaults", got)
	}
}

func TestStoreStatus(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "a.json"), nil)
	if got := store.Status(4600); got.Level != domain.AlertCritical {
		t.Errorf("Status(4600) = %v, want critical", got.Level)
	}
}
