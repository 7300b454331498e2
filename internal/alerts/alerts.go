// Package alerts validates, persists and evaluates budget alert settings.
package alerts

import (
	"math"
	"strconv"
	"strings"

	"github.com/cloudcost-guard/internal/domain"
)

// Validation messages shown next to the settings form
const (
	MsgRequired         = "All fields are required."
	MsgBudgetPositive   = "Budget must be a positive number."
	MsgWarningRange     = "Warning threshold must be between 1 and 99."
	MsgCriticalRange    = "Critical threshold must be between 1 and 100."
	MsgWarningBelowCrit = "Warning threshold must be less than critical threshold."
)

const (
	fieldBudget   = "budget"
	fieldWarning  = "warningThreshold"
	fieldCritical = "criticalThreshold"
)

// Colors of each alert level
const (
	ColorCritical = "#ef4444"
	ColorWarning  = "#f97316"
	ColorNormal   = "#22c55e"
)

// ValidateInput parses and validates raw form values
func ValidateInput(budget, warning, critical string) (domain.AlertSettings, *domain.ValidationError) {
	inputs := []struct{ field, value string }{
		{fieldBudget, budget},
		{fieldWarning, warning},
		{fieldCritical, critical},
	}
	var missing []string
	for _, in := range inputs {
		if strings.TrimSpace(in.value) == "" {
			missing = append(missing, in.field)
		}
	}
	if len(missing) > 0 {
		return domain.AlertSettings{}, domain.NewValidationError(MsgRequired, missing...)
	}

	b, errB := parseNumber(budget)
	w, errW := parseNumber(warning)
	c, errC := parseNumber(critical)
	switch {
	case errB != nil:
		return domain.AlertSettings{}, domain.NewValidationError(MsgBudgetPositive, fieldBudget)
	case errW != nil:
		return domain.AlertSettings{}, domain.NewValidationError(MsgWarningRange, fieldWarning)
	case errC != nil:
		return domain.AlertSettings{}, domain.NewValidationError(MsgCriticalRange, fieldCritical)
	}

	s := domain.AlertSettings{Budget: b, WarningThreshold: w, CriticalThreshold: c}
	if err := Validate(s); err != nil {
		return domain.AlertSettings{}, err
	}
	return s, nil
}

// Validate checks budget > 0 and 1 <= warning < critical <= 100
func Validate(s domain.AlertSettings) *domain.ValidationError {
	switch {
	case !finite(s.Budget) || s.Budget <= 0:
		return domain.NewValidationError(MsgBudgetPositive, fieldBudget)
	case !finite(s.WarningThreshold) || s.WarningThreshold < 1 || s.WarningThreshold > 99:
		return domain.NewValidationError(MsgWarningRange, fieldWarning)
	case !finite(s.CriticalThreshold) || s.CriticalThreshold < 1 || s.CriticalThreshold > 100:
		return domain.NewValidationError(MsgCriticalRange, fieldCritical)
	case s.WarningThreshold >= s.CriticalThreshold:
		return domain.NewValidationError(MsgWarningBelowCrit, fieldWarning, fieldCritical)
	}
	return nil
}

// Evaluate resolves the alert level for a spend. Threshold comparisons are
// inclusive: spend exactly at a threshold triggers that level.
func Evaluate(spend float64, s domain.AlertSettings) domain.AlertStatus {
	pct := 0.0
	if s.Budget > 0 {
		pct = spend * 100 / s.Budget
	}

	status := domain.AlertStatus{
		Percentage: math.Round(pct*100) / 100,
		Spend:      spend,
		Budget:     s.Budget,
	}
	switch {
	case pct >= s.CriticalThreshold:
		status.Level = domain.AlertCritical
		status.Color = ColorCritical
		status.Message = "🚨 Critical: Budget exceeded!"
	case pct >= s.WarningThreshold:
		status.Level = domain.AlertWarning
		status.Color = ColorWarning
		status.Message = "⚠️ Warning: Approaching budget limit"
	default:
		status.Level = domain.AlertNormal
		status.Color = ColorNormal
		status.Message = "✅ Budget on track"
	}
	return status
}

func parseNumber(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	return strconv.ParseFloat(s, 64)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
