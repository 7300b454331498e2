package normalize

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/cloudcost-guard/internal/domain"
)

// Savings may deviate from currentCost - optimizedCost by this absolute
// amount or by savingsTolerancePct of currentCost, whichever is larger.
var (
	savingsToleranceAbs = decimal.NewFromInt(1)
	savingsTolerancePct = decimal.NewFromFloat(0.01)
)

// Validate reports whether v has the full analysis result shape
func Validate(v any) bool {
	return Check(v) == nil
}

// Check validates a decoded JSON value field by field and returns a
// *domain.SchemaError for the first offending field.
func Check(v any) error {
	_, err := convert(v)
	return err
}

// Normalize validates v and converts it into the canonical result, deriving
// optimizedCost and the missing breakdown variant when absent.
func Normalize(v any) (domain.AnalysisResult, error) {
	return convert(v)
}

func convert(v any) (domain.AnalysisResult, error) {
	var out domain.AnalysisResult

	obj, ok := v.(map[string]any)
	if !ok {
		return out, domain.NewSchemaError("$", "expected a JSON object")
	}

	current, err := requiredNumber(obj, "currentCost", "totalSpend")
	if err != nil {
		return out, err
	}
	savings, err := requiredNumber(obj, "savings", "potentialSavings")
	if err != nil {
		return out, err
	}
	optimized, hasOptimized, err := optionalNumber(obj, "optimizedCost")
	if err != nil {
		return out, err
	}
	if err := checkSavings(current, optimized, savings, hasOptimized); err != nil {
		return out, err
	}
	if !hasOptimized {
		optimized = decimal.NewFromFloat(current).Sub(decimal.NewFromFloat(savings)).InexactFloat64()
	}
	out.CurrentCost = current
	out.OptimizedCost = optimized
	out.Savings = savings

	if out.Recommendations, err = recommendations(obj["recommendations"]); err != nil {
		return out, err
	}
	if err := breakdowns(obj, &out); err != nil {
		return out, err
	}
	if out.Forecast, err = forecast(obj["forecast"]); err != nil {
		return out, err
	}
	return out, nil
}

func checkSavings(current, optimized, savings float64, hasOptimized bool) error {
	cur := decimal.NewFromFloat(current)
	sav := decimal.NewFromFloat(savings)
	if sav.GreaterThan(cur) {
		return domain.NewSchemaError("savings", "exceeds current cost")
	}
	if !hasOptimized {
		return nil
	}

	tolerance := decimal.Max(savingsToleranceAbs, cur.Mul(savingsTolerancePct))
	drift := cur.Sub(decimal.NewFromFloat(optimized)).Sub(sav).Abs()
	if drift.GreaterThan(tolerance) {
		return domain.NewSchemaError("savings",
			fmt.Sprintf("currentCost - optimizedCost differs from savings by %s", drift.StringFixed(2)))
	}
	return nil
}

func recommendations(v any) ([]domain.Recommendation, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, domain.NewSchemaError("recommendations", "expected an array")
	}
	out := make([]domain.Recommendation, 0, len(items))
	for i, item := range items {
		field := fmt.Sprintf("recommendations[%d]", i)
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, domain.NewSchemaError(field, "expected an object")
		}
		title, err := requiredString(obj, field+".title", "title")
		if err != nil {
			return nil, err
		}
		desc, err := requiredString(obj, field+".description", "description")
		if err != nil {
			return nil, err
		}
		est, err := numberField(obj, field+".estimatedSavings", "estimatedSavings")
		if err != nil {
			return nil, err
		}
		out = append(out, domain.Recommendation{Title: title, Description: desc, EstimatedSavings: est})
	}
	return out, nil
}

// breakdowns fills both variants. "breakdown" is the fixed-category object;
// "costBreakdown" is the per-service array, or the fixed object in older
// payloads.
func breakdowns(obj map[string]any, out *domain.AnalysisResult) error {
	fixedRaw, hasFixed := obj["breakdown"]
	openRaw, hasOpen := obj["costBreakdown"]
	hasFixed = hasFixed && fixedRaw != nil
	hasOpen = hasOpen && openRaw != nil
	if !hasFixed && !hasOpen {
		return domain.NewSchemaError("breakdown", "missing (expected breakdown or costBreakdown)")
	}

	// a fixed-category costBreakdown is checked as such; "breakdown" wins
	// when both are given
	if m, isObj := openRaw.(map[string]any); hasOpen && isObj {
		if hasFixed {
			if _, err := fixedBreakdown("costBreakdown", m); err != nil {
				return err
			}
		} else {
			fixedRaw, hasFixed = m, true
		}
		hasOpen = false
	}

	if hasFixed {
		b, err := fixedBreakdown("breakdown", fixedRaw)
		if err != nil {
			return err
		}
		out.Breakdown = b
	}
	if hasOpen {
		services, err := serviceBreakdown(openRaw)
		if err != nil {
			return err
		}
		out.Services = services
	}

	switch {
	case !hasFixed:
		out.Breakdown = domain.BreakdownFromServices(out.Services)
	case !hasOpen:
		out.Services = domain.ServicesFromBreakdown(out.Breakdown)
	}
	return nil
}

func fixedBreakdown(field string, v any) (domain.CostBreakdown, error) {
	var b domain.CostBreakdown
	obj, ok := v.(map[string]any)
	if !ok {
		return b, domain.NewSchemaError(field, "expected an object")
	}
	for _, c := range domain.Categories {
		amount, err := numberField(obj, field+"."+string(c), string(c))
		if err != nil {
			return b, err
		}
		b.Add(c, amount)
	}
	return b, nil
}

func serviceBreakdown(v any) ([]domain.ServiceCost, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, domain.NewSchemaError("costBreakdown", "expected an array")
	}
	out := make([]domain.ServiceCost, 0, len(items))
	for i, item := range items {
		field := fmt.Sprintf("costBreakdown[%d]", i)
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, domain.NewSchemaError(field, "expected an object")
		}
		name, err := requiredString(obj, field+".service", "service")
		if err != nil {
			return nil, err
		}
		cost, err := numberField(obj, field+".cost", "cost")
		if err != nil {
			return nil, err
		}
		out = append(out, domain.ServiceCost{Service: name, Cost: cost})
	}
	return out, nil
}

func forecast(v any) ([]domain.ForecastPoint, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, domain.NewSchemaError("forecast", "expected an array")
	}
	out := make([]domain.ForecastPoint, 0, len(items))
	for i, item := range items {
		field := fmt.Sprintf("forecast[%d]", i)
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, domain.NewSchemaError(field, "expected an object")
		}
		month, err := requiredString(obj, field+".month", "month")
		if err != nil {
			return nil, err
		}
		point := domain.ForecastPoint{Month: month}
		for _, key := range []string{"cost", "predictedCost"} {
			raw, present := obj[key]
			if !present || raw == nil {
				continue
			}
			n, ok := toNumber(raw)
			if !ok {
				return nil, domain.NewSchemaError(field+"."+key, "expected a non-negative number")
			}
			if key == "cost" {
				point.Cost = lo.ToPtr(n)
			} else {
				point.PredictedCost = lo.ToPtr(n)
			}
		}
		out = append(out, point)
	}
	return out, nil
}

// requiredNumber reads the first present key among aliases
func requiredNumber(obj map[string]any, keys ...string) (float64, error) {
	for _, k := range keys {
		if _, ok := obj[k]; ok {
			return numberField(obj, k, k)
		}
	}
	return 0, domain.NewSchemaError(keys[0], "missing")
}

func optionalNumber(obj map[string]any, key string) (float64, bool, error) {
	raw, ok := obj[key]
	if !ok || raw == nil {
		return 0, false, nil
	}
	n, err := numberField(obj, key, key)
	return n, err == nil, err
}

func numberField(obj map[string]any, field, key string) (float64, error) {
	raw, ok := obj[key]
	if !ok {
		return 0, domain.NewSchemaError(field, "missing")
	}
	n, ok := toNumber(raw)
	if !ok {
		return 0, domain.NewSchemaError(field, "expected a non-negative number")
	}
	return n, nil
}

func requiredString(obj map[string]any, field, key string) (string, error) {
	raw, ok := obj[key]
	if !ok {
		return "", domain.NewSchemaError(field, "missing")
	}
	s, ok := raw.(string)
	if !ok {
		return "", domain.NewSchemaError(field, "expected a string")
	}
	return s, nil
}

// toNumber accepts JSON numbers decoded either with UseNumber or as float64
func toNumber(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = n
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, false
	}
	return f, true
}
