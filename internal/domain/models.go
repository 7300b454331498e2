// Package domain contains the core domain models for cloudcost-guard.
// These models are provider-agnostic and are shared by the analysis
// pipeline, the alerting logic and every outer surface (web, CLI, MCP).
package domain

import (
	"strings"
)

// DataSource tags where an analysis result came from
type DataSource string

const (
	// SourceLive means the result was produced by the remote AI service
	SourceLive DataSource = "live"
	// SourceDemo means a fallback dataset was used
	SourceDemo DataSource = "demo"
)

// String returns the string representation of the data source
func (d DataSource) String() string {
	return string(d)
}

// Recommendation is a single actionable cost optimization
type Recommendation struct {
	Title            string  `json:"title"`
	Description      string  `json:"description"`
	EstimatedSavings float64 `json:"estimatedSavings"`
}

// ServiceCost is one entry of the open (per-service) breakdown variant
type ServiceCost struct {
	Service string  `json:"service"`
	Cost    float64 `json:"cost"`
}

// CostBreakdown is the fixed-category breakdown variant
type CostBreakdown struct {
	Compute float64 `json:"compute"`
	Storage float64 `json:"storage"`
	Network float64 `json:"network"`
	Other   float64 `json:"other"`
}

// Total returns the sum of all categories
func (b CostBreakdown) Total() float64 {
	return b.Compute + b.Storage + b.Network + b.Other
}

// Get returns the amount recorded for a category
func (b CostBreakdown) Get(c Category) float64 {
	switch c {
	case CategoryCompute:
		return b.Compute
	case CategoryStorage:
		return b.Storage
	case CategoryNetwork:
		return b.Network
	default:
		return b.Other
	}
}

// Add accumulates an amount into a category
func (b *CostBreakdown) Add(c Category, amount float64) {
	switch c {
	case CategoryCompute:
		b.Compute += amount
	case CategoryStorage:
		b.Storage += amount
	case CategoryNetwork:
		b.Network += amount
	default:
		b.Other += amount
	}
}

// ForecastPoint is one month of the cost forecast. Historical months carry
// Cost, predicted months carry PredictedCost.
type ForecastPoint struct {
	Month         string   `json:"month"`
	Cost          *float64 `json:"cost,omitempty"`
	PredictedCost *float64 `json:"predictedCost,omitempty"`
}

// IsPrediction reports whether the point is a forecast rather than history
func (f ForecastPoint) IsPrediction() bool {
	return f.Cost == nil && f.PredictedCost != nil
}

// Value returns whichever amount the point carries
func (f ForecastPoint) Value() float64 {
	if f.Cost != nil {
		return *f.Cost
	}
	if f.PredictedCost != nil {
		return *f.PredictedCost
	}
	return 0
}

// AnalysisResult is the canonical, fully-populated analysis shape consumed
// by every display surface.
type AnalysisResult struct {
	CurrentCost     float64          `json:"currentCost"`
	OptimizedCost   float64          `json:"optimizedCost"`
	Savings         float64          `json:"savings"`
	Breakdown       CostBreakdown    `json:"breakdown"`
	Services        []ServiceCost    `json:"costBreakdown"`
	Recommendations []Recommendation `json:"recommendations"`
	Forecast        []ForecastPoint  `json:"forecast"`
}

// SavingsPercent returns savings as a percentage of current cost
func (r AnalysisResult) SavingsPercent() float64 {
	if r.CurrentCost <= 0 {
		return 0
	}
	return r.Savings / r.CurrentCost * 100
}

// Clone returns a deep copy so callers can never mutate shared data
func (r AnalysisResult) Clone() AnalysisResult {
	out := r
	out.Services = append([]ServiceCost(nil), r.Services...)
	out.Recommendations = append([]Recommendation(nil), r.Recommendations...)
	out.Forecast = make([]ForecastPoint, len(r.Forecast))
	for i, p := range r.Forecast {
		out.Forecast[i] = ForecastPoint{Month: p.Month}
		if p.Cost != nil {
			v := *p.Cost
			out.Forecast[i].Cost = &v
		}
		if p.PredictedCost != nil {
			v := *p.PredictedCost
			out.Forecast[i].PredictedCost = &v
		}
	}
	return out
}

// CredentialKind identifies where the API key used for a request came from
type CredentialKind string

const (
	CredentialManual CredentialKind = "manual"
	CredentialEnv    CredentialKind = "env"
	CredentialNone   CredentialKind = "none"
)

// Degradation reasons recorded on demo responses
const (
	ReasonNoCredential     = "no_credential"
	ReasonTransport        = "transport"
	ReasonMalformedPayload = "malformed_payload"
	ReasonSchemaViolation  = "schema_violation"
)

// AnalysisResponse wraps a result with its provenance
type AnalysisResponse struct {
	Result           AnalysisResult `json:"result"`
	Source           DataSource     `json:"source"`
	Profile          string         `json:"profile,omitempty"`
	CredentialSource CredentialKind `json:"credentialSource,omitempty"`
	Reason           string         `json:"reason,omitempty"`
}

// Degraded reports whether a live analysis was attempted but demo data was
// returned instead.
func (r AnalysisResponse) Degraded() bool {
	return r.Source == SourceDemo && r.Reason != "" && r.Reason != ReasonNoCredential
}

// AlertSettings holds the user's budget alert configuration
type AlertSettings struct {
	Budget            float64 `json:"budget"`
	WarningThreshold  float64 `json:"warningThreshold"`
	CriticalThreshold float64 `json:"criticalThreshold"`
}

// DefaultAlertSettings returns the settings used when nothing valid is persisted
func DefaultAlertSettings() AlertSettings {
	return AlertSettings{Budget: 5000, WarningThreshold: 70, CriticalThreshold: 90}
}

// AlertLevel is the evaluated budget state
type AlertLevel string

const (
	AlertNormal   AlertLevel = "normal"
	AlertWarning  AlertLevel = "warning"
	AlertCritical AlertLevel = "critical"
)

// AlertStatus is the evaluated budget alert shown to the user
type AlertStatus struct {
	Level      AlertLevel `json:"level"`
	Color      string     `json:"color"`
	Message    string     `json:"message"`
	Percentage float64    `json:"percentage"`
	Spend      float64    `json:"spend"`
	Budget     float64    `json:"budget"`
}

// ParseAlertLevel parses a string into an AlertLevel, defaulting to normal
func ParseAlertLevel(s string) AlertLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "warning":
		return AlertWarning
	case "critical":
		return AlertCritical
	default:
		return AlertNormal
	}
}
