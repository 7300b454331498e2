package report

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/cloudcost-guard/internal/domain"
)

// Category colors, matching the dashboard
var categoryColors = map[domain.Category]string{
	domain.CategoryCompute: "#3b82f6",
	domain.CategoryStorage: "#22c55e",
	domain.CategoryNetwork: "#f59e0b",
	domain.CategoryOther:   "#a855f7",
}

var chartFrame = lipgloss.NewStyle().
	BorderStyle(lipgloss.NormalBorder()).
	BorderForeground(lipgloss.Color("#F4D060"))

// RenderTable renders the full terminal report: summary, services,
// recommendations and forecast.
func RenderTable(resp domain.AnalysisResponse, cur domain.Currency) string {
	parts := []string{RenderSummary(resp, cur)}
	if len(resp.Result.Services) > 0 {
		parts = append(parts, RenderServices(resp.Result, cur))
	}
	if len(resp.Result.Recommendations) > 0 {
		parts = append(parts, RenderRecommendations(resp.Result, cur))
	}
	if len(resp.Result.Forecast) > 0 {
		parts = append(parts, RenderForecast(resp.Result, cur))
	}
	return strings.Join(parts, "\n\n")
}

// RenderSummary renders the headline metrics and provenance of a response
func RenderSummary(resp domain.AnalysisResponse, cur domain.Currency) string {
	r := resp.Result
	tw := table.NewWriter()
	tw.SetTitle("CloudCost Guard Analysis")
	tw.AppendHeader(table.Row{"Metric", "Value"})
	tw.AppendRows([]table.Row{
		{"Current Monthly Cost", FormatCurrency(r.CurrentCost, cur)},
		{"Optimized Cost", FormatCurrency(r.OptimizedCost, cur)},
		{"Potential Savings", text.FgHiGreen.Sprintf("%s (%s)", FormatCurrency(r.Savings, cur), FormatPercent(r.SavingsPercent()))},
		{"Data Source", sourceLabel(resp)},
	})
	tw.SetStyle(table.StyleRounded)
	tw.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
	return tw.Render()
}

// RenderServices renders the per-service breakdown, largest first as given
func RenderServices(r domain.AnalysisResult, cur domain.Currency) string {
	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"Service", "Category", "Cost", "Share"})
	total := r.CurrentCost
	for _, s := range r.Services {
		share := 0.0
		if total > 0 {
			share = s.Cost / total * 100
		}
		tw.AppendRow(table.Row{s.Service, domain.Categorize(s.Service).Label(), FormatCurrency(s.Cost, cur), FormatPercent(share)})
	}
	tw.AppendFooter(table.Row{"Total", "", FormatCurrency(r.Breakdown.Total(), cur), ""})
	tw.SetStyle(table.StyleRounded)
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	return tw.Render()
}

// RenderRecommendations renders the recommendation list in display order
func RenderRecommendations(r domain.AnalysisResult, cur domain.Currency) string {
	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"#", "Recommendation", "Est. Savings/mo"})
	for i, rec := range r.Recommendations {
		tw.AppendRow(table.Row{
			i + 1,
			text.Bold.Sprint(rec.Title) + "\n" + text.WrapSoft(rec.Description, 70),
			text.FgHiGreen.Sprint(FormatCurrency(rec.EstimatedSavings, cur)),
		})
		tw.AppendSeparator()
	}
	tw.SetStyle(table.StyleRounded)
	tw.SetColumnConfigs([]table.ColumnConfig{{Number: 3, Align: text.AlignRight}})
	return tw.Render()
}

// RenderForecast renders the six month forecast as a table
func RenderForecast(r domain.AnalysisResult, cur domain.Currency) string {
	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"Month", "Actual", "Predicted"})
	for _, f := range r.Forecast {
		actual, predicted := "", ""
		if f.Cost != nil {
			actual = FormatCurrency(*f.Cost, cur)
		}
		if f.PredictedCost != nil {
			predicted = text.FgHiCyan.Sprint(FormatCurrency(*f.PredictedCost, cur))
		}
		tw.AppendRow(table.Row{f.Month, actual, predicted})
	}
	tw.SetStyle(table.StyleRounded)
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
	})
	return tw.Render()
}

// RenderBreakdownChart draws the fixed-category breakdown as a bar chart
func RenderBreakdownChart(r domain.AnalysisResult, cur domain.Currency, width, height int) string {
	if width <= 0 {
		width = 80
	}
	if height <= 0 {
		height = 14
	}

	bc := barchart.New(width, height)
	for _, c := range domain.Categories {
		v := r.Breakdown.Get(c)
		bc.Push(barchart.BarData{
			Label: fmt.Sprintf("%s %s", c.Label(), FormatCurrency(v, cur)),
			Values: []barchart.BarValue{{
				Name:  c.Label(),
				Value: v,
				Style: lipgloss.NewStyle().Foreground(lipgloss.Color(categoryColors[c])),
			}},
		})
	}
	bc.Draw()

	return lipgloss.JoinHorizontal(lipgloss.Top, chartFrame.Render(bc.View()))
}

// RenderAlert renders the budget status as a colored banner
func RenderAlert(status domain.AlertStatus, cur domain.Currency) string {
	style := lipgloss.NewStyle().
		Bold(true).
		Padding(0, 1).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(status.Color)).
		Foreground(lipgloss.Color(status.Color))

	body := fmt.Sprintf("%s\n%s of %s budget (%s)",
		status.Message,
		FormatCurrency(status.Spend, cur),
		FormatCurrency(status.Budget, cur),
		FormatPercent(status.Percentage),
	)
	return style.Render(body)
}

// DegradedWarning explains a demo result that followed a live attempt
func DegradedWarning(resp domain.AnalysisResponse) string {
	if !resp.Degraded() {
		return ""
	}
	reason := strings.ReplaceAll(resp.Reason, "_", " ")
	return fmt.Sprintf("AI analysis failed (%s). Showing %s demo data instead.", reason, resp.Profile)
}

func sourceLabel(resp domain.AnalysisResponse) string {
	if resp.Source == domain.SourceLive {
		return text.FgHiGreen.Sprint("live")
	}
	return text.FgHiYellow.Sprintf("demo (%s)", resp.Profile)
}
