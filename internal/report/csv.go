// Package report renders analysis results for export and for the terminal.
package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"github.com/cloudcost-guard/internal/domain"
)

// WriteCSV exports a result as three sections: Summary, Cost Breakdown and
// Recommendations. Sections are separated by a blank line.
func WriteCSV(w io.Writer, r domain.AnalysisResult, cur domain.Currency) error {
	cw := csv.NewWriter(w)

	records := [][]string{
		{"Summary"},
		{"Metric", "Amount"},
		{"Currency", cur.Code},
		{"Current Cost", amount(r.CurrentCost)},
		{"Optimized Cost", amount(r.OptimizedCost)},
		{"Potential Savings", amount(r.Savings)},
		{"Savings Percentage", decimal.NewFromFloat(r.SavingsPercent()).StringFixed(1) + "%"},
		{""},
		{"Cost Breakdown"},
		{"Category", "Amount"},
	}
	for _, c := range domain.Categories {
		records = append(records, []string{c.Label(), amount(r.Breakdown.Get(c))})
	}

	if len(r.Services) > 0 {
		records = append(records, []string{""}, []string{"Service", "Cost"})
		for _, s := range r.Services {
			records = append(records, []string{s.Service, amount(s.Cost)})
		}
	}

	records = append(records,
		[]string{""},
		[]string{"Recommendations"},
		[]string{"Title", "Description", "Estimated Savings"},
	)
	for _, rec := range r.Recommendations {
		records = append(records, []string{rec.Title, rec.Description, amount(rec.EstimatedSavings)})
	}

	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}

// ExportFilename returns the attachment name for a CSV export
func ExportFilename(cur domain.Currency) string {
	return fmt.Sprintf("cloudcost-analysis-%s.csv", cur.Code)
}

func amount(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}
