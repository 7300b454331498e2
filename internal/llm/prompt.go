package llm

import (
	"fmt"
	"strings"

	"github.com/cloudcost-guard/internal/domain"
)

// BuildPrompt embeds the raw billing data and the expected result shape
// into the instruction sent to every provider.
func BuildPrompt(billingData string, currency domain.Currency) string {
	var b strings.Builder

	b.WriteString("You are an expert cloud cost optimization analyst named CloudCost Guard.\n")
	b.WriteString("Analyze the following cloud billing data. The data is:\n")
	b.WriteString("---\n")
	b.WriteString(strings.TrimSpace(billingData))
	b.WriteString("\n---\n")
	fmt.Fprintf(&b, "All amounts are in %s (%s). Do not convert currencies.\n", currency.Code, currency.Symbol)
	b.WriteString(`Based on this data, provide a detailed cost analysis. Your response MUST be a valid JSON object that strictly adheres to the schema below. Do not include any text, markdown formatting, or explanations outside of the JSON object.

The JSON object must contain:
1. "currentCost": a number, the total monthly cost.
2. "optimizedCost": a number, the monthly cost after applying every recommendation.
3. "savings": a number, the identified waste. savings MUST equal currentCost - optimizedCost and be a significant but realistic portion of currentCost.
4. "breakdown": an object with numeric "compute", "storage", "network" and "other" fields that sum to currentCost.
5. "costBreakdown": an array of objects for the top 5 services, each with a "service" (string) and "cost" (number).
6. "recommendations": an array of 3-5 specific, actionable objects, each with a "title" (string), a "description" (string) and "estimatedSavings" (number).
7. "forecast": an array of 6 objects, each with a "month" (string, e.g. "Jan"). The first 3 represent past spending using the "cost" key. The next 3 are a prediction using the "predictedCost" key.
`)
	return b.String()
}
