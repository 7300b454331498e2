// Package mcpserver exposes billing analysis and budget alerts as Model
// Context Protocol tools over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/cloudcost-guard/internal/controller"
	"github.com/cloudcost-guard/internal/demo"
)

// ServerName is the MCP implementation name
const ServerName = "cloudcost-guard-mcp"

// New creates an MCP server with every tool registered
func New(ctrl *controller.Controller, version string) *server.MCPServer {
	s := server.NewMCPServer(
		ServerName,
		version,
		server.WithToolCapabilities(true),
	)

	RegisterAnalysisTools(s, ctrl)
	RegisterAlertTools(s, ctrl)
	return s
}

// Serve runs the MCP server on stdin/stdout until the client disconnects
func Serve(ctrl *controller.Controller, version string) error {
	return server.ServeStdio(New(ctrl, version))
}

// RegisterAnalysisTools registers the analysis and demo data tools
func RegisterAnalysisTools(s *server.MCPServer, ctrl *controller.Controller) {
	s.AddTool(
		mcp.NewTool("analyze_billing_data",
			mcp.WithDescription("Analyze cloud billing data (CSV 'Service,Cost' lines or JSON) and return current cost, optimized cost, savings, a cost breakdown, recommendations and a six month forecast. Falls back to demo data when no AI key is configured or the AI call fails; the 'source' field says which."),
			mcp.WithString("billing_data",
				mcp.Required(),
				mcp.Description("Raw billing export text"),
			),
			mcp.WithString("currency",
				mcp.Description("Display currency code: USD, EUR, GBP, JPY, INR, CAD or AUD (default USD)"),
			),
		),
		makeAnalyzeHandler(ctrl),
	)

	s.AddTool(
		mcp.NewTool("list_demo_profiles",
			mcp.WithDescription("List the built-in demo datasets used as fallbacks, with their headline figures."),
		),
		makeListProfilesHandler(ctrl),
	)
}

// RegisterAlertTools registers the budget alert tools
func RegisterAlertTools(s *server.MCPServer, ctrl *controller.Controller) {
	s.AddTool(
		mcp.NewTool("evaluate_budget",
			mcp.WithDescription("Evaluate a monthly spend against the saved budget alert settings and return normal, warning or critical."),
			mcp.WithNumber("spend",
				mcp.Required(),
				mcp.Description("Monthly spend to evaluate"),
			),
		),
		makeEvaluateBudgetHandler(ctrl),
	)

	s.AddTool(
		mcp.NewTool("get_alert_settings",
			mcp.WithDescription("Get the saved budget and warning/critical thresholds."),
		),
		makeAlertSettingsHandler(ctrl),
	)
}

func makeAnalyzeHandler(ctrl *controller.Controller) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		billingData, err := request.RequireString("billing_data")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		resp, err := ctrl.Analyze(ctx, controller.AnalyzeRequest{
			BillingData: billingData,
			Currency:    request.GetString("currency", ""),
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid request: %v", err)), nil
		}
		return jsonResult(resp)
	}
}

// ProfileSummary describes one demo dataset
type ProfileSummary struct {
	Name            string  `json:"name"`
	CurrentCost     float64 `json:"currentCost"`
	Savings         float64 `json:"savings"`
	Recommendations int     `json:"recommendations"`
}

func makeListProfilesHandler(ctrl *controller.Controller) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		names := ctrl.DemoProfiles()
		out := make([]ProfileSummary, 0, len(names))
		for _, name := range names {
			r, err := ctrl.DemoProfile(name)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			out = append(out, ProfileSummary{
				Name:            name,
				CurrentCost:     r.CurrentCost,
				Savings:         r.Savings,
				Recommendations: len(r.Recommendations),
			})
		}
		return jsonResult(map[string]any{
			"profiles":   out,
			"sampleData": demo.SampleBillingData,
		})
	}
}

func makeEvaluateBudgetHandler(ctrl *controller.Controller) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		spend, err := request.RequireFloat("spend")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		status, err := ctrl.AlertStatus(spend)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(status)
	}
}

func makeAlertSettingsHandler(ctrl *controller.Controller) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(ctrl.AlertSettings())
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
