// Package cli implements the command-line interface for cloudcost-guard.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/common-nighthawk/go-figure"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/cloudcost-guard/internal/config"
	"github.com/cloudcost-guard/internal/controller"
	"github.com/cloudcost-guard/internal/domain"
	"github.com/cloudcost-guard/internal/logging"
	"github.com/cloudcost-guard/internal/mcpserver"
	"github.com/cloudcost-guard/internal/report"
	"github.com/cloudcost-guard/internal/web"
)

// Output formats for analyze and samples
const (
	OutputTable = "table"
	OutputJSON  = "json"
	OutputCSV   = "csv"
)

// CLI encapsulates the command-line interface
type CLI struct {
	rootCmd *cobra.Command
	ctrl    *controller.Controller
	stdin   io.Reader
	debug   bool
}

// New creates a new CLI instance. The controller is built on first use so
// that commands like --help never touch config files or secrets.
func New() *CLI {
	cli := &CLI{stdin: os.Stdin}
	cli.buildCommands()
	return cli
}

// NewWithController creates a CLI around an existing controller
func NewWithController(ctrl *controller.Controller) *CLI {
	cli := New()
	cli.ctrl = ctrl
	return cli
}

// Execute runs the CLI
func (c *CLI) Execute() error {
	return c.rootCmd.Execute()
}

// controller returns the shared controller. Logs go to stderr so stdout
// stays clean for json/csv output and the MCP stdio transport.
func (c *CLI) controller() *controller.Controller {
	if c.ctrl == nil {
		cfg := config.Get()
		logger := controller.NewLogger(cfg, "cli", os.Stderr)
		if c.debug {
			logger.SetLevel(logging.DEBUG)
		}
		logging.SetDefault(logger)
		c.ctrl = controller.New(
			controller.WithConfig(cfg),
			controller.WithLogger(logger),
		)
	}
	return c.ctrl
}

// buildCommands constructs the command tree
func (c *CLI) buildCommands() {
	c.rootCmd = &cobra.Command{
		Use:   "cloudcost-guard",
		Short: "AI-assisted cloud billing cost analyzer",
		Long: `
   ____ _                 _  ____          _      ____                     _
  / ___| | ___  _   _  __| |/ ___|___  ___| |_   / ___|_   _  __ _ _ __ __| |
 | |   | |/ _ \| | | |/ _' | |   / _ \/ __| __| | |  _| | | |/ _' | '__/ _' |
 | |___| | (_) | |_| | (_| | |__| (_) \__ \ |_  | |_| | |_| | (_| | | | (_| |
  \____|_|\___/ \__,_|\__,_|\____\___/|___/\__|  \____|\__,_|\__,_|_|  \__,_|

  ━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━

  Paste or pipe a cloud billing export and get current vs optimized cost,
  a category breakdown, savings recommendations and a six month forecast.

  Analysis runs through an AI text completion service when an API key is
  available. Without one, or when the service misbehaves, a built-in demo
  dataset matching your billing text is shown instead.`,
		Version:       "1.0.0",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	c.rootCmd.PersistentFlags().BoolVar(&c.debug, "debug", false, "Enable debug logging")

	c.rootCmd.AddCommand(c.analyzeCmd())
	c.rootCmd.AddCommand(c.alertsCmd())
	c.rootCmd.AddCommand(c.samplesCmd())
	c.rootCmd.AddCommand(c.logsCmd())
	c.rootCmd.AddCommand(c.webCmd())
	c.rootCmd.AddCommand(c.mcpCmd())
}

// analyzeCmd creates the analyze command
func (c *CLI) analyzeCmd() *cobra.Command {
	var (
		file     string
		apiKey   string
		currency string
		output   string
		chart    bool
	)

	cmd := &cobra.Command{
		Use:   "analyze [billing text]",
		Short: "Analyze cloud billing data",
		Long: `Analyze cloud billing data from a file, arguments or stdin.

Billing data is free text: CSV 'Service,Cost' lines, a JSON export or a
short description all work.

Examples:
  # Analyze an export file
  cloudcost-guard analyze --file billing.csv

  # Pipe data in and print JSON
  cat billing.csv | cloudcost-guard analyze -o json

  # Describe the account and show a category chart in euros
  cloudcost-guard analyze "dev environment costs" --currency EUR --chart`,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := c.readBillingData(file, args)
			if err != nil {
				return err
			}
			return c.runAnalyze(cmd, controller.AnalyzeRequest{
				BillingData: data,
				Currency:    currency,
				APIKey:      apiKey,
			}, output, chart)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Billing export file ('-' for stdin)")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key for this run (overrides session and environment keys)")
	cmd.Flags().StringVarP(&currency, "currency", "c", "", "Display currency: USD, EUR, GBP, JPY, INR, CAD, AUD")
	cmd.Flags().StringVarP(&output, "output", "o", OutputTable, "Output format: table, json, csv")
	cmd.Flags().BoolVar(&chart, "chart", false, "Show a cost breakdown bar chart")

	return cmd
}

func (c *CLI) readBillingData(file string, args []string) (string, error) {
	switch {
	case file == "-":
		data, err := io.ReadAll(c.stdin)
		return string(data), err
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read billing file: %w", err)
		}
		return string(data), nil
	case len(args) > 0:
		return strings.Join(args, " "), nil
	}

	if f, ok := c.stdin.(*os.File); ok {
		if info, err := f.Stat(); err == nil && info.Mode()&os.ModeCharDevice != 0 {
			return "", errors.New("no billing data: use --file, pass text as arguments or pipe data on stdin")
		}
	}
	data, err := io.ReadAll(c.stdin)
	return string(data), err
}

func (c *CLI) runAnalyze(cmd *cobra.Command, req controller.AnalyzeRequest, output string, chart bool) error {
	switch output {
	case OutputTable, OutputJSON, OutputCSV:
	default:
		return fmt.Errorf("unknown output format %q (use table, json or csv)", output)
	}

	ctrl := c.controller()
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(cmd.ErrOrStderr()))
	s.Suffix = " Analyzing billing data..."
	s.Start()
	resp, err := ctrl.Analyze(ctx, req)
	s.Stop()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch output {
	case OutputJSON:
		return writeJSON(out, resp)
	case OutputCSV:
		_, err := ctrl.Export(out, resp.Result, resp.Currency.Code)
		return err
	}

	if resp.Warning != "" {
		fmt.Fprintf(out, "⚠️  %s\n\n", resp.Warning)
	}
	fmt.Fprintln(out, report.RenderTable(resp.AnalysisResponse, resp.Currency))
	if chart {
		fmt.Fprintln(out)
		fmt.Fprintln(out, report.RenderBreakdownChart(resp.Result, resp.Currency, 0, 0))
	}

	status, err := ctrl.AlertStatus(resp.Result.CurrentCost)
	if err != nil {
		return err
	}
	if status.Level != domain.AlertNormal {
		fmt.Fprintln(out)
		fmt.Fprintln(out, report.RenderAlert(status, resp.Currency))
	}
	return nil
}

// alertsCmd creates the alerts command group
func (c *CLI) alertsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Show, change or evaluate budget alerts",
	}
	cmd.AddCommand(c.alertsShowCmd(), c.alertsSetCmd(), c.alertsStatusCmd())
	return cmd
}

func (c *CLI) alertsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the saved budget alert settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			displaySettings(cmd.OutOrStdout(), c.controller().AlertSettings())
			return nil
		},
	}
}

func (c *CLI) alertsSetCmd() *cobra.Command {
	var budget, warning, critical string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update budget alert settings",
		Long: `Update the monthly budget and alert thresholds.

Unset flags keep their saved value. Thresholds are percentages of the
budget and the warning threshold must be below the critical one.

Examples:
  cloudcost-guard alerts set --budget 8000
  cloudcost-guard alerts set --warning 60 --critical 85`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl := c.controller()
			current := ctrl.AlertSettings()
			if !cmd.Flags().Changed("budget") {
				budget = formatNumber(current.Budget)
			}
			if !cmd.Flags().Changed("warning") {
				warning = formatNumber(current.WarningThreshold)
			}
			if !cmd.Flags().Changed("critical") {
				critical = formatNumber(current.CriticalThreshold)
			}

			settings, err := ctrl.UpdateAlertInput(budget, warning, critical)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✅ Alert settings saved")
			displaySettings(cmd.OutOrStdout(), settings)
			return nil
		},
	}

	cmd.Flags().StringVar(&budget, "budget", "", "Monthly budget")
	cmd.Flags().StringVar(&warning, "warning", "", "Warning threshold in percent")
	cmd.Flags().StringVar(&critical, "critical", "", "Critical threshold in percent")

	return cmd
}

func (c *CLI) alertsStatusCmd() *cobra.Command {
	var (
		spend    float64
		currency string
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Evaluate a monthly spend against the budget",
		RunE: func(cmd *cobra.Command, args []string) error {
			cur, err := domain.LookupCurrency(currency)
			if err != nil {
				return err
			}
			status, err := c.controller().AlertStatus(spend)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), report.RenderAlert(status, cur))
			return nil
		},
	}

	cmd.Flags().Float64Var(&spend, "spend", 0, "Monthly spend to evaluate")
	cmd.Flags().StringVarP(&currency, "currency", "c", "", "Display currency")
	cmd.MarkFlagRequired("spend")

	return cmd
}

func displaySettings(w io.Writer, s domain.AlertSettings) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Setting", "Value"})
	t.AppendRows([]table.Row{
		{"Budget", formatNumber(s.Budget)},
		{"Warning threshold", report.FormatPercent(s.WarningThreshold)},
		{"Critical threshold", report.FormatPercent(s.CriticalThreshold)},
	})
	t.Render()
}

func formatNumber(v float64) string {
	return fmt.Sprintf("%g", v)
}

// samplesCmd creates the samples command
func (c *CLI) samplesCmd() *cobra.Command {
	var (
		currency string
		output   string
	)

	cmd := &cobra.Command{
		Use:   "samples [profile]",
		Short: "List demo datasets or show one",
		Long: `Without an argument, list the built-in demo datasets and print sample
billing data you can feed to analyze. With a profile name, render that
dataset.

Examples:
  cloudcost-guard samples
  cloudcost-guard samples enterprise --currency GBP`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl := c.controller()
			out := cmd.OutOrStdout()
			cur, err := domain.LookupCurrency(currency)
			if err != nil {
				return err
			}

			if len(args) == 0 {
				return c.listSamples(out, cur)
			}

			result, err := ctrl.DemoProfile(args[0])
			if err != nil {
				return fmt.Errorf("%w (available: %s)", err, strings.Join(ctrl.DemoProfiles(), ", "))
			}
			resp := domain.AnalysisResponse{Result: result, Source: domain.SourceDemo, Profile: args[0]}
			switch output {
			case OutputJSON:
				return writeJSON(out, resp)
			case OutputCSV:
				_, err := ctrl.Export(out, result, cur.Code)
				return err
			}
			fmt.Fprintln(out, report.RenderTable(resp, cur))
			return nil
		},
	}

	cmd.Flags().StringVarP(&currency, "currency", "c", "", "Display currency")
	cmd.Flags().StringVarP(&output, "output", "o", OutputTable, "Output format: table, json, csv")

	return cmd
}

func (c *CLI) listSamples(w io.Writer, cur domain.Currency) error {
	ctrl := c.controller()

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.SetTitle("Demo Datasets")
	t.AppendHeader(table.Row{"Profile", "Current", "Optimized", "Savings", "Recommendations"})
	for _, name := range ctrl.DemoProfiles() {
		r, err := ctrl.DemoProfile(name)
		if err != nil {
			return err
		}
		t.AppendRow(table.Row{
			name,
			report.FormatCurrency(r.CurrentCost, cur),
			report.FormatCurrency(r.OptimizedCost, cur),
			report.FormatPercent(r.SavingsPercent()),
			len(r.Recommendations),
		})
	}
	t.Render()

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Sample billing data:")
	fmt.Fprintln(w, ctrl.Sample())
	return nil
}

// logsCmd creates the logs command
func (c *CLI) logsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logs",
		Short: "List log files",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			dir := c.controller().Config().Logging.LogDir
			files := logging.GetLogFiles(dir)
			if len(files) == 0 {
				fmt.Fprintf(out, "No log files in %s\n", dir)
				return nil
			}

			t := table.NewWriter()
			t.SetOutputMirror(out)
			t.SetStyle(table.StyleRounded)
			t.AppendHeader(table.Row{"File", "Size", "Modified"})
			for _, f := range files {
				t.AppendRow(table.Row{f.Name, logging.FormatSize(f.Size), f.Modified.Format("2006-01-02 15:04:05")})
			}
			t.Render()
			return nil
		},
	}
}

// webCmd creates the web command
func (c *CLI) webCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "web",
		Short: "Start the web dashboard",
		Long: `Start the web dashboard and JSON API.

The dashboard provides:
  - Billing data input with file upload and sample data
  - Cost metrics, category breakdown and six month forecast
  - Savings recommendations and CSV export
  - Budget alerts and a per-session API key

Examples:
  # Start on the configured port (default 8000)
  cloudcost-guard web

  # Start on a custom port
  cloudcost-guard web --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runWeb(cmd, port)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to run the web server on (default from config)")

	return cmd
}

func (c *CLI) runWeb(cmd *cobra.Command, port int) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, figure.NewFigure("CloudCost Guard", "", true).String())
	fmt.Fprintln(out, "   Press Ctrl+C to stop")
	fmt.Fprintln(out)

	srv := web.NewServerWithController(c.controller(), port)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	fmt.Fprintln(out, "\n🛑 Shutting down...")
	return srv.Shutdown(shutdownCtx)
}

// mcpCmd creates the mcp command
func (c *CLI) mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run as an MCP server over stdio",
		Long: `Run a Model Context Protocol server on stdin/stdout so AI assistants
can analyze billing data and check budgets.

Tools: analyze_billing_data, list_demo_profiles, evaluate_budget,
get_alert_settings.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl := c.controller()
			return mcpserver.Serve(ctrl, ctrl.Config().UI.Version)
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
