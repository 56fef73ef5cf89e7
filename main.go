package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nconklindev/stockboard/internal/chart"
	"github.com/nconklindev/stockboard/internal/config"
	"github.com/nconklindev/stockboard/internal/dashboard"
	"github.com/nconklindev/stockboard/internal/logging"
	"github.com/nconklindev/stockboard/internal/metrics"
	"github.com/nconklindev/stockboard/internal/server"
	"github.com/nconklindev/stockboard/internal/spreadsheet"
	"github.com/nconklindev/stockboard/internal/store"
	"github.com/nconklindev/stockboard/internal/ui"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// defaultTUILog keeps log lines off the screen the dashboard draws on.
const defaultTUILog = "stockboard.log"

type app struct {
	cfg    *config.Config
	logger *zap.Logger

	verbose    bool
	namespace  string
	dbDriver   string
	dbDSN      string
	chartDir   string
	buckets    string
	httpAddr   string
	logFile    string
	tuiLogging bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var tab string

	root := &cobra.Command{
		Use:          "stockboard",
		Short:        "Stock inventory dashboard for Excel exports",
		Long:         "Upload a stock spreadsheet, sort its rows into tabs, and browse per-tab metrics and charts.",
		Version:      fmt.Sprintf("%s\ncommit: %s\nbuilt: %s", version, commit, date),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.tuiLogging = cmd.Parent() == nil
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI(tab)
		},
	}

	pf := root.PersistentFlags()
	pf.BoolVar(&a.verbose, "verbose", false, "enable debug logging")
	pf.StringVar(&a.namespace, "namespace", "", "key prefix for stored tabs (STOCKBOARD_NAMESPACE)")
	pf.StringVar(&a.dbDriver, "db-driver", "", "sqlite or postgres (STOCKBOARD_DB_DRIVER)")
	pf.StringVar(&a.dbDSN, "db-dsn", "", "database path or connection string (STOCKBOARD_DB_DSN)")
	pf.StringVar(&a.chartDir, "chart-dir", "", "directory for PNG charts (STOCKBOARD_CHART_DIR)")
	pf.StringVar(&a.buckets, "buckets", "", "YAML file with tab definitions (STOCKBOARD_BUCKETS_FILE)")
	pf.StringVar(&a.logFile, "log-file", "", "write logs to this file (STOCKBOARD_LOG_FILE)")

	root.Flags().StringVar(&tab, "tab", "", "tab to show first, e.g. titipan-murni")

	root.AddCommand(newAnalyzeCmd(a), newServeCmd(a))
	return root
}

func newAnalyzeCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "analyze FILE",
		Short: "Categorize a spreadsheet, store every tab and draw its charts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAnalyze(cmd.Context(), cmd.OutOrStdout(), args[0], asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the tab views as JSON")
	return cmd
}

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runServe(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&a.httpAddr, "addr", "", "listen address (STOCKBOARD_HTTP_ADDR)")
	return cmd
}

// setup loads configuration, applies flag overrides and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	override := func(name string, dst *string, val string) {
		if flags.Changed(name) {
			*dst = val
		}
	}
	override("namespace", &cfg.Namespace, a.namespace)
	override("db-driver", &cfg.Database.Driver, a.dbDriver)
	override("db-dsn", &cfg.Database.DSN, a.dbDSN)
	override("chart-dir", &cfg.ChartDir, a.chartDir)
	override("buckets", &cfg.BucketsFile, a.buckets)
	override("addr", &cfg.HTTPAddr, a.httpAddr)
	override("log-file", &cfg.Logging.File, a.logFile)
	if err := cfg.Finalize(); err != nil {
		return err
	}

	logFile := cfg.Logging.File
	if logFile == "" && a.tuiLogging {
		logFile = defaultTUILog
	}
	logger, err := logging.New(cfg.Logging.Level, logFile, a.verbose)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	a.logger.Debug("Configuration loaded",
		zap.String("namespace", cfg.Namespace),
		zap.String("driver", cfg.Database.Driver),
		zap.Int("tabs", len(cfg.Buckets)))
	return nil
}

func (a *app) openController(renderer chart.Renderer) (*dashboard.Controller, func(), error) {
	db, err := store.Open(a.cfg.Database.Driver, a.cfg.Database.DSN, a.cfg.Namespace)
	if err != nil {
		return nil, nil, err
	}
	c, err := dashboard.New(db, renderer, a.cfg.Buckets, a.logger)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return c, func() { db.Close() }, nil
}

func (a *app) runTUI(tab string) error {
	text := chart.NewTextRenderer(80)
	png, err := chart.NewPNGRenderer(a.cfg.ChartDir)
	if err != nil {
		return err
	}
	c, closeStore, err := a.openController(chart.Fanout{text, png})
	if err != nil {
		return err
	}
	defer closeStore()

	m, err := ui.NewModel(c, text, a.logger, tab)
	if err != nil {
		return err
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

func (a *app) runAnalyze(ctx context.Context, out io.Writer, path string, asJSON bool) error {
	png, err := chart.NewPNGRenderer(a.cfg.ChartDir)
	if err != nil {
		return err
	}
	c, closeStore, err := a.openController(png)
	if err != nil {
		return err
	}
	defer closeStore()

	table, err := spreadsheet.ReadFile(path)
	if err != nil {
		return err
	}
	analysis, err := c.Analyze(ctx, table)
	if err != nil {
		return err
	}
	metrics.AnalysisDuration.Observe(analysis.Duration.Seconds())

	views, err := c.LoadAll(ctx)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(views)
	}

	fmt.Fprintf(out, "Analyzed %s records (%s dropped), charts in %s\n\n",
		humanize.Comma(int64(analysis.Records)), humanize.Comma(int64(analysis.Dropped)), a.cfg.ChartDir)
	for _, v := range views {
		fmt.Fprintf(out, "%-24s %8s records  stock %-12s balance %-16s avg age %s\n",
			v.Title, humanize.Comma(int64(v.Records)), v.Display.TotalStock, v.Display.CurrentBalance, v.Display.AverageAge)
	}
	return nil
}

func (a *app) runServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	png, err := chart.NewPNGRenderer(a.cfg.ChartDir)
	if err != nil {
		return err
	}
	c, closeStore, err := a.openController(png)
	if err != nil {
		return err
	}
	defer closeStore()

	if _, err := c.LoadAll(ctx); err != nil {
		return err
	}
	return server.New(c, a.cfg.ChartDir, a.logger).ListenAndServe(ctx, a.cfg.HTTPAddr)
}
