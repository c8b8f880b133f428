// Command capexsim runs one capex analysis and writes its report files.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"capex-lab/internal/analysis"
	"capex-lab/internal/config"
	"capex-lab/internal/domain"
	"capex-lab/internal/logging"
	"capex-lab/internal/observability"
	"capex-lab/internal/reporting"
	"capex-lab/internal/simulation"
	"capex-lab/internal/storage"
	"capex-lab/internal/storage/sinks"
)

func main() {
	cfg, err := config.Load(os.Getenv("CAPEX_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	def := cfg.AnalysisRequest()

	// Flags default to the loaded configuration.
	mode := flag.String("mode", string(def.Mode), "Distribution mode (AVERAGE_SIMULATED, RANDOMIZED)")
	average := flag.Int("average", def.Params.Average, "Average accounts per trader (AVERAGE_SIMULATED)")
	low := flag.Int("low", def.Params.Low, "Minimum accounts per trader (RANDOMIZED)")
	high := flag.Int("high", def.Params.High, "Maximum accounts per trader (RANDOMIZED)")
	traders := flag.Int("traders", def.Financial.TraderCount, "Number of traders")
	simulations := flag.Int("simulations", def.Financial.Simulations, "Simulations per scenario")
	revenue := flag.Float64("revenue", def.Financial.RevenuePerAccount, "Revenue per account")
	payout := flag.Float64("payout", def.Financial.PayoutPerSuccess, "Payout per successful account")
	additional := flag.Float64("additional", def.Financial.AdditionalRevenue, "Additional revenue (negative for fixed costs)")
	seedFlag := flag.String("seed", config.FormatSeed(def.Seed), "Seed for a reproducible run (empty for random)")
	sampling := flag.String("sampling", string(def.Sampling), "Sampling strategy (POOLED, PER_TRADER)")
	scenarioRates := flag.String("scenario-rates", "", "Comma-separated scenario failure rates (default 0.90,0.85,0.80,0.75,0.50)")
	skipRisk := flag.Bool("skip-risk", false, "Skip the risk sweep")
	workers := flag.Int("workers", cfg.Simulation.Workers, "Concurrent engine tasks (0 = GOMAXPROCS)")
	outputDir := flag.String("output-dir", "output", "Output directory for report files")
	formats := flag.String("formats", "md,csv,xlsx,json", "Comma-separated outputs (md, csv, xlsx, json)")
	postgresDSN := flag.String("postgres-dsn", cfg.Storage.PostgresDSN, "PostgreSQL DSN to export the run to")
	clickhouseDSN := flag.String("clickhouse-dsn", cfg.Storage.ClickhouseDSN, "ClickHouse DSN to export the run to")
	flag.Parse()

	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	req := analysis.Request{
		Mode:   domain.DistributionMode(strings.ToUpper(*mode)),
		Params: domain.PopulationParams{Average: *average, Low: *low, High: *high},
		Financial: domain.FinancialParameters{
			TraderCount:       *traders,
			Simulations:       *simulations,
			RevenuePerAccount: *revenue,
			PayoutPerSuccess:  *payout,
			AdditionalRevenue: *additional,
		},
		Sampling: simulation.Sampling(strings.ToUpper(*sampling)),
		SkipRisk: *skipRisk,
	}
	if req.Seed, err = config.ParseSeed(*seedFlag); err != nil {
		logger.Fatal("invalid --seed", zap.Error(err))
	}
	if req.ScenarioRates, err = parseRates(*scenarioRates); err != nil {
		logger.Fatal("invalid --scenario-rates", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := cfg.EngineOptions()
	opts.Workers = *workers
	opts.Logger = logger
	pipeline := analysis.NewPipeline(simulation.NewEngine(opts), logger)

	res, err := pipeline.Run(ctx, req)
	if err != nil {
		logger.Fatal("analysis failed", zap.Error(err))
	}

	report := reporting.NewGenerator().Generate(res)
	exp := report.Export(res)

	written, err := writeOutputs(*outputDir, parseFormats(*formats), res, report, exp)
	if err != nil {
		logger.Fatal("write outputs", zap.Error(err))
	}

	if *postgresDSN != "" || *clickhouseDSN != "" {
		if err := exportToSinks(ctx, sinks.Options{PostgresDSN: *postgresDSN, ClickhouseDSN: *clickhouseDSN}, &exp, logger); err != nil {
			logger.Fatal("export run", zap.Error(err))
		}
	}

	fmt.Printf("Run %s (%s, %d traders, %s accounts)\n",
		res.RunID, res.Mode.Label(), res.Financial.TraderCount, reporting.FormatCount(res.TotalAccounts))
	if res.Breakeven.Found {
		fmt.Printf("Breakeven failure rate: %s\n", reporting.FormatRate(res.Breakeven.FailureRate))
	} else {
		fmt.Println("Breakeven failure rate: not found in 1%-99%")
	}
	for _, path := range written {
		fmt.Printf("  - %s\n", path)
	}
}

func writeOutputs(dir string, formats map[string]bool, res *analysis.Result, report *reporting.Report, exp domain.Export) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	var written []string
	write := func(name string, data []byte) error {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		written = append(written, path)
		return nil
	}

	if formats["md"] {
		if err := write("REPORT.md", []byte(reporting.RenderMarkdown(report))); err != nil {
			return nil, err
		}
		observability.RecordReport("md")
	}

	if formats["csv"] {
		tables := []struct {
			sheet string
			body  string
		}{
			{reporting.SheetSummary, reporting.RenderSummaryCSV(exp.Summary)},
			{reporting.SheetScenarios, reporting.RenderScenarioCSV(exp.Scenarios)},
			{reporting.SheetBreakeven, reporting.RenderBreakevenCSV(exp.Profit)},
			{reporting.SheetRisk, reporting.RenderRiskCSV(exp.Risk)},
		}
		for _, t := range tables {
			if err := write(t.sheet+".csv", []byte(t.body)); err != nil {
				return nil, err
			}
		}
		observability.RecordReport("csv")
	}

	if formats["xlsx"] {
		path := filepath.Join(dir, reporting.XLSXFileName(res.Mode))
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", path, err)
		}
		if err := reporting.WriteXLSX(f, exp); err != nil {
			f.Close()
			return nil, err
		}
		if err := f.Close(); err != nil {
			return nil, fmt.Errorf("close %s: %w", path, err)
		}
		written = append(written, path)
		observability.RecordReport("xlsx")
	}

	if formats["json"] {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode result: %w", err)
		}
		if err := write("result.json", data); err != nil {
			return nil, err
		}
		observability.RecordReport("json")
	}

	return written, nil
}

func exportToSinks(ctx context.Context, opts sinks.Options, exp *domain.Export, logger *zap.Logger) error {
	stores, cleanup, err := sinks.Open(ctx, opts, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := cleanup(); err != nil {
			logger.Warn("close export sinks", zap.Error(err))
		}
	}()

	if err := storage.SaveAll(ctx, exp, stores...); err != nil {
		return err
	}
	for _, s := range stores {
		logger.Info("run exported", zap.String("sink", s.Name), zap.String("run_id", exp.Run.RunID))
	}
	return nil
}

func parseFormats(s string) map[string]bool {
	out := make(map[string]bool)
	for _, f := range strings.Split(s, ",") {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			out[f] = true
		}
	}
	return out
}

func parseRates(s string) ([]float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var rates []float64
	for _, part := range strings.Split(s, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("parse rate %q: %w", part, err)
		}
		rates = append(rates, v)
	}
	return rates, nil
}
