// Command sweep prints a risk curve as CSV.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"capex-lab/internal/config"
	"capex-lab/internal/domain"
	"capex-lab/internal/finance"
	"capex-lab/internal/logging"
	"capex-lab/internal/reporting"
	"capex-lab/internal/simulation"
	"capex-lab/internal/sweep"
)

func main() {
	cfg, err := config.Load(os.Getenv("CAPEX_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	def := cfg.AnalysisRequest()

	axis := flag.String("axis", string(domain.AxisForMode(def.Mode)), "Sweep axis (AVERAGE_ACCOUNTS, RANGE_WIDTH)")
	traders := flag.Int("traders", def.Financial.TraderCount, "Number of traders")
	simulations := flag.Int("simulations", def.Financial.Simulations, "Simulations per point")
	payout := flag.Float64("payout", def.Financial.PayoutPerSuccess, "Payout per successful account")
	rates := flag.String("rates", "", "Comma-separated failure rates (default scenario rates)")
	seedFlag := flag.String("seed", config.FormatSeed(def.Seed), "Seed for a reproducible curve (empty for random)")
	sampling := flag.String("sampling", string(def.Sampling), "Sampling strategy (POOLED, PER_TRADER)")
	output := flag.String("output", "", "Write CSV to this file instead of stdout")
	flag.Parse()

	// CSV goes to stdout, so logs stay on stderr.
	logCfg := cfg.Log
	logCfg.Console = true
	logger, err := logging.New(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	req := sweep.Request{
		Axis:             domain.Axis(strings.ToUpper(*axis)),
		TraderCount:      *traders,
		Simulations:      *simulations,
		FailureRates:     finance.DefaultScenarioRates(),
		PayoutPerSuccess: *payout,
		Sampling:         simulation.Sampling(strings.ToUpper(*sampling)),
	}
	if *rates != "" {
		req.FailureRates = nil
		for _, part := range strings.Split(*rates, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
			if err != nil {
				logger.Fatal("invalid --rates", zap.String("value", part), zap.Error(err))
			}
			req.FailureRates = append(req.FailureRates, v)
		}
	}
	if req.Seed, err = config.ParseSeed(*seedFlag); err != nil {
		logger.Fatal("invalid --seed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := cfg.EngineOptions()
	opts.Logger = logger
	runner := sweep.NewRunner(simulation.NewEngine(opts), logger)

	points, err := runner.Sweep(ctx, req)
	if err != nil {
		logger.Fatal("sweep failed", zap.Error(err))
	}

	csv := reporting.RenderRiskCSV(points)
	if *output == "" {
		fmt.Print(csv)
		return
	}
	if err := os.WriteFile(*output, []byte(csv), 0o644); err != nil {
		logger.Fatal("write output", zap.String("path", *output), zap.Error(err))
	}
	logger.Info("risk curve written", zap.String("path", *output), zap.Int("points", len(points)))
}
