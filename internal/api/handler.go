// Package api exposes analyses, raw engine runs and sweeps over HTTP.
package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"capex-lab/internal/analysis"
	"capex-lab/internal/domain"
	"capex-lab/internal/finance"
	"capex-lab/internal/observability"
	"capex-lab/internal/population"
	"capex-lab/internal/reporting"
	"capex-lab/internal/simulation"
	"capex-lab/internal/storage"
	"capex-lab/internal/sweep"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Options configures a Handler.
type Options struct {
	Engine         *simulation.Engine
	Stores         []storage.NamedStore // export sinks for ?persist=true
	Logger         *zap.Logger
	RequestTimeout time.Duration // zero disables the per-request deadline
}

// Handler serves the API. It is safe for concurrent use.
type Handler struct {
	engine    *simulation.Engine
	pipeline  *analysis.Pipeline
	sweeper   *sweep.Runner
	generator *reporting.Generator
	stores    []storage.NamedStore
	logger    *zap.Logger
	timeout   time.Duration
	upgrader  websocket.Upgrader
	started   time.Time

	analyses     atomic.Int64
	exploreConns atomic.Int64
	mu           sync.Mutex
	lastAnalysis time.Time
}

// NewHandler creates a new Handler.
func NewHandler(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		engine:    opts.Engine,
		pipeline:  analysis.NewPipeline(opts.Engine, logger),
		sweeper:   sweep.NewRunner(opts.Engine, logger),
		generator: reporting.NewGenerator(),
		stores:    opts.Stores,
		logger:    logger,
		timeout:   opts.RequestTimeout,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		started: time.Now(),
	}
}

func (h *Handler) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if h.timeout > 0 {
		return context.WithTimeout(c.Request.Context(), h.timeout)
	}
	return context.WithCancel(c.Request.Context())
}

func (h *Handler) runAnalysis(ctx context.Context, req analysis.Request) (*analysis.Result, error) {
	res, err := h.pipeline.Run(ctx, req)
	if err != nil {
		return nil, err
	}
	h.analyses.Add(1)
	h.mu.Lock()
	h.lastAnalysis = time.Now().UTC()
	h.mu.Unlock()
	return res, nil
}

// Analysis handles POST /api/v1/analysis.
func (h *Handler) Analysis(c *gin.Context) {
	var req analysis.Request
	if err := bind(c, &req); err != nil {
		fail(c, err)
		return
	}
	ctx, cancel := h.requestContext(c)
	defer cancel()

	res, err := h.runAnalysis(ctx, req)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, res)
}

// Export handles POST /api/v1/analysis/export. It runs the analysis and
// streams the XLSX workbook. With ?persist=true the export is also saved to
// every configured store first.
func (h *Handler) Export(c *gin.Context) {
	var req analysis.Request
	if err := bind(c, &req); err != nil {
		fail(c, err)
		return
	}
	ctx, cancel := h.requestContext(c)
	defer cancel()

	res, err := h.runAnalysis(ctx, req)
	if err != nil {
		fail(c, err)
		return
	}
	exp := h.generator.Generate(res).Export(res)

	if persist, _ := strconv.ParseBool(c.Query("persist")); persist {
		if err := storage.SaveAll(ctx, &exp, h.stores...); err != nil {
			h.logger.Warn("export persist failed", zap.String("run_id", res.RunID), zap.Error(err))
			fail(c, err)
			return
		}
	}

	var buf bytes.Buffer
	if err := reporting.WriteXLSX(&buf, exp); err != nil {
		fail(c, err)
		return
	}
	observability.RecordReport("xlsx")

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, reporting.XLSXFileName(res.Mode)))
	c.Header("X-Run-Id", res.RunID)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// SimulateRequest is a raw engine run on a freshly drawn population.
type SimulateRequest struct {
	Mode             domain.DistributionMode `json:"mode"`
	Params           domain.PopulationParams `json:"params"`
	TraderCount      int                     `json:"trader_count"`
	Simulations      int                     `json:"simulations"`
	FailureRates     []float64               `json:"failure_rates"`
	PayoutPerSuccess float64                 `json:"payout_per_success"`
	Seed             *uint64                 `json:"seed,omitempty"`
	Sampling         simulation.Sampling     `json:"sampling,omitempty"`
}

// RateBatch is one failure rate's payouts in replicate order.
type RateBatch struct {
	FailureRate float64   `json:"failure_rate"`
	Mean        float64   `json:"mean"`
	StdDev      float64   `json:"std_dev"`
	Payouts     []float64 `json:"payouts"`
}

// SimulateResponse is the reply to SimulateRequest.
type SimulateResponse struct {
	Seed          uint64      `json:"seed"`
	Sampling      string      `json:"sampling"`
	TotalAccounts int64       `json:"total_accounts"`
	Batches       []RateBatch `json:"batches"`
}

// Simulate handles POST /api/v1/simulate.
func (h *Handler) Simulate(c *gin.Context) {
	var req SimulateRequest
	if err := bind(c, &req); err != nil {
		fail(c, err)
		return
	}
	ctx, cancel := h.requestContext(c)
	defer cancel()

	base := simulation.RandomSeed()
	if req.Seed != nil {
		base = *req.Seed
	}
	pop, err := population.Generate(simulation.NewStream(base, simulation.StreamPopulation), req.Mode, req.TraderCount, req.Params)
	if err != nil {
		fail(c, err)
		return
	}

	// Only seeded requests pin the engine stream, so only they are cacheable.
	var engineSeed *uint64
	if req.Seed != nil {
		s := simulation.DeriveSeed(base, simulation.StreamEngine)
		engineSeed = &s
	}
	results, err := h.engine.Run(ctx, simulation.Request{
		Population:       pop,
		Simulations:      req.Simulations,
		FailureRates:     req.FailureRates,
		PayoutPerSuccess: req.PayoutPerSuccess,
		Seed:             engineSeed,
		Sampling:         req.Sampling,
	})
	if err != nil {
		fail(c, err)
		return
	}

	resp := SimulateResponse{
		Seed:          results.Seed(),
		Sampling:      string(results.Sampling()),
		TotalAccounts: finance.TotalAccounts(pop),
		Batches:       make([]RateBatch, 0, results.Len()),
	}
	results.Each(func(rate float64, b domain.SimulationBatch) {
		resp.Batches = append(resp.Batches, RateBatch{
			FailureRate: rate,
			Mean:        finance.MeanPayout(b),
			StdDev:      finance.StdPayout(b),
			Payouts:     b.Clone(),
		})
	})
	ok(c, resp)
}

// Sweep handles POST /api/v1/sweep.
func (h *Handler) Sweep(c *gin.Context) {
	var req sweep.Request
	if err := bind(c, &req); err != nil {
		fail(c, err)
		return
	}
	ctx, cancel := h.requestContext(c)
	defer cancel()

	points, err := h.sweeper.Sweep(ctx, req)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, points)
}

// StatusResponse is the reply of /status.
type StatusResponse struct {
	Status       string     `json:"status"`
	Uptime       string     `json:"uptime"`
	Analyses     int64      `json:"analyses"`
	ExploreConns int64      `json:"explore_connections"`
	LastAnalysis *time.Time `json:"last_analysis,omitempty"`
	Stores       []string   `json:"stores"`
}

// Status handles GET /status.
func (h *Handler) Status(c *gin.Context) {
	resp := StatusResponse{
		Status:       "running",
		Uptime:       time.Since(h.started).Round(time.Second).String(),
		Analyses:     h.analyses.Load(),
		ExploreConns: h.exploreConns.Load(),
		Stores:       make([]string, 0, len(h.stores)),
	}
	h.mu.Lock()
	if !h.lastAnalysis.IsZero() {
		last := h.lastAnalysis
		resp.LastAnalysis = &last
	}
	h.mu.Unlock()
	for _, s := range h.stores {
		resp.Stores = append(resp.Stores, s.Name)
	}
	writeJSON(c, http.StatusOK, resp)
}

// Health handles GET /health.
func (h *Handler) Health(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}
