package clickhouse

import (
	"context"
	"fmt"
	"time"

	"capex-lab/internal/domain"
	"capex-lab/internal/observability"
	"capex-lab/internal/storage"
)

// ExportStore implements storage.ExportStore using ClickHouse.
type ExportStore struct {
	conn *Conn
}

// NewExportStore creates a new ExportStore.
func NewExportStore(conn *Conn) *ExportStore {
	return &ExportStore{conn: conn}
}

// Compile-time interface check.
var _ storage.ExportStore = (*ExportStore)(nil)

// Save inserts the run row and every table as batches.
// MergeTree has no unique keys, so the run ID is checked first and
// ErrDuplicateKey returned when it exists. Tables are written before the
// run row so a partially written export is never listed.
func (s *ExportStore) Save(ctx context.Context, exp *domain.Export) (err error) {
	if err := storage.ValidateExport(exp); err != nil {
		return err
	}
	defer func(start time.Time) { observe("save_export", start, err) }(time.Now())

	exists, err := s.exists(ctx, exp.Run.RunID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	runID := exp.Run.RunID

	if err = s.sendBatch(ctx, `INSERT INTO export_summary (run_id, position, parameter, value)`,
		len(exp.Summary), func(i int) []any {
			p := exp.Summary[i]
			return []any{runID, uint32(i), p.Parameter, p.Value}
		}); err != nil {
		return fmt.Errorf("insert summary: %w", err)
	}

	if err = s.sendBatch(ctx, `INSERT INTO export_scenarios (run_id, position, failure_rate, replicate, simulated_payout, associated_profit)`,
		len(exp.Scenarios), func(i int) []any {
			p := exp.Scenarios[i]
			return []any{runID, uint32(i), p.FailureRate, uint32(p.Replicate), p.SimulatedPayout, p.AssociatedProfit}
		}); err != nil {
		return fmt.Errorf("insert scenarios: %w", err)
	}

	if err = s.sendBatch(ctx, `INSERT INTO export_breakeven (run_id, position, failure_rate, estimated_profit)`,
		len(exp.Profit), func(i int) []any {
			p := exp.Profit[i]
			return []any{runID, uint32(i), p.FailureRate, p.EstimatedProfit}
		}); err != nil {
		return fmt.Errorf("insert breakeven: %w", err)
	}

	if err = s.sendBatch(ctx, `INSERT INTO export_risk (run_id, position, axis, axis_value, failure_rate, std_dev)`,
		len(exp.Risk), func(i int) []any {
			p := exp.Risk[i]
			return []any{runID, uint32(i), string(p.Axis), uint32(p.AxisValue), p.FailureRate, p.StdDev}
		}); err != nil {
		return fmt.Errorf("insert risk: %w", err)
	}

	r := exp.Run
	if err = s.sendBatch(ctx, `INSERT INTO export_runs (`+runColumns+`)`, 1, func(int) []any {
		return []any{
			r.RunID, r.GeneratedAt.UTC(), string(r.Mode), uint32(r.TraderCount), uint32(r.Simulations),
			r.RevenuePerAccount, r.PayoutPerSuccess, r.AdditionalRevenue,
			r.TotalAccounts, r.TotalRevenue, r.Seed, r.BreakevenFound, r.BreakevenRate,
		}
	}); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	observability.RecordExportRows("clickhouse", "export_scenarios", len(exp.Scenarios))
	observability.RecordExportRows("clickhouse", "export_breakeven", len(exp.Profit))
	observability.RecordExportRows("clickhouse", "export_risk", len(exp.Risk))
	return nil
}

func (s *ExportStore) sendBatch(ctx context.Context, query string, n int, row func(i int) []any) error {
	if n == 0 {
		return nil
	}
	batch, err := s.conn.PrepareBatch(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}
	for i := 0; i < n; i++ {
		if err := batch.Append(row(i)...); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

func (s *ExportStore) exists(ctx context.Context, runID string) (bool, error) {
	var count uint64
	if err := s.conn.QueryRow(ctx, `SELECT count() FROM export_runs WHERE run_id = ?`, runID).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

const runColumns = `
	run_id, generated_at, mode, trader_count, simulations,
	revenue_per_account, payout_per_success, additional_revenue,
	total_accounts, total_revenue, seed, breakeven_found, breakeven_rate`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*domain.RunRecord, error) {
	var (
		r             domain.RunRecord
		mode          string
		traders, sims uint32
		seed          *uint64
		breakevenRate *float64
	)
	err := row.Scan(
		&r.RunID, &r.GeneratedAt, &mode, &traders, &sims,
		&r.RevenuePerAccount, &r.PayoutPerSuccess, &r.AdditionalRevenue,
		&r.TotalAccounts, &r.TotalRevenue, &seed, &r.BreakevenFound, &breakevenRate,
	)
	if err != nil {
		return nil, err
	}
	r.Mode = domain.DistributionMode(mode)
	r.TraderCount = int(traders)
	r.Simulations = int(sims)
	r.Seed = seed
	r.BreakevenRate = breakevenRate
	r.GeneratedAt = r.GeneratedAt.UTC()
	return &r, nil
}

// GetRun retrieves run metadata. Returns ErrNotFound if not exists.
func (s *ExportStore) GetRun(ctx context.Context, runID string) (*domain.RunRecord, error) {
	rows, err := s.conn.Query(ctx, `SELECT `+runColumns+` FROM export_runs WHERE run_id = ? LIMIT 1`, runID)
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("get run: %w", err)
		}
		return nil, storage.ErrNotFound
	}
	run, err := scanRun(rows)
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}
	return run, nil
}

// ListRuns retrieves all runs ordered by generated_at ASC, run_id ASC.
func (s *ExportStore) ListRuns(ctx context.Context) ([]*domain.RunRecord, error) {
	rows, err := s.conn.Query(ctx, `SELECT `+runColumns+` FROM export_runs ORDER BY generated_at ASC, run_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*domain.RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetExport retrieves a run with all table rows. Returns ErrNotFound if not exists.
func (s *ExportStore) GetExport(ctx context.Context, runID string) (*domain.Export, error) {
	run, err := s.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	exp := &domain.Export{Run: *run}

	err = s.query(ctx, `SELECT parameter, value FROM export_summary WHERE run_id = ? ORDER BY position`, runID,
		func(row scanner) error {
			var p domain.SummaryParameter
			if err := row.Scan(&p.Parameter, &p.Value); err != nil {
				return err
			}
			exp.Summary = append(exp.Summary, p)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("get summary: %w", err)
	}

	err = s.query(ctx, `SELECT failure_rate, replicate, simulated_payout, associated_profit
		FROM export_scenarios WHERE run_id = ? ORDER BY position`, runID,
		func(row scanner) error {
			var p domain.ScenarioPayout
			var replicate uint32
			if err := row.Scan(&p.FailureRate, &replicate, &p.SimulatedPayout, &p.AssociatedProfit); err != nil {
				return err
			}
			p.Replicate = int(replicate)
			exp.Scenarios = append(exp.Scenarios, p)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("get scenarios: %w", err)
	}

	err = s.query(ctx, `SELECT failure_rate, estimated_profit FROM export_breakeven WHERE run_id = ? ORDER BY position`, runID,
		func(row scanner) error {
			var p domain.ProfitPoint
			if err := row.Scan(&p.FailureRate, &p.EstimatedProfit); err != nil {
				return err
			}
			exp.Profit = append(exp.Profit, p)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("get breakeven: %w", err)
	}

	err = s.query(ctx, `SELECT axis, axis_value, failure_rate, std_dev FROM export_risk WHERE run_id = ? ORDER BY position`, runID,
		func(row scanner) error {
			var p domain.RiskPoint
			var axis string
			var value uint32
			if err := row.Scan(&axis, &value, &p.FailureRate, &p.StdDev); err != nil {
				return err
			}
			p.Axis = domain.Axis(axis)
			p.AxisValue = int(value)
			exp.Risk = append(exp.Risk, p)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("get risk: %w", err)
	}

	return exp, nil
}

func (s *ExportStore) query(ctx context.Context, query, runID string, fn func(row scanner) error) error {
	rows, err := s.conn.Query(ctx, query, runID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		if err := fn(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}
