package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"capex-lab/internal/domain"
	"capex-lab/internal/observability"
	"capex-lab/internal/storage"
)

// ExportStore implements storage.ExportStore using PostgreSQL.
type ExportStore struct {
	pool *Pool
}

// NewExportStore creates a new ExportStore.
func NewExportStore(pool *Pool) *ExportStore {
	return &ExportStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ExportStore = (*ExportStore)(nil)

// Save writes the run row and all table rows in one transaction.
// Returns ErrDuplicateKey if run_id exists.
func (s *ExportStore) Save(ctx context.Context, exp *domain.Export) (err error) {
	if err := storage.ValidateExport(exp); err != nil {
		return err
	}
	defer func(start time.Time) { observe("save_export", start, err) }(time.Now())

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	r := exp.Run
	_, err = tx.Exec(ctx, `
		INSERT INTO export_runs (
			run_id, generated_at, mode, trader_count, simulations,
			revenue_per_account, payout_per_success, additional_revenue,
			total_accounts, total_revenue, seed, breakeven_found, breakeven_rate
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		r.RunID, r.GeneratedAt, string(r.Mode), r.TraderCount, r.Simulations,
		r.RevenuePerAccount, r.PayoutPerSuccess, r.AdditionalRevenue,
		r.TotalAccounts, r.TotalRevenue, seedToDB(r.Seed), r.BreakevenFound, r.BreakevenRate,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert run: %w", err)
	}

	if _, err = tx.CopyFrom(ctx, pgx.Identifier{"export_summary"},
		[]string{"run_id", "position", "parameter", "value"},
		pgx.CopyFromSlice(len(exp.Summary), func(i int) ([]any, error) {
			p := exp.Summary[i]
			return []any{r.RunID, i, p.Parameter, p.Value}, nil
		}),
	); err != nil {
		return fmt.Errorf("copy summary: %w", err)
	}

	if _, err = tx.CopyFrom(ctx, pgx.Identifier{"export_scenarios"},
		[]string{"run_id", "position", "failure_rate", "replicate", "simulated_payout", "associated_profit"},
		pgx.CopyFromSlice(len(exp.Scenarios), func(i int) ([]any, error) {
			p := exp.Scenarios[i]
			return []any{r.RunID, i, p.FailureRate, p.Replicate, p.SimulatedPayout, p.AssociatedProfit}, nil
		}),
	); err != nil {
		return fmt.Errorf("copy scenarios: %w", err)
	}

	if _, err = tx.CopyFrom(ctx, pgx.Identifier{"export_breakeven"},
		[]string{"run_id", "position", "failure_rate", "estimated_profit"},
		pgx.CopyFromSlice(len(exp.Profit), func(i int) ([]any, error) {
			p := exp.Profit[i]
			return []any{r.RunID, i, p.FailureRate, p.EstimatedProfit}, nil
		}),
	); err != nil {
		return fmt.Errorf("copy breakeven: %w", err)
	}

	if _, err = tx.CopyFrom(ctx, pgx.Identifier{"export_risk"},
		[]string{"run_id", "position", "axis", "axis_value", "failure_rate", "std_dev"},
		pgx.CopyFromSlice(len(exp.Risk), func(i int) ([]any, error) {
			p := exp.Risk[i]
			return []any{r.RunID, i, string(p.Axis), p.AxisValue, p.FailureRate, p.StdDev}, nil
		}),
	); err != nil {
		return fmt.Errorf("copy risk: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	observability.RecordExportRows("postgres", "export_scenarios", len(exp.Scenarios))
	observability.RecordExportRows("postgres", "export_breakeven", len(exp.Profit))
	observability.RecordExportRows("postgres", "export_risk", len(exp.Risk))
	return nil
}

const runColumns = `
	run_id, generated_at, mode, trader_count, simulations,
	revenue_per_account, payout_per_success, additional_revenue,
	total_accounts, total_revenue, seed, breakeven_found, breakeven_rate`

// GetRun retrieves run metadata. Returns ErrNotFound if not exists.
func (s *ExportStore) GetRun(ctx context.Context, runID string) (*domain.RunRecord, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+runColumns+` FROM export_runs WHERE run_id = $1`, runID)
	run, err := scanRun(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// ListRuns retrieves all runs ordered by generated_at ASC, run_id ASC.
func (s *ExportStore) ListRuns(ctx context.Context) ([]*domain.RunRecord, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+runColumns+` FROM export_runs ORDER BY generated_at ASC, run_id ASC`)
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
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// GetExport retrieves a run with all table rows. Returns ErrNotFound if not exists.
func (s *ExportStore) GetExport(ctx context.Context, runID string) (*domain.Export, error) {
	run, err := s.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	exp := &domain.Export{Run: *run}

	exp.Summary, err = collect(ctx, s.pool,
		`SELECT parameter, value FROM export_summary WHERE run_id = $1 ORDER BY position`, runID,
		func(row pgx.CollectableRow) (domain.SummaryParameter, error) {
			var p domain.SummaryParameter
			err := row.Scan(&p.Parameter, &p.Value)
			return p, err
		})
	if err != nil {
		return nil, fmt.Errorf("get summary: %w", err)
	}

	exp.Scenarios, err = collect(ctx, s.pool,
		`SELECT failure_rate, replicate, simulated_payout, associated_profit
		 FROM export_scenarios WHERE run_id = $1 ORDER BY position`, runID,
		func(row pgx.CollectableRow) (domain.ScenarioPayout, error) {
			var p domain.ScenarioPayout
			err := row.Scan(&p.FailureRate, &p.Replicate, &p.SimulatedPayout, &p.AssociatedProfit)
			return p, err
		})
	if err != nil {
		return nil, fmt.Errorf("get scenarios: %w", err)
	}

	exp.Profit, err = collect(ctx, s.pool,
		`SELECT failure_rate, estimated_profit FROM export_breakeven WHERE run_id = $1 ORDER BY position`, runID,
		func(row pgx.CollectableRow) (domain.ProfitPoint, error) {
			var p domain.ProfitPoint
			err := row.Scan(&p.FailureRate, &p.EstimatedProfit)
			return p, err
		})
	if err != nil {
		return nil, fmt.Errorf("get breakeven: %w", err)
	}

	exp.Risk, err = collect(ctx, s.pool,
		`SELECT axis, axis_value, failure_rate, std_dev FROM export_risk WHERE run_id = $1 ORDER BY position`, runID,
		func(row pgx.CollectableRow) (domain.RiskPoint, error) {
			var p domain.RiskPoint
			var axis string
			err := row.Scan(&axis, &p.AxisValue, &p.FailureRate, &p.StdDev)
			p.Axis = domain.Axis(axis)
			return p, err
		})
	if err != nil {
		return nil, fmt.Errorf("get risk: %w", err)
	}

	return exp, nil
}

func collect[T any](ctx context.Context, pool *Pool, query, runID string, fn pgx.RowToFunc[T]) ([]T, error) {
	rows, err := pool.Query(ctx, query, runID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, fn)
}

func scanRun(row pgx.Row) (*domain.RunRecord, error) {
	var r domain.RunRecord
	var mode string
	var seed *int64
	err := row.Scan(
		&r.RunID, &r.GeneratedAt, &mode, &r.TraderCount, &r.Simulations,
		&r.RevenuePerAccount, &r.PayoutPerSuccess, &r.AdditionalRevenue,
		&r.TotalAccounts, &r.TotalRevenue, &seed, &r.BreakevenFound, &r.BreakevenRate,
	)
	if err != nil {
		return nil, err
	}
	r.Mode = domain.DistributionMode(mode)
	r.Seed = seedFromDB(seed)
	r.GeneratedAt = r.GeneratedAt.UTC()
	return &r, nil
}

// BIGINT is signed; seeds are stored bit for bit.
func seedToDB(seed *uint64) *int64 {
	if seed == nil {
		return nil
	}
	v := int64(*seed)
	return &v
}

func seedFromDB(seed *int64) *uint64 {
	if seed == nil {
		return nil
	}
	v := uint64(*seed)
	return &v
}
