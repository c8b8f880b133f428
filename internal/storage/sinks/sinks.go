// Package sinks opens the configured export stores for binaries.
package sinks

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"capex-lab/internal/storage"
	chstore "capex-lab/internal/storage/clickhouse"
	"capex-lab/internal/storage/memory"
	"capex-lab/internal/storage/migrations"
	pgstore "capex-lab/internal/storage/postgres"
)

// Options selects the sinks to open. Empty DSNs are skipped.
type Options struct {
	PostgresDSN   string
	ClickhouseDSN string
	Memory        bool // add an in-process store, useful for dry runs
}

// Open connects and migrates every configured sink.
// The returned cleanup closes all connections and is never nil. On error the
// connections opened so far are already closed.
func Open(ctx context.Context, opts Options, logger *zap.Logger) ([]storage.NamedStore, func() error, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var (
		stores  []storage.NamedStore
		closers []func() error
	)
	cleanup := func() error {
		var err error
		for i := len(closers) - 1; i >= 0; i-- {
			err = multierr.Append(err, closers[i]())
		}
		return err
	}

	noop := func() error { return nil }

	if opts.Memory {
		stores = append(stores, storage.NamedStore{Name: "memory", Store: memory.NewExportStore()})
	}

	if opts.PostgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, opts.PostgresDSN)
		if err != nil {
			return nil, noop, multierr.Append(fmt.Errorf("connect to postgres: %w", err), cleanup())
		}
		closers = append(closers, func() error { pool.Close(); return nil })
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			return nil, noop, multierr.Append(fmt.Errorf("migrate postgres: %w", err), cleanup())
		}
		stores = append(stores, storage.NamedStore{Name: "postgres", Store: pgstore.NewExportStore(pool)})
		logger.Info("postgres export sink ready")
	}

	if opts.ClickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, opts.ClickhouseDSN)
		if err != nil {
			return nil, noop, multierr.Append(fmt.Errorf("migrate clickhouse: %w", err), cleanup())
		}
		closers = append(closers, conn.Close)
		stores = append(stores, storage.NamedStore{Name: "clickhouse", Store: chstore.NewExportStore(conn)})
		logger.Info("clickhouse export sink ready")
	}

	return stores, cleanup, nil
}
