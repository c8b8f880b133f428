package migrations

import (
	"context"
	"fmt"

	"capex-lab/internal/storage/postgres"
)

// RunPostgresMigrations applies the export schema in lexical file order.
// Every statement uses IF NOT EXISTS so reruns are harmless.
func RunPostgresMigrations(ctx context.Context, pool *postgres.Pool) error {
	files, err := readMigrations(PostgresFS, "postgres")
	if err != nil {
		return err
	}
	for _, f := range files {
		if _, err := pool.Exec(ctx, f.sql); err != nil {
			return fmt.Errorf("apply migration %s: %w", f.name, err)
		}
	}
	return nil
}
