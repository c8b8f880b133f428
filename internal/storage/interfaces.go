package storage

import (
	"context"

	"capex-lab/internal/domain"
)

// ExportStore persists finished analysis exports.
// Stores are append-only: an export is written once and never updated.
type ExportStore interface {
	// Save writes the run and its four tables atomically.
	// Returns ErrDuplicateKey if the run ID exists, ErrInvalidInput if the run ID is empty.
	Save(ctx context.Context, exp *domain.Export) error

	// GetRun retrieves run metadata. Returns ErrNotFound if not exists.
	GetRun(ctx context.Context, runID string) (*domain.RunRecord, error)

	// ListRuns retrieves all runs ordered by generated_at ASC, run_id ASC.
	ListRuns(ctx context.Context) ([]*domain.RunRecord, error)

	// GetExport retrieves a run with all table rows in their original order.
	// Returns ErrNotFound if not exists.
	GetExport(ctx context.Context, runID string) (*domain.Export, error)
}

// ValidateExport checks the fields every store requires.
func ValidateExport(exp *domain.Export) error {
	if exp == nil || exp.Run.RunID == "" || !exp.Run.Mode.IsValid() {
		return ErrInvalidInput
	}
	return nil
}
