package storage

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"capex-lab/internal/domain"
)

// NamedStore pairs an ExportStore with the sink name used in logs and metrics.
type NamedStore struct {
	Name  string
	Store ExportStore
}

// SaveAll writes exp to every store. Every store is attempted; failures are
// combined so errors.Is still matches ErrDuplicateKey and friends.
func SaveAll(ctx context.Context, exp *domain.Export, stores ...NamedStore) error {
	if err := ValidateExport(exp); err != nil {
		return err
	}
	var err error
	for _, s := range stores {
		if saveErr := s.Store.Save(ctx, exp); saveErr != nil {
			err = multierr.Append(err, fmt.Errorf("%s: %w", s.Name, saveErr))
		}
	}
	return err
}
