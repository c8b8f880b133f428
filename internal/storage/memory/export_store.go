package memory

import (
	"context"
	"sort"
	"sync"

	"capex-lab/internal/domain"
	"capex-lab/internal/storage"
)

// ExportStore is an in-memory implementation of storage.ExportStore.
type ExportStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Export // keyed by run_id
}

// NewExportStore creates a new in-memory export store.
func NewExportStore() *ExportStore {
	return &ExportStore{
		data: make(map[string]*domain.Export),
	}
}

// Compile-time interface check.
var _ storage.ExportStore = (*ExportStore)(nil)

// Save adds a new export. Returns ErrDuplicateKey if the run ID exists.
func (s *ExportStore) Save(_ context.Context, exp *domain.Export) error {
	if err := storage.ValidateExport(exp); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[exp.Run.RunID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[exp.Run.RunID] = copyExport(exp)
	return nil
}

// GetRun retrieves run metadata. Returns ErrNotFound if not exists.
func (s *ExportStore) GetRun(_ context.Context, runID string) (*domain.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exp, ok := s.data[runID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	run := copyRun(exp.Run)
	return &run, nil
}

// ListRuns retrieves all runs ordered by generated_at ASC, run_id ASC.
func (s *ExportStore) ListRuns(_ context.Context) ([]*domain.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]*domain.RunRecord, 0, len(s.data))
	for _, exp := range s.data {
		run := copyRun(exp.Run)
		runs = append(runs, &run)
	}

	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].GeneratedAt.Equal(runs[j].GeneratedAt) {
			return runs[i].GeneratedAt.Before(runs[j].GeneratedAt)
		}
		return runs[i].RunID < runs[j].RunID
	})
	return runs, nil
}

// GetExport retrieves a full export. Returns ErrNotFound if not exists.
func (s *ExportStore) GetExport(_ context.Context, runID string) (*domain.Export, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exp, ok := s.data[runID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return copyExport(exp), nil
}

func copyRun(r domain.RunRecord) domain.RunRecord {
	if r.Seed != nil {
		seed := *r.Seed
		r.Seed = &seed
	}
	if r.BreakevenRate != nil {
		rate := *r.BreakevenRate
		r.BreakevenRate = &rate
	}
	return r
}

func copyExport(exp *domain.Export) *domain.Export {
	return &domain.Export{
		Run:       copyRun(exp.Run),
		Summary:   append([]domain.SummaryParameter(nil), exp.Summary...),
		Scenarios: append([]domain.ScenarioPayout(nil), exp.Scenarios...),
		Profit:    append([]domain.ProfitPoint(nil), exp.Profit...),
		Risk:      append([]domain.RiskPoint(nil), exp.Risk...),
	}
}
