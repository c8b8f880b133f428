package idhash

import (
	"testing"

	"github.com/google/uuid"

	"capex-lab/internal/domain"
)

func TestComputeRunID_Seeded(t *testing.T) {
	in := RunIDInput{
		Mode:      domain.ModeRandomized,
		Params:    domain.PopulationParams{Low: 5, High: 15},
		Financial: domain.DefaultFinancialParameters,
		Seed:      ptrUint64(7),
	}

	got := ComputeRunID(in)
	if len(got) != 22 {
		t.Errorf("ComputeRunID() length = %d, want 22", len(got))
	}
	if got2 := ComputeRunID(in); got != got2 {
		t.Errorf("ComputeRunID() not deterministic: %s != %s", got, got2)
	}

	in.Seed = ptrUint64(8)
	if other := ComputeRunID(in); other == got {
		t.Error("different seed should produce different run id")
	}
}

func TestComputeRunID_Unseeded(t *testing.T) {
	in := RunIDInput{
		Mode:      domain.ModeAverageSimulated,
		Params:    domain.PopulationParams{Average: 20},
		Financial: domain.DefaultFinancialParameters,
	}

	a := ComputeRunID(in)
	b := ComputeRunID(in)
	if a == b {
		t.Error("unseeded runs should get distinct ids")
	}
	if _, err := uuid.Parse(a); err != nil {
		t.Errorf("unseeded run id should be a uuid: %v", err)
	}
}

func TestComputeRunID_CoversBreakevenAndRisk(t *testing.T) {
	base := RunIDInput{
		Mode:        domain.ModeAverageSimulated,
		Params:      domain.PopulationParams{Average: 20},
		Financial:   domain.DefaultFinancialParameters,
		Seed:        ptrUint64(7),
		ScenarioKey: "scenario",
	}
	want := ComputeRunID(base)

	rates := base
	rates.BreakevenRates = []float64{0.1, 0.2}
	if got := ComputeRunID(rates); got == want {
		t.Error("different breakeven rates should produce different run id")
	}

	skip := base
	skip.SkipRisk = true
	if got := ComputeRunID(skip); got == want {
		t.Error("skipping the risk sweep should produce a different run id")
	}
}
