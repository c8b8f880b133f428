package idhash

import (
	"crypto/sha256"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"

	"capex-lab/internal/domain"
)

// RunIDInput identifies an analysis request.
type RunIDInput struct {
	Mode        domain.DistributionMode
	Params      domain.PopulationParams
	Financial   domain.FinancialParameters
	Seed        *uint64
	ScenarioKey string // simulation key of the scenario run

	BreakevenRates []float64
	SkipRisk       bool
}

// ComputeRunID computes the run identifier for an analysis.
// Seeded runs get a deterministic ID: base58(SHA256(mode|avg|low|high|traders|sims|rev|payout|extra|seed|scenario_key|breakeven_rates|skip_risk))[:22].
// Unseeded runs cannot be reproduced, so they get a random UUID instead.
func ComputeRunID(in RunIDInput) string {
	if in.Seed == nil {
		return uuid.NewString()
	}

	data := fmt.Sprintf("%s|%d|%d|%d|%d|%d|%s|%s|%s|%d|%s|%s|%t",
		in.Mode,
		in.Params.Average,
		in.Params.Low,
		in.Params.High,
		in.Financial.TraderCount,
		in.Financial.Simulations,
		strconv.FormatFloat(in.Financial.RevenuePerAccount, 'g', -1, 64),
		strconv.FormatFloat(in.Financial.PayoutPerSuccess, 'g', -1, 64),
		strconv.FormatFloat(in.Financial.AdditionalRevenue, 'g', -1, 64),
		*in.Seed,
		in.ScenarioKey,
		joinRates(in.BreakevenRates),
		in.SkipRisk,
	)

	hash := sha256.Sum256([]byte(data))
	id := base58.Encode(hash[:])
	if len(id) > 22 {
		id = id[:22]
	}
	return id
}

func joinRates(rates []float64) string {
	parts := make([]string, len(rates))
	for i, r := range rates {
		parts[i] = strconv.FormatFloat(r, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}
