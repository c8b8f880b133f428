package idhash

import (
	"crypto/sha256"
	"fmt"
	"strconv"

	"github.com/mr-tron/base58"
)

// SimulationKeyInput is the full input tuple of one engine invocation.
type SimulationKeyInput struct {
	PopulationDigest [sha256.Size]byte
	FailureRates     []float64
	Simulations      int
	PayoutPerSuccess float64
	Sampling         string
	Seed             *uint64 // nil means the run was not explicitly seeded
}

// ComputeSimulationKey computes a deterministic cache key using SHA256.
// Formula: SHA256(population_digest|rates|simulations|payout|sampling|seed)
// Rates keep their order. Floats use the shortest exact representation.
// Returns base58-encoded hash.
func ComputeSimulationKey(in SimulationKeyInput) string {
	seed := "auto"
	if in.Seed != nil {
		seed = strconv.FormatUint(*in.Seed, 10)
	}

	data := fmt.Sprintf("%x|%s|%d|%s|%s|%s",
		in.PopulationDigest,
		joinRates(in.FailureRates),
		in.Simulations,
		strconv.FormatFloat(in.PayoutPerSuccess, 'g', -1, 64),
		in.Sampling,
		seed,
	)

	hash := sha256.Sum256([]byte(data))
	return base58.Encode(hash[:])
}
