package simulation

import "math/rand/v2"

// Stream purposes. Each purpose gets its own family of random streams so that,
// for a given seed, population draws never overlap engine draws.
const (
	StreamPopulation uint64 = iota + 1
	StreamEngine
	StreamSweep
)

const golden = 0x9e3779b97f4a7c15

// splitmix64 finalizer.
func mix(z uint64) uint64 {
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// DeriveSeed folds ids into seed, producing an independent child seed.
func DeriveSeed(seed uint64, ids ...uint64) uint64 {
	s := mix(seed + golden)
	for _, id := range ids {
		s = mix(s ^ mix(id+golden))
	}
	return s
}

// NewStream returns a PCG generator for (seed, ids...).
// The same arguments always yield the same sequence.
func NewStream(seed uint64, ids ...uint64) *rand.Rand {
	s := DeriveSeed(seed, ids...)
	return rand.New(rand.NewPCG(s, mix(s^golden)))
}

// RandomSeed draws a seed from the process random source.
func RandomSeed() uint64 {
	return rand.Uint64()
}
