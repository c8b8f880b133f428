package domain

// Population is the ordered list of account counts, one entry per trader.
// It is immutable after construction: accessors never expose the backing slice.
type Population struct {
	accounts []int
	total    int64
}

// NewPopulation copies counts into a Population.
// Negative counts are a programming error of the generator and are clamped to zero.
func NewPopulation(counts []int) Population {
	accounts := make([]int, len(counts))
	var total int64
	for i, c := range counts {
		if c < 0 {
			c = 0
		}
		accounts[i] = c
		total += int64(c)
	}
	return Population{accounts: accounts, total: total}
}

// Len returns the number of traders.
func (p Population) Len() int {
	return len(p.accounts)
}

// Sum returns the total number of accounts across all traders.
func (p Population) Sum() int64 {
	return p.total
}

// At returns the account count of trader i.
func (p Population) At(i int) int {
	return p.accounts[i]
}

// Accounts returns a copy of the per-trader account counts.
func (p Population) Accounts() []int {
	out := make([]int, len(p.accounts))
	copy(out, p.accounts)
	return out
}

// Histogram returns trader counts keyed by account count.
// Index a holds how many traders own exactly a accounts.
func (p Population) Histogram() []int64 {
	maxAccounts := 0
	for _, a := range p.accounts {
		if a > maxAccounts {
			maxAccounts = a
		}
	}
	hist := make([]int64, maxAccounts+1)
	for _, a := range p.accounts {
		hist[a]++
	}
	return hist
}

// Mean returns the average account count per trader, 0 for an empty population.
func (p Population) Mean() float64 {
	if len(p.accounts) == 0 {
		return 0
	}
	return float64(p.total) / float64(len(p.accounts))
}
