package engine

import (
	"fmt"
	"math"
)

// AcquisitionModel estimates multi-copy acquisition statistics from a
// sequence of per-refresh hit probabilities (one entry per copy still
// needed, already adjusted for pool depletion between copies).
//
// The default IndependenceModel treats refreshes as independent trials; an
// exact hypergeometric model can be substituted behind this interface
// without changing any caller. Approximate and exact math are never mixed
// inside one computation.
type AcquisitionModel interface {
	// ExpectedRefreshes returns the expected number of refreshes needed to
	// land every hit in the sequence. Returns +Inf when any hit is
	// impossible.
	ExpectedRefreshes(hitProbs []float64) float64

	// CompletionProbability returns the probability of landing every hit in
	// the sequence within budget refreshes.
	CompletionProbability(hitProbs []float64, budget int) float64
}

// IndependenceModel is the documented default acquisition model. It treats
// each copy as a geometric trial over refreshes and the whole sequence as a
// negative-binomial process with the depletion-averaged hit probability.
// This is a known simplification of the true without-replacement draw over
// a shared finite pool; it slightly overestimates odds for deep pools and
// is exact in the limit of an infinite pool.
type IndependenceModel struct{}

// ExpectedRefreshes sums the geometric means 1/p for each needed copy.
func (IndependenceModel) ExpectedRefreshes(hitProbs []float64) float64 {
	total := 0.0
	for _, p := range hitProbs {
		if p <= 0 {
			return math.Inf(1)
		}
		total += 1 / p
	}
	return total
}

// CompletionProbability approximates the chance of k hits within budget
// refreshes as the upper tail of Binomial(budget, pAvg), where pAvg is the
// mean per-refresh hit probability across the depletion-adjusted sequence.
func (IndependenceModel) CompletionProbability(hitProbs []float64, budget int) float64 {
	k := len(hitProbs)
	if k == 0 {
		return 1
	}
	if budget < k {
		// Each refresh contributes at most one hit in this model.
		return 0
	}

	pAvg := 0.0
	for _, p := range hitProbs {
		if p <= 0 {
			return 0
		}
		pAvg += p
	}
	pAvg /= float64(k)
	if pAvg >= 1 {
		return 1
	}

	// P(X >= k), X ~ Binomial(budget, pAvg), via the complement of the
	// lower tail. Terms are built iteratively to avoid large factorials.
	lower := 0.0
	term := math.Pow(1-pAvg, float64(budget)) // i = 0
	for i := 0; i < k; i++ {
		if i > 0 {
			term *= float64(budget-i+1) / float64(i) * pAvg / (1 - pAvg)
		}
		lower += term
	}
	result := 1 - lower
	if result < 0 {
		return 0
	}
	return result
}

// CalculatorConfig configures the pool probability calculator.
type CalculatorConfig struct {
	// SlotsPerRefresh is the number of unit slots offered by one shop
	// refresh.
	SlotsPerRefresh int

	// Model is the acquisition model used for multi-copy estimates.
	Model AcquisitionModel
}

// DefaultCalculatorConfig returns the standard configuration: five shop
// slots and the independence model.
func DefaultCalculatorConfig() *CalculatorConfig {
	return &CalculatorConfig{
		SlotsPerRefresh: 5,
		Model:           IndependenceModel{},
	}
}

// Calculator derives shop and acquisition probabilities from the static
// catalog, the odds table and a pool snapshot. It is a pure function of its
// inputs and safe for concurrent use.
type Calculator struct {
	reg   *Registry
	odds  *ShopOddsTable
	slots int
	model AcquisitionModel
}

// NewCalculator creates a calculator over the given catalog and odds table.
func NewCalculator(reg *Registry, odds *ShopOddsTable, cfg *CalculatorConfig) (*Calculator, error) {
	if cfg == nil {
		cfg = DefaultCalculatorConfig()
	}
	if cfg.SlotsPerRefresh <= 0 {
		return nil, fmt.Errorf("slots per refresh must be positive, got %d", cfg.SlotsPerRefresh)
	}
	model := cfg.Model
	if model == nil {
		model = IndependenceModel{}
	}
	return &Calculator{reg: reg, odds: odds, slots: cfg.SlotsPerRefresh, model: model}, nil
}

// SlotsPerRefresh returns the configured number of shop slots per refresh.
func (c *Calculator) SlotsPerRefresh() int {
	return c.slots
}

// SlotProbability returns the probability that a single shop slot at the
// given player level yields the given unit:
//
//	P(slot = u) = P(slot tier = cost(u)) * remaining(u) / tierRemaining(cost(u))
//
// An exhausted tier yields probability zero for every unit of that tier;
// this is defined behavior, not a division fault.
func (c *Calculator) SlotProbability(snap PoolSnapshot, id UnitID, level int) (float64, error) {
	unit, err := c.reg.Lookup(id)
	if err != nil {
		return 0, err
	}
	tierOdds, err := c.odds.TierProbability(level, unit.Cost)
	if err != nil {
		return 0, err
	}
	if tierOdds == 0 {
		return 0, nil
	}

	tierRem := snap.TierRemaining(unit.Cost)
	if tierRem == 0 {
		return 0, nil
	}
	p := tierOdds * float64(snap.Remaining(id)) / float64(tierRem)
	return c.checkProb(p)
}

// RefreshProbability returns the probability of seeing at least one copy of
// the unit in one full shop refresh. Slots within a refresh are drawn
// without replacement, but are approximated here as independent draws; with
// realistic pool sizes the error is well under a percent.
func (c *Calculator) RefreshProbability(snap PoolSnapshot, id UnitID, level int) (float64, error) {
	pSlot, err := c.SlotProbability(snap, id, level)
	if err != nil {
		return 0, err
	}
	return c.checkProb(1 - math.Pow(1-pSlot, float64(c.slots)))
}

// ExpectedRefreshes estimates the expected number of refreshes to acquire
// copies additional copies of the unit, accounting for the pool shrinking
// after each acquisition: later copies are never more likely than earlier
// ones. Returns +Inf when the pool cannot supply the requested copies.
func (c *Calculator) ExpectedRefreshes(snap PoolSnapshot, id UnitID, level, copies int) (float64, error) {
	probs, err := c.hitSequence(snap, id, level, copies)
	if err != nil {
		return 0, err
	}
	return c.model.ExpectedRefreshes(probs), nil
}

// AcquisitionProbability estimates the probability of acquiring copies
// additional copies of the unit within budget refreshes.
func (c *Calculator) AcquisitionProbability(snap PoolSnapshot, id UnitID, level, copies, budget int) (float64, error) {
	if budget < 0 {
		return 0, fmt.Errorf("refresh budget must be non-negative, got %d", budget)
	}
	probs, err := c.hitSequence(snap, id, level, copies)
	if err != nil {
		return 0, err
	}
	return c.checkProb(c.model.CompletionProbability(probs, budget))
}

// hitSequence builds the per-copy refresh-hit probabilities for acquiring
// copies of the unit, drawing down a derived snapshot between copies.
func (c *Calculator) hitSequence(snap PoolSnapshot, id UnitID, level, copies int) ([]float64, error) {
	if copies <= 0 {
		return nil, fmt.Errorf("copies must be positive, got %d", copies)
	}
	if _, err := c.reg.Lookup(id); err != nil {
		return nil, err
	}

	probs := make([]float64, 0, copies)
	current := snap
	for i := 0; i < copies; i++ {
		if current.Remaining(id) == 0 {
			// Pool exhausted: the remaining copies are unobtainable.
			probs = append(probs, 0)
			continue
		}
		p, err := c.RefreshProbability(current, id, level)
		if err != nil {
			return nil, err
		}
		probs = append(probs, p)
		current = current.withDrawn(c.reg, id, 1)
	}
	return probs, nil
}

// checkProb asserts that a computed probability lies in [0, 1]. Values
// outside the range by more than floating-point noise surface
// ErrProbabilityRange; tiny numeric jitter is folded back onto the bound.
func (c *Calculator) checkProb(p float64) (float64, error) {
	const eps = 1e-9
	switch {
	case p < -eps || p > 1+eps || math.IsNaN(p):
		return 0, fmt.Errorf("%w: %g", ErrProbabilityRange, p)
	case p < 0:
		return 0, nil
	case p > 1:
		return 1, nil
	}
	return p, nil
}
