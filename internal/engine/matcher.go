package engine

import (
	"fmt"
	"sort"
)

// MetaDeck is a published target composition: the core units the deck
// cannot function without, optional flex units, and the trait levels the
// deck is designed to hit. Decks are loaded from external data and treated
// as immutable during a query.
type MetaDeck struct {
	ID          string
	Name        string
	Tier        string  // published tier label, e.g. "S", "A"
	WinRate     float64 // published average placement-adjusted win rate
	PickRate    float64
	Core        []UnitID
	Flex        []UnitID
	TraitLevels map[string]int // trait ID -> designed activation count
}

// Validate checks the deck against a catalog: a deck must have at least one
// core unit and may only reference known units and traits.
func (d MetaDeck) Validate(reg *Registry) error {
	if d.ID == "" {
		return fmt.Errorf("deck with empty identifier")
	}
	if len(d.Core) == 0 {
		return fmt.Errorf("deck %q: no core units", d.ID)
	}
	for _, id := range d.Core {
		if _, err := reg.Lookup(id); err != nil {
			return fmt.Errorf("deck %q core: %w", d.ID, err)
		}
	}
	for _, id := range d.Flex {
		if _, err := reg.Lookup(id); err != nil {
			return fmt.Errorf("deck %q flex: %w", d.ID, err)
		}
	}
	for trait := range d.TraitLevels {
		if _, ok := reg.Trait(trait); !ok {
			return fmt.Errorf("deck %q: unknown trait %q", d.ID, trait)
		}
	}
	return nil
}

// UnitProspect carries the per-unit acquisition odds for one missing core
// unit, for display or for forwarding to the advisory layer.
type UnitProspect struct {
	ID                 UnitID  `json:"id"`
	Name               string  `json:"name"`
	Cost               int     `json:"cost"`
	Remaining          int     `json:"remaining"`
	SlotProbability    float64 `json:"slot_probability"`
	RefreshProbability float64 `json:"refresh_probability"`
	ExpectedRefreshes  float64 `json:"expected_refreshes"`
}

// DeckMatch is the matcher's verdict on one deck against the owned set.
type DeckMatch struct {
	Deck                  MetaDeck
	MatchRatio            float64 // owned core / total core
	FlexRatio             float64 // owned flex / total flex, 0 without flex units
	OverlapScore          float64 // core ratio with the lower-weighted flex contribution folded in
	CompletionProbability float64 // all missing core units within the refresh budget
	ExpectedRefreshes     float64 // summed over missing core units; +Inf if unobtainable
	AcquisitionCost       int     // sum of cost tiers of missing core units
	OwnedCore             []UnitID
	MissingCore           []UnitID
	Prospects             []UnitProspect
}

// MatcherConfig configures deck matching.
type MatcherConfig struct {
	// FlexWeight is the relative weight of flex-unit overlap in the overlap
	// score; core overlap always carries weight 1.
	FlexWeight float64

	// CopiesPerUnit is how many copies of each missing core unit count as
	// "acquired". 1 models fielding the unit at all; 3 models a two-star
	// target.
	CopiesPerUnit int
}

// DefaultMatcherConfig returns the standard matching configuration.
func DefaultMatcherConfig() *MatcherConfig {
	return &MatcherConfig{
		FlexWeight:    0.25,
		CopiesPerUnit: 1,
	}
}

// Matcher scores candidate meta decks against an owned-unit set using the
// calculator for acquisition odds. Matching never mutates pool state; it
// works entirely from the supplied snapshot.
type Matcher struct {
	calc       *Calculator
	flexWeight float64
	copies     int
}

// NewMatcher creates a matcher over the given calculator.
func NewMatcher(calc *Calculator, cfg *MatcherConfig) (*Matcher, error) {
	if cfg == nil {
		cfg = DefaultMatcherConfig()
	}
	if cfg.FlexWeight < 0 {
		return nil, fmt.Errorf("flex weight must be non-negative, got %g", cfg.FlexWeight)
	}
	if cfg.CopiesPerUnit <= 0 {
		return nil, fmt.Errorf("copies per unit must be positive, got %d", cfg.CopiesPerUnit)
	}
	return &Matcher{calc: calc, flexWeight: cfg.FlexWeight, copies: cfg.CopiesPerUnit}, nil
}

// Match evaluates one deck against the owned set under a refresh budget.
//
// Completion combines per-unit acquisition probabilities under a documented
// independence assumption across distinct units. Missing units sharing a
// cost tier compete for the same slots, so the refresh budget is split
// evenly among same-tier contenders before each per-unit estimate; a unit
// whose share rounds to zero refreshes contributes zero completion.
func (m *Matcher) Match(snap PoolSnapshot, deck MetaDeck, owned []UnitID, level, budget int) (DeckMatch, error) {
	if len(deck.Core) == 0 {
		return DeckMatch{}, fmt.Errorf("deck %q: no core units", deck.ID)
	}
	if budget < 0 {
		return DeckMatch{}, fmt.Errorf("refresh budget must be non-negative, got %d", budget)
	}

	ownedSet := make(map[UnitID]bool, len(owned))
	for _, id := range owned {
		ownedSet[id] = true
	}

	match := DeckMatch{Deck: deck}
	for _, id := range dedupe(deck.Core) {
		if ownedSet[id] {
			match.OwnedCore = append(match.OwnedCore, id)
		} else {
			match.MissingCore = append(match.MissingCore, id)
		}
	}
	sortUnitIDs(match.OwnedCore)
	sortUnitIDs(match.MissingCore)

	coreTotal := len(match.OwnedCore) + len(match.MissingCore)
	match.MatchRatio = float64(len(match.OwnedCore)) / float64(coreTotal)

	if flex := dedupe(deck.Flex); len(flex) > 0 {
		ownedFlex := 0
		for _, id := range flex {
			if ownedSet[id] {
				ownedFlex++
			}
		}
		match.FlexRatio = float64(ownedFlex) / float64(len(flex))
	}
	match.OverlapScore = (match.MatchRatio + m.flexWeight*match.FlexRatio) / (1 + m.flexWeight)

	// Same-tier contenders among the missing core units.
	contenders := make(map[int]int)
	for _, id := range match.MissingCore {
		unit, err := m.calc.reg.Lookup(id)
		if err != nil {
			return DeckMatch{}, fmt.Errorf("deck %q: %w", deck.ID, err)
		}
		contenders[unit.Cost]++
	}

	completion := 1.0
	expected := 0.0
	for _, id := range match.MissingCore {
		unit, _ := m.calc.reg.Lookup(id)
		match.AcquisitionCost += unit.Cost

		prospect, err := m.prospect(snap, unit, level)
		if err != nil {
			return DeckMatch{}, fmt.Errorf("deck %q unit %q: %w", deck.ID, id, err)
		}
		match.Prospects = append(match.Prospects, prospect)
		expected += prospect.ExpectedRefreshes

		unitBudget := budget / contenders[unit.Cost]
		p, err := m.calc.AcquisitionProbability(snap, id, level, m.copies, unitBudget)
		if err != nil {
			return DeckMatch{}, fmt.Errorf("deck %q unit %q: %w", deck.ID, id, err)
		}
		completion *= p
	}

	if len(match.MissingCore) == 0 {
		match.CompletionProbability = 1
		match.ExpectedRefreshes = 0
	} else {
		match.CompletionProbability = completion
		match.ExpectedRefreshes = expected
	}
	return match, nil
}

// prospect computes display probabilities for a single missing unit.
func (m *Matcher) prospect(snap PoolSnapshot, unit Unit, level int) (UnitProspect, error) {
	pSlot, err := m.calc.SlotProbability(snap, unit.ID, level)
	if err != nil {
		return UnitProspect{}, err
	}
	pRefresh, err := m.calc.RefreshProbability(snap, unit.ID, level)
	if err != nil {
		return UnitProspect{}, err
	}
	expected, err := m.calc.ExpectedRefreshes(snap, unit.ID, level, m.copies)
	if err != nil {
		return UnitProspect{}, err
	}
	return UnitProspect{
		ID:                 unit.ID,
		Name:               unit.Name,
		Cost:               unit.Cost,
		Remaining:          snap.Remaining(unit.ID),
		SlotProbability:    pSlot,
		RefreshProbability: pRefresh,
		ExpectedRefreshes:  expected,
	}, nil
}

// dedupe returns the IDs with duplicates removed, preserving first-seen order.
func dedupe(ids []UnitID) []UnitID {
	seen := make(map[UnitID]bool, len(ids))
	out := make([]UnitID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func sortUnitIDs(ids []UnitID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}

// lessMatch is the deterministic tie-break order shared by the matcher and
// ranker: higher match ratio, then higher completion probability, then
// lower acquisition cost, then deck identifier.
func lessMatch(a, b *DeckMatch) bool {
	if a.MatchRatio != b.MatchRatio {
		return a.MatchRatio > b.MatchRatio
	}
	if a.CompletionProbability != b.CompletionProbability {
		return a.CompletionProbability > b.CompletionProbability
	}
	if a.AcquisitionCost != b.AcquisitionCost {
		return a.AcquisitionCost < b.AcquisitionCost
	}
	return a.Deck.ID < b.Deck.ID
}
