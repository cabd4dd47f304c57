package engine

import (
	"errors"
	"reflect"
	"testing"
)

func testRanker(t *testing.T) (*Ranker, *PoolState) {
	t.Helper()

	m, pool := testMatcher(t)
	return NewRanker(m, DefaultWeights()), pool
}

func testDecks() []MetaDeck {
	return []MetaDeck{
		{ID: "mages", Name: "Mages", Tier: "S", Core: []UnitID{"brand", "cass"}},
		{ID: "snipers", Name: "Snipers", Tier: "A", Core: []UnitID{"ashe", "ezreal", "draven"}},
		{ID: "nobles", Name: "Nobles", Tier: "B", Core: []UnitID{"draven"}},
	}
}

func TestRankEmptyCandidateSet(t *testing.T) {
	r, pool := testRanker(t)

	_, err := r.Rank(pool.Snapshot(), []UnitID{"ashe"}, nil, 5, 10)
	if !errors.Is(err, ErrEmptyCandidateSet) {
		t.Errorf("Rank(no decks) error = %v, want ErrEmptyCandidateSet", err)
	}
}

func TestRankPrefersOwnedComposition(t *testing.T) {
	r, pool := testRanker(t)

	results, err := r.Rank(pool.Snapshot(), []UnitID{"brand", "cass"}, testDecks(), 5, 10)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("Rank() returned %d results, want 3", len(results))
	}
	if results[0].DeckID != "mages" {
		t.Errorf("top deck = %s, want mages (fully owned)", results[0].DeckID)
	}
	if results[0].MatchRatio != 1.0 || results[0].CompletionProbability != 1.0 {
		t.Errorf("top deck match = %g completion = %g, want 1.0/1.0",
			results[0].MatchRatio, results[0].CompletionProbability)
	}

	// Scores are non-increasing down the list.
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("results[%d].Score = %g exceeds results[%d].Score = %g",
				i, results[i].Score, i-1, results[i-1].Score)
		}
	}
}

func TestRankDeterministic(t *testing.T) {
	r, pool := testRanker(t)
	snap := pool.Snapshot()
	owned := []UnitID{"ashe"}

	first, err := r.Rank(snap, owned, testDecks(), 5, 10)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := r.Rank(snap, owned, testDecks(), 5, 10)
		if err != nil {
			t.Fatalf("Rank() error = %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("Rank() produced different output on identical inputs")
		}
	}
}

func TestRankTieBreakByDeckID(t *testing.T) {
	r, pool := testRanker(t)

	// Identical compositions under different identifiers: every score
	// component ties, so the deck ID decides the order.
	decks := []MetaDeck{
		{ID: "zeta", Name: "Zeta", Core: []UnitID{"ashe", "brand"}},
		{ID: "alpha", Name: "Alpha", Core: []UnitID{"ashe", "brand"}},
	}
	results, err := r.Rank(pool.Snapshot(), []UnitID{"ashe"}, decks, 5, 10)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if results[0].DeckID != "alpha" || results[1].DeckID != "zeta" {
		t.Errorf("tie-break order = [%s %s], want [alpha zeta]", results[0].DeckID, results[1].DeckID)
	}
}

func TestRankDoesNotMutateInputs(t *testing.T) {
	r, pool := testRanker(t)

	decks := testDecks()
	ownedBefore := []UnitID{"ashe", "cass"}
	owned := append([]UnitID(nil), ownedBefore...)
	poolBefore := pool.Snapshot()

	if _, err := r.Rank(pool.Snapshot(), owned, decks, 5, 10); err != nil {
		t.Fatalf("Rank() error = %v", err)
	}

	if !reflect.DeepEqual(owned, ownedBefore) {
		t.Error("Rank() mutated the owned set")
	}
	if !reflect.DeepEqual(decks, testDecks()) {
		t.Error("Rank() mutated the deck catalog")
	}
	after := pool.Snapshot()
	for _, u := range []UnitID{"ashe", "brand", "cass", "draven", "ezreal"} {
		if poolBefore.Remaining(u) != after.Remaining(u) {
			t.Errorf("Rank() changed pool state for %s", u)
		}
	}
}

func TestNewRankerDefaultsZeroWeights(t *testing.T) {
	m, _ := testMatcher(t)

	r := NewRanker(m, Weights{})
	if r.weights != DefaultWeights() {
		t.Errorf("zero-value weights = %+v, want defaults %+v", r.weights, DefaultWeights())
	}
}

func TestDefaultWeights(t *testing.T) {
	w := DefaultWeights()
	if w.Match <= 0 || w.Completion <= 0 || w.Cost < 0 {
		t.Errorf("DefaultWeights() = %+v, want positive match/completion and non-negative cost", w)
	}
}
