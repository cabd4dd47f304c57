package engine

import (
	"fmt"
	"sort"
)

// Weights are the caller-tunable coefficients of the composite ranking
// score. Acquisition cost enters negatively: cheaper completions rank
// higher at equal match and completion odds.
type Weights struct {
	Match      float64 `json:"match" toml:"match"`
	Completion float64 `json:"completion" toml:"completion"`
	Cost       float64 `json:"cost" toml:"cost"`
}

// DefaultWeights mirrors the classic 60/40 match-versus-acquisition split,
// with a small cost penalty to separate otherwise equal decks.
func DefaultWeights() Weights {
	return Weights{
		Match:      0.6,
		Completion: 0.4,
		Cost:       0.01,
	}
}

// RecommendationResult is the ranker's verdict on one candidate deck.
// Results are produced fresh per query and never mutated afterwards.
type RecommendationResult struct {
	Deck                  MetaDeck       `json:"-"`
	DeckID                string         `json:"deck_id"`
	DeckName              string         `json:"deck_name"`
	Tier                  string         `json:"tier"`
	WinRate               float64        `json:"win_rate"`
	MatchRatio            float64        `json:"match_ratio"`
	FlexRatio             float64        `json:"flex_ratio"`
	CompletionProbability float64        `json:"completion_probability"`
	ExpectedRefreshes     float64        `json:"expected_refreshes"`
	AcquisitionCost       int            `json:"acquisition_cost"`
	Score                 float64        `json:"score"`
	OwnedCore             []UnitID       `json:"owned_core"`
	MissingCore           []UnitID       `json:"missing_core"`
	Prospects             []UnitProspect `json:"needed_units"`
}

// Ranker orders candidate decks by composite score. It is a pure query: it
// never mutates the pool snapshot, the owned set or the deck catalog, and
// identical inputs always produce identical ordered output.
type Ranker struct {
	matcher *Matcher
	weights Weights
}

// NewRanker creates a ranker with the given weights. Zero-value weights are
// replaced by the defaults.
func NewRanker(matcher *Matcher, weights Weights) *Ranker {
	if weights == (Weights{}) {
		weights = DefaultWeights()
	}
	return &Ranker{matcher: matcher, weights: weights}
}

// Rank scores every candidate deck against the owned set and returns the
// results ordered best-first. Ties in composite score fall back to the
// deterministic order of lessMatch.
func (r *Ranker) Rank(snap PoolSnapshot, owned []UnitID, decks []MetaDeck, level, budget int) ([]RecommendationResult, error) {
	if len(decks) == 0 {
		return nil, ErrEmptyCandidateSet
	}

	matches := make([]DeckMatch, 0, len(decks))
	for _, deck := range decks {
		match, err := r.matcher.Match(snap, deck, owned, level, budget)
		if err != nil {
			return nil, fmt.Errorf("rank: %w", err)
		}
		matches = append(matches, match)
	}

	sort.Slice(matches, func(i, j int) bool {
		si, sj := r.score(&matches[i]), r.score(&matches[j])
		if si != sj {
			return si > sj
		}
		return lessMatch(&matches[i], &matches[j])
	})

	results := make([]RecommendationResult, 0, len(matches))
	for i := range matches {
		results = append(results, r.result(&matches[i]))
	}
	return results, nil
}

// score computes the composite ranking score for a match.
func (r *Ranker) score(m *DeckMatch) float64 {
	return r.weights.Match*m.OverlapScore +
		r.weights.Completion*m.CompletionProbability -
		r.weights.Cost*float64(m.AcquisitionCost)
}

func (r *Ranker) result(m *DeckMatch) RecommendationResult {
	return RecommendationResult{
		Deck:                  m.Deck,
		DeckID:                m.Deck.ID,
		DeckName:              m.Deck.Name,
		Tier:                  m.Deck.Tier,
		WinRate:               m.Deck.WinRate,
		MatchRatio:            m.MatchRatio,
		FlexRatio:             m.FlexRatio,
		CompletionProbability: m.CompletionProbability,
		ExpectedRefreshes:     m.ExpectedRefreshes,
		AcquisitionCost:       m.AcquisitionCost,
		Score:                 r.score(m),
		OwnedCore:             m.OwnedCore,
		MissingCore:           m.MissingCore,
		Prospects:             m.Prospects,
	}
}
