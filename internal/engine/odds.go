package engine

import (
	"fmt"
	"math"
	"sort"
)

// probTolerance is the allowed deviation from 1.0 when validating that a
// level's tier distribution is a probability distribution.
const probTolerance = 1e-6

// ShopOddsTable maps player level to the probability of a single shop slot
// offering each cost tier. The table is domain data supplied per game
// version, validated once at construction and immutable afterwards.
type ShopOddsTable struct {
	dist     map[int]map[int]float64 // level -> cost -> probability
	minLevel int
	maxLevel int
}

// NewShopOddsTable validates and builds an odds table. rows maps player
// level to per-cost probabilities. Construction fails with ErrInvalidOddsTable
// if any row contains a negative probability or does not sum to 1 within
// probTolerance.
func NewShopOddsTable(rows map[int]map[int]float64) (*ShopOddsTable, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no levels", ErrInvalidOddsTable)
	}

	t := &ShopOddsTable{
		dist:     make(map[int]map[int]float64, len(rows)),
		minLevel: math.MaxInt,
		maxLevel: math.MinInt,
	}

	for level, row := range rows {
		if level <= 0 {
			return nil, fmt.Errorf("%w: level %d is not positive", ErrInvalidOddsTable, level)
		}
		sum := 0.0
		dist := make(map[int]float64, len(row))
		for cost, p := range row {
			if cost <= 0 {
				return nil, fmt.Errorf("%w: level %d has non-positive cost tier %d", ErrInvalidOddsTable, level, cost)
			}
			if p < 0 {
				return nil, fmt.Errorf("%w: level %d cost %d has negative probability %g", ErrInvalidOddsTable, level, cost, p)
			}
			dist[cost] = p
			sum += p
		}
		if math.Abs(sum-1.0) > probTolerance {
			return nil, fmt.Errorf("%w: level %d probabilities sum to %g, want 1.0", ErrInvalidOddsTable, level, sum)
		}
		t.dist[level] = dist
		if level < t.minLevel {
			t.minLevel = level
		}
		if level > t.maxLevel {
			t.maxLevel = level
		}
	}

	return t, nil
}

// TierDistribution returns a copy of the cost-tier distribution for the
// given player level. Levels outside the table are an input error.
func (t *ShopOddsTable) TierDistribution(level int) (map[int]float64, error) {
	row, ok := t.dist[level]
	if !ok {
		return nil, fmt.Errorf("%w: %d (supported %d-%d)", ErrInvalidLevel, level, t.minLevel, t.maxLevel)
	}
	out := make(map[int]float64, len(row))
	for cost, p := range row {
		out[cost] = p
	}
	return out, nil
}

// TierProbability returns the probability of a single shop slot offering the
// given cost tier at the given level. A cost absent from the row has
// probability zero.
func (t *ShopOddsTable) TierProbability(level, cost int) (float64, error) {
	row, ok := t.dist[level]
	if !ok {
		return 0, fmt.Errorf("%w: %d (supported %d-%d)", ErrInvalidLevel, level, t.minLevel, t.maxLevel)
	}
	return row[cost], nil
}

// Levels returns the supported player levels in ascending order.
func (t *ShopOddsTable) Levels() []int {
	levels := make([]int, 0, len(t.dist))
	for l := range t.dist {
		levels = append(levels, l)
	}
	sort.Ints(levels)
	return levels
}
