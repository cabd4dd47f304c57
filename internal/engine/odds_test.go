package engine

import (
	"errors"
	"math"
	"testing"
)

func TestNewShopOddsTableValidation(t *testing.T) {
	tests := []struct {
		name string
		rows map[int]map[int]float64
	}{
		{
			name: "empty table",
			rows: map[int]map[int]float64{},
		},
		{
			name: "sum below one",
			rows: map[int]map[int]float64{5: {1: 0.5, 2: 0.4}},
		},
		{
			name: "sum above one",
			rows: map[int]map[int]float64{5: {1: 0.7, 2: 0.4}},
		},
		{
			name: "negative probability",
			rows: map[int]map[int]float64{5: {1: 1.2, 2: -0.2}},
		},
		{
			name: "non-positive level",
			rows: map[int]map[int]float64{0: {1: 1.0}},
		},
		{
			name: "non-positive cost tier",
			rows: map[int]map[int]float64{5: {0: 1.0}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewShopOddsTable(tt.rows)
			if !errors.Is(err, ErrInvalidOddsTable) {
				t.Errorf("NewShopOddsTable() error = %v, want ErrInvalidOddsTable", err)
			}
		})
	}
}

func TestShopOddsTableToleratesFloatNoise(t *testing.T) {
	// 0.1*3 + 0.7 does not sum to exactly 1.0 in binary floating point.
	_, err := NewShopOddsTable(map[int]map[int]float64{
		6: {1: 0.1, 2: 0.1, 3: 0.1, 4: 0.7},
	})
	if err != nil {
		t.Errorf("NewShopOddsTable() error = %v, want nil for near-1.0 sum", err)
	}
}

func TestTierDistributionSumsToOne(t *testing.T) {
	odds := testOdds(t)

	for _, level := range odds.Levels() {
		dist, err := odds.TierDistribution(level)
		if err != nil {
			t.Fatalf("TierDistribution(%d) error = %v", level, err)
		}
		sum := 0.0
		for cost, p := range dist {
			if p < 0 {
				t.Errorf("level %d cost %d: negative probability %g", level, cost, p)
			}
			sum += p
		}
		if math.Abs(sum-1.0) > probTolerance {
			t.Errorf("level %d: probabilities sum to %g, want 1.0", level, sum)
		}
	}
}

func TestTierDistributionUnknownLevel(t *testing.T) {
	odds := testOdds(t)

	if _, err := odds.TierDistribution(99); !errors.Is(err, ErrInvalidLevel) {
		t.Errorf("TierDistribution(99) error = %v, want ErrInvalidLevel", err)
	}
	if _, err := odds.TierProbability(0, 1); !errors.Is(err, ErrInvalidLevel) {
		t.Errorf("TierProbability(0, 1) error = %v, want ErrInvalidLevel", err)
	}
}

func TestTierDistributionReturnsCopy(t *testing.T) {
	odds := testOdds(t)

	dist, err := odds.TierDistribution(5)
	if err != nil {
		t.Fatalf("TierDistribution(5) error = %v", err)
	}
	dist[1] = 0.99

	again, err := odds.TierDistribution(5)
	if err != nil {
		t.Fatalf("TierDistribution(5) error = %v", err)
	}
	if again[1] != 0.5 {
		t.Errorf("table mutated through returned map: got %g, want 0.5", again[1])
	}
}

func TestTierProbabilityAbsentCostIsZero(t *testing.T) {
	odds := testOdds(t)

	// Level 3 offers no tier-3 units.
	p, err := odds.TierProbability(3, 3)
	if err != nil {
		t.Fatalf("TierProbability(3, 3) error = %v", err)
	}
	if p != 0 {
		t.Errorf("TierProbability(3, 3) = %g, want 0", p)
	}
}
