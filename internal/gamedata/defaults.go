package gamedata

import "github.com/minsukang/tft-guide/internal/engine"

// defaultPoolCopies is the per-cost pool size used when a champion entry
// does not carry its own count.
var defaultPoolCopies = map[int]int{
	1: 29,
	2: 22,
	3: 18,
	4: 12,
	5: 10,
}

// defaultShopOdds is the per-level cost-tier distribution of a shop slot,
// levels 2 through 10, costs 1 through 5.
var defaultShopOdds = map[int][5]float64{
	2:  {1.00, 0.00, 0.00, 0.00, 0.00},
	3:  {0.75, 0.25, 0.00, 0.00, 0.00},
	4:  {0.55, 0.30, 0.15, 0.00, 0.00},
	5:  {0.45, 0.33, 0.20, 0.02, 0.00},
	6:  {0.30, 0.40, 0.25, 0.05, 0.00},
	7:  {0.19, 0.30, 0.35, 0.15, 0.01},
	8:  {0.18, 0.25, 0.32, 0.22, 0.03},
	9:  {0.15, 0.20, 0.25, 0.30, 0.10},
	10: {0.05, 0.10, 0.20, 0.40, 0.25},
}

// PoolCopiesForCost returns the default pool size for a cost tier, 0 for
// tiers outside 1-5.
func PoolCopiesForCost(cost int) int {
	return defaultPoolCopies[cost]
}

// DefaultShopOdds builds the built-in shop odds table.
func DefaultShopOdds() (*engine.ShopOddsTable, error) {
	dist := make(map[int]map[int]float64, len(defaultShopOdds))
	for level, row := range defaultShopOdds {
		tier := make(map[int]float64, len(row))
		for i, p := range row {
			if p > 0 {
				tier[i+1] = p
			}
		}
		dist[level] = tier
	}
	return engine.NewShopOddsTable(dist)
}
