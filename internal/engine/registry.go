// Package engine implements the deck recommendation core: pool-state
// tracking, shop-odds modeling, acquisition-probability estimation and meta
// deck ranking. The package is a pure library. It performs no I/O, reads no
// files and fetches nothing from the network; catalogs and observations are
// handed in by the caller as already-parsed values.
package engine

import (
	"fmt"
	"sort"
)

// UnitID uniquely identifies a unit in the catalog.
type UnitID string

// Unit is an immutable catalog entry for a draftable unit.
type Unit struct {
	ID         UnitID   `json:"id"`
	Name       string   `json:"name"`
	Cost       int      `json:"cost"`        // cost tier, 1-5 in current sets
	Traits     []string `json:"traits"`      // trait identifiers, at least one
	PoolCopies int      `json:"pool_copies"` // total copies printed in the shared pool
}

// Trait describes a trait tag and the distinct-unit counts required to
// activate each bonus level.
type Trait struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Thresholds []int  `json:"thresholds"` // ascending activation thresholds, e.g. [2 4 6]
}

// Registry is the static unit catalog shared by every session. It is built
// once at load, validated, and never mutated afterwards, so it is safe for
// concurrent readers.
type Registry struct {
	units  map[UnitID]Unit
	byCost map[int][]Unit
	traits map[string]Trait
}

// NewRegistry builds and validates a registry from catalog data. A catalog
// that fails validation does not load; there is no partially-valid state.
func NewRegistry(units []Unit, traits []Trait) (*Registry, error) {
	traitMap := make(map[string]Trait, len(traits))
	for _, t := range traits {
		if t.ID == "" {
			return nil, fmt.Errorf("trait with empty identifier")
		}
		if len(t.Thresholds) == 0 {
			return nil, fmt.Errorf("trait %q has no activation thresholds", t.ID)
		}
		prev := 0
		for _, th := range t.Thresholds {
			if th <= prev {
				return nil, fmt.Errorf("trait %q thresholds must be positive and ascending", t.ID)
			}
			prev = th
		}
		if _, dup := traitMap[t.ID]; dup {
			return nil, fmt.Errorf("duplicate trait %q", t.ID)
		}
		traitMap[t.ID] = t
	}

	r := &Registry{
		units:  make(map[UnitID]Unit, len(units)),
		byCost: make(map[int][]Unit),
		traits: traitMap,
	}

	for _, u := range units {
		if u.ID == "" {
			return nil, fmt.Errorf("unit with empty identifier")
		}
		if u.Cost <= 0 {
			return nil, fmt.Errorf("unit %q: cost must be positive, got %d", u.ID, u.Cost)
		}
		if u.PoolCopies <= 0 {
			return nil, fmt.Errorf("unit %q: pool copies must be positive, got %d", u.ID, u.PoolCopies)
		}
		if len(u.Traits) == 0 {
			return nil, fmt.Errorf("unit %q: must have at least one trait", u.ID)
		}
		for _, tr := range u.Traits {
			if _, ok := traitMap[tr]; !ok {
				return nil, fmt.Errorf("unit %q: unknown trait %q", u.ID, tr)
			}
		}
		if _, dup := r.units[u.ID]; dup {
			return nil, fmt.Errorf("duplicate unit %q", u.ID)
		}
		r.units[u.ID] = u
		r.byCost[u.Cost] = append(r.byCost[u.Cost], u)
	}

	// Deterministic per-tier ordering for iteration and tie-breaking.
	for cost := range r.byCost {
		sort.Slice(r.byCost[cost], func(i, j int) bool {
			return r.byCost[cost][i].ID < r.byCost[cost][j].ID
		})
	}

	return r, nil
}

// Lookup returns the unit for the given identifier.
func (r *Registry) Lookup(id UnitID) (Unit, error) {
	u, ok := r.units[id]
	if !ok {
		return Unit{}, fmt.Errorf("%w: %q", ErrUnknownUnit, id)
	}
	return u, nil
}

// UnitsOfCost returns every unit at the given cost tier, ordered by ID.
// The returned slice is shared; callers must not modify it.
func (r *Registry) UnitsOfCost(cost int) []Unit {
	return r.byCost[cost]
}

// Units returns all units ordered by ID.
func (r *Registry) Units() []Unit {
	all := make([]Unit, 0, len(r.units))
	for _, u := range r.units {
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all
}

// Trait returns the trait for the given identifier.
func (r *Registry) Trait(id string) (Trait, bool) {
	t, ok := r.traits[id]
	return t, ok
}

// Costs returns the cost tiers present in the catalog in ascending order.
func (r *Registry) Costs() []int {
	costs := make([]int, 0, len(r.byCost))
	for c := range r.byCost {
		costs = append(costs, c)
	}
	sort.Ints(costs)
	return costs
}

// Len returns the number of units in the catalog.
func (r *Registry) Len() int {
	return len(r.units)
}
