package engine

import (
	"fmt"
	"sync"
)

// PoolState is the mutable per-session ledger of how many copies of each
// unit remain undrawn in the shared pool. It is the single source of truth
// the probability math reasons over: every operation preserves
// 0 <= remaining <= PoolCopies for every unit, and an operation that would
// break the invariant fails with a typed error and leaves state unchanged.
// Silent clamping is deliberately absent; a clamped count would let the
// calculator reason about copies that do not exist.
//
// Mutation is serialized by an internal mutex (single-writer discipline).
// Readers work from Snapshot values, which are frozen and safe to use
// concurrently with further mutation.
type PoolState struct {
	mu        sync.Mutex
	reg       *Registry
	remaining map[UnitID]int
}

// NewPoolState creates a full pool for the given catalog: every unit starts
// at its printed copy count.
func NewPoolState(reg *Registry) *PoolState {
	remaining := make(map[UnitID]int, reg.Len())
	for _, u := range reg.Units() {
		remaining[u.ID] = u.PoolCopies
	}
	return &PoolState{reg: reg, remaining: remaining}
}

// ObserveOwned records that count copies of the unit have left the pool
// (bought by the player, or sighted on an opponent's board or in a shop).
// Fails with ErrPoolUnderflow if fewer than count copies remain.
func (p *PoolState) ObserveOwned(id UnitID, count int) error {
	if count <= 0 {
		return fmt.Errorf("observe %q: count must be positive, got %d", id, count)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	rem, ok := p.remaining[id]
	if !ok {
		return fmt.Errorf("observe: %w: %q", ErrUnknownUnit, id)
	}
	if rem < count {
		return fmt.Errorf("observe %q: %w: %d remaining, %d requested", id, ErrPoolUnderflow, rem, count)
	}
	p.remaining[id] = rem - count
	return nil
}

// Release reverses an observation (a unit sold back, or a sighting
// retracted), returning count copies to the pool. Fails with
// ErrPoolOverflow if the unit would exceed its printed total.
func (p *PoolState) Release(id UnitID, count int) error {
	if count <= 0 {
		return fmt.Errorf("release %q: count must be positive, got %d", id, count)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	rem, ok := p.remaining[id]
	if !ok {
		return fmt.Errorf("release: %w: %q", ErrUnknownUnit, id)
	}
	unit := p.reg.units[id]
	if rem+count > unit.PoolCopies {
		return fmt.Errorf("release %q: %w: %d remaining + %d exceeds total %d",
			id, ErrPoolOverflow, rem, count, unit.PoolCopies)
	}
	p.remaining[id] = rem + count
	return nil
}

// Remaining returns the current remaining count for a unit.
func (p *PoolState) Remaining(id UnitID) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	rem, ok := p.remaining[id]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownUnit, id)
	}
	return rem, nil
}

// Snapshot returns a frozen copy of the current remaining counts, with
// per-tier totals precomputed. The snapshot never changes, so queries can
// run against it while the live pool keeps mutating.
func (p *PoolState) Snapshot() PoolSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	remaining := make(map[UnitID]int, len(p.remaining))
	tierTotals := make(map[int]int)
	for id, rem := range p.remaining {
		remaining[id] = rem
		tierTotals[p.reg.units[id].Cost] += rem
	}
	return PoolSnapshot{remaining: remaining, tierTotals: tierTotals}
}

// PoolSnapshot is an immutable view of pool state at a point in time.
// The zero value behaves as an exhausted pool.
type PoolSnapshot struct {
	remaining  map[UnitID]int
	tierTotals map[int]int
}

// Remaining returns the snapshotted remaining count for a unit. Units not
// present in the snapshot report zero.
func (s PoolSnapshot) Remaining(id UnitID) int {
	return s.remaining[id]
}

// TierRemaining returns the snapshotted total remaining copies across all
// units of the given cost tier.
func (s PoolSnapshot) TierRemaining(cost int) int {
	return s.tierTotals[cost]
}

// withDrawn returns a derived snapshot with count copies of the unit
// removed, flooring at zero. Used by the calculator to model pool depletion
// between successive acquisitions without touching the live tracker.
func (s PoolSnapshot) withDrawn(reg *Registry, id UnitID, count int) PoolSnapshot {
	rem := s.remaining[id]
	if count > rem {
		count = rem
	}
	if count == 0 {
		return s
	}

	remaining := make(map[UnitID]int, len(s.remaining))
	for k, v := range s.remaining {
		remaining[k] = v
	}
	tierTotals := make(map[int]int, len(s.tierTotals))
	for k, v := range s.tierTotals {
		tierTotals[k] = v
	}
	remaining[id] = rem - count
	tierTotals[reg.units[id].Cost] -= count
	return PoolSnapshot{remaining: remaining, tierTotals: tierTotals}
}
