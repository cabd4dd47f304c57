// Package session holds the per-game state the dashboard feeds the engine:
// the player's owned units, opponent sightings, shop contents, level and
// gold. A session owns exactly one pool ledger; all mutation goes through
// the session's mutex so pool bookkeeping and the observation maps can
// never drift apart. State is discarded with the session, never persisted.
package session

import (
	"fmt"
	"sort"
	"sync"

	"github.com/minsukang/tft-guide/internal/engine"
)

// Session is the single-writer owner of one game's observation state.
type Session struct {
	mu   sync.Mutex
	reg  *engine.Registry
	pool *engine.PoolState

	owned     map[engine.UnitID]int
	opponents map[string]map[engine.UnitID]int
	shop      map[engine.UnitID]int
	level     int
	gold      int
}

// State is a frozen copy of the session for display.
type State struct {
	Owned     []OwnedUnit             `json:"owned"`
	Opponents map[string][]string     `json:"opponents"`
	Shop      []string                `json:"shop"`
	Level     int                     `json:"level"`
	Gold      int                     `json:"gold"`
}

// OwnedUnit is one owned unit with its copy count.
type OwnedUnit struct {
	ID    engine.UnitID `json:"id"`
	Count int           `json:"count"`
}

// New creates a session over a full pool for the given catalog.
func New(reg *engine.Registry, startLevel int) (*Session, error) {
	if startLevel <= 0 {
		return nil, fmt.Errorf("start level must be positive, got %d", startLevel)
	}
	return &Session{
		reg:       reg,
		pool:      engine.NewPoolState(reg),
		owned:     make(map[engine.UnitID]int),
		opponents: make(map[string]map[engine.UnitID]int),
		shop:      make(map[engine.UnitID]int),
		level:     startLevel,
	}, nil
}

// AddOwned records count newly bought copies of a unit.
func (s *Session) AddOwned(id engine.UnitID, count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.pool.ObserveOwned(id, count); err != nil {
		return err
	}
	s.owned[id] += count
	return nil
}

// RemoveOwned records count copies sold back to the pool.
func (s *Session) RemoveOwned(id engine.UnitID, count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if count <= 0 {
		return fmt.Errorf("remove %q: count must be positive, got %d", id, count)
	}
	if s.owned[id] < count {
		return fmt.Errorf("remove %q: own %d copies, cannot remove %d", id, s.owned[id], count)
	}
	if err := s.pool.Release(id, count); err != nil {
		return err
	}
	s.owned[id] -= count
	if s.owned[id] == 0 {
		delete(s.owned, id)
	}
	return nil
}

// ToggleOwned flips a unit between owned and not owned, the dashboard's
// one-click selection. Returns whether the unit is owned afterwards.
func (s *Session) ToggleOwned(id engine.UnitID) (bool, error) {
	s.mu.Lock()
	count := s.owned[id]
	s.mu.Unlock()

	if count == 0 {
		if err := s.AddOwned(id, 1); err != nil {
			return false, err
		}
		return true, nil
	}
	if err := s.RemoveOwned(id, count); err != nil {
		return true, err
	}
	return false, nil
}

// SetOpponentBoard replaces the sighting record for one opponent,
// reconciling the pool with the difference between the old and new boards.
// The update is atomic: on failure the pool and the sighting record are
// left as they were.
func (s *Session) SetOpponentBoard(opponent string, units []engine.UnitID) error {
	if opponent == "" {
		return fmt.Errorf("opponent name must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := countUnits(units)
	if err := s.reconcile(s.opponents[opponent], next); err != nil {
		return fmt.Errorf("opponent %q: %w", opponent, err)
	}
	if len(next) == 0 {
		delete(s.opponents, opponent)
	} else {
		s.opponents[opponent] = next
	}
	return nil
}

// SetShop replaces the currently visible shop contents. Shop copies are on
// offer, hence out of the undrawn pool until the shop rolls over.
func (s *Session) SetShop(units []engine.UnitID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := countUnits(units)
	if err := s.reconcile(s.shop, next); err != nil {
		return fmt.Errorf("shop: %w", err)
	}
	s.shop = next
	return nil
}

// SetLevel updates the player level used for odds queries.
func (s *Session) SetLevel(level int) error {
	if level <= 0 {
		return fmt.Errorf("level must be positive, got %d", level)
	}
	s.mu.Lock()
	s.level = level
	s.mu.Unlock()
	return nil
}

// SetGold updates the player's gold, used only by the advisory layer.
func (s *Session) SetGold(gold int) error {
	if gold < 0 {
		return fmt.Errorf("gold must be non-negative, got %d", gold)
	}
	s.mu.Lock()
	s.gold = gold
	s.mu.Unlock()
	return nil
}

// Level returns the current player level.
func (s *Session) Level() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.level
}

// Gold returns the current gold count.
func (s *Session) Gold() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gold
}

// OwnedUnits returns the distinct owned unit IDs in sorted order, the shape
// the matcher consumes.
func (s *Session) OwnedUnits() []engine.UnitID {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]engine.UnitID, 0, len(s.owned))
	for id := range s.owned {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Registry returns the catalog this session was created over.
func (s *Session) Registry() *engine.Registry {
	return s.reg
}

// Snapshot returns a frozen pool view for queries. Queries may run against
// it concurrently with further session mutation.
func (s *Session) Snapshot() engine.PoolSnapshot {
	return s.pool.Snapshot()
}

// State returns a frozen copy of the display state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		Opponents: make(map[string][]string, len(s.opponents)),
		Level:     s.level,
		Gold:      s.gold,
	}
	for id, count := range s.owned {
		st.Owned = append(st.Owned, OwnedUnit{ID: id, Count: count})
	}
	sort.Slice(st.Owned, func(i, j int) bool { return st.Owned[i].ID < st.Owned[j].ID })
	for opp, board := range s.opponents {
		st.Opponents[opp] = flattenCounts(board)
	}
	st.Shop = flattenCounts(s.shop)
	return st
}

// reconcile moves the pool from the prev sighting counts to next. Releases
// run before observations so a unit moving between slots of the same record
// cannot trip a spurious underflow; if any observation fails, every applied
// step is reversed before returning.
func (s *Session) reconcile(prev, next map[engine.UnitID]int) error {
	type step struct {
		id engine.UnitID
		n  int // positive: observed, negative: released
	}
	var applied []step

	rollback := func() {
		for i := len(applied) - 1; i >= 0; i-- {
			st := applied[i]
			if st.n > 0 {
				_ = s.pool.Release(st.id, st.n)
			} else {
				_ = s.pool.ObserveOwned(st.id, -st.n)
			}
		}
	}

	for id, was := range prev {
		if now := next[id]; now < was {
			if err := s.pool.Release(id, was-now); err != nil {
				rollback()
				return err
			}
			applied = append(applied, step{id, -(was - now)})
		}
	}
	for id, now := range next {
		if was := prev[id]; now > was {
			if err := s.pool.ObserveOwned(id, now-was); err != nil {
				rollback()
				return err
			}
			applied = append(applied, step{id, now - was})
		}
	}
	return nil
}

func countUnits(units []engine.UnitID) map[engine.UnitID]int {
	counts := make(map[engine.UnitID]int, len(units))
	for _, id := range units {
		counts[id]++
	}
	return counts
}

func flattenCounts(counts map[engine.UnitID]int) []string {
	out := make([]string, 0, len(counts))
	for id, n := range counts {
		for i := 0; i < n; i++ {
			out = append(out, string(id))
		}
	}
	sort.Strings(out)
	return out
}
