// Package guide is the facade the API layer talks to. It owns the live
// session, builds engine queries against the current catalog, and shapes
// results for display. Handlers never touch the engine directly.
package guide

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/minsukang/tft-guide/internal/engine"
	"github.com/minsukang/tft-guide/internal/gamedata"
	"github.com/minsukang/tft-guide/internal/llm"
	"github.com/minsukang/tft-guide/internal/session"
)

// Config tunes the recommendation queries the service runs.
type Config struct {
	// SlotsPerRefresh is the number of shop slots rolled per refresh.
	SlotsPerRefresh int

	// RefreshBudget is the refresh horizon completion odds are computed
	// over.
	RefreshBudget int

	// DefaultLevel is the level a fresh session starts at.
	DefaultLevel int

	// Weights are the ranking score coefficients.
	Weights engine.Weights

	// TopN caps the recommendation list in status responses.
	TopN int
}

// DefaultConfig returns the service defaults.
func DefaultConfig() Config {
	return Config{
		SlotsPerRefresh: 5,
		RefreshBudget:   20,
		DefaultLevel:    5,
		Weights:         engine.DefaultWeights(),
		TopN:            5,
	}
}

// Service glues the session, the catalog store and the engine together.
type Service struct {
	store *gamedata.Store
	cfg   Config

	mu      sync.RWMutex
	session *session.Session
}

// Status is the polling payload the dashboard renders.
type Status struct {
	State           session.State                 `json:"state"`
	Recommendations []engine.RecommendationResult `json:"recommendations"`
	DeckCount       int                           `json:"deck_count"`
	Timestamp       time.Time                     `json:"timestamp"`
}

// PoolEntry is one unit's pool standing in the by-cost view.
type PoolEntry struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Remaining int    `json:"remaining"`
	Total     int    `json:"total"`
}

// New creates a service with a fresh session over the current catalog.
func New(store *gamedata.Store, cfg Config) (*Service, error) {
	if cfg.SlotsPerRefresh <= 0 || cfg.RefreshBudget <= 0 || cfg.DefaultLevel <= 0 {
		return nil, fmt.Errorf("slots, budget and default level must be positive: %+v", cfg)
	}
	if cfg.TopN <= 0 {
		cfg.TopN = DefaultConfig().TopN
	}

	sess, err := session.New(store.Catalog().Registry, cfg.DefaultLevel)
	if err != nil {
		return nil, err
	}
	return &Service{store: store, cfg: cfg, session: sess}, nil
}

// Session returns the live session.
func (s *Service) Session() *session.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// Catalog returns the current game data catalog.
func (s *Service) Catalog() *gamedata.Catalog {
	return s.store.Catalog()
}

// ResetSession discards all observations and starts over, as when a new
// game begins.
func (s *Service) ResetSession() error {
	sess, err := session.New(s.store.Catalog().Registry, s.cfg.DefaultLevel)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.session = sess
	s.mu.Unlock()
	return nil
}

// OnCatalogReload is the store watcher's callback. A reload that changes
// the champion registry invalidates the session's pool bookkeeping, so the
// session is reset; deck-only updates keep it.
func (s *Service) OnCatalogReload(catalog *gamedata.Catalog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session.Registry() == catalog.Registry {
		return
	}
	if sess, err := session.New(catalog.Registry, s.cfg.DefaultLevel); err == nil {
		s.session = sess
	}
}

// Recommend ranks the current meta decks against the session state. An
// empty deck catalog yields an empty list, not an error: the updater may
// simply not have run yet.
func (s *Service) Recommend() ([]engine.RecommendationResult, error) {
	catalog := s.store.Catalog()
	sess := s.Session()

	if len(catalog.Decks) == 0 {
		return nil, nil
	}

	calc, err := engine.NewCalculator(catalog.Registry, catalog.Odds, &engine.CalculatorConfig{
		SlotsPerRefresh: s.cfg.SlotsPerRefresh,
	})
	if err != nil {
		return nil, fmt.Errorf("build calculator: %w", err)
	}
	matcher, err := engine.NewMatcher(calc, nil)
	if err != nil {
		return nil, fmt.Errorf("build matcher: %w", err)
	}
	ranker := engine.NewRanker(matcher, s.cfg.Weights)

	level := clampLevel(sess.Level(), catalog.Odds.Levels())
	return ranker.Rank(sess.Snapshot(), sess.OwnedUnits(), catalog.Decks, level, s.cfg.RefreshBudget)
}

// Status assembles the polling payload: session state plus the top
// recommendations.
func (s *Service) Status() (Status, error) {
	recs, err := s.Recommend()
	if err != nil {
		return Status{}, err
	}
	if len(recs) > s.cfg.TopN {
		recs = recs[:s.cfg.TopN]
	}
	return Status{
		State:           s.Session().State(),
		Recommendations: recs,
		DeckCount:       len(s.store.Catalog().Decks),
		Timestamp:       time.Now(),
	}, nil
}

// PoolStatus reports every unit's remaining pool copies grouped by cost.
func (s *Service) PoolStatus() map[int][]PoolEntry {
	catalog := s.store.Catalog()
	snap := s.Session().Snapshot()

	byCost := make(map[int][]PoolEntry)
	for _, cost := range catalog.Registry.Costs() {
		units := catalog.Registry.UnitsOfCost(cost)
		entries := make([]PoolEntry, 0, len(units))
		for _, u := range units {
			entries = append(entries, PoolEntry{
				ID:        string(u.ID),
				Name:      u.Name,
				Remaining: snap.Remaining(u.ID),
				Total:     u.PoolCopies,
			})
		}
		byCost[cost] = entries
	}
	return byCost
}

// GameContext shapes the session for the LLM advisor.
func (s *Service) GameContext() (llm.GameContext, error) {
	recs, err := s.Recommend()
	if err != nil {
		return llm.GameContext{}, err
	}

	sess := s.Session()
	state := sess.State()
	catalog := s.store.Catalog()

	names := make([]string, 0, len(state.Owned))
	for _, o := range state.Owned {
		if u, err := catalog.Registry.Lookup(o.ID); err == nil {
			names = append(names, u.Name)
		} else {
			names = append(names, string(o.ID))
		}
	}

	return llm.GameContext{
		OwnedUnits:      names,
		Level:           state.Level,
		Gold:            state.Gold,
		OpponentInfo:    summarizeOpponents(state.Opponents),
		Recommendations: recs,
	}, nil
}

// SetOpponents replaces every opponent board in one call.
func (s *Service) SetOpponents(boards map[string][]string) error {
	sess := s.Session()
	names := make([]string, 0, len(boards))
	for name := range boards {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		units := make([]engine.UnitID, len(boards[name]))
		for i, u := range boards[name] {
			units[i] = engine.UnitID(u)
		}
		if err := sess.SetOpponentBoard(name, units); err != nil {
			return err
		}
	}
	return nil
}

// SetShop replaces the visible shop contents.
func (s *Service) SetShop(units []string) error {
	ids := make([]engine.UnitID, len(units))
	for i, u := range units {
		ids[i] = engine.UnitID(u)
	}
	return s.Session().SetShop(ids)
}

func summarizeOpponents(opponents map[string][]string) string {
	if len(opponents) == 0 {
		return ""
	}
	names := make([]string, 0, len(opponents))
	for name := range opponents {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s fields %d units", name, len(opponents[name])))
	}
	return strings.Join(parts, ", ")
}

// clampLevel folds an out-of-table level onto the nearest one the odds
// table knows. Levels below the table behave like its floor, above like
// its ceiling.
func clampLevel(level int, levels []int) int {
	if len(levels) == 0 {
		return level
	}
	if level < levels[0] {
		return levels[0]
	}
	if last := levels[len(levels)-1]; level > last {
		return last
	}
	return level
}
