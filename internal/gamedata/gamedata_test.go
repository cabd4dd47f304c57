package gamedata

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/minsukang/tft-guide/internal/engine"
)

const testChampions = `{
  "champions": [
    {"id": "ashe", "name": "Ashe", "cost": 1, "traits": ["sniper"]},
    {"name": "Miss Fortune", "cost": 5, "traits": ["gunner"]},
    {"id": "cass", "name": "Cassiopeia", "name_kr": "카시오페아", "cost": 2, "traits": ["mage"], "pool_copies": 13}
  ],
  "traits": [
    {"id": "sniper", "name": "Sniper", "thresholds": [2, 4]},
    {"id": "gunner", "name": "Gunner", "thresholds": [2, 4, 6]},
    {"id": "mage", "name": "Mage", "thresholds": [3, 6]}
  ]
}`

const testMeta = `{
  "decks": [
    {
      "name": "Sniper Squad",
      "tier": "S",
      "win_rate": 0.23,
      "pick_rate": 0.11,
      "core_champions": ["ashe", "cass"],
      "flex_champions": ["miss-fortune"],
      "synergies": {"sniper": 2}
    }
  ],
  "last_updated": "2026-08-20T09:30:00Z",
  "source": "https://lolchess.gg/meta"
}`

func writeDataDir(t *testing.T, champions, meta string) string {
	t.Helper()

	dir := t.TempDir()
	if champions != "" {
		if err := os.WriteFile(filepath.Join(dir, ChampionsFile), []byte(champions), 0o644); err != nil {
			t.Fatalf("write champions: %v", err)
		}
	}
	if meta != "" {
		if err := os.WriteFile(filepath.Join(dir, MetaFile), []byte(meta), 0o644); err != nil {
			t.Fatalf("write meta: %v", err)
		}
	}
	return dir
}

func TestLoadCatalog(t *testing.T) {
	dir := writeDataDir(t, testChampions, testMeta)

	catalog, err := LoadCatalog(dir)
	if err != nil {
		t.Fatalf("LoadCatalog() error = %v", err)
	}

	if got := catalog.Registry.Len(); got != 3 {
		t.Errorf("champion count = %d, want 3", got)
	}

	// Entry without an explicit ID gets a slug derived from its name.
	mf, err := catalog.Registry.Lookup("miss-fortune")
	if err != nil {
		t.Fatalf("Lookup(miss-fortune) error = %v", err)
	}
	if mf.PoolCopies != 10 {
		t.Errorf("cost-5 default pool copies = %d, want 10", mf.PoolCopies)
	}

	// Explicit pool_copies overrides the per-cost default.
	cass, err := catalog.Registry.Lookup("cass")
	if err != nil {
		t.Fatalf("Lookup(cass) error = %v", err)
	}
	if cass.PoolCopies != 13 {
		t.Errorf("cass pool copies = %d, want explicit 13", cass.PoolCopies)
	}

	if len(catalog.Decks) != 1 {
		t.Fatalf("deck count = %d, want 1", len(catalog.Decks))
	}
	deck := catalog.Decks[0]
	if deck.ID != "sniper-squad" || deck.Tier != "S" {
		t.Errorf("deck = %+v, want id sniper-squad tier S", deck)
	}
	if len(deck.Core) != 2 || deck.Core[0] != "ashe" {
		t.Errorf("deck core = %v, want [ashe cass]", deck.Core)
	}

	wantTime := time.Date(2026, 8, 20, 9, 30, 0, 0, time.UTC)
	if !catalog.MetaUpdated.Equal(wantTime) {
		t.Errorf("MetaUpdated = %v, want %v", catalog.MetaUpdated, wantTime)
	}
	if catalog.MetaSource != "https://lolchess.gg/meta" {
		t.Errorf("MetaSource = %q", catalog.MetaSource)
	}
}

func TestLoadCatalogMissingMetaFile(t *testing.T) {
	dir := writeDataDir(t, testChampions, "")

	catalog, err := LoadCatalog(dir)
	if err != nil {
		t.Fatalf("LoadCatalog() without meta file error = %v", err)
	}
	if len(catalog.Decks) != 0 {
		t.Errorf("deck count = %d without meta file, want 0", len(catalog.Decks))
	}
}

func TestLoadCatalogMissingChampionsFile(t *testing.T) {
	if _, err := LoadCatalog(t.TempDir()); err == nil {
		t.Error("LoadCatalog() without champions file accepted, want error")
	}
}

func TestLoadCatalogRejectsUnknownDeckUnit(t *testing.T) {
	meta := `{"decks": [{"name": "Ghost Deck", "core_champions": ["nobody"]}]}`
	dir := writeDataDir(t, testChampions, meta)

	if _, err := LoadCatalog(dir); err == nil {
		t.Error("LoadCatalog() accepted deck with unknown champion, want error")
	}
}

func TestLoadCatalogRejectsMalformedJSON(t *testing.T) {
	dir := writeDataDir(t, `{"champions": [`, "")

	if _, err := LoadCatalog(dir); err == nil {
		t.Error("LoadCatalog() accepted malformed champions.json, want error")
	}
}

func TestDefaultShopOdds(t *testing.T) {
	odds, err := DefaultShopOdds()
	if err != nil {
		t.Fatalf("DefaultShopOdds() error = %v", err)
	}

	levels := odds.Levels()
	if len(levels) != 9 || levels[0] != 2 || levels[len(levels)-1] != 10 {
		t.Errorf("Levels() = %v, want 2 through 10", levels)
	}

	// Level 2 offers only cost-1 units.
	if p, _ := odds.TierProbability(2, 1); p != 1 {
		t.Errorf("TierProbability(2, 1) = %g, want 1", p)
	}
	if p, _ := odds.TierProbability(2, 5); p != 0 {
		t.Errorf("TierProbability(2, 5) = %g, want 0", p)
	}

	// Spot check a mid-game row.
	if p, _ := odds.TierProbability(7, 3); p != 0.35 {
		t.Errorf("TierProbability(7, 3) = %g, want 0.35", p)
	}
}

func TestPoolCopiesForCost(t *testing.T) {
	want := map[int]int{1: 29, 2: 22, 3: 18, 4: 12, 5: 10}
	for cost, copies := range want {
		if got := PoolCopiesForCost(cost); got != copies {
			t.Errorf("PoolCopiesForCost(%d) = %d, want %d", cost, got, copies)
		}
	}
	if got := PoolCopiesForCost(6); got != 0 {
		t.Errorf("PoolCopiesForCost(6) = %d, want 0", got)
	}
}

func TestStoreReplace(t *testing.T) {
	dir := writeDataDir(t, testChampions, testMeta)
	first, err := LoadCatalog(dir)
	if err != nil {
		t.Fatalf("LoadCatalog() error = %v", err)
	}

	store := NewStore(first)
	if store.Catalog() != first {
		t.Error("Catalog() did not return the seeded catalog")
	}

	second, err := LoadCatalog(dir)
	if err != nil {
		t.Fatalf("LoadCatalog() error = %v", err)
	}
	store.Replace(second)
	if store.Catalog() != second {
		t.Error("Catalog() did not return the replaced catalog")
	}
}

func TestWatcherReloadSwapsCatalog(t *testing.T) {
	dir := writeDataDir(t, testChampions, "")
	first, err := LoadCatalog(dir)
	if err != nil {
		t.Fatalf("LoadCatalog() error = %v", err)
	}
	store := NewStore(first)

	var reloaded *Catalog
	w := NewWatcher(dir, store, func(c *Catalog) { reloaded = c })

	// The meta file appears after startup, as when the updater first runs.
	if err := os.WriteFile(filepath.Join(dir, MetaFile), []byte(testMeta), 0o644); err != nil {
		t.Fatalf("write meta: %v", err)
	}
	w.reload()

	if store.Catalog() == first {
		t.Error("reload did not swap the catalog")
	}
	if len(store.Catalog().Decks) != 1 {
		t.Errorf("deck count after reload = %d, want 1", len(store.Catalog().Decks))
	}
	if reloaded != store.Catalog() {
		t.Error("onReload callback did not receive the new catalog")
	}
}

func TestWatcherReloadKeepsCatalogOnError(t *testing.T) {
	dir := writeDataDir(t, testChampions, "")
	first, err := LoadCatalog(dir)
	if err != nil {
		t.Fatalf("LoadCatalog() error = %v", err)
	}
	store := NewStore(first)
	w := NewWatcher(dir, store, nil)

	// Corrupt the champions file; the previous catalog must survive.
	if err := os.WriteFile(filepath.Join(dir, ChampionsFile), []byte("{"), 0o644); err != nil {
		t.Fatalf("write champions: %v", err)
	}
	w.reload()

	if store.Catalog() != first {
		t.Error("failed reload replaced the catalog")
	}
}

func TestCatalogRegistryUsable(t *testing.T) {
	dir := writeDataDir(t, testChampions, testMeta)
	catalog, err := LoadCatalog(dir)
	if err != nil {
		t.Fatalf("LoadCatalog() error = %v", err)
	}

	// The loaded catalog plugs straight into the calculator.
	calc, err := engine.NewCalculator(catalog.Registry, catalog.Odds, nil)
	if err != nil {
		t.Fatalf("NewCalculator() error = %v", err)
	}
	pool := engine.NewPoolState(catalog.Registry)
	p, err := calc.SlotProbability(pool.Snapshot(), "ashe", 5)
	if err != nil {
		t.Fatalf("SlotProbability() error = %v", err)
	}
	if p <= 0 || p > 1 {
		t.Errorf("SlotProbability(ashe, 5) = %g, want within (0, 1]", p)
	}
}
