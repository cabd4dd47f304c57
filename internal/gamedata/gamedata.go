// Package gamedata loads the champion catalog and the meta deck list from
// JSON files and keeps them available to the rest of the application as a
// single immutable Catalog value. Files can be edited (or rewritten by the
// meta updater) while the server runs; the watcher swaps in a freshly
// parsed catalog and never exposes a half-loaded one.
package gamedata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/minsukang/tft-guide/internal/engine"
)

const (
	// ChampionsFile is the champion catalog file name inside the data dir.
	ChampionsFile = "champions.json"
	// MetaFile is the meta deck file name inside the data dir.
	MetaFile = "meta.json"
)

// Catalog is one immutable, fully validated load of the game data.
type Catalog struct {
	Registry *engine.Registry
	Odds     *engine.ShopOddsTable
	Decks    []engine.MetaDeck

	// MetaUpdated and MetaSource describe the meta deck file's provenance.
	MetaUpdated time.Time
	MetaSource  string
}

// championsFile is the on-disk shape of champions.json.
type championsFile struct {
	Champions []championEntry `json:"champions"`
	Traits    []traitEntry    `json:"traits"`
}

type championEntry struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	NameKR     string   `json:"name_kr"`
	Cost       int      `json:"cost"`
	Traits     []string `json:"traits"`
	PoolCopies int      `json:"pool_copies"`
}

type traitEntry struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Thresholds []int  `json:"thresholds"`
}

// metaFile is the on-disk shape of meta.json, the format the meta updater
// writes.
type metaFile struct {
	Decks       []deckEntry `json:"decks"`
	LastUpdated string      `json:"last_updated"`
	Source      string      `json:"source"`
}

type deckEntry struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Tier      string         `json:"tier"`
	WinRate   float64        `json:"win_rate"`
	PickRate  float64        `json:"pick_rate"`
	Core      []string       `json:"core_champions"`
	Flex      []string       `json:"flex_champions"`
	Synergies map[string]int `json:"synergies"`
}

// LoadCatalog reads champions.json and meta.json from dir and assembles a
// validated catalog. A missing meta file is not an error: recommendations
// simply have no candidates until the updater has run once.
func LoadCatalog(dir string) (*Catalog, error) {
	reg, err := loadChampions(filepath.Join(dir, ChampionsFile))
	if err != nil {
		return nil, fmt.Errorf("load champions: %w", err)
	}

	odds, err := DefaultShopOdds()
	if err != nil {
		return nil, fmt.Errorf("build shop odds: %w", err)
	}

	catalog := &Catalog{Registry: reg, Odds: odds}
	if err := loadMeta(filepath.Join(dir, MetaFile), reg, catalog); err != nil {
		return nil, fmt.Errorf("load meta decks: %w", err)
	}
	return catalog, nil
}

func loadChampions(path string) (*engine.Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file championsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	if len(file.Champions) == 0 {
		return nil, fmt.Errorf("%s contains no champions", filepath.Base(path))
	}

	units := make([]engine.Unit, 0, len(file.Champions))
	for _, c := range file.Champions {
		id := c.ID
		if id == "" {
			id = slug(c.Name)
		}
		copies := c.PoolCopies
		if copies == 0 {
			copies = PoolCopiesForCost(c.Cost)
		}
		units = append(units, engine.Unit{
			ID:         engine.UnitID(id),
			Name:       displayName(c),
			Cost:       c.Cost,
			Traits:     c.Traits,
			PoolCopies: copies,
		})
	}

	traits := make([]engine.Trait, 0, len(file.Traits))
	for _, tr := range file.Traits {
		id := tr.ID
		if id == "" {
			id = slug(tr.Name)
		}
		name := tr.Name
		if name == "" {
			name = tr.ID
		}
		traits = append(traits, engine.Trait{ID: id, Name: name, Thresholds: tr.Thresholds})
	}

	return engine.NewRegistry(units, traits)
}

func loadMeta(path string, reg *engine.Registry, catalog *Catalog) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var file metaFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}

	decks := make([]engine.MetaDeck, 0, len(file.Decks))
	for _, d := range file.Decks {
		deck := engine.MetaDeck{
			ID:          d.ID,
			Name:        d.Name,
			Tier:        d.Tier,
			WinRate:     d.WinRate,
			PickRate:    d.PickRate,
			Core:        toUnitIDs(d.Core),
			Flex:        toUnitIDs(d.Flex),
			TraitLevels: d.Synergies,
		}
		if deck.ID == "" {
			deck.ID = slug(d.Name)
		}
		if err := deck.Validate(reg); err != nil {
			return fmt.Errorf("deck %q: %w", deck.ID, err)
		}
		decks = append(decks, deck)
	}

	catalog.Decks = decks
	catalog.MetaSource = file.Source
	if file.LastUpdated != "" {
		ts, err := time.Parse(time.RFC3339, file.LastUpdated)
		if err != nil {
			return fmt.Errorf("parse last_updated %q: %w", file.LastUpdated, err)
		}
		catalog.MetaUpdated = ts
	}
	return nil
}

func toUnitIDs(names []string) []engine.UnitID {
	if len(names) == 0 {
		return nil
	}
	ids := make([]engine.UnitID, len(names))
	for i, n := range names {
		ids[i] = engine.UnitID(n)
	}
	return ids
}

func displayName(c championEntry) string {
	if c.Name != "" {
		return c.Name
	}
	return c.NameKR
}

// slug derives a stable identifier from a display name.
func slug(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "'", "")
	return s
}
