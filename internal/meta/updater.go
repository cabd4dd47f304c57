package meta

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/minsukang/tft-guide/internal/engine"
	"github.com/minsukang/tft-guide/internal/gamedata"
	"github.com/minsukang/tft-guide/internal/storage"
)

// Fetcher provides a fresh deck list. Implemented by Scraper; tests swap in
// a stub.
type Fetcher interface {
	Fetch(ctx context.Context) ([]engine.MetaDeck, error)
}

// UpdateResult reports the outcome of one update attempt.
type UpdateResult struct {
	Success   bool      `json:"success"`
	Skipped   bool      `json:"skipped"`
	Message   string    `json:"message"`
	DeckCount int       `json:"deck_count"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// UpdaterConfig configures the updater.
type UpdaterConfig struct {
	// DataDir is where meta.json is written.
	DataDir string

	// SourceURL recorded as the provenance of scraped decks.
	SourceURL string

	// CacheTTL suppresses non-forced updates newer than this.
	CacheTTL time.Duration
}

// Updater coordinates scraping, the meta.json file, and the SQLite cache.
type Updater struct {
	fetcher   Fetcher
	repo      *storage.MetaDeckRepo
	dataDir   string
	sourceURL string
	ttl       time.Duration

	// now is swappable for tests.
	now func() time.Time

	mu sync.Mutex
}

// NewUpdater creates an updater. repo may be nil when the SQLite cache is
// disabled; the meta.json file is then the only persistence.
func NewUpdater(fetcher Fetcher, repo *storage.MetaDeckRepo, cfg UpdaterConfig) *Updater {
	if cfg.SourceURL == "" {
		cfg.SourceURL = DefaultSourceURL
	}
	return &Updater{
		fetcher:   fetcher,
		repo:      repo,
		dataDir:   cfg.DataDir,
		sourceURL: cfg.SourceURL,
		ttl:       cfg.CacheTTL,
		now:       time.Now,
	}
}

// Update scrapes the tier list and, on success, rewrites meta.json and the
// SQLite cache. A non-forced update inside the cache TTL is skipped. Only
// one update runs at a time.
func (u *Updater) Update(ctx context.Context, force bool) (*UpdateResult, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if !force && u.ttl > 0 {
		last, _, err := u.LastUpdated(ctx)
		if err != nil {
			return nil, err
		}
		if !last.IsZero() && u.now().Sub(last) < u.ttl {
			return &UpdateResult{
				Success:   true,
				Skipped:   true,
				Message:   "meta decks are fresh",
				UpdatedAt: last,
			}, nil
		}
	}

	decks, err := u.fetcher.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch meta decks: %w", err)
	}
	if len(decks) == 0 {
		return nil, ErrNoDecksParsed
	}

	updatedAt := u.now().UTC()
	if err := u.writeMetaFile(decks, updatedAt); err != nil {
		return nil, fmt.Errorf("write meta file: %w", err)
	}
	if u.repo != nil {
		if err := u.repo.ReplaceAll(ctx, decks, u.sourceURL, updatedAt); err != nil {
			// The file write already succeeded; the cache catches up on
			// the next update.
			log.Printf("meta: cache update failed: %v", err)
		}
	}

	return &UpdateResult{
		Success:   true,
		Message:   fmt.Sprintf("updated %d decks", len(decks)),
		DeckCount: len(decks),
		UpdatedAt: updatedAt,
	}, nil
}

// LastUpdated reports the newest known update, preferring the SQLite cache
// and falling back to the meta.json file.
func (u *Updater) LastUpdated(ctx context.Context) (time.Time, string, error) {
	if u.repo != nil {
		ts, source, err := u.repo.LastUpdated(ctx)
		if err != nil {
			return time.Time{}, "", err
		}
		if !ts.IsZero() {
			return ts, source, nil
		}
	}
	return u.fileLastUpdated()
}

// RestoreFromCache rewrites meta.json from the SQLite cache when the file
// is missing, as after a data directory wipe. Returns whether a restore
// happened.
func (u *Updater) RestoreFromCache(ctx context.Context) (bool, error) {
	if u.repo == nil {
		return false, nil
	}
	if _, err := os.Stat(u.metaPath()); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, err
	}

	decks, err := u.repo.List(ctx)
	if err != nil {
		return false, err
	}
	if len(decks) == 0 {
		return false, nil
	}

	ts, _, err := u.repo.LastUpdated(ctx)
	if err != nil {
		return false, err
	}
	if err := u.writeMetaFile(decks, ts); err != nil {
		return false, fmt.Errorf("restore meta file: %w", err)
	}
	log.Printf("meta: restored %d decks from cache", len(decks))
	return true, nil
}

func (u *Updater) metaPath() string {
	return filepath.Join(u.dataDir, gamedata.MetaFile)
}

type metaFileJSON struct {
	Decks       []deckJSON `json:"decks"`
	LastUpdated string     `json:"last_updated"`
	Source      string     `json:"source"`
}

// writeMetaFile writes meta.json atomically so the file watcher never
// observes a half-written payload.
func (u *Updater) writeMetaFile(decks []engine.MetaDeck, updatedAt time.Time) error {
	file := metaFileJSON{
		Decks:       make([]deckJSON, len(decks)),
		LastUpdated: updatedAt.Format(time.RFC3339),
		Source:      u.sourceURL,
	}
	for i, d := range decks {
		file.Decks[i] = deckJSON{
			ID:        d.ID,
			Name:      d.Name,
			Tier:      d.Tier,
			WinRate:   d.WinRate,
			PickRate:  d.PickRate,
			Core:      toStrings(d.Core),
			Flex:      toStrings(d.Flex),
			Synergies: d.TraitLevels,
		}
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("encode meta file: %w", err)
	}

	path := u.metaPath()
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

func toStrings(ids []engine.UnitID) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

// fileLastUpdated reads the provenance fields out of meta.json.
func (u *Updater) fileLastUpdated() (time.Time, string, error) {
	data, err := os.ReadFile(u.metaPath())
	if os.IsNotExist(err) {
		return time.Time{}, "", nil
	}
	if err != nil {
		return time.Time{}, "", err
	}

	var file metaFileJSON
	if err := json.Unmarshal(data, &file); err != nil {
		return time.Time{}, "", fmt.Errorf("parse meta file: %w", err)
	}
	if file.LastUpdated == "" {
		return time.Time{}, file.Source, nil
	}
	ts, err := time.Parse(time.RFC3339, file.LastUpdated)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("parse last_updated %q: %w", file.LastUpdated, err)
	}
	return ts, file.Source, nil
}
