package gamedata

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Store holds the current catalog and hands out the same immutable value
// until the watcher (or an explicit Replace) swaps in a new one.
type Store struct {
	mu      sync.RWMutex
	catalog *Catalog
}

// NewStore creates a store seeded with an initial catalog.
func NewStore(catalog *Catalog) *Store {
	return &Store{catalog: catalog}
}

// Catalog returns the current catalog. The returned value is shared and
// must not be mutated.
func (s *Store) Catalog() *Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog
}

// Replace swaps in a new catalog.
func (s *Store) Replace(catalog *Catalog) {
	s.mu.Lock()
	s.catalog = catalog
	s.mu.Unlock()
}

// debounceDelay batches the burst of events an editor or the meta updater
// produces for a single logical rewrite.
const debounceDelay = 250 * time.Millisecond

// Watcher reloads the store whenever a data file changes on disk.
type Watcher struct {
	dir      string
	store    *Store
	onReload func(*Catalog)
}

// NewWatcher creates a watcher over the data directory feeding the store.
// onReload, if non-nil, is called after every successful swap.
func NewWatcher(dir string, store *Store, onReload func(*Catalog)) *Watcher {
	return &Watcher{dir: dir, store: store, onReload: onReload}
}

// Run watches the data directory until the context is cancelled. A failed
// reload keeps the previous catalog in place.
func (w *Watcher) Run(ctx context.Context) (err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer func() {
		if closeErr := watcher.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	// Watch the directory, not the files: the meta updater and most
	// editors replace files by rename, which retargets a file watch.
	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watch data directory: %w", err)
	}

	var debounce *time.Timer
	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-watcher.Events:
			if !w.relevant(event) {
				continue
			}
			if debounce == nil {
				debounce = time.NewTimer(debounceDelay)
			} else {
				debounce.Reset(debounceDelay)
			}
			pending = debounce.C
		case err := <-watcher.Errors:
			log.Printf("gamedata: watcher error: %v", err)
		case <-pending:
			pending = nil
			w.reload()
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	name := filepath.Base(event.Name)
	return name == ChampionsFile || name == MetaFile
}

func (w *Watcher) reload() {
	catalog, err := LoadCatalog(w.dir)
	if err != nil {
		log.Printf("gamedata: reload failed, keeping previous catalog: %v", err)
		return
	}
	w.store.Replace(catalog)
	log.Printf("gamedata: reloaded %d champions, %d meta decks",
		catalog.Registry.Len(), len(catalog.Decks))
	if w.onReload != nil {
		w.onReload(catalog)
	}
}
