// Command tft-guide runs the local recommendation server: it loads the
// champion catalog, watches the data directory for changes, refreshes
// meta decks from the configured source and serves the REST and
// websocket API the overlay connects to.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"golang.org/x/time/rate"

	"github.com/minsukang/tft-guide/internal/api"
	"github.com/minsukang/tft-guide/internal/api/websocket"
	"github.com/minsukang/tft-guide/internal/config"
	"github.com/minsukang/tft-guide/internal/gamedata"
	"github.com/minsukang/tft-guide/internal/guide"
	"github.com/minsukang/tft-guide/internal/llm"
	"github.com/minsukang/tft-guide/internal/meta"
	"github.com/minsukang/tft-guide/internal/storage"
	"github.com/minsukang/tft-guide/internal/version"
)

var (
	configFile = flag.String("config", "", "Config file path (default: ~/.tft-guide/config.toml)")
	dataDir    = flag.String("data", "", "Data directory override")
	addr       = flag.String("addr", "", "Listen address override")
)

func main() {
	flag.Parse()
	log.Printf("tft-guide %s starting", version.GetVersion())

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *dataDir != "" {
		cfg.Data.Dir = *dataDir
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	dir, err := resolveDataDir(cfg)
	if err != nil {
		log.Fatalf("resolve data directory: %v", err)
	}
	if err := gamedata.EnsureDataDir(dir); err != nil {
		log.Fatalf("prepare data directory: %v", err)
	}
	log.Printf("data directory: %s", dir)

	db, err := openDatabase(cfg)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("close database: %v", err)
		}
	}()
	repo := storage.NewMetaDeckRepo(db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updater := buildUpdater(cfg, repo, dir)
	if updater != nil {
		if restored, err := updater.RestoreFromCache(ctx); err != nil {
			log.Printf("restore meta cache: %v", err)
		} else if restored {
			log.Println("meta decks restored from cache")
		}
	}

	catalog, err := gamedata.LoadCatalog(dir)
	if err != nil {
		log.Fatalf("load game data: %v", err)
	}
	log.Printf("loaded %d champions, %d meta decks", catalog.Registry.Len(), len(catalog.Decks))
	store := gamedata.NewStore(catalog)

	service, err := guide.New(store, guideConfig(cfg))
	if err != nil {
		log.Fatalf("create guide service: %v", err)
	}

	advisor, llmClient := buildAdvisor(ctx, cfg)

	server := api.NewServer(&api.Config{Addr: cfg.Server.Addr}, api.Dependencies{
		Service:   service,
		Advisor:   advisor,
		LLMClient: llmClient,
		Updater:   updater,
		Version:   version.GetVersion(),
	})

	if cfg.Data.WatchFiles {
		watcher := gamedata.NewWatcher(dir, store, func(c *gamedata.Catalog) {
			service.OnCatalogReload(c)
			server.WebSocketHub().BroadcastEvent(websocket.Event{
				Type: websocket.EventCatalogReloaded,
				Data: map[string]int{"deck_count": len(c.Decks)},
			})
		})
		go func() {
			if err := watcher.Run(ctx); err != nil {
				log.Printf("data watcher stopped: %v", err)
			}
		}()
	}

	if err := server.Start(); err != nil {
		log.Fatalf("start server: %v", err)
	}

	if updater != nil {
		// Best-effort refresh in the background; the TTL decides whether
		// anything is actually fetched.
		go func() {
			if result, err := updater.Update(ctx, false); err != nil {
				log.Printf("startup meta update: %v", err)
			} else if !result.Skipped {
				log.Printf("startup meta update: %s", result.Message)
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	log.Println("shutting down")

	cancel()

	timeout, err := cfg.GetShutdownTimeout()
	if err != nil {
		log.Fatalf("shutdown timeout: %v", err)
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	log.Println("stopped")
}

func loadConfig() (*config.Config, error) {
	if *configFile != "" {
		return config.LoadFile(*configFile)
	}
	return config.Load()
}

// resolveDataDir falls back to ~/.tft-guide/data when no directory is
// configured.
func resolveDataDir(cfg *config.Config) (string, error) {
	if cfg.Data.Dir != "" {
		return cfg.Data.Dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".tft-guide", "data"), nil
}

func openDatabase(cfg *config.Config) (*storage.DB, error) {
	path := cfg.Data.DatabasePath
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(home, ".tft-guide", "cache.db")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	dbConfig := storage.DefaultConfig(path)
	dbConfig.AutoMigrate = true
	return storage.Open(dbConfig)
}

func guideConfig(cfg *config.Config) guide.Config {
	gc := guide.DefaultConfig()
	gc.SlotsPerRefresh = cfg.Engine.SlotsPerRefresh
	gc.RefreshBudget = cfg.Engine.RefreshBudget
	gc.DefaultLevel = cfg.Engine.DefaultLevel
	gc.Weights = cfg.Engine.Weights
	return gc
}

// buildUpdater wires the scraper and the cache repository into an
// updater, or returns nil when meta refreshes are disabled.
func buildUpdater(cfg *config.Config, repo *storage.MetaDeckRepo, dataDir string) *meta.Updater {
	if !cfg.Meta.Enabled {
		log.Println("meta updates disabled")
		return nil
	}

	ttl, err := cfg.GetMetaCacheTTL()
	if err != nil {
		log.Fatalf("meta cache TTL: %v", err)
	}

	options := meta.DefaultScraperOptions()
	options.SourceURL = cfg.Meta.SourceURL
	options.RateLimit = rate.Limit(cfg.Meta.RequestsPerMin / 60)

	return meta.NewUpdater(meta.NewScraper(options), repo, meta.UpdaterConfig{
		DataDir:   dataDir,
		SourceURL: cfg.Meta.SourceURL,
		CacheTTL:  ttl,
	})
}

// buildAdvisor returns the advisor plus the raw client for the status
// endpoint. With the LLM disabled the advisor still works, rule-based.
func buildAdvisor(ctx context.Context, cfg *config.Config) (*llm.Advisor, *llm.Client) {
	if !cfg.LLM.Enabled {
		log.Println("llm advisor disabled, using rule-based advice")
		return llm.NewAdvisor(nil), nil
	}

	timeout, err := cfg.GetLLMTimeout()
	if err != nil {
		log.Fatalf("llm timeout: %v", err)
	}

	clientConfig := llm.DefaultClientConfig()
	clientConfig.BaseURL = cfg.LLM.BaseURL
	clientConfig.Model = cfg.LLM.Model
	clientConfig.Timeout = timeout
	client := llm.NewClient(clientConfig)

	if client.IsAvailable(ctx) {
		log.Printf("llm endpoint reachable at %s (model %s)", client.BaseURL(), client.Model())
	} else {
		log.Printf("llm endpoint %s unreachable, analyses fall back to rules", client.BaseURL())
	}
	return llm.NewAdvisor(client), client
}
