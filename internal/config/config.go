package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/minsukang/tft-guide/internal/engine"
)

// Config represents the application configuration.
type Config struct {
	// HTTP server configuration
	Server ServerConfig `toml:"server"`

	// Game data file configuration
	Data DataConfig `toml:"data"`

	// Recommendation engine tuning
	Engine EngineConfig `toml:"engine"`

	// Meta deck updater configuration
	Meta MetaConfig `toml:"meta"`

	// LLM advisor configuration
	LLM LLMConfig `toml:"llm"`

	// Application configuration
	App AppConfig `toml:"app"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Addr            string `toml:"addr"`             // Listen address (e.g., "127.0.0.1:8077")
	ShutdownTimeout string `toml:"shutdown_timeout"` // Graceful shutdown timeout (e.g., "5s")
}

// DataConfig contains game data file settings.
type DataConfig struct {
	Dir          string `toml:"dir"`           // Directory holding champions.json and meta.json
	WatchFiles   bool   `toml:"watch_files"`   // Reload data files on change
	DatabasePath string `toml:"database_path"` // SQLite cache path ("" = default location)
}

// EngineConfig contains recommendation engine tuning.
type EngineConfig struct {
	SlotsPerRefresh int            `toml:"slots_per_refresh"` // Shop slots rolled per refresh
	RefreshBudget   int            `toml:"refresh_budget"`    // Refreshes assumed per recommendation
	DefaultLevel    int            `toml:"default_level"`     // Player level a new session starts at
	Weights         engine.Weights `toml:"weights"`           // Ranking score weights
}

// MetaConfig contains meta deck updater settings.
type MetaConfig struct {
	Enabled        bool    `toml:"enabled"`          // Enable scraping meta decks
	SourceURL      string  `toml:"source_url"`       // Tier list page to scrape
	CacheTTL       string  `toml:"cache_ttl"`        // Scrape cache TTL (e.g., "6h")
	RequestsPerMin float64 `toml:"requests_per_min"` // Outbound request rate limit
}

// LLMConfig contains LLM advisor settings.
type LLMConfig struct {
	Enabled bool   `toml:"enabled"`  // Enable LLM-backed analysis
	BaseURL string `toml:"base_url"` // OpenAI-compatible endpoint
	Model   string `toml:"model"`    // Model name
	Timeout string `toml:"timeout"`  // Request timeout (e.g., "30s")
}

// AppConfig contains general application settings.
type AppConfig struct {
	DebugMode bool `toml:"debug_mode"` // Enable debug logging
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            "127.0.0.1:8077",
			ShutdownTimeout: "5s",
		},
		Data: DataConfig{
			Dir:        "",
			WatchFiles: true,
		},
		Engine: EngineConfig{
			SlotsPerRefresh: 5,
			RefreshBudget:   20,
			DefaultLevel:    5,
			Weights:         engine.DefaultWeights(),
		},
		Meta: MetaConfig{
			Enabled:        true,
			SourceURL:      "https://lolchess.gg/meta",
			CacheTTL:       "6h",
			RequestsPerMin: 10,
		},
		LLM: LLMConfig{
			Enabled: true,
			BaseURL: "http://localhost:11434/v1",
			Model:   "llama3",
			Timeout: "30s",
		},
		App: AppConfig{
			DebugMode: false,
		},
	}
}

// configPath returns the path to the configuration file.
func configPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".tft-guide")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}

	return filepath.Join(configDir, "config.toml"), nil
}

// Load loads the configuration from the default location. Returns default
// config if the file doesn't exist.
func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile loads the configuration from an explicit path. Returns default
// config if the file doesn't exist.
func LoadFile(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// Unset fields keep their defaults.
	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return config, nil
}

// Save saves the configuration to the default location.
func (c *Config) Save() error {
	path, err := configPath()
	if err != nil {
		return err
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server addr cannot be empty")
	}
	if _, err := time.ParseDuration(c.Server.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown timeout %q: %w", c.Server.ShutdownTimeout, err)
	}

	if c.Engine.SlotsPerRefresh <= 0 {
		return fmt.Errorf("slots per refresh must be positive: %d", c.Engine.SlotsPerRefresh)
	}
	if c.Engine.RefreshBudget <= 0 {
		return fmt.Errorf("refresh budget must be positive: %d", c.Engine.RefreshBudget)
	}
	if c.Engine.DefaultLevel <= 0 {
		return fmt.Errorf("default level must be positive: %d", c.Engine.DefaultLevel)
	}
	w := c.Engine.Weights
	if w.Match < 0 || w.Completion < 0 || w.Cost < 0 {
		return fmt.Errorf("ranking weights cannot be negative: %+v", w)
	}

	if c.Meta.Enabled {
		if c.Meta.SourceURL == "" {
			return fmt.Errorf("meta source URL cannot be empty when meta updates are enabled")
		}
		if _, err := time.ParseDuration(c.Meta.CacheTTL); err != nil {
			return fmt.Errorf("invalid meta cache TTL %q: %w", c.Meta.CacheTTL, err)
		}
		if c.Meta.RequestsPerMin <= 0 {
			return fmt.Errorf("meta request rate must be positive: %g", c.Meta.RequestsPerMin)
		}
	}

	if c.LLM.Enabled {
		if c.LLM.BaseURL == "" {
			return fmt.Errorf("LLM base URL cannot be empty when the advisor is enabled")
		}
		if c.LLM.Model == "" {
			return fmt.Errorf("LLM model cannot be empty when the advisor is enabled")
		}
		if _, err := time.ParseDuration(c.LLM.Timeout); err != nil {
			return fmt.Errorf("invalid LLM timeout %q: %w", c.LLM.Timeout, err)
		}
	}

	return nil
}

// GetShutdownTimeout returns the graceful shutdown timeout as a duration.
func (c *Config) GetShutdownTimeout() (time.Duration, error) {
	return time.ParseDuration(c.Server.ShutdownTimeout)
}

// GetMetaCacheTTL returns the meta scrape cache TTL as a duration.
func (c *Config) GetMetaCacheTTL() (time.Duration, error) {
	return time.ParseDuration(c.Meta.CacheTTL)
}

// GetLLMTimeout returns the LLM request timeout as a duration.
func (c *Config) GetLLMTimeout() (time.Duration, error) {
	return time.ParseDuration(c.LLM.Timeout)
}
