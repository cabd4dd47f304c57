package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() error = %v", err)
	}
}

func TestLoadFileMissingReturnsDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Server.Addr != DefaultConfig().Server.Addr {
		t.Errorf("missing file config = %+v, want defaults", cfg.Server)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
[server]
addr = "0.0.0.0:9000"

[engine]
refresh_budget = 40

[engine.weights]
match = 0.7
completion = 0.3
cost = 0.02
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Server.Addr != "0.0.0.0:9000" {
		t.Errorf("server addr = %q, want 0.0.0.0:9000", cfg.Server.Addr)
	}
	if cfg.Engine.RefreshBudget != 40 {
		t.Errorf("refresh budget = %d, want 40", cfg.Engine.RefreshBudget)
	}
	if cfg.Engine.Weights.Match != 0.7 {
		t.Errorf("match weight = %g, want 0.7", cfg.Engine.Weights.Match)
	}

	// Sections absent from the file keep their defaults.
	if cfg.LLM.Model != "llama3" {
		t.Errorf("LLM model = %q, want default llama3", cfg.LLM.Model)
	}
	if cfg.Engine.SlotsPerRefresh != 5 {
		t.Errorf("slots per refresh = %d, want default 5", cfg.Engine.SlotsPerRefresh)
	}
}

func TestLoadFileRejectsMalformedTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[server\naddr ="), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := LoadFile(path); err == nil {
		t.Error("LoadFile() accepted malformed TOML, want error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "empty server addr",
			mutate:  func(c *Config) { c.Server.Addr = "" },
			wantErr: "server addr",
		},
		{
			name:    "bad shutdown timeout",
			mutate:  func(c *Config) { c.Server.ShutdownTimeout = "soon" },
			wantErr: "shutdown timeout",
		},
		{
			name:    "zero slots per refresh",
			mutate:  func(c *Config) { c.Engine.SlotsPerRefresh = 0 },
			wantErr: "slots per refresh",
		},
		{
			name:    "negative refresh budget",
			mutate:  func(c *Config) { c.Engine.RefreshBudget = -1 },
			wantErr: "refresh budget",
		},
		{
			name:    "zero default level",
			mutate:  func(c *Config) { c.Engine.DefaultLevel = 0 },
			wantErr: "default level",
		},
		{
			name:    "negative weight",
			mutate:  func(c *Config) { c.Engine.Weights.Cost = -0.5 },
			wantErr: "weights",
		},
		{
			name:    "meta enabled without source",
			mutate:  func(c *Config) { c.Meta.SourceURL = "" },
			wantErr: "meta source URL",
		},
		{
			name:    "bad meta cache TTL",
			mutate:  func(c *Config) { c.Meta.CacheTTL = "often" },
			wantErr: "meta cache TTL",
		},
		{
			name:    "llm enabled without model",
			mutate:  func(c *Config) { c.LLM.Model = "" },
			wantErr: "LLM model",
		},
		{
			name:    "bad llm timeout",
			mutate:  func(c *Config) { c.LLM.Timeout = "whenever" },
			wantErr: "LLM timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() accepted invalid config, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateDisabledSectionsSkipped(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Meta.Enabled = false
	cfg.Meta.CacheTTL = "nonsense"
	cfg.LLM.Enabled = false
	cfg.LLM.Timeout = "nonsense"

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() with disabled sections error = %v", err)
	}
}

func TestDurationAccessors(t *testing.T) {
	cfg := DefaultConfig()

	if d, err := cfg.GetShutdownTimeout(); err != nil || d <= 0 {
		t.Errorf("GetShutdownTimeout() = %v, %v", d, err)
	}
	if d, err := cfg.GetMetaCacheTTL(); err != nil || d <= 0 {
		t.Errorf("GetMetaCacheTTL() = %v, %v", d, err)
	}
	if d, err := cfg.GetLLMTimeout(); err != nil || d <= 0 {
		t.Errorf("GetLLMTimeout() = %v, %v", d, err)
	}
}
