package gamedata

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
)

//go:embed seed/champions.json
var seedFiles embed.FS

// EnsureDataDir creates dir and drops the bundled starter champion set
// into it when champions.json is missing. Existing files are never
// touched, so a user-maintained catalog survives restarts and upgrades.
func EnsureDataDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	path := filepath.Join(dir, ChampionsFile)
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}

	data, err := seedFiles.ReadFile("seed/" + ChampionsFile)
	if err != nil {
		return fmt.Errorf("read bundled champions: %w", err)
	}

	// Write-then-rename keeps the watcher from seeing a partial file.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write champions file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("install champions file: %w", err)
	}
	return nil
}
