package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/minsukang/tft-guide/internal/engine"
)

// MetaDeckRepo persists the scraped meta deck list.
type MetaDeckRepo struct {
	db *DB
}

// NewMetaDeckRepo creates a repository over an open database.
func NewMetaDeckRepo(db *DB) *MetaDeckRepo {
	return &MetaDeckRepo{db: db}
}

// ReplaceAll swaps the cached deck list for a fresh scrape in one
// transaction. The previous cache stays intact if anything fails.
func (r *MetaDeckRepo) ReplaceAll(ctx context.Context, decks []engine.MetaDeck, source string, updatedAt time.Time) error {
	tx, err := r.db.Conn().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM meta_decks`); err != nil {
		return fmt.Errorf("clear meta decks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO meta_decks
			(id, name, tier, win_rate, pick_rate, core_champions, flex_champions, synergies, source, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, deck := range decks {
		core, err := json.Marshal(deck.Core)
		if err != nil {
			return fmt.Errorf("encode core champions for %q: %w", deck.ID, err)
		}
		flex, err := json.Marshal(deck.Flex)
		if err != nil {
			return fmt.Errorf("encode flex champions for %q: %w", deck.ID, err)
		}
		synergies, err := json.Marshal(deck.TraitLevels)
		if err != nil {
			return fmt.Errorf("encode synergies for %q: %w", deck.ID, err)
		}

		if _, err := stmt.ExecContext(ctx,
			deck.ID, deck.Name, deck.Tier, deck.WinRate, deck.PickRate,
			string(core), string(flex), string(synergies),
			source, updatedAt.UTC().Format(time.RFC3339Nano),
		); err != nil {
			return fmt.Errorf("insert deck %q: %w", deck.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// List returns all cached decks ordered by tier then name.
func (r *MetaDeckRepo) List(ctx context.Context) ([]engine.MetaDeck, error) {
	rows, err := r.db.Conn().QueryContext(ctx, `
		SELECT id, name, tier, win_rate, pick_rate, core_champions, flex_champions, synergies
		FROM meta_decks
		ORDER BY tier, name`)
	if err != nil {
		return nil, fmt.Errorf("query meta decks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var decks []engine.MetaDeck
	for rows.Next() {
		var deck engine.MetaDeck
		var core, flex, synergies string
		if err := rows.Scan(&deck.ID, &deck.Name, &deck.Tier, &deck.WinRate, &deck.PickRate,
			&core, &flex, &synergies); err != nil {
			return nil, fmt.Errorf("scan meta deck: %w", err)
		}
		if err := json.Unmarshal([]byte(core), &deck.Core); err != nil {
			return nil, fmt.Errorf("decode core champions for %q: %w", deck.ID, err)
		}
		if err := json.Unmarshal([]byte(flex), &deck.Flex); err != nil {
			return nil, fmt.Errorf("decode flex champions for %q: %w", deck.ID, err)
		}
		if err := json.Unmarshal([]byte(synergies), &deck.TraitLevels); err != nil {
			return nil, fmt.Errorf("decode synergies for %q: %w", deck.ID, err)
		}
		decks = append(decks, deck)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate meta decks: %w", err)
	}
	return decks, nil
}

// LastUpdated returns when the cache was last replaced and from where.
// A never-populated cache reports a zero time and no error.
func (r *MetaDeckRepo) LastUpdated(ctx context.Context) (time.Time, string, error) {
	var updatedAt, source string
	err := r.db.Conn().QueryRowContext(ctx, `
		SELECT updated_at, source
		FROM meta_decks
		ORDER BY updated_at DESC
		LIMIT 1`).Scan(&updatedAt, &source)
	if err == sql.ErrNoRows {
		return time.Time{}, "", nil
	}
	if err != nil {
		return time.Time{}, "", fmt.Errorf("query last update: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("parse last update %q: %w", updatedAt, err)
	}
	return ts, source, nil
}
