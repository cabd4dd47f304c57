package meta

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/minsukang/tft-guide/internal/engine"
)

// ErrNoDecksParsed means the page yielded no decks; the site structure may
// have changed.
var ErrNoDecksParsed = errors.New("no decks parsed from source")

// deckJSON is the wire shape of one deck, shared by the scrape payload and
// the meta.json file the updater writes.
type deckJSON struct {
	ID        string         `json:"id,omitempty"`
	Name      string         `json:"name"`
	Tier      string         `json:"tier,omitempty"`
	WinRate   float64        `json:"win_rate,omitempty"`
	PickRate  float64        `json:"pick_rate,omitempty"`
	Core      []string       `json:"core_champions"`
	Flex      []string       `json:"flex_champions,omitempty"`
	Synergies map[string]int `json:"synergies,omitempty"`
}

type deckPayload struct {
	Decks []deckJSON `json:"decks"`
}

// parseDecks extracts meta decks from a scraped response. Two shapes are
// understood: a plain JSON payload with a top-level "decks" array, and an
// HTML page embedding that payload in a JSON script tag, which is how the
// tier list site ships its data to the browser.
func parseDecks(body []byte) ([]engine.MetaDeck, error) {
	raw := body
	if !looksLikeJSON(raw) {
		embedded, ok := embeddedJSON(body)
		if !ok {
			return nil, ErrNoDecksParsed
		}
		raw = embedded
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse deck payload: %w", err)
	}

	entries := findDecks(doc)
	if len(entries) == 0 {
		return nil, ErrNoDecksParsed
	}

	decks := make([]engine.MetaDeck, 0, len(entries))
	for _, e := range entries {
		decks = append(decks, e.toMetaDeck())
	}
	return decks, nil
}

func looksLikeJSON(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
}

// embeddedJSON pulls the first application/json script body out of an HTML
// page.
func embeddedJSON(html []byte) ([]byte, bool) {
	const marker = `type="application/json"`
	page := string(html)

	idx := strings.Index(page, marker)
	if idx < 0 {
		return nil, false
	}
	start := strings.Index(page[idx:], ">")
	if start < 0 {
		return nil, false
	}
	start += idx + 1
	end := strings.Index(page[start:], "</script>")
	if end < 0 {
		return nil, false
	}
	return []byte(page[start : start+end]), true
}

// findDecks walks a decoded JSON document for the first "decks" array that
// yields usable entries. The site nests its payload several levels deep and
// moves it around between releases, so the location is not hardcoded.
func findDecks(doc any) []deckJSON {
	switch v := doc.(type) {
	case map[string]any:
		if raw, ok := v["decks"]; ok {
			if entries := decodeDeckList(raw); len(entries) > 0 {
				return entries
			}
		}
		for _, child := range v {
			if entries := findDecks(child); len(entries) > 0 {
				return entries
			}
		}
	case []any:
		for _, child := range v {
			if entries := findDecks(child); len(entries) > 0 {
				return entries
			}
		}
	}
	return nil
}

func decodeDeckList(raw any) []deckJSON {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil
	}
	var entries []deckJSON
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil
	}

	usable := entries[:0]
	for _, e := range entries {
		if e.Name != "" && len(e.Core) > 0 {
			usable = append(usable, e)
		}
	}
	return usable
}

func (d deckJSON) toMetaDeck() engine.MetaDeck {
	id := d.ID
	if id == "" {
		id = slug(d.Name)
	}
	return engine.MetaDeck{
		ID:          id,
		Name:        d.Name,
		Tier:        d.Tier,
		WinRate:     d.WinRate,
		PickRate:    d.PickRate,
		Core:        toUnitIDs(d.Core),
		Flex:        toUnitIDs(d.Flex),
		TraitLevels: d.Synergies,
	}
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

func slug(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "'", "")
	return s
}
