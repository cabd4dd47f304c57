package llm

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/minsukang/tft-guide/internal/engine"
)

const systemPrompt = `You are an expert Teamfight Tactics coach.
Analyze the current game state and advise the player on their best line.
Structure your answer as:

Situation analysis
Recommended actions (three concrete ones)
Economy advice
Positioning tips

Keep the advice short and practical.`

// GameContext is the game state handed to the advisor.
type GameContext struct {
	OwnedUnits      []string
	Level           int
	Gold            int
	OpponentInfo    string
	Recommendations []engine.RecommendationResult
}

// Analysis is the advisor's verdict and where it came from.
type Analysis struct {
	Text   string `json:"analysis"`
	Source string `json:"source"` // "llm" or "rule"
}

// Chatter is the slice of Client the advisor needs.
type Chatter interface {
	Chat(ctx context.Context, system, user string) (string, error)
}

// Advisor produces coaching text, preferring the model and falling back to
// rules.
type Advisor struct {
	client Chatter
}

// NewAdvisor creates an advisor. client may be nil, in which case every
// analysis is rule-based.
func NewAdvisor(client Chatter) *Advisor {
	return &Advisor{client: client}
}

// AnalyzeGame asks the model for an analysis of the game state. Any model
// failure degrades silently to rule-based advice; the caller always gets an
// answer.
func (a *Advisor) AnalyzeGame(ctx context.Context, gc GameContext) Analysis {
	if a.client != nil {
		text, err := a.client.Chat(ctx, systemPrompt, buildPrompt(gc))
		if err == nil && text != "" {
			return Analysis{Text: text, Source: "llm"}
		}
		if err != nil {
			log.Printf("llm: falling back to rule-based advice: %v", err)
		}
	}
	return Analysis{Text: RuleBasedAdvice(gc), Source: "rule"}
}

// buildPrompt renders the game state for the model, including the top of
// the recommendation list so the model reasons from the engine's numbers
// instead of hallucinating its own.
func buildPrompt(gc GameContext) string {
	var b strings.Builder

	units := "none"
	if len(gc.OwnedUnits) > 0 {
		units = strings.Join(gc.OwnedUnits, ", ")
	}
	opponents := gc.OpponentInfo
	if opponents == "" {
		opponents = "unknown"
	}
	fmt.Fprintf(&b, "Current state:\n- Level: %d, gold: %d\n- My units: %s\n- Opponents: %s\n\n",
		gc.Level, gc.Gold, units, opponents)

	b.WriteString("Recommendation engine output (top 3):\n")
	for i, rec := range gc.Recommendations {
		if i == 3 {
			break
		}
		fmt.Fprintf(&b, "%d. %s (tier %s, %.0f%% assembled, completion odds %.0f%%)",
			i+1, rec.DeckName, rec.Tier, rec.MatchRatio*100, rec.CompletionProbability*100)
		if names := neededNames(rec, 3); len(names) > 0 {
			fmt.Fprintf(&b, " - still needs: %s", strings.Join(names, ", "))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// RuleBasedAdvice generates advice without a model. The thresholds encode
// standard play patterns: interest breakpoints, board size per stage, and
// when a deck is close enough to commit to.
func RuleBasedAdvice(gc GameContext) string {
	var advice []string
	n := len(gc.OwnedUnits)

	switch {
	case gc.Gold >= 50:
		advice = append(advice, "Sitting on max interest. Spend the surplus on levels or rerolls.")
	case gc.Gold >= 30:
		advice = append(advice, "Good interest bracket. Consider saving up to 50 gold.")
	case gc.Gold < 10 && gc.Level >= 7:
		advice = append(advice, "Low on gold. Lean on streak bonuses before spending again.")
	}

	if gc.Level <= 5 && n >= 4 {
		advice = append(advice, "Still early. Fill the board with cheap units and take upgrades as they come.")
	} else if gc.Level >= 8 && n < 6 {
		advice = append(advice, "Your board is thin for this stage. Field more units now.")
	}

	if len(gc.Recommendations) > 0 {
		top := gc.Recommendations[0]
		if top.MatchRatio >= 0.6 {
			advice = append(advice, fmt.Sprintf("'%s' is %.0f%% assembled. Push to complete it.",
				top.DeckName, top.MatchRatio*100))
			if names := neededNames(top, 3); len(names) > 0 {
				advice = append(advice, "Look for: "+strings.Join(names, ", "))
			}
		} else if top.MatchRatio < 0.3 && n >= 3 {
			advice = append(advice, "No meta deck fits your current units well. Consider pivoting.")
		}
	}

	if len(advice) == 0 {
		advice = append(advice, "Keep collecting units. Advice gets specific once a direction emerges.")
	}
	return strings.Join(advice, "\n")
}

func neededNames(rec engine.RecommendationResult, limit int) []string {
	names := make([]string, 0, limit)
	for _, p := range rec.Prospects {
		if len(names) == limit {
			break
		}
		names = append(names, p.Name)
	}
	return names
}
