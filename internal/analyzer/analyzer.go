// Package analyzer runs the triangulation step: it folds every gathered
// signal into one dossier, asks the intelligence router for a verdict,
// and normalizes the answer into a model.AnalysisResult. The system
// preamble is byte-stable across calls; everything per-match, including
// today's date, travels in the user payload.
package analyzer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cicosss/earlybird/internal/ai"
	"github.com/cicosss/earlybird/internal/model"
)

// SystemPreamble defines the analyst role, the output contract, and the
// hard rules. It contains no per-match variable of any kind.
const SystemPreamble = `You are a professional football betting analyst producing a final triangulated verdict for one match.

You will receive a dossier containing: today's date, the two teams, aggregated news, the market status (current vs opening odds and detected market signals), official data (injuries, referee, weather), team statistics, tactical context, and the investigation status.

HARD RULES:
1. Verify the dossier describes the named match between the named teams; if the identity is doubtful, the verdict is NO BET.
2. Sanity-check every recommendation against the official data: never recommend an Over market for a decimated attack, never recommend a cards market without referee data.
3. If the dossier marks a signal as Unknown, treat it as absent, not as favorable.
4. When data is insufficient for a market, do not recommend that market.

Respond with ONLY a JSON object with these fields:
{"final_verdict": "BET" or "NO BET", "confidence": integer 0-100, "recommended_market": string, "combo_reasoning": string, "primary_driver": string}
Do not include any text outside the JSON object.`

// Dossier is the dynamic half of the prompt: every per-match variable
// the preamble is forbidden to carry.
type Dossier struct {
	Home                string
	Away                string
	NewsSnippet         string
	MarketStatus        string
	OfficialData        string
	TeamStats           string
	TacticalContext     string
	InvestigationStatus string
}

// UserPayload renders the dossier, injecting today's ISO date at call
// time.
func (d Dossier) UserPayload(today time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "today: %s\n", today.UTC().Format("2006-01-02"))
	fmt.Fprintf(&b, "home_team: %s\n", d.Home)
	fmt.Fprintf(&b, "away_team: %s\n", d.Away)
	fmt.Fprintf(&b, "news_snippet: %s\n", orUnknown(d.NewsSnippet))
	fmt.Fprintf(&b, "market_status: %s\n", orUnknown(d.MarketStatus))
	fmt.Fprintf(&b, "official_data: %s\n", orUnknown(d.OfficialData))
	fmt.Fprintf(&b, "team_stats: %s\n", orUnknown(d.TeamStats))
	fmt.Fprintf(&b, "tactical_context: %s\n", orUnknown(d.TacticalContext))
	fmt.Fprintf(&b, "investigation_status: %s\n", orUnknown(d.InvestigationStatus))
	return b.String()
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Unknown"
	}
	return s
}

// AskFunc sends a fully-assembled prompt to the intelligence router and
// returns the raw response text.
type AskFunc func(ctx context.Context, prompt string) (string, error)

// Analyzer triangulates one match at a time.
type Analyzer struct {
	ask            AskFunc
	confidenceGate int
	log            zerolog.Logger
}

func New(ask AskFunc, confidenceGate int, log zerolog.Logger) *Analyzer {
	if confidenceGate <= 0 {
		confidenceGate = 60
	}
	return &Analyzer{ask: ask, confidenceGate: confidenceGate, log: log}
}

// Analyze assembles the prompt, queries the router, and normalizes the
// verdict. A response that parses but misses fields still yields a
// usable result with typed defaults; a response with no JSON at all is
// an error the caller treats as provider failure.
func (a *Analyzer) Analyze(ctx context.Context, m model.Match, d Dossier, now time.Time) (*model.AnalysisResult, error) {
	prompt := SystemPreamble + "\n\n" + d.UserPayload(now)

	raw, err := a.ask(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("triangulation: %w", err)
	}

	parsed, ok := ai.ExtractJSON(raw)
	if !ok {
		return nil, fmt.Errorf("triangulation: no valid JSON object in response")
	}

	result := a.normalize(m.ID, parsed)
	result.ClampConfidence(a.confidenceGate)
	if result.Verdict == model.VerdictNoBet {
		a.log.Debug().Str("match", m.ID).Int("confidence", result.Confidence).Msg("triangulation verdict NO BET")
	}
	return result, nil
}

func (a *Analyzer) normalize(matchID string, m map[string]any) *model.AnalysisResult {
	verdict := model.VerdictNoBet
	if v, ok := m["final_verdict"].(string); ok && strings.EqualFold(strings.TrimSpace(v), "BET") {
		verdict = model.VerdictBet
	}

	confidence := 0
	switch v := m["confidence"].(type) {
	case float64:
		confidence = int(v)
	case string:
		fmt.Sscanf(v, "%d", &confidence)
	}

	market := model.MarketUnknown
	if v, ok := m["recommended_market"].(string); ok {
		market = ParseMarket(v)
	}

	reasoning, _ := m["combo_reasoning"].(string)
	driver, _ := m["primary_driver"].(string)
	if driver == "" {
		driver = "unspecified"
	}

	return &model.AnalysisResult{
		MatchID:           matchID,
		Verdict:           verdict,
		Confidence:        confidence,
		RecommendedMarket: market,
		Reasoning:         reasoning,
		PrimaryDriver:     driver,
		Verification:      model.VerificationUnverified,
	}
}

// ParseMarket maps the free-text market names an AI answer uses onto
// the closed Market enumeration.
func ParseMarket(s string) model.Market {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "1", "HOME", "HOME WIN":
		return model.MarketHome
	case "X", "DRAW":
		return model.MarketDraw
	case "2", "AWAY", "AWAY WIN":
		return model.MarketAway
	case "OVER 2.5", "OVER_25", "OVER 2.5 GOALS", "OVER":
		return model.MarketOver25
	case "UNDER 2.5", "UNDER_25", "UNDER 2.5 GOALS", "UNDER":
		return model.MarketUnder25
	case "BTTS", "GG", "BOTH TEAMS TO SCORE":
		return model.MarketBTTS
	case "1X", "DOUBLE CHANCE 1X":
		return model.MarketDoubleOneX
	case "X2", "DOUBLE CHANCE X2":
		return model.MarketDoubleX2
	}
	lower := strings.ToLower(s)
	switch {
	case strings.Contains(lower, "card"):
		return model.MarketCards
	case strings.Contains(lower, "corner"):
		return model.MarketCorners
	}
	return model.MarketUnknown
}
