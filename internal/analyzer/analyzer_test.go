package analyzer

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cicosss/earlybird/internal/model"
)

var testNow = time.Date(2026, 4, 18, 10, 0, 0, 0, time.UTC)

func fixedAsk(response string) AskFunc {
	return func(context.Context, string) (string, error) { return response, nil }
}

func TestAnalyze_BetVerdictAboveGate(t *testing.T) {
	a := New(fixedAsk(`{"final_verdict": "BET", "confidence": 78, "recommended_market": "1", "combo_reasoning": "strong home form", "primary_driver": "form"}`), 60, zerolog.Nop())

	res, err := a.Analyze(context.Background(), model.Match{ID: "m1"}, Dossier{Home: "Roma", Away: "Lazio"}, testNow)
	require.NoError(t, err)
	assert.Equal(t, model.VerdictBet, res.Verdict)
	assert.Equal(t, 78, res.Confidence)
	assert.Equal(t, model.MarketHome, res.RecommendedMarket)
	assert.Equal(t, "form", res.PrimaryDriver)
}

func TestAnalyze_BetBelowGateDowngraded(t *testing.T) {
	a := New(fixedAsk(`{"final_verdict": "BET", "confidence": 40, "recommended_market": "X"}`), 60, zerolog.Nop())

	res, err := a.Analyze(context.Background(), model.Match{ID: "m1"}, Dossier{}, testNow)
	require.NoError(t, err)
	assert.Equal(t, model.VerdictNoBet, res.Verdict)
	assert.Contains(t, res.Reasoning, "low confidence")
}

func TestAnalyze_ConfidenceClamped(t *testing.T) {
	a := New(fixedAsk(`{"final_verdict": "BET", "confidence": 150, "recommended_market": "2"}`), 60, zerolog.Nop())

	res, err := a.Analyze(context.Background(), model.Match{ID: "m1"}, Dossier{}, testNow)
	require.NoError(t, err)
	assert.Equal(t, 100, res.Confidence)
}

func TestAnalyze_MissingFieldsGetTypedDefaults(t *testing.T) {
	a := New(fixedAsk(`{"final_verdict": "NO BET"}`), 60, zerolog.Nop())

	res, err := a.Analyze(context.Background(), model.Match{ID: "m1"}, Dossier{}, testNow)
	require.NoError(t, err)
	assert.Equal(t, model.VerdictNoBet, res.Verdict)
	assert.Equal(t, 0, res.Confidence)
	assert.Equal(t, model.MarketUnknown, res.RecommendedMarket)
	assert.Equal(t, "unspecified", res.PrimaryDriver)
}

func TestAnalyze_TolerantParseWithProse(t *testing.T) {
	raw := "Let me think.\n```json\n{\"final_verdict\": \"BET\", \"confidence\": 71, \"recommended_market\": \"BTTS\"}\n```"
	a := New(fixedAsk(raw), 60, zerolog.Nop())

	res, err := a.Analyze(context.Background(), model.Match{ID: "m1"}, Dossier{}, testNow)
	require.NoError(t, err)
	assert.Equal(t, model.MarketBTTS, res.RecommendedMarket)
}

func TestAnalyze_NoJSONIsError(t *testing.T) {
	a := New(fixedAsk("I cannot answer that."), 60, zerolog.Nop())
	_, err := a.Analyze(context.Background(), model.Match{ID: "m1"}, Dossier{}, testNow)
	assert.Error(t, err)
}

func TestUserPayload_CarriesDateAndTeams(t *testing.T) {
	d := Dossier{Home: "Porto", Away: "Braga", NewsSnippet: "keeper doubtful"}
	payload := d.UserPayload(testNow)

	assert.Contains(t, payload, "today: 2026-04-18")
	assert.Contains(t, payload, "home_team: Porto")
	assert.Contains(t, payload, "news_snippet: keeper doubtful")
	assert.Contains(t, payload, "market_status: Unknown")
}

func TestSystemPreamble_ByteStableAcrossCalls(t *testing.T) {
	var prompts []string
	capture := func(_ context.Context, prompt string) (string, error) {
		prompts = append(prompts, prompt)
		return `{"final_verdict": "NO BET"}`, nil
	}
	a := New(capture, 60, zerolog.Nop())

	_, err := a.Analyze(context.Background(), model.Match{ID: "m1"}, Dossier{Home: "Roma", Away: "Lazio"}, testNow)
	require.NoError(t, err)
	_, err = a.Analyze(context.Background(), model.Match{ID: "m2"}, Dossier{Home: "Inter", Away: "Milan"}, testNow.Add(24*time.Hour))
	require.NoError(t, err)

	require.Len(t, prompts, 2)
	for _, p := range prompts {
		assert.True(t, strings.HasPrefix(p, SystemPreamble))
	}
	// The date lives in the payload, never in the preamble.
	assert.NotContains(t, SystemPreamble, "2026")
}

func TestParseMarket(t *testing.T) {
	assert.Equal(t, model.MarketHome, ParseMarket("home win"))
	assert.Equal(t, model.MarketUnder25, ParseMarket("Under 2.5 Goals"))
	assert.Equal(t, model.MarketCards, ParseMarket("Over 4.5 Cards"))
	assert.Equal(t, model.MarketCorners, ParseMarket("Over 9.5 corners"))
	assert.Equal(t, model.MarketUnknown, ParseMarket("first scorer"))
}
