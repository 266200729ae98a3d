// Package alert delivers the pipeline's final recommendations: a
// best-effort webhook post per alert, and a websocket hub streaming the
// same payloads to any connected ops console. Delivery is fire-and-
// forget; the pipeline never retries a failed send.
package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/cicosss/earlybird/internal/model"
)

// Payload is the wire shape of one emitted alert.
type Payload struct {
	MatchID           string    `json:"match_id"`
	Home              string    `json:"home"`
	Away              string    `json:"away"`
	League            string    `json:"league"`
	Kickoff           time.Time `json:"kickoff"`
	Verdict           string    `json:"verdict"`
	Confidence        int       `json:"confidence"`
	RecommendedMarket string    `json:"recommended_market"`
	Reasoning         string    `json:"reasoning"`
	PrimaryDriver     string    `json:"primary_driver"`
	BestMarket        string    `json:"best_market"`
	EdgePct           float64   `json:"edge_pct"`
	KellyPct          float64   `json:"kelly_pct"`
	FairOdd           float64   `json:"fair_odd"`
	ActualOdd         float64   `json:"actual_odd"`
	Verification      string    `json:"verification"`
	EmittedAt         time.Time `json:"emitted_at"`
}

// NewPayload flattens a match and its analysis result into the wire
// shape.
func NewPayload(m model.Match, result model.AnalysisResult, now time.Time) Payload {
	return Payload{
		MatchID:           m.ID,
		Home:              m.Home,
		Away:              m.Away,
		League:            m.LeagueKey,
		Kickoff:           m.StartInstant,
		Verdict:           string(result.Verdict),
		Confidence:        result.Confidence,
		RecommendedMarket: string(result.RecommendedMarket),
		Reasoning:         result.Reasoning,
		PrimaryDriver:     result.PrimaryDriver,
		BestMarket:        string(result.Quant.BestMarket),
		EdgePct:           result.Quant.EdgePct,
		KellyPct:          result.Quant.KellyPct,
		FairOdd:           result.Quant.FairOdd,
		ActualOdd:         result.Quant.ActualOdd,
		Verification:      string(result.Verification),
		EmittedAt:         now.UTC(),
	}
}

// Channel is the one-way delivery surface the pipeline sees.
type Channel interface {
	SendAlert(ctx context.Context, p Payload) error
}

// Webhook posts alerts to a configured HTTP endpoint.
type Webhook struct {
	URL    string
	Client *http.Client
	Hub    *Hub // optional fan-out to connected consoles
	Log    zerolog.Logger
}

func NewWebhook(url string, timeout time.Duration, hub *Hub, log zerolog.Logger) *Webhook {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Webhook{
		URL:    url,
		Client: &http.Client{Timeout: timeout},
		Hub:    hub,
		Log:    log,
	}
}

// SendAlert posts the payload once. A delivery failure is logged and
// returned but never retried here.
func (w *Webhook) SendAlert(ctx context.Context, p Payload) error {
	if w.Hub != nil {
		w.Hub.Broadcast(p)
	}
	if w.URL == "" {
		w.Log.Debug().Str("match", p.MatchID).Msg("no webhook configured; alert logged only")
		return nil
	}

	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("alert marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("alert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.Client.Do(req)
	if err != nil {
		w.Log.Warn().Str("match", p.MatchID).Err(err).Msg("alert delivery failed")
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		err := fmt.Errorf("alert webhook returned HTTP %d", resp.StatusCode)
		w.Log.Warn().Str("match", p.MatchID).Int("status", resp.StatusCode).Msg("alert delivery rejected")
		return err
	}

	w.Log.Info().Str("match", p.MatchID).Str("market", p.RecommendedMarket).Int("confidence", p.Confidence).Msg("alert delivered")
	return nil
}
