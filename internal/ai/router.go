package ai

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/cicosss/earlybird/internal/breaker"
)

// SearchFunc performs the optional web-search pre-enrichment step; wired
// to the search.Federation.Search by the caller so this package doesn't
// need to import the search federation directly.
type SearchFunc func(ctx context.Context, query string, limit int) []WebResult

// Router is the intelligence router: an ordered list of AI backends
// behind one interface, with local rate limiting and a shared
// tolerant-JSON parse. A transient failure on one backend falls through
// to the next with no shared cooldown.
type Router struct {
	mu           sync.Mutex
	providers    []RawProvider
	breakers     *breaker.Manager
	search       SearchFunc
	minInterval  time.Duration
	lastCallTime time.Time
	log          zerolog.Logger
}

func NewRouter(providers []RawProvider, breakers *breaker.Manager, search SearchFunc, minInterval time.Duration, log zerolog.Logger) *Router {
	return &Router{providers: providers, breakers: breakers, search: search, minInterval: minInterval, log: log}
}

func (r *Router) waitForRateLimit() {
	r.mu.Lock()
	defer r.mu.Unlock()
	elapsed := time.Since(r.lastCallTime)
	if r.minInterval > 0 && elapsed < r.minInterval {
		time.Sleep(r.minInterval - elapsed)
	}
	r.lastCallTime = time.Now()
}

// callWithFallback tries each provider in order, returning the first
// successful raw response. A transient failure from one provider does
// not trip any shared cooldown; it simply moves to the next.
func (r *Router) callWithFallback(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for _, p := range r.providers {
		r.waitForRateLimit()

		result, err := r.breakers.Execute(ctx, p.Name(), func() (any, error) {
			return p.Call(ctx, prompt)
		})
		if err != nil {
			r.log.Warn().Str("provider", p.Name()).Err(err).Msg("ai provider call failed, trying next")
			lastErr = err
			continue
		}
		raw, _ := result.(string)
		if raw == "" {
			lastErr = fmt.Errorf("%s: empty response", p.Name())
			continue
		}
		return raw, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no ai providers configured")
	}
	return "", lastErr
}

// Ask sends an already-assembled prompt through the primary/fallback
// chain and returns the raw response text. Callers that own their own
// prompt protocol (the triangulation analyzer) use this instead of the
// fixed operations below.
func (r *Router) Ask(ctx context.Context, prompt string) (string, error) {
	return r.callWithFallback(ctx, prompt)
}

func (r *Router) webBlock(ctx context.Context, query string, limit int) string {
	if r.search == nil {
		return ""
	}
	results := r.search(ctx, query, limit)
	return formatWebResults(results)
}

func (r *Router) DeepDive(ctx context.Context, m MatchIdentity, referee string, missingPlayers []string) (*DeepDiveResult, error) {
	query := fmt.Sprintf("%s vs %s match preview analysis", m.Home, m.Away)
	if m.Date != "" {
		query += " " + m.Date
	}
	web := r.webBlock(ctx, query, 5)
	prompt := assemblePrompt(deepDivePreamble, deepDivePayload(m, referee, missingPlayers), web)

	raw, err := r.callWithFallback(ctx, prompt)
	if err != nil {
		return nil, err
	}
	parsed, ok := ExtractJSON(raw)
	if !ok {
		return nil, fmt.Errorf("deep dive: no valid JSON object in response")
	}
	return normalizeDeepDive(parsed), nil
}

func (r *Router) BettingStats(ctx context.Context, m MatchIdentity) (*BettingStatsResult, error) {
	query := fmt.Sprintf("%s vs %s corners cards statistics", m.Home, m.Away)
	if m.League != "" {
		query += " " + m.League
	}
	web := r.webBlock(ctx, query, 5)
	prompt := assemblePrompt(bettingStatsPreamble, bettingStatsPayload(m), web)

	raw, err := r.callWithFallback(ctx, prompt)
	if err != nil {
		return nil, err
	}
	parsed, ok := ExtractJSON(raw)
	if !ok {
		return nil, fmt.Errorf("betting stats: no valid JSON object in response")
	}
	return normalizeBettingStats(parsed), nil
}

func (r *Router) VerifyNews(ctx context.Context, title, snippet, team, source, matchContext string) (*VerificationFacts, error) {
	searchText := title
	if searchText == "" {
		searchText = snippet
	}
	if len(searchText) > 100 {
		searchText = searchText[:100]
	}
	query := fmt.Sprintf("%s %s", team, searchText)
	web := r.webBlock(ctx, query, 5)
	prompt := assemblePrompt(newsVerificationPreamble, newsVerificationPayload(title, snippet, team, source, matchContext), web)

	raw, err := r.callWithFallback(ctx, prompt)
	if err != nil {
		return nil, err
	}
	parsed, ok := ExtractJSON(raw)
	if !ok {
		return nil, fmt.Errorf("news verification: no valid JSON object in response")
	}
	return normalizeVerification(parsed), nil
}

func (r *Router) ConfirmCollusion(ctx context.Context, m MatchIdentity, drawOdds, impliedProb float64, oddsPattern, seasonContext string, detectedFactors []string) (*ConfirmationFacts, error) {
	if drawOdds <= 1.0 {
		return nil, fmt.Errorf("confirm collusion: invalid draw odds %.2f", drawOdds)
	}
	query := fmt.Sprintf("%s vs %s %s standings objectives", m.Home, m.Away, m.League)
	if m.Date != "" {
		query += " " + m.Date
	}
	web := r.webBlock(ctx, query, 5)
	prompt := assemblePrompt(biscottoConfirmationPreamble, biscottoConfirmationPayload(m, drawOdds, impliedProb, oddsPattern, seasonContext, detectedFactors), web)

	raw, err := r.callWithFallback(ctx, prompt)
	if err != nil {
		return nil, err
	}
	parsed, ok := ExtractJSON(raw)
	if !ok {
		return nil, fmt.Errorf("confirm collusion: no valid JSON object in response")
	}
	return normalizeConfirmation(parsed), nil
}

func (r *Router) EnrichMatchContext(ctx context.Context, m MatchIdentity, existingContext string) (*EnrichedContext, error) {
	query := fmt.Sprintf("%s vs %s news form injuries", m.Home, m.Away)
	if m.League != "" {
		query += " " + m.League
	}
	web := r.webBlock(ctx, query, 5)
	prompt := assemblePrompt(matchEnrichmentPreamble, matchEnrichmentPayload(m, existingContext), web)

	raw, err := r.callWithFallback(ctx, prompt)
	if err != nil {
		return nil, err
	}
	parsed, ok := ExtractJSON(raw)
	if !ok {
		return nil, fmt.Errorf("enrich match context: no valid JSON object in response")
	}
	return normalizeEnrichedContext(parsed), nil
}
