package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/cicosss/earlybird/internal/ai"
	"github.com/cicosss/earlybird/internal/alert"
	"github.com/cicosss/earlybird/internal/analyzer"
	"github.com/cicosss/earlybird/internal/breaker"
	"github.com/cicosss/earlybird/internal/config"
	"github.com/cicosss/earlybird/internal/enrichment"
	"github.com/cicosss/earlybird/internal/httpapi"
	"github.com/cicosss/earlybird/internal/leagues"
	"github.com/cicosss/earlybird/internal/metrics"
	"github.com/cicosss/earlybird/internal/model"
	"github.com/cicosss/earlybird/internal/odds"
	"github.com/cicosss/earlybird/internal/persistence"
	"github.com/cicosss/earlybird/internal/persistence/postgres"
	"github.com/cicosss/earlybird/internal/pipeline"
	"github.com/cicosss/earlybird/internal/providerfed/budget"
	"github.com/cicosss/earlybird/internal/providerfed/circuit"
	"github.com/cicosss/earlybird/internal/providerfed/content"
	"github.com/cicosss/earlybird/internal/providerfed/httpclient"
	"github.com/cicosss/earlybird/internal/providerfed/keyrotator"
	"github.com/cicosss/earlybird/internal/providerfed/ratelimit"
	"github.com/cicosss/earlybird/internal/search"
	"github.com/cicosss/earlybird/internal/secrets"
	"github.com/cicosss/earlybird/internal/verification"
)

// app is the fully-wired process: every federation component built
// once, shared by reference, and torn down together.
type app struct {
	cfg      config.Config
	store    persistence.Store
	pipeline *pipeline.Pipeline
	brain    *leagues.Brain
	hub      *alert.Hub
	metrics  *metrics.Metrics
	ops      *httpapi.Server

	budgets  *budget.Manager
	circuits map[string]*circuit.Breaker
	rotators map[string]*keyrotator.Rotator
}

// buildApp constructs the whole object graph from configuration. The
// store is optional for commands that never touch it (providers health,
// spec).
func buildApp(ctx context.Context, needStore bool) (*app, error) {
	sp := secrets.NewEnvProvider("")
	cfg, err := config.Load(ctx, configPath, sp)
	if err != nil {
		return nil, err
	}
	if needStore {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	logger := log.Logger

	a := &app{
		cfg:      cfg,
		metrics:  metrics.New(),
		budgets:  budget.NewManager(),
		circuits: make(map[string]*circuit.Breaker),
		rotators: make(map[string]*keyrotator.Rotator),
	}

	limiter := ratelimit.NewLimiter(ratelimit.HostConfig{MinInterval: time.Second})
	for host, rl := range cfg.RateLimits {
		limiter.Configure(host, ratelimit.HostConfig{
			MinInterval: rl.MinInterval,
			JitterMin:   rl.JitterMin,
			JitterMax:   rl.JitterMax,
		})
	}

	httpTimeout := httpclient.DefaultHTTPClient(15 * time.Second)

	// Scrape-style endpoints 403/429 stale fingerprints; API-key vendors
	// identify callers by key and don't care about the User-Agent.
	scrapeStyle := map[string]bool{"duckduckgo": true, "mediastack": true, "fotmob": true}

	clients := make(map[string]*httpclient.Client, len(cfg.Providers))
	for name, pc := range cfg.Providers {
		a.budgets.AddProvider(budget.Config{
			Provider:             name,
			MonthlyLimit:         pc.MonthlyLimit,
			DegradedThreshold:    pc.DegradedThreshold,
			DisabledThreshold:    pc.DisabledThreshold,
			CriticalComponents:   pc.CriticalSet(),
			ComponentAllocations: pc.ComponentAllocations,
		})
		a.circuits[name] = circuit.New(circuit.Config{
			FailureThreshold: 5,
			SuccessThreshold: 2,
			RecoveryInterval: 2 * time.Minute,
		})
		a.rotators[name] = keyrotator.New(pc.Keys)

		tracker, _ := a.budgets.Tracker(name)
		client := &httpclient.Client{
			Provider:    name,
			Host:        pc.Host,
			Keys:        a.rotators[name],
			Budget:      tracker,
			Circuit:     a.circuits[name],
			RateLimiter: limiter,
			HTTP:        httpTimeout,
		}
		if scrapeStyle[name] {
			client.Fingerprint = httpclient.NewUARotator(nil)
		}
		clients[name] = client
	}

	seen := content.NewAuto(6 * time.Hour)
	searchFed := search.NewFederation([]search.Stage{
		{Role: "primary", Provider: search.NewBraveProvider(clients["brave"])},
		{Role: "secondary", Provider: search.NewMediastackProvider(clients["mediastack"])},
		{Role: "tertiary", Provider: search.NewTavilyProvider(clients["tavily"])},
		{Role: "last-resort", Provider: search.NewDuckDuckGoProvider(clients["duckduckgo"])},
	}, search.DefaultExclusionVocab, logger)

	breakers := breaker.NewManager(logger)
	breakers.Add("deepseek", 5, time.Minute)
	breakers.Add("perplexity", 5, time.Minute)

	searchFn := func(ctx context.Context, query string, limit int) []ai.WebResult {
		results := searchFed.Search(ctx, query, limit)
		out := make([]ai.WebResult, 0, len(results))
		for _, r := range results {
			if seen.IsSeen(r.Title, r.SourceLabel) {
				continue
			}
			seen.MarkSeen(r.Title, r.SourceLabel)
			out = append(out, ai.WebResult{Title: r.Title, URL: r.URL, Snippet: r.Snippet})
		}
		return out
	}

	router := ai.NewRouter([]ai.RawProvider{
		ai.NewDeepSeekProvider(clients["deepseek"], "deepseek-chat"),
		ai.NewPerplexityProvider(clients["perplexity"]),
	}, breakers, searchFn, cfg.Gates.AIMinInterval, logger)

	if needStore {
		store, err := postgres.Open(cfg.PostgresDSN, 5*time.Second)
		if err != nil {
			return nil, fmt.Errorf("store: %w", err)
		}
		a.store = store
	}

	a.hub = alert.NewHub(logger)
	channel := alert.NewWebhook(cfg.AlertWebhook, 10*time.Second, a.hub, logger)

	a.brain = leagues.NewBrain(cfg.Leagues, logger)

	enricher := enrichment.NewEnricher(
		enrichment.NewLiveSource(clients["fotmob"], clients["openweather"], logger),
		enrichment.Config{
			Concurrency:   cfg.Gates.EnrichmentConcurrency,
			TaskTimeout:   cfg.Gates.EnrichmentTaskTimeout,
			TotalDeadline: cfg.Gates.EnrichmentTotalDeadline,
		}, logger)

	an := analyzer.New(router.Ask, cfg.Gates.ConfidenceGate, logger)
	gate := verification.New(verification.DefaultThresholds(), logger)
	fixtures := odds.NewProvider(clients["oddsapi"], logger)

	newsFn := func(ctx context.Context, query string, limit int) []model.NewsItem {
		results := searchFed.Search(ctx, query, limit)
		items := make([]model.NewsItem, 0, len(results))
		for _, r := range results {
			if seen.IsSeen(r.Title, r.SourceLabel) {
				continue
			}
			seen.MarkSeen(r.Title, r.SourceLabel)
			items = append(items, model.NewsItem{
				Title:      r.Title,
				Snippet:    r.Snippet,
				Source:     r.SourceLabel,
				Confidence: model.ConfidenceMedium,
			})
		}
		return items
	}

	a.pipeline = pipeline.New(cfg, a.store, fixtures, enricher, an, gate, a.brain, channel, a.metrics, logger).
		WithIntel(router).
		WithNews(newsFn)

	a.ops = httpapi.NewServer(cfg.HTTPListenAddr, httpapi.ProviderInspector{
		Budgets:  a.budgets,
		Circuits: a.circuits,
		Rotators: a.rotators,
	}, a.brain, a.hub, a.metrics, logger)

	return a, nil
}

// logger returns the process logger; kept as a helper so command
// implementations don't reach for the global repeatedly.
func (a *app) logger() *zerolog.Logger { return &log.Logger }
