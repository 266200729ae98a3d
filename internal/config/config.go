// Package config assembles the single immutable configuration value the
// process runs on. Credentials come from the environment through the
// secrets provider; structural configuration (leagues, budgets, rate
// limits, pipeline gates) comes from an optional YAML file layered over
// defaults. Nothing re-reads configuration after startup.
package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cicosss/earlybird/internal/leagues"
	"github.com/cicosss/earlybird/internal/secrets"
)

// ProviderConfig is one external vendor's credentials and budget policy.
type ProviderConfig struct {
	Name                 string           `yaml:"name"`
	Host                 string           `yaml:"host"`
	Keys                 []string         `yaml:"-"` // from env, never from the file
	KeyEnvNames          []string         `yaml:"key_env_names"`
	MonthlyLimit         int64            `yaml:"monthly_limit"` // 0 = unlimited
	DegradedThreshold    float64          `yaml:"degraded_threshold"`
	DisabledThreshold    float64          `yaml:"disabled_threshold"`
	ComponentAllocations map[string]int64 `yaml:"component_allocations"`
	CriticalComponents   []string         `yaml:"critical_components"`
}

// RateLimitConfig is one host's pacing policy.
type RateLimitConfig struct {
	MinInterval time.Duration `yaml:"min_interval"`
	JitterMin   time.Duration `yaml:"jitter_min"`
	JitterMax   time.Duration `yaml:"jitter_max"`
}

// LeagueParams are the per-league model parameters.
type LeagueParams struct {
	HomeAdvantage     float64 `yaml:"home_advantage"`
	LeagueAvgGoals    float64 `yaml:"league_avg_goals"`
	NewsDecayLambda   float64 `yaml:"news_decay_lambda"`
	DrawOddsThreshold float64 `yaml:"draw_odds_threshold"`
}

// Gates are the pipeline decision thresholds.
type Gates struct {
	AlertThresholdHigh         float64       `yaml:"alert_threshold_high"`
	VerificationScoreThreshold float64       `yaml:"verification_score_threshold"`
	ConfidenceGate             int           `yaml:"confidence_gate"`
	MaxStakePct                float64       `yaml:"max_stake_pct"`
	DixonColesRho              float64       `yaml:"dixon_coles_rho"`
	EnrichmentTaskTimeout      time.Duration `yaml:"enrichment_task_timeout"`
	EnrichmentTotalDeadline    time.Duration `yaml:"enrichment_total_deadline"`
	EnrichmentConcurrency      int           `yaml:"enrichment_concurrency"`
	AnalyzableHorizon          time.Duration `yaml:"analyzable_horizon"`
	AIMinInterval              time.Duration `yaml:"ai_min_interval"`
}

// Config is the whole immutable surface.
type Config struct {
	Providers  map[string]ProviderConfig  `yaml:"providers"`
	RateLimits map[string]RateLimitConfig `yaml:"rate_limits"`
	Leagues    leagues.Config             `yaml:"leagues"`
	Params     map[string]LeagueParams    `yaml:"league_params"`
	Gates      Gates                      `yaml:"gates"`

	PostgresDSN    string        `yaml:"-"`
	RedisAddr      string        `yaml:"-"`
	AlertWebhook   string        `yaml:"-"`
	HTTPListenAddr string        `yaml:"http_listen_addr"`
	CycleInterval  time.Duration `yaml:"cycle_interval"`
}

// Default returns the baseline configuration the YAML file layers over.
func Default() Config {
	return Config{
		Providers: map[string]ProviderConfig{
			"brave": {
				Name: "brave", Host: "api.search.brave.com",
				KeyEnvNames:       []string{"BRAVE_API_KEY", "BRAVE_API_KEY_2", "BRAVE_API_KEY_3"},
				MonthlyLimit:      2000,
				DegradedThreshold: 0.75, DisabledThreshold: 0.95,
				CriticalComponents: []string{"pipeline.scoring", "odds.closing"},
			},
			"duckduckgo": {
				Name: "duckduckgo", Host: "html.duckduckgo.com",
				MonthlyLimit: 0,
			},
			"tavily": {
				Name: "tavily", Host: "api.tavily.com",
				KeyEnvNames:       []string{"TAVILY_API_KEY"},
				MonthlyLimit:      1000,
				DegradedThreshold: 0.60, DisabledThreshold: 0.90,
			},
			"mediastack": {
				Name: "mediastack", Host: "api.mediastack.com",
				KeyEnvNames:       []string{"MEDIASTACK_API_KEY", "MEDIASTACK_API_KEY_2"},
				MonthlyLimit:      500,
				DegradedThreshold: 0.70, DisabledThreshold: 0.95,
			},
			"deepseek": {
				Name: "deepseek", Host: "api.deepseek.com",
				KeyEnvNames:       []string{"DEEPSEEK_API_KEY"},
				MonthlyLimit:      0,
				DegradedThreshold: 0.80, DisabledThreshold: 0.95,
				CriticalComponents: []string{"pipeline.scoring"},
			},
			"perplexity": {
				Name: "perplexity", Host: "api.perplexity.ai",
				KeyEnvNames:       []string{"PERPLEXITY_API_KEY"},
				MonthlyLimit:      1500,
				DegradedThreshold: 0.80, DisabledThreshold: 0.95,
				CriticalComponents: []string{"pipeline.scoring"},
			},
			"oddsapi": {
				Name: "oddsapi", Host: "api.the-odds-api.com",
				KeyEnvNames:       []string{"ODDS_API_KEY", "ODDS_API_KEY_2"},
				MonthlyLimit:      500,
				DegradedThreshold: 0.70, DisabledThreshold: 0.92,
				CriticalComponents: []string{"pipeline.scoring", "odds.closing"},
			},
			"openweather": {
				Name: "openweather", Host: "api.openweathermap.org",
				KeyEnvNames:  []string{"OPENWEATHER_API_KEY"},
				MonthlyLimit: 0,
			},
			"fotmob": {
				Name: "fotmob", Host: "www.fotmob.com",
				MonthlyLimit: 0,
			},
		},
		RateLimits: map[string]RateLimitConfig{
			"api.search.brave.com":   {MinInterval: 1100 * time.Millisecond},
			"html.duckduckgo.com":    {MinInterval: 3 * time.Second, JitterMin: 500 * time.Millisecond, JitterMax: 2 * time.Second},
			"api.tavily.com":         {MinInterval: time.Second},
			"api.mediastack.com":     {MinInterval: 2 * time.Second},
			"www.fotmob.com":         {MinInterval: 1500 * time.Millisecond, JitterMin: 200 * time.Millisecond, JitterMax: 800 * time.Millisecond},
			"api.the-odds-api.com":   {MinInterval: time.Second},
			"api.openweathermap.org": {MinInterval: time.Second},
		},
		Leagues: leagues.Config{
			Tier1:              []string{"serie_a", "premier_league", "la_liga", "bundesliga", "ligue_1"},
			Tier2:              []string{"serie_b", "championship", "eredivisie", "liga_portugal", "super_lig", "jupiler_pro", "brasileirao", "argentina_primera"},
			Tier2PerCycle:      3,
			DryCyclesThreshold: 6,
			FallbackDailyLimit: 4,
		},
		Params: map[string]LeagueParams{
			"serie_a":           {HomeAdvantage: 0.30, LeagueAvgGoals: 1.34, NewsDecayLambda: 0.12, DrawOddsThreshold: 2.50},
			"premier_league":    {HomeAdvantage: 0.24, LeagueAvgGoals: 1.45, NewsDecayLambda: 0.15, DrawOddsThreshold: 2.50},
			"la_liga":           {HomeAdvantage: 0.29, LeagueAvgGoals: 1.32, NewsDecayLambda: 0.12, DrawOddsThreshold: 2.50},
			"bundesliga":        {HomeAdvantage: 0.22, LeagueAvgGoals: 1.58, NewsDecayLambda: 0.13, DrawOddsThreshold: 2.50},
			"ligue_1":           {HomeAdvantage: 0.28, LeagueAvgGoals: 1.36, NewsDecayLambda: 0.11, DrawOddsThreshold: 2.50},
			"super_lig":         {HomeAdvantage: 0.38, LeagueAvgGoals: 1.40, NewsDecayLambda: 0.09, DrawOddsThreshold: 2.60},
			"brasileirao":       {HomeAdvantage: 0.37, LeagueAvgGoals: 1.25, NewsDecayLambda: 0.09, DrawOddsThreshold: 2.60},
			"argentina_primera": {HomeAdvantage: 0.40, LeagueAvgGoals: 1.15, NewsDecayLambda: 0.08, DrawOddsThreshold: 2.60},
		},
		Gates: Gates{
			AlertThresholdHigh:         7.5,
			VerificationScoreThreshold: 7.5,
			ConfidenceGate:             60,
			MaxStakePct:                5.0,
			DixonColesRho:              -0.07,
			EnrichmentTaskTimeout:      30 * time.Second,
			EnrichmentTotalDeadline:    45 * time.Second,
			EnrichmentConcurrency:      4,
			AnalyzableHorizon:          48 * time.Hour,
			AIMinInterval:              2 * time.Second,
		},
		HTTPListenAddr: "127.0.0.1:8090",
		CycleInterval:  15 * time.Minute,
	}
}

// Load builds the immutable Config: defaults, then the optional YAML
// file, then credentials from the secret provider. A provider whose
// credentials are missing stays configured with an empty key pool; its
// federation member disables itself rather than failing startup, except
// for hard requirements checked in Validate.
func Load(ctx context.Context, path string, sp secrets.SecretProvider) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	for name, pc := range cfg.Providers {
		for _, envName := range pc.KeyEnvNames {
			if v, err := sp.GetSecret(ctx, envName); err == nil {
				pc.Keys = append(pc.Keys, v)
			}
		}
		cfg.Providers[name] = pc
	}

	cfg.PostgresDSN = os.Getenv("DATABASE_URL")
	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	cfg.AlertWebhook = os.Getenv("ALERT_WEBHOOK_URL")
	if v := os.Getenv("HTTP_LISTEN_ADDR"); v != "" {
		cfg.HTTPListenAddr = v
	}
	if v := os.Getenv("CYCLE_INTERVAL_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CycleInterval = time.Duration(n) * time.Minute
		}
	}

	return cfg, nil
}

// Validate checks the hard startup requirements and names every missing
// credential in one error so the operator fixes them all at once.
func (c Config) Validate() error {
	var missing []string
	if c.PostgresDSN == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if len(c.Providers["deepseek"].Keys) == 0 && len(c.Providers["perplexity"].Keys) == 0 {
		missing = append(missing, "DEEPSEEK_API_KEY or PERPLEXITY_API_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ParamsFor returns the league parameters, falling back to neutral
// defaults for leagues without an entry.
func (c Config) ParamsFor(leagueKey string) LeagueParams {
	if p, ok := c.Params[leagueKey]; ok {
		return p
	}
	return LeagueParams{HomeAdvantage: 0.30, LeagueAvgGoals: 1.35, NewsDecayLambda: 0.12, DrawOddsThreshold: 2.50}
}

// CriticalSet converts a provider's critical-component list to the set
// shape the budget tracker wants.
func (pc ProviderConfig) CriticalSet() map[string]bool {
	out := make(map[string]bool, len(pc.CriticalComponents))
	for _, c := range pc.CriticalComponents {
		out[c] = true
	}
	return out
}
