package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cicosss/earlybird/internal/secrets"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Setenv("DEEPSEEK_API_KEY", "dk-1")
	t.Setenv("DATABASE_URL", "postgres://eb:eb@localhost/eb")

	cfg, err := Load(context.Background(), "", secrets.NewEnvProvider(""))
	require.NoError(t, err)

	assert.Equal(t, []string{"dk-1"}, cfg.Providers["deepseek"].Keys)
	assert.Equal(t, -0.07, cfg.Gates.DixonColesRho)
	assert.Equal(t, 4, cfg.Gates.EnrichmentConcurrency)
	require.NoError(t, cfg.Validate())
}

func TestLoad_YAMLOverlaysDefaults(t *testing.T) {
	t.Setenv("DEEPSEEK_API_KEY", "dk-1")
	t.Setenv("DATABASE_URL", "postgres://eb:eb@localhost/eb")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
gates:
  confidence_gate: 70
leagues:
  tier2_per_cycle: 5
`), 0o644))

	cfg, err := Load(context.Background(), path, secrets.NewEnvProvider(""))
	require.NoError(t, err)

	assert.Equal(t, 70, cfg.Gates.ConfidenceGate)
	assert.Equal(t, 5, cfg.Leagues.Tier2PerCycle)
	// Untouched defaults survive the overlay.
	assert.Equal(t, 5.0, cfg.Gates.MaxStakePct)
}

func TestValidate_NamesAllMissingRequirements(t *testing.T) {
	cfg := Default()
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
	assert.Contains(t, err.Error(), "DEEPSEEK_API_KEY or PERPLEXITY_API_KEY")
}

func TestParamsFor_FallsBackToNeutralDefaults(t *testing.T) {
	cfg := Default()
	p := cfg.ParamsFor("nowhere_league")
	assert.Equal(t, 0.30, p.HomeAdvantage)
	assert.Equal(t, 1.35, p.LeagueAvgGoals)

	serieA := cfg.ParamsFor("serie_a")
	assert.Equal(t, 0.30, serieA.HomeAdvantage)
	assert.Equal(t, 1.34, serieA.LeagueAvgGoals)
}
