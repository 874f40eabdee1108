package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strata/internal/cost"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultsAreValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, validate(cfg))

	assert.Equal(t, 100_000.0, cfg.Backtest.InitialCapital)
	assert.Equal(t, "sma_cross", cfg.Strategy.Name)
	assert.Equal(t, 10_000, cfg.Robustness.MonteCarlo.Simulations)
	assert.Equal(t, ":8090", cfg.Server.Addr)

	eng, err := cfg.EngineConfig()
	require.NoError(t, err)
	assert.Equal(t, cost.CommissionPercent, eng.Commission.Type())
	assert.True(t, eng.AllowShorts)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
log:
  level: debug
data:
  path: bars/BTCUSDT_1h.csv
backtest:
  initial_capital: 25000
  commission:
    type: per_unit
    value: 0.005
    minimum: 1.0
  allow_shorts: false
  integer_quantity: true
strategy:
  name: rsi_reversion
  params:
    rsiPeriod: 7
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 25_000.0, cfg.Backtest.InitialCapital)
	assert.False(t, cfg.Backtest.AllowShorts)
	assert.True(t, cfg.Backtest.IntegerQuantity)
	assert.Equal(t, "rsi_reversion", cfg.Strategy.Name)
	assert.EqualValues(t, 7, cfg.Strategy.Params["rsiPeriod"])
	// untouched sections stay on defaults
	assert.Equal(t, 5000, cfg.Robustness.WalkForward.TrainBars)

	eng, err := cfg.EngineConfig()
	require.NoError(t, err)
	assert.Equal(t, cost.CommissionPerUnit, eng.Commission.Type())
	assert.Equal(t, 1.0, eng.Commission.Minimum())
	assert.False(t, eng.AllowShorts)
	assert.True(t, eng.IntegerQuantity)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := writeConfig(t, `
backtest:
  initial_capital: -5
strategy:
  name: ""
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "initial_capital")
	assert.Contains(t, err.Error(), "strategy.name")
}

func TestLoadRejectsBadCostType(t *testing.T) {
	path := writeConfig(t, `
backtest:
  commission:
    type: exotic
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	_, err = cfg.EngineConfig()
	assert.Error(t, err)
}

func TestLoadRejectsBadTimeframe(t *testing.T) {
	path := writeConfig(t, `
data:
  timeframe: 3h
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
	_, err = Load("")
	assert.Error(t, err)
}
