// Package config loads and validates the YAML application
// configuration and converts it into the engine's run configuration.
package config

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"strata/internal/cost"
	"strata/internal/engine"
)

// Load reads the YAML file at path, applies defaults, and validates.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path cannot be empty")
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	applyDefaults(v)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file failed (%s): %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "yaml"
		dc.WeaklyTypedInput = true
	}); err != nil {
		return nil, fmt.Errorf("parsing config failed: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	v := viper.New()
	applyDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "yaml"
		dc.WeaklyTypedInput = true
	}); err != nil {
		panic(fmt.Sprintf("default config unmarshal: %v", err))
	}
	return &cfg
}

// EngineConfig builds the run configuration, constructing the three
// cost models from their type names.
func (c *Config) EngineConfig() (engine.Config, error) {
	b := c.Backtest

	commission, err := cost.NewCommission(cost.CommissionType(b.Commission.Type), b.Commission.Value, b.Commission.Minimum)
	if err != nil {
		return engine.Config{}, fmt.Errorf("commission: %w", err)
	}
	spread, err := cost.NewSpread(cost.SpreadType(b.Spread.Type), b.Spread.Value)
	if err != nil {
		return engine.Config{}, fmt.Errorf("spread: %w", err)
	}
	slippage, err := cost.NewSlippage(cost.SlippageType(b.Slippage.Type), b.Slippage.Value)
	if err != nil {
		return engine.Config{}, fmt.Errorf("slippage: %w", err)
	}

	cfg := engine.Config{
		InitialCapital:     b.InitialCapital,
		Commission:         commission,
		Spread:             spread,
		Slippage:           slippage,
		AllowShorts:        b.AllowShorts,
		MaxPositionPercent: b.MaxPositionPercent,
		WarmupBars:         b.WarmupBars,
		IntegerQuantity:    b.IntegerQuantity,
	}
	if err := cfg.Validate(); err != nil {
		return engine.Config{}, err
	}
	return cfg, nil
}
