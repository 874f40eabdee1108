package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"strata/internal/config"
	"strata/internal/dataset"
	"strata/internal/engine"
	"strata/internal/logger"
	"strata/internal/report"
	"strata/internal/robust"
	"strata/internal/series"
	"strata/internal/stats"
	"strata/internal/strategy"
	apihttp "strata/internal/transport/http/api"
)

func main() {
	var (
		cfgPath      = flag.String("config", "", "YAML config file (built-in defaults when empty)")
		dataPath     = flag.String("data", "", "bar data file (CSV or JSON), overrides config")
		strategyName = flag.String("strategy", "", "strategy name, overrides config")
		logLevel     = flag.String("log-level", "", "debug, info, warn, or error")
		serve        = flag.Bool("serve", false, "run the HTTP API instead of a one-shot simulation")
		monteCarlo   = flag.Bool("montecarlo", false, "resample the trade sequence after the run")
		walkForward  = flag.Bool("walkforward", false, "run the walk-forward analysis")
		stress       = flag.Bool("stress", false, "run the stress scenario battery")
		sweep        = flag.String("sweep", "", "parameter to sweep, or \"p1,p2\" for a 2D grid")
	)
	flag.Parse()

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *dataPath != "" {
		cfg.Data.Path = *dataPath
	}
	if *strategyName != "" {
		cfg.Strategy.Name = *strategyName
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	logger.SetLevel(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *serve {
		if err := runServer(ctx, cfg); err != nil {
			log.Fatalf("server: %v", err)
		}
		return
	}
	if err := runOnce(ctx, cfg, *monteCarlo, *walkForward, *stress, *sweep); err != nil {
		log.Fatalf("run: %v", err)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func runServer(ctx context.Context, cfg *config.Config) error {
	engCfg, err := cfg.EngineConfig()
	if err != nil {
		return err
	}
	srv, err := apihttp.NewServer(apihttp.Config{
		Addr:     cfg.Server.Addr,
		Engine:   engCfg,
		Registry: strategy.Builtins(),
	})
	if err != nil {
		return err
	}
	return srv.Start(ctx)
}

func runOnce(ctx context.Context, cfg *config.Config, monteCarlo, walkForward, stress bool, sweep string) error {
	if cfg.Data.Path == "" {
		return fmt.Errorf("no data file configured (use -data or data.path)")
	}
	engCfg, err := cfg.EngineConfig()
	if err != nil {
		return err
	}
	data, err := loadData(cfg)
	if err != nil {
		return err
	}
	logger.Infof("loaded %d bars of %s %s", data.Len(), data.Symbol(), data.Timeframe().Key)

	registry := strategy.Builtins()
	strat, err := registry.Create(cfg.Strategy.Name)
	if err != nil {
		return err
	}
	if len(cfg.Strategy.Params) > 0 {
		if err := strat.SetParams(cfg.Strategy.Params); err != nil {
			return err
		}
	}

	eng, err := engine.New(engCfg)
	if err != nil {
		return err
	}
	result, err := eng.Run(data, strat)
	if err != nil {
		return err
	}

	rep := &report.Report{
		Result: result,
		Stats:  stats.NewCalculator().Calculate(result),
	}

	factory, err := parameterizedFactory(registry, cfg.Strategy.Name, cfg.Strategy.Params)
	if err != nil {
		return err
	}
	if monteCarlo {
		mc := newMonteCarlo(cfg, result.InitialCapital)
		out := mc.Simulate(result.TradePnLs())
		rep.MonteCarlo = &out
	}
	if walkForward {
		wf := newWalkForward(cfg, engCfg)
		out, err := wf.Analyze(factory, data)
		if err != nil {
			return err
		}
		rep.WalkForward = out
	}
	if stress {
		tester := robust.NewStressTester(engCfg)
		tester.Workers = cfg.Robustness.Stress.Workers
		rep.Stress = tester.RunAll(factory, data)
	}
	if sweep != "" {
		if err := runSweep(cfg, engCfg, factory, data, sweep, rep); err != nil {
			return err
		}
	}

	rep.Log()
	return writeReports(ctx, cfg, result, rep)
}

func loadData(cfg *config.Config) (*series.TimeSeries, error) {
	data, err := dataset.Load(cfg.Data.Path)
	if err != nil {
		return nil, err
	}
	symbol := data.Symbol()
	if cfg.Data.Symbol != "" {
		symbol = cfg.Data.Symbol
	}
	tf := data.Timeframe()
	if cfg.Data.Timeframe != "" {
		parsed, err := series.ParseTimeframe(cfg.Data.Timeframe)
		if err != nil {
			return nil, err
		}
		tf = parsed
	}
	if symbol == data.Symbol() && tf.Key == data.Timeframe().Key {
		return data, nil
	}
	return series.New(symbol, tf, data.Bars())
}

// parameterizedFactory folds the configured params into every instance
// the analyzers build.
func parameterizedFactory(registry *strategy.Registry, name string, params map[string]any) (strategy.Factory, error) {
	base, err := registry.Factory(name)
	if err != nil {
		return nil, err
	}
	if len(params) == 0 {
		return base, nil
	}
	if err := base().SetParams(params); err != nil {
		return nil, err
	}
	return func() strategy.Strategy {
		strat := base()
		_ = strat.SetParams(params)
		return strat
	}, nil
}

func newMonteCarlo(cfg *config.Config, initialEquity float64) *robust.MonteCarlo {
	mc := robust.NewMonteCarlo(initialEquity)
	mcCfg := cfg.Robustness.MonteCarlo
	if mcCfg.Simulations > 0 {
		mc.Simulations = mcCfg.Simulations
	}
	if mcCfg.Mode == string(robust.ResampleBootstrap) {
		mc.Mode = robust.ResampleBootstrap
	}
	if mcCfg.RetainCurves > 0 {
		mc.RetainCurves = mcCfg.RetainCurves
	}
	mc.Seed = mcCfg.Seed
	return mc
}

func newWalkForward(cfg *config.Config, engCfg engine.Config) *robust.WalkForward {
	wf := robust.NewWalkForward(engCfg)
	wfCfg := cfg.Robustness.WalkForward
	if wfCfg.TrainBars > 0 {
		wf.TrainBars = wfCfg.TrainBars
	}
	if wfCfg.TestBars > 0 {
		wf.TestBars = wfCfg.TestBars
	}
	if wfCfg.StepBars > 0 {
		wf.StepBars = wfCfg.StepBars
	}
	if wfCfg.Iterations > 0 {
		wf.OptimizationIterations = wfCfg.Iterations
	}
	wf.Workers = wfCfg.Workers
	return wf
}

func runSweep(cfg *config.Config, engCfg engine.Config, factory strategy.Factory, data *series.TimeSeries, sweep string, rep *report.Report) error {
	sens := robust.NewSensitivity(engCfg)
	if cfg.Robustness.Sensitivity.GridSize > 1 {
		sens.GridSize = cfg.Robustness.Sensitivity.GridSize
	}
	sens.Workers = cfg.Robustness.Sensitivity.Workers
	metric := robust.MetricSharpeRatio
	if cfg.Robustness.Sensitivity.Metric != "" {
		metric = robust.Metric(cfg.Robustness.Sensitivity.Metric)
	}

	names := strings.Split(sweep, ",")
	for i := range names {
		names[i] = strings.TrimSpace(names[i])
	}
	switch len(names) {
	case 1:
		out, err := sens.Sweep(factory, data, names[0], metric)
		if err != nil {
			return err
		}
		logger.Infof("sweep %s: optimal %s=%g (%s %.4f), plateau %.1f%% (%s)",
			out.ParamName, out.ParamName, out.OptimalParam(), out.Metric, out.OptimalValue,
			out.Plateau.Percent, out.Plateau.Robustness)
	case 2:
		out, err := sens.Heatmap(factory, data, names[0], names[1], metric)
		if err != nil {
			return err
		}
		logger.Infof("heatmap %sx%s: optimal %s=%g %s=%g (%s %.4f), plateau %.1f%% (%s)",
			out.Param1Name, out.Param2Name, out.Param1Name, out.OptimalParam1(),
			out.Param2Name, out.OptimalParam2(), out.Metric, out.OptimalValue,
			out.Plateau.Percent, out.Plateau.Robustness)
		rep.Sensitivity = out
	default:
		return fmt.Errorf("sweep takes one or two parameter names, got %q", sweep)
	}
	return nil
}

func writeReports(ctx context.Context, cfg *config.Config, result *engine.Result, rep *report.Report) error {
	if !cfg.Report.HTML && !cfg.Report.PNG {
		return nil
	}
	dir := cfg.Report.OutputDir
	if dir == "" {
		dir = "reports"
	}
	stem := fmt.Sprintf("%s_%s_%s", strings.ToLower(result.Symbol), result.Timeframe, result.StrategyName)

	if cfg.Report.HTML {
		path := filepath.Join(dir, stem+".html")
		if err := rep.WriteHTML(path); err != nil {
			return err
		}
		logger.Infof("wrote %s", path)
	}
	if cfg.Report.PNG {
		if err := report.EnsureHeadlessAvailable(ctx); err != nil {
			logger.Warnf("png export skipped, headless chrome unavailable: %v", err)
			return nil
		}
		path := filepath.Join(dir, stem+".png")
		if err := rep.WritePNG(ctx, path); err != nil {
			return err
		}
		logger.Infof("wrote %s", path)
	}
	return nil
}
