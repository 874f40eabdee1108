package config

// Config is the full application configuration, loaded from YAML.
type Config struct {
	Log        LogConfig        `yaml:"log"`
	Data       DataConfig       `yaml:"data"`
	Backtest   BacktestConfig   `yaml:"backtest"`
	Strategy   StrategyConfig   `yaml:"strategy"`
	Robustness RobustnessConfig `yaml:"robustness"`
	Report     ReportConfig     `yaml:"report"`
	Server     ServerConfig     `yaml:"server"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type DataConfig struct {
	// Path to a CSV or JSON bar file.
	Path string `yaml:"path"`
	// Symbol and Timeframe override what the loader infers.
	Symbol    string `yaml:"symbol"`
	Timeframe string `yaml:"timeframe"`
}

// CostConfig parameterizes one cost model by type name.
type CostConfig struct {
	Type    string  `yaml:"type"`
	Value   float64 `yaml:"value"`
	Minimum float64 `yaml:"minimum"`
}

type BacktestConfig struct {
	InitialCapital     float64    `yaml:"initial_capital"`
	Commission         CostConfig `yaml:"commission"`
	Spread             CostConfig `yaml:"spread"`
	Slippage           CostConfig `yaml:"slippage"`
	AllowShorts        bool       `yaml:"allow_shorts"`
	MaxPositionPercent float64    `yaml:"max_position_percent"`
	WarmupBars         int        `yaml:"warmup_bars"`
	IntegerQuantity    bool       `yaml:"integer_quantity"`
}

type StrategyConfig struct {
	Name   string         `yaml:"name"`
	Params map[string]any `yaml:"params"`
}

type MonteCarloConfig struct {
	Simulations  int    `yaml:"simulations"`
	Mode         string `yaml:"mode"`
	RetainCurves int    `yaml:"retain_curves"`
	Seed         int64  `yaml:"seed"`
}

type WalkForwardConfig struct {
	TrainBars  int `yaml:"train_bars"`
	TestBars   int `yaml:"test_bars"`
	StepBars   int `yaml:"step_bars"`
	Iterations int `yaml:"iterations"`
	Workers    int `yaml:"workers"`
}

type SensitivityConfig struct {
	GridSize int    `yaml:"grid_size"`
	Metric   string `yaml:"metric"`
	Workers  int    `yaml:"workers"`
}

type StressConfig struct {
	Workers int `yaml:"workers"`
}

type RobustnessConfig struct {
	MonteCarlo  MonteCarloConfig  `yaml:"monte_carlo"`
	WalkForward WalkForwardConfig `yaml:"walk_forward"`
	Sensitivity SensitivityConfig `yaml:"sensitivity"`
	Stress      StressConfig      `yaml:"stress"`
}

type ReportConfig struct {
	// OutputDir receives the rendered HTML/PNG reports.
	OutputDir string `yaml:"output_dir"`
	HTML      bool   `yaml:"html"`
	PNG       bool   `yaml:"png"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}
