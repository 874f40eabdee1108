package robust

import (
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"strata/internal/engine"
	"strata/internal/logger"
	"strata/internal/series"
	"strata/internal/stats"
	"strata/internal/strategy"
)

// Sensitivity sweeps one or two strategy parameters over an evenly
// spaced grid and measures how stable the chosen metric is around the
// optimum. An isolated single-cell peak is the classic overfitting
// signature; a broad plateau is what a deployable strategy looks like.
type Sensitivity struct {
	Config engine.Config

	// GridSize is the number of values per parameter dimension.
	GridSize int
	Workers  int
}

func NewSensitivity(cfg engine.Config) *Sensitivity {
	return &Sensitivity{Config: cfg, GridSize: 10}
}

// Plateau summarizes the region around the optimal cell.
type Plateau struct {
	// Percent of grid cells whose metric lies within 10% of the optimum.
	Percent     float64 `json:"percent"`
	Sensitivity float64 `json:"sensitivity"`
	// Robustness is High above 30%, Medium above 15%, else Low.
	Robustness string  `json:"robustness"`
	MinValue   float64 `json:"min_value"`
	MaxValue   float64 `json:"max_value"`
}

// SweepResult is a 1D parameter sweep.
type SweepResult struct {
	ParamName string             `json:"param_name"`
	Values    []float64          `json:"values"`
	Results   []float64          `json:"results"`
	Stats     []stats.Statistics `json:"stats"`
	Metric    Metric             `json:"metric"`

	OptimalIndex int     `json:"optimal_index"`
	OptimalValue float64 `json:"optimal_value"`
	Plateau      Plateau `json:"plateau"`
}

// OptimalParam is the parameter value at the optimal cell.
func (r *SweepResult) OptimalParam() float64 { return r.Values[r.OptimalIndex] }

// HeatmapResult is a 2D parameter grid.
type HeatmapResult struct {
	Param1Name string    `json:"param1_name"`
	Param2Name string    `json:"param2_name"`
	Param1     []float64 `json:"param1_values"`
	Param2     []float64 `json:"param2_values"`

	// Values[i][j] is the metric at (Param1[i], Param2[j]). Failed
	// cells hold NaN and never win the optimum search.
	Values [][]float64          `json:"values"`
	Stats  [][]stats.Statistics `json:"stats"`
	Metric Metric               `json:"metric"`

	OptimalI     int     `json:"optimal_i"`
	OptimalJ     int     `json:"optimal_j"`
	OptimalValue float64 `json:"optimal_value"`
	Plateau      Plateau `json:"plateau"`
}

func (r *HeatmapResult) OptimalParam1() float64 { return r.Param1[r.OptimalI] }
func (r *HeatmapResult) OptimalParam2() float64 { return r.Param2[r.OptimalJ] }

// Sweep evaluates a single parameter across its declared range.
func (s *Sensitivity) Sweep(factory strategy.Factory, data *series.TimeSeries, paramName string, metric Metric) (*SweepResult, error) {
	param, err := findParam(factory, paramName)
	if err != nil {
		return nil, err
	}

	values := s.gridValues(param)
	results := make([]float64, len(values))
	cellStats := make([]stats.Statistics, len(values))

	var eg errgroup.Group
	eg.SetLimit(defaultWorkers(s.Workers))
	for i, v := range values {
		i, v := i, v
		eg.Go(func() error {
			st, err := s.runCell(factory, data, map[string]any{paramName: typedValue(param, v)})
			if err != nil {
				logger.Debugf("sensitivity: %s=%v skipped: %v", paramName, v, err)
				results[i] = math.NaN()
				return nil
			}
			results[i] = metric.extract(st)
			cellStats[i] = st
			return nil
		})
	}
	_ = eg.Wait()

	bestIdx, bestValue := optimum1D(results, metric)
	return &SweepResult{
		ParamName:    paramName,
		Values:       values,
		Results:      results,
		Stats:        cellStats,
		Metric:       metric,
		OptimalIndex: bestIdx,
		OptimalValue: bestValue,
		Plateau:      analyzePlateau(results, bestValue),
	}, nil
}

// Heatmap evaluates every combination of two parameters.
func (s *Sensitivity) Heatmap(factory strategy.Factory, data *series.TimeSeries, param1Name, param2Name string, metric Metric) (*HeatmapResult, error) {
	param1, err := findParam(factory, param1Name)
	if err != nil {
		return nil, err
	}
	param2, err := findParam(factory, param2Name)
	if err != nil {
		return nil, err
	}

	values1 := s.gridValues(param1)
	values2 := s.gridValues(param2)

	results := make([][]float64, len(values1))
	cellStats := make([][]stats.Statistics, len(values1))
	for i := range results {
		results[i] = make([]float64, len(values2))
		cellStats[i] = make([]stats.Statistics, len(values2))
	}

	var eg errgroup.Group
	eg.SetLimit(defaultWorkers(s.Workers))
	for i, v1 := range values1 {
		for j, v2 := range values2 {
			i, j, v1, v2 := i, j, v1, v2
			eg.Go(func() error {
				params := map[string]any{
					param1Name: typedValue(param1, v1),
					param2Name: typedValue(param2, v2),
				}
				st, err := s.runCell(factory, data, params)
				if err != nil {
					logger.Debugf("sensitivity: %s=%v %s=%v skipped: %v", param1Name, v1, param2Name, v2, err)
					results[i][j] = math.NaN()
					return nil
				}
				results[i][j] = metric.extract(st)
				cellStats[i][j] = st
				return nil
			})
		}
	}
	_ = eg.Wait()

	flat := make([]float64, 0, len(values1)*len(values2))
	bestI, bestJ := 0, 0
	bestValue := math.NaN()
	for i := range results {
		for j, v := range results[i] {
			flat = append(flat, v)
			if math.IsNaN(v) {
				continue
			}
			if math.IsNaN(bestValue) || metric.better(v, bestValue) {
				bestValue, bestI, bestJ = v, i, j
			}
		}
	}

	return &HeatmapResult{
		Param1Name:   param1Name,
		Param2Name:   param2Name,
		Param1:       values1,
		Param2:       values2,
		Values:       results,
		Stats:        cellStats,
		Metric:       metric,
		OptimalI:     bestI,
		OptimalJ:     bestJ,
		OptimalValue: bestValue,
		Plateau:      analyzePlateau(flat, bestValue),
	}, nil
}

func (s *Sensitivity) runCell(factory strategy.Factory, data *series.TimeSeries, params map[string]any) (stats.Statistics, error) {
	base := factory()
	merged := make(map[string]any)
	for _, p := range base.Params() {
		merged[p.Name] = p.Default
	}
	for k, v := range params {
		merged[k] = v
	}
	_, st, err := runOnce(s.Config, factory, merged, data)
	return st, err
}

func findParam(factory strategy.Factory, name string) (strategy.Param, error) {
	for _, p := range factory().Params() {
		if p.Name == name {
			return p, nil
		}
	}
	return strategy.Param{}, fmt.Errorf("parameter %q not declared by strategy", name)
}

// gridValues spans [Min, Max] evenly. Non-numeric parameters fall back
// to grid indices, matching nothing useful but never failing.
func (s *Sensitivity) gridValues(p strategy.Param) []float64 {
	n := s.GridSize
	if n < 2 {
		n = 2
	}
	values := make([]float64, n)
	switch p.Type {
	case strategy.ParamInt, strategy.ParamFloat:
		for i := range values {
			values[i] = p.Min + (p.Max-p.Min)*float64(i)/float64(n-1)
		}
	default:
		for i := range values {
			values[i] = float64(i)
		}
	}
	return values
}

func typedValue(p strategy.Param, v float64) any {
	switch p.Type {
	case strategy.ParamInt:
		return int(math.Round(v))
	case strategy.ParamFloat:
		return v
	case strategy.ParamBool:
		return v > 0.5
	default:
		return p.Default
	}
}

func optimum1D(results []float64, metric Metric) (int, float64) {
	bestIdx := 0
	bestValue := math.NaN()
	for i, v := range results {
		if math.IsNaN(v) {
			continue
		}
		if math.IsNaN(bestValue) || metric.better(v, bestValue) {
			bestValue, bestIdx = v, i
		}
	}
	return bestIdx, bestValue
}

// analyzePlateau counts the cells within 10% of the optimum. The
// denominator is the full grid, so failed cells count against the
// plateau.
func analyzePlateau(values []float64, optimal float64) Plateau {
	if len(values) == 0 || math.IsNaN(optimal) {
		return Plateau{Robustness: "Low"}
	}

	threshold := math.Abs(optimal * 0.1)
	count := 0
	minVal, maxVal := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if math.Abs(v-optimal) <= threshold {
			count++
		}
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}

	percent := float64(count) / float64(len(values)) * 100
	robustness := "Low"
	if percent > 30 {
		robustness = "High"
	} else if percent > 15 {
		robustness = "Medium"
	}
	return Plateau{
		Percent:     percent,
		Sensitivity: (maxVal - minVal) / (math.Abs(optimal) + 1e-4),
		Robustness:  robustness,
		MinValue:    minVal,
		MaxValue:    maxVal,
	}
}
