// Package dataset turns CSV and JSON bar files into validated time
// series. Loaders infer the symbol and timeframe from the filename
// (e.g. BTCUSDT_1h.csv) and fall back to detecting the interval from
// the timestamps themselves.
package dataset

import (
	"fmt"
	"path/filepath"
	"strings"

	"strata/internal/series"
)

// Load dispatches on the file extension.
func Load(path string) (*series.TimeSeries, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return LoadCSV(path)
	case ".json":
		return LoadJSON(path)
	default:
		return nil, fmt.Errorf("unsupported data file %q: want .csv or .json", path)
	}
}

// inferNames splits a filename like BTCUSDT_1h.csv into symbol and
// timeframe. A missing or unrecognized timeframe part returns ok=false
// and the whole stem as the symbol.
func inferNames(path string) (symbol string, tf series.Timeframe, ok bool) {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if idx := strings.LastIndex(stem, "_"); idx > 0 {
		if parsed, err := series.ParseTimeframe(stem[idx+1:]); err == nil {
			return strings.ToUpper(stem[:idx]), parsed, true
		}
	}
	return strings.ToUpper(stem), series.TimeframeUnknown, false
}

// build constructs the series, preferring the filename timeframe and
// detecting from timestamps otherwise.
func build(path string, bars []series.Bar) (*series.TimeSeries, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("%s: no bars", path)
	}
	symbol, tf, ok := inferNames(path)
	if !ok {
		timestamps := make([]int64, len(bars))
		for i, b := range bars {
			timestamps[i] = b.Timestamp
		}
		tf = series.DetectTimeframe(timestamps)
	}
	data, err := series.New(symbol, tf, bars)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return data, nil
}
