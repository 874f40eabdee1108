package series

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Timeframe describes the bar interval of a series. BarsPerYear is the
// annualization constant used by the statistics layer, on a 252
// trading-day base.
type Timeframe struct {
	Key         string
	Duration    time.Duration
	BarsPerYear float64
}

// TimeframeUnknown is the fallback when detection finds no match; it
// annualizes like daily data.
var TimeframeUnknown = Timeframe{Key: "unknown", Duration: 24 * time.Hour, BarsPerYear: 252}

var supportedTimeframes = map[string]Timeframe{
	"1m":  {Key: "1m", Duration: time.Minute, BarsPerYear: 252 * 24 * 60},
	"5m":  {Key: "5m", Duration: 5 * time.Minute, BarsPerYear: 252 * 24 * 12},
	"15m": {Key: "15m", Duration: 15 * time.Minute, BarsPerYear: 252 * 24 * 4},
	"30m": {Key: "30m", Duration: 30 * time.Minute, BarsPerYear: 252 * 24 * 2},
	"1h":  {Key: "1h", Duration: time.Hour, BarsPerYear: 252 * 24},
	"4h":  {Key: "4h", Duration: 4 * time.Hour, BarsPerYear: 252 * 6},
	"1d":  {Key: "1d", Duration: 24 * time.Hour, BarsPerYear: 252},
	"1w":  {Key: "1w", Duration: 7 * 24 * time.Hour, BarsPerYear: 52},
}

// ParseTimeframe returns the normalized timeframe definition.
func ParseTimeframe(input string) (Timeframe, error) {
	key := strings.ToLower(strings.TrimSpace(input))
	tf, ok := supportedTimeframes[key]
	if !ok {
		return Timeframe{}, fmt.Errorf("unsupported timeframe: %s", input)
	}
	return tf, nil
}

// SupportedTimeframes returns all supported keys, sorted by duration.
func SupportedTimeframes() []string {
	keys := make([]string, 0, len(supportedTimeframes))
	for k := range supportedTimeframes {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return supportedTimeframes[keys[i]].Duration < supportedTimeframes[keys[j]].Duration
	})
	return keys
}

// DetectTimeframe infers the bar interval from the median gap between
// consecutive timestamps, with a 5% tolerance. Fewer than two timestamps
// or an unrecognized gap yields TimeframeUnknown.
func DetectTimeframe(timestamps []int64) Timeframe {
	if len(timestamps) < 2 {
		return TimeframeUnknown
	}
	deltas := make([]int64, 0, len(timestamps)-1)
	for i := 1; i < len(timestamps); i++ {
		if d := timestamps[i] - timestamps[i-1]; d > 0 {
			deltas = append(deltas, d)
		}
	}
	if len(deltas) == 0 {
		return TimeframeUnknown
	}
	sort.Slice(deltas, func(i, j int) bool { return deltas[i] < deltas[j] })
	median := deltas[len(deltas)/2]
	for _, tf := range supportedTimeframes {
		ms := tf.Duration.Milliseconds()
		tol := ms / 20
		if median >= ms-tol && median <= ms+tol {
			return tf
		}
	}
	return TimeframeUnknown
}
