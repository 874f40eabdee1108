package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"strata/internal/series"
)

// column aliases accepted in the header row, lowercased.
var csvColumns = map[string]string{
	"timestamp": "timestamp", "time": "timestamp", "date": "timestamp", "datetime": "timestamp",
	"open": "open", "o": "open",
	"high": "high", "h": "high",
	"low": "low", "l": "low",
	"close": "close", "c": "close",
	"volume": "volume", "vol": "volume", "v": "volume",
}

// LoadCSV reads a header-led OHLCV file. Timestamps may be Unix
// seconds, Unix milliseconds, or a date/RFC 3339 string.
func LoadCSV(path string) (*series.TimeSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("%s: read header: %w", path, err)
	}
	cols, err := mapColumns(header)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	var bars []series.Bar
	line := 1
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: line %d: %w", path, line+1, err)
		}
		line++

		bar, err := parseRecord(record, cols)
		if err != nil {
			return nil, fmt.Errorf("%s: line %d: %w", path, line, err)
		}
		bars = append(bars, bar)
	}

	return build(path, bars)
}

func mapColumns(header []string) (map[string]int, error) {
	cols := make(map[string]int, 6)
	for i, name := range header {
		if canonical, ok := csvColumns[strings.ToLower(strings.TrimSpace(name))]; ok {
			if _, dup := cols[canonical]; !dup {
				cols[canonical] = i
			}
		}
	}
	for _, required := range []string{"timestamp", "open", "high", "low", "close"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("missing %s column in header %v", required, header)
		}
	}
	return cols, nil
}

func parseRecord(record []string, cols map[string]int) (series.Bar, error) {
	field := func(name string) (string, error) {
		idx, ok := cols[name]
		if !ok || idx >= len(record) {
			return "", fmt.Errorf("missing %s field", name)
		}
		return strings.TrimSpace(record[idx]), nil
	}

	tsRaw, err := field("timestamp")
	if err != nil {
		return series.Bar{}, err
	}
	ts, err := parseTimestamp(tsRaw)
	if err != nil {
		return series.Bar{}, err
	}

	bar := series.Bar{Timestamp: ts}
	for _, f := range []struct {
		name string
		dst  *float64
	}{
		{"open", &bar.Open}, {"high", &bar.High}, {"low", &bar.Low}, {"close", &bar.Close},
	} {
		raw, err := field(f.name)
		if err != nil {
			return series.Bar{}, err
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return series.Bar{}, fmt.Errorf("bad %s value %q", f.name, raw)
		}
		*f.dst = v
	}

	if idx, ok := cols["volume"]; ok && idx < len(record) {
		raw := strings.TrimSpace(record[idx])
		if raw != "" {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return series.Bar{}, fmt.Errorf("bad volume value %q", raw)
			}
			bar.Volume = v
		}
	}
	return bar, nil
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
}

// parseTimestamp normalizes to Unix milliseconds. Numeric values below
// 1e12 are treated as seconds.
func parseTimestamp(raw string) (int64, error) {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n < 1_000_000_000_000 {
			return n * 1000, nil
		}
		return n, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UnixMilli(), nil
		}
	}
	return 0, fmt.Errorf("unparseable timestamp %q", raw)
}
