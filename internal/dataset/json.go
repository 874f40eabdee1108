package dataset

import (
	"fmt"
	"os"

	"github.com/tidwall/gjson"

	"strata/internal/series"
)

// LoadJSON reads bars from a JSON file. Accepted shapes:
//   - an array of objects: [{"timestamp":..., "open":..., ...}, ...]
//   - an object wrapping that array under "bars", "data", or "klines"
//   - an array of exchange-style kline arrays: [[ts,o,h,l,c,v], ...]
func LoadJSON(path string) (*series.TimeSeries, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("%s: invalid json", path)
	}

	root := gjson.ParseBytes(raw)
	if root.IsObject() {
		for _, key := range []string{"bars", "data", "klines"} {
			if nested := root.Get(key); nested.IsArray() {
				root = nested
				break
			}
		}
	}
	if !root.IsArray() {
		return nil, fmt.Errorf("%s: want a json array of bars", path)
	}

	var bars []series.Bar
	var parseErr error
	root.ForEach(func(_, item gjson.Result) bool {
		bar, err := parseJSONBar(item)
		if err != nil {
			parseErr = fmt.Errorf("%s: bar %d: %w", path, len(bars), err)
			return false
		}
		bars = append(bars, bar)
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}

	return build(path, bars)
}

func parseJSONBar(item gjson.Result) (series.Bar, error) {
	if item.IsArray() {
		fields := item.Array()
		if len(fields) < 5 {
			return series.Bar{}, fmt.Errorf("kline array needs at least 5 fields, got %d", len(fields))
		}
		bar := series.Bar{
			Timestamp: fields[0].Int(),
			Open:      fields[1].Float(),
			High:      fields[2].Float(),
			Low:       fields[3].Float(),
			Close:     fields[4].Float(),
		}
		if len(fields) > 5 {
			bar.Volume = fields[5].Float()
		}
		return bar, nil
	}

	if !item.IsObject() {
		return series.Bar{}, fmt.Errorf("bar must be an object or kline array")
	}
	ts := item.Get("timestamp")
	if !ts.Exists() {
		ts = item.Get("time")
	}
	if !ts.Exists() {
		return series.Bar{}, fmt.Errorf("missing timestamp")
	}
	millis := ts.Int()
	if millis < 1_000_000_000_000 {
		millis *= 1000
	}
	return series.Bar{
		Timestamp: millis,
		Open:      item.Get("open").Float(),
		High:      item.Get("high").Float(),
		Low:       item.Get("low").Float(),
		Close:     item.Get("close").Float(),
		Volume:    item.Get("volume").Float(),
	}, nil
}
