package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCSV(t *testing.T) {
	path := writeFile(t, "BTCUSDT_1h.csv", `timestamp,open,high,low,close,volume
1700000000000,100,105,99,104,1000
1700003600000,104,108,103,107,1200
1700007200000,107,109,104,105,900
`)

	data, err := LoadCSV(path)
	require.NoError(t, err)

	assert.Equal(t, "BTCUSDT", data.Symbol())
	assert.Equal(t, "1h", data.Timeframe().Key)
	require.Equal(t, 3, data.Len())
	assert.Equal(t, 104.0, data.Bar(0).Close)
	assert.Equal(t, 1200.0, data.Bar(1).Volume)
	assert.Equal(t, 1, data.Bar(1).Index)
}

func TestLoadCSVHeaderAliasesAndDates(t *testing.T) {
	path := writeFile(t, "spy.csv", `Date,Open,High,Low,Close,Vol
2024-01-02,470,472,469,471,500
2024-01-03,471,474,470,473,600
2024-01-04,473,475,471,472,550
`)

	data, err := LoadCSV(path)
	require.NoError(t, err)

	assert.Equal(t, "SPY", data.Symbol())
	// daily spacing detected from the dates
	assert.Equal(t, "1d", data.Timeframe().Key)
	assert.Equal(t, 471.0, data.Bar(0).Close)
}

func TestLoadCSVMissingColumn(t *testing.T) {
	path := writeFile(t, "bad.csv", "timestamp,open,high,low\n1,2,3,4\n")
	_, err := LoadCSV(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "close")
}

func TestLoadCSVBadValue(t *testing.T) {
	path := writeFile(t, "bad.csv", `timestamp,open,high,low,close
1700000000,100,105,99,oops
`)
	_, err := LoadCSV(path)
	assert.Error(t, err)
}

func TestLoadJSONObjects(t *testing.T) {
	path := writeFile(t, "ETHUSDT_4h.json", `{"bars":[
		{"timestamp":1700000000000,"open":2000,"high":2020,"low":1990,"close":2010,"volume":50},
		{"timestamp":1700014400000,"open":2010,"high":2050,"low":2005,"close":2040,"volume":60}
	]}`)

	data, err := LoadJSON(path)
	require.NoError(t, err)

	assert.Equal(t, "ETHUSDT", data.Symbol())
	assert.Equal(t, "4h", data.Timeframe().Key)
	require.Equal(t, 2, data.Len())
	assert.Equal(t, 2040.0, data.Last().Close)
}

func TestLoadJSONKlineArrays(t *testing.T) {
	path := writeFile(t, "klines.json", `[
		[1700000000000, "100", "105", "99", "104", "1000"],
		[1700003600000, "104", "108", "103", "107", "1200"]
	]`)

	data, err := LoadJSON(path)
	require.NoError(t, err)

	require.Equal(t, 2, data.Len())
	assert.Equal(t, 104.0, data.Bar(0).Close)
	assert.Equal(t, 1000.0, data.Bar(0).Volume)
}

func TestLoadJSONRejectsGarbage(t *testing.T) {
	path := writeFile(t, "bad.json", `{"bars": "nope"}`)
	_, err := LoadJSON(path)
	assert.Error(t, err)

	path = writeFile(t, "invalid.json", `{{{`)
	_, err = LoadJSON(path)
	assert.Error(t, err)
}

func TestLoadDispatch(t *testing.T) {
	_, err := Load("bars.parquet")
	assert.Error(t, err)
}

func TestInferNames(t *testing.T) {
	symbol, tf, ok := inferNames("/data/btcusdt_15m.csv")
	assert.True(t, ok)
	assert.Equal(t, "BTCUSDT", symbol)
	assert.Equal(t, "15m", tf.Key)

	symbol, _, ok = inferNames("prices.csv")
	assert.False(t, ok)
	assert.Equal(t, "PRICES", symbol)
}
