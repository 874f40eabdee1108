// Package report renders run results as console tables (go-pretty),
// interactive HTML pages (go-echarts), and PNG snapshots of those
// pages (headless chrome via chromedp).
package report

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"strata/internal/engine"
	"strata/internal/logger"
	"strata/internal/robust"
	"strata/internal/stats"
)

// Report bundles everything one render pass may include. Only Result
// and Stats are required; the analyzer sections render when present.
type Report struct {
	Result *engine.Result
	Stats  stats.Statistics

	MonteCarlo  *robust.MonteCarloResult
	WalkForward *robust.WalkForwardResult
	Sensitivity *robust.HeatmapResult
	Stress      *robust.StressReport
}

// Summary renders the console tables as one block.
func (r *Report) Summary() string {
	sections := []string{
		StatisticsTable(r.Result, r.Stats),
		TradesTable(r.Result.Trades, 20),
	}
	if r.MonteCarlo != nil {
		sections = append(sections, MonteCarloTable(*r.MonteCarlo))
	}
	if r.WalkForward != nil {
		sections = append(sections, WalkForwardTable(r.WalkForward))
	}
	if r.Stress != nil {
		sections = append(sections, StressTable(r.Stress))
	}
	return strings.Join(sections, "\n\n")
}

// Log writes the summary through the structured logger, one line per
// record.
func (r *Report) Log() {
	logger.InfoBlock(r.Summary())
}

// WriteHTML renders the chart page to path, creating parent
// directories as needed.
func (r *Report) WriteHTML(path string) error {
	html, err := r.HTML()
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, html, 0o644)
}

// WritePNG screenshots the chart page with headless chrome.
func (r *Report) WritePNG(ctx context.Context, path string) error {
	html, err := r.HTML()
	if err != nil {
		return err
	}
	png, err := renderHTMLToPNG(ctx, html, chartWidthPx, pageHeightPx(r))
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, png, 0o644)
}

func pageHeightPx(r *Report) int {
	height := chartHeightPx * 2
	if r.MonteCarlo != nil {
		height += chartHeightPx
	}
	if r.Sensitivity != nil {
		height += chartHeightPx
	}
	if height < 520 {
		height = 520
	}
	return height
}
