package main

import (
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// writeChart renders a bar chart of outcomes per matchup as a standalone HTML page.
func writeChart(path string, results []matchResult) error {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "arena results",
			Subtitle: "outcomes per x:o matchup",
		}),
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "tic-tac-toe arena",
			Theme:     "shine",
		}),
	)

	labels := make([]string, 0, len(results))
	xWins := make([]opts.BarData, 0, len(results))
	oWins := make([]opts.BarData, 0, len(results))
	draws := make([]opts.BarData, 0, len(results))
	for _, r := range results {
		labels = append(labels, r.Matchup.String())
		xWins = append(xWins, opts.BarData{Value: r.XWins})
		oWins = append(oWins, opts.BarData{Value: r.OWins})
		draws = append(draws, opts.BarData{Value: r.Draws})
	}
	bar.SetXAxis(labels).
		AddSeries("x wins", xWins).
		AddSeries("o wins", oWins).
		AddSeries("draws", draws)

	page := components.NewPage()
	page.AddCharts(bar)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return page.Render(f)
}
