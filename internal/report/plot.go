// Package report renders recorded PR-SGD convergence histories for human
// consumption: an HTML line chart and a plain-text summary.
package report

import (
	"fmt"
	"io"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

// RenderChart writes an HTML page with one line chart per history (loss
// value and gradient norm over rounds) to w.
func RenderChart(w io.Writer, title string, lossHistory, gradNormHistory []float64) error {
	if len(lossHistory) == 0 {
		return fmt.Errorf("loss history is empty")
	}
	if len(lossHistory) != len(gradNormHistory) {
		return fmt.Errorf("history length mismatch: %d loss values, %d gradient norms",
			len(lossHistory), len(gradNormHistory))
	}

	page := components.NewPage()
	page.AddCharts(
		historyLine(fmt.Sprintf("%s: monitoring loss", title), "f(x)", lossHistory),
		historyLine(fmt.Sprintf("%s: gradient norm", title), "|∇f(x)|", gradNormHistory),
	)

	if err := page.Render(w); err != nil {
		return fmt.Errorf("failed to render chart page: %w", err)
	}
	return nil
}

// WriteChartFile renders the chart page into an HTML file at path.
func WriteChartFile(path, title string, lossHistory, gradNormHistory []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	defer f.Close()

	return RenderChart(f, title, lossHistory, gradNormHistory)
}

// historyLine builds one round-indexed line chart for a scalar history.
func historyLine(title, yName string, history []float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title: title,
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithInitializationOpts(opts.Initialization{
			Theme: types.ThemeWesteros,
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: "round",
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: yName,
			SplitLine: &opts.SplitLine{
				Show: opts.Bool(true),
			},
		}),
	)

	rounds := make([]int, len(history))
	values := make([]opts.LineData, len(history))
	for i, v := range history {
		rounds[i] = i + 1
		values[i] = opts.LineData{Value: v}
	}

	line.SetXAxis(rounds).
		AddSeries(yName, values).
		SetSeriesOptions(
			charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(false)}),
		)

	return line
}
