// Package report 把一次 run 的产出渲染为独立 HTML 报告（go-echarts）。
// 每个 instrument 一页：滞后相关性、情感/收益对照、逐笔收益与权益曲线。
package report

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"newsedge/internal/backtest"
	"newsedge/internal/pipeline"
)

const (
	colorBull     = "#34d399"
	colorBear     = "#f87171"
	colorPearson  = "#3b82f6"
	colorSpearman = "#fbbf24"
	colorPolarity = "#22d3ee"
	colorReturn   = "#f472b6"
	colorEquity   = "#a78bfa"

	chartWidthPx  = 1200
	chartHeightPx = 420
)

type Generator struct {
	outDir string
}

func NewGenerator(outDir string) (*Generator, error) {
	if strings.TrimSpace(outDir) == "" {
		return nil, fmt.Errorf("report: 输出目录不能为空")
	}
	return &Generator{outDir: outDir}, nil
}

var _ pipeline.Reporter = (*Generator)(nil)

// Render 为 run 内每个未跳过的 instrument 各生成一份 HTML。
func (g *Generator) Render(runID string, rep pipeline.Report) error {
	dir := filepath.Join(g.outDir, runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, ir := range rep.Instruments {
		if ir.Skipped {
			continue
		}
		page := components.NewPage()
		page.SetLayout(components.PageFlexLayout)
		page.AddCharts(
			g.lagCorrelationChart(ir),
			g.sentimentReturnChart(ir),
			g.tradeChart(ir),
		)
		path := filepath.Join(dir, strings.ToLower(ir.Instrument)+".html")
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := page.Render(f); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}

func chartInit(height int) opts.Initialization {
	return opts.Initialization{
		Theme:  types.ThemeWesteros,
		Width:  fmt.Sprintf("%dpx", chartWidthPx),
		Height: fmt.Sprintf("%dpx", height),
	}
}

// lagCorrelationChart 画每个 lag 的 Pearson/Spearman 相关系数。
func (g *Generator) lagCorrelationChart(ir pipeline.InstrumentReport) components.Charter {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(chartInit(chartHeightPx)),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("%s 情感-收益相关性", strings.ToUpper(ir.Instrument)),
			Subtitle: "按 lag（交易日）",
			Left:     "left",
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
	)
	x := make([]string, 0, len(ir.Correlations))
	pearson := make([]opts.BarData, 0, len(ir.Correlations))
	spearman := make([]opts.BarData, 0, len(ir.Correlations))
	for _, c := range ir.Correlations {
		label := fmt.Sprintf("lag %d", c.LagDays)
		if c.Unreliable {
			label += " *"
		}
		x = append(x, label)
		pearson = append(pearson, barValue(c.PearsonR.Value(), colorPearson))
		spearman = append(spearman, barValue(c.SpearmanR.Value(), colorSpearman))
	}
	bar.SetXAxis(x)
	bar.AddSeries("Pearson r", pearson)
	bar.AddSeries("Spearman ρ", spearman)
	return bar
}

// sentimentReturnChart 把对齐后的日度情感均值与目标日收益画在同一轴上。
func (g *Generator) sentimentReturnChart(ir pipeline.InstrumentReport) components.Charter {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(chartInit(chartHeightPx)),
		charts.WithTitleOpts(opts.Title{
			Title: fmt.Sprintf("%s 情感均值 vs 日收益（回测 lag）", strings.ToUpper(ir.Instrument)),
			Left:  "left",
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", XAxisIndex: []int{0}}),
	)
	aligned := ir.Aligned[ir.Backtest.Lag]
	x := make([]string, 0, len(aligned.Records))
	polarity := make([]opts.LineData, 0, len(aligned.Records))
	returns := make([]opts.LineData, 0, len(aligned.Records))
	for _, rec := range aligned.Records {
		x = append(x, rec.ReturnDay.String())
		polarity = append(polarity, opts.LineData{Value: round(rec.MeanPolarity, 4)})
		returns = append(returns, opts.LineData{Value: round(rec.DailyReturn, 4)})
	}
	line.SetXAxis(x)
	line.AddSeries("mean polarity", polarity,
		charts.WithLineStyleOpts(opts.LineStyle{Color: colorPolarity, Width: 2}),
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))
	line.AddSeries("daily return", returns,
		charts.WithLineStyleOpts(opts.LineStyle{Color: colorReturn, Width: 2}),
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))
	return line
}

// tradeChart 画逐笔收益柱 + 按平仓序复利的权益曲线。
func (g *Generator) tradeChart(ir pipeline.InstrumentReport) components.Charter {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(chartInit(chartHeightPx)),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("%s 回测交易", strings.ToUpper(ir.Instrument)),
			Subtitle: tradeSubtitle(ir.Backtest),
			Left:     "left",
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
	)
	trades := ir.Backtest.Trades
	x := make([]string, 0, len(trades))
	returns := make([]opts.BarData, 0, len(trades))
	equity := make([]opts.LineData, 0, len(trades))
	eq := 1.0
	for _, t := range trades {
		x = append(x, t.ExitDay.String())
		color := colorBear
		if t.ReturnPct >= 0 {
			color = colorBull
		}
		returns = append(returns, opts.BarData{
			Value:     round(t.ReturnPct*100, 2),
			ItemStyle: &opts.ItemStyle{Color: color},
		})
		eq *= 1 + t.ReturnPct
		equity = append(equity, opts.LineData{Value: round(eq, 4)})
	}
	bar.SetXAxis(x)
	bar.AddSeries("trade return %", returns)

	line := charts.NewLine()
	line.SetXAxis(x)
	line.AddSeries("equity", equity,
		charts.WithLineStyleOpts(opts.LineStyle{Color: colorEquity, Width: 2}),
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))
	bar.Overlap(line)
	return bar
}

func tradeSubtitle(res backtest.Result) string {
	parts := []string{fmt.Sprintf("trades=%d", res.NumTrades)}
	if res.Strategy.TotalReturn.Defined() {
		parts = append(parts, fmt.Sprintf("total=%.2f%%", res.Strategy.TotalReturn.Value()*100))
	}
	if res.Strategy.WinRate.Defined() {
		parts = append(parts, fmt.Sprintf("win=%.0f%%", res.Strategy.WinRate.Value()*100))
	}
	if res.Strategy.Sharpe.Defined() {
		parts = append(parts, fmt.Sprintf("sharpe=%.2f", res.Strategy.Sharpe.Value()))
	}
	return strings.Join(parts, " | ")
}

func barValue(v float64, color string) opts.BarData {
	if math.IsNaN(v) {
		return opts.BarData{Value: nil}
	}
	return opts.BarData{
		Value:     round(v, 4),
		ItemStyle: &opts.ItemStyle{Color: color},
	}
}

func round(val float64, decimals int) float64 {
	scale := math.Pow10(decimals)
	return math.Round(val*scale) / scale
}
