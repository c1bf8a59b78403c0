package backtest

import (
	"math"

	"newsedge/internal/pkg/nullable"
)

// strategyMetrics 聚合已平仓交易与日度策略收益。
// 总收益 = 各笔交易收益的复利乘积；夏普/索提诺在日收益上年化（×√N）。
func strategyMetrics(trades []Trade, dailyReturns []float64, params Params) Metrics {
	m := undefinedMetrics()
	if len(trades) > 0 {
		compounded := 1.0
		wins := 0
		for _, t := range trades {
			compounded *= 1 + t.ReturnPct
			if t.ReturnPct > 0 {
				wins++
			}
		}
		m.TotalReturn = nullable.Of(compounded - 1)
		m.WinRate = nullable.Of(float64(wins) / float64(len(trades)))
	}
	fillRatios(&m, dailyReturns, params)
	return m
}

// benchmarkMetrics 对同区间"首日收盘买入、末日收盘持有"的基准计算同口径指标。
// 基准没有交易概念，WinRate 记为正收益交易日占比。
func benchmarkMetrics(firstClose, lastClose float64, dailyReturns []float64, params Params) Metrics {
	m := undefinedMetrics()
	if firstClose > 0 {
		m.TotalReturn = nullable.Of(lastClose/firstClose - 1)
	}
	if len(dailyReturns) > 0 {
		up := 0
		for _, r := range dailyReturns {
			if r > 0 {
				up++
			}
		}
		m.WinRate = nullable.Of(float64(up) / float64(len(dailyReturns)))
	}
	fillRatios(&m, dailyReturns, params)
	return m
}

// fillRatios 在日收益序列上计算风险调整指标。
// 约定：总体标准差（分母 N）；日度无风险收益由年化利率折算；
// 分母为零的比率保持未定义，不吞 NaN。
func fillRatios(m *Metrics, dailyReturns []float64, params Params) {
	n := len(dailyReturns)
	if n == 0 {
		return
	}
	days := float64(params.TradingDaysPerYear)
	annualizer := math.Sqrt(days)
	dailyRF := math.Pow(1+params.RiskFreeRate, 1/days) - 1

	mean := meanOf(dailyReturns)
	std := popStd(dailyReturns, mean)

	m.AnnualizedReturn = nullable.Of(math.Pow(1+mean, days) - 1)
	m.AnnualizedVol = nullable.Of(std * annualizer)

	if std > 0 {
		m.Sharpe = nullable.Of((mean - dailyRF) / std * annualizer)
	}

	var downside []float64
	for _, r := range dailyReturns {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	if len(downside) > 0 {
		dStd := popStd(downside, meanOf(downside))
		if dStd > 0 {
			m.Sortino = nullable.Of((mean - dailyRF) / dStd * annualizer)
		}
	}

	m.MaxDrawdown = nullable.Of(maxDrawdown(dailyReturns))
	if dd := m.MaxDrawdown.Value(); dd < 0 {
		m.Calmar = nullable.Of(m.AnnualizedReturn.Value() / math.Abs(dd))
	}

	gains, losses := 0.0, 0.0
	for _, r := range dailyReturns {
		if r > 0 {
			gains += r
		} else if r < 0 {
			losses -= r
		}
	}
	if losses > 0 {
		m.ProfitFactor = nullable.Of(gains / losses)
	}
}

// maxDrawdown 返回权益曲线相对历史峰值的最大回撤（≤0 的小数）。
func maxDrawdown(dailyReturns []float64) float64 {
	equity, peak := 1.0, 1.0
	worst := 0.0
	for _, r := range dailyReturns {
		equity *= 1 + r
		if equity > peak {
			peak = equity
		}
		if dd := equity/peak - 1; dd < worst {
			worst = dd
		}
	}
	return worst
}

func meanOf(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func popStd(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum2 := 0.0
	for _, v := range values {
		d := v - mean
		sum2 += d * d
	}
	return math.Sqrt(sum2 / float64(len(values)))
}
