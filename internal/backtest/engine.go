package backtest

import (
	"fmt"

	"github.com/shopspring/decimal"

	"newsedge/internal/analysis/align"
	"newsedge/internal/analysis/indicator"
	"newsedge/internal/market"
)

// position 是一笔在持多头的内部状态。
type position struct {
	entryIdx    int
	entryPrice  float64
	targetPrice float64
	stopPrice   float64
}

// Run 按固定规则在对齐样本上推演 FLAT→LONG→FLAT 状态机。
//
// 迭代沿 instrument 的完整交易日序列进行：入场只在"当天存在对齐情感记录
// 且 mean_polarity ≥ entry_threshold（外加可选技术闸门）"时发生，持仓中的
// 离场检查则每个交易日都做。离场优先级固定：profit_target → stop_loss →
// time_limit，同一根 K 线同时满足多个条件时取最先命中的原因。持仓期间
// 忽略新的入场信号（不加仓）；平仓当日不重新入场。数据走完仍在持仓时
// 按最后一根收盘强制以 time_limit 平仓。
//
// 空对齐输入返回 NumTrades=0、全部指标未定义的结果，不是错误。
func Run(aligned align.Result, series *indicator.Series, params Params) (Result, error) {
	if err := params.Validate(); err != nil {
		return Result{}, err
	}
	params = params.normalized()
	res := Result{
		Instrument: series.Instrument,
		Lag:        aligned.Lag,
		Strategy:   undefinedMetrics(),
		Benchmark:  undefinedMetrics(),
	}
	if len(aligned.Records) == 0 {
		return res, nil
	}
	if aligned.Instrument != series.Instrument {
		return Result{}, fmt.Errorf("backtest: instrument 不一致 (%s != %s)", aligned.Instrument, series.Instrument)
	}

	signals := make(map[market.Day]align.Record, len(aligned.Records))
	for _, r := range aligned.Records {
		signals[r.ReturnDay] = r
	}
	startIdx, ok := series.IndexOf(aligned.Records[0].ReturnDay)
	if !ok {
		return Result{}, fmt.Errorf("backtest: 起始日 %s 不在指标序列内", aligned.Records[0].ReturnDay)
	}
	endIdx, ok := series.IndexOf(aligned.Records[len(aligned.Records)-1].ReturnDay)
	if !ok {
		return Result{}, fmt.Errorf("backtest: 结束日 %s 不在指标序列内", aligned.Records[len(aligned.Records)-1].ReturnDay)
	}
	res.StartDay = series.Days[startIdx]
	res.EndDay = series.Days[endIdx]

	var pos *position
	// 策略日收益：入场当日记 0（收盘成交），持仓期间逐日按标的收益盯市。
	strategyReturns := make([]float64, 0, endIdx-startIdx)
	benchmarkReturns := make([]float64, 0, endIdx-startIdx)

	for i := startIdx; i <= endIdx; i++ {
		if i > startIdx {
			dayRet, ok := series.ReturnOn(series.Days[i])
			if !ok {
				return Result{}, fmt.Errorf("backtest: %s 缺少日收益", series.Days[i])
			}
			benchmarkReturns = append(benchmarkReturns, dayRet)
			if pos != nil {
				strategyReturns = append(strategyReturns, dayRet)
			} else {
				strategyReturns = append(strategyReturns, 0)
			}
		}

		closedToday := false
		if pos != nil && i > pos.entryIdx {
			ret := (series.Close[i] - pos.entryPrice) / pos.entryPrice
			holdDays := i - pos.entryIdx
			var reason ExitReason
			switch {
			case ret >= params.ProfitTarget:
				reason = ExitProfitTarget
			case ret <= -params.StopLoss:
				reason = ExitStopLoss
			case holdDays >= params.MaxHoldDays:
				reason = ExitTimeLimit
			case i == endIdx:
				// 数据尽头强制离场，避免悬挂仓位
				reason = ExitTimeLimit
			}
			if reason != "" {
				res.Trades = append(res.Trades, closeTrade(series, pos, i, reason))
				pos = nil
				closedToday = true
			}
		}

		if pos == nil && !closedToday && i < endIdx {
			if rec, ok := signals[series.Days[i]]; ok && entryAllowed(rec, series, i, params) {
				pos = openPosition(series, i, params)
			}
		}
	}

	res.NumTrades = len(res.Trades)
	for _, t := range res.Trades {
		if t.ReturnPct > 0 {
			res.Wins++
		} else {
			res.Losses++
		}
	}
	res.Strategy = strategyMetrics(res.Trades, strategyReturns, params)
	res.Benchmark = benchmarkMetrics(series.Close[startIdx], series.Close[endIdx], benchmarkReturns, params)
	return res, nil
}

// entryAllowed 判断入场谓词：情感阈值 + 可选技术闸门。
// 闸门引用的指标在当天缺失时按"不满足"处理，不会用残缺窗口凑数。
func entryAllowed(rec align.Record, series *indicator.Series, i int, params Params) bool {
	if rec.MeanPolarity < params.EntryThreshold {
		return false
	}
	if params.RequireTrend {
		sma := series.SMA20[i]
		if !indicator.Defined(sma) || series.Close[i] <= sma {
			return false
		}
	}
	if params.MaxEntryRSI > 0 {
		rsi := series.RSI14[i]
		if !indicator.Defined(rsi) || rsi >= params.MaxEntryRSI {
			return false
		}
	}
	return true
}

func openPosition(series *indicator.Series, i int, params Params) *position {
	entry := series.Close[i]
	entryDec := decimal.NewFromFloat(entry)
	target := entryDec.Mul(decimal.NewFromFloat(1 + params.ProfitTarget))
	stop := entryDec.Mul(decimal.NewFromFloat(1 - params.StopLoss))
	return &position{
		entryIdx:    i,
		entryPrice:  entry,
		targetPrice: target.InexactFloat64(),
		stopPrice:   stop.InexactFloat64(),
	}
}

func closeTrade(series *indicator.Series, pos *position, exitIdx int, reason ExitReason) Trade {
	exit := series.Close[exitIdx]
	return Trade{
		Instrument:  series.Instrument,
		EntryDay:    series.Days[pos.entryIdx],
		EntryPrice:  pos.entryPrice,
		ExitDay:     series.Days[exitIdx],
		ExitPrice:   exit,
		TargetPrice: pos.targetPrice,
		StopPrice:   pos.stopPrice,
		ExitReason:  reason,
		ReturnPct:   (exit - pos.entryPrice) / pos.entryPrice,
		HoldDays:    exitIdx - pos.entryIdx,
	}
}
