package backtest

import (
	"fmt"

	"newsedge/internal/market"
	"newsedge/internal/pkg/nullable"
)

// ExitReason 标记平仓原因，单笔交易有且只有一个。
type ExitReason string

const (
	ExitProfitTarget ExitReason = "profit_target"
	ExitStopLoss     ExitReason = "stop_loss"
	ExitTimeLimit    ExitReason = "time_limit"
)

// Params 是策略回测参数。构造流水线时先 Validate，矛盾参数立即失败，
// 不会带病跑数据。
type Params struct {
	EntryThreshold     float64 `json:"entry_threshold"`
	ProfitTarget       float64 `json:"profit_target"`
	StopLoss           float64 `json:"stop_loss"`
	MaxHoldDays        int     `json:"max_hold_days"`
	RiskFreeRate       float64 `json:"risk_free_rate"`
	TradingDaysPerYear int     `json:"trading_days_per_year"`

	// 可选的技术面入场闸门
	RequireTrend bool    `json:"require_trend"`  // 要求 close > SMA20
	MaxEntryRSI  float64 `json:"max_entry_rsi"`  // >0 时要求 RSI14 低于该值
}

// Validate 检查参数自洽性。
func (p Params) Validate() error {
	if p.ProfitTarget <= 0 {
		return fmt.Errorf("backtest: profit_target 必须 > 0，得到 %v", p.ProfitTarget)
	}
	if p.StopLoss <= 0 {
		return fmt.Errorf("backtest: stop_loss 必须 > 0，得到 %v", p.StopLoss)
	}
	if p.MaxHoldDays <= 0 {
		return fmt.Errorf("backtest: max_hold_days 必须 > 0，得到 %d", p.MaxHoldDays)
	}
	if p.RiskFreeRate < 0 {
		return fmt.Errorf("backtest: risk_free_rate 必须 >= 0，得到 %v", p.RiskFreeRate)
	}
	if p.TradingDaysPerYear < 0 {
		return fmt.Errorf("backtest: trading_days_per_year 必须 >= 0，得到 %d", p.TradingDaysPerYear)
	}
	if p.MaxEntryRSI < 0 || p.MaxEntryRSI > 100 {
		return fmt.Errorf("backtest: max_entry_rsi 必须在 [0,100]，得到 %v", p.MaxEntryRSI)
	}
	return nil
}

func (p Params) normalized() Params {
	if p.TradingDaysPerYear == 0 {
		p.TradingDaysPerYear = 252
	}
	return p
}

// Trade 是一笔已平仓的交易，平仓后不可变。
// TargetPrice/StopPrice 是入场时按参数推出的精确触发价位。
type Trade struct {
	Instrument  string     `json:"instrument"`
	EntryDay    market.Day `json:"entry_day"`
	EntryPrice  float64    `json:"entry_price"`
	ExitDay     market.Day `json:"exit_day"`
	ExitPrice   float64    `json:"exit_price"`
	TargetPrice float64    `json:"target_price"`
	StopPrice   float64    `json:"stop_price"`
	ExitReason  ExitReason `json:"exit_reason"`
	ReturnPct   float64    `json:"return_pct"`
	HoldDays    int        `json:"hold_days"`
}

// Metrics 是一组风险调整后的绩效指标。除不尽/样本退化的指标为 null，
// 不会静默输出 0 或 NaN。
type Metrics struct {
	TotalReturn      nullable.Float `json:"total_return"`
	WinRate          nullable.Float `json:"win_rate"`
	Sharpe           nullable.Float `json:"sharpe_ratio"`
	Sortino          nullable.Float `json:"sortino_ratio"`
	Calmar           nullable.Float `json:"calmar_ratio"`
	MaxDrawdown      nullable.Float `json:"max_drawdown"`
	ProfitFactor     nullable.Float `json:"profit_factor"`
	AnnualizedReturn nullable.Float `json:"annualized_return"`
	AnnualizedVol    nullable.Float `json:"annualized_volatility"`
}

func undefinedMetrics() Metrics {
	return Metrics{
		TotalReturn:      nullable.Undefined(),
		WinRate:          nullable.Undefined(),
		Sharpe:           nullable.Undefined(),
		Sortino:          nullable.Undefined(),
		Calmar:           nullable.Undefined(),
		MaxDrawdown:      nullable.Undefined(),
		ProfitFactor:     nullable.Undefined(),
		AnnualizedReturn: nullable.Undefined(),
		AnnualizedVol:    nullable.Undefined(),
	}
}

// Result 汇总单个 instrument 的回测输出，附带同区间买入持有基准。
type Result struct {
	Instrument string     `json:"instrument"`
	Lag        int        `json:"lag"`
	StartDay   market.Day `json:"start_day"`
	EndDay     market.Day `json:"end_day"`
	NumTrades  int        `json:"num_trades"`
	Wins       int        `json:"wins"`
	Losses     int        `json:"losses"`
	Trades     []Trade    `json:"trades"`
	Strategy   Metrics    `json:"strategy"`
	Benchmark  Metrics    `json:"benchmark"`
}
