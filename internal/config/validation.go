package config

import (
	"fmt"
	"strings"
	"time"
)

// validate 对配置进行基础校验。
func validate(c *Config) error {
	if err := c.Data.validate(); err != nil {
		return err
	}
	if err := c.Sentiment.validate(); err != nil {
		return err
	}
	if err := c.Analysis.validate(); err != nil {
		return err
	}
	if err := c.Backtest.validate(); err != nil {
		return err
	}
	return nil
}

func (d *DataConfig) validate() error {
	if strings.TrimSpace(d.BarsDir) == "" {
		return fmt.Errorf("data.bars_dir is required")
	}
	if strings.TrimSpace(d.NewsPath) == "" {
		return fmt.Errorf("data.news_path is required")
	}
	if len(d.Instruments) == 0 {
		return fmt.Errorf("data.instruments requires at least one symbol")
	}
	seen := make(map[string]struct{}, len(d.Instruments))
	for i, sym := range d.Instruments {
		sym = strings.ToUpper(strings.TrimSpace(sym))
		if sym == "" {
			return fmt.Errorf("data.instruments contains empty symbol at index %d", i)
		}
		if _, ok := seen[sym]; ok {
			return fmt.Errorf("data.instruments contains duplicate symbol: %s", sym)
		}
		seen[sym] = struct{}{}
		d.Instruments[i] = sym
	}
	return nil
}

func (s *SentimentConfig) validate() error {
	if strings.TrimSpace(s.LexiconPath) == "" {
		return fmt.Errorf("sentiment.lexicon_path is required")
	}
	if s.PositiveThreshold < -1 || s.PositiveThreshold > 1 {
		return fmt.Errorf("sentiment.positive_threshold must be in [-1,1], got %v", s.PositiveThreshold)
	}
	if _, err := time.LoadLocation(s.Timezone); err != nil {
		return fmt.Errorf("sentiment.timezone is not a valid IANA zone: %w", err)
	}
	return nil
}

func (a *AnalysisConfig) validate() error {
	seen := make(map[int]struct{}, len(a.Lags))
	for _, lag := range a.Lags {
		if lag < 0 {
			return fmt.Errorf("analysis.lags must be >= 0, got %d", lag)
		}
		if _, ok := seen[lag]; ok {
			return fmt.Errorf("analysis.lags contains duplicate lag: %d", lag)
		}
		seen[lag] = struct{}{}
	}
	return nil
}

func (b *BacktestConfig) validate() error {
	if b.Lag < 0 {
		return fmt.Errorf("backtest.lag must be >= 0, got %d", b.Lag)
	}
	if b.ProfitTarget <= 0 {
		return fmt.Errorf("backtest.profit_target must be > 0, got %v", b.ProfitTarget)
	}
	if b.StopLoss <= 0 {
		return fmt.Errorf("backtest.stop_loss must be > 0, got %v", b.StopLoss)
	}
	if b.MaxHoldDays <= 0 {
		return fmt.Errorf("backtest.max_hold_days must be > 0, got %d", b.MaxHoldDays)
	}
	if b.RiskFreeRate < 0 {
		return fmt.Errorf("backtest.risk_free_rate must be >= 0, got %v", b.RiskFreeRate)
	}
	if b.TradingDaysPerYear <= 0 {
		return fmt.Errorf("backtest.trading_days_per_year must be > 0, got %d", b.TradingDaysPerYear)
	}
	if b.MaxEntryRSI < 0 || b.MaxEntryRSI > 100 {
		return fmt.Errorf("backtest.max_entry_rsi must be in [0,100], got %v", b.MaxEntryRSI)
	}
	return nil
}
