package config

import (
	"strings"

	"github.com/spf13/viper"
)

// 默认值常量
const (
	defaultAppEnv             = "dev"
	defaultAppLogLevel        = "info"
	defaultAppLogPath         = "data/logs/newsedge.log"
	defaultAppHTTPAddr        = ":9992"
	defaultBarCacheDir        = "data/db"
	defaultResultsPath        = "data/db/runs.db"
	defaultPositiveThreshold  = 0.1
	defaultTimezone           = "America/New_York"
	defaultBacktestLag        = 1
	defaultEntryThreshold     = 0.1
	defaultProfitTarget       = 0.05
	defaultStopLoss           = 0.03
	defaultMaxHoldDays        = 10
	defaultTradingDaysPerYear = 252
	defaultMaxConcurrent      = 4
	defaultReportDir          = "data/reports"
)

var defaultLags = []int{0, 1, 2, 3, 5}

// applyDefaults 为所有子配置应用默认值。零值有业务含义的字段
// （如 entry_threshold=0）用 viper.IsSet 区分"没写"与"显式写零"。
func (c *Config) applyDefaults(v *viper.Viper) {
	applyFieldDefaults(v,
		stringFieldDefault("app.env", &c.App.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &c.App.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.log_path", &c.App.LogPath, defaultAppLogPath),
		stringFieldDefault("app.http_addr", &c.App.HTTPAddr, defaultAppHTTPAddr),
		stringFieldDefault("data.bar_cache_dir", &c.Data.BarCacheDir, defaultBarCacheDir),
		stringFieldDefault("data.results_path", &c.Data.ResultsPath, defaultResultsPath),
		stringFieldDefault("sentiment.timezone", &c.Sentiment.Timezone, defaultTimezone),
		stringFieldDefault("report.output_dir", &c.Report.OutputDir, defaultReportDir),
		fieldDefault{
			key:   "sentiment.positive_threshold",
			apply: func() { c.Sentiment.PositiveThreshold = defaultPositiveThreshold },
		},
		fieldDefault{
			key:   "analysis.lags",
			need:  func() bool { return len(c.Analysis.Lags) == 0 },
			apply: func() { c.Analysis.Lags = append([]int(nil), defaultLags...) },
		},
		fieldDefault{
			key:   "backtest.lag",
			apply: func() { c.Backtest.Lag = defaultBacktestLag },
		},
		fieldDefault{
			key:   "backtest.entry_threshold",
			apply: func() { c.Backtest.EntryThreshold = defaultEntryThreshold },
		},
		fieldDefault{
			key:   "backtest.profit_target",
			need:  func() bool { return c.Backtest.ProfitTarget == 0 },
			apply: func() { c.Backtest.ProfitTarget = defaultProfitTarget },
		},
		fieldDefault{
			key:   "backtest.stop_loss",
			need:  func() bool { return c.Backtest.StopLoss == 0 },
			apply: func() { c.Backtest.StopLoss = defaultStopLoss },
		},
		fieldDefault{
			key:   "backtest.max_hold_days",
			need:  func() bool { return c.Backtest.MaxHoldDays == 0 },
			apply: func() { c.Backtest.MaxHoldDays = defaultMaxHoldDays },
		},
		fieldDefault{
			key:   "backtest.trading_days_per_year",
			need:  func() bool { return c.Backtest.TradingDaysPerYear == 0 },
			apply: func() { c.Backtest.TradingDaysPerYear = defaultTradingDaysPerYear },
		},
		fieldDefault{
			key:   "pipeline.max_concurrent",
			need:  func() bool { return c.Pipeline.MaxConcurrent <= 0 },
			apply: func() { c.Pipeline.MaxConcurrent = defaultMaxConcurrent },
		},
	)
}

func applyFieldDefaults(v *viper.Viper, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && v.IsSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && strings.TrimSpace(*target) == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}
