package config

// Config 是 newsedge 的主配置载体。
type Config struct {
	App       AppConfig       `toml:"app"`
	Data      DataConfig      `toml:"data"`
	Sentiment SentimentConfig `toml:"sentiment"`
	Analysis  AnalysisConfig  `toml:"analysis"`
	Backtest  BacktestConfig  `toml:"backtest"`
	Pipeline  PipelineConfig  `toml:"pipeline"`
	Report    ReportConfig    `toml:"report"`
}

type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	LogPath  string `toml:"log_path"`
	HTTPAddr string `toml:"http_addr"`
}

// DataConfig 描述行情与新闻数据的来源和本地缓存位置。
type DataConfig struct {
	BarsDir     string   `toml:"bars_dir"`      // 每个 instrument 一个 <SYMBOL>.csv
	NewsPath    string   `toml:"news_path"`     // headline CSV
	BarCacheDir string   `toml:"bar_cache_dir"` // sqlite 行情缓存目录
	ResultsPath string   `toml:"results_path"`  // sqlite 结果库
	Instruments []string `toml:"instruments"`
}

type SentimentConfig struct {
	LexiconPath       string  `toml:"lexicon_path"`
	PositiveThreshold float64 `toml:"positive_threshold"`
	Timezone          string  `toml:"timezone"`
}

type AnalysisConfig struct {
	Lags []int `toml:"lags"`
}

// BacktestConfig 是策略回测参数，字段与 backtest.Params 一一对应。
type BacktestConfig struct {
	Lag                int     `toml:"lag"`
	EntryThreshold     float64 `toml:"entry_threshold"`
	ProfitTarget       float64 `toml:"profit_target"`
	StopLoss           float64 `toml:"stop_loss"`
	MaxHoldDays        int     `toml:"max_hold_days"`
	RiskFreeRate       float64 `toml:"risk_free_rate"`
	TradingDaysPerYear int     `toml:"trading_days_per_year"`
	RequireTrend       bool    `toml:"require_trend"`
	MaxEntryRSI        float64 `toml:"max_entry_rsi"`
}

type PipelineConfig struct {
	MaxConcurrent int `toml:"max_concurrent"`
}

type ReportConfig struct {
	OutputDir string `toml:"output_dir"`
}

// fieldDefault 描述单个字段的默认值设置规则。
type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}
