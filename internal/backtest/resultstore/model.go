package resultstore

import (
	"gorm.io/datatypes"
)

type runModel struct {
	ID              string         `gorm:"column:id;primaryKey"`
	Status          string         `gorm:"column:status;index"`
	Message         string         `gorm:"column:message"`
	Instruments     string         `gorm:"column:instruments"`
	ConfigJSON      datatypes.JSON `gorm:"column:config_json"`
	CreatedAtUnix   int64          `gorm:"column:created_at;index"`
	UpdatedAtUnix   int64          `gorm:"column:updated_at"`
	CompletedAtUnix *int64         `gorm:"column:completed_at"`
}

func (runModel) TableName() string { return "analysis_runs" }

type correlationModel struct {
	ID         int64    `gorm:"column:id;primaryKey"`
	RunID      string   `gorm:"column:run_id;index"`
	Instrument string   `gorm:"column:instrument;index"`
	LagDays    int      `gorm:"column:lag_days"`
	Samples    int      `gorm:"column:n_samples"`
	PearsonR   *float64 `gorm:"column:pearson_r"`
	PearsonP   *float64 `gorm:"column:pearson_p"`
	SpearmanR  *float64 `gorm:"column:spearman_r"`
	SpearmanP  *float64 `gorm:"column:spearman_p"`
	Unreliable bool     `gorm:"column:unreliable"`
}

func (correlationModel) TableName() string { return "run_correlations" }

type backtestModel struct {
	ID            int64          `gorm:"column:id;primaryKey"`
	RunID         string         `gorm:"column:run_id;index"`
	Instrument    string         `gorm:"column:instrument;index"`
	Lag           int            `gorm:"column:lag"`
	StartDay      int64          `gorm:"column:start_day"`
	EndDay        int64          `gorm:"column:end_day"`
	NumTrades     int            `gorm:"column:num_trades"`
	Wins          int            `gorm:"column:wins"`
	Losses        int            `gorm:"column:losses"`
	StrategyJSON  datatypes.JSON `gorm:"column:strategy_json"`
	BenchmarkJSON datatypes.JSON `gorm:"column:benchmark_json"`
}

func (backtestModel) TableName() string { return "run_backtests" }

type tradeModel struct {
	ID          int64   `gorm:"column:id;primaryKey"`
	RunID       string  `gorm:"column:run_id;index"`
	Instrument  string  `gorm:"column:instrument;index"`
	Lag         int     `gorm:"column:lag"`
	EntryDay    int64   `gorm:"column:entry_day"`
	EntryPrice  float64 `gorm:"column:entry_price"`
	ExitDay     int64   `gorm:"column:exit_day"`
	ExitPrice   float64 `gorm:"column:exit_price"`
	TargetPrice float64 `gorm:"column:target_price"`
	StopPrice   float64 `gorm:"column:stop_price"`
	ExitReason  string  `gorm:"column:exit_reason"`
	ReturnPct   float64 `gorm:"column:return_pct"`
	HoldDays    int     `gorm:"column:hold_days"`
}

func (tradeModel) TableName() string { return "run_trades" }
