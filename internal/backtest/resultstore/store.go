// Package resultstore 用 Gorm + SQLite 持久化分析 run、相关性结果与回测交易。
package resultstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"newsedge/internal/analysis/correlate"
	"newsedge/internal/backtest"
	"newsedge/internal/market"
	"newsedge/internal/pkg/nullable"
)

const (
	StatusPending = "pending"
	StatusRunning = "running"
	StatusDone    = "done"
	StatusFailed  = "failed"
)

// ErrRunNotFound 表示查询的 run_id 不存在。
var ErrRunNotFound = errors.New("resultstore: run 不存在")

// Run 是一次完整分析的元数据记录。
type Run struct {
	ID          string          `json:"id"`
	Status      string          `json:"status"`
	Message     string          `json:"message,omitempty"`
	Instruments []string        `json:"instruments"`
	Config      json.RawMessage `json:"config,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	CompletedAt time.Time       `json:"completed_at,omitzero"`
}

// Store 管理 analysis_runs / run_correlations / run_backtests / run_trades 表。
type Store struct {
	db *gorm.DB
}

// NewStore 打开（必要时创建）结果库并迁移表结构。
func NewStore(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("resultstore: 数据库路径不能为空")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&runModel{}, &correlationModel{}, &backtestModel{}, &tradeModel{}); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite + WAL：允许少量并发读，写仍然串行。
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetMaxIdleConns(2)
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// CreateRun 写入一条新 run，状态默认 pending。
func (s *Store) CreateRun(ctx context.Context, run Run) error {
	if strings.TrimSpace(run.ID) == "" {
		return fmt.Errorf("resultstore: run id 不能为空")
	}
	if run.Status == "" {
		run.Status = StatusPending
	}
	now := time.Now().UnixMilli()
	model := runModel{
		ID:            run.ID,
		Status:        run.Status,
		Message:       run.Message,
		Instruments:   strings.Join(run.Instruments, ","),
		ConfigJSON:    datatypes.JSON(run.Config),
		CreatedAtUnix: now,
		UpdatedAtUnix: now,
	}
	return s.db.WithContext(ctx).Create(&model).Error
}

// UpdateRunStatus 更新状态与提示；done/failed 时记录完成时间。
func (s *Store) UpdateRunStatus(ctx context.Context, id, status, message string) error {
	now := time.Now().UnixMilli()
	payload := map[string]interface{}{
		"status":     status,
		"message":    message,
		"updated_at": now,
	}
	if status == StatusDone || status == StatusFailed {
		payload["completed_at"] = now
	}
	res := s.db.WithContext(ctx).Model(&runModel{}).Where("id = ?", id).Updates(payload)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRunNotFound
	}
	return nil
}

func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	var model runModel
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Run{}, ErrRunNotFound
		}
		return Run{}, err
	}
	return runModelToRecord(model), nil
}

func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var models []runModel
	if err := s.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]Run, 0, len(models))
	for _, m := range models {
		out = append(out, runModelToRecord(m))
	}
	return out, nil
}

// SaveCorrelations 批量写入一个 run 的相关性结果。
func (s *Store) SaveCorrelations(ctx context.Context, runID string, results []correlate.Result) error {
	if len(results) == 0 {
		return nil
	}
	models := make([]correlationModel, 0, len(results))
	for _, r := range results {
		models = append(models, correlationModel{
			RunID:      runID,
			Instrument: r.Instrument,
			LagDays:    r.LagDays,
			Samples:    r.Samples,
			PearsonR:   floatPtr(r.PearsonR),
			PearsonP:   floatPtr(r.PearsonP),
			SpearmanR:  floatPtr(r.SpearmanR),
			SpearmanP:  floatPtr(r.SpearmanP),
			Unreliable: r.Unreliable,
		})
	}
	return s.db.WithContext(ctx).Create(&models).Error
}

func (s *Store) ListCorrelations(ctx context.Context, runID string) ([]correlate.Result, error) {
	var models []correlationModel
	if err := s.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("instrument ASC, lag_days ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]correlate.Result, 0, len(models))
	for _, m := range models {
		out = append(out, correlate.Result{
			Instrument: m.Instrument,
			LagDays:    m.LagDays,
			Samples:    m.Samples,
			PearsonR:   fromPtr(m.PearsonR),
			PearsonP:   fromPtr(m.PearsonP),
			SpearmanR:  fromPtr(m.SpearmanR),
			SpearmanP:  fromPtr(m.SpearmanP),
			Unreliable: m.Unreliable,
		})
	}
	return out, nil
}

// SaveBacktest 写入一条回测汇总及其全部交易，同一事务内完成。
func (s *Store) SaveBacktest(ctx context.Context, runID string, res backtest.Result) error {
	strategyJSON, err := json.Marshal(res.Strategy)
	if err != nil {
		return err
	}
	benchmarkJSON, err := json.Marshal(res.Benchmark)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := backtestModel{
			RunID:         runID,
			Instrument:    res.Instrument,
			Lag:           res.Lag,
			StartDay:      int64(res.StartDay),
			EndDay:        int64(res.EndDay),
			NumTrades:     res.NumTrades,
			Wins:          res.Wins,
			Losses:        res.Losses,
			StrategyJSON:  datatypes.JSON(strategyJSON),
			BenchmarkJSON: datatypes.JSON(benchmarkJSON),
		}
		if err := tx.Create(&model).Error; err != nil {
			return err
		}
		if len(res.Trades) == 0 {
			return nil
		}
		trades := make([]tradeModel, 0, len(res.Trades))
		for _, t := range res.Trades {
			trades = append(trades, tradeModel{
				RunID:       runID,
				Instrument:  t.Instrument,
				Lag:         res.Lag,
				EntryDay:    int64(t.EntryDay),
				EntryPrice:  t.EntryPrice,
				ExitDay:     int64(t.ExitDay),
				ExitPrice:   t.ExitPrice,
				TargetPrice: t.TargetPrice,
				StopPrice:   t.StopPrice,
				ExitReason:  string(t.ExitReason),
				ReturnPct:   t.ReturnPct,
				HoldDays:    t.HoldDays,
			})
		}
		return tx.Create(&trades).Error
	})
}

// ListBacktests 读回一个 run 的全部回测结果，交易按入场日升序附上。
func (s *Store) ListBacktests(ctx context.Context, runID string) ([]backtest.Result, error) {
	var models []backtestModel
	if err := s.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("instrument ASC, lag ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	var tradeRows []tradeModel
	if err := s.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("entry_day ASC, id ASC").
		Find(&tradeRows).Error; err != nil {
		return nil, err
	}
	type key struct {
		instrument string
		lag        int
	}
	byKey := make(map[key][]backtest.Trade)
	for _, t := range tradeRows {
		k := key{t.Instrument, t.Lag}
		byKey[k] = append(byKey[k], backtest.Trade{
			Instrument:  t.Instrument,
			EntryDay:    market.Day(t.EntryDay),
			EntryPrice:  t.EntryPrice,
			ExitDay:     market.Day(t.ExitDay),
			ExitPrice:   t.ExitPrice,
			TargetPrice: t.TargetPrice,
			StopPrice:   t.StopPrice,
			ExitReason:  backtest.ExitReason(t.ExitReason),
			ReturnPct:   t.ReturnPct,
			HoldDays:    t.HoldDays,
		})
	}
	out := make([]backtest.Result, 0, len(models))
	for _, m := range models {
		res := backtest.Result{
			Instrument: m.Instrument,
			Lag:        m.Lag,
			StartDay:   market.Day(m.StartDay),
			EndDay:     market.Day(m.EndDay),
			NumTrades:  m.NumTrades,
			Wins:       m.Wins,
			Losses:     m.Losses,
			Trades:     byKey[key{m.Instrument, m.Lag}],
		}
		if err := json.Unmarshal(m.StrategyJSON, &res.Strategy); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(m.BenchmarkJSON, &res.Benchmark); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, nil
}

func runModelToRecord(m runModel) Run {
	run := Run{
		ID:        m.ID,
		Status:    m.Status,
		Message:   m.Message,
		Config:    json.RawMessage(m.ConfigJSON),
		CreatedAt: time.UnixMilli(m.CreatedAtUnix),
		UpdatedAt: time.UnixMilli(m.UpdatedAtUnix),
	}
	if m.Instruments != "" {
		run.Instruments = strings.Split(m.Instruments, ",")
	}
	if m.CompletedAtUnix != nil && *m.CompletedAtUnix > 0 {
		run.CompletedAt = time.UnixMilli(*m.CompletedAtUnix)
	}
	return run
}

func floatPtr(f nullable.Float) *float64 {
	if !f.Defined() {
		return nil
	}
	v := f.Value()
	return &v
}

func fromPtr(p *float64) nullable.Float {
	if p == nil {
		return nullable.Undefined()
	}
	return nullable.Of(*p)
}
