package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"newsedge/internal/backtest/resultstore"
	"newsedge/internal/logger"
)

// Reporter 把一次 run 的产出渲染为报告文件。实现见 internal/report。
type Reporter interface {
	Render(runID string, rep Report) error
}

// Runner 负责 run 级编排：建档 → 跑流水线 → 落库 → 出报告。
// Submit 立即返回 run id，分析在后台执行，进度走 resultstore 查询。
type Runner struct {
	pipe        *Pipeline
	store       *resultstore.Store
	reporter    Reporter
	instruments []string

	mu      sync.Mutex
	running map[string]struct{}
	baseCtx context.Context
}

func NewRunner(pipe *Pipeline, store *resultstore.Store, reporter Reporter, instruments []string) (*Runner, error) {
	if pipe == nil {
		return nil, fmt.Errorf("runner: pipeline 不能为空")
	}
	if store == nil {
		return nil, fmt.Errorf("runner: result store 不能为空")
	}
	return &Runner{
		pipe:        pipe,
		store:       store,
		reporter:    reporter,
		instruments: instruments,
		running:     make(map[string]struct{}),
		baseCtx:     context.Background(),
	}, nil
}

// Submit 提交一次分析。instruments 为空时用配置里的默认列表。
func (r *Runner) Submit(ctx context.Context, instruments []string) (string, error) {
	if len(instruments) == 0 {
		instruments = r.instruments
	}
	cleaned := make([]string, 0, len(instruments))
	for _, sym := range instruments {
		sym = strings.ToUpper(strings.TrimSpace(sym))
		if sym != "" {
			cleaned = append(cleaned, sym)
		}
	}
	if len(cleaned) == 0 {
		return "", fmt.Errorf("runner: instruments 不能为空")
	}

	runID := uuid.NewString()
	cfgJSON, err := json.Marshal(r.pipe.opts)
	if err != nil {
		return "", err
	}
	if err := r.store.CreateRun(ctx, resultstore.Run{
		ID:          runID,
		Status:      resultstore.StatusPending,
		Instruments: cleaned,
		Config:      cfgJSON,
	}); err != nil {
		return "", err
	}

	r.mu.Lock()
	r.running[runID] = struct{}{}
	r.mu.Unlock()
	go r.execute(runID, cleaned)
	return runID, nil
}

// ActiveRuns 返回还在执行中的 run 数。
func (r *Runner) ActiveRuns() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.running)
}

func (r *Runner) execute(runID string, instruments []string) {
	ctx := r.baseCtx
	defer func() {
		r.mu.Lock()
		delete(r.running, runID)
		r.mu.Unlock()
	}()

	if err := r.store.UpdateRunStatus(ctx, runID, resultstore.StatusRunning, ""); err != nil {
		logger.Errorf("runner: 更新 run %s 状态失败: %v", runID, err)
	}
	rep, err := r.pipe.Run(ctx, instruments)
	if err != nil {
		logger.Errorf("runner: run %s 失败: %v", runID, err)
		_ = r.store.UpdateRunStatus(ctx, runID, resultstore.StatusFailed, err.Error())
		return
	}

	analyzed := 0
	for _, ir := range rep.Instruments {
		if ir.Skipped {
			continue
		}
		analyzed++
		if err := r.store.SaveCorrelations(ctx, runID, ir.Correlations); err != nil {
			logger.Errorf("runner: run %s 相关性落库失败 (%s): %v", runID, ir.Instrument, err)
			_ = r.store.UpdateRunStatus(ctx, runID, resultstore.StatusFailed, err.Error())
			return
		}
		if err := r.store.SaveBacktest(ctx, runID, ir.Backtest); err != nil {
			logger.Errorf("runner: run %s 回测落库失败 (%s): %v", runID, ir.Instrument, err)
			_ = r.store.UpdateRunStatus(ctx, runID, resultstore.StatusFailed, err.Error())
			return
		}
	}
	message := fmt.Sprintf("analyzed %d/%d instruments", analyzed, len(rep.Instruments))

	if r.reporter != nil {
		if err := r.reporter.Render(runID, rep); err != nil {
			// 报告失败不推翻已落库的结果，只记录
			logger.Warnf("runner: run %s 报告生成失败: %v", runID, err)
			message += "; report failed"
		}
	}
	if err := r.store.UpdateRunStatus(ctx, runID, resultstore.StatusDone, message); err != nil {
		logger.Errorf("runner: 更新 run %s 状态失败: %v", runID, err)
	}
	logger.Infof("runner: run %s 完成，%s", runID, message)
}
