// Package pipeline 把单个 instrument 的完整分析流程串起来：
// 行情 → 指标 → 日历 → 情感聚合 → 对齐 → 相关性 + 回测。
// 多个 instrument 之间并发执行，结果顺序确定。
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"newsedge/internal/analysis/align"
	"newsedge/internal/analysis/correlate"
	"newsedge/internal/analysis/indicator"
	"newsedge/internal/backtest"
	"newsedge/internal/logger"
	"newsedge/internal/market"
	"newsedge/internal/news"
)

// Options 控制一次完整分析的参数。
type Options struct {
	Lags              []int
	BacktestLag       int
	PositiveThreshold float64
	Timezone          string
	MaxConcurrent     int
	Backtest          backtest.Params
}

// InstrumentReport 是单个 instrument 的全部分析产出。
// 数据缺失时 Skipped=true，其余字段为零值，不视为错误。
type InstrumentReport struct {
	Instrument   string                `json:"instrument"`
	Skipped      bool                  `json:"skipped,omitempty"`
	SkipReason   string                `json:"skip_reason,omitempty"`
	BarCount     int                   `json:"bar_count"`
	News         news.Stats            `json:"news"`
	Sentiment    []news.DailySentiment `json:"sentiment"`
	Correlations []correlate.Result    `json:"correlations"`
	Backtest     backtest.Result       `json:"backtest"`
	Aligned      map[int]align.Result  `json:"-"`
}

// Report 汇总一次 run 内全部 instrument 的产出，按 instrument 升序。
type Report struct {
	Instruments []InstrumentReport `json:"instruments"`
}

type Pipeline struct {
	bars      market.BarSource
	headlines news.HeadlineSource
	scorer    news.Scorer
	opts      Options
	loc       *time.Location
}

// New 构造流水线并做参数校验，矛盾参数立即失败。
func New(bars market.BarSource, headlines news.HeadlineSource, scorer news.Scorer, opts Options) (*Pipeline, error) {
	if bars == nil {
		return nil, fmt.Errorf("pipeline: bar source 不能为空")
	}
	if headlines == nil {
		return nil, fmt.Errorf("pipeline: headline source 不能为空")
	}
	if scorer == nil {
		return nil, fmt.Errorf("pipeline: scorer 不能为空")
	}
	for _, lag := range opts.Lags {
		if lag < 0 {
			return nil, fmt.Errorf("pipeline: lag 必须 >= 0，得到 %d", lag)
		}
	}
	if opts.BacktestLag < 0 {
		return nil, fmt.Errorf("pipeline: backtest lag 必须 >= 0，得到 %d", opts.BacktestLag)
	}
	if err := opts.Backtest.Validate(); err != nil {
		return nil, err
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 4
	}
	if opts.Timezone == "" {
		opts.Timezone = "America/New_York"
	}
	loc, err := time.LoadLocation(opts.Timezone)
	if err != nil {
		return nil, fmt.Errorf("pipeline: 时区无效 %q: %w", opts.Timezone, err)
	}
	return &Pipeline{
		bars:      bars,
		headlines: headlines,
		scorer:    scorer,
		opts:      opts,
		loc:       loc,
	}, nil
}

// Run 并发分析一组 instrument。单个 instrument 数据缺失只跳过不中断；
// 结构性错误（乱序行情、非法收盘价）终止整个 run。
func (p *Pipeline) Run(ctx context.Context, instruments []string) (Report, error) {
	reports := make([]InstrumentReport, len(instruments))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(p.opts.MaxConcurrent)
	for i, sym := range instruments {
		i, sym := i, sym
		eg.Go(func() error {
			rep, err := p.runOne(ctx, sym)
			if err != nil {
				return fmt.Errorf("pipeline: %s 分析失败: %w", sym, err)
			}
			reports[i] = rep
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return Report{}, err
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].Instrument < reports[j].Instrument })
	return Report{Instruments: reports}, nil
}

func (p *Pipeline) runOne(ctx context.Context, instrument string) (InstrumentReport, error) {
	rep := InstrumentReport{Instrument: instrument}

	bars, err := p.bars.Bars(ctx, instrument, 0, 0)
	if err != nil {
		if errors.Is(err, market.ErrDataUnavailable) {
			logger.Warnf("pipeline: %s 无行情数据，跳过", instrument)
			rep.Skipped = true
			rep.SkipReason = "no bar data"
			return rep, nil
		}
		return rep, err
	}
	series, err := indicator.Compute(bars)
	if err != nil {
		return rep, err
	}
	if series.Len() < 2 {
		logger.Warnf("pipeline: %s 行情不足 2 根，跳过", instrument)
		rep.Skipped = true
		rep.SkipReason = "insufficient bars"
		return rep, nil
	}
	rep.BarCount = series.Len()
	cal, err := market.CalendarFromBars(bars)
	if err != nil {
		return rep, err
	}

	raws, err := p.headlines.Headlines(ctx, instrument, 0, 0)
	if err != nil && !errors.Is(err, market.ErrDataUnavailable) {
		return rep, err
	}
	scored := news.ScoreAll(raws, p.scorer)
	rep.News = news.Summarize(scored, p.opts.PositiveThreshold)
	rep.Sentiment = news.Aggregate(scored, p.loc, p.opts.PositiveThreshold)

	rep.Aligned = make(map[int]align.Result, len(p.opts.Lags)+1)
	alignedByLag := make([]align.Result, 0, len(p.opts.Lags))
	for _, lag := range p.opts.Lags {
		res, err := align.Join(rep.Sentiment, series, cal, lag)
		if err != nil {
			return rep, err
		}
		rep.Aligned[lag] = res
		alignedByLag = append(alignedByLag, res)
	}
	rep.Correlations = correlate.Sweep(alignedByLag)

	btAligned, ok := rep.Aligned[p.opts.BacktestLag]
	if !ok {
		btAligned, err = align.Join(rep.Sentiment, series, cal, p.opts.BacktestLag)
		if err != nil {
			return rep, err
		}
		rep.Aligned[p.opts.BacktestLag] = btAligned
	}
	rep.Backtest, err = backtest.Run(btAligned, series, p.opts.Backtest)
	if err != nil {
		return rep, err
	}
	logger.Infof("pipeline: %s 完成 bars=%d headlines=%d trades=%d",
		instrument, rep.BarCount, rep.News.TotalArticles, rep.Backtest.NumTrades)
	return rep, nil
}
