// Package app 负责应用级编排：加载配置 → 初始化依赖 → 启动 HTTP 服务。
package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"newsedge/internal/backtest"
	"newsedge/internal/backtest/resultstore"
	necfg "newsedge/internal/config"
	"newsedge/internal/logger"
	"newsedge/internal/market"
	"newsedge/internal/news"
	"newsedge/internal/pipeline"
	"newsedge/internal/report"
	nehttp "newsedge/internal/transport/http"
)

type App struct {
	cfg      *necfg.Config
	barStore *market.Store
	results  *resultstore.Store
	runner   *pipeline.Runner
	httpSrv  *nehttp.Server
}

// NewApp 根据配置构建应用对象（不启动）。
func NewApp(cfg *necfg.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)

	csvSrc, err := market.NewCSVSource(cfg.Data.BarsDir)
	if err != nil {
		return nil, fmt.Errorf("初始化行情源失败: %w", err)
	}
	barStore, err := market.NewStore(cfg.Data.BarCacheDir)
	if err != nil {
		return nil, fmt.Errorf("初始化行情缓存失败: %w", err)
	}
	barSrc, err := market.NewCachedSource(csvSrc, barStore)
	if err != nil {
		barStore.Close()
		return nil, err
	}

	headlines, err := news.NewCSVSource(cfg.Data.NewsPath)
	if err != nil {
		barStore.Close()
		return nil, fmt.Errorf("初始化新闻源失败: %w", err)
	}
	scorer, err := news.NewLexiconScorer(cfg.Sentiment.LexiconPath)
	if err != nil {
		barStore.Close()
		return nil, fmt.Errorf("初始化情感词典失败: %w", err)
	}

	pipe, err := pipeline.New(barSrc, headlines, scorer, pipeline.Options{
		Lags:              cfg.Analysis.Lags,
		BacktestLag:       cfg.Backtest.Lag,
		PositiveThreshold: cfg.Sentiment.PositiveThreshold,
		Timezone:          cfg.Sentiment.Timezone,
		MaxConcurrent:     cfg.Pipeline.MaxConcurrent,
		Backtest: backtest.Params{
			EntryThreshold:     cfg.Backtest.EntryThreshold,
			ProfitTarget:       cfg.Backtest.ProfitTarget,
			StopLoss:           cfg.Backtest.StopLoss,
			MaxHoldDays:        cfg.Backtest.MaxHoldDays,
			RiskFreeRate:       cfg.Backtest.RiskFreeRate,
			TradingDaysPerYear: cfg.Backtest.TradingDaysPerYear,
			RequireTrend:       cfg.Backtest.RequireTrend,
			MaxEntryRSI:        cfg.Backtest.MaxEntryRSI,
		},
	})
	if err != nil {
		barStore.Close()
		return nil, err
	}

	results, err := resultstore.NewStore(cfg.Data.ResultsPath)
	if err != nil {
		barStore.Close()
		return nil, fmt.Errorf("初始化结果库失败: %w", err)
	}
	reporter, err := report.NewGenerator(cfg.Report.OutputDir)
	if err != nil {
		barStore.Close()
		results.Close()
		return nil, err
	}
	runner, err := pipeline.NewRunner(pipe, results, reporter, cfg.Data.Instruments)
	if err != nil {
		barStore.Close()
		results.Close()
		return nil, err
	}
	httpSrv, err := nehttp.NewServer(nehttp.Config{
		Addr:   cfg.App.HTTPAddr,
		Runner: runner,
		Store:  results,
	})
	if err != nil {
		barStore.Close()
		results.Close()
		return nil, err
	}

	return &App{
		cfg:      cfg,
		barStore: barStore,
		results:  results,
		runner:   runner,
		httpSrv:  httpSrv,
	}, nil
}

// Runner 暴露 run 编排器（CLI 直跑模式用）。
func (a *App) Runner() *pipeline.Runner {
	if a == nil {
		return nil
	}
	return a.runner
}

// Run 启动 HTTP 服务并阻塞到 ctx 取消。
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := a.httpSrv.Start(ctx); err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})
	return group.Wait()
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.barStore != nil {
		_ = a.barStore.Close()
	}
	if a.results != nil {
		_ = a.results.Close()
	}
}
