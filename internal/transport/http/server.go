// Package http 提供 Gin 接口：提交分析 run、查询结果。
package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"newsedge/internal/backtest/resultstore"
	"newsedge/internal/logger"
	"newsedge/internal/pipeline"
)

type Server struct {
	addr   string
	runner *pipeline.Runner
	store  *resultstore.Store
	router *gin.Engine
	srv    *http.Server
}

type Config struct {
	Addr   string
	Runner *pipeline.Runner
	Store  *resultstore.Store
}

func NewServer(cfg Config) (*Server, error) {
	if cfg.Runner == nil {
		return nil, errors.New("runner 不能为空")
	}
	if cfg.Store == nil {
		return nil, errors.New("result store 不能为空")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":9992"
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		addr:   cfg.Addr,
		runner: cfg.Runner,
		store:  cfg.Store,
		router: router,
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	api := s.router.Group("/api/analysis")
	api.POST("/runs", s.handleRunSubmit)
	api.GET("/runs", s.handleRunList)
	api.GET("/runs/:id", s.handleRunDetail)
	api.GET("/runs/:id/correlations", s.handleRunCorrelations)
	api.GET("/runs/:id/backtests", s.handleRunBacktests)
	s.router.GET("/healthz", s.handleHealth)
}

// Start 阻塞运行直到 ctx 取消，然后优雅关停。
func (s *Server) Start(ctx context.Context) error {
	s.srv = &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("http: 监听 %s", s.addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "active_runs": s.runner.ActiveRuns()})
}

func (s *Server) handleRunSubmit(c *gin.Context) {
	var req struct {
		Instruments []string `json:"instruments"`
	}
	// 空 body 等同于默认 instruments
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	runID, err := s.runner.Submit(c.Request.Context(), req.Instruments)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"run_id": runID})
}

func (s *Server) handleRunList(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit 非法"})
		return
	}
	runs, err := s.store.ListRuns(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (s *Server) handleRunDetail(c *gin.Context) {
	run, err := s.store.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, resultstore.ErrRunNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"run": run})
}

func (s *Server) handleRunCorrelations(c *gin.Context) {
	results, err := s.store.ListCorrelations(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"correlations": results})
}

func (s *Server) handleRunBacktests(c *gin.Context) {
	results, err := s.store.ListBacktests(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"backtests": results})
}
