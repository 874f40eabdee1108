// Package apihttp exposes the simulator over a small JSON API: submit
// runs, poll results, and invoke the robustness analyzers.
package apihttp

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"strata/internal/dataset"
	"strata/internal/engine"
	"strata/internal/logger"
	"strata/internal/report"
	"strata/internal/robust"
	"strata/internal/series"
	"strata/internal/stats"
	"strata/internal/strategy"
)

// Server wires the engine, registry, and run store behind gin.
type Server struct {
	addr     string
	base     engine.Config
	registry *strategy.Registry
	runs     *RunStore
	router   *gin.Engine
}

// Config describes the server dependencies.
type Config struct {
	Addr     string
	Engine   engine.Config
	Registry *strategy.Registry
}

func NewServer(cfg Config) (*Server, error) {
	if cfg.Registry == nil {
		return nil, errors.New("strategy registry required")
	}
	if err := cfg.Engine.Validate(); err != nil {
		return nil, err
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8090"
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		addr:     cfg.Addr,
		base:     cfg.Engine,
		registry: cfg.Registry,
		runs:     NewRunStore(),
		router:   router,
	}
	s.registerRoutes()
	return s, nil
}

// Router exposes the handler, mainly for tests.
func (s *Server) Router() http.Handler { return s.router }

func (s *Server) registerRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := s.router.Group("/api")
	api.GET("/strategies", s.handleStrategies)
	api.POST("/runs", s.handleRunSubmit)
	api.GET("/runs", s.handleRunList)
	api.GET("/runs/:id", s.handleRunDetail)
	api.GET("/runs/:id/stats", s.handleRunStats)
	api.GET("/runs/:id/trades", s.handleRunTrades)
	api.GET("/runs/:id/report", s.handleRunReport)
	api.POST("/runs/:id/montecarlo", s.handleMonteCarlo)

	rb := api.Group("/robustness")
	rb.POST("/walkforward", s.handleWalkForward)
	rb.POST("/sensitivity", s.handleSensitivity)
	rb.POST("/stress", s.handleStress)
}

func (s *Server) handleStrategies(c *gin.Context) {
	type entry struct {
		Name   string           `json:"name"`
		Params []strategy.Param `json:"params"`
	}
	list := make([]entry, 0)
	for _, name := range s.registry.Names() {
		strat, err := s.registry.Create(name)
		if err != nil {
			continue
		}
		list = append(list, entry{Name: name, Params: strat.Params()})
	}
	c.JSON(http.StatusOK, gin.H{"strategies": list})
}

type runRequest struct {
	DataFile string         `json:"data_file" binding:"required"`
	Strategy string         `json:"strategy" binding:"required"`
	Params   map[string]any `json:"params"`

	InitialCapital float64 `json:"initial_capital"`
	AllowShorts    *bool   `json:"allow_shorts"`
}

func (s *Server) engineConfig(req runRequest) engine.Config {
	cfg := s.base.Clone()
	if req.InitialCapital > 0 {
		cfg.InitialCapital = req.InitialCapital
	}
	if req.AllowShorts != nil {
		cfg.AllowShorts = *req.AllowShorts
	}
	return cfg
}

// factory builds fresh, parameterized strategy instances for the
// analyzers. Parameter errors surface on the first build.
func (s *Server) factory(name string, params map[string]any) (strategy.Factory, error) {
	base, err := s.registry.Factory(name)
	if err != nil {
		return nil, err
	}
	if len(params) > 0 {
		if err := base().SetParams(params); err != nil {
			return nil, err
		}
	}
	return func() strategy.Strategy {
		strat := base()
		if len(params) > 0 {
			_ = strat.SetParams(params)
		}
		return strat
	}, nil
}

func (s *Server) handleRunSubmit(c *gin.Context) {
	var req runRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := s.registry.Factory(req.Strategy); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	run := s.runs.New(req.Strategy, req.DataFile, req.Params)
	go s.execute(run.ID, req)
	c.JSON(http.StatusAccepted, gin.H{"run": run})
}

// execute runs one simulation in the background and records the
// outcome on the stored run.
func (s *Server) execute(id string, req runRequest) {
	s.runs.Update(id, func(r *Run) { r.Status = RunRunning })

	fail := func(err error) {
		logger.Warnf("run %s failed: %v", id, err)
		s.runs.Update(id, func(r *Run) {
			r.Status = RunFailed
			r.Error = err.Error()
			r.FinishedAt = time.Now().UTC()
		})
	}

	data, err := dataset.Load(req.DataFile)
	if err != nil {
		fail(err)
		return
	}
	strat, err := s.registry.Create(req.Strategy)
	if err != nil {
		fail(err)
		return
	}
	if len(req.Params) > 0 {
		if err := strat.SetParams(req.Params); err != nil {
			fail(err)
			return
		}
	}
	eng, err := engine.New(s.engineConfig(req))
	if err != nil {
		fail(err)
		return
	}
	result, err := eng.Run(data, strat)
	if err != nil {
		fail(err)
		return
	}
	st := stats.NewCalculator().Calculate(result)
	s.runs.Update(id, func(r *Run) {
		r.Status = RunDone
		r.Result = result
		r.Stats = &st
		r.FinishedAt = time.Now().UTC()
	})
}

func (s *Server) handleRunList(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	c.JSON(http.StatusOK, gin.H{"runs": s.runs.List(limit)})
}

func (s *Server) finishedRun(c *gin.Context) (Run, bool) {
	run, ok := s.runs.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return Run{}, false
	}
	if run.Status != RunDone {
		c.JSON(http.StatusConflict, gin.H{"error": "run not finished", "status": run.Status})
		return Run{}, false
	}
	return run, true
}

func (s *Server) handleRunDetail(c *gin.Context) {
	run, ok := s.runs.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"run": run})
}

func (s *Server) handleRunStats(c *gin.Context) {
	run, ok := s.finishedRun(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": run.Stats})
}

func (s *Server) handleRunTrades(c *gin.Context) {
	run, ok := s.finishedRun(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "200"))
	trades := run.Result.Trades
	if limit > 0 && len(trades) > limit {
		trades = trades[len(trades)-limit:]
	}
	c.JSON(http.StatusOK, gin.H{"trades": trades})
}

func (s *Server) handleRunReport(c *gin.Context) {
	run, ok := s.finishedRun(c)
	if !ok {
		return
	}
	rep := &report.Report{Result: run.Result, Stats: *run.Stats}
	html, err := rep.HTML()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", html)
}

func (s *Server) handleMonteCarlo(c *gin.Context) {
	run, ok := s.finishedRun(c)
	if !ok {
		return
	}
	var req struct {
		Simulations int    `json:"simulations"`
		Mode        string `json:"mode"`
		Seed        int64  `json:"seed"`
	}
	// empty bodies are fine, the defaults apply
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	mc := robust.NewMonteCarlo(run.Result.InitialCapital)
	if req.Simulations > 0 {
		mc.Simulations = req.Simulations
	}
	if req.Mode == string(robust.ResampleBootstrap) {
		mc.Mode = robust.ResampleBootstrap
	}
	mc.Seed = req.Seed
	out := mc.Simulate(run.Result.TradePnLs())
	out.Curves = nil // too heavy for the API payload
	c.JSON(http.StatusOK, gin.H{"montecarlo": out})
}

type robustnessRequest struct {
	DataFile string         `json:"data_file" binding:"required"`
	Strategy string         `json:"strategy" binding:"required"`
	Params   map[string]any `json:"params"`
}

func (s *Server) loadRobustness(c *gin.Context, req *robustnessRequest) (strategy.Factory, *series.TimeSeries, bool) {
	factory, err := s.factory(req.Strategy, req.Params)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, nil, false
	}
	data, err := dataset.Load(req.DataFile)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, nil, false
	}
	return factory, data, true
}

func (s *Server) handleWalkForward(c *gin.Context) {
	var req struct {
		robustnessRequest
		TrainBars  int `json:"train_bars"`
		TestBars   int `json:"test_bars"`
		StepBars   int `json:"step_bars"`
		Iterations int `json:"iterations"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	factory, data, ok := s.loadRobustness(c, &req.robustnessRequest)
	if !ok {
		return
	}

	wf := robust.NewWalkForward(s.base)
	if req.TrainBars > 0 {
		wf.TrainBars = req.TrainBars
	}
	if req.TestBars > 0 {
		wf.TestBars = req.TestBars
	}
	if req.StepBars > 0 {
		wf.StepBars = req.StepBars
	}
	if req.Iterations > 0 {
		wf.OptimizationIterations = req.Iterations
	}
	result, err := wf.Analyze(factory, data)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"walkforward": result})
}

func (s *Server) handleSensitivity(c *gin.Context) {
	var req struct {
		robustnessRequest
		Param1   string `json:"param1" binding:"required"`
		Param2   string `json:"param2"`
		Metric   string `json:"metric"`
		GridSize int    `json:"grid_size"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	factory, data, ok := s.loadRobustness(c, &req.robustnessRequest)
	if !ok {
		return
	}

	sens := robust.NewSensitivity(s.base)
	if req.GridSize > 1 {
		sens.GridSize = req.GridSize
	}
	metric := robust.MetricSharpeRatio
	if req.Metric != "" {
		metric = robust.Metric(req.Metric)
	}

	if req.Param2 != "" {
		result, err := sens.Heatmap(factory, data, req.Param1, req.Param2, metric)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"heatmap": result})
		return
	}
	result, err := sens.Sweep(factory, data, req.Param1, metric)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sweep": result})
}

func (s *Server) handleStress(c *gin.Context) {
	var req robustnessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	factory, data, ok := s.loadRobustness(c, &req)
	if !ok {
		return
	}
	tester := robust.NewStressTester(s.base)
	c.JSON(http.StatusOK, gin.H{"stress": tester.RunAll(factory, data)})
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("api listening on %s", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
