package daemon

import (
	"context"
	"errors"
	"ftpsched/internal/logger"
	"ftpsched/internal/model"
	"ftpsched/internal/store"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

type Server struct {
	echo    *echo.Echo
	session *Session
	port    int
	stopCh  chan struct{}
}

func NewServer(session *Session, port int) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &Server{
		echo:    e,
		session: session,
		port:    port,
		stopCh:  make(chan struct{}, 1),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	// For the entire daemon
	s.echo.GET("/status", s.handleStatus)
	s.echo.POST("/stop", s.handleStop)
	s.echo.GET("/metrics", echo.WrapHandler(s.session.Metrics().Handler()))

	// Endpoints
	g := s.echo.Group("/endpoints")
	g.GET("", s.handleListEndpoints)
	g.POST("", s.handleAddEndpoint)
	g.GET("/:id", s.handleGetEndpoint)
	g.PATCH("/:id", s.handleUpdateEndpoint)
	g.DELETE("/:id", s.handleRemoveEndpoint)

	// Schedule
	s.echo.GET("/schedule", s.handleGetSchedule)
	s.echo.PUT("/schedule", s.handleSetSchedule)
	s.echo.POST("/scheduler/start", s.handleStartScheduler)
	s.echo.POST("/scheduler/stop", s.handleStopScheduler)

	// Manual runs
	s.echo.POST("/sync", s.handleSync)
	s.echo.POST("/sync/cancel", s.handleCancelSync)

	// Event log and history
	s.echo.GET("/log", s.handleLog)
	s.echo.DELETE("/log", s.handleClearLog)
	s.echo.PUT("/log/path", s.handleSetLogPath)
	s.echo.GET("/history", s.handleHistory)
	s.echo.GET("/history/stats", s.handleHistoryStats)
}

func (s *Server) Start() {
	go func() {
		addr := ":" + strconv.Itoa(s.port)
		logger.Log.Info("daemon server started",
			zap.String("addr", addr))

		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Error("daemon server error", zap.Error(err))
		}
	}()
}

func (s *Server) Stop(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) StopCh() <-chan struct{} {
	return s.stopCh
}

func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) handleStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, s.session.Status())
}

func (s *Server) handleStop(c echo.Context) error {
	select {
	case s.stopCh <- struct{}{}:
	default:
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "stopping"})
}

func (s *Server) handleListEndpoints(c echo.Context) error {
	return c.JSON(http.StatusOK, s.session.Store().Snapshot())
}

func (s *Server) handleAddEndpoint(c echo.Context) error {
	ep, err := s.session.Store().AddDefault()
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusCreated, ep)
}

func (s *Server) handleGetEndpoint(c echo.Context) error {
	ep, err := s.session.Store().Get(c.Param("id"))
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, ep)
}

type updateEndpointRequest struct {
	Enabled    *bool           `json:"enabled"`
	Protocol   *model.Protocol `json:"protocol"`
	Host       *string         `json:"host"`
	Port       *int            `json:"port"`
	RemotePath *string         `json:"remote_path"`
	LocalPath  *string         `json:"local_path"`
}

// apply overwrites every field present in the request.
func (r updateEndpointRequest) apply(ep *model.Endpoint) {
	if r.Enabled != nil {
		ep.Enabled = *r.Enabled
	}
	if r.Protocol != nil {
		ep.Protocol = *r.Protocol
	}
	if r.Host != nil {
		ep.Host = *r.Host
	}
	if r.Port != nil {
		ep.Port = *r.Port
	}
	if r.RemotePath != nil {
		ep.RemotePath = *r.RemotePath
	}
	if r.LocalPath != nil {
		ep.LocalPath = *r.LocalPath
	}
}

func (s *Server) handleUpdateEndpoint(c echo.Context) error {
	var req updateEndpointRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	ep, err := s.session.Store().Update(c.Param("id"), req.apply)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, ep)
}

func (s *Server) handleRemoveEndpoint(c echo.Context) error {
	if err := s.session.Store().Remove(c.Param("id")); err != nil {
		return errorJSON(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleGetSchedule(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"time": s.session.Store().ScheduleTime().String()})
}

type scheduleRequest struct {
	Time string `json:"time"`
}

func (s *Server) handleSetSchedule(c echo.Context) error {
	var req scheduleRequest
	if err := c.Bind(&req); err != nil || req.Time == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "time required"})
	}

	t, err := model.ParseTimeOfDay(req.Time)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	if err := s.session.Store().SetScheduleTime(t); err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{"time": t.String()})
}

func (s *Server) handleStartScheduler(c echo.Context) error {
	s.session.StartScheduler()
	return c.JSON(http.StatusOK, s.session.Status().Scheduler)
}

func (s *Server) handleStopScheduler(c echo.Context) error {
	s.session.StopScheduler()
	return c.JSON(http.StatusOK, s.session.Status().Scheduler)
}

func (s *Server) handleSync(c echo.Context) error {
	if err := s.session.StartManualSync(); err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusAccepted, map[string]string{"status": "started"})
}

func (s *Server) handleCancelSync(c echo.Context) error {
	if err := s.session.CancelSync(); err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "cancelling"})
}

func (s *Server) handleLog(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"path":  s.session.Status().LogPath,
		"lines": s.session.LogLines(),
	})
}

func (s *Server) handleClearLog(c echo.Context) error {
	s.session.ClearLog()
	return c.NoContent(http.StatusNoContent)
}

type logPathRequest struct {
	Path string `json:"path"`
}

func (s *Server) handleSetLogPath(c echo.Context) error {
	var req logPathRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	if err := s.session.SetLogPath(req.Path); err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{"path": req.Path})
}

func (s *Server) handleHistory(c echo.Context) error {
	n := 20
	if nStr := c.QueryParam("n"); nStr != "" {
		if parsed, err := strconv.Atoi(nStr); err == nil && parsed > 0 {
			n = parsed
		}
	}

	failed, _ := strconv.ParseBool(c.QueryParam("failed"))
	histories, err := s.session.History(HistoryQuery{
		Limit:      n,
		EndpointID: c.QueryParam("endpoint"),
		FailedOnly: failed,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, histories)
}

func (s *Server) handleHistoryStats(c echo.Context) error {
	stats, err := s.session.HistoryStats()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, stats)
}

func errorJSON(c echo.Context, err error) error {
	return c.JSON(statusOf(err), map[string]string{"error": err.Error()})
}

func statusOf(err error) int {
	if _, ok := errors.AsType[*store.ValidationError](err); ok {
		return http.StatusBadRequest
	}

	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrBusy), errors.Is(err, ErrSchedulerRunning), errors.Is(err, ErrNoBatch):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
