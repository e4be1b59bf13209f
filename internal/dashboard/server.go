// Package dashboard serves the browser UI that drives onboarding sessions
// interactively. Each session is owned by exactly one in-flight request at a
// time; a turn is rejected while another is running.
package dashboard

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/yulawdev/vocalis/domain/entities"
	"github.com/yulawdev/vocalis/internal/auth"
	"github.com/yulawdev/vocalis/internal/config"
	"github.com/yulawdev/vocalis/usecase"
)

// EngineFactory builds the engine set for a requested backend. The dashboard
// takes a factory instead of concrete adapters so tests can inject fakes.
type EngineFactory func(ctx context.Context, kind entities.EngineKind) (usecase.Engines, error)

// Server holds the session registry and the HTTP handlers around it.
type Server struct {
	cfg     *config.Config
	factory EngineFactory
	logger  *zap.Logger

	mu       sync.Mutex
	sessions map[string]*sessionEntry
}

// sessionEntry pairs a controller with the lock serializing access to it and
// the websocket watchers interested in its state.
type sessionEntry struct {
	mu       sync.Mutex
	ctrl     *usecase.Controller
	watchers *watcherSet
}

// SessionState is the JSON snapshot pushed to the browser after every
// transition.
type SessionState struct {
	ID         string             `json:"id"`
	Engine     string             `json:"engine"`
	Status     string             `json:"status"`
	TurnIndex  int                `json:"turn_index"`
	TotalTurns int                `json:"total_turns"`
	Completed  bool               `json:"completed"`
	LastError  string             `json:"last_error,omitempty"`
	History    []entities.Message `json:"history"`
}

// ErrorResponse is the JSON body for failed requests.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type startSessionRequest struct {
	Engine string `json:"engine"`
}

// NewServer creates a dashboard server over the given engine factory.
func NewServer(cfg *config.Config, factory EngineFactory, logger *zap.Logger) *Server {
	return &Server{
		cfg:      cfg,
		factory:  factory,
		logger:   logger,
		sessions: make(map[string]*sessionEntry),
	}
}

// Register mounts all dashboard routes on the echo instance.
func (s *Server) Register(e *echo.Echo) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "vocalis-dashboard",
		})
	})
	e.GET("/", s.index)

	v1 := e.Group("/api/v1")
	if s.cfg.DashboardJWTSecret != "" {
		v1.Use(s.jwtMiddleware)
	}
	v1.POST("/sessions", s.startSession)
	v1.GET("/sessions/:id", s.getSession)
	v1.POST("/sessions/:id/turn", s.runTurn)
	v1.POST("/sessions/:id/retry", s.retry)
	v1.DELETE("/sessions/:id", s.endSession)

	e.GET("/ws/:id", s.watchSession)
}

func (s *Server) startSession(c echo.Context) error {
	var req startSessionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	kind := entities.EngineKind(req.Engine)
	if kind == "" {
		kind = s.cfg.EngineKind
	}
	if kind != entities.EngineLocal && kind != entities.EngineCloud {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_engine",
			Message: "Engine must be local or cloud",
		})
	}

	ctx := c.Request().Context()
	engines, err := s.factory(ctx, kind)
	if err != nil {
		s.logger.Error("engine construction failed", zap.Error(err))
		return c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "engine_unavailable",
			Message: err.Error(),
		})
	}

	ctrl, err := usecase.StartSession(ctx, kind, s.cfg.OnboardingFields, s.cfg.SystemPrompt, engines, s.logger)
	if err != nil {
		s.logger.Error("session start failed", zap.Error(err))
		return c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "session_start_failed",
			Message: err.Error(),
		})
	}

	entry := &sessionEntry{ctrl: ctrl, watchers: newWatcherSet(s.logger)}
	s.mu.Lock()
	s.sessions[ctrl.Session().ID] = entry
	s.mu.Unlock()

	return c.JSON(http.StatusCreated, snapshot(ctrl))
}

func (s *Server) getSession(c echo.Context) error {
	entry, ok := s.lookup(c.Param("id"))
	if !ok {
		return sessionNotFound(c)
	}
	entry.mu.Lock()
	state := snapshot(entry.ctrl)
	entry.mu.Unlock()
	return c.JSON(http.StatusOK, state)
}

func (s *Server) runTurn(c echo.Context) error {
	entry, ok := s.lookup(c.Param("id"))
	if !ok {
		return sessionNotFound(c)
	}
	if !entry.mu.TryLock() {
		return c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "turn_in_progress",
			Message: "A turn is already running for this session",
		})
	}
	defer entry.mu.Unlock()

	session := entry.ctrl.Session()
	if session.Completed() {
		return c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "session_completed",
			Message: "All onboarding fields have been discussed",
		})
	}
	if session.Status != entities.StatusReady {
		return c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "not_ready",
			Message: "Session is " + string(session.Status) + "; retry first if it is in error",
		})
	}

	// The turn outcome lives in the session state either way; an engine
	// failure is not a transport failure.
	_ = entry.ctrl.RunTurn(c.Request().Context())

	state := snapshot(entry.ctrl)
	entry.watchers.broadcast(state)
	return c.JSON(http.StatusOK, state)
}

func (s *Server) retry(c echo.Context) error {
	entry, ok := s.lookup(c.Param("id"))
	if !ok {
		return sessionNotFound(c)
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	if err := entry.ctrl.Retry(); err != nil {
		return c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "not_in_error",
			Message: err.Error(),
		})
	}
	state := snapshot(entry.ctrl)
	entry.watchers.broadcast(state)
	return c.JSON(http.StatusOK, state)
}

func (s *Server) endSession(c echo.Context) error {
	id := c.Param("id")
	s.mu.Lock()
	entry, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return sessionNotFound(c)
	}

	entry.watchers.closeAll()
	s.logger.Info("session ended", zap.String("sessionID", id))
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) lookup(id string) (*sessionEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[id]
	return entry, ok
}

func (s *Server) jwtMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if token == "" || token == header {
			return c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "missing_token",
				Message: "A bearer token is required",
			})
		}
		if _, err := auth.ValidateToken([]byte(s.cfg.DashboardJWTSecret), token); err != nil {
			return c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "invalid_token",
				Message: "Token validation failed",
			})
		}
		return next(c)
	}
}

func sessionNotFound(c echo.Context) error {
	return c.JSON(http.StatusNotFound, ErrorResponse{
		Error:   "session_not_found",
		Message: "No such session",
	})
}

func snapshot(ctrl *usecase.Controller) SessionState {
	session := ctrl.Session()
	return SessionState{
		ID:         session.ID,
		Engine:     string(session.Engine),
		Status:     string(session.Status),
		TurnIndex:  session.TurnIndex,
		TotalTurns: len(session.Fields),
		Completed:  session.Completed(),
		LastError:  session.LastError,
		History:    session.History.Snapshot(),
	}
}
