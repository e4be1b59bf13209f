package dashboard

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/yulawdev/vocalis/internal/auth"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The dashboard is same-origin; cross-origin browsers are fine for
		// a read-only state stream.
		return true
	},
}

// watcherSet fans session state out to the websocket connections watching a
// session.
type watcherSet struct {
	mu     sync.Mutex
	conns  map[*websocket.Conn]bool
	logger *zap.Logger
}

func newWatcherSet(logger *zap.Logger) *watcherSet {
	return &watcherSet{
		conns:  make(map[*websocket.Conn]bool),
		logger: logger,
	}
}

func (w *watcherSet) add(conn *websocket.Conn) {
	w.mu.Lock()
	w.conns[conn] = true
	w.mu.Unlock()
}

func (w *watcherSet) remove(conn *websocket.Conn) {
	w.mu.Lock()
	delete(w.conns, conn)
	w.mu.Unlock()
	conn.Close()
}

// broadcast pushes the state to every watcher, dropping connections that can
// no longer be written to.
func (w *watcherSet) broadcast(state SessionState) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for conn := range w.conns {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(state); err != nil {
			w.logger.Warn("dropping websocket watcher", zap.Error(err))
			delete(w.conns, conn)
			conn.Close()
		}
	}
}

func (w *watcherSet) closeAll() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for conn := range w.conns {
		conn.Close()
		delete(w.conns, conn)
	}
}

// watchSession upgrades the connection and streams session state after every
// transition. The first message is the current state.
func (s *Server) watchSession(c echo.Context) error {
	entry, ok := s.lookup(c.Param("id"))
	if !ok {
		return sessionNotFound(c)
	}

	if s.cfg.DashboardJWTSecret != "" {
		token := c.QueryParam("token")
		if _, err := auth.ValidateToken([]byte(s.cfg.DashboardJWTSecret), token); err != nil {
			return c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "invalid_token",
				Message: "Token validation failed",
			})
		}
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	entry.watchers.add(conn)

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(snapshot(entry.ctrl)); err != nil {
		entry.watchers.remove(conn)
		return nil
	}

	// Reads only detect disconnects; the browser never sends anything.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				entry.watchers.remove(conn)
				return
			}
		}
	}()
	return nil
}
