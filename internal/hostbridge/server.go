package hostbridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"LLMChatbot/internal/host"
	"LLMChatbot/internal/widget"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Server exposes chat widgets to remote hosts over WebSocket. Each
// connection owns one widget for its lifetime.
type Server struct {
	newWidget func() host.Lifecycle
	logger    *slog.Logger
	upgrader  websocket.Upgrader
}

// NewServer creates a bridge that mounts a widget from newWidget per connection
func NewServer(newWidget func() host.Lifecycle, logger *slog.Logger) (*Server, error) {
	if newWidget == nil {
		return nil, fmt.Errorf("widget factory cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	return &Server{
		newWidget: newWidget,
		logger:    logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}, nil
}

// Handler returns the HTTP routes served by the bridge
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/widget", s)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &connection{
		id:     uuid.NewString(),
		conn:   conn,
		widget: s.newWidget(),
	}
	c.logger = s.logger.With("conn_id", c.id)
	c.logger.Info("host connected", "remote", r.RemoteAddr)

	c.serve(r.Context())
}

type connection struct {
	id     string
	conn   *websocket.Conn
	widget host.Lifecycle
	logger *slog.Logger

	writeMu sync.Mutex
	started bool
}

func (c *connection) serve(ctx context.Context) {
	defer func() {
		if c.started {
			if err := c.widget.Stop(); err != nil {
				c.logger.Error("failed to stop widget", "error", err)
			}
		}
		c.conn.Close()
		c.logger.Info("host disconnected")
	}()

	for {
		var frame Frame
		if err := c.conn.ReadJSON(&frame); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Warn("failed to read frame", "error", err)
			}
			return
		}

		if err := c.handle(ctx, frame); err != nil {
			c.logger.Warn("rejected frame", "type", frame.Type, "error", err)
			c.write(Frame{Type: FrameError, Text: err.Error()})
		}
	}
}

func (c *connection) handle(ctx context.Context, frame Frame) error {
	cfg := widget.Config{Credential: frame.Credential, Input: frame.Input}

	switch frame.Type {
	case FrameInit:
		if c.started {
			return errors.New("widget already initialized")
		}
		if err := c.widget.Start(ctx, cfg, c.onOutput); err != nil {
			return fmt.Errorf("failed to start widget: %w", err)
		}
		c.started = true
		return nil

	case FrameUpdate:
		if !c.started {
			return errors.New("widget not initialized")
		}
		c.widget.OnConfigUpdate(cfg)
		return nil

	case FrameRead:
		if !c.started {
			return errors.New("widget not initialized")
		}
		c.write(Frame{Type: FrameOutput, Text: c.widget.ReadOutput()})
		return nil

	default:
		return fmt.Errorf("unknown frame type %q", frame.Type)
	}
}

func (c *connection) onOutput(text string) {
	c.write(Frame{Type: FrameOutput, Text: text})
}

func (c *connection) write(frame Frame) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteJSON(frame); err != nil {
		c.logger.Warn("failed to write frame", "type", frame.Type, "error", err)
	}
}
