package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/aretw0/hearth/pkg/domain"
	"github.com/aretw0/hearth/pkg/session"
	"github.com/coder/websocket"
)

// writeTimeout bounds a single websocket frame write.
const writeTimeout = 5 * time.Second

// wsRequest is one frame sent by a websocket client.
// Type is one of option, text, open, close, toggle, reset.
type wsRequest struct {
	Type  string `json:"type"`
	Value string `json:"value,omitempty"`
}

// wsFrame is one frame sent to a websocket client.
type wsFrame struct {
	Type       string            `json:"type"` // snapshot, update, navigate, error
	Snapshot   *session.Snapshot `json:"snapshot,omitempty"`
	Update     *session.Update   `json:"update,omitempty"`
	Navigation *Navigation       `json:"navigation,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// ServeWebSocket handles the GET /sessions/{id}/ws request.
// The client gets a snapshot, then every update and navigation; it drives the
// conversation with wsRequest frames.
func (s *Server) ServeWebSocket(w http.ResponseWriter, r *http.Request) {
	c, ok := s.lookup(w, r)
	if !ok {
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{s.originPattern()},
	})
	if err != nil {
		s.logger.Error("failed to accept websocket", "session_id", c.ID(), "err", err)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "session ended"); closeErr != nil {
			s.logger.Debug("failed to close websocket", "session_id", c.ID(), "err", closeErr)
		}
	}()

	updates, unsubscribe := c.Subscribe()
	defer unsubscribe()
	navigations, stop := s.Streams.Subscribe(c.ID())
	defer stop()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	snap := c.Snapshot()
	if err := s.writeFrame(ctx, ws, wsFrame{Type: "snapshot", Snapshot: &snap}); err != nil {
		return
	}

	go func() {
		defer cancel()
		s.inputLoop(ctx, ws, c)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			if err := s.writeFrame(ctx, ws, wsFrame{Type: "update", Update: &u}); err != nil {
				return
			}
		case nav, ok := <-navigations:
			if !ok {
				return
			}
			if err := s.writeFrame(ctx, ws, wsFrame{Type: "navigate", Navigation: &nav}); err != nil {
				return
			}
		}
	}
}

func (s *Server) inputLoop(ctx context.Context, ws *websocket.Conn, c *session.Controller) {
	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				s.logger.Debug("websocket closed by client", "session_id", c.ID())
			} else if ctx.Err() == nil {
				s.logger.Warn("websocket read error", "session_id", c.ID(), "err", err)
			}
			return
		}

		var req wsRequest
		if err := json.Unmarshal(data, &req); err != nil {
			_ = s.writeFrame(ctx, ws, wsFrame{Type: "error", Error: "invalid frame"})
			continue
		}
		if err := apply(ctx, c, req); err != nil {
			if errors.Is(err, domain.ErrControllerDestroyed) {
				return
			}
			_ = s.writeFrame(ctx, ws, wsFrame{Type: "error", Error: err.Error()})
		}
	}
}

func apply(ctx context.Context, c *session.Controller, req wsRequest) error {
	switch req.Type {
	case "option":
		return c.HandleOptionSelect(ctx, req.Value)
	case "text":
		return c.HandleTextSubmit(ctx, req.Value)
	case "open":
		return c.Open()
	case "close":
		return c.Close()
	case "toggle":
		return c.Toggle()
	case "reset":
		return c.Reset()
	default:
		return errors.New("unknown frame type " + req.Type)
	}
}

func (s *Server) writeFrame(ctx context.Context, ws *websocket.Conn, f wsFrame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err := ws.Write(ctx, websocket.MessageText, data); err != nil {
		s.logger.Debug("websocket write error", "err", err)
		return err
	}
	return nil
}

// originPattern turns the allowed origin into a host pattern.
func (s *Server) originPattern() string {
	if s.allowedOrigin == "" || s.allowedOrigin == "*" {
		return "*"
	}
	if u, err := url.Parse(s.allowedOrigin); err == nil && u.Host != "" {
		return u.Host
	}
	return s.allowedOrigin
}
