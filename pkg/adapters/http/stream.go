package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/hearth/internal/logging"
	"github.com/aretw0/hearth/pkg/domain"
	"github.com/aretw0/hearth/pkg/session"
)

// Navigation is pushed to stream clients when a selected option asks the host
// page to change route.
type Navigation struct {
	SessionID string            `json:"session_id"`
	Route     string            `json:"route"`
	Params    map[string]string `json:"params,omitempty"`
}

// StreamManager fans navigations out to the stream clients of a session.
// It implements ports.Navigator so controllers can be built with it.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan Navigation]struct{} // SessionID -> Set of Channels
	logger      *slog.Logger
}

// StreamOption configures the StreamManager.
type StreamOption func(*StreamManager)

// WithStreamLogger configures a logger for the StreamManager.
func WithStreamLogger(logger *slog.Logger) StreamOption {
	return func(sm *StreamManager) {
		sm.logger = logger
	}
}

// NewStreamManager creates an empty StreamManager.
func NewStreamManager(opts ...StreamOption) *StreamManager {
	sm := &StreamManager{
		subscribers: make(map[string]map[chan Navigation]struct{}),
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(sm)
	}
	return sm
}

// Subscribe registers a client of sessionID.
func (sm *StreamManager) Subscribe(sessionID string) (<-chan Navigation, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan Navigation, 10)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan Navigation]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[sessionID]; ok {
			if _, ok := subs[ch]; !ok {
				return
			}
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, sessionID)
			}
		}
	}
}

// Navigate broadcasts target to the clients of sessionID.
// A navigation without clients is dropped.
func (sm *StreamManager) Navigate(ctx context.Context, sessionID string, target domain.NavigateTarget) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	nav := Navigation{SessionID: sessionID, Route: target.Route, Params: target.Params}
	subs := sm.subscribers[sessionID]
	sm.logger.Debug("broadcasting navigation", "session_id", sessionID, "route", target.Route, "clients", len(subs))
	for ch := range subs {
		select {
		case ch <- nav:
		default:
			// Drop message if channel is full (slow client)
			sm.logger.Warn("stream client buffer full, dropping navigation", "session_id", sessionID)
		}
	}
	return nil
}

// watchFilter keeps the updates touching at least one watched part.
// Parts: step, visible, submitting, fields, messages. Empty keeps everything.
type watchFilter []string

func parseWatch(raw string) watchFilter {
	var w watchFilter
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			w = append(w, part)
		}
	}
	return w
}

func (w watchFilter) keep(u session.Update) bool {
	if len(w) == 0 {
		return true
	}
	for _, part := range w {
		switch part {
		case "messages":
			if len(u.Messages) > 0 || u.Cleared {
				return true
			}
		case "step":
			if u.Diff != nil && u.Diff.Step != nil {
				return true
			}
		case "visible":
			if u.Diff != nil && u.Diff.Visible != nil {
				return true
			}
		case "submitting":
			if u.Diff != nil && u.Diff.Submitting != nil {
				return true
			}
		case "fields":
			if u.Diff != nil && len(u.Diff.Fields) > 0 {
				return true
			}
		}
	}
	return false
}

// SubscribeEvents handles the GET /sessions/{id}/events request (SSE).
//
// Events: "ping" on connect, "update" for every session.Update and
// "navigate" for every Navigation. The optional ?watch= list filters updates.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	c, ok := s.lookup(w, r)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("streaming not supported")
		return
	}

	updates, unsubscribe := c.Subscribe()
	defer unsubscribe()
	navigations, stop := s.Streams.Subscribe(c.ID())
	defer stop()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	s.logger.Info("sse client subscribed", "session_id", c.ID())
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	watch := parseWatch(r.URL.Query().Get("watch"))
	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("sse client disconnected", "session_id", c.ID())
			return
		case u, ok := <-updates:
			if !ok {
				// Conversation ended.
				fmt.Fprintf(w, "event: end\ndata: {}\n\n")
				flusher.Flush()
				return
			}
			if !watch.keep(u) {
				continue
			}
			writeEvent(w, "update", u)
			flusher.Flush()
		case nav, ok := <-navigations:
			if !ok {
				return
			}
			writeEvent(w, "navigate", nav)
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, event string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
}
