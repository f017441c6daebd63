package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/hearth/internal/logging"
	"github.com/aretw0/hearth/pkg/domain"
	"github.com/aretw0/hearth/pkg/runner"
	"github.com/aretw0/hearth/pkg/session"
	"github.com/go-chi/chi/v5"
)

// DefaultWaitTimeout bounds how long a request waits for delayed replies.
const DefaultWaitTimeout = 5 * time.Second

// maxBodySize caps request bodies; the sanitizer enforces the finer limit.
const maxBodySize = 64 << 10

// Server exposes the widget API over HTTP.
type Server struct {
	Sessions *session.Manager
	Streams  *StreamManager

	version       string
	metrics       http.Handler
	waitTimeout   time.Duration
	allowedOrigin string
	logger        *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures a logger for the Server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetricsHandler mounts h on GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithStreams shares a StreamManager, typically the Navigator of the controllers.
func WithStreams(streams *StreamManager) Option {
	return func(s *Server) {
		s.Streams = streams
	}
}

// WithWaitTimeout sets how long a request waits for the conversation to settle.
func WithWaitTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.waitTimeout = d
	}
}

// WithAllowedOrigin sets the CORS and websocket origin ("*" allows any).
func WithAllowedOrigin(origin string) Option {
	return func(s *Server) {
		s.allowedOrigin = origin
	}
}

// WithVersion sets the version reported by GET /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// NewServer creates a Server over the session registry.
func NewServer(sessions *session.Manager, opts ...Option) *Server {
	s := &Server{
		Sessions:      sessions,
		version:       "dev",
		waitTimeout:   DefaultWaitTimeout,
		allowedOrigin: "*",
		logger:        logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Streams == nil {
		s.Streams = NewStreamManager(WithStreamLogger(s.logger))
	}
	return s
}

// NewHandler creates a new HTTP handler for the session registry.
func NewHandler(sessions *session.Manager, opts ...Option) http.Handler {
	return NewServer(sessions, opts...).Routes()
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.cors)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.ListSessions)
		r.Post("/", s.CreateSession)

		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.EndSession)
			r.Get("/messages", s.GetMessages)
			r.Post("/open", s.visibility(func(c *session.Controller) error { return c.Open() }))
			r.Post("/close", s.visibility(func(c *session.Controller) error { return c.Close() }))
			r.Post("/toggle", s.visibility(func(c *session.Controller) error { return c.Toggle() }))
			r.Post("/reset", s.visibility(func(c *session.Controller) error { return c.Reset() }))
			r.Post("/options", s.SelectOption)
			r.Post("/text", s.SubmitText)
			r.Get("/events", s.SubscribeEvents)
			r.Get("/ws", s.ServeWebSocket)
		})
	})

	r.Get("/transcripts", s.ListTranscripts)
	r.Get("/transcripts/{sessionID}", s.GetTranscript)
	return r
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.allowedOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": s.Sessions.Len()})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "hearth-http",
		"version": strings.TrimSpace(s.version),
	})
}

// ListSessions handles the GET /sessions request.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string][]string{"sessions": s.Sessions.List()})
}

type createRequest struct {
	SessionID string `json:"session_id"`
	Open      bool   `json:"open"`
}

// CreateSession handles the POST /sessions request.
// An empty body creates a closed conversation with a random ID.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	var body createRequest
	if r.ContentLength != 0 {
		if !s.decode(w, r, &body) {
			return
		}
	}

	var c *session.Controller
	status := http.StatusCreated
	if body.SessionID == "" {
		c = s.Sessions.Create()
	} else {
		var created bool
		c, created = s.Sessions.GetOrCreate(body.SessionID)
		if !created {
			status = http.StatusOK
		}
	}

	if body.Open {
		resp, err := s.settled(r.Context(), func(ctx context.Context) (*runner.RichResponse, error) {
			return runner.OpenAndRender(ctx, c, 0)
		})
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, status, resp)
		return
	}
	s.writeJSON(w, status, runner.Render(c, 0))
}

// GetSession handles the GET /sessions/{id} request.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	c, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, runner.Render(c, since(r)))
}

// GetMessages handles the GET /sessions/{id}/messages request.
func (s *Server) GetMessages(w http.ResponseWriter, r *http.Request) {
	c, ok := s.lookup(w, r)
	if !ok {
		return
	}
	msgs := c.Messages(since(r))
	if msgs == nil {
		msgs = []domain.Message{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"messages": msgs})
}

// EndSession handles the DELETE /sessions/{id} request.
// The transcript is archived before the conversation is destroyed.
func (s *Server) EndSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.End(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) visibility(action func(*session.Controller) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := s.lookup(w, r)
		if !ok {
			return
		}
		resp, err := s.settled(r.Context(), func(ctx context.Context) (*runner.RichResponse, error) {
			if err := action(c); err != nil {
				return nil, err
			}
			_ = c.Wait(ctx)
			return runner.Render(c, since(r)), nil
		})
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, resp)
	}
}

type optionRequest struct {
	Value string `json:"value"`
}

// SelectOption handles the POST /sessions/{id}/options request.
func (s *Server) SelectOption(w http.ResponseWriter, r *http.Request) {
	c, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var body optionRequest
	if !s.decode(w, r, &body) {
		return
	}
	if body.Value == "" {
		http.Error(w, "Missing option value", http.StatusBadRequest)
		return
	}
	resp, err := s.settled(r.Context(), func(ctx context.Context) (*runner.RichResponse, error) {
		return runner.SelectAndRender(ctx, c, body.Value, since(r))
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

type textRequest struct {
	Text string `json:"text"`
}

// SubmitText handles the POST /sessions/{id}/text request.
func (s *Server) SubmitText(w http.ResponseWriter, r *http.Request) {
	c, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var body textRequest
	if !s.decode(w, r, &body) {
		return
	}
	resp, err := s.settled(r.Context(), func(ctx context.Context) (*runner.RichResponse, error) {
		return runner.SubmitAndRender(ctx, c, body.Text, since(r))
	})
	if err != nil {
		s.logger.Warn("text rejected", "session_id", c.ID(), "err", err, "size", len(body.Text))
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// ListTranscripts handles the GET /transcripts request.
func (s *Server) ListTranscripts(w http.ResponseWriter, r *http.Request) {
	store := s.Sessions.Archive()
	if store == nil {
		s.writeJSON(w, http.StatusOK, map[string][]string{"transcripts": {}})
		return
	}
	ids, err := store.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"transcripts": ids})
}

// GetTranscript handles the GET /transcripts/{id} request.
func (s *Server) GetTranscript(w http.ResponseWriter, r *http.Request) {
	t, err := s.Sessions.Transcript(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, t)
}

// -- Helpers --

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*session.Controller, bool) {
	c, err := s.Sessions.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, err)
		return nil, false
	}
	return c, true
}

// settled runs fn with a context bounded by the wait timeout.
func (s *Server) settled(ctx context.Context, fn func(context.Context) (*runner.RichResponse, error)) (*runner.RichResponse, error) {
	if s.waitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.waitTimeout)
		defer cancel()
	}
	return fn(ctx)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("invalid request body", "path", r.URL.Path, "err", err)
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	http.Error(w, err.Error(), status)
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrControllerDestroyed):
		return http.StatusGone
	case session.IsInputError(err), errors.Is(err, domain.ErrUnknownOption):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// since reads the ?since= cursor; anything unparsable means "everything".
func since(r *http.Request) int64 {
	v, err := strconv.ParseInt(r.URL.Query().Get("since"), 10, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}
