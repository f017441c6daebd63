package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/hearth/internal/catalog"
	"github.com/aretw0/hearth/internal/logging"
	"github.com/aretw0/hearth/pkg/domain"
	"github.com/aretw0/hearth/pkg/runner"
	"github.com/aretw0/hearth/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// DefaultWaitTimeout bounds how long a tool call waits for delayed replies.
const DefaultWaitTimeout = 10 * time.Second

const (
	catalogURI    = "hearth://catalog"
	transcriptURI = "hearth://transcripts/"
)

// TurnResponse is returned by every conversation tool.
type TurnResponse struct {
	SessionID string           `json:"session_id" jsonschema_description:"The conversation the turn belongs to"`
	State     *domain.State    `json:"state" jsonschema_description:"The conversation state after the turn"`
	Messages  []domain.Message `json:"messages" jsonschema_description:"Log entries appended during the turn; pick one of the last entry's options or reply with text"`
	Pending   bool             `json:"pending" jsonschema_description:"Set when replies were still on their way; call get_transcript later"`
}

// Server exposes conversations as MCP tools.
type Server struct {
	sessions    *session.Manager
	catalog     *catalog.Catalog
	waitTimeout time.Duration
	logger      *slog.Logger
	mcpServer   *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithCatalog exposes the option vocabulary as the hearth://catalog resource.
func WithCatalog(c *catalog.Catalog) Option {
	return func(s *Server) {
		s.catalog = c
	}
}

// WithLogger configures a logger for the Server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithWaitTimeout sets how long a tool call waits for the conversation to settle.
func WithWaitTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.waitTimeout = d
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(sessions *session.Manager, version string, opts ...Option) *Server {
	s := &Server{
		sessions:    sessions,
		waitTimeout: DefaultWaitTimeout,
		logger:      logging.NewNop(),
		mcpServer:   server.NewMCPServer("hearth-mcp", strings.TrimSpace(version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server, for custom transports.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("mcp server listening (sse)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("shutdown signal received, stopping mcp server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	sessionArg := mcp.WithString("session_id", mcp.Required(), mcp.Description("Conversation ID returned by open_session"))
	sinceArg := mcp.WithNumber("since", mcp.Description("Only return entries with a greater ID (optional)"))

	// TOOL: open_session
	s.mcpServer.AddTool(mcp.NewTool("open_session",
		mcp.WithDescription("Open the stay-search assistant. Starts a new conversation unless session_id names a live one."),
		mcp.WithString("session_id", mcp.Description("Conversation ID to resume (optional)")),
		mcp.WithOutputSchema[TurnResponse](),
	), mcp.NewStructuredToolHandler(s.handleOpen))

	// TOOL: select_option
	s.mcpServer.AddTool(mcp.NewTool("select_option",
		mcp.WithDescription("Select one of the options offered by the newest assistant entry, by value."),
		sessionArg,
		mcp.WithString("value", mcp.Required(), mcp.Description("Option value")),
		sinceArg,
		mcp.WithOutputSchema[TurnResponse](),
	), mcp.NewStructuredToolHandler(s.handleSelect))

	// TOOL: send_text
	s.mcpServer.AddTool(mcp.NewTool("send_text",
		mcp.WithDescription("Reply with free text (name, email, problem description)."),
		sessionArg,
		mcp.WithString("text", mcp.Required(), mcp.Description("Reply text")),
		sinceArg,
		mcp.WithOutputSchema[TurnResponse](),
	), mcp.NewStructuredToolHandler(s.handleText))

	// TOOL: reset_session
	s.mcpServer.AddTool(mcp.NewTool("reset_session",
		mcp.WithDescription("Discard the conversation and start over from the welcome entry."),
		sessionArg,
		mcp.WithOutputSchema[TurnResponse](),
	), mcp.NewStructuredToolHandler(s.handleReset))

	// TOOL: get_transcript
	s.mcpServer.AddTool(mcp.NewTool("get_transcript",
		mcp.WithDescription("Get the entries of a live conversation, or the archived transcript of an ended one."),
		sessionArg,
		sinceArg,
	), s.handleTranscript)

	// TOOL: end_session
	s.mcpServer.AddTool(mcp.NewTool("end_session",
		mcp.WithDescription("End a conversation and archive its transcript."),
		sessionArg,
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, _ := request.GetArguments()["session_id"].(string)
		if err := s.sessions.End(ctx, id); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("end failed: %v", err)), nil
		}
		return mcp.NewToolResultText("ended " + id), nil
	})
}

// Handler methods for structured tools

func (s *Server) handleOpen(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (TurnResponse, error) {
	var c *session.Controller
	if id, _ := args["session_id"].(string); id != "" {
		c, _ = s.sessions.GetOrCreate(id)
	} else {
		c = s.sessions.Create()
	}

	ctx, cancel := s.bounded(ctx)
	defer cancel()
	rich, err := runner.OpenAndRender(ctx, c, sinceArg(args))
	if err != nil {
		return TurnResponse{}, fmt.Errorf("open failed: %w", err)
	}
	return turn(rich), nil
}

func (s *Server) handleSelect(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (TurnResponse, error) {
	c, err := s.controller(args)
	if err != nil {
		return TurnResponse{}, err
	}
	value, _ := args["value"].(string)

	ctx, cancel := s.bounded(ctx)
	defer cancel()
	rich, err := runner.SelectAndRender(ctx, c, value, sinceArg(args))
	if err != nil {
		return TurnResponse{}, fmt.Errorf("select failed: %w", err)
	}
	return turn(rich), nil
}

func (s *Server) handleText(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (TurnResponse, error) {
	c, err := s.controller(args)
	if err != nil {
		return TurnResponse{}, err
	}
	text, _ := args["text"].(string)

	ctx, cancel := s.bounded(ctx)
	defer cancel()
	rich, err := runner.SubmitAndRender(ctx, c, text, sinceArg(args))
	if err != nil {
		s.logger.Warn("mcp text rejected", "session_id", c.ID(), "err", err, "size", len(text))
		return TurnResponse{}, fmt.Errorf("input rejected: %w", err)
	}
	return turn(rich), nil
}

func (s *Server) handleReset(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (TurnResponse, error) {
	c, err := s.controller(args)
	if err != nil {
		return TurnResponse{}, err
	}
	if err := c.Reset(); err != nil {
		return TurnResponse{}, fmt.Errorf("reset failed: %w", err)
	}
	return turn(runner.Render(c, 0)), nil
}

func (s *Server) handleTranscript(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	id, _ := args["session_id"].(string)

	var payload any
	if c, err := s.sessions.Get(id); err == nil {
		payload = runner.Render(c, sinceArg(args))
	} else {
		t, err := s.sessions.Transcript(ctx, id)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("transcript not found: %v", err)), nil
		}
		payload = t
	}
	jsonBytes, _ := json.Marshal(payload)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) registerResources() {
	// EXPOSE: hearth://catalog
	if s.catalog != nil {
		s.mcpServer.AddResource(mcp.NewResource(catalogURI, "Option Vocabulary",
			mcp.WithResourceDescription("Accommodation types, cities, budgets and amenities the assistant offers"),
			mcp.WithMIMEType("application/json"),
		), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			jsonBytes, _ := json.Marshal(s.catalog)
			return []mcp.ResourceContents{
				mcp.TextResourceContents{
					URI:      catalogURI,
					MIMEType: "application/json",
					Text:     string(jsonBytes),
				},
			}, nil
		})
	}

	// EXPOSE: hearth://transcripts/{session_id}
	s.mcpServer.AddResourceTemplate(mcp.NewResourceTemplate(transcriptURI+"{session_id}", "Archived Transcript",
		mcp.WithTemplateDescription("The archived transcript of an ended conversation"),
		mcp.WithTemplateMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		id := strings.TrimPrefix(request.Params.URI, transcriptURI)
		t, err := s.sessions.Transcript(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load transcript %s: %w", id, err)
		}
		jsonBytes, _ := json.Marshal(t)
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      request.Params.URI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}

// -- Helpers --

func (s *Server) controller(args map[string]interface{}) (*session.Controller, error) {
	id, _ := args["session_id"].(string)
	if id == "" {
		return nil, errors.New("session_id is required")
	}
	c, err := s.sessions.Get(id)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", id, err)
	}
	return c, nil
}

func (s *Server) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.waitTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.waitTimeout)
}

// sinceArg reads the optional cursor; JSON numbers arrive as float64.
func sinceArg(args map[string]interface{}) int64 {
	switch v := args["since"].(type) {
	case float64:
		return int64(v)
	case int:
		return int64(v)
	case int64:
		return v
	}
	return 0
}

func turn(rich *runner.RichResponse) TurnResponse {
	msgs := rich.Messages
	if msgs == nil {
		msgs = []domain.Message{}
	}
	return TurnResponse{
		SessionID: rich.SessionID,
		State:     rich.State,
		Messages:  msgs,
		Pending:   rich.Pending,
	}
}
