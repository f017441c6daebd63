package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/aretw0/hearth/internal/catalog"
	"github.com/aretw0/hearth/internal/runtime"
	"github.com/aretw0/hearth/pkg/adapters/memory"
	"github.com/aretw0/hearth/pkg/domain"
	"github.com/aretw0/hearth/pkg/ports"
	"github.com/aretw0/hearth/pkg/search"
	"github.com/aretw0/hearth/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) (*Server, *memory.Desk) {
	t.Helper()
	desk := memory.NewDesk()
	engine := runtime.NewEngine(nil, runtime.WithPresentationDelay(0))
	listings := memory.NewListings(ports.ContractProperties...)

	sessions := session.NewManager(func(id string) *session.Controller {
		return session.NewController(id, engine,
			session.WithInvoker(search.NewInvoker(listings)),
			session.WithSubmitter(desk),
		)
	}, session.WithArchive(memory.NewStore()))
	t.Cleanup(func() { _ = sessions.Shutdown(context.Background()) })

	return NewServer(sessions, "test", WithCatalog(catalog.Default())), desk
}

func args(kv ...any) map[string]interface{} {
	m := make(map[string]interface{})
	for i := 0; i+1 < len(kv); i += 2 {
		m[kv[i].(string)] = kv[i+1]
	}
	return m
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return text.Text
}

func TestServer_Conversation(t *testing.T) {
	s, desk := newServer(t)
	ctx := context.Background()
	req := mcp.CallToolRequest{}

	open, err := s.handleOpen(ctx, req, args("session_id", "agent-1"))
	require.NoError(t, err)
	assert.Equal(t, "agent-1", open.SessionID)
	require.Len(t, open.Messages, 1)
	assert.Len(t, open.Messages[0].Options, 4)

	var last TurnResponse
	for _, value := range []string{"pg", "Pune", "0-5000", "skip"} {
		last, err = s.handleSelect(ctx, req, args("session_id", "agent-1", "value", value))
		require.NoError(t, err)
	}
	assert.Equal(t, domain.StepResults, last.State.Step)
	assert.False(t, last.Pending)

	since := float64(last.Messages[len(last.Messages)-1].ID)
	turn, err := s.handleSelect(ctx, req, args("session_id", "agent-1", "value", "feedback", "since", since))
	require.NoError(t, err)
	require.Len(t, turn.Messages, 2, "user echo and the name prompt")
	assert.Equal(t, domain.RoleUser, turn.Messages[0].Role)

	for _, text := range []string{"Asha", "asha@x.com", "need AC room"} {
		turn, err = s.handleText(ctx, req, args("session_id", "agent-1", "text", text))
		require.NoError(t, err)
	}
	assert.Equal(t, domain.StepEscalationComplete, turn.State.Step)
	assert.Equal(t, []domain.Ticket{{Name: "Asha", Email: "asha@x.com", LookingFor: "pg", Problem: "need AC room"}}, desk.Tickets())
}

func TestServer_Errors(t *testing.T) {
	s, _ := newServer(t)
	ctx := context.Background()
	req := mcp.CallToolRequest{}

	_, err := s.handleSelect(ctx, req, args("value", "pg"))
	assert.ErrorContains(t, err, "session_id is required")

	_, err = s.handleText(ctx, req, args("session_id", "missing", "text", "hi"))
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	t.Setenv(session.EnvMaxInputSize, "4")
	_, err = s.handleOpen(ctx, req, args("session_id", "s1"))
	require.NoError(t, err)
	_, err = s.handleText(ctx, req, args("session_id", "s1", "text", "too long"))
	assert.ErrorIs(t, err, session.ErrInputTooLarge)
}

func TestServer_ResetAndTranscript(t *testing.T) {
	s, _ := newServer(t)
	ctx := context.Background()
	req := mcp.CallToolRequest{}

	_, err := s.handleOpen(ctx, req, args("session_id", "s1"))
	require.NoError(t, err)
	_, err = s.handleSelect(ctx, req, args("session_id", "s1", "value", "hostel"))
	require.NoError(t, err)

	reset, err := s.handleReset(ctx, req, args("session_id", "s1"))
	require.NoError(t, err)
	assert.Equal(t, domain.StepWelcome, reset.State.Step)
	require.Len(t, reset.Messages, 1)

	callReq := mcp.CallToolRequest{}
	callReq.Params.Arguments = map[string]any{"session_id": "s1"}
	live, err := s.handleTranscript(ctx, callReq)
	require.NoError(t, err)
	assert.False(t, live.IsError)
	assert.Contains(t, resultText(t, live), `"session_id":"s1"`)

	require.NoError(t, s.sessions.End(ctx, "s1"))
	archived, err := s.handleTranscript(ctx, callReq)
	require.NoError(t, err)
	assert.False(t, archived.IsError)

	var tr domain.Transcript
	require.NoError(t, json.Unmarshal([]byte(resultText(t, archived)), &tr))
	assert.Equal(t, "s1", tr.SessionID)

	callReq.Params.Arguments = map[string]any{"session_id": "missing"}
	missing, err := s.handleTranscript(ctx, callReq)
	require.NoError(t, err)
	assert.True(t, missing.IsError)
	assert.True(t, strings.Contains(resultText(t, missing), "not found"))
}

func TestSinceArg(t *testing.T) {
	assert.Equal(t, int64(7), sinceArg(args("since", float64(7))))
	assert.Equal(t, int64(3), sinceArg(args("since", 3)))
	assert.Equal(t, int64(0), sinceArg(args("since", "x")))
	assert.Equal(t, int64(0), sinceArg(args()))
}
