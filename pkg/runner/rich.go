package runner

import (
	"context"

	"github.com/aretw0/hearth/pkg/domain"
	"github.com/aretw0/hearth/pkg/session"
)

// RichResponse combines state and new entries for request/response clients (Web, MCP, etc).
type RichResponse struct {
	SessionID string           `json:"session_id"`
	State     *domain.State    `json:"state"`
	Messages  []domain.Message `json:"messages"`
	// Pending is set when delayed replies or async effects were still running.
	Pending bool `json:"pending"`
}

// Render returns the state and the entries appended after since.
func Render(c *session.Controller, since int64) *RichResponse {
	snap := c.Snapshot()
	msgs := make([]domain.Message, 0, len(snap.Messages))
	for _, m := range snap.Messages {
		if m.ID > since {
			msgs = append(msgs, m)
		}
	}
	return &RichResponse{
		SessionID: c.ID(),
		State:     snap.State,
		Messages:  msgs,
		Pending:   snap.Pending,
	}
}

// SelectAndRender selects an option, waits for the conversation to settle
// (bounded by ctx) and renders what changed.
// A ctx that expires while waiting is not an error: the response is marked Pending.
func SelectAndRender(ctx context.Context, c *session.Controller, value string, since int64) (*RichResponse, error) {
	if err := c.HandleOptionSelect(ctx, value); err != nil {
		return nil, err
	}
	_ = c.Wait(ctx)
	return Render(c, since), nil
}

// SubmitAndRender submits free text, waits for the conversation to settle
// (bounded by ctx) and renders what changed.
func SubmitAndRender(ctx context.Context, c *session.Controller, text string, since int64) (*RichResponse, error) {
	if err := c.HandleTextSubmit(ctx, text); err != nil {
		return nil, err
	}
	_ = c.Wait(ctx)
	return Render(c, since), nil
}

// OpenAndRender opens the widget and renders the greeting once it is shown.
func OpenAndRender(ctx context.Context, c *session.Controller, since int64) (*RichResponse, error) {
	if err := c.Open(); err != nil {
		return nil, err
	}
	_ = c.Wait(ctx)
	return Render(c, since), nil
}
