package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/hearth/pkg/adapters/memory"
	"github.com/aretw0/hearth/pkg/domain"
	"github.com/aretw0/hearth/pkg/persistence/middleware"
	"github.com/aretw0/hearth/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func escalatedTranscript() *domain.Transcript {
	state := domain.NewState("pii-session")
	state.Step = domain.StepEscalationComplete
	state.SelectedType = "pg"
	state.Contact = &domain.Contact{Name: "Asha Rao", Email: "asha@x.com"}
	state.Problem = "call me on +91 98765 43210"
	return &domain.Transcript{
		SessionID: "pii-session",
		State:     state,
		Messages: []domain.Message{
			{ID: 1, Role: domain.RoleBot, Content: "What's your name?"},
			{ID: 2, Role: domain.RoleUser, Content: "Asha Rao"},
			{ID: 3, Role: domain.RoleBot, Content: "Thanks, Asha Rao. What's your email address?"},
			{ID: 4, Role: domain.RoleUser, Content: "asha@x.com"},
			{ID: 5, Role: domain.RoleUser, Content: "call me on +91 98765 43210"},
		},
	}
}

func TestPIIMiddleware_Contract(t *testing.T) {
	ports.RunTranscriptStoreContract(t, middleware.NewPIIMiddleware()(memory.NewStore()))
}

func TestPIIMiddleware_Masking(t *testing.T) {
	underlying := memory.NewStore()
	store := middleware.NewPIIMiddleware()(underlying)
	ctx := context.Background()

	original := escalatedTranscript()
	require.NoError(t, store.Save(ctx, "pii-session", original))

	// The caller's transcript is untouched.
	assert.Equal(t, "asha@x.com", original.State.Contact.Email)
	assert.Equal(t, "Asha Rao", original.Messages[1].Content)

	stored, err := underlying.Load(ctx, "pii-session")
	require.NoError(t, err)

	assert.Equal(t, &domain.Contact{Name: middleware.Mask, Email: middleware.Mask}, stored.State.Contact)
	assert.Equal(t, "call me on ***", stored.State.Problem)
	assert.Equal(t, "pg", stored.State.SelectedType)

	assert.Equal(t, "What's your name?", stored.Messages[0].Content)
	assert.Equal(t, "***", stored.Messages[1].Content)
	assert.Equal(t, "Thanks, ***. What's your email address?", stored.Messages[2].Content)
	assert.Equal(t, "***", stored.Messages[3].Content)
	assert.Equal(t, "call me on ***", stored.Messages[4].Content)
}

func TestPIIMiddleware_CustomPatterns(t *testing.T) {
	underlying := memory.NewStore()
	store := middleware.NewPIIMiddleware(`\bflat \d+\b`)(underlying)
	ctx := context.Background()

	tr := &domain.Transcript{
		SessionID: "s",
		State:     domain.NewState("s"),
		Messages:  []domain.Message{{ID: 1, Role: domain.RoleUser, Content: "I live in flat 42, mail a@b.co"}},
	}
	require.NoError(t, store.Save(ctx, "s", tr))

	stored, err := underlying.Load(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, "I live in ***, mail a@b.co", stored.Messages[0].Content)
}
