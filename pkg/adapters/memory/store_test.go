package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/hearth/pkg/adapters/memory"
	"github.com/aretw0/hearth/pkg/domain"
	"github.com/aretw0/hearth/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	ports.RunTranscriptStoreContract(t, memory.NewStore())
}

func TestMemoryStore_Isolation(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	original := &domain.Transcript{
		SessionID: "s1",
		State:     domain.NewState("s1"),
		Messages:  []domain.Message{{ID: 1, Role: domain.RoleBot, Content: "hi"}},
	}
	require.NoError(t, store.Save(ctx, "s1", original))

	original.Messages[0].Content = "changed"
	original.State.SelectedCity = "Pune"

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "hi", loaded.Messages[0].Content)
	assert.Empty(t, loaded.State.SelectedCity)
}

func TestListings_Contract(t *testing.T) {
	ports.RunSearcherContract(t, memory.NewListings(ports.ContractProperties...))
}

func TestListings_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := memory.NewListings(ports.ContractProperties...).Search(ctx, domain.SearchRequest{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDesk_Submit(t *testing.T) {
	desk := memory.NewDesk()
	ticket := domain.Ticket{Name: "Asha", Email: "asha@x.com", LookingFor: "pg", Problem: "need AC"}

	require.NoError(t, desk.Submit(context.Background(), ticket))
	assert.Equal(t, []domain.Ticket{ticket}, desk.Tickets())
}
