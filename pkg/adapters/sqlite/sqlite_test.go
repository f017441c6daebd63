package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aretw0/hearth/pkg/adapters/sqlite"
	"github.com/aretw0/hearth/pkg/domain"
	"github.com/aretw0/hearth/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openBackend(t *testing.T) *sqlite.Backend {
	t.Helper()
	b, err := sqlite.Open(filepath.Join(t.TempDir(), "data", "hearth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestBackend_SearcherContract(t *testing.T) {
	b := openBackend(t)
	require.NoError(t, b.Seed(context.Background(), ports.ContractProperties...))
	ports.RunSearcherContract(t, b)
}

func TestBackend_SearchOrderAndAmenities(t *testing.T) {
	b := openBackend(t)
	ctx := context.Background()
	require.NoError(t, b.Seed(ctx, ports.ContractProperties...))

	got, err := b.Search(ctx, domain.SearchRequest{City: "Pune"})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "p1", got[0].ID)
	assert.Equal(t, []string{"wifi", "meals"}, got[0].Amenities)
	assert.Equal(t, "p4", got[2].ID)
}

func TestBackend_SeedUpserts(t *testing.T) {
	b := openBackend(t)
	ctx := context.Background()

	p := domain.PropertySummary{ID: "x", Title: "Old", Type: "pg", City: "Pune", Price: 100}
	require.NoError(t, b.Seed(ctx, p))
	p.Title = "New"
	require.NoError(t, b.Seed(ctx, p))

	got, err := b.Search(ctx, domain.SearchRequest{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "New", got[0].Title)
	assert.Nil(t, got[0].Amenities)

	assert.Error(t, b.Seed(ctx, domain.PropertySummary{Title: "no id"}))
}

func TestBackend_Submit(t *testing.T) {
	b := openBackend(t)
	ctx := context.Background()

	first := domain.Ticket{Name: "Asha", Email: "asha@x.com", LookingFor: "pg", Problem: "need AC"}
	second := domain.Ticket{Name: "Ravi", Email: "ravi@x.com", LookingFor: domain.NotSpecified, Problem: "call me"}
	require.NoError(t, b.Submit(ctx, first))
	require.NoError(t, b.Submit(ctx, second))

	tickets, err := b.Tickets(ctx)
	require.NoError(t, err)
	require.Len(t, tickets, 2)
	assert.Equal(t, first, tickets[0].Ticket)
	assert.Equal(t, second, tickets[1].Ticket)
	assert.NotEqual(t, tickets[0].ID, tickets[1].ID)
	assert.False(t, tickets[0].CreatedAt.IsZero())
}
