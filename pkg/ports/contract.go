package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/hearth/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contractTranscript(sessionID string) *domain.Transcript {
	state := domain.NewState(sessionID)
	state.Step = domain.StepEscalationComplete
	state.SelectedType = "pg"
	state.Contact = &domain.Contact{Name: "Asha", Email: "asha@x.com"}
	return &domain.Transcript{
		SessionID: sessionID,
		State:     state,
		Messages: []domain.Message{
			{ID: 1, Role: domain.RoleBot, Content: "What are you looking for?"},
			{ID: 2, Role: domain.RoleUser, Content: "PG"},
		},
		StartedAt: time.Now().Add(-time.Minute).UTC().Truncate(time.Second),
		EndedAt:   time.Now().UTC().Truncate(time.Second),
	}
}

// RunTranscriptStoreContract runs a suite of tests to verify that a TranscriptStore
// implementation adheres to the defined interface contract.
func RunTranscriptStoreContract(t *testing.T, store TranscriptStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		transcript := contractTranscript(sessionID)

		err := store.Save(ctx, sessionID, transcript)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		require.NotNil(t, loaded.State)
		assert.Equal(t, domain.StepEscalationComplete, loaded.State.Step)
		assert.Equal(t, "pg", loaded.State.SelectedType)
		require.Len(t, loaded.Messages, 2)
		assert.Equal(t, "PG", loaded.Messages[1].Content)
		assert.True(t, transcript.EndedAt.Equal(loaded.EndedAt))
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, sessionID, contractTranscript(sessionID))
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, contractTranscript(id1))
		_ = store.Save(ctx, id2, contractTranscript(id2))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}

// ContractProperties is the fixture a Searcher must be seeded with before
// RunSearcherContract is called.
var ContractProperties = []domain.PropertySummary{
	{ID: "p1", Title: "Sunrise PG", Type: "pg", City: "Pune", Price: 4500, Amenities: []string{"wifi", "meals"}},
	{ID: "p2", Title: "Lake View Flat", Type: "flat", City: "Pune", Price: 18000, Amenities: []string{"wifi", "parking"}},
	{ID: "p3", Title: "Koramangala Hostel", Type: "hostel", City: "Bengaluru", Price: 7000, Amenities: []string{"ac"}},
	{ID: "p4", Title: "Baner Villa", Type: "flat", City: "Pune", Price: 120000, Amenities: []string{"ac", "parking"}},
}

// RunSearcherContract verifies the filtering semantics of a Searcher seeded
// with ContractProperties.
func RunSearcherContract(t *testing.T, searcher Searcher) {
	ctx := context.Background()
	ids := func(t *testing.T, req domain.SearchRequest) []string {
		t.Helper()
		got, err := searcher.Search(ctx, req)
		require.NoError(t, err)
		out := make([]string, 0, len(got))
		for _, p := range got {
			out = append(out, p.ID)
		}
		return out
	}
	intp := func(v int) *int { return &v }

	t.Run("No Filters", func(t *testing.T) {
		assert.ElementsMatch(t, []string{"p1", "p2", "p3", "p4"}, ids(t, domain.SearchRequest{}))
	})

	t.Run("Type and City", func(t *testing.T) {
		assert.ElementsMatch(t, []string{"p2", "p4"}, ids(t, domain.SearchRequest{Type: "flat", City: "Pune"}))
	})

	t.Run("Upper Bound Only", func(t *testing.T) {
		assert.ElementsMatch(t, []string{"p1"}, ids(t, domain.SearchRequest{PriceMax: intp(5000)}))
	})

	t.Run("Lower Bound Only", func(t *testing.T) {
		assert.ElementsMatch(t, []string{"p4"}, ids(t, domain.SearchRequest{PriceMin: intp(20000)}))
	})

	t.Run("Both Bounds", func(t *testing.T) {
		assert.ElementsMatch(t, []string{"p3"}, ids(t, domain.SearchRequest{PriceMin: intp(5000), PriceMax: intp(10000)}))
	})

	t.Run("Amenities", func(t *testing.T) {
		assert.ElementsMatch(t, []string{"p2", "p4"}, ids(t, domain.SearchRequest{Amenities: []string{"parking"}}))
		assert.ElementsMatch(t, []string{"p4"}, ids(t, domain.SearchRequest{Amenities: []string{"parking", "ac"}}))
	})

	t.Run("Empty", func(t *testing.T) {
		assert.Empty(t, ids(t, domain.SearchRequest{City: "Atlantis"}))
	})
}
