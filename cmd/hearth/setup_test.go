package main

import (
	"context"
	"encoding/base64"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/hearth/internal/config"
	"github.com/aretw0/hearth/internal/logging"
	"github.com/aretw0/hearth/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Store:         config.StoreMemory,
		MaskPII:       true,
		Backend:       config.BackendMemory,
		ResultsRoute:  "/properties",
		SearchTimeout: time.Second,
		SubmitTimeout: time.Second,
		IdleTTL:       time.Minute,
		LogLevel:      "info",
		LogFormat:     "text",
	}
}

func TestSetup_MemoryArchive(t *testing.T) {
	ctx := context.Background()
	a, err := setup(ctx, testConfig(), logging.NewNop())
	require.NoError(t, err)
	defer a.Close()

	sessions := a.assistant.Sessions()
	c, created := sessions.GetOrCreate("cli-1")
	require.True(t, created)
	require.NoError(t, c.Open())
	require.NoError(t, c.Wait(ctx))
	require.NoError(t, c.HandleOptionSelect(ctx, "hostel"))
	require.NoError(t, sessions.End(ctx, "cli-1"))

	ids, err := a.archive.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"cli-1"}, ids)

	families, err := a.registry.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestSetup_EncryptedArchive(t *testing.T) {
	ctx := context.Background()
	c := testConfig()
	c.EncryptionKey = base64.StdEncoding.EncodeToString([]byte(strings.Repeat("k", 32)))

	a, err := setup(ctx, c, logging.NewNop())
	require.NoError(t, err)
	defer a.Close()

	sessions := a.assistant.Sessions()
	conv, _ := sessions.GetOrCreate("sealed")
	require.NoError(t, conv.Open())
	require.NoError(t, conv.Wait(ctx))
	require.NoError(t, sessions.End(ctx, "sealed"))

	tr, err := a.archive.Load(ctx, "sealed")
	require.NoError(t, err)
	assert.Equal(t, "sealed", tr.SessionID)
	assert.NotEmpty(t, tr.Messages)
}

func TestSetup_NoStore(t *testing.T) {
	c := testConfig()
	c.Store = config.StoreNone

	a, err := setup(context.Background(), c, logging.NewNop())
	require.NoError(t, err)
	defer a.Close()
	assert.Nil(t, a.archive)
}

func TestSetup_SQLiteBackend(t *testing.T) {
	ctx := context.Background()
	c := testConfig()
	c.Backend = config.BackendSQLite
	c.SQLitePath = filepath.Join(t.TempDir(), "data", "hearth.db")

	db, err := openSQLite(c.SQLitePath)
	require.NoError(t, err)
	require.NoError(t, db.Seed(ctx, domain.PropertySummary{ID: "p1", Title: "Sunrise PG", Type: "pg", City: "Pune", Price: 4500}))
	require.NoError(t, db.Close())

	a, err := setup(ctx, c, logging.NewNop())
	require.NoError(t, err)
	defer a.Close()

	lo, hi := 0, 5000
	found, err := a.assistant.Searcher().Search(ctx, domain.SearchRequest{Type: "pg", City: "Pune", PriceMin: &lo, PriceMax: &hi})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "p1", found[0].ID)
}

func TestSetup_BadCatalog(t *testing.T) {
	c := testConfig()
	c.CatalogPath = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := setup(context.Background(), c, logging.NewNop())
	assert.ErrorContains(t, err, "failed to read catalog")
}

func TestEvictInterval(t *testing.T) {
	assert.Equal(t, time.Minute, evictInterval(0))
	assert.Equal(t, time.Second, evictInterval(2*time.Second))
	assert.Equal(t, 5*time.Minute, evictInterval(20*time.Minute))
}
