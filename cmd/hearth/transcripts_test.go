package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/aretw0/hearth/internal/config"
	"github.com/aretw0/hearth/pkg/adapters/file"
	"github.com/aretw0/hearth/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscriptCommands_FileStore(t *testing.T) {
	ctx := context.Background()
	c := testConfig()
	c.Store = config.StoreFile
	c.TranscriptDir = t.TempDir()
	cfg = c
	t.Cleanup(func() { cfg = nil })

	require.NoError(t, file.NewStore(c.TranscriptDir).Save(ctx, "t1", &domain.Transcript{
		SessionID: "t1",
		State:     domain.NewState("t1"),
		Messages: []domain.Message{
			{ID: 1, Role: domain.RoleBot, Content: "What are you looking for?", Options: []domain.Option{{Label: "PG", Value: "pg"}}},
			{ID: 2, Role: domain.RoleUser, Content: "PG"},
		},
	}))

	var out bytes.Buffer
	transcriptsLsCmd.SetContext(ctx)
	transcriptsLsCmd.SetOut(&out)
	require.NoError(t, transcriptsLsCmd.RunE(transcriptsLsCmd, nil))
	assert.Contains(t, out.String(), "- t1")

	out.Reset()
	transcriptsShowCmd.SetContext(ctx)
	transcriptsShowCmd.SetOut(&out)
	require.NoError(t, transcriptsShowCmd.RunE(transcriptsShowCmd, []string{"t1"}))
	assert.Contains(t, out.String(), "Session t1")
	assert.Contains(t, out.String(), "[bot] What are you looking for?")
	assert.Contains(t, out.String(), "   1) PG")
	assert.Contains(t, out.String(), "[user] PG")

	out.Reset()
	transcriptsRmCmd.SetContext(ctx)
	transcriptsRmCmd.SetOut(&out)
	require.NoError(t, transcriptsRmCmd.RunE(transcriptsRmCmd, []string{"t1"}))
	assert.Contains(t, out.String(), "Removed transcript 't1'")

	err := transcriptsShowCmd.RunE(transcriptsShowCmd, []string{"t1"})
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestOpenArchive_NoStore(t *testing.T) {
	c := testConfig()
	c.Store = config.StoreNone
	cfg = c
	t.Cleanup(func() { cfg = nil })

	_, _, err := openArchive()
	assert.ErrorContains(t, err, "no transcript store configured")
}
