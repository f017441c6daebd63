package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/hearth/pkg/domain"
)

// Store implements ports.TranscriptStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.Transcript
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Transcript),
	}
}

// Save persists the transcript in memory.
func (s *Store) Save(ctx context.Context, sessionID string, transcript *domain.Transcript) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[sessionID] = copyTranscript(transcript)
	return nil
}

// Load retrieves the transcript from memory.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.Transcript, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.data[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	// Copy on read so callers can't mutate the stored transcript.
	return copyTranscript(t), nil
}

// Delete removes the transcript.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

// List returns the archived session IDs, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]string, 0, len(s.data))
	for id := range s.data {
		sessions = append(sessions, id)
	}
	sort.Strings(sessions)
	return sessions, nil
}

func copyTranscript(t *domain.Transcript) *domain.Transcript {
	out := *t
	out.State = t.State.Clone()
	out.Messages = (&domain.MessageLog{Entries: t.Messages}).Clone().Entries
	return &out
}
