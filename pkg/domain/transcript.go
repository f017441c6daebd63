package domain

import "time"

// Transcript is the archived record of an ended conversation.
// It is kept for support review only; conversations are never resumed from it.
type Transcript struct {
	SessionID string    `json:"session_id"`
	State     *State    `json:"state"`
	Messages  []Message `json:"messages"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`

	// Sealed holds the encrypted transcript when the archive is encrypted;
	// State and Messages are then empty.
	Sealed string `json:"sealed,omitempty"`
}
