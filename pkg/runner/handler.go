package runner

import (
	"context"

	"github.com/aretw0/hearth/pkg/domain"
)

// InputKind tells the runner how to interpret a reply.
type InputKind string

const (
	// InputAuto lets the runner decide: an option number, value or label selects
	// that option; anything else is free text.
	InputAuto InputKind = "auto"
	// InputOption selects the option with Value.
	InputOption InputKind = "option"
	// InputText submits Value as free text.
	InputText InputKind = "text"
	// InputCommand runs one of the runner commands (reset, close, quit).
	InputCommand InputKind = "command"
)

// Input is one reply read by an IOHandler.
type Input struct {
	Kind  InputKind `json:"kind"`
	Value string    `json:"value"`
}

// IOHandler defines the strategy for interacting with the visitor.
// This allows switching between Text (terminal) and JSON (structured) modes.
type IOHandler interface {
	// Output presents new log entries.
	Output(ctx context.Context, msgs []domain.Message) error

	// Input reads the next reply.
	// It returns io.EOF when the stream is exhausted.
	Input(ctx context.Context) (Input, error)

	// SystemOutput presents a meta-message (e.g. a rejected reply).
	// This is distinct from conversation entries.
	SystemOutput(ctx context.Context, msg string) error
}

// Conversation is the part of session.Controller the runner drives.
type Conversation interface {
	Open() error
	Close() error
	Reset() error
	HandleOptionSelect(ctx context.Context, value string) error
	HandleTextSubmit(ctx context.Context, text string) error
	Messages(since int64) []domain.Message
	Wait(ctx context.Context) error
	Visible() bool
}
