package domain

import (
	"context"
	"time"
)

// HookType defines the category of a lifecycle notification.
type HookType string

const (
	HookStepChange HookType = "step_change"
	HookMessage    HookType = "message"
	HookSearch     HookType = "search"
	HookSubmit     HookType = "submit"
	HookNavigate   HookType = "navigate"
)

// HookBase contains common fields for all lifecycle notifications.
type HookBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      HookType  `json:"type"`
	SessionID string    `json:"session_id"`
}

// StepEvent reports a step transition.
type StepEvent struct {
	HookBase
	From  Step      `json:"from"`
	To    Step      `json:"to"`
	Cause EventKind `json:"cause"`
}

// MessageEvent reports an entry appended to the log.
type MessageEvent struct {
	HookBase
	Message Message `json:"message"`
}

// SearchEvent reports a settled search.
type SearchEvent struct {
	HookBase
	SearchID uint64        `json:"search_id"`
	Request  SearchRequest `json:"request"`
	Outcome  string        `json:"outcome"`
	Matches  int           `json:"matches"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// SearchCancelled is the SearchEvent outcome of a search abandoned by a
// newer search or a reset.
const SearchCancelled = "cancelled"

// Cancelled reports whether the search was abandoned before it settled.
func (e *SearchEvent) Cancelled() bool {
	return e.Outcome == SearchCancelled
}

// SubmitEvent reports a settled ticket submission.
type SubmitEvent struct {
	HookBase
	Ticket   Ticket        `json:"ticket"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// NavigateEvent reports a navigation handed to the host.
type NavigateEvent struct {
	HookBase
	Target NavigateTarget `json:"target"`
}

// LifecycleHooks defines callbacks for assistant observability.
type LifecycleHooks struct {
	OnStepChange func(context.Context, *StepEvent)
	OnMessage    func(context.Context, *MessageEvent)
	OnSearch     func(context.Context, *SearchEvent)
	OnSubmit     func(context.Context, *SubmitEvent)
	OnNavigate   func(context.Context, *NavigateEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnStepChange: chain(h.OnStepChange, other.OnStepChange),
		OnMessage:    chain(h.OnMessage, other.OnMessage),
		OnSearch:     chain(h.OnSearch, other.OnSearch),
		OnSubmit:     chain(h.OnSubmit, other.OnSubmit),
		OnNavigate:   chain(h.OnNavigate, other.OnNavigate),
	}
}

func chain[T any](a, b func(context.Context, T)) func(context.Context, T) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, v T) {
		a(ctx, v)
		b(ctx, v)
	}
}
