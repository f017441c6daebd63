package domain

// EventKind names an input accepted by the dialog engine.
type EventKind string

const (
	EventOpen          EventKind = "open"
	EventSelectType    EventKind = "select_type"
	EventSelectCity    EventKind = "select_city"
	EventSelectBudget  EventKind = "select_budget"
	EventSelectAmenity EventKind = "select_amenity"
	EventAddMore       EventKind = "add_more"
	EventSkip          EventKind = "skip"
	EventShowResults   EventKind = "show_results"
	EventRetry         EventKind = "retry"
	EventRestart       EventKind = "restart"
	EventFeedback      EventKind = "feedback"
	EventResubmit      EventKind = "resubmit"
	EventText          EventKind = "text"
	EventReset         EventKind = "reset"

	// Results of asynchronous effects.
	EventSearchSucceeded EventKind = "search_succeeded"
	EventSearchFailed    EventKind = "search_failed"
	EventSubmitSucceeded EventKind = "submit_succeeded"
	EventSubmitFailed    EventKind = "submit_failed"
)

// Event is an input to the dialog engine.
type Event struct {
	Kind EventKind `json:"kind"`

	// Value carries the selected value or the submitted text.
	Value string `json:"value,omitempty"`

	// Label is the human text of the option that produced the event; it is
	// used for the user echo when set.
	Label string `json:"label,omitempty"`

	// Matches is set on EventSearchSucceeded.
	Matches []PropertyRef `json:"matches,omitempty"`

	// Generation and SearchID tie an async result to the request that produced it.
	Generation uint64 `json:"generation,omitempty"`
	SearchID   uint64 `json:"search_id,omitempty"`
}

// IsAsyncResult reports whether the event is the settled result of an effect.
func (e Event) IsAsyncResult() bool {
	switch e.Kind {
	case EventSearchSucceeded, EventSearchFailed, EventSubmitSucceeded, EventSubmitFailed:
		return true
	}
	return false
}

// IsUserAuthored reports whether the event comes from a visitor action that
// is echoed into the log.
func (e Event) IsUserAuthored() bool {
	switch e.Kind {
	case EventOpen, EventReset:
		return false
	}
	return !e.IsAsyncResult()
}
