package runtime

import (
	"errors"
	"fmt"

	"github.com/aretw0/hearth/pkg/domain"
)

// ErrStaleResult is reported when an async result belongs to a search or
// generation that is no longer current. Such results are dropped.
var ErrStaleResult = errors.New("stale async result")

// InvalidEventError reports an event that the current step does not accept.
type InvalidEventError struct {
	Step   domain.Step
	Event  domain.EventKind
	Reason string

	// reply replaces the generic re-prompt when set.
	reply string
}

func (e *InvalidEventError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("event %q not accepted in step %q", e.Event, e.Step)
	}
	return fmt.Sprintf("event %q not accepted in step %q: %s", e.Event, e.Step, e.Reason)
}

func invalid(s *domain.State, ev domain.Event, reason string) error {
	return &InvalidEventError{Step: s.Step, Event: ev.Kind, Reason: reason}
}
