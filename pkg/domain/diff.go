package domain

import (
	"reflect"
)

// StateDiff represents the changes between two states.
// It is designed to be serialized to JSON for partial updates on the widget.
type StateDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	Step       *Step `json:"step,omitempty"`
	Visible    *bool `json:"visible,omitempty"`
	Submitting *bool `json:"submitting,omitempty"`

	// Fields contains only changed selections, keyed by their JSON name.
	// A cleared field is present with a nil value.
	Fields map[string]any `json:"fields,omitempty"`
}

// Diff calculates the difference between oldState and newState.
// If oldState is nil, it returns a diff representing the entire newState (initial load).
func Diff(oldState, newState *State) *StateDiff {
	if newState == nil {
		return nil
	}

	diff := &StateDiff{
		SessionID: newState.SessionID,
	}

	if oldState == nil || oldState.Step != newState.Step {
		diff.Step = &newState.Step
	}
	if oldState == nil || oldState.Visible != newState.Visible {
		diff.Visible = &newState.Visible
	}
	if oldState == nil {
		if newState.Submitting {
			diff.Submitting = &newState.Submitting
		}
	} else if oldState.Submitting != newState.Submitting {
		diff.Submitting = &newState.Submitting
	}

	diff.Fields = diffFields(oldState, newState)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func selectionFields(s *State) map[string]any {
	fields := make(map[string]any)
	if s.SelectedType != "" {
		fields["selected_type"] = s.SelectedType
	}
	if s.SelectedCity != "" {
		fields["selected_city"] = s.SelectedCity
	}
	if s.SelectedBudget != nil {
		fields["selected_budget"] = *s.SelectedBudget
	}
	if len(s.SelectedAmenities) > 0 {
		fields["selected_amenities"] = s.SelectedAmenities
	}
	if s.Contact != nil {
		fields["contact"] = *s.Contact
	}
	if s.Matches > 0 {
		fields["matches"] = s.Matches
	}
	return fields
}

func diffFields(old *State, new *State) map[string]any {
	next := selectionFields(new)
	if old == nil {
		if len(next) == 0 {
			return nil
		}
		return next
	}
	prev := selectionFields(old)

	delta := make(map[string]any)
	for k, newVal := range next {
		oldVal, exists := prev[k]
		if !exists || !reflect.DeepEqual(oldVal, newVal) {
			delta[k] = newVal
		}
	}
	for k := range prev {
		if _, exists := next[k]; !exists {
			delta[k] = nil
		}
	}

	if len(delta) == 0 {
		return nil
	}
	return delta
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *StateDiff) IsEmpty() bool {
	return d.Step == nil &&
		d.Visible == nil &&
		d.Submitting == nil &&
		len(d.Fields) == 0
}
