package catalog

import "fmt"

// ValidationError represents a single catalog validation failure.
type ValidationError struct {
	Section string // types, cities, budgets or amenities
	Value   string
	Reason  string
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("catalog %s: %s", e.Section, e.Reason)
	}
	return fmt.Sprintf("catalog %s: %s (%q)", e.Section, e.Reason, e.Value)
}

// AggregateError represents multiple validation failures.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := fmt.Sprintf("%d catalog errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		msg += fmt.Sprintf("  %d. %s\n", i+1, err.Error())
	}
	return msg
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (e *AggregateError) Unwrap() []error { return e.Errors }
