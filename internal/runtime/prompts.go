package runtime

import (
	"fmt"
	"strings"

	"github.com/aretw0/hearth/internal/catalog"
	"github.com/aretw0/hearth/pkg/domain"
)

// Bot copy.
const (
	msgWelcome       = "Hi! I'm the stay assistant. I can help you find a place that fits."
	msgGreeting      = "Hi there! I can help you find the right place to stay. What are you looking for?"
	msgAskCity       = "Great choice! Which city are you looking in?"
	msgAskBudget     = "What's your monthly budget?"
	msgAskAmenities  = "Any amenities you can't live without? Pick one, or skip."
	msgAddMore       = "Pick another amenity."
	msgAllAmenities  = "You've picked every amenity we know about."
	msgSearchFailed  = "Sorry, something went wrong while searching. Please try again or talk to our team."
	msgNoMatches     = "I couldn't find an exact match for that. You can browse all properties, start over or talk to our team."
	msgAskName       = "I'm sorry we couldn't find the perfect match. Let me connect you with our team. What's your name?"
	msgInvalidEmail  = "That doesn't look like a valid email address. Please enter one like name@example.com."
	msgAskProblem    = "How can our team help you? Tell us what you're looking for."
	msgSubmitting    = "Thanks! Sending your message to our team..."
	msgStillSending  = "Still sending your message, one moment please."
	msgSubmitFailed  = "Sorry, we couldn't send your message. Please try again."
	msgNoPromptYet   = "Please pick one of the options above."
	msgSearchRunning = "Still searching, one moment please."
)

// Labels of the fixed options.
const (
	labelStart       = "Start"
	labelSkip        = "Skip"
	labelAddMore     = "Add more"
	labelShowResults = "Show results"
	labelView        = "View properties"
	labelBrowseAll   = "Browse all properties"
	labelRestart     = "Start over"
	labelFeedback    = "Talk to our team"
	labelRetry       = "Try again"
	labelClose       = "Close"
)

// Values of the fixed options.
const (
	ValueStart       = "start"
	ValueSkip        = "skip"
	ValueAddMore     = "add_more"
	ValueShowResults = "show_results"
	ValueView        = "view"
	ValueBrowseAll   = "browse_all"
	ValueRestart     = "restart"
	ValueFeedback    = "feedback"
	ValueRetry       = "retry"
	ValueResubmit    = "resubmit"
	ValueClose       = "close"
)

func eventOption(label, value string, kind domain.EventKind) domain.Option {
	return domain.Option{
		Label:  label,
		Value:  value,
		Action: domain.EventCommand(domain.Event{Kind: kind, Value: value, Label: label}),
	}
}

func entryOptions(entries []catalog.Entry, kind domain.EventKind) []domain.Option {
	opts := make([]domain.Option, 0, len(entries))
	for _, e := range entries {
		opts = append(opts, eventOption(e.Label, e.Value, kind))
	}
	return opts
}

func startOption() domain.Option {
	return eventOption(labelStart, ValueStart, domain.EventOpen)
}

func restartOption() domain.Option {
	return eventOption(labelRestart, ValueRestart, domain.EventRestart)
}

func feedbackOption() domain.Option {
	return eventOption(labelFeedback, ValueFeedback, domain.EventFeedback)
}

func closeOption() domain.Option {
	return domain.Option{Label: labelClose, Value: ValueClose, Action: &domain.Command{Kind: domain.CommandClose}}
}

func (e *Engine) typeOptions() []domain.Option {
	return entryOptions(e.catalog.Types, domain.EventSelectType)
}

func (e *Engine) cityOptions() []domain.Option {
	return entryOptions(e.catalog.Cities, domain.EventSelectCity)
}

func (e *Engine) budgetOptions() []domain.Option {
	return entryOptions(e.catalog.Budgets, domain.EventSelectBudget)
}

// amenityOptions lists the amenities not yet selected.
func (e *Engine) amenityOptions(s *domain.State) []domain.Option {
	var remaining []catalog.Entry
	for _, a := range e.catalog.Amenities {
		if !s.HasAmenity(a.Value) {
			remaining = append(remaining, a)
		}
	}
	return entryOptions(remaining, domain.EventSelectAmenity)
}

// describe renders criteria as "PG in Pune, Under ₹5,000, with Wi-Fi".
func (e *Engine) describe(c domain.Criteria) string {
	var parts []string
	head := "properties"
	if c.Type != "" {
		head = e.catalog.TypeLabel(c.Type)
	}
	if c.City != "" {
		head += " in " + c.City
	}
	parts = append(parts, head)
	if c.Budget != nil {
		parts = append(parts, c.Budget.Label())
	}
	if len(c.Amenities) > 0 {
		labels := make([]string, 0, len(c.Amenities))
		for _, a := range c.Amenities {
			if entry, ok := e.catalog.Amenity(a); ok {
				labels = append(labels, entry.Label)
			} else {
				labels = append(labels, a)
			}
		}
		parts = append(parts, "with "+strings.Join(labels, ", "))
	}
	return strings.Join(parts, ", ")
}

func searchingMessage(desc string) string {
	return fmt.Sprintf("Searching for %s...", desc)
}

func matchesMessage(n int) string {
	if n == 1 {
		return "Great news! I found 1 property matching your search."
	}
	return fmt.Sprintf("Great news! I found %d properties matching your search.", n)
}

func askEmailMessage(name string) string {
	return fmt.Sprintf("Thanks, %s. What's your email address?", name)
}

func addedMessage(label string) string {
	return fmt.Sprintf("Added %s. Would you like to add more or see the results?", label)
}

func completeMessage(email string) string {
	return fmt.Sprintf("Thank you! Our team will get back to you at %s soon.", email)
}
