package domain

import "slices"

// Step is the discrete stage of the conversation.
type Step string

const (
	StepWelcome            Step = "welcome"
	StepAccommodationType  Step = "accommodation_type"
	StepCity               Step = "city"
	StepBudget             Step = "budget"
	StepAmenities          Step = "amenities"
	StepSearching          Step = "searching"
	StepResults            Step = "results"
	StepEscalationName     Step = "escalation_name"
	StepEscalationEmail    Step = "escalation_email"
	StepEscalationProblem  Step = "escalation_problem"
	StepEscalationComplete Step = "escalation_complete"
)

// IsEscalation reports whether the step belongs to the contact-support sub-flow
// (the completed state excluded).
func (s Step) IsEscalation() bool {
	return s == StepEscalationName || s == StepEscalationEmail || s == StepEscalationProblem
}

// Budget is the monthly price range picked by the visitor.
// Min 0 and Max >= UnboundedMax are open bounds; they are kept verbatim here
// and only dropped when the external search request is built.
type Budget struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// UnboundedMax is the sentinel maximum meaning "no upper bound".
const UnboundedMax = 999999

// HasLower reports whether the budget carries a lower bound.
func (b Budget) HasLower() bool { return b.Min > 0 }

// HasUpper reports whether the budget carries an upper bound.
func (b Budget) HasUpper() bool { return b.Max < UnboundedMax }

// Contact holds the escalation details. Name is always set before Email.
type Contact struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// Criteria is the frozen set of choices a search is issued for.
type Criteria struct {
	Type      string   `json:"type,omitempty"`
	City      string   `json:"city,omitempty"`
	Budget    *Budget  `json:"budget,omitempty"`
	Amenities []string `json:"amenities,omitempty"`
}

// Prompt is the last question the bot asked, kept so it can be repeated.
type Prompt struct {
	Content string   `json:"content"`
	Options []Option `json:"options,omitempty"`
}

// State represents the current snapshot of one conversation.
type State struct {
	SessionID string `json:"session_id"`
	Step      Step   `json:"step"`

	SelectedType      string   `json:"selected_type,omitempty"`
	SelectedCity      string   `json:"selected_city,omitempty"`
	SelectedBudget    *Budget  `json:"selected_budget,omitempty"`
	SelectedAmenities []string `json:"selected_amenities,omitempty"`

	Contact    *Contact `json:"contact,omitempty"`
	Problem    string   `json:"problem,omitempty"`
	Submitting bool     `json:"submitting,omitempty"`

	// Criteria is frozen when a search is issued; retries and navigation reuse it.
	Criteria *Criteria `json:"criteria,omitempty"`
	Matches  int       `json:"matches,omitempty"`

	// Generation is bumped by every reset. Delayed replies and async results
	// carrying an older generation are dropped.
	Generation uint64 `json:"generation"`
	// SearchID identifies the latest issued search.
	SearchID uint64 `json:"search_id"`

	Prompt  *Prompt `json:"prompt,omitempty"`
	Visible bool    `json:"visible"`
}

// NewState creates a clean conversation at the welcome step.
func NewState(sessionID string) *State {
	return &State{
		SessionID: sessionID,
		Step:      StepWelcome,
	}
}

// HasAmenity reports whether the amenity is already selected.
func (s *State) HasAmenity(value string) bool {
	return slices.Contains(s.SelectedAmenities, value)
}

// LookingFor returns the accommodation type for support tickets.
func (s *State) LookingFor() string {
	if s.SelectedType == "" {
		return NotSpecified
	}
	return s.SelectedType
}

// NotSpecified is used when the visitor never picked an accommodation type.
const NotSpecified = "Not specified"

// Clone returns a deep copy that can be mutated without affecting s.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	next := *s
	if s.SelectedBudget != nil {
		b := *s.SelectedBudget
		next.SelectedBudget = &b
	}
	next.SelectedAmenities = slices.Clone(s.SelectedAmenities)
	if s.Contact != nil {
		c := *s.Contact
		next.Contact = &c
	}
	if s.Criteria != nil {
		c := *s.Criteria
		if s.Criteria.Budget != nil {
			b := *s.Criteria.Budget
			c.Budget = &b
		}
		c.Amenities = slices.Clone(s.Criteria.Amenities)
		next.Criteria = &c
	}
	if s.Prompt != nil {
		p := Prompt{Content: s.Prompt.Content, Options: slices.Clone(s.Prompt.Options)}
		next.Prompt = &p
	}
	return &next
}
