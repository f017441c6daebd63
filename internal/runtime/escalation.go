package runtime

import (
	"net/mail"
	"strings"

	"github.com/aretw0/hearth/pkg/domain"
)

// feedback enters the contact-support sub-flow.
func (e *Engine) feedback(s *domain.State, ev domain.Event) ([]domain.Effect, error) {
	if s.Step.IsEscalation() {
		return nil, invalid(s, ev, "already escalating")
	}
	s.Step = domain.StepEscalationName
	s.Contact = nil
	s.Problem = ""
	s.Submitting = false
	return withEcho(ev, e.ask(s, msgAskName)), nil
}

func (e *Engine) escalation(s *domain.State, ev domain.Event) ([]domain.Effect, error) {
	if s.Step == domain.StepEscalationProblem && ev.Kind == domain.EventResubmit {
		if s.Submitting || s.Problem == "" {
			return nil, invalid(s, ev, "nothing to resubmit")
		}
		return withEcho(ev, e.submit(s)...), nil
	}
	if ev.Kind != domain.EventText {
		return nil, invalid(s, ev, "")
	}
	text := strings.TrimSpace(ev.Value)
	if text == "" {
		return nil, invalid(s, ev, "blank text")
	}

	switch s.Step {
	case domain.StepEscalationName:
		s.Contact = &domain.Contact{Name: text}
		s.Step = domain.StepEscalationEmail
		return []domain.Effect{
			domain.AppendUser(text),
			e.ask(s, askEmailMessage(text)),
		}, nil

	case domain.StepEscalationEmail:
		addr, err := mail.ParseAddress(text)
		if err != nil || !validDomain(addr.Address) {
			return nil, &InvalidEventError{
				Step:   s.Step,
				Event:  ev.Kind,
				Reason: domain.ErrInvalidEmail.Error(),
				reply:  msgInvalidEmail,
			}
		}
		s.Contact.Email = addr.Address
		s.Step = domain.StepEscalationProblem
		return []domain.Effect{
			domain.AppendUser(text),
			e.ask(s, msgAskProblem),
		}, nil

	case domain.StepEscalationProblem:
		if s.Submitting {
			return nil, &InvalidEventError{Step: s.Step, Event: ev.Kind, Reason: "submission in flight", reply: msgStillSending}
		}
		s.Problem = text
		return append([]domain.Effect{domain.AppendUser(text)}, e.submit(s)...), nil
	}
	return nil, invalid(s, ev, "")
}

// submit files the ticket built from the collected contact.
func (e *Engine) submit(s *domain.State) []domain.Effect {
	s.Submitting = true
	ticket := domain.Ticket{
		Name:       s.Contact.Name,
		Email:      s.Contact.Email,
		LookingFor: s.LookingFor(),
		Problem:    s.Problem,
	}
	return []domain.Effect{
		e.say(s, msgSubmitting),
		domain.SubmitTicket(ticket, s.Generation),
	}
}

func (e *Engine) submitSettled(s *domain.State, ev domain.Event) ([]domain.Effect, error) {
	if s.Step != domain.StepEscalationProblem || !s.Submitting || ev.Generation != s.Generation {
		return nil, ErrStaleResult
	}
	s.Submitting = false

	if ev.Kind == domain.EventSubmitFailed {
		return []domain.Effect{
			e.ask(s, msgSubmitFailed, eventOption(labelRetry, ValueResubmit, domain.EventResubmit)),
		}, nil
	}

	s.Step = domain.StepEscalationComplete
	return []domain.Effect{
		e.ask(s, completeMessage(s.Contact.Email), restartOption(), closeOption()),
	}, nil
}

// validDomain requires a dotted domain part, which net/mail does not.
func validDomain(address string) bool {
	at := strings.LastIndex(address, "@")
	if at < 1 {
		return false
	}
	domainPart := address[at+1:]
	return strings.Contains(domainPart, ".") && !strings.HasSuffix(domainPart, ".")
}
