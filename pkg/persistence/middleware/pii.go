package middleware

import (
	"context"
	"regexp"
	"strings"

	"github.com/aretw0/hearth/pkg/domain"
	"github.com/aretw0/hearth/pkg/ports"
)

// Mask replaces every redacted value.
const Mask = "***"

// DefaultPIIPatterns match email addresses and phone numbers in free text.
var DefaultPIIPatterns = []string{
	`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`,
	`\+?\d[\d \-]{8,}\d`,
}

type piiMiddleware struct {
	next     ports.TranscriptStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks the visitor's contact details
// before a transcript is archived. The name and email collected by the
// escalation flow are redacted from the state and from every log entry, and
// free text matching any of the patterns is redacted as well.
// With no patterns, DefaultPIIPatterns are used.
func NewPIIMiddleware(patternStrings ...string) Middleware {
	if len(patternStrings) == 0 {
		patternStrings = DefaultPIIPatterns
	}
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.TranscriptStore) ports.TranscriptStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}
}

func (m *piiMiddleware) Save(ctx context.Context, sessionID string, t *domain.Transcript) error {
	// Work on a copy: the caller may still hold the transcript.
	cloned := *t
	cloned.State = t.State.Clone()
	cloned.Messages = make([]domain.Message, len(t.Messages))
	copy(cloned.Messages, t.Messages)

	var known []string
	if s := cloned.State; s != nil && s.Contact != nil {
		for _, v := range []string{s.Contact.Name, s.Contact.Email} {
			if v = strings.TrimSpace(v); v != "" {
				known = append(known, v)
			}
		}
		contact := *s.Contact
		if contact.Name != "" {
			contact.Name = Mask
		}
		if contact.Email != "" {
			contact.Email = Mask
		}
		s.Contact = &contact
	}

	for i := range cloned.Messages {
		cloned.Messages[i].Content = m.mask(cloned.Messages[i].Content, known)
	}
	if cloned.State != nil && cloned.State.Problem != "" {
		cloned.State.Problem = m.mask(cloned.State.Problem, known)
	}

	return m.next.Save(ctx, sessionID, &cloned)
}

func (m *piiMiddleware) Load(ctx context.Context, sessionID string) (*domain.Transcript, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *piiMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// Helpers

func (m *piiMiddleware) mask(content string, known []string) string {
	for _, v := range known {
		content = strings.ReplaceAll(content, v, Mask)
	}
	for _, p := range m.patterns {
		content = p.ReplaceAllString(content, Mask)
	}
	return content
}
