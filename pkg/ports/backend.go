package ports

import (
	"context"

	"github.com/aretw0/hearth/pkg/domain"
)

// Searcher runs a property search.
// An empty result is not an error; errors mean the backend could not answer.
type Searcher interface {
	Search(ctx context.Context, req domain.SearchRequest) ([]domain.PropertySummary, error)
}

// TicketSubmitter files a support ticket.
type TicketSubmitter interface {
	Submit(ctx context.Context, ticket domain.Ticket) error
}

// Navigator receives navigations requested by a selected option.
// The route and params are opaque to the assistant.
type Navigator interface {
	Navigate(ctx context.Context, sessionID string, target domain.NavigateTarget) error
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, sessionID string, target domain.NavigateTarget) error

// Navigate calls f.
func (f NavigatorFunc) Navigate(ctx context.Context, sessionID string, target domain.NavigateTarget) error {
	return f(ctx, sessionID, target)
}
