// Package search turns the criteria collected by the dialog into one call
// to the search backend and classifies the outcome.
package search

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/aretw0/hearth/internal/logging"
	"github.com/aretw0/hearth/pkg/domain"
	"github.com/aretw0/hearth/pkg/ports"
)

// DefaultTimeout bounds a single search call.
const DefaultTimeout = 10 * time.Second

// Status classifies a settled search.
type Status string

const (
	StatusOK    Status = "ok"
	StatusEmpty Status = "empty"
	StatusError Status = "error"
	// StatusCancelled marks a search abandoned by its caller, e.g. superseded
	// by a newer search or a reset. Its result is never shown.
	StatusCancelled Status = domain.SearchCancelled
)

// Outcome is the classified result of one search.
type Outcome struct {
	Status   Status
	Matches  []domain.PropertyRef
	Request  domain.SearchRequest
	Duration time.Duration
	Err      error
}

// Event converts the outcome into the engine event for the given tokens.
func (o Outcome) Event(generation, searchID uint64) domain.Event {
	ev := domain.Event{Kind: domain.EventSearchSucceeded, Generation: generation, SearchID: searchID}
	switch o.Status {
	case StatusError, StatusCancelled:
		ev.Kind = domain.EventSearchFailed
	case StatusOK:
		ev.Matches = o.Matches
	}
	return ev
}

// Invoker runs searches against a ports.Searcher.
type Invoker struct {
	searcher         ports.Searcher
	timeout          time.Duration
	forwardAmenities bool
	logger           *slog.Logger
}

// Option configures the Invoker.
type Option func(*Invoker)

// WithTimeout bounds each search call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(i *Invoker) {
		i.timeout = d
	}
}

// WithForwardAmenities makes selected amenities part of the search filter.
// By default amenities are conversational context only.
func WithForwardAmenities(forward bool) Option {
	return func(i *Invoker) {
		i.forwardAmenities = forward
	}
}

// WithLogger configures a logger for the Invoker.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Invoker) {
		i.logger = logger
	}
}

// NewInvoker creates an invoker over searcher.
func NewInvoker(searcher ports.Searcher, opts ...Option) *Invoker {
	i := &Invoker{
		searcher: searcher,
		timeout:  DefaultTimeout,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Request builds the backend request. Open budget bounds become nil.
func (i *Invoker) Request(c domain.Criteria) domain.SearchRequest {
	req := domain.SearchRequest{
		Type: c.Type,
		City: c.City,
	}
	if c.Budget != nil {
		req.PriceMin, req.PriceMax = c.Budget.Bounds()
	}
	if i.forwardAmenities && len(c.Amenities) > 0 {
		req.Amenities = slices.Clone(c.Amenities)
	}
	return req
}

// Invoke runs one search. Failures are logged and classified, never returned.
// A search whose ctx is cancelled by the caller settles as StatusCancelled
// whatever the backend returned; a timeout is still StatusError.
func (i *Invoker) Invoke(ctx context.Context, c domain.Criteria) Outcome {
	req := i.Request(c)
	parent := ctx
	if i.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.timeout)
		defer cancel()
	}

	start := time.Now()
	results, err := i.searcher.Search(ctx, req)
	out := Outcome{Request: req, Duration: time.Since(start)}

	switch {
	case parent.Err() != nil:
		out.Status = StatusCancelled
		out.Err = parent.Err()
	case err != nil:
		out.Status = StatusError
		out.Err = err
		i.logger.Warn("search failed", "err", err, "type", req.Type, "city", req.City)
	case len(results) == 0:
		out.Status = StatusEmpty
	default:
		out.Status = StatusOK
		out.Matches = make([]domain.PropertyRef, 0, len(results))
		for _, p := range results {
			out.Matches = append(out.Matches, p.Ref())
		}
	}
	i.logger.Debug("search settled", "status", out.Status, "matches", len(out.Matches), "duration", out.Duration)
	return out
}
