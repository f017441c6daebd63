package hearth

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/hearth/internal/catalog"
	"github.com/aretw0/hearth/internal/runtime"
	"github.com/aretw0/hearth/pkg/adapters/memory"
	"github.com/aretw0/hearth/pkg/domain"
	"github.com/aretw0/hearth/pkg/ports"
	"github.com/aretw0/hearth/pkg/search"
	"github.com/aretw0/hearth/pkg/session"
)

// Assistant is the high-level entry point of the library.
// It wires the dialog engine, the search invoker and the session registry,
// and builds one session.Controller per conversation.
type Assistant struct {
	engine    *runtime.Engine
	invoker   *search.Invoker
	sessions  *session.Manager
	catalog   *catalog.Catalog
	searcher  ports.Searcher
	submitter ports.TicketSubmitter
	navigator ports.Navigator
	hooks     domain.LifecycleHooks
	logger    *slog.Logger

	submitTimeout time.Duration
	engineOpts    []runtime.EngineOption
	searchOpts    []search.Option
	managerOpts   []session.Option
}

// Option defines a functional option for configuring the Assistant.
type Option func(*Assistant)

// WithCatalog sets the option vocabulary (default: the embedded catalog).
func WithCatalog(c *catalog.Catalog) Option {
	return func(a *Assistant) {
		a.catalog = c
	}
}

// WithSearcher sets the property search backend.
func WithSearcher(s ports.Searcher) Option {
	return func(a *Assistant) {
		a.searcher = s
	}
}

// WithSubmitter sets the ticket backend.
func WithSubmitter(s ports.TicketSubmitter) Option {
	return func(a *Assistant) {
		a.submitter = s
	}
}

// Backend serves both searches and tickets.
type Backend interface {
	ports.Searcher
	ports.TicketSubmitter
}

// WithBackend sets one backend for searches and tickets.
func WithBackend(b Backend) Option {
	return func(a *Assistant) {
		a.searcher = b
		a.submitter = b
	}
}

// WithNavigator receives the navigations of every conversation.
func WithNavigator(n ports.Navigator) Option {
	return func(a *Assistant) {
		a.navigator = n
	}
}

// WithLifecycleHooks registers observability hooks. Repeated calls accumulate.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(a *Assistant) {
		a.hooks = a.hooks.Merge(hooks)
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Assistant) {
		a.logger = logger
	}
}

// WithPresentationDelay sets the pause before the greeting.
func WithPresentationDelay(d time.Duration) Option {
	return func(a *Assistant) {
		a.engineOpts = append(a.engineOpts, runtime.WithPresentationDelay(d))
	}
}

// WithReplyDelay sets a "typing" pause before bot replies.
func WithReplyDelay(d time.Duration) Option {
	return func(a *Assistant) {
		a.engineOpts = append(a.engineOpts, runtime.WithReplyDelay(d))
	}
}

// WithResultsRoute sets the host route the results options navigate to.
func WithResultsRoute(route string) Option {
	return func(a *Assistant) {
		a.engineOpts = append(a.engineOpts, runtime.WithResultsRoute(route))
	}
}

// WithSearchTimeout bounds each search call.
func WithSearchTimeout(d time.Duration) Option {
	return func(a *Assistant) {
		a.searchOpts = append(a.searchOpts, search.WithTimeout(d))
	}
}

// WithForwardAmenities makes selected amenities part of the search filter.
func WithForwardAmenities(forward bool) Option {
	return func(a *Assistant) {
		a.searchOpts = append(a.searchOpts, search.WithForwardAmenities(forward))
	}
}

// WithSubmitTimeout bounds each ticket submission.
func WithSubmitTimeout(d time.Duration) Option {
	return func(a *Assistant) {
		a.submitTimeout = d
	}
}

// WithArchive sets the store ended conversations are archived into.
func WithArchive(store ports.TranscriptStore) Option {
	return func(a *Assistant) {
		a.managerOpts = append(a.managerOpts, session.WithArchive(store))
	}
}

// WithLocker guards archive access across instances.
func WithLocker(locker ports.Locker) Option {
	return func(a *Assistant) {
		a.managerOpts = append(a.managerOpts, session.WithLocker(locker))
	}
}

// WithIdleTTL sets the idle time after which a conversation is evicted.
func WithIdleTTL(ttl time.Duration) Option {
	return func(a *Assistant) {
		a.managerOpts = append(a.managerOpts, session.WithIdleTTL(ttl))
	}
}

// New initializes an Assistant.
// Without a backend it searches the embedded sample listings and keeps
// tickets in memory.
func New(opts ...Option) *Assistant {
	a := &Assistant{
		submitTimeout: session.DefaultSubmitTimeout,
	}
	for _, opt := range opts {
		opt(a)
	}

	// Ensure logger is initialized (so we don't pass nil to the components)
	if a.logger == nil {
		a.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if a.catalog == nil {
		a.catalog = catalog.Default()
	}
	if a.searcher == nil {
		a.searcher = memory.NewListings(catalog.SampleListings()...)
	}
	if a.submitter == nil {
		a.submitter = memory.NewDesk()
	}

	a.engine = runtime.NewEngine(a.catalog, a.engineOpts...)
	a.invoker = search.NewInvoker(a.searcher, append([]search.Option{search.WithLogger(a.logger)}, a.searchOpts...)...)
	a.sessions = session.NewManager(a.NewConversation,
		append([]session.Option{session.WithLogger(a.logger)}, a.managerOpts...)...)
	return a
}

// NewConversation builds an unregistered controller; most callers want
// Sessions().GetOrCreate instead.
func (a *Assistant) NewConversation(sessionID string) *session.Controller {
	opts := []session.ControllerOption{
		session.WithInvoker(a.invoker),
		session.WithSubmitter(a.submitter),
		session.WithLifecycleHooks(a.hooks),
		session.WithControllerLogger(a.logger),
		session.WithSubmitTimeout(a.submitTimeout),
	}
	if a.navigator != nil {
		opts = append(opts, session.WithNavigator(a.navigator))
	}
	return session.NewController(sessionID, a.engine, opts...)
}

// Sessions returns the registry of live conversations.
func (a *Assistant) Sessions() *session.Manager {
	return a.sessions
}

// Catalog returns the option vocabulary.
func (a *Assistant) Catalog() *catalog.Catalog {
	return a.catalog
}

// Searcher returns the configured search backend.
func (a *Assistant) Searcher() ports.Searcher {
	return a.searcher
}

// Submitter returns the configured ticket backend.
func (a *Assistant) Submitter() ports.TicketSubmitter {
	return a.submitter
}

// Run evicts idle conversations every interval until ctx is done.
func (a *Assistant) Run(ctx context.Context, interval time.Duration) error {
	return a.sessions.Run(ctx, interval)
}

// Shutdown ends and archives every live conversation.
func (a *Assistant) Shutdown(ctx context.Context) error {
	return a.sessions.Shutdown(ctx)
}

// LoadCatalog reads a YAML or JSON catalog file for WithCatalog.
func LoadCatalog(path string) (*catalog.Catalog, error) {
	return catalog.Load(path)
}
