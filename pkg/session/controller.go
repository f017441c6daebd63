package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/hearth/internal/logging"
	"github.com/aretw0/hearth/internal/runtime"
	"github.com/aretw0/hearth/pkg/domain"
	"github.com/aretw0/hearth/pkg/ports"
	"github.com/aretw0/hearth/pkg/search"
)

// DefaultSubmitTimeout bounds a single ticket submission.
const DefaultSubmitTimeout = 10 * time.Second

// errNoBackend is reported when a controller was built without a searcher or submitter.
var errNoBackend = errors.New("no backend configured")

// Update is pushed to subscribers after every change of a conversation.
type Update struct {
	SessionID string            `json:"session_id"`
	Diff      *domain.StateDiff `json:"diff,omitempty"`
	// Cleared is set when the log was emptied before Messages were appended.
	Cleared  bool             `json:"cleared,omitempty"`
	Messages []domain.Message `json:"messages,omitempty"`
}

func (u Update) isEmpty() bool {
	return u.Diff == nil && !u.Cleared && len(u.Messages) == 0
}

// Snapshot is a consistent copy of a conversation.
type Snapshot struct {
	State    *domain.State    `json:"state"`
	Messages []domain.Message `json:"messages"`
	// Pending is set while delayed replies or async effects are outstanding.
	Pending bool `json:"pending"`
}

// Controller owns one conversation for the lifetime of the widget.
type Controller struct {
	id            string
	engine        *runtime.Engine
	invoker       *search.Invoker
	submitter     ports.TicketSubmitter
	navigator     ports.Navigator
	scheduler     Scheduler
	hooks         domain.LifecycleHooks
	logger        *slog.Logger
	submitTimeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu           sync.Mutex
	state        *domain.State
	log          *domain.MessageLog
	queue        []domain.Event
	timers       map[uint64]func() bool
	nextTimer    uint64
	inflight     int
	idle         chan struct{}
	searchCancel context.CancelFunc
	subs         map[chan Update]struct{}
	destroyed    bool
	startedAt    time.Time
	lastActive   time.Time

	// outbox holds hook calls deferred until the mutex is released.
	outbox []func()
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithInvoker sets the search invoker.
func WithInvoker(inv *search.Invoker) ControllerOption {
	return func(c *Controller) {
		c.invoker = inv
	}
}

// WithSubmitter sets the ticket submitter used by the escalation flow.
func WithSubmitter(s ports.TicketSubmitter) ControllerOption {
	return func(c *Controller) {
		c.submitter = s
	}
}

// WithNavigator sets the host navigator for results options.
func WithNavigator(n ports.Navigator) ControllerOption {
	return func(c *Controller) {
		c.navigator = n
	}
}

// WithScheduler replaces the timer source of delayed replies.
func WithScheduler(s Scheduler) ControllerOption {
	return func(c *Controller) {
		c.scheduler = s
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) ControllerOption {
	return func(c *Controller) {
		c.hooks = hooks
	}
}

// WithControllerLogger configures a logger for the Controller.
func WithControllerLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithSubmitTimeout bounds each ticket submission.
func WithSubmitTimeout(d time.Duration) ControllerOption {
	return func(c *Controller) {
		c.submitTimeout = d
	}
}

// NewController creates a closed conversation at the welcome step.
func NewController(id string, engine *runtime.Engine, opts ...ControllerOption) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	now := time.Now()
	c := &Controller{
		id:            id,
		engine:        engine,
		scheduler:     RealScheduler,
		logger:        logging.NewNop(),
		submitTimeout: DefaultSubmitTimeout,
		ctx:           ctx,
		cancel:        cancel,
		state:         domain.NewState(id),
		log:           domain.NewMessageLog(),
		timers:        make(map[uint64]func() bool),
		subs:          make(map[chan Update]struct{}),
		startedAt:     now,
		lastActive:    now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.engine == nil {
		c.engine = runtime.NewEngine(nil)
	}
	if c.invoker == nil {
		c.invoker = search.NewInvoker(noBackend{})
	}
	if c.submitter == nil {
		c.submitter = noBackend{}
	}
	return c
}

// ID returns the session ID.
func (c *Controller) ID() string { return c.id }

// run executes fn under the mutex, then delivers the deferred hook calls.
func (c *Controller) run(fn func() error) error {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return domain.ErrControllerDestroyed
	}
	err := fn()
	outbox := c.outbox
	c.outbox = nil
	c.mu.Unlock()

	for _, f := range outbox {
		f()
	}
	return err
}

// Open shows the widget. The first open starts the conversation.
func (c *Controller) Open() error {
	return c.run(func() error {
		c.open()
		return nil
	})
}

// Close hides the widget. The conversation is kept and resumes on Open.
func (c *Controller) Close() error {
	return c.run(func() error {
		c.setVisible(false)
		return nil
	})
}

// Toggle flips the widget visibility.
func (c *Controller) Toggle() error {
	return c.run(func() error {
		if c.state.Visible {
			c.setVisible(false)
			return nil
		}
		c.open()
		return nil
	})
}

// open must be called with mu held.
func (c *Controller) open() {
	c.setVisible(true)
	if c.state.Step == domain.StepWelcome && c.log.Len() == 0 {
		c.handle(domain.Event{Kind: domain.EventOpen})
	}
}

// Reset discards the conversation and pending effects and reseeds the welcome entry.
func (c *Controller) Reset() error {
	return c.run(func() error {
		c.reset()
		return nil
	})
}

// HandleOptionSelect dispatches the command bound to the newest option with value.
// A value without a binding is logged and ignored.
func (c *Controller) HandleOptionSelect(ctx context.Context, value string) error {
	return c.run(func() error {
		opt, ok := c.log.FindOption(value)
		if !ok || opt.Action == nil {
			c.logger.Warn("option has no binding", "session_id", c.id, "value", value)
			return nil
		}

		cmd := opt.Action
		switch {
		case cmd.Kind == domain.CommandEvent && cmd.Event != nil:
			if cmd.Event.Kind == domain.EventReset {
				c.reset()
				return nil
			}
			c.handle(*cmd.Event)
		case cmd.Kind == domain.CommandNavigate && cmd.Navigate != nil:
			target := *cmd.Navigate
			c.touch()
			c.outbox = append(c.outbox, func() { c.navigate(ctx, target) })
		case cmd.Kind == domain.CommandClose:
			c.setVisible(false)
		default:
			c.logger.Warn("malformed option binding", "session_id", c.id, "value", value, "kind", cmd.Kind)
		}
		return nil
	})
}

// HandleTextSubmit sanitizes free text and dispatches it.
// Sanitizer errors are returned and nothing is dispatched.
func (c *Controller) HandleTextSubmit(ctx context.Context, text string) error {
	clean, err := SanitizeInput(text)
	if err != nil {
		return err
	}
	return c.run(func() error {
		c.handle(domain.Event{Kind: domain.EventText, Value: clean})
		return nil
	})
}

// Snapshot returns a copy of the state and the log.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		State:    c.state.Clone(),
		Messages: c.log.Since(0),
		Pending:  c.inflight > 0,
	}
}

// Messages returns the entries appended after the entry with ID since.
func (c *Controller) Messages(since int64) []domain.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.log.Since(since)
}

// Visible reports whether the widget is shown.
func (c *Controller) Visible() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Visible
}

// LastActive returns the time of the last visitor action or settled effect.
func (c *Controller) LastActive() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActive
}

// Transcript returns the archivable record of the conversation.
func (c *Controller) Transcript() *domain.Transcript {
	c.mu.Lock()
	defer c.mu.Unlock()
	return &domain.Transcript{
		SessionID: c.id,
		State:     c.state.Clone(),
		Messages:  c.log.Since(0),
		StartedAt: c.startedAt,
		EndedAt:   time.Now(),
	}
}

// Subscribe returns a channel of updates and a function to stop receiving them.
// Slow subscribers miss updates rather than block the conversation.
func (c *Controller) Subscribe() (<-chan Update, func()) {
	ch := make(chan Update, 32)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		close(ch)
		return ch, func() {}
	}
	c.subs[ch] = struct{}{}

	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if _, ok := c.subs[ch]; ok {
			delete(c.subs, ch)
			close(ch)
		}
	}
}

// Wait blocks until no delayed reply or async effect is outstanding.
func (c *Controller) Wait(ctx context.Context) error {
	for {
		c.mu.Lock()
		if c.inflight == 0 {
			c.mu.Unlock()
			return nil
		}
		idle := c.idle
		c.mu.Unlock()

		select {
		case <-idle:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Destroy cancels every pending effect and closes the subscriptions.
// Later calls return domain.ErrControllerDestroyed.
func (c *Controller) Destroy() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return
	}
	c.destroyed = true
	c.stopTimers()
	c.queue = nil
	c.cancel()
	for ch := range c.subs {
		close(ch)
	}
	c.subs = nil
}

// -- Locked helpers --

// handle applies ev, or queues it while delayed replies are pending so that
// replies keep their place in the log.
func (c *Controller) handle(ev domain.Event) {
	if len(c.timers) > 0 {
		c.queue = append(c.queue, ev)
		return
	}
	c.apply(ev)
}

func (c *Controller) apply(ev domain.Event) {
	prev := c.state
	next, effects, err := c.engine.Apply(prev, ev)
	if err != nil {
		c.logger.Debug("event not applied",
			"session_id", c.id,
			"step", prev.Step,
			"event", ev.Kind,
			"err", err,
		)
	}
	c.state = next
	c.touch()

	u := Update{SessionID: c.id}
	for _, eff := range effects {
		c.perform(eff, &u)
	}
	c.emit(prev, ev.Kind, u)
}

func (c *Controller) reset() {
	c.stopTimers()
	c.queue = nil
	if c.searchCancel != nil {
		c.searchCancel()
		c.searchCancel = nil
	}
	c.apply(domain.Event{Kind: domain.EventReset})
}

func (c *Controller) setVisible(visible bool) {
	if c.state.Visible == visible {
		return
	}
	prev := c.state
	next := prev.Clone()
	next.Visible = visible
	c.state = next
	c.touch()
	c.emit(prev, "", Update{SessionID: c.id})
}

func (c *Controller) touch() {
	c.lastActive = time.Now()
}

// emit publishes the update and schedules the step hook.
func (c *Controller) emit(prev *domain.State, cause domain.EventKind, u Update) {
	u.Diff = domain.Diff(prev, c.state)
	if !u.isEmpty() {
		for ch := range c.subs {
			select {
			case ch <- u:
			default:
				c.logger.Warn("subscriber buffer full, dropping update", "session_id", c.id)
			}
		}
	}

	if prev.Step != c.state.Step && c.hooks.OnStepChange != nil {
		ev := &domain.StepEvent{
			HookBase: c.hookBase(domain.HookStepChange),
			From:     prev.Step,
			To:       c.state.Step,
			Cause:    cause,
		}
		hook := c.hooks.OnStepChange
		c.outbox = append(c.outbox, func() { hook(c.ctx, ev) })
	}
}

func (c *Controller) hookBase(t domain.HookType) domain.HookBase {
	return domain.HookBase{Timestamp: time.Now(), Type: t, SessionID: c.id}
}

func (c *Controller) begin() {
	if c.inflight == 0 {
		c.idle = make(chan struct{})
	}
	c.inflight++
}

func (c *Controller) release() {
	c.inflight--
	if c.inflight == 0 {
		close(c.idle)
	}
}

func (c *Controller) stopTimers() {
	for id, stop := range c.timers {
		stop()
		delete(c.timers, id)
		c.release()
	}
}

// drain applies queued events once no delayed reply is pending.
func (c *Controller) drain() {
	for len(c.timers) == 0 && len(c.queue) > 0 {
		ev := c.queue[0]
		c.queue = c.queue[1:]
		c.apply(ev)
	}
}
