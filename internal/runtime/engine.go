package runtime

import (
	"errors"
	"strings"
	"time"

	"github.com/aretw0/hearth/internal/catalog"
	"github.com/aretw0/hearth/pkg/domain"
)

// DefaultPresentationDelay paces the greeting after the widget opens.
const DefaultPresentationDelay = 600 * time.Millisecond

// DefaultResultsRoute is the host route the "view" options navigate to.
const DefaultResultsRoute = "/properties"

// ErrIgnoredEvent is reported for events that are silently dropped,
// such as a reopen outside the welcome step.
var ErrIgnoredEvent = errors.New("event ignored")

// Engine is the dialog state machine.
// It is a pure function of (state, event): it performs no I/O and returns
// the effects the host must carry out.
type Engine struct {
	catalog           *catalog.Catalog
	presentationDelay time.Duration
	replyDelay        time.Duration
	resultsRoute      string
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithPresentationDelay sets the pause before the greeting.
func WithPresentationDelay(d time.Duration) EngineOption {
	return func(e *Engine) {
		e.presentationDelay = d
	}
}

// WithReplyDelay sets a "typing" pause before bot replies to visitor input.
// Zero (the default) appends replies immediately.
func WithReplyDelay(d time.Duration) EngineOption {
	return func(e *Engine) {
		e.replyDelay = d
	}
}

// WithResultsRoute sets the route used by the view and browse-all options.
func WithResultsRoute(route string) EngineOption {
	return func(e *Engine) {
		e.resultsRoute = route
	}
}

// NewEngine creates an engine over the given catalog (nil means the default one).
func NewEngine(cat *catalog.Catalog, opts ...EngineOption) *Engine {
	if cat == nil {
		cat = catalog.Default()
	}
	e := &Engine{
		catalog:           cat,
		presentationDelay: DefaultPresentationDelay,
		resultsRoute:      DefaultResultsRoute,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Catalog returns the option vocabulary the engine validates against.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// Transition computes the next state and the effects for ev.
// It never fails: an event the current step does not accept leaves the
// state untouched and re-emits the last prompt.
func (e *Engine) Transition(state *domain.State, ev domain.Event) (*domain.State, []domain.Effect) {
	next, effects, _ := e.Apply(state, ev)
	return next, effects
}

// Apply is Transition that also reports why an event was rejected:
// *InvalidEventError, ErrStaleResult or ErrIgnoredEvent. The returned state
// and effects are the same as Transition's.
func (e *Engine) Apply(state *domain.State, ev domain.Event) (*domain.State, []domain.Effect, error) {
	if state == nil {
		state = domain.NewState("")
	}
	next := state.Clone()

	effects, err := e.dispatch(next, ev)
	if err == nil {
		return next, effects, nil
	}

	var inv *InvalidEventError
	if errors.As(err, &inv) {
		return state.Clone(), e.reprompt(state, ev, inv), err
	}
	return state.Clone(), nil, err
}

func (e *Engine) dispatch(s *domain.State, ev domain.Event) ([]domain.Effect, error) {
	switch ev.Kind {
	case domain.EventReset:
		return e.reset(s), nil
	case domain.EventOpen:
		return e.open(s, ev)
	case domain.EventRestart:
		return e.restart(s, ev)
	case domain.EventFeedback:
		return e.feedback(s, ev)
	case domain.EventSearchSucceeded, domain.EventSearchFailed:
		return e.searchSettled(s, ev)
	case domain.EventSubmitSucceeded, domain.EventSubmitFailed:
		return e.submitSettled(s, ev)
	}

	switch s.Step {
	case domain.StepAccommodationType:
		return e.selectType(s, ev)
	case domain.StepCity:
		return e.selectCity(s, ev)
	case domain.StepBudget:
		return e.selectBudget(s, ev)
	case domain.StepAmenities:
		return e.amenities(s, ev)
	case domain.StepSearching:
		return e.searching(s, ev)
	case domain.StepResults:
		return e.results(s, ev)
	case domain.StepEscalationName, domain.StepEscalationEmail, domain.StepEscalationProblem:
		return e.escalation(s, ev)
	}
	return nil, invalid(s, ev, "")
}

// ask records the prompt and returns the bot message carrying it.
func (e *Engine) ask(s *domain.State, content string, options ...domain.Option) domain.Effect {
	s.Prompt = &domain.Prompt{Content: content, Options: options}
	return e.reply(s, domain.AppendBot(content, options...))
}

// say returns a bot message that does not replace the prompt.
func (e *Engine) say(s *domain.State, content string, options ...domain.Option) domain.Effect {
	return e.reply(s, domain.AppendBot(content, options...))
}

func (e *Engine) reply(s *domain.State, eff domain.Effect) domain.Effect {
	if e.replyDelay <= 0 {
		return eff
	}
	return domain.Delay(e.replyDelay, s.Generation, eff)
}

// echo returns the user entry for ev, if it carries visitor content.
func echo(ev domain.Event) (domain.Effect, bool) {
	if ev.IsAsyncResult() || ev.Kind == domain.EventReset {
		return domain.Effect{}, false
	}
	content := ev.Label
	if content == "" && ev.Kind != domain.EventOpen {
		content = ev.Value
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return domain.Effect{}, false
	}
	return domain.AppendUser(content), true
}

func withEcho(ev domain.Event, effects ...domain.Effect) []domain.Effect {
	if u, ok := echo(ev); ok {
		return append([]domain.Effect{u}, effects...)
	}
	return effects
}

func (e *Engine) reprompt(s *domain.State, ev domain.Event, inv *InvalidEventError) []domain.Effect {
	var bot domain.Effect
	switch {
	case inv.reply != "":
		bot = e.say(s, inv.reply)
	case s.Prompt != nil:
		bot = e.say(s, s.Prompt.Content, s.Prompt.Options...)
	default:
		bot = e.say(s, msgNoPromptYet)
	}
	return withEcho(ev, bot)
}

// fresh clears every accumulated field and starts a new generation.
func fresh(s *domain.State) {
	*s = domain.State{
		SessionID:  s.SessionID,
		Step:       domain.StepWelcome,
		Generation: s.Generation + 1,
		SearchID:   s.SearchID,
		Visible:    s.Visible,
	}
}

func (e *Engine) reset(s *domain.State) []domain.Effect {
	fresh(s)
	s.Prompt = &domain.Prompt{Content: msgWelcome, Options: []domain.Option{startOption()}}
	return []domain.Effect{
		domain.ClearLog(),
		domain.AppendBot(msgWelcome, startOption()),
	}
}

func (e *Engine) greet(s *domain.State) domain.Effect {
	s.Step = domain.StepAccommodationType
	options := e.typeOptions()
	s.Prompt = &domain.Prompt{Content: msgGreeting, Options: options}
	return domain.Delay(e.presentationDelay, s.Generation, domain.AppendBot(msgGreeting, options...))
}

func (e *Engine) open(s *domain.State, ev domain.Event) ([]domain.Effect, error) {
	if s.Step != domain.StepWelcome {
		return nil, ErrIgnoredEvent
	}
	return withEcho(ev, e.greet(s)), nil
}

func (e *Engine) restart(s *domain.State, ev domain.Event) ([]domain.Effect, error) {
	if s.Step != domain.StepResults && s.Step != domain.StepEscalationComplete {
		return nil, invalid(s, ev, "")
	}
	fresh(s)
	return []domain.Effect{domain.ClearLog(), e.greet(s)}, nil
}
