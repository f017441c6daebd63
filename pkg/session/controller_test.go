package session_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/hearth/internal/runtime"
	"github.com/aretw0/hearth/pkg/domain"
	"github.com/aretw0/hearth/pkg/search"
	"github.com/aretw0/hearth/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSearcher struct {
	results []domain.PropertySummary
	err     error
}

func (s staticSearcher) Search(context.Context, domain.SearchRequest) ([]domain.PropertySummary, error) {
	return s.results, s.err
}

// gatedSearcher blocks every call until the test releases it.
type gatedSearcher struct {
	mu      sync.Mutex
	gates   []chan []domain.PropertySummary
	started chan struct{}
}

func newGatedSearcher() *gatedSearcher {
	return &gatedSearcher{started: make(chan struct{}, 8)}
}

func (g *gatedSearcher) Search(_ context.Context, _ domain.SearchRequest) ([]domain.PropertySummary, error) {
	gate := make(chan []domain.PropertySummary, 1)
	g.mu.Lock()
	g.gates = append(g.gates, gate)
	g.mu.Unlock()
	g.started <- struct{}{}
	return <-gate, nil
}

func (g *gatedSearcher) release(i int, results []domain.PropertySummary) {
	g.mu.Lock()
	gate := g.gates[i]
	g.mu.Unlock()
	gate <- results
}

type recordingSubmitter struct {
	mu      sync.Mutex
	tickets []domain.Ticket
	fail    int
}

func (r *recordingSubmitter) Submit(_ context.Context, t domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tickets = append(r.tickets, t)
	if r.fail > 0 {
		r.fail--
		return errors.New("desk unavailable")
	}
	return nil
}

func (r *recordingSubmitter) submitted() []domain.Ticket {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Ticket(nil), r.tickets...)
}

func newController(opts ...session.ControllerOption) *session.Controller {
	engine := runtime.NewEngine(nil, runtime.WithPresentationDelay(0))
	return session.NewController("s1", engine, opts...)
}

func walk(t *testing.T, c *session.Controller, values ...string) {
	t.Helper()
	for _, v := range values {
		require.NoError(t, c.HandleOptionSelect(context.Background(), v))
	}
}

func say(t *testing.T, c *session.Controller, texts ...string) {
	t.Helper()
	for _, v := range texts {
		require.NoError(t, c.HandleTextSubmit(context.Background(), v))
	}
}

func wait(t *testing.T, c *session.Controller) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, c.Wait(ctx))
}

func lastBot(t *testing.T, msgs []domain.Message) domain.Message {
	t.Helper()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == domain.RoleBot {
			return msgs[i]
		}
	}
	t.Fatal("no bot message")
	return domain.Message{}
}

func values(m domain.Message) []string {
	out := make([]string, 0, len(m.Options))
	for _, o := range m.Options {
		out = append(out, o.Value)
	}
	return out
}

func TestController_OpenWaitsForPresentationDelay(t *testing.T) {
	sched := session.NewManualScheduler()
	engine := runtime.NewEngine(nil, runtime.WithPresentationDelay(500*time.Millisecond))
	c := session.NewController("s1", engine, session.WithScheduler(sched))

	require.NoError(t, c.Open())
	snap := c.Snapshot()
	assert.True(t, snap.State.Visible)
	assert.Equal(t, domain.StepAccommodationType, snap.State.Step)
	assert.Empty(t, snap.Messages)
	assert.True(t, snap.Pending)

	sched.Advance(499 * time.Millisecond)
	assert.Empty(t, c.Messages(0))

	sched.Advance(time.Millisecond)
	msgs := c.Messages(0)
	require.Len(t, msgs, 1)
	assert.Contains(t, values(msgs[0]), "pg")
	assert.False(t, c.Snapshot().Pending)
}

func TestController_EventsQueueBehindDelayedReplies(t *testing.T) {
	sched := session.NewManualScheduler()
	engine := runtime.NewEngine(nil, runtime.WithPresentationDelay(time.Second))
	c := session.NewController("s1", engine, session.WithScheduler(sched))

	require.NoError(t, c.Open())
	say(t, c, "hello?")
	assert.Empty(t, c.Messages(0), "the text waits for the greeting")

	sched.Advance(time.Second)
	msgs := c.Messages(0)
	require.Len(t, msgs, 3)
	assert.Equal(t, domain.RoleBot, msgs[0].Role)
	assert.Equal(t, domain.Message{ID: 2, Role: domain.RoleUser, Content: "hello?"}, msgs[1])
	assert.Equal(t, msgs[0].Content, msgs[2].Content, "the invalid text re-emits the prompt")
}

func TestController_ReopenResumes(t *testing.T) {
	c := newController()
	require.NoError(t, c.Open())
	walk(t, c, "pg")
	require.NoError(t, c.Close())
	assert.False(t, c.Snapshot().State.Visible)

	require.NoError(t, c.Toggle())
	snap := c.Snapshot()
	assert.True(t, snap.State.Visible)
	assert.Equal(t, domain.StepCity, snap.State.Step)
	assert.Len(t, snap.Messages, 3)
}

func TestController_SearchAndNavigate(t *testing.T) {
	var targets []domain.NavigateTarget
	nav := func(_ context.Context, sessionID string, target domain.NavigateTarget) error {
		assert.Equal(t, "s1", sessionID)
		targets = append(targets, target)
		return nil
	}
	searcher := staticSearcher{results: []domain.PropertySummary{{ID: "p1"}, {ID: "p2"}}}
	c := newController(
		session.WithInvoker(search.NewInvoker(searcher)),
		session.WithNavigator(portsNavigator(nav)),
	)

	require.NoError(t, c.Open())
	walk(t, c, "flat", "Pune", "10000-20000", "wifi", "show_results")
	wait(t, c)

	snap := c.Snapshot()
	assert.Equal(t, domain.StepResults, snap.State.Step)
	assert.Equal(t, 2, snap.State.Matches)
	bot := lastBot(t, snap.Messages)
	assert.Contains(t, bot.Content, "2 properties")

	walk(t, c, "view")
	require.Len(t, targets, 1)
	assert.Equal(t, map[string]string{"type": "flat", "city": "Pune", "price_min": "10000", "price_max": "20000"}, targets[0].Params)
	assert.Len(t, c.Messages(0), len(snap.Messages), "navigation does not touch the log")
}

func TestController_StaleSearchIsDropped(t *testing.T) {
	g := newGatedSearcher()
	c := newController(session.WithInvoker(search.NewInvoker(g, search.WithTimeout(0))))

	require.NoError(t, c.Open())
	walk(t, c, "pg", "Pune", "0-5000", "skip")
	<-g.started // search A

	require.NoError(t, c.Reset())
	walk(t, c, "start", "flat", "Mumbai", "20000-999999", "skip")
	<-g.started // search B

	g.release(1, nil)
	require.Eventually(t, func() bool {
		return c.Snapshot().State.Step == domain.StepResults
	}, 2*time.Second, 5*time.Millisecond)

	g.release(0, []domain.PropertySummary{{ID: "a1"}, {ID: "a2"}, {ID: "a3"}})
	wait(t, c)

	snap := c.Snapshot()
	assert.Equal(t, 0, snap.State.Matches)
	assert.Equal(t, "flat", snap.State.SelectedType)
	assert.Equal(t, []string{"browse_all", "restart", "feedback"}, values(lastBot(t, snap.Messages)))
	for _, m := range snap.Messages {
		assert.NotContains(t, m.Content, "3 properties")
	}
}

// searchLog records settled searches in hook order.
type searchLog struct {
	mu     sync.Mutex
	events []domain.SearchEvent
}

func (l *searchLog) hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnSearch: func(_ context.Context, e *domain.SearchEvent) {
			l.mu.Lock()
			defer l.mu.Unlock()
			l.events = append(l.events, *e)
		},
	}
}

func (l *searchLog) outcomes() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.events))
	for _, e := range l.events {
		out = append(out, e.Outcome)
	}
	return out
}

func TestController_ShowResultsWhileSearchingSupersedes(t *testing.T) {
	g := newGatedSearcher()
	var searches searchLog
	c := newController(
		session.WithInvoker(search.NewInvoker(g, search.WithTimeout(0))),
		session.WithLifecycleHooks(searches.hooks()),
	)

	require.NoError(t, c.Open())
	walk(t, c, "pg", "Pune", "0-5000", "wifi", "show_results")
	<-g.started
	firstID := c.Snapshot().State.SearchID

	walk(t, c, "show_results")
	<-g.started
	secondID := c.Snapshot().State.SearchID
	require.Greater(t, secondID, firstID)
	assert.Equal(t, domain.StepSearching, c.Snapshot().State.Step)

	g.release(1, []domain.PropertySummary{{ID: "b1"}})
	require.Eventually(t, func() bool {
		return c.Snapshot().State.Step == domain.StepResults
	}, 2*time.Second, 5*time.Millisecond)

	g.release(0, []domain.PropertySummary{{ID: "a1"}, {ID: "a2"}, {ID: "a3"}})
	wait(t, c)

	snap := c.Snapshot()
	assert.Equal(t, 1, snap.State.Matches)
	assert.Equal(t, []string{"view", "restart", "feedback"}, values(lastBot(t, snap.Messages)))
	for _, m := range snap.Messages {
		assert.NotContains(t, m.Content, "3 properties")
	}
	assert.Equal(t, []string{"ok", domain.SearchCancelled}, searches.outcomes())
	searches.mu.Lock()
	assert.Equal(t, secondID, searches.events[0].SearchID)
	assert.Equal(t, firstID, searches.events[1].SearchID)
	searches.mu.Unlock()
}

func TestController_ResetReportsCancelledSearch(t *testing.T) {
	g := newGatedSearcher()
	var searches searchLog
	c := newController(
		session.WithInvoker(search.NewInvoker(g, search.WithTimeout(0))),
		session.WithLifecycleHooks(searches.hooks()),
	)

	require.NoError(t, c.Open())
	walk(t, c, "pg", "Pune", "0-5000", "skip")
	<-g.started

	require.NoError(t, c.Reset())
	g.release(0, nil)
	wait(t, c)

	assert.Equal(t, []string{domain.SearchCancelled}, searches.outcomes())
	searches.mu.Lock()
	assert.ErrorIs(t, searches.events[0].Err, context.Canceled)
	searches.mu.Unlock()
	assert.Equal(t, domain.StepWelcome, c.Snapshot().State.Step)
}

func TestController_ToggleIsAtomic(t *testing.T) {
	c := newController()

	const n = 64
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, c.Toggle())
		}()
	}
	wg.Wait()
	wait(t, c)

	snap := c.Snapshot()
	assert.False(t, snap.State.Visible, "an even number of toggles leaves the widget closed")
	bots := 0
	for _, m := range snap.Messages {
		if m.Role == domain.RoleBot {
			bots++
		}
	}
	assert.Equal(t, 1, bots, "only the first open greets")
}

func TestController_EscalationWithRetry(t *testing.T) {
	desk := &recordingSubmitter{fail: 1}
	c := newController(
		session.WithInvoker(search.NewInvoker(staticSearcher{})),
		session.WithSubmitter(desk),
	)

	require.NoError(t, c.Open())
	walk(t, c, "pg", "Pune", "0-5000", "skip")
	wait(t, c)
	assert.Equal(t, []string{"browse_all", "restart", "feedback"}, values(lastBot(t, c.Messages(0))))

	walk(t, c, "feedback")
	say(t, c, "Asha", "asha@x.com", "need AC room")
	wait(t, c)

	snap := c.Snapshot()
	assert.Equal(t, domain.StepEscalationProblem, snap.State.Step)
	assert.Equal(t, []string{"resubmit"}, values(lastBot(t, snap.Messages)))

	walk(t, c, "resubmit")
	wait(t, c)

	snap = c.Snapshot()
	assert.Equal(t, domain.StepEscalationComplete, snap.State.Step)
	want := domain.Ticket{Name: "Asha", Email: "asha@x.com", LookingFor: "pg", Problem: "need AC room"}
	assert.Equal(t, []domain.Ticket{want, want}, desk.submitted())

	walk(t, c, "close")
	assert.False(t, c.Snapshot().State.Visible)
}

func TestController_UnknownOptionIsNoop(t *testing.T) {
	c := newController()
	require.NoError(t, c.Open())
	before := c.Snapshot()

	require.NoError(t, c.HandleOptionSelect(context.Background(), "does-not-exist"))
	assert.Equal(t, before, c.Snapshot())
}

func TestController_TextIsSanitized(t *testing.T) {
	c := newController()
	require.NoError(t, c.Open())

	err := c.HandleTextSubmit(context.Background(), strings.Repeat("x", session.DefaultMaxInputSize+1))
	assert.ErrorIs(t, err, session.ErrInputTooLarge)

	say(t, c, "hi\x1b there")
	msgs := c.Messages(0)
	assert.Equal(t, "hi there", msgs[1].Content)
}

func TestController_ResetReseedsWelcome(t *testing.T) {
	c := newController()
	require.NoError(t, c.Open())
	walk(t, c, "pg", "Pune")
	lastID := lastBot(t, c.Messages(0)).ID

	require.NoError(t, c.Reset())
	snap := c.Snapshot()
	assert.Equal(t, domain.StepWelcome, snap.State.Step)
	require.Len(t, snap.Messages, 1)
	assert.Greater(t, snap.Messages[0].ID, lastID, "ids keep increasing across a clear")
	assert.Equal(t, []string{"start"}, values(snap.Messages[0]))
	assert.True(t, snap.State.Visible)
}

func TestController_SubscribeAndHooks(t *testing.T) {
	var mu sync.Mutex
	var steps []domain.Step
	var messages int
	hooks := domain.LifecycleHooks{
		OnStepChange: func(_ context.Context, e *domain.StepEvent) {
			mu.Lock()
			defer mu.Unlock()
			steps = append(steps, e.To)
		},
		OnMessage: func(_ context.Context, _ *domain.MessageEvent) {
			mu.Lock()
			defer mu.Unlock()
			messages++
		},
	}
	c := newController(session.WithLifecycleHooks(hooks))
	updates, cancel := c.Subscribe()
	defer cancel()

	require.NoError(t, c.Open())
	walk(t, c, "pg")

	first := <-updates // visibility
	require.NotNil(t, first.Diff)
	require.NotNil(t, first.Diff.Visible)
	assert.True(t, *first.Diff.Visible)

	greeting := <-updates
	require.Len(t, greeting.Messages, 1)
	require.NotNil(t, greeting.Diff.Step)
	assert.Equal(t, domain.StepAccommodationType, *greeting.Diff.Step)

	pick := <-updates
	assert.Len(t, pick.Messages, 2)
	assert.Equal(t, "pg", pick.Diff.Fields["selected_type"])

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []domain.Step{domain.StepAccommodationType, domain.StepCity}, steps)
	assert.Equal(t, 3, messages)
}

func TestController_Destroy(t *testing.T) {
	c := newController()
	updates, _ := c.Subscribe()
	c.Destroy()
	c.Destroy()

	_, open := <-updates
	assert.False(t, open)
	assert.ErrorIs(t, c.Open(), domain.ErrControllerDestroyed)
	assert.ErrorIs(t, c.HandleTextSubmit(context.Background(), "hi"), domain.ErrControllerDestroyed)
}
