package runtime_test

import (
	"testing"
	"time"

	"github.com/aretw0/hearth/internal/runtime"
	"github.com/aretw0/hearth/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_OpenGreetsAfterPresentationDelay(t *testing.T) {
	e := runtime.NewEngine(nil, runtime.WithPresentationDelay(500*time.Millisecond))
	s := domain.NewState("s1")

	next, effects := e.Transition(s, ev(domain.EventOpen, ""))
	assert.Equal(t, domain.StepAccommodationType, next.Step)
	require.Len(t, effects, 1)
	require.Equal(t, domain.EffectDelay, effects[0].Kind)
	assert.Equal(t, 500*time.Millisecond, effects[0].Delay.Duration)
	assert.Equal(t, next.Generation, effects[0].Delay.Generation)

	greeting := effects[0].Delay.Then
	require.Equal(t, domain.EffectAppendMessage, greeting.Kind)
	assert.Equal(t, domain.RoleBot, greeting.Message.Role)
	assert.Equal(t, []string{"pg", "hostel", "flat", "room"}, optionValues(*greeting.Message))
	assert.Equal(t, domain.StepWelcome, s.Step, "input state must not be mutated")
}

func TestEngine_OpenOutsideWelcomeIsIgnored(t *testing.T) {
	e := newTestEngine()
	s, _ := step(t, e, domain.NewState("s1"), ev(domain.EventOpen, ""))

	next, effects, err := e.Apply(s, ev(domain.EventOpen, ""))
	assert.ErrorIs(t, err, runtime.ErrIgnoredEvent)
	assert.Empty(t, effects)
	assert.Equal(t, s, next)
}

func TestEngine_Determinism(t *testing.T) {
	e := newTestEngine()
	s := toAmenities(t, e)

	events := []domain.Event{
		ev(domain.EventSelectAmenity, "wifi"),
		ev(domain.EventSelectType, "flat"),
		ev(domain.EventText, "hello"),
		ev(domain.EventShowResults, ""),
		ev(domain.EventFeedback, ""),
		ev(domain.EventReset, ""),
	}
	for _, event := range events {
		a, effA := e.Transition(s, event)
		b, effB := e.Transition(s, event)
		assert.Equal(t, a, b, event.Kind)
		assert.Equal(t, effA, effB, event.Kind)
	}
}

func TestEngine_InvalidEventsNeverChangeState(t *testing.T) {
	e := newTestEngine()
	s := toAmenities(t, e)
	s, _ = step(t, e, s, ev(domain.EventSelectAmenity, "wifi"))

	invalidEvents := []domain.Event{
		ev(domain.EventSelectType, "pg"),
		ev(domain.EventSelectCity, "Pune"),
		ev(domain.EventSelectBudget, "0-5000"),
		ev(domain.EventSelectAmenity, "sauna"),
		ev(domain.EventRetry, ""),
		ev(domain.EventRestart, ""),
		ev(domain.EventResubmit, ""),
		ev(domain.EventText, "something"),
		{Kind: domain.EventSearchSucceeded, Generation: s.Generation, SearchID: s.SearchID},
	}
	for i := 0; i < 3; i++ {
		for _, event := range invalidEvents {
			next, _, err := e.Apply(s, event)
			assert.Error(t, err, event.Kind)
			assert.Equal(t, s, next, event.Kind)
		}
	}
}

func TestEngine_InvalidEventEchoesAndReprompts(t *testing.T) {
	e := newTestEngine()
	s, greeting := step(t, e, domain.NewState("s1"), ev(domain.EventOpen, ""))

	next, effects, err := e.Apply(s, ev(domain.EventText, "cheap rooms please"))
	var inv *runtime.InvalidEventError
	require.ErrorAs(t, err, &inv)
	assert.Equal(t, domain.StepAccommodationType, inv.Step)
	assert.Equal(t, domain.StepAccommodationType, next.Step)

	ds := drafts(effects)
	require.Len(t, ds, 2)
	assert.Equal(t, domain.Draft{Role: domain.RoleUser, Content: "cheap rooms please"}, ds[0])
	assert.Equal(t, lastBot(t, greeting), ds[1])
}

func TestEngine_UnknownCatalogValueIsInvalid(t *testing.T) {
	e := newTestEngine()
	s, _ := step(t, e, domain.NewState("s1"), ev(domain.EventOpen, ""))

	_, _, err := e.Apply(s, domain.Event{Kind: domain.EventSelectType, Value: "castle", Label: "Castle"})
	var inv *runtime.InvalidEventError
	require.ErrorAs(t, err, &inv)
	assert.Equal(t, "unknown type", inv.Reason)
}

func TestEngine_ResetTotality(t *testing.T) {
	e := newTestEngine()

	states := map[string]*domain.State{
		"welcome": domain.NewState("s1"),
		"amenities": func() *domain.State {
			s := toAmenities(t, e)
			s, _ = step(t, e, s, ev(domain.EventSelectAmenity, "ac"))
			return s
		}(),
		"escalation_email": func() *domain.State {
			s := toAmenities(t, e)
			s, _ = step(t, e, s, ev(domain.EventFeedback, ""), ev(domain.EventText, "Asha"))
			return s
		}(),
	}

	for name, s := range states {
		t.Run(name, func(t *testing.T) {
			s.Visible = true
			next, effects := e.Transition(s, ev(domain.EventReset, ""))

			assert.Equal(t, domain.StepWelcome, next.Step)
			assert.Empty(t, next.SelectedType)
			assert.Empty(t, next.SelectedCity)
			assert.Nil(t, next.SelectedBudget)
			assert.Empty(t, next.SelectedAmenities)
			assert.Nil(t, next.Contact)
			assert.Nil(t, next.Criteria)
			assert.Equal(t, s.Generation+1, next.Generation)
			assert.True(t, next.Visible)

			require.Len(t, effects, 2)
			assert.Equal(t, domain.EffectClearLog, effects[0].Kind)
			assert.Equal(t, []string{runtime.ValueStart}, optionValues(*effects[1].Message))
		})
	}
}

func TestEngine_StartOptionAfterResetGreets(t *testing.T) {
	e := newTestEngine()
	s, effects := step(t, e, toAmenities(t, e), ev(domain.EventReset, ""))
	start := effects[1].Message.Options[0]
	require.Equal(t, domain.CommandEvent, start.Action.Kind)

	next, effects := step(t, e, s, *start.Action.Event)
	assert.Equal(t, domain.StepAccommodationType, next.Step)
	ds := drafts(effects)
	require.Len(t, ds, 2)
	assert.Equal(t, "Start", ds[0].Content)
	assert.Equal(t, domain.RoleBot, ds[1].Role)
}

func TestEngine_ReplyDelay(t *testing.T) {
	e := newTestEngine(runtime.WithReplyDelay(300 * time.Millisecond))
	s, _ := step(t, e, domain.NewState("s1"), ev(domain.EventOpen, ""))

	_, effects := step(t, e, s, ev(domain.EventSelectType, "pg"))
	require.Len(t, effects, 2)
	assert.Equal(t, domain.EffectAppendMessage, effects[0].Kind, "echo is never delayed")
	assert.Equal(t, domain.EffectDelay, effects[1].Kind)
	assert.Equal(t, 300*time.Millisecond, effects[1].Delay.Duration)
}

func TestEngine_NilStateStartsAtWelcome(t *testing.T) {
	e := newTestEngine()
	next, effects := e.Transition(nil, ev(domain.EventOpen, ""))
	assert.Equal(t, domain.StepAccommodationType, next.Step)
	assert.NotEmpty(t, effects)
}
