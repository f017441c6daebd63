package runtime_test

import (
	"testing"

	"github.com/aretw0/hearth/internal/runtime"
	"github.com/aretw0/hearth/pkg/domain"
	"github.com/stretchr/testify/require"
)

func newTestEngine(opts ...runtime.EngineOption) *runtime.Engine {
	return runtime.NewEngine(nil, append([]runtime.EngineOption{runtime.WithPresentationDelay(0)}, opts...)...)
}

// flatten unwraps delay effects, keeping order.
func flatten(effects []domain.Effect) []domain.Effect {
	var out []domain.Effect
	for _, eff := range effects {
		if eff.Kind == domain.EffectDelay {
			out = append(out, flatten([]domain.Effect{eff.Delay.Then})...)
			continue
		}
		out = append(out, eff)
	}
	return out
}

func drafts(effects []domain.Effect) []domain.Draft {
	var out []domain.Draft
	for _, eff := range flatten(effects) {
		if eff.Kind == domain.EffectAppendMessage {
			out = append(out, *eff.Message)
		}
	}
	return out
}

func lastBot(t *testing.T, effects []domain.Effect) domain.Draft {
	t.Helper()
	ds := drafts(effects)
	for i := len(ds) - 1; i >= 0; i-- {
		if ds[i].Role == domain.RoleBot {
			return ds[i]
		}
	}
	t.Fatalf("no bot message in %v", effects)
	return domain.Draft{}
}

func optionValues(d domain.Draft) []string {
	values := make([]string, 0, len(d.Options))
	for _, o := range d.Options {
		values = append(values, o.Value)
	}
	return values
}

func findEffect(effects []domain.Effect, kind domain.EffectKind) (domain.Effect, bool) {
	for _, eff := range flatten(effects) {
		if eff.Kind == kind {
			return eff, true
		}
	}
	return domain.Effect{}, false
}

func ev(kind domain.EventKind, value string) domain.Event {
	return domain.Event{Kind: kind, Value: value}
}

// step applies events in order and fails on any rejection.
func step(t *testing.T, e *runtime.Engine, s *domain.State, events ...domain.Event) (*domain.State, []domain.Effect) {
	t.Helper()
	var effects []domain.Effect
	for _, event := range events {
		var err error
		s, effects, err = e.Apply(s, event)
		require.NoError(t, err, "event %s in step %s", event.Kind, s.Step)
	}
	return s, effects
}

// toAmenities drives a fresh conversation to the amenities step.
func toAmenities(t *testing.T, e *runtime.Engine) *domain.State {
	t.Helper()
	s, _ := step(t, e, domain.NewState("s1"),
		ev(domain.EventOpen, ""),
		ev(domain.EventSelectType, "pg"),
		ev(domain.EventSelectCity, "Pune"),
		ev(domain.EventSelectBudget, "0-5000"),
	)
	require.Equal(t, domain.StepAmenities, s.Step)
	return s
}

// toSearching issues a search with the given amenities selected.
func toSearching(t *testing.T, e *runtime.Engine, amenities ...string) (*domain.State, domain.SearchEffect) {
	t.Helper()
	s := toAmenities(t, e)
	for _, a := range amenities {
		s, _ = step(t, e, s, ev(domain.EventSelectAmenity, a))
	}
	s, effects := step(t, e, s, ev(domain.EventShowResults, ""))
	eff, ok := findEffect(effects, domain.EffectInvokeSearch)
	require.True(t, ok)
	return s, *eff.Search
}
