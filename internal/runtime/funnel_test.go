package runtime_test

import (
	"testing"

	"github.com/aretw0/hearth/internal/runtime"
	"github.com/aretw0/hearth/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFunnel_HappyPath(t *testing.T) {
	e := newTestEngine()
	s, _ := step(t, e, domain.NewState("s1"), ev(domain.EventOpen, ""))

	s, effects := step(t, e, s, domain.Event{Kind: domain.EventSelectType, Value: "pg", Label: "PG"})
	assert.Equal(t, domain.StepCity, s.Step)
	assert.Equal(t, "pg", s.SelectedType)
	ds := drafts(effects)
	require.Len(t, ds, 2)
	assert.Equal(t, "PG", ds[0].Content)
	assert.Contains(t, optionValues(ds[1]), "Pune")

	s, effects = step(t, e, s, ev(domain.EventSelectCity, "Pune"))
	assert.Equal(t, domain.StepBudget, s.Step)
	assert.Equal(t, []string{"0-5000", "5000-10000", "10000-20000", "20000-999999"}, optionValues(lastBot(t, effects)))
}

func TestFunnel_BudgetLabel(t *testing.T) {
	e := newTestEngine()
	s, _ := step(t, e, domain.NewState("s1"),
		ev(domain.EventOpen, ""),
		ev(domain.EventSelectType, "pg"),
		ev(domain.EventSelectCity, "Pune"),
	)

	s, effects := step(t, e, s, ev(domain.EventSelectBudget, "0-5000"))
	require.NotNil(t, s.SelectedBudget)
	assert.Equal(t, domain.Budget{Min: 0, Max: 5000}, *s.SelectedBudget)

	ds := drafts(effects)
	require.Len(t, ds, 2)
	assert.Equal(t, domain.RoleUser, ds[0].Role)
	assert.Equal(t, "Under ₹5,000", ds[0].Content)

	values := optionValues(ds[1])
	assert.Contains(t, values, "wifi")
	assert.Equal(t, runtime.ValueSkip, values[len(values)-1])
}

func TestFunnel_AmenityIdempotence(t *testing.T) {
	e := newTestEngine()
	s := toAmenities(t, e)

	s, effects := step(t, e, s, ev(domain.EventSelectAmenity, "wifi"))
	assert.Equal(t, []string{"wifi"}, s.SelectedAmenities)
	assert.Equal(t, []string{runtime.ValueAddMore, runtime.ValueShowResults}, optionValues(lastBot(t, effects)))

	again, effects := step(t, e, s, ev(domain.EventSelectAmenity, "wifi"))
	assert.Equal(t, []string{"wifi"}, again.SelectedAmenities)
	assert.Empty(t, effects)
	assert.Equal(t, s, again)
}

func TestFunnel_AddMoreListsRemaining(t *testing.T) {
	e := newTestEngine()
	s := toAmenities(t, e)
	s, _ = step(t, e, s, ev(domain.EventSelectAmenity, "wifi"))

	s, effects := step(t, e, s, ev(domain.EventAddMore, ""))
	values := optionValues(lastBot(t, effects))
	assert.NotContains(t, values, "wifi")
	assert.Contains(t, values, "ac")
	assert.Equal(t, runtime.ValueShowResults, values[len(values)-1])
	assert.Equal(t, domain.StepAmenities, s.Step)
}

func TestFunnel_AddMoreWhenNothingLeft(t *testing.T) {
	e := newTestEngine()
	s := toAmenities(t, e)
	for _, a := range e.Catalog().Amenities {
		s, _ = step(t, e, s, ev(domain.EventSelectAmenity, a.Value))
	}

	_, effects := step(t, e, s, ev(domain.EventAddMore, ""))
	assert.Equal(t, []string{runtime.ValueShowResults}, optionValues(lastBot(t, effects)))
}

func TestFunnel_SkipNeverStoresSentinel(t *testing.T) {
	e := newTestEngine()
	s := toAmenities(t, e)

	_, _, err := e.Apply(s, ev(domain.EventSelectAmenity, runtime.ValueSkip))
	assert.Error(t, err)

	s, effects := step(t, e, s, ev(domain.EventSkip, runtime.ValueSkip))
	assert.Equal(t, domain.StepSearching, s.Step)
	assert.NotContains(t, s.SelectedAmenities, runtime.ValueSkip)
	require.NotNil(t, s.Criteria)
	assert.Empty(t, s.Criteria.Amenities)

	eff, ok := findEffect(effects, domain.EffectInvokeSearch)
	require.True(t, ok)
	assert.Equal(t, "pg", eff.Search.Criteria.Type)
	assert.Equal(t, "Pune", eff.Search.Criteria.City)
	assert.Equal(t, uint64(1), eff.Search.SearchID)
}

func TestFunnel_UserEntryAlwaysFollowedByBot(t *testing.T) {
	e := newTestEngine()
	s := domain.NewState("s1")
	events := []domain.Event{
		ev(domain.EventOpen, ""),
		ev(domain.EventText, "hi"),
		ev(domain.EventSelectType, "pg"),
		ev(domain.EventSelectType, "flat"),
		ev(domain.EventSelectCity, "Pune"),
		ev(domain.EventSelectBudget, "5000-10000"),
		ev(domain.EventSelectAmenity, "ac"),
		ev(domain.EventAddMore, ""),
		ev(domain.EventShowResults, ""),
		ev(domain.EventFeedback, ""),
		ev(domain.EventText, "Asha"),
	}
	for _, event := range events {
		var effects []domain.Effect
		s, effects = e.Transition(s, event)
		ds := drafts(effects)
		for i, d := range ds {
			if d.Role == domain.RoleUser {
				require.Greater(t, len(ds), i+1, "user entry for %s has no reply", event.Kind)
				assert.Equal(t, domain.RoleBot, ds[i+1].Role)
			}
		}
	}
}
