package runtime

import (
	"slices"

	"github.com/aretw0/hearth/pkg/domain"
)

func (e *Engine) selectType(s *domain.State, ev domain.Event) ([]domain.Effect, error) {
	if ev.Kind != domain.EventSelectType {
		return nil, invalid(s, ev, "")
	}
	entry, ok := e.catalog.Type(ev.Value)
	if !ok {
		return nil, invalid(s, ev, "unknown type")
	}
	s.SelectedType = entry.Value
	s.Step = domain.StepCity
	return []domain.Effect{
		domain.AppendUser(entry.Label),
		e.ask(s, msgAskCity, e.cityOptions()...),
	}, nil
}

func (e *Engine) selectCity(s *domain.State, ev domain.Event) ([]domain.Effect, error) {
	if ev.Kind != domain.EventSelectCity {
		return nil, invalid(s, ev, "")
	}
	entry, ok := e.catalog.City(ev.Value)
	if !ok {
		return nil, invalid(s, ev, "unknown city")
	}
	s.SelectedCity = entry.Value
	s.Step = domain.StepBudget
	return []domain.Effect{
		domain.AppendUser(entry.Label),
		e.ask(s, msgAskBudget, e.budgetOptions()...),
	}, nil
}

func (e *Engine) selectBudget(s *domain.State, ev domain.Event) ([]domain.Effect, error) {
	if ev.Kind != domain.EventSelectBudget {
		return nil, invalid(s, ev, "")
	}
	if _, ok := e.catalog.Budget(ev.Value); !ok {
		return nil, invalid(s, ev, "unknown budget")
	}
	b, err := domain.ParseBudget(ev.Value)
	if err != nil {
		return nil, invalid(s, ev, err.Error())
	}
	s.SelectedBudget = &b
	s.Step = domain.StepAmenities

	options := append(e.amenityOptions(s), eventOption(labelSkip, ValueSkip, domain.EventSkip))
	return []domain.Effect{
		domain.AppendUser(b.Label()),
		e.ask(s, msgAskAmenities, options...),
	}, nil
}

func (e *Engine) amenities(s *domain.State, ev domain.Event) ([]domain.Effect, error) {
	switch ev.Kind {
	case domain.EventSelectAmenity:
		entry, ok := e.catalog.Amenity(ev.Value)
		if !ok {
			return nil, invalid(s, ev, "unknown amenity")
		}
		if s.HasAmenity(entry.Value) {
			return nil, nil
		}
		s.SelectedAmenities = append(s.SelectedAmenities, entry.Value)
		return []domain.Effect{
			domain.AppendUser(entry.Label),
			e.ask(s, addedMessage(entry.Label),
				eventOption(labelAddMore, ValueAddMore, domain.EventAddMore),
				eventOption(labelShowResults, ValueShowResults, domain.EventShowResults),
			),
		}, nil

	case domain.EventAddMore:
		show := eventOption(labelShowResults, ValueShowResults, domain.EventShowResults)
		remaining := e.amenityOptions(s)
		if len(remaining) == 0 {
			return withEcho(ev, e.ask(s, msgAllAmenities, show)), nil
		}
		return withEcho(ev, e.ask(s, msgAddMore, append(remaining, show)...)), nil

	case domain.EventSkip, domain.EventShowResults:
		freezeCriteria(s)
		return withEcho(ev, e.search(s)...), nil
	}
	return nil, invalid(s, ev, "")
}

// freezeCriteria snapshots the selections the next search runs against.
func freezeCriteria(s *domain.State) {
	criteria := domain.Criteria{
		Type:      s.SelectedType,
		City:      s.SelectedCity,
		Amenities: slices.Clone(s.SelectedAmenities),
	}
	if s.SelectedBudget != nil {
		b := *s.SelectedBudget
		criteria.Budget = &b
	}
	s.Criteria = &criteria
}
