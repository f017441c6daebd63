package runtime

import (
	"strconv"

	"github.com/aretw0/hearth/pkg/domain"
)

// search issues a new search for the frozen criteria.
func (e *Engine) search(s *domain.State) []domain.Effect {
	s.Step = domain.StepSearching
	s.SearchID++
	s.Matches = 0
	s.Prompt = &domain.Prompt{Content: msgSearchRunning}
	return []domain.Effect{
		e.say(s, searchingMessage(e.describe(*s.Criteria))),
		domain.InvokeSearch(*s.Criteria, s.Generation, s.SearchID),
	}
}

func (e *Engine) searchSettled(s *domain.State, ev domain.Event) ([]domain.Effect, error) {
	if s.Step != domain.StepSearching || ev.Generation != s.Generation || ev.SearchID != s.SearchID {
		return nil, ErrStaleResult
	}
	s.Step = domain.StepResults

	if ev.Kind == domain.EventSearchFailed {
		return []domain.Effect{
			e.ask(s, msgSearchFailed,
				eventOption(labelRetry, ValueRetry, domain.EventRetry),
				feedbackOption(),
			),
		}, nil
	}

	s.Matches = len(ev.Matches)
	if s.Matches == 0 {
		browse := domain.Option{
			Label:  labelBrowseAll,
			Value:  ValueBrowseAll,
			Action: domain.NavigateCommand(domain.NavigateTarget{Route: e.resultsRoute}),
		}
		return []domain.Effect{
			e.ask(s, msgNoMatches, browse, restartOption(), feedbackOption()),
		}, nil
	}

	view := domain.Option{
		Label:  labelView,
		Value:  ValueView,
		Action: domain.NavigateCommand(e.resultsTarget(*s.Criteria)),
	}
	return []domain.Effect{
		e.ask(s, matchesMessage(s.Matches), view, restartOption(), feedbackOption()),
	}, nil
}

// searching re-issues the search when the amenities prompt is answered again
// while one is in flight. The new SearchID makes the older result stale.
func (e *Engine) searching(s *domain.State, ev domain.Event) ([]domain.Effect, error) {
	switch ev.Kind {
	case domain.EventSkip, domain.EventShowResults:
		freezeCriteria(s)
		return withEcho(ev, e.search(s)...), nil
	}
	return nil, invalid(s, ev, "")
}

func (e *Engine) results(s *domain.State, ev domain.Event) ([]domain.Effect, error) {
	if ev.Kind != domain.EventRetry || s.Criteria == nil {
		return nil, invalid(s, ev, "")
	}
	return withEcho(ev, e.search(s)...), nil
}

// resultsTarget encodes the criteria as query params for the host router.
// Open budget bounds are left out.
func (e *Engine) resultsTarget(c domain.Criteria) domain.NavigateTarget {
	params := make(map[string]string)
	if c.Type != "" {
		params["type"] = c.Type
	}
	if c.City != "" {
		params["city"] = c.City
	}
	if c.Budget != nil {
		lo, hi := c.Budget.Bounds()
		if lo != nil {
			params["price_min"] = strconv.Itoa(*lo)
		}
		if hi != nil {
			params["price_max"] = strconv.Itoa(*hi)
		}
	}
	return domain.NavigateTarget{Route: e.resultsRoute, Params: params}
}
