package session

import (
	"context"
	"errors"
	"time"

	"github.com/aretw0/hearth/pkg/domain"
	"github.com/aretw0/hearth/pkg/search"
)

// noBackend fails every search and submission.
type noBackend struct{}

func (noBackend) Search(context.Context, domain.SearchRequest) ([]domain.PropertySummary, error) {
	return nil, errNoBackend
}

func (noBackend) Submit(context.Context, domain.Ticket) error {
	return errNoBackend
}

// perform carries out one effect. Must be called with the mutex held.
func (c *Controller) perform(eff domain.Effect, u *Update) {
	switch eff.Kind {
	case domain.EffectAppendMessage:
		msg := c.log.Append(eff.Message.Role, eff.Message.Content, eff.Message.Options)
		u.Messages = append(u.Messages, msg)
		if hook := c.hooks.OnMessage; hook != nil {
			ev := &domain.MessageEvent{HookBase: c.hookBase(domain.HookMessage), Message: msg}
			c.outbox = append(c.outbox, func() { hook(c.ctx, ev) })
		}

	case domain.EffectClearLog:
		c.log.Clear()
		u.Cleared = true
		u.Messages = nil

	case domain.EffectDelay:
		c.schedule(*eff.Delay, u)

	case domain.EffectInvokeSearch:
		c.startSearch(*eff.Search)

	case domain.EffectSubmitTicket:
		c.startSubmit(*eff.Submit)

	default:
		c.logger.Warn("unknown effect", "session_id", c.id, "kind", eff.Kind)
	}
}

func (c *Controller) schedule(d domain.DelayEffect, u *Update) {
	if d.Duration <= 0 {
		c.perform(d.Then, u)
		return
	}

	id := c.nextTimer
	c.nextTimer++
	c.begin()
	c.timers[id] = c.scheduler.AfterFunc(d.Duration, func() { c.fire(id, d) })
}

// fire runs a delayed effect, unless it was stopped or belongs to an old generation.
func (c *Controller) fire(id uint64, d domain.DelayEffect) {
	_ = c.run(func() error {
		if _, ok := c.timers[id]; !ok {
			return nil
		}
		delete(c.timers, id)

		u := Update{SessionID: c.id}
		if d.Generation == c.state.Generation {
			c.perform(d.Then, &u)
		}
		c.emit(c.state, "", u)
		c.drain()
		c.release()
		return nil
	})
}

func (c *Controller) startSearch(se domain.SearchEffect) {
	if c.searchCancel != nil {
		c.searchCancel()
	}
	ctx, cancel := context.WithCancel(c.ctx)
	c.searchCancel = cancel
	c.begin()

	go func() {
		out := c.invoker.Invoke(ctx, se.Criteria)
		cancel()

		if hook := c.hooks.OnSearch; hook != nil {
			hook(c.ctx, &domain.SearchEvent{
				HookBase: c.hookBase(domain.HookSearch),
				SearchID: se.SearchID,
				Request:  out.Request,
				Outcome:  string(out.Status),
				Matches:  len(out.Matches),
				Duration: out.Duration,
				Err:      out.Err,
			})
		}
		if out.Status == search.StatusError {
			c.logger.Warn("search failed", "session_id", c.id, "search_id", se.SearchID, "err", out.Err)
		}
		c.settle(out.Event(se.Generation, se.SearchID))
	}()
}

func (c *Controller) startSubmit(se domain.SubmitEffect) {
	c.begin()

	go func() {
		ctx := c.ctx
		if c.submitTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.submitTimeout)
			defer cancel()
		}

		start := time.Now()
		err := c.submitter.Submit(ctx, se.Ticket)
		if hook := c.hooks.OnSubmit; hook != nil {
			hook(c.ctx, &domain.SubmitEvent{
				HookBase: c.hookBase(domain.HookSubmit),
				Ticket:   se.Ticket,
				Duration: time.Since(start),
				Err:      err,
			})
		}

		ev := domain.Event{Kind: domain.EventSubmitSucceeded, Generation: se.Generation}
		if err != nil {
			c.logger.Warn("ticket submission failed", "session_id", c.id, "err", err)
			ev.Kind = domain.EventSubmitFailed
		}
		c.settle(ev)
	}()
}

// settle feeds an async result back through the serialized dispatch path.
func (c *Controller) settle(ev domain.Event) {
	err := c.run(func() error {
		c.handle(ev)
		c.release()
		return nil
	})
	if errors.Is(err, domain.ErrControllerDestroyed) {
		c.mu.Lock()
		c.release()
		c.mu.Unlock()
	}
}

func (c *Controller) navigate(ctx context.Context, target domain.NavigateTarget) {
	if c.navigator != nil {
		if err := c.navigator.Navigate(ctx, c.id, target); err != nil {
			c.logger.Warn("navigation failed", "session_id", c.id, "route", target.Route, "err", err)
		}
	}
	if hook := c.hooks.OnNavigate; hook != nil {
		hook(ctx, &domain.NavigateEvent{HookBase: c.hookBase(domain.HookNavigate), Target: target})
	}
}
