package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/hearth/pkg/domain"
)

// LogHooks returns lifecycle hooks that write every notification to logger.
// Ticket contents are never logged.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepChange: func(ctx context.Context, e *domain.StepEvent) {
			logger.DebugContext(ctx, "step_change",
				"session_id", e.SessionID,
				"from", e.From,
				"to", e.To,
				"event", e.Cause,
			)
		},
		OnMessage: func(ctx context.Context, e *domain.MessageEvent) {
			logger.DebugContext(ctx, "message",
				"session_id", e.SessionID,
				"id", e.Message.ID,
				"role", e.Message.Role,
				"options", len(e.Message.Options),
			)
		},
		OnSearch: func(ctx context.Context, e *domain.SearchEvent) {
			level := slog.LevelInfo
			switch {
			case e.Cancelled():
				level = slog.LevelDebug
			case e.Err != nil:
				level = slog.LevelWarn
			}
			logger.Log(ctx, level, "search",
				"session_id", e.SessionID,
				"search_id", e.SearchID,
				"outcome", e.Outcome,
				"matches", e.Matches,
				"duration", e.Duration,
				"err", e.Err,
			)
		},
		OnSubmit: func(ctx context.Context, e *domain.SubmitEvent) {
			level := slog.LevelInfo
			if e.Err != nil {
				level = slog.LevelWarn
			}
			logger.Log(ctx, level, "ticket_submit",
				"session_id", e.SessionID,
				"duration", e.Duration,
				"err", e.Err,
			)
		},
		OnNavigate: func(ctx context.Context, e *domain.NavigateEvent) {
			logger.InfoContext(ctx, "navigate",
				"session_id", e.SessionID,
				"route", e.Target.Route,
				"params", e.Target.Params,
			)
		},
	}
}
