package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/hearth/internal/logging"
	"github.com/aretw0/hearth/pkg/domain"
	"github.com/aretw0/hearth/pkg/session"
)

// Runner handles the conversation loop using the provided IO.
// It uses an IOHandler strategy to abstract the interaction mode (Text vs JSON).
type Runner struct {
	// Handler is the strategy for IO. If nil, a TextHandler on Stdin/Stdout is used.
	Handler IOHandler

	// Logger is used for internal debug logging.
	// If nil, a no-op logger is used.
	Logger *slog.Logger

	// SettleTimeout bounds the wait for pending replies after every input.
	SettleTimeout time.Duration

	// InterruptSource stops the loop when it fires.
	InterruptSource <-chan struct{}
}

// NewRunner creates a new Runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		Logger:        logging.NewNop(),
		SettleTimeout: DefaultSettleTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run opens the widget and loops until the visitor quits or closes the widget,
// the input is exhausted or a signal arrives. None of these is an error.
func (r *Runner) Run(ctx context.Context, c Conversation) error {
	handler := r.resolveHandler()

	signals := NewSignalManager(ctx, r.InterruptSource)
	defer signals.Stop()
	ctx = signals.Context()

	if err := c.Open(); err != nil {
		return fmt.Errorf("failed to open conversation: %w", err)
	}

	var lastID int64
	for {
		// A. Settle and print what is new
		if err := r.settle(ctx, c); err != nil {
			if signals.Interrupted() {
				return nil
			}
			return err
		}
		if msgs := c.Messages(lastID); len(msgs) > 0 {
			lastID = msgs[len(msgs)-1].ID
			if err := handler.Output(ctx, msgs); err != nil {
				return fmt.Errorf("output error: %w", err)
			}
		}
		if !c.Visible() {
			r.Logger.Debug("widget closed, stopping runner")
			return nil
		}

		// B. Read a reply
		in, err := handler.Input(ctx)
		if err != nil {
			signals.CheckRace()
			if signals.Interrupted() || errors.Is(err, io.EOF) {
				r.Logger.Debug("runner input ended", "err", err)
				return nil
			}
			return fmt.Errorf("input error: %w", err)
		}

		// C. Dispatch it
		done, err := r.dispatch(ctx, c, handler, in)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

func (r *Runner) resolveHandler() IOHandler {
	if r.Handler == nil {
		r.Handler = NewTextHandler(os.Stdin, os.Stdout)
	}
	return r.Handler
}

// settle waits for delayed replies and async effects.
// A conversation that does not settle in time is reported and left running.
func (r *Runner) settle(ctx context.Context, c Conversation) error {
	waitCtx := ctx
	if r.SettleTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, r.SettleTimeout)
		defer cancel()
	}
	err := c.Wait(waitCtx)
	if err == nil || ctx.Err() != nil {
		return ctx.Err()
	}
	r.Logger.Warn("conversation did not settle", "err", err)
	return nil
}

// dispatch applies one reply. It returns true when the runner should stop.
func (r *Runner) dispatch(ctx context.Context, c Conversation, handler IOHandler, in Input) (bool, error) {
	value := strings.TrimSpace(in.Value)
	kind := in.Kind

	if kind == InputAuto || kind == "" {
		kind, value = r.resolve(c, value)
	}

	var err error
	switch kind {
	case InputCommand:
		return r.command(ctx, c, handler, value)
	case InputOption:
		err = c.HandleOptionSelect(ctx, value)
	case InputText:
		err = c.HandleTextSubmit(ctx, value)
	default:
		return false, handler.SystemOutput(ctx, fmt.Sprintf("Unknown input kind %q.", in.Kind))
	}

	if session.IsInputError(err) {
		return false, handler.SystemOutput(ctx, fmt.Sprintf("Error: %v. Please try again.", err))
	}
	if errors.Is(err, domain.ErrControllerDestroyed) {
		return true, nil
	}
	return false, err
}

func (r *Runner) command(ctx context.Context, c Conversation, handler IOHandler, name string) (bool, error) {
	switch strings.ToLower(strings.TrimPrefix(name, "/")) {
	case "reset", "restart":
		if err := c.Reset(); err != nil {
			return false, err
		}
		return false, handler.SystemOutput(ctx, "Conversation restarted.")
	case "close", "quit", "exit":
		return true, c.Close()
	default:
		return false, handler.SystemOutput(ctx, fmt.Sprintf("Unknown command %q. Try /reset or /quit.", name))
	}
}

// resolve maps a raw reply onto the options of the newest bot entry: by number, by
// value, or by label ignoring case. Anything else is free text.
func (r *Runner) resolve(c Conversation, value string) (InputKind, string) {
	if strings.HasPrefix(value, "/") {
		return InputCommand, value
	}
	switch strings.ToLower(value) {
	case "exit", "quit":
		return InputCommand, value
	}

	options := latestOptions(c.Messages(0))
	if n, err := strconv.Atoi(value); err == nil && n >= 1 && n <= len(options) {
		return InputOption, options[n-1].Value
	}
	for _, opt := range options {
		if opt.Value == value || strings.EqualFold(opt.Label, value) {
			return InputOption, opt.Value
		}
	}
	return InputText, value
}

func latestOptions(msgs []domain.Message) []domain.Option {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == domain.RoleBot {
			return msgs[i].Options
		}
	}
	return nil
}
