package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/hearth/pkg/domain"
)

// ContentRenderer transforms bot content before it is printed.
// This allows for TUI rendering (markdown to ANSI) without coupling the runner to it.
type ContentRenderer func(string) (string, error)

// OptionFormatter formats the n-th option of a message (1-based).
type OptionFormatter func(n int, label string) string

// TextHandler implements the standard text-based interface.
// Options are printed as a numbered list; replies are read line by line.
type TextHandler struct {
	Reader   *bufio.Reader
	Writer   io.Writer
	Renderer ContentRenderer
	Options  OptionFormatter
	// Prompt is printed before every read.
	Prompt string

	inputChan chan inputResult
	startOnce sync.Once
}

type inputResult struct {
	text string
	err  error
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer configures the content renderer.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// WithOptionFormatter configures how options are listed.
func WithOptionFormatter(f OptionFormatter) TextHandlerOption {
	return func(h *TextHandler) {
		h.Options = f
	}
}

// NewTextHandler creates a handler for standard text IO.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		Reader:  bufio.NewReader(r),
		Writer:  w,
		Options: defaultOptionFormatter,
		Prompt:  "> ",
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func defaultOptionFormatter(n int, label string) string {
	return fmt.Sprintf("  %2d) %s", n, label)
}

func (h *TextHandler) initPump() {
	h.startOnce.Do(func() {
		h.inputChan = make(chan inputResult)
		go h.pump()
	})
}

// pump reads lines in the background so that Input can honour ctx.
func (h *TextHandler) pump() {
	for {
		text, err := h.Reader.ReadString('\n')
		if text != "" {
			h.inputChan <- inputResult{text: text}
		}
		if err != nil {
			if err == io.EOF {
				close(h.inputChan)
				return
			}
			h.inputChan <- inputResult{err: err}
			// Backoff for non-fatal errors to prevent CPU spikes on persistent failure
			time.Sleep(50 * time.Millisecond)
		}
	}
}

// Output prints bot entries and their options. User entries are not repeated:
// the visitor just typed them.
func (h *TextHandler) Output(ctx context.Context, msgs []domain.Message) error {
	for _, msg := range msgs {
		if msg.Role != domain.RoleBot {
			continue
		}
		output := msg.Content
		if h.Renderer != nil {
			if rendered, err := h.Renderer(msg.Content); err == nil {
				output = rendered
			}
		}
		if _, err := fmt.Fprintln(h.Writer, strings.TrimSpace(output)); err != nil {
			return err
		}
		for i, opt := range msg.Options {
			fmt.Fprintln(h.Writer, h.Options(i+1, opt.Label))
		}
	}
	return nil
}

// Input reads the next non-empty line.
func (h *TextHandler) Input(ctx context.Context) (Input, error) {
	h.initPump()

	for {
		select {
		case <-ctx.Done():
			return Input{}, ctx.Err()
		default:
			fmt.Fprint(h.Writer, h.Prompt)
		}

		select {
		case <-ctx.Done():
			return Input{}, ctx.Err()
		case res, ok := <-h.inputChan:
			if !ok {
				return Input{}, io.EOF
			}
			if res.err != nil {
				return Input{}, res.err
			}
			text := strings.TrimSpace(res.text)
			if text == "" {
				continue
			}
			return Input{Kind: InputAuto, Value: text}, nil
		}
	}
}

// SystemOutput prints a meta-message with a "[System]" prefix.
func (h *TextHandler) SystemOutput(ctx context.Context, msg string) error {
	_, err := fmt.Fprintf(h.Writer, "[System] %s\n", msg)
	return err
}
