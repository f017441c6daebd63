package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/aretw0/hearth/pkg/domain"
)

// Record types written by JSONHandler.
const (
	RecordMessage = "message"
	RecordSystem  = "system"
)

// Record is one NDJSON line written by JSONHandler.
type Record struct {
	Type    string          `json:"type"`
	Message *domain.Message `json:"message,omitempty"`
	Text    string          `json:"text,omitempty"`
}

// JSONHandler implements the IOHandler interface for JSON-Lines communication.
//
// Every entry is written as {"type":"message","message":{...}}. Replies are
// either {"kind":"option|text|command","value":"..."} objects, JSON strings or
// plain lines; the latter two are resolved like terminal input.
type JSONHandler struct {
	Reader  *bufio.Reader
	Writer  io.Writer
	Encoder *json.Encoder
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		Writer:  w,
		Encoder: json.NewEncoder(w),
	}
}

// Output writes one record per entry, user echoes included.
func (h *JSONHandler) Output(ctx context.Context, msgs []domain.Message) error {
	for i := range msgs {
		if err := h.Encoder.Encode(Record{Type: RecordMessage, Message: &msgs[i]}); err != nil {
			return err
		}
	}
	return nil
}

// Input reads the next non-empty line.
func (h *JSONHandler) Input(ctx context.Context) (Input, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Input{}, err
		}
		text, err := h.Reader.ReadString('\n')
		text = strings.TrimSpace(text)
		if text == "" {
			if err != nil {
				return Input{}, err
			}
			continue
		}
		return parseInput(text), nil
	}
}

func parseInput(text string) Input {
	if strings.HasPrefix(text, "{") {
		var in Input
		if err := json.Unmarshal([]byte(text), &in); err == nil {
			if in.Kind == "" {
				in.Kind = InputAuto
			}
			return in
		}
	}

	var val string
	if err := json.Unmarshal([]byte(text), &val); err == nil {
		return Input{Kind: InputAuto, Value: val}
	}

	// Fallback: raw text
	return Input{Kind: InputAuto, Value: text}
}

// SystemOutput writes a system record.
func (h *JSONHandler) SystemOutput(ctx context.Context, msg string) error {
	return h.Encoder.Encode(Record{Type: RecordSystem, Text: msg})
}
