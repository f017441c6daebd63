package domain

import "slices"

// Role identifies the author of a log entry.
type Role string

const (
	RoleBot  Role = "bot"
	RoleUser Role = "user"
)

// Option is a selectable choice attached to a bot message.
type Option struct {
	Label  string   `json:"label"`
	Value  string   `json:"value"`
	Action *Command `json:"action,omitempty"`
}

// CommandKind tags the variant held by a Command.
type CommandKind string

const (
	// CommandEvent feeds Event back into the dialog engine.
	CommandEvent CommandKind = "event"
	// CommandNavigate asks the host to navigate to Navigate.
	CommandNavigate CommandKind = "navigate"
	// CommandClose asks the host to hide the widget.
	CommandClose CommandKind = "close"
)

// Command is the action bound to an Option. It is plain data: the host
// dispatches it, the engine never holds executable code.
type Command struct {
	Kind     CommandKind     `json:"kind"`
	Event    *Event          `json:"event,omitempty"`
	Navigate *NavigateTarget `json:"navigate,omitempty"`
}

// NavigateTarget is the opaque destination handed to the host router.
type NavigateTarget struct {
	Route  string            `json:"route"`
	Params map[string]string `json:"params,omitempty"`
}

// EventCommand binds an option to an engine event.
func EventCommand(ev Event) *Command {
	return &Command{Kind: CommandEvent, Event: &ev}
}

// NavigateCommand binds an option to a host navigation.
func NavigateCommand(target NavigateTarget) *Command {
	return &Command{Kind: CommandNavigate, Navigate: &target}
}

// Message is one entry of the MessageLog.
type Message struct {
	ID      int64    `json:"id"`
	Role    Role     `json:"role"`
	Content string   `json:"content"`
	Options []Option `json:"options,omitempty"`
}

// MessageLog is the append-only transcript of a conversation.
// IDs are strictly increasing, including across Clear.
type MessageLog struct {
	Entries []Message `json:"entries"`
	NextID  int64     `json:"next_id"`
}

// NewMessageLog creates an empty log whose first entry gets ID 1.
func NewMessageLog() *MessageLog {
	return &MessageLog{NextID: 1}
}

// Append adds an entry and returns it with its assigned ID.
func (l *MessageLog) Append(role Role, content string, options []Option) Message {
	if l.NextID <= 0 {
		l.NextID = 1
	}
	msg := Message{
		ID:      l.NextID,
		Role:    role,
		Content: content,
		Options: slices.Clone(options),
	}
	l.NextID++
	l.Entries = append(l.Entries, msg)
	return msg
}

// Clear drops every entry but keeps the ID sequence.
func (l *MessageLog) Clear() {
	l.Entries = nil
}

// Len returns the number of entries.
func (l *MessageLog) Len() int { return len(l.Entries) }

// Since returns the entries with an ID greater than id.
func (l *MessageLog) Since(id int64) []Message {
	idx, _ := slices.BinarySearchFunc(l.Entries, id+1, func(m Message, target int64) int {
		switch {
		case m.ID < target:
			return -1
		case m.ID > target:
			return 1
		}
		return 0
	})
	return slices.Clone(l.Entries[idx:])
}

// Last returns the newest entry, if any.
func (l *MessageLog) Last() (Message, bool) {
	if len(l.Entries) == 0 {
		return Message{}, false
	}
	return l.Entries[len(l.Entries)-1], true
}

// FindOption looks up an option value, newest message first.
func (l *MessageLog) FindOption(value string) (Option, bool) {
	for i := len(l.Entries) - 1; i >= 0; i-- {
		if l.Entries[i].Role != RoleBot {
			continue
		}
		for _, opt := range l.Entries[i].Options {
			if opt.Value == value {
				return opt, true
			}
		}
	}
	return Option{}, false
}

// Clone returns a deep copy of the log.
func (l *MessageLog) Clone() *MessageLog {
	if l == nil {
		return nil
	}
	return &MessageLog{Entries: slices.Clone(l.Entries), NextID: l.NextID}
}
