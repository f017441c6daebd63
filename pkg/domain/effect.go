package domain

import "time"

// EffectKind tags the variant held by an Effect.
type EffectKind string

const (
	EffectAppendMessage EffectKind = "append_message"
	EffectDelay         EffectKind = "delay"
	EffectInvokeSearch  EffectKind = "invoke_search"
	EffectSubmitTicket  EffectKind = "submit_ticket"
	EffectClearLog      EffectKind = "clear_log"
)

// Effect describes work the engine wants the host to perform.
// Exactly one of the payload fields is set, according to Kind.
type Effect struct {
	Kind EffectKind `json:"kind"`

	Message *Draft        `json:"message,omitempty"`
	Delay   *DelayEffect  `json:"delay,omitempty"`
	Search  *SearchEffect `json:"search,omitempty"`
	Submit  *SubmitEffect `json:"submit,omitempty"`
}

// Draft is a message not yet appended to the log.
type Draft struct {
	Role    Role     `json:"role"`
	Content string   `json:"content"`
	Options []Option `json:"options,omitempty"`
}

// DelayEffect postpones Then. A host must drop it when the conversation
// generation moved on before the timer fired.
type DelayEffect struct {
	Duration   time.Duration `json:"duration"`
	Generation uint64        `json:"generation"`
	Then       Effect        `json:"then"`
}

// SearchEffect asks the host to run a search for Criteria.
// The result is fed back as EventSearchSucceeded or EventSearchFailed
// carrying the same Generation and SearchID.
type SearchEffect struct {
	Criteria   Criteria `json:"criteria"`
	Generation uint64   `json:"generation"`
	SearchID   uint64   `json:"search_id"`
}

// SubmitEffect asks the host to submit a support ticket.
type SubmitEffect struct {
	Ticket     Ticket `json:"ticket"`
	Generation uint64 `json:"generation"`
}

// AppendBot builds an effect appending a bot message.
func AppendBot(content string, options ...Option) Effect {
	return Effect{Kind: EffectAppendMessage, Message: &Draft{Role: RoleBot, Content: content, Options: options}}
}

// AppendUser builds an effect appending the echo of a visitor action.
func AppendUser(content string) Effect {
	return Effect{Kind: EffectAppendMessage, Message: &Draft{Role: RoleUser, Content: content}}
}

// Delay wraps then in a delay effect.
func Delay(d time.Duration, generation uint64, then Effect) Effect {
	return Effect{Kind: EffectDelay, Delay: &DelayEffect{Duration: d, Generation: generation, Then: then}}
}

// InvokeSearch builds a search effect.
func InvokeSearch(c Criteria, generation, searchID uint64) Effect {
	return Effect{Kind: EffectInvokeSearch, Search: &SearchEffect{Criteria: c, Generation: generation, SearchID: searchID}}
}

// SubmitTicket builds a ticket submission effect.
func SubmitTicket(t Ticket, generation uint64) Effect {
	return Effect{Kind: EffectSubmitTicket, Submit: &SubmitEffect{Ticket: t, Generation: generation}}
}

// ClearLog builds an effect that empties the message log.
func ClearLog() Effect {
	return Effect{Kind: EffectClearLog}
}
