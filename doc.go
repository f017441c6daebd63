/*
Package hearth is a guided stay-search assistant: a chat widget that walks a
visitor through accommodation type, city, budget and amenities, runs a
property search, and hands the conversation to a support team when nothing
fits.

# Concept

The dialog is a deterministic state machine. The engine turns (state, event)
into a new state plus a list of effects (append a message, wait, search,
submit a ticket, clear the log) and performs no I/O itself. A session
controller owns one conversation: it serializes events, carries out the
effects, drops stale async results and publishes updates. The host chooses
how visitors reach it: terminal, NDJSON, HTTP with SSE or websockets, or MCP.

# Usage

	assistant := hearth.New(
		hearth.WithBackend(myBackend),
		hearth.WithArchive(redisStore),
	)

	c, _ := assistant.Sessions().GetOrCreate("visitor-42")
	_ = c.Open()
	_ = c.HandleOptionSelect(ctx, "pg")
	_ = c.HandleTextSubmit(ctx, "asha@example.com")

	updates, stop := c.Subscribe()
	defer stop()

# Packages

  - pkg/domain: steps, state, messages, events, effects and hooks.
  - pkg/session: the conversation controller and the session registry.
  - pkg/search: the search invoker.
  - pkg/ports: backend, store and lock interfaces with contract tests.
  - pkg/adapters: memory, file, redis, sqlite, rest, http and mcp adapters.
  - pkg/runner: terminal and NDJSON drivers.
*/
package hearth
