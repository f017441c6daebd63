/*
Package domain contains the core data model of the Hearth assistant.

It defines the entities the dialog engine works on: the conversation State,
the append-only MessageLog, the Events fed into the engine and the Effects it
asks the host to perform. This package is kept pure and free of I/O, following
Hexagonal Architecture principles.

# Key Entities

  - State: the dialog progress and the accumulated search criteria.
  - MessageLog: the ordered transcript of bot and user turns.
  - Event: a user action or the settled result of an asynchronous effect.
  - Effect: a description of something the host should do (append, delay, search, submit).
  - Command: the tagged action bound to a selectable Option.
*/
package domain
