/*
Package ports defines the driven ports (interfaces) for the Hearth assistant.

These interfaces decouple the dialog core from external implementations, allowing
the assistant to work with various search backends, support desks and transcript
archives.

# Key Interfaces

  - Searcher: runs a property search (REST backend, SQLite, memory).
  - TicketSubmitter: files a support ticket collected by the escalation flow.
  - Navigator: receives the navigation bound to a results option.
  - TranscriptStore: archives the transcripts of ended conversations.
*/
package ports
