/*
Package session owns the lifetime of conversations.

A Controller holds one conversation (state and message log), feeds visitor
actions to the dialog engine and carries out the effects it returns: log
appends, paced replies on a Scheduler, searches and ticket submissions on
goroutines. All transitions of a conversation are serialized by the
controller's mutex.

The Manager is the registry of live controllers. It evicts idle
conversations and archives the transcript of every ended conversation into a
ports.TranscriptStore.
*/
package session
