/*
Package runner drives a conversation from a line-oriented stream.

It is the bridge between a session.Controller and a terminal or a pipe: bot
messages are written through an IOHandler and every line read back is turned
into an option selection, a free-text reply or a command.

# Key Components

  - Runner: the loop that opens the widget, prints new entries and reads replies.
  - IOHandler: decouples how entries are shown and replies are read.
  - TextHandler: numbered options for interactive terminal use.
  - JSONHandler: NDJSON in and out, for scripting and tests.

# Usage

	r := runner.NewRunner(
		runner.WithInputHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
	)

	if err := r.Run(ctx, controller); err != nil {
		log.Fatal(err)
	}
*/
package runner
