package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/hearth/internal/logging"
	"github.com/aretw0/hearth/internal/presentation/tui"
	"github.com/aretw0/hearth/pkg/runner"
	"github.com/aretw0/hearth/pkg/session"
	"github.com/spf13/cobra"
)

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the assistant in the terminal",
	Long: `Opens a conversation on standard input and output.

Answer with the option number, its value or its label; free text is accepted
on the escalation steps. Type /quit to leave, /restart to start over.
With --json every line in and out is a JSON record.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonMode, _ := cmd.Flags().GetBool("json")
		sessionID, _ := cmd.Flags().GetString("session")

		logger := newLogger()
		if !jsonMode && cfg.Level() == slog.LevelInfo {
			// Info records would interleave with the chat on a terminal.
			logger = logging.NewFormat(cfg.LogFormat, slog.LevelWarn)
		}

		a, err := setup(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		sessions := a.assistant.Sessions()
		var c *session.Controller
		if sessionID != "" {
			c, _ = sessions.GetOrCreate(sessionID)
		} else {
			c = sessions.Create()
		}

		var handler runner.IOHandler
		if jsonMode {
			handler = runner.NewJSONHandler(os.Stdin, os.Stdout)
		} else {
			handler = textHandler()
		}

		r := runner.NewRunner(
			runner.WithLogger(logger),
			runner.WithInputHandler(handler),
		)
		runErr := r.Run(cmd.Context(), c)

		// Archive what was said even when the run failed.
		if err := sessions.End(context.WithoutCancel(cmd.Context()), c.ID()); err != nil {
			logger.Warn("failed to archive conversation", "session_id", c.ID(), "err", err)
		}
		return runErr
	},
}

func textHandler() runner.IOHandler {
	if !tui.IsTerminal(os.Stdout) {
		return runner.NewTextHandler(os.Stdin, os.Stdout)
	}
	tui.PrintBanner(os.Stdout)
	fmt.Fprintln(os.Stdout)
	return runner.NewTextHandler(os.Stdin, os.Stdout,
		runner.WithTextHandlerRenderer(tui.NewRenderer(os.Stdout)),
		runner.WithOptionFormatter(runner.OptionFormatter(tui.NewOptionStyler(os.Stdout))),
	)
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().Bool("json", false, "Read and write JSON lines instead of text")
	chatCmd.Flags().String("session", "", "Session id (default: random)")

	// chat is what a bare "hearth" does.
	rootCmd.RunE = chatCmd.RunE
	rootCmd.Flags().AddFlagSet(chatCmd.Flags())
}
