package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/hearth/internal/config"
	"github.com/aretw0/hearth/pkg/domain"
	"github.com/aretw0/hearth/pkg/ports"
	"github.com/spf13/cobra"
)

var transcriptsCmd = &cobra.Command{
	Use:     "transcripts",
	Aliases: []string{"transcript"},
	Short:   "Manage archived conversations",
	Long: `List, show, and remove the transcripts archived in the configured store.
The memory store lives only as long as one process, so these commands are
useful with HEARTH_STORE=file or HEARTH_STORE=redis.`,
}

var transcriptsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List archived conversations",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := openArchive()
		if err != nil {
			return err
		}
		defer closeStore()

		ids, err := store.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list transcripts: %w", err)
		}
		if len(ids) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No archived conversations found.")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Archived Conversations:")
		for _, id := range ids {
			fmt.Fprintln(cmd.OutOrStdout(), "- "+id)
		}
		return nil
	},
}

var transcriptsShowCmd = &cobra.Command{
	Use:     "show <session-id>",
	Aliases: []string{"inspect"},
	Short:   "Print an archived conversation",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonMode, _ := cmd.Flags().GetBool("json")
		store, closeStore, err := openArchive()
		if err != nil {
			return err
		}
		defer closeStore()

		t, err := store.Load(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to load transcript '%s': %w", args[0], err)
		}
		if jsonMode {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(t)
		}
		printTranscript(cmd.OutOrStdout(), t)
		return nil
	},
}

var transcriptsRmCmd = &cobra.Command{
	Use:   "rm <session-id>...",
	Short: "Remove one or more archived conversations",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := openArchive()
		if err != nil {
			return err
		}
		defer closeStore()

		var errs []error
		for _, id := range args {
			if err := store.Delete(cmd.Context(), id); err != nil {
				errs = append(errs, fmt.Errorf("failed to remove '%s': %w", id, err))
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed transcript '%s'\n", id)
		}
		return errors.Join(errs...)
	},
}

func init() {
	rootCmd.AddCommand(transcriptsCmd)
	transcriptsCmd.AddCommand(transcriptsLsCmd)
	transcriptsCmd.AddCommand(transcriptsShowCmd)
	transcriptsCmd.AddCommand(transcriptsRmCmd)

	transcriptsShowCmd.Flags().Bool("json", false, "Print the raw transcript as JSON")
}

// openArchive opens the configured store without building an assistant.
func openArchive() (ports.TranscriptStore, func(), error) {
	if cfg.Store == config.StoreNone {
		return nil, nil, errors.New("no transcript store configured (HEARTH_STORE=none)")
	}
	a := &app{}
	store, _, err := a.openStore(cfg)
	if err != nil {
		_ = a.Close()
		return nil, nil, err
	}
	return store, func() { _ = a.Close() }, nil
}

func printTranscript(w io.Writer, t *domain.Transcript) {
	fmt.Fprintf(w, "Session %s\n", t.SessionID)
	if !t.StartedAt.IsZero() {
		fmt.Fprintf(w, "Started %s, ended %s\n", t.StartedAt.Format("2006-01-02 15:04:05"), t.EndedAt.Format("2006-01-02 15:04:05"))
	}
	if t.Sealed != "" {
		fmt.Fprintln(w, "(encrypted; set HEARTH_ENCRYPTION_KEY to read it)")
		return
	}
	if t.State != nil {
		fmt.Fprintf(w, "Step: %s\n", t.State.Step)
	}
	fmt.Fprintln(w)
	for _, m := range t.Messages {
		fmt.Fprintf(w, "[%s] %s\n", m.Role, m.Content)
		for i, opt := range m.Options {
			fmt.Fprintf(w, "   %d) %s\n", i+1, opt.Label)
		}
	}
}
