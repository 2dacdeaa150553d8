package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/soyeahso/irccord/internal/journal"
	"github.com/spf13/cobra"
)

func newJournalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Inspect the relay journal",
	}

	cmd.AddCommand(newJournalListCmd())
	cmd.AddCommand(newJournalPruneCmd())
	return cmd
}

func openJournal() (*journal.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	db, err := journal.Open(paths.JournalPath(cfg.Journal), log)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	return db, nil
}

func newJournalListCmd() *cobra.Command {
	var (
		channel   string
		direction string
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recently relayed messages, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch journal.Direction(direction) {
			case "", journal.Inbound, journal.Outbound:
			default:
				return fmt.Errorf("direction must be %q or %q, got %q", journal.Inbound, journal.Outbound, direction)
			}

			db, err := openJournal()
			if err != nil {
				return err
			}
			defer db.Close()

			entries, err := db.Recent(cmd.Context(), journal.Filter{
				Channel:   channel,
				Direction: journal.Direction(direction),
				Limit:     limit,
			})
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("No entries.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tDIR\tCOMMAND\tCHANNEL\tMSGID\tTEXT")
			for _, e := range entries {
				id := e.MsgID
				if id == "" {
					id = e.ReplyTo
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					e.CreatedAt.Local().Format(time.DateTime), e.Direction, e.Command,
					e.Channel, id, e.Preview)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&channel, "channel", "", "only show this channel (e.g. #1234 or 1234)")
	cmd.Flags().StringVar(&direction, "direction", "", "only show \"in\" or \"out\" entries")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of entries")

	return cmd
}

func newJournalPruneCmd() *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete journal entries older than a duration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return fmt.Errorf("--older-than must be positive")
			}

			db, err := openJournal()
			if err != nil {
				return err
			}
			defer db.Close()

			removed, err := db.Prune(cmd.Context(), time.Now().Add(-olderThan))
			if err != nil {
				return err
			}
			fmt.Printf("Removed %d entries\n", removed)
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "age of entries to delete")

	return cmd
}
