package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/soyeahso/irccord/internal/config"
	"github.com/soyeahso/irccord/internal/journal"
	"github.com/soyeahso/irccord/internal/version"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show irccord configuration and journal summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("irccord %s (commit %s)\n\n", version.Version, version.Commit)

			fmt.Printf("Config:  %s\n", paths.Config)
			fmt.Printf("Data:    %s\n", paths.Data)
			fmt.Println()

			if _, err := os.Stat(paths.Config); os.IsNotExist(err) {
				fmt.Println("Config:  not found (using defaults)")
			}

			cfg, err := config.Load(paths.Config)
			if err != nil {
				fmt.Printf("Config:  error loading: %v\n", err)
				return nil
			}

			token := "(not set)"
			if cfg.Discord.Token != "" {
				token = "(set)"
			}
			fmt.Printf("Discord: token=%s stateless=%v\n", token, cfg.Discord.StatelessMode)

			caps := "(none)"
			if len(cfg.Bridge.Caps) > 0 {
				caps = strings.Join(cfg.Bridge.Caps, ",")
			}
			fmt.Printf("Bridge:  nick=%s persist=%v reconnect=%ds caps=%s legacyTrailing=%v\n",
				cfg.Bridge.Nick, cfg.Bridge.PersistEnabled(), cfg.Bridge.ReconnectDelay,
				caps, cfg.Bridge.LegacyTrailing)
			fmt.Printf("Logging: level=%s style=%s\n", cfg.Logging.Level, cfg.Logging.ConsoleStyle)

			if cfg.Journal.IsEnabled() {
				dbPath := paths.JournalPath(cfg.Journal)
				fmt.Printf("Journal: %s", dbPath)
				if _, err := os.Stat(dbPath); err == nil {
					if n, err := countJournal(cmd.Context(), dbPath); err == nil {
						fmt.Printf(" (%d entries)", n)
					} else {
						fmt.Printf(" (error: %v)", err)
					}
				} else {
					fmt.Print(" (not created yet)")
				}
				fmt.Println()
			} else {
				fmt.Println("Journal: disabled")
			}

			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				fmt.Printf("\nValidation issues (%d):\n", len(issues))
				for _, issue := range issues {
					fmt.Printf("  - %s\n", issue)
				}
			}

			return nil
		},
	}

	return cmd
}

func countJournal(ctx context.Context, path string) (int, error) {
	db, err := journal.Open(path, log)
	if err != nil {
		return 0, err
	}
	defer db.Close()
	return db.Count(ctx)
}
