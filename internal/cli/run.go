package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/soyeahso/irccord/internal/bridge"
	"github.com/soyeahso/irccord/internal/config"
	"github.com/soyeahso/irccord/internal/console"
	"github.com/soyeahso/irccord/internal/hooks"
	"github.com/soyeahso/irccord/internal/journal"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newRunCmd() *cobra.Command {
	var (
		stateless bool
		noPersist bool
		noJournal bool
		style     string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Connect to Discord and bridge it to stdin/stdout",
		Long: "Connect to Discord and print every delivered event as an IRC line. " +
			"Lines typed on stdin are sent as raw IRC commands; /quit disconnects.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			if stateless {
				cfg.Discord.StatelessMode = true
			}
			if noPersist {
				persist := false
				cfg.Bridge.Persist = &persist
			}
			if style != "" {
				cfg.Console.Style = style
			}

			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				for _, issue := range issues {
					log.Error().Str("path", issue.Path).Msg(issue.Message)
				}
				return fmt.Errorf("config validation failed with %d issue(s)", len(issues))
			}

			if err := paths.EnsureDirs(); err != nil {
				return fmt.Errorf("creating data directories: %w", err)
			}

			hookMgr := hooks.NewManager(log)

			if cfg.Journal.IsEnabled() && !noJournal {
				dbPath := paths.JournalPath(cfg.Journal)
				db, err := journal.Open(dbPath, log)
				if err != nil {
					return fmt.Errorf("opening journal: %w", err)
				}
				defer db.Close()
				db.Subscribe(hookMgr)
				log.Info().Str("path", dbPath).Msg("recording relay journal")
			}

			hookMgr.On(hooks.EventReady, "cli", func(_ context.Context, p hooks.Payload) error {
				log.Info().
					Str("nick", p.String("nick")).
					Interface("servers", p.Data["servers"]).
					Msg("bridge ready")
				return nil
			})

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			out := console.New(os.Stdout, console.Style(cfg.Console.Style), log)
			conn := bridge.New(bridge.Options{
				Token:          cfg.Discord.Token,
				Nick:           cfg.Bridge.Nick,
				Caps:           cfg.Bridge.Caps,
				Persist:        cfg.Bridge.PersistEnabled(),
				ReconnectDelay: time.Duration(cfg.Bridge.ReconnectDelay) * time.Second,
				StatelessMode:  cfg.Discord.StatelessMode,
				LegacyTrailing: cfg.Bridge.LegacyTrailing,
				Hooks:          hookMgr,
			}, out, log)

			go func() {
				var err error
				if term.IsTerminal(int(os.Stdin.Fd())) {
					err = out.Interactive(ctx, conn, filepath.Join(paths.Data, "history"))
				} else {
					err = out.ReadLoop(ctx, os.Stdin, conn)
				}
				if err != nil {
					log.Error().Err(err).Msg("console input stopped")
				}
			}()

			log.Info().
				Bool("stateless", cfg.Discord.StatelessMode).
				Bool("persist", cfg.Bridge.PersistEnabled()).
				Strs("hooks", hookMgr.Events()).
				Msg("connecting to Discord")
			return conn.Run(ctx)
		},
	}

	cmd.Flags().BoolVar(&stateless, "stateless", false, "subscribe to the minimal set of gateway intents")
	cmd.Flags().BoolVar(&noPersist, "no-persist", false, "exit instead of reconnecting when the session drops")
	cmd.Flags().BoolVar(&noJournal, "no-journal", false, "do not record the relay journal")
	cmd.Flags().StringVar(&style, "style", "", "event output style (raw, pretty)")

	return cmd
}
