package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dlblack/sad-sandbox-sub000/store"
)

func newWatchCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow rule changes made by other processes",
		Long: `Watch listens on the storage backend's change feed and reloads the merged
rules whenever another process saves user overrides. Each reload prints the
new rule count. Stop with Ctrl-C.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := openApp(ctx, flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			unsubscribe := a.store.Subscribe(func() {
				fmt.Fprintf(out, "%s rules reloaded: %d merged, %d user\n",
					time.Now().Format(time.RFC3339), len(a.store.Merged().Rules), len(a.store.UserOverrides(ctx).Rules))
			})
			defer unsubscribe()

			fmt.Fprintf(out, "Watching %s storage, key %q (%d merged rules)\n",
				a.cfg.Storage.Type, a.store.Key(), len(a.store.Merged().Rules))

			err = a.store.Watch(ctx)
			if errors.Is(err, store.ErrNoChangeFeed) {
				return fmt.Errorf("%s storage cannot be watched: %w", a.cfg.Storage.Type, err)
			}
			return err
		},
	}
}
