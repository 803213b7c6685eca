package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kingrea/roadmap/internal/web"
)

func newWebCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "web",
		Short: "Serve the roadmap board to a browser until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := opts.load()
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := web.NewServer(web.SettingsFromConfig(rt.cfg), rt.client,
				web.WithLogger(rt.logger),
				web.WithJournal(rt.journal),
			)
			if err := srv.Start(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Roadmap board on %s (Ctrl+C to stop)\n", srv.BaseURL())
			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("web: shutdown: %w", err)
			}
			return nil
		},
	}
}
