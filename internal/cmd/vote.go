package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kingrea/roadmap/internal/session"
	"github.com/kingrea/roadmap/internal/voting"
)

func newVoteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "vote <feature-id>",
		Short: "Vote for one feature using the stored session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.load()
			if err != nil {
				return err
			}
			defer rt.Close()

			err = newSubmitter(rt).Submit(cmd.Context(), args[0])
			var rejected *voting.RejectedError
			switch {
			case err == nil:
				fmt.Fprintf(cmd.OutOrStdout(), "🎉 Vote recorded for %s\n", args[0])
				return nil
			case errors.As(err, &rejected):
				return rejected
			default:
				rt.logger.Printf("roadmap: vote %s: %v", args[0], err)
				return fmt.Errorf("vote not sent: %w", err)
			}
		},
	}
}

// newSubmitter votes through the runtime client. Journal entries are scoped
// to the session once the first vote resolves it.
func newSubmitter(rt *runtime) *voting.Submitter {
	return voting.NewSubmitter(rt.client, session.NewProvider(session.StoreFor(rt.cfg)),
		voting.WithJournal(rt.journal),
		voting.WithSessionScope(func(id string) voting.Journal { return rt.journal.WithScope(id) }),
		voting.WithInFlightGuard(rt.cfg.GuardInFlight()),
	)
}
