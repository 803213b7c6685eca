package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kingrea/roadmap/internal/session"
)

func newSessionCmd(opts *rootOptions) *cobra.Command {
	sessionCmd := &cobra.Command{
		Use:   "session",
		Short: "Show the session identifier sent with votes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := opts.load()
			if err != nil {
				return err
			}
			defer rt.Close()
			id, err := session.NewProvider(session.StoreFor(rt.cfg)).SessionID()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
	sessionCmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Forget the stored session; the next vote starts a new one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := opts.load()
			if err != nil {
				return err
			}
			defer rt.Close()
			if err := session.NewProvider(session.StoreFor(rt.cfg)).Reset(); err != nil {
				return err
			}
			rt.journal.Info("Session cleared")
			fmt.Fprintln(cmd.OutOrStdout(), "Session cleared")
			return nil
		},
	})
	return sessionCmd
}
