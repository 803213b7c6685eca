package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/kingrea/roadmap/internal/feature"
)

func newFeaturesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "features",
		Short: "Fetch the roadmap once and print pending and completed features",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := opts.load()
			if err != nil {
				return err
			}
			defer rt.Close()
			features, err := rt.client.FetchFeatures(cmd.Context())
			if err != nil {
				rt.journal.Error("Load failed: %v", err)
				return err
			}
			pending, completed := feature.Partition(features)
			out := cmd.OutOrStdout()
			printSection(out, "Pending", pending)
			fmt.Fprintln(out)
			printSection(out, "Completed", completed)
			return nil
		},
	}
}

func printSection(out io.Writer, title string, features []feature.Feature) {
	heading := lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("%s (%d)", title, len(features)))
	fmt.Fprintln(out, heading)
	if len(features) == 0 {
		fmt.Fprintln(out, "  none")
		return
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "TITLE", "VOTES", "DESCRIPTION")
	for _, f := range features {
		t.Row(f.ID, f.Title, strconv.Itoa(f.Votes), f.Description)
	}
	fmt.Fprintln(out, t.Render())
}
