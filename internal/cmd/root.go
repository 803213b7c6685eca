// Package cmd holds the roadmap command tree.
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/kingrea/roadmap/internal/api"
	"github.com/kingrea/roadmap/internal/config"
	"github.com/kingrea/roadmap/internal/logbook"
	"github.com/kingrea/roadmap/internal/logging"
	"github.com/kingrea/roadmap/internal/tui"
)

type rootOptions struct {
	dir    string
	apiURL string
}

// runtime is everything a subcommand needs, built once per invocation.
type runtime struct {
	cfg     *config.Config
	logger  *logging.Logger
	journal *logbook.Logbook
	client  *api.Client
}

func (r *runtime) Close() error {
	return r.logger.Close()
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "roadmap",
		Short: "Browse the product roadmap and vote for features",
		Long: `roadmap shows the features on the product roadmap, split into
pending and completed, and lets you vote for the pending ones once per
session.

Run without a subcommand to open the interactive board.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := opts.load()
			if err != nil {
				return err
			}
			defer rt.Close()
			return runBoard(cmd.Context(), rt)
		},
	}
	root.PersistentFlags().StringVarP(&opts.dir, "dir", "C", "", "working directory holding .roadmap/ (default is the current directory)")
	root.PersistentFlags().StringVar(&opts.apiURL, "api-url", "", "voting service base URL (overrides config and ROADMAP_API_URL)")

	root.AddCommand(
		newFeaturesCmd(opts),
		newVoteCmd(opts),
		newSessionCmd(opts),
		newWebCmd(opts),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().ExecuteContext(context.Background())
}

func (o *rootOptions) load() (*runtime, error) {
	dir := strings.TrimSpace(o.dir)
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolve working directory: %w", err)
		}
		dir = cwd
	}
	if err := config.InitRoadmapDir(dir); err != nil {
		return nil, fmt.Errorf("initialize %s directory: %w", config.RoadmapDir, err)
	}
	cfg, err := config.NewConfig(dir)
	if err != nil {
		return nil, err
	}
	if o.apiURL != "" {
		if err := cfg.SetBaseURL(o.apiURL); err != nil {
			return nil, err
		}
	}
	logger, err := logging.New(dir)
	if err != nil {
		return nil, err
	}
	journal, err := logbook.New(cfg.ActivityLogPath())
	if err != nil {
		_ = logger.Close()
		return nil, fmt.Errorf("open logbook: %w", err)
	}
	logger.Printf("roadmap: service %s", cfg.BaseURL())
	return &runtime{
		cfg:     cfg,
		logger:  logger,
		journal: journal,
		client:  api.NewClient(cfg.BaseURL(), api.WithTimeout(cfg.Timeout())),
	}, nil
}

func runBoard(ctx context.Context, rt *runtime) error {
	app, err := tui.NewApp(rt.cfg, tui.WithLogbook(rt.journal), tui.WithFeatureSource(rt.client),
		tui.WithSubmitter(newSubmitter(rt)),
		tui.WithContext(ctx),
	)
	if err != nil {
		return err
	}
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		rt.logger.Printf("roadmap: tui: %v", err)
		return fmt.Errorf("run board: %w", err)
	}
	return nil
}
