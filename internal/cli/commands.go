// Package cli implements consolectl, the command line front end of the content
// console. Commands drive the same console controllers a UI would.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/content-console/internal/console"
	"github.com/noah-isme/content-console/pkg/client"
	"github.com/noah-isme/content-console/pkg/config"
	"github.com/noah-isme/content-console/pkg/logger"
)

var (
	_ console.PageFetcher   = (*client.Client)(nil)
	_ console.DetailFetcher = (*client.Client)(nil)
	_ console.EntityMapper  = (*client.Client)(nil)
	_ console.ContentLister = (*client.Client)(nil)
	_ console.ContentWriter = (*client.Client)(nil)
)

// GlobalOptions are the connection flags shared by every command.
type GlobalOptions struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	Verbose bool
}

type app struct {
	cfg    config.ConsoleConfig
	opts   GlobalOptions
	client *client.Client
	logger *zap.Logger
}

// New builds the consolectl root command. cfg supplies flag defaults.
func New(cfg config.ConsoleConfig) *cobra.Command {
	a := &app{cfg: cfg}

	cmd := &cobra.Command{
		Use:           "consolectl",
		Short:         "Manage carousels, cards, notes and reels and their batch mappings.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.connect()
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.opts.BaseURL, "base-url", cfg.BaseURL, "Content API base URL including the API prefix.")
	flags.StringVar(&a.opts.Token, "token", cfg.Token, "Bearer token, see `consolectl login`.")
	flags.DurationVar(&a.opts.Timeout, "timeout", cfg.Timeout, "Request timeout.")
	flags.BoolVarP(&a.opts.Verbose, "verbose", "v", false, "Log requests to stderr.")

	addCommands(cmd, a)
	return cmd
}

// addCommands registers the subcommands on topLevel.
func addCommands(topLevel *cobra.Command, a *app) {
	addLogin(topLevel, a)
	addOptions(topLevel, a)
	addContent(topLevel, a)
	addExport(topLevel, a)
	addRBAC(topLevel, a)
}

func (a *app) connect() {
	if a.logger == nil {
		a.logger = logger.NewCLI(a.opts.Verbose)
	}
	a.client = client.New(client.Config{
		BaseURL: a.opts.BaseURL,
		Token:   a.opts.Token,
		Timeout: a.opts.Timeout,
		Logger:  a.logger,
	})
}

func (a *app) pageSize(flag int) int {
	if flag > 0 {
		return flag
	}
	return a.cfg.PageSize
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}
