// Package cli is the mibitech-site command tree.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mibitech/mibitech-site/internal/devapi"
	"github.com/mibitech/mibitech-site/internal/siteserver"
	"github.com/mibitech/mibitech-site/internal/tui"
	"github.com/mibitech/mibitech-site/internal/version"
)

func Run(args []string) error {
	root := newRootCmd()
	root.SetArgs(args)
	return root.Execute()
}

type rootOptions struct {
	cfgPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "mibitech-site",
		Short:         "MibiTech site server and tools",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.cfgPath, "config", "c", "", "config yaml path (defaults plus SITE_* env when empty)")
	cmd.AddCommand(
		newServeCmd(opts),
		newDevAPICmd(opts),
		newFetchCmd(opts),
		newPageCmd(opts),
		newBrowseCmd(opts),
		newCheckCmd(opts),
		newReloadCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the static site, env-config and the API proxy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return siteserver.Run(opts.cfgPath)
		},
	}
}

func newDevAPICmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "devapi",
		Short: "Run the local sqlite-backed API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return devapi.Run(opts.cfgPath)
		},
	}
}

func newBrowseCmd(opts *rootOptions) *cobra.Command {
	var siteURL string
	cmd := &cobra.Command{
		Use:   "browse [path]",
		Short: "Browse the site in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/"
			if len(args) == 1 {
				path = args[0]
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return tui.Run(ctx, tui.Options{ConfigPath: opts.cfgPath, SiteURL: siteURL, Path: path}, os.Stdin, os.Stdout)
		},
	}
	cmd.Flags().StringVar(&siteURL, "site-url", "", "site to browse (default http://localhost<server.listen>)")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), version.Get().String())
			return nil
		},
	}
}
