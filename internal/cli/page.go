package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/yosssi/gohtml"

	"github.com/mibitech/mibitech-site/internal/config"
	"github.com/mibitech/mibitech-site/internal/logx"
	"github.com/mibitech/mibitech-site/internal/models"
	"github.com/mibitech/mibitech-site/internal/pages"
	"github.com/mibitech/mibitech-site/pkg/datafetch"
	"github.com/mibitech/mibitech-site/pkg/navigation"
)

func newPageCmd(root *rootOptions) *cobra.Command {
	var siteURL string
	cmd := &cobra.Command{
		Use:   "page <path>",
		Short: "Resolve a path through the site router and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(root.cfgPath)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			v, err := resolvePage(ctx, cfg, siteURL, args[0])
			if err != nil {
				return err
			}
			writeView(cmd.OutOrStdout(), v)
			return nil
		},
	}
	cmd.Flags().StringVar(&siteURL, "site-url", "", "site serving /views (default http://localhost<server.listen>)")
	return cmd
}

// resolvePage runs one headless navigation and returns the rendered view.
func resolvePage(ctx context.Context, cfg *config.Config, siteURL, path string) (pages.View, error) {
	siteURL = strings.TrimRight(strings.TrimSpace(siteURL), "/")
	if siteURL == "" {
		siteURL = "http://localhost" + cfg.Server.Listen
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	sess, err := navigation.NewSession(siteURL + path)
	if err != nil {
		return pages.View{}, fmt.Errorf("session: %w", err)
	}
	pf, err := models.LoadPortfolioFile(cfg.Content.PortfolioFile)
	if err != nil {
		return pages.View{}, err
	}
	logger, err := logx.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return pages.View{}, err
	}
	defer func() { _ = logger.Sync() }()

	deps := pages.Deps{
		Company: models.NewCompany(
			datafetch.New(cfg.FetchConfig(), datafetch.WithLogger(logger)),
			datafetch.New(cfg.FetchConfig(), datafetch.WithLogger(logger)),
		),
		Portfolio: pf,
		Logger:    logger,
	}
	app := pages.New(ctx, sess, deps, nil,
		navigation.WithAssetRewrite(cfg.Content.AssetPrefixFrom, cfg.Content.AssetPrefixTo))
	return app.Last(), nil
}

func writeView(w io.Writer, v pages.View) {
	fmt.Fprintf(w, "title: %s\n", v.Title)
	fmt.Fprintf(w, "page:  %s\n", v.Page)
	fmt.Fprintf(w, "path:  %s\n", v.Path)
	if v.Err != "" {
		fmt.Fprintf(w, "error: %s\n", v.Err)
	}
	if strings.TrimSpace(v.HTML) != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, gohtml.Format(v.HTML))
	}
	for _, b := range v.Blocks {
		fmt.Fprintln(w)
		fmt.Fprintln(w, b)
	}
}
