// Package tui is a terminal shell that browses the site through the same
// router and page handlers the browser uses.
package tui

import (
	"context"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/mibitech/mibitech-site/internal/config"
	"github.com/mibitech/mibitech-site/internal/models"
	"github.com/mibitech/mibitech-site/internal/pages"
	"github.com/mibitech/mibitech-site/pkg/datafetch"
	"github.com/mibitech/mibitech-site/pkg/navigation"
)

type Options struct {
	ConfigPath string
	// SiteURL is where views are fetched from, e.g. a running `serve`.
	SiteURL string
	Path    string
}

func Run(ctx context.Context, opts Options, in io.Reader, out io.Writer) error {
	cfg, err := config.Load(strings.TrimSpace(opts.ConfigPath))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	siteURL := strings.TrimRight(strings.TrimSpace(opts.SiteURL), "/")
	if siteURL == "" {
		siteURL = "http://localhost" + cfg.Server.Listen
	}
	path := strings.TrimSpace(opts.Path)
	if path == "" {
		path = "/"
	}
	sess, err := navigation.NewSession(siteURL + path)
	if err != nil {
		return fmt.Errorf("session: %w", err)
	}
	pf, err := models.LoadPortfolioFile(cfg.Content.PortfolioFile)
	if err != nil {
		return err
	}

	// The terminal belongs to bubbletea; keep logs out of it.
	logger := zap.NewNop()
	deps := pages.Deps{
		Company: models.NewCompany(
			datafetch.New(cfg.FetchConfig(), datafetch.WithLogger(logger)),
			datafetch.New(cfg.FetchConfig(), datafetch.WithLogger(logger)),
		),
		Portfolio: pf,
		Logger:    logger,
	}
	build := func() *pages.App {
		return pages.New(ctx, sess, deps, nil,
			navigation.WithAssetRewrite(cfg.Content.AssetPrefixFrom, cfg.Content.AssetPrefixTo))
	}

	p := tea.NewProgram(newBrowserModel(sess, build),
		tea.WithInput(in), tea.WithOutput(out), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui run failed: %w", err)
	}
	return nil
}
