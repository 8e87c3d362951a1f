package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mibitech/mibitech-site/internal/config"
	"github.com/mibitech/mibitech-site/internal/logx"
	"github.com/mibitech/mibitech-site/internal/requestid"
	"github.com/mibitech/mibitech-site/pkg/datafetch"
)

type fetchOptions struct {
	retries int
	data    string
	baseURL string
	headers []string
}

func newFetchCmd(root *rootOptions) *cobra.Command {
	opts := fetchOptions{retries: -1}
	cmd := &cobra.Command{
		Use:   "fetch <endpoint>",
		Short: "Call an API endpoint with the site's retrying client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(root.cfgPath)
			if err != nil {
				return err
			}
			if strings.TrimSpace(opts.baseURL) != "" {
				cfg.API.BaseURL = strings.TrimSpace(opts.baseURL)
			}
			logger, err := logx.New(cfg.Logging.Level, cfg.Logging.Format)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			raw, err := runFetch(ctx, cfg, logger, args[0], opts)
			if err != nil {
				return err
			}
			var out bytes.Buffer
			if err := json.Indent(&out, raw, "", "  "); err != nil {
				out.Reset()
				out.Write(raw)
			}
			fmt.Fprintln(cmd.OutOrStdout(), out.String())
			return nil
		},
	}
	fs := cmd.Flags()
	fs.IntVar(&opts.retries, "retries", -1, "retries for GET (default api.max_retries)")
	fs.StringVarP(&opts.data, "data", "d", "", "JSON body; switches to a single-attempt POST")
	fs.StringVar(&opts.baseURL, "base-url", "", "override api.base_url")
	fs.StringArrayVarP(&opts.headers, "header", "H", nil, "extra header 'Key: Value' (repeatable)")
	return cmd
}

func runFetch(ctx context.Context, cfg *config.Config, logger *zap.Logger, endpoint string, opts fetchOptions) (json.RawMessage, error) {
	callOpts := []datafetch.CallOption{datafetch.WithHeader(requestid.HeaderKey, requestid.Gen())}
	for _, h := range opts.headers {
		k, v, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("invalid header %q", h)
		}
		callOpts = append(callOpts, datafetch.WithHeader(strings.TrimSpace(k), strings.TrimSpace(v)))
	}
	f := datafetch.New(cfg.FetchConfig(), datafetch.WithLogger(logger))

	if opts.data != "" {
		var payload any
		if err := json.Unmarshal([]byte(opts.data), &payload); err != nil {
			return nil, fmt.Errorf("--data is not valid JSON: %w", err)
		}
		return f.PostData(ctx, endpoint, payload, callOpts...)
	}
	if opts.retries >= 0 {
		callOpts = append(callOpts, datafetch.WithMaxRetries(opts.retries))
	}
	return f.FetchData(ctx, endpoint, callOpts...)
}
