package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mibitech/mibitech-site/internal/config"
	"github.com/mibitech/mibitech-site/internal/models"
)

func newCheckCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Test the configuration and exit (no network)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := runConfigTest(cmd.OutOrStdout(), root.cfgPath); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "configuration ok")
			return nil
		},
	}
}

func runConfigTest(w io.Writer, cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	fmt.Fprintf(w, "ok: config api=%s\n", cfg.API.BaseURL)

	st, err := os.Stat(cfg.Server.StaticRoot)
	if err != nil {
		return fmt.Errorf("static root: %w", err)
	}
	if !st.IsDir() {
		return fmt.Errorf("static root %q is not a directory", cfg.Server.StaticRoot)
	}
	fmt.Fprintf(w, "ok: static root %s\n", cfg.Server.StaticRoot)

	if _, err := os.Stat(cfg.ViewsPath()); err != nil {
		fmt.Fprintf(w, "warn: views dir %s: %v\n", cfg.ViewsPath(), err)
	}

	pf, err := models.LoadPortfolioFile(cfg.Content.PortfolioFile)
	if err != nil {
		return fmt.Errorf("portfolio: %w", err)
	}
	fmt.Fprintf(w, "ok: portfolio projects=%d\n", len(pf.All()))
	return nil
}

func newReloadCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Ask a running server (via its pid file) to reload config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendReloadSignal(root.cfgPath)
		},
	}
}

func sendReloadSignal(cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	pidFile := strings.TrimSpace(cfg.Server.PidFile)
	if pidFile == "" {
		return errors.New("server.pid_file is not set")
	}
	// #nosec G304 -- pid file path comes from trusted config/env.
	b, err := os.ReadFile(pidFile)
	if err != nil {
		return fmt.Errorf("read pid file %q: %w", pidFile, err)
	}
	pidStr := strings.TrimSpace(string(b))
	pid, err := strconv.Atoi(pidStr)
	if err != nil || pid <= 0 {
		return fmt.Errorf("invalid pid in %q: %q", pidFile, pidStr)
	}
	p, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("find process pid=%d: %w", pid, err)
	}
	if err := p.Signal(syscall.SIGHUP); err != nil {
		return fmt.Errorf("send SIGHUP pid=%d: %w", pid, err)
	}
	return nil
}
