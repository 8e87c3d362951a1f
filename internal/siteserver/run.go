package siteserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mibitech/mibitech-site/internal/config"
	"github.com/mibitech/mibitech-site/internal/logx"
	"github.com/mibitech/mibitech-site/internal/models"
	"github.com/mibitech/mibitech-site/internal/version"
)

// Run serves the site until SIGINT or SIGTERM.
func Run(cfgPath string) error {
	startedAt := time.Now().Unix()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := logx.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	accessLogger, accessClose, accessColor, err := openAccessLogger(cfg)
	if err != nil {
		return fmt.Errorf("init access log: %w", err)
	}
	if accessClose != nil {
		defer func() { _ = accessClose.Close() }()
	}

	pidCleanup, err := writePIDFile(cfg)
	if err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	if pidCleanup != nil {
		defer func() { _ = pidCleanup.Close() }()
	}

	st, err := newState(cfg, logger)
	if err != nil {
		return err
	}
	st.SetStartedAtUnix(startedAt)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rl := &reloader{path: cfgPath, st: st, logger: logger}
	installReloadSignalHandler(ctx, rl)
	if strings.TrimSpace(cfgPath) != "" {
		if err := watchConfig(ctx, cfgPath, logger, func() { rl.reload("watch") }); err != nil {
			logger.Warn("config watch disabled", zap.Error(err))
		}
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           NewRouter(st, accessLogger, accessColor),
		ReadTimeout:       cfg.ReadTimeout(),
		ReadHeaderTimeout: cfg.ReadTimeout(),
		WriteTimeout:      cfg.WriteTimeout(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("mibitech-site listening", zap.String("addr", cfg.Server.Listen), zap.String("api", cfg.API.BaseURL), zap.String("version", version.Get().Short()))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("run: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newState(cfg *config.Config, logger *zap.Logger) (*state, error) {
	p, err := newAPIProxy(cfg, nil, logger)
	if err != nil {
		return nil, err
	}
	pf, err := models.LoadPortfolioFile(cfg.Content.PortfolioFile)
	if err != nil {
		return nil, fmt.Errorf("load portfolio file %q: %w", cfg.Content.PortfolioFile, err)
	}
	st := &state{}
	st.swap(cfg, p, pf)
	return st, nil
}

type reloader struct {
	mu     sync.Mutex
	path   string
	st     *state
	logger *zap.Logger
}

func (r *reloader) reload(trigger string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := reloadRuntime(r.path, r.st, r.logger); err != nil {
		configReloadsTotal.WithLabelValues(trigger, "error").Inc()
		r.logger.Error("reload failed", zap.String("trigger", trigger), zap.Error(err))
		return
	}
	configReloadsTotal.WithLabelValues(trigger, "ok").Inc()
	r.logger.Info("reload ok", zap.String("trigger", trigger))
}

func reloadRuntime(path string, st *state, logger *zap.Logger) error {
	if st == nil {
		return errors.New("reload: nil state")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("reload config %q: %w", path, err)
	}
	p, err := newAPIProxy(cfg, nil, logger)
	if err != nil {
		return err
	}
	pf, err := models.LoadPortfolioFile(cfg.Content.PortfolioFile)
	if err != nil {
		return fmt.Errorf("reload portfolio file %q: %w", cfg.Content.PortfolioFile, err)
	}
	st.swap(cfg, p, pf)
	return nil
}

func installReloadSignalHandler(ctx context.Context, rl *reloader) {
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGHUP)
	go func() {
		defer signal.Stop(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ch:
				rl.reload("sighup")
			}
		}
	}()
}

func openAccessLogger(cfg *config.Config) (*log.Logger, io.Closer, bool, error) {
	if cfg == nil || !cfg.Logging.AccessLog {
		return nil, nil, false, nil
	}

	path := strings.TrimSpace(cfg.Logging.AccessLogPath)
	if path == "" {
		return log.New(os.Stdout, "", 0), nil, logx.ColorEnabled(), nil
	}

	dir := filepath.Dir(path)
	if strings.TrimSpace(dir) != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, nil, false, err
		}
	}
	// #nosec G304 -- access_log_path comes from trusted config/env.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, false, err
	}
	return log.New(f, "", 0), f, false, nil
}

type closerFunc func() error

func (c closerFunc) Close() error { return c() }

func writePIDFile(cfg *config.Config) (io.Closer, error) {
	if cfg == nil {
		return nil, nil
	}
	path := strings.TrimSpace(cfg.Server.PidFile)
	if path == "" {
		return nil, nil
	}
	dir := filepath.Dir(path)
	if strings.TrimSpace(dir) != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, err
		}
	}

	tmp := path + ".tmp"
	pid := strconv.Itoa(os.Getpid()) + "\n"
	// #nosec G304 -- pid_file comes from trusted config/env.
	if err := os.WriteFile(tmp, []byte(pid), 0o600); err != nil {
		return nil, err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return nil, err
	}
	return closerFunc(func() error { return os.Remove(path) }), nil
}
