package siteserver

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/mibitech/mibitech-site/internal/config"
)

var errUpstream = errors.New("upstream error")

// apiProxy forwards /api/* to the backend. Write methods share one token
// bucket and every request runs through a circuit breaker.
type apiProxy struct {
	target  *url.URL
	rp      *httputil.ReverseProxy
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
	logger  *zap.Logger
}

func newAPIProxy(cfg *config.Config, transport http.RoundTripper, logger *zap.Logger) (*apiProxy, error) {
	target, err := url.Parse(strings.TrimRight(cfg.API.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("api.base_url: %w", err)
	}
	p := &apiProxy{
		target:  target,
		limiter: rate.NewLimiter(rate.Limit(cfg.Proxy.WriteRPS), cfg.Proxy.WriteBurst),
		logger:  logger,
	}
	p.rp = &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
		},
		Transport: transport,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Warn("api proxy error", zap.String("path", r.URL.Path), zap.Error(err))
			w.WriteHeader(http.StatusBadGateway)
		},
	}

	threshold := uint32(cfg.Proxy.BreakerFailures)
	p.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "api",
		Timeout: cfg.BreakerTimeout(),
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit breaker state change",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			breakerState.WithLabelValues(name).Set(float64(to))
		},
	})
	return p, nil
}

func isWriteMethod(m string) bool {
	switch m {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func (p *apiProxy) handle(c *gin.Context) {
	c.Set("site.upstream", p.target.String())
	if isWriteMethod(c.Request.Method) && !p.limiter.Allow() {
		writeError(c, http.StatusTooManyRequests, "too many requests")
		return
	}
	_, err := p.breaker.Execute(func() (any, error) {
		p.rp.ServeHTTP(c.Writer, c.Request)
		if c.Writer.Status() >= http.StatusInternalServerError {
			return nil, errUpstream
		}
		return nil, nil
	})
	c.Set("site.upstream_status", c.Writer.Status())
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		c.Set("site.breaker", p.breaker.State().String())
		writeError(c, http.StatusServiceUnavailable, "api temporarily unavailable")
	}
}
