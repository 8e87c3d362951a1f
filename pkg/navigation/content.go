package navigation

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// maxContentBytes bounds a single fragment read.
const maxContentBytes = 4 << 20

type fallbackKey struct{}

func withFallback(ctx context.Context) context.Context {
	return context.WithValue(ctx, fallbackKey{}, true)
}

func inFallback(ctx context.Context) bool {
	v, _ := ctx.Value(fallbackKey{}).(bool)
	return v
}

// Sink receives loaded fragment text. Rendering is the caller's business.
type Sink func(content string)

// LoadContent fetches resource, rewrites the asset prefix and hands the text
// to sink. On failure the error is logged, the not-found handler runs and
// false is returned. A load made from inside that fallback (with the
// Request's Context) only reports failure.
func (r *Router) LoadContent(ctx context.Context, resource string, sink Sink) bool {
	if ctx == nil {
		ctx = context.Background()
	}
	body, err := r.fetchContent(ctx, resource)
	if err != nil {
		ContentLoadsTotal.WithLabelValues("error").Inc()
		r.logger.Warn("content load failed", zap.String("resource", resource), zap.Error(err))
		r.mu.RLock()
		notFound := r.notFound
		r.mu.RUnlock()
		if notFound != nil && !inFallback(ctx) {
			notFound(&Request{
				Path:     r.CurrentPath(),
				Router:   r,
				Fallback: true,
				ctx:      withFallback(ctx),
			})
		}
		return false
	}
	ContentLoadsTotal.WithLabelValues("ok").Inc()
	if r.assetFrom != "" {
		body = strings.ReplaceAll(body, r.assetFrom, r.assetTo)
	}
	if sink != nil {
		sink(body)
	}
	return true
}

func (r *Router) fetchContent(ctx context.Context, resource string) (string, error) {
	target, err := r.resolveResource(resource)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "text/html")
	resp, err := r.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxContentBytes))
		return "", fmt.Errorf("get %s: status %d", target, resp.StatusCode)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxContentBytes))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", target, err)
	}
	return string(b), nil
}

func (r *Router) resolveResource(resource string) (string, error) {
	ref, err := url.Parse(strings.TrimSpace(resource))
	if err != nil {
		return "", fmt.Errorf("parse resource %q: %w", resource, err)
	}
	base := r.contentBase
	if base == nil {
		base = r.env.Location()
	}
	if base == nil {
		return "", fmt.Errorf("no base to resolve %q", resource)
	}
	return base.ResolveReference(ref).String(), nil
}
