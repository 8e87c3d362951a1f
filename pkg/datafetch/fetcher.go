package datafetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultBaseURL        = "http://localhost:8000"
	DefaultMaxRetries     = 3
	DefaultInitialBackoff = time.Second
	DefaultMaxBackoff     = 10 * time.Second

	maxBodyBytes = 8 << 20
)

// Config is fixed for the lifetime of a Fetcher.
type Config struct {
	BaseURL string

	// MaxRetries is the GET retry count. Nil means DefaultMaxRetries;
	// use Retries(0) for a single attempt.
	MaxRetries *int

	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	// Timeout bounds one attempt. Zero means no per-attempt limit.
	Timeout time.Duration
}

// DefaultConfig mirrors the site defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL:        DefaultBaseURL,
		MaxRetries:     Retries(DefaultMaxRetries),
		InitialBackoff: DefaultInitialBackoff,
		MaxBackoff:     DefaultMaxBackoff,
	}
}

// Retries returns n as a Config.MaxRetries value.
func Retries(n int) *int { return &n }

func (c Config) withDefaults() Config {
	n := DefaultMaxRetries
	if c.MaxRetries != nil {
		n = max(*c.MaxRetries, 0)
	}
	c.MaxRetries = &n
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = DefaultInitialBackoff
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = DefaultMaxBackoff
	}
	return c
}

// State is a snapshot of a Fetcher's visible state.
type State struct {
	IsLoading bool
	Err       string
	Data      json.RawMessage
}

// SleepFunc waits d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type Option func(*Fetcher)

func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		if c != nil {
			f.client = c
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithSleep replaces the wait between attempts.
func WithSleep(fn SleepFunc) Option {
	return func(f *Fetcher) {
		if fn != nil {
			f.sleep = fn
		}
	}
}

func WithBackoff(b Backoff) Option {
	return func(f *Fetcher) {
		if b != nil {
			f.backoff = b
		}
	}
}

type callOptions struct {
	headers    http.Header
	maxRetries int
}

// CallOption adjusts a single FetchData or PostData call.
type CallOption func(*callOptions)

func WithHeader(key, value string) CallOption {
	return func(o *callOptions) { o.headers.Set(key, value) }
}

// WithMaxRetries overrides Config.MaxRetries for one FetchData call.
func WithMaxRetries(n int) CallOption {
	return func(o *callOptions) {
		if n >= 0 {
			o.maxRetries = n
		}
	}
}

// Fetcher performs JSON requests against one base URL and exposes the
// outcome of the last call.
type Fetcher struct {
	cfg     Config
	client  *http.Client
	logger  *zap.Logger
	backoff Backoff
	sleep   SleepFunc

	mu      sync.RWMutex
	loading bool
	errMsg  string
	data    json.RawMessage
}

func New(cfg Config, opts ...Option) *Fetcher {
	cfg = cfg.withDefaults()
	f := &Fetcher{
		cfg:     cfg,
		client:  http.DefaultClient,
		logger:  zap.NewNop(),
		backoff: NewExponentialBackoff(cfg.InitialBackoff, cfg.MaxBackoff, 2),
		sleep:   sleepContext,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

func (f *Fetcher) Config() Config { return f.cfg }

// BuildURL joins endpoint to the base URL with exactly one slash.
func (f *Fetcher) BuildURL(endpoint string) string {
	return BuildURL(f.cfg.BaseURL, endpoint)
}

// BuildURL trims surrounding slashes from endpoint and trailing slashes from
// base, then joins them with "/".
func BuildURL(base, endpoint string) string {
	return strings.TrimRight(base, "/") + "/" + strings.Trim(endpoint, "/")
}

func (f *Fetcher) newCallOptions(opts []CallOption) callOptions {
	o := callOptions{headers: http.Header{}, maxRetries: *f.cfg.MaxRetries}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// FetchData GETs endpoint, retrying failed attempts with backoff. On success
// the body is stored as Data and returned. On final failure the error is
// stored and returned as a *FetchError; Data keeps its previous value.
func (f *Fetcher) FetchData(ctx context.Context, endpoint string, opts ...CallOption) (json.RawMessage, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	o := f.newCallOptions(opts)
	target := f.BuildURL(endpoint)
	f.begin()

	var (
		lastStatus int
		lastErr    error
		attempts   int
	)
	for attempt := 0; attempt <= o.maxRetries; attempt++ {
		attempts++
		body, status, err := f.do(ctx, http.MethodGet, target, nil, o.headers)
		if err == nil {
			recordAttempt(http.MethodGet, true)
			f.finish(body, true, "")
			return body, nil
		}
		recordAttempt(http.MethodGet, false)
		lastStatus, lastErr = status, err
		f.logger.Warn("fetch attempt failed",
			zap.String("url", target),
			zap.Int("attempt", attempt+1),
			zap.Int("status", status),
			zap.Error(err),
		)
		if ctx.Err() != nil || attempt == o.maxRetries {
			break
		}
		wait := f.backoff.Next(attempt)
		FetchBackoffSeconds.Observe(wait.Seconds())
		if serr := f.sleep(ctx, wait); serr != nil {
			lastErr = serr
			lastStatus = 0
			break
		}
	}

	fe := &FetchError{Method: http.MethodGet, URL: target, Status: lastStatus, Attempts: attempts, Err: lastErr}
	FetchFailuresTotal.WithLabelValues(http.MethodGet).Inc()
	f.logger.Error("fetch failed", zap.String("url", target), zap.Int("attempts", attempts), zap.Error(fe))
	f.finish(nil, false, fe.Error())
	return nil, fe
}

// PostData sends payload as JSON in a single attempt and returns the
// decoded response body. Data is not touched.
func (f *Fetcher) PostData(ctx context.Context, endpoint string, payload any, opts ...CallOption) (json.RawMessage, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	o := f.newCallOptions(opts)
	target := f.BuildURL(endpoint)
	f.begin()

	raw, err := json.Marshal(payload)
	if err != nil {
		fe := &FetchError{Method: http.MethodPost, URL: target, Err: fmt.Errorf("encode payload: %w", err)}
		f.finish(nil, false, fe.Error())
		return nil, fe
	}
	body, status, err := f.do(ctx, http.MethodPost, target, raw, o.headers)
	recordAttempt(http.MethodPost, err == nil)
	if err != nil {
		fe := &FetchError{Method: http.MethodPost, URL: target, Status: status, Attempts: 1, Err: err}
		FetchFailuresTotal.WithLabelValues(http.MethodPost).Inc()
		f.logger.Error("post failed", zap.String("url", target), zap.Error(fe))
		f.finish(nil, false, fe.Error())
		return nil, fe
	}
	f.finish(nil, false, "")
	return body, nil
}

// do runs one attempt. status is non-zero only for non-2xx responses.
func (f *Fetcher) do(ctx context.Context, method, target string, payload []byte, extra http.Header) (json.RawMessage, int, error) {
	if f.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.cfg.Timeout)
		defer cancel()
	}
	var rd io.Reader
	if payload != nil {
		rd = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, rd)
	if err != nil {
		return nil, 0, err
	}
	if method == http.MethodGet {
		req.Header.Set("Accept", "application/json")
	} else {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range extra {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, resp.StatusCode, fmt.Errorf("HTTP error! Status: %d", resp.StatusCode)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, 0, fmt.Errorf("read body: %w", err)
	}
	if !json.Valid(b) {
		return nil, 0, ErrInvalidJSON
	}
	return json.RawMessage(b), 0, nil
}

func (f *Fetcher) begin() {
	f.mu.Lock()
	f.loading = true
	f.errMsg = ""
	f.mu.Unlock()
}

func (f *Fetcher) finish(data json.RawMessage, store bool, errMsg string) {
	f.mu.Lock()
	f.loading = false
	f.errMsg = errMsg
	if store {
		f.data = data
	}
	f.mu.Unlock()
}

func (f *Fetcher) IsLoading() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.loading
}

// LastError is the message of the last failed call, or "".
func (f *Fetcher) LastError() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.errMsg
}

func (f *Fetcher) Data() json.RawMessage {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.data
}

func (f *Fetcher) State() State {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return State{IsLoading: f.loading, Err: f.errMsg, Data: f.data}
}

// SetData replaces the stored data.
func (f *Fetcher) SetData(data json.RawMessage) {
	f.mu.Lock()
	f.data = data
	f.mu.Unlock()
}

func (f *Fetcher) ClearData() { f.SetData(nil) }

func (f *Fetcher) ClearError() {
	f.mu.Lock()
	f.errMsg = ""
	f.mu.Unlock()
}

// Decode unmarshals raw into a T.
func Decode[T any](raw json.RawMessage) (T, error) {
	var v T
	if len(raw) == 0 {
		return v, fmt.Errorf("decode: empty body")
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("decode: %w", err)
	}
	return v, nil
}
