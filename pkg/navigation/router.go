package navigation

import (
	"context"
	"net/http"
	"net/url"
	"sync"

	"go.uber.org/zap"
)

const (
	DefaultAssetFrom = "../public/"
	DefaultAssetTo   = "/public/"
)

// Request is what a Handler receives for one navigation. Router is set so
// handlers can load content even during the resolution New performs.
type Request struct {
	Path    string
	Pattern string
	Params  map[string]string
	Router  *Router

	// Fallback is set when the not-found handler runs because a fragment
	// failed to load. LoadContent calls made with Context() will not fall
	// back again.
	Fallback bool

	ctx context.Context
}

// Context is the context of the load that triggered a fallback, or
// context.Background for ordinary navigations.
func (r *Request) Context() context.Context {
	if r == nil || r.ctx == nil {
		return context.Background()
	}
	return r.ctx
}

// Param returns the named segment captured for this navigation.
func (r *Request) Param(name string) string {
	if r == nil || r.Params == nil {
		return ""
	}
	return r.Params[name]
}

type Handler func(*Request)

type Option func(*Router)

// WithRoute registers a route before the initial resolution runs.
func WithRoute(pattern string, h Handler) Option {
	return func(r *Router) { r.handleLocked(pattern, h) }
}

func WithNotFound(h Handler) Option {
	return func(r *Router) { r.notFound = h }
}

func WithLogger(l *zap.Logger) Option {
	return func(r *Router) {
		if l != nil {
			r.logger = l
		}
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(r *Router) {
		if c != nil {
			r.client = c
		}
	}
}

// WithAssetRewrite replaces the prefix rewritten in loaded fragments.
func WithAssetRewrite(from, to string) Option {
	return func(r *Router) {
		r.assetFrom = from
		r.assetTo = to
	}
}

// WithContentBase resolves fragment resources against base instead of the
// document location.
func WithContentBase(base *url.URL) Option {
	return func(r *Router) { r.contentBase = base }
}

// Router maps paths to handlers and keeps an Env's history in step.
type Router struct {
	env         Env
	logger      *zap.Logger
	client      *http.Client
	contentBase *url.URL
	assetFrom   string
	assetTo     string

	mu            sync.RWMutex
	routes        map[string]Handler
	paramPatterns []string
	compiled      map[string]*compiledPattern
	notFound      Handler
	current       string
}

// New attaches a Router to env and resolves env's current path without
// recording a history entry.
func New(env Env, opts ...Option) *Router {
	r := &Router{
		env:       env,
		logger:    zap.NewNop(),
		client:    http.DefaultClient,
		assetFrom: DefaultAssetFrom,
		assetTo:   DefaultAssetTo,
		routes:    make(map[string]Handler),
		compiled:  make(map[string]*compiledPattern),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	env.OnPopState(r.handlePopState)
	env.OnIntent(r.handleIntent)

	r.Navigate(currentPath(env), false)
	return r
}

// Handle registers h for pattern. Registering the same pattern again
// replaces the previous handler.
func (r *Router) Handle(pattern string, h Handler) {
	r.mu.Lock()
	r.handleLocked(pattern, h)
	r.mu.Unlock()
}

func (r *Router) handleLocked(pattern string, h Handler) {
	if _, exists := r.routes[pattern]; !exists && IsParametrized(pattern) {
		r.paramPatterns = append(r.paramPatterns, pattern)
	}
	r.routes[pattern] = h
}

// NotFound sets the fallback handler.
func (r *Router) NotFound(h Handler) {
	r.mu.Lock()
	r.notFound = h
	r.mu.Unlock()
}

// Navigate resolves path. When record is true a history entry is pushed
// first. The current path is updated whether or not a route matches.
func (r *Router) Navigate(path string, record bool) {
	if record {
		r.env.PushState(path)
	}

	r.mu.Lock()
	r.current = path
	req, h := r.lookupLocked(path)
	notFound := r.notFound
	r.mu.Unlock()

	recordNavigation(h != nil, record)
	if h != nil {
		req.Router = r
		h(req)
		return
	}
	r.logger.Debug("no route matched", zap.String("path", path))
	if notFound != nil {
		notFound(&Request{Path: path, Router: r})
	}
}

// Redirect navigates to path and records it in history.
func (r *Router) Redirect(path string) { r.Navigate(path, true) }

func (r *Router) CurrentPath() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// ExtractParams is the package level ExtractParams using the Router's
// compiled pattern cache.
func (r *Router) ExtractParams(pattern, path string) (map[string]string, bool) {
	r.mu.Lock()
	p, err := r.compiledLocked(pattern)
	r.mu.Unlock()
	if err != nil {
		return nil, false
	}
	return p.match(path)
}

func (r *Router) lookupLocked(path string) (*Request, Handler) {
	if h, ok := r.routes[path]; ok && h != nil {
		return &Request{Path: path, Pattern: path, Params: map[string]string{}}, h
	}
	for _, pattern := range r.paramPatterns {
		h := r.routes[pattern]
		if h == nil {
			continue
		}
		p, err := r.compiledLocked(pattern)
		if err != nil {
			r.logger.Warn("invalid route pattern", zap.String("pattern", pattern), zap.Error(err))
			continue
		}
		if params, ok := p.match(path); ok {
			return &Request{Path: path, Pattern: pattern, Params: params}, h
		}
	}
	return nil, nil
}

func (r *Router) compiledLocked(pattern string) (*compiledPattern, error) {
	if p, ok := r.compiled[pattern]; ok {
		return p, nil
	}
	p, err := compilePattern(pattern)
	if err != nil {
		return nil, err
	}
	r.compiled[pattern] = p
	return p, nil
}

func (r *Router) handlePopState() {
	r.Navigate(currentPath(r.env), false)
}

func currentPath(env Env) string {
	loc := env.Location()
	if loc == nil || loc.Path == "" {
		return "/"
	}
	return loc.Path
}
