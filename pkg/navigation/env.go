package navigation

import (
	"errors"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/net/html"
)

// Env is what a Router is attached to: a location, a history stack and the
// two event streams it listens to.
type Env interface {
	// Location returns a copy of the current document URL.
	Location() *url.URL
	// PushState appends path to the history stack and makes it current.
	PushState(path string)
	// HistoryLen is the number of entries in the history stack.
	HistoryLen() int
	// OnPopState subscribes fn to back/forward moves.
	OnPopState(fn func())
	// OnIntent subscribes fn to link activations.
	OnIntent(fn func(*Intent))
}

// Intent is a navigation intent raised when the user activates a node.
type Intent struct {
	Target *html.Node

	prevented bool
}

// PreventDefault suppresses the environment's default activation.
func (i *Intent) PreventDefault() { i.prevented = true }

// DefaultPrevented reports whether a listener called PreventDefault.
func (i *Intent) DefaultPrevented() bool { return i.prevented }

// Session is an in-memory browsing session implementing Env.
type Session struct {
	mu       sync.Mutex
	entries  []*url.URL
	index    int
	external []string

	popListeners    []func()
	intentListeners []func(*Intent)
}

// NewSession starts a session with a single history entry for rawURL. The URL
// must be absolute so link origins can be compared.
func NewSession(rawURL string) (*Session, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.New("session url must be absolute")
	}
	if u.Path == "" {
		u.Path = "/"
	}
	return &Session{entries: []*url.URL{u}}, nil
}

func (s *Session) Location() *url.URL {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *s.entries[s.index]
	return &cp
}

func (s *Session) PushState(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.resolveLocked(path)
	s.entries = append(s.entries[:s.index+1], next)
	s.index = len(s.entries) - 1
}

func (s *Session) HistoryLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Session) OnPopState(fn func()) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.popListeners = append(s.popListeners, fn)
	s.mu.Unlock()
}

func (s *Session) OnIntent(fn func(*Intent)) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.intentListeners = append(s.intentListeners, fn)
	s.mu.Unlock()
}

// Back moves one entry back and fires pop-state. It returns false at the
// start of the stack.
func (s *Session) Back() bool { return s.Go(-1) }

// Forward moves one entry forward and fires pop-state.
func (s *Session) Forward() bool { return s.Go(1) }

// Go moves delta entries through the history stack. Out of range moves are
// ignored and report false.
func (s *Session) Go(delta int) bool {
	s.mu.Lock()
	next := s.index + delta
	if delta == 0 || next < 0 || next >= len(s.entries) {
		s.mu.Unlock()
		return false
	}
	s.index = next
	listeners := append([]func(){}, s.popListeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
	return true
}

// Activate dispatches an Intent for target to every listener. When no
// listener prevents it, the default behaviour runs: a same-origin anchor is
// loaded as a new history entry and any other anchor is recorded as an
// external follow. It reports whether the default was prevented.
func (s *Session) Activate(target *html.Node) bool {
	ev := &Intent{Target: target}
	s.mu.Lock()
	listeners := append([]func(*Intent){}, s.intentListeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(ev)
	}
	if ev.DefaultPrevented() {
		return true
	}

	href, ok := AnchorHref(target)
	if !ok {
		return false
	}
	doc := s.Location()
	u, err := doc.Parse(href)
	if err != nil {
		return false
	}
	if SameOrigin(doc, u) {
		s.PushState(u.RequestURI())
		return false
	}
	s.mu.Lock()
	s.external = append(s.external, u.String())
	s.mu.Unlock()
	return false
}

// ExternalFollows lists the cross-origin links activated by default
// behaviour, oldest first.
func (s *Session) ExternalFollows() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.external...)
}

func (s *Session) resolveLocked(path string) *url.URL {
	cur := s.entries[s.index]
	ref, err := url.Parse(path)
	if err != nil {
		cp := *cur
		cp.Path = path
		cp.RawQuery = ""
		cp.Fragment = ""
		return &cp
	}
	return cur.ResolveReference(ref)
}

// SameOrigin compares scheme and host (including port).
func SameOrigin(a, b *url.URL) bool {
	if a == nil || b == nil {
		return false
	}
	return strings.EqualFold(a.Scheme, b.Scheme) && strings.EqualFold(a.Host, b.Host)
}
