package siteserver

import (
	"sync"

	"github.com/mibitech/mibitech-site/internal/config"
	"github.com/mibitech/mibitech-site/internal/models"
)

// state is what a reload swaps. Handlers read it per request.
type state struct {
	mu        sync.RWMutex
	cfg       *config.Config
	proxy     *apiProxy
	portfolio *models.Portfolio
	startedAt int64
}

func (s *state) Config() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

func (s *state) Proxy() *apiProxy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.proxy
}

func (s *state) Portfolio() *models.Portfolio {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.portfolio
}

// swap installs a new runtime. Listen address and static root changes need
// a restart; everything else takes effect on the next request.
func (s *state) swap(cfg *config.Config, p *apiProxy, pf *models.Portfolio) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
	s.proxy = p
	s.portfolio = pf
}

func (s *state) StartedAtUnix() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.startedAt
}

func (s *state) SetStartedAtUnix(ts int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startedAt = ts
}
