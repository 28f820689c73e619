package storefront

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"PriceScout/internal/product"
	"PriceScout/internal/search"
)

var ErrSessionNotFound = errors.New("session not found")

// Session is one browser tab's search controller. Its context is cancelled
// when the session leaves the cache, which aborts any search still in flight.
type Session struct {
	ID      string
	Created time.Time

	ctrl   *search.Controller
	view   *sessionView
	ctx    context.Context
	cancel context.CancelFunc
	closed atomic.Bool
}

// close cancels the session once and reports whether this call did it.
func (s *Session) close() bool {
	if !s.closed.CompareAndSwap(false, true) {
		return false
	}
	s.cancel()
	return true
}

type SessionsConfig struct {
	API     search.Searcher
	Sorter  *product.Sorter
	TTL     time.Duration
	Max     int
	Log     *zap.Logger
	Metrics *search.Metrics
	Active  prometheus.Gauge
}

// Sessions is a bounded, expiring set of sessions. Every access refreshes
// the session's TTL.
type Sessions struct {
	cfg   SessionsConfig
	cache *expirable.LRU[string, *Session]

	mu     sync.Mutex
	closed bool
}

func NewSessions(cfg SessionsConfig) *Sessions {
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	s := &Sessions{cfg: cfg}
	s.cache = expirable.NewLRU[string, *Session](cfg.Max, s.evicted, cfg.TTL)
	return s
}

func (s *Sessions) evicted(id string, sess *Session) {
	if !sess.close() {
		return
	}
	if s.cfg.Active != nil {
		s.cfg.Active.Dec()
	}
	s.cfg.Log.Debug("session closed", zap.String("session_id", id))
}

func (s *Sessions) Create() (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errors.New("sessions closed")
	}

	id := uuid.NewString()
	view := &sessionView{}
	ctrl, err := search.NewController(search.Deps{
		API:     s.cfg.API,
		View:    view,
		Sorter:  s.cfg.Sorter,
		Log:     s.cfg.Log.With(zap.String("session_id", id)),
		Metrics: s.cfg.Metrics,
	})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	sess := &Session{
		ID:      id,
		Created: time.Now().UTC(),
		ctrl:    ctrl,
		view:    view,
		ctx:     ctx,
		cancel:  cancel,
	}

	s.cache.Add(id, sess)
	if s.cfg.Active != nil {
		s.cfg.Active.Inc()
	}
	return sess, nil
}

func (s *Sessions) Get(id string) (*Session, error) {
	sess, ok := s.cache.Get(id)
	if !ok || !s.refresh(id, sess) {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// refresh re-adds sess to restart its TTL. A session closed concurrently
// is removed again rather than brought back.
func (s *Sessions) refresh(id string, sess *Session) bool {
	if sess.ctx.Err() != nil {
		return false
	}
	s.cache.Add(id, sess)
	if sess.ctx.Err() != nil {
		s.cache.Remove(id)
		return false
	}
	return true
}

func (s *Sessions) Delete(id string) bool {
	return s.cache.Remove(id)
}

func (s *Sessions) Len() int { return s.cache.Len() }

// Close drops every session and refuses new ones.
func (s *Sessions) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cache.Purge()
}
