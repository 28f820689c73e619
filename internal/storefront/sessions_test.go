package storefront

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"PriceScout/internal/product"
	"PriceScout/internal/search"
)

type emptyAPI struct{}

func (emptyAPI) Search(context.Context, string) ([]product.Record, error) { return nil, nil }

func TestSessions_EvictionCancelsContext(t *testing.T) {
	active := prometheus.NewGauge(prometheus.GaugeOpts{Name: "test_sessions"})
	s := NewSessions(SessionsConfig{API: emptyAPI{}, TTL: time.Minute, Max: 1, Active: active})
	defer s.Close()

	first, err := s.Create()
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := s.Create()
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	select {
	case <-first.ctx.Done():
	default:
		t.Fatalf("evicted session context still live")
	}
	if second.ctx.Err() != nil {
		t.Fatalf("current session cancelled")
	}
	if _, err := s.Get(first.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("err=%v", err)
	}
	if got := testutil.ToFloat64(active); got != 1 {
		t.Fatalf("active=%v", got)
	}
}

func TestSessions_CloseRefusesNewSessions(t *testing.T) {
	s := NewSessions(SessionsConfig{API: emptyAPI{}, TTL: time.Minute, Max: 4})

	sess, err := s.Create()
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	s.Close()

	if sess.ctx.Err() == nil {
		t.Fatalf("close did not cancel session")
	}
	if s.Len() != 0 {
		t.Fatalf("len=%d", s.Len())
	}
	if _, err := s.Create(); err == nil {
		t.Fatalf("create after close should fail")
	}
}

func TestSessions_DeleteCancels(t *testing.T) {
	s := NewSessions(SessionsConfig{API: emptyAPI{}, TTL: time.Minute, Max: 4})
	defer s.Close()

	sess, _ := s.Create()
	if !s.Delete(sess.ID) {
		t.Fatalf("delete returned false")
	}
	if sess.ctx.Err() == nil {
		t.Fatalf("delete did not cancel session")
	}
	if s.Delete(sess.ID) {
		t.Fatalf("second delete returned true")
	}
}

func TestSessions_RefreshDoesNotReviveClosedSession(t *testing.T) {
	active := prometheus.NewGauge(prometheus.GaugeOpts{Name: "test_sessions"})
	s := NewSessions(SessionsConfig{API: emptyAPI{}, TTL: time.Minute, Max: 4, Active: active})

	sess, err := s.Create()
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	// Delete lands between the cache lookup and the TTL refresh of a Get.
	s.Delete(sess.ID)
	if s.refresh(sess.ID, sess) {
		t.Fatalf("refresh revived a deleted session")
	}
	if s.Len() != 0 {
		t.Fatalf("len=%d", s.Len())
	}

	s.Close()
	if got := testutil.ToFloat64(active); got != 0 {
		t.Fatalf("active=%v, want 0", got)
	}
}

func TestSessions_EvictedClosesOnce(t *testing.T) {
	active := prometheus.NewGauge(prometheus.GaugeOpts{Name: "test_sessions"})
	s := NewSessions(SessionsConfig{API: emptyAPI{}, TTL: time.Minute, Max: 4, Active: active})
	defer s.Close()

	sess, _ := s.Create()
	s.evicted(sess.ID, sess)
	s.evicted(sess.ID, sess)

	if sess.ctx.Err() == nil {
		t.Fatalf("session not cancelled")
	}
	if got := testutil.ToFloat64(active); got != 0 {
		t.Fatalf("active=%v, want 0", got)
	}
}

type heldAPI struct{ release chan struct{} }

func (a heldAPI) Search(ctx context.Context, _ string) ([]product.Record, error) {
	select {
	case <-a.release:
		return []product.Record{{Name: "Laptop"}}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestSessionView_LoadingFollowsPhase(t *testing.T) {
	api := heldAPI{release: make(chan struct{})}
	s := NewSessions(SessionsConfig{API: api, TTL: time.Minute, Max: 4})
	defer s.Close()

	sess, _ := s.Create()
	if err := sess.ctrl.Search(sess.ctx, "laptop"); err != nil {
		t.Fatalf("search: %v", err)
	}
	if err := sess.ctrl.Search(sess.ctx, "  "); !errors.Is(err, search.ErrEmptyQuery) {
		t.Fatalf("err=%v", err)
	}

	v := newSessionView(sess, sess.ctrl.Snapshot())
	if !v.Loading || v.Phase != search.PhaseLoading {
		t.Fatalf("view=%+v, want loading while the first search runs", v)
	}
	if v.MessageKind != "warning" {
		t.Fatalf("message_kind=%q", v.MessageKind)
	}

	close(api.release)
	sess.ctrl.Wait()

	v = newSessionView(sess, sess.ctrl.Snapshot())
	if v.Loading || v.Phase != search.PhaseSuccess || v.Count != 1 {
		t.Fatalf("view=%+v, want settled", v)
	}
}
