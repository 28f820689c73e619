package storefront

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"PriceScout/internal/product"
	"PriceScout/internal/search"
	"PriceScout/internal/stats"
	"PriceScout/pkg/kit"
)

const maxWait = 30 * time.Second

type Server struct {
	Sessions *Sessions
	Stats    stats.Store
	Log      *zap.Logger
}

func (s *Server) Routes(searchLimiter *kit.IPRateLimiter) http.Handler {
	r := chi.NewRouter()

	r.Post("/", s.create)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", s.get)
		r.Delete("/", s.delete)
		r.Put("/sort", s.sort)

		if searchLimiter != nil {
			r.With(searchLimiter.Middleware).Post("/search", s.search)
		} else {
			r.Post("/search", s.search)
		}
	})

	return r
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Sessions.Create()
	if err != nil {
		s.Log.Error("create session failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusServiceUnavailable, "cannot create session", nil)
		return
	}
	kit.WriteJSON(w, http.StatusCreated, newSessionView(sess, sess.ctrl.Snapshot()))
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	kit.WriteJSON(w, http.StatusOK, newSessionView(sess, sess.ctrl.Snapshot()))
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.Sessions.Delete(id) {
		kit.WriteError(w, r, http.StatusNotFound, "session not found", map[string]any{"id": id})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type searchRequest struct {
	Query string `json:"query"`
}

// search starts a search. With ?wait=<duration> it holds the response until
// the search settles or the wait runs out.
func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var req searchRequest
	if err := kit.DecodeJSON(r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "invalid json", map[string]any{"reason": err.Error()})
		return
	}

	wait, err := parseWait(r.URL.Query().Get("wait"))
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "invalid wait", map[string]any{"max": maxWait.String()})
		return
	}

	if err := sess.ctrl.Search(sess.ctx, req.Query); err != nil {
		if errors.Is(err, search.ErrEmptyQuery) {
			kit.WriteError(w, r, http.StatusBadRequest, "empty query", newSessionView(sess, sess.ctrl.Snapshot()))
			return
		}
		s.Log.Error("search start failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	if err := s.Stats.Record(r.Context(), req.Query, time.Now()); err != nil {
		s.Log.Warn("record search term failed", zap.Error(err))
	}

	status := http.StatusAccepted
	st := sess.ctrl.Snapshot()
	if wait > 0 {
		ctx, cancel := context.WithTimeout(r.Context(), wait)
		defer cancel()
		st = awaitSettled(ctx, sess.ctrl)
		if st.Phase != search.PhaseLoading {
			status = http.StatusOK
		}
	}
	kit.WriteJSON(w, status, newSessionView(sess, st))
}

type sortRequest struct {
	Key string `json:"key"`
}

func (s *Server) sort(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var req sortRequest
	if err := kit.DecodeJSON(r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "invalid json", map[string]any{"reason": err.Error()})
		return
	}

	key, err := product.ParseSortKey(req.Key)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "unknown sort key", map[string]any{
			"key":     req.Key,
			"allowed": product.SortKeys(),
		})
		return
	}

	sess.ctrl.ApplySort(key)
	kit.WriteJSON(w, http.StatusOK, newSessionView(sess, sess.ctrl.Snapshot()))
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	id := chi.URLParam(r, "id")
	sess, err := s.Sessions.Get(id)
	if err != nil {
		kit.WriteError(w, r, http.StatusNotFound, "session not found", map[string]any{"id": id})
		return nil, false
	}
	return sess, true
}

func parseWait(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 || d > maxWait {
		return 0, errors.New("wait out of range")
	}
	return d, nil
}

// awaitSettled returns the first state that is no longer loading, or the
// current state once ctx is done.
func awaitSettled(ctx context.Context, ctrl *search.Controller) search.State {
	settled := make(chan search.State, 1)
	unsubscribe := ctrl.OnStateChange(func(st search.State) {
		if st.Phase == search.PhaseLoading {
			return
		}
		select {
		case settled <- st:
		default:
		}
	})
	defer unsubscribe()

	if st := ctrl.Snapshot(); st.Phase != search.PhaseLoading {
		return st
	}

	select {
	case st := <-settled:
		return st
	case <-ctx.Done():
		return ctrl.Snapshot()
	}
}
