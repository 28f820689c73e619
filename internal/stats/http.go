package stats

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"PriceScout/pkg/kit"
)

const maxTopLimit = 100

type Server struct {
	Store Store
	Log   *zap.Logger
}

// Routes serves the counters; mount it under /api/stats.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/searches", s.counts)
	r.Get("/searches/top", s.top)
	return r
}

func (s *Server) counts(w http.ResponseWriter, r *http.Request) {
	counts, err := s.Store.Counts(r.Context())
	if err != nil {
		s.logger().Error("search counts failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}
	kit.WriteJSON(w, http.StatusOK, counts)
}

func (s *Server) top(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 || n > maxTopLimit {
			kit.WriteError(w, r, http.StatusBadRequest, "invalid limit", map[string]any{"limit": raw, "max": maxTopLimit})
			return
		}
		limit = n
	}

	top, err := s.Store.Top(r.Context(), limit)
	if err != nil {
		s.logger().Error("top searches failed", zap.Error(err), zap.Int("limit", limit))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}
	kit.WriteJSON(w, http.StatusOK, top)
}

func (s *Server) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}
