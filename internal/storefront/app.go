// Package storefront is the browser-facing service: it keeps one search
// controller per session and fronts the catalog and the search statistics.
package storefront

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"PriceScout/internal/catalogapi"
	"PriceScout/internal/product"
	"PriceScout/internal/search"
	"PriceScout/internal/stats"
	"PriceScout/pkg/kit"
)

type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	MetricsEnabled bool
	MetricsToken   string
}

type Deps struct {
	API        search.Searcher
	CatalogURL string
	Tokens     catalogapi.TokenSource
	Stats      stats.Store
	Sorter     *product.Sorter

	SessionTTL       time.Duration
	MaxSessions      int
	SearchRateLimit  int
	SearchRateWindow time.Duration
}

const readyTimeout = 2 * time.Second

// App is the storefront handler. Close ends every session.
type App struct {
	http.Handler
	Sessions *Sessions
}

func NewHandler(deps Deps, httpDeps HTTPDeps) (*App, error) {
	if deps.API == nil || deps.Stats == nil {
		return nil, errors.New("storefront: API and Stats are required")
	}
	if httpDeps.Log == nil {
		httpDeps.Log = zap.NewNop()
	}

	proxy, err := NewCatalogProxy(deps.CatalogURL, deps.Tokens, httpDeps.Log)
	if err != nil {
		return nil, err
	}

	cfg := SessionsConfig{
		API:    deps.API,
		Sorter: deps.Sorter,
		TTL:    deps.SessionTTL,
		Max:    deps.MaxSessions,
		Log:    httpDeps.Log,
	}
	if httpDeps.Registry != nil {
		cfg.Metrics = search.NewMetrics(httpDeps.Registry)
		cfg.Active = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "storefront_sessions_active",
			Help: "Search sessions currently held.",
		})
		httpDeps.Registry.MustRegister(cfg.Active)
	}
	sessions := NewSessions(cfg)

	s := &Server{Sessions: sessions, Stats: deps.Stats, Log: httpDeps.Log}
	st := &stats.Server{Store: deps.Stats, Log: httpDeps.Log}

	var limiter *kit.IPRateLimiter
	if deps.SearchRateLimit > 0 {
		limiter = kit.NewIPRateLimiter(deps.SearchRateLimit, deps.SearchRateWindow)
	}

	r := chi.NewRouter()
	setupMiddleware(r, httpDeps)
	setupMetrics(r, httpDeps)

	r.Get("/healthz", healthz)
	r.Get("/readyz", readyz(deps.Stats, httpDeps.Log))

	r.Mount("/api/sessions", s.Routes(limiter))
	r.Mount("/api/stats", st.Routes())
	r.Method(http.MethodGet, catalogapi.SearchPath, proxy)

	return &App{Handler: r, Sessions: sessions}, nil
}

func (a *App) Close() { a.Sessions.Close() }

func setupMiddleware(r *chi.Mux, deps HTTPDeps) {
	r.Use(chimw.RequestID)
	r.Use(kit.Recoverer(deps.Log))
	r.Use(kit.Logging(deps.Log))
}

func setupMetrics(r *chi.Mux, deps HTTPDeps) {
	if deps.Registry == nil {
		return
	}

	metrics := kit.NewMetrics(deps.Registry)
	r.Use(metrics.Middleware(deps.Service, kit.RouteLabel))

	if !deps.MetricsEnabled {
		return
	}

	r.With(kit.MetricsAuth(deps.MetricsToken)).
		Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func readyz(store stats.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			log.Warn("readyz failed: stats store", zap.Error(err))
			kit.WriteError(w, r, http.StatusServiceUnavailable, "stats store not ready", nil)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}
