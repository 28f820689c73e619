package storefront

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"

	"go.uber.org/zap"

	"PriceScout/internal/catalogapi"
	"PriceScout/pkg/kit"
)

// NewCatalogProxy forwards product search requests to the catalog as-is,
// replacing any Authorization header with a storefront service token.
func NewCatalogProxy(target string, tokens catalogapi.TokenSource, log *zap.Logger) (http.Handler, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("catalog url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("catalog url %q: missing scheme or host", target)
	}

	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(u)
			pr.SetXForwarded()
			pr.Out.Header.Del("Authorization")
			pr.Out.Header.Del("Cookie")

			if tokens == nil {
				return
			}
			tok, err := tokens.Token(pr.In.Context())
			if err != nil {
				log.Warn("catalog proxy: token failed", zap.Error(err))
				return
			}
			pr.Out.Header.Set("Authorization", "Bearer "+tok)
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			log.Warn("catalog proxy failed", zap.String("path", r.URL.Path), zap.Error(err))
			kit.WriteError(w, r, http.StatusBadGateway, "catalog unavailable", nil)
		},
	}, nil
}
