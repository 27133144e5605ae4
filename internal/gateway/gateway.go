package gateway

import (
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/rs/cors"
	"go.uber.org/zap"
)

func rp(to string, log *zap.Logger) (*httputil.ReverseProxy, error) {
	u, err := url.Parse(to)
	if err != nil {
		return nil, err
	}
	p := httputil.NewSingleHostReverseProxy(u)
	p.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.Warn("upstream failed", zap.String("upstream", to), zap.String("path", r.URL.Path), zap.Error(err))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":"upstream unavailable"}`))
	}
	return p, nil
}

// New monta o roteamento público:
// /api/ledger/* -> ledger-service e /api/odds/* -> odds-service, com CORS
func New(ledgerURL, oddsURL string, origins []string, log *zap.Logger) (http.Handler, error) {
	ledgerProxy, err := rp(ledgerURL, log)
	if err != nil {
		return nil, err
	}
	oddsProxy, err := rp(oddsURL, log)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/api/ledger/", http.StripPrefix("/api/ledger", ledgerProxy))
	mux.Handle("/api/odds/", http.StripPrefix("/api/odds", oddsProxy))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Session-Token"},
		AllowCredentials: false,
		MaxAge:           600,
	})
	return c.Handler(mux), nil
}
