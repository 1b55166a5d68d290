package main

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"

	"go.uber.org/zap"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/httpapi"
	"github.com/MrEthical07/goSession/internal/config"
	"github.com/MrEthical07/goSession/metrics/export/prometheus"
	"github.com/MrEthical07/goSession/middleware"
)

const backendProxyPrefix = "/api/backend/"

// newHandler assembles the gate's routes:
//
//	/api/session, /api/auth/*   session endpoints
//	/api/backend/*              backend API, session required
//	/metrics                    Prometheus exposition when metrics are enabled
//	/healthz                    liveness
//	everything else             gated frontend renderer
func newHandler(cfg config.Config, engine *goSession.Engine, lg *zap.Logger) (http.Handler, error) {
	mux := http.NewServeMux()
	httpapi.New(engine, httpapi.Paths{}, lg).Mount(mux)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})

	if cfg.Session.Metrics.Enabled {
		mux.Handle("GET /metrics", prometheus.NewExporter(engine).Handler())
	}

	if cfg.BackendURL != "" {
		proxy, err := newProxy(cfg.BackendURL, lg)
		if err != nil {
			return nil, fmt.Errorf("backend proxy: %w", err)
		}
		mux.Handle(backendProxyPrefix, middleware.RequireSession(engine)(http.StripPrefix("/api/backend", proxy)))
	}

	var frontend http.Handler = http.NotFoundHandler()
	if cfg.FrontendURL != "" {
		proxy, err := newProxy(cfg.FrontendURL, lg)
		if err != nil {
			return nil, fmt.Errorf("frontend proxy: %w", err)
		}
		frontend = proxy
	}
	mux.Handle("/", middleware.Gate(engine)(frontend))

	return middleware.RequestID(middleware.Logging(lg)(mux)), nil
}

func newProxy(raw string, lg *zap.Logger) (*httputil.ReverseProxy, error) {
	target, err := url.Parse(raw)
	if err != nil || target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("invalid upstream URL %q", raw)
	}
	plg := lg.Named("proxy")
	return &httputil.ReverseProxy{
		Rewrite: func(r *httputil.ProxyRequest) {
			r.SetURL(target)
			r.SetXForwarded()
			if id := goSession.RequestIDFromContext(r.In.Context()); id != "" {
				r.Out.Header.Set(middleware.RequestIDHeader, id)
			}
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			plg.Warn("upstream unavailable",
				zap.String("upstream", target.Host),
				zap.String("path", r.URL.Path),
				zap.Error(err),
			)
			w.WriteHeader(http.StatusBadGateway)
		},
	}, nil
}
