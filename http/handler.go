package http

import (
	"net/http"

	"github.com/NYTimes/gziphandler"
	"github.com/fieldday/flagd/kit/prom"
	kithttp "github.com/fieldday/flagd/kit/transport/http"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"go.uber.org/zap"
)

const (
	// MetricsPath exposes the prometheus metrics over /metrics.
	MetricsPath = "/metrics"
	// ReadyPath exposes the readiness of the service over /ready.
	ReadyPath = "/ready"
	// HealthPath exposes the health of the service over /health.
	HealthPath = "/health"
	// DebugPath exposes pprof over /debug.
	DebugPath = "/debug"
)

// Handler provides basic handling of metrics, health and debug endpoints.
// All other requests are passed down to the resource handlers.
type Handler struct {
	name string
	r    chi.Router

	log *zap.Logger
}

type (
	// HandlerOptFn is a functional input param to set parameters on
	// the http handler.
	HandlerOptFn func(opts *handlerOpts)

	handlerOpts struct {
		log          *zap.Logger
		resources    []kithttp.ResourceHandler
		debug        bool
		readyHandler http.Handler
	}
)

// WithLog sets the logger of the handler.
func WithLog(l *zap.Logger) HandlerOptFn {
	return func(opts *handlerOpts) {
		opts.log = l
	}
}

// WithResourceHandler mounts h at its prefix.
func WithResourceHandler(h kithttp.ResourceHandler) HandlerOptFn {
	return func(opts *handlerOpts) {
		opts.resources = append(opts.resources, h)
	}
}

// WithDebug serves pprof under /debug.
func WithDebug(b bool) HandlerOptFn {
	return func(opts *handlerOpts) {
		opts.debug = b
	}
}

// WithReadyHandler overrides the default ReadyHandler.
func WithReadyHandler(h http.Handler) HandlerOptFn {
	return func(opts *handlerOpts) {
		opts.readyHandler = h
	}
}

// NewHandlerFromRegistry creates a new handler with the given name,
// and sets the /metrics endpoint to use the metrics from the given registry,
// after self-registering h's metrics.
func NewHandlerFromRegistry(name string, reg *prom.Registry, opts ...HandlerOptFn) *Handler {
	opt := handlerOpts{
		log:          zap.NewNop(),
		readyHandler: ReadyHandler(),
	}
	for _, o := range opts {
		o(&opt)
	}

	h := &Handler{
		name: name,
		log:  opt.log,
	}

	metrics := kithttp.NewRequestMetrics()
	reg.MustRegister(metrics.PrometheusCollectors()...)

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		kithttp.SkipOptions,
		kithttp.SetCORS,
		kithttp.Trace(name),
		kithttp.Metrics(name, metrics),
	)

	r.Mount(MetricsPath, reg.HTTPHandler())
	r.Mount(ReadyPath, opt.readyHandler)
	r.Mount(HealthPath, http.HandlerFunc(HealthHandler))
	if opt.debug {
		r.Mount(DebugPath, middleware.Profiler())
	}
	// resource responses can optionally be gzip encoded
	for _, rh := range opt.resources {
		r.Mount(rh.Prefix(), gziphandler.GzipHandler(rh))
	}

	h.r = r
	return h
}

// ServeHTTP delegates a request to the appropriate subhandler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.r.ServeHTTP(w, r)
}

// HealthHandler reports the service as alive.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"name":"flagd","message":"ready to evaluate flags","status":"pass","checks":[]}` + "\n"))
}
