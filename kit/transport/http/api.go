package http

import (
	"compress/gzip"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/fieldday/flagd/kit/platform/errors"
	"go.uber.org/zap"
)

// APIOptFn configures an API.
type APIOptFn func(*API)

// WithLog sets the logger errors are reported to.
func WithLog(logger *zap.Logger) APIOptFn {
	return func(api *API) {
		api.logger = logger
	}
}

// WithErrorHandler sets how errors are encoded onto the response.
func WithErrorHandler(h errors.HTTPErrorHandler) APIOptFn {
	return func(api *API) {
		api.errHandler = h
	}
}

// WithPrettyJSON toggles indented JSON responses.
func WithPrettyJSON(b bool) APIOptFn {
	return func(api *API) {
		api.prettyJSON = b
	}
}

// WithEncodeGZIP compresses responses for clients that accept gzip.
func WithEncodeGZIP() APIOptFn {
	return func(api *API) {
		api.encodeGZIP = true
	}
}

// API writes JSON responses and platform errors. A nil *API is usable and
// writes compact JSON.
type API struct {
	logger     *zap.Logger
	errHandler errors.HTTPErrorHandler

	prettyJSON bool
	encodeGZIP bool
}

// NewAPI returns an API with pretty JSON and the default ErrorHandler.
func NewAPI(opts ...APIOptFn) *API {
	api := API{
		logger:     zap.NewNop(),
		errHandler: ErrorHandler(0),
		prettyJSON: true,
	}
	for _, o := range opts {
		o(&api)
	}
	return &api
}

// Respond writes v as JSON with the given status.
func (a *API) Respond(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}

	var writer io.WriteCloser = noopCloser{Writer: w}
	// we'll double close to make sure its always closed even
	// on issues before the write
	defer writer.Close()

	if a != nil && a.encodeGZIP && acceptsGZIP(r) {
		w.Header().Set("Content-Encoding", "gzip")
		writer = gzip.NewWriter(w)
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	enc := json.NewEncoder(writer)
	if a != nil && a.prettyJSON {
		enc.SetIndent("", "\t")
	}

	w.WriteHeader(status)
	if err := enc.Encode(v); err != nil {
		a.log().Error("failed to encode response", zap.Error(err))
		return
	}
	if err := writer.Close(); err != nil {
		a.log().Error("failed to flush response", zap.Error(err))
	}
}

// Err writes err to the response through the error handler.
func (a *API) Err(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	code := errors.ErrorCode(err)
	if code == errors.EInternal || code == errors.EUnavailable {
		a.log().Error("api error encountered", zap.Error(err))
	} else {
		a.log().Debug("api error encountered", zap.Error(err))
	}

	var h errors.HTTPErrorHandler = ErrorHandler(0)
	if a != nil && a.errHandler != nil {
		h = a.errHandler
	}
	h.HandleHTTPError(r.Context(), err, w)
}

func (a *API) log() *zap.Logger {
	if a == nil || a.logger == nil {
		return zap.NewNop()
	}
	return a.logger
}

func acceptsGZIP(r *http.Request) bool {
	return r != nil && strings.Contains(r.Header.Get("Accept-Encoding"), "gzip")
}

type noopCloser struct {
	io.Writer
}

func (n noopCloser) Close() error {
	return nil
}

// ResourceHandler is an HTTP handler for a resource. The prefix is where it is
// mounted on the root router.
type ResourceHandler interface {
	Prefix() string
	http.Handler
}
