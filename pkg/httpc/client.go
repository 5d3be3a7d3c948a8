// Package httpc is a small JSON-over-HTTP client used to talk to remote
// configuration stores.
package httpc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"

	"github.com/fieldday/flagd/kit/platform/errors"
	"github.com/fieldday/flagd/kit/tracing"
)

const headerAccept = "Accept"

type doer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client is a basic http client that can make Reqs without having to juggle
// the token and so forth. It provides sane defaults for checking response
// statuses and sets auth if a token is provided.
type Client struct {
	addr          url.URL
	doer          doer
	defaultHeader http.Header

	authFn   func(*http.Request)
	statusFn func(*http.Response) error
}

// New creates a new httpc client.
func New(opts ...ClientOptFn) (*Client, error) {
	opt := clientOpt{
		statusFn: StatusIn(http.StatusOK),
	}
	for _, o := range opts {
		if err := o(&opt); err != nil {
			return nil, err
		}
	}

	if opt.addr == "" {
		return nil, &errors.Error{Code: errors.EInvalid, Op: "httpc.New", Msg: "must provide a non empty host address"}
	}

	u, err := url.Parse(opt.addr)
	if err != nil {
		return nil, &errors.Error{Code: errors.EInvalid, Op: "httpc.New", Msg: "invalid host address", Err: err}
	}

	if opt.doer == nil {
		opt.doer = defaultHTTPClient(u.Scheme, opt.insecureSkipVerify, opt.timeout)
	}

	return &Client{
		addr:          *u,
		doer:          opt.doer,
		defaultHeader: opt.headers,
		authFn:        opt.authFn,
		statusFn:      opt.statusFn,
	}, nil
}

// Get creates a GET request against the joined url path.
func (c *Client) Get(urlPath ...string) *Req {
	return c.Req(http.MethodGet, urlPath...)
}

// Req constructs a request for the given method and url path. Path segments
// are escaped individually.
func (c *Client) Req(method string, urlPath ...string) *Req {
	escaped := make([]string, len(urlPath))
	for i, p := range urlPath {
		escaped[i] = url.PathEscape(p)
	}
	u := c.addr
	u.RawPath = path.Join(append([]string{"/", u.EscapedPath()}, escaped...)...)
	u.Path, _ = url.PathUnescape(u.RawPath)

	req, err := http.NewRequest(method, u.String(), nil)
	if err != nil {
		return &Req{err: err}
	}

	cr := &Req{
		client:   c.doer,
		req:      req,
		authFn:   c.authFn,
		statusFn: c.statusFn,
	}
	for k, vals := range c.defaultHeader {
		for _, v := range vals {
			cr.Header(k, v)
		}
	}
	return cr
}

// Req is a request type.
type Req struct {
	client doer
	req    *http.Request

	authFn func(*http.Request)

	decodeFn func(*http.Response) error
	respFn   func(*http.Response) error
	statusFn func(*http.Response) error

	err error
}

// Accept sets the Accept header to the provided content type on the request.
func (r *Req) Accept(contentType string) *Req {
	return r.Header(headerAccept, contentType)
}

// Header adds the header to the http request.
func (r *Req) Header(k, v string) *Req {
	if r.err != nil {
		return r
	}
	r.req.Header.Add(k, v)
	return r
}

// QueryParams adds the query params to the http request.
func (r *Req) QueryParams(pairs ...[2]string) *Req {
	if r.err != nil || len(pairs) == 0 {
		return r
	}
	params := r.req.URL.Query()
	for _, p := range pairs {
		params.Add(p[0], p[1])
	}
	r.req.URL.RawQuery = params.Encode()
	return r
}

// DecodeJSON sets the decode func to use a json decoder on the response body.
func (r *Req) DecodeJSON(v interface{}) *Req {
	r.decodeFn = func(resp *http.Response) error {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			return &errors.Error{Code: errors.EInvalid, Msg: "failed to decode response body", Err: err}
		}
		return nil
	}
	return r
}

// RespFn provides a means to inspect the entire http response. This function runs first
// before the status and decode funcs are called.
func (r *Req) RespFn(fn func(*http.Response) error) *Req {
	r.respFn = fn
	return r
}

// StatusFn sets a status check function. This will run after the response is returned
// and before the decode func.
func (r *Req) StatusFn(fn func(*http.Response) error) *Req {
	r.statusFn = fn
	return r
}

// Do makes the HTTP request. Any errors that had been encountered in
// the lifetime of the Req type will be returned here first, in place of
// the call. This makes it safe to call Do at anytime.
func (r *Req) Do(ctx context.Context) error {
	if r.err != nil {
		return r.err
	}

	span, ctx := tracing.StartSpanFromContextWithOperationName(ctx, "httpc.Do")
	defer span.Finish()

	r.req = r.req.WithContext(ctx)
	tracing.InjectToHTTPRequest(span, r.req)
	if r.authFn != nil {
		r.authFn(r.req)
	}

	resp, err := r.client.Do(r.req)
	if err != nil {
		tracing.LogError(span, err)
		return &errors.Error{Code: errors.EUnavailable, Op: "httpc.Do", Msg: "request failed", Err: err}
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	responseFns := []func(*http.Response) error{
		r.respFn,
		r.statusFn,
		r.decodeFn,
	}
	for _, fn := range responseFns {
		if fn != nil {
			if err := fn(resp); err != nil {
				tracing.LogError(span, err)
				return err
			}
		}
	}
	return nil
}

// StatusIn validates the status code matches one of the provided statuses.
func StatusIn(code int, rest ...int) func(*http.Response) error {
	return func(resp *http.Response) error {
		for _, code := range append(rest, code) {
			if code == resp.StatusCode {
				return nil
			}
		}
		return &errors.Error{
			Code: errors.EUnavailable,
			Msg:  fmt.Sprintf("received unexpected status: %s %d", resp.Status, resp.StatusCode),
		}
	}
}
