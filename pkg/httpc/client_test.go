package httpc

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	perrors "github.com/fieldday/flagd/kit/platform/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDoer struct {
	doFn func(*http.Request) (*http.Response, error)
	req  *http.Request
}

func (f *fakeDoer) Do(r *http.Request) (*http.Response, error) {
	f.req = r
	return f.doFn(r)
}

func stubResp(status int, body string) func(*http.Request) (*http.Response, error) {
	return func(r *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: status,
			Status:     http.StatusText(status),
			Header:     make(http.Header),
			Body:       io.NopCloser(bytes.NewBufferString(body)),
			Request:    r,
		}, nil
	}
}

func TestNew(t *testing.T) {
	_, err := New()
	require.Error(t, err)
	assert.Equal(t, perrors.EInvalid, perrors.ErrorCode(err))

	_, err = New(WithAddr("://bad"))
	require.Error(t, err)

	c, err := New(WithAddr("https://edge-config.example.com"))
	require.NoError(t, err)
	assert.NotNil(t, c.doer)
}

func TestClient_Get(t *testing.T) {
	d := &fakeDoer{doFn: stubResp(http.StatusOK, `{"featureFlags":{"a":true}}`)}
	c, err := New(
		WithAddr("https://edge-config.example.com/v1"),
		WithBearerToken("secret"),
		WithHeader("X-Client", "flagd"),
		withDoer(d),
	)
	require.NoError(t, err)

	var got map[string]map[string]bool
	err = c.Get("ecfg_123", "item", "feature flags").
		QueryParams([2]string{"version", "1"}).
		Accept("application/json").
		DecodeJSON(&got).
		Do(context.Background())
	require.NoError(t, err)

	assert.True(t, got["featureFlags"]["a"])
	require.NotNil(t, d.req)
	assert.Equal(t, http.MethodGet, d.req.Method)
	assert.Equal(t, "/v1/ecfg_123/item/feature%20flags", d.req.URL.EscapedPath())
	assert.Equal(t, "1", d.req.URL.Query().Get("version"))
	assert.Equal(t, "Bearer secret", d.req.Header.Get("Authorization"))
	assert.Equal(t, "flagd", d.req.Header.Get("X-Client"))
	assert.Equal(t, "application/json", d.req.Header.Get("Accept"))
}

func TestClient_StatusFn(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		statusFn func(*http.Response) error
		wantErr  bool
	}{
		{name: "default accepts 200", status: http.StatusOK},
		{name: "default rejects 404", status: http.StatusNotFound, wantErr: true},
		{name: "custom accepts 404", status: http.StatusNotFound, statusFn: StatusIn(http.StatusOK, http.StatusNotFound)},
		{name: "custom rejects 500", status: http.StatusInternalServerError, statusFn: StatusIn(http.StatusOK, http.StatusNotFound), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(WithAddr("http://example.com"), withDoer(&fakeDoer{doFn: stubResp(tt.status, "")}))
			require.NoError(t, err)

			req := c.Get("x")
			if tt.statusFn != nil {
				req = req.StatusFn(tt.statusFn)
			}
			err = req.Do(context.Background())
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, perrors.EUnavailable, perrors.ErrorCode(err))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestClient_RespFnRunsFirst(t *testing.T) {
	c, err := New(WithAddr("http://example.com"), withDoer(&fakeDoer{doFn: stubResp(http.StatusNotFound, "")}))
	require.NoError(t, err)

	stop := errors.New("stop")
	var seen int
	err = c.Get("x").
		RespFn(func(resp *http.Response) error {
			seen = resp.StatusCode
			return stop
		}).
		Do(context.Background())
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, http.StatusNotFound, seen)
}

func TestClient_TransportError(t *testing.T) {
	c, err := New(WithAddr("http://example.com"), withDoer(&fakeDoer{doFn: func(*http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	}}))
	require.NoError(t, err)

	err = c.Get("x").Do(context.Background())
	require.Error(t, err)
	assert.Equal(t, perrors.EUnavailable, perrors.ErrorCode(err))
}

func TestClient_DecodeError(t *testing.T) {
	c, err := New(WithAddr("http://example.com"), withDoer(&fakeDoer{doFn: stubResp(http.StatusOK, "{")}))
	require.NoError(t, err)

	var v interface{}
	err = c.Get("x").DecodeJSON(&v).Do(context.Background())
	require.Error(t, err)
	assert.Equal(t, perrors.EInvalid, perrors.ErrorCode(err))
}

func TestClient_Server(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`42`))
	}))
	defer srv.Close()

	c, err := New(WithAddr(srv.URL), WithBearerToken("tok"))
	require.NoError(t, err)

	var n int
	require.NoError(t, c.Get("anything").DecodeJSON(&n).Do(context.Background()))
	assert.Equal(t, 42, n)
}
