package http_test

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fieldday/flagd/kit/platform/errors"
	kithttp "github.com/fieldday/flagd/kit/transport/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestAPI_Respond(t *testing.T) {
	type body struct {
		Key   string `json:"key"`
		Value bool   `json:"value"`
	}

	tests := []struct {
		name string
		api  *kithttp.API
		want string
	}{
		{
			name: "pretty",
			api:  kithttp.NewAPI(),
			want: "{\n\t\"key\": \"a\",\n\t\"value\": true\n}\n",
		},
		{
			name: "compact",
			api:  kithttp.NewAPI(kithttp.WithPrettyJSON(false)),
			want: "{\"key\":\"a\",\"value\":true}\n",
		},
		{
			name: "nil api",
			want: "{\"key\":\"a\",\"value\":true}\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/", nil)

			tt.api.Respond(w, r, http.StatusOK, body{Key: "a", Value: true})

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
			assert.Equal(t, tt.want, w.Body.String())
		})
	}
}

func TestAPI_RespondGZIP(t *testing.T) {
	api := kithttp.NewAPI(kithttp.WithEncodeGZIP(), kithttp.WithPrettyJSON(false))

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Accept-Encoding", "gzip, deflate")
	api.Respond(w, r, http.StatusOK, map[string]int{"pct": 30})

	require.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
	zr, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	b, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.JSONEq(t, `{"pct": 30}`, string(b))

	// clients that do not ask for gzip get plain JSON
	w = httptest.NewRecorder()
	api.Respond(w, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusOK, map[string]int{"pct": 30})
	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.JSONEq(t, `{"pct": 30}`, w.Body.String())
}

func TestAPI_Err(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	api := kithttp.NewAPI(kithttp.WithLog(zap.New(core)))

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/v2/flags/nope", nil)
	api.Err(w, r, &errors.Error{Code: errors.ENotFound, Msg: "flag not found"})

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, errors.ENotFound, w.Header().Get(kithttp.PlatformErrorCodeHeader))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, zap.DebugLevel, logs.All()[0].Level)

	w = httptest.NewRecorder()
	api.Err(w, r, &errors.Error{Code: errors.EInternal, Msg: "boom"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	require.Equal(t, 2, logs.Len())
	assert.Equal(t, zap.ErrorLevel, logs.All()[1].Level)
}
