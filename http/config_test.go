package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fieldday/flagd/kit/cli"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestConfigHandler(t *testing.T) {
	t.Run("known types", func(t *testing.T) {
		stringFlag := "https://edge-config.vercel.com"
		boolFlag := true
		durationFlag := 30 * time.Second
		tokenFlag := "secret"

		opts := []cli.Opt{
			{
				DestP: &stringFlag,
				Flag:  "edge-url",
			},
			{
				DestP: &boolFlag,
				Flag:  "pprof-enabled",
			},
			{
				DestP: &durationFlag,
				Flag:  "cache-ttl",
			},
			{
				DestP: &tokenFlag,
				Flag:  "edge-token",
			},
		}

		want := map[string]interface{}{
			"config": map[string]interface{}{
				"edge-url":      stringFlag,
				"pprof-enabled": boolFlag,
				"cache-ttl":     float64(durationFlag),
				"edge-token":    "REDACTED",
			},
		}

		h, err := NewConfigHandler(zaptest.NewLogger(t), opts, "edge-token")
		require.NoError(t, err)

		rr := httptest.NewRecorder()

		r, err := http.NewRequest(http.MethodGet, "/", nil)
		require.NoError(t, err)
		h.ServeHTTP(rr, r)
		rs := rr.Result()

		var gotDecoded map[string]interface{}
		require.NoError(t, json.NewDecoder(rs.Body).Decode(&gotDecoded))
		require.Equal(t, want, gotDecoded)
	})

	t.Run("unencodable type", func(t *testing.T) {
		ch := make(chan int)

		opts := []cli.Opt{
			{
				DestP: &ch,
				Flag:  "chan-flag",
			},
		}

		h, err := NewConfigHandler(zaptest.NewLogger(t), opts)
		require.Nil(t, h)
		require.Error(t, err)
	})
}
