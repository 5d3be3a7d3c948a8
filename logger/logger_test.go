package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/fieldday/flagd/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestConfig_New(t *testing.T) {
	tests := []struct {
		format string
		check  func(t *testing.T, out string)
	}{
		{
			format: "json",
			check: func(t *testing.T, out string) {
				var m map[string]interface{}
				require.NoError(t, json.Unmarshal([]byte(out), &m))
				assert.Equal(t, "resolved flags", m["msg"])
				assert.Equal(t, "edge-config", m["source"])
			},
		},
		{
			format: "logfmt",
			check: func(t *testing.T, out string) {
				assert.Contains(t, out, `msg="resolved flags"`)
				assert.Contains(t, out, "source=edge-config")
			},
		},
		{
			// a bytes.Buffer is not a terminal
			format: "auto",
			check: func(t *testing.T, out string) {
				assert.Contains(t, out, "source=edge-config")
			},
		},
		{
			format: "console",
			check: func(t *testing.T, out string) {
				assert.Contains(t, out, "resolved flags")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			c := logger.NewConfig()
			c.Format = tt.format
			log, err := c.New(&buf)
			require.NoError(t, err)

			log.Info("resolved flags", zap.String("source", "edge-config"))
			tt.check(t, strings.TrimSpace(buf.String()))
		})
	}
}

func TestConfig_NewLevel(t *testing.T) {
	var buf bytes.Buffer
	c := logger.Config{Format: "logfmt", Level: zapcore.WarnLevel}
	log, err := c.New(&buf)
	require.NoError(t, err)

	log.Info("dropped")
	log.Warn("kept")
	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "kept")
}

func TestConfig_NewUnknownFormat(t *testing.T) {
	c := logger.Config{Format: "xml"}
	_, err := c.New(&bytes.Buffer{})
	assert.Error(t, err)
}

func TestContext(t *testing.T) {
	assert.Nil(t, logger.FromContext(context.Background()))

	log := zap.NewNop()
	ctx := logger.NewContextWithLogger(context.Background(), log)
	assert.Same(t, log, logger.FromContext(ctx))
}

func TestFromContextOr(t *testing.T) {
	fallback := zap.NewNop()
	assert.Same(t, fallback, logger.FromContextOr(context.Background(), fallback))

	scoped := zap.NewExample()
	ctx := logger.NewContextWithLogger(context.Background(), scoped)
	assert.Same(t, scoped, logger.FromContextOr(ctx, fallback))
}
