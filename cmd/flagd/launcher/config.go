package launcher

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fieldday/flagd"
	"github.com/fieldday/flagd/kit/cli"
	"github.com/fieldday/flagd/kit/feature"
	"github.com/fieldday/flagd/kit/feature/override"
	"github.com/fieldday/flagd/kit/platform/errors"
	"github.com/fieldday/flagd/logger"
	"github.com/fieldday/flagd/source/edgeconfig"
	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"
)

const (
	// JaegerTracing enables tracing via the Jaeger client library
	JaegerTracing = "jaeger"
)

// EdgeConfigOpts selects a hosted edge config as the flag source.
type EdgeConfigOpts struct {
	BaseURL  string        `json:"base-url"`
	ConfigID string        `json:"config-id"`
	Token    string        `json:"-"`
	Timeout  time.Duration `json:"timeout"`
}

// RedisOpts selects a redis server as the flag source.
type RedisOpts struct {
	URL    string `json:"-"`
	Prefix string `json:"prefix"`
}

// BoltOpts selects a local bolt file as the flag source.
type BoltOpts struct {
	Path string `json:"path"`
}

// FileOpts selects a local TOML, YAML or JSON document as the flag source.
type FileOpts struct {
	Path string `json:"path"`
}

// Config is the validated configuration of a flagd process. At most one
// backend may be set; with none, flags resolve to their defaults.
type Config struct {
	HTTPBindAddress  string
	Log              logger.Config
	TracingType      string
	ProfilingEnabled bool
	Testing          bool

	ConfigKey    string
	CacheTTL     time.Duration
	FeatureFlags []string

	EdgeConfig *EdgeConfigOpts
	Redis      *RedisOpts
	Bolt       *BoltOpts
	File       *FileOpts
}

// Backend names the configured source type, or "defaults".
func (c Config) Backend() string {
	switch {
	case c.EdgeConfig != nil:
		return "edge-config"
	case c.Redis != nil:
		return "redis"
	case c.Bolt != nil:
		return "bolt"
	case c.File != nil:
		return "file"
	default:
		return flagd.SourceDefaults
	}
}

// Overrides parses FeatureFlags.
func (c Config) Overrides() (flagd.FlagSet, error) {
	return override.ParsePairs(c.FeatureFlags, feature.ByKeyFold)
}

// Validate reports every problem with c at once.
func (c Config) Validate() error {
	var errs error

	switch c.Log.Format {
	case "auto", "console", "json", "logfmt":
	default:
		errs = multierr.Append(errs, fmt.Errorf("unknown log format %q; expected auto, console, json or logfmt", c.Log.Format))
	}

	switch c.TracingType {
	case "", JaegerTracing:
	default:
		errs = multierr.Append(errs, fmt.Errorf("unknown tracing type %q; expected %s", c.TracingType, JaegerTracing))
	}

	if c.ConfigKey == "" {
		errs = multierr.Append(errs, fmt.Errorf("config key must not be empty"))
	}
	if c.CacheTTL < 0 {
		errs = multierr.Append(errs, fmt.Errorf("cache ttl must not be negative"))
	}

	var backends []string
	if c.EdgeConfig != nil {
		backends = append(backends, "edge-config")
		if c.EdgeConfig.ConfigID == "" {
			errs = multierr.Append(errs, fmt.Errorf("edge-config-id is required for the edge config source"))
		}
		if c.EdgeConfig.Token == "" {
			errs = multierr.Append(errs, fmt.Errorf("edge-config-token is required for the edge config source"))
		}
	}
	if c.Redis != nil {
		backends = append(backends, "redis")
	}
	if c.Bolt != nil {
		backends = append(backends, "bolt")
	}
	if c.File != nil {
		backends = append(backends, "file")
	}
	if len(backends) > 1 {
		errs = multierr.Append(errs, fmt.Errorf("only one flag source may be configured, got %v", backends))
	}

	if _, err := c.Overrides(); err != nil {
		errs = multierr.Append(errs, err)
	}

	if errs == nil {
		return nil
	}
	return &errors.Error{
		Code: errors.EInvalid,
		Op:   "launcher.Validate",
		Msg:  "invalid configuration",
		Err:  errs,
	}
}

// Options are the raw command line values a Config is built from.
type Options struct {
	HTTPBindAddress  string
	LogFormat        string
	LogLevel         zapcore.Level
	TracingType      string
	ProfilingEnabled bool
	Testing          bool

	ConfigKey    string
	CacheTTL     time.Duration
	FeatureFlags []string

	EdgeConfigURL     string
	EdgeConfigID      string
	EdgeConfigToken   string
	EdgeConfigTimeout time.Duration
	RedisURL          string
	RedisPrefix       string
	BoltPath          string
	FilePath          string
}

// NewOptions returns Options with their defaults.
func NewOptions() *Options {
	return &Options{
		HTTPBindAddress:   ":8080",
		LogFormat:         "auto",
		LogLevel:          zapcore.InfoLevel,
		ConfigKey:         flagd.DefaultConfigKey,
		EdgeConfigURL:     edgeconfig.DefaultBaseURL,
		EdgeConfigTimeout: 2 * time.Second,
	}
}

// SourceOpts are the options shared by every command that resolves flags.
func (o *Options) SourceOpts() []cli.Opt {
	return []cli.Opt{
		{
			DestP:      &o.LogFormat,
			Flag:       "log-format",
			Default:    o.LogFormat,
			Desc:       "log output format: auto, console, json or logfmt",
			Persistent: true,
		},
		{
			DestP:      &o.LogLevel,
			Flag:       "log-level",
			Default:    o.LogLevel,
			Desc:       "supported log levels are debug, info, warn and error",
			Persistent: true,
		},
		{
			DestP:      &o.ConfigKey,
			Flag:       "config-key",
			Default:    o.ConfigKey,
			Desc:       "key the flag document is stored under",
			Persistent: true,
		},
		{
			DestP:      &o.CacheTTL,
			Flag:       "cache-ttl",
			Default:    o.CacheTTL,
			Desc:       "cache source reads for this long; 0 disables the cache",
			Persistent: true,
		},
		{
			DestP:      &o.FeatureFlags,
			Flag:       "feature-flags",
			Desc:       "pin flag values regardless of the source, as key=value pairs",
			Persistent: true,
		},
		{
			DestP:      &o.EdgeConfigURL,
			Flag:       "edge-config-url",
			Default:    o.EdgeConfigURL,
			Desc:       "base url of the edge config read API",
			Persistent: true,
		},
		{
			DestP:      &o.EdgeConfigID,
			Flag:       "edge-config-id",
			Desc:       "edge config id; selects the edge config source",
			Persistent: true,
		},
		{
			DestP:      &o.EdgeConfigToken,
			Flag:       "edge-config-token",
			Desc:       "read access token for the edge config",
			Persistent: true,
		},
		{
			DestP:      &o.EdgeConfigTimeout,
			Flag:       "edge-config-timeout",
			Default:    o.EdgeConfigTimeout,
			Desc:       "timeout for edge config reads",
			Persistent: true,
		},
		{
			DestP:      &o.RedisURL,
			Flag:       "redis-url",
			Desc:       "redis url, e.g. redis://localhost:6379/0; selects the redis source",
			Persistent: true,
		},
		{
			DestP:      &o.RedisPrefix,
			Flag:       "redis-prefix",
			Desc:       "prefix prepended to the config key in redis",
			Persistent: true,
		},
		{
			DestP:      &o.BoltPath,
			Flag:       "bolt-path",
			Desc:       "path to a boltdb file; selects the bolt source",
			Persistent: true,
		},
		{
			DestP:      &o.FilePath,
			Flag:       "file-path",
			Desc:       "path to a TOML, YAML or JSON flag document; selects the file source",
			Persistent: true,
		},
	}
}

// RunOpts are the options of the HTTP service.
func (o *Options) RunOpts() []cli.Opt {
	return []cli.Opt{
		{
			DestP:   &o.HTTPBindAddress,
			Flag:    "http-bind-address",
			Default: o.HTTPBindAddress,
			Desc:    "bind address for the REST HTTP API",
		},
		{
			DestP:   &o.TracingType,
			Flag:    "tracing-type",
			Default: o.TracingType,
			Desc:    fmt.Sprintf("supported tracing types are %s", JaegerTracing),
		},
		{
			DestP:   &o.ProfilingEnabled,
			Flag:    "pprof-enabled",
			Default: o.ProfilingEnabled,
			Desc:    "serve pprof under /debug/pprof",
		},
		{
			DestP:   &o.Testing,
			Flag:    "e2e-testing",
			Default: o.Testing,
			Desc:    "add /debug/flush endpoint to clear the bolt store; used for end-to-end tests",
			Hidden:  true,
		},
	}
}

// Config builds the Config o describes. A backend is selected by its
// identifying option: edge-config-id, redis-url, bolt-path or file-path.
func (o *Options) Config() Config {
	c := Config{
		HTTPBindAddress:  o.HTTPBindAddress,
		Log:              logger.Config{Format: o.LogFormat, Level: o.LogLevel},
		TracingType:      o.TracingType,
		ProfilingEnabled: o.ProfilingEnabled,
		Testing:          o.Testing,
		ConfigKey:        o.ConfigKey,
		CacheTTL:         o.CacheTTL,
		FeatureFlags:     o.FeatureFlags,
	}
	if o.EdgeConfigID != "" || o.EdgeConfigToken != "" {
		c.EdgeConfig = &EdgeConfigOpts{
			BaseURL:  o.EdgeConfigURL,
			ConfigID: o.EdgeConfigID,
			Token:    o.EdgeConfigToken,
			Timeout:  o.EdgeConfigTimeout,
		}
	}
	if o.RedisURL != "" {
		c.Redis = &RedisOpts{URL: o.RedisURL, Prefix: o.RedisPrefix}
	}
	if o.BoltPath != "" {
		c.Bolt = &BoltOpts{Path: o.BoltPath}
	}
	if o.FilePath != "" {
		c.File = &FileOpts{Path: o.FilePath}
	}
	return c
}

// DefaultBoltPath is where the admin commands keep the bolt store when no
// bolt-path is given.
func DefaultBoltPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "flagd", "flagd.bolt"), nil
}
