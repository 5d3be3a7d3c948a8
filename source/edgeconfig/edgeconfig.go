// Package edgeconfig reads flag documents from a hosted edge config store.
package edgeconfig

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/fieldday/flagd"
	"github.com/fieldday/flagd/kit/platform/errors"
	"github.com/fieldday/flagd/pkg/httpc"
)

// DefaultBaseURL is the public edge config read API.
const DefaultBaseURL = "https://edge-config.vercel.com"

// Config locates one edge config.
type Config struct {
	BaseURL  string
	ConfigID string
	Token    string
	Timeout  time.Duration
}

// Source reads items from an edge config over HTTP.
type Source struct {
	client   *httpc.Client
	configID string
}

var _ flagd.Source = (*Source)(nil)

// NewSource returns a Source for c. Extra client options are applied after
// the ones derived from c.
func NewSource(c Config, opts ...httpc.ClientOptFn) (*Source, error) {
	if c.ConfigID == "" {
		return nil, &errors.Error{Code: errors.EInvalid, Op: "edgeconfig.NewSource", Msg: "config id is required"}
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}

	base := []httpc.ClientOptFn{
		httpc.WithAddr(c.BaseURL),
		httpc.WithTimeout(c.Timeout),
		httpc.WithStatusFn(httpc.StatusIn(http.StatusOK, http.StatusNotFound)),
	}
	if c.Token != "" {
		base = append(base, httpc.WithBearerToken(c.Token))
	}

	client, err := httpc.New(append(base, opts...)...)
	if err != nil {
		return nil, err
	}
	return &Source{client: client, configID: c.ConfigID}, nil
}

// Name implements flagd.Source.
func (s *Source) Name() string { return "edge-config" }

// Get implements flagd.Source. A 404 reports the key as absent.
func (s *Source) Get(ctx context.Context, key string) ([]byte, error) {
	var (
		absent bool
		body   []byte
	)
	err := s.client.Get(s.configID, "item", key).
		Accept("application/json").
		RespFn(func(resp *http.Response) error {
			if resp.StatusCode == http.StatusNotFound {
				absent = true
				return nil
			}
			if resp.StatusCode != http.StatusOK {
				return nil
			}
			b, err := io.ReadAll(resp.Body)
			if err != nil {
				return &errors.Error{Code: errors.EUnavailable, Msg: "failed to read edge config item", Err: err}
			}
			body = b
			return nil
		}).
		Do(ctx)
	if err != nil {
		return nil, &errors.Error{Op: "edgeconfig.Get", Err: err}
	}
	if absent {
		return nil, nil
	}

	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, nil
	}
	return body, nil
}
