package http

import (
	"encoding/json"
	"net/http"

	"github.com/fieldday/flagd/kit/cli"
	kithttp "github.com/fieldday/flagd/kit/transport/http"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"go.uber.org/zap"
)

const prefixConfig = "/api/v2/config"

type parsedOpt map[string]optValue

type optValue []byte

func (o optValue) MarshalJSON() ([]byte, error) { return o, nil }

// ConfigHandler reports the options the service was started with.
type ConfigHandler struct {
	chi.Router

	log *zap.Logger
	api *kithttp.API

	config parsedOpt
}

var _ kithttp.ResourceHandler = (*ConfigHandler)(nil)

// NewConfigHandler creates a handler that will return a JSON object with key/value pairs for the configuration values
// used during the launcher startup. The opts slice provides a list of options names along with a pointer to their
// value. Options named in redact are reported as "REDACTED" when set.
func NewConfigHandler(log *zap.Logger, opts []cli.Opt, redact ...string) (*ConfigHandler, error) {
	h := &ConfigHandler{
		log: log,
		api: kithttp.NewAPI(kithttp.WithLog(log)),
	}

	if err := h.parseOptions(opts, redact); err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer,
		middleware.RequestID,
		middleware.RealIP,
	)

	r.Get("/", h.handleGetConfig)
	h.Router = r
	return h, nil
}

func (h *ConfigHandler) Prefix() string {
	return prefixConfig
}

func (h *ConfigHandler) parseOptions(opts []cli.Opt, redact []string) error {
	hidden := make(map[string]bool, len(redact))
	for _, r := range redact {
		hidden[r] = true
	}

	config := make(parsedOpt, len(opts))

	// Ensure that there are no errors encountered while obtaining the JSON encoding of the config values obtained from
	// the destination pointers. If the value can be successfully encoded, its bytes will be stored in optValue for future
	// marshalling calls.
	for _, o := range opts {
		var v interface{} = o.DestP
		if hidden[o.Flag] {
			if s, ok := o.DestP.(*string); ok && *s != "" {
				v = "REDACTED"
			}
		}

		b, err := json.Marshal(v)
		if err != nil {
			return err
		}

		config[o.Flag] = b
	}

	h.config = config
	return nil
}

func (h *ConfigHandler) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	h.api.Respond(w, r, http.StatusOK, map[string]parsedOpt{"config": h.config})
}
