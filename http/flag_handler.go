package http

import (
	"context"
	"net/http"

	"github.com/fieldday/flagd"
	"github.com/fieldday/flagd/gate"
	"github.com/fieldday/flagd/kit/feature"
	"github.com/fieldday/flagd/kit/platform/errors"
	kithttp "github.com/fieldday/flagd/kit/transport/http"
	"github.com/fieldday/flagd/rollout"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"go.uber.org/zap"
)

const prefixFlags = "/api/v2/flags"

// FlagService resolves flags for the handlers. resolver.Service implements it.
type FlagService interface {
	feature.Flagger
	Snapshot(ctx context.Context) flagd.Snapshot
}

// FlagHandler serves the resolved flag set, single flags, gate decisions and
// subject buckets.
type FlagHandler struct {
	chi.Router

	log *zap.Logger
	api *kithttp.API
	svc FlagService
}

var _ kithttp.ResourceHandler = (*FlagHandler)(nil)

// NewFlagHandler returns a FlagHandler backed by svc.
func NewFlagHandler(log *zap.Logger, svc FlagService) *FlagHandler {
	h := &FlagHandler{
		log: log,
		api: kithttp.NewAPI(kithttp.WithLog(log)),
		svc: svc,
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer,
		middleware.RequestID,
		middleware.RealIP,
	)

	r.Get("/", h.handleGetFlags)
	r.Get("/bucket", h.handleGetBucket)
	r.With(h.annotateFlags).Get("/gates/{gate}", h.handleGetGate)
	r.Get("/{key}", h.handleGetFlag)
	h.Router = r
	return h
}

// Prefix implements kithttp.ResourceHandler.
func (h *FlagHandler) Prefix() string {
	return prefixFlags
}

// annotateFlags resolves the flags once per request so both halves of a gate
// read the same snapshot.
func (h *FlagHandler) annotateFlags(next http.Handler) http.Handler {
	return feature.NewHandler(h.log, h.svc, feature.Flags(), next)
}

func (h *FlagHandler) handleGetFlags(w http.ResponseWriter, r *http.Request) {
	h.api.Respond(w, r, http.StatusOK, h.svc.Snapshot(r.Context()))
}

type flagResponse struct {
	Key    string      `json:"key"`
	Value  flagd.Value `json:"value"`
	Source string      `json:"source"`
}

func (h *FlagHandler) handleGetFlag(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	snap := h.svc.Snapshot(r.Context())
	v, ok := snap.Flags[key]
	if !ok {
		h.api.Err(w, r, &errors.Error{
			Code: errors.ENotFound,
			Op:   "http.getFlag",
			Msg:  "flag " + key + " not found",
		})
		return
	}

	h.api.Respond(w, r, http.StatusOK, flagResponse{Key: key, Value: v, Source: snap.Source})
}

func (h *FlagHandler) handleGetGate(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "gate")
	g, ok := gate.ByName(name)
	if !ok {
		h.api.Err(w, r, &errors.Error{
			Code: errors.ENotFound,
			Op:   "http.getGate",
			Msg:  "gate " + name + " not found",
		})
		return
	}

	var subject *string
	if vs, ok := r.URL.Query()["subject"]; ok && len(vs) > 0 {
		subject = &vs[0]
	}

	h.api.Respond(w, r, http.StatusOK, g.Decide(r.Context(), nil, subject))
}

type bucketResponse struct {
	Subject string `json:"subject"`
	Hash    int32  `json:"hash"`
	Bucket  int    `json:"bucket"`
}

func (h *FlagHandler) handleGetBucket(w http.ResponseWriter, r *http.Request) {
	vs, ok := r.URL.Query()["subject"]
	if !ok || len(vs) == 0 {
		h.api.Err(w, r, &errors.Error{
			Code: errors.EInvalid,
			Op:   "http.getBucket",
			Msg:  "subject query parameter is required",
		})
		return
	}

	s := vs[0]
	h.api.Respond(w, r, http.StatusOK, bucketResponse{
		Subject: s,
		Hash:    rollout.Hash(s),
		Bucket:  rollout.Bucket(s),
	})
}
