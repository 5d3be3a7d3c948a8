package feature_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fieldday/flagd/kit/feature"
	"go.uber.org/zap/zaptest"
)

func TestHandler(t *testing.T) {
	var got map[string]interface{}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = feature.FlagsFromContext(r.Context())
	})

	flagger := testFlagsFlagger{m: map[string]interface{}{"voiceSortingEnabled": true}}
	h := feature.NewHandler(zaptest.NewLogger(t), flagger, feature.Flags(), next)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if got["voiceSortingEnabled"] != true {
		t.Errorf("expected voiceSortingEnabled to be annotated true, got %v", got["voiceSortingEnabled"])
	}
	if got["aiCoachEnabled"] != true {
		t.Errorf("expected default for aiCoachEnabled, got %v", got["aiCoachEnabled"])
	}
}

func TestHandler_FlaggerError(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if feature.FlagsFromContext(r.Context()) != nil {
			t.Errorf("expected no flags on context")
		}
		if feature.VoiceSortingEnabled().Enabled(r.Context()) {
			t.Errorf("expected default value")
		}
	})

	flagger := testFlagsFlagger{err: errors.New("down")}
	h := feature.NewHandler(zaptest.NewLogger(t), flagger, feature.Flags(), next)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil).WithContext(context.Background()))

	if !called {
		t.Errorf("next handler not called")
	}
}
