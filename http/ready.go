package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/benbjohnson/clock"
)

// ReadyHandler is a default readiness handler. The default behavior is always ready.
func ReadyHandler() http.Handler {
	return newReadyHandler(clock.New())
}

func newReadyHandler(c clock.Clock) http.Handler {
	up := c.Now()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var status = struct {
			Status  string    `json:"status"`
			Started time.Time `json:"started"`
			Up      string    `json:"up"`
		}{
			Status:  "ready",
			Started: up,
			Up:      c.Now().Sub(up).String(),
		}

		enc := json.NewEncoder(w)
		enc.SetIndent("", "    ")
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(w, "Error encoding status data: %v\n", err)
		}
	})
}
