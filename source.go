package flagd

import (
	"context"
	"time"
)

// SourceDefaults names the snapshot source when no remote value contributed.
const SourceDefaults = "defaults"

// DefaultConfigKey is the key the flag document is stored under.
const DefaultConfigKey = "featureFlags"

// Source is a read-only key-value view of a remote configuration store.
//
// Get returns the raw JSON value stored at key. An absent key is reported as
// nil bytes and a nil error, never as an error.
type Source interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// Name identifies the backend in snapshots, logs and metrics.
	Name() string
}

// Snapshot is a resolved FlagSet with its provenance.
type Snapshot struct {
	Flags     FlagSet   `json:"flags"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}
