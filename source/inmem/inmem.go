// Package inmem is an in-memory flagd.Source for tests and embedding.
package inmem

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/fieldday/flagd"
)

// Source is a mutex guarded map of raw JSON values.
type Source struct {
	mu     sync.RWMutex
	values map[string][]byte
}

var _ flagd.Source = (*Source)(nil)

// NewSource returns an empty Source.
func NewSource() *Source {
	return &Source{values: make(map[string][]byte)}
}

// Name implements flagd.Source.
func (s *Source) Name() string { return "inmem" }

// Get implements flagd.Source.
func (s *Source) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Set stores raw JSON under key.
func (s *Source) Set(key string, raw []byte) {
	v := make([]byte, len(raw))
	copy(v, raw)

	s.mu.Lock()
	s.values[key] = v
	s.mu.Unlock()
}

// SetFlags stores fs under key.
func (s *Source) SetFlags(key string, fs flagd.FlagSet) error {
	b, err := json.Marshal(fs)
	if err != nil {
		return err
	}
	s.Set(key, b)
	return nil
}

// Delete removes key.
func (s *Source) Delete(key string) {
	s.mu.Lock()
	delete(s.values, key)
	s.mu.Unlock()
}

// Flush removes every key.
func (s *Source) Flush(context.Context) {
	s.mu.Lock()
	s.values = make(map[string][]byte)
	s.mu.Unlock()
}
