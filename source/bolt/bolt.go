// Package bolt stores flag documents in a local bbolt file.
package bolt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fieldday/flagd"
	"github.com/fieldday/flagd/kit/platform/errors"
	"github.com/opentracing/opentracing-go"
	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
)

var flagsBucket = []byte("flags")

// Store is a flagd.Source backed by boltdb.
type Store struct {
	path   string
	db     *bolt.DB
	logger *zap.Logger
}

var _ flagd.Source = (*Store)(nil)

// NewStore returns an instance of Store with the file at
// the provided path.
func NewStore(log *zap.Logger, path string) *Store {
	return &Store{
		path:   path,
		logger: log,
	}
}

// Open creates boltDB file it doesn't exists and opens it otherwise.
func (s *Store) Open(ctx context.Context) error {
	span, _ := opentracing.StartSpanFromContext(ctx, "Store.Open")
	defer span.Finish()

	// Ensure the required directory structure exists.
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("unable to create directory %s: %v", s.path, err)
	}

	if _, err := os.Stat(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}

	// Open database file.
	db, err := bolt.Open(s.path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return fmt.Errorf("unable to open boltdb file %v", err)
	}
	s.db = db

	if err := s.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(flagsBucket)
		return err
	}); err != nil {
		s.db.Close()
		s.db = nil
		return fmt.Errorf("unable to create flags bucket: %v", err)
	}

	s.logger.Info("Resources opened", zap.String("path", s.path))
	return nil
}

// Close the connection to the bolt database
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Name implements flagd.Source.
func (s *Store) Name() string { return "bolt" }

// Get implements flagd.Source.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "Store.Get")
	defer span.Finish()

	if s.db == nil {
		return nil, errClosed("bolt.Get")
	}

	var out []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(flagsBucket).Get([]byte(key))
		if v != nil {
			// bolt values are only valid for the life of the transaction
			out = make([]byte, len(v))
			copy(out, v)
		}
		return nil
	})
	return out, err
}

// Put stores raw under key after checking it decodes as a flag set.
func (s *Store) Put(ctx context.Context, key string, raw []byte) error {
	span, _ := opentracing.StartSpanFromContext(ctx, "Store.Put")
	defer span.Finish()

	if s.db == nil {
		return errClosed("bolt.Put")
	}
	var fs flagd.FlagSet
	if err := fs.UnmarshalJSON(raw); err != nil {
		return &errors.Error{Op: "bolt.Put", Err: err}
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(flagsBucket).Put([]byte(key), raw)
	})
}

// Delete removes key. Deleting an absent key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	span, _ := opentracing.StartSpanFromContext(ctx, "Store.Delete")
	defer span.Finish()

	if s.db == nil {
		return errClosed("bolt.Delete")
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(flagsBucket).Delete([]byte(key))
	})
}

// Flush removes all keys.
func (s *Store) Flush(ctx context.Context) {
	_ = s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(flagsBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucket(flagsBucket)
		return err
	})
}

func errClosed(op string) error {
	return &errors.Error{Code: errors.EUnavailable, Op: op, Msg: "store is not open"}
}
