package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fieldday/flagd"
	"github.com/fieldday/flagd/cmd/flagd/launcher"
	"github.com/fieldday/flagd/kit/platform/errors"
	"github.com/fieldday/flagd/source/bolt"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newSetCommand(o *launcher.Options) *cobra.Command {
	return &cobra.Command{
		Use:     "set KEY JSON",
		Short:   "Store a flag document in the bolt source",
		Example: `  flagd set featureFlags '{"voiceSortingEnabled": true, "voiceSortingRolloutPercentage": 25}'`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, raw := args[0], []byte(args[1])

			set, invalid, err := flagd.DecodeFlagSet(raw)
			if err != nil {
				return &errors.Error{Code: errors.EInvalid, Op: "flagd.set", Msg: "value is not a flag object", Err: err}
			}
			if len(invalid) > 0 {
				return &errors.Error{
					Code: errors.EInvalid,
					Op:   "flagd.set",
					Msg:  "flags must be booleans or numbers: " + strings.Join(invalid, ", "),
				}
			}

			var compact bytes.Buffer
			if err := json.Compact(&compact, raw); err != nil {
				return err
			}

			return withStore(cmd.Context(), cmd, o, func(s *bolt.Store) error {
				if err := s.Put(cmd.Context(), key, compact.Bytes()); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "stored %d flags under %s\n", len(set), key)
				return nil
			})
		},
	}
}

func newUnsetCommand(o *launcher.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "unset KEY",
		Short: "Remove a flag document from the bolt source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), cmd, o, func(s *bolt.Store) error {
				if err := s.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
				return nil
			})
		},
	}
}

// withStore opens the bolt store at --bolt-path, or the default path when it
// is unset, for the duration of fn.
func withStore(ctx context.Context, cmd *cobra.Command, o *launcher.Options, fn func(*bolt.Store) error) error {
	path := o.BoltPath
	if path == "" {
		p, err := launcher.DefaultBoltPath()
		if err != nil {
			return err
		}
		path = p
	}

	c := o.Config()
	log, err := c.Log.New(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	store := bolt.NewStore(log.With(zap.String("service", "bolt")), path)
	if err := store.Open(ctx); err != nil {
		return err
	}
	defer store.Close()

	return fn(store)
}
