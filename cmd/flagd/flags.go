package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/fieldday/flagd/cmd/flagd/launcher"
	"github.com/fieldday/flagd/kit/feature"
	"github.com/spf13/cobra"
)

func newFlagsCommand(o *launcher.Options) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "flags",
		Short: "Resolve flags once and print them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, closer, err := newResolver(cmd.Context(), cmd, o)
			if err != nil {
				return err
			}
			defer closer.Close()

			snap := svc.Snapshot(cmd.Context())
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "\t")
				return enc.Encode(snap)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 1, '\t', 0)
			fmt.Fprintf(w, "Key\tValue\tDefault\n")
			for _, key := range snap.Flags.Keys() {
				def := "-"
				if f, ok := feature.ByKey(key); ok {
					def = f.Value().String()
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", key, snap.Flags[key], def)
			}
			fmt.Fprintf(w, "\nsource: %s\n", snap.Source)
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the snapshot as JSON")
	return cmd
}
