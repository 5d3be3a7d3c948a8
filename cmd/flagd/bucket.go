package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/fieldday/flagd/rollout"
	"github.com/spf13/cobra"
)

func newBucketCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "bucket ID...",
		Short: "Print the rollout hash and bucket of subject ids",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 1, '\t', 0)
			fmt.Fprintf(w, "Subject\tHash\tBucket\n")
			for _, id := range args {
				fmt.Fprintf(w, "%s\t%d\t%d\n", id, rollout.Hash(id), rollout.Bucket(id))
			}
			return w.Flush()
		},
	}
}
