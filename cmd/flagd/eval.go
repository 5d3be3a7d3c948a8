package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fieldday/flagd/cmd/flagd/launcher"
	"github.com/fieldday/flagd/gate"
	"github.com/fieldday/flagd/kit/platform/errors"
	"github.com/spf13/cobra"
)

func newEvalCommand(o *launcher.Options) *cobra.Command {
	var (
		gateName string
		subject  string
	)

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Print the gate decision for a subject",
		Long: `Print the gate decision for a subject.

Without --subject the subject is anonymous and only a full rollout enables the
gate. An explicit empty --subject= is a valid subject id.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			g, ok := gate.ByName(gateName)
			if !ok {
				return &errors.Error{
					Code: errors.ENotFound,
					Op:   "flagd.eval",
					Msg:  fmt.Sprintf("gate %q not found; known gates: %s", gateName, strings.Join(gate.Names(), ", ")),
				}
			}

			var subjectID *string
			if cmd.Flags().Changed("subject") {
				subjectID = &subject
			}

			svc, closer, err := newResolver(cmd.Context(), cmd, o)
			if err != nil {
				return err
			}
			defer closer.Close()

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "\t")
			return enc.Encode(g.Decide(cmd.Context(), svc, subjectID))
		},
	}
	cmd.Flags().StringVar(&gateName, "gate", gate.VoiceSorting.Name, "gate to evaluate")
	cmd.Flags().StringVarP(&subject, "subject", "s", "", "subject id to bucket")
	return cmd
}
