package main

import (
	"context"
	"io"

	"github.com/fieldday/flagd/cmd/flagd/launcher"
	"github.com/fieldday/flagd/kit/cli"
	"github.com/fieldday/flagd/resolver"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// NewFlagdCommand returns the flagd root command with every subcommand
// attached. Source options are persistent so each subcommand resolves flags
// the same way the server does.
func NewFlagdCommand(v *viper.Viper) (*cobra.Command, error) {
	o := launcher.NewOptions()

	root := &cobra.Command{
		Use:          "flagd",
		Short:        "Feature flag resolution service",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Usage()
		},
	}

	if err := cli.InitViper(v, root.Use); err != nil {
		return nil, err
	}
	if err := cli.BindOptions(v, root, o.SourceOpts()); err != nil {
		return nil, err
	}

	runCmd, err := launcher.NewCommand(v, o)
	if err != nil {
		return nil, err
	}

	root.AddCommand(
		runCmd,
		newFlagsCommand(o),
		newEvalCommand(o),
		newBucketCommand(),
		newSetCommand(o),
		newUnsetCommand(o),
	)
	return root, nil
}

// newResolver builds the same resolver the server would from o. Logs go to
// stderr so command output stays parseable.
func newResolver(ctx context.Context, cmd *cobra.Command, o *launcher.Options) (*resolver.Service, io.Closer, error) {
	c := o.Config()
	if err := c.Validate(); err != nil {
		return nil, nil, err
	}

	log, err := c.Log.New(cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, err
	}

	src, closer, err := launcher.OpenSource(ctx, log, c)
	if err != nil {
		return nil, nil, err
	}

	overrides, err := c.Overrides()
	if err != nil {
		_ = closer.Close()
		return nil, nil, err
	}

	svc := resolver.NewService(src,
		resolver.WithKey(c.ConfigKey),
		resolver.WithOverrides(overrides),
		resolver.WithLogger(log.With(zap.String("service", "resolver"))),
	)
	return svc, closer, nil
}
