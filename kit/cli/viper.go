// Package cli binds command line flags, environment variables and an optional
// config file to program options.
package cli

import (
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// Opt is one option settable by flag, NAME_ environment variable or config
// file key, in that order of precedence.
type Opt struct {
	// DestP is a *string, *bool, *time.Duration, *[]string or *zapcore.Level.
	DestP interface{}

	Flag       string
	Hidden     bool
	Persistent bool
	Required   bool
	Short      rune

	Default interface{}
	Desc    string
}

// InitViper points v at the NAME_ environment and loads the config file named
// by NAME_CONFIG_PATH. A path without a known extension is searched as a
// directory for config.json, config.toml, config.yaml or config.yml, in that
// order. Without NAME_CONFIG_PATH the working directory is searched.
func InitViper(v *viper.Viper, name string) error {
	v.SetEnvPrefix(strings.ToUpper(name))
	v.AutomaticEnv()
	// This normalizes "-" to an underscore in env names.
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	configPath := v.GetString("CONFIG_PATH")
	if configPath == "" {
		// Default to looking in the working directory of the running process.
		configPath = "."
	}

	switch strings.ToLower(path.Ext(configPath)) {
	case ".json", ".toml", ".yaml", ".yml":
		v.SetConfigFile(configPath)
	default:
		v.AddConfigPath(configPath)
	}

	if err := v.ReadInConfig(); err != nil && !os.IsNotExist(err) {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("unable to read config file %q: %w", configPath, err)
		}
	}
	return nil
}

// BindOptions defines opts on cmd, binds each to v and stores the value
// already known from the environment or config file in its destination.
func BindOptions(v *viper.Viper, cmd *cobra.Command, opts []Opt) error {
	for _, o := range opts {
		flagset := cmd.Flags()
		if o.Persistent {
			flagset = cmd.PersistentFlags()
		}

		// a value from the environment or config file satisfies a required option
		required := o.Required && !v.IsSet(o.Flag)

		var short string
		if o.Short != 0 {
			short = string(o.Short)
		}

		switch destP := o.DestP.(type) {
		case *string:
			var d string
			if o.Default != nil {
				d = o.Default.(string)
			}
			flagset.StringVarP(destP, o.Flag, short, d, o.Desc)
			if err := bindPFlag(v, o, flagset); err != nil {
				return err
			}
			*destP = v.GetString(o.Flag)
		case *bool:
			var d bool
			if o.Default != nil {
				d = o.Default.(bool)
			}
			flagset.BoolVarP(destP, o.Flag, short, d, o.Desc)
			if err := bindPFlag(v, o, flagset); err != nil {
				return err
			}
			*destP = v.GetBool(o.Flag)
		case *time.Duration:
			var d time.Duration
			if o.Default != nil {
				d = o.Default.(time.Duration)
			}
			flagset.DurationVarP(destP, o.Flag, short, d, o.Desc)
			if err := bindPFlag(v, o, flagset); err != nil {
				return err
			}
			*destP = v.GetDuration(o.Flag)
		case *[]string:
			var d []string
			if o.Default != nil {
				d = o.Default.([]string)
			}
			flagset.StringSliceVarP(destP, o.Flag, short, d, o.Desc)
			if err := bindPFlag(v, o, flagset); err != nil {
				return err
			}
			*destP = v.GetStringSlice(o.Flag)
		case *zapcore.Level:
			var l zapcore.Level
			if o.Default != nil {
				l = o.Default.(zapcore.Level)
			}
			LevelVarP(flagset, destP, o.Flag, short, l, o.Desc)
			if err := bindPFlag(v, o, flagset); err != nil {
				return err
			}
			if s := v.GetString(o.Flag); s != "" {
				if err := destP.UnmarshalText([]byte(s)); err != nil {
					return fmt.Errorf("invalid value %q for %s: %w", s, o.Flag, err)
				}
			}
		default:
			return fmt.Errorf("unknown destination type %T", o.DestP)
		}

		if o.Hidden {
			if err := flagset.MarkHidden(o.Flag); err != nil {
				return err
			}
		}
		if required {
			if err := cobra.MarkFlagRequired(flagset, o.Flag); err != nil {
				return err
			}
		}
	}

	return nil
}

func bindPFlag(v *viper.Viper, o Opt, fs *pflag.FlagSet) error {
	if err := v.BindPFlag(o.Flag, fs.Lookup(o.Flag)); err != nil {
		return fmt.Errorf("failed to bind flag %s: %w", o.Flag, err)
	}
	return nil
}
