package main

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/angeloszaimis/edge-filter/config"
	"github.com/angeloszaimis/edge-filter/internal/filter"
	"github.com/angeloszaimis/edge-filter/pkg/logger"
)

type rootOptions struct {
	configFile string
	viper      *viper.Viper
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{viper: viper.New()}

	cmd := &cobra.Command{
		Use:           "edge-filter",
		Short:         "Edge request filter that forwards allow-listed download URLs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "path to a config file (default: ./config/config.yaml or ./config.yaml)")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newCheckCmd(opts))

	return cmd
}

// load binds flags that were set explicitly, then reads the configuration.
func (o *rootOptions) load(flags *pflag.FlagSet, bindings map[string]string) (*config.Config, error) {
	for key, name := range bindings {
		if f := flags.Lookup(name); f != nil && f.Changed {
			if err := o.viper.BindPFlag(key, f); err != nil {
				return nil, err
			}
		}
	}

	return config.Load(o.viper, o.configFile)
}

func newLogger(cfg *config.Config) *slog.Logger {
	return logger.New(cfg.Logging.Level, cfg.Server.Environment != config.EnvProd, cfg.Server.Environment)
}

func newFilter(cfg *config.Config) *filter.Filter {
	return filter.New(filter.NewRouteTable(cfg.Filter.Routes()), cfg.Filter.AllowedHost)
}
