package root

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/backupctl/backupctl/internal/cfg"
	"github.com/backupctl/backupctl/internal/log"
)

const defaultConfigFile = "backupctl.yaml"

type Options struct {
	Config    string
	Overrides []string
}

// InitGlobalVars resolves configuration and initializes the global logger.
// A missing default config file is fine, defaults apply; an explicitly
// given config file must exist.
func (o *Options) InitGlobalVars() (*cfg.Config, error) {
	overrides, err := parseOverrides(o.Overrides)
	if err != nil {
		return nil, err
	}

	params, err := cfg.Load(o.Config, overrides)
	if errors.Is(err, cfg.ErrConfigNotFound) && o.Config == defaultConfigFile {
		params, err = cfg.Load("", overrides)
	}
	if err != nil {
		return nil, err
	}

	log.InitLogger(&params.Log)

	return params, nil
}

func parseOverrides(pairs []string) (map[string]string, error) {
	overrides := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set value %q, want KEY=VALUE", pair)
		}
		overrides[key] = value
	}
	return overrides, nil
}

func NewCmd(opt *Options) *cobra.Command {
	cmd := &cobra.Command{
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		Use:   "backupctl",
		Short: "backupctl drives a policy-based backup operator to back up and restore Kubernetes workloads.",
		Long:  `backupctl drives a policy-based backup operator to back up and restore Kubernetes workloads.`,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.PrintErrf("execute %s args:%v error:%v\n", cmd.Name(), args, errors.New("unrecognized command"))
			os.Exit(1)
		},
	}

	cmd.PersistentFlags().StringVar(&opt.Config, "config", defaultConfigFile, "config YAML file of backupctl")
	cmd.PersistentFlags().StringSliceVar(&opt.Overrides, "set", []string{}, "Override config values (--set operator.namespace=kasten-io)")

	return cmd
}
