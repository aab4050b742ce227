package verify

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/backupctl/backupctl/cmd/root"
	"github.com/backupctl/backupctl/core/await"
	"github.com/backupctl/backupctl/core/kube"
	"github.com/backupctl/backupctl/internal/cfg"
)

func awaitTerminal(params *cfg.Config, kind kube.Kind, namespace, name string) error {
	client, err := kube.NewFromConfig(&params.Kube)
	if err != nil {
		return err
	}

	awaitCfg, err := await.ConfigFrom(&params.Await)
	if err != nil {
		return err
	}

	return await.New(client, awaitCfg).Await(context.Background(), kind, namespace, name)
}

// NewBackupCmd verifies a backup action reached its terminal success state.
func NewBackupCmd(opt *root.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "verify-backup <name> <namespace>",
		Short: "verify-backup waits for a backup action to complete.",
		Args:  cobra.ExactArgs(2),

		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := opt.InitGlobalVars()
			if err != nil {
				return err
			}

			err = awaitTerminal(params, kube.KindBackupAction, args[1], args[0])
			cobra.CheckErr(err)

			cmd.Println("backup " + args[0] + " complete")
			return nil
		},
	}
}

// NewRestoreCmd verifies a restore action reached its terminal success state.
func NewRestoreCmd(opt *root.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "verify-restore <name> <namespace>",
		Short: "verify-restore waits for a restore action to complete.",
		Args:  cobra.ExactArgs(2),

		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := opt.InitGlobalVars()
			if err != nil {
				return err
			}

			err = awaitTerminal(params, kube.KindRestoreAction, args[1], args[0])
			cobra.CheckErr(err)

			cmd.Println("restore " + args[0] + " complete")
			return nil
		},
	}
}
