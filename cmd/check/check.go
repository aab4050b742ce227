package check

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/backupctl/backupctl/cmd/root"
	"github.com/backupctl/backupctl/core/check"
	"github.com/backupctl/backupctl/core/kube"
)

func NewCmd(opt *root.Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "check verifies the cluster is reachable and the operator is installed.",

		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := opt.InitGlobalVars()
			if err != nil {
				return err
			}

			client, err := kube.NewFromConfig(&params.Kube)
			if err != nil {
				return err
			}

			task := check.NewTask(check.TaskArgs{
				Params: params,
				Client: client,
				Output: cmd.OutOrStdout(),
			})
			err = task.Execute(context.Background())
			cobra.CheckErr(err)

			return nil
		},
	}

	cmd.AddCommand(newConfigCmd(opt))

	return cmd
}
