package del

import (
	"context"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/backupctl/backupctl/cmd/root"
	"github.com/backupctl/backupctl/core/del"
	"github.com/backupctl/backupctl/core/kube"
	"github.com/backupctl/backupctl/internal/cfg"
)

type options struct {
	namespace string
}

func (o *options) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.namespace, "namespace", "n", "", "namespace the policy lives in, defaults to the operator namespace")
}

func (o *options) run(cmd *cobra.Command, name string, params *cfg.Config) error {
	namespace := o.namespace
	if namespace == "" {
		namespace = params.Operator.Namespace.Val
	}

	client, err := kube.NewFromConfig(&params.Kube)
	if err != nil {
		return err
	}

	task := del.NewTask(del.TaskArgs{
		TaskID:    uuid.NewString(),
		Name:      name,
		Namespace: namespace,
		Client:    client,
	})
	if err := task.Execute(context.Background()); err != nil {
		return err
	}

	cmd.Println("backup " + name + " deleted")

	return nil
}

func NewCmd(opt *root.Options) *cobra.Command {
	var o options

	cmd := &cobra.Command{
		Use:   "delete-backup <name>",
		Short: "delete-backup deletes a backup's restore point contents and its policy.",
		Args:  cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := opt.InitGlobalVars()
			if err != nil {
				return err
			}

			err = o.run(cmd, args[0], params)
			cobra.CheckErr(err)

			return nil
		},
	}

	o.addFlags(cmd)

	return cmd
}
