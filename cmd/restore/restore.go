package restore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/backupctl/backupctl/cmd/root"
	"github.com/backupctl/backupctl/core/await"
	"github.com/backupctl/backupctl/core/kube"
	"github.com/backupctl/backupctl/core/render"
	"github.com/backupctl/backupctl/core/restore"
	"github.com/backupctl/backupctl/internal/cfg"
)

type options struct {
	backupName string
	namespace  string
	verify     bool
}

func (o *options) validate() error {
	if o.backupName == "" {
		return errors.New("backup name is required")
	}
	return nil
}

func (o *options) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.backupName, "from", "f", "", "backup name to restore from")
	cmd.Flags().StringVarP(&o.namespace, "namespace", "n", "", "namespace the backup's policy lives in, defaults to the operator namespace")
	cmd.Flags().BoolVarP(&o.verify, "verify", "v", false, "wait for the restore action to complete")
}

func (o *options) toRequest(name string, params *cfg.Config) restore.Request {
	namespace := o.namespace
	if namespace == "" {
		namespace = params.Operator.Namespace.Val
	}

	return restore.Request{
		Name:       name,
		BackupName: o.backupName,
		Namespace:  namespace,
		Verify:     o.verify,
	}
}

func (o *options) toArgs(name string, params *cfg.Config) (restore.TaskArgs, error) {
	renderer, err := render.New(render.ConfigFrom(&params.Templates))
	if err != nil {
		return restore.TaskArgs{}, err
	}

	client, err := kube.NewFromConfig(&params.Kube)
	if err != nil {
		return restore.TaskArgs{}, err
	}

	awaitCfg, err := await.ConfigFrom(&params.Await)
	if err != nil {
		return restore.TaskArgs{}, err
	}

	return restore.TaskArgs{
		TaskID:   uuid.NewString(),
		Request:  o.toRequest(name, params),
		Renderer: renderer,
		Client:   client,
		Poller:   await.New(client, awaitCfg),
	}, nil
}

func (o *options) run(cmd *cobra.Command, name string, params *cfg.Config) error {
	start := time.Now()

	args, err := o.toArgs(name, params)
	if err != nil {
		return err
	}

	if err := restore.NewTask(args).Execute(context.Background()); err != nil {
		return err
	}

	cmd.Println(fmt.Sprintf("restore %s created", name))
	cmd.Println(fmt.Sprintf("duration:%.2f s", time.Since(start).Seconds()))

	return nil
}

func NewCmd(opt *root.Options) *cobra.Command {
	var o options

	cmd := &cobra.Command{
		Use:   "restore <name>",
		Short: "restore creates a restore action from a backup's newest restore point.",
		Args:  cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := opt.InitGlobalVars()
			if err != nil {
				return err
			}

			if err := o.validate(); err != nil {
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
