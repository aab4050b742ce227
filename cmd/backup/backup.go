package backup

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/backupctl/backupctl/cmd/root"
	"github.com/backupctl/backupctl/core/await"
	"github.com/backupctl/backupctl/core/backup"
	"github.com/backupctl/backupctl/core/kube"
	"github.com/backupctl/backupctl/core/render"
	"github.com/backupctl/backupctl/internal/cfg"
)

type options struct {
	namespace         string
	includedNamespace string
	selector          string
	resources         string
	snapshotLocation  string
	verify            bool
}

func (o *options) validate() error {
	if o.selector != "" {
		if _, _, err := render.ParseSelector(o.selector); err != nil {
			return err
		}
	}
	return nil
}

func (o *options) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.namespace, "namespace", "n", "", "namespace to create the policy in, defaults to the operator namespace")
	cmd.Flags().StringVarP(&o.includedNamespace, "include-namespace", "i", "", "application namespace to back up")
	cmd.Flags().StringVarP(&o.selector, "selector", "s", "", "label selector, a single key=value pair")
	cmd.Flags().StringVarP(&o.resources, "resources", "r", "", "resource kinds to include, use ',' to connect multiple kinds")
	cmd.Flags().StringVarP(&o.snapshotLocation, "snapshot-location", "l", "", "snapshot location hint (accepted, not used yet)")
	cmd.Flags().BoolVarP(&o.verify, "verify", "v", false, "wait for the backup action to complete")
}

func (o *options) toRequest(name string, params *cfg.Config) backup.Request {
	namespace := o.namespace
	if namespace == "" {
		namespace = params.Operator.Namespace.Val
	}

	var resources []string
	if o.resources != "" {
		resources = strings.Split(o.resources, ",")
	}

	return backup.Request{
		Name:              name,
		Namespace:         namespace,
		IncludedNamespace: o.includedNamespace,
		Selector:          o.selector,
		IncludedResources: resources,
		SnapshotLocation:  o.snapshotLocation,
		Verify:            o.verify,
	}
}

func (o *options) toArgs(name string, params *cfg.Config) (backup.TaskArgs, error) {
	renderer, err := render.New(render.ConfigFrom(&params.Templates))
	if err != nil {
		return backup.TaskArgs{}, err
	}

	client, err := kube.NewFromConfig(&params.Kube)
	if err != nil {
		return backup.TaskArgs{}, err
	}

	awaitCfg, err := await.ConfigFrom(&params.Await)
	if err != nil {
		return backup.TaskArgs{}, err
	}

	return backup.TaskArgs{
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

	if err := backup.NewTask(args).Execute(context.Background()); err != nil {
		return err
	}

	cmd.Println(fmt.Sprintf("backup %s created", name))
	cmd.Println(fmt.Sprintf("duration:%.2f s", time.Since(start).Seconds()))

	return nil
}

func NewCmd(opt *root.Options) *cobra.Command {
	var o options

	cmd := &cobra.Command{
		Use:   "backup <name>",
		Short: "backup creates a policy and a backup action for it.",
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
