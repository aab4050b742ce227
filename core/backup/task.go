package backup

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/backupctl/backupctl/core/kube"
	"github.com/backupctl/backupctl/core/render"
	"github.com/backupctl/backupctl/internal/log"
	"github.com/backupctl/backupctl/internal/validate"
)

// Request carries the parameters of one backup creation.
type Request struct {
	Name              string
	Namespace         string
	IncludedNamespace string
	Selector          string
	IncludedResources []string
	// SnapshotLocation is accepted but not bound into materialization yet.
	SnapshotLocation string
	Verify           bool
}

// Awaiter drives a created resource to a terminal state.
type Awaiter interface {
	Await(ctx context.Context, kind kube.Kind, namespace, name string) error
}

type TaskArgs struct {
	TaskID   string
	Request  Request
	Renderer *render.Renderer
	Client   *kube.Client
	Poller   Awaiter
}

// Task creates a backup: it materializes and submits the policy, waits for
// the policy to validate, then materializes and submits the backup action.
// The first error aborts the remaining steps, already-created resources are
// left in place.
type Task struct {
	logger *zap.Logger

	request  Request
	renderer *render.Renderer
	client   *kube.Client
	poller   Awaiter
}

func NewTask(args TaskArgs) *Task {
	return &Task{
		logger: log.With(
			zap.String("task_id", args.TaskID),
			zap.String("backup_name", args.Request.Name)),
		request:  args.Request,
		renderer: args.Renderer,
		client:   args.Client,
		poller:   args.Poller,
	}
}

func (t *Task) validate() error {
	if !validate.ObjectName(t.request.Name) {
		return fmt.Errorf("backup: invalid backup name %q", t.request.Name)
	}
	if !validate.Namespace(t.request.Namespace) {
		return fmt.Errorf("backup: invalid namespace %q", t.request.Namespace)
	}
	if t.request.IncludedNamespace != "" && !validate.Namespace(t.request.IncludedNamespace) {
		return fmt.Errorf("backup: invalid included namespace %q", t.request.IncludedNamespace)
	}
	if t.request.Selector != "" {
		if _, _, err := render.ParseSelector(t.request.Selector); err != nil {
			return err
		}
	}
	return nil
}

func (t *Task) Execute(ctx context.Context) error {
	if err := t.validate(); err != nil {
		return err
	}

	if t.request.SnapshotLocation != "" {
		t.logger.Debug("snapshot location accepted but not bound into templates",
			zap.String("snapshot_location", t.request.SnapshotLocation))
	}

	start := time.Now()

	policy, err := t.renderer.Policy(render.PolicyBindings{
		Name:              t.request.Name,
		Namespace:         t.request.Namespace,
		IncludedNamespace: t.request.IncludedNamespace,
		Selector:          t.request.Selector,
		IncludedResources: t.request.IncludedResources,
	})
	if err != nil {
		return fmt.Errorf("backup: materialize policy: %w", err)
	}
	if err := t.client.Create(ctx, kube.KindPolicy, policy); err != nil {
		return fmt.Errorf("backup: submit policy: %w", err)
	}

	// The policy must validate before any action references it.
	if err := t.poller.Await(ctx, kube.KindPolicy, t.request.Namespace, t.request.Name); err != nil {
		return fmt.Errorf("backup: policy did not validate: %w", err)
	}

	action, err := t.renderer.BackupAction(render.BackupActionBindings{
		Name:       t.request.Name,
		Namespace:  t.request.Namespace,
		PolicyName: t.request.Name,
	})
	if err != nil {
		return fmt.Errorf("backup: materialize backup action: %w", err)
	}
	if err := t.client.Create(ctx, kube.KindBackupAction, action); err != nil {
		return fmt.Errorf("backup: submit backup action: %w", err)
	}

	if t.request.Verify {
		if err := t.poller.Await(ctx, kube.KindBackupAction, t.request.Namespace, t.request.Name); err != nil {
			return fmt.Errorf("backup: verify backup action: %w", err)
		}
	}

	t.logger.Info("backup done", zap.Duration("cost", time.Since(start)))
	return nil
}
