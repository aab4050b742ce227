package restore

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

// Request carries the parameters of one restore creation.
type Request struct {
	Name       string
	BackupName string
	Namespace  string
	Verify     bool
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

// Task restores a backup: it resolves the application namespace from the
// source backup's policy, finds the newest restore point of that policy and
// submits a restore action bound to both. Identifiers are re-derived fresh
// per invocation, nothing is cached across runs.
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
			zap.String("restore_name", args.Request.Name),
			zap.String("backup_name", args.Request.BackupName)),
		request:  args.Request,
		renderer: args.Renderer,
		client:   args.Client,
		poller:   args.Poller,
	}
}

func (t *Task) validate() error {
	if !validate.ObjectName(t.request.Name) {
		return fmt.Errorf("restore: invalid restore name %q", t.request.Name)
	}
	if !validate.ObjectName(t.request.BackupName) {
		return fmt.Errorf("restore: invalid backup name %q", t.request.BackupName)
	}
	if !validate.Namespace(t.request.Namespace) {
		return fmt.Errorf("restore: invalid namespace %q", t.request.Namespace)
	}
	return nil
}

func (t *Task) Execute(ctx context.Context) error {
	if err := t.validate(); err != nil {
		return err
	}

	start := time.Now()

	policy, err := t.client.Get(ctx, kube.KindPolicy, t.request.Namespace, t.request.BackupName)
	if err != nil {
		return fmt.Errorf("restore: get source policy: %w", err)
	}

	appNS, err := kube.AppNamespace(policy)
	if err != nil {
		return fmt.Errorf("restore: resolve app namespace: %w", err)
	}

	restorePoint, err := t.client.FindRestorePoint(ctx, appNS, t.request.BackupName)
	if err != nil {
		return fmt.Errorf("restore: find restore point: %w", err)
	}
	t.logger.Info("restore point resolved",
		zap.String("app_namespace", appNS),
		zap.String("restore_point", restorePoint))

	action, err := t.renderer.RestoreAction(render.RestoreActionBindings{
		Name:             t.request.Name,
		AppNamespace:     appNS,
		RestorePointName: restorePoint,
	})
	if err != nil {
		return fmt.Errorf("restore: materialize restore action: %w", err)
	}
	if err := t.client.Create(ctx, kube.KindRestoreAction, action); err != nil {
		return fmt.Errorf("restore: submit restore action: %w", err)
	}

	if t.request.Verify {
		if err := t.poller.Await(ctx, kube.KindRestoreAction, appNS, t.request.Name); err != nil {
			return fmt.Errorf("restore: verify restore action: %w", err)
		}
	}

	t.logger.Info("restore done", zap.Duration("cost", time.Since(start)))
	return nil
}
