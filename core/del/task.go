package del

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/backupctl/backupctl/core/kube"
	"github.com/backupctl/backupctl/internal/log"
	"github.com/backupctl/backupctl/internal/validate"
	"github.com/backupctl/backupctl/internal/workerpool"
)

const deleteWorkerNum = 4

type TaskArgs struct {
	TaskID    string
	Name      string
	Namespace string
	Client    *kube.Client
}

// Task deletes a backup. Restore point contents go first, the operator
// cascades that delete to the dependent actions and restore points, then
// the policy itself. The order is never reversed.
type Task struct {
	logger *zap.Logger

	name      string
	namespace string
	client    *kube.Client
}

func NewTask(args TaskArgs) *Task {
	return &Task{
		logger: log.With(
			zap.String("task_id", args.TaskID),
			zap.String("backup_name", args.Name)),
		name:      args.Name,
		namespace: args.Namespace,
		client:    args.Client,
	}
}

func (t *Task) validate() error {
	if !validate.ObjectName(t.name) {
		return fmt.Errorf("delete: invalid backup name %q", t.name)
	}
	if !validate.Namespace(t.namespace) {
		return fmt.Errorf("delete: invalid namespace %q", t.namespace)
	}
	return nil
}

func (t *Task) deleteContents(ctx context.Context, contents []string) error {
	if len(contents) == 0 {
		return nil
	}

	wp, err := workerpool.New(ctx, deleteWorkerNum, 0)
	if err != nil {
		return fmt.Errorf("delete: build worker pool: %w", err)
	}
	wp.Start()
	for _, name := range contents {
		content := name
		wp.Submit(func(ctx context.Context) error {
			if err := t.client.Delete(ctx, kube.KindRestorePointContent, "", content); err != nil {
				return fmt.Errorf("delete: delete restore point content %s: %w", content, err)
			}
			return nil
		})
	}
	wp.Done()
	if err := wp.Wait(); err != nil {
		return err
	}

	return nil
}

func (t *Task) Execute(ctx context.Context) error {
	if err := t.validate(); err != nil {
		return err
	}

	start := time.Now()

	policy, err := t.client.Get(ctx, kube.KindPolicy, t.namespace, t.name)
	if err != nil {
		return fmt.Errorf("delete: get policy: %w", err)
	}

	appNS, err := kube.AppNamespace(policy)
	if err != nil {
		return fmt.Errorf("delete: resolve app namespace: %w", err)
	}

	contents, err := t.client.FindRestorePointContents(ctx, appNS)
	if err != nil {
		return fmt.Errorf("delete: find restore point contents: %w", err)
	}
	// Zero contents is fine, the backup may never have completed. The
	// policy delete still runs.
	if len(contents) == 0 {
		t.logger.Info("no restore point contents found", zap.String("app_namespace", appNS))
	}

	if err := t.deleteContents(ctx, contents); err != nil {
		return err
	}

	if err := t.client.Delete(ctx, kube.KindPolicy, t.namespace, t.name); err != nil {
		return fmt.Errorf("delete: delete policy: %w", err)
	}

	t.logger.Info("delete backup done",
		zap.Int("restore_point_contents", len(contents)),
		zap.Duration("cost", time.Since(start)))
	return nil
}
