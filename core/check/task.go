package check

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"go.uber.org/zap"

	"github.com/backupctl/backupctl/core/kube"
	"github.com/backupctl/backupctl/internal/cfg"
	"github.com/backupctl/backupctl/internal/log"
)

type TaskArgs struct {
	Params *cfg.Config
	Client *kube.Client
	Output io.Writer
}

// Task is the preflight check: API server reachable, server version within
// the supported range, operator CRDs registered.
type Task struct {
	logger *zap.Logger

	params *cfg.Config
	client *kube.Client
	output io.Writer
}

func NewTask(args TaskArgs) *Task {
	return &Task{
		logger: log.L(),
		params: args.Params,
		client: args.Client,
		output: args.Output,
	}
}

func (t *Task) checkServerConnect(_ context.Context) (string, error) {
	t.logger.Info("check api server connect")
	info, err := t.client.Discovery().ServerVersion()
	if err != nil {
		return "", fmt.Errorf("check: get server version: %w", err)
	}

	t.logger.Info("check api server connect success", zap.String("version", info.GitVersion))
	return info.GitVersion, nil
}

func (t *Task) checkServerVersion(gitVersion string) error {
	constraint, err := semver.NewConstraint(t.params.Operator.MinServerVersion.Val)
	if err != nil {
		return fmt.Errorf("check: parse version constraint %q: %w", t.params.Operator.MinServerVersion.Val, err)
	}

	// GitVersion looks like v1.29.3 or v1.29.3+k3s1.
	trimmed := strings.TrimPrefix(gitVersion, "v")
	if i := strings.IndexByte(trimmed, '+'); i >= 0 {
		trimmed = trimmed[:i]
	}
	ver, err := semver.NewVersion(trimmed)
	if err != nil {
		return fmt.Errorf("check: parse server version %q: %w", gitVersion, err)
	}

	if !constraint.Check(ver) {
		return fmt.Errorf("check: server version %s does not satisfy %s", gitVersion, t.params.Operator.MinServerVersion.Val)
	}
	return nil
}

func (t *Task) checkOperatorCRDs(_ context.Context) ([]string, error) {
	t.logger.Info("check operator crds")

	var missing []string
	required := kube.RequiredAPIResources()

	groupVersions := make([]string, 0, len(required))
	for gv := range required {
		groupVersions = append(groupVersions, gv)
	}
	sort.Strings(groupVersions)

	for _, gv := range groupVersions {
		list, err := t.client.Discovery().ServerResourcesForGroupVersion(gv)
		if err != nil {
			// The whole group is absent, every resource in it is missing.
			t.logger.Warn("operator group version not served", zap.String("group_version", gv), zap.Error(err))
			for _, resource := range required[gv] {
				missing = append(missing, gv+"/"+resource)
			}
			continue
		}

		served := make(map[string]struct{}, len(list.APIResources))
		for _, res := range list.APIResources {
			served[res.Name] = struct{}{}
		}
		for _, resource := range required[gv] {
			if _, ok := served[resource]; !ok {
				missing = append(missing, gv+"/"+resource)
			}
		}
	}

	return missing, nil
}

func (t *Task) writeResult(serverVersion string, missing []string) error {
	var buff []byte

	buff = append(buff, []byte("\nServer version: "+serverVersion+"\n")...)
	buff = append(buff, []byte("Operator:\n")...)
	buff = append(buff, []byte("  namespace: "+t.params.Operator.Namespace.Val+"\n")...)
	buff = append(buff, []byte("  min-server-version: "+t.params.Operator.MinServerVersion.Val+"\n")...)

	if len(missing) != 0 {
		buff = append(buff, []byte("\n!!! Operator CRDs missing !!!\n")...)
		for _, name := range missing {
			buff = append(buff, []byte("  "+name+"\n")...)
		}
		buff = append(buff, []byte("Is the backup operator installed in this cluster?\n")...)
	} else {
		buff = append(buff, []byte("\nSuccess!\n")...)
	}

	if _, err := io.Copy(t.output, bytes.NewReader(buff)); err != nil {
		return fmt.Errorf("check: write result %w", err)
	}

	return nil
}

func (t *Task) Execute(ctx context.Context) error {
	serverVersion, err := t.checkServerConnect(ctx)
	if err != nil {
		return err
	}

	if err := t.checkServerVersion(serverVersion); err != nil {
		return err
	}

	missing, err := t.checkOperatorCRDs(ctx)
	if err != nil {
		return err
	}

	if err := t.writeResult(serverVersion, missing); err != nil {
		return err
	}

	if len(missing) != 0 {
		return fmt.Errorf("check: %d operator CRDs missing", len(missing))
	}
	return nil
}
