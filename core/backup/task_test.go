package backup

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	dynamicfake "k8s.io/client-go/dynamic/fake"

	"github.com/backupctl/backupctl/core/await"
	"github.com/backupctl/backupctl/core/kube"
	"github.com/backupctl/backupctl/core/render"
)

const policyTemplate = `apiVersion: config.kio.kasten.io/v1alpha1
kind: Policy
metadata:
  name: {{ .Name }}
  namespace: {{ .Namespace }}
spec:
  frequency: "@onDemand"
  selector:
    matchExpressions:
      - key: k10.kasten.io/appNamespace
        operator: In
        values:
          - {{ .IncludedNamespace }}
`

const backupActionTemplate = `apiVersion: actions.kio.kasten.io/v1alpha1
kind: BackupAction
metadata:
  name: {{ .Name }}
  namespace: {{ .Namespace }}
spec:
  subject:
    kind: Policy
    name: {{ .PolicyName }}
    namespace: {{ .Namespace }}
`

const restoreActionTemplate = `apiVersion: actions.kio.kasten.io/v1alpha1
kind: RestoreAction
metadata:
  name: {{ .Name }}
  namespace: {{ .AppNamespace }}
spec:
  subject:
    kind: RestorePoint
    name: {{ .RestorePointName }}
`

func newRenderer(t *testing.T) *render.Renderer {
	t.Helper()
	dir := t.TempDir()

	conf := render.Config{
		PolicyPath:        filepath.Join(dir, "policy.yaml"),
		BackupActionPath:  filepath.Join(dir, "backup-action.yaml"),
		RestoreActionPath: filepath.Join(dir, "restore-action.yaml"),
	}
	require.NoError(t, os.WriteFile(conf.PolicyPath, []byte(policyTemplate), 0o600))
	require.NoError(t, os.WriteFile(conf.BackupActionPath, []byte(backupActionTemplate), 0o600))
	require.NoError(t, os.WriteFile(conf.RestoreActionPath, []byte(restoreActionTemplate), 0o600))

	r, err := render.New(conf)
	require.NoError(t, err)
	return r
}

func listKinds(t *testing.T) map[schema.GroupVersionResource]string {
	t.Helper()

	out := make(map[schema.GroupVersionResource]string)
	for _, kind := range []kube.Kind{
		kube.KindPolicy, kube.KindBackupAction, kube.KindRestoreAction,
		kube.KindRestorePoint, kube.KindRestorePointContent,
	} {
		gvr, err := kube.GVR(kind)
		require.NoError(t, err)
		out[gvr] = string(kind) + "List"
	}
	return out
}

func newFakeClient(t *testing.T, objs ...runtime.Object) (*kube.Client, *dynamicfake.FakeDynamicClient) {
	t.Helper()

	dyn := dynamicfake.NewSimpleDynamicClientWithCustomListKinds(runtime.NewScheme(), listKinds(t), objs...)
	return kube.New(dyn, nil), dyn
}

type awaitCall struct {
	kind      kube.Kind
	namespace string
	name      string
}

type stubAwaiter struct {
	calls []awaitCall
	errs  map[kube.Kind]error
}

func (s *stubAwaiter) Await(_ context.Context, kind kube.Kind, namespace, name string) error {
	s.calls = append(s.calls, awaitCall{kind: kind, namespace: namespace, name: name})
	return s.errs[kind]
}

func getObj(t *testing.T, client *kube.Client, kind kube.Kind, namespace, name string) *unstructured.Unstructured {
	t.Helper()
	obj, err := client.Get(context.Background(), kind, namespace, name)
	require.NoError(t, err)
	return obj
}

func TestTask_Execute(t *testing.T) {
	client, _ := newFakeClient(t)
	poller := &stubAwaiter{}
	task := NewTask(TaskArgs{
		TaskID: "test",
		Request: Request{
			Name:              "mybackup",
			Namespace:         "velero",
			IncludedNamespace: "app-ns",
			Selector:          "app=foo",
			IncludedResources: []string{"pods", "services"},
			Verify:            true,
		},
		Renderer: newRenderer(t),
		Client:   client,
		Poller:   poller,
	})

	require.NoError(t, task.Execute(context.Background()))

	policy := getObj(t, client, kube.KindPolicy, "velero", "mybackup")
	appNS, err := kube.AppNamespace(policy)
	require.NoError(t, err)
	assert.Equal(t, "app-ns", appNS)

	exprs, found, err := unstructured.NestedSlice(policy.Object, "spec", "selector", "matchExpressions")
	require.NoError(t, err)
	require.True(t, found)
	assert.Len(t, exprs, 2)

	filters, found, err := unstructured.NestedSlice(policy.Object, "spec", "filters", "includeResources")
	require.NoError(t, err)
	require.True(t, found)
	assert.Len(t, filters, 2)

	action := getObj(t, client, kube.KindBackupAction, "velero", "mybackup")
	subject, _, err := unstructured.NestedString(action.Object, "spec", "subject", "name")
	require.NoError(t, err)
	assert.Equal(t, "mybackup", subject)

	require.Len(t, poller.calls, 2)
	assert.Equal(t, awaitCall{kube.KindPolicy, "velero", "mybackup"}, poller.calls[0])
	assert.Equal(t, awaitCall{kube.KindBackupAction, "velero", "mybackup"}, poller.calls[1])
}

func TestTask_ExecuteNoVerify(t *testing.T) {
	client, _ := newFakeClient(t)
	poller := &stubAwaiter{}
	task := NewTask(TaskArgs{
		TaskID:   "test",
		Request:  Request{Name: "mybackup", Namespace: "velero", IncludedNamespace: "app-ns"},
		Renderer: newRenderer(t),
		Client:   client,
		Poller:   poller,
	})

	require.NoError(t, task.Execute(context.Background()))

	// the policy is always awaited, the backup action only under --verify
	require.Len(t, poller.calls, 1)
	assert.Equal(t, kube.KindPolicy, poller.calls[0].kind)

	getObj(t, client, kube.KindBackupAction, "velero", "mybackup")
}

func TestTask_PolicyTimeoutStopsPipeline(t *testing.T) {
	client, _ := newFakeClient(t)
	poller := &stubAwaiter{errs: map[kube.Kind]error{kube.KindPolicy: await.ErrTimeout}}
	task := NewTask(TaskArgs{
		TaskID:   "test",
		Request:  Request{Name: "mybackup", Namespace: "velero", IncludedNamespace: "app-ns", Verify: true},
		Renderer: newRenderer(t),
		Client:   client,
		Poller:   poller,
	})

	err := task.Execute(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, await.ErrTimeout)

	// policy stays behind for inspection, the action is never submitted
	getObj(t, client, kube.KindPolicy, "velero", "mybackup")
	_, err = client.Get(context.Background(), kube.KindBackupAction, "velero", "mybackup")
	assert.Error(t, err)
}

func TestTask_Validate(t *testing.T) {
	tests := []struct {
		name    string
		request Request
	}{
		{"BadName", Request{Name: "My_Backup", Namespace: "velero"}},
		{"BadNamespace", Request{Name: "mybackup", Namespace: "vel.ero"}},
		{"BadIncludedNamespace", Request{Name: "mybackup", Namespace: "velero", IncludedNamespace: "app/ns"}},
		{"BadSelector", Request{Name: "mybackup", Namespace: "velero", Selector: "app=foo,tier=db"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newFakeClient(t)
			task := NewTask(TaskArgs{
				TaskID:   "test",
				Request:  tt.request,
				Renderer: newRenderer(t),
				Client:   client,
				Poller:   &stubAwaiter{},
			})

			require.Error(t, task.Execute(context.Background()))

			// nothing is submitted when validation fails
			_, err := client.Get(context.Background(), kube.KindPolicy, tt.request.Namespace, tt.request.Name)
			assert.Error(t, err)
		})
	}
}
