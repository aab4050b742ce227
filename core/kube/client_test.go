package kube

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	dynamicfake "k8s.io/client-go/dynamic/fake"
)

func listKinds(t *testing.T) map[schema.GroupVersionResource]string {
	t.Helper()

	out := make(map[schema.GroupVersionResource]string)
	for kind := range kinds {
		gvr, err := GVR(kind)
		require.NoError(t, err)
		out[gvr] = string(kind) + "List"
	}
	return out
}

func newFakeClient(t *testing.T, objs ...runtime.Object) (*Client, *dynamicfake.FakeDynamicClient) {
	t.Helper()

	dyn := dynamicfake.NewSimpleDynamicClientWithCustomListKinds(runtime.NewScheme(), listKinds(t), objs...)
	return New(dyn, nil), dyn
}

func policyObj(namespace, name, appNamespace string) *unstructured.Unstructured {
	return &unstructured.Unstructured{Object: map[string]any{
		"apiVersion": "config.kio.kasten.io/v1alpha1",
		"kind":       "Policy",
		"metadata": map[string]any{
			"name":      name,
			"namespace": namespace,
		},
		"spec": map[string]any{
			"selector": map[string]any{
				"matchExpressions": []any{
					map[string]any{
						"key":      LabelAppNamespace,
						"operator": "In",
						"values":   []any{appNamespace},
					},
				},
			},
		},
	}}
}

func restorePointObj(namespace, name, policyName, created string) *unstructured.Unstructured {
	return &unstructured.Unstructured{Object: map[string]any{
		"apiVersion": "apps.kio.kasten.io/v1alpha1",
		"kind":       "RestorePoint",
		"metadata": map[string]any{
			"name":              name,
			"namespace":         namespace,
			"creationTimestamp": created,
			"labels":            map[string]any{LabelPolicyName: policyName},
		},
	}}
}

func restorePointContentObj(name, appNamespace string) *unstructured.Unstructured {
	return &unstructured.Unstructured{Object: map[string]any{
		"apiVersion": "apps.kio.kasten.io/v1alpha1",
		"kind":       "RestorePointContent",
		"metadata": map[string]any{
			"name":   name,
			"labels": map[string]any{LabelAppNamespace: appNamespace},
		},
	}}
}

func backupActionObj(namespace, name, state, errMsg string) *unstructured.Unstructured {
	status := map[string]any{"state": state}
	if errMsg != "" {
		status["error"] = map[string]any{"message": errMsg}
	}

	return &unstructured.Unstructured{Object: map[string]any{
		"apiVersion": "actions.kio.kasten.io/v1alpha1",
		"kind":       "BackupAction",
		"metadata": map[string]any{
			"name":      name,
			"namespace": namespace,
		},
		"status": status,
	}}
}

func TestClient_CreateGetDelete(t *testing.T) {
	client, _ := newFakeClient(t)
	ctx := context.Background()

	require.NoError(t, client.Create(ctx, KindPolicy, policyObj("velero", "mybackup", "app-ns")))

	got, err := client.Get(ctx, KindPolicy, "velero", "mybackup")
	require.NoError(t, err)
	assert.Equal(t, "mybackup", got.GetName())

	require.NoError(t, client.Delete(ctx, KindPolicy, "velero", "mybackup"))

	_, err = client.Get(ctx, KindPolicy, "velero", "mybackup")
	assert.Error(t, err)
}

func TestClient_UnknownKind(t *testing.T) {
	client, _ := newFakeClient(t)
	ctx := context.Background()

	_, err := client.Get(ctx, Kind("Gizmo"), "ns", "name")
	assert.Error(t, err)
}

func TestClient_Observe(t *testing.T) {
	ctx := context.Background()

	t.Run("PhaseAndError", func(t *testing.T) {
		client, _ := newFakeClient(t, backupActionObj("velero", "mybackup", "Failed", "snapshot failed"))

		obs, err := client.Observe(ctx, KindBackupAction, "velero", "mybackup")
		require.NoError(t, err)
		assert.Equal(t, "Failed", obs.Phase)
		assert.Equal(t, "snapshot failed", obs.ErrorDetail)
	})

	t.Run("MissingStatusIsPending", func(t *testing.T) {
		obj := backupActionObj("velero", "mybackup", "", "")
		unstructured.RemoveNestedField(obj.Object, "status")
		client, _ := newFakeClient(t, obj)

		obs, err := client.Observe(ctx, KindBackupAction, "velero", "mybackup")
		require.NoError(t, err)
		assert.Empty(t, obs.Phase)
		assert.Empty(t, obs.ErrorDetail)
	})

	t.Run("NoPhasePathKind", func(t *testing.T) {
		client, _ := newFakeClient(t)
		_, err := client.Observe(ctx, KindRestorePointContent, "", "content-1")
		assert.Error(t, err)
	})
}

func TestClient_FindRestorePoint(t *testing.T) {
	ctx := context.Background()

	t.Run("NewestWins", func(t *testing.T) {
		client, _ := newFakeClient(t,
			restorePointObj("app-ns", "rp-old", "mybackup", "2026-08-01T00:00:00Z"),
			restorePointObj("app-ns", "rp-new", "mybackup", "2026-08-02T00:00:00Z"),
			restorePointObj("app-ns", "rp-other", "otherbackup", "2026-08-03T00:00:00Z"),
		)

		name, err := client.FindRestorePoint(ctx, "app-ns", "mybackup")
		require.NoError(t, err)
		assert.Equal(t, "rp-new", name)
	})

	t.Run("NotFound", func(t *testing.T) {
		client, _ := newFakeClient(t)

		_, err := client.FindRestorePoint(ctx, "app-ns", "mybackup")
		assert.ErrorIs(t, err, ErrRestorePointNotFound)
	})
}

func TestClient_FindRestorePointContents(t *testing.T) {
	ctx := context.Background()

	client, _ := newFakeClient(t,
		restorePointContentObj("content-1", "app-ns"),
		restorePointContentObj("content-2", "app-ns"),
		restorePointContentObj("content-3", "other-ns"),
	)

	names, err := client.FindRestorePointContents(ctx, "app-ns")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"content-1", "content-2"}, names)

	names, err = client.FindRestorePointContents(ctx, "unknown-ns")
	require.NoError(t, err)
	assert.Empty(t, names)
}
