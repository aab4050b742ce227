package check

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/version"
	fakediscovery "k8s.io/client-go/discovery/fake"
	k8stesting "k8s.io/client-go/testing"

	"github.com/backupctl/backupctl/core/kube"
	"github.com/backupctl/backupctl/internal/cfg"
)

func operatorResources() []*metav1.APIResourceList {
	return []*metav1.APIResourceList{
		{
			GroupVersion: "config.kio.kasten.io/v1alpha1",
			APIResources: []metav1.APIResource{{Name: "policies"}},
		},
		{
			GroupVersion: "actions.kio.kasten.io/v1alpha1",
			APIResources: []metav1.APIResource{{Name: "backupactions"}, {Name: "restoreactions"}},
		},
		{
			GroupVersion: "apps.kio.kasten.io/v1alpha1",
			APIResources: []metav1.APIResource{{Name: "restorepoints"}, {Name: "restorepointcontents"}},
		},
	}
}

func newTask(gitVersion string, resources []*metav1.APIResourceList, out *bytes.Buffer) *Task {
	disc := &fakediscovery.FakeDiscovery{Fake: &k8stesting.Fake{Resources: resources}}
	disc.FakedServerVersion = &version.Info{GitVersion: gitVersion}

	params := cfg.New()
	params.Operator.Namespace.Val = "kasten-io"
	params.Operator.MinServerVersion.Val = ">=1.21.0-0"

	return NewTask(TaskArgs{
		Params: params,
		Client: kube.New(nil, disc),
		Output: out,
	})
}

func TestTask_Execute(t *testing.T) {
	var out bytes.Buffer
	task := newTask("v1.29.3", operatorResources(), &out)

	require.NoError(t, task.Execute(context.Background()))
	assert.Contains(t, out.String(), "Server version: v1.29.3")
	assert.Contains(t, out.String(), "Success!")
}

func TestTask_VendorSuffixVersion(t *testing.T) {
	var out bytes.Buffer
	task := newTask("v1.29.3+k3s1", operatorResources(), &out)

	require.NoError(t, task.Execute(context.Background()))
	assert.Contains(t, out.String(), "Success!")
}

func TestTask_ServerTooOld(t *testing.T) {
	var out bytes.Buffer
	task := newTask("v1.19.0", operatorResources(), &out)

	err := task.Execute(context.Background())
	require.Error(t, err)
	assert.NotContains(t, out.String(), "Success!")
}

func TestTask_MissingCRDs(t *testing.T) {
	// the actions group is entirely absent, one resource of apps is missing
	resources := []*metav1.APIResourceList{
		{
			GroupVersion: "config.kio.kasten.io/v1alpha1",
			APIResources: []metav1.APIResource{{Name: "policies"}},
		},
		{
			GroupVersion: "apps.kio.kasten.io/v1alpha1",
			APIResources: []metav1.APIResource{{Name: "restorepoints"}},
		},
	}

	var out bytes.Buffer
	task := newTask("v1.29.3", resources, &out)

	err := task.Execute(context.Background())
	require.Error(t, err)

	assert.Contains(t, out.String(), "Operator CRDs missing")
	assert.Contains(t, out.String(), "actions.kio.kasten.io/v1alpha1/backupactions")
	assert.Contains(t, out.String(), "actions.kio.kasten.io/v1alpha1/restoreactions")
	assert.Contains(t, out.String(), "apps.kio.kasten.io/v1alpha1/restorepointcontents")
	assert.NotContains(t, out.String(), "Success!")
}

func TestTask_BadConstraint(t *testing.T) {
	var out bytes.Buffer
	task := newTask("v1.29.3", operatorResources(), &out)
	task.params.Operator.MinServerVersion.Val = "not-a-constraint"

	assert.Error(t, task.Execute(context.Background()))
}
