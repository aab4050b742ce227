package kube

import (
	"fmt"
	"sort"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

// Kind names one of the operator's custom resource kinds tracked by this tool.
type Kind string

const (
	KindPolicy              Kind = "Policy"
	KindBackupAction        Kind = "BackupAction"
	KindRestoreAction       Kind = "RestoreAction"
	KindRestorePoint        Kind = "RestorePoint"
	KindRestorePointContent Kind = "RestorePointContent"
)

// Labels the operator stamps on the artifacts of a policy run.
const (
	LabelAppNamespace = "k10.kasten.io/appNamespace"
	LabelPolicyName   = "k10.kasten.io/policyName"
)

const (
	configGroup  = "config.kio.kasten.io"
	actionsGroup = "actions.kio.kasten.io"
	appsGroup    = "apps.kio.kasten.io"
	version      = "v1alpha1"
)

// kindInfo is fixed per-kind configuration: where the resource lives and at
// which field paths its controller reports phase and error detail.
type kindInfo struct {
	gvr        schema.GroupVersionResource
	namespaced bool

	phasePath []string
	errorPath []string
}

var kinds = map[Kind]kindInfo{
	KindPolicy: {
		gvr:        schema.GroupVersionResource{Group: configGroup, Version: version, Resource: "policies"},
		namespaced: true,
		phasePath:  []string{"status", "validation"},
		errorPath:  []string{"status", "error", "message"},
	},
	KindBackupAction: {
		gvr:        schema.GroupVersionResource{Group: actionsGroup, Version: version, Resource: "backupactions"},
		namespaced: true,
		phasePath:  []string{"status", "state"},
		errorPath:  []string{"status", "error", "message"},
	},
	KindRestoreAction: {
		gvr:        schema.GroupVersionResource{Group: actionsGroup, Version: version, Resource: "restoreactions"},
		namespaced: true,
		phasePath:  []string{"status", "state"},
		errorPath:  []string{"status", "error", "message"},
	},
	KindRestorePoint: {
		gvr:        schema.GroupVersionResource{Group: appsGroup, Version: version, Resource: "restorepoints"},
		namespaced: true,
	},
	KindRestorePointContent: {
		gvr:        schema.GroupVersionResource{Group: appsGroup, Version: version, Resource: "restorepointcontents"},
		namespaced: false,
	},
}

// RequiredAPIResources maps group/version to the resource names the
// preflight check verifies are registered.
func RequiredAPIResources() map[string][]string {
	out := make(map[string][]string)
	for _, info := range kinds {
		gv := info.gvr.GroupVersion().String()
		out[gv] = append(out[gv], info.gvr.Resource)
	}
	for _, resources := range out {
		sort.Strings(resources)
	}
	return out
}

// GVR returns the group/version/resource a kind is served under.
func GVR(kind Kind) (schema.GroupVersionResource, error) {
	info, ok := kinds[kind]
	if !ok {
		return schema.GroupVersionResource{}, fmt.Errorf("kube: unknown kind %q", kind)
	}
	return info.gvr, nil
}

// Observation is one read of a resource's live status.
type Observation struct {
	Phase       string
	ErrorDetail string
}

// AppNamespace reads the application namespace a policy targets from its
// selector. This is the filter value later runs key restore points and
// restore point contents on.
func AppNamespace(policy *unstructured.Unstructured) (string, error) {
	exprs, found, err := unstructured.NestedSlice(policy.Object, "spec", "selector", "matchExpressions")
	if err != nil || !found {
		return "", fmt.Errorf("kube: policy %s has no selector expressions", policy.GetName())
	}

	for _, raw := range exprs {
		expr, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if expr["key"] != LabelAppNamespace {
			continue
		}
		values, ok := expr["values"].([]any)
		if !ok || len(values) == 0 {
			break
		}
		ns, ok := values[0].(string)
		if !ok || ns == "" {
			break
		}
		return ns, nil
	}

	return "", fmt.Errorf("kube: policy %s has no %s selector value", policy.GetName(), LabelAppNamespace)
}
