package kube

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/client-go/discovery"
	"k8s.io/client-go/dynamic"

	"github.com/backupctl/backupctl/internal/log"
)

// ErrRestorePointNotFound is returned when a backup has completed no run
// that produced a usable restore point.
var ErrRestorePointNotFound = errors.New("kube: restore point not found")

// Client is a thin wrapper over the dynamic client for the operator's
// custom resources. All reads are fresh, nothing is cached between calls.
type Client struct {
	dyn    dynamic.Interface
	disc   discovery.DiscoveryInterface
	logger *zap.Logger
}

func New(dyn dynamic.Interface, disc discovery.DiscoveryInterface) *Client {
	return &Client{dyn: dyn, disc: disc, logger: log.L()}
}

// Discovery exposes the discovery client for preflight checks.
func (c *Client) Discovery() discovery.DiscoveryInterface { return c.disc }

func (c *Client) resource(kind Kind, namespace string) (dynamic.ResourceInterface, error) {
	info, ok := kinds[kind]
	if !ok {
		return nil, fmt.Errorf("kube: unknown kind %q", kind)
	}

	if info.namespaced {
		return c.dyn.Resource(info.gvr).Namespace(namespace), nil
	}
	return c.dyn.Resource(info.gvr), nil
}

// Create submits a materialized resource. The object's own metadata decides
// the target namespace.
func (c *Client) Create(ctx context.Context, kind Kind, obj *unstructured.Unstructured) error {
	ri, err := c.resource(kind, obj.GetNamespace())
	if err != nil {
		return err
	}

	c.logger.Info("create resource",
		zap.String("kind", string(kind)),
		zap.String("namespace", obj.GetNamespace()),
		zap.String("name", obj.GetName()))
	if _, err := ri.Create(ctx, obj, metav1.CreateOptions{}); err != nil {
		return fmt.Errorf("kube: create %s %s/%s: %w", kind, obj.GetNamespace(), obj.GetName(), err)
	}
	return nil
}

func (c *Client) Get(ctx context.Context, kind Kind, namespace, name string) (*unstructured.Unstructured, error) {
	ri, err := c.resource(kind, namespace)
	if err != nil {
		return nil, err
	}

	obj, err := ri.Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, fmt.Errorf("kube: get %s %s/%s: %w", kind, namespace, name, err)
	}
	return obj, nil
}

func (c *Client) Delete(ctx context.Context, kind Kind, namespace, name string) error {
	ri, err := c.resource(kind, namespace)
	if err != nil {
		return err
	}

	c.logger.Info("delete resource",
		zap.String("kind", string(kind)),
		zap.String("namespace", namespace),
		zap.String("name", name))
	if err := ri.Delete(ctx, name, metav1.DeleteOptions{}); err != nil {
		return fmt.Errorf("kube: delete %s %s/%s: %w", kind, namespace, name, err)
	}
	return nil
}

// ListByLabel lists resources of a kind matching a label selector. Pass an
// empty namespace for cluster-scoped kinds.
func (c *Client) ListByLabel(ctx context.Context, kind Kind, namespace, selector string) (*unstructured.UnstructuredList, error) {
	ri, err := c.resource(kind, namespace)
	if err != nil {
		return nil, err
	}

	list, err := ri.List(ctx, metav1.ListOptions{LabelSelector: selector})
	if err != nil {
		return nil, fmt.Errorf("kube: list %s by %q: %w", kind, selector, err)
	}
	return list, nil
}

// Observe reads the live phase and error detail of a resource at the kind's
// fixed field paths. An absent phase field reads as empty, the caller treats
// that as still pending. The error detail fetch is best effort, a missing
// detail is an empty cause, never an error.
func (c *Client) Observe(ctx context.Context, kind Kind, namespace, name string) (Observation, error) {
	info, ok := kinds[kind]
	if !ok {
		return Observation{}, fmt.Errorf("kube: unknown kind %q", kind)
	}
	if len(info.phasePath) == 0 {
		return Observation{}, fmt.Errorf("kube: kind %q has no status phase", kind)
	}

	obj, err := c.Get(ctx, kind, namespace, name)
	if err != nil {
		return Observation{}, err
	}

	phase, _, err := unstructured.NestedString(obj.Object, info.phasePath...)
	if err != nil {
		return Observation{}, fmt.Errorf("kube: read phase of %s %s/%s: %w", kind, namespace, name, err)
	}

	detail, _, _ := unstructured.NestedString(obj.Object, info.errorPath...)
	return Observation{Phase: phase, ErrorDetail: detail}, nil
}

// FindRestorePoint returns the newest restore point produced by a policy in
// the application namespace, queried fresh on every call.
func (c *Client) FindRestorePoint(ctx context.Context, appNamespace, policyName string) (string, error) {
	list, err := c.ListByLabel(ctx, KindRestorePoint, appNamespace, LabelPolicyName+"="+policyName)
	if err != nil {
		return "", err
	}
	if len(list.Items) == 0 {
		return "", fmt.Errorf("%w: policy %s in namespace %s", ErrRestorePointNotFound, policyName, appNamespace)
	}

	items := list.Items
	sort.Slice(items, func(i, j int) bool {
		ti, tj := items[i].GetCreationTimestamp(), items[j].GetCreationTimestamp()
		if ti.Equal(&tj) {
			return items[i].GetName() < items[j].GetName()
		}
		return tj.Before(&ti)
	})

	return items[0].GetName(), nil
}

// FindRestorePointContents returns the names of the cluster-scoped restore
// point contents recorded for an application namespace.
func (c *Client) FindRestorePointContents(ctx context.Context, appNamespace string) ([]string, error) {
	list, err := c.ListByLabel(ctx, KindRestorePointContent, "", LabelAppNamespace+"="+appNamespace)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(list.Items))
	for _, item := range list.Items {
		names = append(names, item.GetName())
	}
	return names, nil
}
