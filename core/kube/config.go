package kube

import (
	"fmt"

	"k8s.io/client-go/discovery"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/backupctl/backupctl/internal/cfg"
)

// NewFromConfig builds a client from the resolved kube configuration.
// Kubeconfig resolution follows the standard precedence: explicit config
// value, then $KUBECONFIG, then ~/.kube/config, then in-cluster.
func NewFromConfig(kcfg *cfg.KubeConfig) (*Client, error) {
	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	if kcfg.Kubeconfig.Val != "" {
		rules.ExplicitPath = kcfg.Kubeconfig.Val
	}

	overrides := &clientcmd.ConfigOverrides{CurrentContext: kcfg.Context.Val}
	restCfg, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, overrides).ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("kube: load kubeconfig: %w", err)
	}

	dyn, err := dynamic.NewForConfig(restCfg)
	if err != nil {
		return nil, fmt.Errorf("kube: create dynamic client: %w", err)
	}
	disc, err := discovery.NewDiscoveryClientForConfig(restCfg)
	if err != nil {
		return nil, fmt.Errorf("kube: create discovery client: %w", err)
	}

	return New(dyn, disc), nil
}
