// Package client builds Kubernetes clients for the ConfigMap record store.
//
// GetKubeClient shares one client per process, initialized with sync.Once:
//
//	clientset, config, err := client.GetKubeClient()
//	if err != nil {
//	    return err
//	}
//	slog.Info("kubernetes client ready", "auth_method", client.AuthMethod(config))
//
// Configuration is discovered from KUBECONFIG, ~/.kube/config, then the
// in-cluster service account. GetKubeClientWithConfig takes an explicit
// kubeconfig path instead.
package client
