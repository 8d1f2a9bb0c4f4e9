// Package configmap provides a store.Store that keeps each record in its own
// Kubernetes ConfigMap.
//
//	clientset, _, err := client.GetKubeClientWithConfig(kubeconfig)
//	if err != nil {
//	    return err
//	}
//	s, err := configmap.New(clientset, "recordpipe")
//
// A record's ConfigMap is named after a hash of its idempotency key and its
// ID is that name. Only ConfigMaps carrying Labels are treated as records.
package configmap
