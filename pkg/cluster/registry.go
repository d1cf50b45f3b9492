// Copyright (c) 2025, the kubechat authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cluster

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/util/homedir"

	"github.com/kubechat/kubechat/pkg/defaults"
	"github.com/kubechat/kubechat/pkg/errors"
)

// DefaultName is the cluster name used when a request does not specify one.
const DefaultName = "default"

// Registry maps cluster context names to kubeconfig credential files. The
// Execution Gateway resolves a cluster through the registry before spawning
// any process; unresolved names fail fast with UnknownCluster.
type Registry struct {
	mu       sync.RWMutex
	clusters map[string]string // name -> kubeconfig path
}

// DefaultKubeconfigPath returns the kubeconfig discovery result: the
// KUBECONFIG environment variable when set, otherwise ~/.kube/config when it
// exists, otherwise empty.
func DefaultKubeconfigPath() string {
	if p := os.Getenv("KUBECONFIG"); p != "" {
		return p
	}
	p := filepath.Join(homedir.HomeDir(), ".kube", "config")
	if _, err := os.Stat(p); err != nil {
		return ""
	}
	return p
}

// NewRegistry builds a registry from the given name->kubeconfig map. When the
// map has no "default" entry, one is discovered via DefaultKubeconfigPath.
// Each kubeconfig is parsed up front; entries that do not parse are rejected
// so a misconfigured cluster never reaches execution time.
func NewRegistry(clusters map[string]string) (*Registry, error) {
	r := &Registry{clusters: map[string]string{}}

	for name, path := range clusters {
		if err := r.Register(name, path); err != nil {
			return nil, err
		}
	}

	if _, ok := r.clusters[DefaultName]; !ok {
		if p := DefaultKubeconfigPath(); p != "" {
			if err := r.Register(DefaultName, p); err != nil {
				return nil, err
			}
		}
	}

	slog.Info("cluster registry loaded", "clusters", r.List())
	return r, nil
}

// Register validates and adds one cluster entry.
func (r *Registry) Register(name, kubeconfig string) error {
	if name == "" {
		return errors.New(errors.ErrCodeInvalidRequest, "cluster name is empty")
	}
	if _, err := clientcmd.LoadFromFile(kubeconfig); err != nil {
		return errors.WrapWithContext(errors.ErrCodeInvalidRequest,
			"failed to load kubeconfig", err,
			map[string]any{"cluster": name, "kubeconfig": kubeconfig})
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.clusters[name] = kubeconfig
	return nil
}

// Resolve returns the kubeconfig path for a cluster name. An empty name
// resolves to the default cluster. Unknown names fail with UnknownCluster.
func (r *Registry) Resolve(name string) (string, error) {
	if name == "" {
		name = DefaultName
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	path, ok := r.clusters[name]
	if !ok {
		return "", errors.NewWithContext(errors.ErrCodeUnknownCluster,
			fmt.Sprintf("unknown cluster: %s", name),
			map[string]any{"cluster": name, "known": r.listLocked()})
	}
	return path, nil
}

// List returns the known cluster names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.listLocked()
}

func (r *Registry) listLocked() []string {
	names := make([]string, 0, len(r.clusters))
	for name := range r.clusters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Ping checks reachability of a cluster by querying the API server version
// through a client built from the registered kubeconfig.
func (r *Registry) Ping(ctx context.Context, name string) (string, error) {
	kubeconfig, err := r.Resolve(name)
	if err != nil {
		return "", err
	}

	config, err := clientcmd.BuildConfigFromFlags("", kubeconfig)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, "failed to build kube config", err)
	}
	config.Timeout = defaults.ClusterPingTimeout

	client, err := kubernetes.NewForConfig(config)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, "failed to create kubernetes client", err)
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	version, err := client.Discovery().ServerVersion()
	if err != nil {
		return "", errors.WrapWithContext(errors.ErrCodeInternal,
			"cluster unreachable", err, map[string]any{"cluster": name})
	}
	return version.GitVersion, nil
}
