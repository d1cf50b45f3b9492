// Package cluster maintains the registry of named cluster contexts and the
// kubeconfig credential files they resolve to.
//
// The registry is loaded once at startup from configuration; kubeconfigs are
// parsed eagerly so misconfigured entries fail at boot rather than at command
// execution time.
package cluster
