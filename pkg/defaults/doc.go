// Package defaults provides centralized configuration constants for kubechat.
//
// This package defines timeout values, history bounds, and other defaults
// used across the codebase. Centralizing these values ensures consistency
// and makes tuning easier.
//
// Import and use constants directly:
//
//	import "github.com/kubechat/kubechat/pkg/defaults"
//
//	ctx, cancel := context.WithTimeout(ctx, defaults.ExecTimeout)
//	defer cancel()
package defaults
