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

package defaults

import "time"

// Command execution timeouts.
const (
	// ExecTimeout is the hard wall-clock limit for a single kubectl
	// invocation. The process is killed when exceeded.
	ExecTimeout = 20 * time.Second
)

// LLM timeouts for model invocations.
const (
	// LLMRequestTimeout is the total timeout for a single model completion.
	LLMRequestTimeout = 120 * time.Second

	// EmbeddingRequestTimeout is the timeout for a single embedding request.
	EmbeddingRequestTimeout = 30 * time.Second

	// LLMRetryMaxElapsed bounds transient-error retries on model requests.
	LLMRetryMaxElapsed = 30 * time.Second
)

// Server timeouts for HTTP server configuration.
const (
	// ServerReadTimeout is the maximum duration for reading request headers.
	ServerReadTimeout = 10 * time.Second

	// ServerWriteTimeout is the maximum duration for writing a response.
	// Must exceed ExecTimeout plus LLM latency so confirmations can finish.
	ServerWriteTimeout = 150 * time.Second

	// ServerIdleTimeout is the maximum duration to wait for the next request.
	ServerIdleTimeout = 120 * time.Second

	// ServerShutdownTimeout is the maximum duration for graceful shutdown.
	ServerShutdownTimeout = 30 * time.Second
)

// Kubernetes timeouts for cluster registry operations.
const (
	// ClusterPingTimeout is the timeout for cluster reachability checks.
	ClusterPingTimeout = 10 * time.Second
)

// Session store configuration.
const (
	// SessionBusyTimeout is the sqlite busy_timeout for the session table.
	SessionBusyTimeout = 5 * time.Second

	// HistoryMaxExchanges is the number of conversation exchange pairs kept
	// per session. Older exchanges are dropped first.
	HistoryMaxExchanges = 10
)

// Auth configuration.
const (
	// TokenTTL is the lifetime of issued auth tokens.
	TokenTTL = 24 * time.Hour
)
