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

package server

import "time"

// ErrorResponse is the wire shape of every error the API returns.
type ErrorResponse struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"requestId"`
	Timestamp time.Time      `json:"timestamp"`
	Retryable bool           `json:"retryable"`
}

// LoginRequest carries the identity to issue a token for.
type LoginRequest struct {
	UserID string `json:"user_id"`
}

// LoginResponse carries the issued bearer token.
type LoginResponse struct {
	Token string `json:"token"`
}

// ChatRequest is one user message addressed to a session. Stream asks for
// question-type answers as server-sent events; command proposals are always
// returned as plain JSON.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
	Cluster   string `json:"cluster"`
	Stream    bool   `json:"stream"`
}

// ChatResponse is the assistant's reply. Command, Cluster and OriginalQuery
// are set only when Action is pending_confirmation, echoing what the client
// needs to render the confirmation and to regenerate.
type ChatResponse struct {
	Response      string `json:"response"`
	Action        string `json:"action"`
	Command       string `json:"command,omitempty"`
	Cluster       string `json:"cluster,omitempty"`
	OriginalQuery string `json:"original_query,omitempty"`
}

// ConfirmRequest resolves a session's pending command.
type ConfirmRequest struct {
	SessionID string `json:"session_id"`
	Confirm   string `json:"confirm"`
}

// RegenerateRequest asks for a different command for a prior query.
type RegenerateRequest struct {
	OriginalQuery string `json:"original_query"`
	SessionID     string `json:"session_id"`
	Cluster       string `json:"cluster"`
}

// ClustersResponse lists the configured cluster names.
type ClustersResponse struct {
	Clusters []string `json:"clusters"`
	Default  string   `json:"default"`
}
