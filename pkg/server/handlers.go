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

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kubechat/kubechat/pkg/cluster"
	"github.com/kubechat/kubechat/pkg/command"
	"github.com/kubechat/kubechat/pkg/errors"
	"github.com/kubechat/kubechat/pkg/serializer"
)

const defaultSessionID = "local-session"

// handleLogin handles POST /v1/login
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, r, http.StatusMethodNotAllowed, errors.ErrCodeInvalidRequest,
			"Method not allowed", false, nil)
		return
	}

	var req LoginRequest
	if err := serializer.DecodeJSON(w, r, &req, s.config.MaxRequestBytes); err != nil {
		s.writeError(w, r, http.StatusBadRequest, errors.ErrCodeInvalidRequest,
			"Invalid request body", false, nil)
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		s.writeError(w, r, http.StatusBadRequest, errors.ErrCodeInvalidRequest,
			"User ID required", false, nil)
		return
	}

	token, err := s.tokens.GenerateToken(req.UserID)
	if err != nil {
		s.writeStructuredError(w, r, err)
		return
	}

	slog.Info("user logged in", "user", req.UserID)
	serializer.RespondJSON(w, http.StatusOK, LoginResponse{Token: token})
}

// handleChat handles POST /v1/chat
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, r, http.StatusMethodNotAllowed, errors.ErrCodeInvalidRequest,
			"Method not allowed", false, nil)
		return
	}

	var req ChatRequest
	if err := serializer.DecodeJSON(w, r, &req, s.config.MaxRequestBytes); err != nil {
		s.writeError(w, r, http.StatusBadRequest, errors.ErrCodeInvalidRequest,
			"Invalid request body", false, nil)
		return
	}
	sessionID := sessionOrDefault(req.SessionID)
	message := strings.TrimSpace(req.Message)

	if req.Stream {
		s.streamChat(w, r, sessionID, message, req.Cluster)
		return
	}

	reply, err := s.assistant.Chat(r.Context(), sessionID, message, req.Cluster)
	if err != nil {
		slog.Error("chat failed", "session", sessionID, "user", userID(r), "error", err)
		s.writeStructuredError(w, r, err)
		return
	}

	serializer.RespondJSON(w, http.StatusOK, chatResponse(reply))
}

// handleConfirm handles POST /v1/confirm
func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, r, http.StatusMethodNotAllowed, errors.ErrCodeInvalidRequest,
			"Method not allowed", false, nil)
		return
	}

	var req ConfirmRequest
	if err := serializer.DecodeJSON(w, r, &req, s.config.MaxRequestBytes); err != nil {
		s.writeError(w, r, http.StatusBadRequest, errors.ErrCodeInvalidRequest,
			"Invalid request body", false, nil)
		return
	}
	sessionID := sessionOrDefault(req.SessionID)

	reply, err := s.assistant.Confirm(r.Context(), sessionID, req.Confirm)
	if err != nil {
		slog.Error("confirm failed", "session", sessionID, "user", userID(r), "error", err)
		s.writeStructuredError(w, r, err)
		return
	}

	serializer.RespondJSON(w, http.StatusOK, chatResponse(reply))
}

// handleRegenerate handles POST /v1/regenerate
func (s *Server) handleRegenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, r, http.StatusMethodNotAllowed, errors.ErrCodeInvalidRequest,
			"Method not allowed", false, nil)
		return
	}

	var req RegenerateRequest
	if err := serializer.DecodeJSON(w, r, &req, s.config.MaxRequestBytes); err != nil {
		s.writeError(w, r, http.StatusBadRequest, errors.ErrCodeInvalidRequest,
			"Invalid request body", false, nil)
		return
	}
	if strings.TrimSpace(req.OriginalQuery) == "" {
		s.writeError(w, r, http.StatusBadRequest, errors.ErrCodeInvalidRequest,
			"Original query is required", false, nil)
		return
	}
	sessionID := sessionOrDefault(req.SessionID)

	reply, err := s.assistant.Regenerate(r.Context(), sessionID, strings.TrimSpace(req.OriginalQuery), req.Cluster)
	if err != nil {
		slog.Error("regenerate failed", "session", sessionID, "user", userID(r), "error", err)
		s.writeStructuredError(w, r, err)
		return
	}

	serializer.RespondJSON(w, http.StatusOK, chatResponse(reply))
}

// handleClusters handles GET /v1/clusters
func (s *Server) handleClusters(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, r, http.StatusMethodNotAllowed, errors.ErrCodeInvalidRequest,
			"Method not allowed", false, nil)
		return
	}

	serializer.RespondJSON(w, http.StatusOK, ClustersResponse{
		Clusters: s.clusters.List(),
		Default:  cluster.DefaultName,
	})
}

func (s *Server) handleDefault(w http.ResponseWriter, r *http.Request) {
	slog.Debug("handling default route",
		"path", r.URL.Path,
		"method", r.Method,
		"remote_addr", r.RemoteAddr,
		"user_agent", r.UserAgent(),
	)

	resp := struct {
		Name      string   `json:"name"`
		Version   string   `json:"version"`
		Ready     bool     `json:"ready"`
		Timestamp string   `json:"timestamp"`
		Routes    []string `json:"routes"`
	}{
		Name:      s.config.Name,
		Version:   s.config.Version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Routes: []string{
			"POST /v1/login",
			"POST /v1/chat",
			"POST /v1/confirm",
			"POST /v1/regenerate",
			"GET /v1/clusters",
			"GET /health",
			"GET /ready",
			"GET /metrics",
		},
	}

	s.mu.RLock()
	resp.Ready = s.ready
	s.mu.RUnlock()

	serializer.RespondJSON(w, http.StatusOK, resp)
}

// chatResponse folds a pipeline reply into the wire shape, echoing the
// proposal fields when a confirmation is pending.
func chatResponse(reply command.Reply) ChatResponse {
	resp := ChatResponse{
		Response: reply.Text,
		Action:   string(reply.Action),
	}
	if reply.Proposal != nil {
		resp.Command = reply.Proposal.Command
		resp.Cluster = reply.Proposal.Cluster
		resp.OriginalQuery = reply.Proposal.OriginalQuery
	}
	return resp
}

func sessionOrDefault(sessionID string) string {
	if strings.TrimSpace(sessionID) == "" {
		return defaultSessionID
	}
	return sessionID
}
