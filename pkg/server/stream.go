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
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/kubechat/kubechat/pkg/serializer"
)

// streamChat answers one chat message over server-sent events. The event
// stream starts only once the first answer chunk exists, so command
// proposals and failures before that point still go out as plain JSON.
// After the first chunk the response shape is committed; a mid-stream
// failure can only end the stream early.
func (s *Server) streamChat(w http.ResponseWriter, r *http.Request, sessionID, message, clusterName string) {
	started := false
	emit := func(chunk string) error {
		if !started {
			w.Header().Set("Content-Type", "text/event-stream")
			w.Header().Set("Cache-Control", "no-cache")
			w.Header().Set("Connection", "keep-alive")
			w.WriteHeader(http.StatusOK)
			started = true
		}
		return writeChunkEvent(w, chunk)
	}

	reply, streamed, err := s.assistant.ChatStream(r.Context(), sessionID, message, clusterName, emit)
	if err != nil {
		slog.Error("chat stream failed", "session", sessionID, "user", userID(r), "error", err)
		if !started {
			s.writeStructuredError(w, r, err)
		}
		return
	}

	if !streamed {
		serializer.RespondJSON(w, http.StatusOK, chatResponse(reply))
	}
}

// writeChunkEvent writes one SSE data frame carrying a chunk of answer text
// and flushes it so the client sees tokens as they arrive.
func writeChunkEvent(w http.ResponseWriter, chunk string) error {
	payload, err := json.Marshal(struct {
		Chunk string `json:"chunk"`
	}{Chunk: chunk})
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return err
	}
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}
