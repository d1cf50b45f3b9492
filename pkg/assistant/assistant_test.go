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

package assistant

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kubechat/kubechat/pkg/command"
	"github.com/kubechat/kubechat/pkg/llm"
	"github.com/kubechat/kubechat/pkg/session"
)

// scriptedClient returns a fixed response and records the last prompt.
type scriptedClient struct {
	response   string
	err        error
	lastPrompt string
}

func (c *scriptedClient) Complete(_ context.Context, prompt string) (string, error) {
	c.lastPrompt = prompt
	return c.response, c.err
}

// streamingClient is a scriptedClient whose streamed answer arrives as
// scripted chunks.
type streamingClient struct {
	scriptedClient
	chunks       []string
	streamPrompt string
	streamErr    error
}

func (c *streamingClient) CompleteStream(_ context.Context, prompt string, fn func(chunk string) error) error {
	c.streamPrompt = prompt
	if c.streamErr != nil {
		return c.streamErr
	}
	for _, chunk := range c.chunks {
		if err := fn(chunk); err != nil {
			return err
		}
	}
	return nil
}

type staticRetriever struct {
	context string
	err     error
}

func (r staticRetriever) Retrieve(context.Context, string, int) (string, error) {
	return r.context, r.err
}

type countingExecutor struct {
	calls atomic.Int64
}

func (e *countingExecutor) Execute(_ context.Context, _, _ string) (command.Result, error) {
	e.calls.Add(1)
	return command.Result{Stdout: "executed ok", Succeeded: true}, nil
}

func newTestAssistant(t *testing.T, client llm.Client, retriever Retriever) (*Assistant, *session.Store, *countingExecutor) {
	t.Helper()
	store, err := session.NewStore(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	exec := &countingExecutor{}
	a := New(client, retriever, store, command.NewPipeline(store, exec))
	return a, store, exec
}

func TestChatQuestion(t *testing.T) {
	client := &scriptedClient{response: `{"type": "question", "answer": "A pod is the smallest unit."}`}
	a, store, _ := newTestAssistant(t, client, staticRetriever{context: "Pods group containers."})
	ctx := context.Background()

	reply, err := a.Chat(ctx, "s1", "what is a pod?", "default")
	require.NoError(t, err)
	assert.Equal(t, command.ActionGeneral, reply.Action)
	assert.Equal(t, "A pod is the smallest unit.", reply.Text)

	assert.Contains(t, client.lastPrompt, "Pods group containers.")
	assert.Contains(t, client.lastPrompt, "what is a pod? (on cluster: default)")

	hist := store.History(ctx, "s1")
	require.Len(t, hist, 1)
	assert.Equal(t, "what is a pod?", hist[0].User)
	assert.Equal(t, "A pod is the smallest unit.", hist[0].Assistant)
}

func TestChatStreamQuestion(t *testing.T) {
	client := &streamingClient{
		scriptedClient: scriptedClient{response: `{"type": "question", "answer": "short answer"}`},
		chunks:         []string{"A pod is ", "the smallest unit."},
	}
	a, store, _ := newTestAssistant(t, client, staticRetriever{context: "Pods group containers."})
	ctx := context.Background()

	var got []string
	reply, streamed, err := a.ChatStream(ctx, "s1", "what is a pod?", "default", func(chunk string) error {
		got = append(got, chunk)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, streamed)
	assert.Equal(t, []string{"A pod is ", "the smallest unit."}, got)
	assert.Equal(t, command.ActionGeneral, reply.Action)
	assert.Equal(t, "A pod is the smallest unit.", reply.Text)

	// The decision call stays structured; only the answer call streams.
	assert.Contains(t, client.lastPrompt, "Respond with only the JSON object")
	assert.Contains(t, client.streamPrompt, "Answer:")
	assert.Contains(t, client.streamPrompt, "what is a pod? (on cluster: default)")
	assert.Contains(t, client.streamPrompt, "Pods group containers.")

	// History carries the streamed answer, not the classification one.
	hist := store.History(ctx, "s1")
	require.Len(t, hist, 1)
	assert.Equal(t, "A pod is the smallest unit.", hist[0].Assistant)
}

func TestChatStreamCommandDoesNotStream(t *testing.T) {
	client := &streamingClient{
		scriptedClient: scriptedClient{response: `{"type": "command", "command": "kubectl get pods", "explanation": "Lists pods."}`},
		chunks:         []string{"never emitted"},
	}
	a, store, _ := newTestAssistant(t, client, staticRetriever{})
	ctx := context.Background()

	var got []string
	reply, streamed, err := a.ChatStream(ctx, "s1", "show me the pods", "prod", func(chunk string) error {
		got = append(got, chunk)
		return nil
	})
	require.NoError(t, err)
	assert.False(t, streamed)
	assert.Empty(t, got)
	assert.Equal(t, command.ActionPending, reply.Action)

	pending, ok := store.Pending(ctx, "s1")
	require.True(t, ok)
	assert.Equal(t, "kubectl get pods", pending.Command)
}

func TestChatStreamFailureBeforeFirstChunkDegrades(t *testing.T) {
	client := &streamingClient{
		scriptedClient: scriptedClient{response: `{"type": "question", "answer": "short answer"}`},
		streamErr:      errors.New("connection reset"),
	}
	a, _, _ := newTestAssistant(t, client, staticRetriever{})

	reply, streamed, err := a.ChatStream(context.Background(), "s1", "what is a pod?", "default", func(string) error {
		return nil
	})
	require.NoError(t, err)
	assert.False(t, streamed)
	assert.Equal(t, "short answer", reply.Text)
}

func TestChatStreamClientCannotStream(t *testing.T) {
	client := &scriptedClient{response: `{"type": "question", "answer": "A pod is the smallest unit."}`}
	a, store, _ := newTestAssistant(t, client, staticRetriever{})
	ctx := context.Background()

	reply, streamed, err := a.ChatStream(ctx, "s1", "what is a pod?", "default", func(string) error {
		t.Fatal("emit must not be called for a non-streaming client")
		return nil
	})
	require.NoError(t, err)
	assert.False(t, streamed)
	assert.Equal(t, "A pod is the smallest unit.", reply.Text)

	hist := store.History(ctx, "s1")
	require.Len(t, hist, 1)
	assert.Equal(t, "A pod is the smallest unit.", hist[0].Assistant)
}

func TestChatCommandProposes(t *testing.T) {
	client := &scriptedClient{response: `{"type": "command", "command": "kubectl get pods", "explanation": "Lists pods."}`}
	a, store, exec := newTestAssistant(t, client, staticRetriever{})
	ctx := context.Background()

	reply, err := a.Chat(ctx, "s1", "show me the pods", "prod")
	require.NoError(t, err)
	assert.Equal(t, command.ActionPending, reply.Action)
	assert.Contains(t, reply.Text, "`kubectl get pods`")
	assert.Contains(t, reply.Text, "(Cluster: prod)")
	assert.Equal(t, int64(0), exec.calls.Load())

	pending, ok := store.Pending(ctx, "s1")
	require.True(t, ok)
	assert.Equal(t, "kubectl get pods", pending.Command)
	assert.Equal(t, "prod", pending.Cluster)
	assert.Equal(t, "show me the pods", pending.OriginalQuery)

	// History is written on confirmation, not on proposal.
	assert.Empty(t, store.History(ctx, "s1"))
}

func TestChatThenConfirmExecutes(t *testing.T) {
	client := &scriptedClient{response: `{"type": "command", "command": "kubectl get pods", "explanation": "Lists pods."}`}
	a, _, exec := newTestAssistant(t, client, staticRetriever{})
	ctx := context.Background()

	_, err := a.Chat(ctx, "s1", "show me the pods", "")
	require.NoError(t, err)

	reply, err := a.Confirm(ctx, "s1", "yes")
	require.NoError(t, err)
	assert.Equal(t, command.ActionExecuted, reply.Action)
	assert.Equal(t, "executed ok", reply.Text)
	assert.Equal(t, int64(1), exec.calls.Load())
}

func TestChatClusterResolution(t *testing.T) {
	tests := []struct {
		name    string
		message string
		param   string
		want    string
	}{
		{"explicit param wins", "get pods on cluster staging", "prod", "prod"},
		{"named in message", "get pods on cluster staging", "", "staging"},
		{"default fallback", "get pods", "", "default"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client := &scriptedClient{response: `{"type": "command", "command": "kubectl get pods", "explanation": "Lists pods."}`}
			a, store, _ := newTestAssistant(t, client, staticRetriever{})
			ctx := context.Background()

			_, err := a.Chat(ctx, "s1", tc.message, tc.param)
			require.NoError(t, err)

			pending, ok := store.Pending(ctx, "s1")
			require.True(t, ok)
			assert.Equal(t, tc.want, pending.Cluster)
		})
	}
}

func TestChatEmptyMessage(t *testing.T) {
	client := &scriptedClient{response: "unused"}
	a, _, _ := newTestAssistant(t, client, staticRetriever{})

	reply, err := a.Chat(context.Background(), "s1", "", "default")
	require.NoError(t, err)
	assert.Equal(t, command.ActionGeneral, reply.Action)
	assert.Equal(t, "Please enter a message.", reply.Text)
	assert.Empty(t, client.lastPrompt)
}

func TestChatModelUnavailable(t *testing.T) {
	client := &scriptedClient{err: errors.New("connection refused")}
	a, _, _ := newTestAssistant(t, client, staticRetriever{})

	reply, err := a.Chat(context.Background(), "s1", "what is a pod?", "default")
	require.NoError(t, err)
	assert.Equal(t, command.ActionGeneral, reply.Action)
	assert.Equal(t, ModelUnavailableAnswer, reply.Text)
}

func TestChatUnparsableModelOutput(t *testing.T) {
	client := &scriptedClient{response: "Sure! Run kubectl get pods."}
	a, _, _ := newTestAssistant(t, client, staticRetriever{})

	reply, err := a.Chat(context.Background(), "s1", "show pods", "default")
	require.NoError(t, err)
	assert.Equal(t, command.ActionGeneral, reply.Action)
	assert.Contains(t, reply.Text, "rephrasing")
}

func TestChatRetrievalFailureDegrades(t *testing.T) {
	client := &scriptedClient{response: `{"type": "question", "answer": "ok"}`}
	a, _, _ := newTestAssistant(t, client, staticRetriever{err: errors.New("index offline")})

	reply, err := a.Chat(context.Background(), "s1", "what is a pod?", "default")
	require.NoError(t, err)
	assert.Equal(t, "ok", reply.Text)
	assert.Contains(t, client.lastPrompt, "--- RETRIEVED CONTEXT ---\n\n--- END CONTEXT ---")
}

func TestRegenerate(t *testing.T) {
	t.Run("finds another command", func(t *testing.T) {
		client := &scriptedClient{response: `{"type": "command", "command": "kubectl get pods -o wide", "explanation": "Lists pods with detail."}`}
		a, store, _ := newTestAssistant(t, client, staticRetriever{})
		ctx := context.Background()

		reply, err := a.Regenerate(ctx, "s1", "show me the pods", "default")
		require.NoError(t, err)
		assert.Equal(t, command.ActionPending, reply.Action)

		pending, ok := store.Pending(ctx, "s1")
		require.True(t, ok)
		assert.Equal(t, "kubectl get pods -o wide", pending.Command)
	})

	t.Run("no command found", func(t *testing.T) {
		client := &scriptedClient{response: `{"type": "question", "answer": "A pod is a unit."}`}
		a, store, _ := newTestAssistant(t, client, staticRetriever{})
		ctx := context.Background()

		reply, err := a.Regenerate(ctx, "s1", "show me the pods", "default")
		require.NoError(t, err)
		assert.Equal(t, command.ActionGeneral, reply.Action)
		assert.Equal(t, "I couldn't find another command for that request.", reply.Text)

		// Unlike Chat, a regenerate miss leaves no history.
		assert.Empty(t, store.History(ctx, "s1"))
	})
}

func TestDisallowedModelCommandRejected(t *testing.T) {
	client := &scriptedClient{response: `{"type": "command", "command": "rm -rf /", "explanation": "oops"}`}
	a, store, exec := newTestAssistant(t, client, staticRetriever{})
	ctx := context.Background()

	reply, err := a.Chat(ctx, "s1", "clean up the disk", "default")
	require.NoError(t, err)
	assert.Equal(t, command.ActionError, reply.Action)
	assert.Equal(t, "Error: Only kubectl commands are allowed.", reply.Text)
	assert.Equal(t, int64(0), exec.calls.Load())

	_, ok := store.Pending(ctx, "s1")
	assert.False(t, ok)
}
