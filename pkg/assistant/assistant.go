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

// Package assistant orchestrates one chat turn: retrieve document context,
// ask the model for a structured decision, and either answer directly or
// hand a command proposal to the confirmation pipeline.
package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kubechat/kubechat/pkg/cluster"
	"github.com/kubechat/kubechat/pkg/command"
	"github.com/kubechat/kubechat/pkg/intent"
	"github.com/kubechat/kubechat/pkg/llm"
	"github.com/kubechat/kubechat/pkg/rag"
	"github.com/kubechat/kubechat/pkg/session"
)

// ModelUnavailableAnswer is shown when the language model cannot be reached.
const ModelUnavailableAnswer = "Error: Could not connect to the language model."

// Retriever supplies document context for a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) (string, error)
}

// Assistant wires the model, the document index, the session store, and the
// confirmation pipeline into the chat operations the API exposes.
type Assistant struct {
	client    llm.Client
	retriever Retriever
	store     *session.Store
	pipeline  *command.Pipeline
}

// New creates an assistant. retriever may be nil when no document index is
// configured; the model then answers from general knowledge alone.
func New(client llm.Client, retriever Retriever, store *session.Store, pipeline *command.Pipeline) *Assistant {
	return &Assistant{
		client:    client,
		retriever: retriever,
		store:     store,
		pipeline:  pipeline,
	}
}

// Chat handles one user message. A command-type model decision becomes a
// pending proposal awaiting confirmation; a question-type decision is
// answered immediately and folded into the session history.
func (a *Assistant) Chat(ctx context.Context, sessionID, message, clusterName string) (command.Reply, error) {
	if message == "" {
		return command.Reply{Text: "Please enter a message.", Action: command.ActionGeneral}, nil
	}

	clusterName = a.resolveCluster(message, clusterName)

	decision, err := a.decide(ctx, sessionID, message, clusterName)
	if err != nil {
		return command.Reply{}, err
	}

	if decision.Type == llm.DecisionCommand {
		return a.pipeline.Propose(ctx, sessionID, session.Proposal{
			Command:       decision.Command,
			Cluster:       clusterName,
			OriginalQuery: message,
		}, decision.Explanation)
	}

	if err := a.store.AppendHistory(ctx, sessionID, message, decision.Answer); err != nil {
		slog.Error("failed to append history", "session", sessionID, "error", err)
	}
	return command.Reply{Text: decision.Answer, Action: command.ActionGeneral}, nil
}

// ChatStream handles one user message like Chat, but delivers question-type
// answers incrementally through emit. The decision call itself is never
// streamed: the structured verdict must be parsed whole, so a second model
// call with a plain answer prompt produces the chunks. Command proposals,
// and clients that cannot stream, return a complete reply with streamed
// false and emit never called.
func (a *Assistant) ChatStream(ctx context.Context, sessionID, message, clusterName string, emit func(chunk string) error) (reply command.Reply, streamed bool, err error) {
	if message == "" {
		return command.Reply{Text: "Please enter a message.", Action: command.ActionGeneral}, false, nil
	}

	clusterName = a.resolveCluster(message, clusterName)

	decision, err := a.decide(ctx, sessionID, message, clusterName)
	if err != nil {
		return command.Reply{}, false, err
	}

	if decision.Type == llm.DecisionCommand {
		reply, err := a.pipeline.Propose(ctx, sessionID, session.Proposal{
			Command:       decision.Command,
			Cluster:       clusterName,
			OriginalQuery: message,
		}, decision.Explanation)
		return reply, false, err
	}

	streamer, ok := a.client.(llm.Streamer)
	if !ok {
		if err := a.store.AppendHistory(ctx, sessionID, message, decision.Answer); err != nil {
			slog.Error("failed to append history", "session", sessionID, "error", err)
		}
		return command.Reply{Text: decision.Answer, Action: command.ActionGeneral}, false, nil
	}

	history := a.store.HistoryText(ctx, sessionID)
	queryWithCluster := fmt.Sprintf("%s (on cluster: %s)", message, clusterName)
	prompt := llm.BuildAnswerPrompt(queryWithCluster, history, a.retrieve(ctx, queryWithCluster))

	var full strings.Builder
	err = streamer.CompleteStream(ctx, prompt, func(chunk string) error {
		full.WriteString(chunk)
		return emit(chunk)
	})
	if err != nil {
		if full.Len() > 0 {
			return command.Reply{}, true, err
		}
		// Nothing went out yet, so the turn can still degrade to the
		// decision answer the way a non-streamed chat would.
		slog.Error("streaming answer failed", "session", sessionID, "error", err)
		if err := a.store.AppendHistory(ctx, sessionID, message, decision.Answer); err != nil {
			slog.Error("failed to append history", "session", sessionID, "error", err)
		}
		return command.Reply{Text: decision.Answer, Action: command.ActionGeneral}, false, nil
	}

	if err := a.store.AppendHistory(ctx, sessionID, message, full.String()); err != nil {
		slog.Error("failed to append history", "session", sessionID, "error", err)
	}
	return command.Reply{Text: full.String(), Action: command.ActionGeneral}, true, nil
}

// Confirm resolves a pending proposal with the user's yes/no reply.
func (a *Assistant) Confirm(ctx context.Context, sessionID, confirmation string) (command.Reply, error) {
	return a.pipeline.Confirm(ctx, sessionID, confirmation)
}

// Regenerate asks the model for a different command for a query it already
// answered once. A non-command decision is not executed as an answer: the
// user asked for a command, so anything else is reported as a miss.
func (a *Assistant) Regenerate(ctx context.Context, sessionID, originalQuery, clusterName string) (command.Reply, error) {
	if originalQuery == "" {
		return command.Reply{Text: "Please enter a message.", Action: command.ActionGeneral}, nil
	}

	clusterName = a.resolveCluster(originalQuery, clusterName)

	decision, err := a.decide(ctx, sessionID, originalQuery, clusterName)
	if err != nil {
		return command.Reply{}, err
	}

	if decision.Type == llm.DecisionCommand {
		return a.pipeline.Propose(ctx, sessionID, session.Proposal{
			Command:       decision.Command,
			Cluster:       clusterName,
			OriginalQuery: originalQuery,
		}, decision.Explanation)
	}

	return command.Reply{
		Text:   "I couldn't find another command for that request.",
		Action: command.ActionGeneral,
	}, nil
}

// decide runs one retrieval-augmented model call and parses the structured
// decision. Model connectivity failures degrade to a canned question-type
// answer so the chat loop survives a dead backend.
func (a *Assistant) decide(ctx context.Context, sessionID, query, clusterName string) (llm.Decision, error) {
	history := a.store.HistoryText(ctx, sessionID)

	queryWithCluster := fmt.Sprintf("%s (on cluster: %s)", query, clusterName)
	prompt := llm.BuildDecisionPrompt(queryWithCluster, history, a.retrieve(ctx, queryWithCluster))

	raw, err := a.client.Complete(ctx, prompt)
	if err != nil {
		slog.Error("language model request failed", "error", err)
		return llm.Decision{Type: llm.DecisionQuestion, Answer: ModelUnavailableAnswer}, nil
	}
	return llm.ParseDecision(raw), nil
}

// retrieve fetches document context for query. Retrieval failures degrade
// to an empty context rather than failing the chat turn.
func (a *Assistant) retrieve(ctx context.Context, query string) string {
	if a.retriever == nil {
		return ""
	}
	docContext, err := a.retriever.Retrieve(ctx, query, rag.DefaultTopK)
	if err != nil {
		slog.Error("document retrieval failed", "error", err)
		return ""
	}
	return docContext
}

// resolveCluster picks the target cluster: the explicit request parameter
// wins, then a cluster named in the message text, then the default.
func (a *Assistant) resolveCluster(message, clusterName string) string {
	if clusterName != "" {
		return clusterName
	}
	if named := intent.ExtractCluster(message); named != "" {
		return named
	}
	return cluster.DefaultName
}
