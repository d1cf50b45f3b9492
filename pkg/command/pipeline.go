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

package command

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kubechat/kubechat/pkg/errors"
	"github.com/kubechat/kubechat/pkg/session"
)

// Action classifies a pipeline reply for the caller.
type Action string

const (
	// ActionPending means a command proposal is stored and awaits a yes/no.
	ActionPending Action = "pending_confirmation"
	// ActionExecuted means the confirmed command ran; the reply text carries
	// its output or its real failure text.
	ActionExecuted Action = "executed"
	// ActionCancelled means the user declined the pending command.
	ActionCancelled Action = "cancelled"
	// ActionError covers invalid replies, missing pending records, and
	// pre-spawn rejections.
	ActionError Action = "error"
	// ActionGeneral marks a plain conversational answer that bypassed the
	// confirmation pipeline entirely.
	ActionGeneral Action = "general"
)

// Reply is the pipeline's answer to the HTTP layer.
type Reply struct {
	Text     string
	Action   Action
	Code     errors.ErrorCode  // set when Action == ActionError
	Proposal *session.Proposal // set when Action == ActionPending
}

// Executor abstracts the Execution Gateway for the pipeline.
type Executor interface {
	Execute(ctx context.Context, command, cluster string) (Result, error)
}

// Pipeline is the per-session confirmation state machine. A session is IDLE
// when it has no pending proposal and AWAITING_CONFIRMATION when it has one;
// Propose moves it to AWAITING_CONFIRMATION from either state, Confirm
// resolves it back to IDLE on yes or no.
//
// State lives in the session store, whose per-session serialization makes
// each transition an atomic read-modify-write. On confirm-yes the pending
// record is cleared before the subprocess is invoked: a concurrent second
// confirmation finds the session IDLE and is rejected, so a mutating command
// can never run twice. The cost is that a double-submitting user may see
// "no pending command"; that trade is deliberate.
type Pipeline struct {
	store *session.Store
	exec  Executor
}

// NewPipeline wires the state machine to its store and executor.
func NewPipeline(store *session.Store, exec Executor) *Pipeline {
	return &Pipeline{store: store, exec: exec}
}

// Propose stores p as the session's pending command, replacing any existing
// one (last-proposed-wins), and returns the confirmation question shown to
// the user. The command text is untrusted LLM output: the allow-list check
// runs here as well so a disallowed command is never even stored.
func (p *Pipeline) Propose(ctx context.Context, sessionID string, proposal session.Proposal, explanation string) (Reply, error) {
	if _, err := Tokenize(proposal.Command); err != nil {
		return Reply{
			Text:   FormatUserMessage(Result{}, err),
			Action: ActionError,
			Code:   errors.CodeOf(err),
		}, nil
	}

	replaced, err := p.store.SetPending(ctx, sessionID, proposal)
	if err != nil {
		return Reply{}, errors.Wrap(errors.ErrCodeInternal, "failed to store pending command", err)
	}
	if replaced {
		slog.Info("pending command overwritten by new proposal", "session", sessionID)
	}
	proposals.Inc()

	text := fmt.Sprintf(
		"Suggested command: `%s`\nExplanation: %s\n(Cluster: %s)\n\nDo you want to execute this command?",
		proposal.Command, explanation, proposal.Cluster)

	return Reply{Text: text, Action: ActionPending, Proposal: &proposal}, nil
}

// Confirm resolves the session's pending command with the user's reply,
// normalized case-insensitively. "yes" executes, "no" cancels, anything else
// leaves the pending record untouched and asks again. A session with no
// pending record yields an explicit NoPendingCommand reply without any state
// change.
func (p *Pipeline) Confirm(ctx context.Context, sessionID, reply string) (Reply, error) {
	switch strings.ToLower(strings.TrimSpace(reply)) {
	case "yes":
		return p.confirmYes(ctx, sessionID)
	case "no":
		return p.confirmNo(ctx, sessionID)
	default:
		if _, ok := p.store.Pending(ctx, sessionID); !ok {
			return noPendingReply(), nil
		}
		confirmations.WithLabelValues("invalid").Inc()
		return Reply{
			Text:   "Invalid input. Please respond with 'Yes' or 'No'.",
			Action: ActionError,
			Code:   errors.ErrCodeInvalidConfirmation,
		}, nil
	}
}

func (p *Pipeline) confirmYes(ctx context.Context, sessionID string) (Reply, error) {
	// Atomically consume the pending record first. The session is IDLE from
	// here on, which is what rejects a concurrent duplicate confirmation.
	pending, ok, err := p.store.TakePending(ctx, sessionID)
	if err != nil {
		return Reply{}, errors.Wrap(errors.ErrCodeInternal, "failed to consume pending command", err)
	}
	if !ok {
		return noPendingReply(), nil
	}

	res, execErr := p.exec.Execute(ctx, pending.Command, pending.Cluster)
	text := FormatUserMessage(res, execErr)

	if execErr != nil && !processWasSpawned(execErr) {
		// Rejected before any side effect. The pending record stays consumed:
		// restoring it would reopen the double-execution window the
		// clear-before-invoke design closes. The user re-proposes instead.
		confirmations.WithLabelValues("rejected").Inc()
		if err := p.store.AppendHistory(ctx, sessionID, pending.OriginalQuery, text); err != nil {
			slog.Error("failed to append history", "session", sessionID, "error", err)
		}
		return Reply{Text: text, Action: ActionError, Code: errors.CodeOf(execErr)}, nil
	}

	confirmations.WithLabelValues("executed").Inc()
	historyLine := fmt.Sprintf("Executed: `%s`\nResult: %s", pending.Command, text)
	if err := p.store.AppendHistory(ctx, sessionID, pending.OriginalQuery, historyLine); err != nil {
		slog.Error("failed to append history", "session", sessionID, "error", err)
	}

	return Reply{Text: text, Action: ActionExecuted}, nil
}

func (p *Pipeline) confirmNo(ctx context.Context, sessionID string) (Reply, error) {
	pending, ok, err := p.store.TakePending(ctx, sessionID)
	if err != nil {
		return Reply{}, errors.Wrap(errors.ErrCodeInternal, "failed to consume pending command", err)
	}
	if !ok {
		return noPendingReply(), nil
	}

	confirmations.WithLabelValues("cancelled").Inc()
	text := "Command not executed. What would you like to do next?"
	if err := p.store.AppendHistory(ctx, sessionID, pending.OriginalQuery, text); err != nil {
		slog.Error("failed to append history", "session", sessionID, "error", err)
	}

	return Reply{Text: text, Action: ActionCancelled}, nil
}

// processWasSpawned reports whether the execution error occurred after a real
// process ran (and may have had side effects on the cluster).
func processWasSpawned(err error) bool {
	switch errors.CodeOf(err) {
	case errors.ErrCodeCommandFailed, errors.ErrCodeTimeout:
		return true
	default:
		return false
	}
}

func noPendingReply() Reply {
	confirmations.WithLabelValues("no_pending").Inc()
	return Reply{
		Text:   "Error: No pending command found.",
		Action: ActionError,
		Code:   errors.ErrCodeNoPendingCommand,
	}
}
