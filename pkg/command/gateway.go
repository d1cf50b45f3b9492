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
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/shlex"

	"github.com/kubechat/kubechat/pkg/defaults"
	"github.com/kubechat/kubechat/pkg/errors"
)

// AllowedProgram is the single program a proposed command may invoke.
// Anything else is rejected before a process is spawned.
const AllowedProgram = "kubectl"

// NoOutputMessage is returned in place of empty stdout on success: empty
// output is ambiguous between "nothing to show" and a silent failure.
const NoOutputMessage = "Command executed successfully. No resources found or no output was produced."

// Result captures one command execution. It is transient: the caller folds it
// into the session history, nothing else persists it.
type Result struct {
	Stdout    string
	Stderr    string
	Succeeded bool
}

// Resolver resolves a cluster name to its kubeconfig credentials file.
type Resolver interface {
	Resolve(name string) (string, error)
}

// Gateway runs confirmed commands as subprocesses. The binary is always
// invoked through the absolute path supplied by trusted configuration, with a
// tokenized argument vector and never through a shell, so metacharacters in
// the command text cannot cause injection. The environment is the inherited
// process environment plus exactly one override: KUBECONFIG for the target
// cluster. No outcome is ever retried: cluster-mutating commands must never
// be silently re-executed.
type Gateway struct {
	execPath string
	registry Resolver
	timeout  time.Duration
}

// NewGateway creates a gateway invoking the binary at execPath, resolving
// clusters through registry. execPath must be absolute; Execute rejects
// anything else before spawning. The execution timeout defaults to
// defaults.ExecTimeout.
func NewGateway(execPath string, registry Resolver) *Gateway {
	return &Gateway{
		execPath: execPath,
		registry: registry,
		timeout:  defaults.ExecTimeout,
	}
}

// WithTimeout overrides the execution timeout, returning the gateway.
func (g *Gateway) WithTimeout(d time.Duration) *Gateway {
	g.timeout = d
	return g
}

// Tokenize validates the allow-list prefix and splits the command text into
// a discrete argument vector, whitespace- and quote-aware. It is pure: no
// side effect happens here, which keeps the trust boundary checkable in
// isolation.
func Tokenize(command string) ([]string, error) {
	if !strings.HasPrefix(command, AllowedProgram+" ") {
		return nil, errors.NewWithContext(errors.ErrCodeDisallowedCommand,
			fmt.Sprintf("only %s commands are allowed", AllowedProgram),
			map[string]any{"command": command})
	}

	args, err := shlex.Split(command)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDisallowedCommand, "failed to tokenize command", err)
	}
	if len(args) < 2 || args[0] != AllowedProgram {
		return nil, errors.New(errors.ErrCodeDisallowedCommand,
			fmt.Sprintf("only %s commands are allowed", AllowedProgram))
	}
	return args, nil
}

// Execute validates command against the allow-list, resolves cluster, and
// runs the binary with captured output under a hard wall-clock timeout.
//
// Failures after the process starts (CommandFailed, Timeout) may have caused
// a real partial side effect on the cluster; their error text is surfaced
// verbatim so the user can take corrective action.
func (g *Gateway) Execute(ctx context.Context, command, cluster string) (Result, error) {
	args, err := Tokenize(command)
	if err != nil {
		commandsRejected.WithLabelValues(string(errors.CodeOf(err))).Inc()
		return Result{}, err
	}

	kubeconfig, err := g.registry.Resolve(cluster)
	if err != nil {
		commandsRejected.WithLabelValues(string(errors.CodeOf(err))).Inc()
		return Result{}, err
	}

	// The path must be absolute so the file validated below is the file
	// executed. A relative path would stat against the working directory
	// while exec resolves a bare name on PATH, two different binaries.
	if !filepath.IsAbs(g.execPath) {
		commandsRejected.WithLabelValues(string(errors.ErrCodeExecutableNotFound)).Inc()
		return Result{}, errors.NewWithContext(errors.ErrCodeExecutableNotFound,
			"executable path must be absolute",
			map[string]any{"path": g.execPath})
	}

	if _, err := os.Stat(g.execPath); err != nil {
		commandsRejected.WithLabelValues(string(errors.ErrCodeExecutableNotFound)).Inc()
		return Result{}, errors.WrapWithContext(errors.ErrCodeExecutableNotFound,
			"executable not found at configured path", err,
			map[string]any{"path": g.execPath})
	}

	execCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, g.execPath, args[1:]...)
	cmd.Env = append(os.Environ(), "KUBECONFIG="+kubeconfig)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	slog.Info("executing command",
		"program", g.execPath,
		"args", args[1:],
		"cluster", cluster,
	)

	start := time.Now()
	runErr := cmd.Run()
	commandDuration.Observe(time.Since(start).Seconds())

	res := Result{
		Stdout: strings.TrimSpace(stdout.String()),
		Stderr: strings.TrimSpace(stderr.String()),
	}

	switch {
	case execCtx.Err() == context.DeadlineExceeded:
		commandsExecuted.WithLabelValues("timeout").Inc()
		return res, errors.WrapWithContext(errors.ErrCodeTimeout,
			fmt.Sprintf("command killed after %s", g.timeout), execCtx.Err(),
			map[string]any{"command": command, "cluster": cluster})

	case runErr == nil:
		res.Succeeded = true
		if res.Stdout == "" {
			res.Stdout = NoOutputMessage
		}
		commandsExecuted.WithLabelValues("success").Inc()
		return res, nil

	default:
		var exitErr *exec.ExitError
		if stderrors.As(runErr, &exitErr) {
			commandsExecuted.WithLabelValues("failed").Inc()
			return res, errors.WrapWithContext(errors.ErrCodeCommandFailed,
				res.Stderr, runErr,
				map[string]any{"command": command, "cluster": cluster, "exitCode": exitErr.ExitCode()})
		}
		if stderrors.Is(runErr, os.ErrNotExist) || stderrors.Is(runErr, exec.ErrNotFound) {
			commandsExecuted.WithLabelValues("not_found").Inc()
			return res, errors.Wrap(errors.ErrCodeExecutableNotFound,
				"executable not found at configured path", runErr)
		}
		commandsExecuted.WithLabelValues("error").Inc()
		slog.Error("unexpected command execution error", "error", runErr, "command", command)
		return res, errors.Wrap(errors.ErrCodeInternal, "unexpected execution error", runErr)
	}
}

// FormatUserMessage renders an execution outcome as the text shown to the
// user. Failure text is never swallowed: the real cluster error is what lets
// the user take corrective action.
func FormatUserMessage(res Result, err error) string {
	if err == nil {
		return res.Stdout
	}

	switch errors.CodeOf(err) {
	case errors.ErrCodeDisallowedCommand:
		return fmt.Sprintf("Error: Only %s commands are allowed.", AllowedProgram)
	case errors.ErrCodeUnknownCluster:
		return fmt.Sprintf("Error: %v", userMessageOf(err))
	case errors.ErrCodeExecutableNotFound:
		return fmt.Sprintf("Error: The system could not find the %s executable.", AllowedProgram)
	case errors.ErrCodeCommandFailed:
		return fmt.Sprintf("Error from server: %s", res.Stderr)
	case errors.ErrCodeTimeout:
		return fmt.Sprintf("Error: %v", userMessageOf(err))
	default:
		return "An unexpected error occurred while executing the command."
	}
}

// userMessageOf extracts the human-readable message from a structured error,
// without the cause chain.
func userMessageOf(err error) string {
	var se *errors.StructuredError
	if stderrors.As(err, &se) {
		return se.Message
	}
	return err.Error()
}
