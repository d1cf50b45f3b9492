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

package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestStructuredError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *StructuredError
		expected string
	}{
		{
			name:     "without cause",
			err:      New(ErrCodeNoPendingCommand, "no pending command for session"),
			expected: "[NO_PENDING_COMMAND] no pending command for session",
		},
		{
			name:     "with cause",
			err:      Wrap(ErrCodeCommandFailed, "kubectl exited non-zero", stderrors.New("exit status 1")),
			expected: "[COMMAND_FAILED] kubectl exited non-zero: exit status 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestStructuredError_Unwrap(t *testing.T) {
	cause := stderrors.New("root cause")
	err := Wrap(ErrCodeInternal, "wrapped", cause)

	if !stderrors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause through Unwrap")
	}
}

func TestNewWithContext(t *testing.T) {
	err := NewWithContext(ErrCodeUnknownCluster, "cluster not registered", map[string]any{
		"cluster": "staging",
	})

	if err.Code != ErrCodeUnknownCluster {
		t.Errorf("Code = %q, want %q", err.Code, ErrCodeUnknownCluster)
	}
	if err.Context["cluster"] != "staging" {
		t.Errorf("Context[cluster] = %v, want staging", err.Context["cluster"])
	}
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorCode
	}{
		{"nil", nil, ""},
		{"structured", New(ErrCodeTimeout, "timed out"), ErrCodeTimeout},
		{"wrapped structured", fmt.Errorf("outer: %w", New(ErrCodeDisallowedCommand, "nope")), ErrCodeDisallowedCommand},
		{"plain", stderrors.New("plain"), ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.err); got != tt.expected {
				t.Errorf("CodeOf() = %q, want %q", got, tt.expected)
			}
		})
	}
}
