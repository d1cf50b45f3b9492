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

package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDecision(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Decision
	}{
		{
			name: "command",
			raw:  `{"type": "command", "command": "kubectl get pods", "explanation": "Lists pods."}`,
			want: Decision{Type: DecisionCommand, Command: "kubectl get pods", Explanation: "Lists pods."},
		},
		{
			name: "question",
			raw:  `{"type": "question", "answer": "A pod is the smallest deployable unit."}`,
			want: Decision{Type: DecisionQuestion, Answer: "A pod is the smallest deployable unit."},
		},
		{
			name: "fenced json",
			raw:  "```json\n{\"type\": \"command\", \"command\": \"kubectl get nodes\", \"explanation\": \"Lists nodes.\"}\n```",
			want: Decision{Type: DecisionCommand, Command: "kubectl get nodes", Explanation: "Lists nodes."},
		},
		{
			name: "fenced without language tag",
			raw:  "```\n{\"type\": \"question\", \"answer\": \"Yes.\"}\n```",
			want: Decision{Type: DecisionQuestion, Answer: "Yes."},
		},
		{
			name: "surrounding whitespace",
			raw:  "\n  {\"type\": \"question\", \"answer\": \"ok\"}  \n",
			want: Decision{Type: DecisionQuestion, Answer: "ok"},
		},
		{
			name: "not json",
			raw:  "Sure! Here is the command you asked for: kubectl get pods",
			want: Decision{Type: DecisionQuestion, Answer: FallbackAnswer},
		},
		{
			name: "unknown type",
			raw:  `{"type": "plan", "answer": "step one"}`,
			want: Decision{Type: DecisionQuestion, Answer: FallbackAnswer},
		},
		{
			name: "command without command field",
			raw:  `{"type": "command", "explanation": "oops"}`,
			want: Decision{Type: DecisionQuestion, Answer: FallbackAnswer},
		},
		{
			name: "question without answer field",
			raw:  `{"type": "question"}`,
			want: Decision{Type: DecisionQuestion, Answer: FallbackAnswer},
		},
		{
			name: "empty",
			raw:  "",
			want: Decision{Type: DecisionQuestion, Answer: FallbackAnswer},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseDecision(tc.raw))
		})
	}
}

func TestBuildDecisionPrompt(t *testing.T) {
	prompt := BuildDecisionPrompt(
		"show me the pods (on cluster: prod)",
		"User: hi\nAssistant: hello\n",
		"Pods are the smallest deployable units.",
	)

	assert.Contains(t, prompt, "--- RETRIEVED CONTEXT ---")
	assert.Contains(t, prompt, "Pods are the smallest deployable units.")
	assert.Contains(t, prompt, "--- CONVERSATION HISTORY ---")
	assert.Contains(t, prompt, "User: hi")
	assert.Contains(t, prompt, `"show me the pods (on cluster: prod)"`)
	assert.Contains(t, prompt, "Respond with only the JSON object, and nothing else.")
}
