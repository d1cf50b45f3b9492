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
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// DecisionType discriminates the two answer shapes the model may produce.
type DecisionType string

const (
	// DecisionQuestion is a conversational answer with no command.
	DecisionQuestion DecisionType = "question"
	// DecisionCommand proposes a kubectl command for confirmation.
	DecisionCommand DecisionType = "command"
)

// Decision is the structured verdict parsed from the model's response.
type Decision struct {
	Type        DecisionType `json:"type"`
	Answer      string       `json:"answer,omitempty"`
	Command     string       `json:"command,omitempty"`
	Explanation string       `json:"explanation,omitempty"`
}

// FallbackAnswer is returned when the model's output cannot be parsed.
const FallbackAnswer = "Sorry, I received an unexpected response from my AI brain. Please try rephrasing your request."

var codeFence = regexp.MustCompile("```json\\s*|\\s*```")

// ParseDecision extracts a Decision from raw model output. Models wrap JSON
// in markdown fences often enough that stripping them first is mandatory.
// Unparseable output degrades to a question-type decision with a fallback
// answer rather than an error: a confused model must never break the chat.
func ParseDecision(raw string) Decision {
	clean := strings.TrimSpace(codeFence.ReplaceAllString(raw, ""))

	var d Decision
	if err := json.Unmarshal([]byte(clean), &d); err != nil {
		return Decision{Type: DecisionQuestion, Answer: FallbackAnswer}
	}

	switch d.Type {
	case DecisionCommand:
		if d.Command == "" {
			return Decision{Type: DecisionQuestion, Answer: FallbackAnswer}
		}
	case DecisionQuestion:
		if d.Answer == "" {
			return Decision{Type: DecisionQuestion, Answer: FallbackAnswer}
		}
	default:
		return Decision{Type: DecisionQuestion, Answer: FallbackAnswer}
	}
	return d
}

// BuildDecisionPrompt assembles the master prompt instructing the model to
// answer with exactly one JSON object, either a question answer or a
// command proposal. The retrieved document context and the running
// conversation are inlined so the model can resolve follow-ups.
func BuildDecisionPrompt(query, history, docContext string) string {
	var b strings.Builder
	b.WriteString("You are an expert Kubernetes assistant that can understand English and French. ")
	b.WriteString("Your goal is to analyze the user's request, the conversation history, and the provided context, then respond in a specific JSON format. ")
	b.WriteString("There are two possible response types: 'question' or 'command'.\n\n")
	b.WriteString("1. If the user is asking a general question (e.g., 'what is a pod?', 'how do I scale a deployment?'):\n")
	b.WriteString("   - First, check the 'RETRIEVED CONTEXT' section. If it contains relevant information, use it to build your answer.\n")
	b.WriteString("   - If the context is not relevant, use your general knowledge.\n")
	b.WriteString("   - Your JSON response must be: {\"type\": \"question\", \"answer\": \"<Your clear and helpful answer here>\"}\n\n")
	b.WriteString("2. If the user is asking for a kubectl command (e.g., 'show me the pods', 'create a namespace called test'):\n")
	b.WriteString("   - You must generate the simplest, most common, and directly executable `kubectl` command.\n")
	b.WriteString("   - Provide a very brief, one-sentence explanation of what the command does.\n")
	b.WriteString("   - Your JSON response must be: {\"type\": \"command\", \"command\": \"<The kubectl command>\", \"explanation\": \"<The brief explanation>\"}\n\n")
	b.WriteString("--- RETRIEVED CONTEXT ---\n")
	b.WriteString(docContext)
	b.WriteString("\n--- END CONTEXT ---\n\n")
	b.WriteString("--- CONVERSATION HISTORY ---\n")
	b.WriteString(history)
	b.WriteString("\n--- END HISTORY ---\n\n")
	fmt.Fprintf(&b, "User's Latest Request: %q\n\n", query)
	b.WriteString("Respond with only the JSON object, and nothing else.")
	return b.String()
}

// BuildAnswerPrompt assembles the simpler prompt for a direct conversational
// answer, used when no structured decision is needed.
func BuildAnswerPrompt(query, history, docContext string) string {
	return fmt.Sprintf(
		"You are a helpful Kubernetes assistant. Based on the following context and conversation history, "+
			"answer the user's question directly and conversationally.\n"+
			"Context: %s\nHistory: %s\nUser Question: %s\n\nAnswer:",
		docContext, history, query)
}
