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
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"

	"github.com/kubechat/kubechat/pkg/errors"
)

// GeminiClient implements Client against the Gemini API. It is the hosted
// alternative to the local Ollama backend.
type GeminiClient struct {
	client      *genai.Client
	model       string
	temperature float32
}

// NewGeminiClient creates a Gemini-backed client.
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, errors.New(errors.ErrCodeInvalidRequest, "gemini api key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to create gemini client", err)
	}

	return &GeminiClient{client: client, model: model, temperature: 0.1}, nil
}

// Complete sends prompt to the model and returns the response text.
func (c *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	cfg := &genai.GenerateContentConfig{Temperature: genai.Ptr(c.temperature)}

	start := time.Now()
	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), cfg)
	observeRequest("gemini", start, err)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, "language model request failed", err)
	}

	text := result.Text()
	if text == "" {
		return "", errors.New(errors.ErrCodeInternal, "language model returned no text")
	}
	return text, nil
}

// CompleteStream sends prompt and calls fn for each response chunk as the
// model produces it.
func (c *GeminiClient) CompleteStream(ctx context.Context, prompt string, fn func(chunk string) error) error {
	cfg := &genai.GenerateContentConfig{Temperature: genai.Ptr(c.temperature)}

	start := time.Now()
	for resp, err := range c.client.Models.GenerateContentStream(ctx, c.model, genai.Text(prompt), cfg) {
		if err != nil {
			observeRequest("gemini", start, err)
			return errors.Wrap(errors.ErrCodeInternal, "language model request failed", err)
		}
		if text := resp.Text(); text != "" {
			if err := fn(text); err != nil {
				observeRequest("gemini", start, err)
				return err
			}
		}
	}
	observeRequest("gemini", start, nil)
	return nil
}

// GeminiEmbedder implements Embedder via the Gemini embedding models.
type GeminiEmbedder struct {
	client *genai.Client
	model  string
}

// NewGeminiEmbedder creates a Gemini-backed embedder.
func NewGeminiEmbedder(ctx context.Context, apiKey, model string) (*GeminiEmbedder, error) {
	if apiKey == "" {
		return nil, errors.New(errors.ErrCodeInvalidRequest, "gemini api key is required")
	}
	if model == "" {
		model = "gemini-embedding-001"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to create gemini client", err)
	}

	return &GeminiEmbedder{client: client, model: model}, nil
}

// Embed generates an embedding for a single text.
func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds all texts in one request.
func (e *GeminiEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	result, err := e.client.Models.EmbedContent(ctx, e.model, contents,
		&genai.EmbedContentConfig{TaskType: "RETRIEVAL_DOCUMENT"})
	if err != nil {
		return nil, fmt.Errorf("gemini embed failed: %w", err)
	}
	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(result.Embeddings))
	}

	embeddings := make([][]float32, len(result.Embeddings))
	for i, emb := range result.Embeddings {
		embeddings[i] = emb.Values
	}
	return embeddings, nil
}

// Dimensions returns the vector size. gemini-embedding-001 produces 3072.
func (e *GeminiEmbedder) Dimensions() int {
	return 3072
}

// Name returns the engine name.
func (e *GeminiEmbedder) Name() string {
	return fmt.Sprintf("gemini:%s", e.model)
}
