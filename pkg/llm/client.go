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

import "context"

// Client defines the interface for language model providers.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Streamer is implemented by clients that can deliver a completion
// incrementally. fn is called once per chunk in arrival order; returning an
// error from fn aborts the stream.
type Streamer interface {
	CompleteStream(ctx context.Context, prompt string, fn func(chunk string) error) error
}

// Embedder produces a vector representation of text for semantic search.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Name() string
}
