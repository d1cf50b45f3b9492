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

package rag

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/kubechat/kubechat/pkg/llm"
)

// DefaultTopK is how many chunks a retrieval returns.
const DefaultTopK = 3

// Retriever answers "what do the docs say about this" by embedding the
// query and scoring it against every indexed chunk.
type Retriever struct {
	store    *Store
	embedder llm.Embedder

	mu      sync.RWMutex
	speller *Speller
}

// NewRetriever creates a retriever over an existing index.
func NewRetriever(store *Store, embedder llm.Embedder) *Retriever {
	return &Retriever{store: store, embedder: embedder, speller: NewSpeller(nil)}
}

// IndexDir loads every .txt file under dir, splits it into chunks, embeds
// them, and replaces the stored index for each file. It also rebuilds the
// typo-correction vocabulary from the fresh corpus.
func (r *Retriever) IndexDir(ctx context.Context, dir string) (int, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	if err != nil {
		return 0, fmt.Errorf("failed to list documents in %s: %w", dir, err)
	}
	if len(paths) == 0 {
		slog.Warn("no documents found to index", "dir", dir)
		return 0, nil
	}

	total := 0
	var corpus []string
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return total, fmt.Errorf("failed to read %s: %w", path, err)
		}

		chunks := Split(string(data), DefaultChunkSize, DefaultChunkOverlap)
		if len(chunks) == 0 {
			continue
		}

		embeddings, err := r.embedder.EmbedBatch(ctx, chunks)
		if err != nil {
			return total, fmt.Errorf("failed to embed %s: %w", path, err)
		}

		source := filepath.Base(path)
		if err := r.store.ReplaceSource(ctx, source, chunks, embeddings); err != nil {
			return total, err
		}

		slog.Info("indexed document", "source", source, "chunks", len(chunks))
		corpus = append(corpus, chunks...)
		total += len(chunks)
	}

	r.mu.Lock()
	r.speller = NewSpeller(corpus)
	r.mu.Unlock()

	return total, nil
}

// LoadVocabulary rebuilds the typo-correction vocabulary from the stored
// index, for processes that retrieve without having indexed.
func (r *Retriever) LoadVocabulary(ctx context.Context) error {
	chunks, err := r.store.All(ctx)
	if err != nil {
		return err
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	r.mu.Lock()
	r.speller = NewSpeller(texts)
	r.mu.Unlock()
	return nil
}

// Retrieve returns the k most similar chunks joined into one context block.
// An empty index yields an empty context, never an error: the assistant
// degrades to the model's general knowledge.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) (string, error) {
	if k <= 0 {
		k = DefaultTopK
	}

	r.mu.RLock()
	corrected := r.speller.CorrectQuery(query)
	r.mu.RUnlock()
	if corrected != query {
		slog.Debug("corrected query typos", "from", query, "to", corrected)
	}

	chunks, err := r.store.All(ctx)
	if err != nil {
		return "", err
	}
	if len(chunks) == 0 {
		return "", nil
	}

	queryVec, err := r.embedder.Embed(ctx, corrected)
	if err != nil {
		return "", fmt.Errorf("failed to embed query: %w", err)
	}

	type scored struct {
		chunk Chunk
		score float64
	}
	candidates := make([]scored, 0, len(chunks))
	for _, c := range chunks {
		score, err := CosineSimilarity(queryVec, c.Embedding)
		if err != nil {
			continue
		}
		candidates = append(candidates, scored{chunk: c, score: score})
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })
	if len(candidates) > k {
		candidates = candidates[:k]
	}

	parts := make([]string, len(candidates))
	for i, c := range candidates {
		parts[i] = c.chunk.Content
	}
	return strings.Join(parts, "\n"), nil
}

// CosineSimilarity computes the cosine similarity of two vectors. A zero
// magnitude vector scores 0 against everything.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vectors must have the same length: %d != %d", len(a), len(b))
	}

	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB)), nil
}
