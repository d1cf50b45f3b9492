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
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmbedder maps text to a deterministic bag-of-words vector over a fixed
// vocabulary, so similarity reflects word overlap.
type fakeEmbedder struct {
	vocab []string
}

func newFakeEmbedder() *fakeEmbedder {
	return &fakeEmbedder{vocab: []string{
		"pod", "pods", "deployment", "service", "ingress", "node", "scale", "logs",
	}}
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	lower := strings.ToLower(text)
	vec := make([]float32, len(f.vocab))
	for i, w := range f.vocab {
		vec[i] = float32(strings.Count(lower, w))
	}
	return vec, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := f.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int { return len(f.vocab) }
func (f *fakeEmbedder) Name() string    { return "fake" }

func newTestRetriever(t *testing.T) (*Retriever, *Store) {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return NewRetriever(store, newFakeEmbedder()), store
}

func writeDocs(t *testing.T, docs map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range docs {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestIndexAndRetrieve(t *testing.T) {
	r, store := newTestRetriever(t)
	ctx := context.Background()

	dir := writeDocs(t, map[string]string{
		"pods.txt":     "A pod is the smallest deployable unit. Pods share a network namespace.",
		"services.txt": "A service exposes pods behind a stable address. An ingress routes to a service.",
		"ignored.md":   "not indexed",
	})

	total, err := r.IndexDir(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	got, err := r.Retrieve(ctx, "what is a pod", 1)
	require.NoError(t, err)
	assert.Contains(t, got, "smallest deployable unit")
	assert.NotContains(t, got, "stable address")

	got, err = r.Retrieve(ctx, "how does a service work", 1)
	require.NoError(t, err)
	assert.Contains(t, got, "stable address")
}

func TestRetrieveEmptyIndex(t *testing.T) {
	r, _ := newTestRetriever(t)

	got, err := r.Retrieve(context.Background(), "what is a pod", 3)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRetrieveCorrectsTypos(t *testing.T) {
	r, _ := newTestRetriever(t)
	ctx := context.Background()

	dir := writeDocs(t, map[string]string{
		"pods.txt":     "A pods overview. Pods run containers.",
		"services.txt": "A service exposes an application.",
	})
	_, err := r.IndexDir(ctx, dir)
	require.NoError(t, err)

	// "pdos" is not a corpus word; correction lands on "pods".
	got, err := r.Retrieve(ctx, "tell me about pdos", 1)
	require.NoError(t, err)
	assert.Contains(t, got, "containers")
}

func TestReindexReplacesStaleChunks(t *testing.T) {
	r, store := newTestRetriever(t)
	ctx := context.Background()

	dir := writeDocs(t, map[string]string{"pods.txt": "old pod text"})
	_, err := r.IndexDir(ctx, dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "pods.txt"), []byte("new pod text"), 0o644))
	_, err = r.IndexDir(ctx, dir)
	require.NoError(t, err)

	chunks, err := store.All(ctx)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "new pod text", chunks[0].Content)
}

func TestSplit(t *testing.T) {
	t.Run("short text is one chunk", func(t *testing.T) {
		chunks := Split("hello world", 1000, 200)
		assert.Equal(t, []string{"hello world"}, chunks)
	})

	t.Run("empty", func(t *testing.T) {
		assert.Nil(t, Split("   \n ", 1000, 200))
	})

	t.Run("long text overlaps", func(t *testing.T) {
		var b strings.Builder
		for i := 0; i < 200; i++ {
			fmt.Fprintf(&b, "sentence number %d about pods.\n", i)
		}
		chunks := Split(b.String(), 1000, 200)
		require.Greater(t, len(chunks), 3)

		for _, c := range chunks {
			assert.LessOrEqual(t, len(c), 1000)
		}

		// Consecutive chunks share text: the last full line of each chunk
		// reappears in the next one.
		for i := 1; i < len(chunks); i++ {
			lines := strings.Split(chunks[i-1], "\n")
			lastLine := lines[len(lines)-1]
			assert.Contains(t, chunks[i], lastLine)
		}
	})
}

func TestSpeller(t *testing.T) {
	s := NewSpeller([]string{"pods run containers inside a namespace", "deployment scaling"})

	assert.Equal(t, "pods", s.Correct("pdos"))
	assert.Equal(t, "deployment", s.Correct("deploymnet"))
	assert.Equal(t, "pods", s.Correct("pods"), "known words pass through")
	assert.Equal(t, "cat", s.Correct("cat"), "short words pass through")
	assert.Equal(t, "zzzzzzzz", s.Correct("zzzzzzzz"), "nothing within distance bound")

	assert.Equal(t, "scaling pods", s.CorrectQuery("scaling pdos"))
}

func TestSpellerFoldsDiacritics(t *testing.T) {
	s := NewSpeller([]string{"un déploiement gère des pods répliqués"})

	assert.Equal(t, "deploiement", s.Correct("deploimeent"))
	assert.Equal(t, "Déploiement", s.Correct("Déploiement"), "known accented words pass through")
}
