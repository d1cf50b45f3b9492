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

package session

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kubechat/kubechat/pkg/defaults"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGet_UnknownSession(t *testing.T) {
	s := newTestStore(t)

	c := s.Get(t.Context(), "nope")
	assert.Empty(t, c.History)
	assert.Nil(t, c.Pending)
}

func TestAppendHistory_TrimsToBoundedWindow(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	for i := 0; i < 25; i++ {
		require.NoError(t, s.AppendHistory(ctx, "s1", fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i)))
	}

	h := s.History(ctx, "s1")
	require.Len(t, h, defaults.HistoryMaxExchanges)
	// Oldest entries dropped first: the window starts at exchange 15.
	assert.Equal(t, "q15", h[0].User)
	assert.Equal(t, "q24", h[len(h)-1].User)
	assert.Equal(t, "a24", h[len(h)-1].Assistant)
}

func TestHistoryText_Rendering(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	require.NoError(t, s.AppendHistory(ctx, "s1", "show pods", "here they are"))

	assert.Equal(t, "User: show pods\nAssistant: here they are\n", s.HistoryText(ctx, "s1"))
}

func TestSetPending_LastProposedWins(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	replaced, err := s.SetPending(ctx, "s1", Proposal{Command: "kubectl get pods", Cluster: "default"})
	require.NoError(t, err)
	assert.False(t, replaced)

	replaced, err = s.SetPending(ctx, "s1", Proposal{Command: "kubectl get nodes", Cluster: "default"})
	require.NoError(t, err)
	assert.True(t, replaced)

	p, ok := s.Pending(ctx, "s1")
	require.True(t, ok)
	assert.Equal(t, "kubectl get nodes", p.Command)
}

func TestTakePending_ConsumesOnce(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	_, err := s.SetPending(ctx, "s1", Proposal{Command: "kubectl get pods", Cluster: "default", OriginalQuery: "show pods"})
	require.NoError(t, err)

	p, ok, err := s.TakePending(ctx, "s1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "show pods", p.OriginalQuery)

	_, ok, err = s.TakePending(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, ok, "second take must find nothing")
}

func TestTakePending_ConcurrentSingleWinner(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	_, err := s.SetPending(ctx, "s1", Proposal{Command: "kubectl delete pod x", Cluster: "default"})
	require.NoError(t, err)

	const n = 16
	var wg sync.WaitGroup
	wins := make(chan struct{}, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok, err := s.TakePending(ctx, "s1"); err == nil && ok {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	count := 0
	for range wins {
		count++
	}
	assert.Equal(t, 1, count, "exactly one concurrent taker may win")
}

func TestDurability_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sessions.db")
	ctx := t.Context()

	s, err := NewStore(path)
	require.NoError(t, err)
	_, err = s.SetPending(ctx, "s1", Proposal{Command: "kubectl get pods", Cluster: "prod", OriginalQuery: "q"})
	require.NoError(t, err)
	require.NoError(t, s.AppendHistory(ctx, "s1", "hello", "hi"))
	require.NoError(t, s.Close())

	s2, err := NewStore(path)
	require.NoError(t, err)
	defer s2.Close()

	p, ok := s2.Pending(ctx, "s1")
	require.True(t, ok, "pending record must survive a restart")
	assert.Equal(t, "prod", p.Cluster)
	assert.Len(t, s2.History(ctx, "s1"), 1)
}

func TestUpdate_ShallowMerge(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	require.NoError(t, s.AppendHistory(ctx, "s1", "q", "a"))
	// Updating the pending field leaves history untouched.
	require.NoError(t, s.Update(ctx, "s1", func(c *Context) {
		c.Pending = &Proposal{Command: "kubectl get ns", Cluster: "default"}
	}))

	c := s.Get(ctx, "s1")
	assert.Len(t, c.History, 1)
	require.NotNil(t, c.Pending)
	assert.Equal(t, "kubectl get ns", c.Pending.Command)
}
