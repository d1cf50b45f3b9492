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
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/kubechat/kubechat/pkg/defaults"
)

// Proposal is a not-yet-approved command awaiting explicit user confirmation.
// It is immutable once stored: created when the model produces a command-type
// response, read on confirmation, deleted on confirm, cancel, or overwrite.
type Proposal struct {
	Command       string `json:"command"`
	Cluster       string `json:"cluster"`
	OriginalQuery string `json:"original_query"`
}

// Exchange is one user/assistant turn in a conversation.
type Exchange struct {
	User      string `json:"user"`
	Assistant string `json:"assistant"`
}

// Context is the persisted per-session state: the bounded conversation
// history and at most one pending command proposal.
type Context struct {
	History []Exchange `json:"history,omitempty"`
	Pending *Proposal  `json:"pending_command,omitempty"`
}

// Store is a durable per-session key/value store backed by an embedded sqlite
// table. Every mutation is persisted immediately: the confirmation protocol
// spans multiple HTTP requests that may land on different processes, so a
// pending record lost to write-back caching would be a correctness bug.
//
// All read-modify-write sequences for the same session ID are serialized
// through a per-session mutex. This is the property that prevents two
// concurrent confirmations from both observing the same pending record.
type Store struct {
	db *sql.DB

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore opens (creating if necessary) the session database at path.
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create session db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	busyMs := defaults.SessionBusyTimeout.Milliseconds()
	if _, err := db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", busyMs)); err != nil {
		slog.Debug("failed to set sqlite busy_timeout", "error", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		slog.Debug("failed to set sqlite journal_mode=WAL", "error", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		slog.Debug("failed to set sqlite synchronous=NORMAL", "error", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			session_id   TEXT PRIMARY KEY,
			context_data TEXT NOT NULL
		)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize session schema: %w", err)
	}

	return &Store{
		db:    db,
		locks: map[string]*sync.Mutex{},
	}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// sessionLock returns the mutex serializing access to one session ID.
func (s *Store) sessionLock(sessionID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[sessionID] = l
	}
	return l
}

// load reads the stored context for a session. Missing rows and unreadable
// rows both yield an empty context.
func (s *Store) load(ctx context.Context, sessionID string) Context {
	var data string
	err := s.db.QueryRowContext(ctx,
		"SELECT context_data FROM sessions WHERE session_id = ?", sessionID).Scan(&data)
	switch {
	case err == sql.ErrNoRows:
		return Context{}
	case err != nil:
		slog.Error("failed to load session context", "session", sessionID, "error", err)
		return Context{}
	}

	var c Context
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		slog.Error("failed to decode session context", "session", sessionID, "error", err)
		return Context{}
	}
	return c
}

// save persists the context for a session.
func (s *Store) save(ctx context.Context, sessionID string, c Context) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode session context: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO sessions (session_id, context_data) VALUES (?, ?)",
		sessionID, string(data)); err != nil {
		return fmt.Errorf("failed to persist session context: %w", err)
	}
	return nil
}

// Get returns the stored context for a session, or an empty context when the
// session is unknown. It never fails the caller: storage errors degrade to
// "no context" and are logged.
func (s *Store) Get(ctx context.Context, sessionID string) Context {
	l := s.sessionLock(sessionID)
	l.Lock()
	defer l.Unlock()
	return s.load(ctx, sessionID)
}

// Update applies fn to the session's context under the per-session lock and
// persists the result. The whole read-modify-write is atomic with respect to
// other Store operations on the same session.
func (s *Store) Update(ctx context.Context, sessionID string, fn func(*Context)) error {
	l := s.sessionLock(sessionID)
	l.Lock()
	defer l.Unlock()

	c := s.load(ctx, sessionID)
	fn(&c)
	return s.save(ctx, sessionID, c)
}

// AppendHistory appends one exchange to the session's history, trims to the
// most recent bounded window, and persists.
func (s *Store) AppendHistory(ctx context.Context, sessionID, userText, assistantText string) error {
	return s.Update(ctx, sessionID, func(c *Context) {
		c.History = append(c.History, Exchange{User: userText, Assistant: assistantText})
		if n := len(c.History) - defaults.HistoryMaxExchanges; n > 0 {
			c.History = append([]Exchange(nil), c.History[n:]...)
		}
	})
}

// History returns the session's bounded conversation history.
func (s *Store) History(ctx context.Context, sessionID string) []Exchange {
	return s.Get(ctx, sessionID).History
}

// HistoryText renders the history in the User:/Assistant: form the prompt
// builder expects.
func (s *Store) HistoryText(ctx context.Context, sessionID string) string {
	var b strings.Builder
	for _, e := range s.Get(ctx, sessionID).History {
		fmt.Fprintf(&b, "User: %s\nAssistant: %s\n", e.User, e.Assistant)
	}
	return b.String()
}

// SetPending stores p as the session's pending proposal, replacing any
// existing one (last-proposed-wins). It reports whether a proposal was
// replaced.
func (s *Store) SetPending(ctx context.Context, sessionID string, p Proposal) (replaced bool, err error) {
	err = s.Update(ctx, sessionID, func(c *Context) {
		replaced = c.Pending != nil
		c.Pending = &p
	})
	return replaced, err
}

// Pending returns the session's pending proposal without consuming it.
func (s *Store) Pending(ctx context.Context, sessionID string) (Proposal, bool) {
	c := s.Get(ctx, sessionID)
	if c.Pending == nil {
		return Proposal{}, false
	}
	return *c.Pending, true
}

// TakePending atomically reads and clears the session's pending proposal.
// The clear is persisted before TakePending returns, so of any number of
// concurrent callers exactly one receives ok=true. A persistence failure
// returns an error and leaves nothing consumed.
func (s *Store) TakePending(ctx context.Context, sessionID string) (Proposal, bool, error) {
	l := s.sessionLock(sessionID)
	l.Lock()
	defer l.Unlock()

	c := s.load(ctx, sessionID)
	if c.Pending == nil {
		return Proposal{}, false, nil
	}
	p := *c.Pending
	c.Pending = nil
	if err := s.save(ctx, sessionID, c); err != nil {
		return Proposal{}, false, err
	}
	return p, true, nil
}
