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
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Chunk is one indexed slice of a document with its embedding vector.
type Chunk struct {
	ID        int64
	Source    string
	Content   string
	Embedding []float32
}

// Store persists document chunks and their embeddings in an embedded sqlite
// table. Vectors are stored as JSON arrays; the corpus is small enough that
// similarity search loads it whole and scores in memory.
type Store struct {
	db *sql.DB
}

// NewStore opens (creating if necessary) the index database at path.
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create index db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open index db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		slog.Debug("failed to set sqlite journal_mode=WAL", "error", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		slog.Debug("failed to set sqlite synchronous=NORMAL", "error", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS doc_chunks (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			source    TEXT NOT NULL,
			content   TEXT NOT NULL,
			embedding TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_doc_chunks_source ON doc_chunks(source)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize index schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// ReplaceSource atomically swaps all chunks for one source document.
// Re-indexing an updated file must not leave stale chunks behind.
func (s *Store) ReplaceSource(ctx context.Context, source string, contents []string, embeddings [][]float32) error {
	if len(contents) != len(embeddings) {
		return fmt.Errorf("got %d chunks but %d embeddings", len(contents), len(embeddings))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin index transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM doc_chunks WHERE source = ?", source); err != nil {
		return fmt.Errorf("failed to clear chunks for %s: %w", source, err)
	}

	for i, content := range contents {
		vec, err := json.Marshal(embeddings[i])
		if err != nil {
			return fmt.Errorf("failed to serialize embedding: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO doc_chunks (source, content, embedding) VALUES (?, ?, ?)",
			source, content, string(vec)); err != nil {
			return fmt.Errorf("failed to insert chunk: %w", err)
		}
	}

	return tx.Commit()
}

// All returns every indexed chunk with its embedding.
func (s *Store) All(ctx context.Context) ([]Chunk, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, source, content, embedding FROM doc_chunks")
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	var chunks []Chunk
	for rows.Next() {
		var c Chunk
		var vec string
		if err := rows.Scan(&c.ID, &c.Source, &c.Content, &vec); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		if err := json.Unmarshal([]byte(vec), &c.Embedding); err != nil {
			slog.Warn("skipping chunk with unreadable embedding", "id", c.ID, "error", err)
			continue
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// Count returns the number of indexed chunks.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM doc_chunks").Scan(&n)
	return n, err
}
