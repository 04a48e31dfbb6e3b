package rag

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// ErrStoreClosed is returned by DocumentStore operations after Close.
var ErrStoreClosed = errors.New("document store is closed")

// DocumentStore keeps documents in SQLite and retrieves them by term
// overlap with the query. It implements Retriever.
type DocumentStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// Compile-time interface check.
var _ Retriever = (*DocumentStore)(nil)

// NewDocumentStore opens (or creates) a document store.
// The path should be a file path (e.g., "./documents.db") or ":memory:" for testing.
func NewDocumentStore(path string) (*DocumentStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Each :memory: connection is a separate database.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	} else if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			metadata TEXT NOT NULL,
			created_at TEXT NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	return &DocumentStore{db: db}, nil
}

// Add inserts or replaces documents in one transaction.
func (s *DocumentStore) Add(ctx context.Context, docs ...Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, doc := range docs {
		if doc.ID == "" {
			return fmt.Errorf("add document: id is required")
		}
		meta, err := json.Marshal(doc.Metadata)
		if err != nil {
			return fmt.Errorf("encode metadata for %s: %w", doc.ID, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO documents (id, content, metadata, created_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				content = excluded.content,
				metadata = excluded.metadata
		`, doc.ID, doc.Content, string(meta), now); err != nil {
			return fmt.Errorf("add document %s: %w", doc.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit documents: %w", err)
	}
	return nil
}

// Count returns the number of stored documents.
func (s *DocumentStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, ErrStoreClosed
	}

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}

// Retrieve returns up to k documents sharing terms with query, best first.
//
// SQLite selects candidates containing any query term (case-insensitive);
// each candidate is scored by the fraction of distinct query terms found in
// its content or metadata. Ties are broken by id so results are stable.
func (s *DocumentStore) Retrieve(ctx context.Context, query string, k int) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	terms := tokenize(query)
	if len(terms) == 0 || k <= 0 {
		return nil, nil
	}

	clauses := make([]string, len(terms))
	args := make([]any, 0, 2*len(terms))
	for i, term := range terms {
		clauses[i] = "(lower(content) LIKE ? OR lower(metadata) LIKE ?)"
		pattern := "%" + term + "%"
		args = append(args, pattern, pattern)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, content, metadata FROM documents WHERE `+strings.Join(clauses, " OR "),
		args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		var meta string
		if err := rows.Scan(&doc.ID, &doc.Content, &meta); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		if err := json.Unmarshal([]byte(meta), &doc.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata for %s: %w", doc.ID, err)
		}
		// Candidates matched only on metadata keys score zero.
		if doc.Score = overlap(terms, doc); doc.Score > 0 {
			docs = append(docs, doc)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}

	sort.SliceStable(docs, func(i, j int) bool {
		if docs[i].Score != docs[j].Score {
			return docs[i].Score > docs[j].Score
		}
		return docs[i].ID < docs[j].ID
	})
	if len(docs) > k {
		docs = docs[:k]
	}
	return docs, nil
}

// Close closes the database.
func (s *DocumentStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// tokenize lowercases text and splits it into distinct terms of letters and
// digits, in first-seen order.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]bool, len(fields))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if !seen[f] {
			seen[f] = true
			terms = append(terms, f)
		}
	}
	return terms
}

func overlap(terms []string, doc Document) float64 {
	var sb strings.Builder
	sb.WriteString(strings.ToLower(doc.Content))
	for _, v := range doc.Metadata {
		sb.WriteByte(' ')
		sb.WriteString(strings.ToLower(v))
	}
	text := sb.String()

	matched := 0
	for _, term := range terms {
		if strings.Contains(text, term) {
			matched++
		}
	}
	return float64(matched) / float64(len(terms))
}
