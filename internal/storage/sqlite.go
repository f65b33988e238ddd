package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/studycast/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db  *sql.DB
	now func() time.Time
}

var _ Storage = (*SQLiteStorage)(nil)

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL,
		page_count INTEGER NOT NULL DEFAULT 0,
		language TEXT NOT NULL DEFAULT '',
		extracted_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_documents_owner ON documents(owner_id, extracted_at);

	CREATE TABLE IF NOT EXISTS podcasts (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		duration INTEGER NOT NULL DEFAULT 0,
		language TEXT NOT NULL DEFAULT '',
		document_ids TEXT NOT NULL DEFAULT '[]',
		knowledge_graph TEXT NOT NULL DEFAULT '{}',
		status TEXT NOT NULL,
		progress INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_podcasts_owner ON podcasts(owner_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_podcasts_status ON podcasts(status, updated_at);

	CREATE TABLE IF NOT EXISTS podcast_chapters (
		podcast_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		id TEXT NOT NULL,
		title TEXT NOT NULL,
		start_time REAL NOT NULL,
		end_time REAL NOT NULL,
		concepts TEXT NOT NULL,
		difficulty TEXT NOT NULL,
		summary TEXT NOT NULL,
		PRIMARY KEY (podcast_id, position),
		FOREIGN KEY (podcast_id) REFERENCES podcasts(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS podcast_segments (
		podcast_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		id TEXT NOT NULL,
		chapter_id TEXT NOT NULL,
		speaker TEXT NOT NULL,
		text TEXT NOT NULL,
		audio_url TEXT NOT NULL DEFAULT '',
		duration REAL NOT NULL DEFAULT 0,
		timestamp REAL NOT NULL DEFAULT 0,
		concepts TEXT NOT NULL,
		is_question_breakpoint INTEGER NOT NULL DEFAULT 0,
		difficulty TEXT NOT NULL,
		PRIMARY KEY (podcast_id, position),
		FOREIGN KEY (podcast_id) REFERENCES podcasts(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS predicted_questions (
		podcast_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		id TEXT NOT NULL,
		question TEXT NOT NULL,
		answer TEXT NOT NULL,
		relevant_concepts TEXT NOT NULL,
		related_segments TEXT NOT NULL,
		audio_url TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (podcast_id, position),
		FOREIGN KEY (podcast_id) REFERENCES podcasts(id) ON DELETE CASCADE
	);
	`
	_, err := db.Exec(schema)
	return err
}

// SaveDocument inserts or replaces a document. A document id owned by someone
// else is reported as not found.
func (s *SQLiteStorage) SaveDocument(ctx context.Context, doc *models.DocumentContent) error {
	if doc.ExtractedAt.IsZero() {
		doc.ExtractedAt = s.now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (id, owner_id, title, content, page_count, language, extracted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   title = excluded.title, content = excluded.content, page_count = excluded.page_count,
		   language = excluded.language, extracted_at = excluded.extracted_at
		 WHERE documents.owner_id = excluded.owner_id`,
		doc.ID, doc.OwnerID, doc.Title, doc.Content, doc.PageCount, doc.Language, doc.ExtractedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("document %s: %w", doc.ID, models.ErrNotFound)
	}
	return nil
}

const documentColumns = `id, owner_id, title, content, page_count, language, extracted_at`

func scanDocument(row interface{ Scan(...any) error }) (*models.DocumentContent, error) {
	var doc models.DocumentContent
	if err := row.Scan(&doc.ID, &doc.OwnerID, &doc.Title, &doc.Content, &doc.PageCount, &doc.Language, &doc.ExtractedAt); err != nil {
		return nil, err
	}
	return &doc, nil
}

// GetDocument returns a document owned by ownerID.
func (s *SQLiteStorage) GetDocument(ctx context.Context, ownerID, id string) (*models.DocumentContent, error) {
	doc, err := scanDocument(s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = ? AND owner_id = ?`, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// GetDocuments returns the requested documents in request order. Duplicate ids
// are returned once; any missing or foreign id fails the whole call.
func (s *SQLiteStorage) GetDocuments(ctx context.Context, ownerID string, ids []string) ([]models.DocumentContent, error) {
	unique := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	if len(unique) == 0 {
		return nil, nil
	}

	args := make([]any, 0, len(unique)+1)
	args = append(args, ownerID)
	for _, id := range unique {
		args = append(args, id)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE owner_id = ? AND id IN (?`+strings.Repeat(",?", len(unique)-1)+`)`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[string]*models.DocumentContent, len(unique))
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		byID[doc.ID] = doc
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	docs := make([]models.DocumentContent, 0, len(unique))
	for _, id := range unique {
		doc, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("document %s: %w", id, models.ErrNotFound)
		}
		docs = append(docs, *doc)
	}
	return docs, nil
}

// ListDocuments returns an owner's documents, newest first.
func (s *SQLiteStorage) ListDocuments(ctx context.Context, ownerID string, offset, limit int) ([]*models.DocumentContent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE owner_id = ?
		 ORDER BY extracted_at DESC LIMIT ? OFFSET ?`,
		ownerID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*models.DocumentContent
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// DeleteDocument removes a document owned by ownerID.
func (s *SQLiteStorage) DeleteDocument(ctx context.Context, ownerID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("document %s: %w", id, models.ErrNotFound)
	}
	return nil
}

// CountDocuments returns the total number of documents.
func (s *SQLiteStorage) CountDocuments(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func marshalJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func unmarshalJSON(s string, v any) error {
	if s == "" {
		return nil
	}
	return json.Unmarshal([]byte(s), v)
}
