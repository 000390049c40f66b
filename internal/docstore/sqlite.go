package docstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SchemaVersion is written to store_meta when a database is created
const SchemaVersion = "1"

// MemoryPath opens a private in-memory SQLite database
const MemoryPath = ":memory:"

// SQLiteStore is a persistent document store using SQLite
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
	now    func() time.Time
}

// NewSQLiteStore opens (creating if needed) a SQLite document store
func NewSQLiteStore(dbPath string, opts ...Option) (*SQLiteStore, error) {
	if dbPath != MemoryPath {
		// Ensure directory exists
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, storageErr("create directory", err)
		}
	}

	store, err := openSQLite(dbPath, opts)
	if err != nil {
		return nil, err
	}

	if err := store.initSchema(); err != nil {
		store.db.Close()
		return nil, storageErr("initialize schema", err)
	}

	if _, err := store.getMeta("version"); err != nil {
		if err := store.setMeta("version", SchemaVersion); err != nil {
			store.db.Close()
			return nil, storageErr("write schema version", err)
		}
		if err := store.setMeta("created_at", store.now().UTC().Format(time.RFC3339)); err != nil {
			store.db.Close()
			return nil, storageErr("write creation time", err)
		}
	}

	return store, nil
}

// OpenSQLiteStore opens an existing SQLite document store
func OpenSQLiteStore(dbPath string, opts ...Option) (*SQLiteStore, error) {
	// Check if database exists
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("database does not exist: %s", dbPath)
	}

	store, err := openSQLite(dbPath, opts)
	if err != nil {
		return nil, err
	}

	version, err := store.getMeta("version")
	if err != nil {
		store.db.Close()
		return nil, fmt.Errorf("failed to read schema version: %w", err)
	}
	if version != SchemaVersion {
		store.db.Close()
		return nil, fmt.Errorf("unsupported schema version %q (want %s)", version, SchemaVersion)
	}

	return store, nil
}

func openSQLite(dbPath string, opts []Option) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, storageErr("open database", err)
	}

	// SQLite supports a single writer; one connection also keeps :memory: databases shared
	db.SetMaxOpenConns(1)

	o := buildOptions(opts)
	return &SQLiteStore{
		db:     db,
		dbPath: dbPath,
		now:    o.now,
	}, nil
}

// initSchema creates the database schema
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS store_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS documents (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		filename TEXT NOT NULL,
		content TEXT NOT NULL,
		document_type TEXT,
		created_at INTEGER NOT NULL,
		metadata TEXT NOT NULL DEFAULT '{}'
	);

	CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents(created_at DESC, id DESC);
	CREATE INDEX IF NOT EXISTS idx_documents_type ON documents(document_type);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Path returns the database path
func (s *SQLiteStore) Path() string {
	return s.dbPath
}

// Add inserts a document inside a transaction
func (s *SQLiteStore) Add(ctx context.Context, doc NewDocument) (int64, error) {
	metadataJSON, err := encodeMetadata(doc.Metadata)
	if err != nil {
		return 0, storageErr("encode metadata", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, storageErr("begin add", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO documents (filename, content, document_type, created_at, metadata)
		VALUES (?, ?, ?, ?, ?)
	`, doc.Filename, doc.Content, nullString(doc.DocumentType), s.now().UTC().UnixNano(), metadataJSON)
	if err != nil {
		return 0, storageErr("insert document", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, storageErr("read document id", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, storageErr("commit add", err)
	}

	return id, nil
}

// Get returns a document by ID
func (s *SQLiteStore) Get(ctx context.Context, id int64) (*Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, filename, content, document_type, created_at, metadata
		FROM documents
		WHERE id = ?
	`, id)

	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr("get document", err)
	}

	return doc, nil
}

// List returns all documents, newest first
func (s *SQLiteStore) List(ctx context.Context) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, filename, content, document_type, created_at, metadata
		FROM documents
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, storageErr("list documents", err)
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, storageErr("scan document", err)
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list documents", err)
	}

	return docs, nil
}

// Delete removes a document by ID
func (s *SQLiteStore) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return false, storageErr("delete document", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, storageErr("delete document", err)
	}

	return n > 0, nil
}

// Stats aggregates document counts
func (s *SQLiteStore) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{DocumentsByType: make(map[string]int)}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&stats.TotalDocuments); err != nil {
		return Stats{}, storageErr("count documents", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT document_type, COUNT(*)
		FROM documents
		GROUP BY document_type
	`)
	if err != nil {
		return Stats{}, storageErr("count by type", err)
	}
	defer rows.Close()

	for rows.Next() {
		var docType sql.NullString
		var count int
		if err := rows.Scan(&docType, &count); err != nil {
			return Stats{}, storageErr("count by type", err)
		}
		// NULL and empty both land in the unknown bucket
		stats.DocumentsByType[typeBucket(docType.String)] += count
	}
	if err := rows.Err(); err != nil {
		return Stats{}, storageErr("count by type", err)
	}

	cutoff := s.now().Add(-RecentWindow).UTC().UnixNano()
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM documents WHERE created_at > ?
	`, cutoff).Scan(&stats.RecentDocuments); err != nil {
		return Stats{}, storageErr("count recent documents", err)
	}

	return stats, nil
}

// Count returns the number of stored documents
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count); err != nil {
		return 0, storageErr("count documents", err)
	}
	return count, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// getMeta retrieves a store_meta value
func (s *SQLiteStore) getMeta(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM store_meta WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("store metadata key not found: %s", key)
	}
	return value, err
}

// setMeta stores a store_meta value
func (s *SQLiteStore) setMeta(key, value string) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO store_meta (key, value)
		VALUES (?, ?)
	`, key, value)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*Document, error) {
	var (
		doc          Document
		docType      sql.NullString
		createdAt    int64
		metadataJSON string
	)

	if err := row.Scan(&doc.ID, &doc.Filename, &doc.Content, &docType, &createdAt, &metadataJSON); err != nil {
		return nil, err
	}

	metadata, err := decodeMetadata(metadataJSON)
	if err != nil {
		return nil, fmt.Errorf("decode metadata for document %d: %w", doc.ID, err)
	}

	doc.DocumentType = docType.String
	doc.CreatedAt = time.Unix(0, createdAt).UTC()
	doc.Metadata = metadata

	return &doc, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

var _ Store = (*SQLiteStore)(nil)
