package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// UnknownType is the stats bucket for documents stored without a type
const UnknownType = "unknown"

// RecentWindow is how far back Stats counts a document as recent
const RecentWindow = 7 * 24 * time.Hour

var (
	// ErrNotFound is returned when no document has the requested ID
	ErrNotFound = errors.New("document not found")

	// ErrStorage matches every *StorageError via errors.Is
	ErrStorage = errors.New("storage failure")
)

// StorageError reports that the underlying medium could not complete an operation.
// Nothing is committed when a write fails with a StorageError.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("docstore: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrStorage) true for any StorageError
func (e *StorageError) Is(target error) bool { return target == ErrStorage }

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// Document is a stored text document
type Document struct {
	ID           int64          `json:"id"`
	Filename     string         `json:"filename"`
	Content      string         `json:"content"`
	DocumentType string         `json:"document_type,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	Metadata     map[string]any `json:"metadata"`
}

// NewDocument holds the caller-supplied fields of a document to add
type NewDocument struct {
	Filename     string
	Content      string
	DocumentType string // empty means absent
	Metadata     map[string]any
}

// Stats summarizes the stored documents
type Stats struct {
	TotalDocuments  int            `json:"total_documents"`
	DocumentsByType map[string]int `json:"documents_by_type"`
	RecentDocuments int            `json:"recent_documents"`
}

// Store is durable keyed storage of documents
type Store interface {
	// Add persists a document and returns its newly assigned ID
	Add(ctx context.Context, doc NewDocument) (int64, error)

	// Get returns the document with the given ID, or ErrNotFound
	Get(ctx context.Context, id int64) (*Document, error)

	// List returns all documents, newest first
	List(ctx context.Context) ([]Document, error)

	// Delete removes a document. It reports false if the ID did not exist.
	Delete(ctx context.Context, id int64) (bool, error)

	// Stats aggregates counts over all documents
	Stats(ctx context.Context) (Stats, error)

	// Count returns the number of stored documents
	Count(ctx context.Context) (int, error)

	// Close releases the underlying resources
	Close() error
}

// Option configures a store
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the clock used for CreatedAt and the recent window
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// typeBucket maps an absent document type to UnknownType
func typeBucket(docType string) string {
	if docType == "" {
		return UnknownType
	}
	return docType
}

// newer reports whether a sorts before b in listing order
func newer(a, b Document) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

// CloneMetadata returns a deep copy of metadata. Nested maps and slices
// of the JSON shapes (map[string]any and []any) are copied; other values are
// shared.
func CloneMetadata(metadata map[string]any) map[string]any {
	out := make(map[string]any, len(metadata))
	for k, v := range metadata {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		return CloneMetadata(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		return append([]string(nil), v...)
	default:
		return v
	}
}
