// Package library coordinates the document store and the similarity index.
//
// The Manager owns the invalidation policy: every committed add or delete
// drops the cached index, and the next search rebuilds it from the store's
// current listing. Mutations and reads are serialized so no search observes
// a half-applied mutation.
package library

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/iishyfishyy/medsearch/internal/docstore"
	"github.com/iishyfishyy/medsearch/internal/textindex"
)

// Result is a document matched by a search
type Result struct {
	docstore.Document
	Similarity float64 `json:"similarity"`
}

// Manager coordinates storage, indexing and search of documents
type Manager struct {
	store  docstore.Store
	opts   textindex.Options
	logger *slog.Logger

	mu sync.RWMutex // writers: add/delete; readers: get/list/search/stats

	buildMu   sync.Mutex // guards the fields below
	index     *textindex.Index
	docs      []docstore.Document // snapshot the index was built from
	indexTime time.Time
}

// Option configures a Manager
type Option func(*Manager)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithIndexOptions overrides the vectorization settings
func WithIndexOptions(opts textindex.Options) Option {
	return func(m *Manager) {
		m.opts = opts
	}
}

// NewManager creates a manager over store
func NewManager(store docstore.Store, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		opts:   textindex.DefaultOptions(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("component", "library")

	return m
}

// AddDocument stores a new document and invalidates the index
func (m *Manager) AddDocument(ctx context.Context, filename, content, docType string, metadata map[string]any) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, err := m.store.Add(ctx, docstore.NewDocument{
		Filename:     filename,
		Content:      content,
		DocumentType: docType,
		Metadata:     metadata,
	})
	if err != nil {
		m.logger.Error("add document failed", "filename", filename, "error", err)
		return 0, fmt.Errorf("failed to add document %q: %w", filename, err)
	}

	m.invalidate()
	m.logger.Info("document added", "id", id, "filename", filename, "type", docType)

	return id, nil
}

// GetDocument returns a document by ID, or docstore.ErrNotFound
func (m *Manager) GetDocument(ctx context.Context, id int64) (*docstore.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.store.Get(ctx, id)
}

// ListDocuments returns all documents, newest first
func (m *Manager) ListDocuments(ctx context.Context) ([]docstore.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.store.List(ctx)
}

// DeleteDocument removes a document. It reports false if the ID did not exist.
func (m *Manager) DeleteDocument(ctx context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ok, err := m.store.Delete(ctx, id)
	if err != nil {
		m.logger.Error("delete document failed", "id", id, "error", err)
		return false, fmt.Errorf("failed to delete document %d: %w", id, err)
	}
	if !ok {
		m.logger.Debug("delete of unknown document", "id", id)
		return false, nil
	}

	m.invalidate()
	m.logger.Info("document deleted", "id", id)

	return true, nil
}

// DocumentStats aggregates counts over the stored documents
func (m *Manager) DocumentStats(ctx context.Context) (docstore.Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.store.Stats(ctx)
}

// SearchDocuments returns up to topK documents most similar to query, best
// first. Search is best effort: failures are logged and yield no results.
func (m *Manager) SearchDocuments(ctx context.Context, query string, topK int) []Result {
	m.mu.RLock()
	defer m.mu.RUnlock()

	idx, docs, err := m.currentIndex(ctx)
	if err != nil {
		m.logger.Warn("search degraded: index unavailable", "error", err)
		return []Result{}
	}

	hits, err := idx.Search(query, topK)
	if err != nil {
		if errors.Is(err, textindex.ErrEmptyVocabulary) {
			m.logger.Debug("search degraded: no usable terms", "query", query)
		} else {
			m.logger.Warn("search degraded", "query", query, "error", err)
		}
		return []Result{}
	}

	results := make([]Result, 0, len(hits))
	for _, hit := range hits {
		doc := docs[hit.Position]
		// The snapshot is shared across searches
		doc.Metadata = docstore.CloneMetadata(doc.Metadata)
		results = append(results, Result{
			Document:   doc,
			Similarity: hit.Score,
		})
	}

	m.logger.Debug("search complete", "query", query, "corpus", idx.Len(), "results", len(results))

	return results
}

// Reindex rebuilds the index eagerly from the current store contents
func (m *Manager) Reindex(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	m.buildMu.Lock()
	m.index = nil
	m.buildMu.Unlock()

	_, _, err := m.currentIndex(ctx)
	return err
}

// IndexTime returns when the cached index was built, or the zero time if
// there is none
func (m *Manager) IndexTime() time.Time {
	m.buildMu.Lock()
	defer m.buildMu.Unlock()

	if m.index == nil {
		return time.Time{}
	}
	return m.indexTime
}

// currentIndex returns the cached index, building it first if a mutation
// dropped it. Callers hold m.mu.
func (m *Manager) currentIndex(ctx context.Context) (*textindex.Index, []docstore.Document, error) {
	m.buildMu.Lock()
	defer m.buildMu.Unlock()

	if m.index != nil {
		return m.index, m.docs, nil
	}

	start := time.Now()
	docs, err := m.store.List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load corpus: %w", err)
	}

	entries := make([]textindex.Entry, len(docs))
	for i, doc := range docs {
		entries[i] = textindex.Entry{ID: doc.ID, Text: doc.Content}
	}

	m.index = textindex.Build(entries, m.opts)
	m.docs = docs
	m.indexTime = time.Now()

	m.logger.Debug("index rebuilt", "documents", len(docs), "took", time.Since(start))

	return m.index, m.docs, nil
}

// invalidate drops the cached index. Callers hold the write lock.
func (m *Manager) invalidate() {
	m.buildMu.Lock()
	defer m.buildMu.Unlock()

	m.index = nil
	m.docs = nil
}
