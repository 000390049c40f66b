package docstore

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory document store. It keeps the same ID, ordering
// and metadata semantics as SQLiteStore but nothing survives the process.
type MemoryStore struct {
	docs   map[int64]Document
	lastID int64
	now    func() time.Time
	mu     sync.RWMutex
}

// NewMemoryStore creates a new in-memory document store
func NewMemoryStore(opts ...Option) *MemoryStore {
	o := buildOptions(opts)
	return &MemoryStore{
		docs: make(map[int64]Document),
		now:  o.now,
	}
}

// Add stores a document and assigns it the next ID
func (m *MemoryStore) Add(ctx context.Context, doc NewDocument) (int64, error) {
	// Round-trip metadata through JSON so readers see what SQLite would return
	metadata, err := roundTripMetadata(doc.Metadata)
	if err != nil {
		return 0, storageErr("encode metadata", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastID++
	id := m.lastID
	m.docs[id] = Document{
		ID:           id,
		Filename:     doc.Filename,
		Content:      doc.Content,
		DocumentType: doc.DocumentType,
		CreatedAt:    m.now().UTC(),
		Metadata:     metadata,
	}

	return id, nil
}

// Get returns a document by ID
func (m *MemoryStore) Get(ctx context.Context, id int64) (*Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	doc.Metadata = CloneMetadata(doc.Metadata)
	return &doc, nil
}

// List returns all documents, newest first
func (m *MemoryStore) List(ctx context.Context) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	docs := make([]Document, 0, len(m.docs))
	for _, doc := range m.docs {
		doc.Metadata = CloneMetadata(doc.Metadata)
		docs = append(docs, doc)
	}

	sort.Slice(docs, func(i, j int) bool {
		return newer(docs[i], docs[j])
	})

	return docs, nil
}

// Delete removes a document by ID
func (m *MemoryStore) Delete(ctx context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.docs[id]; !ok {
		return false, nil
	}
	delete(m.docs, id)

	return true, nil
}

// Stats aggregates document counts
func (m *MemoryStore) Stats(ctx context.Context) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cutoff := m.now().Add(-RecentWindow)
	stats := Stats{
		TotalDocuments:  len(m.docs),
		DocumentsByType: make(map[string]int),
	}
	for _, doc := range m.docs {
		stats.DocumentsByType[typeBucket(doc.DocumentType)]++
		if doc.CreatedAt.After(cutoff) {
			stats.RecentDocuments++
		}
	}

	return stats, nil
}

// Count returns the number of stored documents
func (m *MemoryStore) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs), nil
}

// Close is a no-op
func (m *MemoryStore) Close() error {
	return nil
}

func roundTripMetadata(metadata map[string]any) (map[string]any, error) {
	data, err := encodeMetadata(metadata)
	if err != nil {
		return nil, err
	}
	return decodeMetadata(data)
}

// encodeMetadata serializes metadata, writing an empty object for nil
func encodeMetadata(metadata map[string]any) (string, error) {
	if metadata == nil {
		return "{}", nil
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeMetadata(data string) (map[string]any, error) {
	metadata := map[string]any{}
	if data == "" {
		return metadata, nil
	}
	if err := json.Unmarshal([]byte(data), &metadata); err != nil {
		return nil, err
	}
	if metadata == nil {
		metadata = map[string]any{}
	}
	return metadata, nil
}

var _ Store = (*MemoryStore)(nil)
