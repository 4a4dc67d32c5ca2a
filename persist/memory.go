package persist

import (
	"context"
	"sort"
	"sync"
)

// MemoryMedium is an in-process Medium. It is the default archive target and
// the backend of choice for tests.
type MemoryMedium struct {
	mu          sync.RWMutex
	collections map[string]map[string]Document
}

// NewMemoryMedium creates an empty in-memory medium.
func NewMemoryMedium() *MemoryMedium {
	return &MemoryMedium{collections: make(map[string]map[string]Document)}
}

// Write upserts docs into the collection.
func (m *MemoryMedium) Write(ctx context.Context, collection string, docs []Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	coll, ok := m.collections[collection]
	if !ok {
		coll = make(map[string]Document)
		m.collections[collection] = coll
	}
	for _, doc := range docs {
		body := make([]byte, len(doc.Body))
		copy(body, doc.Body)
		coll[doc.ID] = Document{ID: doc.ID, Body: body}
	}
	return nil
}

// Read returns every document in the collection, ordered by ID.
func (m *MemoryMedium) Read(ctx context.Context, collection string) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	coll := m.collections[collection]
	out := make([]Document, 0, len(coll))
	for _, doc := range coll {
		body := make([]byte, len(doc.Body))
		copy(body, doc.Body)
		out = append(out, Document{ID: doc.ID, Body: body})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Delete removes the identified documents.
func (m *MemoryMedium) Delete(ctx context.Context, collection string, ids []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	coll := m.collections[collection]
	for _, id := range ids {
		delete(coll, id)
	}
	return nil
}
