package remote

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore is an in-process Store with the same query semantics as
// RedisStore. It backs tests and redis-less development setups.
type MemoryStore struct {
	mu   sync.RWMutex
	cols map[string]map[string]map[string]any
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{cols: make(map[string]map[string]map[string]any)}
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, collection, id string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.cols[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return &Document{ID: id, Data: copyData(data)}, nil
}

// Set implements Store.
func (s *MemoryStore) Set(_ context.Context, collection, id string, data map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cols[collection] == nil {
		s.cols[collection] = make(map[string]map[string]any)
	}
	s.cols[collection][id] = copyData(data)
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.cols[collection], id)
	return nil
}

// Query implements Store.
func (s *MemoryStore) Query(_ context.Context, q Query) ([]Document, *Cursor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []Document
	for id, data := range s.cols[q.Collection] {
		if matchesFilters(data, q.Filters) {
			matched = append(matched, Document{ID: id, Data: copyData(data)})
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		a := toFloat64(matched[i].Data[q.OrderBy])
		b := toFloat64(matched[j].Data[q.OrderBy])
		if a == b {
			// Deterministic order for equal scores.
			if q.Descending {
				return matched[i].ID > matched[j].ID
			}
			return matched[i].ID < matched[j].ID
		}
		if q.Descending {
			return a > b
		}
		return a < b
	})

	start := 0
	if q.StartAfter != nil {
		for i, doc := range matched {
			if doc.ID == q.StartAfter.id {
				start = i + 1
				break
			}
		}
	}
	if start >= len(matched) {
		return nil, nil, nil
	}

	page := matched[start:]
	if q.Limit > 0 && len(page) > q.Limit {
		page = page[:q.Limit]
	}
	if len(page) == 0 {
		return nil, nil, nil
	}

	return page, &Cursor{id: page[len(page)-1].ID}, nil
}

// Len returns the number of documents in a collection.
func (s *MemoryStore) Len(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cols[collection])
}

func matchesFilters(data map[string]any, filters []Filter) bool {
	for _, f := range filters {
		if fmt.Sprintf("%v", data[f.Field]) != fmt.Sprintf("%v", f.Value) {
			return false
		}
	}
	return true
}

func copyData(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}
