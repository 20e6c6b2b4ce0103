package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/feedup/feedup-backend/pkg/logger"
)

// IndexSpec declares a queryable ordering over a collection: documents are
// indexed in a sorted set per distinct combination of filter values, scored by
// the numeric OrderBy field. Queries must match a declared spec exactly.
type IndexSpec struct {
	Filters []string
	OrderBy string
}

// RedisStore implements Store on Redis. Documents are stored as JSON strings;
// each IndexSpec maintains sorted sets used for ordered cursor pagination.
type RedisStore struct {
	client  *redis.Client
	prefix  string
	indexes map[string][]IndexSpec
}

// NewRedisStore creates a RedisStore with the declared per-collection indexes.
func NewRedisStore(client *redis.Client, prefix string, indexes map[string][]IndexSpec) *RedisStore {
	return &RedisStore{
		client:  client,
		prefix:  prefix,
		indexes: indexes,
	}
}

func (s *RedisStore) docKey(collection, id string) string {
	return fmt.Sprintf("%s:%s:doc:%s", s.prefix, collection, id)
}

// indexKey builds the sorted-set key for a spec and the filter values taken
// from the document (or query) payload.
func (s *RedisStore) indexKey(collection string, spec IndexSpec, valueOf func(field string) any) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s:%s:ix:%s", s.prefix, collection, spec.OrderBy)
	for _, field := range spec.Filters {
		fmt.Fprintf(&b, ":%s=%v", field, valueOf(field))
	}
	return b.String()
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	raw, err := s.client.Get(ctx, s.docKey(collection, id)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document %s/%s: %w", collection, id, err)
	}

	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("malformed document %s/%s: %w", collection, id, err)
	}
	return &Document{ID: id, Data: data}, nil
}

// Set implements Store. The payload fully overwrites any previous document,
// and every declared index of the collection is updated in one pipeline.
func (s *RedisStore) Set(ctx context.Context, collection, id string, data map[string]any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal document %s/%s: %w", collection, id, err)
	}

	// Previous payload is needed to drop the document from index sets whose
	// filter values changed. A failed read is treated as "no previous doc".
	old, _ := s.Get(ctx, collection, id)

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.docKey(collection, id), raw, 0)

	for _, spec := range s.indexes[collection] {
		newKey := s.indexKey(collection, spec, func(f string) any { return data[f] })
		if old != nil {
			oldKey := s.indexKey(collection, spec, func(f string) any { return old.Data[f] })
			if oldKey != newKey {
				pipe.ZRem(ctx, oldKey, id)
			}
		}
		pipe.ZAdd(ctx, newKey, redis.Z{
			Score:  toFloat64(data[spec.OrderBy]),
			Member: id,
		})
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to set document %s/%s: %w", collection, id, err)
	}
	return nil
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, collection, id string) error {
	old, err := s.Get(ctx, collection, id)
	if err != nil {
		if err == ErrNotFound {
			return nil
		}
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.docKey(collection, id))
	for _, spec := range s.indexes[collection] {
		key := s.indexKey(collection, spec, func(f string) any { return old.Data[f] })
		pipe.ZRem(ctx, key, id)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete document %s/%s: %w", collection, id, err)
	}
	return nil
}

// Query implements Store using rank-based pagination over the matching index.
func (s *RedisStore) Query(ctx context.Context, q Query) ([]Document, *Cursor, error) {
	spec, ok := s.matchSpec(q)
	if !ok {
		return nil, nil, fmt.Errorf("no index on %s for order-by %q with filters %v", q.Collection, q.OrderBy, filterFields(q.Filters))
	}

	values := make(map[string]any, len(q.Filters))
	for _, f := range q.Filters {
		values[f.Field] = f.Value
	}
	key := s.indexKey(q.Collection, spec, func(f string) any { return values[f] })

	var start int64
	if q.StartAfter != nil {
		rank, err := s.rank(ctx, key, q.StartAfter.id, q.Descending)
		if err != nil {
			return nil, nil, err
		}
		if rank >= 0 {
			start = rank + 1
		}
	}

	stop := int64(-1)
	if q.Limit > 0 {
		stop = start + int64(q.Limit) - 1
	}

	var ids []string
	var err error
	if q.Descending {
		ids, err = s.client.ZRevRange(ctx, key, start, stop).Result()
	} else {
		ids, err = s.client.ZRange(ctx, key, start, stop).Result()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query %s: %w", q.Collection, err)
	}
	if len(ids) == 0 {
		return nil, nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.docKey(q.Collection, id)
	}
	raws, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load documents for %s: %w", q.Collection, err)
	}

	docs := make([]Document, 0, len(ids))
	for i, raw := range raws {
		str, ok := raw.(string)
		if !ok {
			// Index member without a backing document; skip it.
			logger.Logger.Warn().
				Str("collection", q.Collection).
				Str("id", ids[i]).
				Msg("Dangling index entry")
			continue
		}
		var data map[string]any
		if err := json.Unmarshal([]byte(str), &data); err != nil {
			logger.Logger.Warn().
				Err(err).
				Str("collection", q.Collection).
				Str("id", ids[i]).
				Msg("Skipping malformed document")
			continue
		}
		docs = append(docs, Document{ID: ids[i], Data: data})
	}

	return docs, &Cursor{id: ids[len(ids)-1]}, nil
}

// rank returns the position of the member in the index order, or -1 when the
// member is no longer part of the set (the window then restarts from the top).
func (s *RedisStore) rank(ctx context.Context, key, member string, descending bool) (int64, error) {
	var rank int64
	var err error
	if descending {
		rank, err = s.client.ZRevRank(ctx, key, member).Result()
	} else {
		rank, err = s.client.ZRank(ctx, key, member).Result()
	}
	if err == redis.Nil {
		return -1, nil
	}
	if err != nil {
		return -1, fmt.Errorf("failed to resolve cursor: %w", err)
	}
	return rank, nil
}

func (s *RedisStore) matchSpec(q Query) (IndexSpec, bool) {
	want := filterFields(q.Filters)
	for _, spec := range s.indexes[q.Collection] {
		if spec.OrderBy != q.OrderBy {
			continue
		}
		have := append([]string(nil), spec.Filters...)
		sort.Strings(have)
		if len(have) == len(want) && equalStrings(have, want) {
			return spec, true
		}
	}
	return IndexSpec{}, false
}

func filterFields(filters []Filter) []string {
	fields := make([]string, len(filters))
	for i, f := range filters {
		fields[i] = f.Field
	}
	sort.Strings(fields)
	return fields
}

func equalStrings(a, b []string) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
