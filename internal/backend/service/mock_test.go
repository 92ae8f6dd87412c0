package service

import (
	"context"
	"io"
	"log/slog"
	"reflect"
	"sort"
	"sync"
	"time"

	berrors "github.com/abgdnv/storefront/internal/backend/errors"
	"github.com/abgdnv/storefront/internal/backend/store"
	"github.com/abgdnv/storefront/pkg/messaging"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// mockCollection is an in-memory store.Collection. When err is set every call returns it.
// Filters compare the JSON-named fields by looking them up through match.
type mockCollection[T any] struct {
	mu      sync.Mutex
	next    int64
	records map[int64]store.Record[T]
	match   func(doc T, filter store.Filter) bool
	err     error
	finds   int
}

func newMockCollection[T any](match func(T, store.Filter) bool) *mockCollection[T] {
	return &mockCollection[T]{records: map[int64]store.Record[T]{}, match: match}
}

func (m *mockCollection[T]) NextID(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	m.next++
	return m.next, nil
}

func (m *mockCollection[T]) Insert(_ context.Context, id int64, doc T) (*store.Record[T], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rec := store.Record[T]{ID: id, Version: 1, Doc: doc, CreatedAt: now, UpdatedAt: now}
	m.records[id] = rec
	return &rec, nil
}

func (m *mockCollection[T]) FindByID(_ context.Context, id int64) (*store.Record[T], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	rec, ok := m.records[id]
	if !ok {
		return nil, berrors.ErrDocumentNotFound
	}
	return &rec, nil
}

func (m *mockCollection[T]) Find(_ context.Context, filter store.Filter, offset, limit int) ([]store.Record[T], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finds++
	if m.err != nil {
		return nil, m.err
	}
	ids := make([]int64, 0, len(m.records))
	for id := range m.records {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]store.Record[T], 0)
	for _, id := range ids {
		rec := m.records[id]
		if len(filter) > 0 && (m.match == nil || !m.match(rec.Doc, filter)) {
			continue
		}
		out = append(out, rec)
	}
	if offset >= len(out) {
		return []store.Record[T]{}, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockCollection[T]) Count(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	return int64(len(m.records)), nil
}

func (m *mockCollection[T]) Replace(_ context.Context, id int64, version int32, doc T) (*store.Record[T], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	rec, ok := m.records[id]
	if !ok {
		return nil, berrors.ErrDocumentNotFound
	}
	if rec.Version != version {
		return nil, berrors.ErrOptimisticLock
	}
	rec.Version++
	rec.Doc = doc
	m.records[id] = rec
	return &rec, nil
}

func (m *mockCollection[T]) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.records[id]; !ok {
		return berrors.ErrDocumentNotFound
	}
	delete(m.records, id)
	return nil
}

// fieldMatch matches filters whose keys are json tags of T's exported fields.
func fieldMatch[T any](doc T, filter store.Filter) bool {
	v := reflect.ValueOf(doc)
	t := v.Type()
	for key, want := range filter {
		found := false
		for i := 0; i < t.NumField(); i++ {
			tag := t.Field(i).Tag.Get("json")
			if tag == key || (len(tag) > len(key) && tag[:len(key)+1] == key+",") {
				found = reflect.DeepEqual(v.Field(i).Interface(), want)
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

type mockCache struct {
	data        map[string][]byte
	getErr      error
	setErr      error
	invalidated int
}

func newMockCache() *mockCache {
	return &mockCache{data: map[string][]byte{}}
}

func (c *mockCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *mockCache) Set(_ context.Context, key string, value []byte) error {
	if c.setErr != nil {
		return c.setErr
	}
	c.data[key] = value
	return nil
}

func (c *mockCache) Invalidate(_ context.Context) error {
	c.invalidated++
	c.data = map[string][]byte{}
	return nil
}

type mockPublisher struct {
	events []messaging.Event
	err    error
}

func (p *mockPublisher) Publish(_ context.Context, event messaging.Event) error {
	p.events = append(p.events, event)
	return p.err
}
