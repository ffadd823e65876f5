package store

import (
	"context"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"sync"

	"github.com/mitchellh/mapstructure"

	"github.com/qepting91/reddit-conversations/internal/domain"
)

// Memory is an in-process store. It backs dry runs in mock mode and stands in
// for the real backends in tests, so it also records how it was called.
type Memory struct {
	mu      sync.Mutex
	docs    map[string]map[string]any
	queries int
	commits []int

	failQuery  error
	failCommit error
}

// NewMemory returns an empty in-memory store.
func NewMemory(posts ...domain.Post) *Memory {
	m := &Memory{docs: make(map[string]map[string]any)}
	for _, p := range posts {
		m.docs[p.ID] = p.Fields()
	}
	return m
}

// Put stores raw fields under id, bypassing validation.
func (m *Memory) Put(id string, fields map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[id] = maps.Clone(fields)
}

// Raw returns a copy of the stored fields for id.
func (m *Memory) Raw(id string) (map[string]any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	return maps.Clone(d), ok
}

// Len reports how many documents are stored.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.docs)
}

// QueryCount reports how many Query calls were made.
func (m *Memory) QueryCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queries
}

// Commits returns the size of every successful commit, in order.
func (m *Memory) Commits() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.commits)
}

// FailQueries makes every following Query return err. Nil clears it.
func (m *Memory) FailQueries(err error) {
	m.mu.Lock()
	m.failQuery = err
	m.mu.Unlock()
}

// FailCommits makes every following Commit return err. Nil clears it.
func (m *Memory) FailCommits(err error) {
	m.mu.Lock()
	m.failCommit = err
	m.mu.Unlock()
}

func (m *Memory) Query(ctx context.Context, q Query) ([]domain.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.queries++
	if m.failQuery != nil {
		return nil, m.failQuery
	}

	ids := slices.Sorted(maps.Keys(m.docs))
	var out []domain.Post
	for _, id := range ids {
		if q.StartAfter != "" && id <= q.StartAfter {
			continue
		}
		doc := m.docs[id]
		if !matches(doc, q.Filters) {
			continue
		}
		p, err := decode(id, doc)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

func (m *Memory) Get(ctx context.Context, id string) (domain.Post, error) {
	if err := ctx.Err(); err != nil {
		return domain.Post{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.docs[id]
	if !ok {
		return domain.Post{}, ErrNotFound
	}
	return decode(id, doc)
}

// Commit applies ops all-or-nothing. Updating a missing document fails the
// whole batch, as it does in Firestore.
func (m *Memory) Commit(ctx context.Context, ops []Op) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkBatch(ops); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failCommit != nil {
		return m.failCommit
	}

	next := maps.Clone(m.docs)
	for _, op := range ops {
		switch op.Kind {
		case OpUpdate:
			doc, ok := next[op.ID]
			if !ok {
				return fmt.Errorf("update %q: %w", op.ID, ErrNotFound)
			}
			doc = maps.Clone(doc)
			maps.Copy(doc, op.Fields)
			next[op.ID] = doc
		case OpSet:
			next[op.ID] = maps.Clone(op.Fields)
		case OpDelete:
			delete(next, op.ID)
		default:
			return fmt.Errorf("unsupported operation %s", op.Kind)
		}
	}
	m.docs = next
	m.commits = append(m.commits, len(ops))
	return nil
}

func (m *Memory) Close() error { return nil }

func matches(doc map[string]any, filters []Filter) bool {
	for _, f := range filters {
		v, ok := doc[f.Field]
		if !ok || !reflect.DeepEqual(v, f.Value) {
			return false
		}
	}
	return true
}

func decode(id string, doc map[string]any) (domain.Post, error) {
	var p domain.Post
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           &p,
	})
	if err != nil {
		return domain.Post{}, err
	}
	if err := dec.Decode(doc); err != nil {
		return domain.Post{}, fmt.Errorf("%w %q: %v", ErrInvalidDocument, id, err)
	}
	if p.ID == "" {
		p.ID = id
	}
	return validate(p)
}
