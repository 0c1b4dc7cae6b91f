package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps the whole document tree in process memory. It backs the
// test suites and the "memory" dev backend; semantics mirror the hosted
// database (Update with nil deletes the key, Get of a missing path is nil).
type MemoryStore struct {
	mu   sync.RWMutex
	root map[string]any
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{root: make(map[string]any)}
}

func (m *MemoryStore) Get(ctx context.Context, path string) (any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	node, ok := m.lookup(path)
	if !ok {
		return nil, nil
	}
	return deepCopy(node), nil
}

func (m *MemoryStore) Set(ctx context.Context, path string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	normalized, err := normalize(value)
	if err != nil {
		return err
	}
	m.setNode(path, normalized)
	return nil
}

func (m *MemoryStore) Update(ctx context.Context, path string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	node, ok := m.lookup(path)
	target, isMap := node.(map[string]any)
	if !ok || !isMap {
		target = make(map[string]any)
	}
	for k, v := range fields {
		if v == nil {
			delete(target, k)
			continue
		}
		normalized, err := normalize(v)
		if err != nil {
			return err
		}
		target[k] = normalized
	}
	m.setNode(path, target)
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	segs := splitPath(path)
	if len(segs) == 0 {
		m.root = make(map[string]any)
		return nil
	}
	parent, ok := m.lookup(strings.Join(segs[:len(segs)-1], "/"))
	if !ok {
		return nil
	}
	if pm, isMap := parent.(map[string]any); isMap {
		delete(pm, segs[len(segs)-1])
	}
	return nil
}

func (m *MemoryStore) Push(ctx context.Context, path string, value any) (string, error) {
	key := "-" + strings.ReplaceAll(uuid.New().String(), "-", "")[:20]
	if err := m.Set(ctx, path+"/"+key, value); err != nil {
		return "", err
	}
	return key, nil
}

func (m *MemoryStore) QueryEqual(ctx context.Context, path, child string, value any) (map[string]any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	node, ok := m.lookup(path)
	if !ok {
		return map[string]any{}, nil
	}
	collection, isMap := node.(map[string]any)
	if !isMap {
		return map[string]any{}, nil
	}

	want := fmt.Sprint(value)
	out := make(map[string]any)
	for key, raw := range collection {
		doc, isDoc := raw.(map[string]any)
		if !isDoc {
			continue
		}
		if fmt.Sprint(doc[child]) == want {
			out[key] = deepCopy(doc)
		}
	}
	return out, nil
}

// lookup walks the tree without copying. Callers hold the lock.
func (m *MemoryStore) lookup(path string) (any, bool) {
	var node any = m.root
	for _, seg := range splitPath(path) {
		cur, ok := node.(map[string]any)
		if !ok {
			return nil, false
		}
		node, ok = cur[seg]
		if !ok {
			return nil, false
		}
	}
	return node, true
}

// setNode writes value at path, creating intermediate maps. Callers hold the
// lock.
func (m *MemoryStore) setNode(path string, value any) {
	segs := splitPath(path)
	if len(segs) == 0 {
		if root, ok := value.(map[string]any); ok {
			m.root = root
		}
		return
	}
	cur := m.root
	for _, seg := range segs[:len(segs)-1] {
		next, ok := cur[seg].(map[string]any)
		if !ok {
			next = make(map[string]any)
			cur[seg] = next
		}
		cur = next
	}
	cur[segs[len(segs)-1]] = value
}

// normalize round-trips the value through JSON so the tree only ever holds
// map[string]any / []any / float64 / string / bool, same as a decoded
// database response.
func normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("store value not serializable: %w", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			out[k] = deepCopy(child)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, child := range t {
			out[i] = deepCopy(child)
		}
		return out
	default:
		return v
	}
}
