package store

import (
	"context"
	"encoding/json"
	"sync"
)

// Memory is an in-process Store. It keeps the whole tree in one map and is
// meant for tests and local runs.
type Memory struct {
	mu   sync.RWMutex
	root any
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Read(_ context.Context, path string) (json.RawMessage, bool, error) {
	segs, err := Split(path)
	if err != nil {
		return nil, false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := getAt(m.root, segs)
	if !ok {
		return nil, false, nil
	}
	raw, err := encode(v)
	if err != nil {
		return nil, false, wrap("read", path, err)
	}
	return raw, true, nil
}

func (m *Memory) Write(_ context.Context, path string, value any) error {
	segs, err := Split(path)
	if err != nil {
		return err
	}
	v, err := normalize(value)
	if err != nil {
		return wrap("write", path, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.root = setAt(m.root, segs, v)
	return nil
}

func (m *Memory) Patch(_ context.Context, path string, partial map[string]any) error {
	segs, err := Split(path)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	root, err := mergeAt(m.root, segs, partial)
	if err != nil {
		return wrap("patch", path, err)
	}
	m.root = root
	return nil
}

func (m *Memory) Delete(ctx context.Context, path string) error {
	return m.Write(ctx, path, nil)
}
