package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

type Op string

const (
	OpList   Op = "list"
	OpPut    Op = "put"
	OpDelete Op = "delete"
)

type memObject struct {
	body []byte
	meta Metadata
}

type failure struct {
	remaining int // <0 fails forever
}

// Memory is an in-process Store. It supports failure injection so callers
// can exercise partial-failure paths.
type Memory struct {
	mu       sync.Mutex
	objects  map[string]memObject
	failures map[string]*failure
	calls    map[Op]int
}

func NewMemory() *Memory {
	return &Memory{
		objects:  make(map[string]memObject),
		failures: make(map[string]*failure),
		calls:    make(map[Op]int),
	}
}

// Seed stores an object without counting it as a Put call.
func (m *Memory) Seed(key string, body []byte, cacheControl string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = memObject{body: append([]byte(nil), body...), meta: Metadata{CacheControl: cacheControl}}
}

// FailOn makes the next times calls of op on key fail. times < 0 fails
// every call. For OpList the key is the listed prefix.
func (m *Memory) FailOn(op Op, key string, times int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[string(op)+":"+key] = &failure{remaining: times}
}

// Get returns the stored body and metadata for key.
func (m *Memory) Get(key string) ([]byte, Metadata, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[key]
	return obj.body, obj.meta, ok
}

// Keys returns every stored key in sorted order.
func (m *Memory) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Calls returns how many times op was invoked, failed calls included.
func (m *Memory) Calls(op Op) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// injected must be called with m.mu held.
func (m *Memory) injected(op Op, key string) error {
	m.calls[op]++
	f, ok := m.failures[string(op)+":"+key]
	if !ok || f.remaining == 0 {
		return nil
	}
	if f.remaining > 0 {
		f.remaining--
	}
	return fmt.Errorf("%w: %s %s", ErrInjected, op, key)
}

func (m *Memory) List(ctx context.Context, prefix string) ([]Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected(OpList, prefix); err != nil {
		return nil, err
	}

	var out []Object
	for k, obj := range m.objects {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		fp, size, _ := Fingerprint(bytes.NewReader(obj.body))
		out = append(out, Object{Key: k, Fingerprint: fp, Size: size, CacheControl: obj.meta.CacheControl})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *Memory) Put(ctx context.Context, key string, body io.Reader, size int64, meta Metadata) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected(OpPut, key); err != nil {
		return err
	}
	m.objects[key] = memObject{body: data, meta: meta}
	return nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected(OpDelete, key); err != nil {
		return err
	}
	if _, ok := m.objects[key]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	delete(m.objects, key)
	return nil
}
