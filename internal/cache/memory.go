package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

type memoryEntry struct {
	data    []byte
	expires time.Time
}

// Memory - кэш в памяти процесса для запуска без Redis и для тестов
type Memory struct {
	mu     sync.Mutex
	items  map[string]memoryEntry
	groups map[string]map[string]struct{}
	now    func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		items:  make(map[string]memoryEntry),
		groups: make(map[string]map[string]struct{}),
		now:    time.Now,
	}
}

func (m *Memory) Get(_ context.Context, key string, dest any) (bool, error) {
	m.mu.Lock()
	entry, ok := m.items[key]
	if ok && !entry.expires.IsZero() && !m.now().Before(entry.expires) {
		delete(m.items, key)
		ok = false
	}
	m.mu.Unlock()

	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(entry.data, dest); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return true, nil
}

func (m *Memory) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	entry := memoryEntry{data: data}
	if ttl > 0 {
		entry.expires = m.now().Add(ttl)
	}

	m.mu.Lock()
	m.items[key] = entry
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.items, k)
	}
	return nil
}

func (m *Memory) Track(_ context.Context, group, key string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.groups[group] == nil {
		m.groups[group] = make(map[string]struct{})
	}
	m.groups[group][key] = struct{}{}
	return nil
}

func (m *Memory) Flush(_ context.Context, group string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.groups[group] {
		delete(m.items, k)
	}
	delete(m.groups, group)
	return nil
}
