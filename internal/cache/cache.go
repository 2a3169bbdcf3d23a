package cache

import (
	"context"
	"fmt"
	"sync"

	xerrors "OpenLens-Chain/internal/errors"
)

// Store 定义远端对象缓存的统一接口。键按 "lens/<kind>/<id>" 组织，
// 值是对象的 JSON 序列化结果。远端对象一旦创建即不可变，
// 因此缓存条目没有过期时间。
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Has(ctx context.Context, key string) (bool, error)
	Close() error
}

// Key 构造带命名空间的缓存键。
func Key(kind, id string) string {
	return fmt.Sprintf("lens/%s/%s", kind, id)
}

// MemoryStore 以内存方式保存缓存条目，进程生命周期内有效。
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewMemoryStore 创建 MemoryStore。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]string)}
}

// Get 实现 Store 接口。
func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.entries[key]
	return value, ok, nil
}

// Set 写入缓存条目。
func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	if key == "" {
		return xerrors.New(xerrors.CodeInvalidArgument, "缓存键不能为空")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
	return nil
}

// Has 判断键是否存在。
func (m *MemoryStore) Has(_ context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.entries[key]
	return ok, nil
}

// Len 返回当前缓存条目数量。
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Close 对内存缓存无需操作。
func (m *MemoryStore) Close() error {
	return nil
}

var _ Store = (*MemoryStore)(nil)
