package memory

import (
	"context"
	"sync"
	"time"

	xerrors "OpenLens-Chain/internal/errors"
)

// MemoryRepository 以内存方式保存记忆，主要用于测试与单机运行。
type MemoryRepository struct {
	mu           sync.RWMutex
	records      map[string]*Record
	participants map[string]Participant
}

// NewMemoryRepository 创建 MemoryRepository。
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		records:      make(map[string]*Record),
		participants: make(map[string]Participant),
	}
}

// GetByID 返回指定记忆，不存在时返回 ErrRecordNotFound。
func (m *MemoryRepository) GetByID(_ context.Context, id string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.records[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	clone := *record
	return &clone, nil
}

// Create 写入记忆。相同 ID 已存在时静默返回，保证幂等。
func (m *MemoryRepository) Create(_ context.Context, record *Record) error {
	if record == nil {
		return xerrors.New(xerrors.CodeInvalidArgument, "record 不能为空")
	}
	if record.ID == "" {
		return xerrors.New(xerrors.CodeInvalidArgument, "记忆 ID 不能为空")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[record.ID]; ok {
		return nil
	}
	clone := *record
	if clone.CreatedAt == 0 {
		clone.CreatedAt = time.Now().Unix()
	}
	m.records[record.ID] = &clone
	return nil
}

// EnsureParticipant 记录房间参与者，重复调用幂等。
func (m *MemoryRepository) EnsureParticipant(_ context.Context, userID, roomID, displayName, source string) error {
	if userID == "" || roomID == "" {
		return xerrors.New(xerrors.CodeInvalidArgument, "参与者的用户与房间 ID 不能为空")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := userID + "/" + roomID
	if _, ok := m.participants[key]; ok {
		return nil
	}
	m.participants[key] = Participant{
		UserID:      userID,
		RoomID:      roomID,
		DisplayName: displayName,
		Source:      source,
	}
	return nil
}

// CountRecords 返回记录数量，测试用。
func (m *MemoryRepository) CountRecords() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// Close 对内存存储无需操作。
func (m *MemoryRepository) Close() error {
	return nil
}

var _ Repository = (*MemoryRepository)(nil)
