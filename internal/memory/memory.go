package memory

import (
	"context"

	"github.com/google/uuid"

	xerrors "OpenLens-Chain/internal/errors"
)

// Record 是一条长期记忆，对应网络上的一篇发布。
// 主键由 (发布 ID, 智能体 ID) 确定性推导，保证同一篇发布
// 在同一个智能体名下只会存在一条记录。
type Record struct {
	ID            string `json:"id"`
	AgentID       string `json:"agent_id"`
	UserID        string `json:"user_id"`
	RoomID        string `json:"room_id"`
	PublicationID string `json:"publication_id"`
	InReplyTo     string `json:"in_reply_to,omitempty"`
	Text          string `json:"text"`
	Source        string `json:"source"`
	Action        string `json:"action,omitempty"`
	CreatedAt     int64  `json:"created_at"`
}

// Participant 描述某个会话房间内的参与者。
type Participant struct {
	UserID      string
	RoomID      string
	DisplayName string
	Source      string
}

// Repository 定义长期记忆存储的统一接口。
// Create 对相同 ID 幂等：记录已存在时不产生第二条。
type Repository interface {
	GetByID(ctx context.Context, id string) (*Record, error)
	Create(ctx context.Context, record *Record) error
	EnsureParticipant(ctx context.Context, userID, roomID, displayName, source string) error
	Close() error
}

const (
	CodeRecordNotFound xerrors.Code = "MEMORY_RECORD_NOT_FOUND"
	CodeMemoryStorage  xerrors.Code = "MEMORY_STORAGE_FAILED"
)

// ErrRecordNotFound 表示指定的记忆不存在。
var ErrRecordNotFound = xerrors.New(CodeRecordNotFound, "memory record not found")

func init() {
	xerrors.Register(CodeRecordNotFound, xerrors.Attributes{
		Message:   "memory record not found",
		Severity:  xerrors.SeverityInfo,
		Retryable: false,
		Alert:     false,
	})
	xerrors.Register(CodeMemoryStorage, xerrors.Attributes{
		Message:   "memory storage failure",
		Severity:  xerrors.SeverityCritical,
		Retryable: true,
		Alert:     true,
	})
}

// RecordID 由发布 ID 与智能体 ID 确定性推导出记忆主键。
func RecordID(publicationID, agentID string) string {
	return deterministicUUID(publicationID + "-" + agentID)
}

// UserID 由远端用户标识推导出本地用户 ID。
func UserID(remoteID string) string {
	return deterministicUUID(remoteID)
}

// RoomID 由任意会话标识推导出房间 ID。
func RoomID(conversationID string) string {
	return deterministicUUID(conversationID)
}

func deterministicUUID(seed string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed)).String()
}
