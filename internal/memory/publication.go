package memory

import (
	"time"

	"OpenLens-Chain/internal/lens"
)

// SourceLens 是发布网络来源标记。
const SourceLens = "lens"

// FromPublication 将一篇发布转换为记忆记录。
// 记录主键与房间 ID 都由 (发布 ID, 智能体 ID) 推导，
// 保证重复处理同一篇发布时命中同一条记录。
func FromPublication(pub lens.Publication, agentID, roomID string) *Record {
	record := &Record{
		ID:            RecordID(pub.ID, agentID),
		AgentID:       agentID,
		UserID:        UserID(pub.AuthorID),
		RoomID:        roomID,
		PublicationID: pub.ID,
		Text:          pub.Text,
		Source:        SourceLens,
		CreatedAt:     time.Now().Unix(),
	}
	if pub.ParentID != "" {
		record.InReplyTo = RecordID(pub.ParentID, agentID)
	}
	return record
}
