package events

import (
	"context"
	"time"
)

// Kind 区分事件类型。
type Kind string

const (
	KindPost  Kind = "post"
	KindReply Kind = "reply"
)

// Event 描述一次已确认的发布，供后续的智能体动作处理消费。
type Event struct {
	Kind          Kind      `json:"kind"`
	PublicationID string    `json:"publication_id"`
	RoomID        string    `json:"room_id"`
	InReplyTo     string    `json:"in_reply_to,omitempty"`
	Text          string    `json:"text"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Handler 处理一条事件。
type Handler func(ctx context.Context, event Event) error

// Bus 定义发布事件总线的统一接口。
type Bus interface {
	Publish(ctx context.Context, event Event) error
	Consume(ctx context.Context, handler Handler) error
	Close() error
}
