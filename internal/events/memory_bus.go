package events

import (
	"context"
	"log/slog"

	xerrors "OpenLens-Chain/internal/errors"
	"OpenLens-Chain/pkg/logger"
)

// MemoryBus 使用带缓冲的 channel 在进程内传递事件。
type MemoryBus struct {
	events chan Event
	log    *slog.Logger
}

// NewMemoryBus 创建容量为 size 的内存事件总线。
func NewMemoryBus(size int) *MemoryBus {
	if size <= 0 {
		size = 256
	}
	return &MemoryBus{
		events: make(chan Event, size),
		log:    logger.Named("events"),
	}
}

// Publish 投递事件。缓冲已满时丢弃并告警，发布路径不因此阻塞。
func (b *MemoryBus) Publish(_ context.Context, event Event) error {
	select {
	case b.events <- event:
		return nil
	default:
		b.log.Warn("事件缓冲已满，事件被丢弃",
			slog.String("kind", string(event.Kind)),
			slog.String("publication_id", event.PublicationID),
		)
		return xerrors.New(xerrors.CodeInvalidArgument, "事件缓冲已满")
	}
}

// Consume 顺序消费事件直到上下文取消。单条事件的处理失败
// 只记录日志，不中断消费循环。
func (b *MemoryBus) Consume(ctx context.Context, handler Handler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-b.events:
			if err := handler(ctx, event); err != nil {
				b.log.Error("处理事件失败",
					slog.Any("error", err),
					slog.String("publication_id", event.PublicationID),
				)
			}
		}
	}
}

// Close 对内存总线无需操作。
func (b *MemoryBus) Close() error {
	return nil
}

var _ Bus = (*MemoryBus)(nil)
