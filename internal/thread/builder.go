package thread

import (
	"context"
	stdErrors "errors"
	"log/slog"

	"OpenLens-Chain/internal/lens"
	"OpenLens-Chain/internal/memory"
	"OpenLens-Chain/pkg/logger"
)

// defaultMaxDepth 是回溯祖先链的最大深度，
// 作为 visited 集合之外的第二道防线。
const defaultMaxDepth = 64

// PublicationSource 定义回溯父帖所需的读取能力。
type PublicationSource interface {
	Publication(ctx context.Context, id string) (*lens.Publication, error)
}

// Builder 通过递归解析父帖引用重建会话线索，
// 并保证线索中的每个节点都在长期记忆中恰好落库一次。
type Builder struct {
	source   PublicationSource
	memory   memory.Repository
	agentID  string
	maxDepth int
	log      *slog.Logger
}

// Option 定义可选的 Builder 配置。
type Option func(*Builder)

// WithMaxDepth 覆盖祖先链回溯的最大深度。
func WithMaxDepth(depth int) Option {
	return func(b *Builder) {
		if depth > 0 {
			b.maxDepth = depth
		}
	}
}

// NewBuilder 创建线索构建器。
func NewBuilder(source PublicationSource, repo memory.Repository, agentID string, opts ...Option) *Builder {
	b := &Builder{
		source:   source,
		memory:   repo,
		agentID:  agentID,
		maxDepth: defaultMaxDepth,
		log:      logger.Named("thread"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// Build 从叶子发布出发回溯祖先链，返回按时间正序（根帖在前）
// 的会话线索。visited 集合保证环状父引用下仍能终止；
// 父帖取不到时在当前位置截断而不是整体失败。
func (b *Builder) Build(ctx context.Context, leaf lens.Publication) ([]lens.Publication, error) {
	visited := make(map[string]bool)
	var thread []lens.Publication

	current := &leaf
	for depth := 0; current != nil && depth < b.maxDepth; depth++ {
		if visited[current.ID] {
			break
		}
		visited[current.ID] = true

		if err := b.ensureMemory(ctx, *current); err != nil {
			return nil, err
		}

		thread = append([]lens.Publication{*current}, thread...)

		if current.ParentID == "" {
			break
		}
		parent, err := b.source.Publication(ctx, current.ParentID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			b.log.Debug("父帖不可达，线索在此截断",
				slog.String("publication_id", current.ID),
				slog.String("parent_id", current.ParentID),
			)
			break
		}
		current = parent
	}
	return thread, nil
}

// ensureMemory 保证该发布在长期记忆中存在记录，重复调用幂等。
func (b *Builder) ensureMemory(ctx context.Context, pub lens.Publication) error {
	recordID := memory.RecordID(pub.ID, b.agentID)
	if _, err := b.memory.GetByID(ctx, recordID); err == nil {
		return nil
	} else if !stdErrors.Is(err, memory.ErrRecordNotFound) {
		return err
	}

	b.log.Debug("为发布创建记忆", slog.String("publication_id", pub.ID))
	roomID := recordID
	displayName := pub.AuthorDisplayName
	if displayName == "" {
		displayName = pub.AuthorHandle
	}
	userID := memory.UserID(pub.AuthorID)
	if err := b.memory.EnsureParticipant(ctx, userID, roomID, displayName, memory.SourceLens); err != nil {
		return err
	}
	return b.memory.Create(ctx, memory.FromPublication(pub, b.agentID, roomID))
}
