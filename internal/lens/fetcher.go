package lens

import "context"

// PageFunc 拉取一页数据：输入游标（空串表示第一页），
// 返回该页条目与下一页游标（空串表示远端已取尽）。
type PageFunc[T any] func(ctx context.Context, cursor string) ([]T, string, error)

// CollectPages 以游标驱动的方式累积分页数据，直到远端取尽
// 或累积数量达到 limit。返回值可能超出 limit 至多一页，
// 需要精确上界的调用方自行截断。
//
// 远端若永远返回同一个游标会导致循环不收敛，这里不做防护，
// 由上层的遍历深度约束兜底。
func CollectPages[T any](ctx context.Context, limit int, fetch PageFunc[T]) ([]T, error) {
	var collected []T
	cursor := ""
	for {
		items, next, err := fetch(ctx, cursor)
		if err != nil {
			return nil, err
		}
		collected = append(collected, items...)
		if next == "" || len(collected) >= limit {
			return collected, nil
		}
		cursor = next
	}
}
