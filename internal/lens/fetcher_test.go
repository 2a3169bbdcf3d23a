package lens

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestCollectPagesStopsAtLimit(t *testing.T) {
	requests := 0
	fetch := func(_ context.Context, cursor string) ([]int, string, error) {
		requests++
		page := make([]int, 10)
		return page, fmt.Sprintf("cursor-%d", requests), nil
	}

	items, err := CollectPages(context.Background(), 25, fetch)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(items) < 25 || len(items) > 35 {
		t.Fatalf("expected between 25 and 35 items, got %d", len(items))
	}
	if requests != 3 {
		t.Fatalf("expected exactly 3 page requests, got %d", requests)
	}
}

func TestCollectPagesStopsWhenExhausted(t *testing.T) {
	pages := [][]string{{"a", "b"}, {"c"}}
	requests := 0
	fetch := func(_ context.Context, cursor string) ([]string, string, error) {
		page := pages[requests]
		requests++
		if requests == len(pages) {
			return page, "", nil
		}
		return page, "next", nil
	}

	items, err := CollectPages(context.Background(), 100, fetch)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if requests != 2 {
		t.Fatalf("expected 2 page requests, got %d", requests)
	}
}

func TestCollectPagesPassesCursorThrough(t *testing.T) {
	var cursors []string
	fetch := func(_ context.Context, cursor string) ([]int, string, error) {
		cursors = append(cursors, cursor)
		if len(cursors) == 3 {
			return []int{1}, "", nil
		}
		return []int{1}, fmt.Sprintf("c%d", len(cursors)), nil
	}

	if _, err := CollectPages(context.Background(), 100, fetch); err != nil {
		t.Fatalf("collect: %v", err)
	}
	want := []string{"", "c1", "c2"}
	for i, cursor := range want {
		if cursors[i] != cursor {
			t.Fatalf("request %d used cursor %q, want %q", i, cursors[i], cursor)
		}
	}
}

func TestCollectPagesPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	fetch := func(_ context.Context, cursor string) ([]int, string, error) {
		if cursor == "" {
			return []int{1}, "next", nil
		}
		return nil, "", boom
	}

	if _, err := CollectPages(context.Background(), 100, fetch); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}
