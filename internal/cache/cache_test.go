package cache

import (
	"context"
	"testing"
)

func TestKeyNamespacing(t *testing.T) {
	if got := Key("publication", "0x01-0x02"); got != "lens/publication/0x01-0x02" {
		t.Fatalf("unexpected key: %s", got)
	}
	if got := Key("profile", "0x01"); got != "lens/profile/0x01" {
		t.Fatalf("unexpected key: %s", got)
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, ok, err := store.Get(ctx, "lens/profile/0x01"); err != nil || ok {
		t.Fatalf("expected miss on empty store, ok=%v err=%v", ok, err)
	}

	if err := store.Set(ctx, "lens/profile/0x01", `{"id":"0x01"}`); err != nil {
		t.Fatalf("set: %v", err)
	}
	value, ok, err := store.Get(ctx, "lens/profile/0x01")
	if err != nil || !ok {
		t.Fatalf("expected hit, ok=%v err=%v", ok, err)
	}
	if value != `{"id":"0x01"}` {
		t.Fatalf("unexpected value: %s", value)
	}

	has, err := store.Has(ctx, "lens/profile/0x01")
	if err != nil || !has {
		t.Fatalf("expected key to exist, has=%v err=%v", has, err)
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", store.Len())
	}
}

func TestMemoryStoreRejectsEmptyKey(t *testing.T) {
	store := NewMemoryStore()
	if err := store.Set(context.Background(), "", "value"); err == nil {
		t.Fatal("expected error for empty key")
	}
}
