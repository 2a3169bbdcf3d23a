package memory

import (
	"context"
	"errors"
	"testing"

	"OpenLens-Chain/internal/lens"
)

func TestRecordIDDeterministic(t *testing.T) {
	a := RecordID("0x01-0x02", "agent")
	b := RecordID("0x01-0x02", "agent")
	if a != b {
		t.Fatalf("record id must be deterministic: %s != %s", a, b)
	}
	if a == RecordID("0x01-0x03", "agent") {
		t.Fatal("different publications must map to different record ids")
	}
	if a == RecordID("0x01-0x02", "other") {
		t.Fatal("different agents must map to different record ids")
	}
}

func TestMemoryRepositoryCreateIdempotent(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	record := &Record{
		ID:            RecordID("0x01-0x02", "agent"),
		AgentID:       "agent",
		PublicationID: "0x01-0x02",
		Text:          "first",
	}
	if err := repo.Create(ctx, record); err != nil {
		t.Fatalf("create: %v", err)
	}

	duplicate := *record
	duplicate.Text = "second"
	if err := repo.Create(ctx, &duplicate); err != nil {
		t.Fatalf("duplicate create: %v", err)
	}
	if repo.CountRecords() != 1 {
		t.Fatalf("expected 1 record, got %d", repo.CountRecords())
	}

	stored, err := repo.GetByID(ctx, record.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Text != "first" {
		t.Fatalf("duplicate create must not overwrite, got %q", stored.Text)
	}
}

func TestMemoryRepositoryGetMissing(t *testing.T) {
	repo := NewMemoryRepository()
	_, err := repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestMemoryRepositoryEnsureParticipantIdempotent(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := repo.EnsureParticipant(ctx, "user", "room", "Aria", SourceLens); err != nil {
			t.Fatalf("ensure participant: %v", err)
		}
	}
	if len(repo.participants) != 1 {
		t.Fatalf("expected 1 participant, got %d", len(repo.participants))
	}
}

func TestFromPublicationLinksParent(t *testing.T) {
	pub := lens.Publication{
		ID:       "0x05-0x10",
		AuthorID: "0x09",
		Text:     "a reply",
		ParentID: "0x05-0x0f",
	}
	record := FromPublication(pub, "agent", "room")
	if record.ID != RecordID("0x05-0x10", "agent") {
		t.Fatalf("unexpected record id: %s", record.ID)
	}
	if record.InReplyTo != RecordID("0x05-0x0f", "agent") {
		t.Fatalf("unexpected in_reply_to: %s", record.InReplyTo)
	}
	if record.UserID != UserID("0x09") {
		t.Fatalf("unexpected user id: %s", record.UserID)
	}

	root := lens.Publication{ID: "0x05-0x11", AuthorID: "0x09", Text: "a post"}
	if FromPublication(root, "agent", "room").InReplyTo != "" {
		t.Fatal("root publication must not carry in_reply_to")
	}
}
