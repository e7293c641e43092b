package vectorindex

import (
	"context"
	"errors"
	"testing"

	"github.com/snobbots/chatbot-backend/internal/entity"
	"go.uber.org/zap"
)

func record(id string, values []float32, text string) entity.VectorRecord {
	return entity.VectorRecord{
		ID:       id,
		Values:   values,
		Metadata: entity.VectorMetadata{ChunkText: text, Source: "raw_text", TenantID: "t1"},
	}
}

func TestMockQueryMissingIndexIsEmpty(t *testing.T) {
	m := NewMockConnector(zap.NewNop())

	matches, err := m.Query(context.Background(), "nobody", "my_bot", []float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("Query() on missing index returned %d matches, want 0", len(matches))
	}
}

func TestMockQueryEmptyNamespaceIsEmpty(t *testing.T) {
	m := NewMockConnector(zap.NewNop())
	ctx := context.Background()

	if err := m.EnsureIndex(ctx, "t1"); err != nil {
		t.Fatal(err)
	}
	matches, err := m.Query(ctx, "t1", "untouched", []float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("Query() on empty namespace returned %d matches, want 0", len(matches))
	}
}

func TestMockCosineRanking(t *testing.T) {
	m := NewMockConnector(zap.NewNop())
	ctx := context.Background()

	if err := m.EnsureIndex(ctx, "t1"); err != nil {
		t.Fatal(err)
	}
	records := []entity.VectorRecord{
		record("a", []float32{1, 0}, "exact match"),
		record("b", []float32{0.9, 0.1}, "close match"),
		record("c", []float32{0, 1}, "orthogonal"),
		record("d", []float32{0.5, 0.5}, "diagonal"),
	}
	if err := m.Upsert(ctx, "t1", "my_bot", records); err != nil {
		t.Fatal(err)
	}

	matches, err := m.Query(ctx, "t1", "my_bot", []float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(matches) != 3 {
		t.Fatalf("Query() returned %d matches, want 3", len(matches))
	}

	wantOrder := []string{"a", "b", "d"}
	for i, want := range wantOrder {
		if matches[i].ID != want {
			t.Errorf("matches[%d].ID = %q, want %q", i, matches[i].ID, want)
		}
	}
	for i := 0; i < len(matches)-1; i++ {
		if matches[i].Score < matches[i+1].Score {
			t.Errorf("matches not in descending score order at %d: %f < %f",
				i, matches[i].Score, matches[i+1].Score)
		}
	}
}

func TestMockNamespaceIsolation(t *testing.T) {
	m := NewMockConnector(zap.NewNop())
	ctx := context.Background()

	if err := m.EnsureIndex(ctx, "t1"); err != nil {
		t.Fatal(err)
	}
	if err := m.Upsert(ctx, "t1", "bot_a", []entity.VectorRecord{record("a1", []float32{1, 0}, "a")}); err != nil {
		t.Fatal(err)
	}
	if err := m.Upsert(ctx, "t1", "bot_b", []entity.VectorRecord{record("b1", []float32{1, 0}, "b")}); err != nil {
		t.Fatal(err)
	}

	matches, err := m.Query(ctx, "t1", "bot_a", []float32{1, 0}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 || matches[0].ID != "a1" {
		t.Errorf("bot_a query leaked records: %+v", matches)
	}

	if err := m.DeleteNamespace(ctx, "t1", "bot_a"); err != nil {
		t.Fatalf("DeleteNamespace() error = %v", err)
	}
	if got := m.Count("t1", "bot_a"); got != 0 {
		t.Errorf("bot_a count after delete = %d, want 0", got)
	}
	if got := m.Count("t1", "bot_b"); got != 1 {
		t.Errorf("bot_b count after deleting bot_a = %d, want 1", got)
	}
}

func TestMockUpsertOverwritesByID(t *testing.T) {
	m := NewMockConnector(zap.NewNop())
	ctx := context.Background()

	if err := m.EnsureIndex(ctx, "t1"); err != nil {
		t.Fatal(err)
	}
	if err := m.Upsert(ctx, "t1", "my_bot", []entity.VectorRecord{record("x", []float32{1, 0}, "old")}); err != nil {
		t.Fatal(err)
	}
	if err := m.Upsert(ctx, "t1", "my_bot", []entity.VectorRecord{record("x", []float32{0, 1}, "new")}); err != nil {
		t.Fatal(err)
	}

	if got := m.Count("t1", "my_bot"); got != 1 {
		t.Fatalf("count after overwrite = %d, want 1", got)
	}
	matches, _ := m.Query(ctx, "t1", "my_bot", []float32{0, 1}, 1)
	if matches[0].Metadata.ChunkText != "new" {
		t.Errorf("overwritten record text = %q, want %q", matches[0].Metadata.ChunkText, "new")
	}
}

func TestMockDeleteMissingIndex(t *testing.T) {
	m := NewMockConnector(zap.NewNop())

	err := m.DeleteNamespace(context.Background(), "nobody", "my_bot")
	if !errors.Is(err, entity.ErrIndexNotFound) {
		t.Errorf("DeleteNamespace() error = %v, want ErrIndexNotFound", err)
	}
}
