package assetstore

import (
	"context"
	"testing"
	"time"
)

func TestMemoryUploadDeduplicates(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	first, err := m.Upload(ctx, []byte("pixels"), "noxistence")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	second, err := m.Upload(ctx, []byte("pixels"), "noxistence")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if first.RemoteID != second.RemoteID {
		t.Errorf("identical bytes produced distinct ids: %s vs %s", first.RemoteID, second.RemoteID)
	}
	if m.Len() != 1 {
		t.Errorf("Len = %d, want 1", m.Len())
	}

	// Same bytes in a different folder are a different object.
	other, err := m.Upload(ctx, []byte("pixels"), "noxistence/art")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if other.RemoteID == first.RemoteID {
		t.Error("folder not part of the object key")
	}
}

func TestMemoryDeleteIdempotent(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	a, err := m.Upload(ctx, []byte("pixels"), "noxistence")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if err := m.Delete(ctx, a.RemoteID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := m.Delete(ctx, a.RemoteID); err != nil {
		t.Errorf("second Delete = %v, want nil", err)
	}
	if m.Len() != 0 {
		t.Errorf("Len = %d, want 0", m.Len())
	}
}

func TestMemoryListByFolder(t *testing.T) {
	m := NewMemory()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	m.Put(Asset{RemoteID: "noxistence/aaa", CreatedAt: base.Add(2 * time.Hour)})
	m.Put(Asset{RemoteID: "noxistence/bbb", CreatedAt: base})
	m.Put(Asset{RemoteID: "other/ccc", CreatedAt: base.Add(time.Hour)})

	out, err := m.ListByFolder(context.Background(), "noxistence/")
	if err != nil {
		t.Fatalf("ListByFolder: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("len = %d, want 2", len(out))
	}
	if out[0].RemoteID != "noxistence/bbb" || out[1].RemoteID != "noxistence/aaa" {
		t.Errorf("order = %s, %s; want oldest first", out[0].RemoteID, out[1].RemoteID)
	}
}

func TestMemoryListEmptyPrefix(t *testing.T) {
	m := NewMemory()
	m.Put(Asset{RemoteID: "a"})
	m.Put(Asset{RemoteID: "b"})

	out, err := m.ListByFolder(context.Background(), "")
	if err != nil {
		t.Fatalf("ListByFolder: %v", err)
	}
	if len(out) != 2 {
		t.Errorf("len = %d, want 2", len(out))
	}
}
