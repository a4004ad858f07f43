package syncengine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/noxistence/noxistence/internal/assetstore"
	"github.com/noxistence/noxistence/internal/models"
	"github.com/noxistence/noxistence/internal/testutil"
)

// failingStore errors on every listing, simulating an unreachable CDN.
type failingStore struct {
	assetstore.Store
	calls int
}

func (f *failingStore) ListByFolder(context.Context, string) ([]assetstore.Asset, error) {
	f.calls++
	return nil, errors.New("connection refused")
}

func TestStrategiesOrder(t *testing.T) {
	sts := Strategies("noxistence_uploads", []string{"noxistence", "", "creatures"})

	want := []Strategy{
		{Name: "upload-preset", Prefix: "noxistence_uploads/"},
		{Name: "folder:noxistence", Prefix: "noxistence/"},
		{Name: "folder:creatures", Prefix: "creatures/"},
		{Name: "recent-uploads", Prefix: ""},
	}
	if len(sts) != len(want) {
		t.Fatalf("len = %d, want %d", len(sts), len(want))
	}
	for i := range want {
		if sts[i] != want[i] {
			t.Errorf("strategy[%d] = %+v, want %+v", i, sts[i], want[i])
		}
	}
}

func TestStrategiesAlwaysEndWithRecentUploads(t *testing.T) {
	sts := Strategies("", nil)
	if len(sts) != 1 || sts[0].Name != "recent-uploads" || sts[0].Prefix != "" {
		t.Errorf("strategies = %+v", sts)
	}
}

func TestMergeEmptyRemoteIsIdentity(t *testing.T) {
	local := []models.Record{
		{ID: "creature_1", Name: "Duskmaw"},
		{ID: "creature_2", Name: "Palefin"},
	}

	merged, added := Merge(local, nil)
	if added != 0 {
		t.Errorf("added = %d, want 0", added)
	}
	if len(merged) != 2 || merged[0].ID != "creature_1" || merged[1].ID != "creature_2" {
		t.Errorf("merged = %+v", merged)
	}
}

func TestMergeLocalWinsOnConflict(t *testing.T) {
	local := []models.Record{{ID: "creature_1", Name: "Local Name", World: "Hollowfen"}}
	remote := []models.Record{
		{ID: "creature_1", Name: "Remote Name"},
		{ID: "creature_2", Name: "Palefin"},
	}

	merged, added := Merge(local, remote)
	if added != 1 {
		t.Errorf("added = %d, want 1", added)
	}
	if len(merged) != 2 {
		t.Fatalf("len = %d, want 2", len(merged))
	}
	if merged[0].Name != "Local Name" || merged[0].World != "Hollowfen" {
		t.Errorf("local record rewritten: %+v", merged[0])
	}
	if merged[1].ID != "creature_2" {
		t.Errorf("remote record not appended: %+v", merged[1])
	}
}

func TestSyncStrategyFallback(t *testing.T) {
	store := assetstore.NewMemory()
	created := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	store.Put(assetstore.Asset{
		RemoteID:     "noxistence/duskmaw",
		PublicURL:    "https://cdn.example/duskmaw.png",
		OriginalName: "duskmaw",
		CreatedAt:    created,
	})

	c := testutil.TestCache(t)
	// The preset prefix matches nothing; the folder strategy must win.
	engine := New(store, c, Strategies("empty_preset", []string{"noxistence"}), testutil.Logger())

	report, merged := engine.Sync(context.Background())
	if report.RemoteCount != 1 || report.NewCount != 1 || report.TotalCount != 1 {
		t.Errorf("report = %+v", report)
	}
	if len(merged) != 1 {
		t.Fatalf("merged len = %d", len(merged))
	}

	rec := merged[0]
	if rec.ID != "noxistence/duskmaw" || rec.AssetID != "noxistence/duskmaw" {
		t.Errorf("ids = %s / %s", rec.ID, rec.AssetID)
	}
	if rec.Name != "duskmaw" {
		t.Errorf("name = %q", rec.Name)
	}
	if rec.World != models.UnknownWorld {
		t.Errorf("world = %q, want %q", rec.World, models.UnknownWorld)
	}
	if !rec.UploadDate.Equal(created) {
		t.Errorf("uploadDate = %v", rec.UploadDate)
	}
}

func TestSyncNamelessAssetGetsPlaceholder(t *testing.T) {
	store := assetstore.NewMemory()
	store.Put(assetstore.Asset{RemoteID: "noxistence/x", PublicURL: "u"})

	c := testutil.TestCache(t)
	engine := New(store, c, Strategies("", []string{"noxistence"}), testutil.Logger())

	_, merged := engine.Sync(context.Background())
	if len(merged) != 1 || merged[0].Name != models.UnnamedCreature {
		t.Errorf("merged = %+v", merged)
	}
}

func TestSyncAllStrategiesFail(t *testing.T) {
	store := &failingStore{}
	c := testutil.TestCache(t)

	local := []models.Record{{ID: "creature_1", Name: "Duskmaw", Img: "img/a.png"}}
	if err := c.SaveRecords(local); err != nil {
		t.Fatal(err)
	}

	engine := New(store, c, Strategies("preset", []string{"a", "b"}), testutil.Logger())
	report, merged := engine.Sync(context.Background())

	if store.calls != 4 {
		t.Errorf("strategies tried = %d, want 4", store.calls)
	}
	if report.RemoteCount != 0 || report.NewCount != 0 {
		t.Errorf("report = %+v, want zero remote counts", report)
	}
	if report.LocalCount != 1 || report.TotalCount != 1 {
		t.Errorf("report = %+v", report)
	}
	if len(merged) != 1 || merged[0].ID != "creature_1" {
		t.Errorf("merged = %+v, want local cache intact", merged)
	}
}

func TestSyncPersistsMergedSet(t *testing.T) {
	store := assetstore.NewMemory()
	store.Put(assetstore.Asset{RemoteID: "noxistence/a", PublicURL: "u", OriginalName: "a"})

	c := testutil.TestCache(t)
	engine := New(store, c, Strategies("", []string{"noxistence"}), testutil.Logger())

	engine.Sync(context.Background())

	cached := c.Records()
	if len(cached) != 1 || cached[0].ID != "noxistence/a" {
		t.Errorf("cache after sync = %+v", cached)
	}
}
