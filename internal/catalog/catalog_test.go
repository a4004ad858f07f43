package catalog_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/noxistence/noxistence/internal/apperr"
	"github.com/noxistence/noxistence/internal/catalog"
	"github.com/noxistence/noxistence/internal/models"
	"github.com/noxistence/noxistence/internal/testutil"
)

func sampleRecord(id string, uploaded time.Time) models.Record {
	return models.Record{
		ID:         id,
		Kind:       models.KindCreature,
		Name:       "Duskmaw",
		World:      "Hollowfen",
		Img:        "https://cdn.example/duskmaw.png",
		AssetID:    "noxistence/duskmaw",
		UploadDate: uploaded,
		Width:      512,
		Height:     384,
	}
}

func TestUpsertAndGet(t *testing.T) {
	for name, repo := range testutil.Repos(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			uploaded := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

			want := sampleRecord("creature_1", uploaded)
			if _, err := repo.Upsert(ctx, want); err != nil {
				t.Fatalf("Upsert: %v", err)
			}

			got, err := repo.Get(ctx, "creature_1")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if got.Name != want.Name || got.World != want.World || got.Img != want.Img {
				t.Errorf("got %+v, want %+v", got, want)
			}
			if !got.UploadDate.Equal(uploaded) {
				t.Errorf("uploadDate = %v, want %v", got.UploadDate, uploaded)
			}
			if got.Width != 512 || got.Height != 384 {
				t.Errorf("dimensions = %dx%d, want 512x384", got.Width, got.Height)
			}
		})
	}
}

func TestUpsertMergesExisting(t *testing.T) {
	for name, repo := range testutil.Repos(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			uploaded := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

			if _, err := repo.Upsert(ctx, sampleRecord("creature_1", uploaded)); err != nil {
				t.Fatalf("Upsert: %v", err)
			}

			// A partial update: only the name changes, plus a later
			// upload date that must not replace the original one.
			got, err := repo.Upsert(ctx, models.Record{
				ID:         "creature_1",
				Kind:       models.KindCreature,
				Name:       "Duskmaw Elder",
				UploadDate: uploaded.Add(24 * time.Hour),
			})
			if err != nil {
				t.Fatalf("Upsert update: %v", err)
			}

			if got.Name != "Duskmaw Elder" {
				t.Errorf("name = %q, want Duskmaw Elder", got.Name)
			}
			if got.World != "Hollowfen" {
				t.Errorf("world = %q, want Hollowfen (empty field must not clear)", got.World)
			}
			if got.Img == "" {
				t.Error("img cleared by partial update")
			}
			if !got.UploadDate.Equal(uploaded) {
				t.Errorf("uploadDate = %v, want original %v", got.UploadDate, uploaded)
			}
		})
	}
}

func TestUpsertRequiresID(t *testing.T) {
	for name, repo := range testutil.Repos(t) {
		t.Run(name, func(t *testing.T) {
			_, err := repo.Upsert(context.Background(), models.Record{Name: "nameless"})
			if !errors.Is(err, apperr.ErrValidation) {
				t.Errorf("err = %v, want ErrValidation", err)
			}
		})
	}
}

func TestListOrdersByUploadDateDesc(t *testing.T) {
	for name, repo := range testutil.Repos(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

			for i, id := range []string{"creature_a", "creature_b", "creature_c"} {
				rec := sampleRecord(id, base.Add(time.Duration(i)*time.Hour))
				if _, err := repo.Upsert(ctx, rec); err != nil {
					t.Fatalf("Upsert %s: %v", id, err)
				}
			}

			recs, err := repo.List(ctx, models.KindCreature)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(recs) != 3 {
				t.Fatalf("len = %d, want 3", len(recs))
			}
			if recs[0].ID != "creature_c" || recs[2].ID != "creature_a" {
				t.Errorf("order = %s, %s, %s; want newest first", recs[0].ID, recs[1].ID, recs[2].ID)
			}
		})
	}
}

func TestListFiltersByKind(t *testing.T) {
	for name, repo := range testutil.Repos(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			uploaded := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

			creature := sampleRecord("creature_1", uploaded)
			art := sampleRecord("art_1", uploaded)
			art.Kind = models.KindArt

			for _, rec := range []models.Record{creature, art} {
				if _, err := repo.Upsert(ctx, rec); err != nil {
					t.Fatalf("Upsert: %v", err)
				}
			}

			arts, err := repo.List(ctx, models.KindArt)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(arts) != 1 || arts[0].ID != "art_1" {
				t.Errorf("art listing = %+v, want only art_1", arts)
			}
		})
	}
}

func TestDelete(t *testing.T) {
	for name, repo := range testutil.Repos(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			uploaded := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

			if _, err := repo.Upsert(ctx, sampleRecord("creature_1", uploaded)); err != nil {
				t.Fatalf("Upsert: %v", err)
			}

			removed, err := repo.Delete(ctx, "creature_1")
			if err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if removed.ID != "creature_1" {
				t.Errorf("removed id = %q", removed.ID)
			}

			if _, err := repo.Get(ctx, "creature_1"); !errors.Is(err, apperr.ErrNotFound) {
				t.Errorf("Get after delete = %v, want ErrNotFound", err)
			}
			if _, err := repo.Delete(ctx, "creature_1"); !errors.Is(err, apperr.ErrNotFound) {
				t.Errorf("second Delete = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestGetUnknownID(t *testing.T) {
	for name, repo := range testutil.Repos(t) {
		t.Run(name, func(t *testing.T) {
			_, err := repo.Get(context.Background(), "creature_missing")
			if !errors.Is(err, apperr.ErrNotFound) {
				t.Errorf("err = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestJSONFileStripsLegacyTags(t *testing.T) {
	dir := t.TempDir()
	raw := `[
		{"id": "creature_1", "name": "Duskmaw", "img": "img/duskmaw.png", "tags": ["swamp", "elder"]},
		{"id": "creature_2", "name": "Palefin", "img": "img/palefin.png"}
	]`
	path := filepath.Join(dir, "creatures.json")
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	repo, err := catalog.NewJSONFile(dir)
	if err != nil {
		t.Fatalf("NewJSONFile: %v", err)
	}
	defer repo.Close()

	recs, err := repo.List(context.Background(), models.KindCreature)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("len = %d, want 2", len(recs))
	}

	// The read must have rewritten the document without the tags field.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) == raw {
		t.Error("document not rewritten")
	}
	if strings.Contains(string(data), `"tags"`) {
		t.Errorf("tags field survived rewrite: %s", data)
	}

	// A second read of the cleaned document must not rewrite again.
	before, _ := os.Stat(path)
	if _, err := repo.List(context.Background(), models.KindCreature); err != nil {
		t.Fatalf("second List: %v", err)
	}
	after, _ := os.Stat(path)
	if !after.ModTime().Equal(before.ModTime()) {
		t.Error("cleaned document rewritten on second read")
	}
}
