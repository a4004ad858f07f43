package cache

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/noxistence/noxistence/internal/models"
)

func testCache(t *testing.T) (*Cache, string) {
	t.Helper()
	dir := t.TempDir()
	c, err := New(dir, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c, dir
}

func TestRecordsRoundTrip(t *testing.T) {
	c, _ := testCache(t)

	if got := c.Records(); got != nil {
		t.Errorf("fresh cache Records = %v, want nil", got)
	}

	recs := []models.Record{
		{ID: "creature_1", Name: "Duskmaw", Img: "img/duskmaw.png"},
		{ID: "creature_2", Name: "Palefin", Img: "img/palefin.png", AssetID: "noxistence/palefin"},
	}
	if err := c.SaveRecords(recs); err != nil {
		t.Fatalf("SaveRecords: %v", err)
	}

	got := c.Records()
	if len(got) != 2 || got[0].ID != "creature_1" {
		t.Errorf("Records = %+v", got)
	}
}

func TestCorruptRecordsDocumentLoadsEmpty(t *testing.T) {
	c, dir := testCache(t)

	path := filepath.Join(dir, RecordsKey+".json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if got := c.Records(); got != nil {
		t.Errorf("corrupt document Records = %v, want nil", got)
	}

	// A save must recover the cache.
	if err := c.SaveRecords([]models.Record{{ID: "creature_1", Name: "x", Img: "y"}}); err != nil {
		t.Fatalf("SaveRecords: %v", err)
	}
	if got := c.Records(); len(got) != 1 {
		t.Errorf("Records after recovery = %+v", got)
	}
}

func TestImportRecordsDropsInvalid(t *testing.T) {
	c, _ := testCache(t)

	in := `[
		{"id": "x", "img": "y"},
		{"id": "", "img": "z", "name": "n"},
		{"id": "creature_1", "img": "img/a.png", "name": "Duskmaw"}
	]`
	got, err := c.ImportRecords(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ImportRecords: %v", err)
	}
	if len(got) != 1 || got[0].ID != "creature_1" {
		t.Errorf("imported = %+v, want only creature_1", got)
	}
}

func TestImportRecordsAllInvalidLeavesCacheUntouched(t *testing.T) {
	c, _ := testCache(t)

	seed := []models.Record{{ID: "creature_1", Name: "Duskmaw", Img: "img/a.png"}}
	if err := c.SaveRecords(seed); err != nil {
		t.Fatalf("SaveRecords: %v", err)
	}

	in := `[{"id": "x", "img": "y"}, {"id": "", "img": "z", "name": "n"}]`
	if _, err := c.ImportRecords(strings.NewReader(in)); err == nil {
		t.Fatal("import with no valid records succeeded")
	}

	got := c.Records()
	if len(got) != 1 || got[0].ID != "creature_1" {
		t.Errorf("cache modified by failed import: %+v", got)
	}
}

func TestImportRecordsRejectsNonArray(t *testing.T) {
	c, _ := testCache(t)
	if _, err := c.ImportRecords(strings.NewReader(`{"id": "x"}`)); err == nil {
		t.Error("non-array import succeeded")
	}
}

func TestExportRecords(t *testing.T) {
	c, _ := testCache(t)

	var buf bytes.Buffer
	if err := c.ExportRecords(&buf); err != nil {
		t.Fatalf("ExportRecords: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "[]" {
		t.Errorf("empty export = %q, want []", got)
	}

	if err := c.SaveRecords([]models.Record{{ID: "creature_1", Name: "Duskmaw", Img: "img/a.png"}}); err != nil {
		t.Fatal(err)
	}
	buf.Reset()
	if err := c.ExportRecords(&buf); err != nil {
		t.Fatalf("ExportRecords: %v", err)
	}
	if !strings.Contains(buf.String(), `"creature_1"`) {
		t.Errorf("export missing record: %s", buf.String())
	}
}

func TestLayoutRoundTrip(t *testing.T) {
	c, _ := testCache(t)

	var out map[string]any
	if c.LoadLayout(&out) {
		t.Error("fresh cache reported a layout snapshot")
	}

	in := map[string]any{"backgroundColor": "#112233"}
	if err := c.SaveLayout(in); err != nil {
		t.Fatalf("SaveLayout: %v", err)
	}
	if !c.LoadLayout(&out) {
		t.Fatal("saved layout not loadable")
	}
	if out["backgroundColor"] != "#112233" {
		t.Errorf("layout = %v", out)
	}
}

func TestStats(t *testing.T) {
	c, _ := testCache(t)

	recs := []models.Record{
		{ID: "a", Name: "A", Img: "x", AssetID: "remote/a"},
		{ID: "b", Name: "B", Img: "y"},
		{ID: "c", Name: "C", Img: "z"},
	}
	if err := c.SaveRecords(recs); err != nil {
		t.Fatal(err)
	}

	s := c.Stats()
	if s.Total != 3 || s.FromRemote != 1 || s.LocalOnly != 2 {
		t.Errorf("stats = %+v", s)
	}
}
