package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/noxistence/noxistence/internal/apperr"
	"github.com/noxistence/noxistence/internal/models"
	"github.com/noxistence/noxistence/internal/storage"
)

// Document names, one array per record kind.
const (
	creaturesDoc = "creatures"
	artDoc       = "art"
)

// JSONFile implements Repository on top of flat JSON array documents.
type JSONFile struct {
	docs *storage.Docs

	mu sync.Mutex // serialises read-modify-write cycles
}

// NewJSONFile creates a JSON-file repository storing its documents under dir.
func NewJSONFile(dir string) (*JSONFile, error) {
	docs, err := storage.NewDocs(dir)
	if err != nil {
		return nil, err
	}
	return &JSONFile{docs: docs}, nil
}

// legacyRecord carries the deprecated tags field so reads can detect and
// strip it. Re-marshaling through models.Record drops the field.
type legacyRecord struct {
	models.Record
	Tags json.RawMessage `json:"tags,omitempty"`
}

func docFor(kind string) string {
	if kind == models.KindArt {
		return artDoc
	}
	return creaturesDoc
}

// load reads one kind's document, stripping any legacy tags fields and
// re-persisting the cleaned document when it finds some. A missing
// document loads as an empty catalog.
func (j *JSONFile) load(kind string) ([]models.Record, error) {
	var raw []legacyRecord
	err := j.docs.Read(docFor(kind), &raw)
	if errors.Is(err, storage.ErrNoDocument) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}

	recs := make([]models.Record, len(raw))
	dirty := false
	for i, lr := range raw {
		recs[i] = lr.Record
		if lr.Tags != nil {
			dirty = true
		}
	}
	if dirty {
		if err := j.docs.Write(docFor(kind), recs); err != nil {
			return nil, fmt.Errorf("catalog: strip legacy tags: %w", err)
		}
	}
	return recs, nil
}

func (j *JSONFile) save(kind string, recs []models.Record) error {
	if recs == nil {
		recs = []models.Record{}
	}
	if err := j.docs.Write(docFor(kind), recs); err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	return nil
}

// List returns all records of kind, most recently uploaded first.
func (j *JSONFile) List(_ context.Context, kind string) ([]models.Record, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	recs, err := j.load(kind)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(recs, func(a, b int) bool {
		return recs[a].UploadDate.After(recs[b].UploadDate)
	})
	return recs, nil
}

// Get scans both kind documents for the record with the given id.
func (j *JSONFile) Get(_ context.Context, id string) (models.Record, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	for _, kind := range []string{models.KindCreature, models.KindArt} {
		recs, err := j.load(kind)
		if err != nil {
			return models.Record{}, err
		}
		for _, r := range recs {
			if r.ID == id {
				return r, nil
			}
		}
	}
	return models.Record{}, apperr.ErrNotFound
}

// Upsert inserts rec, or shallow-merges it into an existing record with
// the same id.
func (j *JSONFile) Upsert(_ context.Context, rec models.Record) (models.Record, error) {
	if rec.ID == "" {
		return models.Record{}, fmt.Errorf("catalog: %w: id is required", apperr.ErrValidation)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	kind := rec.Kind
	if kind == "" {
		kind = models.KindCreature
	}
	recs, err := j.load(kind)
	if err != nil {
		return models.Record{}, err
	}

	stored := rec
	found := false
	for i, r := range recs {
		if r.ID == rec.ID {
			stored = r.Merge(rec)
			recs[i] = stored
			found = true
			break
		}
	}
	if !found {
		recs = append(recs, rec)
	}
	if err := j.save(kind, recs); err != nil {
		return models.Record{}, err
	}
	return stored, nil
}

// Delete removes the record with the given id from whichever document
// holds it.
func (j *JSONFile) Delete(_ context.Context, id string) (models.Record, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	for _, kind := range []string{models.KindCreature, models.KindArt} {
		recs, err := j.load(kind)
		if err != nil {
			return models.Record{}, err
		}
		for i, r := range recs {
			if r.ID == id {
				recs = append(recs[:i], recs[i+1:]...)
				if err := j.save(kind, recs); err != nil {
					return models.Record{}, err
				}
				return r, nil
			}
		}
	}
	return models.Record{}, apperr.ErrNotFound
}

// Close is a no-op for the file backend.
func (j *JSONFile) Close() error {
	return nil
}
