// Package cache persists the merged record set and the editor layout
// snapshot under fixed well-known keys. Every save is a whole-document
// overwrite; last-write-wins is the accepted consistency model. A
// corrupt document is treated as empty, never as an error, since the
// next sync repopulates it.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/noxistence/noxistence/internal/models"
	"github.com/noxistence/noxistence/internal/storage"
)

// Well-known document keys, carried over from the browser-resident cache.
const (
	RecordsKey = "noxistence_creatures"
	LayoutKey  = "creaturePositions"
)

// Cache is the local record/layout cache.
type Cache struct {
	docs   *storage.Docs
	logger *slog.Logger
}

// New creates a cache storing its documents under dir.
func New(dir string, logger *slog.Logger) (*Cache, error) {
	docs, err := storage.NewDocs(dir)
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{docs: docs, logger: logger}, nil
}

// Records loads the cached record set. Missing or unparseable documents
// load as an empty set.
func (c *Cache) Records() []models.Record {
	var recs []models.Record
	err := c.docs.Read(RecordsKey, &recs)
	switch {
	case err == nil:
		return recs
	case errors.Is(err, storage.ErrNoDocument):
		return nil
	default:
		c.logger.Warn("cache: records document unreadable, treating as empty",
			slog.String("error", err.Error()))
		return nil
	}
}

// SaveRecords atomically overwrites the cached record set.
func (c *Cache) SaveRecords(recs []models.Record) error {
	if recs == nil {
		recs = []models.Record{}
	}
	return c.docs.Write(RecordsKey, recs)
}

// LoadLayout loads the layout snapshot into v, reporting whether a
// usable snapshot existed.
func (c *Cache) LoadLayout(v any) bool {
	err := c.docs.Read(LayoutKey, v)
	if err == nil {
		return true
	}
	if !errors.Is(err, storage.ErrNoDocument) {
		c.logger.Warn("cache: layout document unreadable, treating as empty",
			slog.String("error", err.Error()))
	}
	return false
}

// SaveLayout atomically overwrites the layout snapshot.
func (c *Cache) SaveLayout(v any) error {
	return c.docs.Write(LayoutKey, v)
}

// ImportRecords replaces the cached record set from an exported JSON
// array. Records missing an id, img, or name are silently dropped. If no
// record survives validation the cache is left untouched and an error is
// returned.
func (c *Cache) ImportRecords(r io.Reader) ([]models.Record, error) {
	data, err := io.ReadAll(io.LimitReader(r, 50<<20))
	if err != nil {
		return nil, fmt.Errorf("cache: read import: %w", err)
	}

	var recs []models.Record
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("cache: import is not a record array: %w", err)
	}

	valid := recs[:0]
	for _, rec := range recs {
		if rec.ID == "" || rec.Img == "" || rec.Name == "" {
			continue
		}
		valid = append(valid, rec)
	}
	if len(valid) == 0 {
		return nil, fmt.Errorf("cache: import contained no valid records")
	}

	if err := c.SaveRecords(valid); err != nil {
		return nil, err
	}
	c.logger.Info("cache: records imported", slog.Int("count", len(valid)))
	return valid, nil
}

// ExportRecords writes the cached record set as an indented JSON array.
func (c *Cache) ExportRecords(w io.Writer) error {
	recs := c.Records()
	if recs == nil {
		recs = []models.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(recs)
}

// Stats summarises the cached record set for observability.
type Stats struct {
	Total      int `json:"total"`
	FromRemote int `json:"fromRemote"`
	LocalOnly  int `json:"localOnly"`
}

// Stats counts cached records by origin.
func (c *Cache) Stats() Stats {
	var s Stats
	for _, rec := range c.Records() {
		s.Total++
		if rec.AssetID != "" {
			s.FromRemote++
		} else {
			s.LocalOnly++
		}
	}
	return s
}
