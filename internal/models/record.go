// Package models defines the domain types for the Noxistence catalog.
package models

import (
	"fmt"
	"time"
)

// Record kinds.
const (
	KindCreature = "creature"
	KindArt      = "art"
)

// Defaults applied when source metadata lacks a value.
const (
	UnnamedCreature = "Unnamed Creature"
	UnknownWorld    = "Unknown"
	DefaultWorld    = "Default"
)

// Record is one catalog entry: a creature or an art asset.
//
// Img is either a relative local path (e.g. "img/173069.png") or a fully
// qualified remote URL; the two are never mixed for the same record after
// creation. AssetID is the remote store identifier, empty for purely
// local records.
type Record struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind,omitempty"`
	Name       string    `json:"name"`
	World      string    `json:"world,omitempty"`
	Img        string    `json:"img"`
	AssetID    string    `json:"assetId,omitempty"`
	UploadDate time.Time `json:"uploadDate,omitempty"`
	Width      int       `json:"width,omitempty"`
	Height     int       `json:"height,omitempty"`
}

// NewRecordID generates a kind-prefixed identifier from the current time,
// matching the "<kind>_<timestamp>" scheme used by stored catalogs.
func NewRecordID(kind string, now time.Time) string {
	return fmt.Sprintf("%s_%d", kind, now.UnixMilli())
}

// Merge returns r with non-zero fields of in overwriting r's fields.
// The upload date is set once at creation and never replaced, so an
// incoming UploadDate only fills a missing one.
func (r Record) Merge(in Record) Record {
	if in.Name != "" {
		r.Name = in.Name
	}
	if in.Kind != "" {
		r.Kind = in.Kind
	}
	if in.World != "" {
		r.World = in.World
	}
	if in.Img != "" {
		r.Img = in.Img
	}
	if in.AssetID != "" {
		r.AssetID = in.AssetID
	}
	if r.UploadDate.IsZero() {
		r.UploadDate = in.UploadDate
	}
	if in.Width != 0 {
		r.Width = in.Width
	}
	if in.Height != 0 {
		r.Height = in.Height
	}
	return r
}

// Article is one lore blog entry.
type Article struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Excerpt   string    `json:"excerpt"`
	Author    string    `json:"author"`
	Tags      []string  `json:"tags"`
	Thumbnail string    `json:"thumbnail,omitempty"`
	Date      time.Time `json:"date"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewArticleID generates an identifier for a new lore article.
func NewArticleID(now time.Time) string {
	return fmt.Sprintf("article-%d", now.UnixMilli())
}
