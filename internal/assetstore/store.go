// Package assetstore provides a uniform interface to the remote media
// CDN that hosts binary image data. The store is treated as slow,
// fallible, and eventually consistent: a just-uploaded asset may not
// appear in a subsequent listing, and callers must not treat that as an
// error.
package assetstore

import (
	"context"
	"time"
)

// MaxListResults is the practical page-size ceiling for folder listings.
const MaxListResults = 500

// Asset describes one remote object.
type Asset struct {
	RemoteID     string    `json:"public_id"`
	PublicURL    string    `json:"secure_url"`
	OriginalName string    `json:"original_filename,omitempty"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
	Width        int       `json:"width,omitempty"`
	Height       int       `json:"height,omitempty"`
}

// Store is the object-store contract.
type Store interface {
	// Upload stores data under the given logical folder and returns the
	// created asset. It never overwrites an existing object.
	Upload(ctx context.Context, data []byte, folder string) (Asset, error)
	// Delete removes the object with the given remote id. Deleting an
	// already-deleted id succeeds, since repository deletes and store
	// deletes are not transactional.
	Delete(ctx context.Context, remoteID string) error
	// ListByFolder returns up to MaxListResults assets whose id matches
	// the textual prefix.
	ListByFolder(ctx context.Context, prefix string) ([]Asset, error)
}

var (
	_ Store = (*Cloud)(nil)
	_ Store = (*Memory)(nil)
)
