// Package catalog owns the persisted set of creature and art records.
// Two interchangeable backends satisfy the Repository contract: a flat
// JSON document rewritten in full on every mutation, and a SQLite table
// with one row per record. Callers cannot observe which is active.
package catalog

import (
	"context"

	"github.com/noxistence/noxistence/internal/models"
)

// Repository is the persistence contract for catalog records.
//
// Upsert merges by id: non-zero incoming fields overwrite, fields only
// present on the stored record (notably uploadDate) are preserved.
// Delete does not cascade to the remote asset store; callers invoke
// asset deletion separately and either side may fail independently.
type Repository interface {
	// List returns all records of the given kind, newest upload first.
	List(ctx context.Context, kind string) ([]models.Record, error)
	// Get returns the record with the given id, or apperr.ErrNotFound.
	Get(ctx context.Context, id string) (models.Record, error)
	// Upsert inserts or field-merges a record and returns the stored state.
	Upsert(ctx context.Context, rec models.Record) (models.Record, error)
	// Delete removes a record and returns it, or apperr.ErrNotFound.
	Delete(ctx context.Context, id string) (models.Record, error)
	Close() error
}

var (
	_ Repository = (*JSONFile)(nil)
	_ Repository = (*SQLite)(nil)
)
