package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/noxistence/noxistence/internal/apperr"
	"github.com/noxistence/noxistence/internal/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS records (
	id          TEXT PRIMARY KEY,
	kind        TEXT NOT NULL DEFAULT 'creature',
	name        TEXT NOT NULL DEFAULT '',
	world       TEXT NOT NULL DEFAULT '',
	img         TEXT NOT NULL DEFAULT '',
	asset_id    TEXT NOT NULL DEFAULT '',
	upload_date DATETIME,
	width       INTEGER NOT NULL DEFAULT 0,
	height      INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_records_kind ON records(kind);
`

// SQLite implements Repository on a single records table.
type SQLite struct {
	conn *sql.DB
}

// OpenSQLite opens (or creates) the database and applies the schema.
func OpenSQLite(dsn string) (*SQLite, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("catalog: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("catalog: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("catalog: apply schema: %w", err)
	}
	return &SQLite{conn: conn}, nil
}

// List returns all records of kind, most recently uploaded first.
func (s *SQLite) List(ctx context.Context, kind string) ([]models.Record, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, kind, name, world, img, asset_id, upload_date, width, height
		FROM records WHERE kind = ?
		ORDER BY upload_date DESC
	`, kind)
	if err != nil {
		return nil, fmt.Errorf("catalog: list: %w", err)
	}
	defer rows.Close()

	var out []models.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Get returns the record with the given id regardless of kind.
func (s *SQLite) Get(ctx context.Context, id string) (models.Record, error) {
	row := s.conn.QueryRowContext(ctx, `
		SELECT id, kind, name, world, img, asset_id, upload_date, width, height
		FROM records WHERE id = ?
	`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Record{}, apperr.ErrNotFound
	}
	return rec, err
}

// Upsert inserts or field-merges by primary key. Empty incoming fields
// keep the stored value; upload_date is written once and never replaced.
func (s *SQLite) Upsert(ctx context.Context, rec models.Record) (models.Record, error) {
	if rec.ID == "" {
		return models.Record{}, fmt.Errorf("catalog: %w: id is required", apperr.ErrValidation)
	}
	if rec.Kind == "" {
		rec.Kind = models.KindCreature
	}

	var uploaded any
	if !rec.UploadDate.IsZero() {
		uploaded = rec.UploadDate.UTC()
	}
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO records (id, kind, name, world, img, asset_id, upload_date, width, height)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			kind        = CASE WHEN excluded.kind     != '' THEN excluded.kind     ELSE records.kind     END,
			name        = CASE WHEN excluded.name     != '' THEN excluded.name     ELSE records.name     END,
			world       = CASE WHEN excluded.world    != '' THEN excluded.world    ELSE records.world    END,
			img         = CASE WHEN excluded.img      != '' THEN excluded.img      ELSE records.img      END,
			asset_id    = CASE WHEN excluded.asset_id != '' THEN excluded.asset_id ELSE records.asset_id END,
			upload_date = COALESCE(records.upload_date, excluded.upload_date),
			width       = CASE WHEN excluded.width    != 0  THEN excluded.width    ELSE records.width    END,
			height      = CASE WHEN excluded.height   != 0  THEN excluded.height   ELSE records.height   END
	`, rec.ID, rec.Kind, rec.Name, rec.World, rec.Img, rec.AssetID, uploaded, rec.Width, rec.Height)
	if err != nil {
		return models.Record{}, fmt.Errorf("catalog: upsert: %w", err)
	}
	return s.Get(ctx, rec.ID)
}

// Delete removes and returns the record with the given id.
func (s *SQLite) Delete(ctx context.Context, id string) (models.Record, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return models.Record{}, err
	}
	if _, err := s.conn.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id); err != nil {
		return models.Record{}, fmt.Errorf("catalog: delete: %w", err)
	}
	return rec, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.conn.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (models.Record, error) {
	var rec models.Record
	var uploaded sql.NullTime
	err := row.Scan(&rec.ID, &rec.Kind, &rec.Name, &rec.World, &rec.Img,
		&rec.AssetID, &uploaded, &rec.Width, &rec.Height)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Record{}, err
		}
		return models.Record{}, fmt.Errorf("catalog: scan: %w", err)
	}
	if uploaded.Valid {
		rec.UploadDate = uploaded.Time.UTC()
	}
	return rec, nil
}
