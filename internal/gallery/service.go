// Package gallery coordinates the catalog repository and the remote
// asset store for uploads, deletes, and listings.
package gallery

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/noxistence/noxistence/internal/apperr"
	"github.com/noxistence/noxistence/internal/assetstore"
	"github.com/noxistence/noxistence/internal/catalog"
	"github.com/noxistence/noxistence/internal/models"
)

// Store folders per record kind.
const (
	CreatureFolder = "noxistence"
	ArtFolder      = "noxistence/art"
)

// Service is the upload/delete orchestration layer.
type Service struct {
	repo   catalog.Repository
	store  assetstore.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a gallery service.
func NewService(repo catalog.Repository, store assetstore.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, store: store, logger: logger, now: time.Now}
}

// UploadInput carries one incoming image with its metadata.
type UploadInput struct {
	Kind     string
	Data     []byte
	Filename string
	Name     string
	World    string
}

func folderFor(kind string) string {
	if kind == models.KindArt {
		return ArtFolder
	}
	return CreatureFolder
}

// nameFromFilename derives a display name from an uploaded file name.
func nameFromFilename(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Upload stores the image in the asset store, then upserts the catalog
// record. A store failure fails the upload; there is nothing to catalog
// without the image.
func (s *Service) Upload(ctx context.Context, in UploadInput) (models.Record, error) {
	if len(in.Data) == 0 {
		return models.Record{}, fmt.Errorf("gallery: %w: no file uploaded", apperr.ErrValidation)
	}
	if in.Kind == "" {
		in.Kind = models.KindCreature
	}
	name := in.Name
	if name == "" {
		name = nameFromFilename(in.Filename)
	}
	world := in.World
	if world == "" {
		world = models.DefaultWorld
	}

	asset, err := s.store.Upload(ctx, in.Data, folderFor(in.Kind))
	if err != nil {
		return models.Record{}, fmt.Errorf("gallery: upload asset: %w", err)
	}

	now := s.now()
	rec := models.Record{
		ID:         models.NewRecordID(in.Kind, now),
		Kind:       in.Kind,
		Name:       name,
		World:      world,
		Img:        asset.PublicURL,
		AssetID:    asset.RemoteID,
		UploadDate: now.UTC(),
		Width:      asset.Width,
		Height:     asset.Height,
	}
	stored, err := s.repo.Upsert(ctx, rec)
	if err != nil {
		return models.Record{}, err
	}
	s.logger.Info("gallery: uploaded",
		slog.String("id", stored.ID),
		slog.String("kind", stored.Kind),
		slog.String("asset_id", stored.AssetID))
	return stored, nil
}

// Save upserts a caller-supplied record, generating an id when absent.
func (s *Service) Save(ctx context.Context, rec models.Record) (models.Record, error) {
	if rec.Img == "" {
		return models.Record{}, fmt.Errorf("gallery: %w: img is required", apperr.ErrValidation)
	}
	if rec.ID == "" {
		rec.ID = models.NewRecordID(orKind(rec.Kind), s.now())
	}
	if rec.UploadDate.IsZero() {
		rec.UploadDate = s.now().UTC()
	}
	return s.repo.Upsert(ctx, rec)
}

func orKind(kind string) string {
	if kind == "" {
		return models.KindCreature
	}
	return kind
}

// Delete removes the remote asset best-effort, then the local record.
// The two operations are independent: a failed store delete is logged
// and the repository delete still proceeds, accepting an orphaned
// remote object over a blocked local delete.
func (s *Service) Delete(ctx context.Context, id string) (models.Record, error) {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return models.Record{}, err
	}
	if rec.AssetID != "" {
		if err := s.store.Delete(ctx, rec.AssetID); err != nil {
			s.logger.Warn("gallery: remote delete failed, removing local record anyway",
				slog.String("id", id),
				slog.String("asset_id", rec.AssetID),
				slog.String("error", err.Error()))
		}
	}
	return s.repo.Delete(ctx, id)
}

// List returns all records of kind, newest first. Backend failures
// degrade to an empty listing with a logged warning; the read path never
// fails the caller. An empty art catalog falls back to the remote art
// folder so pieces uploaded out-of-band still show up.
func (s *Service) List(ctx context.Context, kind string) []models.Record {
	recs, err := s.repo.List(ctx, kind)
	if err != nil {
		s.logger.Warn("gallery: list degraded to empty",
			slog.String("kind", kind),
			slog.String("error", err.Error()))
		return []models.Record{}
	}
	if len(recs) == 0 && kind == models.KindArt {
		return s.artFromStore(ctx)
	}
	if recs == nil {
		recs = []models.Record{}
	}
	return recs
}

// artFromStore derives transient art records from the store's art
// folder. The records are not persisted; uploading through the service
// is what creates catalog entries.
func (s *Service) artFromStore(ctx context.Context) []models.Record {
	assets, err := s.store.ListByFolder(ctx, ArtFolder+"/")
	if err != nil {
		s.logger.Warn("gallery: art folder listing failed",
			slog.String("error", err.Error()))
		return []models.Record{}
	}
	recs := make([]models.Record, 0, len(assets))
	for _, a := range assets {
		name := a.OriginalName
		if name == "" {
			name = nameFromFilename(a.RemoteID)
		}
		recs = append(recs, models.Record{
			ID:         a.RemoteID,
			Kind:       models.KindArt,
			Name:       name,
			Img:        a.PublicURL,
			AssetID:    a.RemoteID,
			UploadDate: a.CreatedAt,
			Width:      a.Width,
			Height:     a.Height,
		})
	}
	return recs
}

// Get returns one record by id.
func (s *Service) Get(ctx context.Context, id string) (models.Record, error) {
	return s.repo.Get(ctx, id)
}
