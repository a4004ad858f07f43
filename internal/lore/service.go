// Package lore manages the article blog: CRUD over a single JSON
// document with optional thumbnails pushed to the asset store.
package lore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/noxistence/noxistence/internal/apperr"
	"github.com/noxistence/noxistence/internal/assetstore"
	"github.com/noxistence/noxistence/internal/models"
	"github.com/noxistence/noxistence/internal/storage"
)

const (
	loreDoc         = "lore"
	ThumbnailFolder = "lore/thumbnails"
	AnonymousAuthor = "Anonymous"
)

// document is the persisted shape: articles under an "articles" key.
type document struct {
	Articles []models.Article `json:"articles"`
}

// Service is the lore article store.
type Service struct {
	docs   *storage.Docs
	store  assetstore.Store
	logger *slog.Logger
	now    func() time.Time

	mu sync.Mutex
}

// NewService creates a lore service persisting under dir.
func NewService(dir string, store assetstore.Store, logger *slog.Logger) (*Service, error) {
	docs, err := storage.NewDocs(dir)
	if err != nil {
		return nil, fmt.Errorf("lore: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{docs: docs, store: store, logger: logger, now: time.Now}, nil
}

// load reads the article document, auto-creating the empty shape when
// it does not exist yet.
func (s *Service) load() (document, error) {
	var doc document
	err := s.docs.Read(loreDoc, &doc)
	if errors.Is(err, storage.ErrNoDocument) {
		doc = document{Articles: []models.Article{}}
		if werr := s.docs.Write(loreDoc, doc); werr != nil {
			return document{}, fmt.Errorf("lore: create document: %w", werr)
		}
		return doc, nil
	}
	if err != nil {
		return document{}, fmt.Errorf("lore: %w", err)
	}
	if doc.Articles == nil {
		doc.Articles = []models.Article{}
	}
	return doc, nil
}

func (s *Service) save(doc document) error {
	if err := s.docs.Write(loreDoc, doc); err != nil {
		return fmt.Errorf("lore: %w", err)
	}
	return nil
}

// Input carries incoming article fields. Thumbnail, when non-empty, is
// raw image data uploaded to the asset store.
type Input struct {
	Title     string
	Content   string
	Excerpt   string
	Author    string
	Tags      []string
	Thumbnail []byte
}

func (in Input) validateCreate() error {
	err := validation.Errors{
		"title":   validation.Validate(in.Title, validation.Required),
		"content": validation.Validate(in.Content, validation.Required),
	}.Filter()
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrValidation, err)
	}
	return nil
}

// List returns all articles, newest first.
func (s *Service) List(_ context.Context) ([]models.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	return doc.Articles, nil
}

// Get returns one article by id.
func (s *Service) Get(_ context.Context, id string) (models.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return models.Article{}, err
	}
	for _, a := range doc.Articles {
		if a.ID == id {
			return a, nil
		}
	}
	return models.Article{}, apperr.ErrNotFound
}

// Create validates and stores a new article, newest first. A thumbnail
// upload failure fails the whole request; nothing is persisted.
func (s *Service) Create(ctx context.Context, in Input) (models.Article, error) {
	if err := in.validateCreate(); err != nil {
		return models.Article{}, err
	}

	thumbURL, err := s.uploadThumbnail(ctx, in.Thumbnail)
	if err != nil {
		return models.Article{}, err
	}

	author := in.Author
	if author == "" {
		author = AnonymousAuthor
	}
	now := s.now().UTC()
	article := models.Article{
		ID:        models.NewArticleID(now),
		Title:     in.Title,
		Content:   in.Content,
		Excerpt:   in.Excerpt,
		Author:    author,
		Tags:      normalizeTags(in.Tags),
		Thumbnail: thumbURL,
		Date:      now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return models.Article{}, err
	}
	doc.Articles = append([]models.Article{article}, doc.Articles...)
	if err := s.save(doc); err != nil {
		return models.Article{}, err
	}
	s.logger.Info("lore: article created", slog.String("id", article.ID))
	return article, nil
}

// Update applies partial edits to an existing article. Empty fields keep
// the stored value, except excerpt and tags which may be cleared
// explicitly via their Set flags in UpdateInput.
type UpdateInput struct {
	Title      string
	Content    string
	Excerpt    string
	ExcerptSet bool
	Author     string
	Tags       []string
	Thumbnail  []byte
}

// Update merges in the provided fields and always refreshes updatedAt
// with a strictly later timestamp.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (models.Article, error) {
	thumbURL, err := s.uploadThumbnail(ctx, in.Thumbnail)
	if err != nil {
		return models.Article{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return models.Article{}, err
	}
	for i, a := range doc.Articles {
		if a.ID != id {
			continue
		}
		if in.Title != "" {
			a.Title = in.Title
		}
		if in.Content != "" {
			a.Content = in.Content
		}
		if in.ExcerptSet {
			a.Excerpt = in.Excerpt
		}
		if in.Author != "" {
			a.Author = in.Author
		}
		if in.Tags != nil {
			a.Tags = normalizeTags(in.Tags)
		}
		if thumbURL != "" {
			a.Thumbnail = thumbURL
		}

		now := s.now().UTC()
		// updatedAt must advance strictly even under coarse clocks.
		if !now.After(a.UpdatedAt) {
			now = a.UpdatedAt.Add(time.Millisecond)
		}
		a.UpdatedAt = now

		doc.Articles[i] = a
		if err := s.save(doc); err != nil {
			return models.Article{}, err
		}
		s.logger.Info("lore: article updated", slog.String("id", id))
		return a, nil
	}
	return models.Article{}, apperr.ErrNotFound
}

// Delete removes an article by id.
func (s *Service) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	kept := doc.Articles[:0]
	for _, a := range doc.Articles {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	if len(kept) == len(doc.Articles) {
		return apperr.ErrNotFound
	}
	doc.Articles = kept
	return s.save(doc)
}

func (s *Service) uploadThumbnail(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", nil
	}
	asset, err := s.store.Upload(ctx, data, ThumbnailFolder)
	if err != nil {
		return "", fmt.Errorf("lore: upload thumbnail: %w", err)
	}
	return asset.PublicURL, nil
}

// normalizeTags trims entries and drops empties, always returning a
// non-nil list.
func normalizeTags(tags []string) []string {
	out := []string{}
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
