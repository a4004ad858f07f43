// Package syncengine reconciles the local record cache with the remote
// asset store. The remote is queried through an ordered list of fallback
// strategies; the merge never removes local records, since the local
// cache is allowed to be ahead of, or diverged from, the remote.
package syncengine

import (
	"context"
	"log/slog"

	"github.com/noxistence/noxistence/internal/assetstore"
	"github.com/noxistence/noxistence/internal/cache"
	"github.com/noxistence/noxistence/internal/models"
)

// Strategy is one way to ask the store for the catalog's assets. The
// first strategy returning at least one asset wins; a failing or empty
// strategy falls through to the next.
type Strategy struct {
	Name   string
	Prefix string
}

// Strategies builds the ordered fallback list for an upload preset and
// alternate folders, ending with an unfiltered query of recent uploads.
func Strategies(preset string, folders []string) []Strategy {
	var out []Strategy
	if preset != "" {
		out = append(out, Strategy{Name: "upload-preset", Prefix: preset + "/"})
	}
	for _, f := range folders {
		if f == "" {
			continue
		}
		out = append(out, Strategy{Name: "folder:" + f, Prefix: f + "/"})
	}
	out = append(out, Strategy{Name: "recent-uploads", Prefix: ""})
	return out
}

// Report summarises one sync pass. It is observability only; the merged
// record set is what callers act on.
type Report struct {
	RemoteCount int `json:"cloudCount"`
	LocalCount  int `json:"localCount"`
	NewCount    int `json:"newCount"`
	TotalCount  int `json:"totalCount"`
}

// Engine merges the local cache with live store listings.
type Engine struct {
	store      assetstore.Store
	cache      *cache.Cache
	strategies []Strategy
	logger     *slog.Logger
}

// New creates a sync engine.
func New(store assetstore.Store, c *cache.Cache, strategies []Strategy, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, cache: c, strategies: strategies, logger: logger}
}

// fetchRemote tries each strategy in order and returns the first
// non-empty listing. All strategies failing or returning nothing yields
// an empty set, not an error: the sync proceeds with the local cache.
func (e *Engine) fetchRemote(ctx context.Context) []assetstore.Asset {
	for _, st := range e.strategies {
		assets, err := e.store.ListByFolder(ctx, st.Prefix)
		if err != nil {
			e.logger.Warn("sync: strategy failed",
				slog.String("strategy", st.Name),
				slog.String("error", err.Error()))
			continue
		}
		if len(assets) == 0 {
			e.logger.Debug("sync: strategy empty", slog.String("strategy", st.Name))
			continue
		}
		e.logger.Info("sync: strategy matched",
			slog.String("strategy", st.Name),
			slog.Int("assets", len(assets)))
		return assets
	}
	e.logger.Info("sync: no strategy returned assets")
	return nil
}

// recordFromAsset maps a remote entry into a Record with stable field
// derivation.
func recordFromAsset(a assetstore.Asset) models.Record {
	name := a.OriginalName
	if name == "" {
		name = models.UnnamedCreature
	}
	return models.Record{
		ID:         a.RemoteID,
		Name:       name,
		World:      models.UnknownWorld,
		Img:        a.PublicURL,
		AssetID:    a.RemoteID,
		UploadDate: a.CreatedAt,
		Width:      a.Width,
		Height:     a.Height,
	}
}

// Merge appends remote records whose id is not already present in local.
// Local records are never removed or rewritten; when both sides hold the
// same id the local entry wins. The local order is preserved exactly.
func Merge(local, remote []models.Record) (merged []models.Record, added int) {
	merged = append(merged, local...)
	seen := make(map[string]struct{}, len(local))
	for _, r := range local {
		seen[r.ID] = struct{}{}
	}
	for _, r := range remote {
		if _, ok := seen[r.ID]; ok {
			continue
		}
		seen[r.ID] = struct{}{}
		merged = append(merged, r)
		added++
	}
	return merged, added
}

// Sync fetches the remote set, merges it over the local cache, persists
// the result as one atomic overwrite, and returns the counts. It always
// returns a report; a fully failed remote side degrades to zero remote
// counts with the local cache untouched in content.
func (e *Engine) Sync(ctx context.Context) (Report, []models.Record) {
	assets := e.fetchRemote(ctx)

	remote := make([]models.Record, len(assets))
	for i, a := range assets {
		remote[i] = recordFromAsset(a)
	}

	local := e.cache.Records()
	merged, added := Merge(local, remote)

	if err := e.cache.SaveRecords(merged); err != nil {
		e.logger.Warn("sync: save merged cache failed", slog.String("error", err.Error()))
	}

	report := Report{
		RemoteCount: len(assets),
		LocalCount:  len(local),
		NewCount:    added,
		TotalCount:  len(merged),
	}
	e.logger.Info("sync: completed",
		slog.Int("remote", report.RemoteCount),
		slog.Int("local", report.LocalCount),
		slog.Int("new", report.NewCount),
		slog.Int("total", report.TotalCount))
	return report, merged
}
