package source

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/colmmemedsurv/sentinelnode/internal/doi"
	"github.com/colmmemedsurv/sentinelnode/internal/model"
	"github.com/colmmemedsurv/sentinelnode/pkg/crossref"
)

// Crossref serves registry lookups and title search from the Crossref API.
type Crossref struct {
	client crossref.Client
	g      *guard
}

var (
	_ RegistryLookup = (*Crossref)(nil)
	_ TitleSearch    = (*Crossref)(nil)
)

// NewCrossref creates the Crossref adapter.
func NewCrossref(client crossref.Client, opts ...Option) *Crossref {
	return &Crossref{client: client, g: newGuard(model.SourceRegistry, opts)}
}

// Lookup returns registry metadata for id, or nil.
func (c *Crossref) Lookup(ctx context.Context, id string) *model.RegistryRecord {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}
	log := zap.L().With(zap.String("source", model.SourceRegistry), zap.String("doi", id))

	return cached(ctx, c.g, model.SourceRegistry+":"+doi.Normalize(id), func(ctx context.Context) *model.RegistryRecord {
		w, err := call(ctx, c.g, func(ctx context.Context) (*crossref.Work, error) {
			return c.client.GetWork(ctx, id)
		})
		switch {
		case errors.Is(err, crossref.ErrNotFound):
			log.Debug("source: doi not registered")
			return nil
		case err != nil:
			log.Warn("source: registry lookup failed", zap.Error(err))
			return nil
		case w == nil:
			return nil
		}

		return &model.RegistryRecord{
			DOI:            w.DOI,
			ContainerTitle: w.Journal(),
			Authors:        w.AuthorNames(),
			DateParts:      w.BestDate(),
			URL:            w.URL,
			Abstract:       w.Abstract,
		}
	})
}

// Search returns up to limit candidates for a title, in API rank order.
func (c *Crossref) Search(ctx context.Context, title string, limit int) []model.Candidate {
	if strings.TrimSpace(title) == "" {
		return nil
	}

	works, err := call(ctx, c.g, func(ctx context.Context) ([]crossref.Work, error) {
		return c.client.SearchWorks(ctx, title, limit)
	})
	if err != nil {
		zap.L().Warn("source: title search failed",
			zap.String("source", model.SourceRegistry),
			zap.String("title", title),
			zap.Error(err),
		)
		return nil
	}

	out := make([]model.Candidate, 0, len(works))
	for _, w := range works {
		out = append(out, model.Candidate{
			Title:   w.FirstTitle(),
			DOI:     w.DOI,
			Authors: w.AuthorNames(),
		})
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
