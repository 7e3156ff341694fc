package source

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/colmmemedsurv/sentinelnode/internal/doi"
	"github.com/colmmemedsurv/sentinelnode/internal/model"
	"github.com/colmmemedsurv/sentinelnode/pkg/pubmed"
)

// PubMed fetches full citation records via the E-utilities search then
// fetch sequence.
type PubMed struct {
	client pubmed.Client
	g      *guard
}

var _ FullRecordFetcher = (*PubMed)(nil)

// NewPubMed creates the PubMed adapter.
func NewPubMed(client pubmed.Client, opts ...Option) *PubMed {
	return &PubMed{client: client, g: newGuard(model.SourceFullRecord, opts)}
}

// Fetch returns the record indexed under id, or nil when either step
// yields nothing.
func (p *PubMed) Fetch(ctx context.Context, id string) *model.FullRecord {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}
	log := zap.L().With(zap.String("source", model.SourceFullRecord), zap.String("doi", id))

	return cached(ctx, p.g, model.SourceFullRecord+":"+doi.Normalize(id), func(ctx context.Context) *model.FullRecord {
		ids, err := call(ctx, p.g, func(ctx context.Context) ([]string, error) {
			return p.client.SearchDOI(ctx, id)
		})
		if err != nil {
			log.Warn("source: pubmed search failed", zap.Error(err))
			return nil
		}
		if len(ids) == 0 {
			log.Debug("source: doi not indexed")
			return nil
		}

		a, err := call(ctx, p.g, func(ctx context.Context) (*pubmed.Article, error) {
			return p.client.Fetch(ctx, ids[0])
		})
		if err != nil {
			log.Warn("source: pubmed fetch failed", zap.String("pmid", ids[0]), zap.Error(err))
			return nil
		}
		if a == nil {
			return nil
		}

		rec := &model.FullRecord{
			PMID:      a.PMID,
			Authors:   a.AuthorNames(),
			Journal:   a.Journal,
			DateParts: a.PubDate.Ints(),
		}
		if rec.PMID == "" {
			rec.PMID = ids[0]
		}
		for _, s := range a.Abstract {
			rec.Sections = append(rec.Sections, model.AbstractSection{
				Label: strings.TrimSpace(s.Label),
				Text:  s.Text,
			})
		}
		return rec
	})
}
