// Package reconcile runs the per-record metadata reconciliation flow and
// the batch pass that ends in deduplication.
package reconcile

import (
	"context"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/colmmemedsurv/sentinelnode/internal/dedupe"
	"github.com/colmmemedsurv/sentinelnode/internal/doi"
	"github.com/colmmemedsurv/sentinelnode/internal/merge"
	"github.com/colmmemedsurv/sentinelnode/internal/model"
	"github.com/colmmemedsurv/sentinelnode/internal/resolve"
	"github.com/colmmemedsurv/sentinelnode/internal/source"
)

// Recoverer finds a DOI for a record that has none.
type Recoverer interface {
	Resolve(ctx context.Context, title string, authors []string) (resolve.Match, bool)
}

// Engine reconciles records one at a time against fixed sources.
type Engine struct {
	registry source.RegistryLookup
	full     source.FullRecordFetcher
	resolver Recoverer
}

// New creates an Engine. Any dependency may be nil, which skips that step.
func New(registry source.RegistryLookup, full source.FullRecordFetcher, resolver Recoverer) *Engine {
	return &Engine{registry: registry, full: full, resolver: resolver}
}

// Outcome describes what happened to one record.
type Outcome struct {
	Extracted   bool
	Recovered   resolve.Tier
	RegistryHit bool
	FullHit     bool
	AbstractSet bool
}

// Reconcile returns a copy of rec with its DOI extracted or recovered and
// its empty fields filled from the sources. It never fails; every missing
// answer leaves the corresponding field to the merge rules.
func (e *Engine) Reconcile(ctx context.Context, rec model.Record) (model.Record, Outcome) {
	var out Outcome
	work := rec.Clone()
	work.ClearSentinels()

	log := zap.L().With(zap.String("title", work.Title))

	id := doi.Extract(candidates(work)...)
	if id == "" && doi.Plausible(work.DOI) {
		id = doi.Strip(work.DOI)
	}
	if id != "" {
		if work.Provenance[merge.FieldDOI] == "" {
			work.SetProvenance(merge.FieldDOI, model.SourceFeed)
		}
		work.DOI = id
		out.Extracted = true
	} else {
		work.DOI = ""
		if work.AllowRecovery && e.resolver != nil {
			if m, ok := e.resolver.Resolve(ctx, work.Title, work.Authors); ok {
				work.DOI = m.DOI
				work.SetProvenance(merge.FieldDOI, "recovered:"+string(m.Tier))
				out.Recovered = m.Tier
			}
		}
	}

	var reg *model.RegistryRecord
	var full *model.FullRecord
	if work.DOI != "" {
		if e.registry != nil {
			reg = e.registry.Lookup(ctx, work.DOI)
		}
		if e.full != nil {
			full = e.full.Fetch(ctx, work.DOI)
		}
	}
	out.RegistryHit = reg != nil
	out.FullHit = full != nil

	merged := merge.Merge(work, merge.FromRegistry(reg), merge.FromFullRecord(full))
	out.AbstractSet = model.IsEmptyAbstract(work.Abstract) && !model.IsEmptyAbstract(merged.Abstract)

	log.Debug("reconcile: record done",
		zap.String("doi", merged.DOIDisplay),
		zap.Bool("extracted", out.Extracted),
		zap.String("recovered", string(out.Recovered)),
		zap.Bool("registry_hit", out.RegistryHit),
		zap.Bool("full_record_hit", out.FullHit),
	)
	return merged, out
}

// Batch reconciles records sequentially in input order, then deduplicates
// the result once.
func (e *Engine) Batch(ctx context.Context, records []model.Record) ([]model.Record, model.ReconcileStats, model.DedupStats) {
	stats := model.ReconcileStats{DOIRecovered: map[string]int{}}
	out := make([]model.Record, 0, len(records))

	for _, rec := range records {
		if ctx.Err() != nil {
			zap.L().Warn("reconcile: context done, passing remaining records through",
				zap.Int("remaining", len(records)-len(out)),
			)
			for _, r := range records[len(out):] {
				out = append(out, merge.Merge(r))
			}
			break
		}

		merged, o := e.Reconcile(ctx, rec)
		out = append(out, merged)
		o.apply(&stats)
	}
	stats.Records = len(out)

	kept, dstats := dedupe.Deduplicate(out)
	zap.L().Info("reconcile: batch complete",
		zap.Int("records", stats.Records),
		zap.Int("doi_extracted", stats.DOIExtracted),
		zap.Int("doi_missing", stats.DOIMissing),
		zap.Int("kept", dstats.Kept),
	)
	return kept, stats, dstats
}

// candidates orders the strings scanned for a DOI: the identifier field, the
// ingested candidates, then the raw link when ingestion did not list it.
func candidates(r model.Record) []string {
	out := append([]string{r.DOI}, r.DOICandidates...)
	if r.Link != "" && !slices.Contains(r.DOICandidates, r.Link) {
		out = append(out, r.Link)
	}
	return out
}

func (o Outcome) apply(s *model.ReconcileStats) {
	switch {
	case o.Extracted:
		s.DOIExtracted++
	case o.Recovered != "":
		s.DOIRecovered[strings.ToLower(string(o.Recovered))]++
	default:
		s.DOIMissing++
	}
	if o.RegistryHit {
		s.RegistryHits++
	}
	if o.FullHit {
		s.FullRecordHits++
	}
	if o.AbstractSet {
		s.AbstractFilled++
	}
}
