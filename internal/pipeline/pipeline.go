// Package pipeline runs one curation pass: ingest feeds, classify entries,
// reconcile and deduplicate the relevant ones, then write the artifacts.
package pipeline

import (
	"context"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/colmmemedsurv/sentinelnode/internal/config"
	"github.com/colmmemedsurv/sentinelnode/internal/feed"
	"github.com/colmmemedsurv/sentinelnode/internal/fetcher"
	"github.com/colmmemedsurv/sentinelnode/internal/model"
	"github.com/colmmemedsurv/sentinelnode/internal/store"
)

// Artifact file names.
const (
	RawItemsFile      = "raw_items.json"
	RelevantItemsFile = "relevant_items.json"
	CuratedItemsFile  = "curated_items.json"
	RunReportFile     = "run_report.json"
	IndexFile         = "index.md"
)

// Classifier labels one entry.
type Classifier interface {
	Classify(ctx context.Context, title, abstract string) model.Relevance
}

// Reconciler reconciles and deduplicates a batch of records.
type Reconciler interface {
	Batch(ctx context.Context, records []model.Record) ([]model.Record, model.ReconcileStats, model.DedupStats)
}

// Pipeline orchestrates the curation phases.
type Pipeline struct {
	cfg        *config.Config
	store      store.Store
	fetch      fetcher.Fetcher
	classifier Classifier
	reconciler Reconciler
	now        func() time.Time
}

// New creates a Pipeline. st may be nil, in which case runs are not recorded.
func New(cfg *config.Config, st store.Store, f fetcher.Fetcher, cl Classifier, rec Reconciler) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		store:      st,
		fetch:      f,
		classifier: cl,
		reconciler: rec,
		now:        time.Now,
	}
}

// Run executes one curation pass and returns its report. Individual feed
// failures are recorded in the report; the run fails only when the feed list
// is unusable, the context ends, or an artifact cannot be written.
func (p *Pipeline) Run(ctx context.Context) (*model.RunReport, error) {
	log := zap.L().With(zap.String("feeds", p.cfg.Feeds.ListPath))
	log.Info("pipeline: starting run")

	report := &model.RunReport{
		DecisionsTotal: map[string]int{
			string(model.RelevanceYes):       0,
			string(model.RelevanceNo):        0,
			string(model.RelevanceUncertain): 0,
		},
	}

	var runID string
	if p.store != nil {
		run, err := p.store.CreateRun(ctx)
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: create run")
		}
		runID = run.ID
		report.RunID = runID
		log = log.With(zap.String("run_id", runID))
	}

	err := p.run(ctx, log, report)
	if err != nil {
		if p.store != nil {
			if failErr := p.store.FailRun(context.WithoutCancel(ctx), runID, err.Error()); failErr != nil {
				log.Warn("pipeline: failed to record run failure", zap.Error(failErr))
			}
		}
		return report, err
	}

	if p.store != nil {
		if err := p.store.CompleteRun(ctx, runID, report); err != nil {
			log.Warn("pipeline: failed to record run", zap.Error(err))
		}
		if n, err := p.store.DeleteExpiredLookups(ctx); err != nil {
			log.Warn("pipeline: failed to prune lookup cache", zap.Error(err))
		} else if n > 0 {
			log.Debug("pipeline: pruned lookup cache", zap.Int("deleted", n))
		}
	}

	log.Info("pipeline: run complete",
		zap.Int("raw_items", report.RawItems),
		zap.Int("relevant_items", report.RelevantItems),
		zap.Int("curated_items", report.CuratedItems),
	)
	return report, nil
}

func (p *Pipeline) run(ctx context.Context, log *zap.Logger, report *model.RunReport) error {
	phase := func(name string, fn func() error) error {
		start := time.Now()
		err := fn()
		pr := model.PhaseResult{
			Name:       name,
			Status:     model.PhaseStatusComplete,
			DurationMS: time.Since(start).Milliseconds(),
		}
		if err != nil {
			pr.Status = model.PhaseStatusFailed
			pr.Error = err.Error()
			log.Error("pipeline: phase failed", zap.String("phase", name), zap.Int64("duration_ms", pr.DurationMS), zap.Error(err))
		} else {
			log.Info("pipeline: phase complete", zap.String("phase", name), zap.Int64("duration_ms", pr.DurationMS))
		}
		report.Phases = append(report.Phases, pr)
		return err
	}

	var (
		sources  []feed.Source
		results  []feed.Result
		raw      []model.Record
		relevant []model.Record
		curated  []model.Record
	)

	// Phase 1: ingest
	if err := phase("ingest", func() error {
		var err error
		sources, err = feed.LoadSources(p.cfg.Feeds.ListPath)
		if err != nil {
			return err
		}
		results = feed.Collect(ctx, p.fetch, sources, p.cfg.Feeds.Concurrency)
		if err := ctx.Err(); err != nil {
			return eris.Wrap(err, "pipeline: ingest cancelled")
		}
		for _, r := range results {
			raw = append(raw, r.Records...)
		}
		report.RawItems = len(raw)
		return WriteJSON(filepath.Join(p.cfg.Feeds.DataDir, RawItemsFile), raw)
	}); err != nil {
		return err
	}

	// Phase 2: classify
	if err := phase("classify", func() error {
		var err error
		relevant, err = p.classify(ctx, raw, report.DecisionsTotal)
		if err != nil {
			return err
		}
		report.RelevantItems = len(relevant)
		return WriteJSON(filepath.Join(p.cfg.Feeds.DataDir, RelevantItemsFile), relevant)
	}); err != nil {
		return err
	}

	// Phase 3: reconcile and deduplicate
	if err := phase("reconcile", func() error {
		curated, report.Reconcile, report.Dedup = p.reconciler.Batch(ctx, relevant)
		if err := ctx.Err(); err != nil {
			return eris.Wrap(err, "pipeline: reconcile cancelled")
		}
		report.CuratedItems = len(curated)
		return WriteJSON(filepath.Join(p.cfg.Feeds.DataDir, CuratedItemsFile), curated)
	}); err != nil {
		return err
	}

	// Phase 4: publish
	return phase("publish", func() error {
		report.Feeds = feedReports(results, curated)
		report.TimestampUTC = p.now().UTC().Format(time.RFC3339)

		out := filepath.Join(p.cfg.Feeds.DocsDir, p.cfg.Feeds.OutputFile)
		report.OutputFile = out
		ch := feed.Channel{
			Title:       p.cfg.Feeds.Title,
			Link:        p.cfg.Feeds.Link,
			Description: p.cfg.Feeds.Description,
			BuildDate:   p.now(),
		}
		if err := WriteRSSFile(out, ch, curated); err != nil {
			return err
		}
		if err := WriteIndex(filepath.Join(p.cfg.Feeds.DocsDir, IndexFile), p.cfg.Feeds.OutputFile); err != nil {
			return err
		}
		return WriteJSON(filepath.Join(p.cfg.Feeds.DataDir, RunReportFile), report)
	})
}

// classify labels every record in order and returns the YES records. The
// classifier itself paces its calls.
func (p *Pipeline) classify(ctx context.Context, raw []model.Record, totals map[string]int) ([]model.Record, error) {
	var relevant []model.Record
	for i := range raw {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "pipeline: classify cancelled")
		}
		label := p.classifier.Classify(ctx, raw[i].Title, raw[i].Abstract)
		raw[i].Relevance = label
		totals[string(label)]++
		if label == model.RelevanceYes {
			relevant = append(relevant, raw[i].Clone())
		}
	}
	return relevant, nil
}

// feedReports builds per-feed counts in feed-list order. RelevantYes counts
// the records that survived deduplication.
func feedReports(results []feed.Result, curated []model.Record) []model.FeedReport {
	kept := make(map[string]int)
	for _, r := range curated {
		kept[r.SourceFeed]++
	}

	out := make([]model.FeedReport, 0, len(results))
	for _, r := range results {
		fr := model.FeedReport{
			URL:         r.Source.URL,
			FeedTitle:   r.Title,
			ItemsInFeed: len(r.Records),
			RelevantYes: kept[r.Source.URL],
		}
		if r.Err != nil {
			fr.Error = r.Err.Error()
		}
		out = append(out, fr)
	}
	return out
}
