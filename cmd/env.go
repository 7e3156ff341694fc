package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/colmmemedsurv/sentinelnode/internal/classify"
	"github.com/colmmemedsurv/sentinelnode/internal/config"
	"github.com/colmmemedsurv/sentinelnode/internal/fetcher"
	"github.com/colmmemedsurv/sentinelnode/internal/llm"
	"github.com/colmmemedsurv/sentinelnode/internal/oracle"
	"github.com/colmmemedsurv/sentinelnode/internal/pipeline"
	"github.com/colmmemedsurv/sentinelnode/internal/reconcile"
	"github.com/colmmemedsurv/sentinelnode/internal/resilience"
	"github.com/colmmemedsurv/sentinelnode/internal/resolve"
	"github.com/colmmemedsurv/sentinelnode/internal/source"
	"github.com/colmmemedsurv/sentinelnode/internal/store"
	"github.com/colmmemedsurv/sentinelnode/pkg/crossref"
	"github.com/colmmemedsurv/sentinelnode/pkg/pubmed"
)

// pipelineEnv holds the store and the wired pipeline used by the run command.
type pipelineEnv struct {
	Store    store.Store // may be nil
	Pipeline *pipeline.Pipeline
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initStore opens and migrates the configured store. It returns nil when the
// store driver is "none".
func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, nil
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// requireStore is initStore for commands that cannot work without run history.
func requireStore(ctx context.Context) (store.Store, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, eris.New("store.driver is \"none\"; run history is not recorded")
	}
	return st, nil
}

// initPipeline validates the config, opens the store and wires every client
// the curation pipeline needs. Callers should defer env.Close().
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	if err := cfg.Validate("run"); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	completer, err := llm.New(ctx, cfg.LLM)
	if err != nil {
		if st != nil {
			_ = st.Close()
		}
		return nil, eris.Wrap(err, "init llm")
	}

	classifier := classify.New(completer,
		classify.WithGuidance(cfg.Classify.Guidance),
		classify.WithMinChars(cfg.Classify.MinChars),
		classify.WithPacer(resilience.NewPacer(0, cfg.Classify.Pace())),
	)

	engine := buildEngine(cfg, st, completer)
	p := pipeline.New(cfg, st, buildFetcher(cfg.Fetch), classifier, engine)

	return &pipelineEnv{Store: st, Pipeline: p}, nil
}

// initEngine builds the reconciliation engine for the standalone reconcile
// command. The same-work oracle is skipped when no model key is configured.
func initEngine(ctx context.Context, st store.Store) (*reconcile.Engine, error) {
	if err := cfg.Validate("reconcile"); err != nil {
		return nil, err
	}

	var completer llm.Completer
	if cfg.Reconcile.UseOracle {
		c, err := llm.New(ctx, cfg.LLM)
		if err != nil {
			zap.L().Warn("reconcile: oracle disabled", zap.Error(err))
		} else {
			completer = c
		}
	}
	return buildEngine(cfg, st, completer), nil
}

// buildEngine wires the Crossref and PubMed adapters behind a shared pacer,
// circuit breakers, retries and the optional lookup cache.
func buildEngine(c *config.Config, st store.Store, completer llm.Completer) *reconcile.Engine {
	retry, breaker, pacer := resilience.FromReconcileConfig(c.Reconcile)

	opts := []source.Option{
		source.WithPacer(pacer),
		source.WithRetry(retry),
		source.WithBreakers(resilience.NewServiceBreakers(breaker)),
	}
	if st != nil {
		opts = append(opts, source.WithCache(st, time.Duration(c.Store.CacheTTLHours)*time.Hour))
	}

	crClient := crossref.NewClient(
		crossref.WithBaseURL(c.Crossref.BaseURL),
		crossref.WithMailto(c.Crossref.Mailto),
		crossref.WithTimeout(time.Duration(c.Crossref.TimeoutSecs)*time.Second),
	)
	pmClient := pubmed.NewClient(
		pubmed.WithBaseURL(c.PubMed.BaseURL),
		pubmed.WithAPIKey(c.PubMed.Key),
		pubmed.WithTool(c.PubMed.Tool, c.PubMed.Email),
		pubmed.WithTimeout(time.Duration(c.PubMed.TimeoutSecs)*time.Second),
	)

	cr := source.NewCrossref(crClient, opts...)
	pm := source.NewPubMed(pmClient, opts...)

	var or resolve.Oracle
	if c.Reconcile.UseOracle && completer != nil {
		or = oracle.New(completer, pacer)
	}
	resolver := resolve.New(cr, or, resolve.WithLimit(c.Reconcile.CandidateLimit))

	return reconcile.New(cr, pm, resolver)
}

// buildFetcher returns the feed downloader. Each feed host gets at most two
// requests per second.
func buildFetcher(c config.FetchConfig) *fetcher.Router {
	timeout := time.Duration(c.TimeoutSecs) * time.Second
	return fetcher.New(fetcher.Options{
		HTTP: fetcher.HTTPOptions{
			UserAgent:  c.UserAgent,
			Timeout:    timeout,
			MaxRetries: c.MaxRetries,
			HostRate:   rate.Limit(2),
		},
		FTP: fetcher.FTPOptions{Timeout: timeout},
	})
}
