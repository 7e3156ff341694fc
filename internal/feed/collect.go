package feed

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/colmmemedsurv/sentinelnode/internal/fetcher"
	"github.com/colmmemedsurv/sentinelnode/internal/model"
)

// Result is the outcome of downloading and parsing one feed. Err is set when
// the feed could not be read; its Records are then empty.
type Result struct {
	Source  Source
	Title   string
	Records []model.Record
	Err     error
}

// Collect downloads and parses every source with at most concurrency feeds
// in flight. Results are returned in source order regardless of completion
// order. A failing feed is reported in its Result and never aborts the others.
func Collect(ctx context.Context, f fetcher.Fetcher, sources []Source, concurrency int) []Result {
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]Result, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, src := range sources {
		g.Go(func() error {
			results[i] = collectOne(gctx, f, src)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func collectOne(ctx context.Context, f fetcher.Fetcher, src Source) Result {
	res := Result{Source: src}

	body, err := f.Download(ctx, src.URL)
	if err != nil {
		res.Err = err
		zap.L().Warn("feed: download failed", zap.String("url", src.URL), zap.Error(err))
		return res
	}
	defer body.Close() //nolint:errcheck

	parsed, err := Parse(body, src)
	if err != nil {
		res.Err = err
		zap.L().Warn("feed: parse failed", zap.String("url", src.URL), zap.Error(err))
		return res
	}

	res.Title = parsed.Title
	res.Records = parsed.Records
	zap.L().Info("feed: collected",
		zap.String("url", src.URL),
		zap.String("title", parsed.Title),
		zap.Int("entries", len(parsed.Records)),
	)
	return res
}
