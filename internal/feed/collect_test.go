package feed

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	mu       sync.Mutex
	bodies   map[string]string
	delays   map[string]time.Duration
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeFetcher) Download(ctx context.Context, u string) (io.ReadCloser, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}

	f.mu.Lock()
	body, ok := f.bodies[u]
	delay := f.delays[u]
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if !ok {
		return nil, errors.New("http 404")
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func rssWithTitle(title, itemTitle string) string {
	return `<rss version="2.0"><channel><title>` + title + `</title><item><title>` + itemTitle + `</title><link>https://example.org/` + itemTitle + `</link></item></channel></rss>`
}

func TestCollect_PreservesSourceOrder(t *testing.T) {
	f := &fakeFetcher{
		bodies: map[string]string{
			"https://a.example/rss": rssWithTitle("Feed A", "a1"),
			"https://b.example/rss": rssWithTitle("Feed B", "b1"),
			"https://c.example/rss": rssWithTitle("Feed C", "c1"),
		},
		delays: map[string]time.Duration{
			"https://a.example/rss": 60 * time.Millisecond,
			"https://b.example/rss": 30 * time.Millisecond,
		},
	}
	sources := []Source{
		{URL: "https://a.example/rss"},
		{URL: "https://b.example/rss", AllowDOILookup: true},
		{URL: "https://c.example/rss"},
	}

	results := Collect(context.Background(), f, sources, 3)
	require.Len(t, results, 3)
	for i, want := range []string{"Feed A", "Feed B", "Feed C"} {
		require.NoError(t, results[i].Err)
		assert.Equal(t, sources[i], results[i].Source)
		assert.Equal(t, want, results[i].Title)
		require.Len(t, results[i].Records, 1)
	}
	assert.True(t, results[1].Records[0].AllowRecovery)
	assert.Equal(t, "https://b.example/rss", results[1].Records[0].SourceFeed)
}

func TestCollect_FailuresAreIsolated(t *testing.T) {
	f := &fakeFetcher{bodies: map[string]string{
		"https://ok.example/rss":  rssWithTitle("OK", "x"),
		"https://bad.example/rss": "<html>maintenance</html>",
	}}
	sources := []Source{{URL: "https://missing.example/rss"}, {URL: "https://bad.example/rss"}, {URL: "https://ok.example/rss"}}

	results := Collect(context.Background(), f, sources, 2)
	require.Len(t, results, 3)
	assert.ErrorContains(t, results[0].Err, "404")
	assert.Error(t, results[1].Err)
	assert.Empty(t, results[1].Records)
	require.NoError(t, results[2].Err)
	assert.Len(t, results[2].Records, 1)
}

func TestCollect_BoundsConcurrency(t *testing.T) {
	f := &fakeFetcher{bodies: map[string]string{}, delays: map[string]time.Duration{}}
	var sources []Source
	for _, c := range "abcdef" {
		u := "https://" + string(c) + ".example/rss"
		f.bodies[u] = rssWithTitle(string(c), string(c))
		f.delays[u] = 20 * time.Millisecond
		sources = append(sources, Source{URL: u})
	}

	results := Collect(context.Background(), f, sources, 2)
	assert.Len(t, results, 6)
	assert.LessOrEqual(t, f.peak.Load(), int32(2))

	// Non-positive concurrency runs serially.
	f.peak.Store(0)
	Collect(context.Background(), f, sources[:3], 0)
	assert.Equal(t, int32(1), f.peak.Load())
}
