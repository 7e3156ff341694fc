package source

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/colmmemedsurv/sentinelnode/pkg/crossref"
	"github.com/colmmemedsurv/sentinelnode/pkg/pubmed"
)

type mockCrossref struct {
	mock.Mock
}

func (m *mockCrossref) GetWork(ctx context.Context, doi string) (*crossref.Work, error) {
	args := m.Called(ctx, doi)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*crossref.Work), args.Error(1)
}

func (m *mockCrossref) SearchWorks(ctx context.Context, query string, rows int) ([]crossref.Work, error) {
	args := m.Called(ctx, query, rows)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]crossref.Work), args.Error(1)
}

type mockPubMed struct {
	mock.Mock
}

func (m *mockPubMed) SearchDOI(ctx context.Context, doi string) ([]string, error) {
	args := m.Called(ctx, doi)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockPubMed) Fetch(ctx context.Context, pmid string) (*pubmed.Article, error) {
	args := m.Called(ctx, pmid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pubmed.Article), args.Error(1)
}

// memCache is an in-memory Cache.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte)}
}

func (c *memCache) GetCachedLookup(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data[key], nil
}

func (c *memCache) SetCachedLookup(_ context.Context, key string, data []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
	c.sets++
	return nil
}
