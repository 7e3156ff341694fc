package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/colmmemedsurv/sentinelnode/internal/config"
	"github.com/colmmemedsurv/sentinelnode/internal/fetcher"
	"github.com/colmmemedsurv/sentinelnode/internal/model"
	"github.com/colmmemedsurv/sentinelnode/internal/reconcile"
	"github.com/colmmemedsurv/sentinelnode/internal/store"
)

type mockClassifier struct {
	mock.Mock
}

func (m *mockClassifier) Classify(ctx context.Context, title, abstract string) model.Relevance {
	args := m.Called(ctx, title, abstract)
	return args.Get(0).(model.Relevance)
}

const feedA = `<?xml version="1.0"?>
<rss version="2.0" xmlns:prism="http://prismstandard.org/namespaces/basic/2.0/" xmlns:dc="http://purl.org/dc/elements/1.1/">
<channel>
  <title>Head &amp; Neck</title>
  <item>
    <title>EGFR inhibition in HNSCC</title>
    <link>https://example.org/hed/1</link>
    <description>&lt;jats:p&gt;Cetuximab response in recurrent disease.&lt;/jats:p&gt;</description>
    <prism:doi>10.1002/hed.28001</prism:doi>
    <dc:creator>Jane Doe</dc:creator>
  </item>
  <item>
    <title>Knee arthroplasty outcomes</title>
    <link>https://example.org/hed/2</link>
    <description>Orthopaedic cohort.</description>
  </item>
  <item>
    <title>Erratum</title>
    <link>https://example.org/hed/3</link>
  </item>
</channel>
</rss>`

const feedB = `<?xml version="1.0"?>
<rss version="2.0" xmlns:prism="http://prismstandard.org/namespaces/basic/2.0/">
<channel>
  <title>Oral Oncology</title>
  <item>
    <title>EGFR inhibition in HNSCC (repost)</title>
    <link>https://example.org/oo/9</link>
    <prism:doi>10.1002/HED.28001</prism:doi>
  </item>
  <item>
    <title>Nivolumab in oral cavity cancer</title>
    <link>https://example.org/oo/10</link>
    <description>Phase II trial.</description>
  </item>
</channel>
</rss>`

type fixture struct {
	cfg   *config.Config
	dir   string
	feedA string
	feedB string
}

func newFixture(t *testing.T, withMissing bool) fixture {
	t.Helper()
	dir := t.TempDir()
	fx := fixture{
		dir:   dir,
		feedA: filepath.Join(dir, "hed.xml"),
		feedB: filepath.Join(dir, "oo.xml"),
	}
	require.NoError(t, os.WriteFile(fx.feedA, []byte(feedA), 0o644))
	require.NoError(t, os.WriteFile(fx.feedB, []byte(feedB), 0o644))

	list := fx.feedA + "\n[ALLOW_DOI_LOOKUP] " + fx.feedB + "\n"
	if withMissing {
		list += filepath.Join(dir, "gone.xml") + "\n"
	}
	listPath := filepath.Join(dir, "feeds.txt")
	require.NoError(t, os.WriteFile(listPath, []byte(list), 0o644))

	fx.cfg = &config.Config{
		Feeds: config.FeedsConfig{
			ListPath:    listPath,
			DataDir:     filepath.Join(dir, "data"),
			DocsDir:     filepath.Join(dir, "docs"),
			OutputFile:  "head-neck-cancer.xml",
			Title:       "Head & Neck Cancer – DOI-Enriched Feed",
			Link:        "https://colmmemedsurv.github.io/sentinelnode/",
			Description: "Curated head & neck cancer literature.",
			Concurrency: 2,
		},
	}
	return fx
}

func newClassifier() *mockClassifier {
	cl := &mockClassifier{}
	cl.On("Classify", mock.Anything, "EGFR inhibition in HNSCC", mock.Anything).Return(model.RelevanceYes)
	cl.On("Classify", mock.Anything, "Knee arthroplasty outcomes", mock.Anything).Return(model.RelevanceNo)
	cl.On("Classify", mock.Anything, "Erratum", mock.Anything).Return(model.RelevanceUncertain)
	cl.On("Classify", mock.Anything, "EGFR inhibition in HNSCC (repost)", mock.Anything).Return(model.RelevanceYes)
	cl.On("Classify", mock.Anything, "Nivolumab in oral cavity cancer", mock.Anything).Return(model.RelevanceYes)
	return cl
}

func newStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() }) //nolint:errcheck
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestRun_EndToEnd(t *testing.T) {
	fx := newFixture(t, true)
	st := newStore(t)
	cl := newClassifier()

	p := New(fx.cfg, st, fetcher.NewRouter(nil, nil), cl, reconcile.New(nil, nil, nil))
	p.now = func() time.Time { return time.Date(2025, 3, 1, 6, 0, 0, 0, time.UTC) }

	report, err := p.Run(context.Background())
	require.NoError(t, err)
	cl.AssertNumberOfCalls(t, "Classify", 5)

	assert.Equal(t, 5, report.RawItems)
	assert.Equal(t, 3, report.RelevantItems)
	assert.Equal(t, 2, report.CuratedItems)
	assert.Equal(t, map[string]int{"YES": 3, "NO": 1, "UNCERTAIN": 1}, report.DecisionsTotal)
	assert.Equal(t, 1, report.Dedup.ByDOI)
	assert.Equal(t, 3, report.Reconcile.Records)
	assert.Equal(t, "2025-03-01T06:00:00Z", report.TimestampUTC)
	assert.NotEmpty(t, report.RunID)

	require.Len(t, report.Feeds, 3)
	assert.Equal(t, model.FeedReport{URL: fx.feedA, FeedTitle: "Head & Neck", ItemsInFeed: 3, RelevantYes: 1}, report.Feeds[0])
	assert.Equal(t, model.FeedReport{URL: fx.feedB, FeedTitle: "Oral Oncology", ItemsInFeed: 2, RelevantYes: 1}, report.Feeds[1])
	assert.Zero(t, report.Feeds[2].ItemsInFeed)
	assert.NotEmpty(t, report.Feeds[2].Error)

	var phases []string
	for _, ph := range report.Phases {
		assert.Equal(t, model.PhaseStatusComplete, ph.Status)
		phases = append(phases, ph.Name)
	}
	assert.Equal(t, []string{"ingest", "classify", "reconcile", "publish"}, phases)

	raw, err := ReadRecords(filepath.Join(fx.cfg.Feeds.DataDir, RawItemsFile))
	require.NoError(t, err)
	assert.Len(t, raw, 5)

	relevant, err := ReadRecords(filepath.Join(fx.cfg.Feeds.DataDir, RelevantItemsFile))
	require.NoError(t, err)
	require.Len(t, relevant, 3)
	assert.Equal(t, model.RelevanceYes, relevant[0].Relevance)
	assert.False(t, relevant[0].AllowRecovery)
	assert.True(t, relevant[1].AllowRecovery)

	curated, err := ReadRecords(filepath.Join(fx.cfg.Feeds.DataDir, CuratedItemsFile))
	require.NoError(t, err)
	require.Len(t, curated, 2)
	assert.Equal(t, "EGFR inhibition in HNSCC", curated[0].Title)
	assert.Equal(t, "Cetuximab response in recurrent disease.", curated[0].Abstract)
	assert.Equal(t, "Nivolumab in oral cavity cancer", curated[1].Title)
	assert.Equal(t, model.DOINotFound, curated[1].DOIDisplay)

	rss, err := os.ReadFile(filepath.Join(fx.cfg.Feeds.DocsDir, "head-neck-cancer.xml"))
	require.NoError(t, err)
	assert.Contains(t, string(rss), "<title>EGFR inhibition in HNSCC</title>")
	assert.NotContains(t, string(rss), "(repost)")
	assert.Contains(t, string(rss), "<lastBuildDate>Sat, 01 Mar 2025 06:00:00 +0000</lastBuildDate>")

	index, err := os.ReadFile(filepath.Join(fx.cfg.Feeds.DocsDir, IndexFile))
	require.NoError(t, err)
	assert.Equal(t, "# SentinelNode\n\nCurated RSS feed: **head-neck-cancer.xml**\n", string(index))

	data, err := os.ReadFile(filepath.Join(fx.cfg.Feeds.DataDir, RunReportFile))
	require.NoError(t, err)
	var onDisk model.RunReport
	require.NoError(t, json.Unmarshal(data, &onDisk))
	assert.Equal(t, report.CuratedItems, onDisk.CuratedItems)

	run, err := st.GetRun(context.Background(), report.RunID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, run.Status)
	require.NotNil(t, run.Report)
	assert.Equal(t, 2, run.Report.CuratedItems)
}

func TestRun_NoStore(t *testing.T) {
	fx := newFixture(t, false)
	p := New(fx.cfg, nil, fetcher.NewRouter(nil, nil), newClassifier(), reconcile.New(nil, nil, nil))

	report, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.RunID)
	assert.Equal(t, 2, report.CuratedItems)
}

func TestRun_EmptyFeedListFailsRun(t *testing.T) {
	fx := newFixture(t, false)
	require.NoError(t, os.WriteFile(fx.cfg.Feeds.ListPath, []byte("# none\n"), 0o644))
	st := newStore(t)
	cl := &mockClassifier{}

	p := New(fx.cfg, st, fetcher.NewRouter(nil, nil), cl, reconcile.New(nil, nil, nil))
	report, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no feeds configured")
	cl.AssertNotCalled(t, "Classify", mock.Anything, mock.Anything, mock.Anything)

	require.Len(t, report.Phases, 1)
	assert.Equal(t, model.PhaseStatusFailed, report.Phases[0].Status)

	run, err := st.GetRun(context.Background(), report.RunID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, run.Status)
	assert.Contains(t, run.Error, "no feeds configured")
}

func TestRun_CancelledDuringClassify(t *testing.T) {
	fx := newFixture(t, false)
	ctx, cancel := context.WithCancel(context.Background())

	cl := &mockClassifier{}
	cl.On("Classify", mock.Anything, mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return(model.RelevanceYes).Once()

	p := New(fx.cfg, nil, fetcher.NewRouter(nil, nil), cl, reconcile.New(nil, nil, nil))
	_, err := p.Run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "classify cancelled")
	cl.AssertNumberOfCalls(t, "Classify", 1)

	_, statErr := os.Stat(filepath.Join(fx.cfg.Feeds.DocsDir, "head-neck-cancer.xml"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestWriteJSON_Atomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.json")
	require.NoError(t, WriteJSON(path, map[string]string{"title": "a & b <c>"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"a & b <c>"`)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestReadRecords_Aliases(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"title":"T","identifier":"10.1002/hed.1","origin_allows_recovery":true}]`), 0o644))

	recs, err := ReadRecords(path)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "10.1002/hed.1", recs[0].DOI)
	assert.True(t, recs[0].AllowRecovery)

	require.NoError(t, os.WriteFile(path, []byte(`{"not":"an array"}`), 0o644))
	_, err = ReadRecords(path)
	assert.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "pipeline: decode"))
}
