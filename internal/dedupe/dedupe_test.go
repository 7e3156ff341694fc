package dedupe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colmmemedsurv/sentinelnode/internal/model"
)

func TestKeysOf(t *testing.T) {
	k := KeysOf(model.Record{
		DOI:   " https://doi.org/10.1002/HED.27001 ",
		Link:  " HTTPS://Example.org/Article/1 ",
		Title: "  Transoral Robotic Surgery: Outcomes!  ",
	})
	assert.Equal(t, "10.1002/hed.27001", k.DOI)
	assert.Equal(t, "https://example.org/article/1", k.Link)
	assert.Equal(t, "transoral robotic surgery outcomes", k.Title)

	empty := KeysOf(model.Record{})
	assert.Equal(t, Keys{}, empty)
}

func TestDeduplicate(t *testing.T) {
	tests := []struct {
		name      string
		records   []model.Record
		wantTitle []string
		wantStats model.DedupStats
	}{
		{
			name:      "empty",
			records:   nil,
			wantTitle: nil,
			wantStats: model.DedupStats{},
		},
		{
			name: "by doi across resolver prefix and case",
			records: []model.Record{
				{Title: "First", DOI: "10.1016/j.oraloncology.2025.01"},
				{Title: "Second", DOI: "doi:10.1016/J.ORALONCOLOGY.2025.01"},
			},
			wantTitle: []string{"First"},
			wantStats: model.DedupStats{Input: 2, Kept: 1, ByDOI: 1},
		},
		{
			name: "by link",
			records: []model.Record{
				{Title: "A", Link: "https://example.org/a"},
				{Title: "B", Link: "HTTPS://EXAMPLE.ORG/A"},
			},
			wantTitle: []string{"A"},
			wantStats: model.DedupStats{Input: 2, Kept: 1, ByLink: 1},
		},
		{
			name: "by normalized title",
			records: []model.Record{
				{Title: "Neck dissection: a review"},
				{Title: "NECK DISSECTION - A REVIEW"},
			},
			wantTitle: []string{"Neck dissection: a review"},
			wantStats: model.DedupStats{Input: 2, Kept: 1, ByTitle: 1},
		},
		{
			name: "doi checked before link",
			records: []model.Record{
				{Title: "A", DOI: "10.1/x", Link: "https://example.org/a"},
				{Title: "B", DOI: "10.1/x", Link: "https://example.org/a"},
			},
			wantTitle: []string{"A"},
			wantStats: model.DedupStats{Input: 2, Kept: 1, ByDOI: 1},
		},
		{
			name: "empty keys never match",
			records: []model.Record{
				{Title: ""},
				{Title: "   "},
				{Title: "!!!"},
			},
			wantTitle: []string{"", "   ", "!!!"},
			wantStats: model.DedupStats{Input: 3, Kept: 3},
		},
		{
			name: "distinct records all kept",
			records: []model.Record{
				{Title: "Cetuximab", DOI: "10.1/a"},
				{Title: "Pembrolizumab", DOI: "10.1/b"},
				{Title: "Nivolumab", Link: "https://example.org/n"},
			},
			wantTitle: []string{"Cetuximab", "Pembrolizumab", "Nivolumab"},
			wantStats: model.DedupStats{Input: 3, Kept: 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, stats := Deduplicate(tt.records)
			var titles []string
			for _, r := range got {
				titles = append(titles, r.Title)
			}
			assert.Equal(t, tt.wantTitle, titles)
			assert.Equal(t, tt.wantStats, stats)
		})
	}
}

func TestDeduplicate_FirstOccurrenceWins(t *testing.T) {
	records := []model.Record{
		{Title: "HPV and oropharyngeal cancer", DOI: "10.1/hpv"},
		{
			Title:    "HPV and oropharyngeal cancer",
			DOI:      "10.1/hpv",
			Abstract: "A much richer record that still loses.",
			Authors:  []string{"Jane Doe"},
		},
	}

	got, stats := Deduplicate(records)
	require.Len(t, got, 1)
	assert.Empty(t, got[0].Abstract)
	assert.Empty(t, got[0].Authors)
	assert.Equal(t, 1, stats.ByDOI)
}

func TestDeduplicate_DroppedKeysNotRecorded(t *testing.T) {
	// The second record is dropped by DOI, so its link must not be seen.
	records := []model.Record{
		{Title: "One", DOI: "10.1/one"},
		{Title: "Two", DOI: "10.1/one", Link: "https://example.org/shared"},
		{Title: "Three", Link: "https://example.org/shared"},
	}

	got, stats := Deduplicate(records)
	require.Len(t, got, 2)
	assert.Equal(t, "One", got[0].Title)
	assert.Equal(t, "Three", got[1].Title)
	assert.Equal(t, model.DedupStats{Input: 3, Kept: 2, ByDOI: 1}, stats)
}

func TestDeduplicate_KeptKeysUnique(t *testing.T) {
	records := []model.Record{
		{Title: "Alpha", DOI: "10.1/a", Link: "https://x/1"},
		{Title: "Beta", DOI: "10.1/b", Link: "https://x/1"},
		{Title: "alpha", DOI: "10.1/c"},
		{Title: "Gamma", DOI: "10.1/A"},
		{Title: "Delta", Link: "https://x/2"},
		{Title: "Epsilon", DOI: "10.1/e", Link: "https://x/2"},
		{Title: "Zeta"},
	}

	got, stats := Deduplicate(records)
	assert.Equal(t, stats.Input-stats.ByDOI-stats.ByLink-stats.ByTitle, stats.Kept)
	assert.Len(t, got, stats.Kept)

	dois, links, titles := map[string]bool{}, map[string]bool{}, map[string]bool{}
	check := func(set map[string]bool, key string) {
		if key == "" {
			return
		}
		assert.False(t, set[key], "duplicate key %q", key)
		set[key] = true
	}
	for _, r := range got {
		k := KeysOf(r)
		check(dois, k.DOI)
		check(links, k.Link)
		check(titles, k.Title)
	}
}
