// Package dedupe collapses records that refer to the same work.
package dedupe

import (
	"strings"

	"go.uber.org/zap"

	"github.com/colmmemedsurv/sentinelnode/internal/doi"
	"github.com/colmmemedsurv/sentinelnode/internal/model"
	"github.com/colmmemedsurv/sentinelnode/internal/sanitize"
)

// Keys are the normalized identifying fields of a record. Empty keys never
// match anything.
type Keys struct {
	DOI   string
	Link  string
	Title string
}

// KeysOf computes the dedup keys of r.
func KeysOf(r model.Record) Keys {
	return Keys{
		DOI:   doi.Normalize(r.DOI),
		Link:  strings.ToLower(strings.TrimSpace(r.Link)),
		Title: sanitize.NormalizeTitle(r.Title),
	}
}

// Deduplicate makes one pass over records in order and drops every record
// whose DOI, link or title was already seen. The first occurrence always
// wins, even when a later duplicate carries more metadata. Only kept records
// add their keys to the seen sets.
func Deduplicate(records []model.Record) ([]model.Record, model.DedupStats) {
	stats := model.DedupStats{Input: len(records)}

	seenDOI := make(map[string]struct{})
	seenLink := make(map[string]struct{})
	seenTitle := make(map[string]struct{})

	kept := make([]model.Record, 0, len(records))
	for _, r := range records {
		k := KeysOf(r)

		if seen(seenDOI, k.DOI) {
			stats.ByDOI++
			zap.L().Debug("dedupe: dropped duplicate", zap.String("by", "doi"), zap.String("doi", r.DOI), zap.String("title", r.Title))
			continue
		}
		if seen(seenLink, k.Link) {
			stats.ByLink++
			zap.L().Debug("dedupe: dropped duplicate", zap.String("by", "link"), zap.String("link", r.Link), zap.String("title", r.Title))
			continue
		}
		if seen(seenTitle, k.Title) {
			stats.ByTitle++
			zap.L().Debug("dedupe: dropped duplicate", zap.String("by", "title"), zap.String("title", r.Title))
			continue
		}

		add(seenDOI, k.DOI)
		add(seenLink, k.Link)
		add(seenTitle, k.Title)
		kept = append(kept, r)
	}

	stats.Kept = len(kept)
	zap.L().Info("dedupe: complete",
		zap.Int("input", stats.Input),
		zap.Int("kept", stats.Kept),
		zap.Int("by_doi", stats.ByDOI),
		zap.Int("by_link", stats.ByLink),
		zap.Int("by_title", stats.ByTitle),
	)
	return kept, stats
}

func seen(set map[string]struct{}, key string) bool {
	if key == "" {
		return false
	}
	_, ok := set[key]
	return ok
}

func add(set map[string]struct{}, key string) {
	if key != "" {
		set[key] = struct{}{}
	}
}
