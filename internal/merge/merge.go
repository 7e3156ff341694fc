// Package merge combines the partial answers of several metadata sources
// into one record. The original record always wins; sources only fill gaps,
// in the order they are given.
package merge

import (
	"strings"

	"github.com/colmmemedsurv/sentinelnode/internal/model"
	"github.com/colmmemedsurv/sentinelnode/internal/sanitize"
)

// Field names used in record provenance.
const (
	FieldJournal   = "journal"
	FieldAuthors   = "authors"
	FieldLink      = "link"
	FieldAbstract  = "abstract"
	FieldPublished = "published"
	FieldDOI       = "doi"
)

// Merge returns orig with its empty fields filled from sources. Sources are
// consulted in order and nil sources are skipped. The abstract is always
// returned sanitized, and DOIDisplay is recomputed from DOI. Merge performs
// no I/O and does not modify its arguments.
func Merge(orig model.Record, sources ...*model.Partial) model.Record {
	out := orig.Clone()
	out.ClearSentinels()

	var present []*model.Partial
	for _, p := range sources {
		if p != nil {
			present = append(present, p)
		}
	}

	if strings.TrimSpace(out.Journal) == "" {
		out.Journal = ""
		for _, p := range present {
			if v := sanitize.Line(p.Journal); v != "" {
				out.Journal = v
				out.SetProvenance(FieldJournal, p.Source)
				break
			}
		}
	}

	if len(out.Authors) == 0 {
		for _, p := range present {
			if v := sanitize.Lines(p.Authors); len(v) > 0 {
				out.Authors = v
				out.SetProvenance(FieldAuthors, p.Source)
				break
			}
		}
	}

	if strings.TrimSpace(out.Link) == "" {
		out.Link = ""
		for _, p := range present {
			if v := strings.TrimSpace(p.Link); v != "" {
				out.Link = v
				out.SetProvenance(FieldLink, p.Source)
				break
			}
		}
	}

	out.Abstract = model.AbstractNotAvailable
	if v := sanitize.Text(orig.Abstract); v != "" && !model.IsEmptyAbstract(v) {
		out.Abstract = v
	} else {
		for _, p := range present {
			if v := sanitize.Text(p.Abstract); v != "" && !model.IsEmptyAbstract(v) {
				out.Abstract = v
				out.SetProvenance(FieldAbstract, p.Source)
				break
			}
		}
	}

	if strings.TrimSpace(out.Published) == "" {
		out.Published = ""
		if src, v := publishedFrom(present); v != "" {
			out.Published = v
			out.SetProvenance(FieldPublished, src)
		}
	}

	out.SyncDOIDisplay()
	return out
}

// publishedFrom picks a ready date string if any source has one, otherwise
// synthesizes a date from the first source that offers date parts. An
// invalid date from that source yields no date at all.
func publishedFrom(sources []*model.Partial) (string, string) {
	for _, p := range sources {
		if v := strings.TrimSpace(p.Published); v != "" {
			return p.Source, v
		}
	}
	for _, p := range sources {
		if len(p.DateParts) == 0 {
			continue
		}
		v, ok := FormatDateParts(p.DateParts)
		if !ok {
			return "", ""
		}
		return p.Source, v
	}
	return "", ""
}
