package feed

import (
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
	"github.com/rotisserie/eris"

	"github.com/colmmemedsurv/sentinelnode/internal/doi"
	"github.com/colmmemedsurv/sentinelnode/internal/model"
	"github.com/colmmemedsurv/sentinelnode/internal/sanitize"
)

// Parsed is one feed document turned into records.
type Parsed struct {
	Title   string
	Records []model.Record
}

// Parse reads an RSS, Atom or RDF document and converts each entry into a
// record tagged with the source's URL and recovery permission. Records come
// out in document order.
func Parse(r io.Reader, src Source) (*Parsed, error) {
	f, err := gofeed.NewParser().Parse(r)
	if err != nil {
		return nil, eris.Wrapf(err, "feed: parse %s", src.URL)
	}

	out := &Parsed{Title: sanitize.Line(f.Title)}
	out.Records = make([]model.Record, 0, len(f.Items))
	for _, item := range f.Items {
		if item == nil {
			continue
		}
		out.Records = append(out.Records, entryRecord(item, out.Title, src))
	}
	return out, nil
}

func entryRecord(item *gofeed.Item, feedTitle string, src Source) model.Record {
	rec := model.Record{
		ID:            uuid.NewString(),
		SourceFeed:    src.URL,
		Title:         sanitize.Line(item.Title),
		Link:          entryLink(item),
		Journal:       feedTitle,
		Authors:       entryAuthors(item),
		Abstract:      entryAbstract(item),
		Published:     entryPublished(item),
		AllowRecovery: src.AllowDOILookup,
		DOICandidates: DOICandidates(item),
	}
	if j := sanitize.Line(extValue(item.Extensions, "prism", "publicationName")); j != "" {
		rec.Journal = j
	}
	rec.DOI = doi.Extract(rec.DOICandidates...)
	rec.SyncDOIDisplay()
	return rec
}

// DOICandidates lists the strings that may carry the entry's DOI, in
// extraction priority order: explicit identifier fields, the entry links,
// then the entry id.
func DOICandidates(item *gofeed.Item) []string {
	var out []string
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}

	if v := extValue(item.Extensions, "dc", "identifier"); v != "" {
		add(v)
	} else if item.DublinCoreExt != nil {
		for _, id := range item.DublinCoreExt.Identifier {
			add(id)
		}
	}
	add(item.Custom["doi"])
	add(extValue(item.Extensions, "prism", "doi"))

	links := item.Links
	if len(links) == 0 && item.Link != "" {
		links = []string{item.Link}
	}
	for _, l := range links {
		add(l)
	}

	add(item.GUID)
	return out
}

func entryLink(item *gofeed.Item) string {
	if l := strings.TrimSpace(item.Link); l != "" {
		return l
	}
	for _, l := range item.Links {
		if l = strings.TrimSpace(l); l != "" {
			return l
		}
	}
	return ""
}

func entryAuthors(item *gofeed.Item) []string {
	var names []string
	for _, p := range item.Authors {
		if p != nil {
			names = append(names, p.Name)
		}
	}
	//nolint:staticcheck // Author is still populated by parsers that skip Authors.
	if len(names) == 0 && item.Author != nil {
		names = append(names, item.Author.Name)
	}
	return sanitize.Lines(names)
}

func entryAbstract(item *gofeed.Item) string {
	if strings.TrimSpace(item.Description) != "" {
		return item.Description
	}
	return item.Content
}

// entryPublished prefers the raw published or updated string and falls back
// to the parsed timestamp in RFC 1123 form.
func entryPublished(item *gofeed.Item) string {
	if s := strings.TrimSpace(item.Published); s != "" {
		return s
	}
	if s := strings.TrimSpace(item.Updated); s != "" {
		return s
	}
	for _, t := range []*time.Time{item.PublishedParsed, item.UpdatedParsed} {
		if t != nil && !t.IsZero() {
			return t.UTC().Format(time.RFC1123Z)
		}
	}
	return ""
}

// extValue returns the first value of prefix:name, matching the element name
// case-insensitively.
func extValue(exts ext.Extensions, prefix, name string) string {
	for p, elems := range exts {
		if !strings.EqualFold(p, prefix) {
			continue
		}
		for n, vals := range elems {
			if !strings.EqualFold(n, name) {
				continue
			}
			for _, v := range vals {
				if s := strings.TrimSpace(v.Value); s != "" {
					return s
				}
			}
		}
	}
	return ""
}
