package merge

import (
	"strings"

	"github.com/colmmemedsurv/sentinelnode/internal/model"
)

// FromRegistry converts a registry answer into a merge source.
func FromRegistry(r *model.RegistryRecord) *model.Partial {
	if r == nil {
		return nil
	}
	return &model.Partial{
		Source:    model.SourceRegistry,
		Journal:   r.ContainerTitle,
		Authors:   r.Authors,
		Link:      r.URL,
		Abstract:  r.Abstract,
		DateParts: r.DateParts,
	}
}

// FromFullRecord converts a biomedical index record into a merge source.
func FromFullRecord(r *model.FullRecord) *model.Partial {
	if r == nil {
		return nil
	}
	return &model.Partial{
		Source:    model.SourceFullRecord,
		Journal:   r.Journal,
		Authors:   r.Authors,
		Abstract:  JoinSections(r.Sections),
		DateParts: r.DateParts,
	}
}

// JoinSections concatenates abstract sections in order as "Label: text",
// separated by blank lines. Sections without text are skipped.
func JoinSections(sections []model.AbstractSection) string {
	var parts []string
	for _, s := range sections {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		if label := strings.TrimSpace(s.Label); label != "" {
			text = label + ": " + text
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "\n\n")
}
