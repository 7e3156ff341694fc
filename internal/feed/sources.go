package feed

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// AllowLookupTag marks a feed line whose entries may go through DOI recovery.
const AllowLookupTag = "[ALLOW_DOI_LOOKUP]"

// Source is one configured feed.
type Source struct {
	URL            string `yaml:"url" json:"url"`
	AllowDOILookup bool   `yaml:"allow_doi_lookup" json:"allow_doi_lookup"`
}

// LoadSources reads the feed list at path. Files ending in .yaml or .yml are
// parsed as YAML; anything else uses the line format. An empty list is an
// error.
func LoadSources(path string) ([]Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "feed: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	var sources []Source
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		sources, err = ParseYAMLSources(f)
	default:
		sources, err = ParseSources(f)
	}
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, eris.Errorf("feed: no feeds configured in %s", path)
	}
	return sources, nil
}

// ParseSources reads one feed URL per line. Blank lines and lines starting
// with # are skipped; a leading [ALLOW_DOI_LOOKUP] tag enables recovery.
func ParseSources(r io.Reader) ([]Source, error) {
	var out []Source
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var src Source
		if rest, ok := strings.CutPrefix(line, AllowLookupTag); ok {
			src.AllowDOILookup = true
			line = strings.TrimSpace(rest)
		}
		if line == "" {
			continue
		}
		src.URL = line
		out = append(out, src)
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrap(err, "feed: read sources")
	}
	return out, nil
}

// ParseYAMLSources reads a document of the form
//
//	feeds:
//	  - url: https://example.org/rss
//	    allow_doi_lookup: true
func ParseYAMLSources(r io.Reader) ([]Source, error) {
	var doc struct {
		Feeds []Source `yaml:"feeds"`
	}
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
		return nil, eris.Wrap(err, "feed: parse yaml sources")
	}

	out := make([]Source, 0, len(doc.Feeds))
	for _, s := range doc.Feeds {
		s.URL = strings.TrimSpace(s.URL)
		if s.URL == "" {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}
