// Package sanitize removes markup from bibliographic text and builds the
// normalized keys used for title comparison.
package sanitize

import (
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// blockTags end the current paragraph when opened or closed. Namespaced
// tags such as jats:p are matched on their local name.
var blockTags = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "ul": true, "ol": true,
	"section": true, "sec": true, "title": true, "h1": true, "h2": true,
	"h3": true, "h4": true, "h5": true, "h6": true, "tr": true, "table": true,
	"blockquote": true, "abstract": true, "list": true, "list-item": true,
}

// skipTags have content that is never prose.
var skipTags = map[string]bool{"script": true, "style": true}

// inlineTags are recognized as markup even when written with bare words
// after the name.
var inlineTags = map[string]bool{
	"a": true, "b": true, "i": true, "u": true, "em": true, "strong": true,
	"sup": true, "sub": true, "span": true, "small": true, "font": true,
	"italic": true, "bold": true, "underline": true, "sc": true, "xref": true,
	"ext-link": true, "named-content": true, "inline-formula": true,
}

const (
	cdataOpen  = "<![CDATA["
	cdataClose = "]]>"
)

var (
	// residualTag catches tag-shaped text the tokenizer emitted as data,
	// e.g. entity-escaped markup. Bare comparison operators are left alone.
	residualTag = regexp.MustCompile(`</?[A-Za-z][A-Za-z0-9:_.-]*(\s[^<>]*)?/?>`)
	tagName     = regexp.MustCompile(`^</?([A-Za-z][A-Za-z0-9:_.-]*)`)
	blankLine   = regexp.MustCompile(`\n\s*\n`)
)

// isMarkup reports whether the tag-shaped raw text is markup rather than
// prose such as "x<y and y>z". Unknown unprefixed names followed by bare
// words are prose.
func isMarkup(raw string) bool {
	m := tagName.FindStringSubmatch(raw)
	if m == nil {
		return false
	}
	name := strings.ToLower(m[1])
	if strings.Contains(name, ":") {
		return true
	}
	local := localName(name)
	if blockTags[local] || skipTags[local] || inlineTags[local] {
		return true
	}
	return strings.Contains(raw, "=") || !strings.ContainsAny(raw, " \t\r\n")
}

// stripResidual replaces residual markup with a space and reports whether
// anything was removed.
func stripResidual(s string) (string, bool) {
	changed := false
	out := residualTag.ReplaceAllStringFunc(s, func(m string) string {
		if !isMarkup(m) {
			return m
		}
		changed = true
		return " "
	})
	return out, changed
}

// Text strips markup from s, decodes entities, collapses runs of whitespace
// within paragraphs and separates paragraphs with a single blank line.
// Plain text passes through with only whitespace normalized.
func Text(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}

	var (
		paras []string
		cur   strings.Builder
		skip  int
	)
	flush := func() {
		if p := collapse(cur.String()); p != "" {
			paras = append(paras, p)
		}
		cur.Reset()
	}

	z := html.NewTokenizer(strings.NewReader(s))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if z.Err() != io.EOF {
				// Unparseable tail: keep it as text and let the residual pass clean it.
				cur.Write(z.Raw())
			}
			break
		}
		switch tt {
		case html.TextToken:
			if skip > 0 {
				continue
			}
			parts := blankLine.Split(string(z.Text()), -1)
			for i, part := range parts {
				if i > 0 {
					flush()
				}
				cur.WriteString(part)
			}
		case html.CommentToken:
			// The tokenizer reads CDATA sections outside foreign content as comments.
			raw := string(z.Raw())
			if skip == 0 && strings.HasPrefix(raw, cdataOpen) {
				cur.WriteString(strings.TrimSuffix(strings.TrimPrefix(raw, cdataOpen), cdataClose))
			}
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			raw := string(z.Raw())
			if !isMarkup(raw) {
				if skip == 0 {
					cur.WriteString(raw)
				}
				continue
			}
			name, _ := z.TagName()
			local := localName(string(name))
			if skipTags[local] {
				switch tt {
				case html.StartTagToken:
					skip++
				case html.EndTagToken:
					if skip > 0 {
						skip--
					}
				}
				continue
			}
			if blockTags[local] {
				flush()
				continue
			}
			// Inline tags separate words only when the source had whitespace.
		}
	}
	flush()

	out := strings.Join(paras, "\n\n")
	if stripped, ok := stripResidual(out); ok {
		out = Text(stripped)
	}
	return out
}

func localName(name string) string {
	if i := strings.LastIndexByte(name, ':'); i >= 0 {
		return name[i+1:]
	}
	return name
}

// collapse trims s and replaces every whitespace run with one space.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
