package feed

import (
	"encoding/xml"
	"html"
	"io"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/colmmemedsurv/sentinelnode/internal/doi"
	"github.com/colmmemedsurv/sentinelnode/internal/model"
)

// XML namespaces declared on the output document.
const (
	NSContent = "http://purl.org/rss/1.0/modules/content/"
	NSDC      = "http://purl.org/dc/elements/1.1/"
	NSPrism   = "http://prismstandard.org/namespaces/basic/2.0/"
)

// Channel describes the output feed.
type Channel struct {
	Title       string
	Link        string
	Description string
	BuildDate   time.Time
}

type rssDoc struct {
	XMLName   xml.Name   `xml:"rss"`
	Version   string     `xml:"version,attr"`
	NSContent string     `xml:"xmlns:content,attr"`
	NSDC      string     `xml:"xmlns:dc,attr"`
	NSPrism   string     `xml:"xmlns:prism,attr"`
	Channel   rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	LastBuildDate string    `xml:"lastBuildDate"`
	Items         []rssItem `xml:"item"`
}

type rssItem struct {
	Title           string     `xml:"title"`
	Link            string     `xml:"link,omitempty"`
	GUID            rssGUID    `xml:"guid"`
	PubDate         string     `xml:"pubDate,omitempty"`
	Creator         string     `xml:"dc:creator,omitempty"`
	PublicationName string     `xml:"prism:publicationName,omitempty"`
	DOI             string     `xml:"prism:doi,omitempty"`
	Description     string     `xml:"description"`
	Content         rssContent `xml:"content:encoded"`
}

type rssGUID struct {
	IsPermaLink string `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

type rssContent struct {
	HTML string `xml:",cdata"`
}

// WriteRSS renders records as an RSS 2.0 document carrying the content,
// Dublin Core and PRISM namespaces. Records are written in the given order.
func WriteRSS(w io.Writer, ch Channel, records []model.Record) error {
	built := ch.BuildDate
	if built.IsZero() {
		built = time.Now()
	}

	doc := rssDoc{
		Version:   "2.0",
		NSContent: NSContent,
		NSDC:      NSDC,
		NSPrism:   NSPrism,
		Channel: rssChannel{
			Title:         ch.Title,
			Link:          ch.Link,
			Description:   ch.Description,
			LastBuildDate: built.UTC().Format(time.RFC1123Z),
			Items:         make([]rssItem, 0, len(records)),
		},
	}
	for _, r := range records {
		doc.Channel.Items = append(doc.Channel.Items, itemFor(r))
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return eris.Wrap(err, "feed: write rss header")
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return eris.Wrap(err, "feed: encode rss")
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return eris.Wrap(err, "feed: write rss")
	}
	return nil
}

func itemFor(r model.Record) rssItem {
	authors := strings.Join(r.Authors, ", ")

	desc := "Journal: " + r.Journal
	if r.DOI != "" {
		desc += " | DOI: " + r.DOI
	}

	it := rssItem{
		Title:           r.Title,
		Link:            r.Link,
		PubDate:         r.Published,
		Creator:         authors,
		PublicationName: r.Journal,
		DOI:             r.DOI,
		Description:     desc,
		Content:         rssContent{HTML: contentHTML(r, authors)},
	}

	switch {
	case r.Link != "":
		it.GUID = rssGUID{IsPermaLink: "true", Value: r.Link}
	case r.DOI != "":
		it.GUID = rssGUID{IsPermaLink: "true", Value: doi.URL(r.DOI)}
	default:
		it.GUID = rssGUID{IsPermaLink: "false", Value: r.ID}
	}
	return it
}

func contentHTML(r model.Record, authors string) string {
	var b strings.Builder
	b.WriteString("\n")
	if r.Journal != "" {
		b.WriteString("<p><strong>Journal</strong>: " + html.EscapeString(r.Journal) + "</p>\n")
	}
	if authors != "" {
		b.WriteString("<p><strong>Authors</strong>: " + html.EscapeString(authors) + "</p>\n")
	}
	if r.DOI != "" {
		u := html.EscapeString(doi.URL(r.DOI))
		b.WriteString("<p><strong>DOI</strong>: <a href='" + u + "'>" + html.EscapeString(r.DOI) + "</a></p>\n")
	}
	abstract := r.Abstract
	if model.IsEmptyAbstract(abstract) {
		abstract = model.AbstractNotAvailable
	}
	b.WriteString("<hr/>\n")
	b.WriteString("<p><strong>Abstract</strong></p>\n")
	b.WriteString("<p>" + strings.ReplaceAll(html.EscapeString(abstract), "\n", "<br/>") + "</p>\n")
	return b.String()
}
