// Package pubmed provides a client for the NCBI E-utilities PubMed endpoints.
package pubmed

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
)

// Client defines the PubMed operations used for metadata lookup.
type Client interface {
	// SearchDOI returns the PMIDs indexed under a DOI.
	SearchDOI(ctx context.Context, doi string) ([]string, error)
	// Fetch returns the citation record for a PMID, or nil when the
	// response holds no article.
	Fetch(ctx context.Context, pmid string) (*Article, error)
}

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("pubmed: unexpected status %d: %s", e.StatusCode, e.Body)
}

// Article is the part of a PubmedArticle the pipeline reads.
type Article struct {
	PMID     string
	Journal  string
	Abstract []AbstractText
	Authors  []Author
	PubDate  PubDate
}

// AbstractText is one (possibly labeled) abstract paragraph. Text keeps
// any inline markup; callers sanitize it.
type AbstractText struct {
	Label string `xml:"Label,attr"`
	Text  string `xml:",innerxml"`
}

// Author is a byline entry. Consortia carry only CollectiveName.
type Author struct {
	LastName       string `xml:"LastName"`
	ForeName       string `xml:"ForeName"`
	Initials       string `xml:"Initials"`
	CollectiveName string `xml:"CollectiveName"`
}

// DisplayName returns "ForeName LastName", falling back to initials or the
// collective name.
func (a Author) DisplayName() string {
	if a.CollectiveName != "" && a.LastName == "" {
		return strings.TrimSpace(a.CollectiveName)
	}
	first := a.ForeName
	if first == "" {
		first = a.Initials
	}
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(a.LastName))
}

// PubDate is the journal issue date. Month may be a number or an
// abbreviated name.
type PubDate struct {
	Year        string `xml:"Year"`
	Month       string `xml:"Month"`
	Day         string `xml:"Day"`
	MedlineDate string `xml:"MedlineDate"`
}

var monthNames = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

// Ints returns [year, month, day] truncated at the first missing or
// unparseable part. MedlineDate contributes only its leading year.
func (d PubDate) Ints() []int {
	yearText := d.Year
	if yearText == "" && len(d.MedlineDate) >= 4 {
		yearText = d.MedlineDate[:4]
	}
	year, err := strconv.Atoi(strings.TrimSpace(yearText))
	if err != nil {
		return nil
	}
	out := []int{year}
	if d.Year == "" {
		return out
	}

	m := strings.TrimSpace(d.Month)
	month, err := strconv.Atoi(m)
	if err != nil {
		if len(m) < 3 {
			return out
		}
		var ok bool
		if month, ok = monthNames[strings.ToLower(m[:3])]; !ok {
			return out
		}
	}
	out = append(out, month)

	day, err := strconv.Atoi(strings.TrimSpace(d.Day))
	if err != nil {
		return out
	}
	return append(out, day)
}

type articleSet struct {
	Articles []struct {
		PMID    string `xml:"MedlineCitation>PMID"`
		Article struct {
			Journal struct {
				Title   string  `xml:"Title"`
				PubDate PubDate `xml:"JournalIssue>PubDate"`
			} `xml:"Journal"`
			Abstract []AbstractText `xml:"Abstract>AbstractText"`
			Authors  []Author       `xml:"AuthorList>Author"`
		} `xml:"MedlineCitation>Article"`
	} `xml:"PubmedArticle"`
}

type searchResult struct {
	ESearchResult struct {
		Count  string   `json:"count"`
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

// Option configures the PubMed client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithAPIKey sets the NCBI API key, raising the allowed request rate.
func WithAPIKey(key string) Option {
	return func(c *httpClient) {
		c.apiKey = key
	}
}

// WithTool sets the tool and email parameters NCBI asks callers to send.
func WithTool(tool, email string) Option {
	return func(c *httpClient) {
		c.tool = tool
		c.email = email
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *httpClient) {
		c.userAgent = ua
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

type httpClient struct {
	baseURL   string
	apiKey    string
	tool      string
	email     string
	userAgent string
	http      *http.Client
}

// NewClient creates a new PubMed client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL:   "https://eutils.ncbi.nlm.nih.gov/entrez/eutils",
		userAgent: "sentinelnode/1.0",
		http: &http.Client{
			Timeout: 20 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) SearchDOI(ctx context.Context, doi string) ([]string, error) {
	doi = strings.TrimSpace(doi)
	if doi == "" {
		return nil, eris.New("pubmed: empty doi")
	}

	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("term", doi+"[doi]")
	params.Set("retmode", "json")

	body, err := c.get(ctx, "/esearch.fcgi", params)
	if err != nil {
		return nil, err
	}

	var res searchResult
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, eris.Wrap(err, "pubmed: unmarshal search response")
	}
	return res.ESearchResult.IDList, nil
}

func (c *httpClient) Fetch(ctx context.Context, pmid string) (*Article, error) {
	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("id", pmid)
	params.Set("retmode", "xml")

	body, err := c.get(ctx, "/efetch.fcgi", params)
	if err != nil {
		return nil, err
	}
	return ParseArticle(bytes.NewReader(body))
}

// ParseArticle decodes the first PubmedArticle of an efetch response.
func ParseArticle(r io.Reader) (*Article, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		enc, err := htmlindex.Get(charset)
		if err != nil {
			return nil, eris.Wrapf(err, "pubmed: unsupported charset %q", charset)
		}
		return enc.NewDecoder().Reader(input), nil
	}

	var set articleSet
	if err := dec.Decode(&set); err != nil {
		return nil, eris.Wrap(err, "pubmed: decode efetch response")
	}
	if len(set.Articles) == 0 {
		return nil, nil
	}

	a := set.Articles[0]
	return &Article{
		PMID:     strings.TrimSpace(a.PMID),
		Journal:  strings.TrimSpace(a.Article.Journal.Title),
		Abstract: a.Article.Abstract,
		Authors:  a.Article.Authors,
		PubDate:  a.Article.Journal.PubDate,
	}, nil
}

// AuthorNames returns display names in byline order, skipping blanks.
func (a *Article) AuthorNames() []string {
	var out []string
	for _, au := range a.Authors {
		if n := au.DisplayName(); n != "" {
			out = append(out, n)
		}
	}
	return out
}

func (c *httpClient) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}
	if c.tool != "" {
		params.Set("tool", c.tool)
	}
	if c.email != "" {
		params.Set("email", c.email)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "pubmed: create request")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "pubmed: request failed")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "pubmed: read response body")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b := string(body)
		if len(b) > 200 {
			b = b[:200]
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Body: b}
	}
	return body, nil
}
