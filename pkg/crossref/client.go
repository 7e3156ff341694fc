// Package crossref provides a client for the Crossref REST API.
package crossref

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// ErrNotFound is returned when Crossref has no work for a DOI.
var ErrNotFound = eris.New("crossref: work not found")

// Client defines the Crossref operations used for metadata lookup.
type Client interface {
	// GetWork fetches the registered metadata for one DOI.
	GetWork(ctx context.Context, doi string) (*Work, error)
	// SearchWorks runs a bibliographic query and returns up to rows works.
	SearchWorks(ctx context.Context, query string, rows int) ([]Work, error)
}

// APIError is returned for any non-2xx response other than 404.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("crossref: unexpected status %d: %s", e.StatusCode, e.Body)
}

// Work is the subset of a Crossref work record the pipeline reads.
type Work struct {
	DOI             string    `json:"DOI"`
	Title           []string  `json:"title"`
	ContainerTitle  []string  `json:"container-title"`
	Author          []Author  `json:"author"`
	Issued          DateParts `json:"issued"`
	Published       DateParts `json:"published"`
	PublishedPrint  DateParts `json:"published-print"`
	PublishedOnline DateParts `json:"published-online"`
	URL             string    `json:"URL"`
	Abstract        string    `json:"abstract"`
}

// Author is a contributor on a work. Organizations carry only Name.
type Author struct {
	Given  string `json:"given"`
	Family string `json:"family"`
	Name   string `json:"name"`
}

// DisplayName returns "Given Family", falling back to Name.
func (a Author) DisplayName() string {
	full := strings.TrimSpace(strings.TrimSpace(a.Given) + " " + strings.TrimSpace(a.Family))
	if full != "" {
		return full
	}
	return strings.TrimSpace(a.Name)
}

// DateParts is Crossref's {"date-parts": [[year, month, day]]} shape.
type DateParts struct {
	Parts [][]json.Number `json:"date-parts"`
}

// Ints returns the first date-part list as integers. Nulls and
// non-numeric entries end the list.
func (d DateParts) Ints() []int {
	if len(d.Parts) == 0 {
		return nil
	}
	var out []int
	for _, p := range d.Parts[0] {
		n, err := strconv.Atoi(p.String())
		if err != nil {
			break
		}
		out = append(out, n)
	}
	return out
}

// FirstTitle returns the primary title, or "".
func (w *Work) FirstTitle() string {
	if len(w.Title) == 0 {
		return ""
	}
	return w.Title[0]
}

// Journal returns the first container title, or "".
func (w *Work) Journal() string {
	if len(w.ContainerTitle) == 0 {
		return ""
	}
	return w.ContainerTitle[0]
}

// AuthorNames returns display names in byline order, skipping blanks.
func (w *Work) AuthorNames() []string {
	var out []string
	for _, a := range w.Author {
		if n := a.DisplayName(); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// BestDate returns the first populated of issued, published-print,
// published-online and published.
func (w *Work) BestDate() []int {
	for _, d := range []DateParts{w.Issued, w.PublishedPrint, w.PublishedOnline, w.Published} {
		if parts := d.Ints(); len(parts) > 0 {
			return parts
		}
	}
	return nil
}

type envelope[T any] struct {
	Status  string `json:"status"`
	Message T      `json:"message"`
}

type searchMessage struct {
	Items []Work `json:"items"`
}

// Option configures the Crossref client.
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

// WithMailto identifies the caller for Crossref's polite pool.
func WithMailto(email string) Option {
	return func(c *httpClient) {
		c.mailto = email
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
	mailto    string
	userAgent string
	http      *http.Client
}

// NewClient creates a new Crossref client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL:   "https://api.crossref.org",
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

func (c *httpClient) GetWork(ctx context.Context, doi string) (*Work, error) {
	doi = strings.TrimSpace(doi)
	if doi == "" {
		return nil, eris.New("crossref: empty doi")
	}

	var env envelope[Work]
	if err := c.get(ctx, "/works/"+url.PathEscape(doi), nil, &env); err != nil {
		return nil, err
	}
	return &env.Message, nil
}

func (c *httpClient) SearchWorks(ctx context.Context, query string, rows int) ([]Work, error) {
	if rows <= 0 {
		rows = 5
	}
	params := url.Values{}
	params.Set("query.bibliographic", query)
	params.Set("rows", strconv.Itoa(rows))
	params.Set("select", "DOI,title,author")

	var env envelope[searchMessage]
	if err := c.get(ctx, "/works", params, &env); err != nil {
		return nil, err
	}
	return env.Message.Items, nil
}

func (c *httpClient) get(ctx context.Context, path string, params url.Values, out any) error {
	if params == nil {
		params = url.Values{}
	}
	if c.mailto != "" {
		params.Set("mailto", c.mailto)
	}
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return eris.Wrap(err, "crossref: create request")
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "crossref: request failed")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "crossref: read response body")
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		b := string(body)
		if len(b) > 200 {
			b = b[:200]
		}
		return &APIError{StatusCode: resp.StatusCode, Body: b}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrap(err, "crossref: unmarshal response")
	}
	return nil
}
