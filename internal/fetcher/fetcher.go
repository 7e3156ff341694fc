package fetcher

import (
	"context"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/rotisserie/eris"
)

// Fetcher downloads a feed document.
type Fetcher interface {
	// Download fetches the URL and returns the response body. The caller
	// closes the body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)
}

// Options configures the scheme router.
type Options struct {
	HTTP HTTPOptions
	FTP  FTPOptions
}

// Router dispatches downloads by URL scheme: http and https go to the HTTP
// fetcher, ftp to the FTP fetcher, file URLs and bare paths to the local
// filesystem.
type Router struct {
	http Fetcher
	ftp  Fetcher
}

// New creates a Router backed by an HTTPFetcher and an FTPFetcher.
func New(opts Options) *Router {
	return &Router{
		http: NewHTTPFetcher(opts.HTTP),
		ftp:  NewFTPFetcher(opts.FTP),
	}
}

// NewRouter creates a Router from explicit fetchers.
func NewRouter(httpFetcher, ftpFetcher Fetcher) *Router {
	return &Router{http: httpFetcher, ftp: ftpFetcher}
}

// Download implements Fetcher.
func (r *Router) Download(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, eris.New("fetcher: empty url")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: parse url %q", rawURL)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		if r.http == nil {
			return nil, eris.New("fetcher: no http fetcher configured")
		}
		return r.http.Download(ctx, rawURL)
	case "ftp":
		if r.ftp == nil {
			return nil, eris.New("fetcher: no ftp fetcher configured")
		}
		return r.ftp.Download(ctx, rawURL)
	case "file":
		return openLocal(u.Path)
	case "":
		return openLocal(rawURL)
	default:
		return nil, eris.Errorf("fetcher: unsupported scheme %q", u.Scheme)
	}
}

func openLocal(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: open %s", path)
	}
	return f, nil
}
