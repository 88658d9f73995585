package parser

import (
	"bytes"
	"compress/flate"
	"compress/zlib"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/rs/zerolog"
)

// DefaultFetchTimeout bounds every page request, search and detail alike
const DefaultFetchTimeout = 15 * time.Second

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/73.0.3683.86 Safari/537.36"

// Header bundle eBay expects on every request
var requestHeaders = map[string]string{
	"Accept":                  "*/*",
	"Accept-Encoding":         "gzip, deflate, sdch",
	"Accept-Language":         "en-US,en;q=0.8",
	"Content-Security-Policy": "media-src 'self' *.ebaystatic.com; font-src 'self' *.ebaystatic.com",
	"Cache-Control":           "max-age=0",
	"User-Agent":              userAgent,
}

var errNoResponse = errors.New("no response received")

// StatusError is returned when a page answers with anything other than 200
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("we got status code %d from %s", e.StatusCode, e.URL)
}

// FetchResult is the outcome of a single page request
type FetchResult struct {
	URL        string
	StatusCode int
	Body       []byte
}

// OK reports whether the page was served with status 200
func (r *FetchResult) OK() bool {
	return r.StatusCode == http.StatusOK
}

// Err returns a *StatusError for non-200 results and nil otherwise
func (r *FetchResult) Err() error {
	if r.OK() {
		return nil
	}
	return &StatusError{URL: r.URL, StatusCode: r.StatusCode}
}

// PageFetcher retrieves one page per call
type PageFetcher interface {
	Fetch(ctx context.Context, pageURL string) (*FetchResult, error)
}

// Fetcher issues single GET requests with the eBay header bundle.
// There are no retries: one request, one result.
type Fetcher struct {
	collector *colly.Collector
	log       zerolog.Logger
}

// NewFetcher creates a Fetcher whose requests give up after timeout
func NewFetcher(timeout time.Duration, log zerolog.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}

	c := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(timeout)

	// Non-200 pages are results, not collector errors
	c.ParseHTTPErrorResponse = true

	return &Fetcher{
		collector: c,
		log:       log.With().Str("component", "fetcher").Logger(),
	}
}

// Fetch performs one GET of pageURL. Transport failures (timeouts, DNS,
// refused connections) come back as errors; every HTTP response, whatever
// its status, comes back as a FetchResult.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (*FetchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Callbacks are per request; the clone shares the HTTP backend
	c := f.collector.Clone()
	c.AllowURLRevisit = true
	c.ParseHTTPErrorResponse = true

	var (
		result    *FetchResult
		decodeErr error
	)

	c.OnRequest(func(r *colly.Request) {
		for key, value := range requestHeaders {
			r.Headers.Set(key, value)
		}
		f.log.Debug().Str("url", r.URL.String()).Msg("Visiting")
	})

	c.OnResponse(func(r *colly.Response) {
		f.log.Debug().
			Str("url", pageURL).
			Int("status", r.StatusCode).
			Int("size", len(r.Body)).
			Msg("Received response")

		body, err := decodeBody(r.Headers.Get("Content-Encoding"), r.Body)
		if err != nil {
			decodeErr = err
			return
		}
		result = &FetchResult{
			URL:        pageURL,
			StatusCode: r.StatusCode,
			Body:       body,
		}
	})

	if err := c.Visit(pageURL); err != nil {
		return nil, fmt.Errorf("error visiting %s: %w", pageURL, err)
	}
	c.Wait()

	if decodeErr != nil {
		return nil, fmt.Errorf("error decoding %s: %w", pageURL, decodeErr)
	}
	if result == nil {
		return nil, fmt.Errorf("error visiting %s: %w", pageURL, errNoResponse)
	}
	return result, nil
}

// decodeBody inflates deflate-encoded bodies. colly only takes care of gzip.
func decodeBody(encoding string, body []byte) ([]byte, error) {
	if !strings.EqualFold(strings.TrimSpace(encoding), "deflate") {
		return body, nil
	}

	// Servers send deflate either zlib-wrapped or raw
	if zr, err := zlib.NewReader(bytes.NewReader(body)); err == nil {
		defer zr.Close()
		if out, err := io.ReadAll(zr); err == nil {
			return out, nil
		}
	}

	out, err := io.ReadAll(flate.NewReader(bytes.NewReader(body)))
	if err != nil {
		return nil, fmt.Errorf("error inflating body: %w", err)
	}
	return out, nil
}
