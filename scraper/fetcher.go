// Package scraper holds the page fetchers the listing pipeline runs on.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Fetcher returns the markup served at url.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// FetchError is returned when a page could not be retrieved: network failure,
// timeout or a non-success status.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Timeout reports whether the fetch hit its deadline.
func (e *FetchError) Timeout() bool {
	return errors.Is(e.Err, context.DeadlineExceeded)
}

// Guidance returns troubleshooting hints for an operator.
func (e *FetchError) Guidance() []string {
	tips := []string{"Make sure you have an internet connection"}
	switch {
	case e.Timeout():
		tips = append(tips, "The source did not answer in time, try again or raise FETCH_TIMEOUT_SEC")
	case e.StatusCode == http.StatusForbidden || e.StatusCode == http.StatusTooManyRequests:
		tips = append(tips, "The source is likely blocking automated requests, raise RATE_LIMIT_MS or try FETCH_MODE=browser")
	case e.StatusCode == http.StatusNotFound:
		tips = append(tips, "The profile might be private or unavailable, check the host id")
	default:
		tips = append(tips,
			"The profile might be private or unavailable",
			"The source might be blocking automated requests")
	}
	return tips
}

// AsFetchError wraps err as a *FetchError for url unless it already is one.
func AsFetchError(url string, err error) *FetchError {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}
	return &FetchError{URL: url, Err: err}
}

// FetcherOptions configures FetcherFor.
type FetcherOptions struct {
	Mode         string
	UserAgent    string
	ChromeBin    string
	SettleMillis int
}

// FetcherFor builds the fetcher for the configured mode ("http" or "browser").
// The returned close func must be called when done.
func FetcherFor(ctx context.Context, opts FetcherOptions) (Fetcher, func(), error) {
	switch strings.ToLower(strings.TrimSpace(opts.Mode)) {
	case "", "http":
		return NewHTTPFetcher(opts.UserAgent), func() {}, nil
	case "browser":
		bf, err := NewBrowserFetcher(ctx, BrowserOptions{
			UserAgent:    opts.UserAgent,
			ChromeBin:    opts.ChromeBin,
			SettleMillis: opts.SettleMillis,
		})
		if err != nil {
			return nil, nil, err
		}
		return bf, bf.Close, nil
	default:
		return nil, nil, fmt.Errorf("scraper: unknown fetch mode %q", opts.Mode)
	}
}
