package scraper

import (
	"context"

	"github.com/go-resty/resty/v2"
)

// HTTPFetcher retrieves raw markup with a plain HTTP GET.
type HTTPFetcher struct {
	client *resty.Client
}

// NewHTTPFetcher creates a fetcher sending userAgent on every request.
// Deadlines come from the context of each Fetch call.
func NewHTTPFetcher(userAgent string) *HTTPFetcher {
	client := resty.New()
	client.SetHeader("user-agent", userAgent)
	client.SetHeader("accept", "text/html,application/xhtml+xml")
	client.SetHeader("accept-language", "en-US,en;q=0.9")
	return &HTTPFetcher{client: client}
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	res, err := f.client.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return "", &FetchError{URL: url, Err: err}
	}
	if res.IsError() {
		return "", &FetchError{URL: url, StatusCode: res.StatusCode()}
	}
	return res.String(), nil
}
