package airbnb

import (
	"context"
	"net/http"
	"sync"

	"airbnb-reconciler/scraper"
	"airbnb-reconciler/services"
	"airbnb-reconciler/utils"
)

const testBaseURL = "https://www.airbnb.com"

// mapFetcher serves canned pages by URL. Unknown URLs are a 404.
type mapFetcher struct {
	mu      sync.Mutex
	pages   map[string]string
	fail    map[string]error
	onFetch func(url string)
	calls   []string
}

func (f *mapFetcher) Fetch(ctx context.Context, url string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	hook := f.onFetch
	f.mu.Unlock()

	if hook != nil {
		hook(url)
	}
	if err, ok := f.fail[url]; ok {
		return "", err
	}
	if body, ok := f.pages[url]; ok {
		return body, nil
	}
	return "", &scraper.FetchError{URL: url, StatusCode: http.StatusNotFound}
}

func newTestScraper(f scraper.Fetcher) *Scraper {
	logger := utils.NewDiscardLogger()
	return New(Config{
		BaseURL:    testBaseURL,
		Resolver:   ResolverConfig{},
		MaxRetries: 1,
	}, f, services.NewCleaner(logger), logger)
}

func room(id string) string { return testBaseURL + "/rooms/" + id }
