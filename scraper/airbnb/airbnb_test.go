package airbnb

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"airbnb-reconciler/scraper"
)

const sourceURL = testBaseURL + "/users/show/126012540"

const loftPage = `<html><head><title>Azure North Loft - Airbnb</title></head><body>
	<h1>Azure North Loft</h1>
	<div><span>$120</span> <span>night</span></div>
</body></html>`

func TestScrapeEndToEnd(t *testing.T) {
	f := &mapFetcher{
		pages: map[string]string{
			sourceURL:   `<a href="/rooms/111">a</a><a href="/rooms/222">b</a><a href="/rooms/111">a</a>`,
			room("111"): loftPage,
		},
		fail: map[string]error{
			room("222"): &scraper.FetchError{URL: room("222"), StatusCode: http.StatusServiceUnavailable},
		},
	}

	result, err := newTestScraper(f).Scrape(context.Background(), sourceURL)
	require.NoError(t, err)
	require.False(t, result.Interrupted)
	require.Len(t, result.Refs, 2)

	got, err := json.Marshal(result.Details)
	require.NoError(t, err)
	require.JSONEq(t, `[
		{"id": "111", "url": "https://www.airbnb.com/rooms/111", "title": "Azure North Loft", "price": 120},
		{"id": "222", "url": "https://www.airbnb.com/rooms/222"}
	]`, string(got))
	require.Contains(t, result.Details[1].FetchError, "503")
}

func TestScrapeGracefulDegradation(t *testing.T) {
	f := &mapFetcher{
		pages: map[string]string{
			sourceURL: `/rooms/1 /rooms/2 /rooms/3 /rooms/4`,
			room("1"): loftPage,
			room("2"): loftPage,
			room("4"): loftPage,
		},
		fail: map[string]error{room("3"): errors.New("connection reset")},
	}

	result, err := newTestScraper(f).Scrape(context.Background(), sourceURL)
	require.NoError(t, err)
	require.Len(t, result.Details, 4)

	for i, d := range result.Details {
		if d.ID == "3" {
			require.True(t, d.IsRefOnly(), "failed listing should be ref-only")
			require.Equal(t, room("3"), d.URL)
			continue
		}
		require.NotNil(t, d.Title, "listing %d", i)
	}
}

func TestScrapeFieldIndependence(t *testing.T) {
	f := &mapFetcher{pages: map[string]string{
		sourceURL: `/rooms/9`,
		room("9"): `<h1>Cedar Cabin</h1><p>Contact the host for rates</p>`,
	}}

	result, err := newTestScraper(f).Scrape(context.Background(), sourceURL)
	require.NoError(t, err)
	require.Len(t, result.Details, 1)

	d := result.Details[0]
	require.NotNil(t, d.Title)
	require.Equal(t, "Cedar Cabin", *d.Title)
	require.Nil(t, d.Price)
	require.Nil(t, d.Location)
}

func TestScrapeNoListings(t *testing.T) {
	f := &mapFetcher{pages: map[string]string{sourceURL: `<p>This host has no listings yet.</p>`}}

	result, err := newTestScraper(f).Scrape(context.Background(), sourceURL)
	require.NoError(t, err)
	require.True(t, result.NoListings())
	require.Empty(t, result.Details)
	require.Equal(t, []string{sourceURL}, f.calls)
}

func TestScrapeSourceFailure(t *testing.T) {
	f := &mapFetcher{fail: map[string]error{
		sourceURL: &scraper.FetchError{URL: sourceURL, StatusCode: http.StatusForbidden},
	}}

	result, err := newTestScraper(f).Scrape(context.Background(), sourceURL)
	require.Nil(t, result)

	var fe *scraper.FetchError
	require.True(t, errors.As(err, &fe))
	require.Equal(t, http.StatusForbidden, fe.StatusCode)
}

func TestScrapeSourceRetried(t *testing.T) {
	f := &mapFetcher{fail: map[string]error{sourceURL: errors.New("dial tcp: timeout")}}
	s := newTestScraper(f)
	s.retry.MaxAttempts = 3

	_, err := s.Scrape(context.Background(), sourceURL)
	require.Error(t, err)
	require.Len(t, f.calls, 3)
}

func TestScrapeCancellationKeepsPartialResult(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := &mapFetcher{
		pages: map[string]string{
			sourceURL: `/rooms/1 /rooms/2 /rooms/3`,
			room("1"): loftPage,
			room("2"): loftPage,
			room("3"): loftPage,
		},
		onFetch: func(url string) {
			if url == room("2") {
				cancel()
			}
		},
	}

	result, err := newTestScraper(f).Scrape(ctx, sourceURL)
	require.True(t, errors.Is(err, context.Canceled))
	require.NotNil(t, result)
	require.True(t, result.Interrupted)
	require.Len(t, result.Details, 1)
	require.Equal(t, "1", result.Details[0].ID)
	require.NotContains(t, f.calls, room("3"))
}
