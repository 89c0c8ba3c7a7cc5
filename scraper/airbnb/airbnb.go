// Package airbnb extracts listing ids from a host page and resolves each
// listing's detail page.
package airbnb

import (
	"context"
	"fmt"
	"time"

	"airbnb-reconciler/models"
	"airbnb-reconciler/scraper"
	"airbnb-reconciler/services"
	"airbnb-reconciler/utils"
)

// Config holds everything the pipeline needs besides its collaborators.
type Config struct {
	BaseURL    string
	Resolver   ResolverConfig
	MaxRetries int
	// RetryBaseDelay is the first back-off between source page attempts.
	RetryBaseDelay time.Duration
}

// Scraper runs extraction then resolution for one source page.
type Scraper struct {
	cfg       Config
	fetcher   scraper.Fetcher
	logger    *utils.Logger
	extractor *Extractor
	resolver  *Resolver
	retry     *utils.RetryConfig
}

// New creates a ready-to-use Scraper.
func New(cfg Config, fetcher scraper.Fetcher, cleaner *services.Cleaner, logger *utils.Logger) *Scraper {
	return &Scraper{
		cfg:       cfg,
		fetcher:   fetcher,
		logger:    logger,
		extractor: NewExtractor(cfg.BaseURL),
		resolver:  NewResolver(fetcher, cleaner, logger, cfg.Resolver),
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   cfg.RetryBaseDelay,
			Logger:      logger,
		},
	}
}

// Scrape fetches sourceURL, extracts the listing refs and resolves each one.
//
// A source page that cannot be fetched aborts the batch with an error
// wrapping *scraper.FetchError. A page without listings is a normal result
// (result.NoListings()). Per-listing failures never abort the batch. On
// cancellation the partial result is returned with the context error and
// Interrupted set.
func (s *Scraper) Scrape(ctx context.Context, sourceURL string) (*models.ScrapeResult, error) {
	s.logger.Info("[airbnb] Fetching source page: %s", sourceURL)

	markup, err := s.fetchSource(ctx, sourceURL)
	if err != nil {
		return nil, err
	}

	result := &models.ScrapeResult{SourceURL: sourceURL}
	result.Refs = s.extractor.Extract(markup)
	if result.NoListings() {
		s.logger.Warn("[airbnb] No listing ids found on %s", sourceURL)
		return result, nil
	}
	s.logger.Info("[airbnb] Found %d listing(s)", len(result.Refs))

	result.Details, err = s.resolver.Resolve(ctx, result.Refs)
	if err != nil {
		result.Interrupted = true
		return result, err
	}

	s.logger.Info("[airbnb] Scrape complete, resolved %d listing(s)", len(result.Details))
	return result, nil
}

func (s *Scraper) fetchSource(ctx context.Context, sourceURL string) (string, error) {
	var markup string
	err := s.retry.Do(ctx, "fetch-source-page", func(ctx context.Context) error {
		fetchCtx := ctx
		if t := s.cfg.Resolver.FetchTimeout; t > 0 {
			var cancel context.CancelFunc
			fetchCtx, cancel = context.WithTimeout(ctx, t)
			defer cancel()
		}
		body, err := s.fetcher.Fetch(fetchCtx, sourceURL)
		if err != nil {
			return scraper.AsFetchError(sourceURL, err)
		}
		markup = body
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("airbnb: source page: %w", err)
	}
	return markup, nil
}
