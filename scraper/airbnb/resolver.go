package airbnb

import (
	"context"
	"time"

	"airbnb-reconciler/models"
	"airbnb-reconciler/scraper"
	"airbnb-reconciler/services"
	"airbnb-reconciler/utils"
)

// ResolverConfig controls pacing and time limits of detail fetches.
type ResolverConfig struct {
	// Delay is the minimum gap between two detail fetches. Zero disables it.
	Delay time.Duration
	// FetchTimeout bounds one detail fetch. Zero means no per-fetch limit.
	FetchTimeout time.Duration
}

// DefaultResolverConfig returns the 1 s gap / 30 s timeout defaults.
func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{Delay: time.Second, FetchTimeout: 30 * time.Second}
}

// Resolver turns listing refs into detail records, one fetch at a time.
type Resolver struct {
	fetcher scraper.Fetcher
	cleaner *services.Cleaner
	logger  *utils.Logger
	cfg     ResolverConfig
	pacer   *utils.Pacer
}

// NewResolver creates a Resolver.
func NewResolver(fetcher scraper.Fetcher, cleaner *services.Cleaner, logger *utils.Logger, cfg ResolverConfig) *Resolver {
	return &Resolver{
		fetcher: fetcher,
		cleaner: cleaner,
		logger:  logger,
		cfg:     cfg,
		pacer:   utils.NewPacer(cfg.Delay),
	}
}

// Resolve fetches and parses every ref in order. A failed fetch degrades
// that ref to a ref-only detail and the batch goes on. If ctx is cancelled
// the details finished so far are returned together with ctx.Err().
func (r *Resolver) Resolve(ctx context.Context, refs []models.ExternalListingRef) ([]*models.ExternalListingDetail, error) {
	details := make([]*models.ExternalListingDetail, 0, len(refs))

	for i, ref := range refs {
		if err := r.pacer.Wait(ctx); err != nil {
			r.logger.Warn("[airbnb] Batch cancelled after %d/%d listings", len(details), len(refs))
			return details, err
		}

		r.logger.Info("[airbnb] Processing listing %d/%d: %s", i+1, len(refs), ref.URL)
		d := r.ResolveOne(ctx, ref)
		r.pacer.Done()

		if ctx.Err() != nil {
			// The in-flight fetch was cut short by the cancellation, not by
			// the source; it is not reported as resolved.
			r.logger.Warn("[airbnb] Batch cancelled after %d/%d listings", len(details), len(refs))
			return details, ctx.Err()
		}
		details = append(details, d)
	}

	return details, nil
}

// ResolveOne fetches a single ref. It never fails: a fetch error yields a
// detail with only the ref populated.
func (r *Resolver) ResolveOne(ctx context.Context, ref models.ExternalListingRef) *models.ExternalListingDetail {
	fetchCtx := ctx
	if r.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, r.cfg.FetchTimeout)
		defer cancel()
	}

	markup, err := r.fetcher.Fetch(fetchCtx, ref.URL)
	if err != nil {
		fe := scraper.AsFetchError(ref.URL, err)
		r.logger.Warn("[airbnb] Could not fetch details for %s: %v", ref.ID, fe)
		d := models.RefOnly(ref)
		d.FetchError = fe.Error()
		return d
	}

	d := r.cleaner.CleanDetail(ParseDetail(ref, markup))
	if d.IsRefOnly() {
		r.logger.Debug("[airbnb] No fields recovered for %s", ref.ID)
	}
	return d
}
