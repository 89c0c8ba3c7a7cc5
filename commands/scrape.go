package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"airbnb-reconciler/config"
	"airbnb-reconciler/models"
	"airbnb-reconciler/scraper/airbnb"
	"airbnb-reconciler/services"
	"airbnb-reconciler/storage"
)

type scrapeOptions struct {
	hostID  string
	url     string
	byIndex bool
	persist bool
	offline bool
}

func newScrapeCmd(a *app) *cobra.Command {
	var opts scrapeOptions
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scrape the host page, resolve every listing and propose catalog links.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.scrape(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.hostID, "host-id", "", "Airbnb host id (overrides AIRBNB_HOST_ID)")
	cmd.Flags().StringVar(&opts.url, "url", "", "source page URL (overrides SOURCE_URL and --host-id)")
	cmd.Flags().BoolVar(&opts.byIndex, "by-index", false, "pair listings with catalog rows by position instead of title")
	cmd.Flags().BoolVar(&opts.persist, "persist", false, "save the scraped listings as candidates for the admin UI")
	cmd.Flags().BoolVar(&opts.offline, "offline", false, "do not connect to the catalog database")
	return cmd
}

func (a *app) scrape(cmd *cobra.Command, opts scrapeOptions) error {
	ctx := cmd.Context()
	cfg := *a.cfg
	if opts.hostID != "" {
		cfg.HostID = opts.hostID
	}
	if opts.url != "" {
		cfg.SourceURL = opts.url
	}

	fetcher, closeFetcher, err := a.newFetcher(ctx)
	if err != nil {
		return err
	}
	defer closeFetcher()

	cleaner := services.NewCleaner(a.logger)
	s := airbnb.New(airbnb.Config{
		BaseURL: cfg.AirbnbBaseURL,
		Resolver: airbnb.ResolverConfig{
			Delay:        cfg.RateLimit(),
			FetchTimeout: cfg.FetchTimeout(),
		},
		MaxRetries:     cfg.MaxRetries,
		RetryBaseDelay: cfg.RateLimit(),
	}, fetcher, cleaner, a.logger)
	emitter := services.NewReportEmitter(cmd.OutOrStdout(), a.logger)

	result, scrapeErr := s.Scrape(ctx, cfg.ProfileURL())
	if result == nil {
		emitter.PrintFetchFailure(scrapeErr)
		return scrapeErr
	}

	// The batch is reported even when the catalog is down; links are then
	// proposed against an empty catalog and nothing is persisted.
	var store Store = storage.NewMemoryStore(cfg.AirbnbBaseURL)
	var storeErr error
	if !opts.offline {
		// A cancelled batch still gets reported, so the store is opened on
		// a context that outlives the scrape.
		dbStore, closeStore, err := a.openStore(context.WithoutCancel(ctx))
		if err != nil {
			a.logger.Warn("[scrape] Catalog unavailable, reporting without link proposals: %v", err)
			a.logger.Warn("[scrape] Make sure Docker is running: docker compose up -d, or pass --offline")
			storeErr = fmt.Errorf("scrape: catalog: %w", err)
		} else {
			defer closeStore()
			store = dbStore
		}
	}

	rec, err := a.reconcile(context.WithoutCancel(ctx), store, result.Details, opts.byIndex)
	if err != nil {
		return err
	}

	artifacts, closeArtifacts, err := a.artifacts(&cfg)
	if err != nil {
		return err
	}
	emitErr := emitter.Emit(result, rec, artifacts)
	if err := closeArtifacts(); err != nil && emitErr == nil {
		emitErr = err
	}

	if opts.persist && storeErr == nil && len(result.Details) > 0 {
		if err := store.SaveCandidates(context.WithoutCancel(ctx), result.Details); err != nil {
			return err
		}
		a.logger.Info("[scrape] Saved %d candidate listing(s)", len(result.Details))
	}

	return errors.Join(scrapeErr, storeErr, emitErr)
}

func (a *app) reconcile(ctx context.Context, catalog storage.Catalog, details []*models.ExternalListingDetail,
	byIndex bool) (*models.Reconciliation, error) {
	props, err := catalog.ListProperties(ctx)
	if err != nil {
		return nil, err
	}
	r := services.NewReconciler(a.logger, a.cfg.TitlePrefixLen)
	return r.Reconcile(details, props, services.ReconcileOptions{ByIndex: byIndex}), nil
}

// artifacts opens every configured output. An empty path disables it.
func (a *app) artifacts(cfg *config.Config) (services.Artifacts, func() error, error) {
	var out services.Artifacts
	var closers []storage.DetailWriter

	closeAll := func() error {
		var errs []error
		for _, w := range closers {
			errs = append(errs, w.Close())
		}
		return errors.Join(errs...)
	}

	if cfg.JSONOutputPath != "" {
		jw := storage.NewJSONWriter(cfg.JSONOutputPath, cfg.InstructionsOutputPath)
		out.Details = append(out.Details, jw)
		out.Instructions = jw
		closers = append(closers, jw)
	}
	if cfg.CSVOutputPath != "" {
		cw, err := storage.NewCSVWriter(cfg.CSVOutputPath)
		if err != nil {
			_ = closeAll()
			return out, nil, err
		}
		out.Details = append(out.Details, cw)
		closers = append(closers, cw)
	}
	if cfg.XLSXOutputPath != "" {
		xw, err := storage.NewXLSXWriter(cfg.XLSXOutputPath)
		if err != nil {
			_ = closeAll()
			return out, nil, err
		}
		out.Details = append(out.Details, xw)
		closers = append(closers, xw)
	}
	return out, closeAll, nil
}
