// Package commands is the airbnb-reconciler command line.
package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"airbnb-reconciler/config"
	"airbnb-reconciler/scraper"
	"airbnb-reconciler/storage"
	"airbnb-reconciler/utils"
)

// Store is everything the commands need from the catalog database.
type Store interface {
	storage.Catalog
	storage.CandidateStore
}

// app carries the shared dependencies of every command. The constructors
// are fields so tests can swap in fakes.
type app struct {
	cfg    *config.Config
	logger *utils.Logger
	in     io.Reader
	out    io.Writer

	openStore  func(ctx context.Context) (Store, func(), error)
	newFetcher func(ctx context.Context) (scraper.Fetcher, func(), error)
}

func newApp(cfg *config.Config, logger *utils.Logger) *app {
	a := &app{cfg: cfg, logger: logger, in: os.Stdin, out: os.Stdout}

	a.openStore = func(ctx context.Context) (Store, func(), error) {
		ps, err := storage.NewPostgresStore(ctx, cfg.DSN(), cfg.PostgresPingTries, cfg.AirbnbBaseURL)
		if err != nil {
			return nil, nil, err
		}
		return ps, func() { _ = ps.Close() }, nil
	}
	a.newFetcher = func(ctx context.Context) (scraper.Fetcher, func(), error) {
		return scraper.FetcherFor(ctx, scraper.FetcherOptions{
			Mode:         cfg.FetchMode,
			UserAgent:    cfg.UserAgent,
			ChromeBin:    cfg.ChromeBin,
			SettleMillis: cfg.BrowserSettleMs,
		})
	}
	return a
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "airbnb-reconciler",
		Short:         "Scrape a host's Airbnb listings and link them to catalog properties.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(a.in)
	root.SetOut(a.out)

	root.AddCommand(
		newScrapeCmd(a),
		newPropertiesCmd(a),
		newLinkCmd(a),
		newUnlinkCmd(a),
		newServeCmd(a),
		newTokenCmd(a),
	)
	return root
}

// Execute runs the CLI until it finishes or the process is interrupted.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cfg := config.Load()
	logger := utils.NewLogger()
	logger.SetLevel(cfg.LogLevel)

	err := newRootCmd(newApp(cfg, logger)).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// confirm asks a yes/no question on the command's input.
func confirm(cmd *cobra.Command, question string) (bool, error) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N]: ", question)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("read confirmation: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
