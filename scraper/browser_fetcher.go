package scraper

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"
)

// BrowserOptions configures the headless browser.
type BrowserOptions struct {
	UserAgent    string
	ChromeBin    string
	SettleMillis int
}

// BrowserFetcher renders pages in headless Chrome and returns the final DOM.
// It is needed when listing links are only present after client-side
// rendering.
type BrowserFetcher struct {
	settle time.Duration

	browserCtx   context.Context
	cancelAlloc  context.CancelFunc
	cancelBrowse context.CancelFunc
}

// showAllScript clicks a "Show all" / "View listings" control if the page has
// one, so that every listing card gets rendered.
const showAllScript = `
	(function() {
		var nodes = document.querySelectorAll('button, a[role="button"], [role="button"]');
		for (var i = 0; i < nodes.length; i++) {
			var text = (nodes[i].textContent || '').trim().toLowerCase();
			if (text.indexOf('show all') === 0 || text.indexOf('view listings') === 0 ||
			    text.indexOf('show more listings') === 0) {
				nodes[i].click();
				return true;
			}
		}
		return false;
	})()
`

// NewBrowserFetcher starts a headless browser bound to ctx.
func NewBrowserFetcher(ctx context.Context, opts BrowserOptions) (*BrowserFetcher, error) {
	chromeBin := opts.ChromeBin
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(opts.UserAgent),
	)
	if chromeBin != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)

	// Suppress chromedp log noise
	browserCtx, cancelBrowse := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	// Starts the browser process
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowse()
		cancelAlloc()
		return nil, fmt.Errorf("scraper: start browser (binary %q): %w", chromeBin, err)
	}

	settle := time.Duration(opts.SettleMillis) * time.Millisecond
	return &BrowserFetcher{
		settle:       settle,
		browserCtx:   browserCtx,
		cancelAlloc:  cancelAlloc,
		cancelBrowse: cancelBrowse,
	}, nil
}

// Fetch implements Fetcher. Each call runs in its own tab.
func (f *BrowserFetcher) Fetch(ctx context.Context, url string) (string, error) {
	tabCtx, cancelTab := chromedp.NewContext(f.browserCtx)
	defer cancelTab()

	// The tab derives from the browser context, so tie it to the caller's
	// deadline and cancellation explicitly.
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()
	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		tabCtx, cancelDeadline = context.WithDeadline(tabCtx, deadline)
		defer cancelDeadline()
	}

	var clicked bool
	var html string

	err := chromedp.Run(tabCtx,
		chromedp.Navigate(url),
		chromedp.Sleep(f.settle),
		chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
		chromedp.Evaluate(showAllScript, &clicked),
	)
	if err == nil && clicked {
		err = chromedp.Run(tabCtx, chromedp.Sleep(f.settle))
	}
	if err == nil {
		err = chromedp.Run(tabCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	}
	if err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return "", &FetchError{URL: url, Err: fmt.Errorf("chromedp: %w", err)}
	}
	return html, nil
}

// Close shuts the browser down.
func (f *BrowserFetcher) Close() {
	f.cancelBrowse()
	f.cancelAlloc()
}

// findChromeBinary locates a Chrome/Chromium binary when none is configured.
func findChromeBinary() string {
	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
