// Package catalog discovers the valid POWER parameter codes by rendering
// the reference page in a headless browser. The parameter list is filled in
// by client-side script, so a plain GET of the document is not enough.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"
)

// placeholderLabel is the select control's inert first entry.
const placeholderLabel = "Select a parameter..."

// option mirrors one <option> of the parameter select control.
type option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Discoverer scrapes the parameter catalog. Each Discover call owns its
// browser session; nothing is cached between calls.
type Discoverer struct {
	logger *slog.Logger
}

func NewDiscoverer(logger *slog.Logger) *Discoverer {
	return &Discoverer{
		logger: logger.With("component", "catalog-discoverer"),
	}
}

// Discover renders pageURL, waits up to timeout for the select element with
// the given id to appear and hold more than two options, then returns the
// code-to-label mapping of its entries. The browser session is torn down on
// every exit path via the deferred context cancellations.
func (d *Discoverer) Discover(ctx context.Context, pageURL string, timeout time.Duration, elementID string) (map[string]string, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, chromedp.DefaultExecAllocatorOptions[:]...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	runCtx, cancelRun := context.WithTimeout(browserCtx, timeout)
	defer cancelRun()

	d.logger.Info("discovering parameter catalog", "url", pageURL, "element", elementID)

	selector := "#" + elementID
	var (
		populated bool
		options   []option
	)
	err := chromedp.Run(runCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady(selector, chromedp.ByID),
		// The control starts out with only the placeholder and a couple of
		// stub entries until the script fills it in.
		chromedp.Poll(
			fmt.Sprintf("document.querySelector(%q).options.length > 2", selector),
			&populated,
		),
		chromedp.Evaluate(
			fmt.Sprintf("Array.from(document.querySelector(%q).options).map(o => ({value: o.value, label: o.text}))", selector),
			&options,
		),
	)
	if err != nil {
		d.logger.Error("parameter discovery failed", "url", pageURL, "error", err)
		return nil, fmt.Errorf("parameter discovery failed: %w", err)
	}

	params := filterOptions(options)
	d.logger.Info("parameter catalog discovered", "parameters", len(params))
	return params, nil
}

// filterOptions keeps options that carry a real parameter code: a non-empty
// value whose label is not the placeholder.
func filterOptions(options []option) map[string]string {
	params := make(map[string]string, len(options))
	for _, opt := range options {
		if opt.Value == "" || opt.Label == placeholderLabel {
			continue
		}
		params[opt.Value] = opt.Label
	}
	return params
}
