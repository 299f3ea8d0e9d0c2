package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SyedQasimGardezi/AmazonReviewScrapperAPI/internal/ratelimit"
)

const navigationTimeout = 15 * time.Second

// Navigator gets a surface to a confirmed, scrapeable state before
// extraction starts.
type Navigator struct {
	surface Surface
	delay   ratelimit.Delayer
	logger  *slog.Logger
}

func NewNavigator(surface Surface, delay ratelimit.Delayer, logger *slog.Logger) *Navigator {
	return &Navigator{
		surface: surface,
		delay:   delay,
		logger:  logger.With("component", "navigator"),
	}
}

// NavigateToProduct loads the product page and reports whether it is safe to
// extract from. A wrong marketplace domain or a bot challenge is terminal for
// the whole run: retrying a challenge synchronously tends to worsen detection.
func (n *Navigator) NavigateToProduct(ctx context.Context, productURL string) bool {
	n.logger.Info("navigating to product", "url", productURL)

	if err := n.surface.Goto(productURL, navigationTimeout); err != nil {
		n.logger.Error("navigation failed", "url", productURL, "error", err)
		return false
	}
	// Settle delay: DOM readiness fires before client-side rendering is done.
	n.delay.Sleep(ctx, 2*time.Second, 4*time.Second)

	if !strings.Contains(n.surface.URL(), "amazon.") {
		n.logger.Error("not on a valid Amazon product page", "url", n.surface.URL())
		return false
	}

	for _, sel := range botChallengeSelectors {
		els, err := n.surface.QuerySelectorAll(sel)
		if err == nil && len(els) > 0 {
			n.logger.Warn("bot challenge detected", "indicator", sel)
			return false
		}
	}

	n.ScrollToReviewsSection(ctx)
	return true
}

// ScrollToReviewsSection scrolls progressively down the page while looking for
// a reviews-section landmark. Review content is frequently lazy-rendered only
// once scrolled into the viewport.
func (n *Navigator) ScrollToReviewsSection(ctx context.Context) {
	n.logger.Info("scrolling to reviews section")

	n.scrollTo(0.3)
	n.delay.Sleep(ctx, 1*time.Second, 2*time.Second)

	sel, found := waitForAny(n.surface, reviewsSectionSelectors, 2*time.Second)
	if !found {
		n.logger.Info("no reviews indicator found, scrolling more")
		n.scrollTo(0.6)
		n.delay.Sleep(ctx, 2*time.Second, 3*time.Second)
		sel, found = waitForAny(n.surface, reviewsSectionSelectors, 2*time.Second)
	}
	if found {
		n.logger.Info("found reviews section", "indicator", sel)
	}

	n.scrollTo(0.8)
	n.delay.Sleep(ctx, 2*time.Second, 3*time.Second)

	n.WaitForReviewsToLoad(ctx)
}

// WaitForReviewsToLoad makes up to three attempts to see a review item,
// scrolling further between attempts, then falls through to one long grace
// delay. Absence of reviews after this point means "zero reviews on this
// page", not an error.
func (n *Navigator) WaitForReviewsToLoad(ctx context.Context) {
	for attempt := 0; attempt < 3; attempt++ {
		sel, found := waitForAny(n.surface, reviewItemSelectors, 3*time.Second)
		if found {
			n.logger.Info("reviews loaded", "selector", sel, "attempt", attempt+1)
			return
		}
		if attempt < 2 {
			n.logger.Info("no reviews found, scrolling more and waiting", "attempt", attempt+1)
			n.scrollTo(0.9)
			n.delay.Sleep(ctx, 2*time.Second, 4*time.Second)
		}
	}

	// Last-resort render grace period.
	n.logger.Info("waiting longer for reviews to render")
	n.delay.Sleep(ctx, 3*time.Second, 5*time.Second)
}

func (n *Navigator) scrollTo(fraction float64) {
	script := fmt.Sprintf("window.scrollTo(0, document.body.scrollHeight * %.2f)", fraction)
	if _, err := n.surface.Evaluate(script); err != nil {
		n.logger.Warn("scroll failed", "error", err)
	}
}
