package scraper

import (
	"strings"
	"time"
)

// Marketplace front-ends vary their markup across locales and experiments, so
// every lookup is an ordered fallback chain: first match wins, no match means
// the feature is absent on this page.

var reviewsSectionSelectors = []string{
	`h2:has-text("Customer reviews")`,
	`h2:has-text("Top reviews")`,
	`h3:has-text("Top reviews")`,
	`h3:has-text("Customer reviews")`,
	`[data-hook="dp-local-reviews-header"]`,
	`#cm-cr-dp-review-list`,
	`.reviews-content`,
	`[data-hook="top-customer-reviews-widget"]`,
}

var reviewItemSelectors = []string{
	`li[data-hook="review"]`,
	`#cm-cr-dp-review-list li[data-hook="review"]`,
	`[data-hook="review"]`,
	`.review`,
	`#cm-cr-dp-review-list .review`,
}

var ratingSelectors = []string{
	`[data-hook="review-star-rating"] .a-icon-alt`,
	`[data-hook="review-star-rating"] span`,
	`.review-rating .a-icon-alt`,
	`.a-icon-star .a-icon-alt`,
	`[data-hook="review-star-rating"]`,
	`.a-icon-star span`,
}

var botChallengeSelectors = []string{
	`text=Robot or human?`,
	`text=Sorry, we just need to make sure you're not a robot`,
}

const (
	reviewerNameSelector = `.a-profile-name`
	reviewTitleSelector  = `[data-hook="review-title"] span:not([class])`
	reviewTextSelector   = `[data-hook="review-collapsed"] span`
	reviewDateSelector   = `[data-hook="review-date"]`
	verifiedSelector     = `[data-hook="avp-badge-linkless"]`
	helpfulSelector      = `[data-hook="helpful-vote-statement"]`
	starIconSelector     = `.a-icon-star`
	nextPageSelector     = `li.a-last a`
)

// waitForAny walks the chain and returns the first selector that appears
// within its timeout. ok is false when every lookup times out.
func waitForAny(s Surface, selectors []string, timeout time.Duration) (selector string, ok bool) {
	for _, sel := range selectors {
		if err := s.WaitForSelector(sel, timeout); err == nil {
			return sel, true
		}
	}
	return "", false
}

// queryAny returns the elements of the first selector in the chain that
// matches at least one element on the current page.
func queryAny(s Surface, selectors []string) ([]Element, string) {
	for _, sel := range selectors {
		els, err := s.QuerySelectorAll(sel)
		if err == nil && len(els) > 0 {
			return els, sel
		}
	}
	return nil, ""
}

// childText returns the trimmed inner text of the first descendant matching
// the selector. ok is false when the descendant is absent.
func childText(el Element, selector string) (string, bool) {
	child, err := el.QuerySelector(selector)
	if err != nil || child == nil {
		return "", false
	}
	text, err := child.InnerText()
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(text), true
}
