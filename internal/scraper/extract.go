package scraper

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/SyedQasimGardezi/AmazonReviewScrapperAPI/internal/models"
	"github.com/SyedQasimGardezi/AmazonReviewScrapperAPI/internal/ratelimit"
)

var (
	decimalPattern   = regexp.MustCompile(`\d+\.?\d*`)
	starClassPattern = regexp.MustCompile(`a-star-(\d+)`)
)

const helpfulPhrase = "people found this helpful"

// Extractor turns located review containers into Review records. Every field
// is extracted independently with its own fallback chain and default, so one
// broken field never costs the rest of the record.
type Extractor struct {
	delay  ratelimit.Delayer
	logger *slog.Logger
}

func NewExtractor(delay ratelimit.Delayer, logger *slog.Logger) *Extractor {
	return &Extractor{
		delay:  delay,
		logger: logger.With("component", "extractor"),
	}
}

// ExtractPage extracts every review currently visible on the surface.
func (e *Extractor) ExtractPage(ctx context.Context, surface Surface) []models.Review {
	elements := e.locateReviewElements(ctx, surface)
	if len(elements) == 0 {
		e.logger.Warn("no review elements found after scrolling")
		return nil
	}

	reviews := make([]models.Review, 0, len(elements))
	for _, el := range elements {
		review, err := e.extractReview(el)
		if err != nil {
			// A single broken element never aborts the page's batch.
			e.logger.Warn("error extracting individual review", "error", err)
			continue
		}
		reviews = append(reviews, review)
	}
	return reviews
}

func (e *Extractor) locateReviewElements(ctx context.Context, surface Surface) []Element {
	for _, sel := range reviewItemSelectors {
		if err := surface.WaitForSelector(sel, 5*time.Second); err != nil {
			continue
		}
		if els, err := surface.QuerySelectorAll(sel); err == nil && len(els) > 0 {
			e.logger.Info("found reviews", "count", len(els), "selector", sel)
			return els
		}
	}

	// Review lists are lazy-rendered; scroll once more before giving up.
	e.logger.Info("no reviews found initially, scrolling and retrying")
	if _, err := surface.Evaluate("window.scrollTo(0, document.body.scrollHeight * 0.8)"); err != nil {
		e.logger.Warn("scroll failed", "error", err)
	}
	e.delay.Sleep(ctx, 2*time.Second, 4*time.Second)

	for _, sel := range reviewItemSelectors {
		if err := surface.WaitForSelector(sel, 3*time.Second); err != nil {
			continue
		}
		if els, err := surface.QuerySelectorAll(sel); err == nil && len(els) > 0 {
			e.logger.Info("found reviews after scrolling", "count", len(els), "selector", sel)
			return els
		}
	}
	return nil
}

func (e *Extractor) extractReview(el Element) (models.Review, error) {
	review := models.NewReview()

	if name, ok := childText(el, reviewerNameSelector); ok && name != "" {
		review.ReviewerName = name
	}

	review.Rating = extractRating(el)

	if title, ok := childText(el, reviewTitleSelector); ok {
		review.ReviewTitle = title
	}
	if text, ok := childText(el, reviewTextSelector); ok {
		review.ReviewText = text
	}
	if date, ok := childText(el, reviewDateSelector); ok {
		review.ReviewDate = date
	}
	if badge, ok := childText(el, verifiedSelector); ok {
		review.VerifiedPurchase = ParseVerifiedBadge(badge)
	}
	if statement, ok := childText(el, helpfulSelector); ok {
		review.HelpfulVotes = ParseHelpfulVotes(statement)
	}

	return review, nil
}

// extractRating tries each star-rating location in order, reading the raw
// markup before the visible text, and falls back to scanning star icons for a
// rating-encoding class. 0 means the rating could not be determined.
func extractRating(el Element) int {
	for _, sel := range ratingSelectors {
		cand, err := el.QuerySelector(sel)
		if err != nil || cand == nil {
			continue
		}
		raw, err := cand.GetAttribute("innerHTML")
		if err != nil || raw == "" {
			if raw, err = cand.InnerText(); err != nil {
				continue
			}
		}
		if rating, ok := ParseRatingText(raw); ok {
			return rating
		}
	}

	stars, err := el.QuerySelectorAll(starIconSelector)
	if err != nil {
		return 0
	}
	for _, star := range stars {
		class, err := star.GetAttribute("class")
		if err != nil {
			continue
		}
		if rating, ok := ParseStarClass(class); ok {
			return rating
		}
	}
	return 0
}

// ParseRatingText extracts the rating from text like "5.0 out of 5 stars" or
// "3 stars": the first decimal number, truncated toward zero. Values outside
// [0, 5] are rejected so a stray count elsewhere in the markup cannot leak in.
func ParseRatingText(text string) (int, bool) {
	match := decimalPattern.FindString(text)
	if match == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	rating := int(f)
	if rating < 0 || rating > 5 {
		return 0, false
	}
	return rating, true
}

// ParseStarClass extracts the rating from a class list containing a token
// like "a-star-4".
func ParseStarClass(class string) (int, bool) {
	m := starClassPattern.FindStringSubmatch(class)
	if m == nil {
		return 0, false
	}
	rating, err := strconv.Atoi(m[1])
	if err != nil || rating < 0 || rating > 5 {
		return 0, false
	}
	return rating, true
}

// ParseHelpfulVotes parses a statement like "23 people found this helpful".
// Anything that does not carry the count phrase, or whose leading token is
// not an integer, counts as 0.
func ParseHelpfulVotes(text string) int {
	if !strings.Contains(text, helpfulPhrase) {
		return 0
	}
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return 0
	}
	votes, err := strconv.Atoi(fields[0])
	if err != nil || votes < 0 {
		return 0
	}
	return votes
}

// ParseVerifiedBadge reports whether badge text marks a verified purchase.
func ParseVerifiedBadge(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, "verified") || strings.Contains(lower, "purchase")
}
