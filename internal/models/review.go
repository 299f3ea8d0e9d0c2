package models

import "fmt"

// Review is one extracted product review. Instances are built by the
// extraction engine and never mutated afterwards.
type Review struct {
	ReviewerName     string `json:"reviewer_name"`
	Rating           int    `json:"rating"`
	ReviewTitle      string `json:"review_title"`
	ReviewText       string `json:"review_text"`
	ReviewDate       string `json:"review_date"`
	VerifiedPurchase bool   `json:"verified_purchase"`
	HelpfulVotes     int    `json:"helpful_votes"`
}

// AnonymousReviewer is used when the reviewer name cannot be recovered.
const AnonymousReviewer = "Anonymous"

// NewReview returns a review populated with the per-field defaults.
func NewReview() Review {
	return Review{ReviewerName: AnonymousReviewer}
}

// ScrapeResult is the JSON envelope returned for every scrape invocation.
// On error TotalReviews is 0 and Reviews is empty, never nil.
type ScrapeResult struct {
	Status       string   `json:"status"`
	Message      string   `json:"message"`
	TotalReviews int      `json:"total_reviews"`
	Reviews      []Review `json:"reviews"`
}

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// SuccessResult wraps a review collection in a success envelope.
func SuccessResult(reviews []Review) ScrapeResult {
	if reviews == nil {
		reviews = []Review{}
	}
	return ScrapeResult{
		Status:       StatusSuccess,
		Message:      successMessage(len(reviews)),
		TotalReviews: len(reviews),
		Reviews:      reviews,
	}
}

// ErrorResult builds an error envelope with an empty review list.
func ErrorResult(message string) ScrapeResult {
	return ScrapeResult{
		Status:       StatusError,
		Message:      message,
		TotalReviews: 0,
		Reviews:      []Review{},
	}
}

func successMessage(n int) string {
	return fmt.Sprintf("Successfully scraped %d reviews", n)
}
