package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReviewDefaults(t *testing.T) {
	r := NewReview()
	assert.Equal(t, AnonymousReviewer, r.ReviewerName)
	assert.Equal(t, 0, r.Rating)
	assert.False(t, r.VerifiedPurchase)
	assert.Equal(t, 0, r.HelpfulVotes)
}

func TestSuccessResult(t *testing.T) {
	result := SuccessResult([]Review{{ReviewerName: "Jane D.", Rating: 5}})
	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, "Successfully scraped 1 reviews", result.Message)
	assert.Equal(t, 1, result.TotalReviews)
}

func TestSuccessResultNilReviews(t *testing.T) {
	result := SuccessResult(nil)
	assert.Equal(t, 0, result.TotalReviews)
	assert.NotNil(t, result.Reviews)

	// The wire form carries an empty array, not null.
	raw, err := json.Marshal(result)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"reviews":[]`)
}

func TestErrorResult(t *testing.T) {
	result := ErrorResult("Invalid Amazon product URL")
	assert.Equal(t, StatusError, result.Status)
	assert.Equal(t, "Invalid Amazon product URL", result.Message)
	assert.Equal(t, 0, result.TotalReviews)
	assert.NotNil(t, result.Reviews)
	assert.Empty(t, result.Reviews)
}

func TestReviewWireFormat(t *testing.T) {
	raw, err := json.Marshal(Review{
		ReviewerName:     "Jane D.",
		Rating:           4,
		ReviewTitle:      "Works great",
		ReviewText:       "Battery lasts two days.",
		ReviewDate:       "Reviewed in India on 1 January 2025",
		VerifiedPurchase: true,
		HelpfulVotes:     23,
	})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	for _, key := range []string{
		"reviewer_name", "rating", "review_title", "review_text",
		"review_date", "verified_purchase", "helpful_votes",
	} {
		assert.Contains(t, decoded, key)
	}
}
