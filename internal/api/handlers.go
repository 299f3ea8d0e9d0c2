package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/SyedQasimGardezi/AmazonReviewScrapperAPI/internal/models"
	"github.com/SyedQasimGardezi/AmazonReviewScrapperAPI/internal/scraper"
)

const Version = "1.0.0"

// ReviewScraper is the core pipeline as the HTTP layer sees it.
type ReviewScraper interface {
	ScrapeReviews(ctx context.Context, sess scraper.Session) models.ScrapeResult
	ScrapeBatch(ctx context.Context, batch scraper.BatchSession) []scraper.BatchItem
}

type Handlers struct {
	scraper ReviewScraper
	logger  *slog.Logger
}

func NewHandlers(s ReviewScraper, logger *slog.Logger) *Handlers {
	return &Handlers{
		scraper: s,
		logger:  logger.With("component", "api"),
	}
}

// ScrapeRequest is the POST /scrape-reviews payload.
type ScrapeRequest struct {
	ProductURL string   `json:"product_url"`
	MaxPages   int      `json:"max_pages"`
	Proxies    []string `json:"proxies"`
	Username   string   `json:"username"`
	Password   string   `json:"password"`
}

// BatchRequest is the POST /scrape-reviews/batch payload.
type BatchRequest struct {
	ProductURLs []string `json:"product_urls"`
	MaxPages    int      `json:"max_pages"`
	Proxies     []string `json:"proxies"`
	Username    string   `json:"username"`
	Password    string   `json:"password"`
	Workers     int      `json:"workers"`
}

// BatchResponse wraps the per-URL envelopes.
type BatchResponse struct {
	Status  string              `json:"status"`
	Message string              `json:"message"`
	Results []scraper.BatchItem `json:"results"`
}

// ScrapeReviews handles POST /scrape-reviews.
func (h *Handlers) ScrapeReviews(w http.ResponseWriter, r *http.Request) {
	var req ScrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondJSON(w, http.StatusBadRequest, models.ErrorResult("invalid request body"))
		return
	}

	if req.ProductURL == "" {
		h.respondJSON(w, http.StatusBadRequest, models.ErrorResult("product_url is required"))
		return
	}

	h.logger.Info("scraping reviews", "url", req.ProductURL, "max_pages", req.MaxPages)

	result := h.scraper.ScrapeReviews(r.Context(), scraper.Session{
		ProductURL: req.ProductURL,
		MaxPages:   req.MaxPages,
		Proxies:    req.Proxies,
		Username:   req.Username,
		Password:   req.Password,
	})

	h.respondJSON(w, statusCodeFor(result), result)
}

// ScrapeReviewsGet handles GET /scrape-reviews?url=...&max_pages=N.
func (h *Handlers) ScrapeReviewsGet(w http.ResponseWriter, r *http.Request) {
	productURL := r.URL.Query().Get("url")
	if productURL == "" {
		h.respondJSON(w, http.StatusBadRequest, models.ErrorResult("url parameter is required"))
		return
	}

	maxPages := 0
	if raw := r.URL.Query().Get("max_pages"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.respondJSON(w, http.StatusBadRequest, models.ErrorResult("max_pages must be a positive integer"))
			return
		}
		maxPages = n
	}

	h.logger.Info("scraping reviews", "url", productURL, "max_pages", maxPages)

	result := h.scraper.ScrapeReviews(r.Context(), scraper.Session{
		ProductURL: productURL,
		MaxPages:   maxPages,
	})

	h.respondJSON(w, statusCodeFor(result), result)
}

// ScrapeBatch handles POST /scrape-reviews/batch.
func (h *Handlers) ScrapeBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondJSON(w, http.StatusBadRequest, models.ErrorResult("invalid request body"))
		return
	}

	if len(req.ProductURLs) == 0 {
		h.respondJSON(w, http.StatusBadRequest, models.ErrorResult("product_urls is required"))
		return
	}

	h.logger.Info("scraping batch", "urls", len(req.ProductURLs), "max_pages", req.MaxPages)

	items := h.scraper.ScrapeBatch(r.Context(), scraper.BatchSession{
		ProductURLs: req.ProductURLs,
		MaxPages:    req.MaxPages,
		Proxies:     req.Proxies,
		Username:    req.Username,
		Password:    req.Password,
		Workers:     req.Workers,
	})

	succeeded := 0
	for _, item := range items {
		if item.Result.Status == models.StatusSuccess {
			succeeded++
		}
	}

	h.respondJSON(w, http.StatusOK, BatchResponse{
		Status:  models.StatusSuccess,
		Message: strconv.Itoa(succeeded) + " of " + strconv.Itoa(len(items)) + " runs succeeded",
		Results: items,
	})
}

// Health handles GET /health.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{
		"status":  models.StatusSuccess,
		"message": "Amazon Review Scraper API is running",
		"version": Version,
	})
}

// Home handles GET / with a short endpoint listing.
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]any{
		"message": "Amazon Review Scraper API",
		"version": Version,
		"endpoints": map[string]string{
			"POST /scrape-reviews":       "Scrape reviews with JSON payload",
			"GET /scrape-reviews":        "Scrape reviews with url and max_pages query parameters",
			"POST /scrape-reviews/batch": "Scrape several product URLs concurrently",
			"GET /health":                "Health check",
			"GET /":                      "This documentation",
		},
	})
}

// statusCodeFor maps envelopes to HTTP statuses: rejected input is a client
// error, anything else that failed is a server error.
func statusCodeFor(result models.ScrapeResult) int {
	if result.Status == models.StatusSuccess {
		return http.StatusOK
	}
	if strings.Contains(result.Message, scraper.ErrInvalidProductURL) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}
