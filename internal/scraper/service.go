package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/SyedQasimGardezi/AmazonReviewScrapperAPI/internal/models"
	"github.com/SyedQasimGardezi/AmazonReviewScrapperAPI/internal/proxy"
	"github.com/SyedQasimGardezi/AmazonReviewScrapperAPI/internal/ratelimit"
)

const DefaultMaxPages = 5

// DefaultUserAgents is the identity pool a run draws from when the caller
// does not supply one. Diverse clients look less like automation.
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:121.0) Gecko/20100101 Firefox/121.0",
}

// ErrInvalidProductURL is the message rejected URLs surface in the envelope.
const ErrInvalidProductURL = "Invalid Amazon product URL"

// Session is the run-scoped configuration: created once per invocation and
// read-only for the duration of the run.
type Session struct {
	ProductURL string
	MaxPages   int
	// Proxies overrides the service-level rotator with a private one owned
	// by this run.
	Proxies  []string
	Username string
	Password string
}

// Service is the extraction pipeline: session orchestration, navigation,
// per-page field extraction, bounded pagination and result aggregation.
// ScrapeReviews never fails past its own boundary; every failure path
// resolves to a returned envelope.
type Service struct {
	factory    SurfaceFactory
	rotator    proxy.Rotator
	identities []string
	delay      ratelimit.Delayer
	maxPages   int
	workers    int
	logger     *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithIdentities replaces the default user-agent pool.
func WithIdentities(identities []string) Option {
	return func(s *Service) {
		if len(identities) > 0 {
			s.identities = identities
		}
	}
}

// WithDelayer replaces the randomized delay strategy.
func WithDelayer(d ratelimit.Delayer) Option {
	return func(s *Service) { s.delay = d }
}

// WithDefaults overrides the page bound and batch worker count used by
// sessions that do not set their own.
func WithDefaults(maxPages, workers int) Option {
	return func(s *Service) {
		if maxPages > 0 {
			s.maxPages = maxPages
		}
		if workers > 0 {
			s.workers = workers
		}
	}
}

func NewService(factory SurfaceFactory, rotator proxy.Rotator, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		factory:    factory,
		rotator:    rotator,
		identities: DefaultUserAgents,
		delay:      ratelimit.Jitter{},
		maxPages:   DefaultMaxPages,
		workers:    DefaultBatchWorkers,
		logger:     logger.With("component", "review_scraper"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SelectIdentity returns one user agent chosen uniformly at random from the
// identity pool. Never returns an empty string.
func (s *Service) SelectIdentity() string {
	if len(s.identities) == 0 {
		return DefaultUserAgents[0]
	}
	return s.identities[rand.Intn(len(s.identities))]
}

// IsProductURL reports whether the URL plausibly points at an Amazon
// marketplace. Validation happens before any surface is created so obviously
// wrong input never costs a browser launch; the post-navigation domain check
// still guards against redirects off the marketplace.
func IsProductURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return strings.Contains(u.Hostname(), "amazon.")
}

// ScrapeReviews runs the whole pipeline for one product listing and returns
// the aggregated result envelope. A session carrying its own proxy list gets
// a private rotator; otherwise the service-level rotator is used.
func (s *Service) ScrapeReviews(ctx context.Context, sess Session) models.ScrapeResult {
	rotator := s.rotator
	if len(sess.Proxies) > 0 {
		rotator = proxy.NewRoundRobin(proxy.ParseEndpoints(sess.Proxies, sess.Username, sess.Password))
	}
	return s.run(ctx, sess, rotator)
}

func (s *Service) run(ctx context.Context, sess Session, rotator proxy.Rotator) models.ScrapeResult {
	if !IsProductURL(sess.ProductURL) {
		return models.ErrorResult(ErrInvalidProductURL)
	}
	maxPages := sess.MaxPages
	if maxPages <= 0 {
		maxPages = s.maxPages
	}

	runID := uuid.New().String()
	logger := s.logger.With("run_id", runID)

	opts := SurfaceOptions{UserAgent: s.SelectIdentity()}
	if rotator != nil {
		if endpoint, ok := rotator.Next(ctx); ok {
			opts.Proxy = &endpoint
			logger.Info("using proxy", "server", endpoint.Server)
		}
	}

	handle, err := s.factory.Open(ctx, opts)
	if err != nil {
		logger.Error("failed to set up browsing surface", "error", err)
		return models.ErrorResult(fmt.Sprintf("Error scraping reviews: %v", err))
	}
	// Teardown is unconditional: the surface is released on every exit path
	// so a cleanup error can never lose the run's result.
	defer handle.Close()

	reviews := s.scrape(ctx, handle.Surface(), sess.ProductURL, maxPages, logger)
	logger.Info("run complete", "total_reviews", len(reviews))
	return models.SuccessResult(reviews)
}

// scrape drives navigation, pagination and extraction against one surface.
func (s *Service) scrape(ctx context.Context, surface Surface, productURL string, maxPages int, logger *slog.Logger) []models.Review {
	nav := NewNavigator(surface, s.delay, logger)
	if !nav.NavigateToProduct(ctx, productURL) {
		return nil
	}

	// Extract from the listing page itself rather than following the
	// "see all reviews" link, which tends to hit a login wall.
	if _, err := surface.Evaluate("window.scrollTo(0, document.body.scrollHeight * 0.85)"); err != nil {
		logger.Warn("scroll failed", "error", err)
	}
	s.delay.Sleep(ctx, 2*time.Second, 3*time.Second)

	extractor := NewExtractor(s.delay, logger)

	var all []models.Review
	for pageNum := 1; pageNum <= maxPages; pageNum++ {
		pageReviews := extractor.ExtractPage(ctx, surface)
		all = append(all, pageReviews...)
		logger.Info("extracted page", "page", pageNum, "reviews", len(pageReviews))

		if pageNum == maxPages {
			break
		}
		if !s.advance(ctx, surface, logger) {
			break
		}
	}
	return all
}

// advance clicks the next-page control and waits for the new page to settle.
// Returning false always means Done: an absent or disabled control is the
// normal end of results, and any error degrades to partial success.
func (s *Service) advance(ctx context.Context, surface Surface, logger *slog.Logger) bool {
	candidates, err := surface.QuerySelectorAll(nextPageSelector)
	if err != nil || len(candidates) == 0 {
		logger.Info("no more pages available")
		return false
	}
	next := candidates[0]

	enabled, err := next.IsEnabled()
	if err != nil || !enabled {
		logger.Info("no more pages available")
		return false
	}

	if err := next.Click(); err != nil {
		logger.Warn("error navigating to next page", "error", err)
		return false
	}

	s.delay.Sleep(ctx, 3*time.Second, 6*time.Second)

	if err := surface.WaitForNetworkIdle(10 * time.Second); err != nil {
		logger.Warn("error waiting for next page to load", "error", err)
		return false
	}
	return true
}
