package scraper

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/SyedQasimGardezi/AmazonReviewScrapperAPI/internal/models"
	"github.com/SyedQasimGardezi/AmazonReviewScrapperAPI/internal/proxy"
	"github.com/SyedQasimGardezi/AmazonReviewScrapperAPI/internal/queue"
	"github.com/SyedQasimGardezi/AmazonReviewScrapperAPI/internal/ratelimit"
)

const DefaultBatchWorkers = 2

// BatchItem is the outcome of one run within a batch.
type BatchItem struct {
	ID         string              `json:"id"`
	ProductURL string              `json:"product_url"`
	Result     models.ScrapeResult `json:"result"`
}

// BatchSession configures a batch of runs. Each URL gets its own fully
// isolated browsing surface; only the proxy rotator cursor is shared, so
// concurrent runs still alternate proxies fairly.
type BatchSession struct {
	ProductURLs []string
	MaxPages    int
	Proxies     []string
	Username    string
	Password    string
	Workers     int
}

// ScrapeBatch runs every URL through the pipeline with a bounded number of
// concurrent workers. Results come back in input order; a failed run yields
// its error envelope without affecting the others.
func (s *Service) ScrapeBatch(ctx context.Context, batch BatchSession) []BatchItem {
	workers := batch.Workers
	if workers <= 0 {
		workers = s.workers
	}
	if workers > len(batch.ProductURLs) {
		workers = len(batch.ProductURLs)
	}

	// One rotator for the whole batch: its cursor advance is serialized, so
	// concurrent runs still see strict round-robin order.
	rotator := s.rotator
	if len(batch.Proxies) > 0 {
		rotator = proxy.NewRoundRobin(proxy.ParseEndpoints(batch.Proxies, batch.Username, batch.Password))
	}

	items := make([]BatchItem, len(batch.ProductURLs))

	q := queue.NewInMemoryQueue()
	for i, u := range batch.ProductURLs {
		id := uuid.New().String()
		items[i] = BatchItem{ID: id, ProductURL: u}
		// Push cannot fail before Close.
		_ = q.Push(&queue.Task{
			ID:        id,
			URL:       u,
			MaxPages:  batch.MaxPages,
			Index:     i,
			CreatedAt: time.Now(),
		})
	}
	q.Close()

	// Pace run starts so parallel sessions do not stampede the marketplace.
	// The pacer sleeps through the service's delay strategy, so a fast
	// strategy also skips batch pacing.
	pacer := ratelimit.NewSimpleRateLimiter(s.delay, 1*time.Second, 3*time.Second)

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for {
				task, err := q.Pop(gctx)
				if err != nil {
					return nil
				}
				if err := pacer.Wait(gctx); err != nil {
					return nil
				}
				items[task.Index].Result = s.run(gctx, Session{
					ProductURL: task.URL,
					MaxPages:   task.MaxPages,
				}, rotator)
			}
		})
	}
	// Workers only ever return nil.
	_ = g.Wait()

	for i := range items {
		if items[i].Result.Status == "" {
			items[i].Result = models.ErrorResult("Error scraping reviews: run canceled")
		}
	}
	return items
}
