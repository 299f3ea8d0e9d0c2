package scraper

import (
	"context"
	"errors"
	"time"

	"github.com/SyedQasimGardezi/AmazonReviewScrapperAPI/internal/proxy"
)

// ErrSelectorTimeout is returned by Surface.WaitForSelector when the selector
// does not appear within the given timeout.
var ErrSelectorTimeout = errors.New("selector did not appear before timeout")

// Surface is the capability interface the pipeline consumes from the browser
// engine. The production implementation wraps a Playwright page; tests drive
// the pipeline through a fixture-backed fake.
type Surface interface {
	// Goto loads the URL, waiting only for initial DOM readiness.
	Goto(url string, timeout time.Duration) error
	// URL returns the current address after redirects.
	URL() string
	// Evaluate runs a script in the page and returns its result.
	Evaluate(script string) (any, error)
	// WaitForSelector blocks until the selector matches or the timeout
	// elapses, returning ErrSelectorTimeout in the latter case.
	WaitForSelector(selector string, timeout time.Duration) error
	// QuerySelectorAll returns every element currently matching the selector.
	QuerySelectorAll(selector string) ([]Element, error)
	// WaitForNetworkIdle blocks until the page's network activity quiesces.
	WaitForNetworkIdle(timeout time.Duration) error
}

// Element is one DOM element handle.
type Element interface {
	// QuerySelector returns the first matching descendant, or nil if absent.
	QuerySelector(selector string) (Element, error)
	QuerySelectorAll(selector string) ([]Element, error)
	InnerText() (string, error)
	// GetAttribute returns "" for attributes that are not present.
	GetAttribute(name string) (string, error)
	Click() error
	IsEnabled() (bool, error)
}

// SurfaceOptions carries the per-run identity a factory applies when opening
// a browsing surface.
type SurfaceOptions struct {
	Proxy     *proxy.Endpoint
	UserAgent string
}

// SurfaceHandle owns one open browsing surface. Close releases the page,
// context and engine best-effort; it never fails the run.
type SurfaceHandle interface {
	Surface() Surface
	Close()
}

// SurfaceFactory opens one isolated browsing surface per run.
type SurfaceFactory interface {
	Open(ctx context.Context, opts SurfaceOptions) (SurfaceHandle, error)
}
