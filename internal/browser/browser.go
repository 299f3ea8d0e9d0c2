package browser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/SyedQasimGardezi/AmazonReviewScrapperAPI/internal/scraper"
)

// stealthScript masks the usual automation fingerprints before any page
// script runs: the webdriver flag, an empty plugin list and an English-only
// language list all scream headless browser.
const stealthScript = `
try {
    Object.defineProperty(navigator, 'webdriver', {
        get: () => undefined,
    });
} catch(e) {}

try {
    Object.defineProperty(navigator, 'plugins', {
        get: () => [1, 2, 3, 4, 5],
    });
} catch(e) {}

try {
    Object.defineProperty(navigator, 'languages', {
        get: () => ['en-US', 'en'],
    });
} catch(e) {}

window.chrome = {
    runtime: {},
};
`

var launchArgs = []string{
	"--no-sandbox",
	"--disable-blink-features=AutomationControlled",
	"--disable-dev-shm-usage",
	"--disable-extensions",
	"--disable-gpu",
	"--no-first-run",
	"--no-default-browser-check",
	"--disable-default-apps",
	"--disable-popup-blocking",
	"--disable-translate",
	"--disable-background-timer-throttling",
	"--disable-renderer-backgrounding",
	"--disable-backgrounding-occluded-windows",
	"--disable-ipc-flooding-protection",
}

type Options struct {
	Headless       bool
	ViewportWidth  int
	ViewportHeight int
	Locale         string
	TimezoneID     string
	ExtraHeaders   map[string]string
}

func DefaultOptions() *Options {
	return &Options{
		Headless:       true,
		ViewportWidth:  1920,
		ViewportHeight: 1080,
		Locale:         "en-US",
		TimezoneID:     "America/New_York",
		ExtraHeaders: map[string]string{
			"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
			"Accept-Language":           "en-US,en;q=0.5",
			"Accept-Encoding":           "gzip, deflate, br",
			"DNT":                       "1",
			"Connection":                "keep-alive",
			"Upgrade-Insecure-Requests": "1",
		},
	}
}

// Launcher opens one isolated, fingerprint-resistant browsing surface per
// run. It implements scraper.SurfaceFactory.
type Launcher struct {
	opts   *Options
	logger *slog.Logger
}

func NewLauncher(opts *Options) *Launcher {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &Launcher{
		opts:   opts,
		logger: slog.Default().With("component", "browser"),
	}
}

// Open launches a headless browser, applies the run's proxy and identity,
// injects the stealth patch and hands back a ready surface.
func (l *Launcher) Open(_ context.Context, runOpts scraper.SurfaceOptions) (scraper.SurfaceHandle, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(l.opts.Headless),
		Args:     launchArgs,
	}
	if runOpts.Proxy != nil {
		launchOpts.Proxy = &playwright.Proxy{
			Server: runOpts.Proxy.Server,
		}
		if runOpts.Proxy.Username != "" {
			launchOpts.Proxy.Username = playwright.String(runOpts.Proxy.Username)
			launchOpts.Proxy.Password = playwright.String(runOpts.Proxy.Password)
		}
	}

	browser, err := pw.Chromium.Launch(launchOpts)
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	contextOpts := playwright.BrowserNewContextOptions{
		UserAgent:  playwright.String(runOpts.UserAgent),
		Locale:     playwright.String(l.opts.Locale),
		TimezoneId: playwright.String(l.opts.TimezoneID),
		Viewport: &playwright.Size{
			Width:  l.opts.ViewportWidth,
			Height: l.opts.ViewportHeight,
		},
		ExtraHttpHeaders: l.opts.ExtraHeaders,
	}

	context, err := browser.NewContext(contextOpts)
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	if err := context.AddInitScript(playwright.Script{Content: playwright.String(stealthScript)}); err != nil {
		context.Close()
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to inject stealth script: %w", err)
	}

	page, err := context.NewPage()
	if err != nil {
		context.Close()
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	l.logger.Info("browser setup complete", "user_agent", runOpts.UserAgent)

	return &session{
		pw:      pw,
		browser: browser,
		context: context,
		page:    page,
		logger:  l.logger,
	}, nil
}

// session owns the page, context and browser of one run.
type session struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
	logger  *slog.Logger
}

func (s *session) Surface() scraper.Surface {
	return &pageSurface{page: s.page}
}

// Close releases page, context and browser in that order. Teardown failures
// are logged, never returned: a cleanup error must not lose the run's result.
func (s *session) Close() {
	if s.page != nil {
		if err := s.page.Close(); err != nil {
			s.logger.Error("failed to close page", "error", err)
		}
	}
	if s.context != nil {
		if err := s.context.Close(); err != nil {
			s.logger.Error("failed to close context", "error", err)
		}
	}
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			s.logger.Error("failed to close browser", "error", err)
		}
	}
	if s.pw != nil {
		if err := s.pw.Stop(); err != nil {
			s.logger.Error("failed to stop playwright", "error", err)
		}
	}
}

// pageSurface adapts a Playwright page to the scraper's capability interface.
type pageSurface struct {
	page playwright.Page
}

func (p *pageSurface) Goto(url string, timeout time.Duration) error {
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(timeout.Milliseconds())),
	})
	return err
}

func (p *pageSurface) URL() string {
	return p.page.URL()
}

func (p *pageSurface) Evaluate(script string) (any, error) {
	return p.page.Evaluate(script)
}

func (p *pageSurface) WaitForSelector(selector string, timeout time.Duration) error {
	_, err := p.page.WaitForSelector(selector, playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		return scraper.ErrSelectorTimeout
	}
	return nil
}

func (p *pageSurface) QuerySelectorAll(selector string) ([]scraper.Element, error) {
	handles, err := p.page.QuerySelectorAll(selector)
	if err != nil {
		return nil, err
	}
	elements := make([]scraper.Element, len(handles))
	for i, h := range handles {
		elements[i] = &elementHandle{handle: h}
	}
	return elements, nil
}

func (p *pageSurface) WaitForNetworkIdle(timeout time.Duration) error {
	return p.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateNetworkidle,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
}

// elementHandle adapts a Playwright element handle.
type elementHandle struct {
	handle playwright.ElementHandle
}

func (e *elementHandle) QuerySelector(selector string) (scraper.Element, error) {
	h, err := e.handle.QuerySelector(selector)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, nil
	}
	return &elementHandle{handle: h}, nil
}

func (e *elementHandle) QuerySelectorAll(selector string) ([]scraper.Element, error) {
	handles, err := e.handle.QuerySelectorAll(selector)
	if err != nil {
		return nil, err
	}
	elements := make([]scraper.Element, len(handles))
	for i, h := range handles {
		elements[i] = &elementHandle{handle: h}
	}
	return elements, nil
}

func (e *elementHandle) InnerText() (string, error) {
	return e.handle.InnerText()
}

func (e *elementHandle) GetAttribute(name string) (string, error) {
	return e.handle.GetAttribute(name)
}

func (e *elementHandle) Click() error {
	return e.handle.Click()
}

func (e *elementHandle) IsEnabled() (bool, error) {
	return e.handle.IsEnabled()
}
