package scraper

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// fakeSurface drives the pipeline from static HTML fixtures. It understands
// the two non-CSS selector forms the pipeline uses (`text=...` and
// `tag:has-text("...")`) and models pagination as a slice of pages advanced
// by clicking the next-page control.
type fakeSurface struct {
	pages []*goquery.Document
	idx   int

	finalURL string
	gotoErr  error
	idleErr  error

	// nextClickErr fails next-page clicks after clicksBeforeErr successes.
	nextClickErr    error
	clicksBeforeErr int

	scripts []string
	closed  bool
}

func newFakeSurface(htmlPages ...string) *fakeSurface {
	s := &fakeSurface{}
	for _, h := range htmlPages {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(h))
		if err != nil {
			panic(err)
		}
		s.pages = append(s.pages, doc)
	}
	return s
}

func (s *fakeSurface) doc() *goquery.Document {
	return s.pages[s.idx]
}

func (s *fakeSurface) Goto(url string, _ time.Duration) error {
	if s.gotoErr != nil {
		return s.gotoErr
	}
	if s.finalURL == "" {
		s.finalURL = url
	}
	return nil
}

func (s *fakeSurface) URL() string {
	return s.finalURL
}

func (s *fakeSurface) Evaluate(script string) (any, error) {
	s.scripts = append(s.scripts, script)
	return nil, nil
}

func (s *fakeSurface) WaitForSelector(selector string, _ time.Duration) error {
	if els, err := s.QuerySelectorAll(selector); err == nil && len(els) > 0 {
		return nil
	}
	return ErrSelectorTimeout
}

func (s *fakeSurface) QuerySelectorAll(selector string) ([]Element, error) {
	if needle, ok := strings.CutPrefix(selector, "text="); ok {
		if strings.Contains(s.doc().Text(), needle) {
			return []Element{&textElement{text: needle}}, nil
		}
		return nil, nil
	}

	sel := s.find(selector)
	elements := make([]Element, 0, sel.Length())
	sel.Each(func(_ int, node *goquery.Selection) {
		el := &fakeElement{sel: node}
		if selector == nextPageSelector {
			el.clickFn = s.clickNext
		}
		elements = append(elements, el)
	})
	return elements, nil
}

func (s *fakeSurface) WaitForNetworkIdle(time.Duration) error {
	return s.idleErr
}

// find resolves the has-text pseudo-selector cascadia does not support.
func (s *fakeSurface) find(selector string) *goquery.Selection {
	if i := strings.Index(selector, `:has-text("`); i >= 0 {
		tag := selector[:i]
		needle := strings.TrimSuffix(selector[i+len(`:has-text("`):], `")`)
		return s.doc().Find(tag).FilterFunction(func(_ int, node *goquery.Selection) bool {
			return strings.Contains(node.Text(), needle)
		})
	}
	return s.doc().Find(selector)
}

func (s *fakeSurface) clickNext() error {
	if s.nextClickErr != nil {
		if s.clicksBeforeErr == 0 {
			return s.nextClickErr
		}
		s.clicksBeforeErr--
	}
	if s.idx+1 < len(s.pages) {
		s.idx++
	}
	return nil
}

// fakeElement wraps a single goquery node.
type fakeElement struct {
	sel     *goquery.Selection
	clickFn func() error
}

func (e *fakeElement) QuerySelector(selector string) (Element, error) {
	found := e.sel.Find(selector).First()
	if found.Length() == 0 {
		return nil, nil
	}
	return &fakeElement{sel: found}, nil
}

func (e *fakeElement) QuerySelectorAll(selector string) ([]Element, error) {
	var elements []Element
	e.sel.Find(selector).Each(func(_ int, node *goquery.Selection) {
		elements = append(elements, &fakeElement{sel: node})
	})
	return elements, nil
}

func (e *fakeElement) InnerText() (string, error) {
	return e.sel.Text(), nil
}

func (e *fakeElement) GetAttribute(name string) (string, error) {
	if name == "innerHTML" {
		html, err := e.sel.Html()
		if err != nil {
			return "", err
		}
		return html, nil
	}
	return e.sel.AttrOr(name, ""), nil
}

func (e *fakeElement) Click() error {
	if e.clickFn != nil {
		return e.clickFn()
	}
	return nil
}

func (e *fakeElement) IsEnabled() (bool, error) {
	return e.sel.AttrOr("aria-disabled", "false") != "true", nil
}

// textElement is the synthetic match for text= lookups.
type textElement struct {
	text string
}

func (e *textElement) QuerySelector(string) (Element, error)      { return nil, nil }
func (e *textElement) QuerySelectorAll(string) ([]Element, error) { return nil, nil }
func (e *textElement) InnerText() (string, error)                 { return e.text, nil }
func (e *textElement) GetAttribute(string) (string, error)        { return "", nil }
func (e *textElement) Click() error                               { return nil }
func (e *textElement) IsEnabled() (bool, error)                   { return true, nil }
