package browser

import (
	"context"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/use-agent/sheetshot/capture"
	"github.com/ysmood/gson"
)

// Page adapts a Rod tab to capture.Page.
type Page struct {
	page      *rod.Page
	closeOnce sync.Once
	closeErr  error
}

var _ capture.Page = (*Page)(nil)

func newPage(p *rod.Page) *Page {
	return &Page{page: p}
}

// Navigate loads url, waits for the load event and then for the DOM to
// stop changing.
func (p *Page) Navigate(ctx context.Context, rawURL string) error {
	pg := p.page.Context(ctx)

	// Arrive as if from a search result.
	if u, err := url.Parse(rawURL); err == nil && u.Hostname() != "" {
		err := proto.NetworkSetExtraHTTPHeaders{
			Headers: proto.NetworkHeaders{
				"Referer": gson.New("https://www.google.com/search?q=" + url.QueryEscape(u.Hostname())),
			},
		}.Call(pg)
		if err != nil {
			slog.Debug("failed to set Referer header, navigating without it", "error", err)
		}
	}

	if err := pg.Navigate(rawURL); err != nil {
		return err
	}
	if err := pg.WaitLoad(); err != nil {
		return err
	}
	if err := pg.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM", "error", err)
	}
	return nil
}

// ClickFirst races all targets and clicks whichever appears first.
func (p *Page) ClickFirst(ctx context.Context, targets []capture.ConsentTarget) (capture.ConsentTarget, error) {
	var matched capture.ConsentTarget

	race := p.page.Context(ctx).Race()
	for _, t := range targets {
		if t.Text != "" {
			race = race.ElementR(t.Selector, t.Text)
		} else {
			race = race.Element(t.Selector)
		}
		race = race.Handle(func(*rod.Element) error {
			matched = t
			return nil
		})
	}

	el, err := race.Do()
	if err != nil {
		return capture.ConsentTarget{}, err
	}
	if err := el.Context(ctx).Click(proto.InputMouseButtonLeft, 1); err != nil {
		return capture.ConsentTarget{}, err
	}
	return matched, nil
}

// Dimensions reads the document scroll size.
func (p *Page) Dimensions(ctx context.Context) (int, int, error) {
	res, err := p.page.Context(ctx).Eval(`() => ({
		width: document.documentElement.scrollWidth,
		height: document.documentElement.scrollHeight,
	})`)
	if err != nil {
		return 0, 0, err
	}
	return res.Value.Get("width").Int(), res.Value.Get("height").Int(), nil
}

// Screenshot captures the page as PNG.
func (p *Page) Screenshot(ctx context.Context, fullPage bool) ([]byte, error) {
	return p.page.Context(ctx).Screenshot(fullPage, &proto.PageCaptureScreenshot{
		Format:                proto.PageCaptureScreenshotFormatPng,
		CaptureBeyondViewport: fullPage,
	})
}

// Close closes the tab once; later calls return the first result.
func (p *Page) Close() error {
	p.closeOnce.Do(func() {
		p.closeErr = p.page.Close()
	})
	return p.closeErr
}
