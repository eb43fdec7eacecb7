package capture

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/use-agent/sheetshot/models"
)

// ConsentTarget identifies a cookie-consent control.
type ConsentTarget struct {
	// Selector is a CSS selector.
	Selector string

	// Text, when set, is a JS regular expression the element's text must
	// match, e.g. "/accept/i".
	Text string
}

func (t ConsentTarget) String() string {
	if t.Text == "" {
		return t.Selector
	}
	return t.Selector + " " + t.Text
}

// DefaultConsentTargets are tried in order; the first one present wins.
var DefaultConsentTargets = []ConsentTarget{
	{Selector: "button", Text: "/accept all cookies/i"},
	{Selector: "button", Text: "/accept/i"},
	{Selector: "[aria-label*='Accept']"},
	{Selector: "[id*='cookie-accept']"},
}

// ConsentOutcome reports the consent-banner step. Its Err is informational:
// the capturer never fails because of it.
type ConsentOutcome struct {
	Clicked bool
	Target  ConsentTarget
	Err     error
}

// dismissConsent tries to click a consent control within the consent
// timeout and lets the page settle after a successful click.
func (c *Capturer) dismissConsent(ctx context.Context, page Page) ConsentOutcome {
	cctx, cancel := context.WithTimeout(ctx, c.opts.ConsentTimeout)
	defer cancel()

	target, err := page.ClickFirst(cctx, c.opts.ConsentTargets)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = models.NewPipelineError(models.ErrCodeConsentTimeout,
				"no consent control appeared", err)
		}
		return ConsentOutcome{Err: err}
	}

	if c.opts.ConsentSettle > 0 {
		t := time.NewTimer(c.opts.ConsentSettle)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
		}
	}
	return ConsentOutcome{Clicked: true, Target: target}
}

func (o ConsentOutcome) log(url string) {
	switch {
	case o.Clicked:
		slog.Info("consent banner dismissed", "url", url, "selector", o.Target.String())
	case o.Err != nil:
		slog.Warn("consent banner not dismissed, continuing",
			"url", url, "code", models.CodeOf(o.Err), "error", o.Err)
	}
}
