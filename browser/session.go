// Package browser owns the Chromium process, the shared browser context
// and the per-URL pages used by the capturer.
package browser

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/sheetshot/capture"
	"github.com/use-agent/sheetshot/config"
	"github.com/use-agent/sheetshot/models"
)

// Session is the single browser context shared by every URL of a run.
// Pages are private to one URL and must be closed by the caller.
type Session struct {
	launcher  *launcher.Launcher
	browser   *rod.Browser
	incognito *rod.Browser // context holding the cookies
	cfg       config.BrowserConfig
}

// Launch starts Chromium, opens one incognito context and loads the cookie
// file into it. Launch failures are init failures.
func Launch(ctx context.Context, cfg config.BrowserConfig) (*Session, error) {
	l := launcher.New().
		Context(ctx).
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)

	if cfg.BrowserBin != "" {
		l = l.Bin(cfg.BrowserBin)
	}

	// ── Stealth flags ────────────────────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "TranslateUI")
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewInitError("failed to launch browser", err)
	}
	slog.Info("browser launched", "controlURL", controlURL, "headless", cfg.Headless)

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, models.NewInitError("failed to connect to browser", err)
	}

	incognito, err := b.Incognito()
	if err != nil {
		_ = b.Close()
		l.Kill()
		return nil, models.NewInitError("failed to create browser context", err)
	}

	s := &Session{launcher: l, browser: b, incognito: incognito, cfg: cfg}
	s.loadCookies()
	return s, nil
}

// loadCookies is best effort: a missing or broken cookie file only costs
// the logged-in state.
func (s *Session) loadCookies() {
	if s.cfg.CookiesPath == "" {
		return
	}

	cookies, err := ReadCookieFile(s.cfg.CookiesPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		slog.Warn("cookies file not found, proceeding without cookies", "path", s.cfg.CookiesPath)
		return
	case err != nil:
		slog.Error("failed to load cookies", "path", s.cfg.CookiesPath, "error", err)
		return
	case len(cookies) == 0:
		slog.Info("no valid cookies found in cookies file", "path", s.cfg.CookiesPath)
		return
	}

	if err := s.incognito.SetCookies(cookies); err != nil {
		slog.Error("failed to set cookies on browser context", "error", err)
		return
	}
	slog.Info("cookies loaded into browser context", "count", len(cookies))
}

// NewPage opens a fresh tab in the shared context with the viewport, user
// agent and stealth script applied.
func (s *Session) NewPage(ctx context.Context) (capture.Page, error) {
	// The tab itself is bound to the session, not to ctx, so that Close
	// still works after ctx is canceled.
	page, err := s.incognito.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, models.NewPipelineError(models.ErrCodeRender, "failed to open page", err)
	}
	setup := page.Context(ctx)

	if err := setup.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             s.cfg.ViewportWidth,
		Height:            s.cfg.ViewportHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		slog.Warn("failed to set viewport", "error", err)
	}

	if s.cfg.UserAgent != "" {
		if err := setup.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent: s.cfg.UserAgent,
		}); err != nil {
			slog.Warn("failed to set user agent", "error", err)
		}
	}

	// Must happen before navigation to take effect.
	if s.cfg.Stealth {
		if _, err := setup.EvalOnNewDocument(stealth.JS); err != nil {
			slog.Warn("stealth injection failed, proceeding without stealth", "error", err)
		}
	}

	return newPage(page), nil
}

// Close disposes the context, closes the browser and kills the process.
// Call this on shutdown to prevent zombie Chrome processes.
func (s *Session) Close() {
	slog.Info("browser shutting down: closing context")
	if err := s.incognito.Close(); err != nil {
		slog.Warn("failed to close browser context", "error", err)
	}
	if err := s.browser.Close(); err != nil {
		slog.Warn("failed to close browser", "error", err)
	}
	s.launcher.Kill()
	s.launcher.Cleanup()
	slog.Info("browser shutdown complete")
}
