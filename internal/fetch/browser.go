package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"ProductParser/utils"
)

const defaultBrowserTimeout = 5 * time.Second

// BrowserOptions tunes a Browser. Zero durations and counts fall back to the
// package defaults.
type BrowserOptions struct {
	Headless  bool
	Timeout   time.Duration
	Attempts  int
	BaseDelay time.Duration
}

// Browser drives headless page loads for the sources whose product metadata
// only exists in rendered markup. Every attempt launches a fresh browser
// process under a fresh fingerprint, so a blocked identity does not leak into
// the next try.
type Browser struct {
	headless  bool
	timeout   time.Duration
	attempts  int
	baseDelay time.Duration
}

func NewBrowser(opts BrowserOptions) *Browser {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultBrowserTimeout
	}
	if opts.Attempts <= 0 {
		opts.Attempts = defaultAttempts
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = defaultBaseDelay
	}
	return &Browser{
		headless:  opts.Headless,
		timeout:   opts.Timeout,
		attempts:  opts.Attempts,
		baseDelay: opts.BaseDelay,
	}
}

// FetchPage renders url and returns its HTML. A page containing
// challengeMarker is a blocked interstitial and counts as a failed attempt.
// Exhausted retries return "".
func (b *Browser) FetchPage(ctx context.Context, url, challengeMarker string) string {
	for attempt := 1; attempt <= b.attempts; attempt++ {
		html, err := b.fetchOnce(ctx, url)
		switch {
		case err != nil:
			slog.Warn("page load failed", "url", url, "attempt", attempt, "err", err)
		case challengeMarker != "" && strings.Contains(html, challengeMarker):
			slog.Warn("challenge interstitial served", "url", url, "attempt", attempt)
		default:
			return html
		}
		if attempt < b.attempts {
			select {
			case <-time.After(time.Duration(attempt) * b.baseDelay):
			case <-ctx.Done():
				return ""
			}
		}
	}
	slog.Error("page load retries exhausted", "url", url, "attempts", b.attempts)
	return ""
}

func (b *Browser) fetchOnce(ctx context.Context, url string) (string, error) {
	fp := utils.RandomFingerprint()

	controlURL, err := launcher.New().Headless(b.headless).Launch()
	if err != nil {
		return "", fmt.Errorf("could not launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return "", fmt.Errorf("could not connect to browser: %w", err)
	}
	defer browser.Close()

	page, err := stealth.Page(browser)
	if err != nil {
		return "", fmt.Errorf("could not open stealth page: %w", err)
	}

	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      fp.UserAgent,
		AcceptLanguage: fp.AcceptLanguage,
	}); err != nil {
		return "", err
	}
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:  fp.ViewportWidth,
		Height: fp.ViewportHeight,
	}); err != nil {
		return "", err
	}

	// Intermediate assets only slow the load down; product metadata lives in
	// the document itself.
	router := page.HijackRequests()
	err = router.Add("*", "", func(hijack *rod.Hijack) {
		switch hijack.Request.Type() {
		case proto.NetworkResourceTypeImage,
			proto.NetworkResourceTypeFont,
			proto.NetworkResourceTypeStylesheet,
			proto.NetworkResourceTypeMedia:
			hijack.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
		default:
			hijack.ContinueRequest(&proto.FetchContinueRequest{})
		}
	})
	if err != nil {
		return "", fmt.Errorf("could not install request filter: %w", err)
	}
	go router.Run()
	defer router.Stop()

	timed := page.Timeout(b.timeout)
	if err := timed.Navigate(url); err != nil {
		return "", fmt.Errorf("navigation failed: %w", err)
	}
	if err := timed.WaitLoad(); err != nil {
		return "", fmt.Errorf("page did not finish loading: %w", err)
	}

	return page.HTML()
}
