package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
)

// PlaywrightLauncher launches Chromium through Playwright.
type PlaywrightLauncher struct {
	mu          sync.Mutex
	playwright  *playwright.Playwright
	initialized bool

	// SkipInstall assumes the driver and browsers are already present
	SkipInstall bool
}

// NewPlaywrightLauncher creates a launcher. The driver is installed and
// started lazily on the first Launch.
func NewPlaywrightLauncher() *PlaywrightLauncher {
	return &PlaywrightLauncher{}
}

// initialize installs and runs the Playwright driver once.
func (l *PlaywrightLauncher) initialize() error {
	if l.initialized {
		return nil
	}

	// Keep driver output out of the cycle log
	opts := &playwright.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  false,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	}

	if !l.SkipInstall {
		if err := playwright.Install(opts); err != nil {
			return fmt.Errorf("failed to install playwright: %w", err)
		}
	}

	pw, err := playwright.Run(opts)
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}

	l.playwright = pw
	l.initialized = true
	return nil
}

// Launch starts Chromium with the stealth profile and opens exactly one page.
func (l *PlaywrightLauncher) Launch(ctx context.Context, opts LaunchOptions) (Handle, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := l.initialize(); err != nil {
		return nil, err
	}

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless:          playwright.Bool(opts.Headless),
		Args:              launchArgs(opts.Args),
		IgnoreDefaultArgs: ignoredDefaultArgs,
		ChromiumSandbox:   playwright.Bool(false),
	}
	browser, err := l.playwright.Chromium.Launch(launchOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	contextOpts := playwright.BrowserNewContextOptions{
		Locale: playwright.String("en-AU"),
	}
	if opts.UserAgent != "" {
		contextOpts.UserAgent = playwright.String(opts.UserAgent)
	}
	if opts.Viewport.Width > 0 && opts.Viewport.Height > 0 {
		contextOpts.Viewport = &playwright.Size{
			Width:  opts.Viewport.Width,
			Height: opts.Viewport.Height,
		}
	}
	bctx, err := browser.NewContext(contextOpts)
	if err != nil {
		browser.Close()
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	if err := bctx.AddInitScript(playwright.Script{Content: playwright.String(stealthScript)}); err != nil {
		bctx.Close()
		browser.Close()
		return nil, fmt.Errorf("failed to add stealth script: %w", err)
	}

	page, err := bctx.NewPage()
	if err != nil {
		bctx.Close()
		browser.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	return &playwrightHandle{
		browser: browser,
		context: bctx,
		page:    &playwrightPage{page: page, browser: browser},
	}, nil
}

// Stop stops the Playwright driver.
func (l *PlaywrightLauncher) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.initialized && l.playwright != nil {
		if err := l.playwright.Stop(); err != nil {
			return fmt.Errorf("failed to stop playwright: %w", err)
		}
		l.initialized = false
	}
	return nil
}

type playwrightHandle struct {
	browser playwright.Browser
	context playwright.BrowserContext
	page    *playwrightPage
}

func (h *playwrightHandle) AddCookies(cookies []Cookie) error {
	pwCookies := make([]playwright.OptionalCookie, 0, len(cookies))
	for _, c := range cookies {
		pwCookies = append(pwCookies, playwright.OptionalCookie{
			Name:   c.Name,
			Value:  c.Value,
			Domain: playwright.String(c.Domain),
			Path:   playwright.String(c.Path),
		})
	}
	if err := h.context.AddCookies(pwCookies); err != nil {
		return h.page.wrap(err)
	}
	return nil
}

func (h *playwrightHandle) Page() Page {
	return h.page
}

func (h *playwrightHandle) Close() error {
	_ = h.page.page.Close() // Ignore errors, continue cleanup
	_ = h.context.Close()   // Ignore errors, continue cleanup
	if err := h.browser.Close(); err != nil && !errors.Is(err, playwright.ErrTargetClosed) {
		return err
	}
	return nil
}

// playwrightPage adapts playwright.Page to Page and classifies failures.
type playwrightPage struct {
	page    playwright.Page
	browser playwright.Browser
}

// wrap marks errors caused by a closed page, context or browser with
// ErrSessionDestroyed.
func (p *playwrightPage) wrap(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, playwright.ErrTargetClosed) || p.page.IsClosed() || !p.browser.IsConnected() {
		return fmt.Errorf("%w: %v", ErrSessionDestroyed, err)
	}
	return err
}

func (p *playwrightPage) Goto(url string, timeout time.Duration) error {
	waitUntil := playwright.WaitUntilState("domcontentloaded")
	ms := float64(timeout.Milliseconds())
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: &waitUntil,
		Timeout:   &ms,
	})
	return p.wrap(err)
}

func (p *playwrightPage) Reload(timeout time.Duration) error {
	waitUntil := playwright.WaitUntilState("domcontentloaded")
	ms := float64(timeout.Milliseconds())
	_, err := p.page.Reload(playwright.PageReloadOptions{
		WaitUntil: &waitUntil,
		Timeout:   &ms,
	})
	return p.wrap(err)
}

func (p *playwrightPage) Title() (string, error) {
	title, err := p.page.Title()
	return title, p.wrap(err)
}

func (p *playwrightPage) Evaluate(script string, arg interface{}) (interface{}, error) {
	result, err := p.page.Evaluate(script, arg)
	return result, p.wrap(err)
}

func (p *playwrightPage) URL() string {
	return p.page.URL()
}

func (p *playwrightPage) IsClosed() bool {
	return p.page.IsClosed() || !p.browser.IsConnected()
}
