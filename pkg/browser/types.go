package browser

import (
	"context"
	"time"
)

// Page is the subset of a browser tab relist drives.
type Page interface {
	// Goto navigates and returns once the DOM content is parsed.
	Goto(url string, timeout time.Duration) error

	// Reload reloads the current document with the same completion criterion.
	Reload(timeout time.Duration) error

	// Title returns the document title.
	Title() (string, error)

	// Evaluate runs a JavaScript function expression in the page with arg as
	// its single argument and returns the JSON-compatible result.
	Evaluate(script string, arg interface{}) (interface{}, error)

	// URL returns the current page URL.
	URL() string

	// IsClosed reports whether the page was closed.
	IsClosed() bool
}

// Handle is one launched browser with exactly one page.
type Handle interface {
	// AddCookies injects cookies into the browser context.
	AddCookies(cookies []Cookie) error

	// Page returns the handle's only page.
	Page() Page

	// Close releases the page, context and browser. Errors from already
	// closed resources are ignored.
	Close() error
}

// Launcher starts browsers.
type Launcher interface {
	Launch(ctx context.Context, opts LaunchOptions) (Handle, error)

	// Stop releases the driver behind the launcher.
	Stop() error
}

// LaunchOptions configures a new browser.
type LaunchOptions struct {
	// Headless controls whether the browser runs without a visible window
	Headless bool

	// UserAgent overrides the browser's default user agent
	UserAgent string

	// Viewport sets the initial viewport size
	Viewport Viewport

	// Args are appended to the stealth launch arguments
	Args []string
}

// Viewport represents the browser viewport dimensions.
type Viewport struct {
	Width  int
	Height int
}

// Cookie is one cookie scoped to a domain and path.
type Cookie struct {
	Name   string
	Value  string
	Domain string
	Path   string
}

// Session is the live browser handle plus bookkeeping.
type Session struct {
	// ID is unique per Init, so log lines can tell sessions apart
	ID string

	// Generation counts how many sessions the manager has built, starting at 1
	Generation int

	Handle    Handle
	CreatedAt time.Time
}

// Page returns the session's page.
func (s *Session) Page() Page {
	return s.Handle.Page()
}

// Default values for session operations
const (
	DefaultNavigationTimeout = 30 * time.Second
	DefaultChallengeWait     = 10 * time.Second
	DefaultChallengePoll     = time.Second
)
