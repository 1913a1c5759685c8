// Package browser owns the single automated browser session relist works
// through.
//
// # Architecture
//
// The package is built around three concepts:
//
//  1. Launcher: starts a browser with a stealth profile and hands back a Handle
//     (browser, context and exactly one Page). PlaywrightLauncher is the
//     production implementation.
//  2. SessionManager: holds at most one live Session and implements the
//     lifecycle operations Init, Reload, Restart and Close.
//  3. ChallengeDetector: recognises anti-bot interstitials by page title or
//     response body and waits, with a bounded budget, for one to clear.
//
// # Session Lifecycle
//
//  1. Init: launch, inject the configured cookies, navigate to the edit page
//     with the domcontentloaded criterion, ride out a challenge if one shows.
//  2. Use: callers borrow the live Page for one update cycle at a time.
//  3. Reload: reload the page in place when a single request was challenged.
//  4. Restart: discard every handle and Init from scratch when the browser or
//     page went away underneath us.
//
// A session is never repaired piecemeal: Restart replaces it wholesale, and
// Init closes any session it finds before building a new one, so there are
// never two live sessions.
//
// # Errors
//
// Failures that drive recovery are reported as sentinel errors
// (ErrSessionDestroyed, ErrChallengeUnresolved, ErrNoSession) wrapped with
// context, and are matched with errors.Is. The playwright adapter translates
// closed-target failures into ErrSessionDestroyed at the source.
package browser
