package browser

import "errors"

var (
	// ErrNoSession is returned when an operation needs a live session and
	// none exists.
	ErrNoSession = errors.New("no live browser session")

	// ErrSessionDestroyed means the browser, context or page was closed
	// outside the normal flow. The session cannot be reused.
	ErrSessionDestroyed = errors.New("browser session destroyed")

	// ErrChallengeUnresolved means an anti-bot challenge was still showing
	// after the wait budget ran out.
	ErrChallengeUnresolved = errors.New("challenge did not clear")
)
