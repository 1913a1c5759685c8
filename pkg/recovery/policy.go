// Package recovery classifies the outcome of an update cycle and decides
// what the session should do about it. Decisions are pure functions of the
// outcome; applying them is the caller's job.
package recovery

import (
	"errors"
	"net/http"
	"strings"

	"github.com/entrhq/relist/pkg/browser"
	"github.com/entrhq/relist/pkg/listing"
	"golang.org/x/net/html"
)

// Kind is the failure taxonomy of an update cycle.
type Kind string

const (
	Accepted                  Kind = "accepted"
	ChallengeDetected         Kind = "challenge-detected"
	SessionExpired            Kind = "session-expired"
	MissingAuthorizationToken Kind = "missing-token"
	RemoteRejected            Kind = "remote-rejected"
	SessionDestroyed          Kind = "session-destroyed"
	TransientExecutionError   Kind = "transient-error"
)

// Severity is the log level an outcome should be reported at.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarn
	SeverityError
)

// Severity returns how loudly the kind should be logged.
func (k Kind) Severity() Severity {
	switch k {
	case Accepted:
		return SeverityInfo
	case ChallengeDetected, RemoteRejected, TransientExecutionError:
		return SeverityWarn
	default:
		return SeverityError
	}
}

// Message returns the operator-facing description of the kind.
func (k Kind) Message() string {
	switch k {
	case Accepted:
		return "Listing updated"
	case ChallengeDetected:
		return "Challenge detected. Reloading page"
	case SessionExpired:
		return "Session expired. Refresh the cookie and token in the config"
	case MissingAuthorizationToken:
		return "No authorization token on the page or in the config"
	case RemoteRejected:
		return "Update rejected"
	case SessionDestroyed:
		return "Browser session was destroyed. Restarting"
	case TransientExecutionError:
		return "Cycle failed. Will retry on the next tick"
	default:
		return string(k)
	}
}

// Action is what the caller should do with the session.
type Action int

const (
	// ActionNone leaves the session alone
	ActionNone Action = iota
	// ActionReload reloads the current page in place
	ActionReload
	// ActionRestart discards the session and builds a new one
	ActionRestart
	// ActionSkip drops the cycle and keeps the session as-is
	ActionSkip
)

func (a Action) String() string {
	switch a {
	case ActionReload:
		return "reload"
	case ActionRestart:
		return "restart"
	case ActionSkip:
		return "skip"
	default:
		return "none"
	}
}

// Decision is the policy's verdict on one cycle.
type Decision struct {
	Kind   Kind
	Action Action
	// Manual is set when only an operator can fix the problem
	Manual bool
}

// signInTitlePrefix identifies the login page served in place of the
// listing when the session cookies are no longer accepted.
const signInTitlePrefix = "sign in"

// Policy classifies cycle outcomes.
type Policy struct {
	detector *browser.ChallengeDetector
}

// NewPolicy creates a policy that uses detector to spot challenge bodies.
func NewPolicy(detector *browser.ChallengeDetector) *Policy {
	return &Policy{detector: detector}
}

// Classify returns only the kind of the outcome.
func (p *Policy) Classify(result *listing.Result, err error) Kind {
	return p.Decide(result, err).Kind
}

// Decide classifies the outcome of a cycle. err is the error returned by
// the update task, result its result; exactly one of them is normally set.
func (p *Policy) Decide(result *listing.Result, err error) Decision {
	if err != nil {
		if errors.Is(err, browser.ErrSessionDestroyed) {
			return Decision{Kind: SessionDestroyed, Action: ActionRestart}
		}
		return Decision{Kind: TransientExecutionError, Action: ActionSkip}
	}
	if result == nil {
		return Decision{Kind: TransientExecutionError, Action: ActionSkip}
	}

	if result.Success {
		return Decision{Kind: Accepted, Action: ActionNone}
	}

	if result.Reason == listing.ReasonChallenge ||
		result.Status == http.StatusForbidden ||
		p.detector.BodyMatches(result.HTML) {
		return Decision{Kind: ChallengeDetected, Action: ActionReload}
	}

	if IsSignInPage(result.HTML) {
		return Decision{Kind: SessionExpired, Action: ActionNone, Manual: true}
	}

	if result.Reason == listing.ReasonMissingToken {
		return Decision{Kind: MissingAuthorizationToken, Action: ActionNone}
	}

	return Decision{Kind: RemoteRejected, Action: ActionNone}
}

// IsSignInPage reports whether body is the site's sign-in page, judged by
// its <title>.
func IsSignInPage(body string) bool {
	title, ok := documentTitle(body)
	if !ok {
		return false
	}
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(title)), signInTitlePrefix)
}

// documentTitle extracts the text of the first <title> element.
func documentTitle(body string) (string, bool) {
	if body == "" {
		return "", false
	}
	z := html.NewTokenizer(strings.NewReader(body))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return "", false
		case html.StartTagToken:
			name, _ := z.TagName()
			if string(name) != "title" {
				continue
			}
			if z.Next() == html.TextToken {
				return string(z.Text()), true
			}
			return "", true
		}
	}
}
