package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/entrhq/relist/pkg/logging"
	"github.com/google/uuid"
)

// ManagerOptions configures a SessionManager.
type ManagerOptions struct {
	Launch LaunchOptions

	// Cookies are injected into every new session before navigation
	Cookies []Cookie

	// StartURL is where every new session navigates to
	StartURL string

	NavigationTimeout time.Duration
	ChallengeWait     time.Duration
	ChallengePoll     time.Duration
}

// SessionManager owns at most one live browser session.
type SessionManager struct {
	mu         sync.Mutex
	launcher   Launcher
	detector   *ChallengeDetector
	opts       ManagerOptions
	log        *logging.Logger
	session    *Session
	generation int
}

// NewSessionManager creates a session manager. No browser is started until
// Init is called.
func NewSessionManager(launcher Launcher, detector *ChallengeDetector, opts ManagerOptions, log *logging.Logger) *SessionManager {
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = DefaultNavigationTimeout
	}
	if opts.ChallengeWait <= 0 {
		opts.ChallengeWait = DefaultChallengeWait
	}
	if opts.ChallengePoll <= 0 {
		opts.ChallengePoll = DefaultChallengePoll
	}
	if log == nil {
		log = logging.Discard()
	}
	return &SessionManager{
		launcher: launcher,
		detector: detector,
		opts:     opts,
		log:      log,
	}
}

// Init builds a new session: launch, cookie injection, navigation to the
// start URL and a bounded wait for any challenge to clear. A session that
// already exists is closed first.
//
// A challenge that outlasts the wait budget is logged but not returned as an
// error; the session stays live on whatever page the challenge left it on.
func (m *SessionManager) Init(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.initLocked(ctx)
}

// Restart discards the current session entirely and builds a new one.
func (m *SessionManager) Restart(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.log.Warnf("Restarting browser session from scratch")
	return m.initLocked(ctx)
}

func (m *SessionManager) initLocked(ctx context.Context) error {
	m.closeLocked()

	if err := ctx.Err(); err != nil {
		return err
	}

	m.log.Infof("Starting headless browser...")
	handle, err := m.launcher.Launch(ctx, m.opts.Launch)
	if err != nil {
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	if len(m.opts.Cookies) > 0 {
		if err := handle.AddCookies(m.opts.Cookies); err != nil {
			_ = handle.Close()
			return fmt.Errorf("failed to inject cookies: %w", err)
		}
	}
	m.log.Verbosef("Injected %d cookies", len(m.opts.Cookies))

	m.log.Infof("Session established. Navigating to %s", m.opts.StartURL)
	page := handle.Page()
	if err := page.Goto(m.opts.StartURL, m.opts.NavigationTimeout); err != nil {
		_ = handle.Close()
		return fmt.Errorf("failed to navigate to %s: %w", m.opts.StartURL, err)
	}

	m.generation++
	m.session = &Session{
		ID:         uuid.New().String(),
		Generation: m.generation,
		Handle:     handle,
		CreatedAt:  time.Now(),
	}

	if err := m.awaitChallenge(ctx, page); err != nil {
		if errors.Is(err, ErrChallengeUnresolved) {
			m.log.Warnf("%v; continuing on %s", err, page.URL())
			return nil
		}
		m.closeLocked()
		return err
	}

	m.log.Verbosef("Session %s ready (generation %d)", m.session.ID, m.session.Generation)
	return nil
}

// Reload reloads the current page in place without touching cookies and
// waits for any challenge to clear. It returns ErrChallengeUnresolved when
// the challenge outlasts the wait budget.
func (m *SessionManager) Reload(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return ErrNoSession
	}

	page := m.session.Page()
	if page.IsClosed() {
		return ErrSessionDestroyed
	}
	if err := page.Reload(m.opts.NavigationTimeout); err != nil {
		return fmt.Errorf("failed to reload page: %w", err)
	}
	return m.awaitChallenge(ctx, page)
}

// awaitChallenge waits for a visible challenge to clear within the budget.
func (m *SessionManager) awaitChallenge(ctx context.Context, page Page) error {
	visible, err := m.detector.Visible(page)
	if err != nil {
		return fmt.Errorf("failed to read page title: %w", err)
	}
	if !visible {
		return nil
	}

	m.log.Warnf("Hit an anti-bot challenge. Waiting up to %s for it to clear...", m.opts.ChallengeWait)
	cleared, err := m.detector.WaitClear(ctx, page, m.opts.ChallengeWait, m.opts.ChallengePoll)
	if err != nil {
		return fmt.Errorf("failed while waiting for challenge: %w", err)
	}
	if !cleared {
		return fmt.Errorf("%w after %s", ErrChallengeUnresolved, m.opts.ChallengeWait)
	}
	m.log.Infof("Challenge cleared")
	return nil
}

// Page returns the live page, or nil when there is no usable session.
func (m *SessionManager) Page() Page {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return nil
	}
	return m.session.Page()
}

// Current returns the live session, or nil.
func (m *SessionManager) Current() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// Live reports whether a session with an open page exists.
func (m *SessionManager) Live() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session != nil && !m.session.Page().IsClosed()
}

// Generation returns how many sessions have been built so far.
func (m *SessionManager) Generation() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generation
}

// closeLocked releases the current session, ignoring close errors from
// resources that are already gone.
func (m *SessionManager) closeLocked() {
	if m.session == nil {
		return
	}
	if err := m.session.Handle.Close(); err != nil {
		m.log.Debugf("Ignoring error while closing session %s: %v", m.session.ID, err)
	}
	m.session = nil
}

// Close closes the live session and stops the launcher.
func (m *SessionManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closeLocked()
	if err := m.launcher.Stop(); err != nil {
		return fmt.Errorf("failed to stop browser driver: %w", err)
	}
	return nil
}
