package browser

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, launcher *fakeLauncher) *SessionManager {
	t.Helper()
	detector, err := NewChallengeDetector([]string{"*Cloudflare*"}, []string{"Cloudflare"})
	require.NoError(t, err)

	return NewSessionManager(launcher, detector, ManagerOptions{
		Cookies:       ParseCookieHeader("a=1; b=2", ".example.test"),
		StartURL:      "https://example.test/listings/1/edit",
		ChallengeWait: 50 * time.Millisecond,
		ChallengePoll: 5 * time.Millisecond,
	}, nil)
}

func TestSessionManager_Init(t *testing.T) {
	launcher := &fakeLauncher{}
	m := newTestManager(t, launcher)

	require.NoError(t, m.Init(context.Background()))

	assert.True(t, m.Live())
	assert.Equal(t, 1, launcher.openCount())
	assert.Equal(t, 1, m.Generation())

	h := launcher.handles[0]
	assert.Len(t, h.cookies, 2)
	assert.Equal(t, []string{"https://example.test/listings/1/edit"}, h.page.visited)

	session := m.Current()
	require.NotNil(t, session)
	assert.NotEmpty(t, session.ID)
	assert.Same(t, h.page, m.Page())
}

func TestSessionManager_InitReplacesExistingSession(t *testing.T) {
	launcher := &fakeLauncher{}
	m := newTestManager(t, launcher)

	require.NoError(t, m.Init(context.Background()))
	first := m.Current()
	require.NoError(t, m.Init(context.Background()))

	assert.Equal(t, 1, launcher.openCount(), "never two live sessions")
	assert.NotEqual(t, first.ID, m.Current().ID)
	assert.True(t, launcher.handles[0].closed)
}

func TestSessionManager_RestartAfterDestroyed(t *testing.T) {
	launcher := &fakeLauncher{}
	m := newTestManager(t, launcher)
	require.NoError(t, m.Init(context.Background()))

	// Simulate the page being closed underneath the manager
	launcher.handles[0].page.closed = true
	assert.False(t, m.Live())

	require.NoError(t, m.Restart(context.Background()))

	assert.Equal(t, 1, launcher.openCount(), "exactly one session after restart")
	assert.Equal(t, 2, launcher.launches)
	assert.Equal(t, 2, m.Generation())
	assert.True(t, m.Live())
	assert.Len(t, launcher.handles[1].cookies, 2, "cookies re-injected")
}

func TestSessionManager_InitFailures(t *testing.T) {
	t.Run("launch error", func(t *testing.T) {
		launcher := &fakeLauncher{launchErr: errors.New("no chromium")}
		m := newTestManager(t, launcher)

		err := m.Init(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to launch browser")
		assert.Nil(t, m.Page())
	})

	t.Run("navigation error closes the handle", func(t *testing.T) {
		launcher := &fakeLauncher{newPage: func() *fakePage {
			return &fakePage{gotoErr: errors.New("timeout")}
		}}
		m := newTestManager(t, launcher)

		err := m.Init(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to navigate")
		assert.Equal(t, 0, launcher.openCount())
		assert.False(t, m.Live())
	})

	t.Run("cancelled context", func(t *testing.T) {
		launcher := &fakeLauncher{}
		m := newTestManager(t, launcher)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.ErrorIs(t, m.Init(ctx), context.Canceled)
		assert.Equal(t, 0, launcher.launches)
	})
}

func TestSessionManager_InitChallenge(t *testing.T) {
	t.Run("challenge clears", func(t *testing.T) {
		launcher := &fakeLauncher{newPage: func() *fakePage {
			return &fakePage{titles: []string{"Just a moment... Cloudflare", "Just a moment... Cloudflare", "Edit listing"}}
		}}
		m := newTestManager(t, launcher)

		require.NoError(t, m.Init(context.Background()))
		assert.True(t, m.Live())
	})

	t.Run("challenge persists but session stays live", func(t *testing.T) {
		launcher := &fakeLauncher{newPage: func() *fakePage {
			return &fakePage{titles: []string{"Attention Required! | Cloudflare"}}
		}}
		m := newTestManager(t, launcher)

		require.NoError(t, m.Init(context.Background()))
		assert.True(t, m.Live())
		assert.Equal(t, 1, launcher.openCount())
	})
}

func TestSessionManager_Reload(t *testing.T) {
	t.Run("no session", func(t *testing.T) {
		m := newTestManager(t, &fakeLauncher{})
		assert.ErrorIs(t, m.Reload(context.Background()), ErrNoSession)
	})

	t.Run("reloads in place", func(t *testing.T) {
		launcher := &fakeLauncher{}
		m := newTestManager(t, launcher)
		require.NoError(t, m.Init(context.Background()))

		require.NoError(t, m.Reload(context.Background()))
		assert.Equal(t, 1, launcher.handles[0].page.reloads)
		assert.Equal(t, 1, launcher.launches, "reload must not relaunch")
		assert.Len(t, launcher.handles[0].cookies, 2, "reload must not touch cookies")
	})

	t.Run("persistent challenge is reported", func(t *testing.T) {
		launcher := &fakeLauncher{}
		m := newTestManager(t, launcher)
		require.NoError(t, m.Init(context.Background()))

		launcher.handles[0].page.titles = []string{"Cloudflare"}
		assert.ErrorIs(t, m.Reload(context.Background()), ErrChallengeUnresolved)
	})

	t.Run("closed page", func(t *testing.T) {
		launcher := &fakeLauncher{}
		m := newTestManager(t, launcher)
		require.NoError(t, m.Init(context.Background()))

		launcher.handles[0].page.closed = true
		assert.ErrorIs(t, m.Reload(context.Background()), ErrSessionDestroyed)
	})
}

func TestSessionManager_Close(t *testing.T) {
	launcher := &fakeLauncher{}
	m := newTestManager(t, launcher)
	require.NoError(t, m.Init(context.Background()))

	require.NoError(t, m.Close())
	assert.Equal(t, 0, launcher.openCount())
	assert.True(t, launcher.stopped)
	assert.Nil(t, m.Page())
}
