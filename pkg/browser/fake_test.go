package browser

import (
	"context"
	"errors"
	"sync"
	"time"
)

// fakePage is a scripted Page. Titles are consumed one per Title call; the
// last one sticks.
type fakePage struct {
	mu       sync.Mutex
	titles   []string
	url      string
	closed   bool
	gotoErr  error
	reloads  int
	visited  []string
	titleErr error
}

func (p *fakePage) Goto(url string, timeout time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.gotoErr != nil {
		return p.gotoErr
	}
	p.visited = append(p.visited, url)
	p.url = url
	return nil
}

func (p *fakePage) Reload(timeout time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrSessionDestroyed
	}
	p.reloads++
	return nil
}

func (p *fakePage) Title() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.titleErr != nil {
		return "", p.titleErr
	}
	if len(p.titles) == 0 {
		return "Edit listing", nil
	}
	title := p.titles[0]
	if len(p.titles) > 1 {
		p.titles = p.titles[1:]
	}
	return title, nil
}

func (p *fakePage) Evaluate(script string, arg interface{}) (interface{}, error) {
	return nil, errors.New("not scripted")
}

func (p *fakePage) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *fakePage) IsClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

type fakeHandle struct {
	launcher *fakeLauncher
	page     *fakePage
	cookies  []Cookie
	closed   bool
}

func (h *fakeHandle) AddCookies(cookies []Cookie) error {
	if len(h.page.visited) > 0 {
		return errors.New("cookies added after navigation")
	}
	h.cookies = append(h.cookies, cookies...)
	return nil
}

func (h *fakeHandle) Page() Page {
	return h.page
}

func (h *fakeHandle) Close() error {
	h.launcher.mu.Lock()
	defer h.launcher.mu.Unlock()
	if !h.closed {
		h.closed = true
		h.launcher.open--
	}
	h.page.mu.Lock()
	h.page.closed = true
	h.page.mu.Unlock()
	return nil
}

// fakeLauncher hands out fakeHandles and counts how many are open.
type fakeLauncher struct {
	mu        sync.Mutex
	open      int
	launches  int
	handles   []*fakeHandle
	newPage   func() *fakePage
	launchErr error
	stopped   bool
}

func (l *fakeLauncher) Launch(ctx context.Context, opts LaunchOptions) (Handle, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.launchErr != nil {
		return nil, l.launchErr
	}
	page := &fakePage{}
	if l.newPage != nil {
		page = l.newPage()
	}
	h := &fakeHandle{launcher: l, page: page}
	l.handles = append(l.handles, h)
	l.open++
	l.launches++
	return h, nil
}

func (l *fakeLauncher) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopped = true
	return nil
}

func (l *fakeLauncher) openCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.open
}
