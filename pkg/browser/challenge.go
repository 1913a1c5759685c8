package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gobwas/glob"
)

// ChallengeDetector recognises anti-bot interstitials.
type ChallengeDetector struct {
	titles  []glob.Glob
	markers []string
}

// NewChallengeDetector compiles the title glob patterns. Body markers are
// plain substrings.
func NewChallengeDetector(titlePatterns, bodyMarkers []string) (*ChallengeDetector, error) {
	d := &ChallengeDetector{}
	for _, pattern := range titlePatterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid challenge title pattern %q: %w", pattern, err)
		}
		d.titles = append(d.titles, g)
	}
	for _, marker := range bodyMarkers {
		if marker != "" {
			d.markers = append(d.markers, marker)
		}
	}
	return d, nil
}

// TitleMatches reports whether a page title belongs to a challenge page.
func (d *ChallengeDetector) TitleMatches(title string) bool {
	for _, g := range d.titles {
		if g.Match(title) {
			return true
		}
	}
	return false
}

// BodyMatches reports whether a response body carries a challenge marker.
func (d *ChallengeDetector) BodyMatches(body string) bool {
	for _, marker := range d.markers {
		if strings.Contains(body, marker) {
			return true
		}
	}
	return false
}

// Visible reads the page title and reports whether a challenge is showing.
func (d *ChallengeDetector) Visible(page Page) (bool, error) {
	title, err := page.Title()
	if err != nil {
		return false, err
	}
	return d.TitleMatches(title), nil
}

// WaitClear polls the page title every poll interval until the challenge is
// gone or budget runs out. It returns true when the page is clear. A page
// that never showed a challenge returns true immediately.
func (d *ChallengeDetector) WaitClear(ctx context.Context, page Page, budget, poll time.Duration) (bool, error) {
	visible, err := d.Visible(page)
	if err != nil || !visible {
		return !visible, err
	}
	if budget <= 0 {
		return false, nil
	}
	if poll <= 0 || poll > budget {
		poll = budget
	}

	deadline := time.NewTimer(budget)
	defer deadline.Stop()
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-deadline.C:
			visible, err = d.Visible(page)
			return !visible, err
		case <-ticker.C:
			visible, err = d.Visible(page)
			if err != nil {
				return false, err
			}
			if !visible {
				return true, nil
			}
		}
	}
}
