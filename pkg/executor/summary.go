package executor

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/entrhq/relist/pkg/recovery"
)

// Stats counts what happened over a run.
type Stats struct {
	StartTime time.Time
	EndTime   time.Time

	Cycles   int
	Accepted int
	Failed   int
	Reloads  int
	Restarts int
	Skipped  int64

	// Kinds counts every classified outcome, accepted ones included
	Kinds map[recovery.Kind]int
}

// Duration returns how long the run lasted.
func (s Stats) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return time.Since(s.StartTime)
	}
	return s.EndTime.Sub(s.StartTime)
}

// record counts one classified cycle.
func (s *Stats) record(kind recovery.Kind) {
	if s.Kinds == nil {
		s.Kinds = make(map[recovery.Kind]int)
	}
	s.Cycles++
	s.Kinds[kind]++
	if kind == recovery.Accepted {
		s.Accepted++
	} else {
		s.Failed++
	}
}

// RenderSummary renders the shutdown summary box.
func RenderSummary(s Stats) string {
	accepted := goodStyle.Render(fmt.Sprintf("%d", s.Accepted))
	failed := fmt.Sprintf("%d", s.Failed)
	if s.Failed > 0 {
		failed = badStyle.Render(failed)
	}

	lines := []string{
		headerStyle.Render("Run summary"),
		"",
		row("Duration", s.Duration().Round(time.Second).String()),
		row("Cycles", fmt.Sprintf("%d", s.Cycles)),
		lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render("Accepted"), accepted),
		lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render("Failed"), failed),
		row("Reloads", fmt.Sprintf("%d", s.Reloads)),
		row("Restarts", fmt.Sprintf("%d", s.Restarts)),
		row("Skipped", fmt.Sprintf("%d", s.Skipped)),
	}

	if breakdown := failureBreakdown(s.Kinds); breakdown != "" {
		lines = append(lines, "", labelStyle.Render("Failures"), breakdown)
	}

	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// failureBreakdown lists non-accepted kinds with their counts, sorted by name.
func failureBreakdown(kinds map[recovery.Kind]int) string {
	names := make([]string, 0, len(kinds))
	for k := range kinds {
		if k != recovery.Accepted {
			names = append(names, string(k))
		}
	}
	sort.Strings(names)

	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "  %s: %d", name, kinds[recovery.Kind(name)])
	}
	return b.String()
}
