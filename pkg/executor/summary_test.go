package executor

import (
	"testing"
	"time"

	"github.com/entrhq/relist/pkg/recovery"
	"github.com/stretchr/testify/assert"
)

func TestRenderSummary(t *testing.T) {
	var s Stats
	start := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	s.StartTime = start
	s.EndTime = start.Add(90 * time.Second)
	s.record(recovery.Accepted)
	s.record(recovery.Accepted)
	s.record(recovery.ChallengeDetected)
	s.Reloads = 1
	s.Skipped = 4

	out := RenderSummary(s)

	assert.Equal(t, 3, s.Cycles)
	assert.Equal(t, 2, s.Accepted)
	assert.Equal(t, 1, s.Failed)
	assert.Contains(t, out, "Run summary")
	assert.Contains(t, out, "1m30s")
	assert.Contains(t, out, "challenge-detected: 1")
	assert.NotContains(t, out, "accepted:")
}

func TestRenderSummary_NoFailures(t *testing.T) {
	s := Stats{StartTime: time.Now(), EndTime: time.Now()}
	s.record(recovery.Accepted)

	out := RenderSummary(s)
	assert.NotContains(t, out, "Failures")
}

func TestBanner(t *testing.T) {
	out := Banner("v1.0.0", "42", 50, "15s")
	assert.Contains(t, out, "relist v1.0.0")
	assert.Contains(t, out, "42")
	assert.Contains(t, out, "$50/hr")
	assert.Contains(t, out, "15s")
}
