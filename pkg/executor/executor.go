// Package executor drives the keep-alive loop: it owns the browser session,
// fires the update task on a schedule and applies the recovery policy's
// decisions between cycles.
package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/entrhq/relist/pkg/browser"
	"github.com/entrhq/relist/pkg/listing"
	"github.com/entrhq/relist/pkg/logging"
	"github.com/entrhq/relist/pkg/recovery"
	"github.com/entrhq/relist/pkg/scheduler"
)

// Sessions is the part of the session manager the executor drives.
type Sessions interface {
	Init(ctx context.Context) error
	Restart(ctx context.Context) error
	Reload(ctx context.Context) error
	Live() bool
	Close() error
}

// Task runs one update cycle.
type Task interface {
	Run(ctx context.Context) (*listing.Attempt, error)
}

// Options configures an Executor.
type Options struct {
	Interval  time.Duration
	ListingID string
}

// Executor runs update cycles against a single browser session until its
// context is cancelled.
type Executor struct {
	sessions Sessions
	task     Task
	policy   *recovery.Policy
	log      *logging.Logger
	opts     Options

	mu    sync.Mutex
	stats Stats
}

// New creates an executor.
func New(sessions Sessions, task Task, policy *recovery.Policy, log *logging.Logger, opts Options) (*Executor, error) {
	if opts.Interval <= 0 {
		return nil, fmt.Errorf("update interval must be positive, got %s", opts.Interval)
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Executor{
		sessions: sessions,
		task:     task,
		policy:   policy,
		log:      log,
		opts:     opts,
	}, nil
}

// Run starts the session and runs cycles until ctx is cancelled. Only a
// failure to start the first session is returned; everything after that is
// logged and retried on the next tick. The browser is closed before Run
// returns.
func (e *Executor) Run(ctx context.Context) error {
	e.mu.Lock()
	e.stats = Stats{StartTime: time.Now()}
	e.mu.Unlock()

	if err := e.sessions.Init(ctx); err != nil {
		e.closeSessions()
		return fmt.Errorf("failed to start browser session: %w", err)
	}

	e.log.Infof("Starting update loop every %s", e.opts.Interval)

	sched := scheduler.New(e.opts.Interval, e.cycle)
	sched.OnSkip = func(skipped int64) {
		e.log.Debugf("Previous cycle still running, skipping tick (%d skipped so far)", skipped)
	}
	sched.Run(ctx)

	e.mu.Lock()
	e.stats.Skipped = sched.Skipped()
	e.stats.EndTime = time.Now()
	summary := e.stats
	e.mu.Unlock()

	e.log.Infof("Shutting down after %d cycles", summary.Cycles)
	e.log.Print(RenderSummary(summary))

	e.closeSessions()
	return nil
}

// Stats returns a snapshot of the run counters.
func (e *Executor) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	snapshot := e.stats
	snapshot.Kinds = make(map[recovery.Kind]int, len(e.stats.Kinds))
	for k, v := range e.stats.Kinds {
		snapshot.Kinds[k] = v
	}
	return snapshot
}

// cycle runs one scheduled update and applies the resulting decision.
func (e *Executor) cycle(ctx context.Context) {
	if !e.sessions.Live() {
		e.log.Warnf("No live browser session")
		if !e.restart(ctx) {
			return
		}
	}

	attempt, err := e.task.Run(ctx)
	if attempt == nil && err == nil {
		e.log.Debugf("No page available, skipping cycle")
		return
	}
	if err != nil && ctx.Err() != nil {
		e.log.Debugf("Cycle interrupted by shutdown: %v", err)
		return
	}

	var result *listing.Result
	if attempt != nil {
		result = attempt.Result
	}
	decision := e.policy.Decide(result, err)

	e.mu.Lock()
	e.stats.record(decision.Kind)
	e.mu.Unlock()

	e.report(attempt, decision, err)
	e.apply(ctx, decision)
}

// report logs the outcome of a cycle at the severity of its kind.
func (e *Executor) report(attempt *listing.Attempt, decision recovery.Decision, err error) {
	prefix := "[cycle ?]"
	if attempt != nil {
		prefix = fmt.Sprintf("[cycle %d %s]", attempt.Cycle, shortID(attempt.ID))
	}

	msg := decision.Kind.Message()
	switch {
	case err != nil:
		msg = fmt.Sprintf("%s: %v", msg, err)
	case attempt != nil && attempt.Result != nil:
		res := attempt.Result
		if decision.Kind == recovery.Accepted {
			msg = fmt.Sprintf("%s (listing %s, status %d)", msg, e.opts.ListingID, res.Status)
		} else if res.Error != "" {
			msg = fmt.Sprintf("%s (status %d: %s)", msg, res.Status, res.Error)
		} else {
			msg = fmt.Sprintf("%s (status %d)", msg, res.Status)
		}
	}

	switch decision.Kind.Severity() {
	case recovery.SeverityInfo:
		e.log.Infof("%s %s", prefix, msg)
	case recovery.SeverityWarn:
		e.log.Warnf("%s %s", prefix, msg)
	default:
		e.log.Errorf("%s %s", prefix, msg)
	}

	if attempt != nil {
		e.log.Debugf("%s description %q", prefix, attempt.Description)
	}
}

// apply carries out the decision's session action.
func (e *Executor) apply(ctx context.Context, decision recovery.Decision) {
	switch decision.Action {
	case recovery.ActionReload:
		e.mu.Lock()
		e.stats.Reloads++
		e.mu.Unlock()

		err := e.sessions.Reload(ctx)
		switch {
		case err == nil:
		case errors.Is(err, browser.ErrSessionDestroyed), errors.Is(err, browser.ErrNoSession):
			e.log.Warnf("Reload found no usable session: %v", err)
			e.restart(ctx)
		case errors.Is(err, browser.ErrChallengeUnresolved):
			e.log.Warnf("Challenge still showing after reload, will try again next cycle")
		default:
			e.log.Warnf("Reload failed: %v", err)
		}
	case recovery.ActionRestart:
		e.restart(ctx)
	}
}

// restart rebuilds the session and reports whether it is usable.
func (e *Executor) restart(ctx context.Context) bool {
	e.mu.Lock()
	e.stats.Restarts++
	e.mu.Unlock()

	if err := e.sessions.Restart(ctx); err != nil {
		if ctx.Err() == nil {
			e.log.Errorf("Failed to restart browser session, will retry next cycle: %v", err)
		}
		return false
	}
	return true
}

func (e *Executor) closeSessions() {
	if err := e.sessions.Close(); err != nil {
		e.log.Warnf("Failed to close browser: %v", err)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
