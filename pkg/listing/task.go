package listing

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/entrhq/relist/pkg/browser"
	"github.com/entrhq/relist/pkg/config"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// Synthetic error details reported without a remote response.
const (
	ErrorChallengeVisible = "Challenge visible"
	ErrorMissingToken     = "Missing token"
)

// Reason tells where a Result came from.
type Reason string

const (
	// ReasonResponse means the result carries the remote response.
	ReasonResponse Reason = "response"
	// ReasonChallenge means a challenge page was showing and nothing was sent.
	ReasonChallenge Reason = "challenge"
	// ReasonMissingToken means no authorization token was available and
	// nothing was sent.
	ReasonMissingToken Reason = "missing-token"
)

// Result is the outcome of one update attempt.
type Result struct {
	Success bool
	Status  int
	HTML    string
	Error   string
	Reason  Reason
}

// Attempt records one update cycle.
type Attempt struct {
	ID          string
	Cycle       int
	Description string
	StartedAt   time.Time
	Result      *Result
}

// PageProvider hands out the live page, or nil when there is none.
type PageProvider interface {
	Page() browser.Page
}

// probeScript reads what the update needs from the live page.
const probeScript = `() => {
  const input = document.querySelector('input[name="_token"]');
  return {
    title: document.title || '',
    token: (input && input.value) || '',
    html: document.body ? document.body.innerHTML : '',
  };
}`

// submitScript posts the encoded form from inside the page so the request
// carries the session's cookies and origin.
const submitScript = `async ({ url, body }) => {
  const res = await fetch(url, {
    method: 'POST',
    credentials: 'same-origin',
    headers: {
      'accept': 'text/html,application/xhtml+xml,application/xml;q=0.9',
      'content-type': 'application/x-www-form-urlencoded',
    },
    body,
  });
  return { success: res.ok, status: res.status, html: await res.text() };
}`

// Options configures an UpdateTask.
type Options struct {
	ListingURL    string
	Token         string
	TutorType     string
	HourlyRate    float64
	TutoringTypes config.TutoringTypes
}

// OptionsFromConfig extracts the task options from a resolved config.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		ListingURL:    cfg.ListingURL(),
		Token:         cfg.Token,
		TutorType:     cfg.TutorType,
		HourlyRate:    cfg.HourlyRate,
		TutoringTypes: cfg.TutoringTypes,
	}
}

// UpdateTask resubmits the listing with a slightly different description on
// every run.
type UpdateTask struct {
	mu        sync.Mutex
	pages     PageProvider
	detector  *browser.ChallengeDetector
	opts      Options
	describer *describer
	cycle     int
	now       func() time.Time
}

// NewUpdateTask creates an update task.
func NewUpdateTask(pages PageProvider, detector *browser.ChallengeDetector, source Source, opts Options) *UpdateTask {
	return &UpdateTask{
		pages:     pages,
		detector:  detector,
		opts:      opts,
		describer: &describer{source: source},
		now:       time.Now,
	}
}

// Cycle returns the number of the last cycle that ran.
func (t *UpdateTask) Cycle() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cycle
}

// Run performs one update cycle. It returns (nil, nil) without touching the
// counter when there is no usable page.
//
// Failures reported by the remote side, a visible challenge and a missing
// token come back as a Result. Errors are reserved for failures to run the
// cycle at all, such as a page that was destroyed mid-cycle; the returned
// Attempt is still populated so callers can log the cycle.
func (t *UpdateTask) Run(ctx context.Context) (*Attempt, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	page := t.pages.Page()
	if page == nil || page.IsClosed() {
		return nil, nil
	}

	t.cycle++
	attempt := &Attempt{
		ID:        uuid.New().String(),
		Cycle:     t.cycle,
		StartedAt: t.now(),
	}

	description, err := t.describer.next(t.cycle)
	if err != nil {
		return attempt, err
	}
	attempt.Description = description

	result, err := t.submit(ctx, page, description)
	if err != nil {
		return attempt, err
	}
	attempt.Result = result
	return attempt, nil
}

func (t *UpdateTask) submit(ctx context.Context, page browser.Page, description string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	probe, err := evaluate(page, probeScript, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect page: %w", err)
	}

	if t.detector.TitleMatches(probe.Get("title").String()) {
		return &Result{
			Success: false,
			Status:  403,
			HTML:    probe.Get("html").String(),
			Error:   ErrorChallengeVisible,
			Reason:  ReasonChallenge,
		}, nil
	}

	token := probe.Get("token").String()
	if token == "" {
		token = t.opts.Token
	}
	if token == "" {
		return &Result{
			Success: false,
			Status:  0,
			HTML:    probe.Get("html").String(),
			Error:   ErrorMissingToken,
			Reason:  ReasonMissingToken,
		}, nil
	}

	form := BuildUpdateForm(UpdateFields{
		Token:         token,
		TutorType:     t.opts.TutorType,
		HourlyRate:    t.opts.HourlyRate,
		Description:   description,
		TutoringTypes: t.opts.TutoringTypes,
	})

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res, err := evaluate(page, submitScript, map[string]interface{}{
		"url":  t.opts.ListingURL,
		"body": form.Encode(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to submit update: %w", err)
	}

	return &Result{
		Success: res.Get("success").Bool(),
		Status:  int(res.Get("status").Int()),
		HTML:    res.Get("html").String(),
		Reason:  ReasonResponse,
	}, nil
}

// evaluate runs script in the page and returns its result as JSON.
func evaluate(page browser.Page, script string, arg interface{}) (gjson.Result, error) {
	value, err := page.Evaluate(script, arg)
	if err != nil {
		return gjson.Result{}, err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("failed to decode evaluation result: %w", err)
	}
	return gjson.ParseBytes(raw), nil
}
