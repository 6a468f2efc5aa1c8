// Package converge decides when a debounced widget's output has stopped changing.
// a detector polls the output until it differs from a baseline snapshot, then hands the
// candidate to a settle policy that produces the final text.
package converge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// MinPollInterval is the lower bound applied to the configured poll interval.
const MinPollInterval = 10 * time.Millisecond

// ErrConvergenceTimeout is matched by errors.Is for any *TimeoutError.
var ErrConvergenceTimeout = errors.New("convergence timeout")

// TimeoutError is returned when no candidate output appeared within the budget.
type TimeoutError struct {
	Budget   time.Duration
	Previous string // baseline the output had to differ from
	Last     string // last raw output seen before giving up
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("output did not converge within %v (baseline %q, last seen %q)", e.Budget, e.Previous, e.Last)
}

// Is makes errors.Is(err, ErrConvergenceTimeout) true.
func (e *TimeoutError) Is(target error) bool { return target == ErrConvergenceTimeout }

// Reader is the read side of the widget.
type Reader interface {
	ReadOutput(ctx context.Context) (string, error)
}

// Options configures a Detector.
type Options struct {
	PollInterval time.Duration
	Timeout      time.Duration // budget of the poll phase
	Settle       Settler       // nil means FixedSettle with zero delay
}

// Detector observes a Reader until its output converges.
type Detector struct {
	reader Reader
	opts   Options
}

// New makes a Detector, clamping the poll interval to MinPollInterval.
func New(r Reader, opts Options) *Detector {
	if opts.PollInterval < MinPollInterval {
		opts.PollInterval = MinPollInterval
	}
	if opts.Settle == nil {
		opts.Settle = FixedSettle{}
	}
	return &Detector{reader: r, opts: opts}
}

// Result is the outcome of a successful wait.
type Result struct {
	Text    string        // stabilized raw output
	Latency time.Duration // time from the start of the wait to the first candidate
	Polls   int
}

// Await waits until the output is a candidate relative to previous, then runs the settle policy.
// the returned text is the raw output produced by the settle phase.
// when confirm-style settling rejects a candidate, polling resumes under the same budget,
// and output that keeps changing past the budget ends with a *TimeoutError.
func (d *Detector) Await(ctx context.Context, previous string) (Result, error) {
	start := time.Now()
	deadline := start.Add(d.opts.Timeout)
	baseline := previous
	polls := 0
	for {
		res, err := d.poll(ctx, baseline, previous, start, d.opts.Timeout)
		res.Polls += polls
		if err != nil {
			return res, err
		}

		text, stable, err := d.opts.Settle.Settle(ctx, d.reader, res.Text)
		if err != nil {
			return res, err
		}
		if stable {
			res.Text = text
			return res, nil
		}
		if !time.Now().Before(deadline) {
			return Result{Text: text, Polls: res.Polls},
				&TimeoutError{Budget: d.opts.Timeout, Previous: previous, Last: text}
		}
		// still changing, resume polling against the candidate we just saw
		baseline = res.Text
		polls = res.Polls
	}
}

// AwaitPartial waits for any non-empty output within timeout. it skips the settle phase and is
// used to assert that intermediate output appeared while typing.
func (d *Detector) AwaitPartial(ctx context.Context, timeout time.Duration) (Result, error) {
	return d.poll(ctx, "", "", time.Now(), timeout)
}

// poll reads the output until a candidate appears or the budget runs out.
// the timeout fires on the first check at or after the budget, never earlier.
func (d *Detector) poll(ctx context.Context, baseline, previous string, start time.Time, budget time.Duration) (Result, error) {
	deadline := start.Add(budget)

	var last string
	polls := 0
	for {
		text, err := d.reader.ReadOutput(ctx)
		polls++
		if err != nil {
			return Result{Text: last, Polls: polls}, fmt.Errorf("read output: %w", err)
		}
		last = text

		if IsCandidate(text, baseline) {
			return Result{Text: text, Latency: time.Since(start), Polls: polls}, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return Result{Text: last, Polls: polls}, &TimeoutError{Budget: budget, Previous: previous, Last: last}
		}

		if err := sleep(ctx, min(d.opts.PollInterval, remaining)); err != nil {
			return Result{Text: last, Polls: polls}, err
		}
	}
}

// IsCandidate reports whether output counts as a new result against the baseline.
// whitespace-only output never counts; an empty baseline accepts any non-empty output.
func IsCandidate(output, baseline string) bool {
	out := strings.TrimSpace(output)
	if out == "" {
		return false
	}
	base := strings.TrimSpace(baseline)
	return base == "" || out != base
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
