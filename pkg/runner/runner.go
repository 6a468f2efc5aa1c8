// Package runner executes scenario suites against a widget surface, one case at a time,
// and turns every case into a verdict.
package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/umputun/livecheck/pkg/catalog"
	"github.com/umputun/livecheck/pkg/converge"
	"github.com/umputun/livecheck/pkg/progress"
	"github.com/umputun/livecheck/pkg/ui"
)

// Config holds runner configuration.
type Config struct {
	Target             string        // reported only
	AfterClear         time.Duration // grace after clearing the input
	BetweenCases       time.Duration // pause after every case
	PollInterval       time.Duration // detector poll interval
	ConvergenceTimeout time.Duration // budget of the final convergence wait
	PartialTimeout     time.Duration // budget of the partial output wait in incremental cases
	Settle             converge.Settler
	Repeat             int  // runs per case, >1 enables the idempotence check
	ReloadEachCase     bool // re-open the target before every case, surface must implement Open
	Observers          []Observer
}

//go:generate moq -out mocks/logger.go -pkg mocks -skip-ensure -fmt goimports . Logger

// Logger provides logging functionality.
type Logger interface {
	SetPhase(phase progress.Phase)
	Print(format string, args ...any)
	PrintAligned(text string)
	Warn(format string, args ...any)
}

// opener is implemented by surfaces that can re-navigate to the target.
type opener interface {
	Open(ctx context.Context) error
}

// Runner drives cases strictly sequentially against one surface.
type Runner struct {
	cfg     Config
	surface ui.Surface
	log     Logger
}

// New creates a Runner. Repeat below 1 is treated as 1.
func New(cfg Config, surface ui.Surface, log Logger) *Runner {
	if cfg.Repeat < 1 {
		cfg.Repeat = 1
	}
	return &Runner{cfg: cfg, surface: surface, log: log}
}

// Run executes all suites in order. on context cancellation it returns the report
// collected so far together with the context error.
func (r *Runner) Run(ctx context.Context, cat *catalog.Catalog) (Report, error) {
	rep := Report{RunID: uuid.NewString(), Target: r.cfg.Target, Started: time.Now()}

	if r.cfg.ReloadEachCase {
		if _, ok := r.surface.(opener); !ok {
			r.log.Warn("reload_each_case is set but the surface can't be re-opened, ignoring")
		}
	}

	for _, s := range cat.Suites {
		res, err := r.RunSuite(ctx, s)
		rep.Suites = append(rep.Suites, res)
		if err != nil {
			rep.Finished = time.Now()
			return rep, err
		}
	}

	rep.Finished = time.Now()
	return rep, nil
}

// RunSuite executes the cases of one suite. case failures never abort the suite,
// only context cancellation does.
func (r *Runner) RunSuite(ctx context.Context, s catalog.Suite) (SuiteResult, error) {
	res := SuiteResult{Name: s.Name, Policy: s.Policy, Mode: s.Mode}
	r.log.SetPhase(progress.PhaseCase)
	r.log.Print("suite %s: %d cases, policy %s, mode %s", s.Name, len(s.Cases), s.Policy, s.Mode)

	for _, tc := range s.Cases {
		v, err := r.RunCase(ctx, s, tc)
		if err != nil {
			return res, fmt.Errorf("suite %s, case %s: %w", s.Name, tc.ID, err)
		}
		res.add(v)
		r.logVerdict(v)
		for _, o := range r.cfg.Observers {
			o.OnVerdict(v)
		}

		if err := sleep(ctx, r.cfg.BetweenCases); err != nil {
			return res, fmt.Errorf("suite %s: %w", s.Name, err)
		}
	}
	return res, nil
}

// RunCase executes one case Repeat times and builds its verdict.
// the returned error is set only when the context is done.
func (r *Runner) RunCase(ctx context.Context, s catalog.Suite, tc catalog.Case) (Verdict, error) {
	start := time.Now()
	v := Verdict{Suite: s.Name, CaseID: tc.ID, Name: tc.Name, Policy: s.Policy, Mode: s.Mode, Input: tc.Input}

	r.log.SetPhase(progress.PhaseCase)
	r.log.Print("case %s: %s", tc.ID, tc.Name)

	for i := range r.cfg.Repeat {
		a, err := r.attempt(ctx, s, tc, i > 0)
		if err != nil {
			return v, err
		}
		v.State, v.Raw, v.LastSeen, v.PartialOutput, v.Latency = a.state, a.raw, a.last, a.partial, a.latency
		if a.err != nil {
			v.Err = a.err
			break
		}

		actual := s.Policy.Apply(a.raw)
		v.Attempts = append(v.Attempts, actual)
		if i > 0 && actual != v.Attempts[0] {
			v.Expected, v.Actual = v.Attempts[0], actual
			v.Diff = diffText(s.Policy, v.Attempts[0], actual)
			v.Err = fmt.Errorf("%w: run %d of case %s differs from run 1", ErrUnstableOutput, i+1, tc.ID)
			break
		}
	}

	if v.Err == nil {
		ok, actual, expected := s.Policy.Compare(v.Raw, tc.Expected)
		v.Actual, v.Expected = actual, expected
		if !ok {
			v.Diff = diffText(s.Policy, expected, actual)
			v.Err = &MismatchError{CaseID: tc.ID, Stage: "final", Policy: s.Policy, Expected: expected, Actual: actual}
		}
	}

	v.Outcome = OutcomePass
	if v.Err != nil {
		v.Outcome = classify(v.Err)
		v.Error = v.Err.Error()
	}
	v.Elapsed = time.Since(start)
	return v, nil
}

// attemptResult is one pass of the case state machine.
type attemptResult struct {
	state   State
	raw     string // stabilized output
	last    string // last seen output on timeout
	partial string
	latency time.Duration
	err     error
}

// attempt runs one pass: clear, snapshot, inject, converge. surface failures end up in
// attemptResult.err, the returned error is set only when the context is done.
// the snapshot is read after the clear grace, so output left by the previous case or by an
// earlier repeat is excluded only if the widget still shows it with an empty input.
func (r *Runner) attempt(ctx context.Context, s catalog.Suite, tc catalog.Case, repeated bool) (attemptResult, error) {
	m := newMachine(s.Name, tc, r.cfg.Observers)
	var res attemptResult

	fail := func(err error) (attemptResult, error) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			m.to(StateAborted)
			return res, ctxErr
		}
		var te *converge.TimeoutError
		if errors.As(err, &te) {
			res.last = te.Last
			m.to(StateTimedOut)
		} else {
			m.to(StateAborted)
		}
		res.state, res.err = m.state, err
		return res, nil
	}

	o, canOpen := r.surface.(opener)
	if canOpen && (r.cfg.ReloadEachCase || repeated) {
		if err := o.Open(ctx); err != nil {
			return fail(fmt.Errorf("reload target: %w", err))
		}
	}

	if err := r.surface.ClearInput(ctx); err != nil {
		return fail(fmt.Errorf("clear input: %w", err))
	}
	m.to(StateCleared)
	if err := sleep(ctx, r.cfg.AfterClear); err != nil {
		return fail(err)
	}

	snapshot, err := r.surface.ReadOutput(ctx)
	if err != nil {
		return fail(fmt.Errorf("snapshot output: %w", err))
	}

	det := converge.New(r.surface, converge.Options{
		PollInterval: r.cfg.PollInterval,
		Timeout:      r.cfg.ConvergenceTimeout,
		Settle:       r.cfg.Settle,
	})

	baseline := snapshot
	if s.Mode == ui.ModeIncremental && tc.Partial != "" {
		if err := r.surface.SetInput(ctx, tc.Partial, ui.ModeIncremental); err != nil {
			return fail(fmt.Errorf("type partial input: %w", err))
		}
		m.to(StateInputInjected)
		m.to(StateAwaitingConvergence)

		pr, err := det.AwaitPartial(ctx, r.cfg.PartialTimeout)
		if err != nil {
			return fail(fmt.Errorf("partial output: %w", err))
		}
		res.partial = pr.Text

		if tc.ExpectedPartial != "" {
			got, want := s.Policy.Apply(pr.Text), s.Policy.Apply(tc.ExpectedPartial)
			if !strings.HasPrefix(got, want) {
				m.to(StateSettled)
				res.state, res.raw = m.state, pr.Text
				res.err = &MismatchError{CaseID: tc.ID, Stage: "partial", Policy: s.Policy, Expected: want, Actual: got}
				return res, nil
			}
		}

		if err := r.surface.SetInput(ctx, tc.Remainder(), ui.ModeIncremental); err != nil {
			return fail(fmt.Errorf("type remainder: %w", err))
		}
		m.to(StateInputInjected)
		baseline = pr.Text
	} else {
		if err := r.surface.SetInput(ctx, tc.Input, s.Mode); err != nil {
			return fail(fmt.Errorf("set input: %w", err))
		}
		m.to(StateInputInjected)
	}

	m.to(StateAwaitingConvergence)
	cr, err := det.Await(ctx, baseline)
	if err != nil {
		return fail(fmt.Errorf("await output: %w", err))
	}
	m.to(StateSettled)
	res.state, res.raw, res.latency = m.state, cr.Text, cr.Latency

	if m.err != nil {
		res.err = m.err
	}
	return res, nil
}

func (r *Runner) logVerdict(v Verdict) {
	if v.Passed() {
		r.log.SetPhase(progress.PhasePass)
		r.log.Print("PASS %s (%v, converged in %v)", v.CaseID, v.Elapsed.Round(time.Millisecond),
			v.Latency.Round(time.Millisecond))
		return
	}

	r.log.SetPhase(progress.PhaseFail)
	r.log.Print("FAIL %s [%s] %s", v.CaseID, v.Outcome, v.Error)
	if v.Diff != "" {
		r.log.PrintAligned(v.Diff)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
