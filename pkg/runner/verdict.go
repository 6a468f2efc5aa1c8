package runner

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/umputun/livecheck/pkg/converge"
	"github.com/umputun/livecheck/pkg/normalize"
	"github.com/umputun/livecheck/pkg/ui"
)

// Outcome classifies a case verdict.
type Outcome string

// verdict outcomes.
const (
	OutcomePass     Outcome = "pass"
	OutcomeMismatch Outcome = "mismatch"
	OutcomeTimeout  Outcome = "timeout"
	OutcomeNotFound Outcome = "not-found"
	OutcomeUnstable Outcome = "unstable"
	OutcomeError    Outcome = "error"
)

// ErrAssertionMismatch is matched by errors.Is for any *MismatchError.
var ErrAssertionMismatch = errors.New("assertion mismatch")

// ErrUnstableOutput is returned when repeated runs of one case produce different outputs.
var ErrUnstableOutput = errors.New("unstable output")

// MismatchError carries both normalized values of a failed comparison.
type MismatchError struct {
	CaseID   string
	Stage    string // "final" or "partial"
	Policy   normalize.Policy
	Expected string
	Actual   string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("case %s: %s output mismatch (%s): expected %q, got %q",
		e.CaseID, e.Stage, e.Policy, e.Expected, e.Actual)
}

// Is makes errors.Is(err, ErrAssertionMismatch) true.
func (e *MismatchError) Is(target error) bool { return target == ErrAssertionMismatch }

// Verdict is the result of one case.
type Verdict struct {
	Suite         string           `json:"suite"`
	CaseID        string           `json:"case_id"`
	Name          string           `json:"name"`
	Policy        normalize.Policy `json:"policy"`
	Mode          ui.Mode          `json:"mode"`
	Input         string           `json:"input"`
	Outcome       Outcome          `json:"outcome"`
	State         State            `json:"state"`
	Expected      string           `json:"expected"` // normalized
	Actual        string           `json:"actual"`   // normalized
	Raw           string           `json:"raw"`      // raw stabilized output
	LastSeen      string           `json:"last_seen,omitempty"`
	PartialOutput string           `json:"partial_output,omitempty"`
	Diff          string           `json:"diff,omitempty"`
	Attempts      []string         `json:"attempts,omitempty"` // normalized output per repeat
	Elapsed       time.Duration    `json:"elapsed"`
	Latency       time.Duration    `json:"latency"` // time to the first candidate output
	Error         string           `json:"error,omitempty"`
	Err           error            `json:"-"`
}

// Passed reports whether the case passed.
func (v Verdict) Passed() bool { return v.Outcome == OutcomePass }

// SuiteResult collects verdicts of one suite in execution order.
type SuiteResult struct {
	Name     string           `json:"name"`
	Policy   normalize.Policy `json:"policy"`
	Mode     ui.Mode          `json:"mode"`
	Verdicts []Verdict        `json:"verdicts"`
	Passed   int              `json:"passed"`
	Failed   int              `json:"failed"`
}

func (s *SuiteResult) add(v Verdict) {
	s.Verdicts = append(s.Verdicts, v)
	if v.Passed() {
		s.Passed++
		return
	}
	s.Failed++
}

// Report is the outcome of a whole run.
type Report struct {
	RunID    string        `json:"run_id"`
	Target   string        `json:"target"`
	Started  time.Time     `json:"started"`
	Finished time.Time     `json:"finished"`
	Suites   []SuiteResult `json:"suites"`
}

// Totals returns passed and failed counts across suites.
func (r Report) Totals() (passed, failed int) {
	for _, s := range r.Suites {
		passed += s.Passed
		failed += s.Failed
	}
	return passed, failed
}

// Failed reports whether any case did not pass.
func (r Report) Failed() bool {
	_, failed := r.Totals()
	return failed > 0
}

// Failures returns every non-passing verdict in execution order.
func (r Report) Failures() []Verdict {
	var res []Verdict
	for _, s := range r.Suites {
		for _, v := range s.Verdicts {
			if !v.Passed() {
				res = append(res, v)
			}
		}
	}
	return res
}

func classify(err error) Outcome {
	switch {
	case errors.Is(err, ui.ErrElementNotFound):
		return OutcomeNotFound
	case errors.Is(err, converge.ErrConvergenceTimeout):
		return OutcomeTimeout
	case errors.Is(err, ErrAssertionMismatch):
		return OutcomeMismatch
	case errors.Is(err, ErrUnstableOutput):
		return OutcomeUnstable
	default:
		return OutcomeError
	}
}

// diffText renders a "-expected +actual" diff. collapse compares word by word,
// strip has no word boundaries left and compares whole strings.
func diffText(p normalize.Policy, expected, actual string) string {
	if p == normalize.Collapse {
		return cmp.Diff(strings.Fields(expected), strings.Fields(actual))
	}
	return cmp.Diff(expected, actual)
}
