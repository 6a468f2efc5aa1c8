// Package web provides HTTP server and SSE streaming for a live run dashboard.
package web

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/tmaxmax/go-sse"

	"github.com/umputun/livecheck/pkg/progress"
	"github.com/umputun/livecheck/pkg/runner"
)

// EventType represents the type of event being streamed.
type EventType string

// event type constants for SSE streaming.
const (
	EventTypeOutput     EventType = "output"     // log line
	EventTypeWarn       EventType = "warn"       // warning message
	EventTypeError      EventType = "error"      // error message
	EventTypeTransition EventType = "transition" // case state change
	EventTypeVerdict    EventType = "verdict"    // finished case
	EventTypeReport     EventType = "report"     // end of run totals
)

// Event represents a single event to be streamed to web clients.
type Event struct {
	Type      EventType       `json:"type"`
	Phase     progress.Phase  `json:"phase,omitempty"`
	Text      string          `json:"text,omitempty"`
	Suite     string          `json:"suite,omitempty"`
	CaseID    string          `json:"case_id,omitempty"`
	From      runner.State    `json:"from,omitempty"`
	To        runner.State    `json:"to,omitempty"`
	Verdict   *runner.Verdict `json:"verdict,omitempty"`
	RunID     string          `json:"run_id,omitempty"`
	Passed    int             `json:"passed,omitempty"`
	Failed    int             `json:"failed,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewOutputEvent creates an output event with current timestamp.
func NewOutputEvent(phase progress.Phase, text string) Event {
	return Event{Type: EventTypeOutput, Phase: phase, Text: text, Timestamp: time.Now()}
}

// NewWarnEvent creates a warning event.
func NewWarnEvent(phase progress.Phase, text string) Event {
	return Event{Type: EventTypeWarn, Phase: phase, Text: text, Timestamp: time.Now()}
}

// NewErrorEvent creates an error event.
func NewErrorEvent(phase progress.Phase, text string) Event {
	return Event{Type: EventTypeError, Phase: phase, Text: text, Timestamp: time.Now()}
}

// NewTransitionEvent creates a case state change event.
func NewTransitionEvent(suite, caseID string, from, to runner.State) Event {
	return Event{Type: EventTypeTransition, Suite: suite, CaseID: caseID, From: from, To: to,
		Text: fmt.Sprintf("%s: %s -> %s", caseID, from, to), Timestamp: time.Now()}
}

// NewVerdictEvent creates a finished case event.
func NewVerdictEvent(v runner.Verdict) Event {
	phase := progress.PhasePass
	if !v.Passed() {
		phase = progress.PhaseFail
	}
	return Event{Type: EventTypeVerdict, Phase: phase, Suite: v.Suite, CaseID: v.CaseID, Verdict: &v,
		Text: fmt.Sprintf("%s %s", v.CaseID, v.Outcome), Timestamp: time.Now()}
}

// NewReportEvent creates the end of run event.
func NewReportEvent(rep runner.Report) Event {
	passed, failed := rep.Totals()
	return Event{Type: EventTypeReport, Phase: progress.PhaseSummary, RunID: rep.RunID, Passed: passed, Failed: failed,
		Text: fmt.Sprintf("%d passed, %d failed", passed, failed), Timestamp: time.Now()}
}

// JSON returns the event as JSON bytes for SSE streaming.
func (e Event) JSON() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return data, nil
}

// ToSSEMessage converts the event to a typeless SSE message, the type is in the JSON payload
// so that the browser onmessage handler catches every event.
func (e Event) ToSSEMessage() *sse.Message {
	msg := &sse.Message{}
	data, err := e.JSON()
	if err != nil {
		// event fields are plain values, fall back to the text only
		data = []byte(fmt.Sprintf(`{"type":%q,"text":%q}`, e.Type, e.Text))
	}
	msg.AppendData(string(data))
	return msg
}
