// Package ui abstracts the widget under test as a narrow input/output surface.
// concrete backends (playwright, chromedp) satisfy the same contract so the convergence
// detector and scenario runner never depend on a particular automation tool.
package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Mode selects how text is injected into the input surface.
type Mode string

// input modes.
const (
	ModeAtomic      Mode = "atomic"      // full string replaces the input in one mutation
	ModeIncremental Mode = "incremental" // characters are typed one at a time, appended at the cursor
)

// ParseMode converts a config or catalog value into a Mode. empty value maps to ModeAtomic.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeAtomic:
		return ModeAtomic, nil
	case ModeIncremental:
		return ModeIncremental, nil
	default:
		return "", fmt.Errorf("unknown input mode %q", s)
	}
}

// Surface is the capability set the harness needs from the widget.
type Surface interface {
	ClearInput(ctx context.Context) error
	SetInput(ctx context.Context, text string, mode Mode) error
	ReadOutput(ctx context.Context) (string, error)
}

// Session is a Surface bound to a browser page that can be opened and released.
type Session interface {
	Surface
	Open(ctx context.Context) error
	Close() error
}

// ErrElementNotFound is matched by errors.Is for any surface discovery failure.
var ErrElementNotFound = errors.New("element not found")

// ElementNotFoundError reports which surface could not be located and with what locator.
type ElementNotFoundError struct {
	Surface string // "input" or "output"
	Locator string
	Timeout time.Duration
	Err     error
}

func (e *ElementNotFoundError) Error() string {
	msg := fmt.Sprintf("%s surface %q not found within %v", e.Surface, e.Locator, e.Timeout)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is makes errors.Is(err, ErrElementNotFound) true.
func (e *ElementNotFoundError) Is(target error) bool { return target == ErrElementNotFound }

// Unwrap returns the backend error.
func (e *ElementNotFoundError) Unwrap() error { return e.Err }

// Target holds the external configuration of the widget under test.
// the harness treats these values as opaque and does not validate or discover them.
type Target struct {
	URL              string
	InputSelector    string // css selector, takes precedence over role/name
	InputRole        string // aria role of the input, e.g. "textbox"
	InputName        string // accessible name of the input
	OutputSelector   string // css selector; the first non-editable match is the output
	Browser          string // playwright browser: chromium, firefox, webkit
	Headless         bool
	PageLoad         time.Duration // grace after navigation
	DiscoveryTimeout time.Duration // bounded wait for locating a surface
	TypingDelay      time.Duration // delay between keystrokes in incremental mode
}

// inputLocator returns a human-readable locator description for diagnostics.
func (t Target) inputLocator() string {
	if t.InputSelector != "" {
		return t.InputSelector
	}
	return fmt.Sprintf("role=%s[name=%q]", t.InputRole, t.InputName)
}

// inputCSS returns a css selector for backends without role-based queries.
// without an explicit selector it approximates the accessible name by aria-label and placeholder.
func (t Target) inputCSS() string {
	if t.InputSelector != "" {
		return t.InputSelector
	}
	name := strings.ReplaceAll(t.InputName, `"`, `\"`)
	parts := []string{
		fmt.Sprintf(`textarea[placeholder="%s"]`, name),
		fmt.Sprintf(`input[placeholder="%s"]`, name),
		fmt.Sprintf(`[aria-label="%s"]`, name),
	}
	if t.InputRole != "" {
		parts = append(parts, fmt.Sprintf(`[role=%q][aria-label="%s"]`, t.InputRole, name))
	}
	return strings.Join(parts, ", ")
}

// outputScript returns the text of the first element matching the selector that is not an input surface.
// an element counts as input when it is editable or exposes the textbox role. returns null if none match.
const outputScript = `(sel) => {
	const isInput = (el) => el.tagName === 'TEXTAREA' || el.tagName === 'INPUT' ||
		el.isContentEditable || el.getAttribute('role') === 'textbox';
	const out = Array.from(document.querySelectorAll(sel)).find((el) => !isInput(el));
	if (!out) return null;
	return out.textContent || '';
}`

// fillScript sets the value of the first element matching the selector through the native setter
// and dispatches an input event, so framework-controlled inputs observe the change.
const fillScript = `(sel, value) => {
	const el = document.querySelector(sel);
	if (!el) return false;
	el.focus();
	const proto = Object.getPrototypeOf(el);
	const desc = Object.getOwnPropertyDescriptor(proto, 'value');
	if (desc && desc.set) { desc.set.call(el, value); } else { el.value = value; }
	el.dispatchEvent(new Event('input', { bubbles: true }));
	el.dispatchEvent(new Event('change', { bubbles: true }));
	return true;
}`
