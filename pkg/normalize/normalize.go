// Package normalize provides the text normalization policies used to compare widget output with expected text.
package normalize

import (
	"fmt"
	"strings"
	"unicode"
)

// Policy selects how raw output is mapped to its canonical form before comparison.
type Policy string

// supported policies.
const (
	Collapse Policy = "collapse" // whitespace runs become a single space, ends trimmed
	Strip    Policy = "strip"    // all whitespace removed
)

// ParsePolicy converts a config or catalog value into a Policy.
// empty value maps to Collapse.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", Collapse:
		return Collapse, nil
	case Strip:
		return Strip, nil
	default:
		return "", fmt.Errorf("unknown normalization policy %q", s)
	}
}

// Apply maps raw text to the canonical form of the policy.
// case is preserved, embedded latin tokens are compared verbatim.
func (p Policy) Apply(text string) string {
	switch p {
	case Strip:
		return strings.Map(func(r rune) rune {
			if unicode.IsSpace(r) {
				return -1
			}
			return r
		}, text)
	default:
		return strings.Join(strings.Fields(text), " ")
	}
}

// Compare normalizes both values and reports strict equality along with the normalized forms.
func (p Policy) Compare(actual, expected string) (ok bool, normActual, normExpected string) {
	normActual, normExpected = p.Apply(actual), p.Apply(expected)
	return normActual == normExpected, normActual, normExpected
}

// String returns the policy name.
func (p Policy) String() string { return string(p) }
