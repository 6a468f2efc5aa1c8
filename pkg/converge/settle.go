package converge

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// SettlePolicy names a Settler implementation in config.
type SettlePolicy string

// settle policies.
const (
	SettleFixed   SettlePolicy = "fixed"
	SettleConfirm SettlePolicy = "confirm"
)

// Settler turns a first candidate into the final output.
// stable=false asks the detector to resume polling against the candidate.
type Settler interface {
	Settle(ctx context.Context, r Reader, candidate string) (text string, stable bool, err error)
}

// FixedSettle waits Delay, reads once more and accepts that read unconditionally.
// a widget still mid-debounce after Delay may yield a stale result.
type FixedSettle struct {
	Delay time.Duration
}

// Settle implements Settler.
func (s FixedSettle) Settle(ctx context.Context, r Reader, _ string) (string, bool, error) {
	if s.Delay > 0 {
		if err := sleep(ctx, s.Delay); err != nil {
			return "", false, err
		}
	}
	text, err := r.ReadOutput(ctx)
	if err != nil {
		return "", false, fmt.Errorf("read settled output: %w", err)
	}
	return text, true, nil
}

// ConfirmSettle waits Delay and accepts the candidate only if a re-read still shows it.
type ConfirmSettle struct {
	Delay time.Duration
}

// Settle implements Settler.
func (s ConfirmSettle) Settle(ctx context.Context, r Reader, candidate string) (string, bool, error) {
	if s.Delay > 0 {
		if err := sleep(ctx, s.Delay); err != nil {
			return "", false, err
		}
	}
	text, err := r.ReadOutput(ctx)
	if err != nil {
		return "", false, fmt.Errorf("read settled output: %w", err)
	}
	if strings.TrimSpace(text) != strings.TrimSpace(candidate) {
		return text, false, nil
	}
	return text, true, nil
}

// NewSettler builds the Settler for a policy name. empty name maps to SettleFixed.
func NewSettler(policy string, delay time.Duration) (Settler, error) {
	switch SettlePolicy(strings.ToLower(strings.TrimSpace(policy))) {
	case "", SettleFixed:
		return FixedSettle{Delay: delay}, nil
	case SettleConfirm:
		return ConfirmSettle{Delay: delay}, nil
	default:
		return nil, fmt.Errorf("unknown settle policy %q", policy)
	}
}
