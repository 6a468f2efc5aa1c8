//go:build e2e

package e2e

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/livecheck/pkg/catalog"
	"github.com/umputun/livecheck/pkg/converge"
	"github.com/umputun/livecheck/pkg/normalize"
	"github.com/umputun/livecheck/pkg/progress"
	"github.com/umputun/livecheck/pkg/runner"
	"github.com/umputun/livecheck/pkg/ui"
)

// requireChrome skips the test when no chrome binary chromedp can start is on PATH.
func requireChrome(t *testing.T) {
	t.Helper()
	for _, name := range []string{"headless-shell", "chromium", "chromium-browser", "google-chrome", "google-chrome-stable"} {
		if _, err := exec.LookPath(name); err == nil {
			return
		}
	}
	t.Skip("chrome is not installed")
}

func chromeTarget(path string) ui.Target {
	return ui.Target{
		URL:              widget.URL + path,
		InputSelector:    "textarea",
		OutputSelector:   "div.output",
		Headless:         true,
		PageLoad:         200 * time.Millisecond,
		DiscoveryTimeout: 2 * time.Second,
		TypingDelay:      50 * time.Millisecond,
	}
}

func newChrome(t *testing.T, target ui.Target) *ui.Chrome {
	t.Helper()
	requireChrome(t)
	c := ui.NewChrome(context.Background(), target)
	t.Cleanup(func() { _ = c.Close() })
	require.NoError(t, c.Open(context.Background()))
	return c
}

func TestChrome_Surface(t *testing.T) {
	c := newChrome(t, chromeTarget("/"))
	ctx := context.Background()

	out, err := c.ReadOutput(ctx)
	require.NoError(t, err)
	assert.Empty(t, out, "empty output element reads as empty text")

	require.NoError(t, c.SetInput(ctx, "api heta", ui.ModeAtomic))
	require.Eventually(t, func() bool {
		out, err := c.ReadOutput(ctx)
		return err == nil && out == "අපි හෙට"
	}, pollTimeout, pollInterval)

	require.NoError(t, c.ClearInput(ctx))
	require.Eventually(t, func() bool {
		out, err := c.ReadOutput(ctx)
		return err == nil && out == ""
	}, pollTimeout, pollInterval)

	require.NoError(t, c.SetInput(ctx, "api passe", ui.ModeIncremental))
	require.Eventually(t, func() bool {
		out, err := c.ReadOutput(ctx)
		return err == nil && out == "අපි පස්සේ"
	}, pollTimeout, pollInterval)
}

func TestChrome_ElementNotFound(t *testing.T) {
	t.Run("input", func(t *testing.T) {
		target := chromeTarget("/")
		target.InputSelector = "textarea.missing"
		target.DiscoveryTimeout = 300 * time.Millisecond
		c := newChrome(t, target)

		err := c.SetInput(context.Background(), "api", ui.ModeAtomic)
		var nf *ui.ElementNotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, "input", nf.Surface)
		assert.Equal(t, "textarea.missing", nf.Locator)
	})

	t.Run("output", func(t *testing.T) {
		target := chromeTarget("/")
		target.OutputSelector = "div.missing"
		target.DiscoveryTimeout = 300 * time.Millisecond
		c := newChrome(t, target)

		start := time.Now()
		_, err := c.ReadOutput(context.Background())
		require.ErrorIs(t, err, ui.ErrElementNotFound)
		assert.Less(t, time.Since(start), 5*time.Second, "bounded by the discovery timeout")
	})
}

func TestChrome_RunnerScenario(t *testing.T) {
	c := newChrome(t, chromeTarget("/"))
	log, err := progress.NewLogger(progress.Config{NoFile: true, NoColor: true})
	require.NoError(t, err)

	r := runner.New(runner.Config{
		Target:             widget.URL + "/",
		AfterClear:         2 * debounce,
		BetweenCases:       100 * time.Millisecond,
		PollInterval:       100 * time.Millisecond,
		ConvergenceTimeout: 3 * time.Second,
		PartialTimeout:     3 * time.Second,
		Settle:             converge.FixedSettle{Delay: 2 * debounce},
		Repeat:             1,
	}, c, log)

	cat := &catalog.Catalog{Suites: []catalog.Suite{
		{Name: "positive", Policy: normalize.Collapse, Mode: ui.ModeAtomic, Cases: []catalog.Case{
			{ID: "Pos_E2E_001", Name: "meet tomorrow", Input: "api heta hamuvemu", Expected: "අපි හෙට හමුවෙමු"},
			{ID: "Pos_E2E_002", Name: "same output again", Input: "api  heta hamuvemu", Expected: "අපි හෙට හමුවෙමු"},
		}},
		{Name: "ui", Policy: normalize.Collapse, Mode: ui.ModeIncremental, Cases: []catalog.Case{{
			ID: "Pos_UI_E2E", Name: "updates while typing", Input: "api passe kathaa karamu",
			Partial: "api passe", ExpectedPartial: "අපි පස්සේ", Expected: "අපි පස්සේ කතා කරමු",
		}}},
	}}

	rep, err := r.Run(context.Background(), cat)
	require.NoError(t, err)
	for _, s := range rep.Suites {
		for _, v := range s.Verdicts {
			assert.Equal(t, runner.OutcomePass, v.Outcome, "%s: %s", v.CaseID, v.Error)
		}
	}
	passed, failed := rep.Totals()
	assert.Equal(t, 3, passed)
	assert.Zero(t, failed)
}
