// Package report renders run reports as markdown for the terminal and persists them as JSON.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/dustin/go-humanize"

	"github.com/umputun/livecheck/pkg/runner"
)

// Markdown builds the end of run summary: totals, a table per suite and details of every failure.
func Markdown(rep runner.Report) string {
	var b strings.Builder
	passed, failed := rep.Totals()

	b.WriteString("# livecheck report\n\n")
	fmt.Fprintf(&b, "- target: `%s`\n", rep.Target)
	fmt.Fprintf(&b, "- run: `%s`\n", rep.RunID)
	if !rep.Finished.IsZero() {
		fmt.Fprintf(&b, "- duration: %s\n", rep.Finished.Sub(rep.Started).Round(time.Second))
	}
	fmt.Fprintf(&b, "- cases: **%d passed**, **%d failed** of %d\n\n", passed, failed, passed+failed)

	for _, s := range rep.Suites {
		fmt.Fprintf(&b, "## %s\n\n", s.Name)
		fmt.Fprintf(&b, "policy `%s`, mode `%s`, %d passed, %d failed\n\n", s.Policy, s.Mode, s.Passed, s.Failed)
		b.WriteString("| case | outcome | converged | elapsed |\n|---|---|---|---|\n")
		for _, v := range s.Verdicts {
			fmt.Fprintf(&b, "| %s | %s | %v | %v |\n", v.CaseID, v.Outcome,
				v.Latency.Round(time.Millisecond), v.Elapsed.Round(time.Millisecond))
		}
		b.WriteString("\n")
	}

	failures := rep.Failures()
	if len(failures) == 0 {
		return b.String()
	}

	b.WriteString("## failures\n\n")
	for _, v := range failures {
		fmt.Fprintf(&b, "### %s/%s: %s\n\n", v.Suite, v.CaseID, v.Outcome)
		if v.Name != "" {
			fmt.Fprintf(&b, "%s\n\n", v.Name)
		}
		fmt.Fprintf(&b, "- input: `%s`\n", v.Input)
		if v.Expected != "" || v.Actual != "" {
			fmt.Fprintf(&b, "- expected: `%s`\n", v.Expected)
			fmt.Fprintf(&b, "- actual: `%s`\n", v.Actual)
		}
		if v.LastSeen != "" {
			fmt.Fprintf(&b, "- last seen: `%s`\n", v.LastSeen)
		}
		if v.Error != "" {
			fmt.Fprintf(&b, "- error: %s\n", v.Error)
		}
		if v.Diff != "" {
			fmt.Fprintf(&b, "\n```diff\n%s\n```\n", strings.TrimRight(v.Diff, "\n"))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Render renders markdown content for terminal display.
// If noColor is true, returns the content unchanged.
// Otherwise, uses glamour to render with auto-detected style and word wrap.
func Render(content string, noColor bool) (string, error) {
	if noColor {
		return content, nil
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return "", fmt.Errorf("create renderer: %w", err)
	}

	result, err := renderer.Render(content)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return result, nil
}

// WriteJSON stores the report as livecheck-<timestamp>.json in dir and returns the file path.
func WriteJSON(dir string, rep runner.Report) (string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}

	stamp := rep.Started
	if stamp.IsZero() {
		stamp = time.Now()
	}
	path := filepath.Join(dir, "livecheck-"+stamp.Format("20060102-150405")+".json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

// ReadJSON loads a report written by WriteJSON.
func ReadJSON(path string) (runner.Report, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from cli args
	if err != nil {
		return runner.Report{}, fmt.Errorf("read report: %w", err)
	}
	var rep runner.Report
	if err := json.Unmarshal(data, &rep); err != nil {
		return runner.Report{}, fmt.Errorf("unmarshal report %s: %w", path, err)
	}
	return rep, nil
}

// Duration formats the run duration for humans, e.g. "3 minutes".
func Duration(rep runner.Report) string {
	if rep.Finished.IsZero() {
		return ""
	}
	return strings.TrimSpace(humanize.RelTime(rep.Started, rep.Finished, "", ""))
}
