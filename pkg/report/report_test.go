package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/livecheck/pkg/normalize"
	"github.com/umputun/livecheck/pkg/runner"
	"github.com/umputun/livecheck/pkg/ui"
)

func sampleReport() runner.Report {
	started := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	return runner.Report{
		RunID:    "5b0c9a2e-1111-4c1d-9d5e-2a1f0c3b4d5e",
		Target:   "https://www.swifttranslator.com/",
		Started:  started,
		Finished: started.Add(3*time.Minute + 10*time.Second),
		Suites: []runner.SuiteResult{
			{
				Name: "positive", Policy: normalize.Collapse, Mode: ui.ModeAtomic, Passed: 1, Failed: 1,
				Verdicts: []runner.Verdict{
					{Suite: "positive", CaseID: "Pos_Fun_001", Outcome: runner.OutcomePass,
						Latency: 420 * time.Millisecond, Elapsed: 4 * time.Second},
					{Suite: "positive", CaseID: "Pos_Fun_003", Name: "future plan", Input: "api heta yamu",
						Outcome: runner.OutcomeMismatch, Expected: "අපි හෙට යමු", Actual: "අපි හෙට yamu",
						Diff: "  []string{\n- \t\"යමු\",\n+ \t\"yamu\",\n  }\n", Error: "case Pos_Fun_003: final output mismatch"},
				},
			},
			{
				Name: "negative", Policy: normalize.Strip, Mode: ui.ModeAtomic, Failed: 1,
				Verdicts: []runner.Verdict{
					{Suite: "negative", CaseID: "Neg_Fun_001", Input: "mama", Outcome: runner.OutcomeTimeout,
						LastSeen: "මම", Error: "await output: convergence timeout"},
				},
			},
		},
	}
}

func TestMarkdown(t *testing.T) {
	md := Markdown(sampleReport())

	assert.Contains(t, md, "# livecheck report")
	assert.Contains(t, md, "- target: `https://www.swifttranslator.com/`")
	assert.Contains(t, md, "- duration: 3m10s")
	assert.Contains(t, md, "**1 passed**, **2 failed** of 3")
	assert.Contains(t, md, "## positive")
	assert.Contains(t, md, "policy `collapse`, mode `atomic`, 1 passed, 1 failed")
	assert.Contains(t, md, "| Pos_Fun_001 | pass | 420ms | 4s |")
	assert.Contains(t, md, "## failures")
	assert.Contains(t, md, "### positive/Pos_Fun_003: mismatch")
	assert.Contains(t, md, "- expected: `අපි හෙට යමු`")
	assert.Contains(t, md, "- actual: `අපි හෙට yamu`")
	assert.Contains(t, md, "```diff\n")
	assert.Contains(t, md, "### negative/Neg_Fun_001: timeout")
	assert.Contains(t, md, "- last seen: `මම`")
	assert.NotContains(t, md, "### positive/Pos_Fun_001")
}

func TestMarkdown_AllPassed(t *testing.T) {
	rep := runner.Report{RunID: "r", Suites: []runner.SuiteResult{{Name: "ui", Passed: 1,
		Verdicts: []runner.Verdict{{CaseID: "Pos_UI_001", Outcome: runner.OutcomePass}}}}}
	md := Markdown(rep)
	assert.NotContains(t, md, "## failures")
	assert.NotContains(t, md, "- duration:", "unfinished run has no duration")
}

func TestRender(t *testing.T) {
	content := "# Heading\n\nSome **bold** text."

	t.Run("with color enabled renders markdown", func(t *testing.T) {
		result, err := Render(content, false)
		require.NoError(t, err)
		assert.NotEqual(t, content, result)
		assert.Contains(t, result, "Heading")
		assert.Contains(t, result, "bold")
	})

	t.Run("with noColor returns plain content", func(t *testing.T) {
		result, err := Render(content, true)
		require.NoError(t, err)
		assert.Equal(t, content, result)
	})

	t.Run("renders report tables", func(t *testing.T) {
		result, err := Render(Markdown(sampleReport()), false)
		require.NoError(t, err)
		assert.Contains(t, result, "Pos_Fun_001")
		assert.Contains(t, result, "Neg_Fun_001")
	})
}

func TestWriteJSON(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	rep := sampleReport()

	path, err := WriteJSON(dir, rep)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "livecheck-20260314-100000.json"), path)

	data, err := os.ReadFile(path) //nolint:gosec // test path
	require.NoError(t, err)
	assert.Contains(t, string(data), `"run_id": "5b0c9a2e-1111-4c1d-9d5e-2a1f0c3b4d5e"`)
	assert.Contains(t, string(data), `"outcome": "mismatch"`)
	assert.NotContains(t, string(data), `"Err"`)

	got, err := ReadJSON(path)
	require.NoError(t, err)
	assert.Equal(t, rep.RunID, got.RunID)
	assert.True(t, rep.Started.Equal(got.Started))
	require.Len(t, got.Suites, 2)
	assert.Equal(t, rep.Suites[0].Verdicts[1].Diff, got.Suites[0].Verdicts[1].Diff)
	assert.Equal(t, 420*time.Millisecond, got.Suites[0].Verdicts[0].Latency)
}

func TestWriteJSON_BadDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))
	_, err := WriteJSON(filepath.Join(file, "sub"), sampleReport())
	require.ErrorContains(t, err, "create report dir")
}

func TestReadJSON_Errors(t *testing.T) {
	_, err := ReadJSON(filepath.Join(t.TempDir(), "missing.json"))
	require.ErrorContains(t, err, "read report")

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o600))
	_, err = ReadJSON(bad)
	require.ErrorContains(t, err, "unmarshal report")
}

func TestDuration(t *testing.T) {
	assert.Equal(t, "3 minutes", Duration(sampleReport()))
	assert.Empty(t, Duration(runner.Report{Started: time.Now()}))
	assert.False(t, strings.HasSuffix(Duration(sampleReport()), " "))
}
