// Package progress provides timestamped logging to file and stdout with color support.
package progress

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"golang.org/x/term"
)

// Phase represents the run stage for color coding.
type Phase string

// Phase constants for run stages.
const (
	PhaseSetup   Phase = "setup"   // browser and catalog setup
	PhaseCase    Phase = "case"    // case in flight
	PhasePass    Phase = "pass"    // passing verdict
	PhaseFail    Phase = "fail"    // failing verdict
	PhaseSummary Phase = "summary" // end of run report
)

// FileName is the progress log created in the report directory.
const FileName = "progress-livecheck.txt"

// Colors holds "r,g,b" values per phase, as produced by config. empty values keep the defaults.
type Colors struct {
	Setup     string
	Case      string
	Pass      string
	Fail      string
	Summary   string
	Warn      string
	Error     string
	Timestamp string
}

// Logger writes timestamped output to both file and stdout.
type Logger struct {
	file        *os.File
	stdout      io.Writer
	startTime   time.Time
	phase       Phase
	phaseColors map[Phase]*color.Color
	warnColor   *color.Color
	errorColor  *color.Color
	tsColor     *color.Color
}

// Config holds logger configuration.
type Config struct {
	Dir     string // directory for the progress file, empty for current dir
	Target  string // url of the widget under test
	Catalog string // catalog source, file name or "embedded"
	Backend string // browser backend
	NoColor bool   // disable color output (sets color.NoColor globally)
	Colors  Colors
	NoFile  bool      // log to stdout only
	Stdout  io.Writer // defaults to os.Stdout
}

// NewLogger creates a logger writing to both a progress file and stdout.
func NewLogger(cfg Config) (*Logger, error) {
	// set global color setting
	if cfg.NoColor {
		color.NoColor = true
	}

	l := &Logger{
		stdout:    cfg.Stdout,
		startTime: time.Now(),
		phase:     PhaseSetup,
		phaseColors: map[Phase]*color.Color{
			PhaseSetup:   pickColor(cfg.Colors.Setup, color.FgWhite),
			PhaseCase:    pickColor(cfg.Colors.Case, color.FgCyan),
			PhasePass:    pickColor(cfg.Colors.Pass, color.FgGreen),
			PhaseFail:    pickColor(cfg.Colors.Fail, color.FgRed),
			PhaseSummary: pickColor(cfg.Colors.Summary, color.FgMagenta),
		},
		warnColor:  pickColor(cfg.Colors.Warn, color.FgYellow),
		errorColor: pickColor(cfg.Colors.Error, color.FgRed),
		tsColor:    pickColor(cfg.Colors.Timestamp, color.FgWhite),
	}
	if l.stdout == nil {
		l.stdout = os.Stdout
	}
	if cfg.NoFile {
		return l, nil
	}

	progressPath := FileName
	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
			return nil, fmt.Errorf("create progress dir: %w", err)
		}
		progressPath = filepath.Join(cfg.Dir, FileName)
	}

	f, err := os.Create(progressPath) //nolint:gosec // path derived from report dir
	if err != nil {
		return nil, fmt.Errorf("create progress file: %w", err)
	}
	l.file = f

	catalogStr := cfg.Catalog
	if catalogStr == "" {
		catalogStr = "embedded"
	}
	l.writeFile("# Livecheck Progress Log\n")
	l.writeFile("Target: %s\n", cfg.Target)
	l.writeFile("Catalog: %s\n", catalogStr)
	l.writeFile("Backend: %s\n", cfg.Backend)
	l.writeFile("Started: %s\n", time.Now().Format("2006-01-02 15:04:05"))
	l.writeFile("%s\n\n", strings.Repeat("-", 60))

	return l, nil
}

// Path returns the progress file path.
func (l *Logger) Path() string {
	if l.file == nil {
		return ""
	}
	return l.file.Name()
}

// SetPhase sets the current phase for color coding.
func (l *Logger) SetPhase(phase Phase) {
	l.phase = phase
}

// timestampFormat is the format for timestamps: YY-MM-DD HH:MM:SS
const timestampFormat = "06-01-02 15:04:05"

// Print writes a timestamped message to both file and stdout.
func (l *Logger) Print(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	timestamp := time.Now().Format(timestampFormat)

	// write to file without color
	l.writeFile("[%s] %s\n", timestamp, msg)

	tsStr := l.tsColor.Sprintf("[%s]", timestamp)
	l.writeStdout("%s %s\n", tsStr, l.color().Sprint(msg))
}

// getTerminalWidth returns terminal width, using COLUMNS env var or syscall.
// Defaults to 80 if detection fails. Returns content width (total - 20 for timestamp).
func getTerminalWidth() int {
	const minWidth = 40

	// try COLUMNS env var first
	if cols := os.Getenv("COLUMNS"); cols != "" {
		if w, err := strconv.Atoi(cols); err == nil && w > 0 {
			return max(w-20, minWidth)
		}
	}

	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return max(w-20, minWidth)
	}

	return 80 - 20 // default 80 columns minus timestamp
}

// wrapText wraps text to specified width, breaking on word boundaries.
// width is counted in runes, sinhala text is multi-byte.
func wrapText(text string, width int) string {
	if width <= 0 || len([]rune(text)) <= width {
		return text
	}

	var result strings.Builder
	lineLen := 0
	for i, word := range strings.Fields(text) {
		wordLen := len([]rune(word))
		switch {
		case i == 0:
			lineLen = wordLen
		case lineLen+1+wordLen <= width:
			result.WriteString(" ")
			lineLen += 1 + wordLen
		default:
			result.WriteString("\n")
			lineLen = wordLen
		}
		result.WriteString(word)
	}

	return result.String()
}

// PrintAligned writes text with timestamp, handling multi-line content properly.
// the first line gets the timestamp, continuation lines are indented under it.
func (l *Logger) PrintAligned(text string) {
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return
	}

	timestamp := time.Now().Format(timestampFormat)
	tsPrefix := l.tsColor.Sprintf("[%s]", timestamp)
	indent := strings.Repeat(" ", 20) // aligns with "[YY-MM-DD HH:MM:SS] "
	width := getTerminalWidth()

	var lines []string
	for line := range strings.SplitSeq(text, "\n") {
		if len([]rune(line)) > width {
			lines = append(lines, strings.Split(wrapText(line, width), "\n")...)
			continue
		}
		lines = append(lines, line)
	}

	for i, line := range lines {
		if line == "" {
			l.writeFile("\n")
			l.writeStdout("\n")
			continue
		}
		if i == 0 {
			l.writeFile("[%s] %s\n", timestamp, line)
			l.writeStdout("%s %s\n", tsPrefix, l.color().Sprint(line))
			continue
		}
		l.writeFile("%s%s\n", indent, line)
		l.writeStdout("%s%s\n", indent, l.color().Sprint(line))
	}
}

// Error writes an error message in red.
func (l *Logger) Error(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	timestamp := time.Now().Format(timestampFormat)

	l.writeFile("[%s] ERROR: %s\n", timestamp, msg)
	l.writeStdout("%s %s\n", l.tsColor.Sprintf("[%s]", timestamp), l.errorColor.Sprintf("ERROR: %s", msg))
}

// Warn writes a warning message in yellow.
func (l *Logger) Warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	timestamp := time.Now().Format(timestampFormat)

	l.writeFile("[%s] WARN: %s\n", timestamp, msg)
	l.writeStdout("%s %s\n", l.tsColor.Sprintf("[%s]", timestamp), l.warnColor.Sprintf("WARN: %s", msg))
}

// Elapsed returns formatted elapsed time since start.
func (l *Logger) Elapsed() string {
	return humanize.RelTime(l.startTime, time.Now(), "", "")
}

// Close writes footer and closes the progress file.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}

	l.writeFile("\n%s\n", strings.Repeat("-", 60))
	l.writeFile("Completed: %s (%s)\n", time.Now().Format("2006-01-02 15:04:05"), l.Elapsed())

	if err := l.file.Close(); err != nil {
		return fmt.Errorf("close progress file: %w", err)
	}
	return nil
}

func (l *Logger) color() *color.Color {
	if c, ok := l.phaseColors[l.phase]; ok {
		return c
	}
	return l.phaseColors[PhaseSetup]
}

func (l *Logger) writeFile(format string, args ...any) {
	if l.file != nil {
		fmt.Fprintf(l.file, format, args...)
	}
}

func (l *Logger) writeStdout(format string, args ...any) {
	fmt.Fprintf(l.stdout, format, args...)
}

// pickColor returns an rgb color for "r,g,b" values, or the fallback attribute if rgb is empty or malformed.
func pickColor(rgb string, fallback color.Attribute) *color.Color {
	parts := strings.Split(rgb, ",")
	if len(parts) != 3 {
		return color.New(fallback)
	}
	var vals [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || v < 0 || v > 255 {
			return color.New(fallback)
		}
		vals[i] = v
	}
	return color.RGB(vals[0], vals[1], vals[2])
}
