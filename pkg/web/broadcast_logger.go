package web

import (
	"fmt"
	"log"

	"github.com/umputun/livecheck/pkg/progress"
)

//go:generate moq -out mocks/logger.go -pkg mocks -skip-ensure -fmt goimports . Logger

// Logger is the console logger wrapped by BroadcastLogger.
type Logger interface {
	SetPhase(phase progress.Phase)
	Print(format string, args ...any)
	PrintAligned(text string)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// publisher accepts events for streaming.
type publisher interface {
	Publish(e Event) error
}

// BroadcastLogger wraps a Logger and broadcasts every line to SSE clients.
// all calls are forwarded to the inner logger first.
//
// not goroutine-safe, all methods must be called from the runner goroutine.
type BroadcastLogger struct {
	inner Logger
	pub   publisher
	phase progress.Phase
}

// NewBroadcastLogger creates a logger that wraps inner and publishes to pub.
func NewBroadcastLogger(inner Logger, pub publisher) *BroadcastLogger {
	return &BroadcastLogger{inner: inner, pub: pub, phase: progress.PhaseSetup}
}

// SetPhase sets the current phase for color coding.
func (b *BroadcastLogger) SetPhase(phase progress.Phase) {
	b.phase = phase
	b.inner.SetPhase(phase)
}

// Print writes a timestamped message and broadcasts it.
func (b *BroadcastLogger) Print(format string, args ...any) {
	b.inner.Print(format, args...)
	b.broadcast(NewOutputEvent(b.phase, formatText(format, args...)))
}

// PrintAligned writes multi-line text and broadcasts it as one event.
func (b *BroadcastLogger) PrintAligned(text string) {
	b.inner.PrintAligned(text)
	b.broadcast(NewOutputEvent(b.phase, text))
}

// Warn writes a warning and broadcasts it.
func (b *BroadcastLogger) Warn(format string, args ...any) {
	b.inner.Warn(format, args...)
	b.broadcast(NewWarnEvent(b.phase, formatText(format, args...)))
}

// Error writes an error and broadcasts it.
func (b *BroadcastLogger) Error(format string, args ...any) {
	b.inner.Error(format, args...)
	b.broadcast(NewErrorEvent(b.phase, formatText(format, args...)))
}

// broadcast publishes an event, errors are logged but not propagated since logging is the primary operation.
func (b *BroadcastLogger) broadcast(e Event) {
	if err := b.pub.Publish(e); err != nil {
		log.Printf("[WARN] failed to broadcast event: %v", err)
	}
}

// formatText formats a string with args, like fmt.Sprintf.
func formatText(format string, args ...any) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
