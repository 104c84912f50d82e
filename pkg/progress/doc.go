// Package progress renders task progress for the steptree engine. Every renderer
// implements Reporter: TerminalReporter draws spinner lines with nested indentation,
// LogReporter emits zap entries for headless runs, NopReporter discards updates, and
// SummaryReporter decorates any of them with outcome counting.
package progress
