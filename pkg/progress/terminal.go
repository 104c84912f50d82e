package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/mattn/go-isatty"
)

const (
	defaultIndentWidthConstant = 2
	clearLineSequenceConstant  = "\r\x1b[K"
)

// DefaultSpinner is the glyph sequence and frame rate used when no spinner is configured.
var DefaultSpinner = spinner.MiniDot

// TerminalOption customises TerminalReporter behaviour.
type TerminalOption func(*terminalDisplay)

// WithAnimation forces the spinner animation on or off regardless of terminal detection.
func WithAnimation(enabled bool) TerminalOption {
	return func(display *terminalDisplay) {
		display.animate = enabled
	}
}

// WithFrameInterval overrides the delay between spinner frames.
func WithFrameInterval(interval time.Duration) TerminalOption {
	return func(display *terminalDisplay) {
		if interval > 0 {
			display.spinner.FPS = interval
		}
	}
}

// WithIndentWidth overrides the number of spaces each nesting level is indented by.
func WithIndentWidth(width int) TerminalOption {
	return func(display *terminalDisplay) {
		if width >= 0 {
			display.indentWidth = width
		}
	}
}

// WithSpinner replaces the spinner, for example with spinner.Line or spinner.Dot. A spinner
// without frames is ignored; a non-positive FPS keeps the current interval.
func WithSpinner(selected spinner.Spinner) TerminalOption {
	return func(display *terminalDisplay) {
		if len(selected.Frames) == 0 {
			return
		}
		interval := display.spinner.FPS
		if selected.FPS > 0 {
			interval = selected.FPS
		}
		display.spinner = spinner.Spinner{Frames: append([]string(nil), selected.Frames...), FPS: interval}
	}
}

// terminalDisplay is the single output resource shared by every nesting level.
type terminalDisplay struct {
	writer      io.Writer
	animate     bool
	spinner     spinner.Spinner
	indentWidth int
	styles      terminalStyles

	mutex       sync.Mutex
	stopChannel chan struct{}
	doneChannel chan struct{}
}

// TerminalReporter renders steps as spinner lines, one scope per nesting level.
//
// When the writer is not a terminal the spinner is not animated and only the final
// state of each step is printed.
type TerminalReporter struct {
	display   *terminalDisplay
	parent    *TerminalReporter
	depth     int
	label     string
	active    bool
	suspended bool
}

// NewTerminalReporter constructs the top-level TerminalReporter scope writing to writer.
func NewTerminalReporter(writer io.Writer, options ...TerminalOption) *TerminalReporter {
	if writer == nil {
		writer = os.Stderr
	}

	display := &terminalDisplay{
		writer:      writer,
		animate:     isTerminalWriter(writer),
		spinner:     DefaultSpinner,
		indentWidth: defaultIndentWidthConstant,
		styles:      newTerminalStyles(writer),
	}
	for _, option := range options {
		option(display)
	}

	return &TerminalReporter{display: display}
}

// Begin starts the spinner line for a new step.
func (reporter *TerminalReporter) Begin(label string) {
	if reporter.parent != nil {
		reporter.parent.suspend()
	}
	reporter.label = label
	reporter.active = true
	reporter.suspended = false
	reporter.display.startAnimation(reporter)
}

// Skipped clears the step line; skipped steps leave no trace on the terminal.
func (reporter *TerminalReporter) Skipped() {
	if !reporter.active {
		return
	}
	reporter.display.stopAnimation()
	reporter.display.flashLine(reporter.depth, reporter.label+reporter.display.styles.skippedSuffix.Render(skippedSuffixTextConstant))
	reporter.active = false
}

// Done persists the step line with a success marker.
func (reporter *TerminalReporter) Done() {
	if !reporter.active {
		return
	}
	reporter.display.stopAnimation()
	styles := reporter.display.styles
	content := fmt.Sprintf("%s %s%s", styles.successSymbol.Render(successSymbolConstant), reporter.label, styles.doneSuffix.Render(doneSuffixTextConstant))
	reporter.display.writeLine(reporter.depth, content)
	reporter.active = false
}

// Failed persists the step line with a failure marker and the error message.
func (reporter *TerminalReporter) Failed(message string) {
	if !reporter.active {
		return
	}
	reporter.display.stopAnimation()
	parts := []string{reporter.display.styles.failureSymbol.Render(failureSymbolConstant)}
	if trimmedLabel := strings.TrimSpace(reporter.label); len(trimmedLabel) > 0 {
		parts = append(parts, reporter.label)
	}
	if trimmedMessage := strings.TrimSpace(message); len(trimmedMessage) > 0 {
		parts = append(parts, reporter.display.styles.failureText.Render(trimmedMessage))
	}
	reporter.display.writeLine(reporter.depth, strings.Join(parts, " "))
	reporter.active = false
}

// Finalize stops any animation for the current step and clears an unresolved line.
func (reporter *TerminalReporter) Finalize() {
	reporter.display.stopAnimation()
	if reporter.active {
		reporter.display.clearLine()
	}
	reporter.active = false
	reporter.suspended = false
	reporter.label = ""
}

// Nested returns an indented scope for the children of the current step.
func (reporter *TerminalReporter) Nested() Reporter {
	return &TerminalReporter{
		display: reporter.display,
		parent:  reporter,
		depth:   reporter.depth + 1,
	}
}

// Close terminates the nested block with a blank line.
func (reporter *TerminalReporter) Close() {
	reporter.display.stopAnimation()
	reporter.display.writeLine(0, "")
}

// suspend persists the in-progress line so nested output renders beneath it.
func (reporter *TerminalReporter) suspend() {
	if !reporter.active || reporter.suspended {
		return
	}
	reporter.display.stopAnimation()
	content := fmt.Sprintf("%s %s", reporter.display.styles.suspended.Render(suspendedSymbolConstant), reporter.label)
	reporter.display.writeLine(reporter.depth, content)
	reporter.suspended = true
}

func (display *terminalDisplay) startAnimation(line *TerminalReporter) {
	display.stopAnimation()
	if !display.animate || len(display.spinner.Frames) == 0 {
		return
	}

	prefix := display.indentation(line.depth)
	label := line.label

	stopChannel := make(chan struct{})
	doneChannel := make(chan struct{})

	display.mutex.Lock()
	display.renderFrameLocked(prefix, label, 0)
	display.stopChannel = stopChannel
	display.doneChannel = doneChannel
	display.mutex.Unlock()

	go display.spin(prefix, label, stopChannel, doneChannel)
}

func (display *terminalDisplay) spin(prefix string, label string, stopChannel <-chan struct{}, doneChannel chan<- struct{}) {
	defer close(doneChannel)

	ticker := time.NewTicker(display.spinner.FPS)
	defer ticker.Stop()

	frameIndex := 0
	for {
		select {
		case <-stopChannel:
			return
		case <-ticker.C:
			frameIndex = (frameIndex + 1) % len(display.spinner.Frames)
			display.mutex.Lock()
			display.renderFrameLocked(prefix, label, frameIndex)
			display.mutex.Unlock()
		}
	}
}

func (display *terminalDisplay) stopAnimation() {
	display.mutex.Lock()
	stopChannel := display.stopChannel
	doneChannel := display.doneChannel
	display.stopChannel = nil
	display.doneChannel = nil
	display.mutex.Unlock()

	if stopChannel == nil {
		return
	}
	close(stopChannel)
	<-doneChannel
}

func (display *terminalDisplay) renderFrameLocked(prefix string, label string, frameIndex int) {
	frame := display.styles.spinnerFrame.Render(display.spinner.Frames[frameIndex])
	fmt.Fprintf(display.writer, "%s%s%s %s", clearLineSequenceConstant, prefix, frame, label)
}

func (display *terminalDisplay) writeLine(depth int, content string) {
	display.mutex.Lock()
	defer display.mutex.Unlock()

	linePrefix := ""
	if display.animate {
		linePrefix = clearLineSequenceConstant
	}
	if len(content) == 0 {
		fmt.Fprintf(display.writer, "%s\n", linePrefix)
		return
	}
	fmt.Fprintf(display.writer, "%s%s%s\n", linePrefix, display.indentation(depth), content)
}

// flashLine renders content in place and clears it again.
func (display *terminalDisplay) flashLine(depth int, content string) {
	if !display.animate {
		return
	}
	display.mutex.Lock()
	defer display.mutex.Unlock()
	fmt.Fprintf(display.writer, "%s%s%s%s", clearLineSequenceConstant, display.indentation(depth), content, clearLineSequenceConstant)
}

func (display *terminalDisplay) clearLine() {
	if !display.animate {
		return
	}
	display.mutex.Lock()
	defer display.mutex.Unlock()
	fmt.Fprint(display.writer, clearLineSequenceConstant)
}

func (display *terminalDisplay) indentation(depth int) string {
	if depth <= 0 || display.indentWidth <= 0 {
		return ""
	}
	return strings.Repeat(" ", depth*display.indentWidth)
}

func isTerminalWriter(writer io.Writer) bool {
	file, isFile := writer.(*os.File)
	if !isFile || file == nil {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}
