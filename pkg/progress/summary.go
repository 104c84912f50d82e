package progress

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// SummaryData captures aggregated step outcomes suitable for a closing summary line.
type SummaryData struct {
	TotalSteps           int              `json:"total_steps"`
	DoneCount            int              `json:"done"`
	SkippedCount         int              `json:"skipped"`
	FailedCount          int              `json:"failed"`
	Failures             []FailureSummary `json:"failures"`
	DurationHuman        string           `json:"duration_human"`
	DurationMilliseconds int64            `json:"duration_ms"`
}

// FailureSummary records one failed step.
type FailureSummary struct {
	Label   string `json:"label"`
	Depth   int    `json:"depth"`
	Message string `json:"message"`
}

// SummaryOption customises SummaryReporter behaviour.
type SummaryOption func(*summaryCounters)

// WithNowProvider overrides the time source used for duration calculations.
func WithNowProvider(provider func() time.Time) SummaryOption {
	return func(counters *summaryCounters) {
		if provider != nil {
			counters.now = provider
			counters.startTime = provider()
		}
	}
}

type summaryCounters struct {
	mutex     sync.Mutex
	now       func() time.Time
	startTime time.Time
	begun     int
	done      int
	skipped   int
	failed    int
	failures  []FailureSummary
}

// SummaryReporter decorates a Reporter and counts step outcomes across every nesting level.
type SummaryReporter struct {
	base     Reporter
	counters *summaryCounters
	depth    int
	label    string
}

// NewSummaryReporter wraps base with outcome counting.
func NewSummaryReporter(base Reporter, options ...SummaryOption) *SummaryReporter {
	if base == nil {
		base = NewNopReporter()
	}
	counters := &summaryCounters{now: time.Now, startTime: time.Now()}
	for _, option := range options {
		option(counters)
	}
	return &SummaryReporter{base: base, counters: counters}
}

// Begin implements Reporter.
func (reporter *SummaryReporter) Begin(label string) {
	reporter.label = label
	reporter.counters.mutex.Lock()
	reporter.counters.begun++
	reporter.counters.mutex.Unlock()
	reporter.base.Begin(label)
}

// Skipped implements Reporter.
func (reporter *SummaryReporter) Skipped() {
	reporter.counters.mutex.Lock()
	reporter.counters.skipped++
	reporter.counters.mutex.Unlock()
	reporter.base.Skipped()
}

// Done implements Reporter.
func (reporter *SummaryReporter) Done() {
	reporter.counters.mutex.Lock()
	reporter.counters.done++
	reporter.counters.mutex.Unlock()
	reporter.base.Done()
}

// Failed implements Reporter.
func (reporter *SummaryReporter) Failed(message string) {
	reporter.counters.mutex.Lock()
	reporter.counters.failed++
	reporter.counters.failures = append(reporter.counters.failures, FailureSummary{
		Label:   reporter.label,
		Depth:   reporter.depth,
		Message: strings.TrimSpace(message),
	})
	reporter.counters.mutex.Unlock()
	reporter.base.Failed(message)
}

// Finalize implements Reporter.
func (reporter *SummaryReporter) Finalize() {
	reporter.label = ""
	reporter.base.Finalize()
}

// Nested implements Reporter.
func (reporter *SummaryReporter) Nested() Reporter {
	return &SummaryReporter{
		base:     reporter.base.Nested(),
		counters: reporter.counters,
		depth:    reporter.depth + 1,
	}
}

// Close implements Reporter.
func (reporter *SummaryReporter) Close() {
	reporter.base.Close()
}

// HasFailures reports whether any step at any depth failed.
func (reporter *SummaryReporter) HasFailures() bool {
	reporter.counters.mutex.Lock()
	defer reporter.counters.mutex.Unlock()
	return reporter.counters.failed > 0
}

// SummaryData produces a snapshot of the counted outcomes.
func (reporter *SummaryReporter) SummaryData() SummaryData {
	counters := reporter.counters
	counters.mutex.Lock()
	defer counters.mutex.Unlock()

	duration := counters.now().Sub(counters.startTime)
	if duration < 0 {
		duration = 0
	}

	return SummaryData{
		TotalSteps:           counters.begun,
		DoneCount:            counters.done,
		SkippedCount:         counters.skipped,
		FailedCount:          counters.failed,
		Failures:             append([]FailureSummary(nil), counters.failures...),
		DurationHuman:        formatDuration(duration),
		DurationMilliseconds: durationMilliseconds(duration),
	}
}

// Summary renders the closing summary line.
func (reporter *SummaryReporter) Summary() string {
	return RenderSummaryLine(reporter.SummaryData())
}

// RenderSummaryLine formats summary data as a single key=value line.
func RenderSummaryLine(data SummaryData) string {
	durationHuman := strings.TrimSpace(data.DurationHuman)
	if durationHuman == "" {
		durationHuman = "0s"
	}

	parts := []string{
		fmt.Sprintf("Summary: total.steps=%d", data.TotalSteps),
		fmt.Sprintf("done=%d", data.DoneCount),
		fmt.Sprintf("skipped=%d", data.SkippedCount),
		fmt.Sprintf("failed=%d", data.FailedCount),
		fmt.Sprintf("duration_human=%s", durationHuman),
		fmt.Sprintf("duration_ms=%d", data.DurationMilliseconds),
	}
	return strings.Join(parts, " ")
}

func formatDuration(value time.Duration) string {
	if value < 0 {
		value = 0
	}
	rounded := value.Round(time.Millisecond)
	if rounded == 0 && value > 0 {
		rounded = time.Millisecond
	}
	return rounded.String()
}

func durationMilliseconds(value time.Duration) int64 {
	if value < 0 {
		value = 0
	}
	rounded := value.Round(time.Millisecond)
	if rounded == 0 && value > 0 {
		rounded = time.Millisecond
	}
	return rounded.Milliseconds()
}
