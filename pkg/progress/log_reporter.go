package progress

import (
	"time"

	"go.uber.org/zap"
)

const (
	stepStartedMessageConstant      = "step started"
	stepDoneMessageConstant         = "step done"
	stepSkippedMessageConstant      = "step skipped"
	stepFailedMessageConstant       = "step failed"
	nestedClosedMessageConstant     = "nested steps completed"
	stepTitleFieldConstant          = "step"
	stepDepthFieldConstant          = "depth"
	stepDurationFieldConstant       = "duration_ms"
	stepFailureMessageFieldConstant = "error"
)

// LogReporter renders progress as structured log entries for headless environments.
type LogReporter struct {
	logger    *zap.Logger
	now       func() time.Time
	depth     int
	label     string
	startTime time.Time
}

// NewLogReporter constructs the top-level LogReporter scope.
func NewLogReporter(logger *zap.Logger) *LogReporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogReporter{logger: logger, now: time.Now}
}

// Begin implements Reporter.
func (reporter *LogReporter) Begin(label string) {
	reporter.label = label
	reporter.startTime = reporter.now()
	reporter.logger.Debug(stepStartedMessageConstant, reporter.fields()...)
}

// Skipped implements Reporter.
func (reporter *LogReporter) Skipped() {
	reporter.logger.Info(stepSkippedMessageConstant, reporter.fields()...)
}

// Done implements Reporter.
func (reporter *LogReporter) Done() {
	fields := append(reporter.fields(), zap.Int64(stepDurationFieldConstant, reporter.elapsed().Milliseconds()))
	reporter.logger.Info(stepDoneMessageConstant, fields...)
}

// Failed implements Reporter.
func (reporter *LogReporter) Failed(message string) {
	fields := append(reporter.fields(),
		zap.String(stepFailureMessageFieldConstant, message),
		zap.Int64(stepDurationFieldConstant, reporter.elapsed().Milliseconds()),
	)
	reporter.logger.Error(stepFailedMessageConstant, fields...)
}

// Finalize implements Reporter.
func (reporter *LogReporter) Finalize() {
	reporter.label = ""
	reporter.startTime = time.Time{}
}

// Nested implements Reporter.
func (reporter *LogReporter) Nested() Reporter {
	return &LogReporter{
		logger: reporter.logger,
		now:    reporter.now,
		depth:  reporter.depth + 1,
	}
}

// Close implements Reporter.
func (reporter *LogReporter) Close() {
	reporter.logger.Debug(nestedClosedMessageConstant, zap.Int(stepDepthFieldConstant, reporter.depth))
}

func (reporter *LogReporter) fields() []zap.Field {
	return []zap.Field{
		zap.String(stepTitleFieldConstant, reporter.label),
		zap.Int(stepDepthFieldConstant, reporter.depth),
	}
}

func (reporter *LogReporter) elapsed() time.Duration {
	if reporter.startTime.IsZero() {
		return 0
	}
	elapsed := reporter.now().Sub(reporter.startTime)
	if elapsed < 0 {
		return 0
	}
	return elapsed
}
