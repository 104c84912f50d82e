package taskrunner

import (
	"os"

	"go.uber.org/zap"

	"github.com/tyemirov/steptree/pkg/progress"
)

// RunOption customises a run.
type RunOption func(*runConfiguration)

type runConfiguration struct {
	reporter progress.Reporter
	logger   *zap.Logger
}

// WithReporter sets the top-level progress scope. The default renders spinner lines on
// standard error.
func WithReporter(reporter progress.Reporter) RunOption {
	return func(configuration *runConfiguration) {
		if reporter != nil {
			configuration.reporter = reporter
		}
	}
}

// WithLogger attaches a diagnostic logger that records every step at debug level.
func WithLogger(logger *zap.Logger) RunOption {
	return func(configuration *runConfiguration) {
		if logger != nil {
			configuration.logger = logger
		}
	}
}

// Run executes tasks in order with a fresh zero-value state. It returns once every task,
// and every child a task chose to run, has finished; failures are reported, never returned.
func Run[P any, C any](parameters P, tasks []Task[P, C], options ...RunOption) {
	RunWithState(parameters, tasks, options...)
}

// RunWithState behaves like Run and returns the state shared by the run's tasks.
func RunWithState[P any, C any](parameters P, tasks []Task[P, C], options ...RunOption) *C {
	configuration := runConfiguration{}
	for _, option := range options {
		option(&configuration)
	}
	if configuration.reporter == nil {
		configuration.reporter = progress.NewTerminalReporter(os.Stderr)
	}
	if configuration.logger == nil {
		configuration.logger = zap.NewNop()
	}

	executor := &taskExecutor[P, C]{
		parameters: parameters,
		state:      new(C),
		logger:     configuration.logger,
	}
	for _, task := range tasks {
		executor.execute(configuration.reporter, task, nil, 0)
	}
	return executor.state
}
