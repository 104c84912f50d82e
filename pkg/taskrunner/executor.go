package taskrunner

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/tyemirov/steptree/pkg/progress"
)

const (
	stepStartedLogMessageConstant = "task step started"
	stepOutcomeLogMessageConstant = "task step finished"
	stepTitleLogFieldConstant     = "step"
	stepDepthLogFieldConstant     = "depth"
	stepOutcomeLogFieldConstant   = "outcome"
	stepMessageLogFieldConstant   = "message"
)

// StepOutcome enumerates the terminal states of a single task execution.
type StepOutcome string

// Supported step outcomes.
const (
	StepOutcomeDone    StepOutcome = "done"
	StepOutcomeSkipped StepOutcome = "skipped"
	StepOutcomeFailed  StepOutcome = "failed"
)

// StepResult captures how one task execution ended.
type StepResult struct {
	Title   string
	Outcome StepOutcome
	Message string
	Err     error
}

func doneResult(title string) StepResult {
	return StepResult{Title: title, Outcome: StepOutcomeDone}
}

func skippedResult(title string) StepResult {
	return StepResult{Title: title, Outcome: StepOutcomeSkipped}
}

func failedResult(title string, err error) StepResult {
	return StepResult{Title: title, Outcome: StepOutcomeFailed, Message: err.Error(), Err: err}
}

// taskExecutor holds what every task of one run shares.
type taskExecutor[P any, C any] struct {
	parameters P
	state      *C
	logger     *zap.Logger
}

// execute runs task, including any children its action invokes, and reports the outcome
// through reporter. It never panics and never returns an error; the result is informational.
func (executor *taskExecutor[P, C]) execute(reporter progress.Reporter, task Task[P, C], arguments []any, depth int) StepResult {
	title, titleError := executor.resolveTitle(task, arguments)
	if titleError != nil {
		title = ""
	}
	reporter.Begin(title)
	executor.logger.Debug(stepStartedLogMessageConstant,
		zap.String(stepTitleLogFieldConstant, title),
		zap.Int(stepDepthLogFieldConstant, depth),
	)

	var result StepResult
	if titleError != nil {
		result = failedResult(title, titleError)
	} else {
		result = executor.run(reporter, task, title, arguments, depth)
	}

	switch result.Outcome {
	case StepOutcomeSkipped:
		reporter.Skipped()
	case StepOutcomeDone:
		reporter.Done()
	default:
		reporter.Failed(result.Message)
	}
	reporter.Finalize()

	executor.logger.Debug(stepOutcomeLogMessageConstant,
		zap.String(stepTitleLogFieldConstant, title),
		zap.Int(stepDepthLogFieldConstant, depth),
		zap.String(stepOutcomeLogFieldConstant, string(result.Outcome)),
		zap.String(stepMessageLogFieldConstant, result.Message),
	)
	return result
}

// resolveTitle converts a TitleFunc panic into an error; callers discard the title on error.
func (executor *taskExecutor[P, C]) resolveTitle(task Task[P, C], arguments []any) (title string, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = PanicError{Value: recovered}
		}
	}()
	return ResolveTitle(task, executor.parameters, executor.state, arguments)
}

func (executor *taskExecutor[P, C]) run(reporter progress.Reporter, task Task[P, C], title string, arguments []any, depth int) (result StepResult) {
	defer func() {
		if recovered := recover(); recovered != nil {
			result = failedResult(title, PanicError{Value: recovered})
		}
	}()

	if task.Skip != nil && task.Skip(executor.parameters) {
		return skippedResult(title)
	}

	if actionError := executor.invokeAction(reporter, task, arguments, depth); actionError != nil {
		return failedResult(title, actionError)
	}
	return doneResult(title)
}

func (executor *taskExecutor[P, C]) invokeAction(reporter progress.Reporter, task Task[P, C], arguments []any, depth int) error {
	switch action := task.Action.(type) {
	case nil:
		return ErrActionMissing
	case LeafAction[P, C]:
		if action == nil {
			return ErrActionMissing
		}
		if task.HasChildren() {
			return ErrLeafActionWithChildren
		}
		return action(executor.parameters, executor.state, arguments)
	case BranchAction[P, C]:
		if action == nil {
			return ErrActionMissing
		}
		if !task.HasChildren() {
			return ErrBranchActionWithoutChildren
		}
		return action(executor.parameters, executor.state, executor.subRunner(reporter, task.Children, depth))
	default:
		return fmt.Errorf(unsupportedActionTemplateConstant, task.Action)
	}
}

// subRunner runs every child in a fresh nested reporter scope, even after a sibling failed.
func (executor *taskExecutor[P, C]) subRunner(reporter progress.Reporter, children []Task[P, C], depth int) SubRunner {
	return func(arguments ...any) error {
		nestedReporter := reporter.Nested()
		var failures []StepResult
		for _, child := range children {
			childResult := executor.execute(nestedReporter, child, arguments, depth+1)
			if childResult.Outcome == StepOutcomeFailed {
				failures = append(failures, childResult)
			}
		}
		nestedReporter.Close()

		if len(failures) > 0 {
			return &ChildFailureError{Failures: failures}
		}
		return nil
	}
}
