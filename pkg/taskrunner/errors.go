package taskrunner

import (
	"errors"
	"fmt"
	"strings"
)

const (
	actionMissingMessageConstant               = "task has no action"
	leafActionWithChildrenMessageConstant      = "task has children but a leaf action"
	branchActionWithoutChildrenMessageConstant = "task has a branch action but no children"
	unsupportedActionTemplateConstant          = "unsupported task action %T"
	panicMessageTemplateConstant               = "panic: %v"
	singleChildFailureTemplateConstant         = "subtask %q failed: %s"
	multipleChildFailuresTemplateConstant      = "%d subtasks failed: %s"
	childFailureEntryTemplateConstant          = "%q: %s"
	childFailureEntrySeparatorConstant         = "; "
)

var (
	// ErrActionMissing indicates a task without an action.
	ErrActionMissing = errors.New(actionMissingMessageConstant)
	// ErrLeafActionWithChildren indicates a task with children whose action cannot run them.
	ErrLeafActionWithChildren = errors.New(leafActionWithChildrenMessageConstant)
	// ErrBranchActionWithoutChildren indicates a branch action attached to a childless task.
	ErrBranchActionWithoutChildren = errors.New(branchActionWithoutChildrenMessageConstant)
)

// PanicError wraps a value recovered from a panicking skip predicate, title or action.
type PanicError struct {
	Value any
}

// Error implements the error interface.
func (panicError PanicError) Error() string {
	return fmt.Sprintf(panicMessageTemplateConstant, panicError.Value)
}

// ChildFailureError is returned by a SubRunner when at least one child failed.
type ChildFailureError struct {
	Failures []StepResult
}

// Error describes the failed children.
func (childError *ChildFailureError) Error() string {
	if childError == nil || len(childError.Failures) == 0 {
		return ""
	}
	if len(childError.Failures) == 1 {
		failure := childError.Failures[0]
		return fmt.Sprintf(singleChildFailureTemplateConstant, failure.Title, failure.Message)
	}

	entries := make([]string, 0, len(childError.Failures))
	for _, failure := range childError.Failures {
		entries = append(entries, fmt.Sprintf(childFailureEntryTemplateConstant, failure.Title, failure.Message))
	}
	return fmt.Sprintf(multipleChildFailuresTemplateConstant, len(childError.Failures), strings.Join(entries, childFailureEntrySeparatorConstant))
}

// Unwrap exposes the errors of the failed children.
func (childError *ChildFailureError) Unwrap() []error {
	if childError == nil {
		return nil
	}
	causes := make([]error, 0, len(childError.Failures))
	for _, failure := range childError.Failures {
		if failure.Err != nil {
			causes = append(causes, failure.Err)
		}
	}
	return causes
}
