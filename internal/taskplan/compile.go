package taskplan

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/tyemirov/steptree/internal/execshell"
	"github.com/tyemirov/steptree/pkg/taskrunner"
)

const (
	commandExecutorMissingMessageConstant = "task plan command executor not configured"
	titleTemplateNameConstant             = "title"
	setTemplateNameTemplateConstant       = "set.%s"
	envTemplateNameTemplateConstant       = "env.%s"
	runTemplateNameConstant               = "run"
	failTemplateNameConstant              = "fail"
	argumentsTemplateNameConstant         = "arguments"
	forEachTemplateNameConstant           = "for_each"
	renderErrorTemplateConstant           = "render %s: %w"
)

// ErrCommandExecutorMissing indicates a Compiler was built without a command executor.
var ErrCommandExecutorMissing = errors.New(commandExecutorMissingMessageConstant)

// Task is the task type produced from plans.
type Task = taskrunner.Task[taskrunner.Parameters, taskrunner.State]

type (
	leafAction   = taskrunner.LeafAction[taskrunner.Parameters, taskrunner.State]
	branchAction = taskrunner.BranchAction[taskrunner.Parameters, taskrunner.State]
)

// CommandExecutor runs the argv of a task's run entry.
type CommandExecutor interface {
	ExecuteArguments(executionContext context.Context, argv []string, workingDirectory string, environment map[string]string) (execshell.ExecutionResult, error)
}

// DeclaredFailureError is returned by tasks whose fail entry rendered a message.
type DeclaredFailureError struct {
	Message string
}

// Error implements the error interface.
func (failure DeclaredFailureError) Error() string {
	return failure.Message
}

// Compiler turns plan definitions into runnable tasks.
type Compiler struct {
	commandExecutor  CommandExecutor
	workingDirectory string
}

// NewCompiler constructs a Compiler whose commands run in workingDirectory.
func NewCompiler(commandExecutor CommandExecutor, workingDirectory string) (*Compiler, error) {
	if commandExecutor == nil {
		return nil, ErrCommandExecutorMissing
	}
	return &Compiler{commandExecutor: commandExecutor, workingDirectory: workingDirectory}, nil
}

// Compile builds the task tree of plan. Commands started by the tasks are bound to
// executionContext.
func (compiler *Compiler) Compile(executionContext context.Context, plan Plan) ([]Task, error) {
	if validationError := plan.Validate(); validationError != nil {
		return nil, validationError
	}
	if executionContext == nil {
		executionContext = context.Background()
	}
	return compiler.compileDefinitions(executionContext, plan.Tasks), nil
}

func (compiler *Compiler) compileDefinitions(executionContext context.Context, definitions []TaskDefinition) []Task {
	tasks := make([]Task, 0, len(definitions))
	for _, definition := range definitions {
		tasks = append(tasks, compiler.compileDefinition(executionContext, definition))
	}
	return tasks
}

func (compiler *Compiler) compileDefinition(executionContext context.Context, definition TaskDefinition) Task {
	task := Task{Skip: buildSkipPredicate(definition)}

	title := strings.TrimSpace(definition.Title)
	if isTemplate(title) {
		task.TitleFunc = func(parameters taskrunner.Parameters, state *taskrunner.State, arguments []any) (string, error) {
			return renderTemplate(titleTemplateNameConstant, title, newTemplateData(parameters, state, arguments))
		}
	} else {
		task.Title = title
	}

	if !definition.HasChildren() {
		task.Action = compiler.buildLeafAction(executionContext, definition)
		return task
	}

	task.Children = compiler.compileDefinitions(executionContext, definition.Children)
	task.Action = compiler.buildBranchAction(executionContext, definition)
	return task
}

func (compiler *Compiler) buildLeafAction(executionContext context.Context, definition TaskDefinition) leafAction {
	return func(parameters taskrunner.Parameters, state *taskrunner.State, arguments []any) error {
		return compiler.applyEffects(executionContext, definition, parameters, state, arguments)
	}
}

func (compiler *Compiler) buildBranchAction(executionContext context.Context, definition TaskDefinition) branchAction {
	return func(parameters taskrunner.Parameters, state *taskrunner.State, runChildren taskrunner.SubRunner) error {
		if effectError := compiler.applyEffects(executionContext, definition, parameters, state, nil); effectError != nil {
			return effectError
		}

		data := newTemplateData(parameters, state, nil)
		var childrenError error
		if len(definition.ForEach) > 0 {
			items, renderError := renderTemplates(forEachTemplateNameConstant, definition.ForEach, data)
			if renderError != nil {
				return fmt.Errorf(renderErrorTemplateConstant, forEachTemplateNameConstant, renderError)
			}
			var iterationErrors []error
			for _, item := range items {
				if iterationError := runChildren(item); iterationError != nil {
					iterationErrors = append(iterationErrors, iterationError)
				}
			}
			childrenError = errors.Join(iterationErrors...)
		} else {
			renderedArguments, renderError := renderTemplates(argumentsTemplateNameConstant, definition.Arguments, data)
			if renderError != nil {
				return fmt.Errorf(renderErrorTemplateConstant, argumentsTemplateNameConstant, renderError)
			}
			childrenError = runChildren(toArguments(renderedArguments)...)
		}

		if definition.IgnoreChildFailures {
			return nil
		}
		return childrenError
	}
}

// applyEffects performs set, run, capture and fail in that order.
func (compiler *Compiler) applyEffects(executionContext context.Context, definition TaskDefinition, parameters taskrunner.Parameters, state *taskrunner.State, arguments []any) error {
	data := newTemplateData(parameters, state, arguments)

	for _, stateKey := range sortedKeys(definition.Set) {
		value, renderError := renderTemplate(fmt.Sprintf(setTemplateNameTemplateConstant, stateKey), definition.Set[stateKey], data)
		if renderError != nil {
			return fmt.Errorf(renderErrorTemplateConstant, fmt.Sprintf(setTemplateNameTemplateConstant, stateKey), renderError)
		}
		state.Set(strings.TrimSpace(stateKey), value)
	}

	if len(definition.Run) > 0 {
		data = newTemplateData(parameters, state, arguments)
		argv, renderError := renderTemplates(runTemplateNameConstant, definition.Run, data)
		if renderError != nil {
			return fmt.Errorf(renderErrorTemplateConstant, runTemplateNameConstant, renderError)
		}
		environment := make(map[string]string, len(definition.Env))
		for _, variableName := range sortedKeys(definition.Env) {
			templateName := fmt.Sprintf(envTemplateNameTemplateConstant, variableName)
			value, renderError := renderTemplate(templateName, definition.Env[variableName], data)
			if renderError != nil {
				return fmt.Errorf(renderErrorTemplateConstant, templateName, renderError)
			}
			environment[strings.TrimSpace(variableName)] = value
		}
		result, executionError := compiler.commandExecutor.ExecuteArguments(executionContext, argv, compiler.workingDirectory, environment)
		if executionError != nil {
			return executionError
		}
		if captureKey := strings.TrimSpace(definition.Capture); len(captureKey) > 0 {
			state.Set(captureKey, strings.TrimSpace(result.StandardOutput))
		}
	}

	if len(strings.TrimSpace(definition.Fail)) > 0 {
		data = newTemplateData(parameters, state, arguments)
		message, renderError := renderTemplate(failTemplateNameConstant, definition.Fail, data)
		if renderError != nil {
			return fmt.Errorf(renderErrorTemplateConstant, failTemplateNameConstant, renderError)
		}
		return DeclaredFailureError{Message: strings.TrimSpace(message)}
	}
	return nil
}

func buildSkipPredicate(definition TaskDefinition) taskrunner.SkipFunc[taskrunner.Parameters] {
	skipIf := strings.TrimSpace(definition.SkipIf)
	skipUnless := strings.TrimSpace(definition.SkipUnless)
	if len(skipIf) == 0 && len(skipUnless) == 0 {
		return nil
	}
	return func(parameters taskrunner.Parameters) bool {
		if len(skipIf) > 0 && isTruthy(parameters[skipIf]) {
			return true
		}
		if len(skipUnless) > 0 && !isTruthy(parameters[skipUnless]) {
			return true
		}
		return false
	}
}

func isTruthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "t", "true", "y", "yes", "on":
		return true
	default:
		return false
	}
}

func toArguments(values []string) []any {
	if len(values) == 0 {
		return nil
	}
	arguments := make([]any, 0, len(values))
	for _, value := range values {
		arguments = append(arguments, value)
	}
	return arguments
}

func sortedKeys(values map[string]string) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
