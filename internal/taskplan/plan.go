package taskplan

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	planPathRequiredMessageConstant      = "task plan path must be provided"
	planEmptyMessageConstant             = "task plan is empty"
	planReadErrorTemplateConstant        = "failed to read task plan %q: %w"
	planParseErrorTemplateConstant       = "failed to parse task plan: %w"
	planValidationErrorTemplateConstant  = "invalid task plan at %s: %s"
	planTasksMissingMessageConstant      = "at least one task must be defined"
	taskTitleMissingMessageConstant      = "title must be provided"
	taskArgumentsWithoutChildrenMessage  = "arguments require children"
	taskForEachWithoutChildrenMessage    = "for_each requires children"
	taskArgumentsWithForEachMessage      = "arguments and for_each are mutually exclusive"
	taskIgnoreFailuresWithoutChildrenMsg = "ignore_child_failures requires children"
	taskCaptureWithoutRunMessageConstant = "capture requires run"
	taskEnvWithoutRunMessageConstant     = "env requires run"
	taskEnvNameInvalidTemplateConstant   = "environment variable %q is invalid: %v"
	taskRunEmptyCommandMessageConstant   = "run must name a command"
	taskSkipConflictMessageTemplate      = "skip_if and skip_unless both reference %q"
	taskStateKeyInvalidTemplateConstant  = "state key %q is invalid: %v"
	taskTemplateInvalidTemplateConstant  = "%s template is invalid: %v"
	tasksPathSegmentConstant             = "tasks"
	childrenPathSegmentConstant          = "children"
	taskPathIndexTemplateConstant        = "%s[%d]"
	taskPathChildTemplateConstant        = "%s.%s[%d]"
)

var (
	// ErrPlanPathRequired indicates LoadPlan was called without a path.
	ErrPlanPathRequired = errors.New(planPathRequiredMessageConstant)
	// ErrPlanEmpty indicates the plan document contains nothing.
	ErrPlanEmpty = errors.New(planEmptyMessageConstant)
)

// Plan is a declarative task tree.
type Plan struct {
	Parameters map[string]any   `yaml:"parameters"`
	Tasks      []TaskDefinition `yaml:"tasks"`
}

// TaskDefinition declares one node of the tree. Title, set values, run arguments, fail
// messages, arguments and for_each items are text/template sources.
type TaskDefinition struct {
	Title               string            `yaml:"title"`
	SkipIf              string            `yaml:"skip_if"`
	SkipUnless          string            `yaml:"skip_unless"`
	Set                 map[string]string `yaml:"set"`
	Run                 []string          `yaml:"run"`
	Env                 map[string]string `yaml:"env"`
	Capture             string            `yaml:"capture"`
	Fail                string            `yaml:"fail"`
	Arguments           []string          `yaml:"arguments"`
	ForEach             []string          `yaml:"for_each"`
	IgnoreChildFailures bool              `yaml:"ignore_child_failures"`
	Children            []TaskDefinition  `yaml:"children"`
}

// HasChildren reports whether the definition is a branch.
func (definition TaskDefinition) HasChildren() bool {
	return len(definition.Children) > 0
}

// ValidationError pinpoints the invalid node of a plan.
type ValidationError struct {
	Path   string
	Reason string
}

// Error implements the error interface.
func (validationError ValidationError) Error() string {
	return fmt.Sprintf(planValidationErrorTemplateConstant, validationError.Path, validationError.Reason)
}

// LoadPlan reads and validates a plan file.
func LoadPlan(filePath string) (Plan, error) {
	trimmedPath := strings.TrimSpace(filePath)
	if len(trimmedPath) == 0 {
		return Plan{}, ErrPlanPathRequired
	}

	contentBytes, readError := os.ReadFile(trimmedPath)
	if readError != nil {
		return Plan{}, fmt.Errorf(planReadErrorTemplateConstant, trimmedPath, readError)
	}
	return ParsePlan(contentBytes)
}

// ParsePlan decodes and validates a plan document. Unknown keys are rejected.
func ParsePlan(content []byte) (Plan, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(content))
	decoder.KnownFields(true)

	var plan Plan
	if decodeError := decoder.Decode(&plan); decodeError != nil {
		if errors.Is(decodeError, io.EOF) {
			return Plan{}, ErrPlanEmpty
		}
		return Plan{}, fmt.Errorf(planParseErrorTemplateConstant, decodeError)
	}

	if validationError := plan.Validate(); validationError != nil {
		return Plan{}, validationError
	}
	return plan, nil
}

// Validate checks the structural rules of the plan.
func (plan Plan) Validate() error {
	if len(plan.Tasks) == 0 {
		return ValidationError{Path: tasksPathSegmentConstant, Reason: planTasksMissingMessageConstant}
	}
	for parameterName := range plan.Parameters {
		if _, nameError := NewParameterName(parameterName); nameError != nil {
			return ValidationError{Path: "parameters", Reason: nameError.Error()}
		}
	}
	for index, definition := range plan.Tasks {
		if validationError := definition.validate(fmt.Sprintf(taskPathIndexTemplateConstant, tasksPathSegmentConstant, index)); validationError != nil {
			return validationError
		}
	}
	return nil
}

// DefaultParameters returns the plan's parameter defaults rendered as strings.
func (plan Plan) DefaultParameters() map[string]string {
	defaults := make(map[string]string, len(plan.Parameters))
	for name, value := range plan.Parameters {
		defaults[strings.TrimSpace(name)] = stringifyParameterValue(value)
	}
	return defaults
}

func (definition TaskDefinition) validate(path string) error {
	if len(strings.TrimSpace(definition.Title)) == 0 {
		return ValidationError{Path: path, Reason: taskTitleMissingMessageConstant}
	}
	if !definition.HasChildren() {
		switch {
		case len(definition.Arguments) > 0:
			return ValidationError{Path: path, Reason: taskArgumentsWithoutChildrenMessage}
		case len(definition.ForEach) > 0:
			return ValidationError{Path: path, Reason: taskForEachWithoutChildrenMessage}
		case definition.IgnoreChildFailures:
			return ValidationError{Path: path, Reason: taskIgnoreFailuresWithoutChildrenMsg}
		}
	}
	if len(definition.Arguments) > 0 && len(definition.ForEach) > 0 {
		return ValidationError{Path: path, Reason: taskArgumentsWithForEachMessage}
	}
	if len(definition.Run) > 0 && len(strings.TrimSpace(definition.Run[0])) == 0 {
		return ValidationError{Path: path, Reason: taskRunEmptyCommandMessageConstant}
	}
	if len(strings.TrimSpace(definition.Capture)) > 0 {
		if len(definition.Run) == 0 {
			return ValidationError{Path: path, Reason: taskCaptureWithoutRunMessageConstant}
		}
		if _, nameError := NewParameterName(definition.Capture); nameError != nil {
			return ValidationError{Path: path, Reason: fmt.Sprintf(taskStateKeyInvalidTemplateConstant, definition.Capture, nameError)}
		}
	}
	if len(definition.Env) > 0 && len(definition.Run) == 0 {
		return ValidationError{Path: path, Reason: taskEnvWithoutRunMessageConstant}
	}
	for variableName := range definition.Env {
		if _, nameError := NewParameterName(variableName); nameError != nil {
			return ValidationError{Path: path, Reason: fmt.Sprintf(taskEnvNameInvalidTemplateConstant, variableName, nameError)}
		}
	}
	for stateKey := range definition.Set {
		if _, nameError := NewParameterName(stateKey); nameError != nil {
			return ValidationError{Path: path, Reason: fmt.Sprintf(taskStateKeyInvalidTemplateConstant, stateKey, nameError)}
		}
	}
	skipIf := strings.TrimSpace(definition.SkipIf)
	if len(skipIf) > 0 && skipIf == strings.TrimSpace(definition.SkipUnless) {
		return ValidationError{Path: path, Reason: fmt.Sprintf(taskSkipConflictMessageTemplate, skipIf)}
	}
	if templateError := definition.checkTemplates(); templateError != nil {
		return ValidationError{Path: path, Reason: templateError.Error()}
	}

	for index, child := range definition.Children {
		if validationError := child.validate(fmt.Sprintf(taskPathChildTemplateConstant, path, childrenPathSegmentConstant, index)); validationError != nil {
			return validationError
		}
	}
	return nil
}

type templateSource struct {
	name string
	raws []string
}

// checkTemplates parses every templated field so syntax errors surface before a run.
func (definition TaskDefinition) checkTemplates() error {
	sources := []templateSource{
		{name: titleTemplateNameConstant, raws: []string{definition.Title}},
		{name: runTemplateNameConstant, raws: definition.Run},
		{name: failTemplateNameConstant, raws: []string{definition.Fail}},
		{name: argumentsTemplateNameConstant, raws: definition.Arguments},
		{name: forEachTemplateNameConstant, raws: definition.ForEach},
	}
	for _, stateKey := range sortedKeys(definition.Set) {
		sources = append(sources, templateSource{name: fmt.Sprintf(setTemplateNameTemplateConstant, stateKey), raws: []string{definition.Set[stateKey]}})
	}

	for _, variableName := range sortedKeys(definition.Env) {
		sources = append(sources, templateSource{name: fmt.Sprintf(envTemplateNameTemplateConstant, variableName), raws: []string{definition.Env[variableName]}})
	}

	for _, source := range sources {
		for _, raw := range source.raws {
			if parseError := checkTemplate(source.name, raw); parseError != nil {
				return fmt.Errorf(taskTemplateInvalidTemplateConstant, source.name, parseError)
			}
		}
	}
	return nil
}
