package execshell

import (
	"fmt"
	"strings"
)

const (
	startedMessageTemplateConstant          = "Running %s"
	succeededMessageTemplateConstant        = "Completed %s"
	failedMessageTemplateConstant           = "%s exited with code %d"
	failedWithDetailMessageTemplateConstant = "%s exited with code %d: %s"
	executionFailureMessageTemplateConstant = "%s failed: %v"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
)

// CommandMessageFormatter renders command lifecycle events as single human-readable lines.
type CommandMessageFormatter struct{}

// BuildStartedMessage describes a command about to run.
func (CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return fmt.Sprintf(startedMessageTemplateConstant, describeCommandWithDirectory(command))
}

// BuildSuccessMessage describes a command that exited cleanly.
func (CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return fmt.Sprintf(succeededMessageTemplateConstant, describeCommand(command))
}

// BuildFailureMessage describes a command that exited with a non-zero code.
func (CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	detail := summarizeOutput(result)
	if len(detail) == 0 {
		return fmt.Sprintf(failedMessageTemplateConstant, describeCommand(command), result.ExitCode)
	}
	return fmt.Sprintf(failedWithDetailMessageTemplateConstant, describeCommand(command), result.ExitCode, detail)
}

// BuildExecutionFailureMessage describes a command the runner could not execute.
func (CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, cause error) string {
	return fmt.Sprintf(executionFailureMessageTemplateConstant, describeCommandWithDirectory(command), cause)
}

func describeCommand(command ShellCommand) string {
	parts := make([]string, 0, len(command.Details.Arguments)+1)
	parts = append(parts, string(command.Name))
	parts = append(parts, command.Details.Arguments...)
	return strings.Join(parts, " ")
}

func describeCommandWithDirectory(command ShellCommand) string {
	description := describeCommand(command)
	if workingDirectory := strings.TrimSpace(command.Details.WorkingDirectory); len(workingDirectory) > 0 {
		description += fmt.Sprintf(workingDirectorySuffixTemplateConstant, workingDirectory)
	}
	return description
}
