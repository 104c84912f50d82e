package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tyemirov/steptree/internal/execshell"
	"github.com/tyemirov/steptree/internal/taskplan"
	flagutils "github.com/tyemirov/steptree/internal/utils/flags"
	pathutils "github.com/tyemirov/steptree/internal/utils/path"
	"github.com/tyemirov/steptree/pkg/progress"
	"github.com/tyemirov/steptree/pkg/taskrunner"
)

const (
	commandUseConstant                    = "run <plan.yaml>"
	commandShortDescriptionConstant       = "Run a task plan"
	commandLongDescriptionConstant        = "run executes the tasks of a YAML plan in order, rendering nested progress and continuing past failed steps."
	parameterFlagNameConstant             = "param"
	parameterFlagShorthandConstant        = "p"
	parameterFlagUsageConstant            = "Set a plan parameter as name=value (repeatable)"
	parameterFileFlagNameConstant         = "param-file"
	parameterFileFlagUsageConstant        = "Load plan parameters from a YAML mapping (repeatable)"
	workingDirectoryFlagNameConstant      = "workdir"
	workingDirectoryFlagShorthand         = "C"
	workingDirectoryFlagUsageConstant     = "Directory commands run in (defaults to the current directory)"
	runStartedMessageConstant             = "task plan run started"
	runFinishedMessageConstant            = "task plan run finished"
	planPathLogFieldConstant              = "plan"
	taskCountLogFieldConstant             = "tasks"
	progressModeLogFieldConstant          = "progress"
	failedCountLogFieldConstant           = "failed"
	stepFailuresErrorTemplateConstant     = "%d of %d steps failed"
	workingDirectoryErrorTemplateConstant = "unable to determine working directory: %w"
)

var commandPathSanitizer = pathutils.NewPathSanitizer()

// LoggerProvider yields a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// StepFailuresError reports that a run finished with failed steps.
type StepFailuresError struct {
	FailedCount int
	TotalCount  int
}

// Error implements the error interface.
func (failures StepFailuresError) Error() string {
	return fmt.Sprintf(stepFailuresErrorTemplateConstant, failures.FailedCount, failures.TotalCount)
}

// CommandBuilder assembles the run command.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() taskplan.CommandConfiguration
	CommandRunner                execshell.CommandRunner
	ProgressWriter               io.Writer
}

type runOptions struct {
	planPath          string
	progressMode      taskplan.ProgressMode
	summary           bool
	failOnStepFailure bool
	workingDirectory  string
	parameterFiles    []string
	configured        map[string]string
	assigned          map[string]string
}

// Build constructs the run command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		Args:  cobra.ExactArgs(1),
		RunE:  builder.run,
	}

	defaults := taskplan.DefaultCommandConfiguration()
	command.Flags().StringArrayP(parameterFlagNameConstant, parameterFlagShorthandConstant, nil, parameterFlagUsageConstant)
	command.Flags().StringArray(parameterFileFlagNameConstant, nil, parameterFileFlagUsageConstant)
	command.Flags().StringP(workingDirectoryFlagNameConstant, workingDirectoryFlagShorthand, "", workingDirectoryFlagUsageConstant)
	flagutils.BindRunFlags(
		command,
		flagutils.RunDefaults{
			Progress:          defaults.Progress,
			Summary:           defaults.Summary,
			FailOnStepFailure: defaults.FailOnStepFailure,
		},
		flagutils.DefaultRunFlagDefinitions(),
	)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	options, optionsError := builder.parseOptions(command, arguments)
	if optionsError != nil {
		return optionsError
	}

	plan, planError := taskplan.LoadPlan(options.planPath)
	if planError != nil {
		return planError
	}

	fileParameters, fileError := taskplan.LoadParameterFiles(options.parameterFiles)
	if fileError != nil {
		return fileError
	}
	parameters := taskplan.MergeParameters(plan.DefaultParameters(), options.configured, fileParameters, options.assigned)

	logger := builder.resolveLogger()
	commandRunner := builder.CommandRunner
	if commandRunner == nil {
		commandRunner = execshell.OSCommandRunner{}
	}
	shellExecutor, executorError := execshell.NewShellExecutor(logger, commandRunner, builder.humanReadableLogging())
	if executorError != nil {
		return executorError
	}

	compiler, compilerError := taskplan.NewCompiler(shellExecutor, options.workingDirectory)
	if compilerError != nil {
		return compilerError
	}
	tasks, compileError := compiler.Compile(command.Context(), plan)
	if compileError != nil {
		return compileError
	}

	progressWriter := builder.ProgressWriter
	if progressWriter == nil {
		progressWriter = command.ErrOrStderr()
	}
	summaryReporter := progress.NewSummaryReporter(newReporter(options.progressMode, progressWriter))

	logger.Debug(runStartedMessageConstant,
		zap.String(planPathLogFieldConstant, options.planPath),
		zap.Int(taskCountLogFieldConstant, len(tasks)),
		zap.String(progressModeLogFieldConstant, string(options.progressMode)),
	)
	taskrunner.Run(parameters, tasks, taskrunner.WithReporter(summaryReporter), taskrunner.WithLogger(logger))

	summaryData := summaryReporter.SummaryData()
	logger.Debug(runFinishedMessageConstant, zap.Int(failedCountLogFieldConstant, summaryData.FailedCount))

	if options.summary {
		if _, writeError := fmt.Fprintln(command.OutOrStdout(), progress.RenderSummaryLine(summaryData)); writeError != nil {
			return writeError
		}
	}

	if options.failOnStepFailure && summaryReporter.HasFailures() {
		return StepFailuresError{FailedCount: summaryData.FailedCount, TotalCount: summaryData.TotalSteps}
	}
	return nil
}

func (builder *CommandBuilder) parseOptions(command *cobra.Command, arguments []string) (runOptions, error) {
	configuration := builder.resolveConfiguration()

	options := runOptions{
		planPath:          commandPathSanitizer.SanitizePath(arguments[0]),
		summary:           configuration.Summary,
		failOnStepFailure: configuration.FailOnStepFailure,
		workingDirectory:  configuration.WorkingDirectory,
		parameterFiles:    configuration.ParameterFiles,
		configured:        configuration.Parameters,
	}

	progressValue := configuration.Progress
	if runFlags, available := flagutils.ResolveRunFlags(command); available {
		if runFlags.ProgressSet {
			progressValue = runFlags.Progress
		}
		if runFlags.SummarySet {
			options.summary = runFlags.Summary
		}
		if runFlags.FailOnStepFailureSet {
			options.failOnStepFailure = runFlags.FailOnStepFailure
		}
	}
	progressMode, modeError := taskplan.ParseProgressMode(progressValue)
	if modeError != nil {
		return runOptions{}, modeError
	}
	options.progressMode = progressMode

	flagFiles, filesChanged, filesError := flagutils.StringArrayFlag(command, parameterFileFlagNameConstant)
	if filesError != nil && !errors.Is(filesError, flagutils.ErrFlagNotDefined) {
		return runOptions{}, filesError
	}
	if filesChanged {
		options.parameterFiles = commandPathSanitizer.Sanitize(append(append([]string{}, options.parameterFiles...), flagFiles...))
	}

	assignments, _, assignmentError := flagutils.StringArrayFlag(command, parameterFlagNameConstant)
	if assignmentError != nil && !errors.Is(assignmentError, flagutils.ErrFlagNotDefined) {
		return runOptions{}, assignmentError
	}
	assigned, parseError := taskplan.ParseParameterAssignments(assignments)
	if parseError != nil {
		return runOptions{}, parseError
	}
	options.assigned = assigned

	if workingDirectory, changed, flagError := flagutils.StringFlag(command, workingDirectoryFlagNameConstant); flagError == nil && changed {
		options.workingDirectory = commandPathSanitizer.SanitizePath(workingDirectory)
	}
	if len(options.workingDirectory) == 0 {
		currentDirectory, directoryError := os.Getwd()
		if directoryError != nil {
			return runOptions{}, fmt.Errorf(workingDirectoryErrorTemplateConstant, directoryError)
		}
		options.workingDirectory = currentDirectory
	}

	return options, nil
}

func newReporter(mode taskplan.ProgressMode, writer io.Writer) progress.Reporter {
	switch mode {
	case taskplan.ProgressModePlain:
		return progress.NewTerminalReporter(writer, progress.WithAnimation(false))
	case taskplan.ProgressModeLog:
		return progress.NewLogReporter(newProgressLogger(writer))
	case taskplan.ProgressModeNone:
		return progress.NewNopReporter()
	default:
		return progress.NewTerminalReporter(writer)
	}
}

// newProgressLogger writes JSON progress entries to writer regardless of the diagnostic log level.
func newProgressLogger(writer io.Writer) *zap.Logger {
	encoderConfiguration := zap.NewProductionEncoderConfig()
	encoderConfiguration.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfiguration), zapcore.AddSync(writer), zapcore.InfoLevel)
	return zap.New(core)
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (builder *CommandBuilder) humanReadableLogging() bool {
	if builder.HumanReadableLoggingProvider == nil {
		return false
	}
	return builder.HumanReadableLoggingProvider()
}

func (builder *CommandBuilder) resolveConfiguration() taskplan.CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return taskplan.DefaultCommandConfiguration()
	}
	return builder.ConfigurationProvider().Sanitize()
}
