package execshell_test

import (
	"context"
	"errors"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tyemirov/steptree/internal/execshell"
)

const (
	testExecutionSuccessCaseNameConstant         = "success"
	testExecutionFailureCaseNameConstant         = "failure_exit_code"
	testExecutionRunnerErrorCaseNameConstant     = "runner_error"
	testLoggerInitializationCaseNameConstant     = "logger_validation"
	testRunnerInitializationCaseNameConstant     = "runner_validation"
	testSuccessfulInitializationCaseNameConstant = "successful_initialization"
	testCommandNameConstant                      = "echo"
	testCommandArgumentConstant                  = "hello"
	testWorkingDirectoryConstant                 = "."
	testStandardErrorOutputConstant              = "failure"
	testRunnerFailureMessageConstant             = "runner failure"
	testStartedMessageConstant                   = "Running echo hello (in .)"
	testCompletedMessageConstant                 = "Completed echo hello"
	testFailedMessageConstant                    = "echo hello exited with code 1: failure"
	testRunnerErrorMessageConstant               = "echo hello (in .) failed: runner failure"
)

type recordingCommandRunner struct {
	executionResult  execshell.ExecutionResult
	executionError   error
	recordedCommands []execshell.ShellCommand
}

func (runner *recordingCommandRunner) Run(executionContext context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error) {
	runner.recordedCommands = append(runner.recordedCommands, command)
	return runner.executionResult, runner.executionError
}

func testCommand() execshell.ShellCommand {
	return execshell.ShellCommand{
		Name: testCommandNameConstant,
		Details: execshell.CommandDetails{
			Arguments:        []string{testCommandArgumentConstant},
			WorkingDirectory: testWorkingDirectoryConstant,
		},
	}
}

func TestShellExecutorInitializationValidation(testInstance *testing.T) {
	testCases := []struct {
		name          string
		logger        *zap.Logger
		runner        execshell.CommandRunner
		expectError   error
		expectSuccess bool
	}{
		{
			name:        testLoggerInitializationCaseNameConstant,
			logger:      nil,
			runner:      &recordingCommandRunner{},
			expectError: execshell.ErrLoggerNotConfigured,
		},
		{
			name:        testRunnerInitializationCaseNameConstant,
			logger:      zap.NewNop(),
			runner:      nil,
			expectError: execshell.ErrCommandRunnerNotConfigured,
		},
		{
			name:          testSuccessfulInitializationCaseNameConstant,
			logger:        zap.NewNop(),
			runner:        &recordingCommandRunner{},
			expectSuccess: true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor, creationError := execshell.NewShellExecutor(testCase.logger, testCase.runner, false)
			if testCase.expectSuccess {
				require.NoError(testInstance, creationError)
				require.NotNil(testInstance, executor)
			} else {
				require.Error(testInstance, creationError)
				require.ErrorIs(testInstance, creationError, testCase.expectError)
			}
		})
	}
}

func TestShellExecutorExecuteBehavior(testInstance *testing.T) {
	testCases := []struct {
		name             string
		runnerResult     execshell.ExecutionResult
		runnerError      error
		expectErrorType  any
		expectedLogCount int
		expectedLevels   []zapcore.Level
	}{
		{
			name: testExecutionSuccessCaseNameConstant,
			runnerResult: execshell.ExecutionResult{
				StandardOutput: "ok",
				ExitCode:       0,
			},
			expectedLogCount: 2,
			expectedLevels:   []zapcore.Level{zap.InfoLevel, zap.InfoLevel},
		},
		{
			name: testExecutionFailureCaseNameConstant,
			runnerResult: execshell.ExecutionResult{
				StandardError: testStandardErrorOutputConstant,
				ExitCode:      1,
			},
			expectErrorType:  execshell.CommandFailedError{},
			expectedLogCount: 2,
			expectedLevels:   []zapcore.Level{zap.InfoLevel, zap.WarnLevel},
		},
		{
			name:             testExecutionRunnerErrorCaseNameConstant,
			runnerError:      errors.New(testRunnerFailureMessageConstant),
			expectErrorType:  execshell.CommandExecutionError{},
			expectedLogCount: 2,
			expectedLevels:   []zapcore.Level{zap.InfoLevel, zap.ErrorLevel},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			observerCore, observerLogs := observer.New(zap.DebugLevel)
			logger := zap.New(observerCore)

			recordingRunner := &recordingCommandRunner{
				executionResult: testCase.runnerResult,
				executionError:  testCase.runnerError,
			}

			shellExecutor, creationError := execshell.NewShellExecutor(logger, recordingRunner, false)
			require.NoError(testInstance, creationError)

			executionResult, executionError := shellExecutor.Execute(context.Background(), testCommand())

			if testCase.expectErrorType != nil {
				require.Error(testInstance, executionError)
				require.IsType(testInstance, testCase.expectErrorType, executionError)
				require.Empty(testInstance, executionResult.StandardOutput)
			} else {
				require.NoError(testInstance, executionError)
				require.Equal(testInstance, testCase.runnerResult.StandardOutput, executionResult.StandardOutput)
			}

			capturedLogs := observerLogs.All()
			require.Len(testInstance, capturedLogs, testCase.expectedLogCount)
			for logIndex := range capturedLogs {
				require.Equal(testInstance, testCase.expectedLevels[logIndex], capturedLogs[logIndex].Level)
			}
		})
	}
}

func TestShellExecutorHumanReadableLogging(testInstance *testing.T) {
	testCases := []struct {
		name             string
		runnerResult     execshell.ExecutionResult
		runnerError      error
		expectedMessages []string
		expectedLevels   []zapcore.Level
	}{
		{
			name:             testExecutionSuccessCaseNameConstant,
			runnerResult:     execshell.ExecutionResult{StandardOutput: "ok", ExitCode: 0},
			expectedMessages: []string{testStartedMessageConstant, testCompletedMessageConstant},
			expectedLevels:   []zapcore.Level{zap.InfoLevel, zap.InfoLevel},
		},
		{
			name:             testExecutionFailureCaseNameConstant,
			runnerResult:     execshell.ExecutionResult{StandardError: testStandardErrorOutputConstant, ExitCode: 1},
			expectedMessages: []string{testStartedMessageConstant, testFailedMessageConstant},
			expectedLevels:   []zapcore.Level{zap.InfoLevel, zap.WarnLevel},
		},
		{
			name:             testExecutionRunnerErrorCaseNameConstant,
			runnerError:      errors.New(testRunnerFailureMessageConstant),
			expectedMessages: []string{testStartedMessageConstant, testRunnerErrorMessageConstant},
			expectedLevels:   []zapcore.Level{zap.InfoLevel, zap.ErrorLevel},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			observerCore, observedLogs := observer.New(zap.InfoLevel)
			logger := zap.New(observerCore)

			recordingRunner := &recordingCommandRunner{
				executionResult: testCase.runnerResult,
				executionError:  testCase.runnerError,
			}

			shellExecutor, creationError := execshell.NewShellExecutor(logger, recordingRunner, true)
			require.NoError(testInstance, creationError)

			_, _ = shellExecutor.Execute(context.Background(), testCommand())

			capturedLogs := observedLogs.All()
			require.Len(testInstance, capturedLogs, len(testCase.expectedMessages))
			for logIndex := range capturedLogs {
				require.Equal(testInstance, testCase.expectedMessages[logIndex], capturedLogs[logIndex].Message)
				require.Equal(testInstance, testCase.expectedLevels[logIndex], capturedLogs[logIndex].Level)
			}
		})
	}
}

func TestCommandErrorsDescribeFailures(testInstance *testing.T) {
	failedError := execshell.CommandFailedError{
		Command: testCommand(),
		Result:  execshell.ExecutionResult{ExitCode: 2, StandardError: "line one\n\nline two\nline three\nline four"},
	}
	require.Equal(testInstance, "echo hello exited with code 2: line one | line two", failedError.Error())

	cause := errors.New(testRunnerFailureMessageConstant)
	executionError := execshell.CommandExecutionError{Command: testCommand(), Cause: cause}
	require.Equal(testInstance, "echo could not be executed: runner failure", executionError.Error())
	require.ErrorIs(testInstance, executionError, cause)
}

func TestShellExecutorExecuteArguments(testInstance *testing.T) {
	testCases := []struct {
		name            string
		argv            []string
		environment     map[string]string
		expectedError   error
		expectedCommand execshell.ShellCommand
	}{
		{
			name: "argv_split",
			argv: []string{testCommandNameConstant, testCommandArgumentConstant, "world"},
			expectedCommand: execshell.ShellCommand{
				Name: testCommandNameConstant,
				Details: execshell.CommandDetails{
					Arguments:        []string{testCommandArgumentConstant, "world"},
					WorkingDirectory: testWorkingDirectoryConstant,
				},
			},
		},
		{
			name:        "environment_overrides",
			argv:        []string{testCommandNameConstant},
			environment: map[string]string{"RELEASE_CHANNEL": "beta"},
			expectedCommand: execshell.ShellCommand{
				Name: testCommandNameConstant,
				Details: execshell.CommandDetails{
					WorkingDirectory:     testWorkingDirectoryConstant,
					EnvironmentVariables: map[string]string{"RELEASE_CHANNEL": "beta"},
				},
			},
		},
		{
			name:          "empty_argv",
			argv:          nil,
			expectedError: execshell.ErrCommandNameMissing,
		},
		{
			name:          "blank_command_name",
			argv:          []string{"  "},
			expectedError: execshell.ErrCommandNameMissing,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			recordingRunner := &recordingCommandRunner{}
			shellExecutor, creationError := execshell.NewShellExecutor(zap.NewNop(), recordingRunner, false)
			require.NoError(testInstance, creationError)

			_, executionError := shellExecutor.ExecuteArguments(context.Background(), testCase.argv, testWorkingDirectoryConstant, testCase.environment)
			if testCase.expectedError != nil {
				require.ErrorIs(testInstance, executionError, testCase.expectedError)
				require.Empty(testInstance, recordingRunner.recordedCommands)
				return
			}
			require.NoError(testInstance, executionError)
			require.Equal(testInstance, []execshell.ShellCommand{testCase.expectedCommand}, recordingRunner.recordedCommands)
		})
	}
}

func TestOSCommandRunnerCapturesOutputAndExitCode(testInstance *testing.T) {
	if runtime.GOOS == "windows" {
		testInstance.Skip("requires a POSIX shell")
	}

	runner := execshell.OSCommandRunner{}

	successResult, successError := runner.Run(context.Background(), execshell.ShellCommand{
		Name: "sh",
		Details: execshell.CommandDetails{
			Arguments:            []string{"-c", "printf '%s' \"$STEPTREE_TEST_VALUE\"; cat"},
			EnvironmentVariables: map[string]string{"STEPTREE_TEST_VALUE": "value-"},
			StandardInput:        []byte("stdin"),
		},
	})
	require.NoError(testInstance, successError)
	require.Equal(testInstance, 0, successResult.ExitCode)
	require.Equal(testInstance, "value-stdin", successResult.StandardOutput)

	failureResult, failureError := runner.Run(context.Background(), execshell.ShellCommand{
		Name:    "sh",
		Details: execshell.CommandDetails{Arguments: []string{"-c", "echo broken >&2; exit 3"}},
	})
	require.NoError(testInstance, failureError)
	require.Equal(testInstance, 3, failureResult.ExitCode)
	require.Equal(testInstance, "broken\n", failureResult.StandardError)

	_, missingError := runner.Run(context.Background(), execshell.ShellCommand{Name: "steptree-command-that-does-not-exist"})
	require.Error(testInstance, missingError)
}
