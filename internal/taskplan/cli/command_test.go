package cli_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tyemirov/steptree/internal/execshell"
	"github.com/tyemirov/steptree/internal/taskplan"
	"github.com/tyemirov/steptree/internal/taskplan/cli"
)

const (
	testPlanFileNameConstant = "plan.yaml"
	testWorkdirConstant      = "/srv/app"
	testPlanConstant         = `
parameters:
  target: staging
tasks:
  - title: "Deploy {{ .Parameters.target }}"
    run: ["deploy", "{{ .Parameters.target }}"]
  - title: Notify
    skip_unless: notify
    run: ["notify"]
  - title: Verify
    run: ["verify"]
`
)

type recordingCommandRunner struct {
	commands []execshell.ShellCommand
	exitCode map[execshell.CommandName]int
}

func (runner *recordingCommandRunner) Run(_ context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error) {
	runner.commands = append(runner.commands, command)
	return execshell.ExecutionResult{ExitCode: runner.exitCode[command.Name], StandardError: "failure detail"}, nil
}

func (runner *recordingCommandRunner) argv() [][]string {
	invocations := make([][]string, 0, len(runner.commands))
	for _, command := range runner.commands {
		invocations = append(invocations, append([]string{string(command.Name)}, command.Details.Arguments...))
	}
	return invocations
}

func writePlan(testInstance *testing.T, content string) string {
	testInstance.Helper()
	planPath := filepath.Join(testInstance.TempDir(), testPlanFileNameConstant)
	require.NoError(testInstance, os.WriteFile(planPath, []byte(content), 0o600))
	return planPath
}

func executeCommand(testInstance *testing.T, command *cobra.Command, arguments ...string) (string, error) {
	testInstance.Helper()
	output := &bytes.Buffer{}
	command.SetOut(output)
	command.SetErr(&bytes.Buffer{})
	command.SetContext(context.Background())
	command.SetArgs(append([]string{}, arguments...))
	executionError := command.Execute()
	return output.String(), executionError
}

func buildRunCommand(testInstance *testing.T, runner *recordingCommandRunner, progressWriter *bytes.Buffer, configuration taskplan.CommandConfiguration) *cobra.Command {
	testInstance.Helper()
	builder := cli.CommandBuilder{
		LoggerProvider:        func() *zap.Logger { return zap.NewNop() },
		ConfigurationProvider: func() taskplan.CommandConfiguration { return configuration },
		CommandRunner:         runner,
		ProgressWriter:        progressWriter,
	}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)
	return command
}

func TestRunCommandExecutesPlan(testInstance *testing.T) {
	planPath := writePlan(testInstance, testPlanConstant)
	runner := &recordingCommandRunner{}
	progressOutput := &bytes.Buffer{}
	configuration := taskplan.DefaultCommandConfiguration()
	configuration.WorkingDirectory = testWorkdirConstant

	output, executionError := executeCommand(testInstance, buildRunCommand(testInstance, runner, progressOutput, configuration),
		planPath, "--progress", "plain", "--param", "target=production",
	)
	require.NoError(testInstance, executionError)

	require.Equal(testInstance, [][]string{{"deploy", "production"}, {"verify"}}, runner.argv())
	for _, command := range runner.commands {
		require.Equal(testInstance, testWorkdirConstant, command.Details.WorkingDirectory)
	}
	require.Contains(testInstance, progressOutput.String(), "✔ Deploy production")
	require.Contains(testInstance, progressOutput.String(), "✔ Verify")
	require.NotContains(testInstance, progressOutput.String(), "Notify")
	require.True(testInstance, strings.HasPrefix(output, "Summary: total.steps=3 done=2 skipped=1 failed=0 "))
}

func TestRunCommandParameterLayering(testInstance *testing.T) {
	planPath := writePlan(testInstance, testPlanConstant)
	parameterFilePath := filepath.Join(testInstance.TempDir(), "parameters.yaml")
	require.NoError(testInstance, os.WriteFile(parameterFilePath, []byte("target: file\nnotify: yes\n"), 0o600))

	testCases := []struct {
		name           string
		configured     map[string]string
		arguments      []string
		expectedInvoke [][]string
	}{
		{
			name:           "plan_default",
			expectedInvoke: [][]string{{"deploy", "staging"}, {"verify"}},
		},
		{
			name:           "configuration_overrides_plan",
			configured:     map[string]string{"target": "configured"},
			expectedInvoke: [][]string{{"deploy", "configured"}, {"verify"}},
		},
		{
			name:           "parameter_file_overrides_configuration",
			configured:     map[string]string{"target": "configured"},
			arguments:      []string{"--param-file", parameterFilePath},
			expectedInvoke: [][]string{{"deploy", "file"}, {"notify"}, {"verify"}},
		},
		{
			name:           "flag_overrides_parameter_file",
			arguments:      []string{"--param-file", parameterFilePath, "-p", "target=flag"},
			expectedInvoke: [][]string{{"deploy", "flag"}, {"notify"}, {"verify"}},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			runner := &recordingCommandRunner{}
			configuration := taskplan.DefaultCommandConfiguration()
			configuration.Parameters = testCase.configured
			configuration.WorkingDirectory = testWorkdirConstant

			arguments := append([]string{planPath, "--progress", "none", "--summary=false"}, testCase.arguments...)
			output, executionError := executeCommand(testInstance, buildRunCommand(testInstance, runner, &bytes.Buffer{}, configuration), arguments...)
			require.NoError(testInstance, executionError)
			require.Empty(testInstance, output)
			require.Equal(testInstance, testCase.expectedInvoke, runner.argv())
		})
	}
}

func TestRunCommandStepFailures(testInstance *testing.T) {
	planPath := writePlan(testInstance, testPlanConstant)

	testCases := []struct {
		name          string
		arguments     []string
		expectedError string
	}{
		{
			name:          "fails_by_default",
			expectedError: "1 of 3 steps failed",
		},
		{
			name:      "failure_tolerated",
			arguments: []string{"--fail-on-step-failure=false"},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			runner := &recordingCommandRunner{exitCode: map[execshell.CommandName]int{"deploy": 2}}
			progressOutput := &bytes.Buffer{}
			configuration := taskplan.DefaultCommandConfiguration()
			configuration.WorkingDirectory = testWorkdirConstant

			arguments := append([]string{planPath, "--progress", "plain"}, testCase.arguments...)
			output, executionError := executeCommand(testInstance, buildRunCommand(testInstance, runner, progressOutput, configuration), arguments...)

			require.Equal(testInstance, [][]string{{"deploy", "staging"}, {"verify"}}, runner.argv())
			require.Contains(testInstance, progressOutput.String(), "✖ Deploy staging")
			require.Contains(testInstance, output, "failed=1")
			if len(testCase.expectedError) == 0 {
				require.NoError(testInstance, executionError)
				return
			}
			var failures cli.StepFailuresError
			require.ErrorAs(testInstance, executionError, &failures)
			require.EqualError(testInstance, executionError, testCase.expectedError)
		})
	}
}

func TestRunCommandLogProgress(testInstance *testing.T) {
	planPath := writePlan(testInstance, testPlanConstant)
	progressOutput := &bytes.Buffer{}
	configuration := taskplan.DefaultCommandConfiguration()
	configuration.Progress = "log"
	configuration.Summary = false
	configuration.WorkingDirectory = testWorkdirConstant

	_, executionError := executeCommand(testInstance, buildRunCommand(testInstance, &recordingCommandRunner{}, progressOutput, configuration), planPath)
	require.NoError(testInstance, executionError)

	logOutput := progressOutput.String()
	require.Contains(testInstance, logOutput, `"msg":"step started"`)
	require.Contains(testInstance, logOutput, `"step":"Deploy staging"`)
	require.Contains(testInstance, logOutput, `"msg":"step skipped"`)
}

func TestRunCommandRejectsInvalidInput(testInstance *testing.T) {
	validPlanPath := writePlan(testInstance, testPlanConstant)

	testCases := []struct {
		name          string
		arguments     []string
		expectedError string
	}{
		{name: "missing_plan_argument", arguments: nil, expectedError: "accepts 1 arg(s)"},
		{name: "missing_plan_file", arguments: []string{filepath.Join(testInstance.TempDir(), "absent.yaml")}, expectedError: "failed to read task plan"},
		{name: "unsupported_progress", arguments: []string{validPlanPath, "--progress", "fancy"}, expectedError: `unsupported progress mode "fancy"`},
		{name: "malformed_parameter", arguments: []string{validPlanPath, "--param", "novalue"}, expectedError: "novalue"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			runner := &recordingCommandRunner{}
			_, executionError := executeCommand(testInstance, buildRunCommand(testInstance, runner, &bytes.Buffer{}, taskplan.DefaultCommandConfiguration()), testCase.arguments...)
			require.ErrorContains(testInstance, executionError, testCase.expectedError)
			require.Empty(testInstance, runner.commands)
		})
	}
}

func TestValidateCommandPrintsOutline(testInstance *testing.T) {
	planPath := writePlan(testInstance, `
tasks:
  - title: Release
    children:
      - title: Tag
      - title: Push
  - title: Announce
`)
	command, buildError := cli.ValidateCommandBuilder{}.Build()
	require.NoError(testInstance, buildError)

	output, executionError := executeCommand(testInstance, command, planPath)
	require.NoError(testInstance, executionError)
	require.Equal(testInstance, "plan "+planPath+" is valid (4 tasks)\n  Release\n    Tag\n    Push\n  Announce\n", output)
}

func TestValidateCommandReportsProblems(testInstance *testing.T) {
	planPath := writePlan(testInstance, "tasks:\n  - run: [\"make\"]\n")
	command, buildError := cli.ValidateCommandBuilder{}.Build()
	require.NoError(testInstance, buildError)

	_, executionError := executeCommand(testInstance, command, planPath)
	var validationError taskplan.ValidationError
	require.ErrorAs(testInstance, executionError, &validationError)
	require.Equal(testInstance, "tasks[0]", validationError.Path)
}

func TestValidateCommandReportsTemplateSyntax(testInstance *testing.T) {
	planPath := writePlan(testInstance, "tasks:\n  - title: build\n    children:\n      - title: \"Hello {{ .Parameters.name\"\n        run: [\"true\"]\n")
	command, buildError := cli.ValidateCommandBuilder{}.Build()
	require.NoError(testInstance, buildError)

	output, executionError := executeCommand(testInstance, command, planPath)
	var validationError taskplan.ValidationError
	require.ErrorAs(testInstance, executionError, &validationError)
	require.Equal(testInstance, "tasks[0].children[0]", validationError.Path)
	require.Contains(testInstance, validationError.Reason, "title template is invalid")
	require.NotContains(testInstance, output, "is valid")
}
