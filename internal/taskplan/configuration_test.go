package taskplan_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tyemirov/steptree/internal/taskplan"
)

func TestParseProgressMode(testInstance *testing.T) {
	testCases := []struct {
		name          string
		input         string
		expectedMode  taskplan.ProgressMode
		expectedError string
	}{
		{name: "blank_defaults_to_spinner", input: "  ", expectedMode: taskplan.ProgressModeSpinner},
		{name: "case_insensitive", input: " Plain ", expectedMode: taskplan.ProgressModePlain},
		{name: "log", input: "log", expectedMode: taskplan.ProgressModeLog},
		{name: "none", input: "none", expectedMode: taskplan.ProgressModeNone},
		{name: "unsupported", input: "fancy", expectedError: `unsupported progress mode "fancy"`},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			mode, parseError := taskplan.ParseProgressMode(testCase.input)
			if len(testCase.expectedError) > 0 {
				require.ErrorContains(testInstance, parseError, testCase.expectedError)
				return
			}
			require.NoError(testInstance, parseError)
			require.Equal(testInstance, testCase.expectedMode, mode)
		})
	}
}

func TestCommandConfigurationSanitize(testInstance *testing.T) {
	sanitized := taskplan.CommandConfiguration{
		Progress:         " LOG ",
		WorkingDirectory: " /srv ",
		ParameterFiles:   []string{" a.yaml ", " "},
		Parameters:       map[string]string{" env ": "prod", " ": "ignored"},
	}.Sanitize()

	require.Equal(testInstance, "log", sanitized.Progress)
	require.Equal(testInstance, "/srv", sanitized.WorkingDirectory)
	require.Equal(testInstance, []string{"a.yaml"}, sanitized.ParameterFiles)
	require.Equal(testInstance, map[string]string{"env": "prod"}, sanitized.Parameters)

	require.Equal(testInstance, "spinner", taskplan.CommandConfiguration{}.Sanitize().Progress)
	require.True(testInstance, taskplan.DefaultCommandConfiguration().FailOnStepFailure)
}
