package progress_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/stretchr/testify/require"

	"github.com/tyemirov/steptree/pkg/progress"
)

const (
	testParentLabelConstant   = "prepare release"
	testChildLabelConstant    = "tag commit"
	testFailureTextConstant   = "permission denied"
	testClearSequenceConstant = "\r\x1b[K"
	testSpinnerFrameConstant  = "*"
)

func TestTerminalReporterPlainOutput(testInstance *testing.T) {
	testCases := []struct {
		name            string
		exercise        func(reporter progress.Reporter)
		expectedLines   []string
		forbiddenSubstr []string
	}{
		{
			name: "done_step",
			exercise: func(reporter progress.Reporter) {
				reporter.Begin(testChildLabelConstant)
				reporter.Done()
				reporter.Finalize()
			},
			expectedLines: []string{"✔ " + testChildLabelConstant},
		},
		{
			name: "failed_step",
			exercise: func(reporter progress.Reporter) {
				reporter.Begin(testChildLabelConstant)
				reporter.Failed(testFailureTextConstant)
				reporter.Finalize()
			},
			expectedLines: []string{"✖ " + testChildLabelConstant},
		},
		{
			name: "skipped_step",
			exercise: func(reporter progress.Reporter) {
				reporter.Begin(testChildLabelConstant)
				reporter.Skipped()
				reporter.Finalize()
			},
			forbiddenSubstr: []string{testChildLabelConstant},
		},
		{
			name: "unresolved_step",
			exercise: func(reporter progress.Reporter) {
				reporter.Begin(testChildLabelConstant)
				reporter.Finalize()
			},
			forbiddenSubstr: []string{testChildLabelConstant},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			buffer := &bytes.Buffer{}
			reporter := progress.NewTerminalReporter(buffer)
			testCase.exercise(reporter)

			output := buffer.String()
			require.NotContains(subTest, output, testClearSequenceConstant)
			for _, expectedLine := range testCase.expectedLines {
				require.Contains(subTest, output, expectedLine)
			}
			for _, forbidden := range testCase.forbiddenSubstr {
				require.NotContains(subTest, output, forbidden)
			}
		})
	}
}

func TestTerminalReporterFailureIncludesMessage(testInstance *testing.T) {
	buffer := &bytes.Buffer{}
	reporter := progress.NewTerminalReporter(buffer)

	reporter.Begin(testChildLabelConstant)
	reporter.Failed("  " + testFailureTextConstant + "\n")
	reporter.Finalize()

	output := buffer.String()
	require.Contains(testInstance, output, testFailureTextConstant)
	require.Equal(testInstance, 1, strings.Count(output, "\n"))
}

func TestTerminalReporterNestedScopes(testInstance *testing.T) {
	buffer := &bytes.Buffer{}
	reporter := progress.NewTerminalReporter(buffer, progress.WithIndentWidth(4))

	reporter.Begin(testParentLabelConstant)
	nested := reporter.Nested()
	nested.Begin(testChildLabelConstant)
	nested.Done()
	nested.Finalize()
	nested.Begin("second child")
	nested.Done()
	nested.Finalize()
	nested.Close()
	reporter.Done()
	reporter.Finalize()

	lines := strings.Split(strings.TrimSuffix(buffer.String(), "\n"), "\n")
	require.Len(testInstance, lines, 5)
	require.Contains(testInstance, lines[0], "› "+testParentLabelConstant)
	require.True(testInstance, strings.HasPrefix(lines[1], "    "))
	require.Contains(testInstance, lines[1], testChildLabelConstant)
	require.True(testInstance, strings.HasPrefix(lines[2], "    "))
	require.Contains(testInstance, lines[2], "second child")
	require.Equal(testInstance, "", lines[3])
	require.False(testInstance, strings.HasPrefix(lines[4], " "))
	require.Contains(testInstance, lines[4], "✔ "+testParentLabelConstant)
}

func TestTerminalReporterParentSuspendsOnce(testInstance *testing.T) {
	buffer := &bytes.Buffer{}
	reporter := progress.NewTerminalReporter(buffer)

	reporter.Begin(testParentLabelConstant)
	for iteration := 0; iteration < 2; iteration++ {
		nested := reporter.Nested()
		nested.Begin(testChildLabelConstant)
		nested.Done()
		nested.Finalize()
		nested.Close()
	}
	reporter.Done()
	reporter.Finalize()

	require.Equal(testInstance, 1, strings.Count(buffer.String(), "› "+testParentLabelConstant))
}

func TestTerminalReporterAnimatedOutput(testInstance *testing.T) {
	buffer := &bytes.Buffer{}
	reporter := progress.NewTerminalReporter(buffer,
		progress.WithAnimation(true),
		progress.WithSpinner(spinner.Spinner{Frames: []string{testSpinnerFrameConstant}, FPS: time.Hour}),
	)

	reporter.Begin(testChildLabelConstant)
	reporter.Done()
	reporter.Finalize()
	reporter.Begin("skipped step")
	reporter.Skipped()
	reporter.Finalize()

	output := buffer.String()
	require.Contains(testInstance, output, testClearSequenceConstant)
	require.Contains(testInstance, output, testSpinnerFrameConstant)
	require.Contains(testInstance, output, "✔ "+testChildLabelConstant)
	require.Contains(testInstance, output, "Skipped")
	require.True(testInstance, strings.HasSuffix(output, testClearSequenceConstant))
}

func TestNopReporterIgnoresEverything(testInstance *testing.T) {
	reporter := progress.NewNopReporter()
	require.NotPanics(testInstance, func() {
		reporter.Begin(testChildLabelConstant)
		nested := reporter.Nested()
		nested.Begin(testChildLabelConstant)
		nested.Failed(testFailureTextConstant)
		nested.Finalize()
		nested.Close()
		reporter.Skipped()
		reporter.Done()
		reporter.Finalize()
	})
}

func TestTerminalReporterSpinnerSelection(testInstance *testing.T) {
	testCases := []struct {
		name          string
		options       []progress.TerminalOption
		expectedFrame string
	}{
		{
			name:          "default_mini_dot",
			options:       []progress.TerminalOption{progress.WithFrameInterval(time.Hour)},
			expectedFrame: spinner.MiniDot.Frames[0],
		},
		{
			name:          "line_spinner",
			options:       []progress.TerminalOption{progress.WithSpinner(spinner.Line), progress.WithFrameInterval(time.Hour)},
			expectedFrame: spinner.Line.Frames[0],
		},
		{
			name:          "empty_spinner_ignored",
			options:       []progress.TerminalOption{progress.WithSpinner(spinner.Spinner{}), progress.WithFrameInterval(time.Hour)},
			expectedFrame: spinner.MiniDot.Frames[0],
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			buffer := &bytes.Buffer{}
			options := append([]progress.TerminalOption{progress.WithAnimation(true)}, testCase.options...)
			reporter := progress.NewTerminalReporter(buffer, options...)

			reporter.Begin(testChildLabelConstant)
			reporter.Done()
			reporter.Finalize()

			require.Contains(subTest, buffer.String(), testCase.expectedFrame+" "+testChildLabelConstant)
		})
	}
	require.Equal(testInstance, spinner.MiniDot.FPS, progress.DefaultSpinner.FPS)
}
