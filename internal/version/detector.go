// Package version resolves the steptree release identifier.
package version

import (
	"context"
	"os"
	"runtime/debug"
	"strings"

	"go.uber.org/zap"

	"github.com/tyemirov/steptree/internal/execshell"
)

const (
	unknownVersionConstant            = "unknown"
	develBuildVersionConstant         = "devel"
	gitCommandNameConstant            = "git"
	gitPromptEnvironmentNameConstant  = "GIT_TERMINAL_PROMPT"
	gitPromptEnvironmentValueConstant = "0"
)

// linkedVersion is set at build time with -ldflags "-X github.com/tyemirov/steptree/internal/version.linkedVersion=v1.0.0".
var linkedVersion string

var (
	exactTagArguments     = []string{"describe", "--tags", "--exact-match"}
	describedTagArguments = []string{"describe", "--tags", "--long", "--dirty"}
)

// BuildInfoProvider exposes runtime build metadata.
type BuildInfoProvider interface {
	Read() (*debug.BuildInfo, bool)
}

// CommandExecutor runs git when build metadata carries no release.
type CommandExecutor interface {
	Execute(executionContext context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error)
}

// Dependencies configures a Detector. Zero values select the runtime defaults.
type Dependencies struct {
	LinkedVersion     string
	BuildInfoProvider BuildInfoProvider
	CommandExecutor   CommandExecutor
	WorkingDirectory  string
}

// Detector resolves version strings from, in order, the linker, build info and git tags.
type Detector struct {
	linkedVersion     string
	buildInfoProvider BuildInfoProvider
	commandExecutor   CommandExecutor
	workingDirectory  string
}

// NewDetector constructs a Detector.
func NewDetector(dependencies Dependencies) (*Detector, error) {
	detector := &Detector{
		linkedVersion:     strings.TrimSpace(dependencies.LinkedVersion),
		buildInfoProvider: dependencies.BuildInfoProvider,
		commandExecutor:   dependencies.CommandExecutor,
		workingDirectory:  strings.TrimSpace(dependencies.WorkingDirectory),
	}
	if len(detector.linkedVersion) == 0 {
		detector.linkedVersion = strings.TrimSpace(linkedVersion)
	}
	if detector.buildInfoProvider == nil {
		detector.buildInfoProvider = runtimeBuildInfoProvider{}
	}
	if detector.commandExecutor == nil {
		shellExecutor, executorError := execshell.NewShellExecutor(zap.NewNop(), execshell.OSCommandRunner{}, false)
		if executorError != nil {
			return nil, executorError
		}
		detector.commandExecutor = shellExecutor
	}
	if len(detector.workingDirectory) == 0 {
		if currentDirectory, directoryError := os.Getwd(); directoryError == nil {
			detector.workingDirectory = currentDirectory
		}
	}
	return detector, nil
}

// Detect resolves the version with a Detector built from dependencies.
func Detect(executionContext context.Context, dependencies Dependencies) string {
	detector, detectorError := NewDetector(dependencies)
	if detectorError != nil {
		return unknownVersionConstant
	}
	return detector.Version(executionContext)
}

// Version returns the first version source that yields a value, or "unknown".
func (detector *Detector) Version(executionContext context.Context) string {
	if detector == nil {
		return unknownVersionConstant
	}
	if len(detector.linkedVersion) > 0 {
		return detector.linkedVersion
	}
	if buildVersion := detector.versionFromBuildInfo(); len(buildVersion) > 0 {
		return buildVersion
	}
	for _, arguments := range [][]string{exactTagArguments, describedTagArguments} {
		if described := detector.describe(executionContext, arguments); len(described) > 0 {
			return described
		}
	}
	return unknownVersionConstant
}

func (detector *Detector) versionFromBuildInfo() string {
	buildInfo, available := detector.buildInfoProvider.Read()
	if !available || buildInfo == nil {
		return ""
	}
	mainVersion := strings.TrimSpace(buildInfo.Main.Version)
	if strings.EqualFold(strings.Trim(mainVersion, "()"), develBuildVersionConstant) {
		return ""
	}
	return mainVersion
}

func (detector *Detector) describe(executionContext context.Context, arguments []string) string {
	if len(detector.workingDirectory) == 0 {
		return ""
	}
	command := execshell.ShellCommand{
		Name: gitCommandNameConstant,
		Details: execshell.CommandDetails{
			Arguments:            arguments,
			WorkingDirectory:     detector.workingDirectory,
			EnvironmentVariables: map[string]string{gitPromptEnvironmentNameConstant: gitPromptEnvironmentValueConstant},
		},
	}
	result, executionError := detector.commandExecutor.Execute(executionContext, command)
	if executionError != nil {
		return ""
	}
	return strings.TrimSpace(result.StandardOutput)
}

type runtimeBuildInfoProvider struct{}

func (runtimeBuildInfoProvider) Read() (*debug.BuildInfo, bool) {
	return debug.ReadBuildInfo()
}
