package utils

import (
	"context"
	"strings"
)

const (
	configurationFilePathContextKeyConstant = commandContextKey("configurationFilePath")
	runFlagsContextKeyConstant              = commandContextKey("runFlags")
	logLevelContextKeyConstant              = commandContextKey("logLevel")
)

type commandContextKey string

// RunFlags captures run modifiers supplied on the command line. Each Set field records
// whether the user changed the corresponding flag, so configuration values are only
// overridden explicitly.
type RunFlags struct {
	Progress             string
	ProgressSet          bool
	Summary              bool
	SummarySet           bool
	FailOnStepFailure    bool
	FailOnStepFailureSet bool
}

// CommandContextAccessor manages values stored in command execution contexts.
type CommandContextAccessor struct{}

// NewCommandContextAccessor constructs a CommandContextAccessor instance.
func NewCommandContextAccessor() CommandContextAccessor {
	return CommandContextAccessor{}
}

// WithConfigurationFilePath attaches the configuration file path to the provided context.
func (accessor CommandContextAccessor) WithConfigurationFilePath(parentContext context.Context, configurationFilePath string) context.Context {
	if parentContext == nil {
		parentContext = context.Background()
	}
	return context.WithValue(parentContext, configurationFilePathContextKeyConstant, configurationFilePath)
}

// WithRunFlags attaches run flag values to the provided context.
func (accessor CommandContextAccessor) WithRunFlags(parentContext context.Context, flags RunFlags) context.Context {
	if parentContext == nil {
		parentContext = context.Background()
	}
	flags.Progress = strings.ToLower(strings.TrimSpace(flags.Progress))
	return context.WithValue(parentContext, runFlagsContextKeyConstant, flags)
}

// WithLogLevel attaches the effective log level to the provided context.
func (accessor CommandContextAccessor) WithLogLevel(parentContext context.Context, logLevel string) context.Context {
	if parentContext == nil {
		parentContext = context.Background()
	}
	trimmedLogLevel := strings.TrimSpace(logLevel)
	if len(trimmedLogLevel) == 0 {
		return parentContext
	}
	return context.WithValue(parentContext, logLevelContextKeyConstant, trimmedLogLevel)
}

// ConfigurationFilePath extracts the configuration file path from the provided context.
func (accessor CommandContextAccessor) ConfigurationFilePath(executionContext context.Context) (string, bool) {
	if executionContext == nil {
		return "", false
	}
	configurationFilePath, configurationFilePathAvailable := executionContext.Value(configurationFilePathContextKeyConstant).(string)
	if !configurationFilePathAvailable {
		return "", false
	}
	return configurationFilePath, true
}

// RunFlags extracts run flag values from the provided context.
func (accessor CommandContextAccessor) RunFlags(executionContext context.Context) (RunFlags, bool) {
	if executionContext == nil {
		return RunFlags{}, false
	}
	value, valueAvailable := executionContext.Value(runFlagsContextKeyConstant).(RunFlags)
	if !valueAvailable {
		return RunFlags{}, false
	}
	return value, true
}

// LogLevel extracts the effective log level from the provided context.
func (accessor CommandContextAccessor) LogLevel(executionContext context.Context) (string, bool) {
	if executionContext == nil {
		return "", false
	}
	value, valueAvailable := executionContext.Value(logLevelContextKeyConstant).(string)
	if !valueAvailable {
		return "", false
	}
	return value, true
}
