package taskplan

import (
	"fmt"
	"strings"

	pathutils "github.com/tyemirov/steptree/internal/utils/path"
)

// ProgressMode selects how a run renders progress.
type ProgressMode string

// Supported progress modes.
const (
	ProgressModeSpinner ProgressMode = "spinner"
	ProgressModePlain   ProgressMode = "plain"
	ProgressModeLog     ProgressMode = "log"
	ProgressModeNone    ProgressMode = "none"
)

const unsupportedProgressModeTemplateConstant = "unsupported progress mode %q (expected spinner, plain, log or none)"

var configurationPathSanitizer = pathutils.NewPathSanitizer()

// ParseProgressMode normalizes raw into a ProgressMode. Blank input selects the spinner.
func ParseProgressMode(raw string) (ProgressMode, error) {
	normalized := ProgressMode(strings.ToLower(strings.TrimSpace(raw)))
	switch normalized {
	case "":
		return ProgressModeSpinner, nil
	case ProgressModeSpinner, ProgressModePlain, ProgressModeLog, ProgressModeNone:
		return normalized, nil
	default:
		return "", fmt.Errorf(unsupportedProgressModeTemplateConstant, raw)
	}
}

// CommandConfiguration captures persistent settings for the run command.
type CommandConfiguration struct {
	Progress          string            `mapstructure:"progress"`
	Summary           bool              `mapstructure:"summary"`
	FailOnStepFailure bool              `mapstructure:"fail_on_step_failure"`
	WorkingDirectory  string            `mapstructure:"working_directory"`
	ParameterFiles    []string          `mapstructure:"parameter_files"`
	Parameters        map[string]string `mapstructure:"parameters"`
}

// DefaultCommandConfiguration returns baseline configuration values for the run command.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		Progress:          string(ProgressModeSpinner),
		Summary:           true,
		FailOnStepFailure: true,
	}
}

// Sanitize trims whitespace and applies defaults to unset configuration values.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration

	sanitized.Progress = strings.ToLower(strings.TrimSpace(configuration.Progress))
	if len(sanitized.Progress) == 0 {
		sanitized.Progress = string(ProgressModeSpinner)
	}
	sanitized.WorkingDirectory = configurationPathSanitizer.SanitizePath(configuration.WorkingDirectory)
	sanitized.ParameterFiles = configurationPathSanitizer.Sanitize(configuration.ParameterFiles)

	sanitized.Parameters = make(map[string]string, len(configuration.Parameters))
	for name, value := range configuration.Parameters {
		if trimmed := strings.TrimSpace(name); len(trimmed) > 0 {
			sanitized.Parameters[trimmed] = value
		}
	}
	return sanitized
}
