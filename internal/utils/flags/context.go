package flags

const (
	// ProgressFlagName selects the progress renderer.
	ProgressFlagName = "progress"
	// ProgressFlagUsage describes the progress flag.
	ProgressFlagUsage = "Progress renderer: spinner, plain, log or none"
	// SummaryFlagName toggles the closing summary line.
	SummaryFlagName = "summary"
	// SummaryFlagUsage describes the summary flag.
	SummaryFlagUsage = "Print a summary line after the run"
	// FailOnStepFailureFlagName toggles a non-zero exit status when any step failed.
	FailOnStepFailureFlagName = "fail-on-step-failure"
	// FailOnStepFailureFlagUsage describes the fail-on-step-failure flag.
	FailOnStepFailureFlagUsage = "Exit with an error when any step failed"
)

// RunFlagDefinition captures configuration for one run flag.
type RunFlagDefinition struct {
	Name      string
	Usage     string
	Shorthand string
	Enabled   bool
}

// RunFlagDefinitions groups run flag definitions.
type RunFlagDefinitions struct {
	Progress          RunFlagDefinition
	Summary           RunFlagDefinition
	FailOnStepFailure RunFlagDefinition
}

// DefaultRunFlagDefinitions enables every run flag with its standard name and usage.
func DefaultRunFlagDefinitions() RunFlagDefinitions {
	return RunFlagDefinitions{
		Progress:          RunFlagDefinition{Name: ProgressFlagName, Usage: ProgressFlagUsage, Enabled: true},
		Summary:           RunFlagDefinition{Name: SummaryFlagName, Usage: SummaryFlagUsage, Enabled: true},
		FailOnStepFailure: RunFlagDefinition{Name: FailOnStepFailureFlagName, Usage: FailOnStepFailureFlagUsage, Enabled: true},
	}
}
