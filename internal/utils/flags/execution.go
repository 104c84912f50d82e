// Package flags provides helpers for binding standardized run flags to Cobra commands.
package flags

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// RunDefaults describes default flag values shared across commands.
type RunDefaults struct {
	Progress          string
	Summary           bool
	FailOnStepFailure bool
}

// BindRunFlags attaches standardized run flags to the provided command.
func BindRunFlags(command *cobra.Command, defaults RunDefaults, definitions RunFlagDefinitions) {
	if command == nil {
		return
	}

	flagSet := command.Flags()

	if definitions.Progress.Enabled && len(definitions.Progress.Name) > 0 && flagSet.Lookup(definitions.Progress.Name) == nil {
		flagSet.StringP(definitions.Progress.Name, definitions.Progress.Shorthand, defaults.Progress, definitions.Progress.Usage)
	}
	bindToggleFlag(flagSet, definitions.Summary, defaults.Summary)
	bindToggleFlag(flagSet, definitions.FailOnStepFailure, defaults.FailOnStepFailure)
}

func bindToggleFlag(flagSet *pflag.FlagSet, definition RunFlagDefinition, defaultValue bool) {
	if flagSet == nil {
		return
	}
	if !definition.Enabled {
		return
	}
	if len(definition.Name) == 0 {
		return
	}

	AddToggleFlag(flagSet, nil, definition.Name, definition.Shorthand, defaultValue, definition.Usage)
}
