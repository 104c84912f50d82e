package flags

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/tyemirov/steptree/internal/utils"
)

const boolFlagParseErrorTemplate = "unable to parse flag %q: %w"

// ErrFlagNotDefined indicates that the requested flag is not present on the command.
var ErrFlagNotDefined = errors.New("flag not defined")

func BoolFlag(command *cobra.Command, name string) (bool, bool, error) {
	flagSet, flag := locateFlag(command, name)
	if flag == nil {
		return false, false, ErrFlagNotDefined
	}
	value, err := flagSet.GetBool(name)
	if err == nil {
		return value, flag.Changed, nil
	}

	if flag.Value == nil {
		return false, false, err
	}

	parsedValue, parseError := parseToggleValue(flag.Value.String())
	if parseError != nil {
		return false, false, fmt.Errorf(boolFlagParseErrorTemplate, name, parseError)
	}

	return parsedValue, flag.Changed, nil
}

func StringFlag(command *cobra.Command, name string) (string, bool, error) {
	flagSet, flag := locateFlag(command, name)
	if flag == nil {
		return "", false, ErrFlagNotDefined
	}
	value, err := flagSet.GetString(name)
	if err != nil {
		return "", false, err
	}
	return value, flag.Changed, nil
}

func StringArrayFlag(command *cobra.Command, name string) ([]string, bool, error) {
	flagSet, flag := locateFlag(command, name)
	if flag == nil {
		return nil, false, ErrFlagNotDefined
	}
	values, err := flagSet.GetStringArray(name)
	if err != nil {
		return nil, false, err
	}
	return values, flag.Changed, nil
}

func locateFlag(command *cobra.Command, name string) (*pflag.FlagSet, *pflag.Flag) {
	if command == nil {
		return nil, nil
	}

	candidateSets := []*pflag.FlagSet{
		command.Flags(),
		command.PersistentFlags(),
		command.InheritedFlags(),
	}

	if root := command.Root(); root != nil {
		candidateSets = append(candidateSets, root.PersistentFlags())
	}

	for _, set := range candidateSets {
		if set == nil {
			continue
		}
		if flag := set.Lookup(name); flag != nil {
			return set, flag
		}
	}

	return nil, nil
}

// CollectRunFlags inspects the command's flags to produce run flag values.
func CollectRunFlags(command *cobra.Command) utils.RunFlags {
	runFlags := utils.RunFlags{}
	if command == nil {
		return runFlags
	}

	if progressValue, progressChanged, progressError := StringFlag(command, ProgressFlagName); progressError == nil {
		runFlags.Progress = progressValue
		runFlags.ProgressSet = progressChanged
	}

	if summaryValue, summaryChanged, summaryError := BoolFlag(command, SummaryFlagName); summaryError == nil {
		runFlags.Summary = summaryValue
		runFlags.SummarySet = summaryChanged
	}

	if failValue, failChanged, failError := BoolFlag(command, FailOnStepFailureFlagName); failError == nil {
		runFlags.FailOnStepFailure = failValue
		runFlags.FailOnStepFailureSet = failChanged
	}

	return runFlags
}

// ResolveRunFlags returns run flags from context or flag values, indicating whether any overrides are provided.
func ResolveRunFlags(command *cobra.Command) (utils.RunFlags, bool) {
	contextAccessor := utils.NewCommandContextAccessor()
	if command != nil {
		if flags, available := contextAccessor.RunFlags(command.Context()); available {
			return flags, true
		}
	}

	runFlags := CollectRunFlags(command)
	available := runFlags.ProgressSet || runFlags.SummarySet || runFlags.FailOnStepFailureSet
	return runFlags, available
}
