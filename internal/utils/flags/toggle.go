package flags

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

const (
	toggleFlagTypeConstant          = "bool"
	toggleNoOptionDefaultConstant   = "true"
	invalidToggleValueTemplate      = "invalid toggle value %q"
	toggleFlagAlreadyDefinedMessage = "toggle flag already defined"
)

var errToggleFlagAlreadyDefined = errors.New(toggleFlagAlreadyDefinedMessage)

// toggleValue is a boolean flag value that also accepts yes/no and on/off.
type toggleValue struct {
	target *bool
}

func (value *toggleValue) String() string {
	if value.target == nil {
		return strconv.FormatBool(false)
	}
	return strconv.FormatBool(*value.target)
}

func (value *toggleValue) Set(raw string) error {
	parsed, parseError := parseToggleValue(raw)
	if parseError != nil {
		return parseError
	}
	*value.target = parsed
	return nil
}

func (value *toggleValue) Type() string {
	return toggleFlagTypeConstant
}

// IsBoolFlag lets pflag accept the bare flag as true.
func (value *toggleValue) IsBoolFlag() bool {
	return true
}

// AddToggleFlag defines a boolean flag accepting true/false, yes/no, on/off and 1/0. When
// target is nil the value is stored internally and read back with BoolFlag.
func AddToggleFlag(flagSet *pflag.FlagSet, target *bool, name string, shorthand string, defaultValue bool, usage string) error {
	if flagSet == nil || len(name) == 0 {
		return nil
	}
	if flagSet.Lookup(name) != nil {
		return errToggleFlagAlreadyDefined
	}
	if target == nil {
		target = new(bool)
	}
	*target = defaultValue

	flag := flagSet.VarPF(&toggleValue{target: target}, name, shorthand, usage)
	flag.NoOptDefVal = toggleNoOptionDefaultConstant
	return nil
}

func parseToggleValue(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "t", "true", "y", "yes", "on":
		return true, nil
	case "0", "f", "false", "n", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf(invalidToggleValueTemplate, raw)
	}
}
