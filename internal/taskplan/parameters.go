package taskplan

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tyemirov/steptree/pkg/taskrunner"
)

const (
	parameterAssignmentSeparatorConstant = "="
	parameterAssignmentFormatTemplate    = "parameters must be in key=value format: %s"
	parameterKeyEmptyTemplate            = "parameter key cannot be empty (%s)"
	parameterNameEmptyMessage            = "parameter name cannot be empty"
	parameterNamePatternTemplate         = "parameter name %q must match %s"
	parameterFileReadTemplate            = "failed to read parameter file %q: %w"
	parameterFileParseTemplate           = "failed to parse parameter file %q: %w"
	parameterFileNameTemplate            = "invalid parameter name %q in %s: %w"
)

var parameterNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ParameterName identifies a run parameter or state key.
type ParameterName string

// NewParameterName normalizes and validates identifiers used for parameters and state keys.
// Names are template identifiers so they resolve as .Parameters.<name> and .State.<name>.
func NewParameterName(raw string) (ParameterName, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", errors.New(parameterNameEmptyMessage)
	}
	if !parameterNamePattern.MatchString(trimmed) {
		return "", fmt.Errorf(parameterNamePatternTemplate, trimmed, parameterNamePattern.String())
	}
	return ParameterName(trimmed), nil
}

// ParseParameterAssignments parses key=value pairs. The value is kept verbatim.
func ParseParameterAssignments(assignments []string) (map[string]string, error) {
	if len(assignments) == 0 {
		return nil, nil
	}

	result := make(map[string]string, len(assignments))
	for _, assignment := range assignments {
		trimmed := strings.TrimSpace(assignment)
		if len(trimmed) == 0 {
			continue
		}
		parts := strings.SplitN(trimmed, parameterAssignmentSeparatorConstant, 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf(parameterAssignmentFormatTemplate, assignment)
		}
		key := strings.TrimSpace(parts[0])
		if len(key) == 0 {
			return nil, fmt.Errorf(parameterKeyEmptyTemplate, assignment)
		}
		name, nameError := NewParameterName(key)
		if nameError != nil {
			return nil, nameError
		}
		result[string(name)] = parts[1]
	}

	if len(result) == 0 {
		return nil, nil
	}
	return result, nil
}

// LoadParameterFiles reads YAML mappings from paths; later files override earlier ones.
func LoadParameterFiles(paths []string) (map[string]string, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	combined := make(map[string]string)
	for _, rawPath := range paths {
		trimmed := strings.TrimSpace(rawPath)
		if len(trimmed) == 0 {
			continue
		}
		fileParameters, fileError := loadParameterFile(trimmed)
		if fileError != nil {
			return nil, fileError
		}
		for key, value := range fileParameters {
			combined[key] = value
		}
	}

	if len(combined) == 0 {
		return nil, nil
	}
	return combined, nil
}

// MergeParameters layers parameter maps; later layers win.
func MergeParameters(layers ...map[string]string) taskrunner.Parameters {
	merged := taskrunner.Parameters{}
	for _, layer := range layers {
		for key, value := range layer {
			merged[key] = value
		}
	}
	return merged
}

func loadParameterFile(path string) (map[string]string, error) {
	content, readError := os.ReadFile(path)
	if readError != nil {
		return nil, fmt.Errorf(parameterFileReadTemplate, path, readError)
	}

	var parsed map[string]any
	if unmarshalError := yaml.Unmarshal(content, &parsed); unmarshalError != nil {
		return nil, fmt.Errorf(parameterFileParseTemplate, path, unmarshalError)
	}

	result := make(map[string]string, len(parsed))
	for rawKey, value := range parsed {
		name, nameError := NewParameterName(rawKey)
		if nameError != nil {
			return nil, fmt.Errorf(parameterFileNameTemplate, rawKey, path, nameError)
		}
		result[string(name)] = stringifyParameterValue(value)
	}
	return result, nil
}

func stringifyParameterValue(value any) string {
	if value == nil {
		return ""
	}
	return fmt.Sprint(value)
}
