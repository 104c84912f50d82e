package taskplan

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/tyemirov/steptree/pkg/taskrunner"
)

const (
	templateDelimiterConstant     = "{{"
	templateMissingKeyOptionConst = "missingkey=error"
	templateDefaultFunctionName   = "default"
	templateJoinFunctionName      = "join"
	templateLowerFunctionName     = "lower"
	templateUpperFunctionName     = "upper"
	templateTrimFunctionName      = "trim"
)

// TemplateData is the value templates are executed against.
type TemplateData struct {
	Parameters map[string]string
	State      map[string]any
	Arguments  []any
}

func newTemplateData(parameters taskrunner.Parameters, state *taskrunner.State, arguments []any) TemplateData {
	data := TemplateData{
		Parameters: map[string]string(parameters),
		State:      map[string]any{},
		Arguments:  arguments,
	}
	if data.Parameters == nil {
		data.Parameters = map[string]string{}
	}
	if state != nil {
		data.State = state.Snapshot()
	}
	if data.Arguments == nil {
		data.Arguments = []any{}
	}
	return data
}

var templateFunctions = template.FuncMap{
	templateDefaultFunctionName: func(fallback string, value any) string {
		if value == nil {
			return fallback
		}
		if text, isText := value.(string); isText && len(text) == 0 {
			return fallback
		}
		return toString(value)
	},
	templateJoinFunctionName: func(separator string, values []any) string {
		parts := make([]string, 0, len(values))
		for _, value := range values {
			parts = append(parts, toString(value))
		}
		return strings.Join(parts, separator)
	},
	templateLowerFunctionName: strings.ToLower,
	templateUpperFunctionName: strings.ToUpper,
	templateTrimFunctionName:  strings.TrimSpace,
}

// isTemplate reports whether raw needs rendering.
func isTemplate(raw string) bool {
	return strings.Contains(raw, templateDelimiterConstant)
}

// renderTemplate executes raw against data. Text without template actions is returned as is.
func renderTemplate(name string, raw string, data TemplateData) (string, error) {
	if !isTemplate(raw) {
		return raw, nil
	}

	parsedTemplate, parseError := parseTemplate(name, raw)
	if parseError != nil {
		return "", parseError
	}

	var buffer bytes.Buffer
	if executeError := parsedTemplate.Execute(&buffer, data); executeError != nil {
		return "", executeError
	}
	return buffer.String(), nil
}

func parseTemplate(name string, raw string) (*template.Template, error) {
	return template.New(name).Option(templateMissingKeyOptionConst).Funcs(templateFunctions).Parse(raw)
}

// checkTemplate reports syntax errors in raw without executing it.
func checkTemplate(name string, raw string) error {
	if !isTemplate(raw) {
		return nil
	}
	_, parseError := parseTemplate(name, raw)
	return parseError
}

func renderTemplates(name string, raws []string, data TemplateData) ([]string, error) {
	rendered := make([]string, 0, len(raws))
	for _, raw := range raws {
		value, renderError := renderTemplate(name, raw, data)
		if renderError != nil {
			return nil, renderError
		}
		rendered = append(rendered, value)
	}
	return rendered, nil
}

func toString(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	default:
		return fmt.Sprint(typed)
	}
}
