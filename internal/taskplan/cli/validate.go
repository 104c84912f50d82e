package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tyemirov/steptree/internal/taskplan"
)

const (
	validateUseConstant              = "validate <plan.yaml>"
	validateShortDescriptionConstant = "Check a task plan without running it"
	validateLongDescriptionConstant  = "validate parses a YAML plan, reports the first structural problem and otherwise prints the task outline."
	validateOutlineIndentConstant    = "  "
	validateSuccessTemplateConstant  = "plan %s is valid (%d tasks)\n"
)

// ValidateCommandBuilder assembles the validate command.
type ValidateCommandBuilder struct{}

// Build constructs the validate command.
func (builder ValidateCommandBuilder) Build() (*cobra.Command, error) {
	return &cobra.Command{
		Use:   validateUseConstant,
		Short: validateShortDescriptionConstant,
		Long:  validateLongDescriptionConstant,
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			planPath := strings.TrimSpace(arguments[0])
			plan, planError := taskplan.LoadPlan(planPath)
			if planError != nil {
				return planError
			}

			output := command.OutOrStdout()
			if _, writeError := fmt.Fprintf(output, validateSuccessTemplateConstant, planPath, countDefinitions(plan.Tasks)); writeError != nil {
				return writeError
			}
			return writeOutline(command, plan.Tasks, 0)
		},
	}, nil
}

func writeOutline(command *cobra.Command, definitions []taskplan.TaskDefinition, depth int) error {
	for _, definition := range definitions {
		line := strings.Repeat(validateOutlineIndentConstant, depth+1) + strings.TrimSpace(definition.Title)
		if _, writeError := fmt.Fprintln(command.OutOrStdout(), line); writeError != nil {
			return writeError
		}
		if writeError := writeOutline(command, definition.Children, depth+1); writeError != nil {
			return writeError
		}
	}
	return nil
}

func countDefinitions(definitions []taskplan.TaskDefinition) int {
	total := len(definitions)
	for _, definition := range definitions {
		total += countDefinitions(definition.Children)
	}
	return total
}
