package progress

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

const (
	doneSuffixTextConstant    = " Done "
	skippedSuffixTextConstant = " Skipped "
	successSymbolConstant     = "✔"
	failureSymbolConstant     = "✖"
	suspendedSymbolConstant   = "›"
	successColorConstant      = "2"
	failureColorConstant      = "1"
	spinnerColorConstant      = "6"
	skippedColorConstant      = "4"
)

// terminalStyles holds the lipgloss styles bound to the renderer of one output writer, so
// colour support follows the writer rather than standard output.
type terminalStyles struct {
	successSymbol lipgloss.Style
	failureSymbol lipgloss.Style
	spinnerFrame  lipgloss.Style
	doneSuffix    lipgloss.Style
	skippedSuffix lipgloss.Style
	failureText   lipgloss.Style
	suspended     lipgloss.Style
}

func newTerminalStyles(writer io.Writer) terminalStyles {
	renderer := lipgloss.NewRenderer(writer)
	return terminalStyles{
		successSymbol: renderer.NewStyle().Foreground(lipgloss.Color(successColorConstant)),
		failureSymbol: renderer.NewStyle().Foreground(lipgloss.Color(failureColorConstant)),
		spinnerFrame:  renderer.NewStyle().Foreground(lipgloss.Color(spinnerColorConstant)),
		doneSuffix:    renderer.NewStyle().Bold(true).Foreground(lipgloss.Color(successColorConstant)),
		skippedSuffix: renderer.NewStyle().Bold(true).Foreground(lipgloss.Color(skippedColorConstant)),
		failureText:   renderer.NewStyle().Foreground(lipgloss.Color(failureColorConstant)),
		suspended:     renderer.NewStyle().Faint(true),
	}
}
