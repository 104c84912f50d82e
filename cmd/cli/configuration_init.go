package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	flagutils "github.com/tyemirov/steptree/internal/utils/flags"
)

const (
	initializationCommandUseConstant              = "init"
	initializationCommandShortDescriptionConstant = "Write the default configuration file"
	initializationCommandLongDescriptionConstant  = "init writes the embedded default configuration to ./config.yaml, or to $HOME/.steptree/config.yaml with --user."
	initializationUserFlagNameConstant            = "user"
	initializationUserFlagUsageConstant           = "Write the configuration into the user configuration directory"
	initializationForceFlagNameConstant           = "force"
	initializationForceFlagUsageConstant          = "Overwrite an existing configuration file"
	initializationWorkingDirectoryErrorTemplate   = "unable to determine working directory: %w"
	initializationHomeDirectoryErrorTemplate      = "unable to determine user home directory: %w"
	initializationContentUnavailableMessage       = "embedded configuration content is unavailable"
	initializationDirectoryErrorTemplate          = "unable to ensure configuration directory %s: %w"
	initializationExistingFileTemplate            = "configuration file already exists at %s (use --force to overwrite)"
	initializationExistingDirectoryTemplate       = "configuration path %s is a directory"
	initializationWriteErrorTemplate              = "unable to write configuration file %s: %w"
	initializationSuccessMessageConstant          = "configuration file created"
	initializationSuccessOutputTemplateConstant   = "configuration written to %s\n"
	initializationDirectoryPermissionConstant     = 0o755
	initializationFilePermissionConstant          = 0o600
)

// errInitializationContentUnavailable indicates the binary carries no default configuration.
var errInitializationContentUnavailable = errors.New(initializationContentUnavailableMessage)

type configurationInitializationBuilder struct {
	loggerProvider func() *zap.Logger
}

// Build constructs the init command.
func (builder configurationInitializationBuilder) Build() *cobra.Command {
	command := &cobra.Command{
		Use:   initializationCommandUseConstant,
		Short: initializationCommandShortDescriptionConstant,
		Long:  initializationCommandLongDescriptionConstant,
		Args:  cobra.NoArgs,
		RunE:  builder.run,
	}
	flagutils.AddToggleFlag(command.Flags(), nil, initializationUserFlagNameConstant, "", false, initializationUserFlagUsageConstant)
	flagutils.AddToggleFlag(command.Flags(), nil, initializationForceFlagNameConstant, "", false, initializationForceFlagUsageConstant)
	return command
}

func (builder configurationInitializationBuilder) run(command *cobra.Command, arguments []string) error {
	userScope, _, userFlagError := flagutils.BoolFlag(command, initializationUserFlagNameConstant)
	if userFlagError != nil {
		return userFlagError
	}
	force, _, forceFlagError := flagutils.BoolFlag(command, initializationForceFlagNameConstant)
	if forceFlagError != nil {
		return forceFlagError
	}

	directoryPath, directoryError := resolveInitializationDirectory(userScope)
	if directoryError != nil {
		return directoryError
	}

	configurationContent, _ := EmbeddedDefaultConfiguration()
	filePath, writeError := writeConfigurationFile(directoryPath, configurationContent, force)
	if writeError != nil {
		return writeError
	}

	if builder.loggerProvider != nil && builder.loggerProvider() != nil {
		builder.loggerProvider().Info(initializationSuccessMessageConstant, zap.String(configurationFileFieldConstant, filePath))
	}
	_, printError := fmt.Fprintf(command.OutOrStdout(), initializationSuccessOutputTemplateConstant, filePath)
	return printError
}

func resolveInitializationDirectory(userScope bool) (string, error) {
	if !userScope {
		workingDirectory, workingDirectoryError := os.Getwd()
		if workingDirectoryError != nil {
			return "", fmt.Errorf(initializationWorkingDirectoryErrorTemplate, workingDirectoryError)
		}
		return workingDirectory, nil
	}

	homeDirectory, homeError := os.UserHomeDir()
	if homeError != nil {
		return "", fmt.Errorf(initializationHomeDirectoryErrorTemplate, homeError)
	}
	return filepath.Join(homeDirectory, userConfigurationDirectoryNameConstant), nil
}

// writeConfigurationFile stores content as config.yaml inside directoryPath and returns the file path.
func writeConfigurationFile(directoryPath string, content []byte, force bool) (string, error) {
	if len(content) == 0 {
		return "", errInitializationContentUnavailable
	}

	trimmedDirectory := strings.TrimSpace(directoryPath)
	if createError := os.MkdirAll(trimmedDirectory, initializationDirectoryPermissionConstant); createError != nil {
		return "", fmt.Errorf(initializationDirectoryErrorTemplate, trimmedDirectory, createError)
	}

	filePath := filepath.Join(trimmedDirectory, configurationFileNameConstant)
	fileInfo, statError := os.Stat(filePath)
	switch {
	case statError == nil && fileInfo.IsDir():
		return "", fmt.Errorf(initializationExistingDirectoryTemplate, filePath)
	case statError == nil && !force:
		return "", fmt.Errorf(initializationExistingFileTemplate, filePath)
	case statError != nil && !errors.Is(statError, os.ErrNotExist):
		return "", fmt.Errorf(initializationWriteErrorTemplate, filePath, statError)
	}

	if writeError := os.WriteFile(filePath, content, initializationFilePermissionConstant); writeError != nil {
		return "", fmt.Errorf(initializationWriteErrorTemplate, filePath, writeError)
	}
	return filePath, nil
}
