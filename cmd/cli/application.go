package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/tyemirov/steptree/internal/execshell"
	"github.com/tyemirov/steptree/internal/taskplan"
	plancli "github.com/tyemirov/steptree/internal/taskplan/cli"
	"github.com/tyemirov/steptree/internal/utils"
	flagutils "github.com/tyemirov/steptree/internal/utils/flags"
	"github.com/tyemirov/steptree/internal/version"
)

const (
	applicationNameConstant                            = "steptree"
	applicationShortDescriptionConstant                = "Run nested task plans with live progress"
	applicationLongDescriptionConstant                 = "steptree executes trees of titled steps described in YAML plans, rendering nested spinner progress and a closing summary."
	configFileFlagNameConstant                         = "config"
	configFileFlagUsageConstant                        = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                           = "log-level"
	logLevelFlagUsageConstant                          = "Override the configured log level."
	logFormatFlagNameConstant                          = "log-format"
	logFormatFlagUsageConstant                         = "Override the configured log format (structured or console)."
	versionFlagNameConstant                            = "version"
	versionFlagUsageConstant                           = "Print the application version and exit"
	versionOutputTemplateConstant                      = "steptree version: %s\n"
	versionCommandUseNameConstant                      = "version"
	versionCommandShortDescriptionConstant             = "Print the steptree version"
	commonLogLevelConfigKeyConstant                    = "common.log_level"
	commonLogFormatConfigKeyConstant                   = "common.log_format"
	runProgressConfigKeyConstant                       = "run.progress"
	runSummaryConfigKeyConstant                        = "run.summary"
	runFailOnStepFailureConfigKeyConstant              = "run.fail_on_step_failure"
	environmentPrefixConstant                          = "STEPTREE"
	configurationNameConstant                          = "config"
	configurationTypeConstant                          = "yaml"
	configurationFileNameConstant                      = configurationNameConstant + "." + configurationTypeConstant
	defaultConfigurationSearchPathConstant             = "."
	userConfigurationDirectoryNameConstant             = ".steptree"
	configurationSearchPathEnvironmentVariableConstant = "STEPTREE_CONFIG_SEARCH_PATH"
	xdgConfigHomeEnvironmentVariableConstant           = "XDG_CONFIG_HOME"
	configurationLoadErrorTemplateConstant             = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant                = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant                    = "unable to flush logger: %w"
	configurationInitializedMessageConstant            = "configuration initialized"
	configurationInitializedConsoleTemplateConstant    = "%s | log level=%s | log format=%s | config file=%s"
	configurationLogLevelFieldConstant                 = "log_level"
	configurationLogFormatFieldConstant                = "log_format"
	configurationFileFieldConstant                     = "config_file"
)

type loggerOutputsFactory interface {
	CreateLoggerOutputs(utils.LogLevel, utils.LogFormat) (utils.LoggerOutputs, error)
}

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand            *cobra.Command
	configurationLoader    *utils.ConfigurationLoader
	loggerFactory          loggerOutputsFactory
	logger                 *zap.Logger
	consoleLogger          *zap.Logger
	configuration          ApplicationConfiguration
	configurationMetadata  utils.LoadedConfiguration
	configurationFilePath  string
	logLevelFlagValue      string
	logFormatFlagValue     string
	commandContextAccessor utils.CommandContextAccessor
	versionFlag            bool
	versionResolver        func(context.Context) string
	exitFunction           func(int)
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() *Application {
	application := &Application{
		loggerFactory:          utils.NewLoggerFactory(),
		logger:                 zap.NewNop(),
		consoleLogger:          zap.NewNop(),
		commandContextAccessor: utils.NewCommandContextAccessor(),
		exitFunction:           os.Exit,
	}
	application.versionResolver = application.resolveVersion

	application.configurationLoader = utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		resolveConfigurationSearchPaths(),
	)
	embeddedConfigurationData, embeddedConfigurationType := EmbeddedDefaultConfiguration()
	application.configurationLoader.SetEmbeddedConfiguration(embeddedConfigurationData, embeddedConfigurationType)

	cobraCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			if initializationError := application.initializeConfiguration(command); initializationError != nil {
				return initializationError
			}
			if application.versionFlag {
				application.printVersion(command)
				application.exitFunction(0)
			}
			return nil
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			if application.versionFlag {
				return nil
			}
			return command.Help()
		},
	}

	cobraCommand.SetContext(context.Background())
	cobraCommand.PersistentFlags().StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", logLevelFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logFormatFlagValue, logFormatFlagNameConstant, "", logFormatFlagUsageConstant)
	cobraCommand.PersistentFlags().BoolVar(&application.versionFlag, versionFlagNameConstant, false, versionFlagUsageConstant)

	cobraCommand.AddCommand(&cobra.Command{
		Use:   versionCommandUseNameConstant,
		Short: versionCommandShortDescriptionConstant,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			application.printVersion(command)
			return nil
		},
	})

	runBuilder := plancli.CommandBuilder{
		LoggerProvider: func() *zap.Logger {
			return application.logger
		},
		HumanReadableLoggingProvider: application.humanReadableLoggingEnabled,
		ConfigurationProvider: func() taskplan.CommandConfiguration {
			return application.configuration.Run
		},
	}
	if runCommand, buildError := runBuilder.Build(); buildError == nil {
		cobraCommand.AddCommand(runCommand)
	}

	if validateCommand, buildError := (plancli.ValidateCommandBuilder{}).Build(); buildError == nil {
		cobraCommand.AddCommand(validateCommand)
	}

	initializationBuilder := configurationInitializationBuilder{
		loggerProvider: func() *zap.Logger {
			return application.logger
		},
	}
	cobraCommand.AddCommand(initializationBuilder.Build())

	application.rootCommand = cobraCommand
	return application
}

// Execute runs the root command with the process arguments.
func (application *Application) Execute() error {
	return application.ExecuteArguments(os.Args[1:])
}

// ExecuteArguments runs the root command with arguments and flushes the loggers afterwards.
func (application *Application) ExecuteArguments(arguments []string) error {
	application.rootCommand.SetArgs(append([]string{}, arguments...))

	executionError := application.rootCommand.Execute()
	if syncError := application.flushLogger(); syncError != nil && executionError == nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// SetOutputs redirects command output and error streams.
func (application *Application) SetOutputs(output io.Writer, errorOutput io.Writer) {
	application.rootCommand.SetOut(output)
	application.rootCommand.SetErr(errorOutput)
}

// Execute builds and runs the application.
func Execute() error {
	return NewApplication().Execute()
}

// InitializeForCommand prepares application state for the provided command name without executing command logic.
func (application *Application) InitializeForCommand(commandUse string) error {
	command := &cobra.Command{Use: commandUse}
	return application.initializeConfiguration(command)
}

// Configuration returns the effective configuration after initialization.
func (application *Application) Configuration() ApplicationConfiguration {
	return application.configuration
}

// ConfigFileUsed returns the configuration file path used during initialization.
func (application *Application) ConfigFileUsed() string {
	return application.configurationMetadata.ConfigFileUsed
}

func resolveConfigurationSearchPaths() []string {
	overrideValue := strings.TrimSpace(os.Getenv(configurationSearchPathEnvironmentVariableConstant))
	if len(overrideValue) == 0 {
		return append([]string{defaultConfigurationSearchPathConstant}, resolveUserConfigurationDirectoryPaths()...)
	}

	cleanedPaths := make([]string, 0)
	for _, pathCandidate := range filepath.SplitList(overrideValue) {
		if trimmedCandidate := strings.TrimSpace(pathCandidate); len(trimmedCandidate) > 0 {
			cleanedPaths = append(cleanedPaths, trimmedCandidate)
		}
	}
	if len(cleanedPaths) == 0 {
		return []string{defaultConfigurationSearchPathConstant}
	}
	return cleanedPaths
}

func resolveUserConfigurationDirectoryPaths() []string {
	directoryPaths := make([]string, 0, 3)
	appendDirectory := func(baseDirectoryPath string) {
		trimmedBase := strings.TrimSpace(baseDirectoryPath)
		if len(trimmedBase) == 0 {
			return
		}
		candidate := filepath.Join(trimmedBase, userConfigurationDirectoryNameConstant)
		for _, existing := range directoryPaths {
			if existing == candidate {
				return
			}
		}
		directoryPaths = append(directoryPaths, candidate)
	}

	appendDirectory(os.Getenv(xdgConfigHomeEnvironmentVariableConstant))
	if userConfigurationDirectory, directoryError := os.UserConfigDir(); directoryError == nil {
		appendDirectory(userConfigurationDirectory)
	}
	if userHomeDirectory, homeError := os.UserHomeDir(); homeError == nil {
		appendDirectory(userHomeDirectory)
	}
	return directoryPaths
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	defaults := taskplan.DefaultCommandConfiguration()
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:       string(utils.LogLevelError),
		commonLogFormatConfigKeyConstant:      string(utils.LogFormatStructured),
		runProgressConfigKeyConstant:          defaults.Progress,
		runSummaryConfigKeyConstant:           defaults.Summary,
		runFailOnStepFailureConfigKeyConstant: defaults.FailOnStepFailure,
	}

	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultValues, &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}
	application.configurationMetadata = loadedConfiguration

	if persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}
	if persistentFlagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}

	loggerOutputs, loggerCreationError := application.loggerFactory.CreateLoggerOutputs(
		utils.LogLevel(application.configuration.Common.LogLevel),
		utils.LogFormat(application.configuration.Common.LogFormat),
	)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}
	application.logger = loggerOutputs.DiagnosticLogger
	if application.logger == nil {
		application.logger = zap.NewNop()
	}
	application.consoleLogger = loggerOutputs.ConsoleLogger
	if application.consoleLogger == nil {
		application.consoleLogger = zap.NewNop()
	}

	application.logConfigurationInitialization()

	if command != nil {
		updatedContext := application.commandContextAccessor.WithConfigurationFilePath(command.Context(), application.configurationMetadata.ConfigFileUsed)
		updatedContext = application.commandContextAccessor.WithRunFlags(updatedContext, flagutils.CollectRunFlags(command))
		updatedContext = application.commandContextAccessor.WithLogLevel(updatedContext, application.configuration.Common.LogLevel)
		command.SetContext(updatedContext)
	}
	return nil
}

func (application *Application) humanReadableLoggingEnabled() bool {
	return strings.EqualFold(strings.TrimSpace(application.configuration.Common.LogFormat), string(utils.LogFormatConsole))
}

func (application *Application) logConfigurationInitialization() {
	if !strings.EqualFold(strings.TrimSpace(application.configuration.Common.LogLevel), string(utils.LogLevelDebug)) {
		return
	}

	if application.humanReadableLoggingEnabled() {
		application.consoleLogger.Debug(fmt.Sprintf(
			configurationInitializedConsoleTemplateConstant,
			configurationInitializedMessageConstant,
			application.configuration.Common.LogLevel,
			application.configuration.Common.LogFormat,
			application.configurationMetadata.ConfigFileUsed,
		))
		return
	}

	application.logger.Debug(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
	)
}

func (application *Application) resolveVersion(executionContext context.Context) string {
	dependencies := version.Dependencies{}
	if shellExecutor, executorError := execshell.NewShellExecutor(application.logger, execshell.OSCommandRunner{}, application.humanReadableLoggingEnabled()); executorError == nil {
		dependencies.CommandExecutor = shellExecutor
	}
	return strings.TrimSpace(version.Detect(executionContext, dependencies))
}

func (application *Application) printVersion(command *cobra.Command) {
	fmt.Fprintf(command.OutOrStdout(), versionOutputTemplateConstant, application.versionResolver(command.Context()))
}

func (application *Application) flushLogger() error {
	if syncError := syncLoggerInstance(application.logger); syncError != nil {
		return syncError
	}
	return syncLoggerInstance(application.consoleLogger)
}

func syncLoggerInstance(logger *zap.Logger) error {
	if logger == nil {
		return nil
	}

	syncError := logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	case errors.Is(syncError, syscall.EBADF):
		return nil
	case errors.Is(syncError, syscall.ENOTTY):
		return nil
	default:
		return syncError
	}
}

func persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.PersistentFlags(),
		command.InheritedFlags(),
	}
	if rootCommand := command.Root(); rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet != nil && flagSet.Changed(flagName) {
			return true
		}
	}
	return false
}
