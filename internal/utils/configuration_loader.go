package utils

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const (
	environmentKeySeparatorConstant        = "_"
	configurationKeySeparatorConstant      = "."
	embeddedConfigurationReadErrorTemplate = "unable to read embedded configuration: %w"
	configurationFileReadErrorTemplate     = "unable to read configuration file %s: %w"
	configurationSearchErrorTemplate       = "unable to read configuration: %w"
	configurationDecodeErrorTemplate       = "unable to decode configuration: %w"
	configurationTargetMissingMessage      = "configuration target not provided"
	configurationSliceSeparatorConstant    = ","
)

// ErrConfigurationTargetMissing indicates LoadConfiguration was called without a destination.
var ErrConfigurationTargetMissing = errors.New(configurationTargetMissingMessage)

// LoadedConfiguration describes where the configuration came from.
type LoadedConfiguration struct {
	ConfigFileUsed string
}

// ConfigurationLoader layers defaults, embedded configuration, a configuration file and
// environment variables, in increasing order of precedence.
type ConfigurationLoader struct {
	configurationName     string
	configurationType     string
	environmentPrefix     string
	searchPaths           []string
	embeddedConfiguration []byte
	embeddedType          string
}

// NewConfigurationLoader constructs a loader. Search paths are consulted in order when no
// explicit configuration file is requested.
func NewConfigurationLoader(configurationName string, configurationType string, environmentPrefix string, searchPaths []string) *ConfigurationLoader {
	return &ConfigurationLoader{
		configurationName: configurationName,
		configurationType: configurationType,
		environmentPrefix: environmentPrefix,
		searchPaths:       append([]string(nil), searchPaths...),
	}
}

// SetEmbeddedConfiguration registers configuration compiled into the binary.
func (loader *ConfigurationLoader) SetEmbeddedConfiguration(data []byte, configurationType string) {
	loader.embeddedConfiguration = append([]byte(nil), data...)
	loader.embeddedType = configurationType
}

// LoadConfiguration decodes the layered configuration into target.
func (loader *ConfigurationLoader) LoadConfiguration(configurationFilePath string, defaultValues map[string]any, target any) (LoadedConfiguration, error) {
	if target == nil {
		return LoadedConfiguration{}, ErrConfigurationTargetMissing
	}

	configurationReader := viper.New()
	configurationReader.SetConfigType(loader.configurationType)
	for key, value := range defaultValues {
		configurationReader.SetDefault(key, value)
	}

	if len(loader.embeddedConfiguration) > 0 {
		embeddedType := loader.embeddedType
		if len(embeddedType) == 0 {
			embeddedType = loader.configurationType
		}
		configurationReader.SetConfigType(embeddedType)
		if readError := configurationReader.ReadConfig(bytes.NewReader(loader.embeddedConfiguration)); readError != nil {
			return LoadedConfiguration{}, fmt.Errorf(embeddedConfigurationReadErrorTemplate, readError)
		}
		configurationReader.SetConfigType(loader.configurationType)
	}

	trimmedFilePath := strings.TrimSpace(configurationFilePath)
	if len(trimmedFilePath) > 0 {
		configurationReader.SetConfigFile(trimmedFilePath)
		if mergeError := configurationReader.MergeInConfig(); mergeError != nil {
			return LoadedConfiguration{}, fmt.Errorf(configurationFileReadErrorTemplate, trimmedFilePath, mergeError)
		}
	} else if len(loader.searchPaths) > 0 {
		configurationReader.SetConfigName(loader.configurationName)
		for _, searchPath := range loader.searchPaths {
			configurationReader.AddConfigPath(searchPath)
		}
		if mergeError := configurationReader.MergeInConfig(); mergeError != nil {
			var notFoundError viper.ConfigFileNotFoundError
			if !errors.As(mergeError, &notFoundError) {
				return LoadedConfiguration{}, fmt.Errorf(configurationSearchErrorTemplate, mergeError)
			}
		}
	}

	if len(loader.environmentPrefix) > 0 {
		configurationReader.SetEnvPrefix(loader.environmentPrefix)
	}
	configurationReader.SetEnvKeyReplacer(strings.NewReplacer(configurationKeySeparatorConstant, environmentKeySeparatorConstant))
	configurationReader.AutomaticEnv()

	decodeError := configurationReader.Unmarshal(target, func(decoderConfiguration *mapstructure.DecoderConfig) {
		decoderConfiguration.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(configurationSliceSeparatorConstant),
		)
	})
	if decodeError != nil {
		return LoadedConfiguration{}, fmt.Errorf(configurationDecodeErrorTemplate, decodeError)
	}

	return LoadedConfiguration{ConfigFileUsed: configurationReader.ConfigFileUsed()}, nil
}
