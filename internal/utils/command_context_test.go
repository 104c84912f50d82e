package utils

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWithConfigurationFilePathStoresValue(t *testing.T) {
	accessor := NewCommandContextAccessor()
	enriched := accessor.WithConfigurationFilePath(context.Background(), "/etc/steptree/config.yaml")

	configurationFilePath, exists := accessor.ConfigurationFilePath(enriched)
	require.True(t, exists)
	require.Equal(t, "/etc/steptree/config.yaml", configurationFilePath)
}

func TestConfigurationFilePathHandlesMissingContext(t *testing.T) {
	accessor := NewCommandContextAccessor()

	_, exists := accessor.ConfigurationFilePath(context.Background())
	require.False(t, exists)
}

func TestWithRunFlagsStoresNormalizedValues(t *testing.T) {
	accessor := NewCommandContextAccessor()
	flags := RunFlags{Progress: " Plain ", ProgressSet: true, Summary: true, SummarySet: true}

	enriched := accessor.WithRunFlags(context.Background(), flags)

	retrieved, exists := accessor.RunFlags(enriched)
	require.True(t, exists)
	require.Equal(t, RunFlags{Progress: "plain", ProgressSet: true, Summary: true, SummarySet: true}, retrieved)
}

func TestWithRunFlagsHandlesMissingContext(t *testing.T) {
	accessor := NewCommandContextAccessor()

	_, exists := accessor.RunFlags(context.Background())
	require.False(t, exists)
}

func TestWithLogLevelSkipsBlankValues(t *testing.T) {
	accessor := NewCommandContextAccessor()
	base := context.Background()

	unchanged := accessor.WithLogLevel(base, "   ")
	_, exists := accessor.LogLevel(unchanged)
	require.False(t, exists)

	enriched := accessor.WithLogLevel(base, " debug ")
	logLevel, exists := accessor.LogLevel(enriched)
	require.True(t, exists)
	require.Equal(t, "debug", logLevel)
}
