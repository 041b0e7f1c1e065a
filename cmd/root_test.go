package cmd

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielolaszy/triage/internal/logging"
)

func TestRootCommandFlags(t *testing.T) {
	description := rootCmd.Flags().Lookup("description")
	require.NotNil(t, description)
	assert.Equal(t, "", description.DefValue)

	port := rootCmd.Flags().Lookup("port")
	require.NotNil(t, port)
	assert.Equal(t, "8000", port.DefValue)
}

func TestGithubCommandRegistered(t *testing.T) {
	found := false
	for _, c := range rootCmd.Commands() {
		if c.Name() == "github" {
			found = true

			repository := c.Flags().Lookup("repository")
			require.NotNil(t, repository)

			issue := c.Flags().Lookup("issue")
			require.NotNil(t, issue)
			assert.Equal(t, "0", issue.DefValue)
		}
	}
	assert.True(t, found, "github subcommand should be registered")
}

func TestLogLevelFromEnv(t *testing.T) {
	origEnv := os.Getenv("LOG_LEVEL")
	defer os.Setenv("LOG_LEVEL", origEnv)

	tests := []struct {
		name     string
		envValue string
		expected logging.LogLevel
	}{
		{name: "Empty defaults to info", envValue: "", expected: logging.LevelInfo},
		{name: "Debug", envValue: "debug", expected: logging.LevelDebug},
		{name: "Mixed case", envValue: "WARN", expected: logging.LevelWarn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, os.Setenv("LOG_LEVEL", tt.envValue))
			assert.Equal(t, tt.expected, logLevelFromEnv())
		})
	}
}
