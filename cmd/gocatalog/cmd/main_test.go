package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeConfig writes a config file with a catalog in a temp directory and
// points the --config flag at it for the duration of the test.
func writeConfig(t *testing.T, extra string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "gocatalog.yaml")
	content := "catalog:\n  path: " + filepath.Join(dir, "catalog.db") + "\n" +
		"logging:\n  level: error\n  output: stderr\n" + extra
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	original := cfgFile
	cfgFile = path
	t.Cleanup(func() { cfgFile = original })
	return path
}

func TestExecute(t *testing.T) {
	// Execute() calls os.Exit(1) on error, so only its presence is checked.
	assert.NotNil(t, Execute)
}

func TestVersionVariables(t *testing.T) {
	assert.NotEmpty(t, Version, "Version should not be empty")
	assert.NotEmpty(t, Commit, "Commit should not be empty")
}

func TestCLIFlagsVariables(t *testing.T) {
	assert.Equal(t, "gocatalog.yaml", cfgFile, "cfgFile should default to gocatalog.yaml")
	assert.Equal(t, "", logLevel)
	assert.Equal(t, "", logFormat)
	assert.Equal(t, "", catalogPath)
}

func TestCommandVariables(t *testing.T) {
	assert.False(t, tablesDeps)
	assert.Empty(t, extractParams)
	assert.Empty(t, syncTables)
	assert.False(t, syncForce)
	assert.False(t, syncStatus)
	assert.Equal(t, "", syncVerify)
	assert.Equal(t, "count", verifyMethod)
	assert.Empty(t, verifyTables)
	assert.False(t, validateConnect)
}

func TestSubcommandsRegistered(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"version", "init", "tables", "dependents", "extract", "sync", "verify", "validate"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}
