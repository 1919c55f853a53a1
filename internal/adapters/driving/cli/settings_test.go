package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsCmd_HasSubcommands(t *testing.T) {
	names := make([]string, 0)
	for _, cmd := range settingsCmd.Commands() {
		names = append(names, cmd.Name())
	}

	assert.ElementsMatch(t, []string{"show", "set"}, names)
}

func TestSettingsShow(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	require.NoError(t, ts.config.Set("project_id", "trellis-test"))

	out, err := execute(t, "settings", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "Environment: local")
	assert.Contains(t, out, "Project:     trellis-test")
	assert.Contains(t, out, "Function:    trellis")
	assert.Contains(t, out, "Registry: (built-in)")
	assert.Contains(t, out, "Enabled:  false")
}

func TestSettingsShow_Invalid(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	require.NoError(t, ts.config.Set("environment", "mars"))

	_, err := execute(t, "settings")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get settings")
}

func TestSettingsSet(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "settings", "set", "launcher.enabled", "true")

	require.NoError(t, err)
	assert.Contains(t, out, "Set launcher.enabled = true")
	assert.True(t, ts.config.GetBool("launcher.enabled"))
}

func TestSettingsSet_WarnsWhenInvalid(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "settings", "set", "environment", "mars")

	require.NoError(t, err)
	assert.Contains(t, out, "Warning: settings are now invalid")
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected any
	}{
		{name: "bool", input: "true", expected: true},
		{name: "integer", input: "20", expected: int64(20)},
		{name: "float", input: "2.5", expected: 2.5},
		{name: "string", input: "my-project", expected: "my-project"},
		{name: "list", input: "TOPIC_A, TOPIC_B,", expected: []any{"TOPIC_A", "TOPIC_B"}},
		{name: "empty", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseValue(tt.input))
		})
	}
}
