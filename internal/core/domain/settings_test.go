package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvironment_IsValid(t *testing.T) {
	tests := []struct {
		env      Environment
		expected bool
	}{
		{EnvironmentGoogleCloud, true},
		{EnvironmentLocal, true},
		{"", false},
		{"aws", false},
	}

	for _, tt := range tests {
		t.Run(tt.env.String(), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.env.IsValid())
		})
	}
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()

	assert.Equal(t, EnvironmentLocal, s.Environment)
	assert.Equal(t, "TOPIC_DB_QUERY", s.TopicDBQuery)
	assert.Equal(t, []string{"TOPIC_TRIGGERS"}, s.PublishTo)
	assert.False(t, s.Launcher.Enabled)
	assert.Equal(t, "dsub", s.Launcher.Binary)
	assert.Equal(t, "tasks", s.Launcher.TaskDir)
	assert.Equal(t, 8.0, s.Storage.RequestsPerSecond)
	assert.Equal(t, 10, s.Storage.Burst)
}

func TestSettings_Variables(t *testing.T) {
	s := DefaultSettings()
	s.ProjectID = "proj"
	s.Launcher.User = "trellis"
	s.Launcher.Regions = "us-west1"
	s.Launcher.LogBucket = "gs://logs"

	vars := s.Variables()

	assert.Equal(t, "proj", vars["PROJECT_ID"])
	assert.Equal(t, "trellis", vars["DSUB_USER"])
	assert.Equal(t, "us-west1", vars["DSUB_REGIONS"])
	assert.Equal(t, "gs://logs", vars["DSUB_LOG_BUCKET"])
	assert.Contains(t, vars, "DSUB_OUTPUT_BUCKET")
}
