package domain

// Environment identifies where the pipeline is running.
type Environment string

// Known environments.
const (
	// EnvironmentGoogleCloud publishes to Pub/Sub and patches GCS metadata.
	EnvironmentGoogleCloud Environment = "google-cloud"

	// EnvironmentLocal records messages in the local outbox instead of publishing.
	EnvironmentLocal Environment = "local"
)

// IsValid returns true if the environment is recognised.
func (e Environment) IsValid() bool {
	switch e {
	case EnvironmentGoogleCloud, EnvironmentLocal:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (e Environment) String() string {
	return string(e)
}

// LauncherSettings configures the job launcher.
type LauncherSettings struct {
	// Enabled launches jobs for real. When false dsub runs with --dry-run.
	Enabled bool

	// Binary is the dsub executable.
	Binary string

	// TaskDir holds the <task>.yaml definitions.
	TaskDir string

	User         string
	Regions      string
	LogBucket    string
	OutputBucket string
	Network      string
	Subnetwork   string
}

// StorageSettings configures the Google API clients.
type StorageSettings struct {
	// RequestsPerSecond is the sustained rate for storage and pubsub calls.
	RequestsPerSecond float64

	// Burst is the token bucket size.
	Burst int

	// CredentialsFile is an optional service account key file.
	CredentialsFile string
}

// Settings is the immutable runtime configuration. It is built once at
// startup and passed by value; request handling never mutates it.
type Settings struct {
	Environment      Environment
	FunctionName     string
	ProjectID        string
	TopicDBQuery     string
	TriggerOperation string
	PublishTo        []string
	DataDir          string
	RegistryFile     string
	TaxonomyFile     string
	Launcher         LauncherSettings
	Storage          StorageSettings
}

// DefaultSettings returns settings with sensible defaults.
func DefaultSettings() Settings {
	return Settings{
		Environment:  EnvironmentLocal,
		FunctionName: "trellis",
		TopicDBQuery: "TOPIC_DB_QUERY",
		PublishTo:    []string{"TOPIC_TRIGGERS"},
		Launcher: LauncherSettings{
			Binary:  "dsub",
			TaskDir: "tasks",
		},
		Storage: StorageSettings{
			RequestsPerSecond: 8.0,
			Burst:             10,
		},
	}
}

// Variables returns the settings values available to task configuration
// placeholders. Node properties take precedence over these.
func (s Settings) Variables() map[string]string {
	return map[string]string{
		"PROJECT_ID":         s.ProjectID,
		"DSUB_USER":          s.Launcher.User,
		"DSUB_REGIONS":       s.Launcher.Regions,
		"DSUB_LOG_BUCKET":    s.Launcher.LogBucket,
		"DSUB_OUTPUT_BUCKET": s.Launcher.OutputBucket,
	}
}
