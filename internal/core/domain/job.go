package domain

// JobRequestLabel is the node label that marks a declarative job request.
const JobRequestLabel = "JobRequest"

// VirtualMachine holds the compute shape of a task.
type VirtualMachine struct {
	MinCores     string `yaml:"min_cores"`
	MinRAM       string `yaml:"min_ram"`
	BootDiskSize string `yaml:"boot_disk_size"`
	DiskSize     string `yaml:"disk_size"`
	Image        string `yaml:"image"`
}

// DsubConfig holds the batch-launcher settings of a task.
type DsubConfig struct {
	Provider             string            `yaml:"provider"`
	Regions              string            `yaml:"regions"`
	User                 string            `yaml:"user"`
	Logging              string            `yaml:"logging"`
	Script               string            `yaml:"script"`
	Network              string            `yaml:"network"`
	Subnetwork           string            `yaml:"subnetwork"`
	Preemptible          bool              `yaml:"preemptible"`
	Inputs               map[string]string `yaml:"inputs"`
	EnvironmentVariables map[string]string `yaml:"environment_variables"`
	Outputs              map[string]string `yaml:"outputs"`
	Labels               map[string]string `yaml:"labels"`
}

// TaskConfig is the declarative definition of a batch task, loaded from
// tasks/<name>.yaml with placeholders already resolved.
type TaskConfig struct {
	Name           string         `yaml:"name"`
	VirtualMachine VirtualMachine `yaml:"virtual_machine"`
	Dsub           DsubConfig     `yaml:"dsub"`
}

// JobSpec is a concrete job ready to hand to the batch backend.
type JobSpec struct {
	Task         TaskConfig
	JobRequestID string
	Project      string
	DryRun       bool
}

// JobHandle identifies a launched job.
type JobHandle struct {
	JobID string
}
