package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/trellis/internal/core/domain"
)

// RenderDsubArgs converts a job spec into the dsub argument list.
// Fixed arguments come first in a stable order, followed by the repeated
// --input, --env, --output and --label pairs in sorted key order.
func RenderDsubArgs(spec domain.JobSpec) ([]string, error) {
	task := spec.Task
	vm := task.VirtualMachine
	d := task.Dsub

	required := []struct {
		name  string
		value string
	}{
		{"name", task.Name},
		{"project", spec.Project},
		{"virtual_machine.min_cores", vm.MinCores},
		{"virtual_machine.min_ram", vm.MinRAM},
		{"virtual_machine.boot_disk_size", vm.BootDiskSize},
		{"virtual_machine.disk_size", vm.DiskSize},
		{"virtual_machine.image", vm.Image},
		{"dsub.provider", d.Provider},
		{"dsub.regions", d.Regions},
		{"dsub.user", d.User},
		{"dsub.logging", d.Logging},
		{"dsub.script", d.Script},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return nil, fmt.Errorf("%w: task %s has no %s", domain.ErrInvalidInput, task.Name, r.name)
		}
	}

	args := []string{
		"--name", task.Name,
		"--label", "job-request-id=" + spec.JobRequestID,
		"--project", spec.Project,
		"--min-cores", vm.MinCores,
		"--min-ram", vm.MinRAM,
		"--boot-disk-size", vm.BootDiskSize,
		"--disk-size", vm.DiskSize,
		"--image", vm.Image,
		"--provider", d.Provider,
		"--regions", d.Regions,
		"--user", d.User,
		"--logging", d.Logging,
		"--script", d.Script,
		"--use-private-address",
		"--enable-stackdriver-monitoring",
	}

	if d.Network != "" {
		args = append(args, "--network", d.Network)
	}
	if d.Subnetwork != "" {
		args = append(args, "--subnetwork", d.Subnetwork)
	}
	if d.Preemptible {
		args = append(args, "--preemptible")
	}

	args = appendPairs(args, "--input", d.Inputs)
	args = appendPairs(args, "--env", d.EnvironmentVariables)
	args = appendPairs(args, "--output", d.Outputs)
	args = appendPairs(args, "--label", d.Labels)

	if spec.DryRun {
		args = append(args, "--dry-run")
	}
	return args, nil
}

func appendPairs(args []string, flag string, values map[string]string) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		args = append(args, flag, k+"="+values[k])
	}
	return args
}

// DstatCommand returns the command that reports the status of a launched job.
func DstatCommand(spec domain.JobSpec, jobID string) string {
	return fmt.Sprintf(
		"dstat --project %s --provider %s --jobs '%s' --users '%s' --full --format json --status '*'",
		spec.Project, spec.Task.Dsub.Provider, jobID, spec.Task.Dsub.User,
	)
}
