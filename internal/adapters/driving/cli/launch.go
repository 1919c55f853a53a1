package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/trellis/internal/core/domain"
)

var launchCmd = &cobra.Command{
	Use:   "launch [response.json]",
	Short: "Launch the job for a JobRequest query response",
	Long: `Launch a batch job from a database query response holding one JobRequest
node, then publish the createJobNode request for it.

Jobs are launched with --dry-run unless launcher.enabled is true.`,
	Args: cobra.ExactArgs(1),
	RunE: runLaunch,
}

func init() {
	rootCmd.AddCommand(launchCmd)
}

func runLaunch(cmd *cobra.Command, args []string) error {
	if services.Jobs == nil {
		return errors.New("job launch service not configured")
	}

	var response domain.QueryResponse
	if err := decodeInput(cmd, args[0], &response); err != nil {
		return err
	}

	result, err := services.Jobs.LaunchJob(commandContext(cmd), response)
	if err != nil {
		return fmt.Errorf("failed to launch job: %w", err)
	}

	cmd.Printf("Job ID:     %s\n", result.Handle.JobID)
	if result.MessageID != "" {
		cmd.Printf("Message ID: %s\n", result.MessageID)
	}
	cmd.Printf("Arguments:  %s\n", strings.Join(result.Args, " "))
	return nil
}
