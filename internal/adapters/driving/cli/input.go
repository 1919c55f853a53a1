package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/trellis/internal/core/domain"
)

// readInput reads the named file, or standard input for "-".
func readInput(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return data, nil
}

// decodeInput reads name and decodes its JSON into v.
func decodeInput(cmd *cobra.Command, name string, v any) error {
	data, err := readInput(cmd, name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: decoding %s: %v", domain.ErrMalformedInput, name, err)
	}
	return nil
}

// objectResource names an object the way storage notifications do.
func objectResource(bucket, name string) string {
	return fmt.Sprintf("projects/_/buckets/%s/objects/%s", bucket, name)
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	cmd.Println(string(data))
	return nil
}

func printOutcome(cmd *cobra.Command, outcome *domain.Outcome) {
	if outcome == nil {
		return
	}
	cmd.Printf("Outcome:    %s\n", outcome.Kind)
	if outcome.Identifier != "" {
		cmd.Printf("Identifier: %s\n", outcome.Identifier)
	}
	if len(outcome.Labels) > 0 {
		cmd.Printf("Labels:     %v\n", outcome.Labels)
	}
	if outcome.Label != "" {
		cmd.Printf("Label:      %s\n", outcome.Label)
	}
	if outcome.MessageID != "" {
		cmd.Printf("Message ID: %s\n", outcome.MessageID)
	}
	if outcome.Request != nil {
		cmd.Println()
		cmd.Println(outcome.Request.Cypher)
	}
}
