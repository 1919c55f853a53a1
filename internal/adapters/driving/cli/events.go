package cli

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var eventsCmd = &cobra.Command{
	Use:   "events [event-id]",
	Short: "Show handled events",
	Long:  `List recently handled events, or show one event by ID.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runEvents,
}

var outboxCmd = &cobra.Command{
	Use:   "outbox",
	Short: "Show locally recorded messages",
	Long: `List messages recorded by the local publisher. In the local environment
query requests are written to the outbox instead of a Pub/Sub topic.`,
	Args: cobra.NoArgs,
	RunE: runOutbox,
}

var (
	eventsLimit int
	outboxLimit int
)

func init() {
	eventsCmd.Flags().IntVarP(&eventsLimit, "limit", "n", 20, "maximum events to list")
	outboxCmd.Flags().IntVarP(&outboxLimit, "limit", "n", 20, "maximum messages to list")
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(outboxCmd)
}

func runEvents(cmd *cobra.Command, args []string) error {
	if services.Events == nil {
		return errors.New("event ledger not configured")
	}
	ctx := commandContext(cmd)

	if len(args) == 1 {
		record, err := services.Events.Get(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to get event: %w", err)
		}
		cmd.Printf("Event: %s\n\n", record.EventID)
		cmd.Printf("  Object:     gs://%s/%s\n", record.Bucket, record.Path)
		cmd.Printf("  Outcome:    %s\n", record.Outcome)
		cmd.Printf("  Label:      %s\n", record.Label)
		if record.MessageID != "" {
			cmd.Printf("  Message ID: %s\n", record.MessageID)
		}
		if record.Error != "" {
			cmd.Printf("  Error:      %s\n", record.Error)
		}
		cmd.Printf("  Processed:  %s\n", record.ProcessedAt.Format("2006-01-02 15:04:05"))
		return nil
	}

	records, err := services.Events.List(ctx, eventsLimit)
	if err != nil {
		return fmt.Errorf("failed to list events: %w", err)
	}
	if len(records) == 0 {
		cmd.Println("No events recorded")
		return nil
	}
	for i := range records {
		r := &records[i]
		cmd.Printf("%s  %-20s %-12s gs://%s/%s\n",
			r.ProcessedAt.Format("2006-01-02 15:04:05"), r.Outcome, r.Label, r.Bucket, r.Path)
	}
	return nil
}

func runOutbox(cmd *cobra.Command, _ []string) error {
	if services.Outbox == nil {
		return errors.New("outbox not configured: messages are published to Pub/Sub")
	}

	messages, err := services.Outbox.Messages(commandContext(cmd), outboxLimit)
	if err != nil {
		return fmt.Errorf("failed to list messages: %w", err)
	}
	if len(messages) == 0 {
		cmd.Println("Outbox is empty")
		return nil
	}
	for i := range messages {
		m := &messages[i]
		cmd.Printf("[%s] %s  %s\n", m.ID, m.Topic, m.RecordedAt.Format("2006-01-02 15:04:05"))
		cmd.Printf("  %s\n", m.Data)
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
