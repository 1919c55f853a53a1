// Package cli implements the trellis command line.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/trellis/internal/adapters/driving/mcp"
	"github.com/custodia-labs/trellis/internal/core/domain"
	"github.com/custodia-labs/trellis/internal/core/ports/driven"
	"github.com/custodia-labs/trellis/internal/core/ports/driving"
	"github.com/custodia-labs/trellis/internal/logger"
	"github.com/custodia-labs/trellis/internal/metrics"
)

// version is set at build time with -ldflags "-X .../cli.version=...".
var version = "dev"

// skipServices marks commands that run without building services.
const skipServices = "skip-services"

// ObjectSource is a local bucket that can be watched and turned into events.
type ObjectSource interface {
	driven.ObjectWatcher
	Bucket() string
	Event(path string) (domain.ObjectEvent, error)
}

// Services holds everything the commands need. Nil fields disable the
// commands that depend on them.
type Services struct {
	Settings  driving.SettingsService
	Ingestor  driving.ObjectIngestor
	Annotator driving.MetadataAnnotator
	Jobs      driving.JobLaunchService
	Events    driven.EventLedger
	Outbox    driven.Outbox
	Source    ObjectSource
	Catalog   mcp.LabelCatalog
	Tree      mcp.LabelTree
	Metrics   *metrics.Metrics

	// Close releases the services. May be nil.
	Close func() error
}

// Options are the root flags handed to the builder.
type Options struct {
	ConfigPath string
	NoConfig   bool
	LocalRoot  string
	Bucket     string
	Offline    bool
}

// Builder assembles services from root options.
type Builder func(ctx context.Context, opts Options) (*Services, error)

var (
	builder  Builder
	services *Services
	options  Options

	verbose bool
	pretty  bool
)

var rootCmd = &cobra.Command{
	Use:   "trellis",
	Short: "Genomic object metadata and graph ingestion",
	Long: `trellis turns storage object events into graph database upserts.

Each new object is classified by its path into a node label, enriched with
name, time and content-derived properties, and published as a Cypher MERGE
request. JobRequest nodes coming back from the database are launched as
batch jobs.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
		return teardown()
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&options.ConfigPath, "config", "c", "", "config file (default ~/.trellis/config.toml)")
	flags.BoolVar(&options.NoConfig, "no-config", false, "ignore the config file")
	flags.StringVar(&options.LocalRoot, "root", "", "serve a local directory as the bucket")
	flags.StringVar(&options.Bucket, "bucket", "local", "bucket name for --root")
	flags.BoolVar(&options.Offline, "offline", false, "keep objects and messages in memory")
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	flags.BoolVar(&pretty, "pretty", false, "human readable log output")
}

// SetBuilder registers the function that assembles services on first use.
func SetBuilder(b Builder) {
	builder = b
}

// SetServices injects ready services, bypassing the builder.
func SetServices(s *Services) {
	services = s
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	logger.SetPretty(pretty)

	if !needsServices(cmd) || services != nil {
		return nil
	}
	if builder == nil {
		return errors.New("services not configured")
	}

	s, err := builder(cmd.Context(), options)
	if err != nil {
		return fmt.Errorf("failed to initialise: %w", err)
	}
	services = s
	return nil
}

func needsServices(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "help", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
		return false
	}
	return cmd.Annotations[skipServices] != "true"
}

// teardown closes services built by the builder. Injected services are
// left to their owner.
func teardown() error {
	if builder == nil || services == nil || services.Close == nil {
		return nil
	}
	err := services.Close()
	services = nil
	return err
}

// commandContext returns the command's context, or Background when run
// without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
