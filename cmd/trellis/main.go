// Command trellis ingests storage object events into a graph database.
package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/custodia-labs/trellis/internal/adapters/driving/cli"
	"github.com/custodia-labs/trellis/internal/app"
	"github.com/custodia-labs/trellis/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	env := environ()
	cli.SetBuilder(func(ctx context.Context, opts cli.Options) (*cli.Services, error) {
		return build(ctx, opts, env)
	})

	err := cli.Execute(ctx)
	stop()
	if err != nil {
		logger.Error(err, "trellis failed")
		os.Exit(1)
	}
}

func build(ctx context.Context, opts cli.Options, env map[string]string) (*cli.Services, error) {
	a, err := app.New(ctx, app.Options{
		ConfigPath:  opts.ConfigPath,
		NoConfig:    opts.NoConfig,
		Env:         env,
		LocalRoot:   opts.LocalRoot,
		LocalBucket: opts.Bucket,
		Offline:     opts.Offline,
	})
	if err != nil {
		return nil, err
	}

	s := &cli.Services{
		Settings:  a.Settings,
		Ingestor:  a.Ingest,
		Annotator: a.Ingest,
		Jobs:      a.Launcher,
		Events:    a.Ledger,
		Outbox:    a.Outbox,
		Catalog:   a.Registry,
		Tree:      a.Taxonomy,
		Metrics:   a.Metrics,
		Close:     a.Close,
	}
	if a.Watcher != nil {
		s.Source = a.Watcher
	}
	return s, nil
}

// environ captures the process environment once so nothing downstream reads
// or mutates it directly.
func environ() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}
