package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/Sokol111/eventsink/pkg/core"
	"github.com/Sokol111/eventsink/pkg/event"
	"github.com/Sokol111/eventsink/pkg/mutation"
	"github.com/Sokol111/eventsink/pkg/observability"
	"github.com/Sokol111/eventsink/pkg/persistence/mongo"
	"github.com/Sokol111/eventsink/pkg/sink"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// maxLineSize bounds a single event payload in a replay file.
const maxLineSize = 16 << 20

type replayOptions struct {
	file   string
	dryRun bool
}

type replayStats struct {
	events  int
	batches int
}

func newReplayCmd(configPath *string) *cobra.Command {
	opts := &replayOptions{}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Write newline-delimited event payloads from a file",
		Long: `Replay reads one event body per line and writes them through the
configured serializer in batches of sink.batch-size.

With --dry-run the events are serialized and counted but nothing is written.

Example:
  eventsink replay --config configs/config.yaml --file events.ndjson`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runReplay(ctx, cmd.OutOrStdout(), opts, coreOptions(*configPath)...)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Newline-delimited event payloads (required)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Serialize without writing to the store")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runReplay(ctx context.Context, out io.Writer, opts *replayOptions, coreOpts ...core.Option) error {
	f, err := os.Open(opts.file)
	if err != nil {
		return fmt.Errorf("failed to open replay file: %w", err)
	}
	defer f.Close()

	events, err := readEvents(f)
	if err != nil {
		return err
	}

	var (
		s   *sink.Sink
		log *zap.Logger
	)
	app := fx.New(
		replayModule(opts.dryRun, coreOpts...),
		fx.Populate(&s, &log),
	)
	if err := app.Err(); err != nil {
		return err
	}
	if err := app.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if stopErr := app.Stop(context.Background()); stopErr != nil {
			log.Warn("failed to stop replay", zap.Error(stopErr))
		}
	}()

	stats, err := replay(ctx, s, events)
	log.Info("replay finished",
		zap.String("file", opts.file),
		zap.Bool("dry_run", opts.dryRun),
		zap.Int("events", stats.events),
		zap.Int("batches", stats.batches),
		zap.Error(err))
	fmt.Fprintf(out, "replayed %d events in %d batches\n", stats.events, stats.batches)
	return err
}

func replayModule(dryRun bool, coreOpts ...core.Option) fx.Option {
	if dryRun {
		return fx.Options(
			core.NewCoreModule(coreOpts...),
			observability.NewObservabilityModule(observability.WithoutTracing(), observability.WithoutMetrics()),
			sink.NewSinkModule(),
			fx.Provide(
				fx.Annotate(newDryRunStore, fx.As(new(sink.Store))),
			),
		)
	}
	return fx.Options(
		core.NewCoreModule(coreOpts...),
		observability.NewObservabilityModule(),
		mongo.NewMongoModule(),
		sinkModule(),
	)
}

type batchWriter interface {
	Write(ctx context.Context, events ...event.Event) error
	BatchSize() int
}

func replay(ctx context.Context, w batchWriter, events []event.Event) (replayStats, error) {
	var stats replayStats
	for _, chunk := range lo.Chunk(events, w.BatchSize()) {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if err := w.Write(ctx, chunk...); err != nil {
			return stats, fmt.Errorf("batch %d: %w", stats.batches+1, err)
		}
		stats.events += len(chunk)
		stats.batches++
	}
	return stats, nil
}

// readEvents returns one event per non-empty line.
func readEvents(r io.Reader) ([]event.Event, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var events []event.Event
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		events = append(events, event.New(append([]byte(nil), line...), nil))
	}
	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, fmt.Errorf("replay line exceeds %d bytes: %w", maxLineSize, err)
		}
		return nil, fmt.Errorf("failed to read replay file: %w", err)
	}
	return events, nil
}

// dryRunStore logs batches instead of applying them.
type dryRunStore struct {
	log *zap.Logger
}

func newDryRunStore(log *zap.Logger) *dryRunStore {
	return &dryRunStore{log: log.Named("dry-run")}
}

func (s *dryRunStore) Apply(_ context.Context, batch mutation.Batch) error {
	s.log.Info("batch not applied",
		zap.Int("puts", len(batch.Puts)),
		zap.Int("increments", len(batch.Increments)))
	return nil
}
