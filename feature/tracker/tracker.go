package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"collection-tracker/core/logger"
	"collection-tracker/core/storage"
	"collection-tracker/feature/collection"
	"collection-tracker/feature/exporter"
	"collection-tracker/feature/metadata"
	"collection-tracker/feature/parser"
	"collection-tracker/feature/reconcile"
	"collection-tracker/feature/scheduler"
	"collection-tracker/feature/tailer"

	"go.uber.org/zap"
)

// Options carries the resolved paths and intervals the daemon runs with.
type Options struct {
	// LogPath is the Arena Player.log to tail.
	LogPath string
	// CSVPath and JSONPath are the export targets.
	CSVPath  string
	JSONPath string
	// MetadataCachePath is the on-disk Scryfall bulk cache.
	MetadataCachePath string
	// ActiveInterval is the poll cadence while the log has content.
	ActiveInterval time.Duration
	// IdleInterval is the poll cadence while the log is absent or empty.
	IdleInterval time.Duration
	// ExportInterval is the forced periodic export cadence.
	ExportInterval time.Duration
	// Metadata configures the Scryfall refresh.
	Metadata metadata.Config
	// StorageBucket/StoragePrefix configure export publishing when a
	// storage client is supplied.
	StorageBucket string
	StoragePrefix string
}

// Status is the read-only health view consumed by the status command
// and the HTTP status endpoint.
type Status struct {
	Cards           int64  `json:"cards"`
	HasBaseline     bool   `json:"has_baseline"`
	BaselineSetAt   string `json:"baseline_set_at,omitempty"`
	PendingDeltas   int64  `json:"pending_deltas"`
	LastSnapshot    string `json:"last_snapshot,omitempty"`
	LastReconcile   string `json:"last_reconcile,omitempty"`
	LastTailerError string `json:"last_tailer_error,omitempty"`
	NoiseLines      int64  `json:"noise_lines"`
	SkippedPairs    int64  `json:"skipped_pairs"`
}

// Tracker wires the pipeline together: tailer, parser, engine,
// exporter, metadata manager. One instance drives the whole daemon on a
// single cooperative loop.
type Tracker struct {
	opts     Options
	store    *collection.Store
	tailer   *tailer.Tailer
	parser   *parser.Parser
	engine   *reconcile.Engine
	exporter *exporter.Exporter
	metadata *metadata.Manager
	logger   *zap.Logger
}

// New assembles a tracker. The storage client may be nil, which
// disables export publishing.
func New(opts Options, store *collection.Store, client storage.Client, logg *zap.Logger) *Tracker {
	if opts.ActiveInterval <= 0 {
		opts.ActiveInterval = 500 * time.Millisecond
	}
	if opts.IdleInterval <= 0 {
		opts.IdleInterval = 5 * time.Second
	}
	if opts.ExportInterval <= 0 {
		opts.ExportInterval = 15 * time.Minute
	}

	exp := exporter.New(store, opts.CSVPath, opts.JSONPath, logger.WithComponent(logg, "exporter"))
	if client != nil {
		exp = exp.WithPublisher(client, opts.StorageBucket, opts.StoragePrefix)
	}

	return &Tracker{
		opts:     opts,
		store:    store,
		tailer:   tailer.New(opts.LogPath, store, logger.WithComponent(logg, "tailer")),
		parser:   parser.New(logger.WithComponent(logg, "parser")),
		engine:   reconcile.New(store, logger.WithComponent(logg, "reconcile"), nil),
		exporter: exp,
		metadata: metadata.New(opts.Metadata, store, opts.MetadataCachePath, logger.WithComponent(logg, "metadata")),
		logger:   logg,
	}
}

// Run drives the cooperative poll loop until the context is cancelled
// or a fatal tailer error occurs. With once set it only refreshes
// metadata, renders one export and returns.
func (t *Tracker) Run(ctx context.Context, once bool) error {
	t.metadata.Ensure(ctx)

	if once {
		_, err := t.exporter.Export(ctx)
		return err
	}

	refreshInterval := time.Duration(t.opts.Metadata.RefreshDays) * 24 * time.Hour
	if refreshInterval <= 0 {
		refreshInterval = 7 * 24 * time.Hour
	}
	sched := scheduler.New(nil)
	sched.AddTask("refresh-metadata", refreshInterval, func() { t.metadata.Ensure(ctx) })
	sched.AddTask("export", t.opts.ExportInterval, func() { t.export(ctx) })

	t.logger.Info("Tracker started", zap.String("log_path", t.opts.LogPath))
	for {
		if ctx.Err() != nil {
			t.logger.Info("Tracker stopping")
			return nil
		}

		lines, err := t.tailer.Poll(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			_ = t.store.SetState(collection.StateLastTailerError, err.Error())
			if errors.Is(err, tailer.ErrFatal) {
				t.logger.Error("Fatal tailer error, stopping loop", zap.Error(err))
				return err
			}
			t.logger.Warn("Tailer poll failed, retrying next interval", zap.Error(err))
		}

		applied := 0
		for _, line := range lines {
			applied += t.processLine(line)
		}
		if err := t.tailer.Commit(); err != nil {
			// Lines will be re-delivered next poll; reconciliation is
			// tolerant of replayed snapshots, deltas may double-apply.
			t.logger.Error("Cursor not persisted", zap.Error(err))
		}
		if applied > 0 {
			t.export(ctx)
		}

		sched.RunPending()

		interval := t.opts.ActiveInterval
		if t.tailer.Idle() {
			interval = t.opts.IdleInterval
		}
		select {
		case <-ctx.Done():
			t.logger.Info("Tracker stopping")
			return nil
		case <-time.After(interval):
		}
	}
}

// processLine parses one line and applies its events in order,
// returning the number of applied events. A store-level failure skips
// only the affected event: the cursor has already moved past the line,
// an accepted at-most-once gap that is logged loudly.
func (t *Tracker) processLine(line string) int {
	applied := 0
	for _, event := range t.parser.ParseLine(line) {
		if err := t.engine.Apply(event); err != nil {
			t.logger.Error("Event not applied, data loss risk", zap.Error(err))
			continue
		}
		applied++
	}
	return applied
}

// Seed imports a baseline collection from a CSV file and treats it
// exactly as a snapshot event: it establishes the baseline and replays
// any pending deltas. Returns the number of exported rows.
func (t *Tracker) Seed(ctx context.Context, csvPath string) (int, error) {
	cards, err := readSeedCSV(csvPath)
	if err != nil {
		return 0, err
	}
	if err := t.engine.ApplySnapshot(cards); err != nil {
		return 0, err
	}
	return t.exporter.Export(ctx)
}

// ExportNow forces a render of both export files.
func (t *Tracker) ExportNow(ctx context.Context) (int, error) {
	return t.exporter.Export(ctx)
}

// EnsureMetadata makes enrichment data available, tolerating failure.
func (t *Tracker) EnsureMetadata(ctx context.Context) {
	t.metadata.Ensure(ctx)
}

// Status assembles the current health view from the store and the
// in-process parser counters.
func (t *Tracker) Status() (Status, error) {
	var status Status
	var err error

	if status.Cards, err = t.store.CountCards(); err != nil {
		return status, fmt.Errorf("reading status: %w", err)
	}
	if status.PendingDeltas, err = t.store.CountPendingDeltas(); err != nil {
		return status, fmt.Errorf("reading status: %w", err)
	}
	setAt, has, err := t.store.BaselineSetAt()
	if err != nil {
		return status, fmt.Errorf("reading status: %w", err)
	}
	status.HasBaseline = has
	if has {
		status.BaselineSetAt = setAt.UTC().Format(time.RFC3339)
	}
	status.LastSnapshot, _, _ = t.store.GetState(collection.StateLastSnapshot)
	status.LastReconcile, _, _ = t.store.GetState(collection.StateLastReconcile)
	status.LastTailerError, _, _ = t.store.GetState(collection.StateLastTailerError)
	status.NoiseLines = t.parser.NoiseLines()
	status.SkippedPairs = t.parser.SkippedPairs()
	return status, nil
}

// ExportRows exposes the joined collection view for the status API.
func (t *Tracker) ExportRows() ([]collection.ExportRow, error) {
	return t.store.ExportRows()
}

func (t *Tracker) export(ctx context.Context) {
	if _, err := t.exporter.Export(ctx); err != nil {
		t.logger.Warn("Export failed", zap.Error(err))
	}
}
