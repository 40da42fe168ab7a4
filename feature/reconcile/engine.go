package reconcile

import (
	"fmt"
	"sort"
	"time"

	"collection-tracker/feature/collection"
	"collection-tracker/feature/parser"

	"go.uber.org/zap"
)

// Engine applies parsed inventory events to the durable store. It is
// the only writer of the collection and baseline tables. Every event is
// applied under a single store transaction; events are applied strictly
// in the order the tailer delivered their source lines.
type Engine struct {
	store  *collection.Store
	logger *zap.Logger
	now    func() time.Time
}

// New creates an engine. The clock is injectable for tests.
func New(store *collection.Store, logger *zap.Logger, now func() time.Time) *Engine {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Engine{store: store, logger: logger, now: now}
}

// Apply dispatches one parsed event.
func (e *Engine) Apply(event parser.Event) error {
	switch ev := event.(type) {
	case parser.SnapshotEvent:
		return e.ApplySnapshot(ev.Cards)
	case parser.DeltaEvent:
		return e.ApplyDelta(ev.Deltas)
	default:
		return fmt.Errorf("unknown event type %T", event)
	}
}

// ApplySnapshot replaces the whole collection with the snapshot's cards.
// Snapshots are authoritative and exhaustive: cards absent from the
// snapshot are removed. On the first snapshot ever (the no-baseline to
// has-baseline transition) all queued pending deltas are replayed in
// ascending sequence order against the fresh collection and deleted,
// atomically with the snapshot write.
func (e *Engine) ApplySnapshot(cards map[int]int) error {
	now := e.now()
	err := e.store.Transaction(func(tx *collection.Store) error {
		hadBaseline, err := tx.HasBaseline()
		if err != nil {
			return err
		}
		if err := tx.ReplaceCards(cards, now); err != nil {
			return err
		}
		if err := tx.MarkBaseline(now); err != nil {
			return err
		}
		if !hadBaseline {
			if err := e.replayPending(tx, now); err != nil {
				return err
			}
		}
		if err := tx.SetState(collection.StateLastSnapshot, now.Format(time.RFC3339)); err != nil {
			return err
		}
		return tx.SetState(collection.StateLastReconcile, now.Format(time.RFC3339))
	})
	if err != nil {
		return fmt.Errorf("applying snapshot: %w", err)
	}
	e.logger.Info("Snapshot applied", zap.Int("cards", len(cards)))
	return nil
}

// ApplyDelta applies an incremental change. With a baseline present each
// pair is added to the current quantity (missing rows count as zero),
// clamped at zero with a warning. Without a baseline the pairs are
// queued as pending deltas and the collection is left untouched.
func (e *Engine) ApplyDelta(deltas map[int]int) error {
	now := e.now()
	err := e.store.Transaction(func(tx *collection.Store) error {
		hasBaseline, err := tx.HasBaseline()
		if err != nil {
			return err
		}
		if !hasBaseline {
			for _, arenaID := range sortedIDs(deltas) {
				if err := tx.AppendPendingDelta(arenaID, deltas[arenaID], now); err != nil {
					return err
				}
			}
			return nil
		}
		for _, arenaID := range sortedIDs(deltas) {
			clamped, err := tx.AddCardDelta(arenaID, deltas[arenaID], now)
			if err != nil {
				return err
			}
			if clamped {
				e.warnClamp(arenaID, deltas[arenaID])
			}
		}
		return tx.SetState(collection.StateLastReconcile, now.Format(time.RFC3339))
	})
	if err != nil {
		return fmt.Errorf("applying delta: %w", err)
	}
	return nil
}

// replayPending applies queued deltas one at a time in sequence order,
// then deletes them. Runs inside the snapshot transaction, so the queue
// is consumed exactly once.
func (e *Engine) replayPending(tx *collection.Store, now time.Time) error {
	pending, err := tx.PendingDeltas()
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}
	for _, item := range pending {
		clamped, err := tx.AddCardDelta(item.ArenaID, item.Delta, now)
		if err != nil {
			return err
		}
		if clamped {
			e.warnClamp(item.ArenaID, item.Delta)
		}
	}
	if err := tx.ClearPendingDeltas(); err != nil {
		return err
	}
	e.logger.Info("Replayed pending deltas", zap.Int("count", len(pending)))
	return nil
}

func (e *Engine) warnClamp(arenaID, delta int) {
	e.logger.Warn("Delta would drive quantity negative, clamped to zero",
		zap.Int("arena_id", arenaID),
		zap.Int("delta", delta),
	)
}

func sortedIDs(deltas map[int]int) []int {
	ids := make([]int, 0, len(deltas))
	for id := range deltas {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
