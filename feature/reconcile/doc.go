// Package reconcile merges parsed inventory events into the durable
// collection.
//
// The engine is the only component with cross-event invariants:
//
//   - Snapshots are authoritative and exhaustive; applying one replaces
//     the whole collection.
//   - The first snapshot ever establishes the baseline and replays all
//     pending deltas in arrival order, exactly once, inside the same
//     transaction as the snapshot write.
//   - Deltas arriving before any baseline are queued, never applied.
//   - No quantity is ever negative; a delta that would make it so is
//     clamped to zero and logged as a warning.
//
// Events are applied in tailer delivery order and never reordered or
// batched across polls.
package reconcile
