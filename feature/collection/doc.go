// Package collection implements the durable store for tracker state.
//
// All persisted rows live here: the collection table itself, the FIFO
// queue of deltas awaiting a baseline, the baseline flag, the tailer
// cursor, cached card metadata, and low-volume bookkeeping state.
//
// # Ownership
//
// The store exclusively owns persistence; component ownership of rows is
// by convention:
//   - cards, baseline_state: written only by the reconciliation engine
//   - tailer_cursor: written only by the tailer
//   - pending_deltas: written by the engine, deleted only during replay
//   - card_metadata: written only by the metadata manager
//
// # Consistency
//
// Transaction() is the per-event boundary. The engine wraps every applied
// event in one transaction so a crash mid-batch never leaves a partially
// applied snapshot or a half-replayed pending queue.
package collection
