// Package status serves a small read-only HTTP view of the tracker:
// a health summary and the current collection. It is disabled by
// default and never participates in reconciliation; every handler only
// reads from the store.
package status
