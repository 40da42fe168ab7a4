// Package parser classifies Arena log lines into inventory events.
//
// A line may carry timestamps or log tags before its JSON payload; the
// parser scans for balanced top-level objects and decodes each one. All
// object keys are lower-cased into fresh maps before classification, so
// ItemId, itemId and ITEM_ID are indistinguishable downstream.
//
// Two fixed vocabularies drive classification: snapshot keys (full
// inventory listings, last-write-wins per card within one payload) and
// delta keys (incremental changes, summed per card within one payload).
// Anything else is noise: silently skipped and counted. Malformed
// numeric fields drop only the affected pair, never the whole event.
package parser
