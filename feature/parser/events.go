package parser

// Event is a structured inventory event extracted from one log line.
type Event interface {
	isEvent()
}

// SnapshotEvent asserts the complete, authoritative set of card counts,
// superseding all prior state. Later duplicates of an arena id within
// one payload have already been resolved last-write-wins.
type SnapshotEvent struct {
	// Cards maps arena id to absolute quantity.
	Cards map[int]int
	// Source names the payload key the snapshot was found under.
	Source string
}

func (SnapshotEvent) isEvent() {}

// DeltaEvent asserts an incremental change to one or more card counts.
// Multiple adjustments of the same arena id within one payload have
// already been summed.
type DeltaEvent struct {
	// Deltas maps arena id to a signed quantity change.
	Deltas map[int]int
	// Source names the payload key the delta was found under.
	Source string
}

func (DeltaEvent) isEvent() {}
