package collection

import "time"

// Card is one row of the durable collection table: the owned quantity of
// a single Arena card. Quantity is never negative; deltas that would
// drive it below zero are clamped by the reconciliation engine.
type Card struct {
	ArenaID   int       `gorm:"column:arena_id;primaryKey"`
	Quantity  int       `gorm:"column:quantity;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName overrides the table name.
func (Card) TableName() string {
	return "cards"
}

// PendingDelta is a delta received before any baseline snapshot existed.
// Sequence is assigned at insert time and defines replay order.
type PendingDelta struct {
	Sequence   uint64    `gorm:"column:sequence;primaryKey;autoIncrement"`
	ArenaID    int       `gorm:"column:arena_id;not null"`
	Delta      int       `gorm:"column:delta;not null"`
	ReceivedAt time.Time `gorm:"column:received_at"`
}

// TableName overrides the table name.
func (PendingDelta) TableName() string {
	return "pending_deltas"
}

// BaselineState is the singleton row recording whether a snapshot has
// ever been applied. It transitions monotonically to HasBaseline=true
// and never reverts.
type BaselineState struct {
	ID          uint8     `gorm:"column:id;primaryKey"`
	HasBaseline bool      `gorm:"column:has_baseline;not null"`
	SetAt       time.Time `gorm:"column:set_at"`
}

// TableName overrides the table name.
func (BaselineState) TableName() string {
	return "baseline_state"
}

// TailerCursor is the singleton row identifying the file currently being
// tailed (device+inode) and the byte offset of the last fully consumed
// line. Owned exclusively by the tailer.
type TailerCursor struct {
	ID     uint8  `gorm:"column:id;primaryKey"`
	Device uint64 `gorm:"column:file_device;not null"`
	Inode  uint64 `gorm:"column:file_inode;not null"`
	Offset int64  `gorm:"column:offset;not null"`
}

// TableName overrides the table name.
func (TailerCursor) TableName() string {
	return "tailer_cursor"
}

// CardMetadata is the cached Scryfall enrichment for one Arena card.
// Staleness is tolerated; rows are refreshed on the metadata cadence.
type CardMetadata struct {
	ArenaID   int       `gorm:"column:arena_id;primaryKey"`
	Name      string    `gorm:"column:name"`
	SetCode   string    `gorm:"column:set_code"`
	Rarity    string    `gorm:"column:rarity"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName overrides the table name.
func (CardMetadata) TableName() string {
	return "card_metadata"
}

// State is a key/value row for low-volume bookkeeping (last snapshot
// time, last reconcile time, last tailer error, metadata refresh time).
type State struct {
	Key   string `gorm:"column:key;primaryKey"`
	Value string `gorm:"column:value"`
}

// TableName overrides the table name.
func (State) TableName() string {
	return "states"
}

// Well-known state keys.
const (
	StateLastSnapshot        = "last_snapshot"
	StateLastReconcile       = "last_reconcile"
	StateLastTailerError     = "last_tailer_error"
	StateMetadataRefreshedAt = "metadata_refreshed_at"
)

// ExportRow is one row of the read-only joined view consumed by the
// exporter and the status API.
type ExportRow struct {
	ArenaID  int    `json:"arena_id"`
	Quantity int    `json:"quantity"`
	Name     string `json:"name"`
	SetCode  string `json:"set"`
	Rarity   string `json:"rarity"`
}
