package collection

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store wraps the state database with the operations the pipeline needs.
// The reconciliation engine is the only writer of cards and
// baseline_state; the tailer is the only writer of tailer_cursor.
type Store struct {
	db *gorm.DB
}

// NewStore creates a store over an existing GORM connection and migrates
// the schema.
func NewStore(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(
		&Card{},
		&PendingDelta{},
		&BaselineState{},
		&TailerCursor{},
		&CardMetadata{},
		&State{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate state schema: %w", err)
	}
	return &Store{db: db}, nil
}

// DB exposes the underlying connection for read-only inspection
// (schema dump in the status command).
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Transaction runs fn against a store bound to a single database
// transaction. This is the per-event consistency boundary of the engine.
func (s *Store) Transaction(fn func(tx *Store) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// -- cards --------------------------------------------------------------

// ReplaceCards deletes the whole collection and writes the given set.
// Snapshots are authoritative and exhaustive, so absent cards disappear.
func (s *Store) ReplaceCards(cards map[int]int, now time.Time) error {
	if err := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&Card{}).Error; err != nil {
		return err
	}
	if len(cards) == 0 {
		return nil
	}
	rows := make([]Card, 0, len(cards))
	for arenaID, quantity := range cards {
		rows = append(rows, Card{ArenaID: arenaID, Quantity: quantity, UpdatedAt: now})
	}
	return s.db.CreateInBatches(rows, 200).Error
}

// AddCardDelta adds delta to the card's quantity, treating a missing row
// as zero and clamping the result at zero. It reports whether clamping
// occurred so the caller can log the warning.
func (s *Store) AddCardDelta(arenaID, delta int, now time.Time) (clamped bool, err error) {
	var card Card
	res := s.db.Where("arena_id = ?", arenaID).Limit(1).Find(&card)
	if res.Error != nil {
		return false, res.Error
	}
	quantity := delta
	if res.RowsAffected > 0 {
		quantity = card.Quantity + delta
	}
	if quantity < 0 {
		quantity = 0
		clamped = true
	}
	row := Card{ArenaID: arenaID, Quantity: quantity, UpdatedAt: now}
	err = s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "arena_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"quantity", "updated_at"}),
	}).Create(&row).Error
	return clamped, err
}

// GetAllCards returns the full collection as an arena_id -> quantity map.
func (s *Store) GetAllCards() (map[int]int, error) {
	var rows []Card
	if err := s.db.Find(&rows).Error; err != nil {
		return nil, err
	}
	cards := make(map[int]int, len(rows))
	for _, row := range rows {
		cards[row.ArenaID] = row.Quantity
	}
	return cards, nil
}

// CountCards returns the number of distinct cards in the collection.
func (s *Store) CountCards() (int64, error) {
	var n int64
	err := s.db.Model(&Card{}).Count(&n).Error
	return n, err
}

// -- pending deltas -----------------------------------------------------

// AppendPendingDelta queues a delta for replay once a baseline arrives.
// Sequence is assigned by the database in insertion order.
func (s *Store) AppendPendingDelta(arenaID, delta int, receivedAt time.Time) error {
	return s.db.Create(&PendingDelta{ArenaID: arenaID, Delta: delta, ReceivedAt: receivedAt}).Error
}

// PendingDeltas returns all queued deltas in ascending sequence order.
func (s *Store) PendingDeltas() ([]PendingDelta, error) {
	var rows []PendingDelta
	err := s.db.Order("sequence ASC").Find(&rows).Error
	return rows, err
}

// ClearPendingDeltas removes all queued deltas after replay.
func (s *Store) ClearPendingDeltas() error {
	return s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&PendingDelta{}).Error
}

// CountPendingDeltas returns the number of unreplayed deltas.
func (s *Store) CountPendingDeltas() (int64, error) {
	var n int64
	err := s.db.Model(&PendingDelta{}).Count(&n).Error
	return n, err
}

// -- baseline -----------------------------------------------------------

// HasBaseline reports whether a snapshot has ever been applied.
func (s *Store) HasBaseline() (bool, error) {
	var row BaselineState
	res := s.db.Where("id = ?", 1).Limit(1).Find(&row)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	return row.HasBaseline, nil
}

// MarkBaseline records that a baseline exists. The transition is
// monotonic; calling it again only refreshes nothing.
func (s *Store) MarkBaseline(now time.Time) error {
	row := BaselineState{ID: 1, HasBaseline: true, SetAt: now}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(&row).Error
}

// BaselineSetAt returns the time the baseline was first established.
func (s *Store) BaselineSetAt() (time.Time, bool, error) {
	var row BaselineState
	res := s.db.Where("id = ?", 1).Limit(1).Find(&row)
	if res.Error != nil || res.RowsAffected == 0 {
		return time.Time{}, false, res.Error
	}
	return row.SetAt, row.HasBaseline, nil
}

// -- tailer cursor ------------------------------------------------------

// Cursor returns the persisted tailer position, if any.
func (s *Store) Cursor() (TailerCursor, bool, error) {
	var row TailerCursor
	res := s.db.Where("id = ?", 1).Limit(1).Find(&row)
	if res.Error != nil || res.RowsAffected == 0 {
		return TailerCursor{}, false, res.Error
	}
	return row, true, nil
}

// SaveCursor persists the tailer position. Called only after a batch of
// complete lines has been handed to the parser.
func (s *Store) SaveCursor(cursor TailerCursor) error {
	cursor.ID = 1
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"file_device", "file_inode", "offset"}),
	}).Create(&cursor).Error
}

// -- metadata -----------------------------------------------------------

// UpsertMetadata writes or refreshes cached card metadata rows.
func (s *Store) UpsertMetadata(rows []CardMetadata) error {
	if len(rows) == 0 {
		return nil
	}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "arena_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "set_code", "rarity", "updated_at"}),
	}).CreateInBatches(rows, 500).Error
}

// MetadataMap returns all cached metadata keyed by arena id.
func (s *Store) MetadataMap() (map[int]CardMetadata, error) {
	var rows []CardMetadata
	if err := s.db.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[int]CardMetadata, len(rows))
	for _, row := range rows {
		out[row.ArenaID] = row
	}
	return out, nil
}

// -- state --------------------------------------------------------------

// GetState returns the value for a bookkeeping key, if set.
func (s *Store) GetState(key string) (string, bool, error) {
	var row State
	res := s.db.Where("key = ?", key).Limit(1).Find(&row)
	if res.Error != nil || res.RowsAffected == 0 {
		return "", false, res.Error
	}
	return row.Value, true, nil
}

// SetState writes a bookkeeping key.
func (s *Store) SetState(key, value string) error {
	row := State{Key: key, Value: value}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&row).Error
}

// -- joined view --------------------------------------------------------

// ExportRows returns the collection joined with cached metadata, ordered
// by name, set and arena id for stable export output.
func (s *Store) ExportRows() ([]ExportRow, error) {
	cards, err := s.GetAllCards()
	if err != nil {
		return nil, err
	}
	metadata, err := s.MetadataMap()
	if err != nil {
		return nil, err
	}
	rows := make([]ExportRow, 0, len(cards))
	for arenaID, quantity := range cards {
		meta := metadata[arenaID]
		rows = append(rows, ExportRow{
			ArenaID:  arenaID,
			Quantity: quantity,
			Name:     meta.Name,
			SetCode:  meta.SetCode,
			Rarity:   meta.Rarity,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		ni, nj := strings.ToLower(rows[i].Name), strings.ToLower(rows[j].Name)
		if ni != nj {
			return ni < nj
		}
		si, sj := strings.ToLower(rows[i].SetCode), strings.ToLower(rows[j].SetCode)
		if si != sj {
			return si < sj
		}
		return rows[i].ArenaID < rows[j].ArenaID
	})
	return rows, nil
}
