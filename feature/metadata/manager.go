package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"collection-tracker/feature/collection"

	"go.uber.org/zap"
)

// scryfallCard is the subset of a Scryfall bulk card object the tracker
// cares about. Cards without an arena_id never appear in the client log
// and are skipped.
type scryfallCard struct {
	ArenaID    *int   `json:"arena_id"`
	Name       string `json:"name"`
	Set        string `json:"set"`
	Rarity     string `json:"rarity"`
	SetType    string `json:"set_type"`
	ReleasedAt string `json:"released_at"`
}

// Manager downloads and persists Scryfall card metadata. Staleness is
// tolerated by design; a failed refresh never brings the daemon down.
type Manager struct {
	cfg       Config
	store     *collection.Store
	cachePath string
	client    *http.Client
	logger    *zap.Logger
	now       func() time.Time
}

// New creates a manager caching the bulk file at cachePath.
func New(cfg Config, store *collection.Store, cachePath string, logger *zap.Logger) *Manager {
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 120
	}
	return &Manager{
		cfg:       cfg,
		store:     store,
		cachePath: cachePath,
		client:    &http.Client{Timeout: time.Duration(timeout) * time.Second},
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// NeedsRefresh reports whether the refresh cadence has elapsed since the
// last successful download.
func (m *Manager) NeedsRefresh() bool {
	value, found, err := m.store.GetState(collection.StateMetadataRefreshedAt)
	if err != nil || !found {
		return true
	}
	last, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return true
	}
	return m.now().Sub(last) >= time.Duration(m.cfg.RefreshDays)*24*time.Hour
}

// Refresh downloads the bulk file, caches it on disk and upserts the
// contained card metadata. Returns the number of cards written.
func (m *Manager) Refresh(ctx context.Context) (int, error) {
	data, err := m.download(ctx)
	if err != nil {
		return 0, err
	}
	// Cache via temp+rename so a partial download never corrupts the
	// cache used on the next start.
	temp := m.cachePath + ".tmp"
	if err := os.WriteFile(temp, data, 0o644); err != nil {
		return 0, fmt.Errorf("caching bulk file: %w", err)
	}
	if err := os.Rename(temp, m.cachePath); err != nil {
		return 0, fmt.Errorf("caching bulk file: %w", err)
	}

	count, err := m.writeMapping(data)
	if err != nil {
		return 0, err
	}
	if err := m.store.SetState(collection.StateMetadataRefreshedAt, m.now().Format(time.RFC3339)); err != nil {
		return 0, err
	}
	m.logger.Info("Metadata refreshed", zap.Int("cards", count))
	return count, nil
}

// UpdateFromCache re-applies the on-disk cache without downloading.
// Returns 0 when no cache exists yet.
func (m *Manager) UpdateFromCache() (int, error) {
	data, err := os.ReadFile(m.cachePath)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	return m.writeMapping(data)
}

// Ensure makes metadata available using the cache first and refreshing
// when the cadence elapsed. Errors are logged, never propagated: the
// pipeline works fine with stale or absent enrichment.
func (m *Manager) Ensure(ctx context.Context) {
	count, err := m.UpdateFromCache()
	if err != nil {
		m.logger.Warn("Metadata cache unreadable", zap.Error(err))
	}
	if count != 0 && !m.NeedsRefresh() {
		return
	}
	if _, err := m.Refresh(ctx); err != nil {
		m.logger.Warn("Metadata refresh failed", zap.Error(err))
	}
}

func (m *Manager) download(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.cfg.BulkURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading bulk metadata: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("downloading bulk metadata: unexpected status %s", resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("downloading bulk metadata: %w", err)
	}
	return data, nil
}

func (m *Manager) writeMapping(data []byte) (int, error) {
	var cards []scryfallCard
	if err := json.Unmarshal(data, &cards); err != nil {
		return 0, fmt.Errorf("decoding bulk metadata: %w", err)
	}

	chosen := make(map[int]scryfallCard)
	for _, card := range cards {
		if card.ArenaID == nil {
			continue
		}
		arenaID := *card.ArenaID
		if current, ok := chosen[arenaID]; ok && !prefer(card, current) {
			continue
		}
		chosen[arenaID] = card
	}

	now := m.now()
	rows := make([]collection.CardMetadata, 0, len(chosen))
	for arenaID, card := range chosen {
		rows = append(rows, collection.CardMetadata{
			ArenaID:   arenaID,
			Name:      card.Name,
			SetCode:   card.Set,
			Rarity:    card.Rarity,
			UpdatedAt: now,
		})
	}
	if err := m.store.UpsertMetadata(rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}

// prefer reports whether the candidate printing should replace the
// current one for the same arena id. Main-set printings beat promos;
// otherwise the newest release wins.
func prefer(candidate, current scryfallCard) bool {
	if current.SetType == "promo" && candidate.SetType != "promo" {
		return true
	}
	if candidate.SetType == "promo" && current.SetType != "promo" {
		return false
	}
	return candidate.ReleasedAt >= current.ReleasedAt
}
