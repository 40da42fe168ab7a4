package parser

import (
	"encoding/json"
	"sort"
	"strings"
	"sync/atomic"

	"collection-tracker/core/utils"

	"go.uber.org/zap"
)

// Key vocabularies, compared against lower-cased payload keys.
var (
	// snapshotKeys indicate a full inventory listing.
	snapshotKeys = map[string]struct{}{
		"cards":      {},
		"ownedcards": {},
	}

	// deltaEventKeys indicate incremental change payloads.
	deltaEventKeys = map[string]struct{}{
		"inventorydelta":   {},
		"inventoryupdated": {},
		"boosteropened":    {},
		"eventreward":      {},
		"rewardgranted":    {},
		"dailywin":         {},
		"craftcard":        {},
		"upgradecard":      {},
		"vaultprogress":    {},
		"vaultreward":      {},
		"wildcardgranted":  {},
	}

	idKeys            = []string{"grpid", "grp_id", "titleid", "title_id", "arenaid", "cardid", "mtgaid"}
	snapshotCountKeys = []string{"quantity", "qty", "count"}
	deltaCountKeys    = []string{"delta", "quantitydelta", "change", "amount"}
)

// Parser extracts inventory events from Arena log lines. A line may
// carry arbitrary prefix text before the JSON payload; everything that
// does not decode into a recognized shape is noise.
type Parser struct {
	logger *zap.Logger

	noiseLines   atomic.Int64
	skippedPairs atomic.Int64
}

// New creates a parser.
func New(logger *zap.Logger) *Parser {
	return &Parser{logger: logger}
}

// NoiseLines returns the number of lines skipped because they contained
// no recognizable payload.
func (p *Parser) NoiseLines() int64 {
	return p.noiseLines.Load()
}

// SkippedPairs returns the number of individual (id, count) pairs
// dropped for malformed fields.
func (p *Parser) SkippedPairs() int64 {
	return p.skippedPairs.Load()
}

// ParseLine classifies one log line. It returns zero or more events;
// an empty result means the line was noise.
func (p *Parser) ParseLine(line string) []Event {
	var events []Event
	for _, snippet := range extractJSONStrings(line) {
		var decoded any
		if err := json.Unmarshal([]byte(snippet), &decoded); err != nil {
			continue
		}
		payload, ok := normalizeKeys(decoded).(map[string]any)
		if !ok {
			continue
		}
		events = append(events, p.parsePayload(payload)...)
	}
	if len(events) == 0 {
		p.noiseLines.Add(1)
	}
	return events
}

func (p *Parser) parsePayload(payload map[string]any) []Event {
	var events []Event
	found := p.extractDeltaEvents(payload)
	// Deterministic event order regardless of map iteration.
	sources := make([]string, 0, len(found))
	for source := range found {
		sources = append(sources, source)
	}
	sort.Strings(sources)
	for _, source := range sources {
		if deltas := found[source]; len(deltas) > 0 {
			events = append(events, DeltaEvent{Deltas: deltas, Source: source})
		}
	}
	if len(events) > 0 {
		return events
	}
	// Snapshots are rare but easy to detect: a list of entries with
	// absolute quantities under a snapshot vocabulary key.
	if cards := p.extractSnapshotCards(payload); len(cards) > 0 {
		events = append(events, SnapshotEvent{Cards: cards, Source: "snapshot"})
	}
	return events
}

// -- snapshot helpers ---------------------------------------------------

func (p *Parser) extractSnapshotCards(payload map[string]any) map[int]int {
	cards := make(map[int]int)
	for _, entry := range findEntries(payload, snapshotKeys) {
		arenaID, ok := p.extractArenaID(entry)
		if !ok {
			continue
		}
		quantity, ok := p.extractFirstInt(entry, snapshotCountKeys)
		if !ok {
			continue
		}
		if quantity < 0 {
			quantity = 0
		}
		// Last write wins within a single snapshot payload.
		cards[arenaID] = quantity
	}
	return cards
}

// -- delta helpers ------------------------------------------------------

func (p *Parser) extractDeltaEvents(payload map[string]any) map[string]map[int]int {
	found := make(map[string]map[int]int)
	walk(payload, func(key string, value any) {
		if _, ok := deltaEventKeys[key]; !ok {
			return
		}
		deltas := p.normalizeDeltas(value)
		if len(deltas) == 0 {
			return
		}
		if existing, ok := found[key]; ok {
			for id, d := range deltas {
				existing[id] += d
			}
			return
		}
		found[key] = deltas
	})
	return found
}

func (p *Parser) normalizeDeltas(value any) map[int]int {
	deltas := make(map[int]int)
	for _, signed := range collectCardEntries(value) {
		arenaID, ok := p.extractArenaID(signed.entry)
		if !ok {
			continue
		}
		change, ok := p.extractFirstInt(signed.entry, deltaCountKeys)
		if !ok {
			// Some payloads carry absolute-style keys for their deltas.
			change, ok = p.extractFirstInt(signed.entry, snapshotCountKeys)
			if !ok {
				continue
			}
		}
		change *= signed.multiplier
		if change == 0 {
			continue
		}
		// A payload both adding and removing the same card nets out.
		deltas[arenaID] += change
	}
	for id, d := range deltas {
		if d == 0 {
			delete(deltas, id)
		}
	}
	return deltas
}

type signedEntry struct {
	entry      map[string]any
	multiplier int
}

// collectCardEntries gathers card-like objects under a delta payload,
// tagging each with +1 or -1 depending on the list it appeared in.
func collectCardEntries(value any) []signedEntry {
	var results []signedEntry
	switch v := value.(type) {
	case map[string]any:
		for key, inner := range v {
			switch key {
			case "adds", "addedcards", "grantedcards":
				for _, item := range ensureList(inner) {
					if entry, ok := item.(map[string]any); ok {
						results = append(results, signedEntry{entry, 1})
					}
				}
			case "removes", "removedcards", "spentcards":
				for _, item := range ensureList(inner) {
					if entry, ok := item.(map[string]any); ok {
						results = append(results, signedEntry{entry, -1})
					}
				}
			case "changes", "cards", "deltas":
				for _, item := range ensureList(inner) {
					if entry, ok := item.(map[string]any); ok {
						results = append(results, signedEntry{entry, 1})
					}
				}
			default:
				results = append(results, collectCardEntries(inner)...)
			}
		}
	case []any:
		for _, item := range v {
			results = append(results, collectCardEntries(item)...)
		}
	}
	return results
}

// -- field extraction ---------------------------------------------------

func (p *Parser) extractArenaID(entry map[string]any) (int, bool) {
	for _, key := range idKeys {
		if value, ok := entry[key]; ok {
			if id, ok := utils.CoerceInt(value); ok {
				return id, true
			}
			p.skipPair(key, value)
			return 0, false
		}
	}
	// Fallback: a bare "id" when the payload only describes a card.
	if value, ok := entry["id"]; ok {
		if id, ok := utils.CoerceInt(value); ok {
			return id, true
		}
	}
	return 0, false
}

func (p *Parser) extractFirstInt(entry map[string]any, keys []string) (int, bool) {
	for _, key := range keys {
		value, ok := entry[key]
		if !ok || value == nil {
			continue
		}
		n, ok := utils.CoerceInt(value)
		if !ok {
			p.skipPair(key, value)
			continue
		}
		return n, true
	}
	return 0, false
}

func (p *Parser) skipPair(key string, value any) {
	p.skippedPairs.Add(1)
	p.logger.Warn("Skipping malformed field",
		zap.String("key", key),
		zap.Any("value", value),
	)
}

// -- traversal helpers --------------------------------------------------

// normalizeKeys lower-cases every object key in the decoded payload into
// fresh maps, so classification never needs case-insensitive compares.
func normalizeKeys(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, inner := range v {
			out[strings.ToLower(key)] = normalizeKeys(inner)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, inner := range v {
			out[i] = normalizeKeys(inner)
		}
		return out
	default:
		return value
	}
}

// findEntries collects objects listed under any of the given keys, at
// any nesting depth.
func findEntries(value any, keys map[string]struct{}) []map[string]any {
	var results []map[string]any
	switch v := value.(type) {
	case map[string]any:
		for key, inner := range v {
			if _, ok := keys[key]; ok {
				for _, item := range ensureList(inner) {
					if entry, ok := item.(map[string]any); ok {
						results = append(results, entry)
					}
				}
				continue
			}
			results = append(results, findEntries(inner, keys)...)
		}
	case []any:
		for _, item := range v {
			results = append(results, findEntries(item, keys)...)
		}
	}
	return results
}

func walk(value any, visit func(key string, value any)) {
	switch v := value.(type) {
	case map[string]any:
		for key, inner := range v {
			visit(key, inner)
			walk(inner, visit)
		}
	case []any:
		for _, item := range v {
			walk(item, visit)
		}
	}
}

func ensureList(value any) []any {
	if list, ok := value.([]any); ok {
		return list
	}
	return []any{value}
}

// extractJSONStrings yields the balanced top-level {...} snippets of a
// line, ignoring any surrounding free text.
func extractJSONStrings(text string) []string {
	var snippets []string
	depth := 0
	start := -1
	for idx, char := range text {
		switch char {
		case '{':
			if depth == 0 {
				start = idx
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 && start >= 0 {
				snippets = append(snippets, text[start:idx+1])
				start = -1
			}
		}
	}
	return snippets
}
