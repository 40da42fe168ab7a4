package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func parseOne(t *testing.T, line string) Event {
	t.Helper()
	events := New(zap.NewNop()).ParseLine(line)
	require.Len(t, events, 1)
	return events[0]
}

func TestParseLine_Snapshot(t *testing.T) {
	line := `[UnityCrossThreadLogger]2026-08-27 <== PlayerInventory.GetPlayerCards {"Cards": [{"grpId": 101, "quantity": 4}, {"grpId": 202, "quantity": 1}]}`

	event := parseOne(t, line)
	snapshot, ok := event.(SnapshotEvent)
	require.True(t, ok)
	assert.Equal(t, map[int]int{101: 4, 202: 1}, snapshot.Cards)
}

func TestParseLine_SnapshotLastWriteWins(t *testing.T) {
	line := `{"ownedCards": [{"grpId": 101, "quantity": 1}, {"grpId": 101, "quantity": 3}]}`

	snapshot := parseOne(t, line).(SnapshotEvent)
	assert.Equal(t, map[int]int{101: 3}, snapshot.Cards)
}

func TestParseLine_SnapshotNegativeQuantityClamped(t *testing.T) {
	line := `{"cards": [{"grpId": 101, "quantity": -2}]}`

	snapshot := parseOne(t, line).(SnapshotEvent)
	assert.Equal(t, map[int]int{101: 0}, snapshot.Cards)
}

func TestParseLine_CaseTolerance(t *testing.T) {
	lines := []string{
		`{"Cards": [{"GrpId": 7, "Quantity": 2}]}`,
		`{"CARDS": [{"GRPID": 7, "QUANTITY": 2}]}`,
		`{"cards": [{"grpid": 7, "quantity": 2}]}`,
	}

	for _, line := range lines {
		snapshot := parseOne(t, line).(SnapshotEvent)
		assert.Equal(t, map[int]int{7: 2}, snapshot.Cards, "line: %s", line)
	}
}

func TestParseLine_DeltaAddsAndRemoves(t *testing.T) {
	line := `{"InventoryDelta": {"adds": [{"grpId": 1, "delta": 2}], "removes": [{"grpId": 2, "delta": 1}]}}`

	delta := parseOne(t, line).(DeltaEvent)
	assert.Equal(t, map[int]int{1: 2, 2: -1}, delta.Deltas)
	assert.Equal(t, "inventorydelta", delta.Source)
}

func TestParseLine_DeltaSameCardNets(t *testing.T) {
	line := `{"boosterOpened": {"adds": [{"grpId": 5, "delta": 3}], "removes": [{"grpId": 5, "delta": 1}]}}`

	delta := parseOne(t, line).(DeltaEvent)
	assert.Equal(t, map[int]int{5: 2}, delta.Deltas)
}

func TestParseLine_DeltaFullCancellationIsNoise(t *testing.T) {
	p := New(zap.NewNop())
	line := `{"craftCard": {"adds": [{"grpId": 5, "delta": 1}], "removes": [{"grpId": 5, "delta": 1}]}}`

	events := p.ParseLine(line)
	assert.Empty(t, events)
	assert.EqualValues(t, 1, p.NoiseLines())
}

func TestParseLine_DeltaQuantityFallback(t *testing.T) {
	// Delta payloads sometimes carry absolute-style count keys.
	line := `{"eventReward": {"grantedCards": [{"grpId": 9, "quantity": 1}]}}`

	delta := parseOne(t, line).(DeltaEvent)
	assert.Equal(t, map[int]int{9: 1}, delta.Deltas)
}

func TestParseLine_DeltaNestedWrapper(t *testing.T) {
	line := `{"payload": {"inventoryUpdated": {"changes": [{"grpId": 3, "delta": 2}]}}}`

	delta := parseOne(t, line).(DeltaEvent)
	assert.Equal(t, map[int]int{3: 2}, delta.Deltas)
}

func TestParseLine_MalformedPairSkipped(t *testing.T) {
	p := New(zap.NewNop())
	line := `{"cards": [{"grpId": 1, "quantity": "four"}, {"grpId": 2, "quantity": 2}]}`

	events := p.ParseLine(line)
	require.Len(t, events, 1)
	snapshot := events[0].(SnapshotEvent)
	assert.Equal(t, map[int]int{2: 2}, snapshot.Cards)
	assert.Positive(t, p.SkippedPairs())
}

func TestParseLine_Noise(t *testing.T) {
	p := New(zap.NewNop())

	for _, line := range []string{
		"plain text without json",
		`{"unrelated": true}`,
		`{"cards": "not a list"}`,
		`broken {"cards": [}`,
		"",
	} {
		assert.Empty(t, p.ParseLine(line), "line: %s", line)
	}
	assert.EqualValues(t, 5, p.NoiseLines())
}

func TestParseLine_MultipleObjectsInOneLine(t *testing.T) {
	p := New(zap.NewNop())
	line := `prefix {"dailyWin": {"cards": [{"grpId": 1, "delta": 1}]}} middle {"dailyWin": {"cards": [{"grpId": 2, "delta": 1}]}}`

	events := p.ParseLine(line)
	require.Len(t, events, 2)
	assert.Equal(t, map[int]int{1: 1}, events[0].(DeltaEvent).Deltas)
	assert.Equal(t, map[int]int{2: 1}, events[1].(DeltaEvent).Deltas)
}

func TestParseLine_IDKeyVariants(t *testing.T) {
	for _, line := range []string{
		`{"cards": [{"grp_id": 11, "qty": 1}]}`,
		`{"cards": [{"titleId": 11, "count": 1}]}`,
		`{"cards": [{"arenaId": 11, "quantity": 1}]}`,
		`{"cards": [{"id": 11, "quantity": 1}]}`,
	} {
		snapshot := parseOne(t, line).(SnapshotEvent)
		assert.Equal(t, map[int]int{11: 1}, snapshot.Cards, "line: %s", line)
	}
}

func TestExtractJSONStrings(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"None", "no json here", nil},
		{"Simple", `x {"a":1} y`, []string{`{"a":1}`}},
		{"Nested", `{"a":{"b":2}}`, []string{`{"a":{"b":2}}`}},
		{"Two", `{"a":1}{"b":2}`, []string{`{"a":1}`, `{"b":2}`}},
		{"StrayClose", `} {"a":1}`, []string{`{"a":1}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractJSONStrings(tt.text))
		})
	}
}
