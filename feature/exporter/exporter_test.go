package exporter

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"collection-tracker/core/database"
	"collection-tracker/core/storage/mocks"
	"collection-tracker/feature/collection"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *collection.Store {
	t.Helper()
	db, err := database.Connect(database.Config{
		Driver: database.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "state.db"),
	})
	require.NoError(t, err)
	store, err := collection.NewStore(db)
	require.NoError(t, err)
	return store
}

func seedStore(t *testing.T, store *collection.Store) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, store.ReplaceCards(map[int]int{1: 4, 2: 1}, now))
	require.NoError(t, store.UpsertMetadata([]collection.CardMetadata{
		{ArenaID: 1, Name: "Shock", SetCode: "m21", Rarity: "common", UpdatedAt: now},
		{ArenaID: 2, Name: "Opt", SetCode: "eld", Rarity: "common", UpdatedAt: now},
	}))
}

func TestExport_WritesBothFiles(t *testing.T) {
	store := newTestStore(t)
	seedStore(t, store)
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "collection.csv")
	jsonPath := filepath.Join(dir, "collection.json")

	n, err := New(store, csvPath, jsonPath, zap.NewNop()).Export(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// CSV has a header plus one record per card, sorted by name.
	f, err := os.Open(csvPath)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"arena_id", "quantity", "name", "set", "rarity"}, records[0])
	assert.Equal(t, []string{"2", "1", "Opt", "eld", "common"}, records[1])
	assert.Equal(t, []string{"1", "4", "Shock", "m21", "common"}, records[2])

	// JSON decodes to the same rows.
	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	var rows []collection.ExportRow
	require.NoError(t, json.Unmarshal(data, &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "Opt", rows[0].Name)
	assert.Equal(t, 4, rows[1].Quantity)
}

func TestExport_EmptyCollection(t *testing.T) {
	store := newTestStore(t)
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "collection.csv")
	jsonPath := filepath.Join(dir, "collection.json")

	n, err := New(store, csvPath, jsonPath, zap.NewNop()).Export(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(string(data)))
}

func TestExport_AtomicNoTempLeftBehind(t *testing.T) {
	store := newTestStore(t)
	seedStore(t, store)
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "collection.csv")
	jsonPath := filepath.Join(dir, "collection.json")
	exp := New(store, csvPath, jsonPath, zap.NewNop())

	// Repeated exports replace the files in place via rename.
	for i := 0; i < 3; i++ {
		_, err := exp.Export(context.Background())
		require.NoError(t, err)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	assert.ElementsMatch(t, []string{"collection.csv", "collection.json"}, names)
}

func TestExport_PublishesToBucket(t *testing.T) {
	store := newTestStore(t)
	seedStore(t, store)
	dir := t.TempDir()

	client := new(mocks.Client)
	client.On("BucketExists", mock.Anything, "collection-exports").Return(true, nil)
	client.On("PutObject", mock.Anything, "collection-exports", "exports/collection.csv",
		mock.Anything, mock.Anything, mock.Anything).Return(minio.UploadInfo{}, nil)
	client.On("PutObject", mock.Anything, "collection-exports", "exports/collection.json",
		mock.Anything, mock.Anything, mock.Anything).Return(minio.UploadInfo{}, nil)

	exp := New(store, filepath.Join(dir, "collection.csv"), filepath.Join(dir, "collection.json"), zap.NewNop()).
		WithPublisher(client, "collection-exports", "exports")

	_, err := exp.Export(context.Background())
	require.NoError(t, err)
	client.AssertExpectations(t)
}

func TestExport_PublishFailureKeepsLocalFiles(t *testing.T) {
	store := newTestStore(t)
	seedStore(t, store)
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "collection.csv")

	client := new(mocks.Client)
	client.On("BucketExists", mock.Anything, mock.Anything).Return(false, assert.AnError)

	exp := New(store, csvPath, filepath.Join(dir, "collection.json"), zap.NewNop()).
		WithPublisher(client, "collection-exports", "")

	// The export itself succeeds; publishing is best effort.
	n, err := exp.Export(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.FileExists(t, csvPath)
}
