package tailer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"collection-tracker/feature/collection"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memCursorStore keeps the cursor in memory for tests.
type memCursorStore struct {
	cursor collection.TailerCursor
	found  bool
	saves  int
}

func (m *memCursorStore) Cursor() (collection.TailerCursor, bool, error) {
	return m.cursor, m.found, nil
}

func (m *memCursorStore) SaveCursor(c collection.TailerCursor) error {
	c.ID = 0
	m.cursor = c
	m.found = true
	m.saves++
	return nil
}

func appendFile(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func poll(t *testing.T, tl *Tailer) []string {
	t.Helper()
	lines, err := tl.Poll(context.Background())
	require.NoError(t, err)
	require.NoError(t, tl.Commit())
	return lines
}

func TestTailer_MissingFile(t *testing.T) {
	store := &memCursorStore{}
	tl := New(filepath.Join(t.TempDir(), "Player.log"), store, zap.NewNop())

	lines, err := tl.Poll(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, lines)
	assert.True(t, tl.Idle())
}

func TestTailer_AppendsAndPartialLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Player.log")
	store := &memCursorStore{}
	tl := New(path, store, zap.NewNop())

	appendFile(t, path, "one\ntwo\npar")
	lines := poll(t, tl)
	assert.Equal(t, []string{"one", "two"}, lines)

	// The partial line is held back until its newline arrives.
	lines = poll(t, tl)
	assert.Empty(t, lines)

	appendFile(t, path, "tial\nthree\n")
	lines = poll(t, tl)
	assert.Equal(t, []string{"partial", "three"}, lines)
}

func TestTailer_IdempotentRepoll(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Player.log")
	store := &memCursorStore{}
	tl := New(path, store, zap.NewNop())

	appendFile(t, path, "a\nb\n")
	assert.Equal(t, []string{"a", "b"}, poll(t, tl))

	before := store.cursor
	assert.Empty(t, poll(t, tl))
	assert.Empty(t, poll(t, tl))
	assert.Equal(t, before, store.cursor)
}

func TestTailer_Rotation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Player.log")
	store := &memCursorStore{}
	tl := New(path, store, zap.NewNop())

	appendFile(t, path, "old-1\nold-2\n")
	assert.Equal(t, []string{"old-1", "old-2"}, poll(t, tl))

	// Rotate: a new file replaces the old one at the same path.
	rotated := filepath.Join(dir, "Player.log.1")
	require.NoError(t, os.Rename(path, rotated))
	appendFile(t, path, "new-1\nnew-2\n")

	lines := poll(t, tl)
	assert.Equal(t, []string{"new-1", "new-2"}, lines)
}

func TestTailer_Truncation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Player.log")
	store := &memCursorStore{}
	tl := New(path, store, zap.NewNop())

	appendFile(t, path, "a long opening line\nanother\n")
	assert.Len(t, poll(t, tl), 2)

	// Truncate in place; the shorter size forces a restart from zero.
	require.NoError(t, os.WriteFile(path, []byte("fresh\n"), 0o644))
	assert.Equal(t, []string{"fresh"}, poll(t, tl))
}

func TestTailer_ResumeAcrossRestart(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Player.log")
	store := &memCursorStore{}

	tl := New(path, store, zap.NewNop())
	appendFile(t, path, "a\nb\n")
	assert.Equal(t, []string{"a", "b"}, poll(t, tl))

	// A new tailer over the same store resumes without re-reading.
	tl2 := New(path, store, zap.NewNop())
	assert.Empty(t, poll(t, tl2))

	appendFile(t, path, "c\n")
	assert.Equal(t, []string{"c"}, poll(t, tl2))
}

func TestTailer_DirectoryIsFatal(t *testing.T) {
	dir := t.TempDir()
	store := &memCursorStore{}
	tl := New(dir, store, zap.NewNop())

	_, err := tl.Poll(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFatal)
}

func TestTailer_CommitOnlyAfterPoll(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Player.log")
	store := &memCursorStore{}
	tl := New(path, store, zap.NewNop())

	// Commit without a staged cursor is a no-op.
	require.NoError(t, tl.Commit())
	assert.Zero(t, store.saves)

	appendFile(t, path, "a\n")
	_, err := tl.Poll(context.Background())
	require.NoError(t, err)
	assert.Zero(t, store.saves)

	require.NoError(t, tl.Commit())
	assert.Equal(t, 1, store.saves)
	assert.EqualValues(t, 2, store.cursor.Offset)
}

func TestSplitCompleteLines(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		lines    []string
		consumed int64
	}{
		{"Empty", "", nil, 0},
		{"OnlyPartial", "abc", nil, 0},
		{"SingleLine", "abc\n", []string{"abc"}, 4},
		{"CRLF", "abc\r\n", []string{"abc"}, 5},
		{"TrailingPartial", "a\nb\nxyz", []string{"a", "b"}, 4},
		{"BlankLines", "\n\n", []string{"", ""}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines, consumed := splitCompleteLines([]byte(tt.input))
			assert.Equal(t, tt.lines, lines)
			assert.Equal(t, tt.consumed, consumed)
		})
	}
}
