package tailer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"collection-tracker/feature/collection"

	"go.uber.org/zap"
)

// ErrFatal marks tailer failures the scheduler loop cannot recover from
// (e.g. the target path is a directory). Transient I/O problems are
// swallowed and retried on the next poll instead.
var ErrFatal = errors.New("fatal tailer error")

// CursorStore persists the tailer position between polls and restarts.
// Implemented by the collection store.
type CursorStore interface {
	Cursor() (collection.TailerCursor, bool, error)
	SaveCursor(collection.TailerCursor) error
}

// Tailer yields newly appended complete lines of a growing log file.
// It detects rotation (identity change) and truncation (size shrink) and
// restarts from offset zero when either happens. A trailing partial line
// is left unconsumed on disk until its newline arrives, so the persisted
// offset always points exactly past the last complete line.
type Tailer struct {
	path   string
	store  CursorStore
	logger *zap.Logger

	offset   int64
	device   uint64
	inode    uint64
	hasIdent bool
	loaded   bool
	lastSize int64

	// staged cursor, persisted by Commit after the batch was parsed
	staged   collection.TailerCursor
	hasStage bool
}

// New creates a tailer for path, restoring its position from store on
// the first poll.
func New(path string, store CursorStore, logger *zap.Logger) *Tailer {
	return &Tailer{path: path, store: store, logger: logger}
}

// Poll reads all complete lines appended past the current offset and
// stages the advanced cursor. A missing file yields an empty batch and
// no error. Callers must invoke Commit once the batch has been handed
// to the parser; until then a crash re-delivers the same lines.
func (t *Tailer) Poll(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := t.restore(); err != nil {
		return nil, fmt.Errorf("%w: loading cursor: %v", ErrFatal, err)
	}

	info, err := os.Stat(t.path)
	if err != nil {
		if os.IsNotExist(err) {
			// Not yet started. Forget identity so a future file is
			// treated as brand new.
			t.hasIdent = false
			t.offset = 0
			t.lastSize = 0
			return nil, nil
		}
		// Permission race or similar; retry next poll.
		t.logger.Debug("Stat failed, will retry", zap.Error(err))
		return nil, nil
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrFatal, t.path)
	}

	device, inode, identKnown := fileIdentity(info)
	rotated := t.hasIdent && identKnown && (device != t.device || inode != t.inode)
	truncated := info.Size() < t.offset
	if rotated || truncated {
		t.logger.Info("Log file rotated, restarting from start",
			zap.Bool("identity_changed", rotated),
			zap.Bool("truncated", truncated),
			zap.Uint64("inode", inode),
		)
		t.offset = 0
		// Reset the persisted cursor immediately so a crash before the
		// next commit cannot resume from a stale offset in the new file.
		if err := t.store.SaveCursor(collection.TailerCursor{Device: device, Inode: inode, Offset: 0}); err != nil {
			return nil, fmt.Errorf("%w: resetting cursor: %v", ErrFatal, err)
		}
	}
	t.device, t.inode, t.hasIdent = device, inode, identKnown
	t.lastSize = info.Size()

	if info.Size() <= t.offset {
		return nil, nil
	}

	file, err := os.Open(t.path)
	if err != nil {
		t.logger.Debug("Open failed, will retry", zap.Error(err))
		return nil, nil
	}
	defer file.Close()

	if _, err := file.Seek(t.offset, io.SeekStart); err != nil {
		t.logger.Debug("Seek failed, will retry", zap.Error(err))
		return nil, nil
	}

	data := make([]byte, info.Size()-t.offset)
	n, err := io.ReadFull(file, data)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		t.logger.Debug("Read failed, will retry", zap.Error(err))
		return nil, nil
	}
	data = data[:n]

	lines, consumed := splitCompleteLines(data)
	t.offset += consumed
	t.staged = collection.TailerCursor{Device: t.device, Inode: t.inode, Offset: t.offset}
	t.hasStage = true
	return lines, nil
}

// Commit persists the cursor staged by the last Poll. It is called after
// the batch was parsed so a crash in between re-delivers lines rather
// than losing them.
func (t *Tailer) Commit() error {
	if !t.hasStage {
		return nil
	}
	if err := t.store.SaveCursor(t.staged); err != nil {
		return fmt.Errorf("persisting cursor: %w", err)
	}
	t.hasStage = false
	return nil
}

// Idle reports whether the file is currently absent or empty, which the
// run loop uses to back off to the idle poll interval.
func (t *Tailer) Idle() bool {
	return t.lastSize == 0
}

func (t *Tailer) restore() error {
	if t.loaded {
		return nil
	}
	cursor, found, err := t.store.Cursor()
	if err != nil {
		return err
	}
	if found {
		t.offset = cursor.Offset
		t.device = cursor.Device
		t.inode = cursor.Inode
		t.hasIdent = cursor.Device != 0 || cursor.Inode != 0
	}
	t.loaded = true
	return nil
}

// splitCompleteLines returns the complete lines in data and the number
// of bytes they occupy including newlines. A trailing fragment without
// a newline is not consumed.
func splitCompleteLines(data []byte) ([]string, int64) {
	var lines []string
	var consumed int64
	for {
		idx := bytes.IndexByte(data, '\n')
		if idx < 0 {
			break
		}
		line := data[:idx]
		line = bytes.TrimSuffix(line, []byte("\r"))
		lines = append(lines, string(line))
		consumed += int64(idx + 1)
		data = data[idx+1:]
	}
	return lines, consumed
}
