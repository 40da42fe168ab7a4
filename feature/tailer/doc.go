// Package tailer follows the growing Arena Player.log across rotations.
//
// Each Poll returns the complete lines appended since the persisted
// cursor and stages the advanced position; Commit persists it once the
// batch has been handed to the parser. Because the cursor only ever
// advances past fully consumed lines, a crash between Poll and Commit
// re-delivers lines (at-least-once) instead of dropping them.
//
// Rotation is detected by comparing the file's device+inode identity
// against the persisted one, truncation by the size dropping below the
// stored offset. Either resets the cursor to offset zero.
//
// Transient I/O failures (file briefly missing, permission race) are
// swallowed and retried on the next poll. Unrecoverable conditions are
// wrapped with ErrFatal and stop the run loop.
package tailer
