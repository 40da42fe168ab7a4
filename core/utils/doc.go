// Package utils provides small conversion helpers shared across the
// pipeline, mainly tolerant scalar coercion for the loosely typed JSON
// payloads found in Arena log lines.
package utils
