// Package exporter renders the collection joined with cached metadata
// to flat CSV and JSON files using a temp-file-then-rename write, and
// optionally mirrors the files to an S3-compatible bucket.
package exporter
