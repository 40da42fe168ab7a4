// Package tracker assembles the collection pipeline into a daemon: a
// log tailer feeding the event parser, a reconciliation engine keeping
// the owned-card table consistent, periodic exports, and a metadata
// refresh. Everything runs on one cooperative loop, so no component
// needs internal locking.
package tracker
