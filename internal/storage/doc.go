// Package storage implements the file-backed persistence used by the monitor.
//
// Two stores live here:
//
//   - Store/Collection: one directory per collection, one pretty-printed JSON
//     file per record (<dir>/<collection>/<key>.json).
//   - LogStore: one append-only text file per check id (<dir>/<id>.log) with
//     a rotation step that archives the active log as
//     <dir>/<id>-<millis>.gz.b64 (gzip, then base64).
//
// Every failure is reported as an *Error carrying a Code, so callers can tell
// a missing record from a broken disk with errors.Is:
//
//	if errors.Is(err, storage.ErrNotFound) {
//	    // absent record
//	}
//
// Neither store locks across processes. Concurrent writers to the same key
// follow last-writer-wins semantics.
package storage
