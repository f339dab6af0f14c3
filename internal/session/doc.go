// Package session owns one transcript document together with its edit log and
// processing state.
//
// Every edit is an Operation appended to the log. The current document is the
// base document with the first Head operations applied, so Undo replays a
// shorter prefix and Redo applies the next entry; a new edit after an undo
// drops the redo tail. Operations are deterministic, which makes undo and redo
// reproduce byte-identical documents.
//
// Realign, ReplaceText and Export hold the processing flag. A second request
// while one is in flight fails with faults.ErrConcurrentOperation, as do edits,
// so readers never observe a half-realigned document. Snapshot returns an
// immutable copy at any time.
package session
