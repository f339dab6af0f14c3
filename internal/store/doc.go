// Package store persists transcript documents and their edit logs in SQLite.
//
// Each document row keeps the base document the log starts from, the current
// document, and the log head. Operations are stored one row per log position
// so undo and redo survive restarts. Store implements session.Journal.
//
// Cross-process writers coordinate through per-document lock files taken with
// Lock.
package store
