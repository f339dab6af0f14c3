// Package main hosts the timedtext CLI entrypoint and command graph.
//
// Commands load a stored document, restore its edit session from the
// persisted log, apply one operation, and exit. Mutating commands hold the
// per-document lock for their whole run so two terminals cannot interleave
// edits on the same transcript.
package main
