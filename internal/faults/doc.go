// Package faults defines the error markers shared by the transcript core and
// the layers wrapped around it.
//
// Every recoverable condition the editor can hit (a rejected structural edit,
// an unknown export format, a second alignment while one is running) is a
// sentinel marker. Wrap attaches component and operation context while keeping
// the marker reachable through errors.Is, and Kind maps an error back to the
// short label used in structured log fields.
package faults
