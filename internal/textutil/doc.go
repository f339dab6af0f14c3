// Package textutil provides the text helpers shared by the transcript core and
// the export layer.
//
// The primary use cases are:
//   - Splitting paragraph text into whitespace-separated tokens and joining
//     tokens back with single spaces
//   - Normalizing text for loose comparison (lowercase, no punctuation)
//   - Upper-casing speaker labels with Unicode-aware case mapping
//   - Sanitizing titles for use as export file names
package textutil
