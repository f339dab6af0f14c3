// Package export renders transcript documents into text, caption, rich
// document and interchange JSON outputs.
//
// Format is a closed set of variants (Text, Caption, RichDocument, JSONBlock,
// JSONFlat), each built with validated options by its constructor or by
// ParseFormat. Render is pure: it never realigns or mutates the document. The
// session layer realigns first when the document is modified and the chosen
// format RequiresTimestamps.
package export
