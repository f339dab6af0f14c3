// Package transcript holds the paragraph/word document model and the
// structural edits that operate on it.
//
// A Document is a value: SplitAt, MergeAt, SetText, InsertText and
// SetSpeaker all return a fresh Document and leave their input untouched, so
// a rejected edit is observable only as an error. Word boundaries inside a
// paragraph are resolved through OffsetIndex, which counts offsets in runes.
//
// The package also maps between the flat interchange representation (one word
// array plus paragraph boundaries) and the block representation used for
// editing, and decodes both from JSON or YAML.
package transcript
