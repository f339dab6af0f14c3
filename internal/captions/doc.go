// Package captions segments a flat transcript into timed cues and writes them
// as SRT, WebVTT, TTML or CSV.
//
// Segmentation runs per paragraph, so a cue never spans a speaker turn. A cue
// is closed when adding the next word would exceed the maximum cue duration or
// the line budget (MaxLines lines of MaxCharsPerLine runes). Short cues are
// stretched to MinCueSeconds without overlapping the next cue. Callers are
// expected to pass monotonic, non-overlapping word timings.
package captions
