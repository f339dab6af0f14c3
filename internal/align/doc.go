// Package align re-derives word timings after a transcript's text has been
// edited.
//
// Align tokenizes the edited text and runs a unit-cost edit distance against
// the original words. Tokens on the diagonal inherit the reference word's
// timing (keeping their own text), inserted tokens are interpolated between
// their anchored neighbours, and deleted reference words are dropped. Among
// equal-cost paths the one with more exact matches wins, then the diagonal
// move. Comparison ignores case and punctuation.
//
// Two call sites sit on top of Align: RealignParagraphs realigns each dirty
// paragraph against its own words, and ReplaceText realigns a whole new text
// against the full source sequence and re-chunks it along the previous
// paragraph sizes.
package align
