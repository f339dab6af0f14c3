package transcript

import (
	"sort"
	"unicode"
)

// Span is a token's rune range [Start, End) inside a paragraph text.
type Span struct {
	Start int
	End   int
}

// OffsetIndex maps rune offsets in a paragraph text to token positions.
// Tokens are maximal runs of non-whitespace, matching strings.Fields.
type OffsetIndex struct {
	spans  []Span
	length int
}

// NewOffsetIndex scans text once and records each token's rune span.
func NewOffsetIndex(text string) OffsetIndex {
	var (
		idx     OffsetIndex
		pos     int
		inToken bool
		start   int
	)
	for _, r := range text {
		if unicode.IsSpace(r) {
			if inToken {
				idx.spans = append(idx.spans, Span{Start: start, End: pos})
				inToken = false
			}
		} else if !inToken {
			start = pos
			inToken = true
		}
		pos++
	}
	if inToken {
		idx.spans = append(idx.spans, Span{Start: start, End: pos})
	}
	idx.length = pos
	return idx
}

// Len returns the number of tokens.
func (x OffsetIndex) Len() int { return len(x.spans) }

// Length returns the text length in runes.
func (x OffsetIndex) Length() int { return x.length }

// Span returns token i's rune range.
func (x OffsetIndex) Span(i int) Span { return x.spans[i] }

// Boundary reports how many tokens end at or before offset. ok is false when
// offset falls strictly inside a token or outside the text.
func (x OffsetIndex) Boundary(offset int) (wordsBefore int, ok bool) {
	if offset < 0 || offset > x.length {
		return 0, false
	}
	i := sort.Search(len(x.spans), func(i int) bool { return x.spans[i].End > offset })
	if i < len(x.spans) && offset > x.spans[i].Start {
		return i, false
	}
	return i, true
}
