package transcript

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"timedtext/internal/faults"
	"timedtext/internal/textutil"
)

// Markers the editor inserts for untranscribable audio.
const (
	Inaudible = "[INAUDIBLE]"
	Music     = "♪"
)

func rejectEdit(operation, message string) error {
	return faults.Wrap(faults.ErrStructuralEditRejected, "transcript", operation, message, nil)
}

// WordCutter reports how many of words go to the first paragraph when text is
// split after its first tokensBefore tokens.
type WordCutter func(words []Word, text string, tokensBefore int) int

// SplitAt splits the paragraph under a collapsed selection at a word boundary.
// The returned point is the start of the second paragraph. Words of an edited
// paragraph are cut at the token count; use SplitAtWith to cut them by
// alignment.
func SplitAt(doc Document, sel Selection) (Document, Point, error) {
	return SplitAtWith(doc, sel, nil)
}

// SplitAtWith is SplitAt with cut deciding where an edited paragraph's words
// are divided. Clean paragraphs are always cut at the token count.
func SplitAtWith(doc Document, sel Selection, cut WordCutter) (Document, Point, error) {
	if sel.Anchor.Paragraph != sel.Focus.Paragraph {
		return doc, sel.Focus, rejectEdit("split", "selection spans paragraphs")
	}
	if !sel.Collapsed() {
		return doc, sel.Focus, rejectEdit("split", "selection is not collapsed")
	}
	pi, offset := sel.Focus.Paragraph, sel.Focus.Offset
	if pi < 0 || pi >= len(doc.Paragraphs) {
		return doc, sel.Focus, rejectEdit("split", fmt.Sprintf("paragraph %d out of range", pi))
	}
	if offset == 0 {
		return doc, sel.Focus, rejectEdit("split", "cannot split at paragraph start")
	}
	para := doc.Paragraphs[pi]
	idx := NewOffsetIndex(para.Text)
	if offset < 0 || offset > idx.Length() {
		return doc, sel.Focus, rejectEdit("split", fmt.Sprintf("offset %d out of range", offset))
	}
	n, ok := idx.Boundary(offset)
	if !ok {
		return doc, sel.Focus, faults.Wrap(faults.ErrNotAtWordBoundary, "transcript", "split", fmt.Sprintf("offset %d", offset), nil)
	}
	if n == 0 || n >= idx.Len() {
		return doc, sel.Focus, rejectEdit("split", "split would leave an empty paragraph")
	}

	clean := para.Clean()
	tokens := textutil.Fields(para.Text)
	k := min(n, len(para.Words))
	if !clean && cut != nil {
		k = max(0, min(cut(para.Words, para.Text, n), len(para.Words)))
	}
	before := append([]Word(nil), para.Words[:k]...)
	after := append([]Word(nil), para.Words[k:]...)

	first := Paragraph{
		Speaker: para.Speaker,
		Start:   para.Start,
		Words:   before,
		Text:    textutil.JoinWords(tokens[:n]),
	}
	second := Paragraph{
		Speaker: para.Speaker,
		Words:   after,
		Text:    textutil.JoinWords(tokens[n:]),
	}
	switch {
	case len(after) > 0:
		second.Start = after[0].Start
	case len(before) > 0:
		second.Start = before[len(before)-1].End
	default:
		second.Start = para.Start
	}

	out := doc.Clone()
	out.Paragraphs = append(out.Paragraphs[:pi], append([]Paragraph{first, second}, out.Paragraphs[pi+1:]...)...)
	if !clean {
		out.Modified = true
	}
	return out, Point{Paragraph: pi + 1, Offset: 0}, nil
}

// MergeAt handles a backspace at offset in paragraph pi. At offset 0 the
// paragraph is merged into the previous one; otherwise the rune before the
// offset is deleted and the document is marked modified.
func MergeAt(doc Document, pi, offset int) (Document, Point, error) {
	at := Point{Paragraph: pi, Offset: offset}
	if pi < 0 || pi >= len(doc.Paragraphs) {
		return doc, at, rejectEdit("merge", fmt.Sprintf("paragraph %d out of range", pi))
	}
	cur := doc.Paragraphs[pi]
	runes := []rune(cur.Text)
	if offset < 0 || offset > len(runes) {
		return doc, at, rejectEdit("merge", fmt.Sprintf("offset %d out of range", offset))
	}
	if offset > 0 {
		out := doc.Clone()
		edited := string(runes[:offset-1]) + string(runes[offset:])
		out.Paragraphs[pi].Text = edited
		out.Modified = true
		return out, Point{Paragraph: pi, Offset: offset - 1}, nil
	}
	if pi == 0 {
		return doc, at, rejectEdit("merge", "first paragraph has nothing to merge into")
	}

	prev := doc.Paragraphs[pi-1]
	merged := Paragraph{
		Speaker: prev.Speaker,
		Start:   prev.Start,
		Words:   append(append([]Word(nil), prev.Words...), cur.Words...),
	}
	prevText := strings.TrimSpace(prev.Text)
	curText := strings.TrimSpace(cur.Text)
	switch {
	case prevText == "":
		merged.Text = curText
	case curText == "":
		merged.Text = prevText
	default:
		merged.Text = prevText + " " + curText
	}

	out := doc.Clone()
	out.Paragraphs[pi-1] = merged
	out.Paragraphs = append(out.Paragraphs[:pi], out.Paragraphs[pi+1:]...)
	if !prev.Clean() || !cur.Clean() {
		out.Modified = true
	}
	return out, Point{Paragraph: pi - 1, Offset: utf8.RuneCountInString(prevText)}, nil
}

// SetText replaces a paragraph's text. Words are left for realignment.
func SetText(doc Document, pi int, text string) (Document, error) {
	if pi < 0 || pi >= len(doc.Paragraphs) {
		return doc, rejectEdit("set text", fmt.Sprintf("paragraph %d out of range", pi))
	}
	if doc.Paragraphs[pi].Text == text {
		return doc.Clone(), nil
	}
	out := doc.Clone()
	out.Paragraphs[pi].Text = text
	out.Modified = true
	return out, nil
}

// InsertText inserts s at a rune offset inside a paragraph.
func InsertText(doc Document, at Point, s string) (Document, Point, error) {
	if at.Paragraph < 0 || at.Paragraph >= len(doc.Paragraphs) {
		return doc, at, rejectEdit("insert", fmt.Sprintf("paragraph %d out of range", at.Paragraph))
	}
	runes := []rune(doc.Paragraphs[at.Paragraph].Text)
	if at.Offset < 0 || at.Offset > len(runes) {
		return doc, at, rejectEdit("insert", fmt.Sprintf("offset %d out of range", at.Offset))
	}
	if s == "" {
		return doc.Clone(), at, nil
	}
	out := doc.Clone()
	out.Paragraphs[at.Paragraph].Text = string(runes[:at.Offset]) + s + string(runes[at.Offset:])
	out.Modified = true
	return out, Point{Paragraph: at.Paragraph, Offset: at.Offset + utf8.RuneCountInString(s)}, nil
}

// SetSpeaker relabels a paragraph. Timing is unaffected.
func SetSpeaker(doc Document, pi int, speaker string) (Document, error) {
	if pi < 0 || pi >= len(doc.Paragraphs) {
		return doc, rejectEdit("set speaker", fmt.Sprintf("paragraph %d out of range", pi))
	}
	speaker = strings.TrimSpace(speaker)
	if speaker == "" {
		return doc, faults.Wrap(faults.ErrValidation, "transcript", "set speaker", "speaker label is empty", nil)
	}
	out := doc.Clone()
	out.Paragraphs[pi].Speaker = speaker
	return out, nil
}

// Append adds paragraphs to the end of the document. A word id already in
// the document, or repeated among the new words, rejects the whole append.
func Append(doc Document, paragraphs []Paragraph) (Document, error) {
	ids := make(map[int]struct{})
	for _, p := range doc.Paragraphs {
		for _, w := range p.Words {
			ids[w.ID] = struct{}{}
		}
	}
	out := doc.Clone()
	for _, p := range paragraphs {
		for _, w := range p.Words {
			if _, dup := ids[w.ID]; dup {
				return doc, faults.Wrap(faults.ErrValidation, "transcript", "append", fmt.Sprintf("duplicate word id %d", w.ID), nil)
			}
			ids[w.ID] = struct{}{}
		}
		out.Paragraphs = append(out.Paragraphs, p.clone())
		if !p.Clean() {
			out.Modified = true
		}
	}
	return out, nil
}
