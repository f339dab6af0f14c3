package transcript

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"timedtext/internal/faults"
)

func helloWorld() Document {
	words := []Word{
		{ID: 0, Start: 0.0, End: 0.4, Text: "hello"},
		{ID: 1, Start: 0.5, End: 0.9, Text: "world"},
	}
	return Document{Paragraphs: []Paragraph{NewParagraph("A", words)}}
}

func threeWords() Document {
	words := []Word{
		{ID: 0, Start: 0.0, End: 0.4, Text: "one"},
		{ID: 1, Start: 0.5, End: 0.9, Text: "two"},
		{ID: 2, Start: 1.0, End: 1.4, Text: "three"},
	}
	return Document{Paragraphs: []Paragraph{NewParagraph("B", words)}}
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(data)
}

func TestSplitAtAfterFirstWord(t *testing.T) {
	doc := helloWorld()
	out, cursor, err := SplitAt(doc, Caret(0, 5))
	if err != nil {
		t.Fatalf("SplitAt returned error: %v", err)
	}
	if len(out.Paragraphs) != 2 {
		t.Fatalf("expected 2 paragraphs, got %d", len(out.Paragraphs))
	}
	first, second := out.Paragraphs[0], out.Paragraphs[1]
	if first.Speaker != "A" || first.Start != 0.0 || first.Text != "hello" || len(first.Words) != 1 || first.Words[0].ID != 0 {
		t.Fatalf("unexpected first paragraph: %+v", first)
	}
	if second.Speaker != "A" || second.Start != 0.5 || second.Text != "world" || len(second.Words) != 1 || second.Words[0].ID != 1 {
		t.Fatalf("unexpected second paragraph: %+v", second)
	}
	if cursor != (Point{Paragraph: 1, Offset: 0}) {
		t.Fatalf("unexpected cursor: %+v", cursor)
	}
	if out.Modified {
		t.Fatal("clean split should not mark the document modified")
	}
	if len(doc.Paragraphs) != 1 {
		t.Fatal("input document was mutated")
	}
}

func TestSplitAtPartitionsWords(t *testing.T) {
	doc := threeWords()
	for _, offset := range []int{3, 4, 7, 8} {
		out, _, err := SplitAt(doc, Caret(0, offset))
		if err != nil {
			t.Fatalf("SplitAt(%d): %v", offset, err)
		}
		a, b := out.Paragraphs[0], out.Paragraphs[1]
		joined := append(append([]Word(nil), a.Words...), b.Words...)
		if !reflect.DeepEqual(joined, doc.Paragraphs[0].Words) {
			t.Fatalf("SplitAt(%d) words do not partition the original: %+v %+v", offset, a.Words, b.Words)
		}
		if a.Text+" "+b.Text != doc.Paragraphs[0].Text {
			t.Fatalf("SplitAt(%d) texts %q + %q do not rejoin", offset, a.Text, b.Text)
		}
		if !a.Clean() || !b.Clean() {
			t.Fatalf("SplitAt(%d) produced dirty paragraphs", offset)
		}
	}
}

func TestSplitAtRejectionsLeaveDocumentUnchanged(t *testing.T) {
	tests := []struct {
		name string
		sel  Selection
		want error
	}{
		{"paragraph start", Caret(0, 0), faults.ErrStructuralEditRejected},
		{"mid word", Caret(0, 2), faults.ErrNotAtWordBoundary},
		{"end of text", Caret(0, 11), faults.ErrStructuralEditRejected},
		{"past end", Caret(0, 40), faults.ErrStructuralEditRejected},
		{"bad paragraph", Caret(3, 1), faults.ErrStructuralEditRejected},
		{"range", Selection{Anchor: Point{0, 1}, Focus: Point{0, 5}}, faults.ErrStructuralEditRejected},
		{"cross paragraph", Selection{Anchor: Point{0, 5}, Focus: Point{1, 0}}, faults.ErrStructuralEditRejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := helloWorld()
			before := mustJSON(t, doc)
			out, _, err := SplitAt(doc, tt.sel)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if got := mustJSON(t, doc); got != before {
				t.Fatalf("input changed: %s", got)
			}
			if got := mustJSON(t, out); got != before {
				t.Fatalf("returned document differs: %s", got)
			}
		})
	}
}

func TestSplitAtMidWordIsBoundaryError(t *testing.T) {
	_, _, err := SplitAt(helloWorld(), Caret(0, 3))
	if !errors.Is(err, faults.ErrStructuralEditRejected) {
		t.Fatalf("mid-word rejection should also be a structural edit rejection: %v", err)
	}
}

func TestSplitAtDirtyParagraphKeepsModified(t *testing.T) {
	doc, err := SetText(threeWords(), 0, "one two and three")
	if err != nil {
		t.Fatalf("SetText: %v", err)
	}
	out, _, err := SplitAt(doc, Caret(0, 7))
	if err != nil {
		t.Fatalf("SplitAt: %v", err)
	}
	if !out.Modified {
		t.Fatal("expected modified flag to survive a dirty split")
	}
	if out.Paragraphs[0].Text != "one two" || out.Paragraphs[1].Text != "and three" {
		t.Fatalf("unexpected texts: %q / %q", out.Paragraphs[0].Text, out.Paragraphs[1].Text)
	}
	if len(out.Paragraphs[0].Words)+len(out.Paragraphs[1].Words) != 3 {
		t.Fatal("words lost in dirty split")
	}
}

func TestSplitAtWithCutter(t *testing.T) {
	dirty, err := SetText(threeWords(), 0, "one new two three")
	if err != nil {
		t.Fatalf("SetText: %v", err)
	}
	tests := []struct {
		name      string
		doc       Document
		offset    int
		cut       int
		wantFirst int
	}{
		{"dirty paragraph follows cutter", dirty, 7, 1, 1},
		{"cutter result is clamped", dirty, 7, 9, 3},
		{"negative cutter result is clamped", dirty, 7, -2, 0},
		{"clean paragraph ignores cutter", threeWords(), 7, 0, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotBefore int
			cut := func(words []Word, text string, tokensBefore int) int {
				gotBefore = tokensBefore
				return tt.cut
			}
			out, _, err := SplitAtWith(tt.doc, Caret(0, tt.offset), cut)
			if err != nil {
				t.Fatalf("SplitAtWith: %v", err)
			}
			if got := len(out.Paragraphs[0].Words); got != tt.wantFirst {
				t.Fatalf("first paragraph has %d words, want %d", got, tt.wantFirst)
			}
			if len(out.Paragraphs[0].Words)+len(out.Paragraphs[1].Words) != 3 {
				t.Fatal("words lost in split")
			}
			if !tt.doc.Paragraphs[0].Clean() && gotBefore != 2 {
				t.Fatalf("cutter saw %d tokens before the split, want 2", gotBefore)
			}
		})
	}
}

func TestMergeAtStartJoinsPreviousParagraph(t *testing.T) {
	split, _, err := SplitAt(threeWords(), Caret(0, 3))
	if err != nil {
		t.Fatalf("SplitAt: %v", err)
	}
	split, err = SetSpeaker(split, 1, "C")
	if err != nil {
		t.Fatalf("SetSpeaker: %v", err)
	}
	merged, cursor, err := MergeAt(split, 1, 0)
	if err != nil {
		t.Fatalf("MergeAt: %v", err)
	}
	if len(merged.Paragraphs) != 1 {
		t.Fatalf("expected 1 paragraph, got %d", len(merged.Paragraphs))
	}
	p := merged.Paragraphs[0]
	if p.Speaker != "B" || p.Start != 0.0 || p.Text != "one two three" || len(p.Words) != 3 {
		t.Fatalf("unexpected merged paragraph: %+v", p)
	}
	if cursor != (Point{Paragraph: 0, Offset: 3}) {
		t.Fatalf("unexpected cursor: %+v", cursor)
	}
	if merged.Modified {
		t.Fatal("merging clean paragraphs should keep the document clean")
	}
}

func TestMergeAtRejectsFirstParagraphStart(t *testing.T) {
	doc := helloWorld()
	before := mustJSON(t, doc)
	out, _, err := MergeAt(doc, 0, 0)
	if !errors.Is(err, faults.ErrStructuralEditRejected) {
		t.Fatalf("expected structural rejection, got %v", err)
	}
	if mustJSON(t, out) != before || mustJSON(t, doc) != before {
		t.Fatal("document changed on rejected merge")
	}
}

func TestMergeAtOffsetDeletesCharacter(t *testing.T) {
	doc := helloWorld()
	out, cursor, err := MergeAt(doc, 0, 5)
	if err != nil {
		t.Fatalf("MergeAt: %v", err)
	}
	if out.Paragraphs[0].Text != "hell world" {
		t.Fatalf("unexpected text %q", out.Paragraphs[0].Text)
	}
	if len(out.Paragraphs[0].Words) != 2 {
		t.Fatal("character delete must not touch words")
	}
	if !out.Modified {
		t.Fatal("expected modified flag")
	}
	if cursor.Offset != 4 {
		t.Fatalf("unexpected cursor %+v", cursor)
	}
	if doc.Paragraphs[0].Text != "hello world" {
		t.Fatal("input document was mutated")
	}
}

func TestInsertTextMarkers(t *testing.T) {
	doc := helloWorld()
	out, cursor, err := InsertText(doc, Point{Paragraph: 0, Offset: 6}, Inaudible+" ")
	if err != nil {
		t.Fatalf("InsertText: %v", err)
	}
	if out.Paragraphs[0].Text != "hello [INAUDIBLE] world" {
		t.Fatalf("unexpected text %q", out.Paragraphs[0].Text)
	}
	if cursor.Offset != 18 {
		t.Fatalf("unexpected cursor %+v", cursor)
	}
	if !out.Modified {
		t.Fatal("expected modified flag")
	}
	out, _, err = InsertText(out, Point{Paragraph: 0, Offset: 0}, Music)
	if err != nil {
		t.Fatalf("InsertText music: %v", err)
	}
	if out.Paragraphs[0].Text != "♪hello [INAUDIBLE] world" {
		t.Fatalf("unexpected text %q", out.Paragraphs[0].Text)
	}
	if _, _, err := InsertText(doc, Point{Paragraph: 0, Offset: 99}, "x"); !errors.Is(err, faults.ErrStructuralEditRejected) {
		t.Fatalf("expected out-of-range rejection, got %v", err)
	}
}

func TestSetSpeakerValidates(t *testing.T) {
	if _, err := SetSpeaker(helloWorld(), 0, "  "); !errors.Is(err, faults.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	out, err := SetSpeaker(helloWorld(), 0, "Host")
	if err != nil {
		t.Fatalf("SetSpeaker: %v", err)
	}
	if out.Paragraphs[0].Speaker != "Host" || out.Modified {
		t.Fatalf("unexpected result %+v", out)
	}
}

func TestAppendAndSpeakers(t *testing.T) {
	doc := helloWorld()
	more := []Paragraph{NewParagraph("B", []Word{
		{ID: 2, Start: 1.0, End: 1.4, Text: "one"},
		{ID: 3, Start: 1.5, End: 1.9, Text: "two"},
	})}
	out, err := Append(doc, more)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if len(out.Paragraphs) != 2 || len(doc.Paragraphs) != 1 {
		t.Fatalf("unexpected paragraph counts: %d / %d", len(out.Paragraphs), len(doc.Paragraphs))
	}
	if got := out.Speakers(); !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Fatalf("unexpected speakers %v", got)
	}
	if out.MinWordID() != 0 {
		t.Fatalf("unexpected min id %d", out.MinWordID())
	}
}

func TestAppendRejectsDuplicateIDs(t *testing.T) {
	tests := []struct {
		name  string
		words []Word
	}{
		{"id already in document", []Word{{ID: 1, Start: 2, End: 2.4, Text: "again"}}},
		{"id repeated in new words", []Word{{ID: 5, Start: 2, End: 2.4, Text: "a"}, {ID: 5, Start: 2.5, End: 2.9, Text: "b"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := helloWorld()
			out, err := Append(doc, []Paragraph{NewParagraph("B", tt.words)})
			if !errors.Is(err, faults.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if len(out.Paragraphs) != 1 {
				t.Fatalf("rejected append changed the document: %+v", out)
			}
		})
	}
}
