package align

import (
	"bytes"
	"context"
	"math"
	"strings"
	"testing"

	"timedtext/internal/logging"
	"timedtext/internal/transcript"
)

func words(texts ...string) []transcript.Word {
	out := make([]transcript.Word, len(texts))
	for i, t := range texts {
		out[i] = transcript.Word{ID: i, Start: float64(i), End: float64(i) + 0.8, Text: t}
	}
	return out
}

func TestAlignIdentityKeepsTimings(t *testing.T) {
	ref := words("the", "quick", "brown", "fox")
	res := New(0, nil).Align(ref, "the quick brown fox")
	if len(res.Words) != len(ref) {
		t.Fatalf("expected %d words, got %d", len(ref), len(res.Words))
	}
	for i, w := range res.Words {
		if w.Word != ref[i] || w.Kind != Matched {
			t.Fatalf("word %d changed: %+v", i, w)
		}
	}
	if res.Matched != 4 || res.Deleted != 0 || res.Inserted != 0 || res.BestEffort {
		t.Fatalf("unexpected counters %+v", res)
	}
}

func TestAlignSingleSubstitution(t *testing.T) {
	ref := words("the", "quick", "brown", "fox")
	res := New(0, nil).Align(ref, "the quack brown fox")
	got := res.Plain()
	for _, i := range []int{0, 2, 3} {
		if got[i].Start != ref[i].Start || got[i].End != ref[i].End {
			t.Fatalf("word %d timing changed: %+v", i, got[i])
		}
	}
	if got[1].Text != "quack" || res.Words[1].Kind != Substituted {
		t.Fatalf("unexpected substituted word %+v", res.Words[1])
	}
	if got[1].Start < ref[0].End || got[1].End > ref[2].Start {
		t.Fatalf("substituted timing %v-%v outside [%v, %v]", got[1].Start, got[1].End, ref[0].End, ref[2].Start)
	}
}

func TestAlignEmptyInputs(t *testing.T) {
	a := New(0, nil)
	res := a.Align(words("a", "b"), "   ")
	if len(res.Words) != 0 || res.Deleted != 2 {
		t.Fatalf("expected empty result, got %+v", res)
	}
	res = a.Align(nil, "")
	if len(res.Words) != 0 || res.BestEffort {
		t.Fatalf("expected empty result, got %+v", res)
	}
	res = a.Align(nil, "hi there")
	if len(res.Words) != 2 || res.Words[0].Kind != Inserted {
		t.Fatalf("expected two inserted words, got %+v", res)
	}
	if res.Words[0].ID != -1 || res.Words[1].ID != -2 {
		t.Fatalf("unexpected ids %+v", res.Words)
	}
}

func TestAlignInterpolatesInsertions(t *testing.T) {
	ref := []transcript.Word{
		{ID: 0, Start: 0, End: 1, Text: "a"},
		{ID: 1, Start: 2, End: 3, Text: "b"},
	}
	res := New(0, nil).Align(ref, "a x y b")
	if len(res.Words) != 4 {
		t.Fatalf("expected 4 words, got %+v", res.Words)
	}
	x, y := res.Words[1], res.Words[2]
	if x.Kind != Inserted || y.Kind != Inserted {
		t.Fatalf("expected insertions, got %v %v", x.Kind, y.Kind)
	}
	if x.Start != 1 || x.End != 1.5 || y.Start != 1.5 || y.End != 2 {
		t.Fatalf("unexpected interpolation x=%v-%v y=%v-%v", x.Start, x.End, y.Start, y.End)
	}
	if x.ID != -1 || y.ID != -2 {
		t.Fatalf("expected fresh negative ids, got %d %d", x.ID, y.ID)
	}
	if res.Words[3].Word != ref[1] {
		t.Fatalf("anchor changed: %+v", res.Words[3])
	}
}

func TestAlignPrefersExactMatchOnTie(t *testing.T) {
	ref := []transcript.Word{
		{ID: 0, Start: 0, End: 1, Text: "x"},
		{ID: 1, Start: 2, End: 3, Text: "a"},
	}
	res := New(0, nil).Align(ref, "a y")
	if len(res.Words) != 2 {
		t.Fatalf("unexpected words %+v", res.Words)
	}
	if res.Words[0].Word != ref[1] || res.Words[0].Kind != Matched {
		t.Fatalf("expected exact match to keep its timing, got %+v", res.Words[0])
	}
	if res.Words[1].Kind != Inserted || res.Words[1].Start != 3 || res.Words[1].End != 3 {
		t.Fatalf("expected trailing insertion at previous end, got %+v", res.Words[1])
	}
	if res.Deleted != 1 {
		t.Fatalf("expected one deletion, got %d", res.Deleted)
	}
}

func TestAlignPrefersLongestDiagonalRun(t *testing.T) {
	ref := []transcript.Word{
		{ID: 0, Start: 0, End: 0.3, Text: "the"},
		{ID: 1, Start: 0.4, End: 0.7, Text: "dog"},
		{ID: 2, Start: 5, End: 5.3, Text: "cat"},
		{ID: 3, Start: 6, End: 6.3, Text: "dog"},
	}
	res := New(0, nil).Align(ref, "the dog")
	if len(res.Words) != 2 || res.Deleted != 2 {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Words[0].ID != 0 || res.Words[1].ID != 1 || res.Words[1].Start != 0.4 {
		t.Fatalf("expected the contiguous run to win, got %+v", res.Words)
	}
}

func TestEditScriptTieBreaks(t *testing.T) {
	tests := []struct {
		name string
		ref  []string
		hyp  []string
		want []move
	}{
		{"identity", []string{"a", "b"}, []string{"a", "b"}, []move{moveDiag, moveDiag}},
		{"contiguous run over scattered matches", []string{"the", "dog", "cat", "dog"}, []string{"the", "dog"}, []move{moveDiag, moveDiag, moveUp, moveUp}},
		{"run at the end", []string{"x", "y", "a", "b"}, []string{"a", "b"}, []move{moveUp, moveUp, moveDiag, moveDiag}},
		{"match over substitution", []string{"x", "a"}, []string{"a", "y"}, []move{moveUp, moveDiag, moveLeft}},
		{"empty reference", nil, []string{"a"}, []move{moveLeft}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := editScript(tt.ref, tt.hyp)
			if len(got) != len(tt.want) {
				t.Fatalf("editScript = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("editScript = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestSplitPoint(t *testing.T) {
	abc := []transcript.Word{
		{ID: 0, Start: 10.0, End: 10.4, Text: "a"},
		{ID: 1, Start: 10.5, End: 10.9, Text: "b"},
		{ID: 2, Start: 11.0, End: 11.4, Text: "c"},
	}
	tests := []struct {
		name   string
		text   string
		before int
		want   int
	}{
		{"inserted words stay left", "a x y b c", 3, 1},
		{"unchanged text", "a b c", 2, 2},
		{"deleted word goes right", "a c", 1, 1},
		{"substitution keeps position", "a B2 c", 2, 2},
		{"nothing before", "a b c", 0, 0},
		{"everything before", "a b c", 3, 3},
	}
	a := New(0, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.SplitPoint(abc, tt.text, tt.before); got != tt.want {
				t.Fatalf("SplitPoint(%q, %d) = %d, want %d", tt.text, tt.before, got, tt.want)
			}
		})
	}
}

func TestAlignIgnoresCaseAndPunctuation(t *testing.T) {
	ref := words("hello", "world")
	res := New(0, nil).Align(ref, "Hello, world!")
	if res.Substituted != 2 || res.Inserted != 0 || res.Deleted != 0 {
		t.Fatalf("unexpected counters %+v", res)
	}
	got := res.Plain()
	if got[0].Text != "Hello," || got[0].Start != ref[0].Start || got[1].ID != ref[1].ID {
		t.Fatalf("unexpected words %+v", got)
	}
}

func TestAlignFlagsBestEffort(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}
	res := New(0.5, logger).Align(words("one"), "one two three four")
	if !res.BestEffort {
		t.Fatal("expected best effort flag")
	}
	if len(res.Words) != 4 {
		t.Fatalf("best effort result must still be returned, got %d words", len(res.Words))
	}
	if !strings.Contains(buf.String(), "alignment_best_effort") {
		t.Fatalf("expected warning in log, got %q", buf.String())
	}
}

func TestAlignUsesNextIDAllocator(t *testing.T) {
	a := New(0, nil)
	id := 100
	a.NextID = func() int { id++; return id }
	res := a.Align(words("a"), "a b")
	if res.Words[1].ID != 101 {
		t.Fatalf("expected allocator id, got %d", res.Words[1].ID)
	}
}

func TestRealignParagraphsClearsModified(t *testing.T) {
	doc := transcript.Document{Paragraphs: []transcript.Paragraph{
		transcript.NewParagraph("A", words("one", "two")),
		transcript.NewParagraph("B", []transcript.Word{{ID: 5, Start: 3, End: 4, Text: "three"}}),
	}}
	doc, err := transcript.SetText(doc, 0, "one too")
	if err != nil {
		t.Fatalf("SetText: %v", err)
	}
	doc, err = transcript.SetText(doc, 1, "")
	if err != nil {
		t.Fatalf("SetText: %v", err)
	}

	out, res := New(0, nil).RealignParagraphs(context.Background(), doc)
	if out.Modified {
		t.Fatal("expected modified flag cleared")
	}
	if len(out.Paragraphs) != 1 {
		t.Fatalf("expected emptied paragraph to be dropped, got %d", len(out.Paragraphs))
	}
	p := out.Paragraphs[0]
	if p.Text != "one too" || p.Words[1].Text != "too" || p.Words[1].Start != 1 || !p.Clean() {
		t.Fatalf("unexpected paragraph %+v", p)
	}
	if res.Substituted != 1 || res.Deleted != 1 {
		t.Fatalf("unexpected counters %+v", res)
	}
}

func TestRealignParagraphsTimesEdgeInsertionsBetweenNeighbours(t *testing.T) {
	approx := func(a, b float64) bool { return math.Abs(a-b) < 1e-9 }
	type span struct{ start, end float64 }
	tests := []struct {
		name  string
		paras []transcript.Paragraph
		want  map[string]span
	}{
		{
			name: "trailing run reaches next paragraph",
			paras: []transcript.Paragraph{
				{Speaker: "A", Start: 10, Text: "a x y", Words: []transcript.Word{{ID: 0, Start: 10, End: 10.4, Text: "a"}}},
				transcript.NewParagraph("A", []transcript.Word{{ID: 1, Start: 10.5, End: 10.9, Text: "b"}}),
			},
			want: map[string]span{"a": {10, 10.4}, "x": {10.4, 10.45}, "y": {10.45, 10.5}, "b": {10.5, 10.9}},
		},
		{
			name: "leading run starts at previous paragraph end",
			paras: []transcript.Paragraph{
				transcript.NewParagraph("A", []transcript.Word{{ID: 0, Start: 1, End: 2, Text: "a"}}),
				{Speaker: "B", Start: 6, Text: "x c", Words: []transcript.Word{{ID: 1, Start: 6, End: 7, Text: "c"}}},
			},
			want: map[string]span{"a": {1, 2}, "x": {2, 6}, "c": {6, 7}},
		},
		{
			name: "paragraph without words fills the gap",
			paras: []transcript.Paragraph{
				transcript.NewParagraph("A", []transcript.Word{{ID: 0, Start: 1, End: 2, Text: "a"}}),
				{Speaker: "B", Start: 2, Text: "x y"},
				transcript.NewParagraph("C", []transcript.Word{{ID: 1, Start: 4, End: 5, Text: "b"}}),
			},
			want: map[string]span{"a": {1, 2}, "x": {2, 3}, "y": {3, 4}, "b": {4, 5}},
		},
		{
			name: "first paragraph without words starts at its own start",
			paras: []transcript.Paragraph{
				{Speaker: "A", Start: 7, Text: "x"},
				transcript.NewParagraph("B", []transcript.Word{{ID: 0, Start: 8, End: 9, Text: "b"}}),
			},
			want: map[string]span{"x": {7, 8}, "b": {8, 9}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := transcript.Document{Paragraphs: tt.paras, Modified: true}
			out, _ := New(0, nil).RealignParagraphs(context.Background(), doc)
			got := out.Words()
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d words, got %+v", len(tt.want), got)
			}
			for _, w := range got {
				s, ok := tt.want[w.Text]
				if !ok || !approx(w.Start, s.start) || !approx(w.End, s.end) {
					t.Errorf("word %q timed %v-%v, want %v-%v", w.Text, w.Start, w.End, s.start, s.end)
				}
			}
		})
	}
}

func TestReplaceTextRechunksByPreviousCounts(t *testing.T) {
	source := words("a", "b", "c", "d", "e")
	previous := transcript.Document{Title: "t", Paragraphs: []transcript.Paragraph{
		transcript.NewParagraph("A", source[:2]),
		transcript.NewParagraph("", source[2:4]),
		transcript.NewParagraph("C", source[4:]),
	}}

	out, _ := New(0, nil).ReplaceText(context.Background(), source, "a b c d e f", previous, "U_UKN")
	if len(out.Paragraphs) != 3 {
		t.Fatalf("expected 3 paragraphs, got %d", len(out.Paragraphs))
	}
	wantTexts := []string{"a b", "c d", "e f"}
	wantSpeakers := []string{"A", "U_UKN", "C"}
	for i, p := range out.Paragraphs {
		if p.Text != wantTexts[i] || p.Speaker != wantSpeakers[i] {
			t.Fatalf("paragraph %d = %q/%q, want %q/%q", i, p.Speaker, p.Text, wantSpeakers[i], wantTexts[i])
		}
		if p.Start != p.Words[0].Start {
			t.Fatalf("paragraph %d start %v != first word %v", i, p.Start, p.Words[0].Start)
		}
	}
	if out.Title != "t" || out.Modified {
		t.Fatalf("unexpected document header %+v", out)
	}

	short, _ := New(0, nil).ReplaceText(context.Background(), source, "a b c", previous, "")
	if len(short.Paragraphs) != 2 {
		t.Fatalf("expected empty trailing chunk dropped, got %d paragraphs", len(short.Paragraphs))
	}
	if short.Paragraphs[1].Text != "c" || short.Paragraphs[1].Speaker != transcript.DefaultUnknownSpeaker {
		t.Fatalf("unexpected second paragraph %+v", short.Paragraphs[1])
	}
}

func TestChunkWordsWithoutCounts(t *testing.T) {
	chunks := chunkWords(words("a", "b"), nil)
	if len(chunks) != 1 || len(chunks[0]) != 2 {
		t.Fatalf("unexpected chunks %+v", chunks)
	}
}
