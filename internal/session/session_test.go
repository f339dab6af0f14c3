package session

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"timedtext/internal/export"
	"timedtext/internal/faults"
	"timedtext/internal/transcript"
)

func baseDocument() transcript.Document {
	return transcript.Document{
		Title: "Call",
		Paragraphs: []transcript.Paragraph{
			transcript.NewParagraph("A", []transcript.Word{
				{ID: 0, Start: 0.0, End: 0.4, Text: "hello"},
				{ID: 1, Start: 0.5, End: 0.9, Text: "there"},
				{ID: 2, Start: 1.0, End: 1.4, Text: "friend"},
			}),
			transcript.NewParagraph("B", []transcript.Word{
				{ID: 3, Start: 2.0, End: 2.4, Text: "hi"},
			}),
		},
	}
}

func encode(t *testing.T, doc transcript.Document) string {
	t.Helper()
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(data)
}

type fakeJournal struct {
	records []int
	moves   []int
	fail    error
}

func (j *fakeJournal) Record(_ context.Context, _ string, head int, _ Operation, _ transcript.Document) error {
	if j.fail != nil {
		return j.fail
	}
	j.records = append(j.records, head)
	return nil
}

func (j *fakeJournal) Move(_ context.Context, _ string, head int, _ transcript.Document) error {
	if j.fail != nil {
		return j.fail
	}
	j.moves = append(j.moves, head)
	return nil
}

func TestUndoRedoReproducesDocuments(t *testing.T) {
	ctx := context.Background()
	s := New("doc-1", baseDocument(), Deps{})
	snapshots := []string{encode(t, s.Snapshot())}

	if _, err := s.Split(ctx, transcript.Caret(0, 5)); err != nil {
		t.Fatalf("Split: %v", err)
	}
	snapshots = append(snapshots, encode(t, s.Snapshot()))
	if err := s.SetText(ctx, 1, "there my friend"); err != nil {
		t.Fatalf("SetText: %v", err)
	}
	snapshots = append(snapshots, encode(t, s.Snapshot()))
	if _, err := s.Realign(ctx); err != nil {
		t.Fatalf("Realign: %v", err)
	}
	snapshots = append(snapshots, encode(t, s.Snapshot()))

	for i := len(snapshots) - 2; i >= 0; i-- {
		if err := s.Undo(ctx); err != nil {
			t.Fatalf("Undo: %v", err)
		}
		if got := encode(t, s.Snapshot()); got != snapshots[i] {
			t.Fatalf("undo to %d mismatch:\n got %s\nwant %s", i, got, snapshots[i])
		}
	}
	if err := s.Undo(ctx); !errors.Is(err, faults.ErrStructuralEditRejected) {
		t.Fatalf("expected nothing to undo, got %v", err)
	}
	for i := 1; i < len(snapshots); i++ {
		if err := s.Redo(ctx); err != nil {
			t.Fatalf("Redo: %v", err)
		}
		if got := encode(t, s.Snapshot()); got != snapshots[i] {
			t.Fatalf("redo to %d mismatch:\n got %s\nwant %s", i, got, snapshots[i])
		}
	}
	if err := s.Redo(ctx); !errors.Is(err, faults.ErrStructuralEditRejected) {
		t.Fatalf("expected nothing to redo, got %v", err)
	}
}

func TestEditAfterUndoDropsRedoTail(t *testing.T) {
	ctx := context.Background()
	s := New("doc-1", baseDocument(), Deps{})
	if err := s.SetSpeaker(ctx, 1, "C"); err != nil {
		t.Fatalf("SetSpeaker: %v", err)
	}
	if err := s.SetSpeaker(ctx, 1, "D"); err != nil {
		t.Fatalf("SetSpeaker: %v", err)
	}
	if err := s.Undo(ctx); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if _, err := s.InsertText(ctx, transcript.Point{Paragraph: 1, Offset: 2}, "!"); err != nil {
		t.Fatalf("InsertText: %v", err)
	}
	ops, head := s.History()
	if len(ops) != 2 || head != 2 {
		t.Fatalf("expected two operations with head 2, got %d/%d", len(ops), head)
	}
	if ops[1].Kind != OpInsertText {
		t.Fatalf("expected redo tail replaced, got %s", ops[1].Kind)
	}
	if err := s.Redo(ctx); !errors.Is(err, faults.ErrStructuralEditRejected) {
		t.Fatalf("expected empty redo, got %v", err)
	}
	if got := s.Snapshot().Paragraphs[1]; got.Speaker != "C" || got.Text != "hi!" {
		t.Fatalf("unexpected paragraph %+v", got)
	}
}

func TestRejectedEditLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	s := New("doc-1", baseDocument(), Deps{})
	before := encode(t, s.Snapshot())
	if _, err := s.Split(ctx, transcript.Caret(0, 2)); !errors.Is(err, faults.ErrNotAtWordBoundary) {
		t.Fatalf("expected boundary error, got %v", err)
	}
	if got := encode(t, s.Snapshot()); got != before {
		t.Fatal("rejected split changed the document")
	}
	if st := s.State(); st.Length != 0 || st.Head != 0 {
		t.Fatalf("rejected split was logged: %+v", st)
	}
}

func TestProcessingFlagRejectsSecondRequest(t *testing.T) {
	ctx := context.Background()
	s := New("doc-1", baseDocument(), Deps{})
	if err := s.SetText(ctx, 0, "hello friend"); err != nil {
		t.Fatalf("SetText: %v", err)
	}

	hold := make(chan struct{})
	entered := make(chan struct{})
	s.onProcessing = func() {
		close(entered)
		<-hold
	}
	results := s.RealignAsync(ctx)
	<-entered

	if !s.State().Processing {
		t.Fatal("expected processing state while realign is in flight")
	}
	textFormat, err := s.ParseFormat("text", export.Options{})
	if err != nil {
		t.Fatalf("ParseFormat: %v", err)
	}
	if _, err := s.Export(ctx, textFormat); !errors.Is(err, faults.ErrConcurrentOperation) {
		t.Fatalf("expected concurrent export rejection, got %v", err)
	}
	if res := <-s.ExportAsync(ctx, textFormat); !errors.Is(res.Err, faults.ErrConcurrentOperation) {
		t.Fatalf("expected async export rejection, got %v", res.Err)
	}
	if err := s.SetSpeaker(ctx, 0, "Z"); !errors.Is(err, faults.ErrConcurrentOperation) {
		t.Fatalf("expected edit rejection while processing, got %v", err)
	}

	close(hold)
	res := <-results
	if res.Err != nil {
		t.Fatalf("RealignAsync: %v", res.Err)
	}
	if res.Result.Deleted != 1 {
		t.Fatalf("expected one deleted word, got %+v", res.Result)
	}
	s.onProcessing = nil
	st := s.State()
	if st.Processing || st.Modified {
		t.Fatalf("unexpected state after realign: %+v", st)
	}
	if _, err := s.Export(ctx, textFormat); err != nil {
		t.Fatalf("Export after realign: %v", err)
	}
}

func TestExportRealignsWhenTimestampsRequired(t *testing.T) {
	ctx := context.Background()
	s := New("doc-1", baseDocument(), Deps{})
	if err := s.SetText(ctx, 1, "hi everyone"); err != nil {
		t.Fatalf("SetText: %v", err)
	}

	plain, _ := s.ParseFormat("text", export.Options{Speakers: true})
	out, err := s.Export(ctx, plain)
	if err != nil {
		t.Fatalf("Export text: %v", err)
	}
	if string(out.Data) != "A\thello there friend\n\nB\thi everyone" {
		t.Fatalf("unexpected text export %q", out.Data)
	}
	if !s.State().Modified {
		t.Fatal("plain text export should not realign")
	}

	vtt, err := s.ParseFormat("vtt", export.Options{})
	if err != nil {
		t.Fatalf("ParseFormat vtt: %v", err)
	}
	if _, err := s.Export(ctx, vtt); err != nil {
		t.Fatalf("Export vtt: %v", err)
	}
	if s.State().Modified {
		t.Fatal("caption export should clear the modified flag")
	}
	ops, _ := s.History()
	if ops[len(ops)-1].Kind != OpRealign {
		t.Fatalf("expected realign recorded, got %s", ops[len(ops)-1].Kind)
	}
	words := s.Snapshot().Paragraphs[1].Words
	if len(words) != 2 || words[1].Text != "everyone" || words[1].ID != -1 {
		t.Fatalf("unexpected realigned words %+v", words)
	}
}

func TestReplaceTextUsesSourceWords(t *testing.T) {
	ctx := context.Background()
	s := New("doc-1", baseDocument(), Deps{UnknownSpeaker: "NOBODY"})
	if _, err := s.ReplaceText(ctx, "hello there my friend hi"); err != nil {
		t.Fatalf("ReplaceText: %v", err)
	}
	doc := s.Snapshot()
	if len(doc.Paragraphs) != 2 {
		t.Fatalf("expected 2 paragraphs, got %d", len(doc.Paragraphs))
	}
	if doc.Paragraphs[0].Text != "hello there my" || doc.Paragraphs[1].Text != "friend hi" {
		t.Fatalf("unexpected re-chunking %q / %q", doc.Paragraphs[0].Text, doc.Paragraphs[1].Text)
	}
	if doc.Paragraphs[1].Speaker != "B" {
		t.Fatalf("expected positional speaker, got %q", doc.Paragraphs[1].Speaker)
	}
}

func TestJournalFailureKeepsState(t *testing.T) {
	ctx := context.Background()
	journal := &fakeJournal{}
	s := New("doc-1", baseDocument(), Deps{Journal: journal})
	if err := s.SetSpeaker(ctx, 0, "Host"); err != nil {
		t.Fatalf("SetSpeaker: %v", err)
	}
	if !s.State().Saved {
		t.Fatal("journaled edit should be saved")
	}
	if err := s.Undo(ctx); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if len(journal.records) != 1 || journal.records[0] != 1 || len(journal.moves) != 1 || journal.moves[0] != 0 {
		t.Fatalf("unexpected journal calls %+v", journal)
	}

	journal.fail = errors.New("disk full")
	before := encode(t, s.Snapshot())
	if err := s.SetSpeaker(ctx, 0, "Guest"); err == nil {
		t.Fatal("expected journal failure")
	}
	if encode(t, s.Snapshot()) != before {
		t.Fatal("failed journal write changed the document")
	}
	if st := s.State(); st.Head != 0 || st.Length != 1 {
		t.Fatalf("failed journal write changed history: %+v", st)
	}
}

func TestRestoreReplaysPrefix(t *testing.T) {
	ctx := context.Background()
	s := New("doc-1", baseDocument(), Deps{})
	if err := s.SetSpeaker(ctx, 0, "Host"); err != nil {
		t.Fatalf("SetSpeaker: %v", err)
	}
	if _, err := s.Split(ctx, transcript.Caret(0, 11)); err != nil {
		t.Fatalf("Split: %v", err)
	}
	ops, _ := s.History()

	restored, err := Restore(ctx, "doc-1", baseDocument(), ops, 1, Deps{})
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	doc := restored.Snapshot()
	if len(doc.Paragraphs) != 2 || doc.Paragraphs[0].Speaker != "Host" {
		t.Fatalf("unexpected restored document %+v", doc)
	}
	if err := restored.Redo(ctx); err != nil {
		t.Fatalf("Redo: %v", err)
	}
	if encode(t, restored.Snapshot()) != encode(t, s.Snapshot()) {
		t.Fatal("restored session diverged after redo")
	}
	if _, err := Restore(ctx, "doc-1", baseDocument(), ops, 5, Deps{}); !errors.Is(err, faults.ErrValidation) {
		t.Fatalf("expected head validation error, got %v", err)
	}
}

func TestAppendAndSpeakers(t *testing.T) {
	ctx := context.Background()
	s := New("doc-1", baseDocument(), Deps{})
	live := transcript.NewParagraph("C", []transcript.Word{{ID: 9, Start: 5, End: 5.5, Text: "late"}})
	if err := s.Append(ctx, []transcript.Paragraph{live}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if got := s.Speakers(); len(got) != 3 || got[2] != "C" {
		t.Fatalf("unexpected speakers %v", got)
	}
	if err := s.Append(ctx, nil); err != nil {
		t.Fatalf("empty Append: %v", err)
	}
	if _, head := s.History(); head != 1 {
		t.Fatalf("empty append should not be logged, head=%d", head)
	}
}

func TestSplitEditedParagraphKeepsWordTimings(t *testing.T) {
	ctx := context.Background()
	base := transcript.Document{Paragraphs: []transcript.Paragraph{
		transcript.NewParagraph("A", []transcript.Word{
			{ID: 0, Start: 10.0, End: 10.4, Text: "a"},
			{ID: 1, Start: 10.5, End: 10.9, Text: "b"},
			{ID: 2, Start: 11.0, End: 11.4, Text: "c"},
		}),
	}}
	s := New("doc-1", base, Deps{})
	if err := s.SetText(ctx, 0, "a x y b c"); err != nil {
		t.Fatalf("SetText: %v", err)
	}
	if _, err := s.Split(ctx, transcript.Caret(0, 5)); err != nil {
		t.Fatalf("Split: %v", err)
	}
	f, err := s.ParseFormat("json-block", export.Options{})
	if err != nil {
		t.Fatalf("ParseFormat: %v", err)
	}
	out, err := s.Export(ctx, f)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	var blocks []transcript.Block
	if err := json.Unmarshal(out.Data, &blocks); err != nil {
		t.Fatalf("decode blocks: %v", err)
	}
	if len(blocks) != 2 || blocks[0].Text != "a x y" || blocks[1].Text != "b c" {
		t.Fatalf("unexpected blocks %+v", blocks)
	}
	if blocks[1].Start != 10.5 {
		t.Fatalf("second paragraph starts at %v, want 10.5", blocks[1].Start)
	}

	want := map[string][2]float64{"a": {10.0, 10.4}, "b": {10.5, 10.9}, "c": {11.0, 11.4}}
	for _, b := range blocks {
		for _, w := range b.Words {
			if span, ok := want[w.Text]; ok {
				if w.Start != span[0] || w.End != span[1] {
					t.Errorf("word %q timed %v-%v, want %v-%v", w.Text, w.Start, w.End, span[0], span[1])
				}
				continue
			}
			if w.Start < 10.4-1e-9 || w.End > 10.5+1e-9 || w.End < w.Start {
				t.Errorf("inserted word %q timed %v-%v, want within 10.4-10.5", w.Text, w.Start, w.End)
			}
		}
	}
}

func TestCaptionExportKeepsTypedWordWithSpeaker(t *testing.T) {
	ctx := context.Background()
	base := transcript.Document{Paragraphs: []transcript.Paragraph{
		transcript.NewParagraph("ALICE", []transcript.Word{{ID: 0, Start: 0, End: 0.5, Text: "hello"}}),
		transcript.NewParagraph("BOB", []transcript.Word{{ID: 1, Start: 0.5, End: 0.9, Text: "world"}}),
	}}
	tests := []struct {
		format string
		want   []string
	}{
		{"srt", []string{"ALICE: hello there\n", "BOB: world\n"}},
		{"vtt", []string{"<v ALICE>hello there\n", "<v BOB>world\n"}},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			s := New("doc-1", base, Deps{})
			if err := s.SetText(ctx, 0, "hello there"); err != nil {
				t.Fatalf("SetText: %v", err)
			}
			f, err := s.ParseFormat(tt.format, export.Options{Speakers: true})
			if err != nil {
				t.Fatalf("ParseFormat: %v", err)
			}
			out, err := s.Export(ctx, f)
			if err != nil {
				t.Fatalf("Export: %v", err)
			}
			for _, line := range tt.want {
				if !strings.Contains(string(out.Data), line) {
					t.Fatalf("expected %q in %q", line, out.Data)
				}
			}
		})
	}
}

func TestReplaceTextAlignsAppendedWords(t *testing.T) {
	ctx := context.Background()
	base := transcript.Document{Paragraphs: []transcript.Paragraph{
		transcript.NewParagraph("A", []transcript.Word{{ID: 0, Start: 0, End: 0.4, Text: "hello"}}),
	}}
	s := New("doc-1", base, Deps{})
	live := transcript.NewParagraph("A", []transcript.Word{{ID: 1, Start: 5, End: 5.4, Text: "world"}})
	if err := s.Append(ctx, []transcript.Paragraph{live}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	res, err := s.ReplaceText(ctx, "hello world")
	if err != nil {
		t.Fatalf("ReplaceText: %v", err)
	}
	if res.Inserted != 0 || res.Matched != 2 {
		t.Fatalf("expected both words matched, got %+v", res)
	}
	check := func(stage string) {
		t.Helper()
		words := s.Snapshot().Words()
		if len(words) != 2 || words[1].ID != 1 || words[1].Start != 5 || words[1].End != 5.4 {
			t.Fatalf("%s: unexpected words %+v", stage, words)
		}
	}
	check("after replace")

	if err := s.Undo(ctx); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if err := s.Redo(ctx); err != nil {
		t.Fatalf("Redo: %v", err)
	}
	check("after redo")

	ops, head := s.History()
	restored, err := Restore(ctx, "doc-1", base, ops, head, Deps{})
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if encode(t, restored.Snapshot()) != encode(t, s.Snapshot()) {
		t.Fatal("restored session diverged from live session")
	}
}

func TestInsertedWordsLeaveRecognizerIDsFree(t *testing.T) {
	ctx := context.Background()
	s := New("doc-1", baseDocument(), Deps{})
	if err := s.SetText(ctx, 1, "hi everyone"); err != nil {
		t.Fatalf("SetText: %v", err)
	}
	if _, err := s.Realign(ctx); err != nil {
		t.Fatalf("Realign: %v", err)
	}

	tests := []struct {
		name    string
		id      int
		wantErr bool
	}{
		{"next recognizer id", 4, false},
		{"id already present", 2, true},
		{"id of an inserted word", -1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := encode(t, s.Snapshot())
			live := transcript.NewParagraph("C", []transcript.Word{{ID: tt.id, Start: 9, End: 9.4, Text: "late"}})
			err := s.Append(ctx, []transcript.Paragraph{live})
			if tt.wantErr {
				if !errors.Is(err, faults.ErrValidation) {
					t.Fatalf("expected validation error, got %v", err)
				}
				if encode(t, s.Snapshot()) != before {
					t.Fatal("rejected append changed the document")
				}
				return
			}
			if err != nil {
				t.Fatalf("Append: %v", err)
			}
		})
	}

	seen := make(map[int]bool)
	for _, w := range s.Snapshot().Words() {
		if seen[w.ID] {
			t.Fatalf("duplicate word id %d", w.ID)
		}
		seen[w.ID] = true
	}
}
