package session

import (
	"context"
	"fmt"
	"time"

	"timedtext/internal/align"
	"timedtext/internal/faults"
	"timedtext/internal/transcript"
)

// OpKind names an edit log entry.
type OpKind string

const (
	OpSplit      OpKind = "split"
	OpMerge      OpKind = "merge"
	OpSetText    OpKind = "set_text"
	OpInsertText OpKind = "insert_text"
	OpSetSpeaker OpKind = "set_speaker"
	OpRealign    OpKind = "realign"
	OpReplace    OpKind = "replace"
	OpAppend     OpKind = "append"
)

// Operation is one entry in the edit log. Only the fields relevant to Kind are
// set.
type Operation struct {
	Kind       OpKind                 `json:"kind"`
	Selection  *transcript.Selection  `json:"selection,omitempty"`
	Paragraph  int                    `json:"paragraph,omitempty"`
	Offset     int                    `json:"offset,omitempty"`
	Text       string                 `json:"text,omitempty"`
	Speaker    string                 `json:"speaker,omitempty"`
	Paragraphs []transcript.Paragraph `json:"paragraphs,omitempty"`
	At         time.Time              `json:"at"`
}

// Summary is a one-line description for history listings.
func (op Operation) Summary() string {
	switch op.Kind {
	case OpSplit:
		if op.Selection != nil {
			return fmt.Sprintf("split paragraph %d at %d", op.Selection.Focus.Paragraph, op.Selection.Focus.Offset)
		}
		return "split"
	case OpMerge:
		if op.Offset == 0 {
			return fmt.Sprintf("merge paragraph %d into %d", op.Paragraph, op.Paragraph-1)
		}
		return fmt.Sprintf("delete character in paragraph %d at %d", op.Paragraph, op.Offset)
	case OpSetText:
		return fmt.Sprintf("set text of paragraph %d", op.Paragraph)
	case OpInsertText:
		return fmt.Sprintf("insert %q in paragraph %d at %d", op.Text, op.Paragraph, op.Offset)
	case OpSetSpeaker:
		return fmt.Sprintf("set speaker of paragraph %d to %s", op.Paragraph, op.Speaker)
	case OpRealign:
		return "realign modified paragraphs"
	case OpReplace:
		return "replace document text"
	case OpAppend:
		return fmt.Sprintf("append %d paragraphs", len(op.Paragraphs))
	default:
		return string(op.Kind)
	}
}

// replayer applies operations. It carries everything an operation needs
// besides the document and the source words.
type replayer struct {
	aligner        *align.Aligner
	base           []transcript.Word
	unknownSpeaker string
}

// source returns the recognizer words behind the document after ops: the base
// words followed by every appended word.
func (r replayer) source(ops []Operation) []transcript.Word {
	src := r.base
	for _, op := range ops {
		src = extendSource(src, op)
	}
	return src
}

func extendSource(src []transcript.Word, op Operation) []transcript.Word {
	if op.Kind != OpAppend {
		return src
	}
	out := append([]transcript.Word(nil), src...)
	for _, p := range op.Paragraphs {
		out = append(out, p.Words...)
	}
	return out
}

// apply runs op against doc. source holds the recognizer words that a whole
// document replace aligns against. It never mutates doc.
func (r replayer) apply(ctx context.Context, doc transcript.Document, op Operation, source []transcript.Word) (transcript.Document, transcript.Point, align.Result, error) {
	var (
		out    transcript.Document
		cursor transcript.Point
		res    align.Result
		err    error
	)
	switch op.Kind {
	case OpSplit:
		if op.Selection == nil {
			return doc, cursor, res, faults.Wrap(faults.ErrValidation, "session", "replay", "split operation without selection", nil)
		}
		out, cursor, err = transcript.SplitAtWith(doc, *op.Selection, r.aligner.SplitPoint)
	case OpMerge:
		out, cursor, err = transcript.MergeAt(doc, op.Paragraph, op.Offset)
	case OpSetText:
		out, err = transcript.SetText(doc, op.Paragraph, op.Text)
		cursor = transcript.Point{Paragraph: op.Paragraph}
	case OpInsertText:
		out, cursor, err = transcript.InsertText(doc, transcript.Point{Paragraph: op.Paragraph, Offset: op.Offset}, op.Text)
	case OpSetSpeaker:
		out, err = transcript.SetSpeaker(doc, op.Paragraph, op.Speaker)
		cursor = transcript.Point{Paragraph: op.Paragraph}
	case OpRealign:
		out, res = r.aligner.RealignParagraphs(ctx, doc)
	case OpReplace:
		out, res = r.aligner.ReplaceText(ctx, source, op.Text, doc, r.unknownSpeaker)
	case OpAppend:
		out, err = transcript.Append(doc, op.Paragraphs)
		cursor = transcript.Point{Paragraph: len(out.Paragraphs) - 1}
	default:
		return doc, cursor, res, faults.Wrap(faults.ErrValidation, "session", "replay", fmt.Sprintf("unknown operation %q", op.Kind), nil)
	}
	if err != nil {
		return doc, cursor, res, err
	}
	return out, cursor, res, nil
}
