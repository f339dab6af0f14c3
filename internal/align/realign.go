package align

import (
	"context"
	"strings"

	"timedtext/internal/logging"
	"timedtext/internal/textutil"
	"timedtext/internal/transcript"
)

// RealignParagraphs realigns every dirty paragraph against its own words and
// clears the modified flag. Paragraphs left without words are dropped.
// Inserted words at a paragraph edge are timed between the neighbouring
// paragraphs' words.
func (a *Aligner) RealignParagraphs(ctx context.Context, doc transcript.Document) (transcript.Document, Result) {
	logger := logging.WithContext(ctx, a.logger)
	next := a.NextID
	if next == nil {
		next = insertedIDs(doc.MinWordID())
	}

	var total Result
	out := transcript.Document{Title: doc.Title, Paragraphs: make([]transcript.Paragraph, 0, len(doc.Paragraphs))}
	realigned := 0
	for i, p := range doc.Paragraphs {
		if p.Clean() {
			if len(p.Words) > 0 {
				out.Paragraphs = append(out.Paragraphs, transcript.NewParagraph(p.Speaker, p.Words))
			}
			continue
		}
		tokens := textutil.Fields(p.Text)
		res := a.align(p.Words, tokens, next, paragraphWindow(out, doc.Paragraphs, i))
		if res.BestEffort {
			a.warnBestEffort(logger.With(logging.Int("paragraph", i)), len(p.Words), len(tokens), res)
		}
		total.add(res)
		realigned++
		if len(res.Words) == 0 {
			continue
		}
		out.Paragraphs = append(out.Paragraphs, transcript.NewParagraph(p.Speaker, res.Plain()))
	}

	logger.Debug("paragraphs realigned",
		logging.Int("paragraphs", len(doc.Paragraphs)),
		logging.Int("realigned", realigned),
		logging.Int("dropped", len(doc.Paragraphs)-len(out.Paragraphs)),
		logging.Int("inserted", total.Inserted),
		logging.Int("deleted", total.Deleted),
	)
	return out, total
}

// paragraphWindow bounds paragraph i of paras by the last word already in out,
// or its own start, and by the first word of a later paragraph.
func paragraphWindow(out transcript.Document, paras []transcript.Paragraph, i int) window {
	w := window{lo: paras[i].Start, hasLo: true}
	if n := len(out.Paragraphs); n > 0 {
		last := out.Paragraphs[n-1].Words
		w.lo = last[len(last)-1].End
	}
	for _, p := range paras[i+1:] {
		if len(p.Words) > 0 {
			w.hi, w.hasHi = p.Words[0].Start, true
			break
		}
	}
	return w
}

// ReplaceText aligns a whole new text against the source words, then splits
// the aligned words into paragraphs using the word counts of previous. Speakers
// carry over by position.
func (a *Aligner) ReplaceText(ctx context.Context, source []transcript.Word, text string, previous transcript.Document, unknownSpeaker string) (transcript.Document, Result) {
	logger := logging.WithContext(ctx, a.logger)
	if strings.TrimSpace(unknownSpeaker) == "" {
		unknownSpeaker = transcript.DefaultUnknownSpeaker
	}
	next := a.NextID
	if next == nil {
		next = insertedIDs(min(minID(source), previous.MinWordID()))
	}

	tokens := textutil.Fields(text)
	res := a.align(source, tokens, next, window{})
	if res.BestEffort {
		a.warnBestEffort(logger, len(source), len(tokens), res)
	}
	words := res.Plain()

	counts := make([]int, len(previous.Paragraphs))
	for i, p := range previous.Paragraphs {
		counts[i] = len(p.Words)
	}
	chunks := chunkWords(words, counts)

	out := transcript.Document{Title: previous.Title, Paragraphs: make([]transcript.Paragraph, 0, len(chunks))}
	for k, chunk := range chunks {
		if len(chunk) == 0 {
			continue
		}
		speaker := unknownSpeaker
		if k < len(previous.Paragraphs) && strings.TrimSpace(previous.Paragraphs[k].Speaker) != "" {
			speaker = previous.Paragraphs[k].Speaker
		}
		out.Paragraphs = append(out.Paragraphs, transcript.NewParagraph(speaker, chunk))
	}

	logger.Info("document text replaced",
		logging.Int("source_words", len(source)),
		logging.Int("edited_words", len(tokens)),
		logging.Int("paragraphs", len(out.Paragraphs)),
		logging.Bool("best_effort", res.BestEffort),
	)
	return out, res
}

// chunkWords splits words sequentially into len(counts) chunks; the last
// chunk absorbs any remainder. With no counts everything lands in one chunk.
func chunkWords(words []transcript.Word, counts []int) [][]transcript.Word {
	if len(counts) == 0 {
		return [][]transcript.Word{words}
	}
	chunks := make([][]transcript.Word, len(counts))
	pos := 0
	for k, c := range counts {
		end := min(pos+c, len(words))
		chunks[k] = words[pos:end]
		pos = end
	}
	if pos < len(words) {
		last := len(chunks) - 1
		chunks[last] = append(append([]transcript.Word(nil), chunks[last]...), words[pos:]...)
	}
	return chunks
}
