package transcript

import (
	"fmt"
	"sort"
	"strings"

	"timedtext/internal/faults"
	"timedtext/internal/timecode"
)

// FlatParagraph is a paragraph boundary in the flat representation.
type FlatParagraph struct {
	ID      int     `json:"id" yaml:"id"`
	Start   float64 `json:"start" yaml:"start"`
	End     float64 `json:"end" yaml:"end"`
	Speaker string  `json:"speaker,omitempty" yaml:"speaker,omitempty"`
}

// Flat is the interchange representation: one word array plus boundaries.
type Flat struct {
	Title      string          `json:"title,omitempty" yaml:"title,omitempty"`
	Words      []Word          `json:"words" yaml:"words"`
	Paragraphs []FlatParagraph `json:"paragraphs" yaml:"paragraphs"`
}

// Block is one paragraph in the block interchange JSON.
type Block struct {
	Speaker       string  `json:"speaker"`
	Start         float64 `json:"start"`
	StartTimecode string  `json:"startTimecode"`
	Words         []Word  `json:"words"`
	Text          string  `json:"text"`
}

// Validate checks word timing and id uniqueness.
func (f Flat) Validate() error {
	seen := make(map[int]struct{}, len(f.Words))
	for i, w := range f.Words {
		if w.End < w.Start {
			return faults.Wrap(faults.ErrValidation, "transcript", "validate flat",
				fmt.Sprintf("word %d (%q) ends before it starts", i, w.Text), nil)
		}
		if _, dup := seen[w.ID]; dup {
			return faults.Wrap(faults.ErrValidation, "transcript", "validate flat",
				fmt.Sprintf("duplicate word id %d", w.ID), nil)
		}
		seen[w.ID] = struct{}{}
	}
	return nil
}

// FromFlat assembles a block document. Boundaries are ordered by start; each
// claims the words starting in [start, next.start). The first paragraph also
// takes words preceding it and the last takes the remainder, so every word is
// placed exactly once and word order is preserved.
func FromFlat(f Flat, unknownSpeaker string) Document {
	if strings.TrimSpace(unknownSpeaker) == "" {
		unknownSpeaker = DefaultUnknownSpeaker
	}
	doc := Document{Title: f.Title}
	bounds := append([]FlatParagraph(nil), f.Paragraphs...)
	sort.SliceStable(bounds, func(i, j int) bool { return bounds[i].Start < bounds[j].Start })
	if len(bounds) == 0 {
		if len(f.Words) > 0 {
			doc.Paragraphs = []Paragraph{NewParagraph(unknownSpeaker, f.Words)}
		}
		return doc
	}

	groups := make([][]Word, len(bounds))
	j := 0
	for _, w := range f.Words {
		for j+1 < len(bounds) && bounds[j+1].Start <= w.Start {
			j++
		}
		groups[j] = append(groups[j], w)
	}

	doc.Paragraphs = make([]Paragraph, len(bounds))
	for i, b := range bounds {
		speaker := strings.TrimSpace(b.Speaker)
		if speaker == "" {
			speaker = unknownSpeaker
		}
		p := NewParagraph(speaker, groups[i])
		if len(groups[i]) == 0 {
			p.Start = b.Start
		}
		doc.Paragraphs[i] = p
	}
	return doc
}

// ToFlat flattens a document. Paragraph bounds come from the first and last
// word of each paragraph.
func ToFlat(doc Document) Flat {
	f := Flat{
		Title:      doc.Title,
		Words:      doc.Words(),
		Paragraphs: make([]FlatParagraph, len(doc.Paragraphs)),
	}
	for i, p := range doc.Paragraphs {
		fp := FlatParagraph{ID: i, Start: p.Start, End: p.Start, Speaker: p.Speaker}
		if len(p.Words) > 0 {
			fp.Start = p.Words[0].Start
			fp.End = p.Words[len(p.Words)-1].End
		}
		f.Paragraphs[i] = fp
	}
	return f
}

// ToBlocks renders the block interchange form.
func ToBlocks(doc Document) []Block {
	blocks := make([]Block, len(doc.Paragraphs))
	for i, p := range doc.Paragraphs {
		words := p.Words
		if words == nil {
			words = []Word{}
		}
		blocks[i] = Block{
			Speaker:       p.Speaker,
			Start:         p.Start,
			StartTimecode: timecode.Short(p.Start),
			Words:         append([]Word(nil), words...),
			Text:          p.Text,
		}
	}
	return blocks
}

// FromBlocks rebuilds a document from block interchange JSON. A block whose
// text diverges from its words marks the document modified.
func FromBlocks(blocks []Block, unknownSpeaker string) Document {
	if strings.TrimSpace(unknownSpeaker) == "" {
		unknownSpeaker = DefaultUnknownSpeaker
	}
	doc := Document{Paragraphs: make([]Paragraph, len(blocks))}
	for i, b := range blocks {
		speaker := strings.TrimSpace(b.Speaker)
		if speaker == "" {
			speaker = unknownSpeaker
		}
		p := Paragraph{
			Speaker: speaker,
			Start:   b.Start,
			Words:   append([]Word(nil), b.Words...),
			Text:    b.Text,
		}
		if p.Text == "" && len(p.Words) > 0 {
			p.Text = joinWordText(p.Words)
		}
		if !p.Clean() {
			doc.Modified = true
		}
		doc.Paragraphs[i] = p
	}
	return doc
}
