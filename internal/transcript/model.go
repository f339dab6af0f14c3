package transcript

import (
	"strings"

	"timedtext/internal/textutil"
)

// DefaultUnknownSpeaker labels paragraphs whose source carries no speaker.
const DefaultUnknownSpeaker = "U_UKN"

// Word is one STT token with its timing in seconds.
type Word struct {
	ID    int     `json:"id" yaml:"id"`
	Start float64 `json:"start" yaml:"start"`
	End   float64 `json:"end" yaml:"end"`
	Text  string  `json:"text" yaml:"text"`
}

// Paragraph is a speaker turn. Text is the editable rendering; it matches
// the words exactly while the paragraph is clean.
type Paragraph struct {
	Speaker string  `json:"speaker"`
	Start   float64 `json:"start"`
	Words   []Word  `json:"words"`
	Text    string  `json:"text"`
}

// Document is an ordered sequence of paragraphs. Modified marks word timings
// as untrusted until the document is realigned.
type Document struct {
	Title      string      `json:"title,omitempty"`
	Paragraphs []Paragraph `json:"paragraphs"`
	Modified   bool        `json:"modified"`
}

// Point addresses a rune offset inside a paragraph's text.
type Point struct {
	Paragraph int `json:"paragraph"`
	Offset    int `json:"offset"`
}

// Selection is an editor selection between two points.
type Selection struct {
	Anchor Point `json:"anchor"`
	Focus  Point `json:"focus"`
}

// Caret returns a collapsed selection at the given point.
func Caret(paragraph, offset int) Selection {
	pt := Point{Paragraph: paragraph, Offset: offset}
	return Selection{Anchor: pt, Focus: pt}
}

// Collapsed reports whether the selection is a single point.
func (s Selection) Collapsed() bool {
	return s.Anchor == s.Focus
}

// NewParagraph builds a clean paragraph from words.
func NewParagraph(speaker string, words []Word) Paragraph {
	p := Paragraph{
		Speaker: speaker,
		Words:   append([]Word(nil), words...),
		Text:    joinWordText(words),
	}
	if len(words) > 0 {
		p.Start = words[0].Start
	}
	return p
}

// Clean reports whether the paragraph text still tokenizes to exactly its
// words and its start matches the first word.
func (p Paragraph) Clean() bool {
	tokens := textutil.Fields(p.Text)
	if len(tokens) != len(p.Words) {
		return false
	}
	for i, w := range p.Words {
		if tokens[i] != w.Text {
			return false
		}
	}
	if len(p.Words) > 0 && p.Start != p.Words[0].Start {
		return false
	}
	return true
}

// End returns the end time of the paragraph's last word, or Start when empty.
func (p Paragraph) End() float64 {
	if len(p.Words) == 0 {
		return p.Start
	}
	return p.Words[len(p.Words)-1].End
}

func (p Paragraph) clone() Paragraph {
	p.Words = append([]Word(nil), p.Words...)
	return p
}

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	out := d
	out.Paragraphs = make([]Paragraph, len(d.Paragraphs))
	for i, p := range d.Paragraphs {
		out.Paragraphs[i] = p.clone()
	}
	return out
}

// Words returns every word in document order.
func (d Document) Words() []Word {
	total := 0
	for _, p := range d.Paragraphs {
		total += len(p.Words)
	}
	words := make([]Word, 0, total)
	for _, p := range d.Paragraphs {
		words = append(words, p.Words...)
	}
	return words
}

// Text returns every paragraph's text joined by a single space.
func (d Document) Text() string {
	parts := make([]string, 0, len(d.Paragraphs))
	for _, p := range d.Paragraphs {
		if t := strings.TrimSpace(p.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// Clean reports whether every paragraph is clean.
func (d Document) Clean() bool {
	for _, p := range d.Paragraphs {
		if !p.Clean() {
			return false
		}
	}
	return true
}

// MinWordID returns the smallest word id in the document, or 0 when empty.
func (d Document) MinWordID() int {
	minID := 0
	for _, p := range d.Paragraphs {
		for _, w := range p.Words {
			minID = min(minID, w.ID)
		}
	}
	return minID
}

// Speakers returns the distinct speaker labels in order of first appearance.
func (d Document) Speakers() []string {
	seen := make(map[string]struct{}, len(d.Paragraphs))
	var out []string
	for _, p := range d.Paragraphs {
		if _, ok := seen[p.Speaker]; ok {
			continue
		}
		seen[p.Speaker] = struct{}{}
		out = append(out, p.Speaker)
	}
	return out
}

func joinWordText(words []Word) string {
	tokens := make([]string, len(words))
	for i, w := range words {
		tokens[i] = w.Text
	}
	return textutil.JoinWords(tokens)
}
