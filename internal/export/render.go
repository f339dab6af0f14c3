package export

import (
	"encoding/json"
	"fmt"
	"strings"

	"timedtext/internal/captions"
	"timedtext/internal/faults"
	"timedtext/internal/richdoc"
	"timedtext/internal/textutil"
	"timedtext/internal/timecode"
	"timedtext/internal/transcript"
)

// ParagraphBreak separates paragraphs in plain-text output.
const ParagraphBreak = "\n\n"

// Output is a rendered export.
type Output struct {
	Format      string
	Data        []byte
	Extension   string
	ContentType string
}

// Render renders doc in format f. It does not modify doc.
func Render(doc transcript.Document, f Format) (Output, error) {
	switch v := f.(type) {
	case Text:
		return Output{Format: v.Name(), Data: []byte(renderText(doc, v.opts)), Extension: ".txt", ContentType: "text/plain; charset=utf-8"}, nil
	case Caption:
		data, err := captions.Render(v.kind, Monotonic(doc), v.opts)
		if err != nil {
			return Output{}, err
		}
		return Output{Format: v.Name(), Data: data, Extension: v.kind.Extension(), ContentType: v.kind.ContentType()}, nil
	case RichDocument:
		data, err := richdoc.Render(composeRich(doc, v), v.style)
		if err != nil {
			return Output{}, fmt.Errorf("render docx: %w", err)
		}
		return Output{Format: v.Name(), Data: data, Extension: ".docx", ContentType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document"}, nil
	case JSONBlock:
		return renderJSON(v.Name(), transcript.ToBlocks(doc))
	case JSONFlat:
		return renderJSON(v.Name(), transcript.ToFlat(doc))
	default:
		return Output{}, faults.Wrap(faults.ErrUnsupportedExportFormat, "export", "render", fmt.Sprintf("%T", f), nil)
	}
}

func renderJSON(name string, v any) (Output, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return Output{}, fmt.Errorf("encode %s: %w", name, err)
	}
	data = append(data, '\n')
	return Output{Format: name, Data: data, Extension: ".json", ContentType: "application/json"}, nil
}

// compose returns a paragraph's decoration (speaker and timecode) and body.
func compose(p transcript.Paragraph, opts Options) (header []string, body string) {
	if opts.Speakers {
		header = append(header, textutil.Upper(p.Speaker))
	}
	if opts.Timecodes && !opts.InlineTimecodes {
		header = append(header, timecode.Short(p.Start))
	}
	body = strings.TrimSpace(p.Text)
	if opts.InlineTimecodes {
		body = "[" + timecode.Short(p.Start) + "] " + body
	}
	return header, body
}

func renderText(doc transcript.Document, opts Options) string {
	parts := make([]string, 0, len(doc.Paragraphs))
	for _, p := range doc.Paragraphs {
		header, body := compose(p, opts)
		switch {
		case len(header) == 0:
			parts = append(parts, body)
		case opts.AtlasFormat:
			parts = append(parts, strings.Join(header, "\t")+"\n"+body)
		default:
			parts = append(parts, strings.Join(append(header, body), "\t"))
		}
	}
	return strings.Join(parts, ParagraphBreak)
}

func composeRich(doc transcript.Document, r RichDocument) richdoc.Document {
	out := richdoc.Document{Sections: make([]richdoc.Section, 0, len(doc.Paragraphs))}
	if !r.opts.HideTitle {
		out.Title = textutil.Ternary(strings.TrimSpace(r.opts.Title) != "", r.opts.Title,
			textutil.Ternary(strings.TrimSpace(doc.Title) != "", doc.Title, r.defaultTitle))
	}
	for _, p := range doc.Paragraphs {
		header, body := compose(p, r.opts)
		out.Sections = append(out.Sections, richdoc.Section{Heading: strings.Join(header, "\t"), Body: body})
	}
	return out
}

// Monotonic returns a copy of doc whose word timings never decrease and never
// overlap. Paragraph starts follow their first word.
func Monotonic(doc transcript.Document) transcript.Document {
	out := doc.Clone()
	prevEnd := 0.0
	for i := range out.Paragraphs {
		p := &out.Paragraphs[i]
		for j := range p.Words {
			w := &p.Words[j]
			if w.Start < prevEnd {
				w.Start = prevEnd
			}
			if w.End < w.Start {
				w.End = w.Start
			}
			prevEnd = w.End
		}
		if len(p.Words) > 0 {
			p.Start = p.Words[0].Start
		}
	}
	return out
}
