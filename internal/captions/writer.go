package captions

import (
	"bytes"
	"encoding/csv"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"timedtext/internal/faults"
	"timedtext/internal/timecode"
	"timedtext/internal/transcript"
)

// Kind names a caption file format.
type Kind string

const (
	SRT  Kind = "srt"
	VTT  Kind = "vtt"
	TTML Kind = "ttml"
	CSV  Kind = "csv"
)

// Kinds lists every supported caption format.
func Kinds() []Kind {
	return []Kind{SRT, VTT, TTML, CSV}
}

// ParseKind validates a caption format name.
func ParseKind(name string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(name)))
	if k == "webvtt" {
		k = VTT
	}
	for _, known := range Kinds() {
		if k == known {
			return k, nil
		}
	}
	return "", faults.Wrap(faults.ErrUnsupportedExportFormat, "captions", "parse kind", fmt.Sprintf("unknown caption format %q", name), nil)
}

// Extension returns the file extension including the dot.
func (k Kind) Extension() string {
	return "." + string(k)
}

// ContentType returns the MIME type for the format.
func (k Kind) ContentType() string {
	switch k {
	case SRT:
		return "application/x-subrip"
	case VTT:
		return "text/vtt"
	case TTML:
		return "application/ttml+xml"
	case CSV:
		return "text/csv"
	default:
		return "text/plain"
	}
}

// Render segments doc and writes it in the requested format.
func Render(kind Kind, doc transcript.Document, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, kind, Segment(doc, opts), opts.Speakers); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write emits cues in the requested format.
func Write(w io.Writer, kind Kind, cues []Cue, speakers bool) error {
	switch kind {
	case SRT:
		return writeSRT(w, cues, speakers)
	case VTT:
		return writeVTT(w, cues, speakers)
	case TTML:
		return writeTTML(w, cues, speakers)
	case CSV:
		return writeCSV(w, cues, speakers)
	default:
		return faults.Wrap(faults.ErrUnsupportedExportFormat, "captions", "write", fmt.Sprintf("unknown caption format %q", kind), nil)
	}
}

func writeSRT(w io.Writer, cues []Cue, speakers bool) error {
	var b strings.Builder
	for _, c := range cues {
		lines := c.Lines
		if speakers && c.Speaker != "" && len(lines) > 0 {
			lines = append([]string{c.Speaker + ": " + lines[0]}, lines[1:]...)
		}
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", c.Index, timecode.SRT(c.Start), timecode.SRT(c.End), strings.Join(lines, "\n"))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeVTT(w io.Writer, cues []Cue, speakers bool) error {
	var b strings.Builder
	b.WriteString("WEBVTT\n\n")
	for _, c := range cues {
		voice := ""
		if speakers && c.Speaker != "" {
			voice = "<v " + c.Speaker + ">"
		}
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s%s\n\n", c.Index, timecode.Caption(c.Start), timecode.Caption(c.End), voice, c.Text())
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeCSV(w io.Writer, cues []Cue, speakers bool) error {
	cw := csv.NewWriter(w)
	header := []string{"index", "start", "end"}
	if speakers {
		header = append(header, "speaker")
	}
	header = append(header, "text")
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, c := range cues {
		row := []string{strconv.Itoa(c.Index), timecode.Caption(c.Start), timecode.Caption(c.End)}
		if speakers {
			row = append(row, c.Speaker)
		}
		row = append(row, strings.Join(c.Lines, " "))
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

type ttmlDoc struct {
	XMLName xml.Name `xml:"tt"`
	Xmlns   string   `xml:"xmlns,attr"`
	XmlnsM  string   `xml:"xmlns:ttm,attr"`
	Lang    string   `xml:"xml:lang,attr"`
	Body    ttmlBody `xml:"body"`
}

type ttmlBody struct {
	Div ttmlDiv `xml:"div"`
}

type ttmlDiv struct {
	Paragraphs []ttmlParagraph `xml:"p"`
}

type ttmlParagraph struct {
	ID    string `xml:"xml:id,attr"`
	Begin string `xml:"begin,attr"`
	End   string `xml:"end,attr"`
	Agent string `xml:"ttm:agent,attr,omitempty"`
	Inner string `xml:",innerxml"`
}

func writeTTML(w io.Writer, cues []Cue, speakers bool) error {
	doc := ttmlDoc{
		Xmlns:  "http://www.w3.org/ns/ttml",
		XmlnsM: "http://www.w3.org/ns/ttml#metadata",
		Lang:   "en",
	}
	for _, c := range cues {
		lines := make([]string, len(c.Lines))
		for i, line := range c.Lines {
			var esc bytes.Buffer
			if err := xml.EscapeText(&esc, []byte(line)); err != nil {
				return fmt.Errorf("escape ttml text: %w", err)
			}
			lines[i] = esc.String()
		}
		p := ttmlParagraph{
			ID:    "c" + strconv.Itoa(c.Index),
			Begin: timecode.Caption(c.Start),
			End:   timecode.Caption(c.End),
			Inner: strings.Join(lines, "<br/>"),
		}
		if speakers {
			p.Agent = c.Speaker
		}
		doc.Body.Div.Paragraphs = append(doc.Body.Div.Paragraphs, p)
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode ttml: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}
