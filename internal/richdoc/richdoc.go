// Package richdoc writes composed transcript sections into a DOCX document.
package richdoc

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"
)

const (
	defaultFontName = "Times New Roman"
	defaultFontSize = 12
	textColor       = "000000"
	headingColor    = "444444"
)

// Section is one paragraph of the rich document. Heading carries the speaker
// and timecode decoration and is omitted when empty.
type Section struct {
	Heading string
	Body    string
}

// Document is the composed content to write.
type Document struct {
	Title    string
	Sections []Section
}

// Style selects the font for body text. Titles and headings scale from it.
type Style struct {
	FontName string
	FontSize int
}

func (s Style) normalized() Style {
	if strings.TrimSpace(s.FontName) == "" {
		s.FontName = defaultFontName
	}
	if s.FontSize <= 0 {
		s.FontSize = defaultFontSize
	}
	return s
}

// Render builds the DOCX and returns its bytes.
func Render(content Document, style Style) ([]byte, error) {
	style = style.normalized()
	doc, err := godocx.NewDocument()
	if err != nil {
		return nil, fmt.Errorf("create docx: %w", err)
	}

	if title := strings.TrimSpace(content.Title); title != "" {
		addRun(doc.AddParagraph(""), title, style.FontName, uint64(style.FontSize+4), textColor, true)
		doc.AddParagraph("")
	}
	for _, section := range content.Sections {
		if heading := strings.TrimSpace(section.Heading); heading != "" {
			addRun(doc.AddParagraph(""), heading, style.FontName, uint64(style.FontSize), headingColor, true)
		}
		addRun(doc.AddParagraph(""), section.Body, style.FontName, uint64(style.FontSize), textColor, false)
	}

	return save(doc)
}

func addRun(p *docx.Paragraph, text, font string, size uint64, color string, bold bool) {
	run := p.AddText(text).Font(font).Size(size).Color(color)
	if bold {
		run.Bold(true)
	}
}

// save round-trips through a temporary file; the document API writes to paths.
func save(doc *docx.RootDoc) ([]byte, error) {
	dir, err := os.MkdirTemp("", "timedtext-docx-")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "export.docx")
	if err := doc.SaveTo(path); err != nil {
		return nil, fmt.Errorf("save docx: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read docx: %w", err)
	}
	return data, nil
}
