package captions

import (
	"strings"
	"unicode/utf8"

	"timedtext/internal/config"
	"timedtext/internal/transcript"
)

// Options controls segmentation and writer decoration.
type Options struct {
	MaxCueSeconds   float64
	MinCueSeconds   float64
	MaxCharsPerLine int
	MaxLines        int
	// Speakers adds the paragraph speaker to each cue where the format allows.
	Speakers bool
}

// DefaultOptions mirrors the configuration defaults.
func DefaultOptions() Options {
	return OptionsFromConfig(nil)
}

// OptionsFromConfig reads the [captions] section.
func OptionsFromConfig(cfg *config.Config) Options {
	c := config.Default().Captions
	if cfg != nil {
		c = cfg.Captions
	}
	return Options{
		MaxCueSeconds:   c.MaxCueSeconds,
		MinCueSeconds:   c.MinCueSeconds,
		MaxCharsPerLine: c.MaxCharsPerLine,
		MaxLines:        c.MaxLines,
	}
}

func (o Options) withDefaults() Options {
	d := config.Default().Captions
	if o.MaxCueSeconds <= 0 {
		o.MaxCueSeconds = d.MaxCueSeconds
	}
	if o.MinCueSeconds < 0 {
		o.MinCueSeconds = 0
	}
	if o.MaxCharsPerLine <= 0 {
		o.MaxCharsPerLine = d.MaxCharsPerLine
	}
	if o.MaxLines <= 0 {
		o.MaxLines = d.MaxLines
	}
	return o
}

// Cue is one timed caption entry.
type Cue struct {
	Index   int
	Start   float64
	End     float64
	Speaker string
	Lines   []string
}

// Text returns the cue lines joined by newlines.
func (c Cue) Text() string {
	return strings.Join(c.Lines, "\n")
}

// Segment splits doc into cues, numbered from 1. A cue never spans two
// paragraphs and carries its paragraph's speaker.
func Segment(doc transcript.Document, opts Options) []Cue {
	opts = opts.withDefaults()
	var cues []Cue
	for _, p := range doc.Paragraphs {
		cues = append(cues, segmentParagraph(p.Speaker, p.Words, opts)...)
	}
	stretch(cues, opts.MinCueSeconds)
	for i := range cues {
		cues[i].Index = i + 1
	}
	return cues
}

func segmentParagraph(speaker string, words []transcript.Word, opts Options) []Cue {
	var (
		cues    []Cue
		current []transcript.Word
	)
	flush := func() {
		if len(current) == 0 {
			return
		}
		cues = append(cues, Cue{
			Start:   current[0].Start,
			End:     current[len(current)-1].End,
			Speaker: speaker,
			Lines:   wrap(wordTexts(current), opts.MaxCharsPerLine),
		})
		current = nil
	}
	for _, w := range words {
		if strings.TrimSpace(w.Text) == "" {
			continue
		}
		if len(current) > 0 {
			tooLong := w.End-current[0].Start > opts.MaxCueSeconds
			tooWide := len(wrap(append(wordTexts(current), w.Text), opts.MaxCharsPerLine)) > opts.MaxLines
			if tooLong || tooWide {
				flush()
			}
		}
		current = append(current, w)
	}
	flush()
	return cues
}

// stretch extends cues shorter than minimum without reaching the next start.
func stretch(cues []Cue, minimum float64) {
	if minimum <= 0 {
		return
	}
	for i := range cues {
		if cues[i].End-cues[i].Start >= minimum {
			continue
		}
		target := cues[i].Start + minimum
		if i+1 < len(cues) && target > cues[i+1].Start {
			target = cues[i+1].Start
		}
		if target > cues[i].End {
			cues[i].End = target
		}
	}
}

// wrap greedily packs tokens into lines of at most width runes. A token
// longer than width gets a line of its own.
func wrap(tokens []string, width int) []string {
	var (
		lines []string
		line  strings.Builder
		size  int
	)
	for _, tok := range tokens {
		n := utf8.RuneCountInString(tok)
		if size > 0 && size+1+n > width {
			lines = append(lines, line.String())
			line.Reset()
			size = 0
		}
		if size > 0 {
			line.WriteByte(' ')
			size++
		}
		line.WriteString(tok)
		size += n
	}
	if size > 0 {
		lines = append(lines, line.String())
	}
	return lines
}

func wordTexts(words []transcript.Word) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = w.Text
	}
	return out
}
