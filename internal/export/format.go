package export

import (
	"fmt"
	"sort"
	"strings"

	"timedtext/internal/captions"
	"timedtext/internal/config"
	"timedtext/internal/faults"
	"timedtext/internal/richdoc"
)

// Options are the per-export composition switches.
type Options struct {
	Speakers        bool
	Timecodes       bool
	InlineTimecodes bool
	HideTitle       bool
	AtlasFormat     bool
	// Title overrides the document title for rich documents.
	Title string
}

// Settings are the configured defaults formats are built from.
type Settings struct {
	Captions     captions.Options
	Style        richdoc.Style
	DefaultTitle string
}

// SettingsFromConfig reads caption and export settings.
func SettingsFromConfig(cfg *config.Config) Settings {
	if cfg == nil {
		d := config.Default()
		cfg = &d
	}
	return Settings{
		Captions:     captions.OptionsFromConfig(cfg),
		Style:        richdoc.Style{FontName: cfg.Export.FontName, FontSize: cfg.Export.FontSize},
		DefaultTitle: cfg.Export.DefaultTitle,
	}
}

// Format is one export target. The set of implementations is closed.
type Format interface {
	// Name is the CLI name of the format.
	Name() string
	// RequiresTimestamps reports whether output depends on word timings.
	RequiresTimestamps() bool
	isFormat()
}

// Text renders plain text.
type Text struct {
	opts Options
}

// NewText builds a plain-text format.
func NewText(opts Options) Text { return Text{opts: opts} }

func (Text) Name() string { return "text" }

func (t Text) RequiresTimestamps() bool { return t.opts.Timecodes || t.opts.InlineTimecodes }

func (Text) isFormat() {}

// Caption renders one of the caption file formats.
type Caption struct {
	kind captions.Kind
	opts captions.Options
}

// NewCaption builds a caption format, rejecting unknown kinds.
func NewCaption(kind string, opts captions.Options) (Caption, error) {
	k, err := captions.ParseKind(kind)
	if err != nil {
		return Caption{}, err
	}
	return Caption{kind: k, opts: opts}, nil
}

func (c Caption) Name() string { return string(c.kind) }

// Kind returns the caption file format.
func (c Caption) Kind() captions.Kind { return c.kind }

func (Caption) RequiresTimestamps() bool { return true }

func (Caption) isFormat() {}

// RichDocument renders a DOCX document.
type RichDocument struct {
	opts         Options
	style        richdoc.Style
	defaultTitle string
}

// NewRichDocument builds a DOCX format.
func NewRichDocument(opts Options, style richdoc.Style, defaultTitle string) RichDocument {
	return RichDocument{opts: opts, style: style, defaultTitle: defaultTitle}
}

func (RichDocument) Name() string { return "docx" }

func (r RichDocument) RequiresTimestamps() bool { return r.opts.Timecodes || r.opts.InlineTimecodes }

func (RichDocument) isFormat() {}

// JSONBlock renders the block interchange JSON.
type JSONBlock struct{}

func (JSONBlock) Name() string             { return "json-block" }
func (JSONBlock) RequiresTimestamps() bool { return true }
func (JSONBlock) isFormat()                {}

// JSONFlat renders the flat interchange JSON.
type JSONFlat struct{}

func (JSONFlat) Name() string             { return "json-flat" }
func (JSONFlat) RequiresTimestamps() bool { return true }
func (JSONFlat) isFormat()                {}

// RequiresTimestamps reports whether f needs realigned timings.
func RequiresTimestamps(f Format) bool {
	return f != nil && f.RequiresTimestamps()
}

var formatNames = map[string]func(Options, Settings) (Format, error){
	"text": func(o Options, _ Settings) (Format, error) { return NewText(o), nil },
	"docx": func(o Options, s Settings) (Format, error) {
		return NewRichDocument(o, s.Style, s.DefaultTitle), nil
	},
	"json-block": func(Options, Settings) (Format, error) { return JSONBlock{}, nil },
	"json-flat":  func(Options, Settings) (Format, error) { return JSONFlat{}, nil },
}

// Names lists every format name ParseFormat accepts.
func Names() []string {
	names := make([]string, 0, len(formatNames)+len(captions.Kinds()))
	for name := range formatNames {
		names = append(names, name)
	}
	for _, k := range captions.Kinds() {
		names = append(names, string(k))
	}
	sort.Strings(names)
	return names
}

// ParseFormat maps a format name to its variant.
func ParseFormat(name string, opts Options, settings Settings) (Format, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if build, ok := formatNames[key]; ok {
		return build(opts, settings)
	}
	if _, err := captions.ParseKind(key); err == nil {
		copts := settings.Captions
		copts.Speakers = opts.Speakers
		return NewCaption(key, copts)
	}
	return nil, faults.Wrap(faults.ErrUnsupportedExportFormat, "export", "parse format",
		fmt.Sprintf("%q (want one of %s)", name, strings.Join(Names(), ", ")), nil)
}
