package session

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"timedtext/internal/align"
	"timedtext/internal/export"
	"timedtext/internal/faults"
	"timedtext/internal/logging"
	"timedtext/internal/transcript"
)

// Journal persists the edit log. Record stores op at position head-1,
// discarding any entries at or after it, and the resulting document. Move
// records a new head after undo or redo.
type Journal interface {
	Record(ctx context.Context, docID string, head int, op Operation, doc transcript.Document) error
	Move(ctx context.Context, docID string, head int, doc transcript.Document) error
}

// Deps are the collaborators a session works with.
type Deps struct {
	Aligner        *align.Aligner
	Settings       export.Settings
	UnknownSpeaker string
	Journal        Journal
	Logger         *slog.Logger
}

// State is the explicit editor state.
type State struct {
	Modified   bool `json:"modified"`
	Processing bool `json:"processing"`
	Saved      bool `json:"saved"`
	Head       int  `json:"head"`
	Length     int  `json:"length"`
}

// Session owns one document and its edit log.
type Session struct {
	id       string
	base     transcript.Document
	replay   replayer
	settings export.Settings
	journal  Journal
	logger   *slog.Logger

	mu    sync.RWMutex
	doc   transcript.Document
	log   []Operation
	head  int
	saved bool

	processing atomic.Bool
	// onProcessing runs after the processing flag is taken; tests use it to
	// hold the flag.
	onProcessing func()
	now          func() time.Time
}

// New starts a session on base with an empty edit log.
func New(id string, base transcript.Document, deps Deps) *Session {
	aligner := deps.Aligner
	if aligner == nil {
		aligner = align.New(0, deps.Logger)
	}
	unknown := strings.TrimSpace(deps.UnknownSpeaker)
	if unknown == "" {
		unknown = transcript.DefaultUnknownSpeaker
	}
	return &Session{
		id:   id,
		base: base.Clone(),
		replay: replayer{
			aligner:        aligner,
			base:           base.Words(),
			unknownSpeaker: unknown,
		},
		settings: deps.Settings,
		journal:  deps.Journal,
		logger:   logging.NewComponentLogger(deps.Logger, "session"),
		doc:      base.Clone(),
		saved:    deps.Journal != nil,
		now:      time.Now,
	}
}

// Restore rebuilds a session from a persisted log with the first head
// operations applied.
func Restore(ctx context.Context, id string, base transcript.Document, ops []Operation, head int, deps Deps) (*Session, error) {
	s := New(id, base, deps)
	if head < 0 || head > len(ops) {
		return nil, faults.Wrap(faults.ErrValidation, "session", "restore", "history head out of range", nil)
	}
	doc, err := s.replayPrefix(ctx, ops[:head])
	if err != nil {
		return nil, err
	}
	s.doc = doc
	s.log = append([]Operation(nil), ops...)
	s.head = head
	return s, nil
}

// ID returns the document identifier.
func (s *Session) ID() string { return s.id }

// Snapshot returns an immutable copy of the current document.
func (s *Session) Snapshot() transcript.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Clone()
}

// Base returns the document the edit log starts from.
func (s *Session) Base() transcript.Document {
	return s.base.Clone()
}

// State reports the editor state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{
		Modified:   s.doc.Modified,
		Processing: s.processing.Load(),
		Saved:      s.saved,
		Head:       s.head,
		Length:     len(s.log),
	}
}

// History returns a copy of the edit log and the current head.
func (s *Session) History() ([]Operation, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Operation(nil), s.log...), s.head
}

// Speakers lists the distinct speakers in the current document.
func (s *Session) Speakers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Speakers()
}

// ParseFormat builds an export format using the session's configured
// caption and document settings.
func (s *Session) ParseFormat(name string, opts export.Options) (export.Format, error) {
	return export.ParseFormat(name, opts, s.settings)
}

func (s *Session) ctxLogger(ctx context.Context, op OpKind) (context.Context, *slog.Logger) {
	ctx = logging.WithOperation(logging.WithDocumentID(ctx, s.id), string(op))
	return ctx, logging.WithContext(ctx, s.logger)
}

// edit applies an interactive operation under the write lock.
func (s *Session) edit(ctx context.Context, op Operation) (transcript.Point, error) {
	ctx, logger := s.ctxLogger(ctx, op.Kind)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.processing.Load() {
		return transcript.Point{}, faults.Wrap(faults.ErrConcurrentOperation, "session", string(op.Kind), "document is being processed", nil)
	}
	op.At = s.now().UTC()
	doc, cursor, _, err := s.replay.apply(ctx, s.doc, op, s.replay.source(s.log[:s.head]))
	if err != nil {
		logger.Debug("edit rejected", logging.String("error_kind", faults.Kind(err)), logging.Error(err))
		return cursor, err
	}
	if err := s.commitLocked(ctx, op, doc); err != nil {
		return transcript.Point{}, err
	}
	logger.Debug("edit applied", logging.Int("head", s.head), logging.Bool("modified", doc.Modified))
	return cursor, nil
}

// commitLocked journals op and makes doc current. Callers hold mu.
func (s *Session) commitLocked(ctx context.Context, op Operation, doc transcript.Document) error {
	if s.journal != nil {
		if err := s.journal.Record(ctx, s.id, s.head+1, op, doc); err != nil {
			return err
		}
	}
	s.log = append(s.log[:s.head:s.head], op)
	s.head = len(s.log)
	s.doc = doc
	s.saved = s.journal != nil
	return nil
}

// Split splits a paragraph at a collapsed selection.
func (s *Session) Split(ctx context.Context, sel transcript.Selection) (transcript.Point, error) {
	return s.edit(ctx, Operation{Kind: OpSplit, Selection: &sel})
}

// Merge handles a backspace at offset in paragraph.
func (s *Session) Merge(ctx context.Context, paragraph, offset int) (transcript.Point, error) {
	return s.edit(ctx, Operation{Kind: OpMerge, Paragraph: paragraph, Offset: offset})
}

// SetText replaces a paragraph's text.
func (s *Session) SetText(ctx context.Context, paragraph int, text string) error {
	_, err := s.edit(ctx, Operation{Kind: OpSetText, Paragraph: paragraph, Text: text})
	return err
}

// InsertText inserts text at a point.
func (s *Session) InsertText(ctx context.Context, at transcript.Point, text string) (transcript.Point, error) {
	return s.edit(ctx, Operation{Kind: OpInsertText, Paragraph: at.Paragraph, Offset: at.Offset, Text: text})
}

// SetSpeaker relabels a paragraph.
func (s *Session) SetSpeaker(ctx context.Context, paragraph int, speaker string) error {
	_, err := s.edit(ctx, Operation{Kind: OpSetSpeaker, Paragraph: paragraph, Speaker: speaker})
	return err
}

// Append adds paragraphs, typically new live results, at the end.
func (s *Session) Append(ctx context.Context, paragraphs []transcript.Paragraph) error {
	if len(paragraphs) == 0 {
		return nil
	}
	_, err := s.edit(ctx, Operation{Kind: OpAppend, Paragraphs: paragraphs})
	return err
}

// Undo steps back one operation.
func (s *Session) Undo(ctx context.Context) error {
	ctx, logger := s.ctxLogger(ctx, "undo")
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.processing.Load() {
		return faults.Wrap(faults.ErrConcurrentOperation, "session", "undo", "document is being processed", nil)
	}
	if s.head == 0 {
		return faults.Wrap(faults.ErrStructuralEditRejected, "session", "undo", "nothing to undo", nil)
	}
	doc, err := s.replayPrefix(ctx, s.log[:s.head-1])
	if err != nil {
		return err
	}
	if err := s.moveLocked(ctx, s.head-1, doc); err != nil {
		return err
	}
	logger.Debug("undo", logging.Int("head", s.head))
	return nil
}

// Redo re-applies the next undone operation.
func (s *Session) Redo(ctx context.Context) error {
	ctx, logger := s.ctxLogger(ctx, "redo")
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.processing.Load() {
		return faults.Wrap(faults.ErrConcurrentOperation, "session", "redo", "document is being processed", nil)
	}
	if s.head >= len(s.log) {
		return faults.Wrap(faults.ErrStructuralEditRejected, "session", "redo", "nothing to redo", nil)
	}
	doc, _, _, err := s.replay.apply(ctx, s.doc, s.log[s.head], s.replay.source(s.log[:s.head]))
	if err != nil {
		return err
	}
	if err := s.moveLocked(ctx, s.head+1, doc); err != nil {
		return err
	}
	logger.Debug("redo", logging.Int("head", s.head))
	return nil
}

func (s *Session) moveLocked(ctx context.Context, head int, doc transcript.Document) error {
	if s.journal != nil {
		if err := s.journal.Move(ctx, s.id, head, doc); err != nil {
			return err
		}
	}
	s.head = head
	s.doc = doc
	s.saved = s.journal != nil
	return nil
}

func (s *Session) replayPrefix(ctx context.Context, ops []Operation) (transcript.Document, error) {
	doc := s.base.Clone()
	src := s.replay.base
	for i, op := range ops {
		next, _, _, err := s.replay.apply(ctx, doc, op, src)
		if err != nil {
			return transcript.Document{}, faults.Wrap(faults.ErrValidation, "session", "replay",
				"operation "+op.Summary()+" failed at position "+strconv.Itoa(i+1), err)
		}
		doc = next
		src = extendSource(src, op)
	}
	return doc, nil
}
