package session

import (
	"context"
	"time"

	"timedtext/internal/align"
	"timedtext/internal/export"
	"timedtext/internal/faults"
	"timedtext/internal/logging"
)

// RealignResult is delivered by RealignAsync.
type RealignResult struct {
	Result align.Result
	Err    error
}

// ExportResult is delivered by ExportAsync.
type ExportResult struct {
	Output export.Output
	Err    error
}

func (s *Session) acquire(operation string) error {
	if !s.processing.CompareAndSwap(false, true) {
		return faults.Wrap(faults.ErrConcurrentOperation, "session", operation, "another realign or export is in flight", nil)
	}
	return nil
}

func (s *Session) release() {
	s.processing.Store(false)
}

func (s *Session) started() {
	if s.onProcessing != nil {
		s.onProcessing()
	}
}

// Realign realigns every modified paragraph and clears the modified flag.
func (s *Session) Realign(ctx context.Context) (align.Result, error) {
	if err := s.acquire("realign"); err != nil {
		return align.Result{}, err
	}
	defer s.release()
	s.started()
	return s.process(ctx, Operation{Kind: OpRealign})
}

// RealignAsync runs Realign on a goroutine. The processing flag is taken
// before it returns, so a busy session reports the error on the channel
// immediately. The flag is released before the result is delivered.
func (s *Session) RealignAsync(ctx context.Context) <-chan RealignResult {
	ch := make(chan RealignResult, 1)
	if err := s.acquire("realign"); err != nil {
		ch <- RealignResult{Err: err}
		close(ch)
		return ch
	}
	go func() {
		defer close(ch)
		var r RealignResult
		func() {
			defer s.release()
			s.started()
			r.Result, r.Err = s.process(ctx, Operation{Kind: OpRealign})
		}()
		ch <- r
	}()
	return ch
}

// ReplaceText realigns a whole new document text against the source words and
// re-chunks it along the current paragraphs.
func (s *Session) ReplaceText(ctx context.Context, text string) (align.Result, error) {
	if err := s.acquire("replace"); err != nil {
		return align.Result{}, err
	}
	defer s.release()
	s.started()
	return s.process(ctx, Operation{Kind: OpReplace, Text: text})
}

// Export renders the document, realigning first when it is modified and the
// format depends on timings.
func (s *Session) Export(ctx context.Context, f export.Format) (export.Output, error) {
	if err := s.acquire("export"); err != nil {
		return export.Output{}, err
	}
	defer s.release()
	s.started()
	return s.export(ctx, f)
}

// ExportAsync runs Export on a goroutine.
func (s *Session) ExportAsync(ctx context.Context, f export.Format) <-chan ExportResult {
	ch := make(chan ExportResult, 1)
	if err := s.acquire("export"); err != nil {
		ch <- ExportResult{Err: err}
		close(ch)
		return ch
	}
	go func() {
		defer close(ch)
		var r ExportResult
		func() {
			defer s.release()
			s.started()
			r.Output, r.Err = s.export(ctx, f)
		}()
		ch <- r
	}()
	return ch
}

func (s *Session) export(ctx context.Context, f export.Format) (export.Output, error) {
	if f == nil {
		return export.Output{}, faults.Wrap(faults.ErrUnsupportedExportFormat, "session", "export", "no format selected", nil)
	}
	ctx, logger := s.ctxLogger(ctx, "export")
	doc := s.Snapshot()
	if doc.Modified && export.RequiresTimestamps(f) {
		attrs := append(logging.DecisionAttrs("realign_before_export", "realign", "modified document and timed format"),
			logging.String("format", f.Name()))
		logger.Info("realigning before export", logging.Args(attrs...)...)
		if _, err := s.process(ctx, Operation{Kind: OpRealign}); err != nil {
			return export.Output{}, err
		}
		doc = s.Snapshot()
	}
	started := time.Now()
	out, err := export.Render(doc, f)
	if err != nil {
		logging.WarnWithContext(logger, "export failed", "export_failed",
			logging.String("format", f.Name()),
			logging.String("error_kind", faults.Kind(err)),
			logging.Error(err),
		)
		return export.Output{}, err
	}
	logger.Info("document exported",
		logging.String("format", f.Name()),
		logging.Int("bytes", len(out.Data)),
		logging.Duration("elapsed", time.Since(started)),
	)
	return out, nil
}

// process runs a long operation outside the lock and commits the result.
// Callers hold the processing flag, which keeps edits out meanwhile.
func (s *Session) process(ctx context.Context, op Operation) (align.Result, error) {
	ctx, logger := s.ctxLogger(ctx, op.Kind)
	op.At = s.now().UTC()
	s.mu.RLock()
	before := s.doc.Clone()
	source := s.replay.source(s.log[:s.head])
	s.mu.RUnlock()
	started := time.Now()
	doc, _, res, err := s.replay.apply(ctx, before, op, source)
	if err != nil {
		return align.Result{}, err
	}
	s.mu.Lock()
	err = s.commitLocked(ctx, op, doc)
	s.mu.Unlock()
	if err != nil {
		return align.Result{}, err
	}
	logger.Info("alignment committed",
		logging.Int("paragraphs", len(doc.Paragraphs)),
		logging.Int("matched", res.Matched),
		logging.Int("substituted", res.Substituted),
		logging.Int("inserted", res.Inserted),
		logging.Int("deleted", res.Deleted),
		logging.Bool("best_effort", res.BestEffort),
		logging.Duration("elapsed", time.Since(started)),
	)
	return res, nil
}
