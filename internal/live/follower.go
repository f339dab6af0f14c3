// Package live follows a growing flat transcript file and hands newly seen
// words to the editor as paragraphs appended at the end of the document.
package live

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"timedtext/internal/config"
	"timedtext/internal/logging"
	"timedtext/internal/transcript"
)

// DefaultDebounce is used when no debounce is configured.
const DefaultDebounce = 250 * time.Millisecond

// Handler receives paragraphs built from words not delivered before.
type Handler func(ctx context.Context, paragraphs []transcript.Paragraph) error

// Options tune a Follower.
type Options struct {
	Debounce       time.Duration
	UnknownSpeaker string
}

// OptionsFromConfig reads the live and editor sections.
func OptionsFromConfig(cfg *config.Config) Options {
	if cfg == nil {
		return Options{Debounce: DefaultDebounce}
	}
	return Options{
		Debounce:       time.Duration(cfg.Live.DebounceMillis) * time.Millisecond,
		UnknownSpeaker: cfg.Editor.UnknownSpeaker,
	}
}

// Follower watches one transcript file. The parent directory is watched so
// files replaced by rename are still picked up.
type Follower struct {
	path     string
	opts     Options
	handler  Handler
	logger   *slog.Logger
	watcher  *fsnotify.Watcher
	mu       sync.Mutex
	seen     map[int]struct{}
	closeErr error
	once     sync.Once
}

// New creates a follower for path. Nothing is read until Run or Poll.
func New(path string, opts Options, handler Handler, logger *slog.Logger) (*Follower, error) {
	if handler == nil {
		return nil, errors.New("live: handler is required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("add watch path: %w", err)
	}
	return &Follower{
		path:    abs,
		opts:    opts,
		handler: handler,
		logger:  logging.NewComponentLogger(logger, "live"),
		watcher: watcher,
		seen:    make(map[int]struct{}),
	}, nil
}

// Seed marks every word of doc as already delivered.
func (f *Follower) Seed(doc transcript.Document) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, w := range doc.Words() {
		f.seen[w.ID] = struct{}{}
	}
}

// Run watches until ctx is done. The file is polled once on start and again
// after each burst of changes settles for the debounce interval.
func (f *Follower) Run(ctx context.Context) error {
	defer f.Close()
	f.logger.Info("following transcript", logging.String("path", f.path), logging.Duration("debounce", f.opts.Debounce))
	f.pollAndLog(ctx)

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			f.logger.Info("follower stopped")
			return ctx.Err()

		case event, ok := <-f.watcher.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}
			if !f.relevant(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(f.opts.Debounce)
			} else {
				timer.Reset(f.opts.Debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			f.pollAndLog(ctx)

		case err, ok := <-f.watcher.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			f.logger.Warn("watcher error", logging.Error(err))
		}
	}
}

func (f *Follower) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != f.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}

func (f *Follower) pollAndLog(ctx context.Context) {
	n, err := f.Poll(ctx)
	switch {
	case err != nil:
		// Half-written files fail to decode; the next write retries.
		f.logger.Debug("poll failed", logging.String("path", f.path), logging.Error(err))
	case n > 0:
		f.logger.Info("appended live paragraphs", logging.Int("paragraphs", n))
	}
}

// Poll reads the file once and delivers words not seen before. It returns
// the number of paragraphs handed to the handler. A missing file is not an
// error.
func (f *Follower) Poll(ctx context.Context) (int, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", f.path, err)
	}
	doc, err := transcript.Decode(data, transcript.IsYAMLPath(f.path), f.opts.UnknownSpeaker)
	if err != nil {
		return 0, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	fresh := f.unseen(doc)
	if len(fresh) == 0 {
		return 0, nil
	}
	if err := f.handler(ctx, fresh); err != nil {
		return 0, fmt.Errorf("deliver live paragraphs: %w", err)
	}
	for _, p := range fresh {
		for _, w := range p.Words {
			f.seen[w.ID] = struct{}{}
		}
	}
	return len(fresh), nil
}

// unseen keeps, per paragraph, the words not delivered yet. Callers hold mu.
func (f *Follower) unseen(doc transcript.Document) []transcript.Paragraph {
	var out []transcript.Paragraph
	for _, p := range doc.Paragraphs {
		var words []transcript.Word
		for _, w := range p.Words {
			if _, ok := f.seen[w.ID]; !ok {
				words = append(words, w)
			}
		}
		if len(words) > 0 {
			out = append(out, transcript.NewParagraph(p.Speaker, words))
		}
	}
	return out
}

// Close stops the underlying watcher.
func (f *Follower) Close() error {
	f.once.Do(func() {
		f.closeErr = f.watcher.Close()
	})
	return f.closeErr
}
