package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"timedtext/internal/align"
	"timedtext/internal/config"
	"timedtext/internal/export"
	"timedtext/internal/faults"
	"timedtext/internal/logging"
	"timedtext/internal/session"
	"timedtext/internal/store"
)

type commandContext struct {
	configFlag *string
	jsonFlag   *bool

	configOnce sync.Once
	config     *config.Config
	logger     *slog.Logger
	configErr  error
}

func newCommandContext(configFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		jsonFlag:   jsonFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.logger = logger
	})
	return c.config, c.configErr
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

// requestContext tags the command's context with a fresh correlation id.
func (c *commandContext) requestContext(cmd *cobra.Command) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return logging.WithRequestID(ctx, uuid.NewString())
}

func (c *commandContext) withStore(fn func(*store.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	st, err := store.Open(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	return fn(st)
}

func (c *commandContext) sessionDeps(st *store.Store) session.Deps {
	return session.Deps{
		Aligner:        align.NewFromConfig(c.config, c.logger),
		Settings:       export.SettingsFromConfig(c.config),
		UnknownSpeaker: c.config.Editor.UnknownSpeaker,
		Journal:        st,
		Logger:         c.logger,
	}
}

// docRun is what a document command sees after its session is restored.
type docRun struct {
	ctx     context.Context
	store   *store.Store
	record  store.Record
	session *session.Session
}

// withSession resolves ref to a stored document, restores its session and
// runs fn. Mutating commands hold the document lock until fn returns.
func (c *commandContext) withSession(cmd *cobra.Command, ref string, mutate bool, fn func(run docRun) error) error {
	return c.withStore(func(st *store.Store) error {
		ctx := c.requestContext(cmd)
		id, err := resolveDocumentID(ctx, st, ref)
		if err != nil {
			return err
		}
		ctx = logging.WithDocumentID(ctx, id)
		if mutate {
			release, err := st.Lock(id)
			if err != nil {
				return err
			}
			defer func() {
				if err := release(); err != nil {
					c.logger.Warn("failed to release document lock", logging.Error(err))
				}
			}()
		}
		rec, err := st.GetDocument(ctx, id)
		if err != nil {
			return err
		}
		ops, head, err := st.LoadHistory(ctx, id)
		if err != nil {
			return err
		}
		sess, err := session.Restore(ctx, id, rec.Base, ops, head, c.sessionDeps(st))
		if err != nil {
			return err
		}
		if err := fn(docRun{ctx: ctx, store: st, record: rec, session: sess}); err != nil {
			c.logFailure(ctx, cmd, err)
			return err
		}
		return nil
	})
}

// logFailure records a failed document command. Rejections the user can act
// on are logged at debug; anything else is an error.
func (c *commandContext) logFailure(ctx context.Context, cmd *cobra.Command, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	logger := logging.WithContext(ctx, c.logger)
	attrs := []logging.Attr{
		logging.String("command", cmd.Name()),
		logging.String("error_kind", faults.Kind(err)),
		logging.Error(err),
	}
	if faults.Recoverable(err) {
		logger.Debug("document command rejected", logging.Args(attrs...)...)
		return
	}
	logging.ErrorWithContext(logger, "document command failed", "document_command_failed",
		append(attrs, logging.String(logging.FieldErrorHint, "check the database path and the document history"))...)
}

// resolveDocumentID accepts a full id or a unique prefix of one.
func resolveDocumentID(ctx context.Context, st *store.Store, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", faults.Wrap(faults.ErrValidation, "cli", "resolve document", "document id is required", nil)
	}
	docs, err := st.ListDocuments(ctx)
	if err != nil {
		return "", err
	}
	var matches []string
	for _, d := range docs {
		if d.ID == ref {
			return d.ID, nil
		}
		if strings.HasPrefix(d.ID, ref) {
			matches = append(matches, d.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", faults.Wrap(faults.ErrNotFound, "cli", "resolve document", "no document matches "+ref, nil)
	case 1:
		return matches[0], nil
	default:
		return "", faults.Wrap(faults.ErrValidation, "cli", "resolve document",
			fmt.Sprintf("%q matches %d documents", ref, len(matches)), nil)
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
