package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"timedtext/internal/faults"
	"timedtext/internal/transcript"
)

// Summary describes a stored document without its content.
type Summary struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Head       int       `json:"head"`
	Operations int       `json:"operations"`
	Modified   bool      `json:"modified"`
	SourcePath string    `json:"source_path,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Record is a stored document with its base and current content.
type Record struct {
	Summary
	Base    transcript.Document `json:"base"`
	Current transcript.Document `json:"current"`
}

const summaryColumns = `d.id, d.title, d.head, d.modified, d.source_path, d.created_at, d.updated_at,
	(SELECT COUNT(1) FROM operations o WHERE o.document_id = d.id)`

// CreateDocument stores doc as a new document with an empty edit log and
// returns its generated id.
func (s *Store) CreateDocument(ctx context.Context, doc transcript.Document, sourcePath string) (string, error) {
	payload, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}
	id := uuid.NewString()
	now := formatTime(s.now())
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ensureContext(ctx), `INSERT INTO documents
			(id, title, base_json, current_json, head, modified, source_path, created_at, updated_at)
			VALUES (?, ?, ?, ?, 0, ?, ?, ?, ?)`,
			id, doc.Title, string(payload), string(payload), boolToInt(doc.Modified),
			nullableString(sourcePath), now, now)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("insert document: %w", err)
	}
	return id, nil
}

// GetDocument loads a document by id.
func (s *Store) GetDocument(ctx context.Context, id string) (Record, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+summaryColumns+`, d.base_json, d.current_json
		FROM documents d WHERE d.id = ?`, id)

	var (
		rec                  Record
		baseJSON, currentRaw string
	)
	summary, err := scanSummary(row, &baseJSON, &currentRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, faults.Wrap(faults.ErrNotFound, "store", "get document", "document "+id, nil)
	}
	if err != nil {
		return Record{}, fmt.Errorf("scan document: %w", err)
	}
	rec.Summary = summary
	if err := json.Unmarshal([]byte(baseJSON), &rec.Base); err != nil {
		return Record{}, fmt.Errorf("decode base document %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(currentRaw), &rec.Current); err != nil {
		return Record{}, fmt.Errorf("decode current document %s: %w", id, err)
	}
	return rec, nil
}

// ListDocuments returns all documents, most recently updated first.
func (s *Store) ListDocuments(ctx context.Context) ([]Summary, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT `+summaryColumns+`
		FROM documents d ORDER BY d.updated_at DESC, d.id`)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		summary, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, summary)
	}
	return out, rows.Err()
}

// DeleteDocument removes a document and its edit log.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	var affected int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		ctx := ensureContext(ctx)
		if _, err := tx.ExecContext(ctx, "DELETE FROM operations WHERE document_id = ?", id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if affected == 0 {
		return faults.Wrap(faults.ErrNotFound, "store", "delete document", "document "+id, nil)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSummary(row scanner, extra ...any) (Summary, error) {
	var (
		summary          Summary
		modified         int
		source           sql.NullString
		created, updated string
	)
	dest := []any{&summary.ID, &summary.Title, &summary.Head, &modified, &source, &created, &updated, &summary.Operations}
	dest = append(dest, extra...)
	if err := row.Scan(dest...); err != nil {
		return Summary{}, err
	}
	summary.Modified = modified != 0
	summary.SourcePath = source.String
	summary.CreatedAt = parseTime(created)
	summary.UpdatedAt = parseTime(updated)
	return summary, nil
}
