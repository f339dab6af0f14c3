package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"timedtext/internal/faults"
	"timedtext/internal/session"
	"timedtext/internal/transcript"
)

var _ session.Journal = (*Store)(nil)

// Record stores op as log entry head, dropping the redo tail, and makes doc
// the current document.
func (s *Store) Record(ctx context.Context, docID string, head int, op session.Operation, doc transcript.Document) error {
	if head < 1 {
		return faults.Wrap(faults.ErrValidation, "store", "record", "log head must be positive", nil)
	}
	payload, err := json.Marshal(op)
	if err != nil {
		return fmt.Errorf("encode operation: %w", err)
	}
	current, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	now := formatTime(s.now())
	return s.withTx(ctx, func(tx *sql.Tx) error {
		ctx := ensureContext(ctx)
		if err := updateCurrent(ctx, tx, docID, head, doc, string(current), now); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM operations WHERE document_id = ? AND seq >= ?", docID, head); err != nil {
			return fmt.Errorf("truncate log: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO operations (document_id, seq, kind, payload_json, created_at)
			VALUES (?, ?, ?, ?, ?)`, docID, head, string(op.Kind), string(payload), now); err != nil {
			return fmt.Errorf("insert operation: %w", err)
		}
		return nil
	})
}

// Move records a new log head after undo or redo.
func (s *Store) Move(ctx context.Context, docID string, head int, doc transcript.Document) error {
	current, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	now := formatTime(s.now())
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return updateCurrent(ensureContext(ctx), tx, docID, head, doc, string(current), now)
	})
}

// LoadHistory returns the full edit log of a document and its head.
func (s *Store) LoadHistory(ctx context.Context, docID string) ([]session.Operation, int, error) {
	ctx = ensureContext(ctx)
	var head int
	if err := s.db.QueryRowContext(ctx, "SELECT head FROM documents WHERE id = ?", docID).Scan(&head); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, faults.Wrap(faults.ErrNotFound, "store", "load history", "document "+docID, nil)
		}
		return nil, 0, fmt.Errorf("read head: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, "SELECT payload_json FROM operations WHERE document_id = ? ORDER BY seq", docID)
	if err != nil {
		return nil, 0, fmt.Errorf("query operations: %w", err)
	}
	defer rows.Close()

	var ops []session.Operation
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, 0, fmt.Errorf("scan operation: %w", err)
		}
		var op session.Operation
		if err := json.Unmarshal([]byte(payload), &op); err != nil {
			return nil, 0, fmt.Errorf("decode operation %d: %w", len(ops)+1, err)
		}
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if head > len(ops) {
		head = len(ops)
	}
	return ops, head, nil
}

func updateCurrent(ctx context.Context, tx *sql.Tx, docID string, head int, doc transcript.Document, current, now string) error {
	res, err := tx.ExecContext(ctx, `UPDATE documents
		SET current_json = ?, head = ?, modified = ?, title = ?, updated_at = ?
		WHERE id = ?`, current, head, boolToInt(doc.Modified), doc.Title, now, docID)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if affected == 0 {
		return faults.Wrap(faults.ErrNotFound, "store", "update document", "document "+docID, nil)
	}
	return nil
}
