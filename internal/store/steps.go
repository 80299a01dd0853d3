package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/liturgia/internal/program"
)

// ListSteps returns the step rows of a liturgy.
// Ordered by step_order ASC, id ASC COLLATE BINARY.
func (s *Store) ListSteps(ctx context.Context, liturgyID string) ([]program.Row, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, liturgy_id, title, description, type, step_order, assigned_user_id, content
		FROM liturgy_steps
		WHERE liturgy_id = ?
		ORDER BY step_order ASC, id COLLATE BINARY ASC
	`, liturgyID)
	if err != nil {
		return nil, fmt.Errorf("query steps: %w", err)
	}
	defer rows.Close()

	out := []program.Row{}
	for rows.Next() {
		r, err := scanStep(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate steps: %w", err)
	}
	return out, nil
}

func scanStep(rows *sql.Rows) (program.Row, error) {
	var (
		r        program.Row
		typ      string
		assigned sql.NullString
		content  string
	)
	if err := rows.Scan(&r.ID, &r.LiturgyID, &r.Title, &r.Description, &typ, &r.Order, &assigned, &content); err != nil {
		return program.Row{}, fmt.Errorf("scan step: %w", err)
	}
	r.Type = program.StepType(typ)
	if assigned.Valid {
		r.AssignedPersonID = &assigned.String
	}
	r.Content = json.RawMessage(content)
	return r, nil
}

// BulkDelete removes the given step rows in a single statement. Ids that do
// not exist are ignored.
func (s *Store) BulkDelete(ctx context.Context, ids []program.StepID) error {
	if len(ids) == 0 {
		return nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		if id.IsLocal() {
			return fmt.Errorf("bulk delete: local id %s has no row", id)
		}
		args[i] = string(id)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("bulk delete: begin: %w", err)
	}
	defer tx.Rollback()

	query := `DELETE FROM liturgy_steps WHERE id IN (` + placeholders(len(ids)) + `)`
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("bulk delete: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("bulk delete: commit: %w", err)
	}
	return nil
}

// BulkUpsert writes rows in one transaction. A row without an id is inserted
// under a new id; a row with one replaces every column of that id. Either all
// rows land or none do.
func (s *Store) BulkUpsert(ctx context.Context, rows []program.Row) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("bulk upsert: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO liturgy_steps
		(id, liturgy_id, title, description, type, step_order, assigned_user_id, content)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			liturgy_id = excluded.liturgy_id,
			title = excluded.title,
			description = excluded.description,
			type = excluded.type,
			step_order = excluded.step_order,
			assigned_user_id = excluded.assigned_user_id,
			content = excluded.content
	`)
	if err != nil {
		return fmt.Errorf("bulk upsert: prepare: %w", err)
	}
	defer stmt.Close()

	for i, r := range rows {
		if !r.Type.Valid() {
			return fmt.Errorf("bulk upsert: row %d: unknown step type %q", i, r.Type)
		}
		id := r.ID
		if r.IsInsert() {
			id = s.newID()
		} else if program.StepID(id).IsLocal() {
			return fmt.Errorf("bulk upsert: row %d: local id %s sent to store", i, id)
		}
		content := string(r.Content)
		if strings.TrimSpace(content) == "" {
			content = "{}"
		}
		if !json.Valid([]byte(content)) {
			return fmt.Errorf("bulk upsert: row %d: content is not valid JSON", i)
		}
		var assigned any
		if r.AssignedPersonID != nil {
			assigned = *r.AssignedPersonID
		}
		if _, err := stmt.ExecContext(ctx, id, r.LiturgyID, r.Title, r.Description, string(r.Type), r.Order, assigned, content); err != nil {
			return fmt.Errorf("bulk upsert: row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("bulk upsert: commit: %w", err)
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
