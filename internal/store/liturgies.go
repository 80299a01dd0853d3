package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/liturgia/internal/program"
)

const dateLayout = "2006-01-02"

// LiturgySummary is a liturgy with the number of steps it holds.
type LiturgySummary struct {
	program.Liturgy
	Steps int `json:"steps"`
}

// CreateLiturgy inserts a liturgy, minting an id when l.ID is empty.
func (s *Store) CreateLiturgy(ctx context.Context, l program.Liturgy) (program.Liturgy, error) {
	if strings.TrimSpace(l.Title) == "" {
		return program.Liturgy{}, fmt.Errorf("create liturgy: title is required")
	}
	if _, err := time.Parse(dateLayout, l.Date); err != nil {
		return program.Liturgy{}, fmt.Errorf("create liturgy: date %q is not YYYY-MM-DD", l.Date)
	}
	if l.ID == "" {
		l.ID = s.newID()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO liturgies (id, title, liturgy_date) VALUES (?, ?, ?)`,
		l.ID, l.Title, l.Date)
	if err != nil {
		return program.Liturgy{}, fmt.Errorf("create liturgy: %w", err)
	}
	return l, nil
}

// GetLiturgy returns one liturgy or an error wrapping ErrNotFound.
func (s *Store) GetLiturgy(ctx context.Context, id string) (program.Liturgy, error) {
	var l program.Liturgy
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, liturgy_date FROM liturgies WHERE id = ?`, id,
	).Scan(&l.ID, &l.Title, &l.Date)
	if errors.Is(err, sql.ErrNoRows) {
		return program.Liturgy{}, fmt.Errorf("liturgy %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return program.Liturgy{}, fmt.Errorf("get liturgy %s: %w", id, err)
	}
	return l, nil
}

// ListLiturgies returns every liturgy, newest date first.
func (s *Store) ListLiturgies(ctx context.Context) ([]LiturgySummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT l.id, l.title, l.liturgy_date, COUNT(st.id)
		FROM liturgies l
		LEFT JOIN liturgy_steps st ON st.liturgy_id = l.id
		GROUP BY l.id
		ORDER BY l.liturgy_date DESC, l.id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query liturgies: %w", err)
	}
	defer rows.Close()

	out := []LiturgySummary{}
	for rows.Next() {
		var ls LiturgySummary
		if err := rows.Scan(&ls.ID, &ls.Title, &ls.Date, &ls.Steps); err != nil {
			return nil, fmt.Errorf("scan liturgy: %w", err)
		}
		out = append(out, ls)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate liturgies: %w", err)
	}
	return out, nil
}

// DeleteLiturgy removes a liturgy and its steps in one transaction.
func (s *Store) DeleteLiturgy(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete liturgy: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM liturgy_steps WHERE liturgy_id = ?`, id); err != nil {
		return fmt.Errorf("delete liturgy %s steps: %w", id, err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM liturgies WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete liturgy %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("liturgy %s: %w", id, ErrNotFound)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("delete liturgy: commit: %w", err)
	}
	return nil
}
