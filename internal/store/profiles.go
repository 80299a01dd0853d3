package store

import (
	"context"
	"fmt"

	"github.com/roach88/liturgia/internal/program"
)

// ListProfiles returns everyone who can be assigned to a step.
func (s *Store) ListProfiles(ctx context.Context) ([]program.Person, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, surname, role FROM profiles
		ORDER BY name ASC, surname ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()

	out := []program.Person{}
	for rows.Next() {
		var p program.Person
		if err := rows.Scan(&p.ID, &p.Name, &p.Surname, &p.Role); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}
	return out, nil
}

// UpsertProfiles writes people in one transaction. Missing ids and roles are
// filled in.
func (s *Store) UpsertProfiles(ctx context.Context, people []program.Person) ([]program.Person, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("upsert profiles: begin: %w", err)
	}
	defer tx.Rollback()

	out := make([]program.Person, 0, len(people))
	for _, p := range people {
		if p.ID == "" {
			p.ID = s.newID()
		}
		if p.Role == "" {
			p.Role = "member"
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO profiles (id, name, surname, role) VALUES (?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				surname = excluded.surname,
				role = excluded.role
		`, p.ID, p.Name, p.Surname, p.Role)
		if err != nil {
			return nil, fmt.Errorf("upsert profile %s: %w", p.ID, err)
		}
		out = append(out, p)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("upsert profiles: commit: %w", err)
	}
	return out, nil
}
