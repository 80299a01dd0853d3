package store

import (
	"context"
	"fmt"
)

// Notification is an in-app message for one user.
type Notification struct {
	ID      int64  `json:"id"`
	UserID  string `json:"user_id"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Link    string `json:"link"`
	IsRead  bool   `json:"is_read"`
}

// NotifyAll sends the same unread notification to every profile and returns
// how many were written.
func (s *Store) NotifyAll(ctx context.Context, title, message, link string) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (user_id, title, message, link, is_read)
		SELECT id, ?, ?, ?, 0 FROM profiles
		ORDER BY id COLLATE BINARY ASC
	`, title, message, link)
	if err != nil {
		return 0, fmt.Errorf("notify all: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("notify all: %w", err)
	}
	return int(n), nil
}

// ListNotifications returns a user's notifications, oldest first.
func (s *Store) ListNotifications(ctx context.Context, userID string) ([]Notification, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, title, message, link, is_read
		FROM notifications
		WHERE user_id = ?
		ORDER BY id ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	out := []Notification{}
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Link, &n.IsRead); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}
	return out, nil
}
