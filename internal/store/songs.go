package store

import (
	"context"
	"fmt"

	"github.com/roach88/liturgia/internal/program"
)

// ListSongs returns the whole song catalog ordered by title, then id.
// Implements catalog.Source.
func (s *Store) ListSongs(ctx context.Context) ([]program.SongRef, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, artist, song_key, youtube_url, cifra_url
		FROM songs
		ORDER BY title ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query songs: %w", err)
	}
	defer rows.Close()

	out := []program.SongRef{}
	for rows.Next() {
		var song program.SongRef
		if err := rows.Scan(&song.ID, &song.Title, &song.Artist, &song.Key, &song.YouTubeURL, &song.ChordsURL); err != nil {
			return nil, fmt.Errorf("scan song: %w", err)
		}
		out = append(out, song)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate songs: %w", err)
	}
	return out, nil
}

// UpsertSongs writes songs in one transaction. Songs without an id get one.
// The written songs, ids filled in, are returned in input order.
func (s *Store) UpsertSongs(ctx context.Context, songs []program.SongRef) ([]program.SongRef, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("upsert songs: begin: %w", err)
	}
	defer tx.Rollback()

	out := make([]program.SongRef, 0, len(songs))
	for _, song := range songs {
		if song.Title == "" {
			return nil, fmt.Errorf("upsert songs: song %q has no title", song.ID)
		}
		if song.ID == "" {
			song.ID = s.newID()
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO songs (id, title, artist, song_key, youtube_url, cifra_url)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				title = excluded.title,
				artist = excluded.artist,
				song_key = excluded.song_key,
				youtube_url = excluded.youtube_url,
				cifra_url = excluded.cifra_url
		`, song.ID, song.Title, song.Artist, song.Key, song.YouTubeURL, song.ChordsURL)
		if err != nil {
			return nil, fmt.Errorf("upsert song %s: %w", song.ID, err)
		}
		out = append(out, song)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("upsert songs: commit: %w", err)
	}
	return out, nil
}
